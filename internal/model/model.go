// Package model holds the JSON reports printed or written by the commands.
package model

// RomTestResult is the outcome of checking one archive against a datafile.
type RomTestResult struct {
	File          string   `json:"file"`
	Game          string   `json:"game"`
	Parent        string   `json:"parent,omitempty"`
	ParentMissing bool     `json:"parent-missing,omitempty"`
	Skipped       bool     `json:"skipped,omitempty"`
	Issues        []string `json:"issues,omitempty"`
}

// Passed reports whether the archive matched every expected rom.
func (r RomTestResult) Passed() bool {
	return !r.Skipped && len(r.Issues) == 0
}

// RomTestReport aggregates RomTestResult entries.
type RomTestReport struct {
	Total   int             `json:"total"`
	Passed  int             `json:"passed"`
	Failed  int             `json:"failed"`
	Skipped int             `json:"skipped"`
	Results []RomTestResult `json:"results"`
}

// Add appends r and updates the counters.
func (r *RomTestReport) Add(res RomTestResult) {
	r.Total++
	switch {
	case res.Skipped:
		r.Skipped++
	case res.Passed():
		r.Passed++
	default:
		r.Failed++
	}
	r.Results = append(r.Results, res)
}

// VerifyCase lists why a catalog game cannot be launched cleanly.
type VerifyCase struct {
	Game   string   `json:"game"`
	Title  string   `json:"title"`
	Reason []string `json:"reason"`
}

// VerifyOutput is the verify command report.
type VerifyOutput struct {
	Checked  int          `json:"checked"`
	CaseList []VerifyCase `json:"case_list"`
}

// CacheCleanResult summarises a rom cache clean pass.
type CacheCleanResult struct {
	Entries int      `json:"entries"`
	Missing []string `json:"missing"`
	Orphans []string `json:"orphans"`
	Deleted int      `json:"deleted"`
	DryRun  bool     `json:"dry_run"`
}

// RemotePushResult lists the archives remote-push uploaded or, in a dry
// run, would upload.
type RemotePushResult struct {
	Pushed []string `json:"pushed"`
	Bytes  int64    `json:"bytes"`
	DryRun bool     `json:"dry_run"`
}
