package storage

import (
	"context"
	"path"
	"strings"
)

// Object is one archive held by a remote source.
type Object struct {
	Key  string
	Name string
	Size int64
}

// Client abstracts the subset of S3 operations the tool needs.
type Client interface {
	List(ctx context.Context, prefix string) ([]Object, error)
	UploadFile(ctx context.Context, key, filePath string, contentType string) error
	DownloadToFile(ctx context.Context, key, destPath string) error
}

var (
	defaultClient Client
)

// SetDefaultClient sets the global storage client used by the application.
func SetDefaultClient(c Client) {
	defaultClient = c
}

// DefaultClient returns the global storage client if one has been configured.
func DefaultClient() Client {
	return defaultClient
}

// Archives maps archive base names to objects whose key ends with ext,
// compared case-insensitively. prefix is a directory: only keys directly
// below it count, so "roms" does not match "romsx.zip".
func Archives(objects []Object, prefix, ext string) map[string]Object {
	out := make(map[string]Object, len(objects))
	lowerExt := strings.ToLower(ext)
	dir := strings.Trim(prefix, "/")
	if dir != "" {
		dir += "/"
	}
	for _, obj := range objects {
		key := strings.TrimPrefix(obj.Key, "/")
		if !strings.HasPrefix(key, dir) {
			continue
		}
		rel := key[len(dir):]
		if rel == "" || strings.Contains(rel, "/") {
			continue
		}
		if !strings.HasSuffix(strings.ToLower(rel), lowerExt) {
			continue
		}
		name := rel[:len(rel)-len(ext)]
		if name == "" {
			continue
		}
		obj.Name = name
		out[name] = obj
	}
	return out
}

// JoinKey builds an object key below prefix.
func JoinKey(prefix, name string) string {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		return name
	}
	return path.Join(prefix, name)
}
