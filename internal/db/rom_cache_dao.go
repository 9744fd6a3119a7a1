package db

import (
	"context"
	"fmt"
	"time"

	"github.com/didi/gendry/builder"
)

const romCacheTableName = "rom_cache_tab"

var RomCacheDao = newRomCacheDao(Default)

// RomCacheEntry records one archive copied into the rom cache.
type RomCacheEntry struct {
	Location   string `json:"location"`
	Name       string `json:"name"`
	Source     string `json:"source"`
	Size       int64  `json:"size"`
	ModTime    int64  `json:"mod_time"`
	CreateTime int64  `json:"create_time"`
	UpdateTime int64  `json:"update_time"`
}

type romCacheDao struct {
	dbGetter DatabaseGetter
}

func newRomCacheDao(getter DatabaseGetter) *romCacheDao {
	return &romCacheDao{
		dbGetter: getter,
	}
}

// NewRomCacheDao builds a dao bound to db instead of the global default.
func NewRomCacheDao(db Database) *romCacheDao {
	return newRomCacheDao(func() Database { return db })
}

const romCacheColumns = "location, rom_name, source, file_size, file_modtime, create_time, update_time"

// Lookup returns the ledger row for location. A nil database reports a miss.
func (dao *romCacheDao) Lookup(ctx context.Context, location string) (RomCacheEntry, bool, error) {
	db := dao.dbGetter()
	if db == nil {
		return RomCacheEntry{}, false, nil
	}

	query := `SELECT ` + romCacheColumns + ` FROM rom_cache_tab WHERE location = ? LIMIT 1`
	rows, err := db.QueryContext(ctx, query, location)
	if err != nil {
		return RomCacheEntry{}, false, fmt.Errorf("query rom cache: %w", err)
	}
	defer rows.Close()

	if rows.Next() {
		var entry RomCacheEntry
		if err := scanEntry(rows, &entry); err != nil {
			return RomCacheEntry{}, false, fmt.Errorf("scan rom cache: %w", err)
		}
		return entry, true, nil
	}
	if err := rows.Err(); err != nil {
		return RomCacheEntry{}, false, err
	}
	return RomCacheEntry{}, false, nil
}

// Upsert stores or refreshes the row keyed by entry.Location.
func (dao *romCacheDao) Upsert(ctx context.Context, entry RomCacheEntry) error {
	db := dao.dbGetter()
	if db == nil {
		return fmt.Errorf("rom cache dao not initialised")
	}

	now := time.Now().Unix()
	payload := []map[string]interface{}{{
		"location":     entry.Location,
		"rom_name":     entry.Name,
		"source":       entry.Source,
		"file_size":    entry.Size,
		"file_modtime": entry.ModTime,
		"create_time":  now,
		"update_time":  now,
	}}
	insertSQL, insertArgs, err := builder.BuildInsert(romCacheTableName, payload)
	if err != nil {
		return err
	}
	if _, err := db.ExecContext(ctx, insertSQL, insertArgs...); err != nil {
		if !isUniqueConstraintError(err) {
			return fmt.Errorf("insert rom cache: %w", err)
		}
		updateSQL, updateArgs, err := builder.BuildUpdate(romCacheTableName,
			map[string]interface{}{"location": entry.Location},
			map[string]interface{}{
				"rom_name":     entry.Name,
				"source":       entry.Source,
				"file_size":    entry.Size,
				"file_modtime": entry.ModTime,
				"update_time":  now,
			},
		)
		if err != nil {
			return err
		}
		if _, err := db.ExecContext(ctx, updateSQL, updateArgs...); err != nil {
			return fmt.Errorf("update rom cache: %w", err)
		}
	}
	return nil
}

// ListAll returns every ledger row ordered by location.
func (dao *romCacheDao) ListAll(ctx context.Context) ([]RomCacheEntry, error) {
	db := dao.dbGetter()
	if db == nil {
		return nil, fmt.Errorf("rom cache dao not initialised")
	}
	query := `SELECT ` + romCacheColumns + ` FROM rom_cache_tab ORDER BY location`
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list rom cache: %w", err)
	}
	defer rows.Close()

	var result []RomCacheEntry
	for rows.Next() {
		var entry RomCacheEntry
		if err := scanEntry(rows, &entry); err != nil {
			return nil, err
		}
		result = append(result, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (dao *romCacheDao) DeleteByLocations(ctx context.Context, locations []string) error {
	if len(locations) == 0 {
		return nil
	}
	db := dao.dbGetter()
	if db == nil {
		return fmt.Errorf("rom cache dao not initialised")
	}
	where := map[string]interface{}{"location in": locations}
	deleteSQL, args, err := builder.BuildDelete(romCacheTableName, where)
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, deleteSQL, args...)
	if err != nil {
		return fmt.Errorf("delete rom cache entries: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanEntry(rows rowScanner, entry *RomCacheEntry) error {
	return rows.Scan(&entry.Location, &entry.Name, &entry.Source, &entry.Size,
		&entry.ModTime, &entry.CreateTime, &entry.UpdateTime)
}
