package sqlite

import (
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

type ConnectionInfo struct {
	Path string
	// BusyTimeoutMS is how long a connection waits on a locked database.
	BusyTimeoutMS int
}

// NewSQLiteConnection opens (and creates, if needed) the database file in WAL mode.
func NewSQLiteConnection(info ConnectionInfo) (*sql.DB, error) {
	if info.Path == "" {
		info.Path = "payroll.db"
	}
	if info.BusyTimeoutMS <= 0 {
		info.BusyTimeoutMS = 5000
	}

	if dir := filepath.Dir(info.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to ensure database dir %q: %w", dir, err)
		}
	}

	q := url.Values{}
	q.Add("_pragma", fmt.Sprintf("busy_timeout(%d)", info.BusyTimeoutMS))
	q.Add("_pragma", "journal_mode(WAL)")
	dsn := "file:" + info.Path + "?" + q.Encode()

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return db, nil
}

func Close(db *sql.DB) error {
	if db == nil {
		return nil
	}
	return db.Close()
}
