package report

import (
	"database/sql"
	"fmt"
	"os"

	// Need to use SQLite connections.
	_ "github.com/mattn/go-sqlite3"

	"github.com/rs/xid"
)

// SQLiteWriter stores site reports in an SQLite database.
type SQLiteWriter struct {
	*sql.DB

	filename string
	runID    string
}

// NewSQLiteWriter creates the database <base>.sqlite3. An empty base names
// the database after a fresh run id. An existing file is never overwritten.
func NewSQLiteWriter(base string) (*SQLiteWriter, error) {
	runID := xid.New().String()
	if base == "" {
		base = "cachehit_" + runID
	}

	filename := base + ".sqlite3"
	if _, err := os.Stat(filename); err == nil {
		return nil, fmt.Errorf("file %s already exists", filename)
	}

	db, err := sql.Open("sqlite3", filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", filename, err)
	}

	w := &SQLiteWriter{DB: db, filename: filename, runID: runID}
	if err := w.createTables(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return w, nil
}

// Filename returns the path of the database file.
func (w *SQLiteWriter) Filename() string {
	return w.filename
}

// RunID returns the id stored with every row written by w.
func (w *SQLiteWriter) RunID() string {
	return w.runID
}

func (w *SQLiteWriter) createTables() error {
	stmts := []string{
		`create table sites
		(
			run_id        varchar(20)  not null,
			site_id       varchar(20)  not null,
			name          varchar(200) not null,
			executions    integer      not null,
			cache_size    integer      not null,
			associativity integer      not null,
			policy        varchar(10)  not null,
			hits          integer      not null,
			misses        integer      not null
		);`,
		`create table activations
		(
			run_id     varchar(20)  not null,
			site_id    varchar(20)  not null,
			name       varchar(200) not null,
			activation integer      not null,
			cache_size integer      not null,
			hits       integer      not null,
			misses     integer      not null
		);`,
		`create index sites_name_index on sites (name);`,
		`create index activations_site_id_index on activations (site_id);`,
	}

	for _, s := range stmts {
		if _, err := w.Exec(s); err != nil {
			return fmt.Errorf("failed to create tables: %w", err)
		}
	}

	return nil
}

// Write stores every row and activation of r in one transaction.
func (w *SQLiteWriter) Write(r SiteReport) error {
	tx, err := w.Begin()
	if err != nil {
		return err
	}

	if err := w.write(tx, r); err != nil {
		_ = tx.Rollback()
		return err
	}

	return tx.Commit()
}

func (w *SQLiteWriter) write(tx *sql.Tx, r SiteReport) error {
	siteStmt, err := tx.Prepare(`insert into sites values (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer siteStmt.Close()

	actStmt, err := tx.Prepare(`insert into activations values (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer actStmt.Close()

	for _, row := range r.Rows {
		id := row.ID
		if id == "" {
			id = row.Name
		}

		for i, s := range row.Stats {
			c := r.Configs[i]
			_, err := siteStmt.Exec(w.runID, id, row.Name, row.Executions,
				c.Size, c.Associativity, string(c.Policy), s.Hits, s.Misses)
			if err != nil {
				return fmt.Errorf("failed to insert site %s: %w", row.Name, err)
			}
		}
	}

	for _, d := range r.Details {
		for i, s := range d.Stats {
			_, err := actStmt.Exec(w.runID, d.ID, d.Name, d.Activation,
				r.Configs[i].Size, s.Hits, s.Misses)
			if err != nil {
				return fmt.Errorf("failed to insert activation %d of %s: %w",
					d.Activation, d.Name, err)
			}
		}
	}

	return nil
}
