// Package sqlstore keeps progress records in a SQL database through bun, on
// either Postgres or an embedded SQLite file.
package sqlstore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/pgdriver"
	_ "modernc.org/sqlite"
)

// OpenPostgres returns a bun DB over pgdriver. The schema comes from migrations.
func OpenPostgres(dsn string) *bun.DB {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	return bun.NewDB(sqldb, pgdialect.New())
}

// OpenSQLite opens (creating if needed) a SQLite database and ensures the
// progress schema exists.
func OpenSQLite(ctx context.Context, path string) (*bun.DB, error) {
	sqldb, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// modernc sqlite serializes writers; one connection avoids SQLITE_BUSY.
	sqldb.SetMaxOpenConns(1)

	db := bun.NewDB(sqldb, sqlitedialect.New())
	if err := ensureSchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func ensureSchema(ctx context.Context, db *bun.DB) error {
	if _, err := db.NewCreateTable().Model((*progressRow)(nil)).IfNotExists().Exec(ctx); err != nil {
		return fmt.Errorf("create progress_records: %w", err)
	}
	_, err := db.NewCreateIndex().
		Model((*progressRow)(nil)).
		Index("progress_records_student_idx").
		Column("student_name", "grade").
		IfNotExists().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("create progress index: %w", err)
	}
	return nil
}
