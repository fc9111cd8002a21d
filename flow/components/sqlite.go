package components

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/sqlite3"
	"github.com/oklog/ulid/v2"
	"github.com/rakunlabs/flow"
	"github.com/rakunlabs/muz"

	_ "modernc.org/sqlite"
)

//go:embed migrations/sqlite/*
var sqliteMigrationFS embed.FS

// SQLiteSink appends every received package's rendered payload to a local
// SQLite table, mirroring the teacher's store/sqlite3 open-and-migrate
// pattern but scoped to a single append-only sink table rather than the
// teacher's multi-tenant schema.
type SQLiteSink struct {
	In flow.PortID

	// Datasource is a database/sql DSN for the modernc.org/sqlite driver.
	Datasource string

	once sync.Once
	db   *sql.DB
	goqu *goqu.Database
	err  error
}

func (c *SQLiteSink) Kind() flow.ComponentKind { return flow.Lazy }
func (c *SQLiteSink) Inputs() *flow.Ports      { return flow.NewPorts([]flow.Port{{ID: c.In}}) }
func (c *SQLiteSink) Outputs() *flow.Ports     { return flow.NewPorts(nil) }

func (c *SQLiteSink) open(ctx context.Context) (*goqu.Database, error) {
	c.once.Do(func() {
		m := muz.Migrate{
			Path:      "migrations/sqlite",
			FS:        sqliteMigrationFS,
			Extension: ".sql",
			Values:    map[string]string{"TABLE_PREFIX": ""},
		}

		migrateDB, err := sql.Open("sqlite", c.Datasource)
		if err != nil {
			c.err = fmt.Errorf("open sqlite connection: %w", err)
			return
		}
		defer migrateDB.Close()

		driver := muz.NewSQLiteDriver(migrateDB, "flow_migrations", slog.Default())
		if err := m.Migrate(ctx, driver); err != nil {
			c.err = fmt.Errorf("run migrations: %w", err)
			return
		}

		db, err := sql.Open("sqlite", c.Datasource)
		if err != nil {
			c.err = fmt.Errorf("open sqlite connection: %w", err)
			return
		}
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)

		c.db = db
		c.goqu = goqu.New("sqlite3", db)
	})
	return c.goqu, c.err
}

func (c *SQLiteSink) Run(ctx *flow.Context) (flow.Signal, error) {
	db, err := c.open(ctx.StdContext())
	if err != nil {
		return flow.Continue, fmt.Errorf("components: sqlite_sink: %w", err)
	}

	for _, pkg := range ctx.ReceiveAll(c.In) {
		payload, err := json.Marshal(toPlain(pkg))
		if err != nil {
			return flow.Continue, fmt.Errorf("components: sqlite_sink: encode: %w", err)
		}

		_, err = db.Insert("sink").Rows(goqu.Record{
			"id":      ulid.Make().String(),
			"cycle":   ctx.Cycle(),
			"payload": string(payload),
		}).Executor().ExecContext(ctx.StdContext())
		if err != nil {
			return flow.Continue, fmt.Errorf("components: sqlite_sink: insert: %w", err)
		}
	}
	return flow.Continue, nil
}
