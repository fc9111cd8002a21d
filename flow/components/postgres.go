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
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/oklog/ulid/v2"
	"github.com/rakunlabs/flow"
	"github.com/rakunlabs/muz"
)

//go:embed migrations/postgres/*
var postgresMigrationFS embed.FS

// PostgresSink is SQLiteSink's Postgres counterpart, using the stdlib pgx
// driver and goqu to build the insert, the same pairing the teacher's
// store/postgres package uses.
type PostgresSink struct {
	In flow.PortID

	Datasource string

	once sync.Once
	db   *sql.DB
	goqu *goqu.Database
	err  error
}

func (c *PostgresSink) Kind() flow.ComponentKind { return flow.Lazy }
func (c *PostgresSink) Inputs() *flow.Ports      { return flow.NewPorts([]flow.Port{{ID: c.In}}) }
func (c *PostgresSink) Outputs() *flow.Ports     { return flow.NewPorts(nil) }

func (c *PostgresSink) open(ctx context.Context) (*goqu.Database, error) {
	c.once.Do(func() {
		m := muz.Migrate{
			Path:      "migrations/postgres",
			FS:        postgresMigrationFS,
			Extension: ".sql",
			Values:    map[string]string{"TABLE_PREFIX": ""},
		}

		db, err := sql.Open("pgx", c.Datasource)
		if err != nil {
			c.err = fmt.Errorf("open postgres connection: %w", err)
			return
		}

		driver := muz.NewPostgresDriver(db, "flow_migrations", slog.Default())
		if err := m.Migrate(ctx, driver); err != nil {
			db.Close()
			c.err = fmt.Errorf("run migrations: %w", err)
			return
		}

		c.db = db
		c.goqu = goqu.New("postgres", db)
	})
	return c.goqu, c.err
}

func (c *PostgresSink) Run(ctx *flow.Context) (flow.Signal, error) {
	db, err := c.open(ctx.StdContext())
	if err != nil {
		return flow.Continue, fmt.Errorf("components: postgres_sink: %w", err)
	}

	for _, pkg := range ctx.ReceiveAll(c.In) {
		payload, err := json.Marshal(toPlain(pkg))
		if err != nil {
			return flow.Continue, fmt.Errorf("components: postgres_sink: encode: %w", err)
		}

		_, err = db.Insert("sink").Rows(goqu.Record{
			"id":      ulid.Make().String(),
			"cycle":   ctx.Cycle(),
			"payload": string(payload),
		}).Executor().ExecContext(ctx.StdContext())
		if err != nil {
			return flow.Continue, fmt.Errorf("components: postgres_sink: insert: %w", err)
		}
	}
	return flow.Continue, nil
}
