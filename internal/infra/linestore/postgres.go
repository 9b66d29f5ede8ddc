package linestore

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"

	"tripcore/pkg/domain"
)

var _ domain.LineStore = (*Postgres)(nil)

// Postgres persists lines in a shared postgres database using the pgx stdlib
// driver. Schema mirrors the sqlite store.
type Postgres struct {
	db *sql.DB
}

// OpenPostgres connects using the given DSN and ensures the schema exists.
func OpenPostgres(dsn string) (*Postgres, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres line store requires a DSN")
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	store := &Postgres{db: db}
	if err := store.ensureSchema(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

func (p *Postgres) ensureSchema() error {
	_, err := p.db.Exec(`CREATE TABLE IF NOT EXISTS lines (
        id TEXT PRIMARY KEY,
        name TEXT NOT NULL,
        project_name TEXT NOT NULL,
        poi_ids JSONB NOT NULL
    )`)
	if err != nil {
		return fmt.Errorf("ensure lines table: %w", err)
	}
	_, err = p.db.Exec(`CREATE INDEX IF NOT EXISTS lines_project_name_idx ON lines(project_name)`)
	if err != nil {
		return fmt.Errorf("ensure project index: %w", err)
	}
	return nil
}

// PutLine inserts or replaces the line.
func (p *Postgres) PutLine(ctx context.Context, line domain.LineDefinition) error {
	poiIDs, err := encodePOIIDs(line.POIIDs)
	if err != nil {
		return err
	}
	_, err = p.db.ExecContext(ctx, `INSERT INTO lines (id, name, project_name, poi_ids)
        VALUES ($1, $2, $3, $4)
        ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name,
            project_name = EXCLUDED.project_name,
            poi_ids = EXCLUDED.poi_ids`,
		line.ID, line.Name, line.ProjectName, poiIDs)
	if err != nil {
		return fmt.Errorf("put line %s: %w", line.ID, err)
	}
	return nil
}

// GetLine returns the line with the given id.
func (p *Postgres) GetLine(ctx context.Context, id string) (domain.LineDefinition, bool, error) {
	row := p.db.QueryRowContext(ctx, `SELECT id, name, project_name, poi_ids::text FROM lines WHERE id = $1`, id)
	line, err := scanLine(row)
	if err == sql.ErrNoRows {
		return domain.LineDefinition{}, false, nil
	}
	if err != nil {
		return domain.LineDefinition{}, false, fmt.Errorf("get line %s: %w", id, err)
	}
	return line, true, nil
}

// LinesForProject returns every line of the project via the project index.
func (p *Postgres) LinesForProject(ctx context.Context, projectName string) ([]domain.LineDefinition, error) {
	rows, err := p.db.QueryContext(ctx, `SELECT id, name, project_name, poi_ids::text FROM lines WHERE project_name = $1`, projectName)
	if err != nil {
		return nil, fmt.Errorf("query lines for %s: %w", projectName, err)
	}
	defer rows.Close()
	return collectLines(rows, projectName)
}

// DeleteLine removes the line; deleting an absent id is not an error.
func (p *Postgres) DeleteLine(ctx context.Context, id string) error {
	if _, err := p.db.ExecContext(ctx, `DELETE FROM lines WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete line %s: %w", id, err)
	}
	return nil
}

// ClearProject removes every line of the project in a single statement.
func (p *Postgres) ClearProject(ctx context.Context, projectName string) error {
	if _, err := p.db.ExecContext(ctx, `DELETE FROM lines WHERE project_name = $1`, projectName); err != nil {
		return fmt.Errorf("clear project %s: %w", projectName, err)
	}
	return nil
}

// Close closes the underlying database.
func (p *Postgres) Close() error { return p.db.Close() }
