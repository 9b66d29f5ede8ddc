package linestore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"

	_ "modernc.org/sqlite"

	"tripcore/pkg/domain"
)

var _ domain.LineStore = (*SQLite)(nil)

// SQLite persists lines in an embedded sqlite database, one row per line,
// with an index on project_name backing the per-project lookups.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the database at path and ensures the
// schema exists.
func OpenSQLite(path string) (*SQLite, error) {
	if path == "" {
		path = "tripcore.db"
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	store := &SQLite{db: db}
	if err := store.ensureSchema(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

func (s *SQLite) ensureSchema() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS lines (
        id TEXT PRIMARY KEY,
        name TEXT NOT NULL,
        project_name TEXT NOT NULL,
        poi_ids TEXT NOT NULL
    )`)
	if err != nil {
		return fmt.Errorf("ensure lines table: %w", err)
	}
	_, err = s.db.Exec(`CREATE INDEX IF NOT EXISTS lines_project_name_idx ON lines(project_name)`)
	if err != nil {
		return fmt.Errorf("ensure project index: %w", err)
	}
	return nil
}

// PutLine inserts or replaces the line.
func (s *SQLite) PutLine(ctx context.Context, line domain.LineDefinition) error {
	poiIDs, err := encodePOIIDs(line.POIIDs)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO lines (id, name, project_name, poi_ids)
        VALUES (?, ?, ?, ?)
        ON CONFLICT(id) DO UPDATE SET name = excluded.name,
            project_name = excluded.project_name,
            poi_ids = excluded.poi_ids`,
		line.ID, line.Name, line.ProjectName, poiIDs)
	if err != nil {
		return fmt.Errorf("put line %s: %w", line.ID, err)
	}
	return nil
}

// GetLine returns the line with the given id.
func (s *SQLite) GetLine(ctx context.Context, id string) (domain.LineDefinition, bool, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id, name, project_name, poi_ids FROM lines WHERE id = ?`, id)
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
func (s *SQLite) LinesForProject(ctx context.Context, projectName string) ([]domain.LineDefinition, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, project_name, poi_ids FROM lines WHERE project_name = ?`, projectName)
	if err != nil {
		return nil, fmt.Errorf("query lines for %s: %w", projectName, err)
	}
	defer rows.Close()
	return collectLines(rows, projectName)
}

// DeleteLine removes the line; deleting an absent id is not an error.
func (s *SQLite) DeleteLine(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM lines WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete line %s: %w", id, err)
	}
	return nil
}

// ClearProject removes every line of the project in a single statement, so a
// concurrent reader never observes a partially cleared project.
func (s *SQLite) ClearProject(ctx context.Context, projectName string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM lines WHERE project_name = ?`, projectName); err != nil {
		return fmt.Errorf("clear project %s: %w", projectName, err)
	}
	return nil
}

// Close closes the underlying database.
func (s *SQLite) Close() error { return s.db.Close() }

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLine(row rowScanner) (domain.LineDefinition, error) {
	var line domain.LineDefinition
	var poiIDs string
	if err := row.Scan(&line.ID, &line.Name, &line.ProjectName, &poiIDs); err != nil {
		return domain.LineDefinition{}, err
	}
	ids, err := decodePOIIDs(poiIDs)
	if err != nil {
		return domain.LineDefinition{}, err
	}
	line.POIIDs = ids
	return line, nil
}

func collectLines(rows *sql.Rows, projectName string) ([]domain.LineDefinition, error) {
	out := []domain.LineDefinition{}
	for rows.Next() {
		line, err := scanLine(rows)
		if err != nil {
			return nil, fmt.Errorf("scan line for %s: %w", projectName, err)
		}
		out = append(out, line)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate lines for %s: %w", projectName, err)
	}
	sortLines(out)
	return out, nil
}

func encodePOIIDs(ids []string) (string, error) {
	if ids == nil {
		ids = []string{}
	}
	data, err := json.Marshal(ids)
	if err != nil {
		return "", fmt.Errorf("encode poi ids: %w", err)
	}
	return string(data), nil
}

func decodePOIIDs(raw string) ([]string, error) {
	var ids []string
	if err := json.Unmarshal([]byte(raw), &ids); err != nil {
		return nil, fmt.Errorf("decode poi ids: %w", err)
	}
	return ids, nil
}

// sortLines gives LinesForProject a stable order across drivers.
func sortLines(lines []domain.LineDefinition) {
	sort.Slice(lines, func(i, j int) bool {
		if lines[i].Name != lines[j].Name {
			return lines[i].Name < lines[j].Name
		}
		return lines[i].ID < lines[j].ID
	})
}
