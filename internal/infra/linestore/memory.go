// Package linestore provides the indexed persistence layer for route line
// definitions. Three drivers share one contract: an in-memory store for
// tests, an embedded sqlite store for single-node use, and a postgres store
// for shared deployments. All lookups by project go through an index on the
// project name rather than scanning every line.
package linestore

import (
	"context"
	"sync"

	"tripcore/pkg/domain"
)

var _ domain.LineStore = (*Memory)(nil)

// Memory keeps lines in a map keyed by id with a secondary index keyed by
// project name.
type Memory struct {
	mu        sync.RWMutex
	lines     map[string]domain.LineDefinition
	byProject map[string]map[string]struct{}
}

// NewMemory returns an empty in-memory line store.
func NewMemory() *Memory {
	return &Memory{
		lines:     make(map[string]domain.LineDefinition),
		byProject: make(map[string]map[string]struct{}),
	}
}

// PutLine inserts or replaces the line, moving it between project indexes
// when the project name changed.
func (m *Memory) PutLine(ctx context.Context, line domain.LineDefinition) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if prev, ok := m.lines[line.ID]; ok && prev.ProjectName != line.ProjectName {
		m.dropFromIndex(prev.ProjectName, prev.ID)
	}
	m.lines[line.ID] = line.Clone()
	idx, ok := m.byProject[line.ProjectName]
	if !ok {
		idx = make(map[string]struct{})
		m.byProject[line.ProjectName] = idx
	}
	idx[line.ID] = struct{}{}
	return nil
}

// GetLine returns the line with the given id.
func (m *Memory) GetLine(ctx context.Context, id string) (domain.LineDefinition, bool, error) {
	if err := ctx.Err(); err != nil {
		return domain.LineDefinition{}, false, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	line, ok := m.lines[id]
	if !ok {
		return domain.LineDefinition{}, false, nil
	}
	return line.Clone(), true, nil
}

// LinesForProject returns every line belonging to the project.
func (m *Memory) LinesForProject(ctx context.Context, projectName string) ([]domain.LineDefinition, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := m.byProject[projectName]
	out := make([]domain.LineDefinition, 0, len(ids))
	for id := range ids {
		out = append(out, m.lines[id].Clone())
	}
	sortLines(out)
	return out, nil
}

// DeleteLine removes the line; deleting an absent id is not an error.
func (m *Memory) DeleteLine(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	line, ok := m.lines[id]
	if !ok {
		return nil
	}
	delete(m.lines, id)
	m.dropFromIndex(line.ProjectName, id)
	return nil
}

// ClearProject removes every line of the project in one step.
func (m *Memory) ClearProject(ctx context.Context, projectName string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for id := range m.byProject[projectName] {
		delete(m.lines, id)
	}
	delete(m.byProject, projectName)
	return nil
}

// Close releases nothing for the in-memory store.
func (m *Memory) Close() error { return nil }

func (m *Memory) dropFromIndex(projectName, id string) {
	idx, ok := m.byProject[projectName]
	if !ok {
		return
	}
	delete(idx, id)
	if len(idx) == 0 {
		delete(m.byProject, projectName)
	}
}
