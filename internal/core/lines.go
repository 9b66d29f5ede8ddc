package core

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"tripcore/pkg/domain"
	"tripcore/pkg/geo"
)

// Lines returns the cached route lines of the current project. Immediately
// after a project switch the view is empty until the asynchronous reload
// lands; WaitForLines forces the issue.
func (s *Service) Lines(ctx context.Context) []domain.LineDefinition {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.LineDefinition, len(s.lines))
	for i, line := range s.lines {
		out[i] = line.Clone()
	}
	return out
}

// ProjectLines reads the named project's lines directly from the line store,
// bypassing the cache. Exports use this to avoid racing a pending reload.
func (s *Service) ProjectLines(ctx context.Context, projectName string) ([]domain.LineDefinition, error) {
	return s.lineStore.LinesForProject(ctx, projectName)
}

// AddLine creates a route line in the current project from an ordered list of
// feature ids.
func (s *Service) AddLine(ctx context.Context, name string, poiIDs []string) (domain.LineDefinition, error) {
	var created domain.LineDefinition
	err := s.observe(ctx, "add_line", func(ctx context.Context) error {
		name = strings.TrimSpace(name)
		if name == "" {
			return domain.ValidationError{Op: "add line", Message: "line name must not be empty"}
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		created = domain.LineDefinition{
			ID:          uuid.NewString(),
			Name:        name,
			ProjectName: s.management.CurrentProjectName,
			POIIDs:      append([]string(nil), poiIDs...),
		}
		if err := s.lineStore.PutLine(ctx, created); err != nil {
			return err
		}
		s.lines = append(s.lines, created.Clone())
		s.logger.Info("line added", "line", created.ID, "name", created.Name)
		return nil
	})
	return created, err
}

// UpdateLine replaces a stored line. The line must already exist and belong
// to the current project; lines are never moved between projects through this
// path.
func (s *Service) UpdateLine(ctx context.Context, line domain.LineDefinition) error {
	return s.observe(ctx, "update_line", func(ctx context.Context) error {
		s.mu.Lock()
		defer s.mu.Unlock()
		existing, ok, err := s.lineStore.GetLine(ctx, line.ID)
		if err != nil {
			return err
		}
		if !ok {
			return domain.NotFoundError{Kind: "line", Name: line.ID}
		}
		if existing.ProjectName != s.management.CurrentProjectName {
			return domain.ValidationError{Op: "update line", Message: fmt.Sprintf("line %q belongs to project %q", line.ID, existing.ProjectName)}
		}
		line.ProjectName = existing.ProjectName
		if err := s.lineStore.PutLine(ctx, line); err != nil {
			return err
		}
		for i := range s.lines {
			if s.lines[i].ID == line.ID {
				s.lines[i] = line.Clone()
			}
		}
		return nil
	})
}

// DeleteLine removes a route line; deleting an absent id is not an error.
func (s *Service) DeleteLine(ctx context.Context, id string) error {
	return s.observe(ctx, "delete_line", func(ctx context.Context) error {
		s.mu.Lock()
		defer s.mu.Unlock()
		if err := s.lineStore.DeleteLine(ctx, id); err != nil {
			return err
		}
		for i := range s.lines {
			if s.lines[i].ID == id {
				s.lines = append(s.lines[:i:i], s.lines[i+1:]...)
				break
			}
		}
		return nil
	})
}

// ResolveRoute turns a route line into a LineString feature by resolving its
// feature ids against the current project. Missing ids degrade the route
// rather than failing it. A line left with fewer than two resolvable
// waypoints falls back to a route through every point feature of the default
// category; when that also yields fewer than two points the route is
// unresolvable.
func (s *Service) ResolveRoute(ctx context.Context, lineID string) (geo.Feature, error) {
	var resolved geo.Feature
	err := s.observe(ctx, "resolve_route", func(ctx context.Context) error {
		line, ok, err := s.lineStore.GetLine(ctx, lineID)
		if err != nil {
			return err
		}
		if !ok {
			return domain.NotFoundError{Kind: "line", Name: lineID}
		}

		s.mu.Lock()
		defer s.mu.Unlock()
		tree := s.currentTreeLocked()
		waypoints := make([]geo.Feature, 0, len(line.POIIDs))
		for _, id := range line.POIIDs {
			f, ok := tree.FeatureByID(id)
			if !ok {
				s.logger.Debug("route waypoint missing", "line", line.ID, "feature", id)
				continue
			}
			waypoints = append(waypoints, f)
		}

		geom, ok := geo.RouteLineString(waypoints)
		if !ok {
			geom, ok = geo.RouteLineString(tree.Features(domain.DefaultCategory))
		}
		if !ok {
			return domain.ValidationError{Op: "resolve route", Message: fmt.Sprintf("line %q has fewer than two resolvable waypoints", line.ID)}
		}
		resolved = geo.NewFeature(geom, map[string]any{
			"id":   line.ID,
			"name": line.Name,
		})
		return nil
	})
	return resolved, err
}
