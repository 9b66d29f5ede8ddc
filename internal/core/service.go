// Package core implements the trip-planning service: project lifecycle,
// category and feature operations on the saved-feature tree, route line
// management, and backup import. State lives in two places with different
// consistency models: the feature tree and project list persist synchronously
// through a key-value store on every mutation, while route lines live in an
// indexed line store and are reloaded asynchronously on project switches.
package core

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"tripcore/pkg/domain"
)

// Service owns all trip state for one process. All exported methods are safe
// for concurrent use; a single mutex serializes access so no operation ever
// observes a partially applied mutation.
type Service struct {
	mu         sync.Mutex
	kv         domain.KVStore
	lineStore  domain.LineStore
	projects   map[string]*domain.FeatureTree
	management domain.ProjectManagement

	// lines caches the current project's route lines. The cache is emptied on
	// every project switch and refilled by an asynchronous reload; a reload
	// that finishes after another switch is discarded via lineEpoch.
	lines     []domain.LineDefinition
	lineEpoch uint64
	reloads   sync.WaitGroup

	logger  Logger
	metrics MetricsRecorder
	tracer  Tracer
}

// NewService loads persisted state from the key-value store, seeding the
// default project on first run, and starts the initial line reload.
func NewService(kv domain.KVStore, lineStore domain.LineStore, opts ...ServiceOption) (*Service, error) {
	s := &Service{
		kv:        kv,
		lineStore: lineStore,
		projects:  make(map[string]*domain.FeatureTree),
		logger:    noopLogger{},
		metrics:   noopMetrics{},
		tracer:    noopTracer{},
	}
	for _, opt := range opts {
		opt(s)
	}
	if err := s.load(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.reloadLinesLocked(s.management.CurrentProjectName)
	s.mu.Unlock()
	return s, nil
}

// load restores projects and management state, creating the default project
// when the store is empty.
func (s *Service) load() error {
	raw, ok, err := s.kv.Get(domain.KeyProjectsData)
	if err != nil {
		return fmt.Errorf("load projects: %w", err)
	}
	if ok {
		if err := json.Unmarshal([]byte(raw), &s.projects); err != nil {
			return fmt.Errorf("decode projects: %w", err)
		}
	}

	raw, ok, err = s.kv.Get(domain.KeyProjectManagement)
	if err != nil {
		return fmt.Errorf("load project management: %w", err)
	}
	if ok {
		if err := json.Unmarshal([]byte(raw), &s.management); err != nil {
			return fmt.Errorf("decode project management: %w", err)
		}
	}

	changed := false
	if len(s.management.ProjectNames) == 0 {
		s.management.ProjectNames = []string{domain.DefaultProjectName}
		changed = true
	}
	if s.management.CurrentProjectName == "" {
		s.management.CurrentProjectName = s.management.ProjectNames[0]
		changed = true
	}
	for _, name := range s.management.ProjectNames {
		if _, ok := s.projects[name]; !ok {
			s.projects[name] = domain.NewFeatureTree()
			changed = true
		}
	}
	if changed {
		if err := s.persistLocked(); err != nil {
			return err
		}
	}
	return nil
}

// persistLocked writes both state keys. Callers hold s.mu.
func (s *Service) persistLocked() error {
	data, err := json.Marshal(s.projects)
	if err != nil {
		return fmt.Errorf("encode projects: %w", err)
	}
	if err := s.kv.Set(domain.KeyProjectsData, string(data)); err != nil {
		return fmt.Errorf("persist projects: %w", err)
	}
	data, err = json.Marshal(s.management)
	if err != nil {
		return fmt.Errorf("encode project management: %w", err)
	}
	if err := s.kv.Set(domain.KeyProjectManagement, string(data)); err != nil {
		return fmt.Errorf("persist project management: %w", err)
	}
	return nil
}

// currentTreeLocked returns the current project's tree, creating it when the
// management state references a project the data key lost.
func (s *Service) currentTreeLocked() *domain.FeatureTree {
	name := s.management.CurrentProjectName
	tree, ok := s.projects[name]
	if !ok {
		tree = domain.NewFeatureTree()
		s.projects[name] = tree
	}
	return tree
}

// Projects returns the known project names in creation order.
func (s *Service) Projects() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.management.ProjectNames...)
}

// CurrentProject returns the active project name.
func (s *Service) CurrentProject() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.management.CurrentProjectName
}

// CreateProject registers an empty project and switches to it.
func (s *Service) CreateProject(ctx context.Context, name string) error {
	return s.observe(ctx, "create_project", func(context.Context) error {
		if name == "" {
			return domain.ValidationError{Op: "create project", Message: "project name must not be empty"}
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		if _, ok := s.projects[name]; ok {
			return domain.ValidationError{Op: "create project", Message: fmt.Sprintf("project %q already exists", name)}
		}
		s.projects[name] = domain.NewFeatureTree()
		s.management.ProjectNames = append(s.management.ProjectNames, name)
		s.management.CurrentProjectName = name
		if err := s.persistLocked(); err != nil {
			return err
		}
		s.reloadLinesLocked(name)
		s.logger.Info("project created", "project", name)
		return nil
	})
}

// SwitchProject makes the named project current. The route line view empties
// immediately and refills when the asynchronous reload lands.
func (s *Service) SwitchProject(ctx context.Context, name string) error {
	return s.observe(ctx, "switch_project", func(context.Context) error {
		s.mu.Lock()
		defer s.mu.Unlock()
		if _, ok := s.projects[name]; !ok {
			return domain.NotFoundError{Kind: "project", Name: name}
		}
		if s.management.CurrentProjectName == name {
			return nil
		}
		s.management.CurrentProjectName = name
		if err := s.persistLocked(); err != nil {
			return err
		}
		s.reloadLinesLocked(name)
		s.logger.Info("project switched", "project", name)
		return nil
	})
}

// ProjectTree returns a deep copy of the named project's feature tree.
func (s *Service) ProjectTree(name string) (*domain.FeatureTree, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tree, ok := s.projects[name]
	if !ok {
		return nil, domain.NotFoundError{Kind: "project", Name: name}
	}
	return tree.Clone(), nil
}

// reloadLinesLocked empties the line cache and schedules a reload for the
// named project. Callers hold s.mu. A reload result is applied only when no
// newer reload has been scheduled since, so a slow fetch for a project the
// user already left never overwrites the current view.
func (s *Service) reloadLinesLocked(projectName string) {
	s.lineEpoch++
	epoch := s.lineEpoch
	s.lines = nil
	s.reloads.Add(1)
	go func() {
		defer s.reloads.Done()
		lines, err := s.lineStore.LinesForProject(context.Background(), projectName)
		if err != nil {
			s.logger.Error("line reload failed", "project", projectName, "error", err)
			return
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.lineEpoch != epoch {
			s.logger.Debug("stale line reload discarded", "project", projectName)
			return
		}
		s.lines = lines
	}()
}

// WaitForLines blocks until every scheduled line reload has finished.
func (s *Service) WaitForLines() {
	s.reloads.Wait()
}
