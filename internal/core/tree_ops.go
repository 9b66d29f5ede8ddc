package core

import (
	"context"

	"tripcore/pkg/domain"
	"tripcore/pkg/geo"
)

// Categories returns the current project's category names in display order.
func (s *Service) Categories(ctx context.Context) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentTreeLocked().Categories()
}

// Features returns the features of one category in list order.
func (s *Service) Features(ctx context.Context, category string) []geo.Feature {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentTreeLocked().Features(category)
}

// AllFeatures returns every feature of the current project across categories.
func (s *Service) AllFeatures(ctx context.Context) []geo.Feature {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentTreeLocked().AllFeatures()
}

// SearchFeatures returns the current project's features whose name or
// description contains the query, case-insensitively.
func (s *Service) SearchFeatures(ctx context.Context, query string) []geo.Feature {
	s.mu.Lock()
	defer s.mu.Unlock()
	return geo.FilterFeatures(s.currentTreeLocked().AllFeatures(), query)
}

// AddCategory adds an empty category to the current project and returns the
// name actually used (a synthesized one when the requested name is empty or
// taken).
func (s *Service) AddCategory(ctx context.Context, name string) (string, error) {
	var used string
	err := s.observe(ctx, "add_category", func(context.Context) error {
		s.mu.Lock()
		defer s.mu.Unlock()
		used = s.currentTreeLocked().AddCategory(name)
		return s.persistLocked()
	})
	return used, err
}

// RenameCategory renames a category, preserving its display position.
func (s *Service) RenameCategory(ctx context.Context, oldName, newName string) error {
	return s.observe(ctx, "rename_category", func(context.Context) error {
		s.mu.Lock()
		defer s.mu.Unlock()
		if err := s.currentTreeLocked().RenameCategory(oldName, newName); err != nil {
			return err
		}
		return s.persistLocked()
	})
}

// RemoveCategory deletes a category, migrating its features to the default
// category, and returns the category a selection should fall back to.
func (s *Service) RemoveCategory(ctx context.Context, name string) (string, error) {
	var fallback string
	err := s.observe(ctx, "remove_category", func(context.Context) error {
		s.mu.Lock()
		defer s.mu.Unlock()
		var err error
		fallback, err = s.currentTreeLocked().RemoveCategory(name)
		if err != nil {
			return err
		}
		return s.persistLocked()
	})
	return fallback, err
}

// MoveCategory shifts a category one position up or down in display order.
// Boundary moves are no-ops, not errors.
func (s *Service) MoveCategory(ctx context.Context, name string, direction domain.MoveDirection) error {
	return s.observe(ctx, "move_category", func(context.Context) error {
		s.mu.Lock()
		defer s.mu.Unlock()
		if !s.currentTreeLocked().MoveCategory(name, direction) {
			return nil
		}
		return s.persistLocked()
	})
}

// AddFeature stores a feature under the category, creating the category if
// needed. Adding to a non-default category removes the feature's unsorted
// copy from the default category.
func (s *Service) AddFeature(ctx context.Context, category string, f geo.Feature) error {
	return s.observe(ctx, "add_feature", func(context.Context) error {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.currentTreeLocked().AddFeature(category, f)
		return s.persistLocked()
	})
}

// RemoveFeature deletes the exact occurrence the selection points at. A stale
// selection is logged and ignored rather than failed.
func (s *Service) RemoveFeature(ctx context.Context, sel domain.Selection) error {
	return s.observe(ctx, "remove_feature", func(context.Context) error {
		s.mu.Lock()
		defer s.mu.Unlock()
		if !s.currentTreeLocked().RemoveFeature(sel.Category, sel) {
			s.logger.Warn("stale selection ignored", "category", sel.Category, "key", sel.Key())
			return nil
		}
		return s.persistLocked()
	})
}

// RemoveFeatureToDefault removes the selected occurrence from its category and
// relocates the feature to the default category, keeping it in the project as
// an unsorted point. A stale selection is logged and ignored.
func (s *Service) RemoveFeatureToDefault(ctx context.Context, sel domain.Selection) error {
	return s.observe(ctx, "remove_feature_to_default", func(context.Context) error {
		s.mu.Lock()
		defer s.mu.Unlock()
		if !s.currentTreeLocked().RemoveFeatureToDefault(sel.Category, sel) {
			s.logger.Warn("stale selection ignored", "category", sel.Category, "key", sel.Key())
			return nil
		}
		return s.persistLocked()
	})
}

// RemoveFeatureCompletely removes the selected occurrence from its category
// and any copy in the default category, so the feature leaves the project. A
// stale selection is logged and ignored.
func (s *Service) RemoveFeatureCompletely(ctx context.Context, sel domain.Selection) error {
	return s.observe(ctx, "remove_feature_completely", func(context.Context) error {
		s.mu.Lock()
		defer s.mu.Unlock()
		if !s.currentTreeLocked().RemoveFeatureCompletely(sel.Category, sel) {
			s.logger.Warn("stale selection ignored", "category", sel.Category, "key", sel.Key())
			return nil
		}
		return s.persistLocked()
	})
}

// UpdateFeature replaces every occurrence of the old feature's id with the
// new feature, across all categories.
func (s *Service) UpdateFeature(ctx context.Context, oldFeature, newFeature geo.Feature) error {
	return s.observe(ctx, "update_feature", func(context.Context) error {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.currentTreeLocked().UpdateFeature(oldFeature, newFeature)
		return s.persistLocked()
	})
}

// DuplicateFeature appends another occurrence of the selected feature to the
// category.
func (s *Service) DuplicateFeature(ctx context.Context, sel domain.Selection) error {
	return s.observe(ctx, "duplicate_feature", func(context.Context) error {
		s.mu.Lock()
		defer s.mu.Unlock()
		if err := s.currentTreeLocked().Duplicate(sel.Category, sel); err != nil {
			return err
		}
		return s.persistLocked()
	})
}

// ReorderFeatures moves a feature within one category between list positions.
func (s *Service) ReorderFeatures(ctx context.Context, category string, fromIndex, toIndex int) error {
	return s.observe(ctx, "reorder_features", func(context.Context) error {
		s.mu.Lock()
		defer s.mu.Unlock()
		if err := s.currentTreeLocked().ReorderFeatures(category, fromIndex, toIndex); err != nil {
			return err
		}
		return s.persistLocked()
	})
}

// MoveFeature moves a feature from one category to another.
func (s *Service) MoveFeature(ctx context.Context, sourceCategory, destCategory, featureID string) error {
	return s.observe(ctx, "move_feature", func(context.Context) error {
		s.mu.Lock()
		defer s.mu.Unlock()
		if err := s.currentTreeLocked().MoveFeatureBetween(sourceCategory, destCategory, featureID); err != nil {
			return err
		}
		return s.persistLocked()
	})
}
