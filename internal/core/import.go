package core

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"tripcore/pkg/domain"
)

// ImportPolicy selects how a backup payload is reconciled with existing
// project state.
type ImportPolicy string

const (
	// PolicyOverride replaces the project's state with the backup.
	PolicyOverride ImportPolicy = "override"
	// PolicyAppend concatenates backup entries onto existing state, keeping
	// duplicates.
	PolicyAppend ImportPolicy = "append"
	// PolicyMerge concatenates backup entries, skipping ids the project
	// already has.
	PolicyMerge ImportPolicy = "merge"
)

// ImportPayload carries the decoded contents of one project backup. A nil
// POIs tree means the backup had no feature file; a nil Lines slice means it
// had no line file. Nil and empty are distinct: an empty slice is an explicit
// record of zero lines and under override clears the project's lines, while
// nil leaves them untouched.
type ImportPayload struct {
	POIs  *domain.FeatureTree
	Lines []domain.LineDefinition
}

// ImportOptions tunes reconciliation behavior.
type ImportOptions struct {
	// OverrideClearsMissingPOIs makes an override import with no feature file
	// reset the project's tree instead of leaving it untouched.
	OverrideClearsMissingPOIs bool
}

// ImportSummary reports what an import did, one line per state family.
type ImportSummary struct {
	Project string `json:"project"`
	POIs    string `json:"pois"`
	Lines   string `json:"lines"`
}

// ImportBackup reconciles a backup payload into the named project, creating
// the project when it does not exist yet. Feature changes are staged on a copy
// of the tree and committed together with KV persistence only after the
// line-store writes succeed, so a failed line write aborts with the in-memory
// tree untouched (lines written before the failure remain in the store).
func (s *Service) ImportBackup(ctx context.Context, projectName string, payload ImportPayload, policy ImportPolicy, opts ImportOptions) (ImportSummary, error) {
	summary := ImportSummary{Project: projectName}
	err := s.observe(ctx, "import_backup", func(ctx context.Context) error {
		switch policy {
		case PolicyOverride, PolicyAppend, PolicyMerge:
		default:
			return domain.ValidationError{Op: "import backup", Message: fmt.Sprintf("unknown import policy %q", policy)}
		}
		if projectName == "" {
			return domain.ValidationError{Op: "import backup", Message: "project name must not be empty"}
		}
		if payload.POIs == nil && payload.Lines == nil {
			return domain.ValidationError{Op: "import backup", Message: "backup contains neither features nor lines"}
		}

		s.mu.Lock()
		defer s.mu.Unlock()

		tree, exists := s.projects[projectName]
		if !exists {
			tree = domain.NewFeatureTree()
		}

		staged, poiSummary := stagePOIs(tree.Clone(), payload, policy, opts)
		summary.POIs = poiSummary
		lineSummary, err := s.importLinesLocked(ctx, projectName, payload, policy)
		summary.Lines = lineSummary
		if err != nil {
			return err
		}

		s.projects[projectName] = staged
		if !exists {
			s.management.ProjectNames = append(s.management.ProjectNames, projectName)
		}
		if err := s.persistLocked(); err != nil {
			return err
		}
		if s.management.CurrentProjectName == projectName {
			s.reloadLinesLocked(projectName)
		}
		s.logger.Info("backup imported", "project", projectName, "policy", string(policy))
		return nil
	})
	return summary, err
}

// stagePOIs applies the payload's feature half to the staged tree and returns
// the tree to commit. Override replaces the staged tree outright.
func stagePOIs(staged *domain.FeatureTree, payload ImportPayload, policy ImportPolicy, opts ImportOptions) (*domain.FeatureTree, string) {
	if payload.POIs == nil {
		if policy == PolicyOverride && opts.OverrideClearsMissingPOIs {
			return domain.NewFeatureTree(), "cleared (backup had no feature file)"
		}
		return staged, "unchanged (backup had no feature file)"
	}

	switch policy {
	case PolicyOverride:
		return payload.POIs.Clone(), fmt.Sprintf("replaced with %d features in %d categories",
			len(payload.POIs.AllFeatures()), len(payload.POIs.Categories()))
	case PolicyAppend:
		total := 0
		for _, category := range payload.POIs.Categories() {
			features := payload.POIs.Features(category)
			staged.Append(category, features)
			total += len(features)
		}
		return staged, fmt.Sprintf("appended %d features", total)
	default: // PolicyMerge
		added := 0
		for _, category := range payload.POIs.Categories() {
			added += staged.Merge(category, payload.POIs.Features(category))
		}
		return staged, fmt.Sprintf("merged %d new features", added)
	}
}

func (s *Service) importLinesLocked(ctx context.Context, projectName string, payload ImportPayload, policy ImportPolicy) (string, error) {
	if payload.Lines == nil {
		return "unchanged (backup had no line file)", nil
	}

	existing, err := s.lineStore.LinesForProject(ctx, projectName)
	if err != nil {
		return "", fmt.Errorf("read existing lines: %w", err)
	}
	existingIDs := make(map[string]struct{}, len(existing))
	for _, line := range existing {
		existingIDs[line.ID] = struct{}{}
	}

	if policy == PolicyOverride {
		// Clearing is best-effort: surviving lines are overwritten id by id
		// below, so a failed clear degrades override to an upsert.
		if err := s.lineStore.ClearProject(ctx, projectName); err != nil {
			s.logger.Warn("clear lines failed, continuing import", "project", projectName, "error", err)
		}
		existingIDs = map[string]struct{}{}
	}

	added, skipped := 0, 0
	for _, line := range payload.Lines {
		line = line.Clone()
		line.ProjectName = projectName
		if line.ID == "" {
			line.ID = uuid.NewString()
		}
		if _, dup := existingIDs[line.ID]; dup {
			switch policy {
			case PolicyMerge:
				skipped++
				continue
			case PolicyAppend:
				// Keep both copies under distinct ids.
				line.ID = uuid.NewString()
			}
		}
		if err := s.lineStore.PutLine(ctx, line); err != nil {
			return "", fmt.Errorf("write line %s: %w", line.ID, err)
		}
		existingIDs[line.ID] = struct{}{}
		added++
	}

	switch policy {
	case PolicyOverride:
		return fmt.Sprintf("replaced with %d lines", added), nil
	case PolicyAppend:
		return fmt.Sprintf("appended %d lines", added), nil
	default:
		return fmt.Sprintf("merged %d new lines, %d duplicates skipped", added, skipped), nil
	}
}
