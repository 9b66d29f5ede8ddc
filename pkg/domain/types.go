// Package domain defines the core value types of tripcore — the saved-feature
// tree, route line definitions, project management state — and the persistence
// interfaces infra backends implement.
package domain

import (
	"fmt"

	"tripcore/pkg/geo"
)

// Feature aliases geo.Feature; the tree stores features as immutable values.
type Feature = geo.Feature

// DefaultCategory is the reserved category present in every project. It cannot
// be renamed or removed and is the fallback destination for displaced features.
const DefaultCategory = "all"

// DefaultProjectName is the project created on first run.
const DefaultProjectName = "Default Project"

// Keys under which the synchronous store persists state. The values match the
// multi-project storage scheme; older single-project layouts are handled only
// by the backup import path.
const (
	KeyProjectsData      = "projectsData_v1"
	KeyProjectManagement = "projectManagement_v1"
)

// LineDefinition describes a saved route: an ordered list of feature ids
// belonging to one project. Waypoints are resolved against the project's
// feature set at use time; missing ids degrade the line rather than failing it.
type LineDefinition struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	ProjectName string   `json:"projectName"`
	POIIDs      []string `json:"poiIds"`
}

// Routable reports whether the line references enough waypoints to form a
// route. Zero- and one-element lines are degenerate.
func (l LineDefinition) Routable() bool { return len(l.POIIDs) >= 2 }

// Clone returns a copy with an independent id slice.
func (l LineDefinition) Clone() LineDefinition {
	cloned := l
	cloned.POIIDs = append([]string(nil), l.POIIDs...)
	return cloned
}

// ProjectManagement tracks the known projects and which one is current.
type ProjectManagement struct {
	ProjectNames       []string `json:"projectNames"`
	CurrentProjectName string   `json:"currentProjectName"`
}

// Clone returns a copy with an independent name slice.
func (m ProjectManagement) Clone() ProjectManagement {
	cloned := m
	cloned.ProjectNames = append([]string(nil), m.ProjectNames...)
	return cloned
}

// Selection pins one occurrence of a feature inside a category's ordered list.
// Identity for list operations is (index, feature id), not feature id alone:
// duplicates of the same feature across positions stay distinguishable.
type Selection struct {
	Feature  Feature
	Category string
	Index    int
}

// FeatureKey returns the list/drag identity of a feature occurrence at the
// given position.
func FeatureKey(index int, f Feature) string {
	return fmt.Sprintf("%d-%s", index, f.ID())
}

// Key returns the occurrence identity of the selection.
func (s Selection) Key() string { return FeatureKey(s.Index, s.Feature) }
