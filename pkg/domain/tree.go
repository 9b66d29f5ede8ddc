package domain

import (
	"bytes"
	"encoding/json"
	"fmt"

	"tripcore/pkg/geo"
)

// MoveDirection identifies the direction of a category reorder.
type MoveDirection string

const (
	MoveUp   MoveDirection = "up"
	MoveDown MoveDirection = "down"
)

// FeatureTree is the ordered category → feature-list state of one project.
// Category order is user-visible (drawer tab order), so the tree carries an
// explicit key list rather than relying on map iteration order. The JSON form
// is the plain {category: [features]} object with keys emitted in list order,
// keeping persisted state and backups compatible with older layouts.
type FeatureTree struct {
	order []string
	lists map[string][]geo.Feature
}

// NewFeatureTree returns a tree containing only the empty default category.
func NewFeatureTree() *FeatureTree {
	return &FeatureTree{
		order: []string{DefaultCategory},
		lists: map[string][]geo.Feature{DefaultCategory: {}},
	}
}

// Categories returns the category names in display order.
func (t *FeatureTree) Categories() []string {
	return append([]string(nil), t.order...)
}

// HasCategory reports whether the category exists.
func (t *FeatureTree) HasCategory(name string) bool {
	_, ok := t.lists[name]
	return ok
}

// Features returns a copy of the category's feature list, nil-safe for
// unknown categories.
func (t *FeatureTree) Features(category string) []geo.Feature {
	return append([]geo.Feature(nil), t.lists[category]...)
}

// AllFeatures returns every feature in the tree, category by category in
// display order.
func (t *FeatureTree) AllFeatures() []geo.Feature {
	var out []geo.Feature
	for _, name := range t.order {
		out = append(out, t.lists[name]...)
	}
	return out
}

// FeatureByID finds the first occurrence of a feature id across categories.
func (t *FeatureTree) FeatureByID(id string) (geo.Feature, bool) {
	if id == "" {
		return geo.Feature{}, false
	}
	for _, name := range t.order {
		for _, f := range t.lists[name] {
			if f.ID() == id {
				return f, true
			}
		}
	}
	return geo.Feature{}, false
}

// Clone returns a deep copy of the tree.
func (t *FeatureTree) Clone() *FeatureTree {
	cloned := &FeatureTree{
		order: append([]string(nil), t.order...),
		lists: make(map[string][]geo.Feature, len(t.lists)),
	}
	for name, features := range t.lists {
		list := make([]geo.Feature, len(features))
		for i, f := range features {
			list[i] = f.Clone()
		}
		cloned.lists[name] = list
	}
	return cloned
}

// ensureDefault guarantees the default category exists; trees loaded from
// storage or backups may lack it.
func (t *FeatureTree) ensureDefault() {
	if t.lists == nil {
		t.lists = map[string][]geo.Feature{}
	}
	if _, ok := t.lists[DefaultCategory]; !ok {
		t.lists[DefaultCategory] = []geo.Feature{}
		t.order = append([]string{DefaultCategory}, t.order...)
	}
}

// AddFeature appends the feature to the category, creating the category if it
// does not exist. Adding to a non-default category removes any feature with
// the same id from the default category: a feature moves into its first named
// category rather than living in both.
func (t *FeatureTree) AddFeature(category string, f geo.Feature) {
	t.ensureDefault()
	if _, ok := t.lists[category]; !ok {
		t.order = append(t.order, category)
	}
	t.lists[category] = append(t.lists[category], f)
	if category != DefaultCategory && f.ID() != "" {
		t.lists[DefaultCategory] = removeByID(t.lists[DefaultCategory], f.ID())
	}
}

func removeByID(list []geo.Feature, id string) []geo.Feature {
	out := list[:0]
	for _, f := range list {
		if f.ID() != id {
			out = append(out, f)
		}
	}
	return out
}

// RemoveFeature deletes the exact occurrence the selection points at. A stale
// selection — index out of range, or a different feature id now at that index —
// is a no-op returning false; callers log rather than fail.
func (t *FeatureTree) RemoveFeature(category string, sel Selection) bool {
	list, ok := t.lists[category]
	if !ok || sel.Index < 0 || sel.Index >= len(list) {
		return false
	}
	if list[sel.Index].ID() != sel.Feature.ID() {
		return false
	}
	t.lists[category] = append(list[:sel.Index:sel.Index], list[sel.Index+1:]...)
	return true
}

// RemoveFeatureToDefault removes the selected occurrence from the category and
// relocates the feature to the default category. Removing from the default
// category is a plain removal. Stale selections are a no-op returning false.
func (t *FeatureTree) RemoveFeatureToDefault(category string, sel Selection) bool {
	if !t.RemoveFeature(category, sel) {
		return false
	}
	if category != DefaultCategory {
		t.ensureDefault()
		t.lists[DefaultCategory] = append(t.lists[DefaultCategory], sel.Feature)
	}
	return true
}

// RemoveFeatureCompletely removes the selected occurrence from the category
// and every occurrence of the feature id from the default category, so the
// feature leaves the tree entirely. Stale selections are a no-op returning
// false.
func (t *FeatureTree) RemoveFeatureCompletely(category string, sel Selection) bool {
	if !t.RemoveFeature(category, sel) {
		return false
	}
	if category != DefaultCategory && sel.Feature.ID() != "" {
		t.ensureDefault()
		t.lists[DefaultCategory] = removeByID(t.lists[DefaultCategory], sel.Feature.ID())
	}
	return true
}

// UpdateFeature replaces every occurrence whose id matches the old feature's
// id, in every category, with the new feature. Identity is the feature id, not
// (category, id): editing one occurrence edits them all.
func (t *FeatureTree) UpdateFeature(oldFeature, newFeature geo.Feature) {
	id := oldFeature.ID()
	if id == "" {
		return
	}
	for name, list := range t.lists {
		for i, f := range list {
			if f.ID() == id {
				list[i] = newFeature
			}
		}
		t.lists[name] = list
	}
}

// Duplicate appends another occurrence of the selection's feature to the
// category. This is the sanctioned source of duplicate (index, id) pairs that
// Selection identity exists to disambiguate.
func (t *FeatureTree) Duplicate(category string, sel Selection) error {
	if _, ok := t.lists[category]; !ok {
		return NotFoundError{Kind: "category", Name: category}
	}
	t.lists[category] = append(t.lists[category], sel.Feature)
	return nil
}

// MoveCategory shifts the category one position up or down in display order.
// The default category is immovable and no category may move above it; moves
// past either boundary are no-ops. Returns true when the order changed.
func (t *FeatureTree) MoveCategory(category string, direction MoveDirection) bool {
	if category == DefaultCategory {
		return false
	}
	idx := indexOf(t.order, category)
	if idx < 0 {
		return false
	}
	var next int
	switch {
	case direction == MoveUp && idx > 1:
		next = idx - 1
	case direction == MoveDown && idx < len(t.order)-1:
		next = idx + 1
	default:
		return false
	}
	t.order = arrayMove(t.order, idx, next)
	return true
}

// RenameCategory relinks the feature list under a new key, preserving the
// category's position in display order. Renaming to the same name is a no-op,
// not an error.
func (t *FeatureTree) RenameCategory(oldName, newName string) error {
	const op = "rename category"
	if oldName == DefaultCategory {
		return ValidationError{Op: op, Message: fmt.Sprintf("cannot rename the default category %q", DefaultCategory)}
	}
	if newName == DefaultCategory {
		return ValidationError{Op: op, Message: fmt.Sprintf("cannot rename a category to %q", DefaultCategory)}
	}
	if newName == oldName {
		return nil
	}
	if _, ok := t.lists[oldName]; !ok {
		return NotFoundError{Kind: "category", Name: oldName}
	}
	if _, ok := t.lists[newName]; ok {
		return ValidationError{Op: op, Message: fmt.Sprintf("category %q already exists", newName)}
	}
	idx := indexOf(t.order, oldName)
	t.order[idx] = newName
	t.lists[newName] = t.lists[oldName]
	delete(t.lists, oldName)
	return nil
}

// AddCategory adds an empty category. When the requested name is empty or
// collides with an existing category, a Category_<n> name is synthesized from
// the current category count, bumping n past any category that already holds
// the synthesized name. Returns the name actually used.
func (t *FeatureTree) AddCategory(name string) string {
	t.ensureDefault()
	if name == "" || t.HasCategory(name) {
		n := len(t.order)
		name = fmt.Sprintf("Category_%d", n)
		for t.HasCategory(name) {
			n++
			name = fmt.Sprintf("Category_%d", n)
		}
	}
	t.order = append(t.order, name)
	t.lists[name] = []geo.Feature{}
	return name
}

// RemoveCategory deletes the category, migrating its features to the default
// category. Returns the preceding category name in display order, the tab a
// UI selection should fall back to.
func (t *FeatureTree) RemoveCategory(category string) (string, error) {
	const op = "remove category"
	if category == DefaultCategory {
		return "", ValidationError{Op: op, Message: fmt.Sprintf("cannot remove the default category %q", DefaultCategory)}
	}
	if _, ok := t.lists[category]; !ok {
		return "", NotFoundError{Kind: "category", Name: category}
	}
	t.ensureDefault()
	idx := indexOf(t.order, category)
	t.lists[DefaultCategory] = append(t.lists[DefaultCategory], t.lists[category]...)
	delete(t.lists, category)
	t.order = append(t.order[:idx:idx], t.order[idx+1:]...)
	if idx > 0 {
		return t.order[idx-1], nil
	}
	return DefaultCategory, nil
}

// ReorderFeatures moves a feature within one category from one index to
// another (drag-and-drop reorder).
func (t *FeatureTree) ReorderFeatures(category string, fromIndex, toIndex int) error {
	list, ok := t.lists[category]
	if !ok {
		return NotFoundError{Kind: "category", Name: category}
	}
	if fromIndex < 0 || fromIndex >= len(list) || toIndex < 0 || toIndex >= len(list) {
		return ValidationError{Op: "reorder features", Message: fmt.Sprintf("index out of range (%d -> %d, len %d)", fromIndex, toIndex, len(list))}
	}
	t.lists[category] = arrayMove(list, fromIndex, toIndex)
	return nil
}

// MoveFeatureBetween removes the feature with the given id from the source
// category and appends it to the destination (cross-tab drag-and-drop).
func (t *FeatureTree) MoveFeatureBetween(sourceCategory, destCategory, featureID string) error {
	src, ok := t.lists[sourceCategory]
	if !ok {
		return NotFoundError{Kind: "category", Name: sourceCategory}
	}
	if _, ok := t.lists[destCategory]; !ok {
		return NotFoundError{Kind: "category", Name: destCategory}
	}
	for i, f := range src {
		if f.ID() == featureID {
			t.lists[sourceCategory] = append(src[:i:i], src[i+1:]...)
			t.lists[destCategory] = append(t.lists[destCategory], f)
			return nil
		}
	}
	return NotFoundError{Kind: "feature", Name: featureID}
}

// Append concatenates the imported features onto the category, creating it if
// new (the "append" import policy for one category).
func (t *FeatureTree) Append(category string, features []geo.Feature) {
	t.ensureDefault()
	if _, ok := t.lists[category]; !ok {
		t.order = append(t.order, category)
		t.lists[category] = []geo.Feature{}
	}
	t.lists[category] = append(t.lists[category], features...)
}

// Merge concatenates imported features onto the category, skipping any whose
// id already exists in that category (the "merge" import policy).
func (t *FeatureTree) Merge(category string, features []geo.Feature) int {
	t.ensureDefault()
	if _, ok := t.lists[category]; !ok {
		t.order = append(t.order, category)
		t.lists[category] = []geo.Feature{}
	}
	existing := make(map[string]struct{}, len(t.lists[category]))
	for _, f := range t.lists[category] {
		if id := f.ID(); id != "" {
			existing[id] = struct{}{}
		}
	}
	added := 0
	for _, f := range features {
		if id := f.ID(); id != "" {
			if _, dup := existing[id]; dup {
				continue
			}
			existing[id] = struct{}{}
		}
		t.lists[category] = append(t.lists[category], f)
		added++
	}
	return added
}

func indexOf(list []string, value string) int {
	for i, v := range list {
		if v == value {
			return i
		}
	}
	return -1
}

func arrayMove[T any](list []T, from, to int) []T {
	out := append([]T(nil), list...)
	item := out[from]
	out = append(out[:from], out[from+1:]...)
	out = append(out[:to], append([]T{item}, out[to:]...)...)
	return out
}

// MarshalJSON emits the tree as a plain JSON object with keys in display
// order.
func (t *FeatureTree) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, name := range t.order {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(name)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		list := t.lists[name]
		if list == nil {
			list = []geo.Feature{}
		}
		value, err := json.Marshal(list)
		if err != nil {
			return nil, fmt.Errorf("encode category %q: %w", name, err)
		}
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a {category: [features]} object, preserving the key
// order of the document. The default category is restored if the document
// lacks it.
func (t *FeatureTree) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("feature tree: expected JSON object, got %v", tok)
	}
	t.order = nil
	t.lists = map[string][]geo.Feature{}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		name, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("feature tree: expected string key, got %v", keyTok)
		}
		var list []geo.Feature
		if err := dec.Decode(&list); err != nil {
			return fmt.Errorf("decode category %q: %w", name, err)
		}
		if list == nil {
			list = []geo.Feature{}
		}
		if _, dup := t.lists[name]; !dup {
			t.order = append(t.order, name)
		}
		t.lists[name] = list
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	t.ensureDefault()
	return nil
}
