package domain

import (
	"encoding/json"
	"reflect"
	"testing"

	"tripcore/pkg/geo"
)

func poi(id, name string) geo.Feature {
	return geo.NewFeature(geo.Point(115.86, -31.95), map[string]any{"id": id, "name": name})
}

func treeWith(t *testing.T, categories map[string][]geo.Feature, order ...string) *FeatureTree {
	t.Helper()
	tree := NewFeatureTree()
	for _, name := range order {
		if name == DefaultCategory {
			for _, f := range categories[name] {
				tree.AddFeature(DefaultCategory, f)
			}
			continue
		}
		tree.AddCategory(name)
		for _, f := range categories[name] {
			tree.AddFeature(name, f)
		}
	}
	return tree
}

func TestNewFeatureTreeHasDefaultCategory(t *testing.T) {
	tree := NewFeatureTree()
	if !tree.HasCategory(DefaultCategory) {
		t.Fatalf("default category missing")
	}
	if got := tree.Categories(); len(got) != 1 || got[0] != DefaultCategory {
		t.Fatalf("unexpected categories %v", got)
	}
}

func TestAddFeatureMovesOutOfDefault(t *testing.T) {
	tree := NewFeatureTree()
	f := poi("poi1", "POI 1")
	tree.AddFeature(DefaultCategory, f)
	tree.AddCategory("Day1")
	tree.AddFeature("Day1", f)

	if got := tree.Features(DefaultCategory); len(got) != 0 {
		t.Fatalf("feature still in default category: %v", got)
	}
	if got := tree.Features("Day1"); len(got) != 1 || got[0].ID() != "poi1" {
		t.Fatalf("feature not in Day1: %v", got)
	}
}

func TestAddFeatureToDefaultKeepsIt(t *testing.T) {
	tree := NewFeatureTree()
	tree.AddFeature(DefaultCategory, poi("poi1", "POI 1"))
	if got := tree.Features(DefaultCategory); len(got) != 1 {
		t.Fatalf("expected 1 feature in default, got %d", len(got))
	}
}

func TestRemoveFeatureRoundTrip(t *testing.T) {
	tree := NewFeatureTree()
	tree.AddCategory("Day1")
	f1, f2 := poi("p1", "one"), poi("p2", "two")
	tree.AddFeature("Day1", f1)
	before := tree.Features("Day1")
	tree.AddFeature("Day1", f2)

	if !tree.RemoveFeature("Day1", Selection{Feature: f2, Category: "Day1", Index: 1}) {
		t.Fatalf("remove failed")
	}
	after := tree.Features("Day1")
	if len(after) != len(before) || after[0].ID() != before[0].ID() {
		t.Fatalf("add/remove round trip mismatch: %v vs %v", after, before)
	}
}

func TestRemoveFeatureStaleSelectionIsNoop(t *testing.T) {
	tree := NewFeatureTree()
	tree.AddFeature(DefaultCategory, poi("p1", "one"))

	if tree.RemoveFeature(DefaultCategory, Selection{Feature: poi("other", "x"), Index: 0}) {
		t.Fatalf("id mismatch should be a no-op")
	}
	if tree.RemoveFeature(DefaultCategory, Selection{Feature: poi("p1", "one"), Index: 5}) {
		t.Fatalf("out-of-range index should be a no-op")
	}
	if got := tree.Features(DefaultCategory); len(got) != 1 {
		t.Fatalf("state changed on stale selection: %v", got)
	}
}

func TestRemoveFeatureDistinguishesDuplicates(t *testing.T) {
	tree := NewFeatureTree()
	f := poi("dup", "dup")
	tree.AddFeature(DefaultCategory, f)
	tree.AddFeature(DefaultCategory, f)

	if !tree.RemoveFeature(DefaultCategory, Selection{Feature: f, Index: 1}) {
		t.Fatalf("remove of second occurrence failed")
	}
	if got := tree.Features(DefaultCategory); len(got) != 1 {
		t.Fatalf("expected one remaining occurrence, got %d", len(got))
	}
}

func TestUpdateFeatureRewritesAllOccurrences(t *testing.T) {
	old := poi("p1", "old name")
	tree := NewFeatureTree()
	tree.AddCategory("Day1")
	tree.AddFeature(DefaultCategory, old)
	tree.AddFeature("Day1", old)
	tree.AddFeature(DefaultCategory, old) // duplicate occurrence

	updated := poi("p1", "new name")
	tree.UpdateFeature(old, updated)

	for _, cat := range tree.Categories() {
		for _, f := range tree.Features(cat) {
			if f.ID() == "p1" && f.Name() != "new name" {
				t.Fatalf("occurrence in %q not updated: %v", cat, f)
			}
		}
	}
}

func TestRenameCategoryPreservesPositionAndFeatures(t *testing.T) {
	p1, p2, p3 := poi("p1", "1"), poi("p2", "2"), poi("p3", "3")
	tree := treeWith(t, map[string][]geo.Feature{
		"Day1": {p1, p2},
		"Day2": {p3},
	}, "Day1", "Day2")

	if err := tree.RenameCategory("Day1", "Day1Renamed"); err != nil {
		t.Fatalf("rename: %v", err)
	}
	want := []string{DefaultCategory, "Day1Renamed", "Day2"}
	if got := tree.Categories(); !reflect.DeepEqual(got, want) {
		t.Fatalf("category order %v, want %v", got, want)
	}
	got := tree.Features("Day1Renamed")
	if len(got) != 2 || got[0].ID() != "p1" || got[1].ID() != "p2" {
		t.Fatalf("features lost on rename: %v", got)
	}
}

func TestRenameCategoryGuards(t *testing.T) {
	tree := treeWith(t, nil, "Day1", "Day2")

	if err := tree.RenameCategory(DefaultCategory, "x"); !IsValidation(err) {
		t.Fatalf("renaming default should be a validation error, got %v", err)
	}
	if err := tree.RenameCategory("Day1", DefaultCategory); !IsValidation(err) {
		t.Fatalf("renaming to default name should be a validation error, got %v", err)
	}
	if err := tree.RenameCategory("Day1", "Day2"); !IsValidation(err) {
		t.Fatalf("rename collision should be a validation error, got %v", err)
	}
	if err := tree.RenameCategory("Day1", "Day1"); err != nil {
		t.Fatalf("same-name rename should be a no-op, got %v", err)
	}
	if err := tree.RenameCategory("missing", "x"); !IsNotFound(err) {
		t.Fatalf("unknown category should be not-found, got %v", err)
	}
}

func TestMoveCategoryBoundaries(t *testing.T) {
	tree := treeWith(t, nil, "A", "B", "C")
	start := tree.Categories()

	if tree.MoveCategory("A", MoveUp) {
		t.Fatalf("first named category must not move above default")
	}
	if tree.MoveCategory("C", MoveDown) {
		t.Fatalf("last category must not move down")
	}
	if tree.MoveCategory(DefaultCategory, MoveDown) {
		t.Fatalf("default category is immovable")
	}
	if got := tree.Categories(); !reflect.DeepEqual(got, start) {
		t.Fatalf("boundary no-ops changed order: %v", got)
	}

	if !tree.MoveCategory("B", MoveUp) {
		t.Fatalf("move up failed")
	}
	want := []string{DefaultCategory, "B", "A", "C"}
	if got := tree.Categories(); !reflect.DeepEqual(got, want) {
		t.Fatalf("order %v, want %v", got, want)
	}
}

func TestAddCategorySynthesizesName(t *testing.T) {
	tree := NewFeatureTree()
	if got := tree.AddCategory(""); got != "Category_1" {
		t.Fatalf("synthesized name %q, want Category_1", got)
	}
	tree.AddCategory("Day1")
	if got := tree.AddCategory("Day1"); got != "Category_3" {
		t.Fatalf("collision name %q, want Category_3", got)
	}
}

func TestAddCategorySkipsTakenSynthesizedNames(t *testing.T) {
	// Leave the tree as [all, Category_2] with two categories, so the next
	// synthesized name would collide with the survivor.
	tree := NewFeatureTree()
	tree.AddCategory("Day1")
	tree.AddCategory("Category_2")
	tree.AddFeature("Category_2", poi("p1", "kept"))
	if _, err := tree.RemoveCategory("Day1"); err != nil {
		t.Fatalf("remove: %v", err)
	}

	if got := tree.AddCategory(""); got != "Category_3" {
		t.Fatalf("synthesized name %q, want Category_3", got)
	}
	cats := tree.Categories()
	seen := map[string]bool{}
	for _, c := range cats {
		if seen[c] {
			t.Fatalf("duplicate category key %q in %v", c, cats)
		}
		seen[c] = true
	}
	if got := tree.Features("Category_2"); len(got) != 1 || got[0].ID() != "p1" {
		t.Fatalf("existing category wiped: %v", got)
	}

	data, err := json.Marshal(tree)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded FeatureTree
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got := decoded.Categories(); len(got) != len(cats) {
		t.Fatalf("category count changed through JSON: %v vs %v", got, cats)
	}
}

func TestRemoveFeatureToDefaultRelocates(t *testing.T) {
	f := poi("p1", "one")
	tree := treeWith(t, map[string][]geo.Feature{"Day1": {f}}, "Day1")

	if !tree.RemoveFeatureToDefault("Day1", Selection{Feature: f, Category: "Day1", Index: 0}) {
		t.Fatalf("remove failed")
	}
	if got := tree.Features("Day1"); len(got) != 0 {
		t.Fatalf("feature still in Day1: %v", got)
	}
	if got := tree.Features(DefaultCategory); len(got) != 1 || got[0].ID() != "p1" {
		t.Fatalf("feature not relocated to default: %v", got)
	}

	// From the default category the relocation target is the source, so the
	// removal is plain.
	if !tree.RemoveFeatureToDefault(DefaultCategory, Selection{Feature: f, Category: DefaultCategory, Index: 0}) {
		t.Fatalf("remove from default failed")
	}
	if got := tree.Features(DefaultCategory); len(got) != 0 {
		t.Fatalf("feature survived removal from default: %v", got)
	}
}

func TestRemoveFeatureCompletelyLeavesNoCopy(t *testing.T) {
	f := poi("p1", "one")
	tree := NewFeatureTree()
	tree.AddFeature(DefaultCategory, f)
	tree.AddCategory("Day1")
	tree.AddFeature("Day1", f)
	tree.AddFeature(DefaultCategory, f) // stray copy back in default

	if !tree.RemoveFeatureCompletely("Day1", Selection{Feature: f, Category: "Day1", Index: 0}) {
		t.Fatalf("remove failed")
	}
	if got := tree.AllFeatures(); len(got) != 0 {
		t.Fatalf("feature still in tree: %v", got)
	}
	if tree.RemoveFeatureCompletely("Day1", Selection{Feature: f, Category: "Day1", Index: 0}) {
		t.Fatalf("stale selection should be a no-op")
	}
}

func TestRemoveCategoryMigratesFeaturesToDefault(t *testing.T) {
	p1, p2, p3 := poi("p1", "1"), poi("p2", "2"), poi("p3", "3")
	tree := treeWith(t, map[string][]geo.Feature{
		"Day1": {p1, p2},
		"Day2": {p3},
	}, "Day1", "Day2")

	fallback, err := tree.RemoveCategory("Day2")
	if err != nil {
		t.Fatalf("remove: %v", err)
	}
	if fallback != "Day1" {
		t.Fatalf("fallback tab %q, want Day1", fallback)
	}
	if got := tree.Features(DefaultCategory); len(got) != 1 || got[0].ID() != "p3" {
		t.Fatalf("features not migrated to default: %v", got)
	}
	if tree.HasCategory("Day2") {
		t.Fatalf("Day2 still present")
	}
	if _, err := tree.RemoveCategory(DefaultCategory); !IsValidation(err) {
		t.Fatalf("removing default should be a validation error, got %v", err)
	}
}

func TestReorderFeatures(t *testing.T) {
	tree := NewFeatureTree()
	for _, id := range []string{"a", "b", "c"} {
		tree.AddFeature(DefaultCategory, poi(id, id))
	}
	if err := tree.ReorderFeatures(DefaultCategory, 0, 2); err != nil {
		t.Fatalf("reorder: %v", err)
	}
	got := tree.Features(DefaultCategory)
	if got[0].ID() != "b" || got[1].ID() != "c" || got[2].ID() != "a" {
		t.Fatalf("unexpected order %v", got)
	}
	if err := tree.ReorderFeatures(DefaultCategory, 0, 9); !IsValidation(err) {
		t.Fatalf("out-of-range reorder should be a validation error, got %v", err)
	}
}

func TestMoveFeatureBetweenCategories(t *testing.T) {
	tree := treeWith(t, map[string][]geo.Feature{"Day1": {poi("p1", "1")}}, "Day1", "Day2")

	if err := tree.MoveFeatureBetween("Day1", "Day2", "p1"); err != nil {
		t.Fatalf("move: %v", err)
	}
	if got := tree.Features("Day1"); len(got) != 0 {
		t.Fatalf("feature still in source: %v", got)
	}
	if got := tree.Features("Day2"); len(got) != 1 || got[0].ID() != "p1" {
		t.Fatalf("feature not in destination: %v", got)
	}
	if err := tree.MoveFeatureBetween("Day1", "Day2", "p1"); !IsNotFound(err) {
		t.Fatalf("moving a missing feature should be not-found, got %v", err)
	}
}

func TestMergeDeduplicatesAppendDoesNot(t *testing.T) {
	f := poi("p1", "1")
	tree := NewFeatureTree()
	tree.AddFeature(DefaultCategory, f)

	tree.Append(DefaultCategory, []geo.Feature{f})
	if got := tree.Features(DefaultCategory); len(got) != 2 {
		t.Fatalf("append should duplicate, got %d features", len(got))
	}

	if added := tree.Merge(DefaultCategory, []geo.Feature{f}); added != 0 {
		t.Fatalf("merge added %d duplicates", added)
	}
	if got := tree.Features(DefaultCategory); len(got) != 2 {
		t.Fatalf("merge changed state, got %d features", len(got))
	}
	if added := tree.Merge(DefaultCategory, []geo.Feature{poi("p2", "2")}); added != 1 {
		t.Fatalf("merge of a new id added %d", added)
	}
}

func TestTreeJSONOrderRoundTrip(t *testing.T) {
	tree := treeWith(t, map[string][]geo.Feature{
		"Zulu":  {poi("z1", "z")},
		"Alpha": {poi("a1", "a")},
	}, "Zulu", "Alpha")

	data, err := json.Marshal(tree)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded FeatureTree
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	want := []string{DefaultCategory, "Zulu", "Alpha"}
	if got := decoded.Categories(); !reflect.DeepEqual(got, want) {
		t.Fatalf("order not preserved through JSON: %v, want %v", got, want)
	}
	if got := decoded.Features("Zulu"); len(got) != 1 || got[0].ID() != "z1" {
		t.Fatalf("features lost through JSON: %v", got)
	}
}

func TestTreeJSONRestoresMissingDefault(t *testing.T) {
	var tree FeatureTree
	if err := json.Unmarshal([]byte(`{"Day1":[]}`), &tree); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	want := []string{DefaultCategory, "Day1"}
	if got := tree.Categories(); !reflect.DeepEqual(got, want) {
		t.Fatalf("default not restored first: %v", got)
	}
}

func TestSelectionKey(t *testing.T) {
	f := poi("p9", "nine")
	sel := Selection{Feature: f, Category: "Day1", Index: 3}
	if got := sel.Key(); got != "3-p9" {
		t.Fatalf("selection key %q", got)
	}
	if FeatureKey(3, f) != sel.Key() {
		t.Fatalf("feature key and selection key disagree")
	}
}
