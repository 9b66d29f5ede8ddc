package linestore

import (
	"context"
	"path/filepath"
	"testing"

	"tripcore/pkg/domain"
)

func testLineStore(t *testing.T, store domain.LineStore) {
	t.Helper()
	ctx := context.Background()

	if _, ok, err := store.GetLine(ctx, "missing"); err != nil || ok {
		t.Fatalf("missing line: ok=%v err=%v", ok, err)
	}

	coast := domain.LineDefinition{ID: "l1", Name: "Coast Drive", ProjectName: "Summer", POIIDs: []string{"p1", "p2"}}
	hills := domain.LineDefinition{ID: "l2", Name: "Hills Loop", ProjectName: "Summer", POIIDs: []string{"p3", "p4", "p5"}}
	other := domain.LineDefinition{ID: "l3", Name: "City Walk", ProjectName: "Winter", POIIDs: []string{"p6", "p7"}}
	for _, line := range []domain.LineDefinition{coast, hills, other} {
		if err := store.PutLine(ctx, line); err != nil {
			t.Fatalf("put %s: %v", line.ID, err)
		}
	}

	got, ok, err := store.GetLine(ctx, "l1")
	if err != nil || !ok {
		t.Fatalf("get l1: ok=%v err=%v", ok, err)
	}
	if got.Name != "Coast Drive" || got.ProjectName != "Summer" || len(got.POIIDs) != 2 {
		t.Fatalf("l1 round trip: %+v", got)
	}

	lines, err := store.LinesForProject(ctx, "Summer")
	if err != nil {
		t.Fatalf("lines for Summer: %v", err)
	}
	if len(lines) != 2 || lines[0].ID != "l1" || lines[1].ID != "l2" {
		t.Fatalf("Summer lines: %+v", lines)
	}

	// Update replaces the row, here moving the line to a new project.
	moved := coast
	moved.ProjectName = "Winter"
	moved.POIIDs = []string{"p1"}
	if err := store.PutLine(ctx, moved); err != nil {
		t.Fatalf("move l1: %v", err)
	}
	lines, err = store.LinesForProject(ctx, "Summer")
	if err != nil || len(lines) != 1 || lines[0].ID != "l2" {
		t.Fatalf("Summer after move: %+v err=%v", lines, err)
	}
	lines, err = store.LinesForProject(ctx, "Winter")
	if err != nil || len(lines) != 2 {
		t.Fatalf("Winter after move: %+v err=%v", lines, err)
	}

	if err := store.DeleteLine(ctx, "l2"); err != nil {
		t.Fatalf("delete l2: %v", err)
	}
	if err := store.DeleteLine(ctx, "l2"); err != nil {
		t.Fatalf("double delete should not error: %v", err)
	}
	if lines, _ := store.LinesForProject(ctx, "Summer"); len(lines) != 0 {
		t.Fatalf("Summer after delete: %+v", lines)
	}

	if err := store.ClearProject(ctx, "Winter"); err != nil {
		t.Fatalf("clear Winter: %v", err)
	}
	if lines, _ := store.LinesForProject(ctx, "Winter"); len(lines) != 0 {
		t.Fatalf("Winter after clear: %+v", lines)
	}
	if _, ok, _ := store.GetLine(ctx, "l3"); ok {
		t.Fatalf("l3 survived project clear")
	}
}

func TestMemoryLineStore(t *testing.T) {
	store := NewMemory()
	defer store.Close()
	testLineStore(t, store)
}

func TestSQLiteLineStore(t *testing.T) {
	store, err := OpenSQLite(filepath.Join(t.TempDir(), "lines.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer store.Close()
	testLineStore(t, store)
}

func TestSQLiteLineStoreReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lines.db")
	ctx := context.Background()

	store, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	line := domain.LineDefinition{ID: "l1", Name: "Coast Drive", ProjectName: "Summer", POIIDs: []string{"p1", "p2"}}
	if err := store.PutLine(ctx, line); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	got, ok, err := reopened.GetLine(ctx, "l1")
	if err != nil || !ok {
		t.Fatalf("get after reopen: ok=%v err=%v", ok, err)
	}
	if got.Name != "Coast Drive" || len(got.POIIDs) != 2 {
		t.Fatalf("line lost across reopen: %+v", got)
	}
}

func TestMemoryLineStoreClonesResults(t *testing.T) {
	store := NewMemory()
	defer store.Close()
	ctx := context.Background()

	line := domain.LineDefinition{ID: "l1", Name: "Coast Drive", ProjectName: "Summer", POIIDs: []string{"p1"}}
	if err := store.PutLine(ctx, line); err != nil {
		t.Fatalf("put: %v", err)
	}
	got, _, _ := store.GetLine(ctx, "l1")
	got.POIIDs[0] = "mutated"
	again, _, _ := store.GetLine(ctx, "l1")
	if again.POIIDs[0] != "p1" {
		t.Fatalf("store shares slices with callers: %+v", again)
	}
}

func TestOpenFromEnv(t *testing.T) {
	t.Setenv(EnvDriver, "memory")
	store, err := Open()
	if err != nil {
		t.Fatalf("open memory: %v", err)
	}
	defer store.Close()
	if _, ok := store.(*Memory); !ok {
		t.Fatalf("expected memory driver, got %T", store)
	}

	t.Setenv(EnvDriver, "sqlite")
	t.Setenv(EnvSQLitePath, filepath.Join(t.TempDir(), "env.db"))
	sq, err := Open()
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	defer sq.Close()
	if _, ok := sq.(*SQLite); !ok {
		t.Fatalf("expected sqlite driver, got %T", sq)
	}

	t.Setenv(EnvDriver, "bogus")
	if _, err := Open(); err == nil {
		t.Fatalf("unknown driver accepted")
	}
}
