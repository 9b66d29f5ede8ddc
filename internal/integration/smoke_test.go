// Package integration exercises the full stack end to end: filesystem state
// store, sqlite line store, the core service, backup round trips, and export
// to a blob store.
package integration

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"tripcore/internal/backup"
	"tripcore/internal/blob"
	"tripcore/internal/core"
	"tripcore/internal/export"
	"tripcore/internal/infra/kv"
	"tripcore/internal/infra/linestore"
	"tripcore/pkg/domain"
	"tripcore/pkg/geo"
)

func TestEndToEndSmoke(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	store, err := kv.NewFilesystem(filepath.Join(dir, "state"))
	if err != nil {
		t.Fatalf("kv: %v", err)
	}
	lines, err := linestore.OpenSQLite(filepath.Join(dir, "lines.db"))
	if err != nil {
		t.Fatalf("linestore: %v", err)
	}
	defer lines.Close()

	svc, err := core.NewService(store, lines,
		core.WithMetricsRecorder(core.NewExpvarMetricsRecorder("")),
		core.WithTracer(core.NewJSONTracer(nil)))
	if err != nil {
		t.Fatalf("service: %v", err)
	}
	svc.WaitForLines()

	// Build a project: categories, features, a route.
	if err := svc.CreateProject(ctx, "Summer"); err != nil {
		t.Fatalf("create project: %v", err)
	}
	svc.WaitForLines()
	if _, err := svc.AddCategory(ctx, "Day1"); err != nil {
		t.Fatalf("add category: %v", err)
	}
	perth := geo.NewFeature(geo.Point(115.86, -31.95), map[string]any{"id": "p1", "name": "Perth"})
	freo := geo.NewFeature(geo.Point(115.75, -32.05), map[string]any{"id": "p2", "name": "Fremantle"})
	if err := svc.AddFeature(ctx, "Day1", perth); err != nil {
		t.Fatalf("add feature: %v", err)
	}
	if err := svc.AddFeature(ctx, "Day1", freo); err != nil {
		t.Fatalf("add feature: %v", err)
	}
	line, err := svc.AddLine(ctx, "Coast Drive", []string{"p1", "p2"})
	if err != nil {
		t.Fatalf("add line: %v", err)
	}

	// Restart on the same stores; everything must come back.
	svc, err = core.NewService(store, lines)
	if err != nil {
		t.Fatalf("restart: %v", err)
	}
	svc.WaitForLines()
	if got := svc.CurrentProject(); got != "Summer" {
		t.Fatalf("current project %q", got)
	}
	if got := svc.Features(ctx, "Day1"); len(got) != 2 {
		t.Fatalf("features %v", got)
	}
	if got := svc.Lines(ctx); len(got) != 1 || got[0].ID != line.ID {
		t.Fatalf("lines %v", got)
	}

	// Resolve the route and export the project.
	route, err := svc.ResolveRoute(ctx, line.ID)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	tree, err := svc.ProjectTree("Summer")
	if err != nil {
		t.Fatalf("tree: %v", err)
	}
	projectLines, err := svc.ProjectLines(ctx, "Summer")
	if err != nil {
		t.Fatalf("project lines: %v", err)
	}
	blobStore := blob.NewMemory()
	exporter := export.NewExporter(blobStore).WithClock(func() time.Time {
		return time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC)
	})
	artifacts, err := exporter.ExportProject(ctx, "Summer", tree, projectLines, []geo.Feature{route})
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if len(artifacts) != 4 {
		t.Fatalf("artifacts %+v", artifacts)
	}

	// Pull the exported backup out of the blob store and import it into a
	// fresh project.
	var backupKey string
	for _, a := range artifacts {
		if a.Kind == export.KindBackup {
			backupKey = a.Key
		}
	}
	_, rc, err := blobStore.Get(ctx, backupKey)
	if err != nil {
		t.Fatalf("get backup: %v", err)
	}
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(rc); err != nil {
		t.Fatalf("read backup: %v", err)
	}
	_ = rc.Close()

	archive, err := backup.Parse(buf.Bytes())
	if err != nil {
		t.Fatalf("parse backup: %v", err)
	}
	summary, err := svc.ImportBackup(ctx, "Summer Restored",
		core.ImportPayload{POIs: archive.POIs, Lines: archive.Lines},
		core.PolicyOverride, core.ImportOptions{})
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if summary.Project != "Summer Restored" {
		t.Fatalf("summary %+v", summary)
	}
	if err := svc.SwitchProject(ctx, "Summer Restored"); err != nil {
		t.Fatalf("switch: %v", err)
	}
	svc.WaitForLines()
	if got := svc.Features(ctx, "Day1"); len(got) != 2 {
		t.Fatalf("restored features %v", got)
	}
	restored := svc.Lines(ctx)
	if len(restored) != 1 || restored[0].Name != "Coast Drive" {
		t.Fatalf("restored lines %v", restored)
	}
	if restored[0].ProjectName != "Summer Restored" {
		t.Fatalf("restored line project %q", restored[0].ProjectName)
	}
	if got := svc.Features(ctx, domain.DefaultCategory); len(got) != 0 {
		t.Fatalf("default category %v", got)
	}
}
