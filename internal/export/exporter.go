package export

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"tripcore/internal/backup"
	"tripcore/internal/blob"
	"tripcore/pkg/domain"
	"tripcore/pkg/geo"
)

// Artifact kinds produced by the Exporter.
const (
	KindBackup    = "backup"
	KindGeoJSON   = "geojson"
	KindKML       = "kml"
	KindRoutesKML = "routes-kml"
)

// Artifact records one uploaded export file.
type Artifact struct {
	Kind string    `json:"kind"`
	Key  string    `json:"key"`
	Info blob.Info `json:"info"`
}

// Exporter renders project snapshots and uploads them to a blob store under
// "exports/<project>/<timestamp>/".
type Exporter struct {
	store blob.Store
	now   func() time.Time
}

// NewExporter returns an exporter writing to the given store.
func NewExporter(store blob.Store) *Exporter {
	return &Exporter{store: store, now: time.Now}
}

// WithClock overrides the timestamp source, for tests.
func (e *Exporter) WithClock(now func() time.Time) *Exporter {
	e.now = now
	return e
}

// ExportProject renders and uploads a full export of one project: its backup
// archive, GeoJSON archive, and KML document, plus a routes KML when any
// resolved routes are supplied. Returns one artifact per uploaded file.
func (e *Exporter) ExportProject(ctx context.Context, projectName string, tree *domain.FeatureTree, lines []domain.LineDefinition, routes []geo.Feature) ([]Artifact, error) {
	if projectName == "" {
		return nil, fmt.Errorf("export: project name must not be empty")
	}
	if tree == nil {
		return nil, fmt.Errorf("export: feature tree must not be nil")
	}
	prefix := fmt.Sprintf("exports/%s/%s", projectName, e.now().UTC().Format("20060102T150405Z"))

	var artifacts []Artifact
	upload := func(kind, name, contentType string, render func(*bytes.Buffer) error) error {
		var buf bytes.Buffer
		if err := render(&buf); err != nil {
			return err
		}
		key := prefix + "/" + name
		info, err := e.store.Put(ctx, key, bytes.NewReader(buf.Bytes()), blob.PutOptions{
			ContentType: contentType,
			Metadata:    map[string]string{"project": projectName, "kind": kind},
		})
		if err != nil {
			return fmt.Errorf("export: upload %s: %w", key, err)
		}
		artifacts = append(artifacts, Artifact{Kind: kind, Key: key, Info: info})
		return nil
	}

	err := upload(KindBackup, projectName+"_backup.zip", "application/zip", func(buf *bytes.Buffer) error {
		return backup.Write(buf, projectName, tree, lines)
	})
	if err != nil {
		return artifacts, err
	}
	err = upload(KindGeoJSON, projectName+"_geojson.zip", "application/zip", func(buf *bytes.Buffer) error {
		return WriteGeoJSONArchive(buf, tree)
	})
	if err != nil {
		return artifacts, err
	}
	err = upload(KindKML, projectName+".kml", "application/vnd.google-earth.kml+xml", func(buf *bytes.Buffer) error {
		return WriteKML(buf, projectName, tree)
	})
	if err != nil {
		return artifacts, err
	}
	if len(routes) > 0 {
		err = upload(KindRoutesKML, projectName+"_routes.kml", "application/vnd.google-earth.kml+xml", func(buf *bytes.Buffer) error {
			return WriteRoutesKML(buf, projectName, routes)
		})
		if err != nil {
			return artifacts, err
		}
	}
	return artifacts, nil
}
