// Package export renders project state into interchange formats: a zip of
// per-category GeoJSON FeatureCollections, KML documents for map viewers,
// and full backup archives. The Exporter uploads the rendered artifacts to a
// blob store under timestamped keys.
package export

import (
	"archive/zip"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"tripcore/pkg/domain"
	"tripcore/pkg/geo"
)

// WriteGeoJSONArchive emits a zip with one GeoJSON FeatureCollection per
// category, named "<category>.geojson". Category names are sanitized for use
// as file names; the display order of categories is preserved by archive
// entry order.
func WriteGeoJSONArchive(w io.Writer, tree *domain.FeatureTree) error {
	if tree == nil {
		return fmt.Errorf("export: feature tree must not be nil")
	}
	zw := zip.NewWriter(w)
	for _, category := range tree.Categories() {
		f, err := zw.Create(fileName(category) + ".geojson")
		if err != nil {
			return fmt.Errorf("export: create entry for %q: %w", category, err)
		}
		collection := geo.NewFeatureCollection(tree.Features(category))
		enc := json.NewEncoder(f)
		enc.SetIndent("", "  ")
		if err := enc.Encode(collection); err != nil {
			return fmt.Errorf("export: encode %q: %w", category, err)
		}
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("export: close archive: %w", err)
	}
	return nil
}

// fileName turns a category name into a safe archive entry name.
func fileName(name string) string {
	out := strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '_'
		}
		return r
	}, name)
	out = strings.TrimSpace(out)
	if out == "" {
		out = "category"
	}
	return out
}
