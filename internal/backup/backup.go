// Package backup reads and writes project backup archives: a zip holding one
// JSON file of categorized features and one of route lines. Older archives
// named the feature file "<project>_backup.json", and the oldest held a
// single bare .json file; Parse accepts all three layouts.
package backup

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"path"
	"strings"

	"tripcore/pkg/domain"
)

const (
	poisSuffix   = "_pois.json"
	linesSuffix  = "_lines.json"
	legacySuffix = "_backup.json"
)

// Archive is the decoded content of one backup. POIs is nil when the archive
// carried no feature file; Lines is nil when it carried no line file. Nil and
// empty are distinct and importers treat them differently.
type Archive struct {
	ProjectName string
	POIs        *domain.FeatureTree
	Lines       []domain.LineDefinition
}

// Write emits a backup archive for one project. The line file is always
// written, as an empty array when the project has no lines, so a restore can
// distinguish "no lines" from "line file lost".
func Write(w io.Writer, projectName string, tree *domain.FeatureTree, lines []domain.LineDefinition) error {
	if projectName == "" {
		return fmt.Errorf("backup: project name must not be empty")
	}
	if tree == nil {
		return fmt.Errorf("backup: feature tree must not be nil")
	}
	if lines == nil {
		lines = []domain.LineDefinition{}
	}

	zw := zip.NewWriter(w)
	if err := writeJSONEntry(zw, projectName+poisSuffix, tree); err != nil {
		return err
	}
	if err := writeJSONEntry(zw, projectName+linesSuffix, lines); err != nil {
		return err
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("backup: close archive: %w", err)
	}
	return nil
}

func writeJSONEntry(zw *zip.Writer, name string, v any) error {
	f, err := zw.Create(name)
	if err != nil {
		return fmt.Errorf("backup: create %s: %w", name, err)
	}
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("backup: encode %s: %w", name, err)
	}
	return nil
}

// Parse decodes a backup archive. The feature file is located by suffix
// preference: "_pois.json", then the legacy "_backup.json", then any lone
// .json file that is not a line file. An archive with neither features nor
// lines is an error.
func Parse(data []byte) (Archive, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return Archive{}, fmt.Errorf("backup: open archive: %w", err)
	}

	var poisFile, linesFile *zip.File
	var jsonFiles []*zip.File
	for _, f := range zr.File {
		name := path.Base(f.Name)
		switch {
		case strings.HasSuffix(name, poisSuffix):
			if poisFile == nil || strings.HasSuffix(poisFile.Name, legacySuffix) {
				poisFile = f
			}
		case strings.HasSuffix(name, linesSuffix):
			if linesFile == nil {
				linesFile = f
			}
		case strings.HasSuffix(name, legacySuffix):
			if poisFile == nil {
				poisFile = f
			}
		case strings.HasSuffix(name, ".json"):
			jsonFiles = append(jsonFiles, f)
		}
	}
	if poisFile == nil && len(jsonFiles) == 1 {
		poisFile = jsonFiles[0]
	}
	if poisFile == nil && linesFile == nil {
		return Archive{}, fmt.Errorf("backup: archive contains no recognizable backup files")
	}

	archive := Archive{}
	if poisFile != nil {
		archive.ProjectName = projectNameFrom(poisFile.Name)
		tree := domain.NewFeatureTree()
		if err := decodeEntry(poisFile, tree); err != nil {
			return Archive{}, err
		}
		archive.POIs = tree
	}
	if linesFile != nil {
		if archive.ProjectName == "" {
			archive.ProjectName = projectNameFrom(linesFile.Name)
		}
		lines := []domain.LineDefinition{}
		if err := decodeEntry(linesFile, &lines); err != nil {
			return Archive{}, err
		}
		archive.Lines = lines
	}
	return archive, nil
}

func decodeEntry(f *zip.File, v any) error {
	rc, err := f.Open()
	if err != nil {
		return fmt.Errorf("backup: open %s: %w", f.Name, err)
	}
	defer rc.Close()
	if err := json.NewDecoder(rc).Decode(v); err != nil {
		return fmt.Errorf("backup: decode %s: %w", f.Name, err)
	}
	return nil
}

// projectNameFrom strips the known suffixes from a backup file name.
func projectNameFrom(name string) string {
	name = path.Base(name)
	for _, suffix := range []string{poisSuffix, linesSuffix, legacySuffix} {
		if strings.HasSuffix(name, suffix) {
			return strings.TrimSuffix(name, suffix)
		}
	}
	return strings.TrimSuffix(name, ".json")
}
