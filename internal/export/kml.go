package export

import (
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"

	"tripcore/pkg/domain"
	"tripcore/pkg/geo"
)

const kmlNamespace = "http://www.opengis.net/kml/2.2"

type kmlRoot struct {
	XMLName  xml.Name    `xml:"kml"`
	Xmlns    string      `xml:"xmlns,attr"`
	Document kmlDocument `xml:"Document"`
}

type kmlDocument struct {
	Name       string         `xml:"name"`
	Folders    []kmlFolder    `xml:"Folder,omitempty"`
	Placemarks []kmlPlacemark `xml:"Placemark,omitempty"`
}

type kmlFolder struct {
	Name       string         `xml:"name"`
	Placemarks []kmlPlacemark `xml:"Placemark,omitempty"`
}

type kmlPlacemark struct {
	Name          string            `xml:"name,omitempty"`
	Description   string            `xml:"description,omitempty"`
	Point         *kmlGeometry      `xml:"Point,omitempty"`
	LineString    *kmlGeometry      `xml:"LineString,omitempty"`
	MultiGeometry *kmlMultiGeometry `xml:"MultiGeometry,omitempty"`
}

type kmlGeometry struct {
	Coordinates string `xml:"coordinates"`
}

type kmlMultiGeometry struct {
	LineStrings []kmlGeometry `xml:"LineString"`
}

// WriteKML emits one KML document with a folder per category. Point and
// LineString features map directly; surface geometries degrade to their
// outer-ring outlines so viewers without fill support still show the shape.
// Features with geometries KML cannot carry are skipped.
func WriteKML(w io.Writer, projectName string, tree *domain.FeatureTree) error {
	if tree == nil {
		return fmt.Errorf("export: feature tree must not be nil")
	}
	doc := kmlDocument{Name: projectName}
	for _, category := range tree.Categories() {
		folder := kmlFolder{Name: category}
		for _, f := range tree.Features(category) {
			if pm, ok := placemark(f); ok {
				folder.Placemarks = append(folder.Placemarks, pm)
			}
		}
		doc.Folders = append(doc.Folders, folder)
	}
	return writeKMLDocument(w, doc)
}

// WriteRoutesKML emits a flat KML document of resolved route features, one
// LineString placemark per route.
func WriteRoutesKML(w io.Writer, projectName string, routes []geo.Feature) error {
	doc := kmlDocument{Name: projectName + " routes"}
	for _, route := range routes {
		pm, ok := placemark(route)
		if !ok || pm.LineString == nil {
			continue
		}
		doc.Placemarks = append(doc.Placemarks, pm)
	}
	return writeKMLDocument(w, doc)
}

func writeKMLDocument(w io.Writer, doc kmlDocument) error {
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return fmt.Errorf("export: write kml header: %w", err)
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(kmlRoot{Xmlns: kmlNamespace, Document: doc}); err != nil {
		return fmt.Errorf("export: encode kml: %w", err)
	}
	return nil
}

// placemark converts one feature; ok is false when the geometry has no KML
// representation.
func placemark(f geo.Feature) (kmlPlacemark, bool) {
	pm := kmlPlacemark{Name: f.Name(), Description: f.Description()}
	switch f.Geometry.Type {
	case geo.TypePoint:
		p, ok := f.Geometry.Point()
		if !ok {
			return kmlPlacemark{}, false
		}
		pm.Point = &kmlGeometry{Coordinates: coordinate(p)}
	case geo.TypeLineString:
		coords, ok := f.Geometry.LineString()
		if !ok {
			return kmlPlacemark{}, false
		}
		pm.LineString = &kmlGeometry{Coordinates: coordinates(coords)}
	case geo.TypePolygon, geo.TypeMultiLineString, geo.TypeMultiPolygon:
		outline := geo.Outline(f)
		rings, ok := outline.Geometry.Rings()
		if !ok || len(rings) == 0 {
			return kmlPlacemark{}, false
		}
		if len(rings) == 1 {
			pm.LineString = &kmlGeometry{Coordinates: coordinates(rings[0])}
			break
		}
		multi := &kmlMultiGeometry{}
		for _, ring := range rings {
			multi.LineStrings = append(multi.LineStrings, kmlGeometry{Coordinates: coordinates(ring)})
		}
		pm.MultiGeometry = multi
	default:
		return kmlPlacemark{}, false
	}
	return pm, true
}

func coordinate(p geo.Position) string {
	return strconv.FormatFloat(p.Lon(), 'f', -1, 64) + "," + strconv.FormatFloat(p.Lat(), 'f', -1, 64)
}

func coordinates(positions []geo.Position) string {
	parts := make([]string, len(positions))
	for i, p := range positions {
		parts[i] = coordinate(p)
	}
	return strings.Join(parts, " ")
}
