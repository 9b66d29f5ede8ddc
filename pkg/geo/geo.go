// Package geo defines the GeoJSON value types shared across tripcore: features,
// geometries, and feature collections. Features are treated as immutable value
// objects; callers replace them rather than mutating in place.
package geo

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Position is a single [longitude, latitude] coordinate pair.
type Position [2]float64

// Lon returns the longitude component.
func (p Position) Lon() float64 { return p[0] }

// Lat returns the latitude component.
func (p Position) Lat() float64 { return p[1] }

// Geometry is a GeoJSON geometry. Coordinates are kept in raw form so that
// geometry types the core never inspects round-trip through storage and
// backups byte-for-byte.
type Geometry struct {
	Type        string          `json:"type"`
	Coordinates json.RawMessage `json:"coordinates"`
}

// Geometry type names used by the core.
const (
	TypePoint           = "Point"
	TypeLineString      = "LineString"
	TypePolygon         = "Polygon"
	TypeMultiLineString = "MultiLineString"
	TypeMultiPolygon    = "MultiPolygon"
)

func mustCoords(v any) json.RawMessage {
	raw, err := json.Marshal(v)
	if err != nil {
		panic(fmt.Errorf("geo: encode coordinates: %w", err))
	}
	return raw
}

// Point constructs a Point geometry.
func Point(lon, lat float64) Geometry {
	return Geometry{Type: TypePoint, Coordinates: mustCoords(Position{lon, lat})}
}

// LineString constructs a LineString geometry from the given positions.
func LineString(coords []Position) Geometry {
	return Geometry{Type: TypeLineString, Coordinates: mustCoords(coords)}
}

// Polygon constructs a Polygon geometry from its rings (outer ring first).
func Polygon(rings [][]Position) Geometry {
	return Geometry{Type: TypePolygon, Coordinates: mustCoords(rings)}
}

// MultiLineString constructs a MultiLineString geometry.
func MultiLineString(lines [][]Position) Geometry {
	return Geometry{Type: TypeMultiLineString, Coordinates: mustCoords(lines)}
}

// MultiPolygon constructs a MultiPolygon geometry.
func MultiPolygon(polygons [][][]Position) Geometry {
	return Geometry{Type: TypeMultiPolygon, Coordinates: mustCoords(polygons)}
}

// Point decodes the coordinates of a Point geometry.
func (g Geometry) Point() (Position, bool) {
	if g.Type != TypePoint {
		return Position{}, false
	}
	var p Position
	if err := json.Unmarshal(g.Coordinates, &p); err != nil {
		return Position{}, false
	}
	return p, true
}

// LineString decodes the coordinates of a LineString geometry.
func (g Geometry) LineString() ([]Position, bool) {
	if g.Type != TypeLineString {
		return nil, false
	}
	var coords []Position
	if err := json.Unmarshal(g.Coordinates, &coords); err != nil {
		return nil, false
	}
	return coords, true
}

// Rings decodes Polygon or MultiLineString coordinates.
func (g Geometry) Rings() ([][]Position, bool) {
	if g.Type != TypePolygon && g.Type != TypeMultiLineString {
		return nil, false
	}
	var rings [][]Position
	if err := json.Unmarshal(g.Coordinates, &rings); err != nil {
		return nil, false
	}
	return rings, true
}

// Polygons decodes MultiPolygon coordinates.
func (g Geometry) Polygons() ([][][]Position, bool) {
	if g.Type != TypeMultiPolygon {
		return nil, false
	}
	var polys [][][]Position
	if err := json.Unmarshal(g.Coordinates, &polys); err != nil {
		return nil, false
	}
	return polys, true
}

// Feature is a GeoJSON feature with a free-form properties map. The stable
// feature identity lives in properties["id"].
type Feature struct {
	Type       string         `json:"type"`
	Geometry   Geometry       `json:"geometry"`
	Properties map[string]any `json:"properties"`
}

// NewFeature constructs a feature with the given geometry and properties.
func NewFeature(geometry Geometry, properties map[string]any) Feature {
	if properties == nil {
		properties = map[string]any{}
	}
	return Feature{Type: "Feature", Geometry: geometry, Properties: properties}
}

func (f Feature) stringProperty(key string) string {
	if f.Properties == nil {
		return ""
	}
	if v, ok := f.Properties[key].(string); ok {
		return v
	}
	return ""
}

// ID returns the stable feature identifier, or "" when absent.
func (f Feature) ID() string { return f.stringProperty("id") }

// Name returns the display name property, or "" when absent.
func (f Feature) Name() string { return f.stringProperty("name") }

// Description returns the description property, or "" when absent.
func (f Feature) Description() string { return f.stringProperty("description") }

// Clone returns a copy with an independent properties map. Geometry raw
// coordinates are shared; they are never mutated.
func (f Feature) Clone() Feature {
	cloned := f
	if f.Properties != nil {
		cloned.Properties = make(map[string]any, len(f.Properties))
		for k, v := range f.Properties {
			cloned.Properties[k] = v
		}
	}
	return cloned
}

// FeatureCollection is a GeoJSON FeatureCollection.
type FeatureCollection struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
}

// NewFeatureCollection wraps features into a FeatureCollection.
func NewFeatureCollection(features []Feature) FeatureCollection {
	if features == nil {
		features = []Feature{}
	}
	return FeatureCollection{Type: "FeatureCollection", Features: features}
}

// RepresentativeCoordinate extracts one coordinate usable for navigation or
// map centering: the point itself, the first position of a line, or the first
// position of a polygon's outer ring.
func RepresentativeCoordinate(f Feature) (Position, bool) {
	switch f.Geometry.Type {
	case TypePoint:
		return f.Geometry.Point()
	case TypeLineString:
		if coords, ok := f.Geometry.LineString(); ok && len(coords) > 0 {
			return coords[0], true
		}
	case TypePolygon:
		if rings, ok := f.Geometry.Rings(); ok && len(rings) > 0 && len(rings[0]) > 0 {
			return rings[0][0], true
		}
	}
	return Position{}, false
}

// FilterFeatures returns the features whose name or description contains the
// query, case-insensitively. An empty query returns the input unchanged.
func FilterFeatures(features []Feature, query string) []Feature {
	if query == "" {
		return features
	}
	q := strings.ToLower(query)
	var out []Feature
	for _, f := range features {
		if strings.Contains(strings.ToLower(f.Name()), q) ||
			strings.Contains(strings.ToLower(f.Description()), q) {
			out = append(out, f)
		}
	}
	return out
}
