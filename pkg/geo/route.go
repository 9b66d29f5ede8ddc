package geo

// RouteLineString builds a LineString geometry from point features, in order.
// Non-point features are skipped. Returns false when fewer than two usable
// positions remain, which callers treat as a non-routable input.
func RouteLineString(features []Feature) (Geometry, bool) {
	coords := make([]Position, 0, len(features))
	for _, f := range features {
		if p, ok := f.Geometry.Point(); ok {
			coords = append(coords, p)
		}
	}
	if len(coords) < 2 {
		return Geometry{}, false
	}
	return LineString(coords), true
}

// Outline degrades filled polygon geometries to MultiLineString outlines:
// a Polygon becomes its outer ring, a MultiPolygon becomes one line per
// polygon's outer ring. Other geometries pass through unchanged. Target KML
// viewers do not render filled polygons.
func Outline(f Feature) Feature {
	switch f.Geometry.Type {
	case TypePolygon:
		rings, ok := f.Geometry.Rings()
		if !ok || len(rings) == 0 {
			return f
		}
		out := f
		out.Geometry = MultiLineString([][]Position{rings[0]})
		return out
	case TypeMultiPolygon:
		polys, ok := f.Geometry.Polygons()
		if !ok {
			return f
		}
		outers := make([][]Position, 0, len(polys))
		for _, poly := range polys {
			if len(poly) > 0 {
				outers = append(outers, poly[0])
			}
		}
		out := f
		out.Geometry = MultiLineString(outers)
		return out
	default:
		return f
	}
}
