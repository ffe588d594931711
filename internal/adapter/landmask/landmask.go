// Package landmask classifies track positions as land or sea using polygon
// data loaded from an ESRI shapefile or a GeoJSON feature collection.
package landmask

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jonas-p/go-shp"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/planar"

	"github.com/couchcryptid/storm-track-etl/internal/domain"
)

// ErrNoPolygons is returned when a mask file holds no polygon geometry.
var ErrNoPolygons = errors.New("landmask: no polygons found")

type region struct {
	poly  orb.Polygon
	bound orb.Bound
}

// Mask is an immutable set of land polygons in longitude/latitude degrees.
type Mask struct {
	regions []region
	bound   orb.Bound
}

// New builds a mask from polygons whose coordinates use [-180, 180] longitudes.
func New(polys []orb.Polygon) (*Mask, error) {
	m := &Mask{}
	for _, p := range polys {
		if len(p) == 0 || len(p[0]) < 3 {
			continue
		}
		b := p.Bound()
		if len(m.regions) == 0 {
			m.bound = b
		} else {
			m.bound = m.bound.Union(b)
		}
		m.regions = append(m.regions, region{poly: p, bound: b})
	}
	if len(m.regions) == 0 {
		return nil, ErrNoPolygons
	}
	return m, nil
}

// Load reads a mask from path. Files ending in .shp are read as shapefiles;
// .geojson and .json are read as GeoJSON feature collections.
func Load(path string) (*Mask, error) {
	var (
		polys []orb.Polygon
		err   error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".shp":
		polys, err = readShapefile(path)
	case ".geojson", ".json":
		polys, err = readGeoJSON(path)
	default:
		return nil, fmt.Errorf("landmask: unsupported file type %q", filepath.Ext(path))
	}
	if err != nil {
		return nil, err
	}
	m, err := New(polys)
	if err != nil {
		return nil, fmt.Errorf("%w in %s", err, path)
	}
	return m, nil
}

// Len returns the number of polygons in the mask.
func (m *Mask) Len() int { return len(m.regions) }

// SampleLandFlag implements domain.LandSampler. Longitudes in (180, 360] are
// folded back into [-180, 180] before lookup.
func (m *Mask) SampleLandFlag(lon, lat float64) domain.Surface {
	if lon > 180 {
		lon -= 360
	}
	pt := orb.Point{lon, lat}
	if !m.bound.Contains(pt) {
		return domain.Sea
	}
	for _, r := range m.regions {
		if !r.bound.Contains(pt) {
			continue
		}
		if planar.PolygonContains(r.poly, pt) {
			return domain.Land
		}
	}
	return domain.Sea
}

func readGeoJSON(path string) ([]orb.Polygon, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("landmask: read %s: %w", path, err)
	}
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("landmask: parse %s: %w", path, err)
	}

	var polys []orb.Polygon
	for _, f := range fc.Features {
		polys = appendPolygons(polys, f.Geometry)
	}
	return polys, nil
}

func appendPolygons(dst []orb.Polygon, geom orb.Geometry) []orb.Polygon {
	switch g := geom.(type) {
	case orb.Polygon:
		return append(dst, g)
	case orb.MultiPolygon:
		return append(dst, g...)
	case orb.Collection:
		for _, inner := range g {
			dst = appendPolygons(dst, inner)
		}
	}
	return dst
}

func readShapefile(path string) ([]orb.Polygon, error) {
	shape, err := shp.Open(path)
	if err != nil {
		return nil, fmt.Errorf("landmask: open %s: %w", path, err)
	}
	defer shape.Close()

	var polys []orb.Polygon
	for shape.Next() {
		_, s := shape.Shape()
		if p, ok := s.(*shp.Polygon); ok {
			polys = append(polys, convertPolygon(p)...)
		}
	}
	if err := shape.Err(); err != nil {
		return nil, fmt.Errorf("landmask: read %s: %w", path, err)
	}
	return polys, nil
}

// convertPolygon maps shapefile parts onto polygons. Clockwise rings are outer
// rings and start a new polygon; counter-clockwise rings are holes and join the
// outer ring that contains them, or the latest one.
func convertPolygon(s *shp.Polygon) []orb.Polygon {
	var polys []orb.Polygon
	for i := 0; i < int(s.NumParts); i++ {
		start := s.Parts[i]
		end := s.NumPoints
		if i < int(s.NumParts)-1 {
			end = s.Parts[i+1]
		}

		var ring orb.Ring
		for j := start; j < end; j++ {
			ring = append(ring, orb.Point{s.Points[j].X, s.Points[j].Y})
		}
		if len(ring) == 0 {
			continue
		}
		if len(polys) == 0 || ring.Orientation() == orb.CW {
			polys = append(polys, orb.Polygon{ring})
			continue
		}
		owner := len(polys) - 1
		for k := range polys {
			if planar.RingContains(polys[k][0], ring[0]) {
				owner = k
				break
			}
		}
		polys[owner] = append(polys[owner], ring)
	}
	return polys
}
