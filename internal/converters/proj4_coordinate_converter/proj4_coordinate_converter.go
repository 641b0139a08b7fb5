package proj4_coordinate_converter

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/ecopia-map/osgb_tiler/internal/converters"
	"github.com/ecopia-map/osgb_tiler/internal/geometry"
	"github.com/golang/glog"
	proj "github.com/xeonx/proj4"
)

const (
	EpsgDefinitionsFile = "epsg_projections.txt"
	wgs84Definition     = "+proj=longlat +datum=WGS84 +no_defs"
)

var (
	ErrShortPoint   = errors.New("point needs at least x and y")
	ErrUnknownWkt   = errors.New("wkt carries no EPSG authority")
	authorityRegexp = regexp.MustCompile(`(?:AUTHORITY|ID)\[\s*"EPSG"\s*,\s*"?(\d+)"?\s*\]`)
)

type proj4CoordinateConverter struct {
	epsgDefinitions map[int]string
	projectionCache map[string]*proj.Proj
	sync.Mutex
}

// NewProj4CoordinateConverter loads the EPSG definitions table found in dataDir. A missing table is
// not fatal, projections then fall back to the proj4 "+init=epsg:N" database lookup.
func NewProj4CoordinateConverter(dataDir string) converters.CoordinateConverter {
	definitions := map[int]string{4326: wgs84Definition}

	tablePath := filepath.Join(dataDir, EpsgDefinitionsFile)
	if file, err := os.Open(tablePath); err == nil {
		loaded, err := ParseEpsgDefinitions(file)
		_ = file.Close()
		if err != nil {
			glog.Warningf("cannot parse %s: %v", tablePath, err)
		}
		for srid, def := range loaded {
			definitions[srid] = def
		}
	} else {
		glog.Warningf("epsg table %s not available: %v", tablePath, err)
	}

	return &proj4CoordinateConverter{
		epsgDefinitions: definitions,
		projectionCache: make(map[string]*proj.Proj),
	}
}

// ParseEpsgDefinitions reads lines in the "<srid> +proj=... <>" format of the proj4 epsg file
func ParseEpsgDefinitions(r io.Reader) (map[int]string, error) {
	definitions := make(map[int]string)
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if !strings.HasPrefix(line, "<") {
			continue
		}
		end := strings.Index(line, ">")
		if end < 0 {
			continue
		}
		srid, err := strconv.Atoi(line[1:end])
		if err != nil {
			continue
		}
		def := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(line[end+1:]), "<>"))
		if def != "" {
			definitions[srid] = def
		}
	}
	return definitions, scanner.Err()
}

// EpsgCodeFromWkt returns the last EPSG authority code of a wkt string, i.e. the one of the outer crs
func EpsgCodeFromWkt(wkt string) (int, bool) {
	matches := authorityRegexp.FindAllStringSubmatch(wkt, -1)
	if len(matches) == 0 {
		return 0, false
	}
	code, err := strconv.Atoi(matches[len(matches)-1][1])
	if err != nil {
		return 0, false
	}
	return code, true
}

func (cc *proj4CoordinateConverter) EpsgConvert(srid int, pt []float64) error {
	def, ok := cc.epsgDefinitions[srid]
	if !ok {
		def = fmt.Sprintf("+init=epsg:%d", srid)
	}
	return cc.convert(def, pt)
}

func (cc *proj4CoordinateConverter) WktConvert(wkt string, pt []float64) error {
	trimmed := strings.TrimSpace(wkt)
	if strings.HasPrefix(trimmed, "+proj") || strings.HasPrefix(trimmed, "+init") {
		return cc.convert(trimmed, pt)
	}
	code, ok := EpsgCodeFromWkt(trimmed)
	if !ok {
		return ErrUnknownWkt
	}
	return cc.EpsgConvert(code, pt)
}

func (cc *proj4CoordinateConverter) convert(definition string, pt []float64) error {
	if len(pt) < 2 {
		return ErrShortPoint
	}

	cc.Lock()
	defer cc.Unlock()

	src, err := cc.getProjection(definition)
	if err != nil {
		return err
	}
	dst, err := cc.getProjection(wgs84Definition)
	if err != nil {
		return err
	}

	x, y := []float64{pt[0]}, []float64{pt[1]}
	z := []float64{0}
	if len(pt) > 2 {
		z[0] = pt[2]
	}
	if isLatLong(definition) {
		x[0], y[0] = geometry.DegToRad(x[0]), geometry.DegToRad(y[0])
	}

	if err := proj.TransformRaw(src, dst, x, y, z); err != nil {
		return fmt.Errorf("proj transform with [%s]: %w", definition, err)
	}
	if math.IsNaN(x[0]) || math.IsNaN(y[0]) || math.IsInf(x[0], 0) || math.IsInf(y[0], 0) {
		return fmt.Errorf("proj transform with [%s] returned an invalid point", definition)
	}

	pt[0] = geometry.RadToDeg(x[0])
	pt[1] = geometry.RadToDeg(y[0])
	return nil
}

func (cc *proj4CoordinateConverter) getProjection(definition string) (*proj.Proj, error) {
	if p, ok := cc.projectionCache[definition]; ok {
		return p, nil
	}
	p, err := proj.InitPlus(definition)
	if err != nil {
		return nil, fmt.Errorf("init projection [%s]: %w", definition, err)
	}
	cc.projectionCache[definition] = p
	return p, nil
}

func isLatLong(definition string) bool {
	return strings.Contains(definition, "+proj=longlat") || strings.Contains(definition, "+proj=latlong")
}

// InitEnu only validates the frame, EnuTransformMatrix receives the offset explicitly
func (cc *proj4CoordinateConverter) InitEnu(lon, lat float64, offset geometry.Coordinate) error {
	if math.Abs(lat) > 90 || math.Abs(lon) > 180 {
		return fmt.Errorf("enu origin out of range: lon %f lat %f", lon, lat)
	}
	m := geometry.EnuToEcef(geometry.DegToRad(lon), geometry.DegToRad(lat), 0)
	if !m.IsFinite() {
		return fmt.Errorf("enu frame at lon %f lat %f is degenerate", lon, lat)
	}

	glog.Infof("enu frame initialized at lon %f lat %f offset %v", lon, lat, offset)
	return nil
}

func (cc *proj4CoordinateConverter) TransformMatrix(lonRad, latRad, height float64) geometry.Matrix4 {
	return geometry.EnuToEcef(lonRad, latRad, height)
}

func (cc *proj4CoordinateConverter) EnuTransformMatrix(lonRad, latRad, height float64, offset geometry.Coordinate) geometry.Matrix4 {
	enuToEcef := geometry.EnuToEcef(lonRad, latRad, height)
	if offset.IsZero() {
		return enuToEcef
	}
	return enuToEcef.Mul(geometry.CenterOffset(offset))
}

// Releases all projection objects from memory
func (cc *proj4CoordinateConverter) Cleanup() {
	cc.Lock()
	defer cc.Unlock()
	for _, p := range cc.projectionCache {
		p.Close()
	}
	cc.projectionCache = make(map[string]*proj.Proj)
}
