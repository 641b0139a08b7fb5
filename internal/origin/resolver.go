package origin

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/ecopia-map/osgb_tiler/internal/converters"
	"github.com/ecopia-map/osgb_tiler/internal/geometry"
	"github.com/ecopia-map/osgb_tiler/internal/tiler"
	"github.com/golang/glog"
	"github.com/shopspring/decimal"
)

const (
	SchemeEnu  = "ENU"
	SchemeEpsg = "EPSG"
)

var errNotEnoughValues = errors.New("point is not enough")

// Origin is the geographic anchor of the scene, degrees and meters
type Origin struct {
	Lon       float64
	Lat       float64
	Height    float64
	HasHeight bool // Height was declared by the source, not defaulted
}

// Resolution is everything the assembler needs to place the tileset on the globe
type Resolution struct {
	Origin
	EnuOffset    *geometry.Coordinate // local shift of an ENU frame, nil when the frame is centered on the origin
	GroundOffset *float64             // distance of the lowest face above the ground, from the config
	MaxLevel     int                  // 0 means no cutoff
}

func (r Resolution) LonRad() float64 {
	return geometry.DegToRad(r.Lon)
}

func (r Resolution) LatRad() float64 {
	return geometry.DegToRad(r.Lat)
}

type Resolver struct {
	coordinateConverter converters.CoordinateConverter
}

func NewResolver(coordinateConverter converters.CoordinateConverter) *Resolver {
	return &Resolver{coordinateConverter: coordinateConverter}
}

// Resolve turns the declared spatial reference into an origin. metadata may be nil when the
// metadata file is missing. The config override is applied last and wins over the metadata.
// Failures never abort: the origin degrades to 0,0,0 and a warning is logged.
func (resolver *Resolver) Resolve(metadata *ModelMetadata, config tiler.TileConfig) Resolution {
	var res Resolution
	if metadata != nil {
		resolved, err := resolver.resolveSrs(metadata.SRS, metadata.SRSOrigin)
		if err != nil {
			glog.Warningf("cannot resolve SRS %q origin %q, falling back to 0,0,0: %v", metadata.SRS, metadata.SRSOrigin, err)
		} else {
			res = resolved
		}
	}

	if config.X != nil {
		res.Lon = *config.X
	}
	if config.Y != nil {
		res.Lat = *config.Y
	}
	if config.Offset != nil {
		offset := *config.Offset
		res.GroundOffset = &offset
	}
	if config.MaxLevel != nil {
		res.MaxLevel = *config.MaxLevel
	}

	glog.Infof("origin: lon->%v, lat->%v, height->%v", res.Lon, res.Lat, res.Height)
	return res
}

// ResolveDir reads <dir>/metadata.xml, a missing or broken file only costs a warning
func (resolver *Resolver) ResolveDir(dir string, config tiler.TileConfig) Resolution {
	metadata, err := ReadMetadata(dir)
	if err != nil {
		glog.Warningf("metadata unavailable: %v", err)
		metadata = nil
	}
	return resolver.Resolve(metadata, config)
}

func (resolver *Resolver) resolveSrs(srs, srsOrigin string) (Resolution, error) {
	srs = strings.TrimSpace(srs)
	scheme, params, found := strings.Cut(srs, ":")
	if found {
		switch strings.ToUpper(strings.TrimSpace(scheme)) {
		case SchemeEnu:
			return resolver.resolveEnu(params, srsOrigin)
		case SchemeEpsg:
			return resolver.resolveEpsg(params, srsOrigin)
		}
	}
	if srs == "" {
		return Resolution{}, errors.New("SRS content error")
	}
	return resolver.resolveWkt(srs, srsOrigin)
}

// ENU params are stored latitude first
func (resolver *Resolver) resolveEnu(params, srsOrigin string) (Resolution, error) {
	values, err := ParseNumbers(params)
	if err != nil {
		return Resolution{}, fmt.Errorf("parse ENU point: %w", err)
	}
	if len(values) < 2 {
		return Resolution{}, fmt.Errorf("ENU: %w", errNotEnoughValues)
	}

	res := Resolution{Origin: Origin{Lat: values[0], Lon: values[1]}}

	if strings.TrimSpace(srsOrigin) == "" {
		return res, nil
	}
	offsetValues, err := ParseNumbers(srsOrigin)
	if err != nil {
		return Resolution{}, fmt.Errorf("parse ENU offset: %w", err)
	}
	offset := geometry.Coordinate{}
	switch {
	case len(offsetValues) >= 3:
		offset.Z = offsetValues[2]
		fallthrough
	case len(offsetValues) == 2:
		offset.X, offset.Y = offsetValues[0], offsetValues[1]
	default:
		return Resolution{}, fmt.Errorf("ENU offset: %w", errNotEnoughValues)
	}
	if offset.IsZero() {
		return res, nil
	}

	if err := resolver.coordinateConverter.InitEnu(res.Lon, res.Lat, offset); err != nil {
		return Resolution{}, fmt.Errorf("init ENU frame: %w", err)
	}
	res.EnuOffset = &offset
	return res, nil
}

func (resolver *Resolver) resolveEpsg(params, srsOrigin string) (Resolution, error) {
	srid, err := strconv.Atoi(strings.TrimSpace(params))
	if err != nil {
		return Resolution{}, fmt.Errorf("parse EPSG failed: %w", err)
	}
	pt, err := parsePoint(srsOrigin)
	if err != nil {
		return Resolution{}, fmt.Errorf("EPSG origin: %w", err)
	}
	if err := resolver.coordinateConverter.EpsgConvert(srid, pt); err != nil {
		return Resolution{}, fmt.Errorf("epsg convert failed: %w", err)
	}
	glog.Infof("epsg: x->%v, y->%v", pt[0], pt[1])
	return resolutionFromPoint(pt), nil
}

func (resolver *Resolver) resolveWkt(wkt, srsOrigin string) (Resolution, error) {
	pt, err := parsePoint(srsOrigin)
	if err != nil {
		return Resolution{}, fmt.Errorf("WKT origin: %w", err)
	}
	if err := resolver.coordinateConverter.WktConvert(wkt, pt); err != nil {
		return Resolution{}, fmt.Errorf("wkt convert failed: %w", err)
	}
	glog.Infof("wkt: x->%v, y->%v", pt[0], pt[1])
	return resolutionFromPoint(pt), nil
}

func parsePoint(srsOrigin string) ([]float64, error) {
	pt, err := ParseNumbers(srsOrigin)
	if err != nil {
		return nil, err
	}
	if len(pt) < 2 {
		return nil, errNotEnoughValues
	}
	if len(pt) > 3 {
		pt = pt[:3]
	}
	return pt, nil
}

func resolutionFromPoint(pt []float64) Resolution {
	res := Resolution{Origin: Origin{Lon: pt[0], Lat: pt[1]}}
	if len(pt) > 2 {
		res.Height = pt[2]
		res.HasHeight = true
	}
	return res
}

// ParseNumbers reads a comma separated list of decimals
func ParseNumbers(s string) ([]float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	values := make([]float64, 0, len(parts))
	for _, part := range parts {
		d, err := decimal.NewFromString(strings.TrimSpace(part))
		if err != nil {
			return nil, fmt.Errorf("%q: %w", part, err)
		}
		v, _ := d.Float64()
		values = append(values, v)
	}
	return values, nil
}
