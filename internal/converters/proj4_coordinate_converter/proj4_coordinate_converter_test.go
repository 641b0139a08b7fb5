package proj4_coordinate_converter

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ecopia-map/osgb_tiler/internal/geometry"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/require"
)

func TestParseEpsgDefinitions(t *testing.T) {
	table := `# WGS 84
<4326> +proj=longlat +datum=WGS84 +no_defs  <>
# CGCS2000 / 3-degree Gauss-Kruger CM 120E
<4549> +proj=tmerc +lat_0=0 +lon_0=120 +k=1 +x_0=500000 +y_0=0 +ellps=GRS80 +units=m +no_defs  <>
<abc> +proj=broken <>
garbage line
`
	definitions, err := ParseEpsgDefinitions(strings.NewReader(table))
	require.NoError(t, err)
	want := map[int]string{
		4326: "+proj=longlat +datum=WGS84 +no_defs",
		4549: "+proj=tmerc +lat_0=0 +lon_0=120 +k=1 +x_0=500000 +y_0=0 +ellps=GRS80 +units=m +no_defs",
	}
	if diff := cmp.Diff(want, definitions); diff != "" {
		t.Errorf("ParseEpsgDefinitions mismatch (-want+got):\n%v", diff)
	}
}

func TestEpsgCodeFromWkt(t *testing.T) {
	wkt := `PROJCS["CGCS2000 / 3-degree Gauss-Kruger CM 120E",GEOGCS["China Geodetic Coordinate System 2000",` +
		`DATUM["China_2000",SPHEROID["CGCS2000",6378137,298.257222101,AUTHORITY["EPSG","1024"]],AUTHORITY["EPSG","1043"]],` +
		`AUTHORITY["EPSG","4490"]],PROJECTION["Transverse_Mercator"],AUTHORITY["EPSG","4549"]]`
	code, ok := EpsgCodeFromWkt(wkt)
	require.True(t, ok)
	require.Equal(t, 4549, code)

	code, ok = EpsgCodeFromWkt(`PROJCRS["x",ID["EPSG",32650]]`)
	require.True(t, ok)
	require.Equal(t, 32650, code)

	_, ok = EpsgCodeFromWkt(`LOCAL_CS["unknown"]`)
	require.False(t, ok)
}

func TestIsLatLong(t *testing.T) {
	require.True(t, isLatLong(wgs84Definition))
	require.False(t, isLatLong("+proj=utm +zone=50 +datum=WGS84"))
}

func newTestConverter(t *testing.T) *proj4CoordinateConverter {
	t.Helper()
	cc, ok := NewProj4CoordinateConverter(t.TempDir()).(*proj4CoordinateConverter)
	require.True(t, ok)
	t.Cleanup(cc.Cleanup)
	return cc
}

func TestTransformMatrixTranslation(t *testing.T) {
	cc := newTestConverter(t)
	lon, lat := geometry.DegToRad(120), geometry.DegToRad(30)

	m := cc.TransformMatrix(lon, lat, 12)
	want := geometry.CartographicToEcef(lon, lat, 12)
	if diff := cmp.Diff(want, geometry.TransformPoint(m, geometry.Coordinate{}), cmpopts.EquateApprox(0, 1e-6)); diff != "" {
		t.Errorf("origin mismatch (-want+got):\n%v", diff)
	}
}

func TestEnuTransformMatrixZeroOffset(t *testing.T) {
	cc := newTestConverter(t)
	lon, lat := geometry.DegToRad(120), geometry.DegToRad(30)
	require.Equal(t, cc.TransformMatrix(lon, lat, 7), cc.EnuTransformMatrix(lon, lat, 7, geometry.Coordinate{}))
}

func TestEnuTransformMatrixOffset(t *testing.T) {
	cc := newTestConverter(t)
	lon, lat := geometry.DegToRad(116), geometry.DegToRad(40)
	offset := geometry.Coordinate{X: 100, Y: -250, Z: 35}

	m := cc.EnuTransformMatrix(lon, lat, 35, offset)

	// the local offset point lands on the frame origin, z included
	got := geometry.TransformPoint(m, offset)
	want := geometry.CartographicToEcef(lon, lat, 35)
	if diff := cmp.Diff(want, got, cmpopts.EquateApprox(0, 1e-6)); diff != "" {
		t.Errorf("offset point mismatch (-want+got):\n%v", diff)
	}

	// one meter up in the local frame is one meter along the surface normal
	up := geometry.TransformPoint(m, offset.Add(geometry.Coordinate{Z: 1}))
	wantUp := geometry.CartographicToEcef(lon, lat, 36)
	if diff := cmp.Diff(wantUp, up, cmpopts.EquateApprox(0, 1e-6)); diff != "" {
		t.Errorf("up vector mismatch (-want+got):\n%v", diff)
	}
}

func TestInitEnu(t *testing.T) {
	cc := newTestConverter(t)
	require.NoError(t, cc.InitEnu(120, 30, geometry.Coordinate{X: 1, Y: 2, Z: 3}))
	require.Error(t, cc.InitEnu(120, 95, geometry.Coordinate{}))
	require.Error(t, cc.InitEnu(200, 30, geometry.Coordinate{}))
}

func TestEpsgConvertWgs84(t *testing.T) {
	cc := newTestConverter(t)
	pt := []float64{120.5, 30.25, 18}
	require.NoError(t, cc.EpsgConvert(4326, pt))
	require.InDelta(t, 120.5, pt[0], 1e-9)
	require.InDelta(t, 30.25, pt[1], 1e-9)
	require.Equal(t, 18.0, pt[2])
}

func TestEpsgConvertFromTable(t *testing.T) {
	dir := t.TempDir()
	table := "<32650> +proj=utm +zone=50 +datum=WGS84 +units=m +no_defs <>\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, EpsgDefinitionsFile), []byte(table), 0666))
	cc := NewProj4CoordinateConverter(dir)
	defer cc.Cleanup()

	// false easting on the equator is the central meridian of zone 50
	pt := []float64{500000, 0}
	require.NoError(t, cc.EpsgConvert(32650, pt))
	require.InDelta(t, 117, pt[0], 1e-9)
	require.InDelta(t, 0, pt[1], 1e-9)
}

func TestWktConvertProjString(t *testing.T) {
	cc := newTestConverter(t)
	pt := []float64{500000, 0, 4}
	require.NoError(t, cc.WktConvert("+proj=utm +zone=50 +datum=WGS84 +units=m +no_defs", pt))
	require.InDelta(t, 117, pt[0], 1e-9)
	require.InDelta(t, 0, pt[1], 1e-9)
	require.Equal(t, 4.0, pt[2])
}

func TestConvertErrors(t *testing.T) {
	cc := newTestConverter(t)
	require.ErrorIs(t, cc.EpsgConvert(4326, []float64{1}), ErrShortPoint)
	require.ErrorIs(t, cc.WktConvert(`LOCAL_CS["unknown"]`, []float64{1, 2}), ErrUnknownWkt)
}
