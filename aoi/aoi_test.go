package aoi

import (
	"bytes"
	"encoding/json"
	"errors"
	"io/ioutil"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/nci/aoiclip/utils"
)

func TestMain(m *testing.M) {
	utils.InitGdal()
	os.Exit(m.Run())
}

type polygonJSON struct {
	Type        string          `json:"type"`
	Coordinates json.RawMessage `json:"coordinates"`
}

func writeGeoJSON(t *testing.T, content string) string {
	path := filepath.Join(t.TempDir(), "aoi.geojson")
	if err := ioutil.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write AOI fixture: %v", err)
	}
	return path
}

// bounds returns minX, minY, maxX, maxY over the outer rings of a
// Polygon geometry.
func bounds(t *testing.T, geomJSON string) [4]float64 {
	var g polygonJSON
	if err := json.Unmarshal([]byte(geomJSON), &g); err != nil {
		t.Fatalf("invalid geometry json %s: %v", geomJSON, err)
	}
	if g.Type != "Polygon" {
		t.Fatalf("expected Polygon, got %s", g.Type)
	}
	var rings [][][]float64
	if err := json.Unmarshal(g.Coordinates, &rings); err != nil {
		t.Fatalf("invalid polygon coordinates %s: %v", g.Coordinates, err)
	}

	b := [4]float64{math.Inf(1), math.Inf(1), math.Inf(-1), math.Inf(-1)}
	for _, pt := range rings[0] {
		b[0] = math.Min(b[0], pt[0])
		b[1] = math.Min(b[1], pt[1])
		b[2] = math.Max(b[2], pt[0])
		b[3] = math.Max(b[3], pt[1])
	}
	return b
}

const squareWGS84 = `{"type":"FeatureCollection","features":[
{"type":"Feature","properties":{"City":"Barrackpore"},"geometry":{"type":"Polygon","coordinates":[[[88.0,22.0],[89.0,22.0],[89.0,23.0],[88.0,23.0],[88.0,22.0]]]}}
]}`

func TestLoadGeographic(t *testing.T) {
	a, err := Load(writeGeoJSON(t, squareWGS84), "", "EPSG:4326")
	if err != nil {
		t.Fatalf("failed to load AOI: %v", err)
	}

	if len(a.Features) != 1 {
		t.Fatalf("expected 1 feature, got %d", len(a.Features))
	}
	if a.WKT == "" {
		t.Errorf("AOI WKT is empty")
	}
	if math.Abs(a.Area()-1.0) > 1e-9 {
		t.Errorf("unexpected area: %v", a.Area())
	}

	geoms, err := a.GeometryJSON()
	if err != nil {
		t.Fatalf("GeometryJSON failed: %v", err)
	}
	b := bounds(t, geoms[0])
	expected := [4]float64{88, 22, 89, 23}
	for i := range b {
		if math.Abs(b[i]-expected[i]) > 1e-9 {
			t.Errorf("unexpected bounds: expected %v, actual %v", expected, b)
			break
		}
	}
}

func TestLoadReprojects(t *testing.T) {
	utm := `{"type":"FeatureCollection",
"crs":{"type":"name","properties":{"name":"urn:ogc:def:crs:EPSG::32645"}},
"features":[
{"type":"Feature","properties":{},"geometry":{"type":"Polygon","coordinates":[[[490000,2507000],[510000,2507000],[510000,2527000],[490000,2527000],[490000,2507000]]]}}
]}`

	a, err := Load(writeGeoJSON(t, utm), "", "EPSG:4326")
	if err != nil {
		t.Fatalf("failed to load AOI: %v", err)
	}

	geoms, err := a.GeometryJSON()
	if err != nil {
		t.Fatalf("GeometryJSON failed: %v", err)
	}

	// UTM 45N central meridian is 87E, the box sits around 22.75N
	b := bounds(t, geoms[0])
	if b[0] < 86.8 || b[2] > 87.2 || b[1] < 22.5 || b[3] > 23.0 {
		t.Errorf("AOI not transformed to lon/lat order: %v", b)
	}
	if b[0] >= b[2] || b[1] >= b[3] {
		t.Errorf("degenerate AOI bounds: %v", b)
	}
}

func TestLoadMultiPolygonSkipsNull(t *testing.T) {
	content := `{"type":"FeatureCollection","features":[
{"type":"Feature","properties":{},"geometry":null},
{"type":"Feature","properties":{},"geometry":{"type":"MultiPolygon","coordinates":[
 [[[0,0],[1,0],[1,1],[0,1],[0,0]]],
 [[[2,2],[3,2],[3,3],[2,3],[2,2]]]
]}}
]}`

	a, err := Load(writeGeoJSON(t, content), "", "EPSG:4326")
	if err != nil {
		t.Fatalf("failed to load AOI: %v", err)
	}
	if len(a.Features) != 1 {
		t.Errorf("null geometry not skipped: %d features", len(a.Features))
	}
	if math.Abs(a.Area()-2.0) > 1e-9 {
		t.Errorf("unexpected area: %v", a.Area())
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.shp"), "", "EPSG:4326"); err == nil {
		t.Errorf("missing AOI file does not return an error")
	}

	empty := writeGeoJSON(t, `{"type":"FeatureCollection","features":[]}`)
	if _, err := Load(empty, "", "EPSG:4326"); !errors.Is(err, ErrNoGeometry) {
		t.Errorf("expected ErrNoGeometry for empty AOI, got %v", err)
	}

	point := writeGeoJSON(t, `{"type":"FeatureCollection","features":[
{"type":"Feature","properties":{},"geometry":{"type":"Point","coordinates":[88.4,22.7]}}]}`)
	if _, err := Load(point, "", "EPSG:4326"); err == nil {
		t.Errorf("point AOI does not return an error")
	}

	square := writeGeoJSON(t, squareWGS84)
	if _, err := Load(square, "", "EPSG:not-a-code"); err == nil {
		t.Errorf("invalid CRS does not return an error")
	}
	if _, err := Load(square, "no_such_layer", "EPSG:4326"); err == nil {
		t.Errorf("missing layer does not return an error")
	}
}

func TestWriteGeoJSON(t *testing.T) {
	a, err := Load(writeGeoJSON(t, squareWGS84), "", "EPSG:4326")
	if err != nil {
		t.Fatalf("failed to load AOI: %v", err)
	}

	var buf bytes.Buffer
	if err := a.WriteGeoJSON(&buf); err != nil {
		t.Fatalf("WriteGeoJSON failed: %v", err)
	}

	var fc struct {
		Type     string `json:"type"`
		Features []struct {
			Geometry polygonJSON `json:"geometry"`
		} `json:"features"`
	}
	if err := json.Unmarshal(buf.Bytes(), &fc); err != nil {
		t.Fatalf("output is not valid json: %v\n%s", err, buf.String())
	}
	if fc.Type != "FeatureCollection" || len(fc.Features) != 1 || fc.Features[0].Geometry.Type != "Polygon" {
		t.Errorf("unexpected GeoJSON output: %s", buf.String())
	}
}
