package raster

import (
	"errors"
	"math"
	"testing"
)

// 10x10 pixels of 0.1 degree covering lon 88..89, lat 22..23
var testGeot = [6]float64{88, 0.1, 0, 23, 0, -0.1}
var testInvGeot = [6]float64{-880, 10, 0, 230, 0, -10}

func TestCropWindow(t *testing.T) {
	cases := []struct {
		name     string
		env      envelope
		expected CropWindow
	}{
		{"aligned", envelope{88.2, 22.6, 88.5, 22.8}, CropWindow{2, 2, 3, 2}},
		{"sub pixel", envelope{88.31, 22.61, 88.34, 22.64}, CropWindow{3, 3, 1, 1}},
		{"straddling", envelope{88.25, 22.55, 88.45, 22.75}, CropWindow{2, 2, 3, 3}},
		{"covers raster", envelope{87, 21, 90, 24}, CropWindow{0, 0, 10, 10}},
		{"partial overlap", envelope{88.85, 22.85, 89.5, 23.5}, CropWindow{8, 0, 2, 2}},
	}

	for _, c := range cases {
		w, err := cropWindow(testInvGeot, c.env, 10, 10)
		if err != nil {
			t.Errorf("%s: unexpected error %v", c.name, err)
			continue
		}
		if w != c.expected {
			t.Errorf("%s: expected %+v, actual %+v", c.name, c.expected, w)
		}
	}
}

func TestCropWindowNoOverlap(t *testing.T) {
	envs := []envelope{
		{10, 10, 11, 11},
		{89, 22, 90, 23},
		{88, 23, 89, 24},
		{math.NaN(), 22, 88.5, 22.5},
	}
	for _, env := range envs {
		if _, err := cropWindow(testInvGeot, env, 10, 10); !errors.Is(err, ErrNoOverlap) {
			t.Errorf("envelope %v: expected ErrNoOverlap, got %v", env, err)
		}
	}
}

func TestWindowGeoTransform(t *testing.T) {
	geot := windowGeoTransform(testGeot, CropWindow{OffX: 2, OffY: 3, CountX: 4, CountY: 5})
	expected := [6]float64{88.2, 0.1, 0, 22.7, 0, -0.1}
	for i := range geot {
		if math.Abs(geot[i]-expected[i]) > 1e-9 {
			t.Errorf("unexpected geotransform: expected %v, actual %v", expected, geot)
			break
		}
	}
}

func TestOutputName(t *testing.T) {
	cases := map[string]string{
		"A_LSWI_WS1.tif":                "A_LSWI_WS1_clipped.tif",
		"/data/maps/B_LSWI_WS2.tif":     "B_LSWI_WS2_clipped.tif",
		"S2.tif.LSWI_WS1.tif":           "S2.tif.LSWI_WS1_clipped.tif",
		"Barrackpore_LSWI_WS1_2023.TIF": "Barrackpore_LSWI_WS1_2023_clipped.TIF",
		"no_extension_LSWI_WS1":         "no_extension_LSWI_WS1_clipped",
	}
	for in, expected := range cases {
		if out := OutputName(in, "_clipped"); out != expected {
			t.Errorf("OutputName(%q): expected %q, actual %q", in, expected, out)
		}
	}
}
