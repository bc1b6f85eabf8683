package raster

import (
	"math"
	"path/filepath"
	"strings"
)

// pixelEpsilon absorbs round-off when world bounds land on a pixel edge.
const pixelEpsilon = 1e-6

type envelope struct {
	MinX, MinY, MaxX, MaxY float64
}

func (e envelope) union(o envelope) envelope {
	return envelope{
		MinX: math.Min(e.MinX, o.MinX),
		MinY: math.Min(e.MinY, o.MinY),
		MaxX: math.Max(e.MaxX, o.MaxX),
		MaxY: math.Max(e.MaxY, o.MaxY),
	}
}

func applyGeoTransform(geot [6]float64, x, y float64) (float64, float64) {
	return geot[0] + x*geot[1] + y*geot[2], geot[3] + x*geot[4] + y*geot[5]
}

// cropWindow maps a world envelope to the pixel window covering it,
// offsets floored and far edges ceiled, clamped to the raster. invGeot
// is the inverse of the raster geotransform.
func cropWindow(invGeot [6]float64, env envelope, xSize, ySize int) (CropWindow, error) {
	minCol, minRow := math.Inf(1), math.Inf(1)
	maxCol, maxRow := math.Inf(-1), math.Inf(-1)
	for _, corner := range [][2]float64{
		{env.MinX, env.MinY}, {env.MinX, env.MaxY},
		{env.MaxX, env.MinY}, {env.MaxX, env.MaxY},
	} {
		col, row := applyGeoTransform(invGeot, corner[0], corner[1])
		minCol = math.Min(minCol, col)
		maxCol = math.Max(maxCol, col)
		minRow = math.Min(minRow, row)
		maxRow = math.Max(maxRow, row)
	}

	if math.IsNaN(minCol) || math.IsNaN(minRow) || math.IsInf(minCol, 0) || math.IsInf(maxRow, 0) {
		return CropWindow{}, ErrNoOverlap
	}

	offX := int(math.Max(math.Floor(minCol+pixelEpsilon), 0))
	offY := int(math.Max(math.Floor(minRow+pixelEpsilon), 0))
	endX := int(math.Min(math.Ceil(maxCol-pixelEpsilon), float64(xSize)))
	endY := int(math.Min(math.Ceil(maxRow-pixelEpsilon), float64(ySize)))

	if endX <= offX || endY <= offY {
		return CropWindow{}, ErrNoOverlap
	}
	return CropWindow{OffX: offX, OffY: offY, CountX: endX - offX, CountY: endY - offY}, nil
}

// windowGeoTransform shifts a geotransform origin to the window's
// upper left pixel.
func windowGeoTransform(geot [6]float64, w CropWindow) [6]float64 {
	ulX, ulY := applyGeoTransform(geot, float64(w.OffX), float64(w.OffY))
	return [6]float64{ulX, geot[1], geot[2], ulY, geot[4], geot[5]}
}

// OutputName derives the clipped file name from a source path:
// "A_LSWI_WS1.tif" becomes "A_LSWI_WS1_clipped.tif" for the suffix
// "_clipped".
func OutputName(src, suffix string) string {
	base := filepath.Base(src)
	ext := filepath.Ext(base)
	return strings.TrimSuffix(base, ext) + suffix + ext
}
