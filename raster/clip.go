package raster

// #include <stdlib.h>
// #include "gdal.h"
// #include "ogr_api.h"
// #cgo pkg-config: gdal
import "C"

import (
	"fmt"
	"unsafe"

	"github.com/nci/aoiclip/aoi"
)

// Clip masks and crops the raster at src to a, then writes the result
// to dst as a GeoTIFF with the source bands, data type, CRS and nodata.
// a is transformed into the raster CRS on a private copy.
//
// Pixels of the crop window outside the AOI take the nodata value of
// the first band, or 0 when the source defines none.
func Clip(src string, a *aoi.AOI, dst string, opts ClipOptions) (*ClipResult, error) {
	geomsJSON, err := a.GeometryJSON()
	if err != nil {
		return nil, err
	}
	if len(geomsJSON) == 0 {
		return nil, aoi.ErrNoGeometry
	}

	srcC := C.CString(src)
	defer C.free(unsafe.Pointer(srcC))
	hSrcDS := C.GDALOpenEx(srcC, C.GDAL_OF_RASTER|C.GDAL_OF_READONLY|C.GDAL_OF_VERBOSE_ERROR, nil, nil, nil)
	if hSrcDS == nil {
		return nil, fmt.Errorf("Failed to open existing dataset: %v: %v", src, lastGDALError())
	}
	defer C.GDALClose(hSrcDS)

	nBands := int(C.GDALGetRasterCount(hSrcDS))
	if nBands == 0 {
		return nil, fmt.Errorf("%s has no raster bands", src)
	}
	xSize := int(C.GDALGetRasterXSize(hSrcDS))
	ySize := int(C.GDALGetRasterYSize(hSrcDS))

	projWKT := C.GoString(C.GDALGetProjectionRef(hSrcDS))
	if len(projWKT) == 0 {
		return nil, fmt.Errorf("%s: %w", src, ErrNoCRS)
	}

	var geot [6]float64
	if C.GDALGetGeoTransform(hSrcDS, (*C.double)(&geot[0])) != C.CE_None {
		return nil, fmt.Errorf("%s has no geotransform", src)
	}
	var invGeot [6]float64
	if C.GDALInvGeoTransform((*C.double)(&geot[0]), (*C.double)(&invGeot[0])) == 0 {
		return nil, fmt.Errorf("%s has a non invertible geotransform %v", src, geot)
	}

	geoms, err := projectGeometries(geomsJSON, a.WKT, projWKT)
	if err != nil {
		return nil, fmt.Errorf("%s: %v", src, err)
	}
	defer destroyGeometries(geoms)

	win, err := cropWindow(invGeot, geometriesEnvelope(geoms), xSize, ySize)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", src, err)
	}

	mask, err := createMask(geoms, projWKT, geot, win, opts.AllTouched)
	if err != nil {
		return nil, fmt.Errorf("%s: %v", src, err)
	}

	// one nodata value for the whole dataset, taken from band 1
	hBand1 := C.GDALGetRasterBand(hSrcDS, 1)
	dType := C.GDALGetRasterDataType(hBand1)
	dSize := int(C.GDALGetDataTypeSizeBytes(dType))
	if dSize == 0 {
		return nil, fmt.Errorf("GDAL data type not implemented")
	}

	var hasNoData C.int
	noDataVal := float64(C.GDALGetRasterNoDataValue(hBand1, &hasNoData))
	var noData *float64
	fillVal := 0.0
	if hasNoData != 0 {
		noData = &noDataVal
		fillVal = noDataVal
	}

	fill := make([]byte, dSize)
	cFill := C.double(fillVal)
	C.GDALCopyWords(unsafe.Pointer(&cFill), C.GDT_Float64, 0, unsafe.Pointer(&fill[0]), dType, 0, 1)

	grid := &Grid{
		Width:        win.CountX,
		Height:       win.CountY,
		Type:         dataTypeName(dType),
		ProjWKT:      projWKT,
		GeoTransform: windowGeoTransform(geot, win),
		NoData:       noData,
	}
	res := &ClipResult{
		Input:        src,
		Output:       dst,
		Window:       win,
		Width:        win.CountX,
		Height:       win.CountY,
		Bands:        nBands,
		Type:         grid.Type,
		GeoTransform: grid.GeoTransform,
		NoData:       noData,
	}

	for i := range mask {
		if mask[i] != maskBurnValue {
			res.MaskedPixels++
		}
	}

	bandSize := win.CountX * win.CountY * dSize
	for iBand := 1; iBand <= nBands; iBand++ {
		hBand := C.GDALGetRasterBand(hSrcDS, C.int(iBand))
		if bandType := C.GDALGetRasterDataType(hBand); bandType != dType {
			return nil, fmt.Errorf("%s: band %d is %s, mixed data types are not supported", src, iBand, dataTypeName(bandType))
		}

		buf := make([]byte, bandSize)
		gerr := C.GDALRasterIO(hBand, C.GF_Read, C.int(win.OffX), C.int(win.OffY), C.int(win.CountX), C.int(win.CountY), unsafe.Pointer(&buf[0]), C.int(win.CountX), C.int(win.CountY), dType, 0, 0)
		if gerr != C.CE_None {
			return nil, fmt.Errorf("%s: failed to read band %d: %v", src, iBand, lastGDALError())
		}
		res.BytesRead += int64(bandSize)

		for i, m := range mask {
			if m != maskBurnValue {
				copy(buf[i*dSize:(i+1)*dSize], fill)
			}
		}
		grid.Bands = append(grid.Bands, buf)
	}

	n, err := WriteGTiff(dst, grid, opts.CreationOptions)
	if err != nil {
		return nil, err
	}
	res.BytesWritten = n
	return res, nil
}
