package raster

// #include <stdlib.h>
// #include "gdal.h"
// #include "cpl_string.h"
// #cgo pkg-config: gdal
import "C"

import (
	"fmt"
	"os"
	"unsafe"
)

// WriteGTiff writes g to path, replacing any existing file, and
// returns the size of the written file. A failed write may leave a
// partial file behind.
func WriteGTiff(path string, g *Grid, creationOptions []string) (int64, error) {
	if g.Width <= 0 || g.Height <= 0 || len(g.Bands) == 0 {
		return 0, fmt.Errorf("Error validating raster: %dx%d with %d bands", g.Width, g.Height, len(g.Bands))
	}

	dType, dSize, err := dataTypeByName(g.Type)
	if err != nil {
		return 0, err
	}
	for i, band := range g.Bands {
		if len(band) != g.Width*g.Height*dSize {
			return 0, fmt.Errorf("band %d holds %d bytes, expected %d", i+1, len(band), g.Width*g.Height*dSize)
		}
	}

	driverNameC := C.CString("GTiff")
	defer C.free(unsafe.Pointer(driverNameC))
	hDriver := C.GDALGetDriverByName(driverNameC)
	if hDriver == nil {
		return 0, fmt.Errorf("GTiff driver is not available")
	}

	opts := cStringList(creationOptions)
	defer C.CSLDestroy(opts)

	pathC := C.CString(path)
	defer C.free(unsafe.Pointer(pathC))
	hDstDS := C.GDALCreate(hDriver, pathC, C.int(g.Width), C.int(g.Height), C.int(len(g.Bands)), dType, opts)
	if hDstDS == nil {
		return 0, fmt.Errorf("Error creating raster %s: %v", path, lastGDALError())
	}

	if len(g.ProjWKT) > 0 {
		projWKTC := C.CString(g.ProjWKT)
		gerr := C.GDALSetProjection(hDstDS, projWKTC)
		C.free(unsafe.Pointer(projWKTC))
		if gerr != C.CE_None {
			C.GDALClose(hDstDS)
			return 0, fmt.Errorf("Error setting projection on %s: %v", path, lastGDALError())
		}
	}

	geot := g.GeoTransform
	if gerr := C.GDALSetGeoTransform(hDstDS, (*C.double)(&geot[0])); gerr != C.CE_None {
		C.GDALClose(hDstDS)
		return 0, fmt.Errorf("Error setting geotransform on %s: %v", path, lastGDALError())
	}

	for i, band := range g.Bands {
		hBand := C.GDALGetRasterBand(hDstDS, C.int(i+1))
		if g.NoData != nil {
			C.GDALSetRasterNoDataValue(hBand, C.double(*g.NoData))
		}

		gerr := C.GDALRasterIO(hBand, C.GF_Write, 0, 0, C.int(g.Width), C.int(g.Height), unsafe.Pointer(&band[0]), C.int(g.Width), C.int(g.Height), dType, 0, 0)
		if gerr != C.CE_None {
			C.GDALClose(hDstDS)
			return 0, fmt.Errorf("Error writing raster band: %d: %v", i+1, lastGDALError())
		}
	}

	C.GDALClose(hDstDS)

	fStat, err := os.Stat(path)
	if err != nil {
		return 0, fmt.Errorf("Error opening raster file: %v", err)
	}
	return fStat.Size(), nil
}
