package raster

// #include <stdlib.h>
// #include "gdal.h"
// #include "gdal_alg.h"
// #include "ogr_api.h"
// #include "ogr_srs_api.h"
// #include "cpl_string.h"
// #cgo pkg-config: gdal
import "C"

import (
	"fmt"
	"unsafe"
)

const maskBurnValue = 255

// projectGeometries builds OGR geometries from GeoJSON held in the
// srcWKT reference system and transforms them into dstWKT. The caller
// owns the returned geometries.
func projectGeometries(geomsJSON []string, srcWKT, dstWKT string) ([]C.OGRGeometryH, error) {
	cSrcWKT := C.CString(srcWKT)
	defer C.free(unsafe.Pointer(cSrcWKT))
	srcSRS := C.OSRNewSpatialReference(cSrcWKT)
	if srcSRS == nil {
		return nil, fmt.Errorf("invalid AOI spatial reference: %v", lastGDALError())
	}
	defer C.OSRDestroySpatialReference(srcSRS)
	C.OSRSetAxisMappingStrategy(srcSRS, C.OAMS_TRADITIONAL_GIS_ORDER)

	cDstWKT := C.CString(dstWKT)
	defer C.free(unsafe.Pointer(cDstWKT))
	dstSRS := C.OSRNewSpatialReference(cDstWKT)
	if dstSRS == nil {
		return nil, fmt.Errorf("invalid raster spatial reference: %v", lastGDALError())
	}
	defer C.OSRDestroySpatialReference(dstSRS)
	C.OSRSetAxisMappingStrategy(dstSRS, C.OAMS_TRADITIONAL_GIS_ORDER)

	var trans C.OGRCoordinateTransformationH
	if C.OSRIsSame(srcSRS, dstSRS) == 0 {
		trans = C.OCTNewCoordinateTransformation(srcSRS, dstSRS)
		if trans == nil {
			return nil, fmt.Errorf("cannot transform AOI to raster CRS: %v", lastGDALError())
		}
		defer C.OCTDestroyCoordinateTransformation(trans)
	}

	geoms := make([]C.OGRGeometryH, 0, len(geomsJSON))
	for i, geomJSON := range geomsJSON {
		cGeom := C.CString(geomJSON)
		geom := C.OGR_G_CreateGeometryFromJson(cGeom)
		C.free(unsafe.Pointer(cGeom))
		if geom == nil {
			destroyGeometries(geoms)
			return nil, fmt.Errorf("AOI geometry %d could not be parsed", i)
		}

		if trans != nil && C.OGR_G_Transform(geom, trans) != C.OGRERR_NONE {
			C.OGR_G_DestroyGeometry(geom)
			destroyGeometries(geoms)
			return nil, fmt.Errorf("failed to transform AOI geometry %d: %v", i, lastGDALError())
		}
		geoms = append(geoms, geom)
	}
	return geoms, nil
}

func destroyGeometries(geoms []C.OGRGeometryH) {
	for _, g := range geoms {
		C.OGR_G_DestroyGeometry(g)
	}
}

func geometriesEnvelope(geoms []C.OGRGeometryH) envelope {
	var env envelope
	for i, g := range geoms {
		var ogrEnv C.OGREnvelope
		C.OGR_G_GetEnvelope(g, &ogrEnv)
		e := envelope{float64(ogrEnv.MinX), float64(ogrEnv.MinY), float64(ogrEnv.MaxX), float64(ogrEnv.MaxY)}
		if i == 0 {
			env = e
		} else {
			env = env.union(e)
		}
	}
	return env
}

// createMask rasterises geoms over a window-sized Byte grid. Pixels
// covered by the geometries hold maskBurnValue, the rest 0.
func createMask(geoms []C.OGRGeometryH, projWKT string, geot [6]float64, w CropWindow, allTouched bool) ([]uint8, error) {
	memDriverName := C.CString("MEM")
	defer C.free(unsafe.Pointer(memDriverName))
	hDriver := C.GDALGetDriverByName(memDriverName)
	if hDriver == nil {
		return nil, fmt.Errorf("Couldn't find the MEM driver")
	}

	emptyName := C.CString("")
	defer C.free(unsafe.Pointer(emptyName))
	hDstDS := C.GDALCreate(hDriver, emptyName, C.int(w.CountX), C.int(w.CountY), 1, C.GDT_Byte, nil)
	if hDstDS == nil {
		return nil, fmt.Errorf("Couldn't create memory driver")
	}
	defer C.GDALClose(hDstDS)

	cProjWKT := C.CString(projWKT)
	defer C.free(unsafe.Pointer(cProjWKT))
	if gdalErr := C.GDALSetProjection(hDstDS, cProjWKT); gdalErr != C.CE_None {
		return nil, fmt.Errorf("Couldn't set a projection in the mem raster %v", gdalErr)
	}

	maskGeot := windowGeoTransform(geot, w)
	if gdalErr := C.GDALSetGeoTransform(hDstDS, (*C.double)(&maskGeot[0])); gdalErr != C.CE_None {
		return nil, fmt.Errorf("Couldn't set the geotransform on the mem raster %v", gdalErr)
	}

	var opts **C.char
	if allTouched {
		opts = cStringList([]string{"ALL_TOUCHED=TRUE"})
		defer C.CSLDestroy(opts)
	}

	geomBurnValues := make([]C.double, len(geoms))
	for i := range geomBurnValues {
		geomBurnValues[i] = C.double(maskBurnValue)
	}
	panBandList := []C.int{C.int(1)}

	// geoms only holds C pointers
	if gdalErr := C.GDALRasterizeGeometries(hDstDS, 1, &panBandList[0], C.int(len(geoms)), &geoms[0], nil, nil, &geomBurnValues[0], opts, nil, nil); gdalErr != C.CE_None {
		return nil, fmt.Errorf("GDALRasterizeGeometries error: %v", lastGDALError())
	}

	mask := make([]uint8, w.CountX*w.CountY)
	hBand := C.GDALGetRasterBand(hDstDS, 1)
	if gdalErr := C.GDALRasterIO(hBand, C.GF_Read, 0, 0, C.int(w.CountX), C.int(w.CountY), unsafe.Pointer(&mask[0]), C.int(w.CountX), C.int(w.CountY), C.GDT_Byte, 0, 0); gdalErr != C.CE_None {
		return nil, fmt.Errorf("failed to read rasterised mask: %v", lastGDALError())
	}
	return mask, nil
}
