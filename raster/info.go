package raster

// #include <stdlib.h>
// #include <string.h>
// #include "gdal.h"
// #include "ogr_srs_api.h" /* for SRS calls */
// #include "cpl_conv.h"
// #cgo pkg-config: gdal
//char *getProj4(const char *projWKT)
//{
//	char *pszProj4 = NULL;
//	char *result;
//	OGRSpatialReferenceH hSRS;
//
//	hSRS = OSRNewSpatialReference(projWKT);
//	if(hSRS == NULL) {
//		return NULL;
//	}
//	if(OSRExportToProj4(hSRS, &pszProj4) != OGRERR_NONE) {
//		CPLFree(pszProj4);
//		OSRDestroySpatialReference(hSRS);
//		return NULL;
//	}
//	result = strdup(pszProj4);
//
//	OSRDestroySpatialReference(hSRS);
//	CPLFree(pszProj4);
//
//	return result;
//}
import "C"

import (
	"fmt"
	"math"
	"unsafe"
)

// ExtractInfo reads the metadata of the raster at path. With stats
// set every band is read in full to compute min, max, mean and the
// count of valid (non nodata) samples.
func ExtractInfo(path string, stats bool) (*Info, error) {
	cPath := C.CString(path)
	defer C.free(unsafe.Pointer(cPath))
	hDataset := C.GDALOpenEx(cPath, C.GDAL_OF_RASTER|C.GDAL_OF_READONLY, nil, nil, nil)
	if hDataset == nil {
		return nil, fmt.Errorf("%v", lastGDALError())
	}
	defer C.GDALClose(hDataset)

	hDriver := C.GDALGetDatasetDriver(hDataset)
	info := &Info{
		FileName:    path,
		Driver:      C.GoString(C.GDALGetDriverShortName(hDriver)),
		RasterCount: int(C.GDALGetRasterCount(hDataset)),
		XSize:       int(C.GDALGetRasterXSize(hDataset)),
		YSize:       int(C.GDALGetRasterYSize(hDataset)),
		ProjWKT:     C.GoString(C.GDALGetProjectionRef(hDataset)),
	}

	C.GDALGetGeoTransform(hDataset, (*C.double)(&info.GeoTransform[0]))
	info.Polygon = getGeometryWKT(info.GeoTransform, info.XSize, info.YSize)

	if len(info.ProjWKT) > 0 {
		cProjWKT := C.CString(info.ProjWKT)
		cProj4 := C.getProj4(cProjWKT)
		C.free(unsafe.Pointer(cProjWKT))
		if cProj4 != nil {
			info.Proj4 = C.GoString(cProj4)
			C.free(unsafe.Pointer(cProj4))
		}
	}

	if info.RasterCount == 0 {
		return info, nil
	}

	hBand := C.GDALGetRasterBand(hDataset, 1)
	info.Type = dataTypeName(C.GDALGetRasterDataType(hBand))

	var hasNoData C.int
	noData := float64(C.GDALGetRasterNoDataValue(hBand, &hasNoData))
	if hasNoData != 0 {
		info.NoData = &noData
	}

	if !stats {
		return info, nil
	}

	for iBand := 1; iBand <= info.RasterCount; iBand++ {
		data, err := readBand(hDataset, iBand, info.XSize, info.YSize)
		if err != nil {
			return nil, fmt.Errorf("%s: %v", path, err)
		}

		min, max, sum, count := math.Inf(1), math.Inf(-1), 0.0, 0
		for _, v := range data {
			if info.NoData != nil && (v == *info.NoData || (math.IsNaN(*info.NoData) && math.IsNaN(v))) {
				continue
			}
			if math.IsNaN(v) {
				continue
			}
			min = math.Min(min, v)
			max = math.Max(max, v)
			sum += v
			count++
		}

		mean := 0.0
		if count > 0 {
			mean = sum / float64(count)
		} else {
			min, max = 0, 0
		}
		info.Mins = append(info.Mins, min)
		info.Maxs = append(info.Maxs, max)
		info.Means = append(info.Means, mean)
		info.SampleCounts = append(info.SampleCounts, count)
	}

	return info, nil
}

// ReadBandFloat64 returns band (1 based) of the raster at path as
// float64 samples in row major order.
func ReadBandFloat64(path string, band int) ([]float64, error) {
	cPath := C.CString(path)
	defer C.free(unsafe.Pointer(cPath))
	hDataset := C.GDALOpenEx(cPath, C.GDAL_OF_RASTER|C.GDAL_OF_READONLY, nil, nil, nil)
	if hDataset == nil {
		return nil, fmt.Errorf("%v", lastGDALError())
	}
	defer C.GDALClose(hDataset)

	if band < 1 || band > int(C.GDALGetRasterCount(hDataset)) {
		return nil, fmt.Errorf("%s has no band %d", path, band)
	}
	return readBand(hDataset, band, int(C.GDALGetRasterXSize(hDataset)), int(C.GDALGetRasterYSize(hDataset)))
}

func readBand(hDataset C.GDALDatasetH, band, xSize, ySize int) ([]float64, error) {
	hBand := C.GDALGetRasterBand(hDataset, C.int(band))
	data := make([]float64, xSize*ySize)
	if len(data) == 0 {
		return data, nil
	}
	gerr := C.GDALRasterIO(hBand, C.GF_Read, 0, 0, C.int(xSize), C.int(ySize), unsafe.Pointer(&data[0]), C.int(xSize), C.int(ySize), C.GDT_Float64, 0, 0)
	if gerr != C.CE_None {
		return nil, fmt.Errorf("failed to read band %d: %v", band, lastGDALError())
	}
	return data, nil
}

func getGeometryWKT(geot [6]float64, xSize, ySize int) string {
	ulX, ulY := applyGeoTransform(geot, 0, 0)
	lrX, lrY := applyGeoTransform(geot, float64(xSize), float64(ySize))
	return fmt.Sprintf("POLYGON ((%f %f,%f %f,%f %f,%f %f,%f %f))", ulX, ulY, ulX, lrY, lrX, lrY, lrX, ulY, ulX, ulY)
}
