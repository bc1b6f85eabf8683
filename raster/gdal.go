package raster

// #include <stdlib.h>
// #include "gdal.h"
// #include "ogr_srs_api.h"
// #include "cpl_conv.h"
// #include "cpl_error.h"
// #include "cpl_string.h"
// #cgo pkg-config: gdal
import "C"

import (
	"fmt"
	"unsafe"
)

func lastGDALError() string {
	msg := C.GoString(C.CPLGetLastErrorMsg())
	if len(msg) == 0 {
		return "unknown GDAL error"
	}
	return msg
}

// cStringList builds a NULL terminated GDAL string list. The caller
// frees it with CSLDestroy.
func cStringList(items []string) **C.char {
	var list **C.char
	for _, item := range items {
		cItem := C.CString(item)
		list = C.CSLAddString(list, cItem)
		C.free(unsafe.Pointer(cItem))
	}
	return list
}

func dataTypeName(dType C.GDALDataType) string {
	return C.GoString(C.GDALGetDataTypeName(dType))
}

func dataTypeByName(name string) (C.GDALDataType, int, error) {
	cName := C.CString(name)
	defer C.free(unsafe.Pointer(cName))
	dType := C.GDALGetDataTypeByName(cName)
	dSize := int(C.GDALGetDataTypeSizeBytes(dType))
	if dType == C.GDT_Unknown || dSize == 0 {
		return dType, 0, fmt.Errorf("GDAL data type not implemented: %s", name)
	}
	return dType, dSize, nil
}

// SRSWKT expands any definition OSRSetFromUserInput accepts, such as
// "EPSG:32645", into WKT.
func SRSWKT(srs string) (string, error) {
	cSRS := C.CString(srs)
	defer C.free(unsafe.Pointer(cSRS))

	hSRS := C.OSRNewSpatialReference(nil)
	defer C.OSRDestroySpatialReference(hSRS)
	if C.OSRSetFromUserInput(hSRS, cSRS) != C.OGRERR_NONE {
		return "", fmt.Errorf("unknown spatial reference %q: %v", srs, lastGDALError())
	}

	var projWKT *C.char
	if C.OSRExportToWkt(hSRS, &projWKT) != C.OGRERR_NONE {
		return "", fmt.Errorf("failed to export %q to WKT: %v", srs, lastGDALError())
	}
	defer C.VSIFree(unsafe.Pointer(projWKT))
	return C.GoString(projWKT), nil
}

// SameCRS reports whether two WKT strings describe the same spatial
// reference, ignoring formatting differences.
func SameCRS(wktA, wktB string) bool {
	if len(wktA) == 0 || len(wktB) == 0 {
		return len(wktA) == len(wktB)
	}

	cA := C.CString(wktA)
	defer C.free(unsafe.Pointer(cA))
	cB := C.CString(wktB)
	defer C.free(unsafe.Pointer(cB))

	hA := C.OSRNewSpatialReference(cA)
	if hA == nil {
		return false
	}
	defer C.OSRDestroySpatialReference(hA)
	hB := C.OSRNewSpatialReference(cB)
	if hB == nil {
		return false
	}
	defer C.OSRDestroySpatialReference(hB)

	return C.OSRIsSame(hA, hB) != 0
}
