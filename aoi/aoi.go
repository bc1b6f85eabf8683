package aoi

// #include <stdlib.h>
// #include "gdal.h"
// #include "ogr_api.h"
// #include "ogr_srs_api.h"
// #include "cpl_conv.h"
// #include "cpl_error.h"
// #cgo pkg-config: gdal
import "C"

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"unsafe"

	geo "github.com/nci/geometry"
)

// ErrNoGeometry is returned when an AOI file holds no usable polygon.
var ErrNoGeometry = errors.New("AOI contains no polygon geometry")

// AOI is a polygon boundary held in a single CRS. The features are
// never modified after Load; consumers reproject their own copies.
type AOI struct {
	Path     string
	CRS      string
	WKT      string
	Features []*geo.Feature

	area float64
}

type featureCollection struct {
	Type     string         `json:"type"`
	Features []*geo.Feature `json:"features"`
}

// Load reads the polygon features of an OGR vector file and transforms
// them into crs, any string OSRSetFromUserInput understands such as
// "EPSG:4326". An empty layer name selects the first layer.
func Load(path, layer, crs string) (*AOI, error) {
	cPath := C.CString(path)
	defer C.free(unsafe.Pointer(cPath))

	hDS := C.GDALOpenEx(cPath, C.GDAL_OF_VECTOR|C.GDAL_OF_READONLY|C.GDAL_OF_VERBOSE_ERROR, nil, nil, nil)
	if hDS == nil {
		return nil, fmt.Errorf("could not open AOI file %s: %v", path, lastGDALError())
	}
	defer C.GDALClose(hDS)

	var hLayer C.OGRLayerH
	if len(layer) == 0 {
		if C.GDALDatasetGetLayerCount(hDS) == 0 {
			return nil, fmt.Errorf("%s: %w", path, ErrNoGeometry)
		}
		hLayer = C.GDALDatasetGetLayer(hDS, 0)
	} else {
		cLayer := C.CString(layer)
		hLayer = C.GDALDatasetGetLayerByName(hDS, cLayer)
		C.free(unsafe.Pointer(cLayer))
	}
	if hLayer == nil {
		return nil, fmt.Errorf("AOI file %s has no layer %q", path, layer)
	}

	layerSRS := C.OGR_L_GetSpatialRef(hLayer)
	if layerSRS == nil {
		return nil, fmt.Errorf("AOI file %s has no spatial reference", path)
	}
	srcSRS := C.OSRClone(layerSRS)
	defer C.OSRDestroySpatialReference(srcSRS)
	C.OSRSetAxisMappingStrategy(srcSRS, C.OAMS_TRADITIONAL_GIS_ORDER)

	dstSRS := C.OSRNewSpatialReference(nil)
	defer C.OSRDestroySpatialReference(dstSRS)
	cCRS := C.CString(crs)
	defer C.free(unsafe.Pointer(cCRS))
	if C.OSRSetFromUserInput(dstSRS, cCRS) != C.OGRERR_NONE {
		return nil, fmt.Errorf("unknown AOI CRS %q: %v", crs, lastGDALError())
	}
	C.OSRSetAxisMappingStrategy(dstSRS, C.OAMS_TRADITIONAL_GIS_ORDER)

	trans := C.OCTNewCoordinateTransformation(srcSRS, dstSRS)
	if trans == nil {
		return nil, fmt.Errorf("cannot transform AOI %s to %s: %v", path, crs, lastGDALError())
	}
	defer C.OCTDestroyCoordinateTransformation(trans)

	var cWKT *C.char
	C.OSRExportToWkt(dstSRS, &cWKT)
	aoi := &AOI{Path: path, CRS: crs, WKT: C.GoString(cWKT)}
	C.VSIFree(unsafe.Pointer(cWKT))

	C.OGR_L_ResetReading(hLayer)
	for {
		hFeat := C.OGR_L_GetNextFeature(hLayer)
		if hFeat == nil {
			break
		}

		fid := int64(C.OGR_F_GetFID(hFeat))
		hGeom := C.OGR_F_GetGeometryRef(hFeat)
		if hGeom == nil || C.OGR_G_IsEmpty(hGeom) != 0 {
			C.OGR_F_Destroy(hFeat)
			continue
		}

		gType := C.OGR_GT_Flatten(C.OGR_G_GetGeometryType(hGeom))
		if gType != C.wkbPolygon && gType != C.wkbMultiPolygon {
			name := C.GoString(C.OGR_G_GetGeometryName(hGeom))
			C.OGR_F_Destroy(hFeat)
			return nil, fmt.Errorf("AOI feature %d in %s is a %s, only polygons are supported", fid, path, name)
		}

		hClone := C.OGR_G_Clone(hGeom)
		C.OGR_F_Destroy(hFeat)

		if C.OGR_G_Transform(hClone, trans) != C.OGRERR_NONE {
			C.OGR_G_DestroyGeometry(hClone)
			return nil, fmt.Errorf("failed to transform AOI feature %d to %s: %v", fid, crs, lastGDALError())
		}

		aoi.area += float64(C.OGR_G_Area(hClone))
		cJSON := C.OGR_G_ExportToJson(hClone)
		geomJSON := C.GoString(cJSON)
		C.VSIFree(unsafe.Pointer(cJSON))
		C.OGR_G_DestroyGeometry(hClone)

		feat, err := newFeature(geomJSON)
		if err != nil {
			return nil, fmt.Errorf("AOI feature %d in %s: %v", fid, path, err)
		}
		aoi.Features = append(aoi.Features, feat)
	}

	if len(aoi.Features) == 0 {
		return nil, fmt.Errorf("%s: %w", path, ErrNoGeometry)
	}

	return aoi, nil
}

func newFeature(geomJSON string) (*geo.Feature, error) {
	var feat geo.Feature
	err := json.Unmarshal([]byte(fmt.Sprintf(`{"type":"Feature","geometry":%s}`, geomJSON)), &feat)
	if err != nil {
		return nil, fmt.Errorf("problem unmarshalling geometry: %v", err)
	}

	switch feat.Geometry.(type) {
	case *geo.Polygon, *geo.MultiPolygon:
	default:
		return nil, fmt.Errorf("geometry not supported, only Polygon or MultiPolygon: %s", geomJSON)
	}
	return &feat, nil
}

// Area is the summed planar area of the features in CRS units.
func (a *AOI) Area() float64 {
	return a.area
}

// GeometryJSON returns the GeoJSON geometry of every feature.
func (a *AOI) GeometryJSON() ([]string, error) {
	out := make([]string, 0, len(a.Features))
	for i, feat := range a.Features {
		geomJSON, err := json.Marshal(feat.Geometry)
		if err != nil {
			return nil, fmt.Errorf("problem marshaling GeoJSON geometry %d: %v", i, err)
		}
		out = append(out, string(geomJSON))
	}
	return out, nil
}

// WriteGeoJSON writes the AOI as a GeoJSON FeatureCollection.
func (a *AOI) WriteGeoJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return enc.Encode(&featureCollection{Type: "FeatureCollection", Features: a.Features})
}

// LogSummary prints one line describing the loaded AOI.
func (a *AOI) LogSummary() {
	log.Printf("AOI %s: %d feature(s), CRS %s, area %.6f", a.Path, len(a.Features), a.CRS, a.area)
}

func lastGDALError() string {
	msg := C.GoString(C.CPLGetLastErrorMsg())
	if len(msg) == 0 {
		return "unknown GDAL error"
	}
	return msg
}
