package utils

// #include "gdal.h"
// #include "gdal_frmts.h"
// #cgo pkg-config: gdal
import "C"

import (
	"os"
	"path/filepath"
	"sync"
)

var gdalOnce sync.Once

// InitGdal sets the GDAL environment defaults used by the clipper and
// registers the drivers. It is safe to call more than once.
func InitGdal() {
	gdalOnce.Do(func() {
		setDefaultEnv("GDAL_PAM_ENABLED", "NO")
		setDefaultEnv("GDAL_DISABLE_READDIR_ON_OPEN", "EMPTY_DIR")
		setDefaultEnv("GDAL_MAX_DATASET_POOL_SIZE", "10")
		setDefaultEnv("SHAPE_RESTORE_SHX", "YES")

		exeFilePath, err := os.Executable()
		if err == nil {
			setDefaultEnv("GDAL_DRIVER_PATH", filepath.Dir(exeFilePath))
		}

		registerGDALDrivers()
	})
}

func setDefaultEnv(envVar string, defaultVal string) {
	if _, ok := os.LookupEnv(envVar); !ok {
		os.Setenv(envVar, defaultVal)
	}
}

func registerGDALDrivers() {
	// Drop every driver and put GTiff, when present, at the front of
	// the probe list.
	var haveGTiff bool

	C.GDALAllRegister()
	for i := 0; i < int(C.GDALGetDriverCount()); i++ {
		driver := C.GDALGetDriver(C.int(i))
		if C.GoString(C.GDALGetDriverShortName(driver)) == "GTiff" {
			haveGTiff = true
		}
	}

	for C.GDALGetDriverCount() > 0 {
		C.GDALDeregisterDriver(C.GDALGetDriver(0))
	}

	if haveGTiff {
		C.GDALRegister_GTiff()
	}

	// Now register everything else, OGR vector drivers included
	C.GDALAllRegister()
}
