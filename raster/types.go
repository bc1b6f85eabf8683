package raster

import "errors"

var (
	// ErrNoOverlap is returned when the AOI and the raster extent are
	// disjoint.
	ErrNoOverlap = errors.New("input shapes do not overlap raster")

	// ErrNoCRS is returned for rasters without a spatial reference.
	ErrNoCRS = errors.New("raster has no coordinate reference system")
)

// ClipOptions tune the mask and the output file.
type ClipOptions struct {
	// AllTouched burns every pixel the AOI touches instead of the
	// pixels whose centre falls inside it.
	AllTouched bool

	// CreationOptions are passed to the GTiff driver, e.g. COMPRESS=LZW.
	CreationOptions []string
}

// CropWindow is a pixel window of the source raster.
type CropWindow struct {
	OffX, OffY     int
	CountX, CountY int
}

// ClipResult describes a written clip.
type ClipResult struct {
	Input        string     `json:"input"`
	Output       string     `json:"output"`
	Window       CropWindow `json:"window"`
	Width        int        `json:"width"`
	Height       int        `json:"height"`
	Bands        int        `json:"bands"`
	Type         string     `json:"array_type"`
	GeoTransform [6]float64 `json:"geotransform"`
	NoData       *float64   `json:"nodata,omitempty"`
	MaskedPixels int        `json:"masked_pixels"`
	BytesRead    int64      `json:"bytes_read"`
	BytesWritten int64      `json:"bytes_written"`
}

// Grid is a georeferenced pixel block held in memory. Each band holds
// Width*Height samples of Type in native byte order.
type Grid struct {
	Width, Height int
	Type          string
	Bands         [][]byte
	ProjWKT       string
	GeoTransform  [6]float64
	NoData        *float64
}

// Info is the metadata of a raster file.
type Info struct {
	FileName     string     `json:"filename"`
	Driver       string     `json:"file_type"`
	Type         string     `json:"array_type"`
	RasterCount  int        `json:"raster_count"`
	XSize        int        `json:"x_size"`
	YSize        int        `json:"y_size"`
	GeoTransform [6]float64 `json:"geotransform"`
	Polygon      string     `json:"polygon"`
	ProjWKT      string     `json:"proj_wkt"`
	Proj4        string     `json:"proj4"`
	NoData       *float64   `json:"nodata,omitempty"`
	Mins         []float64  `json:"mins,omitempty"`
	Maxs         []float64  `json:"maxs,omitempty"`
	Means        []float64  `json:"means,omitempty"`
	SampleCounts []int      `json:"sample_counts,omitempty"`
}
