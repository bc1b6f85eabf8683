package metrics

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"time"
)

type AOIInfo struct {
	Path        string  `json:"path"`
	CRS         string  `json:"crs"`
	Area        float64 `json:"area"`
	NumFeatures int     `json:"num_features"`
}

type RasterInfo struct {
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	Bands        int    `json:"bands"`
	Type         string `json:"type"`
	MaskedPixels int    `json:"masked_pixels"`
	BytesRead    int64  `json:"bytes_read"`
	BytesWritten int64  `json:"bytes_written"`
}

// ClipInfo is the record logged for every raster the pipeline visits.
type ClipInfo struct {
	StartTime string        `json:"start_time"`
	Duration  time.Duration `json:"duration"`
	Input     string        `json:"input"`
	InputName string        `json:"input_name"`
	Output    string        `json:"output"`
	Status    string        `json:"status"`
	Error     string        `json:"error,omitempty"`
	AOI       *AOIInfo      `json:"aoi"`
	Raster    *RasterInfo   `json:"raster"`
}

const (
	StatusClipped = "clipped"
	StatusSkipped = "skipped"
	StatusFailed  = "failed"
)

type MetricsCollector struct {
	Info   *ClipInfo
	logger Logger
	start  time.Time
}

func NewMetricsCollector(logger Logger) *MetricsCollector {
	start := time.Now()
	return &MetricsCollector{
		Info: &ClipInfo{
			StartTime: start.Format(time.RFC3339),
			AOI:       &AOIInfo{},
			Raster:    &RasterInfo{},
		},
		logger: logger,
		start:  start,
	}
}

// Fail records err on the collected record.
func (m *MetricsCollector) Fail(err error) {
	m.Info.Status = StatusFailed
	if err != nil {
		m.Info.Error = err.Error()
	}
}

func (m *MetricsCollector) Log() {
	m.Info.Duration = time.Since(m.start)
	if len(m.Info.Status) == 0 {
		m.Info.Status = StatusClipped
	}
	if m.logger != nil {
		m.logger.Log(m.Info)
	}
}

func (i *ClipInfo) ToJSON() (string, error) {
	if len(i.InputName) == 0 && len(i.Input) > 0 {
		i.InputName = filepath.Base(i.Input)
	}

	buf := new(bytes.Buffer)
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	err := enc.Encode(i)
	if err == nil {
		return buf.String(), nil
	} else {
		return "", err
	}
}
