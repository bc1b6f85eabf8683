package pipeline

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/net/context"

	"github.com/nci/aoiclip/aoi"
	"github.com/nci/aoiclip/metrics"
	"github.com/nci/aoiclip/raster"
	"github.com/nci/aoiclip/selector"
	"github.com/nci/aoiclip/utils"
)

type Failure struct {
	Input string
	Err   error
}

// BatchError collects the per-file failures of a run that continued
// past them.
type BatchError struct {
	Total    int
	Failures []Failure
}

func (e *BatchError) Error() string {
	if len(e.Failures) == 0 {
		return "no failures"
	}
	return fmt.Sprintf("%d of %d rasters failed, first: %s: %v", len(e.Failures), e.Total, filepath.Base(e.Failures[0].Input), e.Failures[0].Err)
}

// Unwrap returns the first failure so errors.Is sees through the batch.
func (e *BatchError) Unwrap() error {
	if len(e.Failures) == 0 {
		return nil
	}
	return e.Failures[0].Err
}

type Summary struct {
	AOI      *aoi.AOI
	Selected []string
	Outputs  []string
	Skipped  []string
	Failures []Failure
}

// Run clips every raster of cfg.InputDir whose name matches the config
// to the AOI, writing the results to cfg.OutputDir in name order.
// rep and logger may be nil.
func Run(ctx context.Context, cfg *utils.Config, rep Reporter, logger metrics.Logger) (*Summary, error) {
	conf := *cfg
	conf.SetDefaults()
	if err := conf.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %v", err)
	}

	utils.InitGdal()

	if err := os.MkdirAll(conf.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %v", err)
	}

	area, err := aoi.Load(conf.AOIPath, conf.AOILayer, conf.AOICRS)
	if err != nil {
		return nil, err
	}
	if conf.Verbose {
		area.LogSummary()
	}

	sel, err := selector.New(selector.Options{
		Extension: conf.Extension,
		Markers:   conf.Markers,
		Pattern:   conf.Pattern,
	})
	if err != nil {
		return nil, err
	}
	files, err := sel.Select(conf.InputDir)
	if err != nil {
		return nil, err
	}
	if conf.Verbose {
		log.Printf("%d raster(s) selected from %s", len(files), conf.InputDir)
	}

	absIn, _ := filepath.Abs(conf.InputDir)
	absOut, _ := filepath.Abs(conf.OutputDir)
	sameDir := absIn == absOut

	summary := &Summary{AOI: area, Selected: files}
	opts := raster.ClipOptions{AllTouched: conf.AllTouched, CreationOptions: conf.CreationOptions}

	for _, src := range files {
		select {
		case <-ctx.Done():
			return summary, fmt.Errorf("clipping interrupted: %w", ctx.Err())
		default:
		}

		if sameDir && isOutput(src, conf.Suffix) {
			if conf.Verbose {
				log.Printf("skipping %s, it is an output of a previous run", filepath.Base(src))
			}
			summary.Skipped = append(summary.Skipped, src)
			continue
		}

		dst := filepath.Join(conf.OutputDir, raster.OutputName(src, conf.Suffix))
		err := clipOne(src, dst, area, opts, logger, conf.Verbose)
		if err != nil {
			if rep != nil {
				rep.Failed(src, err)
			}
			summary.Failures = append(summary.Failures, Failure{Input: src, Err: err})
			if !conf.ContinueOnError {
				return summary, fmt.Errorf("failed to clip %s: %w", src, err)
			}
			log.Printf("failed to clip %s: %v", src, err)
			continue
		}

		summary.Outputs = append(summary.Outputs, dst)
		if rep != nil {
			rep.Clipped(dst)
		}
	}

	if len(summary.Failures) > 0 {
		return summary, &BatchError{Total: len(files) - len(summary.Skipped), Failures: summary.Failures}
	}
	return summary, nil
}

func clipOne(src, dst string, area *aoi.AOI, opts raster.ClipOptions, logger metrics.Logger, verbose bool) error {
	collector := metrics.NewMetricsCollector(logger)
	collector.Info.Input = src
	collector.Info.Output = dst
	collector.Info.AOI = &metrics.AOIInfo{
		Path:        area.Path,
		CRS:         area.CRS,
		Area:        area.Area(),
		NumFeatures: len(area.Features),
	}
	defer collector.Log()

	res, err := raster.Clip(src, area, dst, opts)
	if err != nil {
		collector.Fail(err)
		return err
	}

	collector.Info.Raster = &metrics.RasterInfo{
		Width:        res.Width,
		Height:       res.Height,
		Bands:        res.Bands,
		Type:         res.Type,
		MaskedPixels: res.MaskedPixels,
		BytesRead:    res.BytesRead,
		BytesWritten: res.BytesWritten,
	}
	if verbose {
		log.Printf("%s: window %+v, %d masked pixel(s)", filepath.Base(src), res.Window, res.MaskedPixels)
	}
	return nil
}

func isOutput(path, suffix string) bool {
	base := filepath.Base(path)
	return strings.HasSuffix(strings.TrimSuffix(base, filepath.Ext(base)), suffix)
}
