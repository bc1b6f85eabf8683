package main

import (
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"golang.org/x/net/context"

	"github.com/nci/aoiclip/aoi"
	"github.com/nci/aoiclip/metrics"
	"github.com/nci/aoiclip/pipeline"
	"github.com/nci/aoiclip/utils"
)

type stringList []string

func (s *stringList) String() string { return strings.Join(*s, ",") }

func (s *stringList) Set(v string) error {
	*s = append(*s, v)
	return nil
}

func ensure(err error) {
	if err != nil {
		log.Fatal(err)
	}
}

func splitMarkers(s string) []string {
	var markers []string
	for _, m := range strings.Split(s, ",") {
		if m = strings.TrimSpace(m); len(m) > 0 {
			markers = append(markers, m)
		}
	}
	return markers
}

func main() {
	confFile := flag.String("conf", "", "YAML or JSON config file")
	aoiPath := flag.String("aoi", "", "AOI vector file (shapefile, GeoJSON, ...)")
	aoiLayer := flag.String("layer", "", "AOI layer name, defaults to the first layer")
	inDir := flag.String("in", "", "directory holding the input rasters")
	outDir := flag.String("out", "", "directory receiving the clipped rasters")
	crs := flag.String("crs", utils.DefaultAOICRS, "CRS the AOI is normalised to")
	markers := flag.String("markers", strings.Join(utils.DefaultMarkers, ","), "comma separated file name markers")
	ext := flag.String("ext", utils.DefaultExtension, "input file extension")
	pattern := flag.String("pattern", "", "optional file filter expression over 'path' and 'name'")
	suffix := flag.String("suffix", utils.DefaultSuffix, "suffix appended to output file names")
	allTouched := flag.Bool("all_touched", false, "keep every pixel touched by the AOI")
	var creationOpts stringList
	flag.Var(&creationOpts, "co", "GTiff creation option NAME=VALUE, may be repeated")
	continueOnError := flag.Bool("continue", false, "keep clipping after a raster fails")
	metricsDir := flag.String("metrics_dir", "", "directory for JSON metrics logs")
	verbose := flag.Bool("verbose", false, "verbose logging")
	dumpAOI := flag.Bool("dump-aoi", false, "print the normalised AOI as GeoJSON and exit")
	flag.Parse()

	cfg := &utils.Config{}
	if len(*confFile) > 0 {
		ensure(cfg.LoadConfigFile(*confFile))
	}

	// explicit flags win over the config file
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "aoi":
			cfg.AOIPath = *aoiPath
		case "layer":
			cfg.AOILayer = *aoiLayer
		case "in":
			cfg.InputDir = *inDir
		case "out":
			cfg.OutputDir = *outDir
		case "crs":
			cfg.AOICRS = *crs
		case "markers":
			cfg.Markers = splitMarkers(*markers)
		case "ext":
			cfg.Extension = *ext
		case "pattern":
			cfg.Pattern = *pattern
		case "suffix":
			cfg.Suffix = *suffix
		case "all_touched":
			cfg.AllTouched = *allTouched
		case "co":
			cfg.CreationOptions = creationOpts
		case "continue":
			cfg.ContinueOnError = *continueOnError
		case "metrics_dir":
			cfg.MetricsDir = *metricsDir
		case "verbose":
			cfg.Verbose = *verbose
		}
	})
	cfg.SetDefaults()

	if *dumpAOI {
		if len(cfg.AOIPath) == 0 {
			log.Fatal("-dump-aoi requires an AOI path")
		}
		utils.InitGdal()
		area, err := aoi.Load(cfg.AOIPath, cfg.AOILayer, cfg.AOICRS)
		ensure(err)
		ensure(area.WriteGeoJSON(os.Stdout))
		return
	}

	var logger metrics.Logger
	if len(cfg.MetricsDir) > 0 {
		fileLogger, err := metrics.NewFileLogger(cfg.MetricsDir, 0, 0, cfg.Verbose)
		ensure(err)
		logger = fileLogger
	} else if cfg.Verbose {
		logger = metrics.NewStdoutLogger()
	}

	ctx, cancel := context.WithCancel(context.Background())
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigs
		log.Printf("received %v, stopping after the current raster", sig)
		cancel()
	}()

	_, err := pipeline.Run(ctx, cfg, pipeline.NewConsoleReporter(os.Stdout), logger)
	if logger != nil {
		logger.Close()
	}
	if err != nil {
		var batchErr *pipeline.BatchError
		if errors.As(err, &batchErr) {
			for _, f := range batchErr.Failures {
				log.Printf("%s: %v", f.Input, f.Err)
			}
		}
		log.Printf("%v", err)
		os.Exit(1)
	}
}
