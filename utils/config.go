package utils

import (
	"encoding/json"
	"fmt"
	"io/ioutil"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v2"
)

const (
	DefaultAOICRS    = "EPSG:4326"
	DefaultExtension = ".tif"
	DefaultSuffix    = "_clipped"
)

// DefaultMarkers are the water-stress product variants clipped when a
// config does not name its own.
var DefaultMarkers = []string{"LSWI_WS1", "LSWI_WS2"}

// Config describes one clipping batch: where the AOI and the input
// rasters live, where the clipped rasters go and how files are picked.
type Config struct {
	AOIPath  string `json:"aoi_path" yaml:"aoi_path"`
	AOILayer string `json:"aoi_layer" yaml:"aoi_layer"`
	AOICRS   string `json:"aoi_crs" yaml:"aoi_crs"`

	InputDir  string `json:"input_dir" yaml:"input_dir"`
	OutputDir string `json:"output_dir" yaml:"output_dir"`

	Extension string   `json:"extension" yaml:"extension"`
	Markers   []string `json:"markers" yaml:"markers"`
	Pattern   string   `json:"pattern" yaml:"pattern"`
	Suffix    string   `json:"suffix" yaml:"suffix"`

	AllTouched      bool     `json:"all_touched" yaml:"all_touched"`
	CreationOptions []string `json:"creation_options" yaml:"creation_options"`
	ContinueOnError bool     `json:"continue_on_error" yaml:"continue_on_error"`

	MetricsDir string `json:"metrics_dir" yaml:"metrics_dir"`
	Verbose    bool   `json:"verbose" yaml:"verbose"`
}

// LoadConfigFile reads a JSON (.json) or YAML (anything else) config
// document into config and fills in the defaults.
func (config *Config) LoadConfigFile(configFile string) error {
	*config = Config{}
	cfg, err := ioutil.ReadFile(configFile)
	if err != nil {
		return fmt.Errorf("Error while reading config file: %s. Error: %v", configFile, err)
	}

	if strings.ToLower(filepath.Ext(configFile)) == ".json" {
		err = json.Unmarshal(cfg, config)
		if err != nil {
			return fmt.Errorf("Error at JSON parsing config document: %s. Error: %v", configFile, err)
		}
	} else {
		err = yaml.UnmarshalStrict(cfg, config)
		if err != nil {
			return fmt.Errorf("Error at YAML parsing config document: %s. Error: %v", configFile, err)
		}
	}

	config.SetDefaults()
	return nil
}

// SetDefaults fills every empty field that has a default value.
func (config *Config) SetDefaults() {
	if len(strings.TrimSpace(config.AOICRS)) == 0 {
		config.AOICRS = DefaultAOICRS
	}
	if len(config.Extension) == 0 {
		config.Extension = DefaultExtension
	}
	if len(config.Markers) == 0 {
		config.Markers = append([]string{}, DefaultMarkers...)
	}
	if len(config.Suffix) == 0 {
		config.Suffix = DefaultSuffix
	}
}

// Validate checks the config holds everything a batch needs.
func (config *Config) Validate() error {
	if len(strings.TrimSpace(config.AOIPath)) == 0 {
		return fmt.Errorf("AOI path is not set")
	}
	if len(strings.TrimSpace(config.InputDir)) == 0 {
		return fmt.Errorf("input directory is not set")
	}
	if len(strings.TrimSpace(config.OutputDir)) == 0 {
		return fmt.Errorf("output directory is not set")
	}
	if len(config.Markers) == 0 {
		return fmt.Errorf("at least one file name marker is required")
	}
	for _, m := range config.Markers {
		if len(m) == 0 {
			return fmt.Errorf("file name markers must not be empty")
		}
	}
	if !strings.HasPrefix(config.Extension, ".") {
		return fmt.Errorf("extension must start with a dot: %q", config.Extension)
	}
	if strings.ContainsAny(config.Suffix, `/\`) {
		return fmt.Errorf("output suffix must not contain path separators: %q", config.Suffix)
	}

	absIn, errIn := filepath.Abs(config.InputDir)
	absOut, errOut := filepath.Abs(config.OutputDir)
	if errIn == nil && errOut == nil && absIn == absOut && config.Suffix == "" {
		return fmt.Errorf("output directory equals input directory and no suffix is set")
	}
	return nil
}
