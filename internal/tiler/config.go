package tiler

import (
	"strings"

	"github.com/golang/glog"
	"gopkg.in/yaml.v3"
)

// TileConfig is the optional -c override. Absent fields stay nil and leave the value to other sources.
type TileConfig struct {
	X        *float64 `yaml:"x"`
	Y        *float64 `yaml:"y"`
	Offset   *float64 `yaml:"offset"`  // distance of the model lowest face above the ground
	MaxLevel *int     `yaml:"max_lvl"` // stop converting below this level
}

// ParseTileConfig decodes a json (or yaml) config string. A malformed config is logged
// and ignored so the run falls back to the metadata values.
func ParseTileConfig(raw string) TileConfig {
	var config TileConfig
	if strings.TrimSpace(raw) == "" {
		return config
	}
	if err := yaml.Unmarshal([]byte(raw), &config); err != nil {
		glog.Warningf("config error --> %s: %v", raw, err)
		return TileConfig{}
	}
	return config
}
