package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/cuemby/tandem/pkg/diskcache"
)

// fileDefaults is the shape of the optional --config YAML file. Flags
// always take precedence; this only fills in values a flag did not
// set.
type fileDefaults struct {
	StorageType string `yaml:"storageType"`
	LogErrors   bool   `yaml:"logErrors"`
	TrimSize    int64  `yaml:"trimSize"`
	TrimCount   int64  `yaml:"trimCount"`
}

func loadFileDefaults(path string) (*fileDefaults, error) {
	if path == "" {
		return &fileDefaults{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg fileDefaults
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return &cfg, nil
}

func (c *fileDefaults) storageType() diskcache.StorageType {
	switch c.StorageType {
	case "file":
		return diskcache.File
	case "sqlite":
		return diskcache.Sqlite
	default:
		return diskcache.Mixed
	}
}
