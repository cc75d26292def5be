package app

import (
	"os"
	"path/filepath"
	"strconv"

	"github.com/mandelsoft/vfs/pkg/vfs"
	"sigs.k8s.io/yaml"

	"github.com/mandelsoft/meshcalc/pkg/utils"
)

const CONFIG_FILE = ".meshcalc"

// Config holds the defaults for command options. Later sources override
// earlier ones: home directory, user config directory, working directory,
// explicit config file and finally MESHCALC_* environment variables.
type Config struct {
	Project     *string `json:"project,omitempty"`
	Output      *string `json:"output,omitempty"`
	LogLevel    *string `json:"logLevel,omitempty"`
	MemoryLimit *int    `json:"memoryLimit,omitempty"`
}

func GetConfig(fs vfs.FileSystem, explicit string) (*Config, error) {
	var cfg Config

	dir, err := os.UserHomeDir()
	if err == nil {
		MergeConfig(&cfg, ReadConfig(fs, filepath.Join(dir, CONFIG_FILE)))
	}
	dir, err = os.UserConfigDir()
	if err == nil {
		MergeConfig(&cfg, ReadConfig(fs, filepath.Join(dir, CONFIG_FILE)))
	}
	MergeConfig(&cfg, ReadConfig(fs, CONFIG_FILE))

	if explicit != "" {
		data, err := vfs.ReadFile(fs, explicit)
		if err != nil {
			return nil, err
		}
		var add Config
		if err := yaml.UnmarshalStrict(data, &add); err != nil {
			return nil, err
		}
		MergeConfig(&cfg, &add)
	}

	if v := os.Getenv("MESHCALC_PROJECT"); v != "" {
		cfg.Project = utils.Pointer(v)
	}
	if v := os.Getenv("MESHCALC_OUTPUT"); v != "" {
		cfg.Output = utils.Pointer(v)
	}
	if v := os.Getenv("MESHCALC_LOG_LEVEL"); v != "" {
		cfg.LogLevel = utils.Pointer(v)
	}
	if v := os.Getenv("MESHCALC_MEMORY_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.MemoryLimit = utils.Pointer(n)
		}
	}
	return &cfg, nil
}

// ReadConfig reads an optional config file. Missing or invalid files are
// ignored.
func ReadConfig(fs vfs.FileSystem, path string) *Config {
	data, err := vfs.ReadFile(fs, path)
	if err != nil {
		return nil
	}

	var cfg Config
	err = yaml.Unmarshal(data, &cfg)
	if err != nil {
		return nil
	}
	return &cfg
}

func MergeConfig(cfg *Config, add *Config) {
	if add == nil {
		return
	}
	if add.Project != nil {
		cfg.Project = add.Project
	}
	if add.Output != nil {
		cfg.Output = add.Output
	}
	if add.LogLevel != nil {
		cfg.LogLevel = add.LogLevel
	}
	if add.MemoryLimit != nil {
		cfg.MemoryLimit = add.MemoryLimit
	}
}

func value[T any](p *T, def T) T {
	if p == nil {
		return def
	}
	return *p
}
