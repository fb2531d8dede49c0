// Package config holds the process configuration shared by the RPC
// server and the installer CLI. Loading from a file and converting
// between JSON/TOML/YAML is explicitly out of scope (spec Non-goals);
// this package only defines the struct and its defaults, the way
// callers of the value engine decide how to populate it.
package config

import "time"

// Config is the top-level process configuration.
type Config struct {
	FFI       FFIConfig       `yaml:"ffi"`
	RPC       RPCConfig       `yaml:"rpc"`
	Installer InstallerConfig `yaml:"installer"`

	// BatchMode forces the value engine to resolve Inputs from their
	// defaults instead of prompting, per spec.md §4.1. Tests default to
	// batch mode.
	BatchMode bool `yaml:"batch_mode"`
}

// FFIConfig configures load_core (spec.md §4.9, Core service). It also
// doubles as the load_core RPC request body, so its fields carry both
// yaml tags (config file) and json tags (wire).
type FFIConfig struct {
	CPUOCR       bool     `yaml:"cpu_ocr" json:"cpu_ocr"`
	GPUOCR       bool     `yaml:"gpu_ocr" json:"gpu_ocr"`
	LogPath      string   `yaml:"log_path" json:"log_path"`
	LogLevel     string   `yaml:"log_level" json:"log_level"`
	LibPath      string   `yaml:"lib_path" json:"lib_path"`
	ResourceDirs []string `yaml:"resource_dirs" json:"resource_dirs"`
}

// RPCConfig configures the session-scoped RPC server.
type RPCConfig struct {
	ListenAddr string `yaml:"listen_addr"`
}

// InstallerConfig configures the installer orchestrator's defaults.
type InstallerConfig struct {
	CacheDir     string        `yaml:"cache_dir"`
	ManifestURL  string        `yaml:"manifest_url"`
	TestDuration time.Duration `yaml:"test_duration"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		FFI: FFIConfig{
			LogLevel: "info",
		},
		RPC: RPCConfig{
			ListenAddr: "127.0.0.1:11451",
		},
		Installer: InstallerConfig{
			CacheDir:     "cache",
			TestDuration: 3 * time.Second,
		},
		BatchMode: false,
	}
}
