package rpc

import (
	"sync"

	"github.com/MaaAssistantArknights/maa-cli-sub002/internal/config"
	"github.com/MaaAssistantArknights/maa-cli-sub002/internal/ffi"
	"github.com/MaaAssistantArknights/maa-cli-sub002/internal/session"
	"go.uber.org/zap"
)

// CoreService implements spec.md §4.9's Core service: loading and
// unloading the process-global native library.
type CoreService struct {
	mu     sync.Mutex
	loaded bool
	pool   *session.Pool
	log    *zap.Logger
}

func NewCoreService(pool *session.Pool, log *zap.Logger) *CoreService {
	return &CoreService{pool: pool, log: log}
}

// LoadCore loads the native library from cfg.LibPath, applies the
// CPU/GPU OCR static options, and loads each resource directory.
// cfg.LogPath and cfg.LogLevel are not applied.
func (c *CoreService) LoadCore(cfg config.FFIConfig) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.loaded {
		return newStatus(CodeFailedPrecondition, "core already loaded")
	}

	if err := ffi.Load(cfg.LibPath); err != nil {
		return newStatus(CodeInternal, err.Error())
	}
	if err := ffi.SetStaticOption(ffi.StaticOptionCPUOCR, ffi.Bool(cfg.CPUOCR)); err != nil {
		return newStatus(CodeInternal, err.Error())
	}
	if err := ffi.SetStaticOption(ffi.StaticOptionGPUOCR, ffi.Bool(cfg.GPUOCR)); err != nil {
		return newStatus(CodeInternal, err.Error())
	}
	for _, dir := range cfg.ResourceDirs {
		if err := ffi.LoadResource(dir); err != nil {
			return newStatus(CodeInternal, err.Error())
		}
	}
	c.loaded = true
	c.log.Info("core loaded", zap.String("lib_path", cfg.LibPath), zap.Strings("resource_dirs", cfg.ResourceDirs))
	return nil
}

// UnloadCore tears down every session, then unloads the native library.
func (c *CoreService) UnloadCore() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.loaded {
		return newStatus(CodeFailedPrecondition, "core not loaded")
	}
	c.pool.RemoveAll()
	if err := ffi.Unload(); err != nil {
		return newStatus(CodeInternal, err.Error())
	}
	c.loaded = false
	return nil
}
