package rpc

import (
	"testing"

	"github.com/MaaAssistantArknights/maa-cli-sub002/internal/config"
	"github.com/MaaAssistantArknights/maa-cli-sub002/internal/session"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// TestLoadCoreBadLibPathIsInternal exercises load_core's failure path
// when the native library can't be dlopen'd.
func TestLoadCoreBadLibPathIsInternal(t *testing.T) {
	core := NewCoreService(session.NewPool(), zap.NewNop())
	err := core.LoadCore(config.FFIConfig{LibPath: "/nonexistent/libMaaCore.so"})
	require.Error(t, err)
	st, ok := err.(*Status)
	require.True(t, ok)
	require.Equal(t, CodeInternal, st.Code)
}

// TestUnloadCoreBeforeLoadIsFailedPrecondition exercises unload_core's
// guard against unloading when nothing was loaded.
func TestUnloadCoreBeforeLoadIsFailedPrecondition(t *testing.T) {
	core := NewCoreService(session.NewPool(), zap.NewNop())
	err := core.UnloadCore()
	require.Error(t, err)
	st, ok := err.(*Status)
	require.True(t, ok)
	require.Equal(t, CodeFailedPrecondition, st.Code)
}
