package download

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/MaaAssistantArknights/maa-cli-sub002/internal/verify"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestDownloadFullFile(t *testing.T) {
	const payload = "hello, maa-cli-sub002"
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(payload))
	}))
	defer srv.Close()

	dir := t.TempDir()
	dest := filepath.Join(dir, "asset.bin")
	v := verify.NewSizeVerifier(int64(len(payload)))

	err := Download(context.Background(), http.DefaultClient, zap.NewNop(), srv.URL, dest, NoopProgress{}, v)
	require.NoError(t, err)

	got, err := os.ReadFile(dest)
	require.NoError(t, err)
	require.Equal(t, payload, string(got))

	_, err = os.Stat(partialPath(dest))
	require.True(t, os.IsNotExist(err))
}

// TestDownloadResumesFromPartialFile exercises the Range-resume path:
// a pre-existing .partial file with some bytes already written should
// be extended via a Range request rather than restarted from scratch.
func TestDownloadResumesFromPartialFile(t *testing.T) {
	const full = "0123456789abcdefghij"
	const already = "0123456789"

	var gotRange string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotRange = r.Header.Get("Range")
		w.Header().Set("Content-Range", "bytes 10-19/20")
		w.WriteHeader(http.StatusPartialContent)
		w.Write([]byte(full[10:]))
	}))
	defer srv.Close()

	dir := t.TempDir()
	dest := filepath.Join(dir, "asset.bin")
	require.NoError(t, os.WriteFile(partialPath(dest), []byte(already), 0o644))

	v := verify.NewSizeVerifier(int64(len(full)))
	err := Download(context.Background(), http.DefaultClient, zap.NewNop(), srv.URL, dest, NoopProgress{}, v)
	require.NoError(t, err)
	require.Equal(t, "bytes=10-", gotRange)

	got, err := os.ReadFile(dest)
	require.NoError(t, err)
	require.Equal(t, full, string(got))
}

// TestDownloadRestartsWhenServerIgnoresRange exercises the fallback when
// a server doesn't honor the Range header: the partial file is dropped
// and the transfer restarts from zero instead of corrupting output.
func TestDownloadRestartsWhenServerIgnoresRange(t *testing.T) {
	const full = "abcdefghij"

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(full))
	}))
	defer srv.Close()

	dir := t.TempDir()
	dest := filepath.Join(dir, "asset.bin")
	require.NoError(t, os.WriteFile(partialPath(dest), []byte("stale-prefix"), 0o644))

	v := verify.NewSizeVerifier(int64(len(full)))
	err := Download(context.Background(), http.DefaultClient, zap.NewNop(), srv.URL, dest, NoopProgress{}, v)
	require.NoError(t, err)

	got, err := os.ReadFile(dest)
	require.NoError(t, err)
	require.Equal(t, full, string(got))
}

// TestDownloadVerifyFailureKeepsNoFinalFile exercises the atomic-rename
// guarantee: a failed verification must not leave a file at dest.
func TestDownloadVerifyFailureKeepsNoFinalFile(t *testing.T) {
	const payload = "wrong size"
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(payload))
	}))
	defer srv.Close()

	dir := t.TempDir()
	dest := filepath.Join(dir, "asset.bin")
	v := verify.NewSizeVerifier(999)

	err := Download(context.Background(), http.DefaultClient, zap.NewNop(), srv.URL, dest, NoopProgress{}, v)
	require.Error(t, err)

	_, err = os.Stat(dest)
	require.True(t, os.IsNotExist(err))
}
