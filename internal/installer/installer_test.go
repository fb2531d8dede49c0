package installer

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/MaaAssistantArknights/maa-cli-sub002/internal/manifest"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testManifestFetcher(body []byte) (manifest.Manifest, error) {
	return manifest.Manifest{
		Version: "v1.2.3",
		Assets: map[string]manifest.Asset{
			platformGOOS() + "/" + platformGOARCH(): {
				Name: "asset.zip",
				URL:  string(body), // the test server embeds the asset URL in the manifest body
				Size: int64(len("payload-contents")),
			},
		},
	}, nil
}

// TestExecSkipsWhenAlreadyUpToDate exercises the current-version
// short-circuit: once the manifest's version matches the caller's
// current version, Exec must return before ever looking up a platform
// asset or attempting a download.
func TestExecSkipsWhenAlreadyUpToDate(t *testing.T) {
	manifestSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("unused"))
	}))
	defer manifestSrv.Close()

	fetch := func(body []byte) (manifest.Manifest, error) {
		return manifest.Manifest{Version: "v1.2.3"}, nil
	}

	dir := t.TempDir()
	inst := New(http.DefaultClient, zap.NewNop(), manifestSrv.URL, fetch, nil).
		WithCurrentVersion("v1.2.3")

	err := inst.Exec(context.Background(), dir)
	require.NoError(t, err)
}

// TestExecDownloadsNewAssetThenFailsToExtractNonArchive exercises the
// install protocol up to extraction: manifest fetch, download and verify
// succeed, then extraction of a body that is not a real archive fails
// before the caller-supplied mapper sees any entry.
func TestExecDownloadsNewAssetThenFailsToExtractNonArchive(t *testing.T) {
	const payload = "payload-contents"

	assetSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(payload))
	}))
	defer assetSrv.Close()

	manifestSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(assetSrv.URL))
	}))
	defer manifestSrv.Close()

	dir := t.TempDir()
	cacheDir := filepath.Join(dir, "cache")

	var extracted string
	mapper := func(asset manifest.Asset) manifest.Mapper {
		return func(entry manifest.Entry) (string, bool) {
			extracted = entry.Path
			return "", false
		}
	}

	inst := New(http.DefaultClient, zap.NewNop(), manifestSrv.URL, testManifestFetcher, mapper)

	err := inst.Exec(context.Background(), cacheDir)
	// The fake "payload-contents" body isn't a real zip, so extraction
	// is expected to fail when the ".zip" file is opened as a zip archive
	// — this test exercises the download+verify leg, not a real archive
	// format.
	require.Error(t, err)

	downloaded := filepath.Join(cacheDir, "asset.zip")
	got, readErr := os.ReadFile(downloaded)
	require.NoError(t, readErr)
	require.Equal(t, payload, string(got))
	require.Empty(t, extracted)
}
