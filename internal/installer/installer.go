// Package installer implements the install orchestrator of spec.md
// §4.7, grounded on original_source's
// crates/maa-installer/src/installer.rs: a builder chain terminating in
// Exec, which fetches the manifest, checks for updates, downloads
// through the mirror selector and verifier, then extracts.
package installer

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/MaaAssistantArknights/maa-cli-sub002/internal/download"
	"github.com/MaaAssistantArknights/maa-cli-sub002/internal/manifest"
	"github.com/MaaAssistantArknights/maa-cli-sub002/internal/mirror"
	"github.com/MaaAssistantArknights/maa-cli-sub002/internal/verify"
	"go.uber.org/zap"
)

// Reporter receives cosmetic progress updates; correctness never depends
// on it (spec.md §4.7).
type Reporter interface {
	Message(msg string)
	Download() download.Progress
}

// NoopReporter discards everything.
type NoopReporter struct{}

func (NoopReporter) Message(string)              {}
func (NoopReporter) Download() download.Progress { return download.NoopProgress{} }

// ManifestFetcher decodes the raw manifest response body into a
// manifest.Manifest — the caller's manifest_processor.
type ManifestFetcher func(body []byte) (manifest.Manifest, error)

// Installer is the builder of spec.md §4.7.
type Installer struct {
	client         *http.Client
	log            *zap.Logger
	manifestURL    string
	fetch          ManifestFetcher
	mapper         func(asset manifest.Asset) manifest.Mapper
	testDuration   time.Duration
	currentVersion string
	reporter       Reporter
	preHook        func() error
	postHook       func() error
}

// New builds an Installer. mapper constructs the path mapper for the
// selected asset once its archive is about to be extracted.
func New(client *http.Client, log *zap.Logger, manifestURL string, fetch ManifestFetcher, mapper func(manifest.Asset) manifest.Mapper) *Installer {
	return &Installer{
		client:      client,
		log:         log,
		manifestURL: manifestURL,
		fetch:       fetch,
		mapper:      mapper,
		reporter:    NoopReporter{},
	}
}

func (i *Installer) WithCurrentVersion(v string) *Installer {
	i.currentVersion = v
	return i
}

func (i *Installer) WithTestDuration(d time.Duration) *Installer {
	i.testDuration = d
	return i
}

func (i *Installer) WithPreInstallHook(hook func() error) *Installer {
	i.preHook = hook
	return i
}

func (i *Installer) WithPostInstallHook(hook func() error) *Installer {
	i.postHook = hook
	return i
}

func (i *Installer) WithReporter(r Reporter) *Installer {
	i.reporter = r
	return i
}

// Exec runs the 8-step install protocol of spec.md §4.7 against
// cacheDir.
func (i *Installer) Exec(ctx context.Context, cacheDir string) error {
	i.reporter.Message("Fetching version manifest...")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, i.manifestURL, nil)
	if err != nil {
		return err
	}
	resp, err := i.client.Do(req)
	if err != nil {
		return err
	}
	body, err := readAll(resp)
	if err != nil {
		return err
	}

	m, err := i.fetch(body)
	if err != nil {
		return err
	}

	if i.currentVersion != "" {
		if i.currentVersion == m.Version {
			i.reporter.Message("Fetched version manifest, already up-to-date!")
			return nil
		}
		i.reporter.Message("Fetched version manifest, update available: " + m.Version)
	}

	asset, ok := m.AssetForPlatform(platformGOOS(), platformGOARCH())
	if !ok {
		i.reporter.Message("No asset found for current platform")
		return nil
	}

	dest := filepath.Join(cacheDir, asset.Name)
	v, err := asset.Verifier()
	if err != nil {
		return err
	}

	if fileExists(dest) {
		if err := verify.VerifyFile(dest, v); err == nil {
			i.reporter.Message("Cached asset already verified, skipping download")
		} else if err := i.downloadAsset(ctx, asset, dest); err != nil {
			return err
		}
	} else if err := i.downloadAsset(ctx, asset, dest); err != nil {
		return err
	}

	if i.preHook != nil {
		if err := i.preHook(); err != nil {
			return err
		}
	}

	if err := manifest.Extract(dest, i.mapper(asset)); err != nil {
		return err
	}

	if i.postHook != nil {
		if err := i.postHook(); err != nil {
			return err
		}
	}

	i.reporter.Message("Installation completed successfully!")
	return nil
}

func (i *Installer) downloadAsset(ctx context.Context, asset manifest.Asset, dest string) error {
	url := asset.URL
	if asset.MirrorOpts != nil {
		url = mirror.Select(ctx, i.client, i.log, asset.URL, asset.MirrorOpts.Mirrors, mirror.Options{
			MaxTime:  i.testDuration,
			MaxBytes: asset.MirrorOpts.MaxBytes,
		})
	}
	v, err := asset.Verifier()
	if err != nil {
		return err
	}
	return download.Download(ctx, i.client, i.log, url, dest, i.reporter.Download(), v)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
