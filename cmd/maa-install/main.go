// Command maa-install is the standalone installer CLI of spec.md §4.7:
// it fetches the version manifest, downloads the platform asset through
// the mirror selector and verifier, and extracts it into an install
// directory.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/MaaAssistantArknights/maa-cli-sub002/internal/download"
	"github.com/MaaAssistantArknights/maa-cli-sub002/internal/installer"
	"github.com/MaaAssistantArknights/maa-cli-sub002/internal/logging"
	"github.com/MaaAssistantArknights/maa-cli-sub002/internal/manifest"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	verbose     bool
	manifestURL string
	installDir  string
	cacheDir    string
	binaryName  string
)

var rootCmd = &cobra.Command{
	Use:   "maa-install",
	Short: "Download and install MaaCore and the CLI binary",
	RunE:  run,
}

func init() {
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.Flags().StringVar(&manifestURL, "manifest-url", "", "version manifest URL (required)")
	rootCmd.Flags().StringVar(&installDir, "install-dir", "", "destination directory for the extracted core and binary")
	rootCmd.Flags().StringVar(&cacheDir, "cache-dir", "cache", "directory to cache the downloaded archive in")
	rootCmd.Flags().StringVar(&binaryName, "binary-name", "", "name of the CLI binary entry to extract, if any")
	rootCmd.MarkFlagRequired("manifest-url")
	rootCmd.MarkFlagRequired("install-dir")
}

// wireManifest is the "manifest_processor" of spec.md §4.7: it decodes
// the wire JSON body into the abstract manifest.Manifest the installer
// orchestrator operates on. The manifest package itself carries no json
// tags since it's the caller's choice how the wire format looks.
type wireManifest struct {
	Version string `json:"version"`
	Assets  map[string]struct {
		Name   string `json:"name"`
		URL    string `json:"url"`
		Size   int64  `json:"size"`
		SHA256 string `json:"sha256"`
		Mirror *struct {
			Mirrors  []string `json:"mirrors"`
			MaxBytes int64    `json:"max_bytes"`
		} `json:"mirror"`
	} `json:"assets"`
}

func fetchManifest(body []byte) (manifest.Manifest, error) {
	var w wireManifest
	if err := json.Unmarshal(body, &w); err != nil {
		return manifest.Manifest{}, err
	}
	version, err := manifest.ParseVersion(w.Version)
	if err != nil {
		return manifest.Manifest{}, err
	}
	assets := make(map[string]manifest.Asset, len(w.Assets))
	for platform, a := range w.Assets {
		asset := manifest.Asset{Name: a.Name, URL: a.URL, Size: a.Size, SHA256: a.SHA256}
		if a.Mirror != nil {
			asset.MirrorOpts = &manifest.MirrorOptions{Mirrors: a.Mirror.Mirrors, MaxBytes: a.Mirror.MaxBytes}
		}
		assets[platform] = asset
	}
	return manifest.Manifest{Version: version, Assets: assets}, nil
}

// consoleProgress renders download progress as a carriage-return
// overwritten line, the way a plain CLI installer reports it without
// pulling in a TUI dependency for a single counter.
type consoleProgress struct {
	total int64
	pos   int64
}

func (p *consoleProgress) SetTotal(total int64) { p.total = total }

func (p *consoleProgress) SetPosition(pos int64) {
	p.pos = pos
	p.print(p.pos)
}

func (p *consoleProgress) Inc(n int64) {
	p.pos += n
	p.print(p.pos)
}

func (p *consoleProgress) print(pos int64) {
	if p.total > 0 {
		fmt.Printf("\r%d/%d bytes", pos, p.total)
	} else {
		fmt.Printf("\r%d bytes", pos)
	}
}

// consoleReporter prints installer progress messages to stdout and the
// logger, and hands out a fresh consoleProgress per download.
type consoleReporter struct {
	log *zap.Logger
}

func (r consoleReporter) Message(msg string) {
	fmt.Println(msg)
	r.log.Info(msg)
}

func (r consoleReporter) Download() download.Progress { return &consoleProgress{} }

func run(cmd *cobra.Command, args []string) error {
	log, err := logging.New(logging.Options{Verbose: verbose})
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer log.Sync()

	mapper := func(asset manifest.Asset) manifest.Mapper {
		if binaryName != "" {
			return manifest.CLIBinaryMapper(binaryName, filepath.Join(installDir, binaryName))
		}
		return manifest.CoreLibraryMapper(installDir)
	}

	client := &http.Client{Timeout: 5 * time.Minute}
	inst := installer.New(client, log, manifestURL, fetchManifest, mapper).
		WithTestDuration(3 * time.Second).
		WithReporter(consoleReporter{log: log})

	return inst.Exec(context.Background(), cacheDir)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
