// Package manifest implements the abstract version manifest and asset
// model of spec.md §4.6, grounded on original_source's
// crates/maa-installer/src/manifest.rs and
// crates/maa-cli/src/installer/version_json.rs. Version comparison uses
// golang.org/x/mod/semver (the pack has no other semver source); the
// manifest's own "v"-prefix tolerance is handled before delegating to it.
package manifest

import (
	"strings"

	"github.com/MaaAssistantArknights/maa-cli-sub002/internal/errs"
	"github.com/MaaAssistantArknights/maa-cli-sub002/internal/verify"
	"golang.org/x/mod/semver"
)

// MirrorOptions carries the mirror list and soft byte ceiling an Asset
// offers, mirroring original_source's MirrorOptions.
type MirrorOptions struct {
	Mirrors  []string
	MaxBytes int64
}

// Asset describes one downloadable, verifiable artifact.
type Asset struct {
	Name       string
	URL        string
	MirrorOpts *MirrorOptions
	Size       int64
	SHA256     string // empty means no digest verification
}

// Verifier builds the Verifier this asset should be checked against,
// composing SizeVerifier and, when SHA256 is set, a DigestVerifier — the
// Go counterpart to original_source's tuple-typed Asset::Verifier.
func (a Asset) Verifier() (verify.Verifier, error) {
	size := verify.NewSizeVerifier(a.Size)
	if a.SHA256 == "" {
		return size, nil
	}
	digest, err := verify.NewSHA256DigestVerifier(a.SHA256)
	if err != nil {
		return nil, err
	}
	return verify.Tuple{A: size, B: digest}, nil
}

// Manifest carries a semantic version and a platform-keyed set of
// assets, matching spec.md §3's abstract version manifest.
type Manifest struct {
	Version string // canonicalized "vX.Y.Z[-pre][+build]", per golang.org/x/mod/semver
	Assets  map[string]Asset // keyed by "GOOS/GOARCH", e.g. "linux/amd64"
}

// ParseVersion normalizes a manifest's raw version string (with or
// without a leading "v") into the canonical form x/mod/semver expects.
func ParseVersion(raw string) (string, error) {
	v := raw
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	if !semver.IsValid(v) {
		return "", errs.New(errs.Other, "manifest.ParseVersion", "malformed semantic version: "+raw)
	}
	return v, nil
}

// CanUpdate reports whether m's version is strictly newer than current,
// mirroring VersionJSON::can_update.
func (m Manifest) CanUpdate(current string) (bool, error) {
	cv, err := ParseVersion(current)
	if err != nil {
		return false, err
	}
	return semver.Compare(m.Version, cv) > 0, nil
}

// AssetForPlatform looks up the asset for goos/goarch, mirroring
// Manifest::asset()'s std::env::consts-based platform detection — the
// platform key is supplied by the caller instead of read from the
// runtime so tests can exercise every platform branch.
func (m Manifest) AssetForPlatform(goos, goarch string) (Asset, bool) {
	a, ok := m.Assets[goos+"/"+goarch]
	return a, ok
}
