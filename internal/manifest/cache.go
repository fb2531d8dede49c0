package manifest

import (
	"context"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/MaaAssistantArknights/maa-cli-sub002/internal/errs"
)

// DownloadWithETag implements spec.md §4.6's optional manifest cache:
// a conditional-GET helper storing the last ETag next to dest, grounded
// on original_source's crates/maa-installer/src/download/etag.rs.
// checkInterval of zero disables the in-process short-circuit.
func DownloadWithETag(ctx context.Context, client *http.Client, url, dest string, checkInterval time.Duration) error {
	const op = "manifest.DownloadWithETag"
	etagFile := dest + ".etag"

	var etag string
	if fileExists(dest) && fileExists(etagFile) {
		if checkInterval > 0 {
			if info, err := os.Stat(etagFile); err == nil {
				if time.Since(info.ModTime()) < checkInterval {
					return nil
				}
			}
		}
		if b, err := os.ReadFile(etagFile); err == nil {
			etag = string(b)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return errs.Wrap(errs.Network, op, "failed to build request", err)
	}
	if etag != "" {
		req.Header.Set("If-None-Match", etag)
	}
	resp, err := client.Do(req)
	if err != nil {
		return errs.Wrap(errs.Network, op, "failed to fetch manifest", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		if newEtag := resp.Header.Get("ETag"); newEtag != "" {
			if err := os.WriteFile(etagFile, []byte(newEtag), 0o644); err != nil {
				return errs.Wrap(errs.IO, op, "failed to write etag file", err)
			}
		}
		out, err := os.Create(dest)
		if err != nil {
			return errs.Wrap(errs.IO, op, "failed to create manifest file", err)
		}
		defer out.Close()
		if _, err := io.Copy(out, resp.Body); err != nil {
			return errs.Wrap(errs.IO, op, "failed to write manifest file", err)
		}
		return nil
	case http.StatusNotModified:
		now := time.Now()
		return os.Chtimes(etagFile, now, now)
	default:
		return errs.New(errs.Network, op, "unexpected manifest status code")
	}
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
