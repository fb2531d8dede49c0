// Package download implements the Range-resuming single-file HTTP
// downloader of spec.md §4.4, grounded on original_source's
// crates/maa-installer/src/download/download_impl.rs. No repo in the
// retrieval pack imports an HTTP client library (resty, retryablehttp,
// fasthttp); net/http is the only option any pack repo demonstrates, so
// this package is stdlib-only — see DESIGN.md.
package download

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/MaaAssistantArknights/maa-cli-sub002/internal/errs"
	"github.com/MaaAssistantArknights/maa-cli-sub002/internal/verify"
	"go.uber.org/zap"
)

// Progress is notified as bytes arrive. SetTotal(0) means the total is
// unknown (no Content-Length).
type Progress interface {
	SetTotal(total int64)
	SetPosition(pos int64)
	Inc(n int64)
}

// NoopProgress discards all progress notifications.
type NoopProgress struct{}

func (NoopProgress) SetTotal(int64)    {}
func (NoopProgress) SetPosition(int64) {}
func (NoopProgress) Inc(int64)         {}

const chunkSize = 8192

func partialPath(dest string) string {
	return dest + ".partial"
}

// Download fetches url into dest with Range-resume support, streaming
// through verifier, following the 9-step protocol of spec.md §4.4.
func Download(ctx context.Context, client *http.Client, log *zap.Logger, url, dest string, progress Progress, v verify.Verifier) error {
	const op = "download.Download"
	partial := partialPath(dest)

	var resumeFrom int64
	if info, err := os.Stat(partial); err == nil {
		resumeFrom = info.Size()
	} else if !os.IsNotExist(err) {
		return errs.Wrap(errs.IO, op, "failed to stat partial file", err)
	}

	resp, err := doGet(ctx, client, url, resumeFrom)
	if err != nil {
		return errs.Wrap(errs.Network, op, "failed to send download request", err)
	}

	if resumeFrom > 0 && resp.StatusCode != http.StatusPartialContent {
		resp.Body.Close()
		if err := os.Remove(partial); err != nil && !os.IsNotExist(err) {
			return errs.Wrap(errs.IO, op, "failed to remove partial file", err)
		}
		log.Debug("server does not support range requests, restarting from scratch", zap.String("url", url))
		resumeFrom = 0
		resp, err = doGet(ctx, client, url, 0)
		if err != nil {
			return errs.Wrap(errs.Network, op, "failed to send download request", err)
		}
	}
	defer resp.Body.Close()

	file, err := openPartial(partial, resumeFrom, v)
	if err != nil {
		return errs.Wrap(errs.IO, op, "failed to prepare partial file", err)
	}

	total := resp.ContentLength
	if total >= 0 {
		progress.SetTotal(resumeFrom + total)
	} else {
		progress.SetTotal(0)
	}
	progress.SetPosition(resumeFrom)

	buf := make([]byte, chunkSize)
	for {
		n, rerr := resp.Body.Read(buf)
		if n > 0 {
			chunk := buf[:n]
			if _, werr := file.Write(chunk); werr != nil {
				file.Close()
				return errs.Wrap(errs.IO, op, "failed to write data to file", werr)
			}
			progress.Inc(int64(n))
			v.Update(chunk)
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			file.Close()
			return errs.Wrap(errs.Network, op, "failed to read response body", rerr)
		}
	}

	if err := file.Sync(); err != nil {
		file.Close()
		return errs.Wrap(errs.IO, op, "failed to flush downloaded data", err)
	}
	if err := file.Close(); err != nil {
		return errs.Wrap(errs.IO, op, "failed to close downloaded file", err)
	}

	if err := v.Verify(); err != nil {
		_ = os.Remove(partial)
		return err
	}

	if err := os.Rename(partial, dest); err != nil {
		return errs.Wrap(errs.IO, op, "failed to rename partial file", err)
	}
	return nil
}

func doGet(ctx context.Context, client *http.Client, url string, resumeFrom int64) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	if resumeFrom > 0 {
		req.Header.Set("Range", fmt.Sprintf("bytes=%d-", resumeFrom))
	}
	return client.Do(req)
}

// openPartial opens the partial file for append, replaying any existing
// bytes through v when resuming, or creates it fresh.
func openPartial(partial string, resumeFrom int64, v verify.Verifier) (*os.File, error) {
	if resumeFrom > 0 {
		file, err := os.OpenFile(partial, os.O_RDWR, 0o644)
		if err != nil {
			return nil, err
		}
		if _, err := file.Seek(0, io.SeekStart); err != nil {
			file.Close()
			return nil, err
		}
		if err := v.UpdateReader(io.LimitReader(file, resumeFrom)); err != nil {
			file.Close()
			return nil, err
		}
		if _, err := file.Seek(0, io.SeekEnd); err != nil {
			file.Close()
			return nil, err
		}
		return file, nil
	}
	return os.Create(partial)
}
