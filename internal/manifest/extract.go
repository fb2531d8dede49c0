package manifest

import (
	"archive/tar"
	"archive/zip"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/MaaAssistantArknights/maa-cli-sub002/internal/errs"
	"github.com/klauspost/compress/gzip"
)

// Kind identifies an archive format, detected from a file's extension as
// original_source's Archive::new does.
type Kind int

const (
	KindUnknown Kind = iota
	KindZip
	KindTarGz
)

// DetectKind infers an archive Kind from its file name.
func DetectKind(name string) (Kind, error) {
	switch {
	case strings.HasSuffix(name, ".zip"):
		return KindZip, nil
	case strings.HasSuffix(name, ".tar.gz"), strings.HasSuffix(name, ".tgz"):
		return KindTarGz, nil
	default:
		return KindUnknown, errs.New(errs.Extract, "manifest.DetectKind", "unsupported archive type: "+name)
	}
}

// EntryKind classifies one archive entry.
type EntryKind int

const (
	EntryFile EntryKind = iota
	EntryDirectory
	EntrySymlink
)

// Entry describes one archive member, matching spec.md §3's Archive
// entry shape.
type Entry struct {
	Path string
	Kind EntryKind
	Mode os.FileMode
	Size int64
}

// Mapper maps an archive entry's path to a destination path, or returns
// ok=false to skip the entry. This is the caller-provided mapper of
// spec.md §4.6.
type Mapper func(entry Entry) (dest string, ok bool)

// Extract opens path (inferring its Kind from the name) and unpacks it
// via mapper.
func Extract(path string, mapper Mapper) error {
	kind, err := DetectKind(path)
	if err != nil {
		return err
	}
	switch kind {
	case KindZip:
		return extractZip(path, mapper)
	case KindTarGz:
		return extractTarGz(path, mapper)
	default:
		return errs.New(errs.Extract, "manifest.Extract", "unsupported archive type: "+path)
	}
}

const symlinkModeMask = 0o120000

func extractZip(path string, mapper Mapper) error {
	const op = "manifest.extractZip"
	r, err := zip.OpenReader(path)
	if err != nil {
		return errs.Wrap(errs.Extract, op, "failed to open zip archive", err)
	}
	defer r.Close()

	for _, f := range r.File {
		entry := Entry{
			Path: f.Name,
			Mode: f.Mode(),
			Size: int64(f.UncompressedSize64),
		}
		if f.FileInfo().IsDir() {
			entry.Kind = EntryDirectory
		} else if f.Mode()&os.ModeSymlink != 0 {
			entry.Kind = EntrySymlink
		}

		dest, ok := mapper(entry)
		if !ok {
			continue
		}
		if entry.Kind == EntryDirectory {
			continue
		}

		if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
			return errs.Wrap(errs.Extract, op, "failed to create destination directory", err)
		}

		rc, err := f.Open()
		if err != nil {
			return errs.Wrap(errs.Extract, op, "failed to open archive member: "+f.Name, err)
		}

		if entry.Kind == EntrySymlink {
			target, rerr := io.ReadAll(rc)
			rc.Close()
			if rerr != nil {
				return errs.Wrap(errs.Extract, op, "failed to read symlink target: "+f.Name, rerr)
			}
			_ = os.Remove(dest)
			if err := os.Symlink(string(target), dest); err != nil {
				return errs.Wrap(errs.Extract, op, "failed to create symlink: "+dest, err)
			}
			continue
		}

		out, err := os.Create(dest)
		if err != nil {
			rc.Close()
			return errs.Wrap(errs.Extract, op, "failed to create file: "+dest, err)
		}
		_, err = io.Copy(out, rc)
		rc.Close()
		out.Close()
		if err != nil {
			return errs.Wrap(errs.Extract, op, "failed to extract file: "+dest, err)
		}
		if err := os.Chmod(dest, f.Mode()); err != nil {
			return errs.Wrap(errs.Extract, op, "failed to set permissions: "+dest, err)
		}
	}
	return nil
}

func extractTarGz(path string, mapper Mapper) error {
	const op = "manifest.extractTarGz"
	f, err := os.Open(path)
	if err != nil {
		return errs.Wrap(errs.Extract, op, "failed to open archive", err)
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return errs.Wrap(errs.Extract, op, "failed to read gzip stream", err)
	}
	defer gz.Close()

	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return errs.Wrap(errs.Extract, op, "bad file path in tar.gz archive", err)
		}

		entry := Entry{
			Path: hdr.Name,
			Mode: os.FileMode(hdr.Mode),
			Size: hdr.Size,
		}
		switch hdr.Typeflag {
		case tar.TypeDir:
			entry.Kind = EntryDirectory
		case tar.TypeSymlink:
			entry.Kind = EntrySymlink
		}

		dest, ok := mapper(entry)
		if !ok {
			continue
		}

		if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
			return errs.Wrap(errs.Extract, op, "failed to create destination directory", err)
		}

		switch entry.Kind {
		case EntryDirectory:
			if err := os.MkdirAll(dest, entry.Mode); err != nil {
				return errs.Wrap(errs.Extract, op, "failed to create directory: "+dest, err)
			}
		case EntrySymlink:
			_ = os.Remove(dest)
			if err := os.Symlink(hdr.Linkname, dest); err != nil {
				return errs.Wrap(errs.Extract, op, "failed to create symlink: "+dest, err)
			}
		default:
			out, err := os.OpenFile(dest, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, entry.Mode)
			if err != nil {
				return errs.Wrap(errs.Extract, op, "failed to create file: "+dest, err)
			}
			_, err = io.Copy(out, tr)
			out.Close()
			if err != nil {
				return errs.Wrap(errs.Extract, op, "failed to extract file: "+dest, err)
			}
		}
	}
	return nil
}

// CoreLibraryMapper maps every non-directory archive member to the same
// relative path under destDir. Archive subdirectories are kept, and no
// member is filtered out by name: entries other than the shared library
// and the resource tree are extracted too.
func CoreLibraryMapper(destDir string) Mapper {
	return func(entry Entry) (string, bool) {
		if entry.Kind == EntryDirectory {
			return "", false
		}
		return filepath.Join(destDir, entry.Path), true
	}
}

// CLIBinaryMapper keeps only the single named binary entry, placing it
// at destPath.
func CLIBinaryMapper(binaryName, destPath string) Mapper {
	return func(entry Entry) (string, bool) {
		if entry.Kind != EntryFile {
			return "", false
		}
		if filepath.Base(entry.Path) != binaryName {
			return "", false
		}
		return destPath, true
	}
}
