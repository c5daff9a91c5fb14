package nyarchiver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zip"
	"github.com/klauspost/compress/zstd"
	"github.com/nercone/nyarchiver/pkzip"
	"github.com/nercone/nyarchiver/rezip"
)

// Package file zip.go contains the ZIP compression methods.

// unzip extracts the src ZIP archive into the workspace.
// The format is credited to Phil Katz.
//
// Unencrypted archives using the Store, Deflate or Zstandard methods are
// extracted in Go. Encrypted archives and archives using obsolete methods
// such as Implode or Shrink are delegated to the 7-Zip program.
func (w *Workspace) unzip(ctx context.Context, src, password string) error {
	native, err := pkzip.Zip(src)
	switch {
	case errors.Is(err, pkzip.ErrPassParse):
		if password == "" {
			w.log.Warn("ZIP is encrypted. Use password.")
			return fmt.Errorf("zip %w: archive is encrypted", ErrPassword)
		}
		return w.zip7Extract(ctx, src, password)
	case err != nil:
		return fmt.Errorf("zip %w: %w", ErrRead, err)
	case !native:
		w.log.Debug("zip uses an obsolete method, using 7-zip", "archive", src)
		return w.zip7Extract(ctx, src, "")
	}
	return unzip(src, w.dir)
}

// unzip extracts the unencrypted src ZIP archive into the dst directory.
func unzip(src, dst string) error {
	r, err := zip.OpenReader(src)
	if err != nil {
		return fmt.Errorf("zip %w: %w", ErrRead, err)
	}
	defer r.Close()
	r.RegisterDecompressor(zstd.ZipMethodWinZip, zstd.ZipDecompressor())
	for _, f := range r.File {
		if err := unzipFile(f, dst); err != nil {
			return fmt.Errorf("zip %s: %w", f.Name, err)
		}
	}
	return nil
}

func unzipFile(f *zip.File, dst string) error {
	name, err := within(dst, f.Name)
	if err != nil {
		return err
	}
	if err := inside(dst, filepath.Dir(name)); err != nil {
		return err
	}
	if f.FileInfo().IsDir() || strings.HasSuffix(f.Name, "/") {
		return os.MkdirAll(name, dirMode)
	}
	if !f.Mode().IsRegular() {
		// symbolic links and devices are not restored
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(name), dirMode); err != nil {
		return err
	}
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()
	perm := f.Mode().Perm() | 0o600
	out, err := os.OpenFile(name, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, rc); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	mod := modtime(f.Modified)
	return os.Chtimes(name, mod, mod)
}

// zip writes the workspace to the dst ZIP archive using the Deflate method.
// Encrypted archives use AES-256 and are created by the 7-Zip program.
func (w *Workspace) zip(ctx context.Context, dst string) error {
	if w.Encrypted() {
		return w.zip7Create(ctx, dst, zipType)
	}
	n, err := rezip.CompressDir(w.dir, dst)
	if err != nil {
		return fmt.Errorf("zip %w", err)
	}
	if err := rezip.Test(dst); err != nil {
		return fmt.Errorf("zip %w", err)
	}
	w.log.Debug("zip written", "bytes", n, "dest", dst)
	return nil
}
