// Package rezip provides compression for files and directories to create
// zip archives using the universal Store and Deflate compression methods.
package rezip

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/Defacto2/helper"
	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/zip"
	"github.com/klauspost/compress/zstd"
)

const (
	createUnique = os.O_RDWR | os.O_CREATE | os.O_EXCL

	bufSize = 64 * 1024
)

var ErrTest = errors.New("rezip test failed")

// newWriter returns a zip writer using the best Deflate compression.
func newWriter(w io.Writer) *zip.Writer {
	zw := zip.NewWriter(w)
	zw.RegisterCompressor(zip.Deflate, func(out io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(out, flate.BestCompression)
	})
	return zw
}

// CompressDir compresses the named root directory into the dest zip file
// using the Deflate method. Entries are named relative to root and
// directories are stored as entries of their own. The total number
// of bytes written to the zip file is returned.
//
// The dest must be a valid file path and should include the .zip extension.
// If the dest file already exists, an error is returned.
func CompressDir(root, dest string) (int64, error) {
	zipfile, err := os.OpenFile(dest, createUnique, helper.WriteWriteRead)
	if err != nil {
		return 0, fmt.Errorf("rezip compress dir failed to open file: %w", err)
	}
	defer zipfile.Close()

	deflater := newWriter(zipfile)
	var written int64
	walk := func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("add file: %w", err)
		}
		if self := path == root; self {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return fmt.Errorf("add file: %w", err)
		}
		info, err := d.Info()
		if err != nil {
			return fmt.Errorf("add file: %w", err)
		}
		if info.IsDir() {
			return addDir(deflater, filepath.ToSlash(rel), info)
		}
		if !info.Mode().IsRegular() {
			return nil
		}
		n, err := addFile(deflater, path, filepath.ToSlash(rel), info)
		written += n
		return err
	}
	if err := filepath.WalkDir(root, walk); err != nil {
		return 0, fmt.Errorf("rezip compress dir failed to add file: %w", err)
	}
	if err := deflater.Close(); err != nil {
		return 0, fmt.Errorf("rezip compress dir failed to close writer: %w", err)
	}
	return written, nil
}

func addDir(w *zip.Writer, name string, info fs.FileInfo) error {
	fh, err := zip.FileInfoHeader(info)
	if err != nil {
		return fmt.Errorf("add dir: %w", err)
	}
	fh.Name = name + "/"
	if _, err := w.CreateHeader(fh); err != nil {
		return fmt.Errorf("add dir: %w", err)
	}
	return nil
}

func addFile(w *zip.Writer, path, name string, info fs.FileInfo) (int64, error) {
	fh, err := zip.FileInfoHeader(info)
	if err != nil {
		return 0, fmt.Errorf("add file: %w", err)
	}
	fh.Name = name
	fh.Method = zip.Deflate
	dst, err := w.CreateHeader(fh)
	if err != nil {
		return 0, fmt.Errorf("add file: %w", err)
	}
	src, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("add file: %w", err)
	}
	defer src.Close()
	buf := make([]byte, bufSize)
	n, err := io.CopyBuffer(dst, src, buf)
	if err != nil {
		return n, fmt.Errorf("add file: %w", err)
	}
	return n, nil
}

// Test reads every entry of the named zip file so the stored checksums are
// verified. If the file is a directory, empty or not a usable zip, an error
// is returned.
func Test(name string) error {
	inf, err := os.Stat(name)
	if err != nil {
		return fmt.Errorf("rezip test failed to stat file: %w", err)
	}
	if inf.IsDir() {
		return fmt.Errorf("%w: %s is a directory", ErrTest, name)
	}
	if inf.Size() == 0 {
		return fmt.Errorf("%w: %s is empty", ErrTest, name)
	}
	r, err := zip.OpenReader(name)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrTest, err)
	}
	defer r.Close()
	r.RegisterDecompressor(zstd.ZipMethodWinZip, zstd.ZipDecompressor())
	for _, f := range r.File {
		if err := verify(f); err != nil {
			return fmt.Errorf("%w: %s: %w", ErrTest, f.Name, err)
		}
	}
	return nil
}

func verify(f *zip.File) error {
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()
	_, err = io.Copy(io.Discard, rc)
	return err
}
