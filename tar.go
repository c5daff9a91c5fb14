package nyarchiver

import (
	"archive/tar"
	"compress/bzip2"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/Defacto2/helper"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/ulikunitz/xz"
)

// Package file tar.go contains the Tape ARchive compression methods.

// untar extracts the src Tar archive into the dst directory.
// The format f selects the decompression of the tar stream, which is
// one of none, gzip, xz, Zstandard or bzip2.
func untar(src, dst string, f Format) error {
	file, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("tar %w: %w", ErrRead, err)
	}
	defer file.Close()
	r, err := decompressor(file, f)
	if err != nil {
		return fmt.Errorf("tar %s %w: %w", f, ErrRead, err)
	}
	defer r.Close()
	return untarReader(r, dst)
}

// decompressor returns a reader of the uncompressed tar stream of the format.
func decompressor(r io.Reader, f Format) (io.ReadCloser, error) {
	switch f {
	case Tar:
		return io.NopCloser(r), nil
	case TarGz:
		return gzip.NewReader(r)
	case TarXz:
		xr, err := xz.NewReader(r)
		if err != nil {
			return nil, err
		}
		return io.NopCloser(xr), nil
	case TarZst:
		zr, err := zstd.NewReader(r)
		if err != nil {
			return nil, err
		}
		return zr.IOReadCloser(), nil
	case TarBz2:
		return io.NopCloser(bzip2.NewReader(r)), nil
	}
	return nil, fmt.Errorf("%w: %s", ErrFormat, f)
}

// untarReader extracts the uncompressed tar stream r into the dst directory.
// Symbolic links are only restored when their target is within dst,
// and devices, FIFOs and other special files are skipped.
func untarReader(r io.Reader, dst string) error {
	tr := tar.NewReader(r)
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("tar %w: %w", ErrRead, err)
		}
		if err := untarEntry(tr, hdr, dst); err != nil {
			return fmt.Errorf("tar %s: %w", hdr.Name, err)
		}
	}
}

func untarEntry(tr *tar.Reader, hdr *tar.Header, dst string) error {
	name, err := within(dst, hdr.Name)
	if err != nil {
		return err
	}
	if name == dst {
		return nil
	}
	// the parent may be reached through links restored by earlier entries
	if err := inside(dst, filepath.Dir(name)); err != nil {
		return err
	}
	switch hdr.Typeflag {
	case tar.TypeDir:
		if err := inside(dst, name); err != nil {
			return err
		}
		return os.MkdirAll(name, dirMode)
	case tar.TypeReg:
		return untarFile(tr, hdr, name)
	case tar.TypeSymlink:
		return untarSymlink(hdr.Linkname, name, dst)
	case tar.TypeLink:
		target, err := within(dst, hdr.Linkname)
		if err != nil {
			return err
		}
		if err := inside(dst, target); err != nil {
			return err
		}
		if err := os.MkdirAll(filepath.Dir(name), dirMode); err != nil {
			return err
		}
		os.Remove(name)
		if err := os.Link(target, name); err == nil {
			return nil
		}
		// file systems without hard link support get a copy
		_, err = helper.DuplicateOW(target, name)
		return err
	}
	return nil
}

func untarFile(tr *tar.Reader, hdr *tar.Header, name string) error {
	if err := os.MkdirAll(filepath.Dir(name), dirMode); err != nil {
		return err
	}
	perm := hdr.FileInfo().Mode().Perm() | 0o600
	os.Remove(name)
	out, err := os.OpenFile(name, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, tr); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	mod := modtime(hdr.ModTime)
	return os.Chtimes(name, mod, mod)
}

func untarSymlink(link, name, dst string) error {
	if filepath.IsAbs(link) {
		return nil
	}
	parent, err := resolve(filepath.Dir(name))
	if err != nil {
		return err
	}
	realDst, err := filepath.EvalSymlinks(dst)
	if err != nil {
		return err
	}
	if !contains(realDst, filepath.Join(parent, filepath.FromSlash(link))) {
		// the link points outside of the workspace
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(name), dirMode); err != nil {
		return err
	}
	os.Remove(name)
	return os.Symlink(link, name)
}

// tarDir writes the root directory to the dst Tar archive using the compression of the format.
// The dst file must not exist.
func tarDir(root, dst string, f Format) error {
	file, err := os.OpenFile(dst, os.O_RDWR|os.O_CREATE|os.O_EXCL, WriteWriteRead)
	if err != nil {
		return fmt.Errorf("tar create %w", err)
	}
	defer file.Close()
	cw, err := compressor(file, f)
	if err != nil {
		return fmt.Errorf("tar %s %w: %w", f, ErrWrite, err)
	}
	tw := tar.NewWriter(cw)
	if err := tarWalk(tw, root); err != nil {
		return fmt.Errorf("tar walk %w", err)
	}
	if err := tw.Close(); err != nil {
		return fmt.Errorf("tar close %w", err)
	}
	if err := cw.Close(); err != nil {
		return fmt.Errorf("tar %s close %w", f, err)
	}
	return file.Close()
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }

// compressor returns a writer that compresses the tar stream of the format.
func compressor(w io.Writer, f Format) (io.WriteCloser, error) {
	switch f {
	case Tar:
		return nopWriteCloser{w}, nil
	case TarGz:
		return gzip.NewWriterLevel(w, gzip.BestCompression)
	case TarXz:
		return xz.NewWriter(w)
	case TarZst:
		return zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedBetterCompression))
	}
	return nil, fmt.Errorf("%w: %s", ErrWrite, f)
}

func tarWalk(tw *tar.Writer, root string) error {
	return filepath.WalkDir(root, func(name string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if name == root {
			return nil
		}
		rel, err := filepath.Rel(root, name)
		if err != nil {
			return err
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		link := ""
		if info.Mode()&fs.ModeSymlink != 0 {
			if link, err = os.Readlink(name); err != nil {
				return err
			}
		}
		hdr, err := tar.FileInfoHeader(info, link)
		if err != nil {
			// sockets and other special files cannot be archived
			return nil
		}
		hdr.Name = filepath.ToSlash(rel)
		if info.IsDir() {
			hdr.Name += "/"
		}
		if err := tw.WriteHeader(hdr); err != nil {
			return err
		}
		if !info.Mode().IsRegular() {
			return nil
		}
		r, err := os.Open(name)
		if err != nil {
			return err
		}
		defer r.Close()
		_, err = io.Copy(tw, r)
		return err
	})
}
