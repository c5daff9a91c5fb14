package nyarchiver

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
)

// Package file gzip.go contains the single file Gzip compression methods.

const (
	tarMagicOffset = 257 // tarMagicOffset is the position of the ustar magic in a tar header.
	tarHeaderSize  = 512
)

// gunzip decompresses the src [gzip] file into the dst directory.
// Unlike the container formats, gzip only compresses a single file.
// When the decompressed payload is a tar stream, it is extracted as a
// gzip compressed Tar archive.
//
// The name of the decompressed file is taken from the gzip header,
// otherwise it is the src filename without the gzip extension.
//
// [gzip]: https://www.gnu.org/software/gzip/
func gunzip(src, dst string) error {
	file, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("gzip %w: %w", ErrRead, err)
	}
	defer file.Close()
	zr, err := gzip.NewReader(file)
	if err != nil {
		return fmt.Errorf("gzip %w: %w", ErrRead, err)
	}
	defer zr.Close()
	br := bufio.NewReaderSize(zr, tarHeaderSize)
	if isTar(br) {
		return untarReader(br, dst)
	}
	base := filepath.Base(filepath.FromSlash(strings.ReplaceAll(zr.Name, `\`, "/")))
	if base == "." || base == string(filepath.Separator) || base == "" || base == ".." {
		base = GzipName(src)
	}
	name, err := within(dst, base)
	if err != nil {
		return fmt.Errorf("gzip %w", err)
	}
	out, err := os.OpenFile(name, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, WriteWriteRead)
	if err != nil {
		return fmt.Errorf("gzip create %w", err)
	}
	if _, err := io.Copy(out, br); err != nil {
		out.Close()
		return fmt.Errorf("gzip %w: %w", ErrRead, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("gzip close %w", err)
	}
	mod := modtime(zr.ModTime)
	return os.Chtimes(name, mod, mod)
}

// isTar returns true if the buffered stream begins with a POSIX or GNU tar header.
func isTar(br *bufio.Reader) bool {
	p, err := br.Peek(tarHeaderSize)
	if err != nil || len(p) < tarHeaderSize {
		return false
	}
	return bytes.HasPrefix(p[tarMagicOffset:], []byte("ustar"))
}

// GzipName returns the decompressed filename of the src gzip file.
// The .gz extension is removed and the .tgz extension is replaced by .tar.
// A filename without either extension is given the .out extension.
func GzipName(src string) string {
	base := filepath.Base(src)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	switch strings.ToLower(ext) {
	case ".gz":
		if stem != "" {
			return stem
		}
	case ".tgz":
		if stem != "" {
			return stem + ".tar"
		}
	}
	return base + ".out"
}
