// Package pkzip inspects the central directory of a zip archive for the
// compression methods and the encryption of its entries.
package pkzip

import (
	"errors"
	"fmt"

	"github.com/klauspost/compress/zip"
)

var (
	ErrPassParse = errors.New("zip archive entries are password protected")
	ErrRead      = errors.New("could not read the zip archive")
)

// Compression is the compression method of a zip archive entry.
type Compression uint16

const (
	Stored    Compression = 0  // Stored is no compression.
	Shrunk    Compression = 1  // Shrunk is LZW compression used by PKZIP 1.
	Reduced1  Compression = 2  // Reduced1 is reduce with compression factor 1.
	Reduced2  Compression = 3  // Reduced2 is reduce with compression factor 2.
	Reduced3  Compression = 4  // Reduced3 is reduce with compression factor 3.
	Reduced4  Compression = 5  // Reduced4 is reduce with compression factor 4.
	Imploded  Compression = 6  // Imploded is the PKZIP 1 implode method.
	Deflated  Compression = 8  // Deflated is the common Deflate method.
	Deflate64 Compression = 9  // Deflate64 is the enhanced deflate method.
	BZIP2     Compression = 12 // BZIP2 is the bzip2 method.
	LZMA      Compression = 14 // LZMA is the LZMA method.
	Zstandard Compression = 93 // Zstandard is the zstd method.
	XZ        Compression = 95 // XZ is the xz method.
	AES       Compression = 99 // AES is the WinZip AES encryption marker.
)

// flagEncrypted is bit 0 of the general purpose flag.
const flagEncrypted = 0x1

func (c Compression) String() string {
	switch c {
	case Stored:
		return "Stored"
	case Shrunk:
		return "Shrunk"
	case Reduced1, Reduced2, Reduced3, Reduced4:
		return "Reduced"
	case Imploded:
		return "Imploded"
	case Deflated:
		return "Deflated"
	case Deflate64:
		return "Deflate64"
	case BZIP2:
		return "BZIP2"
	case LZMA:
		return "LZMA"
	case Zstandard:
		return "Zstandard"
	case XZ:
		return "XZ"
	case AES:
		return "AES"
	}
	return "Reserved"
}

// Zip returns true if the method can be decompressed by the Go zip reader
// with the zstd decompressor registered.
func (c Compression) Zip() bool {
	switch c {
	case Stored, Deflated, Zstandard:
		return true
	}
	return false
}

// Methods returns the compression method of every entry in the named zip archive.
func Methods(name string) ([]Compression, error) {
	r, err := zip.OpenReader(name)
	if err != nil {
		return nil, fmt.Errorf("pkzip methods %w: %w", ErrRead, err)
	}
	defer r.Close()
	comps := make([]Compression, 0, len(r.File))
	for _, f := range r.File {
		comps = append(comps, Compression(f.Method))
	}
	return comps, nil
}

// Encrypted returns true if any entry of the named zip archive is encrypted,
// using either the traditional PKWARE encryption or WinZip AES.
func Encrypted(name string) (bool, error) {
	r, err := zip.OpenReader(name)
	if err != nil {
		return false, fmt.Errorf("pkzip encrypted %w: %w", ErrRead, err)
	}
	defer r.Close()
	for _, f := range r.File {
		if f.Flags&flagEncrypted != 0 || Compression(f.Method) == AES {
			return true, nil
		}
	}
	return false, nil
}

// Zip returns true if every entry of the named zip archive is unencrypted
// and uses a compression method supported by the Go zip reader.
// ErrPassParse is returned for encrypted archives.
func Zip(name string) (bool, error) {
	encrypted, err := Encrypted(name)
	if err != nil {
		return false, err
	}
	if encrypted {
		return false, ErrPassParse
	}
	comps, err := Methods(name)
	if err != nil {
		return false, err
	}
	for _, c := range comps {
		if !c.Zip() {
			return false, nil
		}
	}
	return true, nil
}
