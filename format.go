package nyarchiver

// Package file format.go contains the archive format names and their detection.

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Defacto2/magicnumber"
)

// Format is the canonical name of an archive format.
type Format string

const (
	Zip    Format = "zip"     // Phil Katz's ZIP for MS-DOS systems
	Tar    Format = "tar"     // Tape ARchive by AT&T Bell Labs
	TarGz  Format = "tar.gz"  // Tape ARchive with GNU Zip compression
	TarXz  Format = "tar.xz"  // Tape ARchive with XZ Utils compression
	TarZst Format = "tar.zst" // Tape ARchive with Zstandard compression
	TarBz2 Format = "tar.bz2" // Tape ARchive with bzip2 compression
	Gz     Format = "gz"      // GNU Zip by Jean-loup Gailly and Mark Adler
	Zip7   Format = "7z"      // 7-Zip by Igor Pavlov
	Rar    Format = "rar"     // Roshal ARchive by Alexander Roshal
	Cab    Format = "cab"     // Microsoft Cabinet
	Arj    Format = "arj"     // Archived by Robert Jung
	Lha    Format = "lha"     // LHarc by Haruyasu Yoshizaki (Yoshi)
)

// Formats are all the supported formats.
var Formats = []Format{Zip, Tar, TarGz, TarXz, TarZst, TarBz2, Gz, Zip7, Rar, Cab, Arj, Lha}

// aliases are the alternative names accepted by ParseFormat.
var aliases = map[string]Format{
	"tgz":  TarGz,
	"txz":  TarXz,
	"xz":   TarXz,
	"tzst": TarZst,
	"zst":  TarZst,
	"tbz":  TarBz2,
	"tbz2": TarBz2,
	"bz2":  TarBz2,
	"lzh":  Lha,
	"7zip": Zip7,
}

// suffixes are matched against filenames in order, so compound
// extensions must come before their final extension.
var suffixes = []struct {
	ext string
	fmt Format
}{
	{".tar.gz", TarGz},
	{".tar.xz", TarXz},
	{".tar.zst", TarZst},
	{".tar.bz2", TarBz2},
	{".tgz", TarGz},
	{".txz", TarXz},
	{".tzst", TarZst},
	{".tbz2", TarBz2},
	{".tbz", TarBz2},
	{".tar", Tar},
	{".gz", Gz},
	{".xz", TarXz},
	{".zst", TarZst},
	{".bz2", TarBz2},
	{".zip", Zip},
	{".7z", Zip7},
	{".rar", Rar},
	{".cab", Cab},
	{".arj", Arj},
	{".lha", Lha},
	{".lzh", Lha},
}

// ParseFormat returns the format of the named format or alias.
// The name is case-insensitive and may use a leading dot.
func ParseFormat(name string) (Format, error) {
	s := strings.TrimPrefix(strings.ToLower(strings.TrimSpace(name)), ".")
	for _, f := range Formats {
		if s == string(f) {
			return f, nil
		}
	}
	if f, ok := aliases[s]; ok {
		return f, nil
	}
	return "", fmt.Errorf("format %w: %q", ErrFormat, name)
}

// FormatOf returns the format of the named file using its extension.
func FormatOf(name string) (Format, error) {
	base := strings.ToLower(filepath.Base(name))
	for _, s := range suffixes {
		if strings.HasSuffix(base, s.ext) && len(base) > len(s.ext) {
			return s.fmt, nil
		}
	}
	return "", fmt.Errorf("format of %w: %q", ErrFormat, filepath.Base(name))
}

// Sniff returns the format of the named file using its file signature.
func Sniff(name string) (Format, error) {
	r, err := os.Open(name)
	if err != nil {
		return "", fmt.Errorf("sniff open %w", err)
	}
	defer r.Close()
	sign, err := magicnumber.Archive(r)
	if err != nil {
		return "", fmt.Errorf("sniff magic %w", err)
	}
	switch sign { //nolint:exhaustive
	case
		magicnumber.PKWAREZip,
		magicnumber.PKWAREZip64,
		magicnumber.PKWAREZipImplode,
		magicnumber.PKWAREZipReduce,
		magicnumber.PKWAREZipShrink:
		return Zip, nil
	case magicnumber.TapeARchive:
		return Tar, nil
	case magicnumber.GzipCompressArchive:
		return Gz, nil
	case magicnumber.XZCompressArchive:
		return TarXz, nil
	case magicnumber.ZStandardArchive:
		return TarZst, nil
	case magicnumber.Bzip2CompressArchive:
		return TarBz2, nil
	case magicnumber.X7zCompressArchive:
		return Zip7, nil
	case magicnumber.RoshalARchive, magicnumber.RoshalARchivev5:
		return Rar, nil
	case magicnumber.MicrosoftCABinet:
		return Cab, nil
	case magicnumber.ArchiveRobertJung:
		return Arj, nil
	case magicnumber.YoshiLHA:
		return Lha, nil
	case magicnumber.Unknown:
		return "", fmt.Errorf("sniff %w: %s", ErrNotArchive, filepath.Base(name))
	}
	return "", fmt.Errorf("sniff %w: %s", ErrFormat, sign)
}

// Resolve returns the format for the named archive.
// A non-empty override is always used, otherwise the extension is used
// and as a last resort the file signature of an existing file.
func Resolve(name, override string) (Format, error) {
	if override != "" {
		return ParseFormat(override)
	}
	f, err := FormatOf(name)
	if err == nil {
		return f, nil
	}
	if _, serr := os.Stat(name); serr != nil {
		return "", err
	}
	return Sniff(name)
}

// Readable returns true if archives of the format can be imported.
func (f Format) Readable() bool {
	switch f {
	case Zip, Tar, TarGz, TarXz, TarZst, TarBz2, Gz, Zip7, Rar, Cab, Arj, Lha:
		return true
	}
	return false
}

// Writable returns true if archives of the format can be exported.
func (f Format) Writable() bool {
	switch f {
	case Zip, Tar, TarGz, TarXz, TarZst, Zip7:
		return true
	}
	return false
}

// Encryptable returns true if exported archives of the format can use a password.
func (f Format) Encryptable() bool {
	return f == Zip || f == Zip7
}

// Ext returns the filename extension of the format, including the leading dot.
func (f Format) Ext() string {
	return "." + string(f)
}

func (f Format) String() string {
	return string(f)
}
