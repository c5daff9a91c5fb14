package nyarchiver

// Package file find.go contains the filename search and matching functions.

import (
	"cmp"
	"path"
	"slices"
	"strings"
)

// Finds are a collection of matched filenames and their usability ranking.
type Finds map[string]Usability

// BestMatch returns the most usable filename from a collection of finds.
// Equally usable files are ranked by their directory depth and then by name.
func (f Finds) BestMatch() string {
	if len(f) == 0 {
		return ""
	}
	names := make([]string, 0, len(f))
	for name := range f {
		names = append(names, name)
	}
	slices.SortFunc(names, func(a, b string) int {
		return cmp.Or(
			cmp.Compare(f[a], f[b]),
			cmp.Compare(strings.Count(a, "/"), strings.Count(b, "/")),
			cmp.Compare(a, b),
		)
	})
	return names[0]
}

// Readme returns the best matching README, NFO or text file from a collection of files.
// The archive is the filename of the archive, and the files are the slash-separated
// paths within the archive. The filename matches are case-insensitive as many
// archives are created on Windows or MS-DOS file systems.
func Readme(archive string, files ...string) string {
	finds := make(Finds)
	base := strings.ToLower(archive)
	if f, err := FormatOf(base); err == nil {
		base = strings.TrimSuffix(base, f.Ext())
	} else {
		base = strings.TrimSuffix(base, path.Ext(base))
	}
	for _, file := range files {
		name := strings.ToLower(path.Base(file))
		if lvl, ok := usability(name, base); ok {
			finds[file] = lvl
		}
	}
	return finds.BestMatch()
}

const (
	diz = ".diz"
	md  = ".md"
	nfo = ".nfo"
	txt = ".txt"
)

// usability returns the ranking of the lowercase filename name,
// where base is the lowercase archive name without its extension.
func usability(name, base string) (Usability, bool) {
	ext := path.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	switch ext {
	case "", diz, md, nfo, txt, ".me", ".1st":
	default:
		return 0, false
	}
	switch {
	case base != "" && name == base+nfo:
		// [archive name].nfo
		return Lvl1, true
	case base != "" && name == base+txt:
		// [archive name].txt
		return Lvl2, true
	case stem == "readme" || name == "read.me" || name == "readme.1st":
		return Lvl3, true
	case ext == nfo:
		// [random].nfo
		return Lvl4, true
	case name == "file_id.diz":
		// BBS file description
		return Lvl5, true
	case base != "" && (name == base+diz || name == base+md):
		return Lvl6, true
	case ext == txt || ext == md:
		// [random].txt
		return Lvl7, true
	case ext == diz:
		// [random].diz
		return Lvl8, true
	}
	return 0, false
}

// Usability of search, filename pattern matches.
type Usability uint

const (
	// Lvl1 is the highest usability.
	Lvl1 Usability = iota + 1
	Lvl2
	Lvl3
	Lvl4
	Lvl5
	Lvl6
	Lvl7
	Lvl8 // Lvl8 is the least usable.
)
