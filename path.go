package nyarchiver

// Package file path.go contains the path-within-archive handling.

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/Defacto2/helper"
)

// Clean returns the normalized, slash-separated form of a path within an archive.
// Leading separators are removed and the root is returned as ".".
// ErrUnsafePath is returned when the path climbs above the root.
func Clean(name string) (string, error) {
	s := strings.ReplaceAll(name, `\`, "/")
	s = strings.TrimLeft(path.Clean(s), "/")
	if s == "" {
		s = "."
	}
	if s == ".." || strings.HasPrefix(s, "../") {
		return "", fmt.Errorf("%w: %q", ErrUnsafePath, name)
	}
	return s, nil
}

// within returns the filesystem path of the named archive path inside root.
func within(root, name string) (string, error) {
	s, err := Clean(name)
	if err != nil {
		return "", err
	}
	return filepath.Join(root, filepath.FromSlash(s)), nil
}

// resolve returns the real path of name, following the symbolic links of
// its deepest existing ancestor. The missing trailing elements are kept.
func resolve(name string) (string, error) {
	rest := ""
	for p := name; ; {
		if _, err := os.Lstat(p); err == nil {
			resolved, err := filepath.EvalSymlinks(p)
			if err != nil {
				return "", err
			}
			return filepath.Join(resolved, rest), nil
		}
		parent := filepath.Dir(p)
		if parent == p {
			return name, nil
		}
		rest = filepath.Join(filepath.Base(p), rest)
		p = parent
	}
}

// inside returns ErrUnsafePath unless the real path of name, with every
// symbolic link resolved, is root or within root.
func inside(root, name string) error {
	realRoot, err := filepath.EvalSymlinks(root)
	if err != nil {
		return err
	}
	resolved, err := resolve(name)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrUnsafePath, name, err)
	}
	if !contains(realRoot, resolved) {
		return fmt.Errorf("%w: %s", ErrUnsafePath, name)
	}
	return nil
}

// contains returns true if the lexical path name is root or within root.
func contains(root, name string) bool {
	rel, err := filepath.Rel(root, name)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// pruneLinks removes the symbolic links in root that are dangling
// or that resolve to a path outside of root.
func pruneLinks(root string) (int, error) {
	realRoot, err := filepath.EvalSymlinks(root)
	if err != nil {
		return 0, err
	}
	pruned := 0
	err = filepath.WalkDir(root, func(name string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.Type()&fs.ModeSymlink == 0 {
			return nil
		}
		if resolved, err := filepath.EvalSymlinks(name); err == nil && contains(realRoot, resolved) {
			return nil
		}
		if err := os.Remove(name); err != nil {
			return err
		}
		pruned++
		return nil
	})
	if err != nil {
		return pruned, fmt.Errorf("prune links %w", err)
	}
	return pruned, nil
}

// isDir returns true if name is an existing directory.
func isDir(name string) bool {
	st, err := os.Stat(name)
	return err == nil && st.IsDir()
}

// copyTree copies the files and directories of src into dst, overwriting
// any existing files. Symbolic links are followed, except for links to
// directories, which are skipped.
func copyTree(src, dst string) (int, error) {
	copied := 0
	err := filepath.WalkDir(src, func(name string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, name)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if d.IsDir() {
			return os.MkdirAll(target, dirMode)
		}
		st, err := os.Stat(name)
		if errors.Is(err, fs.ErrNotExist) {
			// dangling symbolic link
			return nil
		}
		if err != nil {
			return err
		}
		if !st.Mode().IsRegular() {
			return nil
		}
		if err := os.MkdirAll(filepath.Dir(target), dirMode); err != nil {
			return err
		}
		if _, err := helper.DuplicateOW(name, target); err != nil {
			return fmt.Errorf("duplicate %w", err)
		}
		copied++
		return nil
	})
	if err != nil {
		return copied, fmt.Errorf("copy tree %w", err)
	}
	return copied, nil
}
