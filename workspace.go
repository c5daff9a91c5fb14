package nyarchiver

// Package file workspace.go contains the temporary working state of an archive.

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/Defacto2/helper"
	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/nercone/nyarchiver/command"
)

// Workspace is a temporary directory holding the extracted content of an
// archive. The content is modified in place and then exported to a new archive.
//
//	func Repack() error {
//	    w, err := nyarchiver.New()
//	    if err != nil {
//	        return err
//	    }
//	    defer w.Close()
//	    ctx := context.Background()
//	    if err := w.Import(ctx, "archive.rar", ""); err != nil {
//	        return err
//	    }
//	    return w.Export(ctx, "archive.7z", "")
//	}
type Workspace struct {
	dir      string
	parent   string
	log      *log.Logger
	sevenZip string
	unrar    string
	timeout  time.Duration
	fallback Format

	password string // password is used to encrypt exports.
	imported string // imported is the path of the last import.
	pending  bool   // pending is set when the last import failed for its password.
	closed   bool
}

// Option configures a Workspace.
type Option func(*Workspace)

// WithLogger sets the logger, by default nothing is logged.
func WithLogger(l *log.Logger) Option {
	return func(w *Workspace) {
		if l != nil {
			w.log = l
		}
	}
}

// WithPrograms sets the names or paths of the 7-Zip and unrar programs.
// Empty names keep the defaults.
func WithPrograms(sevenZip, unrar string) Option {
	return func(w *Workspace) {
		if sevenZip != "" {
			w.sevenZip = sevenZip
		}
		if unrar != "" {
			w.unrar = unrar
		}
	}
}

// WithTimeout sets the maximum run time of an archive program.
func WithTimeout(d time.Duration) Option {
	return func(w *Workspace) {
		if d > 0 {
			w.timeout = d
		}
	}
}

// WithDefaultFormat sets the export format used when the output
// filename has no recognized extension.
func WithDefaultFormat(f Format) Option {
	return func(w *Workspace) {
		w.fallback = f
	}
}

// WithTempDir sets the parent directory of the workspace, by default [os.TempDir].
func WithTempDir(dir string) Option {
	return func(w *Workspace) {
		if dir != "" {
			w.parent = dir
		}
	}
}

// New creates an empty workspace.
// The workspace must be closed to remove its temporary directory.
func New(opts ...Option) (*Workspace, error) {
	w := &Workspace{
		log:      log.New(io.Discard),
		sevenZip: command.Zip7,
		unrar:    command.Unrar,
		timeout:  TimeoutExtract,
	}
	for _, opt := range opts {
		opt(w)
	}
	parent := w.parent
	if parent == "" {
		parent = os.TempDir()
	}
	parent, err := filepath.Abs(parent)
	if err != nil {
		return nil, fmt.Errorf("workspace new %w", err)
	}
	dir := filepath.Join(parent, "nyarchiver-"+uuid.NewString())
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("workspace new %w", err)
	}
	w.dir = dir
	w.log.Debug("workspace initialized", "dir", dir)
	return w, nil
}

// Dir returns the temporary directory of the workspace.
func (w *Workspace) Dir() string {
	return w.dir
}

// Imported returns the path of the last imported archive.
func (w *Workspace) Imported() string {
	return w.imported
}

// Encrypted returns true if exports will be encrypted.
func (w *Workspace) Encrypted() bool {
	return w.password != ""
}

// Pending returns true if the last import failed because of a missing
// or wrong password, so it can be retried with [Workspace.Decrypt].
func (w *Workspace) Pending() bool {
	return w.pending
}

// Close removes the temporary directory. It is safe to call more than once.
func (w *Workspace) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	if err := os.RemoveAll(w.dir); err != nil {
		return fmt.Errorf("workspace close %w", err)
	}
	w.log.Debug("temporary directory removed", "dir", w.dir)
	return nil
}

// clear removes the content of the workspace but keeps the directory.
func (w *Workspace) clear() error {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return fmt.Errorf("workspace clear %w", err)
	}
	for _, e := range entries {
		if err := os.RemoveAll(filepath.Join(w.dir, e.Name())); err != nil {
			return fmt.Errorf("workspace clear %w", err)
		}
	}
	return nil
}

// Import extracts the content of the named archive file into the workspace.
// The format is determined by the filename extension, or the file signature
// when the extension is not known. The password is only used by encrypted archives.
//
// When the import fails because the password is missing or wrong, the error
// wraps ErrPassword and the import can be retried with [Workspace.Decrypt].
func (w *Workspace) Import(ctx context.Context, name, password string) error {
	if w.closed {
		return ErrClosed
	}
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("archive not found %w", ErrMissing)
	}
	// the archive programs run inside the workspace directory
	name, err := filepath.Abs(name)
	if err != nil {
		return fmt.Errorf("import %w", err)
	}
	st, err := os.Stat(name)
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("archive not found %w: %s", ErrMissing, name)
	}
	if err != nil {
		return fmt.Errorf("import %w", err)
	}
	if st.IsDir() {
		return fmt.Errorf("import %w: %s", ErrFile, name)
	}
	w.imported = name
	f, err := Resolve(name, "")
	if err != nil {
		return fmt.Errorf("import %w", err)
	}
	w.log.Info(fmt.Sprintf("Importing '%s' (format: %s)", name, f))
	if err := w.extract(ctx, f, name, password); err != nil {
		if cerr := w.clear(); cerr != nil {
			w.log.Warn("could not clear the workspace", "err", cerr)
		}
		w.pending = errors.Is(err, ErrPassword)
		if w.pending {
			w.log.Warn(fmt.Sprintf("Import failed (likely encryption): %s", err))
		} else {
			w.log.Error(fmt.Sprintf("Failed to import archive: %s", err))
		}
		return fmt.Errorf("import %w", err)
	}
	w.pending = false
	if n, err := pruneLinks(w.dir); err != nil {
		return fmt.Errorf("import %w", err)
	} else if n > 0 {
		w.log.Warn(fmt.Sprintf("Removed %d symbolic links that point outside of the archive.", n))
	}
	w.log.Info("Import successful.")
	return nil
}

// extract delegates the extraction of the src archive into the workspace
// to the reader of the format.
func (w *Workspace) extract(ctx context.Context, f Format, src, password string) error {
	switch f {
	case Zip:
		return w.unzip(ctx, src, password)
	case Tar, TarGz, TarXz, TarZst, TarBz2:
		return untar(src, w.dir, f)
	case Gz:
		return gunzip(src, w.dir)
	case Zip7, Cab, Arj, Lha:
		return w.zip7Extract(ctx, src, password)
	case Rar:
		return w.unrarExtract(ctx, src, password)
	}
	return fmt.Errorf("unsupported import format %w: %s", ErrFormat, f)
}

// Export writes the content of the workspace to the named archive file.
// An empty format is determined by the filename extension. The archive is
// written to a temporary file in the same directory and then renamed, so the
// imported archive can be overwritten.
func (w *Workspace) Export(ctx context.Context, name, format string) error {
	if w.closed {
		return ErrClosed
	}
	if strings.TrimSpace(name) == "" {
		return ErrDest
	}
	f, err := w.exportFormat(name, format)
	if err != nil {
		return fmt.Errorf("export %w", err)
	}
	if !f.Writable() {
		return fmt.Errorf("unsupported export format %w: %s", ErrWrite, f)
	}
	if w.Encrypted() && !f.Encryptable() {
		return fmt.Errorf("export %w: %s", ErrEncrypt, f)
	}
	w.log.Info(fmt.Sprintf("Exporting content to '%s' (format: %s)", name, f))

	dst, err := filepath.Abs(name)
	if err != nil {
		return fmt.Errorf("export %w", err)
	}
	if isDir(dst) {
		return fmt.Errorf("export %w: %s", ErrFile, name)
	}
	if err := os.MkdirAll(filepath.Dir(dst), dirMode); err != nil {
		return fmt.Errorf("export %w", err)
	}
	tmp := filepath.Join(filepath.Dir(dst), ".nyarchiver-"+uuid.NewString()+f.Ext())
	if err := w.write(ctx, f, tmp); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("export %w", err)
	}
	if err := os.Rename(tmp, dst); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("export %w", err)
	}
	if err := os.Chmod(dst, WriteWriteRead); err != nil {
		w.log.Debug("could not set the archive mode", "err", err)
	}
	w.log.Info("Export successful.")
	return nil
}

func (w *Workspace) exportFormat(name, format string) (Format, error) {
	if format != "" {
		return ParseFormat(format)
	}
	f, err := FormatOf(name)
	if err != nil && w.fallback != "" {
		return w.fallback, nil
	}
	return f, err
}

// write delegates the creation of the dst archive to the writer of the format.
func (w *Workspace) write(ctx context.Context, f Format, dst string) error {
	switch f {
	case Zip:
		return w.zip(ctx, dst)
	case Tar, TarGz, TarXz, TarZst:
		return tarDir(w.dir, dst, f)
	case Zip7:
		return w.zip7Create(ctx, dst, sevenZType)
	}
	return fmt.Errorf("unsupported export format %w: %s", ErrWrite, f)
}

// Add copies the src file or directory into the workspace and returns its
// path within the archive.
//
// A directory is copied to dest/<name of src>. A file is copied to
// dest/<name of src> when dest is empty, ends with a slash or is an
// existing directory, otherwise dest is the path of the copied file.
func (w *Workspace) Add(src, dest string) (string, error) {
	if w.closed {
		return "", ErrClosed
	}
	st, err := os.Stat(src)
	if errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("source not found %w: %s", ErrMissing, src)
	}
	if err != nil {
		return "", fmt.Errorf("add %w", err)
	}
	abs, err := filepath.Abs(src)
	if err != nil {
		return "", fmt.Errorf("add %w", err)
	}
	if abs == w.dir || strings.HasPrefix(abs, w.dir+string(filepath.Separator)) {
		return "", fmt.Errorf("add %w: %s", ErrUnsafePath, src)
	}
	target, err := within(w.dir, dest)
	if err != nil {
		return "", fmt.Errorf("add %w", err)
	}
	base := filepath.Base(abs)
	if st.IsDir() {
		final := filepath.Join(target, base)
		n, err := copyTree(abs, final)
		if err != nil {
			return "", fmt.Errorf("add %w", err)
		}
		w.log.Debug("copied directory", "files", n, "dest", final)
		w.log.Info(fmt.Sprintf("Added '%s' to archive.", src))
		return w.rel(final), nil
	}
	final := target
	if dest == "" || strings.HasSuffix(dest, "/") || isDir(target) {
		final = filepath.Join(target, base)
	}
	if final == w.dir {
		return "", fmt.Errorf("add %w: %q", ErrDest, dest)
	}
	if err := os.MkdirAll(filepath.Dir(final), dirMode); err != nil {
		return "", fmt.Errorf("add %w", err)
	}
	if _, err := helper.DuplicateOW(abs, final); err != nil {
		return "", fmt.Errorf("add duplicate %w", err)
	}
	w.log.Info(fmt.Sprintf("Added '%s' to archive.", src))
	return w.rel(final), nil
}

// rel returns the archive path of a workspace file.
func (w *Workspace) rel(name string) string {
	rel, err := filepath.Rel(w.dir, name)
	if err != nil {
		return name
	}
	return filepath.ToSlash(rel)
}

// Remove deletes the target file or directory from the workspace.
func (w *Workspace) Remove(target string) error {
	if w.closed {
		return ErrClosed
	}
	name, err := within(w.dir, target)
	if err != nil {
		return fmt.Errorf("remove %w", err)
	}
	if name == w.dir {
		return fmt.Errorf("remove %w: %q", ErrUnsafePath, target)
	}
	if _, err := os.Lstat(name); errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("path not found %w: '%s'", ErrMissing, target)
	} else if err != nil {
		return fmt.Errorf("remove %w", err)
	}
	if err := os.RemoveAll(name); err != nil {
		return fmt.Errorf("remove %w", err)
	}
	w.log.Info(fmt.Sprintf("Removed '%s'.", target))
	return nil
}

// List returns the sorted paths of every file and directory in the workspace.
func (w *Workspace) List() ([]string, error) {
	if w.closed {
		return nil, ErrClosed
	}
	var paths []string
	err := filepath.WalkDir(w.dir, func(name string, _ fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if name == w.dir {
			return nil
		}
		paths = append(paths, w.rel(name))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list %w", err)
	}
	slices.Sort(paths)
	return paths, nil
}

// Files returns the sorted paths of the regular files in the workspace.
func (w *Workspace) Files() ([]string, error) {
	paths, err := w.List()
	if err != nil {
		return nil, err
	}
	return slices.DeleteFunc(paths, func(s string) bool {
		return isDir(filepath.Join(w.dir, filepath.FromSlash(s)))
	}), nil
}

// Encrypt enables the encryption of exported archives using the password.
func (w *Workspace) Encrypt(password string) error {
	if password == "" {
		return ErrEmptyPassword
	}
	w.password = password
	w.log.Info("Encryption for export has been enabled.")
	return nil
}

// Decrypt retries the failed import of an encrypted archive using the password.
// An empty password instead disables the encryption of exported archives.
func (w *Workspace) Decrypt(ctx context.Context, password string) error {
	if password == "" {
		if w.password == "" {
			w.log.Info("Encryption for export was not enabled.")
			return nil
		}
		w.password = ""
		w.log.Info("Encryption for export has been disabled.")
		return nil
	}
	if w.imported == "" || !w.pending {
		return ErrNoPending
	}
	w.log.Info(fmt.Sprintf("Attempting to decrypt '%s' with the new password.", w.imported))
	if err := w.clear(); err != nil {
		return fmt.Errorf("decrypt %w", err)
	}
	if err := w.Import(ctx, w.imported, password); err != nil {
		return fmt.Errorf("decrypt %w", err)
	}
	return nil
}

// CopyTo copies the content of the workspace into the dest directory,
// which is created when missing. Existing files are overwritten.
func (w *Workspace) CopyTo(dest string) (int, error) {
	if w.closed {
		return 0, ErrClosed
	}
	if strings.TrimSpace(dest) == "" {
		return 0, ErrDest
	}
	dst, err := filepath.Abs(dest)
	if err != nil {
		return 0, fmt.Errorf("copy to %w", err)
	}
	if st, err := os.Stat(dst); err == nil && !st.IsDir() {
		return 0, fmt.Errorf("copy to %w: %s", ErrPath, dest)
	}
	if err := os.MkdirAll(dst, dirMode); err != nil {
		return 0, fmt.Errorf("copy to %w", err)
	}
	n, err := copyTree(w.dir, dst)
	if err != nil {
		return n, fmt.Errorf("copy to %w", err)
	}
	return n, nil
}

// Info is a summary of the workspace.
type Info struct {
	Archive   string // Archive is the path of the last imported archive.
	Dir       string // Dir is the temporary directory.
	Encrypted bool   // Encrypted is true if exports are encrypted.
	Files     int    // Files is the number of files and directories.
	Readme    string // Readme is the most usable readme file.
}

// Info returns a summary of the workspace.
func (w *Workspace) Info() (Info, error) {
	paths, err := w.List()
	if err != nil {
		return Info{}, err
	}
	readme, err := w.Readme()
	if err != nil {
		return Info{}, err
	}
	return Info{
		Archive:   w.imported,
		Dir:       w.dir,
		Encrypted: w.Encrypted(),
		Files:     len(paths),
		Readme:    readme,
	}, nil
}

// Readme returns the path of the most usable readme or nfo file in the
// workspace, or an empty string when there is none.
func (w *Workspace) Readme() (string, error) {
	files, err := w.Files()
	if err != nil {
		return "", err
	}
	archive := ""
	if w.imported != "" {
		archive = filepath.Base(w.imported)
	}
	return Readme(archive, files...), nil
}
