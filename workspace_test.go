package nyarchiver_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/Defacto2/helper"
	"github.com/nercone/nyarchiver"
	"github.com/nercone/nyarchiver/command"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var text = bytes.Repeat([]byte("the quick brown fox jumps over the lazy dog\n"), 256)

// tree writes a small directory tree named src and returns its path.
func tree(t *testing.T) string {
	t.Helper()
	src := filepath.Join(t.TempDir(), "src")
	require.NoError(t, os.MkdirAll(filepath.Join(src, "docs", "empty"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(src, "TESTDAT1.TXT"), text, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(src, "docs", "TESTDAT2.TXT"), text, 0o644))
	require.NoError(t, helper.Touch(filepath.Join(src, "docs", "EMPTY.DAT")))
	return src
}

// workspace returns a new workspace that is closed by the test cleanup.
func workspace(t *testing.T, opts ...nyarchiver.Option) *nyarchiver.Workspace {
	t.Helper()
	w, err := nyarchiver.New(append([]nyarchiver.Option{nyarchiver.WithTempDir(t.TempDir())}, opts...)...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Close() })
	return w
}

// need skips the test when the named program is not installed.
func need(t *testing.T, name string) {
	t.Helper()
	if _, err := command.Lookup(name); err != nil {
		t.Skipf("%s is not installed", name)
	}
}

var treeList = []string{
	"src",
	"src/TESTDAT1.TXT",
	"src/docs",
	"src/docs/EMPTY.DAT",
	"src/docs/TESTDAT2.TXT",
	"src/docs/empty",
}

func TestNew(t *testing.T) {
	t.Parallel()
	w := workspace(t)
	st, err := os.Stat(w.Dir())
	require.NoError(t, err)
	assert.True(t, st.IsDir())
	assert.Contains(t, filepath.Base(w.Dir()), "nyarchiver-")
	assert.False(t, w.Encrypted())
	assert.False(t, w.Pending())
	assert.Empty(t, w.Imported())

	require.NoError(t, w.Close())
	_, err = os.Stat(w.Dir())
	require.ErrorIs(t, err, os.ErrNotExist)
	require.NoError(t, w.Close(), "close is idempotent")

	_, err = w.List()
	require.ErrorIs(t, err, nyarchiver.ErrClosed)
	_, err = w.Add(tree(t), "")
	require.ErrorIs(t, err, nyarchiver.ErrClosed)
	require.ErrorIs(t, w.Remove("src"), nyarchiver.ErrClosed)
	require.ErrorIs(t, w.Export(t.Context(), "out.zip", ""), nyarchiver.ErrClosed)
}

func TestWorkspace_Add(t *testing.T) {
	t.Parallel()
	src := tree(t)
	w := workspace(t)

	got, err := w.Add(src, "")
	require.NoError(t, err)
	assert.Equal(t, "src", got)

	file := filepath.Join(src, "TESTDAT1.TXT")
	got, err = w.Add(file, "")
	require.NoError(t, err)
	assert.Equal(t, "TESTDAT1.TXT", got)

	got, err = w.Add(file, "docs/")
	require.NoError(t, err)
	assert.Equal(t, "docs/TESTDAT1.TXT", got)

	got, err = w.Add(file, "docs")
	require.NoError(t, err)
	assert.Equal(t, "docs/TESTDAT1.TXT", got, "an existing directory keeps the filename")

	got, err = w.Add(file, "/notes/readme.txt")
	require.NoError(t, err)
	assert.Equal(t, "notes/readme.txt", got)

	got, err = w.Add(src, "backup")
	require.NoError(t, err)
	assert.Equal(t, "backup/src", got)

	b, err := os.ReadFile(filepath.Join(w.Dir(), "notes", "readme.txt"))
	require.NoError(t, err)
	assert.Equal(t, text, b)

	_, err = w.Add(filepath.Join(src, "missing.txt"), "")
	require.ErrorIs(t, err, nyarchiver.ErrMissing)
	_, err = w.Add(file, "../escape.txt")
	require.ErrorIs(t, err, nyarchiver.ErrUnsafePath)
	_, err = w.Add(w.Dir(), "")
	require.ErrorIs(t, err, nyarchiver.ErrUnsafePath)
	_, err = w.Add(filepath.Join(w.Dir(), "src"), "copy")
	require.ErrorIs(t, err, nyarchiver.ErrUnsafePath)
}

func TestWorkspace_Remove(t *testing.T) {
	t.Parallel()
	w := workspace(t)
	_, err := w.Add(tree(t), "")
	require.NoError(t, err)

	require.NoError(t, w.Remove("src/TESTDAT1.TXT"))
	require.NoError(t, w.Remove(`src\docs\empty`))
	list, err := w.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"src", "src/docs", "src/docs/EMPTY.DAT", "src/docs/TESTDAT2.TXT"}, list)

	require.NoError(t, w.Remove("src"))
	list, err = w.List()
	require.NoError(t, err)
	assert.Empty(t, list)

	require.ErrorIs(t, w.Remove("src"), nyarchiver.ErrMissing)
	require.ErrorIs(t, w.Remove(""), nyarchiver.ErrUnsafePath)
	require.ErrorIs(t, w.Remove("/"), nyarchiver.ErrUnsafePath)
	require.ErrorIs(t, w.Remove("../src"), nyarchiver.ErrUnsafePath)
}

func TestWorkspace_List(t *testing.T) {
	t.Parallel()
	w := workspace(t)
	list, err := w.List()
	require.NoError(t, err)
	assert.Empty(t, list)

	_, err = w.Add(tree(t), "")
	require.NoError(t, err)
	list, err = w.List()
	require.NoError(t, err)
	assert.Equal(t, treeList, list)

	files, err := w.Files()
	require.NoError(t, err)
	assert.Equal(t, []string{"src/TESTDAT1.TXT", "src/docs/EMPTY.DAT", "src/docs/TESTDAT2.TXT"}, files)
}

func TestWorkspace_RoundTrip(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name   string
		format string
	}{
		{"out.zip", ""},
		{"out.tar", ""},
		{"out.tar.gz", ""},
		{"out.tgz", ""},
		{"out.tar.xz", ""},
		{"out.tar.zst", ""},
		{"OUT.ZIP", ""},
		{"out.bin", "tar.gz"},
		{"out.dat", "zip"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			w := workspace(t)
			_, err := w.Add(tree(t), "")
			require.NoError(t, err)
			out := filepath.Join(t.TempDir(), tt.name)
			require.NoError(t, w.Export(t.Context(), out, tt.format))

			st, err := os.Stat(out)
			require.NoError(t, err)
			assert.Equal(t, nyarchiver.WriteWriteRead, st.Mode().Perm())
			entries, err := os.ReadDir(filepath.Dir(out))
			require.NoError(t, err)
			assert.Len(t, entries, 1, "the temporary export file is renamed")

			r := workspace(t)
			require.NoError(t, r.Import(t.Context(), out, ""))
			assert.Equal(t, out, r.Imported())
			list, err := r.List()
			require.NoError(t, err)
			assert.Equal(t, treeList, list)
			b, err := os.ReadFile(filepath.Join(r.Dir(), "src", "docs", "TESTDAT2.TXT"))
			require.NoError(t, err)
			assert.Equal(t, text, b)
		})
	}
}

func TestWorkspace_ExportOverwrite(t *testing.T) {
	t.Parallel()
	w := workspace(t)
	_, err := w.Add(tree(t), "")
	require.NoError(t, err)
	out := filepath.Join(t.TempDir(), "archive.zip")
	require.NoError(t, w.Export(t.Context(), out, ""))

	r := workspace(t)
	require.NoError(t, r.Import(t.Context(), out, ""))
	require.NoError(t, r.Remove("src/docs"))
	require.NoError(t, r.Export(t.Context(), out, ""))

	x := workspace(t)
	require.NoError(t, x.Import(t.Context(), out, ""))
	list, err := x.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"src", "src/TESTDAT1.TXT"}, list)
}

func TestWorkspace_ExportErrors(t *testing.T) {
	t.Parallel()
	w := workspace(t)
	_, err := w.Add(tree(t), "")
	require.NoError(t, err)
	tmp := t.TempDir()
	ctx := t.Context()

	require.ErrorIs(t, w.Export(ctx, "", ""), nyarchiver.ErrDest)
	require.ErrorIs(t, w.Export(ctx, " ", ""), nyarchiver.ErrDest)
	require.ErrorIs(t, w.Export(ctx, filepath.Join(tmp, "out.pak"), ""), nyarchiver.ErrFormat)
	require.ErrorIs(t, w.Export(ctx, filepath.Join(tmp, "out.zip"), "pak"), nyarchiver.ErrFormat)
	require.ErrorIs(t, w.Export(ctx, filepath.Join(tmp, "out.rar"), ""), nyarchiver.ErrWrite)
	require.ErrorIs(t, w.Export(ctx, filepath.Join(tmp, "out.tar.bz2"), ""), nyarchiver.ErrWrite)
	require.ErrorIs(t, w.Export(ctx, filepath.Join(tmp, "out.gz"), ""), nyarchiver.ErrWrite)

	dir := filepath.Join(tmp, "dir.zip")
	require.NoError(t, os.Mkdir(dir, 0o755))
	require.ErrorIs(t, w.Export(ctx, dir, ""), nyarchiver.ErrFile)

	require.NoError(t, w.Encrypt("secret"))
	require.ErrorIs(t, w.Export(ctx, filepath.Join(tmp, "out.tar.gz"), ""), nyarchiver.ErrEncrypt)
	require.ErrorIs(t, w.Export(ctx, filepath.Join(tmp, "out.tar"), ""), nyarchiver.ErrEncrypt)

	entries, err := os.ReadDir(tmp)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "failed exports leave no files behind")
}

func TestWithDefaultFormat(t *testing.T) {
	t.Parallel()
	w := workspace(t, nyarchiver.WithDefaultFormat(nyarchiver.TarGz))
	_, err := w.Add(tree(t), "")
	require.NoError(t, err)
	out := filepath.Join(t.TempDir(), "backup")
	require.NoError(t, w.Export(t.Context(), out, ""))
	f, err := nyarchiver.Resolve(out, "")
	require.NoError(t, err)
	assert.Equal(t, nyarchiver.Gz, f, "a gzip signature without an extension")

	r := workspace(t)
	require.NoError(t, r.Import(t.Context(), out, ""))
	list, err := r.List()
	require.NoError(t, err)
	assert.Equal(t, treeList, list)
}

func TestWorkspace_ImportErrors(t *testing.T) {
	t.Parallel()
	w := workspace(t)
	ctx := t.Context()
	tmp := t.TempDir()

	err := w.Import(ctx, filepath.Join(tmp, "missing.zip"), "")
	require.ErrorIs(t, err, nyarchiver.ErrMissing)
	err = w.Import(ctx, tmp, "")
	require.ErrorIs(t, err, nyarchiver.ErrFile)

	bad := filepath.Join(tmp, "bad.zip")
	require.NoError(t, os.WriteFile(bad, text, 0o644))
	err = w.Import(ctx, bad, "")
	require.ErrorIs(t, err, nyarchiver.ErrRead)
	assert.False(t, w.Pending())

	bad = filepath.Join(tmp, "bad.tar.gz")
	require.NoError(t, os.WriteFile(bad, text, 0o644))
	err = w.Import(ctx, bad, "")
	require.ErrorIs(t, err, nyarchiver.ErrRead)

	txt := filepath.Join(tmp, "TESTDAT1")
	require.NoError(t, os.WriteFile(txt, text, 0o644))
	err = w.Import(ctx, txt, "")
	require.ErrorIs(t, err, nyarchiver.ErrNotArchive)
}

func TestWorkspace_ImportFailureClears(t *testing.T) {
	t.Parallel()
	w := workspace(t)
	_, err := w.Add(tree(t), "")
	require.NoError(t, err)
	out := filepath.Join(t.TempDir(), "archive.tar")
	require.NoError(t, w.Export(t.Context(), out, ""))
	// truncate the archive within the content of the last file
	b, err := os.ReadFile(out)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(out, b[:len(b)-3000], 0o644))

	r := workspace(t)
	require.Error(t, r.Import(t.Context(), out, ""))
	list, err := r.List()
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestWorkspace_EncryptDecrypt(t *testing.T) {
	t.Parallel()
	w := workspace(t)
	ctx := t.Context()
	require.ErrorIs(t, w.Encrypt(""), nyarchiver.ErrEmptyPassword)
	assert.False(t, w.Encrypted())
	require.NoError(t, w.Encrypt("secret"))
	assert.True(t, w.Encrypted())
	require.NoError(t, w.Decrypt(ctx, ""))
	assert.False(t, w.Encrypted())
	require.NoError(t, w.Decrypt(ctx, ""), "disabling twice is not an error")
	require.ErrorIs(t, w.Decrypt(ctx, "secret"), nyarchiver.ErrNoPending)
}

func TestWorkspace_CopyTo(t *testing.T) {
	t.Parallel()
	w := workspace(t)
	_, err := w.Add(tree(t), "")
	require.NoError(t, err)

	dst := filepath.Join(t.TempDir(), "extracted", "here")
	n, err := w.CopyTo(dst)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	b, err := os.ReadFile(filepath.Join(dst, "src", "docs", "TESTDAT2.TXT"))
	require.NoError(t, err)
	assert.Equal(t, text, b)
	st, err := os.Stat(filepath.Join(dst, "src", "docs", "empty"))
	require.NoError(t, err)
	assert.True(t, st.IsDir())

	// existing files are overwritten
	require.NoError(t, os.WriteFile(filepath.Join(dst, "src", "TESTDAT1.TXT"), []byte("old"), 0o644))
	_, err = w.CopyTo(dst)
	require.NoError(t, err)
	b, err = os.ReadFile(filepath.Join(dst, "src", "TESTDAT1.TXT"))
	require.NoError(t, err)
	assert.Equal(t, text, b)

	_, err = w.CopyTo("")
	require.ErrorIs(t, err, nyarchiver.ErrDest)
	_, err = w.CopyTo(filepath.Join(dst, "src", "TESTDAT1.TXT"))
	require.ErrorIs(t, err, nyarchiver.ErrPath)
}

func TestWorkspace_Info(t *testing.T) {
	t.Parallel()
	src := tree(t)
	require.NoError(t, os.WriteFile(filepath.Join(src, "APP.NFO"), text, 0o644))
	w := workspace(t)
	_, err := w.Add(src, "")
	require.NoError(t, err)
	out := filepath.Join(t.TempDir(), "app.zip")
	require.NoError(t, w.Export(t.Context(), out, ""))

	r := workspace(t)
	require.NoError(t, r.Import(t.Context(), out, ""))
	require.NoError(t, r.Encrypt("secret"))
	info, err := r.Info()
	require.NoError(t, err)
	assert.Equal(t, out, info.Archive)
	assert.Equal(t, r.Dir(), info.Dir)
	assert.True(t, info.Encrypted)
	assert.Equal(t, 7, info.Files)
	assert.Equal(t, "src/APP.NFO", info.Readme)
	readme, err := r.Readme()
	require.NoError(t, err)
	assert.Equal(t, info.Readme, readme)

	empty, err := workspace(t).Info()
	require.NoError(t, err)
	assert.Empty(t, empty.Archive)
	assert.Zero(t, empty.Files)
	assert.Empty(t, empty.Readme)
}
