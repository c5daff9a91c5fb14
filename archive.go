// Package nyarchiver provides archive file listing, creation, extraction
// and modification through a temporary workspace.
//
// An archive is imported by extracting all of its content into the workspace,
// the workspace is modified with plain file operations, and it is exported
// back into an archive of any writable format.
//
// The file archive formats supported are 7-Zip, RAR, ZIP, TAR
// (uncompressed, gzip, xz, zstd and bzip2), single file gzip, and
// the read only Microsoft Cabinet, ARJ and LHA formats.
//
// ZIP and TAR are handled in Go. The package uses following terminal
// programs for the other formats and for encrypted ZIP archives.
//
//  1. [7zz] - 7-Zip for Linux: console version
//  2. [unrar] - 6.24 freeware by Alexander Roshal, not the common [unrar-free] which is feature incomplete
//
// Passwords are given to these programs with their -p switch, so while a
// program runs the password is visible to other users of the process list.
//
// [7zz]: https://www.7-zip.org/
// [unrar]: https://www.rarlab.com/rar_add.htm
// [unrar-free]: https://gitlab.com/bgermann/unrar-free
package nyarchiver

import (
	"errors"
	"io/fs"
	"time"

	"github.com/nercone/nyarchiver/command"
)

const (
	// TimeoutExtract is the default maximum time allowed for an archive program.
	TimeoutExtract = command.TimeoutExtract

	// WriteWriteRead is the file mode for read and write access.
	// The file owner and group has read and write access, and others have read access.
	WriteWriteRead fs.FileMode = 0o664

	// dirMode is the mode of directories created in the workspace and destinations.
	dirMode fs.FileMode = 0o755
)

var (
	ErrDest          = errors.New("destination is empty")
	ErrEmptyPassword = errors.New("password must be a non-empty string")
	ErrEncrypt       = errors.New("archive format does not support encryption")
	ErrFile          = errors.New("path is a directory")
	ErrFormat        = errors.New("extension is not a supported archive format")
	ErrMissing       = errors.New("path does not exist")
	ErrNoPending     = errors.New("decrypt with a password can only be used after a failed import of an encrypted archive")
	ErrNotArchive    = errors.New("file is not an archive")
	ErrPassword      = command.ErrPassword
	ErrPath          = errors.New("path is a file")
	ErrProg          = command.ErrProg
	ErrRead          = errors.New("could not read the file archive")
	ErrUnsafePath    = errors.New("path escapes the archive root")
	ErrWrite         = errors.New("archive format cannot be written")
	ErrClosed        = errors.New("workspace is closed")
)

// modtime returns t unless it is the zero time, in which case now is returned.
func modtime(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now()
	}
	return t
}
