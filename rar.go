package nyarchiver

import (
	"context"
	"fmt"
	"os"

	"github.com/nercone/nyarchiver/command"
)

// Package file rar.go contains the RAR compression methods.

// unrarExtract extracts the src RAR archive, credited to Alexander Roshal,
// into the workspace using the [unrar program].
//
// On Linux there are two versions of the unrar program, the freeware
// version by Alexander Roshal and the feature incomplete [unrar-free].
// The freeware version is the required program for extracting RAR archives.
//
// [unrar program]: https://www.rarlab.com/rar_add.htm
// [unrar-free]: https://gitlab.com/bgermann/unrar-free
func (w *Workspace) unrarExtract(ctx context.Context, src, password string) error {
	prog, err := command.Find(w.unrar, w.timeout)
	if err != nil {
		return fmt.Errorf("archive unrar extract %w", err)
	}
	if w.dir == "" {
		return ErrDest
	}
	const (
		eXtract    = "x"   // x extract files with full path
		noComments = "-c-" // -c- do not display comments
		overwrite  = "-o+" // -o+ overwrite existing files
		yes        = "-y"  // -y assume yes to all queries
		noPassword = "-p-" // -p- do not query password
	)
	pass := noPassword
	if password != "" {
		pass = "-p" + password
	}
	args := []string{eXtract, noComments, overwrite, yes, pass, "--", src, w.dir + string(os.PathSeparator)}
	if err := prog.Run(ctx, w.dir, args...); err != nil {
		return fmt.Errorf("archive unrar %w", err)
	}
	return nil
}
