package nyarchiver

import (
	"context"
	"fmt"
	"os"

	"github.com/nercone/nyarchiver/command"
)

// Package file zip7.go contains the 7-Zip compression methods.

// 7-Zip archive types used with the -t switch.
const (
	zipType    = "-tzip"
	sevenZType = "-t7z"
)

// zip7Extract extracts the src archive into the workspace using the [7z program].
// 7-Zip reads many formats, here it is used for 7z, Microsoft Cabinet, ARJ
// and LHA archives and for encrypted or obsolete ZIP archives.
//
// On some Linux distributions the 7z program is named 7zz.
// The legacy version of the 7z program, the p7zip package
// should not be used!
//
// [7z program]: https://www.7-zip.org/
func (w *Workspace) zip7Extract(ctx context.Context, src, password string) error {
	prog, err := command.Find(w.sevenZip, w.timeout)
	if err != nil {
		return fmt.Errorf("extractor 7z %w", err)
	}
	if w.dir == "" {
		return ErrDest
	}
	const (
		extract   = "x"    // x extract files with full paths
		overwrite = "-aoa" // -aoa overwrite all
		quiet     = "-bb0" // -bb0 quiet
		targetDir = "-o"   // -o output directory
		yes       = "-y"   // -y assume yes to all queries
	)
	args := []string{extract, overwrite, quiet, yes, targetDir + w.dir}
	if password != "" {
		args = append(args, "-p"+password)
	}
	args = append(args, "--", src)
	if err := prog.Run(ctx, w.dir, args...); err != nil {
		return fmt.Errorf("extractor 7z %w", err)
	}
	return nil
}

// zip7Create writes the workspace to the dst archive using the [7z program].
// The archive type is either zipType or sevenZType and when the workspace
// has a password, the archive is encrypted with AES-256. The 7z type also
// encrypts the archive headers so the filenames are hidden.
//
// [7z program]: https://www.7-zip.org/
func (w *Workspace) zip7Create(ctx context.Context, dst, archiveType string) error {
	prog, err := command.Find(w.sevenZip, w.timeout)
	if err != nil {
		return fmt.Errorf("compress 7z %w", err)
	}
	if _, err := os.Stat(dst); err == nil {
		// 7-Zip would update the existing archive
		return fmt.Errorf("compress 7z %w: %s", ErrPath, dst)
	}
	const (
		add          = "a"           // a add files to archive
		quiet        = "-bb0"        // -bb0 quiet
		yes          = "-y"          // -y assume yes to all queries
		encHeaders   = "-mhe=on"     // -mhe=on encrypt the 7z archive headers
		encMethodAES = "-mem=AES256" // -mem=AES256 zip AES-256 encryption
		all          = "."           // . the content of the working directory
	)
	args := []string{add, archiveType, quiet, yes}
	if w.Encrypted() {
		args = append(args, "-p"+w.password)
		switch archiveType {
		case sevenZType:
			args = append(args, encHeaders)
		case zipType:
			args = append(args, encMethodAES)
		}
	}
	args = append(args, "--", dst, all)
	if err := prog.Run(ctx, w.dir, args...); err != nil {
		return fmt.Errorf("compress 7z %w", err)
	}
	return nil
}
