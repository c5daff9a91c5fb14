package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
)

// passwordNote ends the usage of every password flag.
const passwordNote = " (7-Zip and unrar receive it as a command line argument, visible in the process list)"

func passwordFlag(cmd *cobra.Command, p *string, usage string) {
	cmd.Flags().StringVarP(p, "password", "p", "", usage+passwordNote)
}

// NewLsCmd creates and returns the ls subcommand that lists the files of an archive.
func NewLsCmd(a *app) *cobra.Command {
	var password string
	cmd := &cobra.Command{
		Use:   "ls ARCHIVE",
		Short: "List files in an archive",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := a.workspace()
			if err != nil {
				return err
			}
			defer w.Close()
			if err := w.Import(cmd.Context(), args[0], a.password(password)); err != nil {
				return err
			}
			files, err := w.List()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, SuccessStyle.Render(fmt.Sprintf("Files in %s:", args[0])))
			if len(files) == 0 {
				fmt.Fprintln(out, " (Empty) ")
			}
			for _, f := range files {
				fmt.Fprintf(out, " - %s\n", f)
			}
			return nil
		},
	}
	passwordFlag(cmd, &password, "password for encrypted archives")
	return cmd
}

// NewCreateCmd creates and returns the create subcommand that archives a file or directory.
func NewCreateCmd(a *app) *cobra.Command {
	var password, destPath, format string
	cmd := &cobra.Command{
		Use:   "create ARCHIVE SOURCE",
		Short: "Create a new archive",
		Long: `Create a new archive containing the SOURCE file or directory.

The format is taken from the ARCHIVE extension unless --format is used.
With --password the archive is encrypted, which requires the zip or 7z format.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := a.workspace()
			if err != nil {
				return err
			}
			defer w.Close()
			if _, err := w.Add(args[1], destPath); err != nil {
				return err
			}
			if pw := a.password(password); pw != "" {
				if err := w.Encrypt(pw); err != nil {
					return err
				}
			}
			return w.Export(cmd.Context(), args[0], format)
		},
	}
	cmd.Flags().StringVarP(&destPath, "dest-path", "d", "", "path inside the archive")
	passwordFlag(cmd, &password, "password to encrypt the archive")
	cmd.Flags().StringVarP(&format, "format", "f", "", "force the compression format (zip, tar, tar.gz, 7z...)")
	return cmd
}

// NewExtractCmd creates and returns the extract subcommand.
func NewExtractCmd(a *app) *cobra.Command {
	var password string
	cmd := &cobra.Command{
		Use:   "extract ARCHIVE [DEST]",
		Short: "Extract an archive",
		Long: `Extract all the files of ARCHIVE into the DEST directory.

DEST defaults to the current directory and is created when missing.
Existing files are overwritten.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			dest := "."
			if len(args) > 1 {
				dest = args[1]
			}
			w, err := a.workspace()
			if err != nil {
				return err
			}
			defer w.Close()
			if err := w.Import(cmd.Context(), args[0], a.password(password)); err != nil {
				return err
			}
			abs, err := filepath.Abs(dest)
			if err != nil {
				return err
			}
			a.log.Info(fmt.Sprintf("Extracting to %s...", abs))
			n, err := w.CopyTo(abs)
			if err != nil {
				return err
			}
			a.log.Debug("extracted", "files", n)
			a.log.Info("Extraction finished.")
			return nil
		},
	}
	passwordFlag(cmd, &password, "password for encrypted archives")
	return cmd
}

// outputFlags are the flags of the commands that modify an existing archive.
type outputFlags struct {
	password string
	out      string
	format   string
}

func (o *outputFlags) register(cmd *cobra.Command) {
	passwordFlag(cmd, &o.password, "password of the archive, also used to encrypt the output")
	cmd.Flags().StringVarP(&o.out, "out", "o", "",
		"output archive path (default: overwrite the original archive)")
	cmd.Flags().StringVarP(&o.format, "format", "f", "", "force the compression format (zip, tar, tar.gz, 7z...)")
}

// NewAddCmd creates and returns the add subcommand that adds to an existing archive.
func NewAddCmd(a *app) *cobra.Command {
	var (
		o        outputFlags
		destPath string
	)
	cmd := &cobra.Command{
		Use:   "add ARCHIVE SOURCE",
		Short: "Add a file or directory to an existing archive",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.modify(cmd, args[0], o, func(w workspace) error {
				_, err := w.Add(args[1], destPath)
				return err
			})
		},
	}
	cmd.Flags().StringVarP(&destPath, "dest-path", "d", "", "path inside the archive")
	o.register(cmd)
	return cmd
}

// NewRmCmd creates and returns the rm subcommand that removes from an existing archive.
func NewRmCmd(a *app) *cobra.Command {
	var o outputFlags
	cmd := &cobra.Command{
		Use:   "rm ARCHIVE TARGET",
		Short: "Remove a file or directory from an existing archive",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.modify(cmd, args[0], o, func(w workspace) error {
				return w.Remove(args[1])
			})
		},
	}
	o.register(cmd)
	return cmd
}

// workspace is the part of the workspace used to change an archive.
type workspace interface {
	Add(src, dest string) (string, error)
	Remove(target string) error
}

// modify imports the archive, applies change and exports the result to the
// output path, which defaults to the archive itself.
func (a *app) modify(cmd *cobra.Command, archive string, o outputFlags, change func(workspace) error) error {
	w, err := a.workspace()
	if err != nil {
		return err
	}
	defer w.Close()
	pw := a.password(o.password)
	if err := w.Import(cmd.Context(), archive, pw); err != nil {
		return err
	}
	if err := change(w); err != nil {
		return err
	}
	if pw != "" {
		if err := w.Encrypt(pw); err != nil {
			return err
		}
	}
	out := o.out
	if out == "" {
		out = archive
	}
	return w.Export(cmd.Context(), out, o.format)
}
