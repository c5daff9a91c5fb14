// Package cmd contains the command-line interface of nyarchiver.
package cmd

import (
	"context"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/log"
	"github.com/nercone/nyarchiver"
	"github.com/nercone/nyarchiver/internal/config"
	"github.com/nercone/nyarchiver/version"
	"github.com/spf13/cobra"
)

// app is the state shared by the commands of one invocation.
type app struct {
	cfgFile string
	verbose bool
	cfg     config.Config
	log     *log.Logger
}

// load reads the configuration and creates the logger of the command.
func (a *app) load(cmd *cobra.Command) error {
	cfg, err := config.Load(a.cfgFile)
	if err != nil {
		return err
	}
	a.cfg = cfg
	level := log.InfoLevel
	if a.verbose || cfg.Verbose {
		level = log.DebugLevel
	}
	a.log = log.NewWithOptions(cmd.ErrOrStderr(), log.Options{
		Prefix: config.AppName,
		Level:  level,
	})
	return nil
}

// workspace creates a new workspace using the configuration.
func (a *app) workspace() (*nyarchiver.Workspace, error) {
	return nyarchiver.New(
		nyarchiver.WithLogger(a.log),
		nyarchiver.WithPrograms(a.cfg.Programs.SevenZip, a.cfg.Programs.Unrar),
		nyarchiver.WithTimeout(a.cfg.Timeout),
		nyarchiver.WithDefaultFormat(a.cfg.DefaultFormat()),
		nyarchiver.WithTempDir(a.cfg.TempDir),
	)
}

// password returns the flag value, or the configured password when the flag is empty.
func (a *app) password(flag string) string {
	if flag != "" {
		return flag
	}
	return a.cfg.Password
}

// NewRootCmd creates and returns the root cobra command for the nyarchiver CLI.
// Without a subcommand, the interactive mode is started.
func NewRootCmd() *cobra.Command {
	a := &app{}
	rootCmd := &cobra.Command{
		Use:   "nyarchiver",
		Short: "Nercone Archiver",
		Long: TitleStyle.Render("nyarchiver") + SubtitleStyle.Render(" - Nercone Archiver") + `

nyarchiver lists, creates, extracts and modifies ZIP, 7-Zip, RAR and Tar
archives. An archive is extracted into a temporary workspace, changed,
and then saved again in any writable format.

` + SubtitleStyle.Render("Examples:") + `
  nyarchiver                             Start the interactive mode
  nyarchiver ls backup.zip               List the files of an archive
  nyarchiver create site.tar.gz ./www    Create an archive of a directory
  nyarchiver add -p secret docs.7z a.txt Add a file to an encrypted archive`,
		Version:       version.GetFullVersion(),
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.load(cmd)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			s := newShell(a, cmd.InOrStdin(), cmd.OutOrStdout())
			return s.run(cmd.Context())
		},
	}
	rootCmd.PersistentFlags().StringVar(&a.cfgFile, "config", "",
		"config file (default is $XDG_CONFIG_HOME/nyarchiver/config.toml)")
	rootCmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "enable verbose output")

	rootCmd.AddCommand(NewLsCmd(a))
	rootCmd.AddCommand(NewCreateCmd(a))
	rootCmd.AddCommand(NewExtractCmd(a))
	rootCmd.AddCommand(NewAddCmd(a))
	rootCmd.AddCommand(NewRmCmd(a))
	return rootCmd
}

// Execute runs the nyarchiver CLI and returns the process exit code.
func Execute(ctx context.Context) int {
	if err := fang.Execute(
		ctx,
		NewRootCmd(),
		fang.WithVersion(version.GetFullVersion()),
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		return 1
	}
	return 0
}
