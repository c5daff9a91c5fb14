package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/nercone/nyarchiver"
	"golang.org/x/term"
	"mvdan.cc/sh/v3/shell"
)

const (
	unsaved    = "New/Unsaved"
	loadFailed = " (Load Failed)"
)

var errQuit = errors.New("quit")

// line is the result of reading one line of input.
type line struct {
	text string
	err  error
}

// shellSession is the interactive mode: one workspace modified by commands
// read line by line from the input.
type shellSession struct {
	a   *app
	in  io.Reader
	out io.Writer

	req   chan struct{}
	lines chan line

	w       *nyarchiver.Workspace
	current string // current is the path of the opened or saved archive.
	failed  bool   // failed is set when the last open did not succeed.
}

func newShell(a *app, in io.Reader, out io.Writer) *shellSession {
	return &shellSession{a: a, in: in, out: out}
}

// run reads and executes the commands until exit, the end of the input
// or the cancellation of ctx. The workspace is always removed.
func (s *shellSession) run(ctx context.Context) error {
	w, err := s.a.workspace()
	if err != nil {
		return err
	}
	s.w = w
	defer func() {
		s.w.Close()
		if s.req != nil {
			close(s.req)
		}
	}()

	s.a.log.Info("Entering Interactive Mode. Type 'help' for commands.")
	for {
		fmt.Fprint(s.out, s.prompt())
		input, err := s.readLine(ctx)
		if errors.Is(err, io.EOF) {
			fmt.Fprintln(s.out)
			return nil
		}
		if ctx.Err() != nil {
			fmt.Fprintln(s.out)
			s.a.log.Warn("Interrupted. Exiting...")
			return nil
		}
		if err != nil {
			return err
		}
		args, err := shell.Fields(input, nil)
		if err != nil {
			s.a.log.Error(fmt.Sprintf("Error: %s", err))
			continue
		}
		if len(args) == 0 {
			continue
		}
		err = s.exec(ctx, strings.ToLower(args[0]), args[1:])
		if errors.Is(err, errQuit) {
			return nil
		}
		if err != nil {
			s.a.log.Error(fmt.Sprintf("Error: %s", err))
		}
	}
}

// prompt returns the prompt showing the name of the current archive.
func (s *shellSession) prompt() string {
	if s.current == "" {
		return fmt.Sprintf("[%s] > ", WarningStyle.Render(unsaved))
	}
	name := filepath.Base(s.current)
	if s.failed {
		name += loadFailed
	}
	return fmt.Sprintf("[%s] > ", CmdStyle.Render(name))
}

// readLine returns the next line of input. Input is only read on request,
// so a password prompt can read the terminal directly.
func (s *shellSession) readLine(ctx context.Context) (string, error) {
	if s.req == nil {
		s.req = make(chan struct{})
		s.lines = make(chan line, 1)
		go func() {
			sc := bufio.NewScanner(s.in)
			for range s.req {
				if sc.Scan() {
					s.lines <- line{text: sc.Text()}
					continue
				}
				err := sc.Err()
				if err == nil {
					err = io.EOF
				}
				s.lines <- line{err: err}
			}
		}()
	}
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case s.req <- struct{}{}:
	}
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case l := <-s.lines:
		return l.text, l.err
	}
}

// ask prompts for a value, showing the default in brackets.
func (s *shellSession) ask(ctx context.Context, question, def string) (string, error) {
	if def != "" {
		fmt.Fprintf(s.out, "%s [%s]: ", question, def)
	} else {
		fmt.Fprintf(s.out, "%s: ", question)
	}
	answer, err := s.readLine(ctx)
	if err != nil {
		return "", err
	}
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return def, nil
	}
	return answer, nil
}

// secret prompts for a password without echo when the input is a terminal.
func (s *shellSession) secret(ctx context.Context, question string) (string, error) {
	f, ok := s.in.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return s.ask(ctx, question, "")
	}
	fmt.Fprintf(s.out, "%s: ", question)
	b, err := term.ReadPassword(int(f.Fd()))
	fmt.Fprintln(s.out)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// reset replaces the workspace with an empty one.
func (s *shellSession) reset() error {
	if err := s.w.Close(); err != nil {
		s.a.log.Warn(fmt.Sprintf("could not remove the workspace: %s", err))
	}
	w, err := s.a.workspace()
	if err != nil {
		return err
	}
	s.w = w
	s.current, s.failed = "", false
	return nil
}

func (s *shellSession) exec(ctx context.Context, command string, args []string) error {
	switch command {
	case "exit", "quit", "q":
		return errQuit
	case "help":
		s.help()
		return nil
	case "open":
		return s.open(ctx, args)
	case "save":
		return s.save(ctx, args)
	case "new", "close":
		if err := s.reset(); err != nil {
			return err
		}
		s.a.log.Info("Workspace cleared. Ready for new archive.")
		return nil
	case "info":
		return s.info()
	case "ls":
		return s.ls()
	case "add":
		if len(args) == 0 {
			s.a.log.Warn("Usage: add <local_path> [dest_path_in_archive]")
			return nil
		}
		dest := ""
		if len(args) > 1 {
			dest = args[1]
		}
		_, err := s.w.Add(args[0], dest)
		return err
	case "rm":
		if len(args) == 0 {
			s.a.log.Warn("Usage: rm <path_in_archive>")
			return nil
		}
		return s.w.Remove(args[0])
	case "enc":
		pw, err := s.password(ctx, args, "Enter Password to Set")
		if err != nil || pw == "" {
			return err
		}
		return s.w.Encrypt(pw)
	case "dec":
		return s.dec(ctx, args)
	}
	s.a.log.Warn(fmt.Sprintf("Unknown command: %s", command))
	return nil
}

// password returns the first argument, or prompts for it.
func (s *shellSession) password(ctx context.Context, args []string, question string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	return s.secret(ctx, question)
}

func (s *shellSession) open(ctx context.Context, args []string) error {
	if len(args) == 0 {
		s.a.log.Warn("Usage: open <path> [password]")
		return nil
	}
	password := ""
	if len(args) > 1 {
		password = args[1]
	}
	if err := s.reset(); err != nil {
		return err
	}
	s.current = args[0]
	if err := s.w.Import(ctx, args[0], password); err != nil {
		s.failed = true
		return err
	}
	return nil
}

func (s *shellSession) save(ctx context.Context, args []string) error {
	name, format := "", ""
	switch {
	case len(args) == 0:
		def := ""
		if s.current != "" && !s.failed {
			def = s.current
		}
		answer, err := s.ask(ctx, "Output path", def)
		if err != nil {
			return err
		}
		name = answer
	default:
		name = args[0]
		if len(args) > 1 {
			format = args[1]
		}
	}
	if name == "" {
		return nil
	}
	if err := s.w.Export(ctx, name, format); err != nil {
		return err
	}
	s.current, s.failed = name, false
	return nil
}

func (s *shellSession) dec(ctx context.Context, args []string) error {
	if len(args) == 0 {
		pw, err := s.secret(ctx, "Enter Password to Decrypt")
		if err != nil || pw == "" {
			return err
		}
		args = []string{pw}
	}
	if err := s.w.Decrypt(ctx, args[0]); err != nil {
		return err
	}
	if args[0] != "" {
		s.failed = false
	}
	return nil
}

func (s *shellSession) info() error {
	info, err := s.w.Info()
	if err != nil {
		return err
	}
	current := s.current
	if current == "" {
		current = "None"
	} else if s.failed {
		current += loadFailed
	}
	encryption := "Disabled"
	if info.Encrypted {
		encryption = "Enabled"
	}
	s.a.log.Info(fmt.Sprintf("Current Archive: %s", current))
	s.a.log.Info(fmt.Sprintf("Temp Directory : %s", info.Dir))
	s.a.log.Info(fmt.Sprintf("Encryption     : %s", encryption))
	s.a.log.Info(fmt.Sprintf("Total Files    : %d", info.Files))
	if info.Readme != "" {
		s.a.log.Info(fmt.Sprintf("Readme         : %s", info.Readme))
	}
	return nil
}

func (s *shellSession) ls() error {
	files, err := s.w.List()
	if err != nil {
		return err
	}
	if len(files) == 0 {
		fmt.Fprintln(s.out, " (Empty) ")
	}
	for _, f := range files {
		fmt.Fprintf(s.out, " %s\n", f)
	}
	return nil
}

func (s *shellSession) help() {
	section := func(name string) string { return SuccessStyle.Render(name) }
	fmt.Fprintf(s.out, `
%s
  %s
    open <path> [pwd]      Import an archive
    save [path] [fmt]      Export the current state (fmt: zip, tar, tar.gz, 7z...)
    new / close            Close the current archive and start fresh
    info                   Show details about the current session

  %s
    ls                     List files in the current working state
    add <src> [dest_path]  Add a local file or directory to the archive
    rm <path_in_arc>       Remove a file or directory from the archive

  %s
    enc [pass]             Set the encryption password for saving
    dec [pass]             Retry the import with a password, or disable encryption with ''

  %s                   Exit
`, TitleStyle.Render("Commands:"), section("File Operations:"), section("Content Operations:"),
		section("Security:"), CmdStyle.Render("exit"))
}
