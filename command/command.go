// Package command lists the archiving programs nyarchiver delegates to
// and runs them with a captured diagnostic stream.
package command

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// A note about unrar: On Linux there are incompatible variants of unrar.
// The common unrar-free application does not support passwords or RAR5 and
// cannot be used. The freeware unrar by Alexander Roshal should report
// "UNRAR 6.24 freeware, Copyright (c) 1993-2023 Alexander Roshal" or newer.

const (
	Zip7  = "7zz"   // Zip7 is the 7-Zip console command.
	Unrar = "unrar" // Unrar is the rar decompression command.
)

// TimeoutExtract is the default maximum time allowed for a program run.
const TimeoutExtract = 10 * time.Minute

var (
	ErrMissing  = errors.New("archiver program not found")
	ErrProg     = errors.New("program error")
	ErrPassword = errors.New("wrong or missing password")
)

// Aliases are the alternative names of a program, in preference order.
// The legacy p7zip package installs 7z and 7za but should be a last resort.
var Aliases = map[string][]string{
	Zip7:  {Zip7, "7z", "7za"},
	Unrar: {Unrar},
}

// Lookup returns the absolute path of the first installed name.
// When name has known aliases they are tried in order.
func Lookup(name string) (string, error) {
	names, ok := Aliases[name]
	if !ok {
		names = []string{name}
	}
	for _, n := range names {
		if prog, err := exec.LookPath(n); err == nil {
			return prog, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrMissing, name)
}

// Program is a resolved archiver program.
type Program struct {
	Name    string        // Name is the program name or path that was looked up.
	Path    string        // Path is the absolute path of the executable.
	Timeout time.Duration // Timeout is the maximum run time, zero for TimeoutExtract.
}

// Find looks up the named program.
func Find(name string, timeout time.Duration) (Program, error) {
	prog, err := Lookup(name)
	if err != nil {
		return Program{}, err
	}
	return Program{Name: name, Path: prog, Timeout: timeout}, nil
}

// Run executes the program in dir with args.
// Diagnostics written to stderr are returned as part of the error and the
// known password diagnostics are reported as ErrPassword.
func (p Program) Run(ctx context.Context, dir string, args ...string) error {
	timeout := p.Timeout
	if timeout <= 0 {
		timeout = TimeoutExtract
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	var stderr, stdout bytes.Buffer
	cmd := exec.CommandContext(ctx, p.Path, args...)
	cmd.Dir = dir
	cmd.WaitDelay = time.Second
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	if err == nil {
		return nil
	}
	diag := strings.TrimSpace(stderr.String())
	if diag == "" {
		diag = strings.TrimSpace(stdout.String())
	}
	if Password(stderr.String() + "\n" + stdout.String()) {
		return fmt.Errorf("%s %w: %s", p.Name, ErrPassword, lastLine(diag))
	}
	if ctx.Err() != nil {
		return fmt.Errorf("%s %w: %w", p.Name, ErrProg, ctx.Err())
	}
	if diag != "" {
		return fmt.Errorf("%s %w: %s", p.Name, ErrProg, lastLine(diag))
	}
	return fmt.Errorf("%s %w: %w", p.Name, ErrProg, err)
}

// passwordDiags are lower case fragments printed by 7-Zip and unrar
// when the password is absent or incorrect.
var passwordDiags = []string{
	"wrong password",
	"incorrect password",
	"password is incorrect",
	"can not open encrypted archive",
	"cannot open encrypted archive",
	"enter password",
}

// Password returns true when the program output reports a password failure.
func Password(diag string) bool {
	s := strings.ToLower(diag)
	for _, d := range passwordDiags {
		if strings.Contains(s, d) {
			return true
		}
	}
	return false
}

func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if l := strings.TrimSpace(lines[i]); l != "" {
			return l
		}
	}
	return s
}
