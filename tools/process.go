// fqsplit: parallel splitting of sequencing reads for alignment pipelines.
// Copyright (c) 2026 imec vzw.

// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version, and Additional Terms
// (see below).

// This program is distributed in the hope that it will be useful, but
// WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
// Affero General Public License for more details.

// You should have received a copy of the GNU Affero General Public
// License and Additional Terms along with this program. If not, see
// <https://github.com/ExaScience/fqsplit/blob/master/LICENSE.txt>.

package tools

import (
	"bytes"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/pkg/errors"
)

// Pipeline stages reported in errors.
const (
	StageCount      = "count"
	StageDecompress = "decompress"
	StageCompress   = "compress"
)

// maxStderr bounds how much of a failed tool's standard error is kept
// in the error message.
const maxStderr = 1024

// Command describes one invocation of an external tool.
type Command struct {
	Stage string
	Path  string
	Args  []string
}

func (c Command) String() string {
	return strings.Join(append([]string{c.Path}, c.Args...), " ")
}

type (
	// ToolNotFoundError is returned when an external tool is neither
	// given explicitly nor found in PATH.
	ToolNotFoundError struct {
		Tool string
		Path string
		Err  error
	}

	// StartError is returned when the operating system fails to spawn
	// a tool that was found.
	StartError struct {
		Cmd Command
		Err error
	}

	// StageError is returned when a tool runs but does not exit
	// successfully.
	StageError struct {
		Cmd      Command
		ExitCode int
		Stderr   string
		Err      error
	}
)

func (e *ToolNotFoundError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%v not found at %v: %v", e.Tool, e.Path, e.Err)
	}
	return fmt.Sprintf("%v not found in PATH: %v", e.Tool, e.Err)
}

func (e *ToolNotFoundError) Unwrap() error { return e.Err }

func (e *StartError) Error() string {
	return fmt.Sprintf("failed to start %v stage (%v): %v", e.Cmd.Stage, e.Cmd, e.Err)
}

func (e *StartError) Unwrap() error { return e.Err }

func (e *StageError) Error() string {
	msg := fmt.Sprintf("%v stage failed (%v): %v", e.Cmd.Stage, e.Cmd, e.Err)
	if e.Stderr != "" {
		msg += ": " + e.Stderr
	}
	return msg
}

func (e *StageError) Unwrap() error { return e.Err }

func startError(c Command, err error) error {
	if errors.Is(err, exec.ErrNotFound) || errors.Is(err, fs.ErrNotExist) {
		return &ToolNotFoundError{Tool: filepath.Base(c.Path), Path: c.Path, Err: err}
	}
	return &StartError{Cmd: c, Err: err}
}

func stageError(c Command, err error, stderr *bytes.Buffer) error {
	e := &StageError{Cmd: c, ExitCode: -1, Err: err}
	if exitErr, ok := err.(*exec.ExitError); ok {
		e.ExitCode = exitErr.ExitCode()
	}
	msg := strings.TrimSpace(stderr.String())
	if len(msg) > maxStderr {
		msg = "..." + msg[len(msg)-maxStderr:]
	}
	e.Stderr = msg
	return e
}

// killedByBrokenPipe reports whether err is the exit of a process that
// was terminated by SIGPIPE.
func killedByBrokenPipe(err error) bool {
	exitErr, ok := err.(*exec.ExitError)
	if !ok {
		return false
	}
	status, ok := exitErr.Sys().(syscall.WaitStatus)
	return ok && status.Signaled() && status.Signal() == syscall.SIGPIPE
}

// Runner executes external tools. If Dir is not empty, it is created
// when missing and used as the working directory of every command.
type Runner struct {
	Dir string
}

func (r *Runner) command(c Command) (*exec.Cmd, error) {
	if r != nil && r.Dir != "" {
		if err := os.MkdirAll(r.Dir, 0700); err != nil {
			return nil, errors.Wrapf(err, "while creating working directory %v", r.Dir)
		}
	}
	cmd := exec.Command(c.Path, c.Args...)
	if r != nil {
		cmd.Dir = r.Dir
	}
	return cmd, nil
}

// Run executes c with the given standard input and output and waits
// for it to finish. Either stream may be nil.
func (r *Runner) Run(c Command, stdin io.Reader, stdout io.Writer) error {
	cmd, err := r.command(c)
	if err != nil {
		return err
	}
	var stderr bytes.Buffer
	cmd.Stdin = stdin
	cmd.Stdout = stdout
	cmd.Stderr = &stderr
	if err := cmd.Start(); err != nil {
		return startError(c, err)
	}
	if err := cmd.Wait(); err != nil {
		return stageError(c, err, &stderr)
	}
	return nil
}

// Output executes c and returns its captured standard output.
func (r *Runner) Output(c Command) ([]byte, error) {
	var stdout bytes.Buffer
	err := r.Run(c, nil, &stdout)
	return stdout.Bytes(), err
}

// Pipe runs src and dst concurrently, with the standard output of src
// connected to the standard input of dst through an OS pipe. The
// standard output of dst goes to out.
//
// The parent closes both pipe ends once the two processes are started,
// so a dst that dies early delivers SIGPIPE to src, and a src that dies
// early delivers EOF to dst.
//
// When both processes fail, the error of the stage that failed first is
// returned: a src that was killed by a broken pipe is a consequence of a
// dst failure, not its cause.
func (r *Runner) Pipe(src, dst Command, out io.Writer) error {
	srcCmd, err := r.command(src)
	if err != nil {
		return err
	}
	dstCmd, err := r.command(dst)
	if err != nil {
		return err
	}
	pr, pw, err := os.Pipe()
	if err != nil {
		return errors.Wrap(err, "while creating pipe")
	}
	var srcStderr, dstStderr bytes.Buffer
	srcCmd.Stdout = pw
	srcCmd.Stderr = &srcStderr
	dstCmd.Stdin = pr
	dstCmd.Stdout = out
	dstCmd.Stderr = &dstStderr

	if err := srcCmd.Start(); err != nil {
		_ = pr.Close()
		_ = pw.Close()
		return startError(src, err)
	}
	if err := dstCmd.Start(); err != nil {
		_ = pr.Close()
		_ = pw.Close()
		_ = srcCmd.Wait()
		return startError(dst, err)
	}
	_ = pw.Close()
	_ = pr.Close()

	dstErr := dstCmd.Wait()
	srcErr := srcCmd.Wait()
	switch {
	case srcErr != nil && !killedByBrokenPipe(srcErr):
		return stageError(src, srcErr, &srcStderr)
	case dstErr != nil:
		return stageError(dst, dstErr, &dstStderr)
	case srcErr != nil:
		return stageError(src, srcErr, &srcStderr)
	}
	return nil
}
