package sshutil

import (
	"bufio"
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"github.com/rileyhilliard/pfdash/internal/errors"
	"golang.org/x/crypto/ssh"
)

// maxLineSize bounds a single line read by ExecLines. config.xml is read with
// Exec, so only log and status lines go through here.
const maxLineSize = 1 << 20

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Exec runs a command on the router and returns the output.
// Exit code is -1 if the command couldn't be executed at all.
func (c *Client) Exec(cmd string) (stdout, stderr []byte, exitCode int, err error) {
	session, err := c.Client.NewSession()
	if err != nil {
		return nil, nil, -1, sessionError(err)
	}
	defer session.Close()

	var stdoutBuf, stderrBuf bytes.Buffer
	session.Stdout = &stdoutBuf
	session.Stderr = &stderrBuf

	if err := session.Run(cmd); err != nil {
		var exitErr *ssh.ExitError
		if stderrors.As(err, &exitErr) {
			return stdoutBuf.Bytes(), stderrBuf.Bytes(), exitErr.ExitStatus(), nil
		}
		return nil, nil, -1, errors.WrapWithCode(err, errors.ErrExec,
			fmt.Sprintf("Failed to execute command: %s", cmd),
			"The SSH connection to the router may have dropped.")
	}

	return stdoutBuf.Bytes(), stderrBuf.Bytes(), 0, nil
}

// ExecLines streams stdout line by line. See Executor.
func (c *Client) ExecLines(ctx context.Context, cmd string, fn func(line string)) error {
	session, err := c.Client.NewSession()
	if err != nil {
		return sessionError(err)
	}
	defer session.Close()

	stdout, err := session.StdoutPipe()
	if err != nil {
		return sessionError(err)
	}

	if err := session.Start(cmd); err != nil {
		return errors.WrapWithCode(err, errors.ErrSSH,
			fmt.Sprintf("Failed to start command: %s", cmd),
			"The SSH connection to the router may have dropped.")
	}

	// Closing the session unblocks the scanner when ctx is cancelled.
	stop := context.AfterFunc(ctx, func() { session.Close() })
	defer stop()

	scanErr := scanLines(stdout, cmd, fn)
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if scanErr != nil {
		return scanErr
	}

	err = session.Wait()
	var exitErr *ssh.ExitError
	if err == nil || stderrors.As(err, &exitErr) {
		return nil
	}
	return errors.WrapWithCode(err, errors.ErrSSH,
		fmt.Sprintf("Command ended without an exit status: %s", cmd),
		"The SSH connection to the router may have dropped.")
}

// scanLines calls fn for each line of r. A line over maxLineSize is a DECODE
// error, since the transport is still fine; any other read error is SSH.
func scanLines(r io.Reader, cmd string, fn func(line string)) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	for scanner.Scan() {
		fn(scanner.Text())
	}

	err := scanner.Err()
	switch {
	case err == nil:
		return nil
	case stderrors.Is(err, bufio.ErrTooLong):
		return errors.Decode(err, cmd)
	default:
		return errors.WrapWithCode(err, errors.ErrSSH,
			fmt.Sprintf("Lost the output stream of: %s", cmd),
			"The SSH connection to the router may have dropped.")
	}
}

func sessionError(err error) error {
	return errors.WrapWithCode(err, errors.ErrSSH,
		"Failed to create SSH session",
		"The connection to the router was closed. Restart pfdash.")
}

// Output runs cmd and returns its stdout. The exit status is not checked:
// the router's tools (smartctl in particular) use it for warnings, so callers
// judge the output instead.
func Output(e Executor, cmd string) ([]byte, error) {
	stdout, _, _, err := e.Exec(cmd)
	return stdout, err
}

// Lines runs cmd and returns stdout split into lines without terminators.
func Lines(e Executor, cmd string) ([]string, error) {
	stdout, err := Output(e, cmd)
	if err != nil {
		return nil, err
	}

	var lines []string
	scanner := bufio.NewScanner(bytes.NewReader(stdout))
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	return lines, scanner.Err()
}

// Line runs cmd and returns the first line of stdout, or "" if there is none.
func Line(e Executor, cmd string) (string, error) {
	stdout, err := Output(e, cmd)
	if err != nil {
		return "", err
	}
	line, _, _ := strings.Cut(string(stdout), "\n")
	return strings.TrimSuffix(line, "\r"), nil
}

// ExecJSON runs cmd and decodes its stdout into v. Malformed output is a
// DECODE error naming the command.
func ExecJSON(e Executor, cmd string, v any) error {
	stdout, err := Output(e, cmd)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(stdout, v); err != nil {
		return errors.Decode(err, cmd)
	}
	return nil
}
