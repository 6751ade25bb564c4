package process

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"strings"
	"syscall"
	"time"

	"github.com/smazurov/jackbridge/internal/logging"
)

// Runner executes external commands.
type Runner interface {
	// CombinedOutput runs name to completion and returns merged stdout/stderr.
	// Output captured before a failure or timeout is returned alongside the error.
	CombinedOutput(ctx context.Context, name string, args ...string) ([]byte, error)

	// Start launches name without waiting for it to finish.
	Start(name string, args ...string) error
}

// Exec is the Runner backed by os/exec.
type Exec struct {
	logger    logging.Logger
	waitDelay time.Duration
}

// NewExec creates a Runner that spawns real processes.
func NewExec(logger logging.Logger) *Exec {
	return &Exec{
		logger:    logger,
		waitDelay: 250 * time.Millisecond,
	}
}

// CombinedOutput implements Runner.
func (e *Exec) CombinedOutput(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		// Negative pid signals the whole group, so helpers forked by the tool die too.
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}
	cmd.WaitDelay = e.waitDelay

	var buf bytes.Buffer
	cmd.Stdout = &buf
	cmd.Stderr = &buf

	start := time.Now()
	err := cmd.Run()
	e.logger.Debug("Command finished",
		"command", CommandLine(name, args...),
		"exit_code", ExitCode(err),
		"duration", time.Since(start))

	return buf.Bytes(), err
}

// Start implements Runner. Output is forwarded to the debug log line by line.
// The reaper stops reading output waitDelay after the process exits, so a
// forked helper that inherited stdout cannot keep it alive.
func (e *Exec) Start(name string, args ...string) error {
	commandLine := CommandLine(name, args...)

	cmd := exec.Command(name, args...)
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	output := &logWriter{logger: e.logger, command: commandLine}
	cmd.Stdout = output
	cmd.Stderr = output
	cmd.WaitDelay = e.waitDelay

	if err := cmd.Start(); err != nil {
		e.logger.Error("Failed to start process", "command", commandLine, "error", err)
		return err
	}

	e.logger.Info("Process started", "pid", cmd.Process.Pid, "command", commandLine)

	go func() {
		waitErr := cmd.Wait()
		output.flush()
		if errors.Is(waitErr, exec.ErrWaitDelay) {
			e.logger.Debug("Stopped reading output held open by a child", "command", commandLine)
		}
		e.logger.Info("Process exited", "pid", cmd.Process.Pid, "command", commandLine, "exit_code", ExitCode(waitErr))
	}()

	return nil
}

// logWriter forwards each complete output line to the debug log. exec copies
// into it from a single goroutine because stdout and stderr share it.
type logWriter struct {
	logger  logging.Logger
	command string
	pending []byte
}

func (w *logWriter) Write(p []byte) (int, error) {
	w.pending = append(w.pending, p...)
	for {
		i := bytes.IndexByte(w.pending, '\n')
		if i < 0 {
			break
		}
		w.logger.Debug(string(w.pending[:i]), "command", w.command)
		w.pending = w.pending[i+1:]
	}
	return len(p), nil
}

func (w *logWriter) flush() {
	if len(w.pending) > 0 {
		w.logger.Debug(string(w.pending), "command", w.command)
		w.pending = nil
	}
}

// CommandLine renders a command the way a shell user would type it.
func CommandLine(name string, args ...string) string {
	if len(args) == 0 {
		return name
	}
	return name + " " + strings.Join(args, " ")
}

// ExitCode extracts the exit code from a command error.
// Returns 0 for nil, the exit code for *exec.ExitError and -1 otherwise.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}

// IsNotFound reports whether err means the executable does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, exec.ErrNotFound)
}

// IsExit reports whether the command ran and exited with a non-zero status.
func IsExit(err error) bool {
	var exitErr *exec.ExitError
	return errors.As(err, &exitErr)
}
