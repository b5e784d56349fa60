package transport

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"syscall"
	"time"

	"github.com/rs/zerolog"
)

// pipeAbandonDelay bounds how long Wait may keep collecting output after
// the deadline kill, in case an orphaned descendant still holds the pipes.
const pipeAbandonDelay = time.Second

// CLITransport shells out to an external radio tool for every send. No
// handle persists between sends; Connect only verifies the tool exists,
// so a missing binary fails the run up front instead of every cycle.
type CLITransport struct {
	command string
	dest    Destination
	timeout time.Duration
	log     zerolog.Logger

	path string
}

// NewCLITransport returns a transport invoking the given command per
// send, with a hard per-invocation timeout.
func NewCLITransport(command string, dest Destination, timeout time.Duration, log zerolog.Logger) *CLITransport {
	return &CLITransport{command: command, dest: dest, timeout: timeout, log: log}
}

func (t *CLITransport) Connect() error {
	path, err := exec.LookPath(t.command)
	if err != nil {
		return fmt.Errorf("radio tool %q not found: %w", t.command, err)
	}
	t.path = path
	return nil
}

// Send spawns one bounded invocation. Exit status zero means success. On
// timeout the tool's whole process group is killed, so a wrapper script
// cannot leave a grandchild running or holding the output pipes.
func (t *CLITransport) Send(text string) error {
	if t.path == "" {
		return ErrNotConnected
	}

	ctx, cancel := context.WithTimeout(context.Background(), t.timeout)
	defer cancel()

	args := t.sendArgs(text)
	cmd := exec.CommandContext(ctx, t.path, args...)
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		// negative pid signals the whole group, descendants included
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}
	cmd.WaitDelay = pipeAbandonDelay

	out, err := cmd.CombinedOutput()

	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%s timed out after %s", t.command, t.timeout)
	}
	if err != nil {
		return fmt.Errorf("%s failed: %w (%s)", t.command, err, bytes.TrimSpace(out))
	}

	t.log.Debug().Stringer("dest", t.dest).Msg("Radio tool invocation succeeded")
	return nil
}

func (t *CLITransport) sendArgs(text string) []string {
	args := []string{"--sendtext", text}
	if t.dest != Broadcast {
		args = append(args, "--dest", strconv.FormatUint(uint64(t.dest), 10))
	}
	return args
}

// Disconnect is a no-op: nothing persists between sends.
func (t *CLITransport) Disconnect() error {
	t.path = ""
	return nil
}
