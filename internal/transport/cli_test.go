package transport

import (
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func requireTool(t *testing.T, name string) {
	t.Helper()
	if _, err := exec.LookPath(name); err != nil {
		t.Skipf("%s not available: %v", name, err)
	}
}

func TestCLITransport_ExitZeroIsSuccess(t *testing.T) {
	requireTool(t, "true")

	tr := NewCLITransport("true", Broadcast, 5*time.Second, zerolog.Nop())
	if err := tr.Connect(); err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer tr.Disconnect()

	if err := tr.Send("Bat: 50%"); err != nil {
		t.Errorf("send: %v", err)
	}
}

func TestCLITransport_NonZeroExitIsFailure(t *testing.T) {
	requireTool(t, "false")

	tr := NewCLITransport("false", Broadcast, 5*time.Second, zerolog.Nop())
	if err := tr.Connect(); err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer tr.Disconnect()

	if err := tr.Send("Bat: 50%"); err == nil {
		t.Error("non-zero exit must be a send failure")
	}
}

func TestCLITransport_TimeoutKillsProcess(t *testing.T) {
	requireTool(t, "sh")

	// A stand-in radio tool that hangs regardless of arguments. The
	// backgrounded sleep is a grandchild inheriting our output pipe:
	// killing only the direct child must not leave Send blocked on it.
	script := filepath.Join(t.TempDir(), "slow-radio")
	if err := os.WriteFile(script, []byte("#!/bin/sh\nsleep 5 &\nwait $!\n"), 0755); err != nil {
		t.Fatalf("write script: %v", err)
	}

	tr := NewCLITransport(script, Broadcast, 100*time.Millisecond, zerolog.Nop())
	if err := tr.Connect(); err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer tr.Disconnect()

	start := time.Now()
	err := tr.Send("hello")
	if err == nil {
		t.Fatal("timed-out invocation must be a send failure")
	}
	if !strings.Contains(err.Error(), "timed out") {
		t.Errorf("error should mention the timeout, got: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("send took %s, the subprocess was not killed on timeout", elapsed)
	}
}

func TestCLITransport_MissingToolFailsConnect(t *testing.T) {
	tr := NewCLITransport("definitely-not-a-radio-tool", Broadcast, time.Second, zerolog.Nop())
	if err := tr.Connect(); err == nil {
		t.Fatal("connect must fail when the tool is absent")
	}

	if err := tr.Send("x"); !errors.Is(err, ErrNotConnected) {
		t.Errorf("send without connect: got %v, want ErrNotConnected", err)
	}

	// disconnect on a never-connected transport must be safe
	if err := tr.Disconnect(); err != nil {
		t.Errorf("disconnect: %v", err)
	}
}
