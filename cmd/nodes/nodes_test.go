package nodes

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRun_OpenFailureIsSingleLineError(t *testing.T) {
	dir := t.TempDir()

	// A directory where the db file should be makes Open fail.
	badDB := filepath.Join(dir, "nodes.db")
	if err := os.Mkdir(badDB, 0755); err != nil {
		t.Fatal(err)
	}

	cfgPath := filepath.Join(dir, "config.toml")
	cfg := fmt.Sprintf("[beacon]\ndb_path = %q\nlog_level = \"disabled\"\n", badDB)
	if err := os.WriteFile(cfgPath, []byte(cfg), 0644); err != nil {
		t.Fatal(err)
	}

	err := Run(cfgPath)
	if err == nil {
		t.Fatal("Run succeeded with an unopenable registry")
	}
	if !strings.Contains(err.Error(), "opening node registry") {
		t.Errorf("error %q does not name the failing step", err)
	}
	if strings.Contains(err.Error(), "\n") {
		t.Errorf("error %q spans multiple lines", err)
	}
}
