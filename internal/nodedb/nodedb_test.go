package nodedb

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "nodes.db"), zerolog.Nop())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestUpsertAndList(t *testing.T) {
	s := testStore(t)

	rec := Record{
		Num:       0x9e6a2d0c,
		ID:        "!9e6a2d0c",
		LongName:  "Ridge Repeater",
		ShortName: "RDG1",
		Battery:   87,
	}
	if err := s.Upsert(rec); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	nodes, err := s.List()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(nodes) != 1 {
		t.Fatalf("got %d records, want 1", len(nodes))
	}

	got := nodes[0]
	if got.Num != rec.Num || got.LongName != rec.LongName || got.Battery != 87 {
		t.Errorf("record mismatch: %+v", got)
	}
	if got.FirstSeen.IsZero() || got.LastSeen.IsZero() {
		t.Error("timestamps must be set on first upsert")
	}
}

func TestUpsert_PreservesFirstSeenAndBattery(t *testing.T) {
	s := testStore(t)

	if err := s.Upsert(Record{Num: 1, LongName: "Gate", Battery: 55}); err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	nodes, _ := s.List()
	firstSeen := nodes[0].FirstSeen

	time.Sleep(10 * time.Millisecond)

	// Update without battery info: -1 means the frame carried no metrics.
	if err := s.Upsert(Record{Num: 1, Battery: -1}); err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	nodes, err := s.List()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(nodes) != 1 {
		t.Fatalf("got %d records, want 1", len(nodes))
	}

	got := nodes[0]
	if !got.FirstSeen.Equal(firstSeen) {
		t.Errorf("FirstSeen changed: %v -> %v", firstSeen, got.FirstSeen)
	}
	if got.Battery != 55 {
		t.Errorf("battery: got %d, want preserved 55", got.Battery)
	}
	if got.LongName != "Gate" {
		t.Errorf("long name: got %q, want preserved \"Gate\"", got.LongName)
	}
	if !got.LastSeen.After(firstSeen) {
		t.Error("LastSeen must advance on update")
	}
}

func TestResolveName(t *testing.T) {
	s := testStore(t)

	s.Upsert(Record{Num: 0xa1b2c3d4, LongName: "Barn Station", ShortName: "BARN", Battery: -1})
	s.Upsert(Record{Num: 42, LongName: "Gate", ShortName: "GATE", Battery: -1})

	num, ok := s.ResolveName("barn station")
	if !ok || num != 0xa1b2c3d4 {
		t.Errorf("long name lookup: got (%d, %v)", num, ok)
	}

	num, ok = s.ResolveName("GATE")
	if !ok || num != 42 {
		t.Errorf("short name lookup: got (%d, %v)", num, ok)
	}

	if _, ok := s.ResolveName("nope"); ok {
		t.Error("unknown name must not resolve")
	}
}
