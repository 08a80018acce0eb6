// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package snapshot

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type record struct {
	ID    string `yaml:"id"`
	Value string `yaml:"value"`
}

func TestWriteThenLatest(t *testing.T) {
	store := NewStore(t.TempDir())

	records := []record{{ID: "1", Value: "a"}, {ID: "2", Value: "b"}}
	meta, err := Write(store, StageDiscovery, records)
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if meta.Count != 2 {
		t.Errorf("meta.Count = %d, want 2", meta.Count)
	}
	if meta.Version == "" {
		t.Error("meta.Version is empty")
	}

	snap, err := Latest[record](store, StageDiscovery)
	if err != nil {
		t.Fatalf("Latest: %v", err)
	}
	if len(snap.Records) != 2 {
		t.Fatalf("len(Records) = %d, want 2", len(snap.Records))
	}
	if snap.Records[0] != records[0] || snap.Records[1] != records[1] {
		t.Errorf("records round-trip mismatch: %+v", snap.Records)
	}
	if snap.Version != meta.Version {
		t.Errorf("snapshot version = %q, want %q", snap.Version, meta.Version)
	}
}

func TestLatestFollowsIndexNotTimestamps(t *testing.T) {
	store := NewStore(t.TempDir())

	if _, err := Write(store, StageProfiling, []record{{ID: "old"}}); err != nil {
		t.Fatal(err)
	}
	meta2, err := Write(store, StageProfiling, []record{{ID: "new"}})
	if err != nil {
		t.Fatal(err)
	}

	snap, err := Latest[record](store, StageProfiling)
	if err != nil {
		t.Fatal(err)
	}
	if snap.Version != meta2.Version {
		t.Errorf("latest version = %q, want %q", snap.Version, meta2.Version)
	}
	if snap.Records[0].ID != "new" {
		t.Errorf("latest record = %q, want %q", snap.Records[0].ID, "new")
	}
}

func TestVersionsNeverCollide(t *testing.T) {
	store := NewStore(t.TempDir())

	m1, err := Write(store, StageDiscovery, []record{})
	if err != nil {
		t.Fatal(err)
	}
	m2, err := Write(store, StageDiscovery, []record{})
	if err != nil {
		t.Fatal(err)
	}
	if m1.Version == m2.Version {
		t.Errorf("two writes in the same second produced the same version %q", m1.Version)
	}
}

func TestOldSnapshotsSurviveNewWrites(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir)

	m1, _ := Write(store, StageDiscovery, []record{{ID: "first"}})
	Write(store, StageDiscovery, []record{{ID: "second"}})

	// The superseded snapshot file must still exist; the store is
	// append-only and only the index pointer advances.
	if _, err := os.Stat(filepath.Join(dir, StageDiscovery, m1.Version+".yaml")); err != nil {
		t.Errorf("superseded snapshot missing: %v", err)
	}
}

func TestLatestNoSnapshot(t *testing.T) {
	store := NewStore(t.TempDir())

	_, err := Latest[record](store, StageValidation)
	if !errors.Is(err, ErrNoSnapshot) {
		t.Errorf("err = %v, want ErrNoSnapshot", err)
	}

	_, err = store.LatestMeta(StageValidation)
	if !errors.Is(err, ErrNoSnapshot) {
		t.Errorf("LatestMeta err = %v, want ErrNoSnapshot", err)
	}
}

func TestLatestCorruptSnapshot(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir)

	meta, err := Write(store, StageExtraction, []record{{ID: "x"}})
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, StageExtraction, meta.Version+".yaml")
	if err := os.WriteFile(path, []byte("{not yaml: ["), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := Latest[record](store, StageExtraction); err == nil {
		t.Error("expected parse error for corrupt snapshot")
	}
}

func TestLatestMetaSkipsRecords(t *testing.T) {
	store := NewStore(t.TempDir())

	if _, err := Write(store, StageDiscovery, []record{{ID: "1"}, {ID: "2"}, {ID: "3"}}); err != nil {
		t.Fatal(err)
	}

	meta, err := store.LatestMeta(StageDiscovery)
	if err != nil {
		t.Fatal(err)
	}
	if meta.Count != 3 {
		t.Errorf("meta.Count = %d, want 3", meta.Count)
	}
	if meta.Stage != StageDiscovery {
		t.Errorf("meta.Stage = %q, want %q", meta.Stage, StageDiscovery)
	}
}

func TestNoTempFilesLeftBehind(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir)

	if _, err := Write(store, StageDiscovery, []record{{ID: "1"}}); err != nil {
		t.Fatal(err)
	}

	var leftovers []string
	filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err == nil && !info.IsDir() && strings.HasSuffix(path, ".tmp") {
			leftovers = append(leftovers, path)
		}
		return nil
	})
	if len(leftovers) != 0 {
		t.Errorf("temp files left behind: %v", leftovers)
	}
}

func TestKnownStage(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"discovery", true},
		{"profiles", true},
		{"extracted", true},
		{"validated", true},
		{"outreach", true},
		{"Discovery", true},
		{"papers", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := KnownStage(tt.name); got != tt.want {
			t.Errorf("KnownStage(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}
