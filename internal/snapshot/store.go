// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package snapshot implements the versioned artifact store that connects
// pipeline stages. Every stage output is an immutable YAML snapshot; a small
// index file maps stage name to the most recent version, so consumers never
// depend on filesystem timestamps for ordering.
package snapshot

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.yaml.in/yaml/v3"
)

const indexFile = "index.yaml"

// ErrNoSnapshot is returned by Latest when a stage has never published.
var ErrNoSnapshot = errors.New("no snapshot published for stage")

// Meta is the snapshot envelope without its records. Reading it does not
// decode the record payload, so summary queries stay cheap.
type Meta struct {
	Stage     string    `json:"stage" yaml:"stage"`
	Version   string    `json:"version" yaml:"version"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
	Count     int       `json:"count" yaml:"count"`
}

// Snapshot is the on-disk form of one stage output: the envelope plus the
// records themselves.
type Snapshot[T any] struct {
	Stage     string    `yaml:"stage"`
	Version   string    `yaml:"version"`
	CreatedAt time.Time `yaml:"created_at"`
	Count     int       `yaml:"count"`
	Records   []T       `yaml:"records"`
}

// Store manages snapshots under a base directory. Snapshots live at
// <dir>/<stage>/<version>.yaml and are never rewritten; only the index
// advances.
type Store struct {
	dir string

	// mu serializes index updates. Snapshot files themselves are
	// write-once so they need no locking.
	mu sync.Mutex
}

// NewStore returns a Store rooted at dir. The directory is created lazily
// on first write.
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// Dir returns the store's base directory.
func (s *Store) Dir() string { return s.dir }

// Write publishes a new snapshot for stage. The snapshot is written to a
// temporary file and renamed into place, then the index is advanced, so a
// reader can never observe a partially written snapshot.
func Write[T any](s *Store, stage string, records []T) (Meta, error) {
	if stage == "" {
		return Meta{}, fmt.Errorf("stage name is empty")
	}

	now := time.Now().UTC()
	version := now.Format("20060102T150405Z") + "-" + uuid.NewString()[:8]

	snap := Snapshot[T]{
		Stage:     stage,
		Version:   version,
		CreatedAt: now,
		Count:     len(records),
		Records:   records,
	}

	data, err := yaml.Marshal(&snap)
	if err != nil {
		return Meta{}, fmt.Errorf("marshaling %s snapshot: %w", stage, err)
	}

	stageDir := filepath.Join(s.dir, stage)
	if err := os.MkdirAll(stageDir, 0o755); err != nil {
		return Meta{}, fmt.Errorf("creating snapshot directory %s: %w", stageDir, err)
	}

	finalPath := filepath.Join(stageDir, version+".yaml")
	if err := atomicWrite(finalPath, data); err != nil {
		return Meta{}, fmt.Errorf("writing %s snapshot: %w", stage, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.updateIndex(stage, version); err != nil {
		return Meta{}, err
	}

	return Meta{Stage: stage, Version: version, CreatedAt: now, Count: len(records)}, nil
}

// Latest loads the most recent snapshot for stage. It returns ErrNoSnapshot
// if the stage has never published. A snapshot that exists but cannot be
// parsed is an error; callers treat that as empty input.
func Latest[T any](s *Store, stage string) (*Snapshot[T], error) {
	version, err := s.latestVersion(stage)
	if err != nil {
		return nil, err
	}

	path := filepath.Join(s.dir, stage, version+".yaml")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading snapshot %s: %w", path, err)
	}

	var snap Snapshot[T]
	if err := yaml.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("parsing snapshot %s: %w", path, err)
	}
	return &snap, nil
}

// LatestMeta reads only the envelope of the most recent snapshot for stage.
func (s *Store) LatestMeta(stage string) (Meta, error) {
	version, err := s.latestVersion(stage)
	if err != nil {
		return Meta{}, err
	}

	path := filepath.Join(s.dir, stage, version+".yaml")
	data, err := os.ReadFile(path)
	if err != nil {
		return Meta{}, fmt.Errorf("reading snapshot %s: %w", path, err)
	}

	var meta Meta
	if err := yaml.Unmarshal(data, &meta); err != nil {
		return Meta{}, fmt.Errorf("parsing snapshot envelope %s: %w", path, err)
	}
	return meta, nil
}

func (s *Store) latestVersion(stage string) (string, error) {
	index, err := s.readIndex()
	if err != nil {
		return "", err
	}
	version, ok := index[stage]
	if !ok || version == "" {
		return "", fmt.Errorf("%w: %s", ErrNoSnapshot, stage)
	}
	return version, nil
}

func (s *Store) readIndex() (map[string]string, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, indexFile))
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("reading snapshot index: %w", err)
	}
	index := map[string]string{}
	if err := yaml.Unmarshal(data, &index); err != nil {
		return nil, fmt.Errorf("parsing snapshot index: %w", err)
	}
	return index, nil
}

// updateIndex rewrites the index with stage pointing at version. Caller
// holds s.mu.
func (s *Store) updateIndex(stage, version string) error {
	index, err := s.readIndex()
	if err != nil {
		return err
	}
	index[stage] = version

	data, err := yaml.Marshal(index)
	if err != nil {
		return fmt.Errorf("marshaling snapshot index: %w", err)
	}
	if err := atomicWrite(filepath.Join(s.dir, indexFile), data); err != nil {
		return fmt.Errorf("writing snapshot index: %w", err)
	}
	return nil
}

// atomicWrite writes data to path via a temp file and rename, so readers
// observe either the old content or the new, never a partial write.
func atomicWrite(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".snapshot-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

// Stage names used across the pipeline. Snapshot consumers and the control
// surface share these so the index keys stay consistent.
const (
	StageDiscovery  = "discovery"
	StageProfiling  = "profiles"
	StageExtraction = "extracted"
	StageValidation = "validated"
	StageOutreach   = "outreach"
)

// KnownStage reports whether name is one of the pipeline stages.
func KnownStage(name string) bool {
	switch strings.ToLower(name) {
	case StageDiscovery, StageProfiling, StageExtraction, StageValidation, StageOutreach:
		return true
	}
	return false
}
