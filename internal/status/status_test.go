// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package status

import (
	"context"
	"testing"
	"time"

	"github.com/pdiddy/outreach-engine/internal/ledger"
	"github.com/pdiddy/outreach-engine/internal/snapshot"
	"github.com/pdiddy/outreach-engine/pkg/types"
)

func testStores(t *testing.T) (*snapshot.Store, *ledger.Store) {
	t.Helper()
	dir := t.TempDir()
	sends, err := ledger.Open(dir)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { sends.Close() })
	return snapshot.NewStore(dir), sends
}

func TestCollectEmptyPipeline(t *testing.T) {
	store, sends := testStores(t)

	stats, err := Collect(context.Background(), store, sends)
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if stats != (Stats{}) {
		t.Errorf("stats = %+v, want all zero before any stage runs", stats)
	}
}

func TestCollectCountsEachStage(t *testing.T) {
	store, sends := testStores(t)
	ctx := context.Background()

	papers := []types.PaperRecord{{ID: "1"}, {ID: "2"}, {ID: "3"}}
	if _, err := snapshot.Write(store, snapshot.StageDiscovery, papers); err != nil {
		t.Fatal(err)
	}
	profiles := []types.ProfileRecord{{Name: "A"}, {Name: "B"}}
	if _, err := snapshot.Write(store, snapshot.StageProfiling, profiles); err != nil {
		t.Fatal(err)
	}
	if _, err := snapshot.Write(store, snapshot.StageExtraction, profiles[:1]); err != nil {
		t.Fatal(err)
	}
	validated := []types.ValidatedRecord{{Email: "a@x.org"}}
	if _, err := snapshot.Write(store, snapshot.StageValidation, validated); err != nil {
		t.Fatal(err)
	}
	if err := sends.Append(ctx, time.Now(), "a@x.org"); err != nil {
		t.Fatal(err)
	}

	stats, err := Collect(ctx, store, sends)
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}

	want := Stats{PapersFound: 3, AuthorsProfiled: 2, WithEmails: 1, ReadyToSend: 1, EmailsSent: 1}
	if stats != want {
		t.Errorf("stats = %+v, want %+v", stats, want)
	}
}

func TestCollectReflectsLatestSnapshotOnly(t *testing.T) {
	store, sends := testStores(t)

	if _, err := snapshot.Write(store, snapshot.StageDiscovery, []types.PaperRecord{{ID: "1"}, {ID: "2"}}); err != nil {
		t.Fatal(err)
	}
	if _, err := snapshot.Write(store, snapshot.StageDiscovery, []types.PaperRecord{{ID: "3"}}); err != nil {
		t.Fatal(err)
	}

	stats, err := Collect(context.Background(), store, sends)
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if stats.PapersFound != 1 {
		t.Errorf("PapersFound = %d, want the latest snapshot's count", stats.PapersFound)
	}
}
