package journal_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"cutify/internal/journal"
	"cutify/internal/testsupport"
)

func openJournal(t *testing.T) *journal.Journal {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	j, err := journal.Open(cfg)
	if err != nil {
		t.Fatalf("journal.Open: %v", err)
	}
	t.Cleanup(func() { _ = j.Close() })
	return j
}

func TestRecordLifecycle(t *testing.T) {
	j := openJournal(t)
	ctx := context.Background()

	if err := j.RecordStart(ctx, "op-1", 1, "toggle_character", []string{"scene/10/character/7"}); err != nil {
		t.Fatalf("RecordStart: %v", err)
	}
	entry, err := j.Get(ctx, "op-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if entry.Outcome != journal.OutcomePending || len(entry.Targets) != 1 {
		t.Fatalf("unexpected pending entry %+v", entry)
	}

	if err := j.RecordOutcome(ctx, "op-1", "reverted", "transient failure: http 503"); err != nil {
		t.Fatalf("RecordOutcome: %v", err)
	}
	entry, err = j.Get(ctx, "op-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if entry.Outcome != "reverted" || entry.Error == "" {
		t.Fatalf("unexpected settled entry %+v", entry)
	}
	if entry.CreatedAt.IsZero() || entry.UpdatedAt.Before(entry.CreatedAt) {
		t.Fatalf("unexpected timestamps %+v", entry)
	}
}

func TestRecordOutcomeUnknownOperation(t *testing.T) {
	j := openJournal(t)
	err := j.RecordOutcome(context.Background(), "missing", "confirmed", "")
	if !errors.Is(err, journal.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRecentFiltersAndOrders(t *testing.T) {
	j := openJournal(t)
	ctx := context.Background()
	for i, op := range []struct {
		id      string
		project int64
	}{{"a", 1}, {"b", 2}, {"c", 1}} {
		if err := j.RecordStart(ctx, op.id, op.project, "edit_scene", nil); err != nil {
			t.Fatalf("RecordStart %d: %v", i, err)
		}
	}

	all, err := j.Recent(ctx, 0, 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(all) != 3 || all[0].ID != "c" {
		t.Fatalf("expected newest first, got %+v", all)
	}
	scoped, err := j.Recent(ctx, 1, 10)
	if err != nil {
		t.Fatalf("Recent scoped: %v", err)
	}
	if len(scoped) != 2 {
		t.Fatalf("expected two entries for project 1, got %d", len(scoped))
	}
	limited, err := j.Recent(ctx, 0, 1)
	if err != nil || len(limited) != 1 {
		t.Fatalf("limit not applied: %v %d", err, len(limited))
	}
}

func TestAbandonAndPrune(t *testing.T) {
	j := openJournal(t)
	ctx := context.Background()
	_ = j.RecordStart(ctx, "done", 1, "reorder_scenes", nil)
	_ = j.RecordOutcome(ctx, "done", "confirmed", "")
	_ = j.RecordStart(ctx, "stuck", 1, "delete_scene", nil)

	n, err := j.AbandonPending(ctx)
	if err != nil || n != 1 {
		t.Fatalf("AbandonPending = %d, %v", n, err)
	}
	stats, err := j.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats["confirmed"] != 1 || stats[journal.OutcomeAbandoned] != 1 {
		t.Fatalf("unexpected stats %v", stats)
	}

	removed, err := j.Prune(ctx, time.Now().Add(time.Hour))
	if err != nil || removed != 2 {
		t.Fatalf("Prune = %d, %v", removed, err)
	}
}

func TestCurrentProjectRoundTrip(t *testing.T) {
	j := openJournal(t)
	ctx := context.Background()

	if _, ok, err := j.CurrentProject(ctx); err != nil || ok {
		t.Fatalf("fresh journal should have no project: %v %v", ok, err)
	}
	if err := j.SetCurrentProject(ctx, 4); err != nil {
		t.Fatalf("SetCurrentProject: %v", err)
	}
	if err := j.SetCurrentProject(ctx, 5); err != nil {
		t.Fatalf("SetCurrentProject overwrite: %v", err)
	}
	id, ok, err := j.CurrentProject(ctx)
	if err != nil || !ok || id != 5 {
		t.Fatalf("CurrentProject = %d %v %v", id, ok, err)
	}
	if err := j.SetCurrentProject(ctx, 0); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if _, ok, _ := j.CurrentProject(ctx); ok {
		t.Fatal("cleared project should be forgotten")
	}
}

func TestReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")
	j, err := journal.OpenPath(path)
	if err != nil {
		t.Fatalf("OpenPath: %v", err)
	}
	_ = j.SetCurrentProject(context.Background(), 9)
	_ = j.Close()

	j, err = journal.OpenPath(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer j.Close()
	if id, ok, _ := j.CurrentProject(context.Background()); !ok || id != 9 {
		t.Fatalf("expected project 9 after reopen, got %d %v", id, ok)
	}
}
