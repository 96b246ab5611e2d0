package store

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
)

func newTestDB(t *testing.T) *SQLiteArchiver {
	t.Helper()
	db, err := NewSQLiteArchiver(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestSQLiteArchiver_SaveTranscript(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	ref, err := db.SaveTranscript(ctx, "conv-123", sampleEntries())
	if err != nil {
		t.Fatalf("SaveTranscript failed: %v", err)
	}
	if !strings.HasPrefix(ref, "sqlite:transcripts/") {
		t.Errorf("unexpected reference %q", ref)
	}

	body, err := db.LatestBody(ctx, "conv-123")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(body, "Conversation ID: conv-123") {
		t.Error("stored body should carry the conversation id")
	}
}

func TestSQLiteArchiver_LatestBodyPicksNewestSnapshot(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	first := sampleEntries()[:1]
	if _, err := db.SaveTranscript(ctx, "conv-123", first); err != nil {
		t.Fatal(err)
	}
	if _, err := db.SaveTranscript(ctx, "conv-123", sampleEntries()); err != nil {
		t.Fatal(err)
	}

	body, err := db.LatestBody(ctx, "conv-123")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(body, "Total entries: 2") {
		t.Errorf("expected the 2-entry snapshot, got %q", body)
	}
}

func TestSQLiteArchiver_ListConversations(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	if _, err := db.SaveTranscript(ctx, "conv-a", sampleEntries()); err != nil {
		t.Fatal(err)
	}
	if _, err := db.SaveTranscript(ctx, "conv-b", sampleEntries()); err != nil {
		t.Fatal(err)
	}
	if _, err := db.SaveTranscript(ctx, "conv-a", sampleEntries()); err != nil {
		t.Fatal(err)
	}

	ids, err := db.ListConversations(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != 2 {
		t.Fatalf("expected 2 conversations, got %d", len(ids))
	}
}

func TestSQLiteArchiver_LatestBodyMissingConversation(t *testing.T) {
	db := newTestDB(t)

	if _, err := db.LatestBody(context.Background(), "never-saved"); err == nil {
		t.Fatal("expected an error for an unknown conversation")
	}
}
