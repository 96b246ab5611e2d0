package stt

import (
	"context"
	"testing"
	"time"

	"github.com/rahul/sahaay/internal/conversation"
)

func TestScripted_YieldsEntriesInOrder(t *testing.T) {
	lines := []ScriptLine{
		{conversation.SpeakerCustomer, "one"},
		{conversation.SpeakerAgent, "two"},
		{conversation.SpeakerCustomer, "three"},
	}
	s := NewScripted(lines, time.Millisecond)

	entries, err := s.Start(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	var got []string
	for e := range entries {
		got = append(got, e.Text)
		if e.Timestamp.IsZero() {
			t.Error("entry should be timestamped")
		}
	}

	if len(got) != len(lines) {
		t.Fatalf("received %d entries, want %d", len(got), len(lines))
	}
	for i, line := range lines {
		if got[i] != line.Text {
			t.Errorf("entry %d = %q, want %q", i, got[i], line.Text)
		}
	}
}

func TestScripted_StopIsIdempotent(t *testing.T) {
	s := NewScripted(nil, time.Hour) // long interval so the stream is mid-wait
	entries, err := s.Start(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	// First entry arrives immediately.
	select {
	case <-entries:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for first entry")
	}

	s.Stop()
	s.Stop() // second stop must be a no-op, not a panic or deadlock

	select {
	case _, open := <-entries:
		if open {
			t.Fatal("stream should be closed after Stop")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("stream did not close after Stop")
	}
}

func TestScripted_ContextCancelEndsStream(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s := NewScripted(nil, time.Hour)
	entries, err := s.Start(ctx)
	if err != nil {
		t.Fatal(err)
	}

	<-entries
	cancel()

	select {
	case _, open := <-entries:
		if open {
			t.Fatal("stream should close on context cancellation")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("stream did not close on context cancellation")
	}
}

func TestScripted_DefaultsToDemoScript(t *testing.T) {
	s := NewScripted(nil, time.Millisecond)
	entries, err := s.Start(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	var count int
	for range entries {
		count++
	}
	if count != len(DemoScript) {
		t.Errorf("received %d entries, want %d", count, len(DemoScript))
	}
}
