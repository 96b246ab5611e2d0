// Package store persists transcript snapshots: plain-text files for easy
// operator review, or a SQLite database for querying across sessions.
package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/rahul/sahaay/internal/conversation"
)

// FileArchiver writes each snapshot as a timestamped plain-text file.
type FileArchiver struct {
	Dir string
}

func NewFileArchiver(dir string) (*FileArchiver, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create transcript directory: %w", err)
	}
	return &FileArchiver{Dir: dir}, nil
}

// SaveTranscript writes the snapshot and returns the file path.
func (f *FileArchiver) SaveTranscript(ctx context.Context, conversationID string, entries []conversation.TranscriptEntry) (string, error) {
	name := fmt.Sprintf("transcript_%s_%s.txt", conversationID, time.Now().Format("20060102_150405"))
	path := filepath.Join(f.Dir, name)

	if err := os.WriteFile(path, []byte(RenderTranscript(conversationID, entries)), 0644); err != nil {
		return "", fmt.Errorf("write transcript %s: %w", path, err)
	}
	return path, nil
}

// List returns saved transcript filenames, most recent first.
func (f *FileArchiver) List() ([]string, error) {
	dirEntries, err := os.ReadDir(f.Dir)
	if err != nil {
		return nil, fmt.Errorf("list transcripts: %w", err)
	}

	var names []string
	for _, e := range dirEntries {
		name := e.Name()
		if !e.IsDir() && strings.HasPrefix(name, "transcript_") && strings.HasSuffix(name, ".txt") {
			names = append(names, name)
		}
	}
	sort.Sort(sort.Reverse(sort.StringSlice(names)))
	return names, nil
}

// LoadText reads back a saved transcript by filename.
func (f *FileArchiver) LoadText(name string) (string, error) {
	data, err := os.ReadFile(filepath.Join(f.Dir, name))
	if err != nil {
		return "", fmt.Errorf("load transcript %s: %w", name, err)
	}
	return string(data), nil
}

// RenderTranscript formats a snapshot as the plain text stored by every
// archiver: a header, one line per utterance, and an entry count footer.
func RenderTranscript(conversationID string, entries []conversation.TranscriptEntry) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Conversation ID: %s\n", conversationID)
	fmt.Fprintf(&b, "Timestamp: %s\n", time.Now().Format("2006-01-02 15:04:05"))
	b.WriteString(strings.Repeat("=", 50) + "\n\n")

	for _, e := range entries {
		fmt.Fprintf(&b, "[%s] %s: %s\n", e.Timestamp.Format("15:04:05"), e.Speaker, e.Text)
	}

	b.WriteString("\n" + strings.Repeat("=", 50) + "\n")
	fmt.Fprintf(&b, "Total entries: %d\n", len(entries))
	return b.String()
}
