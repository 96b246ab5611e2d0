package conversation

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rahul/sahaay/internal/observability"
)

// DefaultSaveEvery is the append interval between automatic transcript saves.
const DefaultSaveEvery = 5

// Archiver durably stores a transcript snapshot and returns a reference to
// it (a filename, row id, URL...). Failures are non-fatal to the Manager.
type Archiver interface {
	SaveTranscript(ctx context.Context, conversationID string, entries []TranscriptEntry) (string, error)
}

// Listener observes every state mutation. It receives an independent
// snapshot and may call back into the Manager, reads and writes both: a
// mutation made from inside a listener is applied immediately and its own
// notification is delivered after the current one finishes.
type Listener func(*State)

// subscription pairs a listener with the stable id its cancel func removes.
type subscription struct {
	id int
	fn Listener
}

// notification is one queued snapshot plus the listeners registered at the
// moment of the mutation.
type notification struct {
	snap      *State
	listeners []subscription
}

// Manager is the sole owner of the conversation State. Every read and write
// goes through it, so a background transcription goroutine and an on-demand
// trigger handler can share the state without coordinating with each other.
//
// Locking: mu guards the state and is held only for in-memory mutation and
// copying, never across listener, archiver or network calls. Each mutation
// enqueues its snapshot on pending while still holding mu, then drains the
// queue with the lock released. Only one caller drains at a time; everyone
// else (including a listener re-entering a write) just enqueues and
// returns, so listeners always observe snapshots in mutation order and no
// call path ever waits on a lock it already holds.
type Manager struct {
	mu sync.Mutex

	state     *State
	listeners []subscription
	nextSub   int
	appends   int

	pending   []notification
	notifying bool

	archiver  Archiver
	saveEvery int
	logger    *observability.Logger
}

// NewManager creates a Manager around a fresh conversation. archiver may be
// nil (no persistence); saveEvery <= 0 selects DefaultSaveEvery.
func NewManager(archiver Archiver, saveEvery int, logger *observability.Logger) *Manager {
	if saveEvery <= 0 {
		saveEvery = DefaultSaveEvery
	}
	if logger == nil {
		logger = observability.NewLogger()
	}
	return &Manager{
		state:     NewState(),
		archiver:  archiver,
		saveEvery: saveEvery,
		logger:    logger,
	}
}

// AppendEntry adds one utterance to the transcript. Entries with empty text
// are dropped. Every saveEvery-th append schedules an archiver write in the
// background; the caller never waits on persistence.
func (m *Manager) AppendEntry(entry TranscriptEntry) {
	if strings.TrimSpace(entry.Text) == "" {
		return
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}

	m.mu.Lock()
	m.state.Transcript = append(m.state.Transcript, entry)
	m.appends++

	var saveEntries []TranscriptEntry
	saveID := m.state.ConversationID
	if m.archiver != nil && m.appends%m.saveEvery == 0 {
		saveEntries = append([]TranscriptEntry(nil), m.state.Transcript...)
	}
	m.enqueueLocked()
	m.mu.Unlock()

	if saveEntries != nil {
		go m.autosave(saveID, saveEntries)
	}
	m.notify()
}

// UpdateTask records a task status change. A task with a terminal status is
// moved into the history and the current slot is cleared in the same
// critical section, so no snapshot ever shows both. Tasks whose status is
// not one of the four defined values are rejected.
func (m *Manager) UpdateTask(task *Task) error {
	if task == nil {
		return fmt.Errorf("update task: nil task")
	}
	if !task.Status.Valid() {
		return fmt.Errorf("update task %s: undefined status %q", task.ID, task.Status)
	}

	cp := task.Clone()

	m.mu.Lock()
	if cp.Status.Terminal() {
		m.state.TaskHistory = append(m.state.TaskHistory, cp)
		m.state.CurrentTask = nil
	} else {
		m.state.CurrentTask = cp
	}
	id := m.state.ConversationID
	m.enqueueLocked()
	m.mu.Unlock()

	m.logger.LogTask(id, cp.ID, string(cp.Status), cp.Result)
	m.notify()
	return nil
}

// Clear resets the transcript and current task and mints a new conversation
// id. The task history survives as an audit trail. Atomic with respect to
// concurrent appends: an entry is always attributed entirely to the old
// conversation or entirely to the new one.
func (m *Manager) Clear() {
	m.mu.Lock()
	m.state.Transcript = nil
	m.state.CurrentTask = nil
	m.state.ConversationID = uuid.NewString()
	m.appends = 0
	m.enqueueLocked()
	m.mu.Unlock()

	m.notify()
}

// Transcript returns an independent copy of the transcript. The caller can
// iterate it freely; later appends never show up in the returned slice.
func (m *Manager) Transcript() []TranscriptEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]TranscriptEntry(nil), m.state.Transcript...)
}

// Snapshot returns an independent deep copy of the full state.
func (m *Manager) Snapshot() *State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.Clone()
}

// ConversationID returns the current conversation id without copying the
// rest of the state.
func (m *Manager) ConversationID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.ConversationID
}

// Subscribe registers a listener for every subsequent mutation. The
// returned cancel func removes it again; calling cancel more than once is
// a no-op.
func (m *Manager) Subscribe(fn Listener) (cancel func()) {
	m.mu.Lock()
	id := m.nextSub
	m.nextSub++
	m.listeners = append(m.listeners, subscription{id: id, fn: fn})
	m.mu.Unlock()

	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		for i, sub := range m.listeners {
			if sub.id == id {
				m.listeners = append(m.listeners[:i], m.listeners[i+1:]...)
				return
			}
		}
	}
}

// ListenerCount reports how many listeners are currently registered.
func (m *Manager) ListenerCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.listeners)
}

// SaveNow forces an immediate durable write of the current transcript.
// Returns "" when no archiver is configured or the transcript is empty.
func (m *Manager) SaveNow(ctx context.Context) (string, error) {
	m.mu.Lock()
	if m.archiver == nil || len(m.state.Transcript) == 0 {
		m.mu.Unlock()
		return "", nil
	}
	id := m.state.ConversationID
	entries := append([]TranscriptEntry(nil), m.state.Transcript...)
	m.mu.Unlock()

	ref, err := m.archiver.SaveTranscript(ctx, id, entries)
	if err != nil {
		m.logger.LogAutosave(id, "", err)
		return "", fmt.Errorf("save transcript: %w", err)
	}
	return ref, nil
}

// enqueueLocked appends the post-mutation snapshot to the dispatch queue.
// Caller holds mu; the queue order under mu is the mutation order.
func (m *Manager) enqueueLocked() {
	m.pending = append(m.pending, notification{
		snap:      m.state.Clone(),
		listeners: append([]subscription(nil), m.listeners...),
	})
}

// notify drains the pending queue with mu released around each dispatch.
// If a drain is already running (another goroutine, or this goroutine via
// a listener that mutated the state) the call returns immediately and the
// active drainer delivers the new snapshot next, preserving order.
func (m *Manager) notify() {
	m.mu.Lock()
	if m.notifying {
		m.mu.Unlock()
		return
	}
	m.notifying = true
	for len(m.pending) > 0 {
		n := m.pending[0]
		m.pending = m.pending[1:]
		m.mu.Unlock()
		m.dispatch(n.snap, n.listeners)
		m.mu.Lock()
	}
	m.notifying = false
	m.mu.Unlock()
}

// dispatch invokes every listener with the snapshot. A panicking listener
// is logged and skipped; the rest still run. No Manager lock is held here.
func (m *Manager) dispatch(snap *State, listeners []subscription) {
	for _, sub := range listeners {
		func() {
			defer func() {
				if r := recover(); r != nil {
					m.logger.LogListenerError(snap.ConversationID, sub.id, r)
				}
			}()
			sub.fn(snap)
		}()
	}
}

func (m *Manager) autosave(conversationID string, entries []TranscriptEntry) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	ref, err := m.archiver.SaveTranscript(ctx, conversationID, entries)
	m.logger.LogAutosave(conversationID, ref, err)
}
