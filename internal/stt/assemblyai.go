package stt

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/rahul/sahaay/internal/conversation"
)

const realtimeEndpoint = "wss://api.assemblyai.com/v2/realtime/ws"

// audioChunkSize is ~100ms of 16kHz mono 16-bit PCM per frame.
const audioChunkSize = 3200

// AssemblyAI streams live transcription over the realtime websocket API.
// Audio is pulled from an injected PCM reader (s16le, mono) so the source
// itself stays independent of how audio is captured.
type AssemblyAI struct {
	APIKey     string
	SampleRate int
	Audio      io.Reader

	conn     *websocket.Conn
	writeMu  sync.Mutex
	stop     chan struct{}
	stopOnce sync.Once
}

func NewAssemblyAI(apiKey string, sampleRate int, audio io.Reader) *AssemblyAI {
	if sampleRate <= 0 {
		sampleRate = 16000
	}
	return &AssemblyAI{
		APIKey:     apiKey,
		SampleRate: sampleRate,
		Audio:      audio,
		stop:       make(chan struct{}),
	}
}

// realtimeMessage is the subset of the server's messages we care about.
type realtimeMessage struct {
	MessageType string `json:"message_type"`
	Text        string `json:"text"`
	Speaker     string `json:"speaker"`
	Error       string `json:"error"`
}

type audioFrame struct {
	AudioData string `json:"audio_data"`
}

type terminateFrame struct {
	TerminateSession bool `json:"terminate_session"`
}

func (a *AssemblyAI) Start(ctx context.Context) (<-chan conversation.TranscriptEntry, error) {
	if a.APIKey == "" {
		return nil, fmt.Errorf("assemblyai: missing API key")
	}
	if a.Audio == nil {
		return nil, fmt.Errorf("assemblyai: no audio input configured")
	}

	header := http.Header{}
	header.Set("Authorization", a.APIKey)

	url := fmt.Sprintf("%s?sample_rate=%d", realtimeEndpoint, a.SampleRate)
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, header)
	if err != nil {
		return nil, fmt.Errorf("assemblyai: dial realtime endpoint: %w", err)
	}
	a.conn = conn

	out := make(chan conversation.TranscriptEntry)

	go a.sendLoop(ctx)
	go a.readLoop(ctx, out)

	return out, nil
}

// sendLoop pushes audio frames until the reader drains, the context ends,
// or Stop is called. Reading the audio source may block; the conversation
// state is never involved here, so nothing else waits on it.
func (a *AssemblyAI) sendLoop(ctx context.Context) {
	buf := make([]byte, audioChunkSize)
	for {
		select {
		case <-ctx.Done():
			return
		case <-a.stop:
			return
		default:
		}

		n, err := a.Audio.Read(buf)
		if n > 0 {
			frame := audioFrame{AudioData: base64.StdEncoding.EncodeToString(buf[:n])}
			a.writeMu.Lock()
			werr := a.conn.WriteJSON(frame)
			a.writeMu.Unlock()
			if werr != nil {
				return
			}
		}
		if err != nil {
			a.terminate()
			return
		}
	}
}

func (a *AssemblyAI) readLoop(ctx context.Context, out chan<- conversation.TranscriptEntry) {
	defer close(out)
	defer a.conn.Close()

	for {
		var msg realtimeMessage
		if err := a.conn.ReadJSON(&msg); err != nil {
			return
		}
		if msg.MessageType != "FinalTranscript" || msg.Text == "" {
			continue
		}

		entry := conversation.NewTranscriptEntry(conversation.ParseSpeaker(msg.Speaker), msg.Text)
		select {
		case out <- entry:
		case <-ctx.Done():
			return
		case <-a.stop:
			return
		}
	}
}

// terminate asks the server to flush and close the session.
func (a *AssemblyAI) terminate() {
	a.writeMu.Lock()
	defer a.writeMu.Unlock()
	_ = a.conn.WriteJSON(terminateFrame{TerminateSession: true})
}

// Stop ends the stream. Calling it again is a no-op.
func (a *AssemblyAI) Stop() {
	a.stopOnce.Do(func() {
		close(a.stop)
		if a.conn != nil {
			a.terminate()
			// Give the server a moment to flush, then force the read
			// loop to unblock.
			time.AfterFunc(2*time.Second, func() { _ = a.conn.Close() })
		}
	})
}
