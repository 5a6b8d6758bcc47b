// Package notify delivers short text messages to players.
//
// Delivery is fire-and-forget: a Sink never reports failure to the caller.
package notify

import (
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

// Sink receives messages addressed to an actor.
type Sink interface {
	Notify(actor uuid.UUID, message string)
}

// Func adapts a function to Sink.
type Func func(actor uuid.UUID, message string)

// Notify calls f.
func (f Func) Notify(actor uuid.UUID, message string) { f(actor, message) }

// Discard drops every message.
var Discard Sink = Func(func(uuid.UUID, string) {})

// Entry is one recorded message.
type Entry struct {
	Actor   uuid.UUID `json:"actor" yaml:"actor"`
	Message string    `json:"message" yaml:"message"`
}

// Recorder keeps every message in delivery order.
type Recorder struct {
	mu      sync.Mutex
	entries []Entry
}

// NewRecorder returns an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Notify records the message.
func (r *Recorder) Notify(actor uuid.UUID, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, Entry{Actor: actor, Message: message})
}

// Entries returns a copy of the transcript.
func (r *Recorder) Entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Entry(nil), r.entries...)
}

// For returns the messages sent to one actor.
func (r *Recorder) For(actor uuid.UUID) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, e := range r.entries {
		if e.Actor == actor {
			out = append(out, e.Message)
		}
	}
	return out
}

// Last returns the most recent message sent to actor, or "".
func (r *Recorder) Last(actor uuid.UUID) string {
	msgs := r.For(actor)
	if len(msgs) == 0 {
		return ""
	}
	return msgs[len(msgs)-1]
}

// Reset clears the transcript.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = nil
}

// LogSink writes each message as an info record.
type LogSink struct {
	Logger *slog.Logger
}

// Notify logs the message.
func (s LogSink) Notify(actor uuid.UUID, message string) {
	l := s.Logger
	if l == nil {
		l = slog.Default()
	}
	l.Info("notify", "actor", actor, "message", message)
}

// WriterSink prints "[name] message" lines. Names come from Lookup, falling
// back to the actor id.
type WriterSink struct {
	mu     sync.Mutex
	w      io.Writer
	lookup func(uuid.UUID) string
}

// NewWriterSink returns a sink printing to w. lookup may be nil.
func NewWriterSink(w io.Writer, lookup func(uuid.UUID) string) *WriterSink {
	return &WriterSink{w: w, lookup: lookup}
}

// Notify prints the message.
func (s *WriterSink) Notify(actor uuid.UUID, message string) {
	name := actor.String()
	if s.lookup != nil {
		name = s.lookup(actor)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintf(s.w, "[%s] %s\n", name, message)
}

// Multi fans a message out to every sink in order.
func Multi(sinks ...Sink) Sink {
	return Func(func(actor uuid.UUID, message string) {
		for _, s := range sinks {
			s.Notify(actor, message)
		}
	})
}
