package metrics

import "time"

// AssignmentEvent records one hero assignment decision.
type AssignmentEvent struct {
	HeroID     string
	HeroName   string
	RequestID  string
	City       string
	Queued     bool
	ETASeconds int
	Time       time.Time
}

// CompletionEvent records one finished delivery.
type CompletionEvent struct {
	HeroID      string
	HeroName    string
	RequestID   string
	City        string
	Gift        string
	ETASeconds  int
	CompletedAt time.Time
}

// Sink records dispatch events for observability purposes.
type Sink interface {
	RecordAssignment(ev AssignmentEvent) error
	RecordCompletion(ev CompletionEvent) error
}

// NopSink implements Sink with no-op methods.
type NopSink struct{}

func (NopSink) RecordAssignment(AssignmentEvent) error { return nil }
func (NopSink) RecordCompletion(CompletionEvent) error { return nil }
