package metrics

import coremetrics "github.com/npole/herodispatch/core/metrics"

// MultiSink fans dispatch events out to multiple sinks.
type MultiSink struct {
	Sinks []coremetrics.Sink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...coremetrics.Sink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordAssignment forwards the event to all sinks, returning the first error
// encountered.
func (m *MultiSink) RecordAssignment(ev coremetrics.AssignmentEvent) error {
	for _, s := range m.Sinks {
		if err := s.RecordAssignment(ev); err != nil {
			return err
		}
	}
	return nil
}

// RecordCompletion forwards the event to all sinks.
func (m *MultiSink) RecordCompletion(ev coremetrics.CompletionEvent) error {
	for _, s := range m.Sinks {
		if err := s.RecordCompletion(ev); err != nil {
			return err
		}
	}
	return nil
}
