package caremap

import (
	"sync"

	"github.com/agentstation/caremap/pkg/sources"
)

// SourceSkippedHook is called once for each source a run skipped.
type SourceSkippedHook func(id sources.ID, reason error)

// DuplicateDroppedHook is called once for each record removed as a duplicate.
type DuplicateDroppedHook func(d Duplicate)

// DiagnosticHook is called once for each value nulled during normalization.
type DiagnosticHook func(d Diagnostic)

// hooks manages event callbacks
type hooks struct {
	mu                 sync.RWMutex
	onSourceSkipped    []SourceSkippedHook
	onDuplicateDropped []DuplicateDroppedHook
	onDiagnostic       []DiagnosticHook
}

func newHooks() *hooks {
	return &hooks{}
}

// OnSourceSkipped registers a callback for skipped sources
func (h *hooks) OnSourceSkipped(fn SourceSkippedHook) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onSourceSkipped = append(h.onSourceSkipped, fn)
}

// OnDuplicateDropped registers a callback for dropped duplicates
func (h *hooks) OnDuplicateDropped(fn DuplicateDroppedHook) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onDuplicateDropped = append(h.onDuplicateDropped, fn)
}

// OnDiagnostic registers a callback for normalization diagnostics
func (h *hooks) OnDiagnostic(fn DiagnosticHook) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onDiagnostic = append(h.onDiagnostic, fn)
}

// trigger replays a finished run's events to every registered callback in
// the order they appear in the result.
func (h *hooks) trigger(result *Result) {
	h.mu.RLock()
	skipped := append([]SourceSkippedHook(nil), h.onSourceSkipped...)
	dropped := append([]DuplicateDroppedHook(nil), h.onDuplicateDropped...)
	diagnostics := append([]DiagnosticHook(nil), h.onDiagnostic...)
	h.mu.RUnlock()

	for _, s := range result.Skipped {
		for _, fn := range skipped {
			fn(s.Source, s.Reason)
		}
	}
	for _, d := range result.Duplicates {
		for _, fn := range dropped {
			fn(d)
		}
	}
	for _, d := range result.Diagnostics {
		for _, fn := range diagnostics {
			fn(d)
		}
	}
}
