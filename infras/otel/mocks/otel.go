package mocks

import (
	"context"
	"sync"

	"facilitydesk/infras/otel"
)

// Recorder is an in-memory otel.Otel. Every scope it opens is kept so tests
// can check what was traced.
type Recorder struct {
	mu    sync.Mutex
	spans []*Span
}

func (r *Recorder) NewScope(ctx context.Context, _, name string) (context.Context, otel.Scope) {
	scope := newScope(name)

	r.mu.Lock()
	r.spans = append(r.spans, scope.span)
	r.mu.Unlock()

	return ctx, scope
}

func (r *Recorder) Shutdown(_ context.Context) error {
	return nil
}

// Spans returns the recorded spans named name, in opening order.
func (r *Recorder) Spans(name string) []Span {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []Span

	for _, s := range r.spans {
		if s.Name == name {
			out = append(out, *s)
		}
	}

	return out
}

func NewOtel() otel.Otel {
	return &Recorder{}
}

func NewRecorder() *Recorder {
	return &Recorder{}
}
