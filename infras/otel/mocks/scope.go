package mocks

import "sync"

// Span is what a scope recorded, kept for assertions.
type Span struct {
	Name       string
	Events     []string
	Errors     []error
	Attributes map[string]any
	Ended      bool
}

// scopeImpl implements otel.Scope.
type scopeImpl struct {
	mu   sync.Mutex
	span *Span
}

func (s *scopeImpl) AddEvent(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.span.Events = append(s.span.Events, name)
}

func (s *scopeImpl) End() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.span.Ended = true
}

func (s *scopeImpl) SetAttribute(key string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.span.Attributes[key] = value
}

func (s *scopeImpl) SetAttributes(attributes map[string]any) {
	for key, value := range attributes {
		s.SetAttribute(key, value)
	}
}

func (s *scopeImpl) TraceError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.span.Errors = append(s.span.Errors, err)
}

func (s *scopeImpl) TraceIfError(err error) {
	if err != nil {
		s.TraceError(err)
	}
}

func newScope(name string) *scopeImpl {
	return &scopeImpl{span: &Span{Name: name, Attributes: map[string]any{}}}
}
