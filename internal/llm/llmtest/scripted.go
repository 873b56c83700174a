// Package llmtest provides a scripted llm.Completer for tests.
package llmtest

import (
	"context"
	"errors"
	"sync"

	"subsidyscout/internal/llm"
)

// ErrExhausted is returned once every scripted response was consumed.
var ErrExhausted = errors.New("llmtest: no scripted responses left")

// Scripted replays canned responses in order and records every request.
type Scripted struct {
	mu        sync.Mutex
	responses []Response
	calls     []llm.CompletionRequest
}

// Response is one scripted answer.
type Response struct {
	Text string
	Err  error
}

// New returns a Scripted completer answering with texts in order.
func New(texts ...string) *Scripted {
	s := &Scripted{}
	for _, t := range texts {
		s.responses = append(s.responses, Response{Text: t})
	}
	return s
}

// Then appends a response.
func (s *Scripted) Then(text string, err error) *Scripted {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.responses = append(s.responses, Response{Text: text, Err: err})
	return s
}

func (s *Scripted) Complete(_ context.Context, req llm.CompletionRequest) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls = append(s.calls, req)
	if len(s.responses) == 0 {
		return "", ErrExhausted
	}
	next := s.responses[0]
	s.responses = s.responses[1:]
	return next.Text, next.Err
}

// Calls returns a copy of the requests seen so far.
func (s *Scripted) Calls() []llm.CompletionRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]llm.CompletionRequest(nil), s.calls...)
}
