// Package provider defines the contract with the model endpoint.
package provider

import "context"

// Message is one conversation turn as the model endpoint sees it.
type Message struct {
	Role    string
	Content string
}

// ChatRequest is a single model call: the full retained context plus the
// request's constraints.
type ChatRequest struct {
	Model    string
	Messages []Message

	// ForceJSON asks the endpoint to constrain the reply to a JSON object.
	// Set on the tool-decision call, never on summarization.
	ForceJSON bool
}

// Provider is the model backend. The response is a single text blob; the
// caller classifies it.
type Provider interface {
	// Chat sends the request and returns the reply content. Implementations
	// apply their own per-call timeout and retry policy; the returned error
	// wraps ErrUnavailable or ErrRequestTimeout once attempts are exhausted.
	Chat(ctx context.Context, req *ChatRequest) (string, error)

	// Ping reports whether the endpoint is reachable.
	Ping(ctx context.Context) error

	// ListModels returns the model identifiers the endpoint serves.
	ListModels(ctx context.Context) ([]string, error)
}
