package channel

import (
	"context"

	"github.com/casapress/casapress/publishing/domain/content"
	"github.com/casapress/casapress/publishing/domain/property"
)

// Error codes shared by every channel implementation. Channel-specific
// failures are normalized to these before they reach the orchestrator.
const (
	ErrCodeAuthExpired     = "auth_expired"
	ErrCodeRateLimited     = "rate_limited"
	ErrCodeContentRejected = "content_rejected"
	ErrCodeNetwork         = "network_error"
	ErrCodeBindingMissing  = "binding_missing"
	ErrCodeTimeout         = "timeout"
)

// ChannelError is the normalized failure every publisher returns.
// Retriable errors qualify for the failed -> ready retry path without
// regeneration; non-retriable ones (content rejection) need a human edit.
type ChannelError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Retriable bool   `json:"retriable"`
}

func (e *ChannelError) Error() string {
	return e.Code + ": " + e.Message
}

// AsChannelError extracts a *ChannelError if err is one.
func AsChannelError(err error) (*ChannelError, bool) {
	ce, ok := err.(*ChannelError)
	return ce, ok
}

// AccountRef identifies the platform account/page a draft publishes
// through. A language may map to a distinct page for the same agent.
type AccountRef struct {
	AgentID     string `json:"agent_id"`
	Language    string `json:"language"`
	PageID      string `json:"page_id"`
	AccessToken string `json:"-"`
}

// BindingResolver is the collaborator that maps (agent, language, channel)
// to the account binding. Missing bindings surface as a retriable
// binding_missing channel error at publish time.
type BindingResolver interface {
	ResolveBinding(ctx context.Context, agentID, language string, ch content.Channel) (AccountRef, error)
}

// Publisher is the uniform contract over {facebook, instagram, website}.
// Publish takes a claimed draft and returns the immutable attempt record or
// a *ChannelError.
type Publisher interface {
	Channel() content.Channel
	Publish(ctx context.Context, draft content.Draft, prop property.Property) (content.PublishedPost, error)
}
