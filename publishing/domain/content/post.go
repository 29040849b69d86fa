package content

import "time"

// PostOutcome is the result of one publish attempt.
type PostOutcome string

const (
	PostOutcomePublished PostOutcome = "published"
	PostOutcomeFailed    PostOutcome = "failed"
	PostOutcomeScheduled PostOutcome = "scheduled"
)

// PublishedPost records one publish attempt for a draft. It is immutable
// once written; a retry appends a new record instead of mutating the old
// one. Only the latest attempt per draft is authoritative for the rollup.
type PublishedPost struct {
	ID             string      `json:"id"`
	DraftID        string      `json:"draft_id"`
	PropertyID     string      `json:"property_id"`
	Language       string      `json:"language"`
	Channel        Channel     `json:"channel"`
	PlatformPostID string      `json:"platform_post_id,omitempty"` // id on the external platform
	Outcome        PostOutcome `json:"outcome"`
	Error          string      `json:"error,omitempty"`
	PublishedAt    time.Time   `json:"published_at"`
	CreatedAt      time.Time   `json:"created_at"`
}
