package content

import "time"

// JobStatus is the lifecycle of a publish job.
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusScheduled JobStatus = "scheduled"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
)

// PairResult is the outcome for one (language, channel) pair in a batch.
// A publish request always resolves to a full per-pair table; partial
// success is never collapsed into a single boolean.
type PairResult struct {
	Language  string      `json:"language"`
	Channel   Channel     `json:"channel"`
	DraftID   string      `json:"draft_id,omitempty"`
	Outcome   string      `json:"outcome"` // generated, published, failed, skipped
	Error     string      `json:"error,omitempty"`
	Retriable bool        `json:"retriable,omitempty"`
	Status    DraftStatus `json:"draft_status,omitempty"`
}

// PublishJob is the persisted log of one publish request. Status can always
// be recomputed from drafts+posts; the job record exists so operators can
// inspect in-flight batches and so the publish endpoint has a handle to
// return.
type PublishJob struct {
	ID            string       `json:"id"`
	PropertyID    string       `json:"property_id"`
	Languages     []string     `json:"languages"`
	Channels      []Channel    `json:"channels"`
	DraftIDs      []string     `json:"draft_ids,omitempty"` // set for draft-level publish requests
	AutoApprove   bool         `json:"auto_approve"`
	AutoTranslate bool         `json:"auto_translate"`
	ScheduledAt   *time.Time   `json:"scheduled_at,omitempty"`
	Status        JobStatus    `json:"status"`
	Results       []PairResult `json:"results,omitempty"`
	CreatedAt     time.Time    `json:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at"`
}
