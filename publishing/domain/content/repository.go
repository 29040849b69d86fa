package content

import (
	"context"
	"time"
)

// DraftUpdate carries a partial field update from a human editor.
// Nil pointers leave the field untouched.
type DraftUpdate struct {
	Title           *string
	Body            *string
	Hashtags        *[]string
	MediaIDs        *[]string
	ContactIncluded *bool
	EditedBy        string
}

// IContentRepository is the single mutable store of the publishing engine.
// Consistency contract: read-your-writes per property; every status change
// goes through TransitionDraft, which only succeeds when the stored status
// matches the expected pre-state (compare-and-swap), so racing orchestration
// attempts cannot lose updates.
type IContentRepository interface {
	Init(ctx context.Context) error

	// UpsertDraft replaces the non-archived draft for the natural key
	// (PropertyID, Language, Channel) or inserts a new one. The surrogate id
	// of an existing draft is preserved.
	UpsertDraft(ctx context.Context, d Draft) (Draft, error)
	GetDraft(ctx context.Context, id string) (Draft, error)
	GetDraftByKey(ctx context.Context, propertyID, language string, ch Channel) (Draft, error)
	// ListDraftsByProperty returns non-archived drafts; language == "" means all.
	ListDraftsByProperty(ctx context.Context, propertyID, language string) ([]Draft, error)

	// UpdateDraftFields applies a human edit and moves the draft to edited
	// (legal from generated, edited and failed only).
	UpdateDraftFields(ctx context.Context, id string, upd DraftUpdate) (Draft, error)

	// TransitionDraft atomically moves a draft from the expected status to
	// the target status, applying mutate (may be nil) to the stored row in
	// the same write. Returns a state-conflict error when the stored status
	// no longer matches from.
	TransitionDraft(ctx context.Context, id string, from, to DraftStatus, mutate func(*Draft)) (Draft, error)

	CreatePost(ctx context.Context, p PublishedPost) error
	ListPostsByProperty(ctx context.Context, propertyID string) ([]PublishedPost, error)
	ListPostsByDraft(ctx context.Context, draftID string) ([]PublishedPost, error)

	CreateJob(ctx context.Context, j PublishJob) error
	UpdateJob(ctx context.Context, j PublishJob) error
	GetJob(ctx context.Context, id string) (PublishJob, error)
	// ListDueScheduledJobs returns scheduled jobs whose ScheduledAt is at or
	// before the given time.
	ListDueScheduledJobs(ctx context.Context, before time.Time) ([]PublishJob, error)

	// Archival state is an external signal from the property owner, stored
	// alongside the drafts so the aggregator can read one snapshot.
	SetArchived(ctx context.Context, propertyID string, archived bool) error
	IsArchived(ctx context.Context, propertyID string) (bool, error)
}
