package draft

import (
	"context"

	"github.com/casapress/casapress/publishing/domain/content"
)

type IDraftUsecase interface {
	Generate(ctx context.Context, request GenerateRequest) (GenerateResponse, error)
	Update(ctx context.Context, draftID string, request UpdateRequest) (content.Draft, error)
	MarkReady(ctx context.Context, request MarkReadyRequest) ([]content.Draft, error)
	Retry(ctx context.Context, draftID string) (content.Draft, error)
	List(ctx context.Context, propertyID, language string) ([]content.Draft, error)
	Get(ctx context.Context, draftID string) (content.Draft, error)
}

type GenerateRequest struct {
	PropertyID     string   `json:"property_id"`
	AgentID        string   `json:"agent_id,omitempty"`
	Language       string   `json:"language"`
	Channels       []string `json:"channels"`
	Tone           string   `json:"tone,omitempty"`
	Length         string   `json:"length,omitempty"`
	IncludeContact *bool    `json:"include_contact,omitempty"`
}

type GenerateResponse struct {
	Drafts  []content.Draft      `json:"drafts"`
	Results []content.PairResult `json:"results"`
}

// UpdateRequest is a partial edit; nil fields stay untouched. Setting
// Status to "ready" marks the draft ready in the same call.
type UpdateRequest struct {
	Title           *string   `json:"title,omitempty"`
	Body            *string   `json:"body,omitempty"`
	Hashtags        *[]string `json:"hashtags,omitempty"`
	MediaIDs        *[]string `json:"media_ids,omitempty"`
	ContactIncluded *bool     `json:"contact_included,omitempty"`
	Status          *string   `json:"status,omitempty"`
	EditedBy        string    `json:"edited_by,omitempty"`
}

type MarkReadyRequest struct {
	DraftIDs []string `json:"draft_ids"`
}
