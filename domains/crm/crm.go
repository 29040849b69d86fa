package crm

import (
	"context"

	"github.com/casapress/casapress/publishing/domain/property"
)

// ICRMUsecase seeds the CRM-side records the publishing engine reads:
// properties, agent contacts and channel account bindings.
type ICRMUsecase interface {
	SaveProperty(ctx context.Context, request property.Property) error
	SaveAgentContact(ctx context.Context, request property.AgentContact) error
	SaveBinding(ctx context.Context, request BindingRequest) error
}

type BindingRequest struct {
	AgentID     string `json:"agent_id"`
	Language    string `json:"language"`
	Channel     string `json:"channel"`
	PageID      string `json:"page_id"`
	AccessToken string `json:"access_token"`
}
