package property

import "context"

// Property is the read-only listing record owned by the CRM layer.
// The publishing engine only ever reads it.
type Property struct {
	ID          string   `json:"id"`
	AgentID     string   `json:"agent_id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Price       float64  `json:"price"`
	Location    string   `json:"location"`
	Bedrooms    int      `json:"bedrooms"`
	Bathrooms   int      `json:"bathrooms"`
	Amenities   []string `json:"amenities"`
	Features    []string `json:"features"`
	ImageURLs   []string `json:"image_urls"`
}

// AgentContact is the agent's public contact card injected into prompts
// and used by channel publishers that need page/account bindings.
type AgentContact struct {
	AgentID     string `json:"agent_id"`
	DisplayName string `json:"display_name"`
	Phone       string `json:"phone"`
	WhatsApp    string `json:"whatsapp"`
	Email       string `json:"email"`
	Website     string `json:"website"`
}

// Gateway is the collaborator boundary towards the CRM data stores.
// SetVisibility is what the website channel uses to publish: it flips the
// property's public visibility flag for one language, no external call.
type Gateway interface {
	GetProperty(ctx context.Context, id string) (Property, error)
	GetAgentContact(ctx context.Context, agentID string) (AgentContact, error)
	SetVisibility(ctx context.Context, propertyID, language string, visible bool) error
}
