package channels

import (
	"context"
	"time"

	"github.com/casapress/casapress/publishing/domain/channel"
	"github.com/casapress/casapress/publishing/domain/content"
	"github.com/casapress/casapress/publishing/domain/property"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// WebsitePublisher is the degenerate channel: publishing flips the
// property's public visibility flag for the draft's language. No external
// call is made.
type WebsitePublisher struct {
	gateway property.Gateway
}

func NewWebsitePublisher(gateway property.Gateway) *WebsitePublisher {
	return &WebsitePublisher{gateway: gateway}
}

func (p *WebsitePublisher) Channel() content.Channel { return content.ChannelWebsite }

func (p *WebsitePublisher) Publish(ctx context.Context, draft content.Draft, prop property.Property) (content.PublishedPost, error) {
	if err := p.gateway.SetVisibility(ctx, draft.PropertyID, draft.Language, true); err != nil {
		return content.PublishedPost{}, &channel.ChannelError{
			Code:      channel.ErrCodeNetwork,
			Message:   err.Error(),
			Retriable: true,
		}
	}

	logrus.WithFields(logrus.Fields{
		"property_id": draft.PropertyID,
		"language":    draft.Language,
	}).Info("[CHANNEL_WEBSITE] Property made visible")

	now := time.Now().UTC()
	return content.PublishedPost{
		ID:             uuid.NewString(),
		DraftID:        draft.ID,
		PropertyID:     draft.PropertyID,
		Language:       draft.Language,
		Channel:        content.ChannelWebsite,
		PlatformPostID: draft.PropertyID + ":" + draft.Language,
		Outcome:        content.PostOutcomePublished,
		PublishedAt:    now,
		CreatedAt:      now,
	}, nil
}
