package channels

import (
	"context"
	"time"

	"github.com/casapress/casapress/integrations/metagraph"
	"github.com/casapress/casapress/publishing/domain/channel"
	"github.com/casapress/casapress/publishing/domain/content"
	"github.com/casapress/casapress/publishing/domain/property"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// InstagramPublisher publishes drafts through the Instagram content
// publishing flow (container create + publish).
type InstagramPublisher struct {
	graph    *metagraph.Client
	bindings channel.BindingResolver
}

func NewInstagramPublisher(graph *metagraph.Client, bindings channel.BindingResolver) *InstagramPublisher {
	return &InstagramPublisher{graph: graph, bindings: bindings}
}

func (p *InstagramPublisher) Channel() content.Channel { return content.ChannelInstagram }

func (p *InstagramPublisher) Publish(ctx context.Context, draft content.Draft, prop property.Property) (content.PublishedPost, error) {
	ref, err := p.bindings.ResolveBinding(ctx, prop.AgentID, draft.Language, content.ChannelInstagram)
	if err != nil {
		return content.PublishedPost{}, &channel.ChannelError{
			Code:      channel.ErrCodeBindingMissing,
			Message:   "no instagram account bound for agent " + prop.AgentID + " language " + draft.Language,
			Retriable: true,
		}
	}

	caption := truncateRunes(composeMessage(draft, instagramHashtagLimit), instagramCaptionLimit)

	imageURL := ""
	if len(prop.ImageURLs) > 0 {
		imageURL = prop.ImageURLs[0]
	}

	containerID, err := p.graph.CreateMediaContainer(ctx, ref.PageID, ref.AccessToken, caption, imageURL)
	if err != nil {
		return content.PublishedPost{}, normalizeGraphError(err)
	}

	postID, err := p.graph.PublishMediaContainer(ctx, ref.PageID, ref.AccessToken, containerID)
	if err != nil {
		return content.PublishedPost{}, normalizeGraphError(err)
	}

	logrus.WithFields(logrus.Fields{
		"property_id": draft.PropertyID,
		"language":    draft.Language,
		"ig_user_id":  ref.PageID,
		"post_id":     postID,
	}).Info("[CHANNEL_INSTAGRAM] Media published")

	now := time.Now().UTC()
	return content.PublishedPost{
		ID:             uuid.NewString(),
		DraftID:        draft.ID,
		PropertyID:     draft.PropertyID,
		Language:       draft.Language,
		Channel:        content.ChannelInstagram,
		PlatformPostID: postID,
		Outcome:        content.PostOutcomePublished,
		PublishedAt:    now,
		CreatedAt:      now,
	}, nil
}
