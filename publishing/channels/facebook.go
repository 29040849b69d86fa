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

// FacebookPublisher posts drafts to the agent's Facebook Page for the
// draft's language.
type FacebookPublisher struct {
	graph    *metagraph.Client
	bindings channel.BindingResolver
}

func NewFacebookPublisher(graph *metagraph.Client, bindings channel.BindingResolver) *FacebookPublisher {
	return &FacebookPublisher{graph: graph, bindings: bindings}
}

func (p *FacebookPublisher) Channel() content.Channel { return content.ChannelFacebook }

func (p *FacebookPublisher) Publish(ctx context.Context, draft content.Draft, prop property.Property) (content.PublishedPost, error) {
	ref, err := p.bindings.ResolveBinding(ctx, prop.AgentID, draft.Language, content.ChannelFacebook)
	if err != nil {
		return content.PublishedPost{}, &channel.ChannelError{
			Code:      channel.ErrCodeBindingMissing,
			Message:   "no facebook page bound for agent " + prop.AgentID + " language " + draft.Language,
			Retriable: true,
		}
	}

	message := composeMessage(draft, facebookHashtagLimit)

	postID, err := p.graph.PublishPagePost(ctx, ref.PageID, ref.AccessToken, message)
	if err != nil {
		return content.PublishedPost{}, normalizeGraphError(err)
	}

	logrus.WithFields(logrus.Fields{
		"property_id": draft.PropertyID,
		"language":    draft.Language,
		"page_id":     ref.PageID,
		"post_id":     postID,
	}).Info("[CHANNEL_FACEBOOK] Page post published")

	now := time.Now().UTC()
	return content.PublishedPost{
		ID:             uuid.NewString(),
		DraftID:        draft.ID,
		PropertyID:     draft.PropertyID,
		Language:       draft.Language,
		Channel:        content.ChannelFacebook,
		PlatformPostID: postID,
		Outcome:        content.PostOutcomePublished,
		PublishedAt:    now,
		CreatedAt:      now,
	}, nil
}
