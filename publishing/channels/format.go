package channels

import (
	"context"
	"errors"
	"strings"

	"github.com/casapress/casapress/integrations/metagraph"
	"github.com/casapress/casapress/publishing/domain/channel"
	"github.com/casapress/casapress/publishing/domain/content"
)

const (
	instagramCaptionLimit  = 2200
	instagramHashtagLimit  = 30
	facebookHashtagLimit   = 8
	truncationEllipsis     = "…"
	graphCodeAuthExpired   = 190
	graphCodeRateLimitApp  = 4
	graphCodeRateLimitUser = 17
	graphCodeRateLimitPage = 32
	graphCodePolicyBlock   = 368
)

// composeMessage joins title, body and a capped hashtag list into the flat
// text the feed endpoints take.
func composeMessage(d content.Draft, hashtagCap int) string {
	var parts []string
	if d.Title != "" {
		parts = append(parts, d.Title)
	}
	if d.Body != "" {
		parts = append(parts, d.Body)
	}
	tags := d.Hashtags
	if hashtagCap > 0 && len(tags) > hashtagCap {
		tags = tags[:hashtagCap]
	}
	if len(tags) > 0 {
		parts = append(parts, strings.Join(tags, " "))
	}
	return strings.Join(parts, "\n\n")
}

// truncateRunes cuts at a rune boundary so multi-byte scripts survive.
func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit-1]) + truncationEllipsis
}

// normalizeGraphError maps a Graph API failure onto the shared channel
// error taxonomy.
func normalizeGraphError(err error) *channel.ChannelError {
	if errors.Is(err, context.DeadlineExceeded) {
		return &channel.ChannelError{Code: channel.ErrCodeTimeout, Message: err.Error(), Retriable: true}
	}

	var apiErr *metagraph.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case graphCodeAuthExpired:
			return &channel.ChannelError{Code: channel.ErrCodeAuthExpired, Message: apiErr.Message, Retriable: true}
		case graphCodeRateLimitApp, graphCodeRateLimitUser, graphCodeRateLimitPage:
			return &channel.ChannelError{Code: channel.ErrCodeRateLimited, Message: apiErr.Message, Retriable: true}
		case graphCodePolicyBlock:
			return &channel.ChannelError{Code: channel.ErrCodeContentRejected, Message: apiErr.Message, Retriable: false}
		}
		if apiErr.Type == "OAuthException" {
			return &channel.ChannelError{Code: channel.ErrCodeAuthExpired, Message: apiErr.Message, Retriable: true}
		}
		return &channel.ChannelError{Code: channel.ErrCodeNetwork, Message: apiErr.Message, Retriable: apiErr.Transient || apiErr.StatusCode >= 500}
	}

	return &channel.ChannelError{Code: channel.ErrCodeNetwork, Message: err.Error(), Retriable: true}
}
