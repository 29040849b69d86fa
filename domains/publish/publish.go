package publish

import (
	"context"
	"time"

	"github.com/casapress/casapress/publishing/application"
	"github.com/casapress/casapress/publishing/domain/content"
)

type IPublishUsecase interface {
	PublishDrafts(ctx context.Context, request PublishDraftsRequest) (content.PublishJob, error)
	PublishProperty(ctx context.Context, propertyID string, request PublishPropertyRequest) (content.PublishJob, error)
	GetJob(ctx context.Context, jobID string) (content.PublishJob, error)
	Status(ctx context.Context, propertyID string) (application.PublishingStatus, error)
	Archive(ctx context.Context, propertyID string, archived bool) error
}

type PublishDraftsRequest struct {
	DraftIDs   []string   `json:"draft_ids"`
	ScheduleAt *time.Time `json:"schedule_at,omitempty"`
}

type PublishPropertyRequest struct {
	TargetLanguages    []string   `json:"target_languages"`
	PublishingChannels []string   `json:"publishing_channels"`
	AutoTranslate      bool       `json:"auto_translate"`
	AutoApprove        bool       `json:"auto_approve"`
	ScheduleAt         *time.Time `json:"schedule_at,omitempty"`
}
