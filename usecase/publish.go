package usecase

import (
	"context"

	domainPublish "github.com/casapress/casapress/domains/publish"
	pkgError "github.com/casapress/casapress/pkg/error"
	"github.com/casapress/casapress/publishing/application"
	"github.com/casapress/casapress/publishing/domain/content"
	"github.com/casapress/casapress/validations"
	"github.com/sirupsen/logrus"
)

type servicePublish struct {
	repo         content.IContentRepository
	orchestrator *application.Orchestrator
}

func NewPublishService(repo content.IContentRepository, orchestrator *application.Orchestrator) domainPublish.IPublishUsecase {
	return &servicePublish{
		repo:         repo,
		orchestrator: orchestrator,
	}
}

func (service servicePublish) PublishDrafts(ctx context.Context, request domainPublish.PublishDraftsRequest) (content.PublishJob, error) {
	if err := validations.ValidatePublishDrafts(ctx, request); err != nil {
		return content.PublishJob{}, err
	}
	return service.orchestrator.PublishDrafts(ctx, request.DraftIDs, request.ScheduleAt)
}

func (service servicePublish) PublishProperty(ctx context.Context, propertyID string, request domainPublish.PublishPropertyRequest) (content.PublishJob, error) {
	if err := validations.ValidatePublishProperty(ctx, propertyID, request); err != nil {
		return content.PublishJob{}, err
	}

	channels := make([]content.Channel, len(request.PublishingChannels))
	for i, ch := range request.PublishingChannels {
		channels[i] = content.Channel(ch)
	}

	job, err := service.orchestrator.RequestPublish(ctx, application.PublishRequest{
		PropertyID:    propertyID,
		Languages:     request.TargetLanguages,
		Channels:      channels,
		AutoTranslate: request.AutoTranslate,
		AutoApprove:   request.AutoApprove,
		ScheduleAt:    request.ScheduleAt,
	})
	if err != nil {
		return content.PublishJob{}, err
	}

	logrus.WithFields(logrus.Fields{
		"job_id":      job.ID,
		"property_id": propertyID,
		"languages":   request.TargetLanguages,
		"channels":    request.PublishingChannels,
		"status":      job.Status,
	}).Info("[PUBLISH] Publish job accepted")

	return job, nil
}

func (service servicePublish) GetJob(ctx context.Context, jobID string) (content.PublishJob, error) {
	if jobID == "" {
		return content.PublishJob{}, pkgError.ValidationError("job id is required")
	}
	return service.repo.GetJob(ctx, jobID)
}

func (service servicePublish) Status(ctx context.Context, propertyID string) (application.PublishingStatus, error) {
	if propertyID == "" {
		return application.PublishingStatus{}, pkgError.ValidationError("property id is required")
	}
	return service.orchestrator.Status(ctx, propertyID)
}

func (service servicePublish) Archive(ctx context.Context, propertyID string, archived bool) error {
	if propertyID == "" {
		return pkgError.ValidationError("property id is required")
	}
	return service.repo.SetArchived(ctx, propertyID, archived)
}
