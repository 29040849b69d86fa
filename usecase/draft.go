package usecase

import (
	"context"
	"fmt"

	domainDraft "github.com/casapress/casapress/domains/draft"
	pkgError "github.com/casapress/casapress/pkg/error"
	"github.com/casapress/casapress/publishing/application"
	"github.com/casapress/casapress/publishing/domain/content"
	"github.com/casapress/casapress/validations"
	"github.com/sirupsen/logrus"
)

type serviceDraft struct {
	repo         content.IContentRepository
	orchestrator *application.Orchestrator
}

func NewDraftService(repo content.IContentRepository, orchestrator *application.Orchestrator) domainDraft.IDraftUsecase {
	return &serviceDraft{
		repo:         repo,
		orchestrator: orchestrator,
	}
}

func (service serviceDraft) Generate(ctx context.Context, request domainDraft.GenerateRequest) (domainDraft.GenerateResponse, error) {
	if err := validations.ValidateGenerateDraft(ctx, request); err != nil {
		return domainDraft.GenerateResponse{}, err
	}

	channels := make([]content.Channel, len(request.Channels))
	for i, ch := range request.Channels {
		channels[i] = content.Channel(ch)
	}

	drafts, results, err := service.orchestrator.GenerateDrafts(ctx, application.GenerateRequest{
		PropertyID:     request.PropertyID,
		AgentID:        request.AgentID,
		Language:       request.Language,
		Channels:       channels,
		Tone:           request.Tone,
		Length:         request.Length,
		IncludeContact: request.IncludeContact,
	})
	if err != nil {
		return domainDraft.GenerateResponse{}, err
	}

	logrus.WithFields(logrus.Fields{
		"property_id": request.PropertyID,
		"language":    request.Language,
		"generated":   len(drafts),
		"pairs":       len(results),
	}).Info("[DRAFT] Generation request resolved")

	return domainDraft.GenerateResponse{Drafts: drafts, Results: results}, nil
}

func (service serviceDraft) Update(ctx context.Context, draftID string, request domainDraft.UpdateRequest) (content.Draft, error) {
	if err := validations.ValidateUpdateDraft(ctx, draftID, request); err != nil {
		return content.Draft{}, err
	}

	draft, err := service.repo.GetDraft(ctx, draftID)
	if err != nil {
		return content.Draft{}, err
	}

	hasFieldEdit := request.Title != nil || request.Body != nil || request.Hashtags != nil ||
		request.MediaIDs != nil || request.ContactIncluded != nil

	if hasFieldEdit {
		draft, err = service.repo.UpdateDraftFields(ctx, draftID, content.DraftUpdate{
			Title:           request.Title,
			Body:            request.Body,
			Hashtags:        request.Hashtags,
			MediaIDs:        request.MediaIDs,
			ContactIncluded: request.ContactIncluded,
			EditedBy:        request.EditedBy,
		})
		if err != nil {
			return content.Draft{}, err
		}
	}

	if request.Status != nil && *request.Status == string(content.DraftStatusReady) {
		draft, err = service.markOneReady(ctx, draft)
		if err != nil {
			return content.Draft{}, err
		}
	}

	return draft, nil
}

func (service serviceDraft) MarkReady(ctx context.Context, request domainDraft.MarkReadyRequest) ([]content.Draft, error) {
	if err := validations.ValidateMarkReady(ctx, request); err != nil {
		return nil, err
	}

	drafts := make([]content.Draft, 0, len(request.DraftIDs))
	for _, id := range request.DraftIDs {
		draft, err := service.repo.GetDraft(ctx, id)
		if err != nil {
			return nil, err
		}
		draft, err = service.markOneReady(ctx, draft)
		if err != nil {
			return nil, err
		}
		drafts = append(drafts, draft)
	}
	return drafts, nil
}

func (service serviceDraft) markOneReady(ctx context.Context, draft content.Draft) (content.Draft, error) {
	if !content.CanTransition(draft.Status, content.DraftStatusReady) {
		return content.Draft{}, pkgError.ValidationError(
			fmt.Sprintf("draft %s in state %s cannot be marked ready", draft.ID, draft.Status))
	}
	return service.repo.TransitionDraft(ctx, draft.ID, draft.Status, content.DraftStatusReady, nil)
}

// Retry is the single failed → ready entry point: delivery is retried
// without regenerating content.
func (service serviceDraft) Retry(ctx context.Context, draftID string) (content.Draft, error) {
	if draftID == "" {
		return content.Draft{}, pkgError.ValidationError("draft id is required")
	}

	draft, err := service.repo.TransitionDraft(ctx, draftID, content.DraftStatusFailed, content.DraftStatusReady, func(d *content.Draft) {
		d.LastError = ""
	})
	if err != nil {
		return content.Draft{}, err
	}

	logrus.WithField("draft_id", draftID).Info("[DRAFT] Failed draft re-queued for delivery")
	return draft, nil
}

func (service serviceDraft) List(ctx context.Context, propertyID, language string) ([]content.Draft, error) {
	if propertyID == "" {
		return nil, pkgError.ValidationError("property_id is required")
	}
	if language != "" && !content.IsSupportedLanguage(language) {
		return nil, pkgError.ValidationError(fmt.Sprintf("unsupported language %q", language))
	}
	return service.repo.ListDraftsByProperty(ctx, propertyID, language)
}

func (service serviceDraft) Get(ctx context.Context, draftID string) (content.Draft, error) {
	if draftID == "" {
		return content.Draft{}, pkgError.ValidationError("draft id is required")
	}
	return service.repo.GetDraft(ctx, draftID)
}
