package validations

import (
	"context"
	"fmt"

	domainDraft "github.com/casapress/casapress/domains/draft"
	pkgError "github.com/casapress/casapress/pkg/error"
	"github.com/casapress/casapress/publishing/domain/content"
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

func supportedChannelRule(value interface{}) error {
	name, _ := value.(string)
	if !content.IsSupportedChannel(content.Channel(name)) {
		return fmt.Errorf("unsupported channel %q", name)
	}
	return nil
}

func supportedLanguageRule(value interface{}) error {
	code, _ := value.(string)
	if !content.IsSupportedLanguage(code) {
		return fmt.Errorf("unsupported language %q", code)
	}
	return nil
}

func ValidateGenerateDraft(ctx context.Context, request domainDraft.GenerateRequest) error {
	err := validation.ValidateStructWithContext(ctx, &request,
		validation.Field(&request.PropertyID, validation.Required),
		validation.Field(&request.Language, validation.Required, validation.By(supportedLanguageRule)),
		validation.Field(&request.Channels, validation.Required, validation.Each(validation.By(supportedChannelRule))),
	)

	if err != nil {
		return pkgError.ValidationError(err.Error())
	}

	return nil
}

func ValidateUpdateDraft(ctx context.Context, draftID string, request domainDraft.UpdateRequest) error {
	if draftID == "" {
		return pkgError.ValidationError("draft id is required")
	}
	if request.Status != nil && *request.Status != string(content.DraftStatusReady) {
		return pkgError.ValidationError("status may only be set to ready via update")
	}
	if request.Title == nil && request.Body == nil && request.Hashtags == nil &&
		request.MediaIDs == nil && request.ContactIncluded == nil && request.Status == nil {
		return pkgError.ValidationError("update request has no fields")
	}
	return nil
}

func ValidateMarkReady(ctx context.Context, request domainDraft.MarkReadyRequest) error {
	err := validation.ValidateStructWithContext(ctx, &request,
		validation.Field(&request.DraftIDs, validation.Required),
	)

	if err != nil {
		return pkgError.ValidationError(err.Error())
	}

	return nil
}
