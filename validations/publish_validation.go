package validations

import (
	"context"

	domainPublish "github.com/casapress/casapress/domains/publish"
	pkgError "github.com/casapress/casapress/pkg/error"
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

func ValidatePublishDrafts(ctx context.Context, request domainPublish.PublishDraftsRequest) error {
	err := validation.ValidateStructWithContext(ctx, &request,
		validation.Field(&request.DraftIDs, validation.Required),
	)

	if err != nil {
		return pkgError.ValidationError(err.Error())
	}

	return nil
}

func ValidatePublishProperty(ctx context.Context, propertyID string, request domainPublish.PublishPropertyRequest) error {
	if propertyID == "" {
		return pkgError.ValidationError("property id is required")
	}

	err := validation.ValidateStructWithContext(ctx, &request,
		validation.Field(&request.TargetLanguages, validation.Required, validation.Each(validation.By(supportedLanguageRule))),
		validation.Field(&request.PublishingChannels, validation.Required, validation.Each(validation.By(supportedChannelRule))),
	)

	if err != nil {
		return pkgError.ValidationError(err.Error())
	}

	return nil
}
