package validations

import (
	"context"

	domainCRM "github.com/casapress/casapress/domains/crm"
	pkgError "github.com/casapress/casapress/pkg/error"
	"github.com/casapress/casapress/publishing/domain/property"
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

func ValidateSaveProperty(ctx context.Context, request property.Property) error {
	err := validation.ValidateStructWithContext(ctx, &request,
		validation.Field(&request.ID, validation.Required),
		validation.Field(&request.AgentID, validation.Required),
		validation.Field(&request.Title, validation.Required),
	)

	if err != nil {
		return pkgError.ValidationError(err.Error())
	}

	return nil
}

func ValidateSaveAgentContact(ctx context.Context, request property.AgentContact) error {
	err := validation.ValidateStructWithContext(ctx, &request,
		validation.Field(&request.AgentID, validation.Required),
	)

	if err != nil {
		return pkgError.ValidationError(err.Error())
	}

	return nil
}

func ValidateSaveBinding(ctx context.Context, request domainCRM.BindingRequest) error {
	err := validation.ValidateStructWithContext(ctx, &request,
		validation.Field(&request.AgentID, validation.Required),
		validation.Field(&request.Language, validation.Required),
		validation.Field(&request.Channel, validation.Required, validation.By(supportedChannelRule)),
		validation.Field(&request.PageID, validation.Required),
	)

	if err != nil {
		return pkgError.ValidationError(err.Error())
	}

	return nil
}
