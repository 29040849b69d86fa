package usecase

import (
	"context"

	domainCRM "github.com/casapress/casapress/domains/crm"
	"github.com/casapress/casapress/publishing/domain/channel"
	"github.com/casapress/casapress/publishing/domain/content"
	"github.com/casapress/casapress/publishing/domain/property"
	"github.com/casapress/casapress/publishing/repository"
	"github.com/casapress/casapress/validations"
)

type serviceCRM struct {
	crm *repository.CRMGormRepository
}

func NewCRMService(crm *repository.CRMGormRepository) domainCRM.ICRMUsecase {
	return &serviceCRM{crm: crm}
}

func (service serviceCRM) SaveProperty(ctx context.Context, request property.Property) error {
	if err := validations.ValidateSaveProperty(ctx, request); err != nil {
		return err
	}
	return service.crm.SaveProperty(ctx, request)
}

func (service serviceCRM) SaveAgentContact(ctx context.Context, request property.AgentContact) error {
	if err := validations.ValidateSaveAgentContact(ctx, request); err != nil {
		return err
	}
	return service.crm.SaveAgentContact(ctx, request)
}

func (service serviceCRM) SaveBinding(ctx context.Context, request domainCRM.BindingRequest) error {
	if err := validations.ValidateSaveBinding(ctx, request); err != nil {
		return err
	}
	return service.crm.SaveBinding(ctx, channel.AccountRef{
		AgentID:     request.AgentID,
		Language:    request.Language,
		PageID:      request.PageID,
		AccessToken: request.AccessToken,
	}, content.Channel(request.Channel))
}
