package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	pkgError "github.com/casapress/casapress/pkg/error"
	"github.com/casapress/casapress/publishing/domain/channel"
	"github.com/casapress/casapress/publishing/domain/content"
	"github.com/casapress/casapress/publishing/domain/property"
	"gorm.io/gorm"
)

type propertyModel struct {
	ID          string         `gorm:"primaryKey;column:id"`
	AgentID     string         `gorm:"column:agent_id;not null;index"`
	Title       string         `gorm:"column:title;not null"`
	Description string         `gorm:"column:description;type:text"`
	Price       float64        `gorm:"column:price"`
	Location    string         `gorm:"column:location"`
	Bedrooms    int            `gorm:"column:bedrooms"`
	Bathrooms   int            `gorm:"column:bathrooms"`
	Amenities   sql.NullString `gorm:"column:amenities"`  // JSON
	Features    sql.NullString `gorm:"column:features"`   // JSON
	ImageURLs   sql.NullString `gorm:"column:image_urls"` // JSON
	CreatedAt   time.Time      `gorm:"column:created_at"`
	UpdatedAt   time.Time      `gorm:"column:updated_at"`
}

func (propertyModel) TableName() string { return "properties" }

type agentContactModel struct {
	AgentID     string    `gorm:"primaryKey;column:agent_id"`
	DisplayName string    `gorm:"column:display_name"`
	Phone       string    `gorm:"column:phone"`
	WhatsApp    string    `gorm:"column:whatsapp"`
	Email       string    `gorm:"column:email"`
	Website     string    `gorm:"column:website"`
	UpdatedAt   time.Time `gorm:"column:updated_at"`
}

func (agentContactModel) TableName() string { return "agent_contacts" }

type visibilityModel struct {
	PropertyID string    `gorm:"primaryKey;column:property_id"`
	Language   string    `gorm:"primaryKey;column:language"`
	Visible    bool      `gorm:"column:visible;default:false"`
	UpdatedAt  time.Time `gorm:"column:updated_at"`
}

func (visibilityModel) TableName() string { return "property_visibility" }

type channelBindingModel struct {
	AgentID     string    `gorm:"primaryKey;column:agent_id"`
	Language    string    `gorm:"primaryKey;column:language"`
	Channel     string    `gorm:"primaryKey;column:channel"`
	PageID      string    `gorm:"column:page_id;not null"`
	AccessToken string    `gorm:"column:access_token"`
	UpdatedAt   time.Time `gorm:"column:updated_at"`
}

func (channelBindingModel) TableName() string { return "channel_bindings" }

// CRMGormRepository is the gorm-backed side of the CRM boundary: property
// and agent records, per-language visibility and channel account bindings.
// It satisfies both property.Gateway and channel.BindingResolver.
type CRMGormRepository struct {
	db *gorm.DB
}

func NewCRMGormRepository(db *gorm.DB) *CRMGormRepository {
	return &CRMGormRepository{db: db}
}

func (r *CRMGormRepository) Init(ctx context.Context) error {
	return r.db.WithContext(ctx).AutoMigrate(
		&propertyModel{},
		&agentContactModel{},
		&visibilityModel{},
		&channelBindingModel{},
	)
}

func toPropertyModel(p property.Property) propertyModel {
	return propertyModel{
		ID:          p.ID,
		AgentID:     p.AgentID,
		Title:       p.Title,
		Description: p.Description,
		Price:       p.Price,
		Location:    p.Location,
		Bedrooms:    p.Bedrooms,
		Bathrooms:   p.Bathrooms,
		Amenities:   marshalJSON(p.Amenities),
		Features:    marshalJSON(p.Features),
		ImageURLs:   marshalJSON(p.ImageURLs),
	}
}

func fromPropertyModel(m propertyModel) property.Property {
	return property.Property{
		ID:          m.ID,
		AgentID:     m.AgentID,
		Title:       m.Title,
		Description: m.Description,
		Price:       m.Price,
		Location:    m.Location,
		Bedrooms:    m.Bedrooms,
		Bathrooms:   m.Bathrooms,
		Amenities:   unmarshalStrings(m.Amenities),
		Features:    unmarshalStrings(m.Features),
		ImageURLs:   unmarshalStrings(m.ImageURLs),
	}
}

func (r *CRMGormRepository) GetProperty(ctx context.Context, id string) (property.Property, error) {
	var m propertyModel
	if err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return property.Property{}, pkgError.NotFoundError(fmt.Sprintf("property %s not found", id))
		}
		return property.Property{}, err
	}
	return fromPropertyModel(m), nil
}

func (r *CRMGormRepository) GetAgentContact(ctx context.Context, agentID string) (property.AgentContact, error) {
	var m agentContactModel
	if err := r.db.WithContext(ctx).First(&m, "agent_id = ?", agentID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return property.AgentContact{}, pkgError.NotFoundError(fmt.Sprintf("agent %s not found", agentID))
		}
		return property.AgentContact{}, err
	}
	return property.AgentContact{
		AgentID:     m.AgentID,
		DisplayName: m.DisplayName,
		Phone:       m.Phone,
		WhatsApp:    m.WhatsApp,
		Email:       m.Email,
		Website:     m.Website,
	}, nil
}

func (r *CRMGormRepository) SetVisibility(ctx context.Context, propertyID, language string, visible bool) error {
	row := visibilityModel{
		PropertyID: propertyID,
		Language:   language,
		Visible:    visible,
		UpdatedAt:  time.Now().UTC(),
	}
	return r.db.WithContext(ctx).Save(&row).Error
}

func (r *CRMGormRepository) GetVisibility(ctx context.Context, propertyID, language string) (bool, error) {
	var m visibilityModel
	err := r.db.WithContext(ctx).First(&m, "property_id = ? AND language = ?", propertyID, language).Error
	if err == gorm.ErrRecordNotFound {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return m.Visible, nil
}

// ResolveBinding implements channel.BindingResolver. A language-specific
// binding wins; a binding stored with language "*" acts as the agent's
// default for the channel.
func (r *CRMGormRepository) ResolveBinding(ctx context.Context, agentID, language string, ch content.Channel) (channel.AccountRef, error) {
	var m channelBindingModel
	err := r.db.WithContext(ctx).First(&m, "agent_id = ? AND language = ? AND channel = ?", agentID, language, string(ch)).Error
	if err == gorm.ErrRecordNotFound {
		err = r.db.WithContext(ctx).First(&m, "agent_id = ? AND language = ? AND channel = ?", agentID, "*", string(ch)).Error
	}
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return channel.AccountRef{}, pkgError.NotFoundError(fmt.Sprintf("no %s binding for agent %s language %s", ch, agentID, language))
		}
		return channel.AccountRef{}, err
	}
	return channel.AccountRef{
		AgentID:     m.AgentID,
		Language:    m.Language,
		PageID:      m.PageID,
		AccessToken: m.AccessToken,
	}, nil
}

// Seeding helpers used by the admin endpoints.

func (r *CRMGormRepository) SaveProperty(ctx context.Context, p property.Property) error {
	m := toPropertyModel(p)
	m.UpdatedAt = time.Now().UTC()
	return r.db.WithContext(ctx).Save(&m).Error
}

func (r *CRMGormRepository) SaveAgentContact(ctx context.Context, c property.AgentContact) error {
	m := agentContactModel{
		AgentID:     c.AgentID,
		DisplayName: c.DisplayName,
		Phone:       c.Phone,
		WhatsApp:    c.WhatsApp,
		Email:       c.Email,
		Website:     c.Website,
		UpdatedAt:   time.Now().UTC(),
	}
	return r.db.WithContext(ctx).Save(&m).Error
}

func (r *CRMGormRepository) SaveBinding(ctx context.Context, ref channel.AccountRef, ch content.Channel) error {
	m := channelBindingModel{
		AgentID:     ref.AgentID,
		Language:    ref.Language,
		Channel:     string(ch),
		PageID:      ref.PageID,
		AccessToken: ref.AccessToken,
		UpdatedAt:   time.Now().UTC(),
	}
	return r.db.WithContext(ctx).Save(&m).Error
}
