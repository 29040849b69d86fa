package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	pkgError "github.com/casapress/casapress/pkg/error"
	"github.com/casapress/casapress/publishing/domain/content"
	"gorm.io/gorm"
)

// --- Persistence Models ---

type draftModel struct {
	ID              string         `gorm:"primaryKey;column:id"`
	PropertyID      string         `gorm:"column:property_id;not null;index;uniqueIndex:idx_draft_key,where:archived = false"`
	Language        string         `gorm:"column:language;not null;uniqueIndex:idx_draft_key,where:archived = false"`
	Channel         string         `gorm:"column:channel;not null;uniqueIndex:idx_draft_key,where:archived = false"`
	Title           string         `gorm:"column:title"`
	Body            string         `gorm:"column:body;type:text"`
	Hashtags        sql.NullString `gorm:"column:hashtags"`  // JSON
	MediaIDs        sql.NullString `gorm:"column:media_ids"` // JSON
	ContactIncluded bool           `gorm:"column:contact_included;default:true"`
	Status          string         `gorm:"column:status;not null;index"`
	EditedBy        sql.NullString `gorm:"column:edited_by"`
	LastError       sql.NullString `gorm:"column:last_error"`
	Archived        bool           `gorm:"column:archived;default:false"`
	CreatedAt       time.Time      `gorm:"column:created_at;not null"`
	UpdatedAt       time.Time      `gorm:"column:updated_at;not null"`
}

func (draftModel) TableName() string { return "drafts" }

type publishedPostModel struct {
	ID             string         `gorm:"primaryKey;column:id"`
	DraftID        string         `gorm:"column:draft_id;not null;index"`
	PropertyID     string         `gorm:"column:property_id;not null;index"`
	Language       string         `gorm:"column:language;not null"`
	Channel        string         `gorm:"column:channel;not null"`
	PlatformPostID sql.NullString `gorm:"column:platform_post_id"`
	Outcome        string         `gorm:"column:outcome;not null"`
	Error          sql.NullString `gorm:"column:error"`
	PublishedAt    time.Time      `gorm:"column:published_at"`
	CreatedAt      time.Time      `gorm:"column:created_at;not null"`
}

func (publishedPostModel) TableName() string { return "published_posts" }

type publishJobModel struct {
	ID            string         `gorm:"primaryKey;column:id"`
	PropertyID    string         `gorm:"column:property_id;not null;index"`
	Languages     sql.NullString `gorm:"column:languages"` // JSON
	Channels      sql.NullString `gorm:"column:channels"`  // JSON
	DraftIDs      sql.NullString `gorm:"column:draft_ids"` // JSON
	AutoApprove   bool           `gorm:"column:auto_approve;default:false"`
	AutoTranslate bool           `gorm:"column:auto_translate;default:false"`
	ScheduledAt   *time.Time     `gorm:"column:scheduled_at;index"`
	Status        string         `gorm:"column:status;default:'pending';index"`
	Results       sql.NullString `gorm:"column:results;type:text"` // JSON
	CreatedAt     time.Time      `gorm:"column:created_at;not null"`
	UpdatedAt     time.Time      `gorm:"column:updated_at;not null"`
}

func (publishJobModel) TableName() string { return "publish_jobs" }

type propertyFlagModel struct {
	PropertyID string    `gorm:"primaryKey;column:property_id"`
	Archived   bool      `gorm:"column:archived;default:false"`
	UpdatedAt  time.Time `gorm:"column:updated_at;not null"`
}

func (propertyFlagModel) TableName() string { return "property_flags" }

// --- Mappers ---

func marshalJSON(v any) sql.NullString {
	if v == nil {
		return sql.NullString{}
	}
	data, err := json.Marshal(v)
	if err != nil {
		return sql.NullString{}
	}
	return sql.NullString{String: string(data), Valid: true}
}

func unmarshalStrings(ns sql.NullString) []string {
	if !ns.Valid || ns.String == "" {
		return nil
	}
	var out []string
	_ = json.Unmarshal([]byte(ns.String), &out)
	return out
}

func toDraftModel(d content.Draft) draftModel {
	return draftModel{
		ID:              d.ID,
		PropertyID:      d.PropertyID,
		Language:        d.Language,
		Channel:         string(d.Channel),
		Title:           d.Title,
		Body:            d.Body,
		Hashtags:        marshalJSON(d.Hashtags),
		MediaIDs:        marshalJSON(d.MediaIDs),
		ContactIncluded: d.ContactIncluded,
		Status:          string(d.Status),
		EditedBy:        sql.NullString{String: d.EditedBy, Valid: d.EditedBy != ""},
		LastError:       sql.NullString{String: d.LastError, Valid: d.LastError != ""},
		Archived:        d.Archived,
		CreatedAt:       d.CreatedAt,
		UpdatedAt:       d.UpdatedAt,
	}
}

func fromDraftModel(m draftModel) content.Draft {
	return content.Draft{
		ID:              m.ID,
		PropertyID:      m.PropertyID,
		Language:        m.Language,
		Channel:         content.Channel(m.Channel),
		Title:           m.Title,
		Body:            m.Body,
		Hashtags:        unmarshalStrings(m.Hashtags),
		MediaIDs:        unmarshalStrings(m.MediaIDs),
		ContactIncluded: m.ContactIncluded,
		Status:          content.DraftStatus(m.Status),
		EditedBy:        m.EditedBy.String,
		LastError:       m.LastError.String,
		Archived:        m.Archived,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
}

func toPostModel(p content.PublishedPost) publishedPostModel {
	return publishedPostModel{
		ID:             p.ID,
		DraftID:        p.DraftID,
		PropertyID:     p.PropertyID,
		Language:       p.Language,
		Channel:        string(p.Channel),
		PlatformPostID: sql.NullString{String: p.PlatformPostID, Valid: p.PlatformPostID != ""},
		Outcome:        string(p.Outcome),
		Error:          sql.NullString{String: p.Error, Valid: p.Error != ""},
		PublishedAt:    p.PublishedAt,
		CreatedAt:      p.CreatedAt,
	}
}

func fromPostModel(m publishedPostModel) content.PublishedPost {
	return content.PublishedPost{
		ID:             m.ID,
		DraftID:        m.DraftID,
		PropertyID:     m.PropertyID,
		Language:       m.Language,
		Channel:        content.Channel(m.Channel),
		PlatformPostID: m.PlatformPostID.String,
		Outcome:        content.PostOutcome(m.Outcome),
		Error:          m.Error.String,
		PublishedAt:    m.PublishedAt,
		CreatedAt:      m.CreatedAt,
	}
}

func toJobModel(j content.PublishJob) publishJobModel {
	channels := make([]string, len(j.Channels))
	for i, c := range j.Channels {
		channels[i] = string(c)
	}
	return publishJobModel{
		ID:            j.ID,
		PropertyID:    j.PropertyID,
		Languages:     marshalJSON(j.Languages),
		Channels:      marshalJSON(channels),
		DraftIDs:      marshalJSON(j.DraftIDs),
		AutoApprove:   j.AutoApprove,
		AutoTranslate: j.AutoTranslate,
		ScheduledAt:   j.ScheduledAt,
		Status:        string(j.Status),
		Results:       marshalJSON(j.Results),
		CreatedAt:     j.CreatedAt,
		UpdatedAt:     j.UpdatedAt,
	}
}

func fromJobModel(m publishJobModel) content.PublishJob {
	var results []content.PairResult
	if m.Results.Valid && m.Results.String != "" {
		_ = json.Unmarshal([]byte(m.Results.String), &results)
	}
	chNames := unmarshalStrings(m.Channels)
	channels := make([]content.Channel, len(chNames))
	for i, c := range chNames {
		channels[i] = content.Channel(c)
	}
	return content.PublishJob{
		ID:            m.ID,
		PropertyID:    m.PropertyID,
		Languages:     unmarshalStrings(m.Languages),
		Channels:      channels,
		DraftIDs:      unmarshalStrings(m.DraftIDs),
		AutoApprove:   m.AutoApprove,
		AutoTranslate: m.AutoTranslate,
		ScheduledAt:   m.ScheduledAt,
		Status:        content.JobStatus(m.Status),
		Results:       results,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
}

// --- Repository Implementation ---

// ContentGormRepository persists drafts, published posts and publish jobs.
type ContentGormRepository struct {
	db *gorm.DB
}

func NewContentGormRepository(db *gorm.DB) *ContentGormRepository {
	return &ContentGormRepository{db: db}
}

func (r *ContentGormRepository) Init(ctx context.Context) error {
	return r.db.WithContext(ctx).AutoMigrate(
		&draftModel{},
		&publishedPostModel{},
		&publishJobModel{},
		&propertyFlagModel{},
	)
}

// Draft CRUD

func (r *ContentGormRepository) UpsertDraft(ctx context.Context, d content.Draft) (content.Draft, error) {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing draftModel
		err := tx.First(&existing, "property_id = ? AND language = ? AND channel = ? AND archived = ?",
			d.PropertyID, d.Language, string(d.Channel), false).Error
		if err == nil {
			// Re-check the stored state inside the transaction: a draft claimed
			// or published since the caller's pre-check must not be stomped.
			stored := content.DraftStatus(existing.Status)
			if !content.Regenerable(stored) {
				return pkgError.StateConflictError(
					fmt.Sprintf("draft %s in state %s cannot be regenerated", existing.ID, stored))
			}
			// Regeneration replaces the draft in place, keeping the surrogate id.
			d.ID = existing.ID
			d.CreatedAt = existing.CreatedAt
			d.UpdatedAt = time.Now().UTC()
			model := toDraftModel(d)
			return tx.Save(&model).Error
		}
		if err != gorm.ErrRecordNotFound {
			return err
		}
		if d.CreatedAt.IsZero() {
			d.CreatedAt = time.Now().UTC()
		}
		d.UpdatedAt = time.Now().UTC()
		model := toDraftModel(d)
		return tx.Create(&model).Error
	})
	if err != nil {
		return content.Draft{}, err
	}
	return d, nil
}

func (r *ContentGormRepository) GetDraft(ctx context.Context, id string) (content.Draft, error) {
	var m draftModel
	if err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return content.Draft{}, pkgError.NotFoundError(fmt.Sprintf("draft %s not found", id))
		}
		return content.Draft{}, err
	}
	return fromDraftModel(m), nil
}

func (r *ContentGormRepository) GetDraftByKey(ctx context.Context, propertyID, language string, ch content.Channel) (content.Draft, error) {
	var m draftModel
	err := r.db.WithContext(ctx).First(&m, "property_id = ? AND language = ? AND channel = ? AND archived = ?",
		propertyID, language, string(ch), false).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return content.Draft{}, pkgError.NotFoundError(fmt.Sprintf("no draft for %s/%s/%s", propertyID, language, ch))
		}
		return content.Draft{}, err
	}
	return fromDraftModel(m), nil
}

func (r *ContentGormRepository) ListDraftsByProperty(ctx context.Context, propertyID, language string) ([]content.Draft, error) {
	q := r.db.WithContext(ctx).Where("property_id = ? AND archived = ?", propertyID, false)
	if language != "" {
		q = q.Where("language = ?", language)
	}
	var models []draftModel
	if err := q.Order("created_at asc").Find(&models).Error; err != nil {
		return nil, err
	}
	res := make([]content.Draft, len(models))
	for i, m := range models {
		res[i] = fromDraftModel(m)
	}
	return res, nil
}

func (r *ContentGormRepository) UpdateDraftFields(ctx context.Context, id string, upd content.DraftUpdate) (content.Draft, error) {
	var result content.Draft
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var m draftModel
		if err := tx.First(&m, "id = ?", id).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgError.NotFoundError(fmt.Sprintf("draft %s not found", id))
			}
			return err
		}
		d := fromDraftModel(m)
		if !content.CanTransition(d.Status, content.DraftStatusEdited) {
			return pkgError.StateConflictError(fmt.Sprintf("draft %s in state %s cannot be edited", id, d.Status))
		}
		if upd.Title != nil {
			d.Title = *upd.Title
		}
		if upd.Body != nil {
			d.Body = *upd.Body
		}
		if upd.Hashtags != nil {
			d.Hashtags = *upd.Hashtags
		}
		if upd.MediaIDs != nil {
			d.MediaIDs = *upd.MediaIDs
		}
		if upd.ContactIncluded != nil {
			d.ContactIncluded = *upd.ContactIncluded
		}
		if upd.EditedBy != "" {
			d.EditedBy = upd.EditedBy
		}
		d.Status = content.DraftStatusEdited
		d.UpdatedAt = time.Now().UTC()
		model := toDraftModel(d)
		if err := tx.Save(&model).Error; err != nil {
			return err
		}
		result = d
		return nil
	})
	if err != nil {
		return content.Draft{}, err
	}
	return result, nil
}

// TransitionDraft performs a compare-and-swap status move. The UPDATE is
// guarded on the expected pre-state so a lost race never overwrites a
// concurrent transition; the loser gets a state-conflict error.
func (r *ContentGormRepository) TransitionDraft(ctx context.Context, id string, from, to content.DraftStatus, mutate func(*content.Draft)) (content.Draft, error) {
	if !content.CanTransition(from, to) {
		return content.Draft{}, pkgError.StateConflictError(fmt.Sprintf("transition %s -> %s is not allowed", from, to))
	}

	var result content.Draft
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var m draftModel
		if err := tx.First(&m, "id = ?", id).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgError.NotFoundError(fmt.Sprintf("draft %s not found", id))
			}
			return err
		}
		d := fromDraftModel(m)
		if d.Status != from {
			return pkgError.StateConflictError(fmt.Sprintf("draft %s is %s, expected %s", id, d.Status, from))
		}

		d.Status = to
		if mutate != nil {
			mutate(&d)
		}
		d.UpdatedAt = time.Now().UTC()
		model := toDraftModel(d)

		res := tx.Model(&draftModel{}).
			Where("id = ? AND status = ?", id, string(from)).
			Updates(map[string]any{
				"title":            model.Title,
				"body":             model.Body,
				"hashtags":         model.Hashtags,
				"media_ids":        model.MediaIDs,
				"contact_included": model.ContactIncluded,
				"status":           model.Status,
				"edited_by":        model.EditedBy,
				"last_error":       model.LastError,
				"updated_at":       model.UpdatedAt,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return pkgError.StateConflictError(fmt.Sprintf("draft %s was claimed concurrently", id))
		}
		result = d
		return nil
	})
	if err != nil {
		return content.Draft{}, err
	}
	return result, nil
}

// Published Posts (append-only)

func (r *ContentGormRepository) CreatePost(ctx context.Context, p content.PublishedPost) error {
	model := toPostModel(p)
	return r.db.WithContext(ctx).Create(&model).Error
}

func (r *ContentGormRepository) ListPostsByProperty(ctx context.Context, propertyID string) ([]content.PublishedPost, error) {
	var models []publishedPostModel
	if err := r.db.WithContext(ctx).Where("property_id = ?", propertyID).Order("created_at asc").Find(&models).Error; err != nil {
		return nil, err
	}
	res := make([]content.PublishedPost, len(models))
	for i, m := range models {
		res[i] = fromPostModel(m)
	}
	return res, nil
}

func (r *ContentGormRepository) ListPostsByDraft(ctx context.Context, draftID string) ([]content.PublishedPost, error) {
	var models []publishedPostModel
	if err := r.db.WithContext(ctx).Where("draft_id = ?", draftID).Order("created_at asc").Find(&models).Error; err != nil {
		return nil, err
	}
	res := make([]content.PublishedPost, len(models))
	for i, m := range models {
		res[i] = fromPostModel(m)
	}
	return res, nil
}

// Publish Jobs

func (r *ContentGormRepository) CreateJob(ctx context.Context, j content.PublishJob) error {
	model := toJobModel(j)
	return r.db.WithContext(ctx).Create(&model).Error
}

func (r *ContentGormRepository) UpdateJob(ctx context.Context, j content.PublishJob) error {
	j.UpdatedAt = time.Now().UTC()
	model := toJobModel(j)
	return r.db.WithContext(ctx).Save(&model).Error
}

func (r *ContentGormRepository) GetJob(ctx context.Context, id string) (content.PublishJob, error) {
	var m publishJobModel
	if err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return content.PublishJob{}, pkgError.NotFoundError(fmt.Sprintf("job %s not found", id))
		}
		return content.PublishJob{}, err
	}
	return fromJobModel(m), nil
}

func (r *ContentGormRepository) ListDueScheduledJobs(ctx context.Context, before time.Time) ([]content.PublishJob, error) {
	var models []publishJobModel
	err := r.db.WithContext(ctx).
		Where("status = ? AND scheduled_at IS NOT NULL AND scheduled_at <= ?", string(content.JobStatusScheduled), before).
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	res := make([]content.PublishJob, len(models))
	for i, m := range models {
		res[i] = fromJobModel(m)
	}
	return res, nil
}

// Property flags

func (r *ContentGormRepository) SetArchived(ctx context.Context, propertyID string, archived bool) error {
	flag := propertyFlagModel{PropertyID: propertyID, Archived: archived, UpdatedAt: time.Now().UTC()}
	return r.db.WithContext(ctx).Save(&flag).Error
}

func (r *ContentGormRepository) IsArchived(ctx context.Context, propertyID string) (bool, error) {
	var m propertyFlagModel
	err := r.db.WithContext(ctx).First(&m, "property_id = ?", propertyID).Error
	if err == gorm.ErrRecordNotFound {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return m.Archived, nil
}
