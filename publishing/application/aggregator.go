package application

import (
	"sort"
	"time"

	"github.com/casapress/casapress/publishing/domain/content"
)

// Language-level rollup values.
const (
	LangStatusPublished = "published"
	LangStatusPartial   = "partial"
	LangStatusFailed    = "failed"
	LangStatusPending   = "pending"
)

// PublishingStatus is the derived property-level view. It is never stored;
// it is recomputed from the full draft/post snapshot on demand.
type PublishingStatus struct {
	PropertyID       string            `json:"property_id"`
	Status           string            `json:"status"` // draft | published | archived
	FirstPublishedAt *time.Time        `json:"first_published_at,omitempty"`
	Channels         []content.Channel `json:"channels"`
	Languages        map[string]string `json:"languages"`
}

// Aggregate computes the rollup from one consistent snapshot.
// It is pure: same inputs, same output, no side effects.
func Aggregate(propertyID string, drafts []content.Draft, posts []content.PublishedPost, archived bool) PublishingStatus {
	status := PublishingStatus{
		PropertyID: propertyID,
		Channels:   []content.Channel{},
		Languages:  map[string]string{},
	}

	// Only the latest attempt per draft counts for the per-language rollup.
	// Posts arrive ordered by creation, so later entries win.
	latestByDraft := make(map[string]content.PublishedPost)
	sorted := make([]content.PublishedPost, len(posts))
	copy(sorted, posts)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt.Before(sorted[j].CreatedAt)
	})
	for _, p := range sorted {
		latestByDraft[p.DraftID] = p
	}

	// Channel list keeps the order each channel first succeeded in.
	seenChannel := make(map[content.Channel]bool)
	var firstPublished *time.Time
	anySuccess := false
	for _, p := range sorted {
		if p.Outcome != content.PostOutcomePublished {
			continue
		}
		anySuccess = true
		if !seenChannel[p.Channel] {
			seenChannel[p.Channel] = true
			status.Channels = append(status.Channels, p.Channel)
		}
		if firstPublished == nil || p.PublishedAt.Before(*firstPublished) {
			t := p.PublishedAt
			firstPublished = &t
		}
	}
	status.FirstPublishedAt = firstPublished

	switch {
	case archived:
		status.Status = "archived"
	case anySuccess:
		status.Status = "published"
	default:
		status.Status = "draft"
	}

	// Per-language: the requested channel set for a language is the set of
	// drafts that exist for it.
	byLanguage := make(map[string][]content.Draft)
	for _, d := range drafts {
		byLanguage[d.Language] = append(byLanguage[d.Language], d)
	}
	for lang, langDrafts := range byLanguage {
		total := len(langDrafts)
		succeeded := 0
		attempted := 0
		for _, d := range langDrafts {
			latest, ok := latestByDraft[d.ID]
			if !ok {
				continue
			}
			attempted++
			if latest.Outcome == content.PostOutcomePublished {
				succeeded++
			}
		}
		switch {
		case attempted == 0:
			status.Languages[lang] = LangStatusPending
		case succeeded == total:
			status.Languages[lang] = LangStatusPublished
		case succeeded > 0:
			status.Languages[lang] = LangStatusPartial
		default:
			status.Languages[lang] = LangStatusFailed
		}
	}

	return status
}
