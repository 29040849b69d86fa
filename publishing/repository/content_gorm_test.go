package repository

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	pkgError "github.com/casapress/casapress/pkg/error"
	"github.com/casapress/casapress/publishing/domain/content"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	return db
}

func newTestRepo(t *testing.T) *ContentGormRepository {
	t.Helper()
	repo := NewContentGormRepository(newTestDB(t))
	require.NoError(t, repo.Init(context.Background()))
	return repo
}

func testDraft(propertyID, lang string, ch content.Channel) content.Draft {
	return content.Draft{
		ID:              "draft-" + propertyID + "-" + lang + "-" + string(ch),
		PropertyID:      propertyID,
		Language:        lang,
		Channel:         ch,
		Title:           "Title",
		Body:            "Body",
		Hashtags:        []string{"#one", "#two"},
		ContactIncluded: true,
		Status:          content.DraftStatusGenerated,
	}
}

func TestUpsertDraft_InsertAndRead(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	saved, err := repo.UpsertDraft(ctx, testDraft("p1", "en", content.ChannelFacebook))
	require.NoError(t, err)

	got, err := repo.GetDraft(ctx, saved.ID)
	require.NoError(t, err)
	assert.Equal(t, "p1", got.PropertyID)
	assert.Equal(t, []string{"#one", "#two"}, got.Hashtags)
	assert.Equal(t, content.DraftStatusGenerated, got.Status)

	byKey, err := repo.GetDraftByKey(ctx, "p1", "en", content.ChannelFacebook)
	require.NoError(t, err)
	assert.Equal(t, saved.ID, byKey.ID)
}

func TestUpsertDraft_ReplacePreservesIdentity(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	first, err := repo.UpsertDraft(ctx, testDraft("p1", "en", content.ChannelFacebook))
	require.NoError(t, err)

	replacement := testDraft("p1", "en", content.ChannelFacebook)
	replacement.ID = "some-new-id"
	replacement.Title = "Regenerated title"
	second, err := repo.UpsertDraft(ctx, replacement)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID, "regeneration must keep the surrogate id")

	all, err := repo.ListDraftsByProperty(ctx, "p1", "")
	require.NoError(t, err)
	require.Len(t, all, 1, "the natural key must stay unique")
	assert.Equal(t, "Regenerated title", all[0].Title)
}

func TestUpsertDraft_RejectedWhileClaimed(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	saved, err := repo.UpsertDraft(ctx, testDraft("p1", "en", content.ChannelFacebook))
	require.NoError(t, err)
	_, err = repo.TransitionDraft(ctx, saved.ID, content.DraftStatusGenerated, content.DraftStatusReady, nil)
	require.NoError(t, err)
	_, err = repo.TransitionDraft(ctx, saved.ID, content.DraftStatusReady, content.DraftStatusPublishing, nil)
	require.NoError(t, err)

	// A regeneration racing the publish claim must not reset the draft.
	_, err = repo.UpsertDraft(ctx, testDraft("p1", "en", content.ChannelFacebook))
	require.Error(t, err)
	assert.True(t, pkgError.IsStateConflict(err))

	got, err := repo.GetDraft(ctx, saved.ID)
	require.NoError(t, err)
	assert.Equal(t, content.DraftStatusPublishing, got.Status, "the claim survives the upsert attempt")

	// And the claim stays exclusive afterwards.
	_, err = repo.TransitionDraft(ctx, saved.ID, content.DraftStatusReady, content.DraftStatusPublishing, nil)
	require.Error(t, err)
	assert.True(t, pkgError.IsStateConflict(err))
}

func TestUpsertDraft_RejectedWhenPublished(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	saved, err := repo.UpsertDraft(ctx, testDraft("p1", "en", content.ChannelWebsite))
	require.NoError(t, err)
	for _, next := range []content.DraftStatus{
		content.DraftStatusReady, content.DraftStatusPublishing, content.DraftStatusPublished,
	} {
		saved, err = repo.TransitionDraft(ctx, saved.ID, saved.Status, next, nil)
		require.NoError(t, err)
	}

	_, err = repo.UpsertDraft(ctx, testDraft("p1", "en", content.ChannelWebsite))
	require.Error(t, err)
	assert.True(t, pkgError.IsStateConflict(err))
}

func TestListDraftsByProperty_LanguageFilter(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	for _, lang := range []string{"en", "hi"} {
		for _, ch := range []content.Channel{content.ChannelWebsite, content.ChannelFacebook} {
			_, err := repo.UpsertDraft(ctx, testDraft("p1", lang, ch))
			require.NoError(t, err)
		}
	}

	all, err := repo.ListDraftsByProperty(ctx, "p1", "")
	require.NoError(t, err)
	assert.Len(t, all, 4)

	hiOnly, err := repo.ListDraftsByProperty(ctx, "p1", "hi")
	require.NoError(t, err)
	assert.Len(t, hiOnly, 2)
}

func TestUpdateDraftFields_MovesToEdited(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	saved, err := repo.UpsertDraft(ctx, testDraft("p1", "en", content.ChannelFacebook))
	require.NoError(t, err)

	title := "Edited title"
	got, err := repo.UpdateDraftFields(ctx, saved.ID, content.DraftUpdate{
		Title:    &title,
		EditedBy: "editor@example.com",
	})
	require.NoError(t, err)

	assert.Equal(t, content.DraftStatusEdited, got.Status)
	assert.Equal(t, "Edited title", got.Title)
	assert.Equal(t, "Body", got.Body, "untouched fields stay")
	assert.Equal(t, "editor@example.com", got.EditedBy)
}

func TestUpdateDraftFields_RejectedWhilePublishing(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	saved, err := repo.UpsertDraft(ctx, testDraft("p1", "en", content.ChannelFacebook))
	require.NoError(t, err)
	_, err = repo.TransitionDraft(ctx, saved.ID, content.DraftStatusGenerated, content.DraftStatusReady, nil)
	require.NoError(t, err)
	_, err = repo.TransitionDraft(ctx, saved.ID, content.DraftStatusReady, content.DraftStatusPublishing, nil)
	require.NoError(t, err)

	title := "nope"
	_, err = repo.UpdateDraftFields(ctx, saved.ID, content.DraftUpdate{Title: &title})
	require.Error(t, err)
	assert.True(t, pkgError.IsStateConflict(err))
}

func TestTransitionDraft_CompareAndSwap(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	saved, err := repo.UpsertDraft(ctx, testDraft("p1", "en", content.ChannelFacebook))
	require.NoError(t, err)
	_, err = repo.TransitionDraft(ctx, saved.ID, content.DraftStatusGenerated, content.DraftStatusReady, nil)
	require.NoError(t, err)

	// First claim wins.
	claimed, err := repo.TransitionDraft(ctx, saved.ID, content.DraftStatusReady, content.DraftStatusPublishing, nil)
	require.NoError(t, err)
	assert.Equal(t, content.DraftStatusPublishing, claimed.Status)

	// Second claim observes the wrong pre-state and loses.
	_, err = repo.TransitionDraft(ctx, saved.ID, content.DraftStatusReady, content.DraftStatusPublishing, nil)
	require.Error(t, err)
	assert.True(t, pkgError.IsStateConflict(err))
}

func TestTransitionDraft_ConcurrentClaimsSingleWinner(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	saved, err := repo.UpsertDraft(ctx, testDraft("p1", "en", content.ChannelFacebook))
	require.NoError(t, err)
	_, err = repo.TransitionDraft(ctx, saved.ID, content.DraftStatusGenerated, content.DraftStatusReady, nil)
	require.NoError(t, err)

	const claimers = 8
	var (
		wg        sync.WaitGroup
		successes int64
		conflicts int64
	)
	for i := 0; i < claimers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.TransitionDraft(ctx, saved.ID, content.DraftStatusReady, content.DraftStatusPublishing, nil)
			if err == nil {
				atomic.AddInt64(&successes, 1)
				return
			}
			if pkgError.IsStateConflict(err) {
				atomic.AddInt64(&conflicts, 1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(1), successes, "exactly one claimer may win")
	assert.Equal(t, int64(claimers-1), conflicts, "every loser gets a state conflict")

	got, err := repo.GetDraft(ctx, saved.ID)
	require.NoError(t, err)
	assert.Equal(t, content.DraftStatusPublishing, got.Status)
}

func TestTransitionDraft_IllegalMoveRejected(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	saved, err := repo.UpsertDraft(ctx, testDraft("p1", "en", content.ChannelFacebook))
	require.NoError(t, err)

	_, err = repo.TransitionDraft(ctx, saved.ID, content.DraftStatusGenerated, content.DraftStatusPublishing, nil)
	require.Error(t, err)
	assert.True(t, pkgError.IsStateConflict(err))
}

func TestTransitionDraft_MutateAppliedAtomically(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	saved, err := repo.UpsertDraft(ctx, testDraft("p1", "en", content.ChannelFacebook))
	require.NoError(t, err)
	_, err = repo.TransitionDraft(ctx, saved.ID, content.DraftStatusGenerated, content.DraftStatusReady, nil)
	require.NoError(t, err)
	_, err = repo.TransitionDraft(ctx, saved.ID, content.DraftStatusReady, content.DraftStatusPublishing, nil)
	require.NoError(t, err)

	failed, err := repo.TransitionDraft(ctx, saved.ID, content.DraftStatusPublishing, content.DraftStatusFailed, func(d *content.Draft) {
		d.LastError = "auth_expired: token invalid"
	})
	require.NoError(t, err)
	assert.Equal(t, "auth_expired: token invalid", failed.LastError)

	got, err := repo.GetDraft(ctx, saved.ID)
	require.NoError(t, err)
	assert.Equal(t, content.DraftStatusFailed, got.Status)
	assert.Equal(t, "auth_expired: token invalid", got.LastError)
}

func TestPosts_AppendOnlyHistory(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	first := content.PublishedPost{
		ID: "post-1", DraftID: "d1", PropertyID: "p1",
		Language: "en", Channel: content.ChannelFacebook,
		Outcome: content.PostOutcomeFailed, Error: "rate_limited: slow down",
		CreatedAt: base,
	}
	second := content.PublishedPost{
		ID: "post-2", DraftID: "d1", PropertyID: "p1",
		Language: "en", Channel: content.ChannelFacebook,
		PlatformPostID: "fb_123", Outcome: content.PostOutcomePublished,
		PublishedAt: base.Add(time.Hour), CreatedAt: base.Add(time.Hour),
	}
	require.NoError(t, repo.CreatePost(ctx, first))
	require.NoError(t, repo.CreatePost(ctx, second))

	byDraft, err := repo.ListPostsByDraft(ctx, "d1")
	require.NoError(t, err)
	require.Len(t, byDraft, 2)
	assert.Equal(t, content.PostOutcomeFailed, byDraft[0].Outcome)
	assert.Equal(t, content.PostOutcomePublished, byDraft[1].Outcome)

	byProperty, err := repo.ListPostsByProperty(ctx, "p1")
	require.NoError(t, err)
	assert.Len(t, byProperty, 2)
}

func TestJobs_RoundTripAndDueScan(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	due := content.PublishJob{
		ID: "job-due", PropertyID: "p1",
		Languages: []string{"en"}, Channels: []content.Channel{content.ChannelWebsite},
		ScheduledAt: &past, Status: content.JobStatusScheduled,
		CreatedAt: past, UpdatedAt: past,
	}
	notDue := content.PublishJob{
		ID: "job-later", PropertyID: "p1",
		Languages: []string{"en"}, Channels: []content.Channel{content.ChannelWebsite},
		ScheduledAt: &future, Status: content.JobStatusScheduled,
		CreatedAt: past, UpdatedAt: past,
	}
	require.NoError(t, repo.CreateJob(ctx, due))
	require.NoError(t, repo.CreateJob(ctx, notDue))

	dueJobs, err := repo.ListDueScheduledJobs(ctx, now)
	require.NoError(t, err)
	require.Len(t, dueJobs, 1)
	assert.Equal(t, "job-due", dueJobs[0].ID)

	// Completing a job with results survives the round trip.
	job := dueJobs[0]
	job.Status = content.JobStatusCompleted
	job.Results = []content.PairResult{
		{Language: "en", Channel: content.ChannelWebsite, DraftID: "d1", Outcome: "published", Status: content.DraftStatusPublished},
	}
	require.NoError(t, repo.UpdateJob(ctx, job))

	got, err := repo.GetJob(ctx, "job-due")
	require.NoError(t, err)
	assert.Equal(t, content.JobStatusCompleted, got.Status)
	require.Len(t, got.Results, 1)
	assert.Equal(t, "published", got.Results[0].Outcome)
}

func TestArchivedFlag(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	archived, err := repo.IsArchived(ctx, "p1")
	require.NoError(t, err)
	assert.False(t, archived)

	require.NoError(t, repo.SetArchived(ctx, "p1", true))

	archived, err = repo.IsArchived(ctx, "p1")
	require.NoError(t, err)
	assert.True(t, archived)

	require.NoError(t, repo.SetArchived(ctx, "p1", false))
	archived, err = repo.IsArchived(ctx, "p1")
	require.NoError(t, err)
	assert.False(t, archived)
}

func TestGetDraft_NotFound(t *testing.T) {
	repo := newTestRepo(t)

	_, err := repo.GetDraft(context.Background(), "missing")
	require.Error(t, err)
	ge, ok := err.(pkgError.GenericError)
	require.True(t, ok)
	assert.Equal(t, 404, ge.StatusCode())
}
