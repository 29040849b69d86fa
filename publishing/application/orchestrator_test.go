package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/casapress/casapress/pkg/jobworker"
	"github.com/casapress/casapress/publishing/channels"
	"github.com/casapress/casapress/publishing/domain/channel"
	"github.com/casapress/casapress/publishing/domain/content"
	"github.com/casapress/casapress/publishing/domain/property"
	"github.com/casapress/casapress/publishing/repository"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type fakeGateway struct {
	properties map[string]property.Property
	contacts   map[string]property.AgentContact
	visible    map[string]bool
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		properties: map[string]property.Property{
			"p1": {ID: "p1", AgentID: "a1", Title: "2BHK in Pune", Price: 7500000, Location: "Baner, Pune"},
		},
		contacts: map[string]property.AgentContact{
			"a1": {AgentID: "a1", DisplayName: "Rohit Mehta", Phone: "+91 90000 00000"},
		},
		visible: make(map[string]bool),
	}
}

func (g *fakeGateway) GetProperty(ctx context.Context, id string) (property.Property, error) {
	p, ok := g.properties[id]
	if !ok {
		return property.Property{}, notFoundErr(id)
	}
	return p, nil
}

func (g *fakeGateway) GetAgentContact(ctx context.Context, agentID string) (property.AgentContact, error) {
	c, ok := g.contacts[agentID]
	if !ok {
		return property.AgentContact{}, notFoundErr(agentID)
	}
	return c, nil
}

func (g *fakeGateway) SetVisibility(ctx context.Context, propertyID, language string, visible bool) error {
	g.visible[propertyID+":"+language] = visible
	return nil
}

type notFoundErr string

func (e notFoundErr) Error() string { return string(e) + " not found" }

// fakePublisher publishes successfully unless failFor has an entry for the
// draft's language.
type fakePublisher struct {
	ch      content.Channel
	failFor map[string]*channel.ChannelError
}

func (f *fakePublisher) Channel() content.Channel { return f.ch }

func (f *fakePublisher) Publish(ctx context.Context, draft content.Draft, prop property.Property) (content.PublishedPost, error) {
	if cerr, ok := f.failFor[draft.Language]; ok {
		return content.PublishedPost{}, cerr
	}
	now := time.Now().UTC()
	return content.PublishedPost{
		ID:             uuid.NewString(),
		DraftID:        draft.ID,
		PropertyID:     draft.PropertyID,
		Language:       draft.Language,
		Channel:        f.ch,
		PlatformPostID: "ext-" + draft.ID,
		Outcome:        content.PostOutcomePublished,
		PublishedAt:    now,
		CreatedAt:      now,
	}, nil
}

type orchestratorHarness struct {
	repo         *repository.ContentGormRepository
	orchestrator *Orchestrator
	gateway      *fakeGateway
	facebook     *fakePublisher
}

func newOrchestratorHarness(t *testing.T) *orchestratorHarness {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	repo := repository.NewContentGormRepository(db)
	require.NoError(t, repo.Init(context.Background()))

	gateway := newFakeGateway()
	provider := &stubProvider{response: "TITLE: Lovely 2BHK\nBODY: Close to everything.\nHASHTAGS: #pune #2bhk"}
	generator := NewContentGenerator(provider, time.Second, "", "")

	facebook := &fakePublisher{ch: content.ChannelFacebook, failFor: map[string]*channel.ChannelError{}}
	registry := channels.NewRegistry()
	registry.Register(facebook)
	registry.Register(&fakePublisher{ch: content.ChannelWebsite, failFor: map[string]*channel.ChannelError{}})

	pool := jobworker.NewPool(4, 32)
	ctx, cancel := context.WithCancel(context.Background())
	pool.Start(ctx)
	t.Cleanup(func() {
		cancel()
		pool.Stop()
	})

	return &orchestratorHarness{
		repo:         repo,
		orchestrator: NewOrchestrator(repo, gateway, generator, registry, pool, 5*time.Second),
		gateway:      gateway,
		facebook:     facebook,
	}
}

func waitForJob(t *testing.T, repo *repository.ContentGormRepository, jobID string) content.PublishJob {
	t.Helper()
	var job content.PublishJob
	require.Eventually(t, func() bool {
		j, err := repo.GetJob(context.Background(), jobID)
		if err != nil {
			return false
		}
		job = j
		return j.Status == content.JobStatusCompleted
	}, 5*time.Second, 20*time.Millisecond, "batch never completed")
	return job
}

func TestRequestPublish_HumanInTheLoopDefault(t *testing.T) {
	h := newOrchestratorHarness(t)
	ctx := context.Background()

	job, err := h.orchestrator.RequestPublish(ctx, PublishRequest{
		PropertyID:    "p1",
		Languages:     []string{"en"},
		Channels:      []content.Channel{content.ChannelWebsite, content.ChannelFacebook},
		AutoTranslate: true,
	})
	require.NoError(t, err)

	done := waitForJob(t, h.repo, job.ID)
	require.Len(t, done.Results, 2)
	for _, r := range done.Results {
		assert.Equal(t, PairOutcomeGenerated, r.Outcome)
	}

	// Without approval the drafts stay generated and nothing is posted.
	drafts, err := h.repo.ListDraftsByProperty(ctx, "p1", "")
	require.NoError(t, err)
	require.Len(t, drafts, 2)
	for _, d := range drafts {
		assert.Equal(t, content.DraftStatusGenerated, d.Status)
	}
	posts, err := h.repo.ListPostsByProperty(ctx, "p1")
	require.NoError(t, err)
	assert.Empty(t, posts)
}

func TestRequestPublish_AutoApproveWithPartialFailure(t *testing.T) {
	h := newOrchestratorHarness(t)
	ctx := context.Background()

	// Facebook rejects the Hindi draft, everything else goes through.
	h.facebook.failFor["hi"] = &channel.ChannelError{
		Code:      channel.ErrCodeBindingMissing,
		Message:   "no page bound for hi",
		Retriable: true,
	}

	job, err := h.orchestrator.RequestPublish(ctx, PublishRequest{
		PropertyID:    "p1",
		Languages:     []string{"en", "hi"},
		Channels:      []content.Channel{content.ChannelWebsite, content.ChannelFacebook},
		AutoTranslate: true,
		AutoApprove:   true,
	})
	require.NoError(t, err)

	done := waitForJob(t, h.repo, job.ID)
	require.Len(t, done.Results, 4)

	published, failed := 0, 0
	for _, r := range done.Results {
		switch r.Outcome {
		case PairOutcomePublished:
			published++
		case PairOutcomeFailed:
			failed++
			assert.Equal(t, "hi", r.Language)
			assert.Equal(t, content.ChannelFacebook, r.Channel)
			assert.True(t, r.Retriable)
		}
	}
	assert.Equal(t, 3, published)
	assert.Equal(t, 1, failed, "one pair failing must not abort the batch")

	status, err := h.orchestrator.Status(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "published", status.Status)
	assert.Equal(t, LangStatusPublished, status.Languages["en"])
	assert.Equal(t, LangStatusPartial, status.Languages["hi"])

	// The failed draft keeps the normalized error for the retry path.
	failedDraft, err := h.repo.GetDraftByKey(ctx, "p1", "hi", content.ChannelFacebook)
	require.NoError(t, err)
	assert.Equal(t, content.DraftStatusFailed, failedDraft.Status)
	assert.Contains(t, failedDraft.LastError, channel.ErrCodeBindingMissing)
}

func TestPublishDrafts_ReadyDraftsOnly(t *testing.T) {
	h := newOrchestratorHarness(t)
	ctx := context.Background()

	drafts, _, err := h.orchestrator.GenerateDrafts(ctx, GenerateRequest{
		PropertyID: "p1",
		Language:   "en",
		Channels:   []content.Channel{content.ChannelWebsite},
	})
	require.NoError(t, err)
	require.Len(t, drafts, 1)

	_, err = h.repo.TransitionDraft(ctx, drafts[0].ID, content.DraftStatusGenerated, content.DraftStatusReady, nil)
	require.NoError(t, err)

	job, err := h.orchestrator.PublishDrafts(ctx, []string{drafts[0].ID}, nil)
	require.NoError(t, err)

	done := waitForJob(t, h.repo, job.ID)
	require.Len(t, done.Results, 1)
	assert.Equal(t, PairOutcomePublished, done.Results[0].Outcome)

	got, err := h.repo.GetDraft(ctx, drafts[0].ID)
	require.NoError(t, err)
	assert.Equal(t, content.DraftStatusPublished, got.Status)
}

func TestPublishDrafts_RejectsUnapprovedDraft(t *testing.T) {
	h := newOrchestratorHarness(t)
	ctx := context.Background()

	drafts, _, err := h.orchestrator.GenerateDrafts(ctx, GenerateRequest{
		PropertyID: "p1",
		Language:   "en",
		Channels:   []content.Channel{content.ChannelFacebook},
	})
	require.NoError(t, err)
	require.Len(t, drafts, 1)

	// Publishing by id is not an implicit approval: the draft must pass
	// through mark-ready first.
	job, err := h.orchestrator.PublishDrafts(ctx, []string{drafts[0].ID}, nil)
	require.NoError(t, err)

	done := waitForJob(t, h.repo, job.ID)
	require.Len(t, done.Results, 1)
	assert.Equal(t, PairOutcomeSkipped, done.Results[0].Outcome)
	assert.Contains(t, done.Results[0].Error, "not been marked ready")

	got, err := h.repo.GetDraft(ctx, drafts[0].ID)
	require.NoError(t, err)
	assert.Equal(t, content.DraftStatusGenerated, got.Status, "the draft keeps waiting for approval")

	posts, err := h.repo.ListPostsByProperty(ctx, "p1")
	require.NoError(t, err)
	assert.Empty(t, posts)
}

func TestPublishDrafts_RejectsMixedProperties(t *testing.T) {
	h := newOrchestratorHarness(t)
	ctx := context.Background()

	first, err := h.repo.UpsertDraft(ctx, content.Draft{
		ID: "da", PropertyID: "p1", Language: "en", Channel: content.ChannelWebsite,
		Title: "t", Body: "b", Status: content.DraftStatusReady,
	})
	require.NoError(t, err)
	second, err := h.repo.UpsertDraft(ctx, content.Draft{
		ID: "db", PropertyID: "p2", Language: "en", Channel: content.ChannelWebsite,
		Title: "t", Body: "b", Status: content.DraftStatusReady,
	})
	require.NoError(t, err)

	_, err = h.orchestrator.PublishDrafts(ctx, []string{first.ID, second.ID}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "one property")
}

func TestRequestPublish_ScheduledJobDefers(t *testing.T) {
	h := newOrchestratorHarness(t)
	ctx := context.Background()

	at := time.Now().UTC().Add(time.Hour)
	job, err := h.orchestrator.RequestPublish(ctx, PublishRequest{
		PropertyID:    "p1",
		Languages:     []string{"en"},
		Channels:      []content.Channel{content.ChannelWebsite},
		AutoTranslate: true,
		AutoApprove:   true,
		ScheduleAt:    &at,
	})
	require.NoError(t, err)
	assert.Equal(t, content.JobStatusScheduled, job.Status)

	// Nothing runs until the scheduler fires the job.
	time.Sleep(50 * time.Millisecond)
	posts, err := h.repo.ListPostsByProperty(ctx, "p1")
	require.NoError(t, err)
	assert.Empty(t, posts)

	require.NoError(t, h.orchestrator.RunScheduledJob(ctx, job.ID))

	done := waitForJob(t, h.repo, job.ID)
	require.Len(t, done.Results, 1)
	assert.Equal(t, PairOutcomePublished, done.Results[0].Outcome)
}

// draftKeyErrRepo fails every key lookup with a storage error.
type draftKeyErrRepo struct {
	content.IContentRepository
	err error
}

func (r *draftKeyErrRepo) GetDraftByKey(ctx context.Context, propertyID, language string, ch content.Channel) (content.Draft, error) {
	return content.Draft{}, r.err
}

func TestResolveDraft_StorageErrorIsNotRegeneration(t *testing.T) {
	gateway := newFakeGateway()
	provider := &stubProvider{response: "TITLE: x\nBODY: y\nHASHTAGS:"}
	generator := NewContentGenerator(provider, time.Second, "", "")

	boom := errors.New("disk read failed")
	o := NewOrchestrator(&draftKeyErrRepo{err: boom}, gateway, generator, channels.NewRegistry(), nil, time.Second)

	job := content.PublishJob{PropertyID: "p1", AutoTranslate: true}
	_, err := o.resolveDraft(context.Background(), job, "en", content.ChannelWebsite, "")
	require.Error(t, err)
	assert.Equal(t, boom, err, "the read failure surfaces as-is")
	assert.Empty(t, provider.prompts, "a storage failure must not trigger regeneration")
}

func TestGenerateDrafts_SkipsNonRegenerable(t *testing.T) {
	h := newOrchestratorHarness(t)
	ctx := context.Background()

	drafts, _, err := h.orchestrator.GenerateDrafts(ctx, GenerateRequest{
		PropertyID: "p1",
		Language:   "en",
		Channels:   []content.Channel{content.ChannelWebsite},
	})
	require.NoError(t, err)
	_, err = h.repo.TransitionDraft(ctx, drafts[0].ID, content.DraftStatusGenerated, content.DraftStatusReady, nil)
	require.NoError(t, err)

	// Ready drafts are protected from silent overwrite.
	_, results, err := h.orchestrator.GenerateDrafts(ctx, GenerateRequest{
		PropertyID: "p1",
		Language:   "en",
		Channels:   []content.Channel{content.ChannelWebsite},
	})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, PairOutcomeSkipped, results[0].Outcome)
}
