package application

import (
	"context"
	"fmt"
	"sync"
	"time"

	pkgError "github.com/casapress/casapress/pkg/error"
	"github.com/casapress/casapress/pkg/jobworker"
	"github.com/casapress/casapress/publishing/channels"
	"github.com/casapress/casapress/publishing/domain/channel"
	"github.com/casapress/casapress/publishing/domain/content"
	"github.com/casapress/casapress/publishing/domain/property"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Pair outcome labels recorded in the job log.
const (
	PairOutcomeGenerated = "generated"
	PairOutcomePublished = "published"
	PairOutcomeFailed    = "failed"
	PairOutcomeSkipped   = "skipped"
)

// PublishRequest is the property-level publish call: fan out over the
// language × channel cross product.
type PublishRequest struct {
	PropertyID    string
	Languages     []string
	Channels      []content.Channel
	AutoTranslate bool
	AutoApprove   bool
	ScheduleAt    *time.Time
}

// GenerateRequest creates or regenerates drafts for one language across
// channels.
type GenerateRequest struct {
	PropertyID     string
	AgentID        string
	Language       string
	Channels       []content.Channel
	Tone           string
	Length         string
	IncludeContact *bool
}

// Orchestrator drives the generate → ready → publish pipeline. Pairs run
// concurrently on the worker pool; one pair failing never aborts the rest.
type Orchestrator struct {
	repo           content.IContentRepository
	gateway        property.Gateway
	generator      *ContentGenerator
	registry       *channels.Registry
	pool           *jobworker.Pool
	publishTimeout time.Duration
}

func NewOrchestrator(
	repo content.IContentRepository,
	gateway property.Gateway,
	generator *ContentGenerator,
	registry *channels.Registry,
	pool *jobworker.Pool,
	publishTimeout time.Duration,
) *Orchestrator {
	if publishTimeout <= 0 {
		publishTimeout = 30 * time.Second
	}
	return &Orchestrator{
		repo:           repo,
		gateway:        gateway,
		generator:      generator,
		registry:       registry,
		pool:           pool,
		publishTimeout: publishTimeout,
	}
}

// GenerateDrafts runs the generator for each requested channel in one
// language and upserts the resulting drafts. Pairs fail independently.
func (o *Orchestrator) GenerateDrafts(ctx context.Context, req GenerateRequest) ([]content.Draft, []content.PairResult, error) {
	prop, err := o.gateway.GetProperty(ctx, req.PropertyID)
	if err != nil {
		return nil, nil, pkgError.NotFoundError(fmt.Sprintf("property %s not found", req.PropertyID))
	}
	agentID := req.AgentID
	if agentID == "" {
		agentID = prop.AgentID
	}
	contact, err := o.gateway.GetAgentContact(ctx, agentID)
	if err != nil {
		return nil, nil, pkgError.NotFoundError(fmt.Sprintf("agent %s not found", agentID))
	}

	var (
		drafts  []content.Draft
		results []content.PairResult
	)
	for _, ch := range req.Channels {
		result := content.PairResult{Language: req.Language, Channel: ch}

		existing, err := o.repo.GetDraftByKey(ctx, req.PropertyID, req.Language, ch)
		if err == nil && !content.Regenerable(existing.Status) {
			result.Outcome = PairOutcomeSkipped
			result.DraftID = existing.ID
			result.Status = existing.Status
			result.Error = fmt.Sprintf("draft in state %s cannot be regenerated", existing.Status)
			results = append(results, result)
			continue
		}

		draft, genErr := o.generatePair(ctx, prop, contact, req.Language, ch, GenerateOptions{
			Tone:           req.Tone,
			Length:         req.Length,
			IncludeContact: req.IncludeContact,
		})
		if genErr != nil {
			result.Outcome = PairOutcomeFailed
			result.Error = genErr.Error()
			result.Retriable = true
			results = append(results, result)
			continue
		}
		result.Outcome = PairOutcomeGenerated
		result.DraftID = draft.ID
		result.Status = draft.Status
		results = append(results, result)
		drafts = append(drafts, draft)
	}
	return drafts, results, nil
}

// generatePair generates content for one pair and stores the draft in
// generated state, preserving an existing draft's identity.
func (o *Orchestrator) generatePair(ctx context.Context, prop property.Property, contact property.AgentContact, language string, ch content.Channel, opts GenerateOptions) (content.Draft, error) {
	gen, err := o.generator.Generate(ctx, prop, contact, language, ch, opts)
	if err != nil {
		return content.Draft{}, err
	}

	includeContact := true
	if opts.IncludeContact != nil {
		includeContact = *opts.IncludeContact
	}

	draft := content.Draft{
		ID:              uuid.NewString(),
		PropertyID:      prop.ID,
		Language:        language,
		Channel:         ch,
		Title:           gen.Title,
		Body:            gen.Body,
		Hashtags:        gen.Hashtags,
		MediaIDs:        prop.ImageURLs,
		ContactIncluded: includeContact,
		Status:          content.DraftStatusGenerated,
	}
	return o.repo.UpsertDraft(ctx, draft)
}

// RequestPublish is the property-level entry point. It returns immediately
// with a job handle; the batch runs on the worker pool. A future ScheduleAt
// defers the whole batch until the schedule fires.
func (o *Orchestrator) RequestPublish(ctx context.Context, req PublishRequest) (content.PublishJob, error) {
	if _, err := o.gateway.GetProperty(ctx, req.PropertyID); err != nil {
		return content.PublishJob{}, pkgError.NotFoundError(fmt.Sprintf("property %s not found", req.PropertyID))
	}

	now := time.Now().UTC()
	job := content.PublishJob{
		ID:            uuid.NewString(),
		PropertyID:    req.PropertyID,
		Languages:     req.Languages,
		Channels:      req.Channels,
		AutoApprove:   req.AutoApprove,
		AutoTranslate: req.AutoTranslate,
		ScheduledAt:   req.ScheduleAt,
		Status:        content.JobStatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if req.ScheduleAt != nil && req.ScheduleAt.After(now) {
		job.Status = content.JobStatusScheduled
	}
	if err := o.repo.CreateJob(ctx, job); err != nil {
		return content.PublishJob{}, err
	}

	if job.Status == content.JobStatusScheduled {
		logrus.WithFields(logrus.Fields{
			"job_id":       job.ID,
			"property_id":  job.PropertyID,
			"scheduled_at": job.ScheduledAt,
		}).Info("[ORCHESTRATOR] Publish job deferred")
		return job, nil
	}

	o.startBatch(job)
	return job, nil
}

// PublishDrafts publishes a set of already-ready drafts (the draft-level
// publish endpoint). ScheduleAt defers the batch like RequestPublish.
func (o *Orchestrator) PublishDrafts(ctx context.Context, draftIDs []string, scheduleAt *time.Time) (content.PublishJob, error) {
	if len(draftIDs) == 0 {
		return content.PublishJob{}, pkgError.ValidationError("draft_ids must not be empty")
	}

	drafts := make([]content.Draft, 0, len(draftIDs))
	for _, id := range draftIDs {
		d, err := o.repo.GetDraft(ctx, id)
		if err != nil {
			return content.PublishJob{}, err
		}
		drafts = append(drafts, d)
	}
	propertyID := drafts[0].PropertyID
	for _, d := range drafts[1:] {
		if d.PropertyID != propertyID {
			return content.PublishJob{}, pkgError.ValidationError("draft_ids must all belong to one property")
		}
	}

	now := time.Now().UTC()
	job := content.PublishJob{
		ID:          uuid.NewString(),
		PropertyID:  propertyID,
		DraftIDs:    draftIDs,
		ScheduledAt: scheduleAt,
		Status:      content.JobStatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	for _, d := range drafts {
		job.Languages = appendUnique(job.Languages, d.Language)
		job.Channels = appendUniqueChannel(job.Channels, d.Channel)
	}
	if scheduleAt != nil && scheduleAt.After(now) {
		job.Status = content.JobStatusScheduled
	}
	if err := o.repo.CreateJob(ctx, job); err != nil {
		return content.PublishJob{}, err
	}

	if job.Status == content.JobStatusScheduled {
		return job, nil
	}

	o.startBatch(job)
	return job, nil
}

// RunScheduledJob promotes a scheduled job whose time has come. Called by
// the scheduler; idempotent against double promotion via the job status.
func (o *Orchestrator) RunScheduledJob(ctx context.Context, jobID string) error {
	job, err := o.repo.GetJob(ctx, jobID)
	if err != nil {
		return err
	}
	if job.Status != content.JobStatusScheduled {
		return nil
	}
	o.startBatch(job)
	return nil
}

// startBatch fans the job's pairs out onto the worker pool and finalizes
// the job record once every pair resolved.
func (o *Orchestrator) startBatch(job content.PublishJob) {
	ctx := context.Background()

	job.Status = content.JobStatusRunning
	if err := o.repo.UpdateJob(ctx, job); err != nil {
		logrus.WithError(err).Error("[ORCHESTRATOR] Failed to mark job running")
	}

	type pair struct {
		language string
		ch       content.Channel
		draftID  string
	}
	var pairs []pair
	if len(job.DraftIDs) > 0 {
		for _, id := range job.DraftIDs {
			d, err := o.repo.GetDraft(ctx, id)
			if err != nil {
				continue
			}
			pairs = append(pairs, pair{language: d.Language, ch: d.Channel, draftID: d.ID})
		}
	} else {
		for _, lang := range job.Languages {
			for _, ch := range job.Channels {
				pairs = append(pairs, pair{language: lang, ch: ch})
			}
		}
	}

	resultCh := make(chan content.PairResult, len(pairs))
	var wg sync.WaitGroup

	for _, p := range pairs {
		p := p
		wg.Add(1)
		dispatched := o.pool.TryDispatch(jobworker.Job{
			PropertyID: job.PropertyID,
			Key:        p.language + "|" + string(p.ch),
			Handler: func(workerCtx context.Context) error {
				defer wg.Done()
				resultCh <- o.processPair(workerCtx, job, p.language, p.ch, p.draftID)
				return nil
			},
		})
		if !dispatched {
			wg.Done()
			resultCh <- content.PairResult{
				Language:  p.language,
				Channel:   p.ch,
				Outcome:   PairOutcomeFailed,
				Error:     "worker pool saturated",
				Retriable: true,
			}
		}
	}

	go func() {
		wg.Wait()
		close(resultCh)

		var results []content.PairResult
		for r := range resultCh {
			results = append(results, r)
		}

		job.Results = results
		job.Status = content.JobStatusCompleted
		if err := o.repo.UpdateJob(ctx, job); err != nil {
			logrus.WithError(err).Error("[ORCHESTRATOR] Failed to finalize job")
		}

		status, err := o.Status(ctx, job.PropertyID)
		if err != nil {
			logrus.WithError(err).Warn("[ORCHESTRATOR] Status rollup after batch failed")
			return
		}
		logrus.WithFields(logrus.Fields{
			"job_id":      job.ID,
			"property_id": job.PropertyID,
			"pairs":       len(results),
			"status":      status.Status,
		}).Info("[ORCHESTRATOR] Publish batch completed")
	}()
}

// processPair resolves one (language, channel) pair end to end: ensure a
// draft exists (generating when allowed), optionally auto-approve, claim
// and publish. Every outcome lands in the result table.
func (o *Orchestrator) processPair(ctx context.Context, job content.PublishJob, language string, ch content.Channel, draftID string) content.PairResult {
	result := content.PairResult{Language: language, Channel: ch, DraftID: draftID}

	draft, err := o.resolveDraft(ctx, job, language, ch, draftID)
	if err != nil {
		result.Outcome = PairOutcomeFailed
		result.Error = err.Error()
		result.Retriable = true
		return result
	}
	result.DraftID = draft.ID
	result.Status = draft.Status

	if draft.Status == content.DraftStatusGenerated || draft.Status == content.DraftStatusEdited {
		if !job.AutoApprove {
			if len(job.DraftIDs) > 0 {
				// Publishing by id does not imply approval: an unapproved
				// draft is a conflict, not an implicit mark-ready.
				result.Outcome = PairOutcomeSkipped
				result.Error = fmt.Sprintf("draft in state %s has not been marked ready", draft.Status)
				return result
			}
			// Human-in-the-loop default: freshly generated drafts wait for an
			// explicit mark-ready call.
			result.Outcome = PairOutcomeGenerated
			return result
		}
		draft, err = o.repo.TransitionDraft(ctx, draft.ID, draft.Status, content.DraftStatusReady, nil)
		if err != nil {
			result.Outcome = PairOutcomeSkipped
			result.Error = err.Error()
			return result
		}
		result.Status = draft.Status
	}

	if draft.Status != content.DraftStatusReady {
		result.Outcome = PairOutcomeSkipped
		result.Error = fmt.Sprintf("draft in state %s is not publishable", draft.Status)
		result.Status = draft.Status
		return result
	}

	return o.publishDraft(ctx, draft)
}

// resolveDraft finds or creates the draft for a pair.
func (o *Orchestrator) resolveDraft(ctx context.Context, job content.PublishJob, language string, ch content.Channel, draftID string) (content.Draft, error) {
	if draftID != "" {
		return o.repo.GetDraft(ctx, draftID)
	}

	draft, err := o.repo.GetDraftByKey(ctx, job.PropertyID, language, ch)
	if err == nil {
		if draft.Status == content.DraftStatusFailed && job.AutoTranslate {
			return o.regenerate(ctx, job.PropertyID, language, ch)
		}
		return draft, nil
	}
	if !pkgError.IsNotFound(err) {
		// A storage failure is not a missing draft; regenerating here would
		// mask the read error.
		return content.Draft{}, err
	}
	if !job.AutoTranslate {
		return content.Draft{}, fmt.Errorf("no draft for %s/%s and auto_translate disabled", language, ch)
	}
	return o.regenerate(ctx, job.PropertyID, language, ch)
}

func (o *Orchestrator) regenerate(ctx context.Context, propertyID, language string, ch content.Channel) (content.Draft, error) {
	prop, err := o.gateway.GetProperty(ctx, propertyID)
	if err != nil {
		return content.Draft{}, err
	}
	contact, err := o.gateway.GetAgentContact(ctx, prop.AgentID)
	if err != nil {
		return content.Draft{}, err
	}
	return o.generatePair(ctx, prop, contact, language, ch, GenerateOptions{})
}

// publishDraft claims a ready draft and delivers it. The claim is exclusive;
// a lost race reports skipped, not failed.
func (o *Orchestrator) publishDraft(ctx context.Context, draft content.Draft) content.PairResult {
	result := content.PairResult{Language: draft.Language, Channel: draft.Channel, DraftID: draft.ID}

	claimed, err := o.repo.TransitionDraft(ctx, draft.ID, content.DraftStatusReady, content.DraftStatusPublishing, nil)
	if err != nil {
		result.Outcome = PairOutcomeSkipped
		result.Error = err.Error()
		return result
	}

	publisher, err := o.registry.Get(claimed.Channel)
	if err != nil {
		return o.failDraft(ctx, claimed, &channel.ChannelError{
			Code:      channel.ErrCodeBindingMissing,
			Message:   err.Error(),
			Retriable: false,
		})
	}

	prop, err := o.gateway.GetProperty(ctx, claimed.PropertyID)
	if err != nil {
		return o.failDraft(ctx, claimed, &channel.ChannelError{
			Code:      channel.ErrCodeNetwork,
			Message:   err.Error(),
			Retriable: true,
		})
	}

	pubCtx, cancel := context.WithTimeout(ctx, o.publishTimeout)
	defer cancel()

	post, err := publisher.Publish(pubCtx, claimed, prop)
	if err != nil {
		cerr, ok := channel.AsChannelError(err)
		if !ok {
			cerr = &channel.ChannelError{Code: channel.ErrCodeNetwork, Message: err.Error(), Retriable: true}
		}
		if pubCtx.Err() != nil {
			cerr = &channel.ChannelError{Code: channel.ErrCodeTimeout, Message: cerr.Message, Retriable: true}
		}
		return o.failDraft(ctx, claimed, cerr)
	}

	if _, err := o.repo.TransitionDraft(ctx, claimed.ID, content.DraftStatusPublishing, content.DraftStatusPublished, func(d *content.Draft) {
		d.LastError = ""
	}); err != nil {
		logrus.WithError(err).WithField("draft_id", claimed.ID).Error("[ORCHESTRATOR] Draft vanished during publish")
	}
	if err := o.repo.CreatePost(ctx, post); err != nil {
		logrus.WithError(err).WithField("draft_id", claimed.ID).Error("[ORCHESTRATOR] Failed to record published post")
	}

	result.Outcome = PairOutcomePublished
	result.Status = content.DraftStatusPublished
	return result
}

// failDraft records a failed attempt: draft moves publishing → failed with
// the error attached, and an immutable failed post row is appended.
func (o *Orchestrator) failDraft(ctx context.Context, draft content.Draft, cerr *channel.ChannelError) content.PairResult {
	if _, err := o.repo.TransitionDraft(ctx, draft.ID, content.DraftStatusPublishing, content.DraftStatusFailed, func(d *content.Draft) {
		d.LastError = cerr.Error()
	}); err != nil {
		logrus.WithError(err).WithField("draft_id", draft.ID).Error("[ORCHESTRATOR] Could not mark draft failed")
	}

	now := time.Now().UTC()
	post := content.PublishedPost{
		ID:         uuid.NewString(),
		DraftID:    draft.ID,
		PropertyID: draft.PropertyID,
		Language:   draft.Language,
		Channel:    draft.Channel,
		Outcome:    content.PostOutcomeFailed,
		Error:      cerr.Error(),
		CreatedAt:  now,
	}
	if err := o.repo.CreatePost(ctx, post); err != nil {
		logrus.WithError(err).WithField("draft_id", draft.ID).Error("[ORCHESTRATOR] Failed to record failed attempt")
	}

	logrus.WithFields(logrus.Fields{
		"draft_id":  draft.ID,
		"channel":   draft.Channel,
		"language":  draft.Language,
		"code":      cerr.Code,
		"retriable": cerr.Retriable,
	}).Warn("[ORCHESTRATOR] Publish attempt failed")

	return content.PairResult{
		Language:  draft.Language,
		Channel:   draft.Channel,
		DraftID:   draft.ID,
		Outcome:   PairOutcomeFailed,
		Error:     cerr.Error(),
		Retriable: cerr.Retriable,
		Status:    content.DraftStatusFailed,
	}
}

// Status reads one consistent snapshot and computes the rollup.
func (o *Orchestrator) Status(ctx context.Context, propertyID string) (PublishingStatus, error) {
	drafts, err := o.repo.ListDraftsByProperty(ctx, propertyID, "")
	if err != nil {
		return PublishingStatus{}, err
	}
	posts, err := o.repo.ListPostsByProperty(ctx, propertyID)
	if err != nil {
		return PublishingStatus{}, err
	}
	archived, err := o.repo.IsArchived(ctx, propertyID)
	if err != nil {
		return PublishingStatus{}, err
	}
	return Aggregate(propertyID, drafts, posts, archived), nil
}

func appendUnique(list []string, v string) []string {
	for _, x := range list {
		if x == v {
			return list
		}
	}
	return append(list, v)
}

func appendUniqueChannel(list []content.Channel, v content.Channel) []content.Channel {
	for _, x := range list {
		if x == v {
			return list
		}
	}
	return append(list, v)
}
