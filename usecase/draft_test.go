package usecase

import (
	"context"
	"testing"

	domainDraft "github.com/casapress/casapress/domains/draft"
	pkgError "github.com/casapress/casapress/pkg/error"
	"github.com/casapress/casapress/publishing/domain/content"
	"github.com/casapress/casapress/publishing/repository"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// helper to create a draft service over a fresh in-memory repository. The
// orchestrator is nil: generation goes through a separate test harness, and
// the editorial operations exercised here never touch it.
func newTestDraftService(t *testing.T) (*serviceDraft, *repository.ContentGormRepository) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("opening sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("db handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	repo := repository.NewContentGormRepository(db)
	if err := repo.Init(context.Background()); err != nil {
		t.Fatalf("migrating: %v", err)
	}

	svc, ok := NewDraftService(repo, nil).(*serviceDraft)
	if !ok {
		t.Fatalf("NewDraftService() did not return *serviceDraft")
	}
	return svc, repo
}

func seedDraft(t *testing.T, repo *repository.ContentGormRepository, status content.DraftStatus) content.Draft {
	t.Helper()

	draft, err := repo.UpsertDraft(context.Background(), content.Draft{
		ID:         "d1",
		PropertyID: "p1",
		Language:   "en",
		Channel:    content.ChannelFacebook,
		Title:      "Generated title",
		Body:       "Generated body",
		Status:     content.DraftStatusGenerated,
	})
	if err != nil {
		t.Fatalf("seeding draft: %v", err)
	}

	// Walk the draft to the requested state through legal transitions.
	steps := map[content.DraftStatus][]content.DraftStatus{
		content.DraftStatusGenerated:  {},
		content.DraftStatusReady:      {content.DraftStatusReady},
		content.DraftStatusPublishing: {content.DraftStatusReady, content.DraftStatusPublishing},
		content.DraftStatusFailed:     {content.DraftStatusReady, content.DraftStatusPublishing, content.DraftStatusFailed},
	}[status]
	for _, next := range steps {
		var mutate func(*content.Draft)
		if next == content.DraftStatusFailed {
			mutate = func(d *content.Draft) { d.LastError = "network_error: connection reset" }
		}
		draft, err = repo.TransitionDraft(context.Background(), draft.ID, draft.Status, next, mutate)
		if err != nil {
			t.Fatalf("stepping draft to %s: %v", next, err)
		}
	}
	return draft
}

func TestDraftService_UpdateFields(t *testing.T) {
	svc, repo := newTestDraftService(t)
	ctx := context.Background()
	draft := seedDraft(t, repo, content.DraftStatusGenerated)

	title := "Edited title"
	updated, err := svc.Update(ctx, draft.ID, domainDraft.UpdateRequest{
		Title:    &title,
		EditedBy: "editor@example.com",
	})
	if err != nil {
		t.Fatalf("Update() unexpected error: %v", err)
	}
	if updated.Status != content.DraftStatusEdited {
		t.Fatalf("Update() status = %s, want edited", updated.Status)
	}
	if updated.Title != "Edited title" {
		t.Fatalf("Update() title = %q", updated.Title)
	}
	if updated.Body != "Generated body" {
		t.Fatalf("Update() must not touch other fields, body = %q", updated.Body)
	}
}

func TestDraftService_UpdateAndApproveInOneCall(t *testing.T) {
	svc, repo := newTestDraftService(t)
	ctx := context.Background()
	draft := seedDraft(t, repo, content.DraftStatusGenerated)

	body := "Final body"
	status := string(content.DraftStatusReady)
	updated, err := svc.Update(ctx, draft.ID, domainDraft.UpdateRequest{
		Body:   &body,
		Status: &status,
	})
	if err != nil {
		t.Fatalf("Update() unexpected error: %v", err)
	}
	if updated.Status != content.DraftStatusReady {
		t.Fatalf("Update() status = %s, want ready", updated.Status)
	}
}

func TestDraftService_UpdateValidation(t *testing.T) {
	svc, _ := newTestDraftService(t)
	ctx := context.Background()

	// Empty id.
	if _, err := svc.Update(ctx, "", domainDraft.UpdateRequest{}); err == nil {
		t.Fatal("Update() with empty id should fail")
	}

	// Status other than ready is not settable through the edit endpoint.
	bad := "published"
	if _, err := svc.Update(ctx, "d1", domainDraft.UpdateRequest{Status: &bad}); err == nil {
		t.Fatal("Update() with status=published should fail")
	}

	// No fields at all.
	if _, err := svc.Update(ctx, "d1", domainDraft.UpdateRequest{}); err == nil {
		t.Fatal("Update() with no fields should fail")
	}
}

func TestDraftService_MarkReady(t *testing.T) {
	svc, repo := newTestDraftService(t)
	ctx := context.Background()
	draft := seedDraft(t, repo, content.DraftStatusGenerated)

	drafts, err := svc.MarkReady(ctx, domainDraft.MarkReadyRequest{DraftIDs: []string{draft.ID}})
	if err != nil {
		t.Fatalf("MarkReady() unexpected error: %v", err)
	}
	if len(drafts) != 1 || drafts[0].Status != content.DraftStatusReady {
		t.Fatalf("MarkReady() = %+v", drafts)
	}
}

func TestDraftService_MarkReadyRejectsPublishedDraft(t *testing.T) {
	svc, repo := newTestDraftService(t)
	ctx := context.Background()
	draft := seedDraft(t, repo, content.DraftStatusPublishing)

	if _, err := svc.MarkReady(ctx, domainDraft.MarkReadyRequest{DraftIDs: []string{draft.ID}}); err == nil {
		t.Fatal("MarkReady() on a publishing draft should fail")
	}
}

func TestDraftService_RetryClearsError(t *testing.T) {
	svc, repo := newTestDraftService(t)
	ctx := context.Background()
	draft := seedDraft(t, repo, content.DraftStatusFailed)

	retried, err := svc.Retry(ctx, draft.ID)
	if err != nil {
		t.Fatalf("Retry() unexpected error: %v", err)
	}
	if retried.Status != content.DraftStatusReady {
		t.Fatalf("Retry() status = %s, want ready", retried.Status)
	}
	if retried.LastError != "" {
		t.Fatalf("Retry() must clear last_error, got %q", retried.LastError)
	}
}

func TestDraftService_RetryOnlyFromFailed(t *testing.T) {
	svc, repo := newTestDraftService(t)
	ctx := context.Background()
	draft := seedDraft(t, repo, content.DraftStatusGenerated)

	_, err := svc.Retry(ctx, draft.ID)
	if err == nil {
		t.Fatal("Retry() on a generated draft should fail")
	}
	if !pkgError.IsStateConflict(err) {
		t.Fatalf("Retry() error = %v, want state conflict", err)
	}
}

func TestDraftService_ListValidatesLanguage(t *testing.T) {
	svc, _ := newTestDraftService(t)
	ctx := context.Background()

	if _, err := svc.List(ctx, "", ""); err == nil {
		t.Fatal("List() without property_id should fail")
	}
	if _, err := svc.List(ctx, "p1", "xx"); err == nil {
		t.Fatal("List() with unsupported language should fail")
	}
	if _, err := svc.List(ctx, "p1", "hi"); err != nil {
		t.Fatalf("List() with supported language: %v", err)
	}
}
