package models

import (
	"context"
	"errors"
	"testing"

	"bitbucket.org/qsrfocus/audits_backend/utils"
)

func actorCtx(userId int, isAdmin bool) context.Context {
	ctx := utils.SetBusinessIdInContext(context.Background(), "biz-1")
	ctx = utils.SetUserIdInContext(ctx, userId)
	if isAdmin {
		ctx = utils.SetIsAdminInContext(ctx, true)
	}
	return ctx
}

func TestAuthorizeChange(t *testing.T) {
	inProgress := &Audit{ID: 1, BusinessId: "biz-1", UserId: 42, Status: AuditStatusInProgress}
	completed := &Audit{ID: 2, BusinessId: "biz-1", UserId: 42, Status: AuditStatusCompleted}

	if err := inProgress.AuthorizeChange(actorCtx(42, false)); err != nil {
		t.Errorf("owning auditor rejected: %v", err)
	}

	// same business, different auditor: never allowed without admin
	if err := inProgress.AuthorizeChange(actorCtx(999, false)); !errors.Is(err, ErrAuditNotOwned) {
		t.Errorf("foreign auditor: err = %v, want ErrAuditNotOwned", err)
	}

	// identity missing entirely
	noActor := utils.SetBusinessIdInContext(context.Background(), "biz-1")
	if err := inProgress.AuthorizeChange(noActor); !errors.Is(err, ErrAuditNotOwned) {
		t.Errorf("missing actor: err = %v, want ErrAuditNotOwned", err)
	}

	// completed outranks ownership
	if err := completed.AuthorizeChange(actorCtx(42, false)); !errors.Is(err, ErrAuditCompleted) {
		t.Errorf("owner on completed audit: err = %v, want ErrAuditCompleted", err)
	}

	// admins may correct anything, completed or not, owned or not
	if err := inProgress.AuthorizeChange(actorCtx(999, true)); err != nil {
		t.Errorf("admin on foreign audit rejected: %v", err)
	}
	if err := completed.AuthorizeChange(actorCtx(999, true)); err != nil {
		t.Errorf("admin on completed audit rejected: %v", err)
	}
}
