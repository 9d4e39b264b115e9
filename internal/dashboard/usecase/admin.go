package usecase

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/blankon/cidash/internal/entity"
	"github.com/blankon/cidash/internal/notification"
	"github.com/blankon/cidash/internal/storage"
	"github.com/blankon/cidash/internal/store"
)

// Actor is who performs an admin action.
type Actor struct {
	Token string
	User  string
}

func (u *DashboardUsecase) Enqueue(ctx context.Context, actor Actor, project string, req entity.EnqueueRequest) error {
	return u.runAction(ctx, actor, storage.ActionEnqueue, project, req.Change, func(client AdminAPI) error {
		return client.Enqueue(ctx, project, req)
	})
}

func (u *DashboardUsecase) EnqueueRef(ctx context.Context, actor Actor, project string, req entity.EnqueueRefRequest) error {
	return u.runAction(ctx, actor, storage.ActionEnqueueRef, project, req.Ref, func(client AdminAPI) error {
		return client.EnqueueRef(ctx, project, req)
	})
}

func (u *DashboardUsecase) Autohold(ctx context.Context, actor Actor, project string, req entity.AutoholdRequest) error {
	return u.runAction(ctx, actor, storage.ActionAutohold, project, req.Job, func(client AdminAPI) error {
		return client.Autohold(ctx, project, req)
	})
}

func (u *DashboardUsecase) DeleteAutohold(ctx context.Context, actor Actor, id string) error {
	if strings.TrimSpace(id) == "" {
		return NewUsecaseError(http.StatusBadRequest, "autohold id should not be empty")
	}
	return u.runAction(ctx, actor, storage.ActionDeleteAutohold, "", id, func(client AdminAPI) error {
		return client.DeleteAutohold(ctx, id)
	})
}

// WaitNotifications blocks until the webhooks of finished actions are sent.
func (u *DashboardUsecase) WaitNotifications() {
	u.notifier.Wait()
}

// RecentActions lists the latest admin actions issued on this tenant.
func (u *DashboardUsecase) RecentActions(limit int) ([]storage.AdminAction, error) {
	if u.actions == nil {
		return nil, nil
	}
	return u.actions.Recent(u.tenant, limit)
}

// Action returns one recorded admin action of this tenant.
func (u *DashboardUsecase) Action(actionUUID string) (*storage.AdminAction, error) {
	if u.actions == nil {
		return nil, NewUsecaseError(http.StatusServiceUnavailable, "admin actions are not recorded")
	}
	action, err := u.actions.Get(actionUUID)
	if errors.Is(err, storage.ErrNotFound) || (err == nil && action.Tenant != u.tenant) {
		return nil, NewUsecaseError(http.StatusNotFound, "admin action not found")
	}
	if err != nil {
		return nil, err
	}
	return action, nil
}

// runAction records the action, performs it and reports the outcome as a
// toast and on the webhook.
func (u *DashboardUsecase) runAction(ctx context.Context, actor Actor, kind, project, target string, call func(AdminAPI) error) error {
	if u.admin == nil {
		return NewUsecaseError(http.StatusServiceUnavailable, ErrAdminDisabled.Error())
	}
	if actor.Token == "" {
		return NewUsecaseError(http.StatusUnauthorized, "sign in to perform this action")
	}

	actionUUID := uuid.NewString()
	if u.actions != nil {
		err := u.actions.Record(storage.AdminAction{
			UUID:        actionUUID,
			Kind:        kind,
			Tenant:      u.tenant,
			Project:     project,
			Target:      target,
			RequestedBy: actor.User,
			RequestedAt: u.now(),
		})
		if err != nil {
			log.Printf("[runAction] %v", err)
		}
	}

	callErr := call(u.admin(actor.Token))

	if u.actions != nil {
		outcome, message := storage.OutcomeSuccess, ""
		if callErr != nil {
			outcome, message = storage.OutcomeFailure, callErr.Error()
		}
		if err := u.actions.Finish(actionUUID, outcome, message); err != nil {
			log.Printf("[runAction] %v", err)
		}
	}

	toast := u.notifier.NotifyAction(ctx, notification.ActionInfo{
		Kind:    kind,
		Tenant:  u.tenant,
		Project: project,
		Target:  target,
		User:    actor.User,
		Err:     callErr,
	})
	u.Store.Dispatch(store.ToastAdded{Toast: toast})

	return toUsecaseError(callErr)
}
