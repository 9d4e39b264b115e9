package main

import (
	"errors"
	"fmt"

	"github.com/blankon/cidash/internal/api"
	"github.com/blankon/cidash/internal/auth"
	"github.com/blankon/cidash/internal/config"
	"github.com/blankon/cidash/internal/dashboard/usecase"
	"github.com/blankon/cidash/internal/notification"
	"github.com/blankon/cidash/internal/queue"
)

func newClient(cfg config.CidashConfig) (*api.Client, error) {
	if cfg.API.URL == "" {
		return nil, errors.New("API url should not be empty. Example: cidash config --api https://zuul.example.org/ --tenant main")
	}
	return api.New(cfg.API.URL,
		api.WithTenant(cfg.API.Tenant),
		api.WithTimeout(cfg.API.RequestTimeout.Duration))
}

// newUsecase builds a usecase for the configured tenant with an admin
// client that signs requests with the caller's token.
func newUsecase(cfg config.CidashConfig) (*usecase.DashboardUsecase, error) {
	client, err := newClient(cfg)
	if err != nil {
		return nil, err
	}
	policy := queue.ParsePolicy(cfg.Dashboard.RemainingPolicy)
	if policyName != "" {
		policy = queue.ParsePolicy(policyName)
	}
	return usecase.NewDashboardUsecase(usecase.Deps{
		Tenant: cfg.API.Tenant,
		API:    client,
		Admin: func(token string) usecase.AdminAPI {
			return client.WithToken(token)
		},
		Notifier:     notification.NewNotifier(cfg.Notification.WebhookURL),
		Policy:       policy,
		WebsocketURL: cfg.API.WebsocketURL,
	}), nil
}

// tenantUsecase is newUsecase for commands that need a tenant.
func tenantUsecase(cfg config.CidashConfig) (*usecase.DashboardUsecase, error) {
	if cfg.API.Tenant == "" {
		return nil, errors.New("tenant should not be empty, set --tenant or api.tenant")
	}
	return newUsecase(cfg)
}

func sessionStore() (*auth.Store, error) {
	path, err := auth.DefaultPath()
	if err != nil {
		return nil, err
	}
	return auth.NewStore(path), nil
}

// currentActor restores the stored session as the actor of admin commands.
func currentActor() (usecase.Actor, error) {
	store, err := sessionStore()
	if err != nil {
		return usecase.Actor{}, err
	}
	session, err := store.Restore(timeNow())
	if err != nil {
		return usecase.Actor{}, fmt.Errorf("%w. Run cidash login first", err)
	}
	return usecase.Actor{Token: session.Token, User: session.Profile.DisplayName()}, nil
}

// adminUsecase is a tenant usecase and the signed in actor.
func adminUsecase() (*usecase.DashboardUsecase, usecase.Actor, error) {
	actor, err := currentActor()
	if err != nil {
		return nil, usecase.Actor{}, err
	}
	uc, err := tenantUsecase(cidashConfig)
	if err != nil {
		return nil, usecase.Actor{}, err
	}
	return uc, actor, nil
}
