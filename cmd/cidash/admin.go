package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/urfave/cli"

	"github.com/blankon/cidash/internal/entity"
)

var errCanceled = errors.New("canceled")

// confirm asks before an admin action unless --yes was given.
func confirm(label string) error {
	if assumeYes {
		return nil
	}
	prompt := promptui.Prompt{
		Label:     label,
		IsConfirm: true,
	}
	result, err := prompt.Run()
	if errors.Is(err, promptui.ErrAbort) {
		return errCanceled
	}
	if err != nil {
		return err
	}
	if strings.ToLower(result) != "y" {
		return errCanceled
	}
	return nil
}

func enqueueCommand(c *cli.Context) (err error) {
	req := entity.EnqueueRequest{
		Pipeline: c.String("pipeline"),
		Change:   c.String("change"),
	}
	project := c.String("project")
	label := fmt.Sprintf("Enqueue %s of %s into %s of tenant %s", req.Change, project, req.Pipeline, cidashConfig.API.Tenant)
	return runAdmin(label, func(ctx context.Context) error {
		uc, actor, err := adminUsecase()
		if err != nil {
			return err
		}
		defer uc.WaitNotifications()
		return uc.Enqueue(ctx, actor, project, req)
	})
}

func enqueueRefCommand(c *cli.Context) (err error) {
	req := entity.EnqueueRefRequest{
		Pipeline: c.String("pipeline"),
		Ref:      c.String("ref"),
		Oldrev:   c.String("oldrev"),
		Newrev:   c.String("newrev"),
	}
	project := c.String("project")
	label := fmt.Sprintf("Enqueue %s of %s into %s of tenant %s", req.Ref, project, req.Pipeline, cidashConfig.API.Tenant)
	return runAdmin(label, func(ctx context.Context) error {
		uc, actor, err := adminUsecase()
		if err != nil {
			return err
		}
		defer uc.WaitNotifications()
		return uc.EnqueueRef(ctx, actor, project, req)
	})
}

func autoholdCommand(c *cli.Context) (err error) {
	req := entity.AutoholdRequest{
		Job:                c.String("job"),
		Change:             c.String("change"),
		Ref:                c.String("ref"),
		Reason:             c.String("reason"),
		Count:              c.Int("count"),
		NodeHoldExpiration: c.Int("node-hold-expiration"),
	}
	project := c.String("project")
	label := fmt.Sprintf("Hold the nodes of %d failing %s builds of %s", req.Count, req.Job, project)
	return runAdmin(label, func(ctx context.Context) error {
		uc, actor, err := adminUsecase()
		if err != nil {
			return err
		}
		defer uc.WaitNotifications()
		return uc.Autohold(ctx, actor, project, req)
	})
}

func autoholdDeleteCommand(c *cli.Context) (err error) {
	id := c.Args().First()
	if id == "" {
		return errors.New("autohold id should not be empty")
	}
	return runAdmin("Delete autohold "+id, func(ctx context.Context) error {
		uc, actor, err := adminUsecase()
		if err != nil {
			return err
		}
		defer uc.WaitNotifications()
		return uc.DeleteAutohold(ctx, actor, id)
	})
}

func runAdmin(label string, action func(ctx context.Context) error) error {
	if err := confirm(label); err != nil {
		if errors.Is(err, errCanceled) {
			fmt.Println("Canceled")
			return nil
		}
		return err
	}
	if err := action(context.Background()); err != nil {
		return err
	}
	fmt.Println("Done")
	return nil
}
