package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/manifoldco/promptui"
	"github.com/urfave/cli"

	"github.com/blankon/cidash/internal/auth"
	"github.com/blankon/cidash/internal/config"
)

// configCommand writes the current settings, with --api and --tenant
// applied, to ~/.cidash/config.yml.
func configCommand(c *cli.Context) (err error) {
	if apiURL == "" {
		return errors.New("--api should not be empty. Example: cidash --api https://zuul.example.org/ --tenant main config")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return err
	}
	cfg := cidashConfig
	if cfg.Storage.Workdir == config.Default().Storage.Workdir {
		cfg.Storage.Workdir = filepath.Join(home, ".cidash")
	}

	path := filepath.Join(home, ".cidash", "config.yml")
	if err = config.Save(path, cfg); err != nil {
		return err
	}
	fmt.Println("cidash is now configured: " + path)
	return nil
}

func loginCommand(c *cli.Context) (err error) {
	token := strings.TrimSpace(c.String("token"))
	if token == "" {
		prompt := promptui.Prompt{
			Label: "Access token",
			Mask:  '*',
		}
		token, err = prompt.Run()
		if err != nil {
			return err
		}
	}

	session, err := auth.NewSession(strings.TrimSpace(token), c.String("realm"))
	if err != nil {
		return err
	}
	store, err := sessionStore()
	if err != nil {
		return err
	}
	if err = store.Save(session); err != nil {
		return err
	}
	fmt.Println("Signed in as " + session.Profile.DisplayName())
	return nil
}

func logoutCommand(c *cli.Context) (err error) {
	store, err := sessionStore()
	if err != nil {
		return err
	}
	if err = store.Clear(); err != nil {
		return err
	}
	fmt.Println("Signed out")
	return nil
}

func whoamiCommand(c *cli.Context) (err error) {
	store, err := sessionStore()
	if err != nil {
		return err
	}
	session, err := store.Restore(timeNow())
	if errors.Is(err, auth.ErrNoSession) {
		fmt.Println("Not signed in")
		return nil
	}
	if err != nil {
		return err
	}

	fmt.Println(session.Profile.DisplayName())
	if session.Profile.Email != "" {
		fmt.Println(session.Profile.Email)
	}
	if !session.ExpiresAt.IsZero() {
		fmt.Println("Session expires " + humanize.Time(session.ExpiresAt))
	}
	return nil
}
