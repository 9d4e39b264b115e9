package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/inconshreveable/go-update"
	"github.com/urfave/cli"

	"github.com/blankon/cidash/pkg/httputil"
)

const (
	releaseURL       = "https://api.github.com/repos/blankon/cidash/releases/latest"
	releaseAssetName = "cidash"
)

type GithubReleaseResponse struct {
	TagName string `json:"tag_name"`
	Assets  []struct {
		Name               string `json:"name"`
		BrowserDownloadURL string `json:"browser_download_url"`
	} `json:"assets"`
}

func updateCommand(c *cli.Context) (err error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	client := &http.Client{}

	var release GithubReleaseResponse
	err = httputil.DoJSON(ctx, client, http.MethodGet, releaseURL, nil, nil, &release)
	if err != nil {
		log.Printf("error: %v\n", err)
		return err
	}

	var downloadURL string
	for _, asset := range release.Assets {
		if asset.Name == releaseAssetName {
			downloadURL = strings.TrimSpace(asset.BrowserDownloadURL)
			break
		}
	}
	if downloadURL == "" {
		return errors.New("no " + releaseAssetName + " asset in release " + release.TagName)
	}

	log.Println(downloadURL)
	log.Println("Self-updating...")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, downloadURL, nil)
	if err != nil {
		return err
	}
	resp, err := client.Do(req)
	if err != nil {
		log.Printf("error: %v\n", err)
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return httputil.NewHTTPError(resp.StatusCode, "failed to download "+downloadURL)
	}

	err = update.Apply(resp.Body, update.Options{})
	if err != nil {
		log.Printf("error: %v\n", err)
		return err
	}

	fmt.Println("Updated to " + release.TagName)
	return nil
}
