package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	config "github.com/rebloomsa/social-publisher/configs"
	"github.com/rebloomsa/social-publisher/internal/models"
	"github.com/rebloomsa/social-publisher/internal/transfer"
	"golang.org/x/oauth2"
)

const (
	containerFinished = "FINISHED"
	containerError    = "ERROR"
)

type instagramService struct {
	igUserID     string
	dryRun       bool
	pollInterval time.Duration
	timeout      time.Duration
	graph        *graphClient
}

func NewInstagramService(meta config.Meta, tokens oauth2.TokenSource, pollInterval, timeout time.Duration, deps AdapterDeps) PlatformAdapter {
	deps = deps.withDefaults()
	return &instagramService{
		igUserID:     meta.IGUserID,
		dryRun:       deps.DryRun,
		pollInterval: pollInterval,
		timeout:      timeout,
		graph:        newGraphClient(models.PlatformInstagram, meta.GraphURL, tokens, deps),
	}
}

func (s *instagramService) Platform() models.Platform { return models.PlatformInstagram }

func (s *instagramService) RequiresImage() bool { return true }

// Publish creates a media container, waits until it is processed and then
// publishes it.
func (s *instagramService) Publish(ctx context.Context, req PublishRequest) (*PublishResult, error) {
	if req.ImageURL == "" {
		return nil, ErrImageRequired
	}

	if s.dryRun {
		slog.Info("[DRY RUN] instagram post", "preview", preview(req.Text, 80), "image", req.ImageURL)
		return &PublishResult{ID: dryRunID("ig")}, nil
	}

	if s.igUserID == "" {
		return nil, missingCredentials(models.PlatformInstagram, "Missing META_IG_USER_ID or META_PAGE_ACCESS_TOKEN")
	}
	token, err := s.graph.accessToken()
	if err != nil {
		return nil, err
	}

	var container transfer.GraphResponse
	err = s.graph.postJSON(ctx, "/"+s.igUserID+"/media", transfer.InstagramContainerRequest{
		ImageURL:    req.ImageURL,
		Caption:     req.Text,
		AccessToken: token,
	}, &container)
	if err != nil {
		return nil, err
	}
	if container.ID == "" {
		return nil, errors.New("instagram container response carried no id")
	}

	if err := s.waitForContainer(ctx, container.ID, token); err != nil {
		return nil, err
	}

	var published transfer.GraphResponse
	err = s.graph.postJSON(ctx, "/"+s.igUserID+"/media_publish", transfer.InstagramPublishRequest{
		CreationID:  container.ID,
		AccessToken: token,
	}, &published)
	if err != nil {
		return nil, err
	}
	if published.ID == "" {
		return nil, errors.New("instagram publish response carried no id")
	}

	return &PublishResult{ID: published.ID}, nil
}

func (s *instagramService) waitForContainer(ctx context.Context, containerID, token string) error {
	deadline := time.Now().Add(s.timeout)
	query := url.Values{}
	query.Set("fields", "status_code,status")
	query.Set("access_token", token)

	for time.Now().Before(deadline) {
		var status transfer.InstagramContainerStatus
		if err := s.graph.get(ctx, "/"+containerID, query, &status); err != nil {
			return err
		}

		switch status.StatusCode {
		case containerFinished:
			return nil
		case containerError:
			reason := status.Status
			if reason == "" {
				reason = "unknown error"
			}
			return fmt.Errorf("%w: %s", ErrContainerFailed, reason)
		}

		if err := SleepContext(ctx, s.pollInterval); err != nil {
			return err
		}
	}

	return fmt.Errorf("%w after %s", ErrContainerTimeout, s.timeout)
}
