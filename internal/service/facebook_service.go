package service

import (
	"context"
	"errors"
	"log/slog"
	"net/url"

	config "github.com/rebloomsa/social-publisher/configs"
	"github.com/rebloomsa/social-publisher/internal/models"
	"github.com/rebloomsa/social-publisher/internal/transfer"
	"golang.org/x/oauth2"
)

type facebookService struct {
	pageID string
	dryRun bool
	graph  *graphClient
}

func NewFacebookService(meta config.Meta, tokens oauth2.TokenSource, deps AdapterDeps) PlatformAdapter {
	deps = deps.withDefaults()
	return &facebookService{
		pageID: meta.PageID,
		dryRun: deps.DryRun,
		graph:  newGraphClient(models.PlatformFacebook, meta.GraphURL, tokens, deps),
	}
}

func (s *facebookService) Platform() models.Platform { return models.PlatformFacebook }

func (s *facebookService) RequiresImage() bool { return false }

// Publish posts a photo with caption when an image is present, a text
// update otherwise.
func (s *facebookService) Publish(ctx context.Context, req PublishRequest) (*PublishResult, error) {
	if s.dryRun {
		slog.Info("[DRY RUN] facebook post", "preview", preview(req.Text, 80), "image", req.ImageURL)
		return &PublishResult{ID: dryRunID("fb")}, nil
	}

	if s.pageID == "" {
		return nil, missingCredentials(models.PlatformFacebook, "Missing META_PAGE_ID or META_PAGE_ACCESS_TOKEN")
	}
	token, err := s.graph.accessToken()
	if err != nil {
		return nil, err
	}

	form := url.Values{}
	form.Set("message", req.Text)
	form.Set("access_token", token)

	path := "/" + s.pageID + "/feed"
	if req.ImageURL != "" {
		path = "/" + s.pageID + "/photos"
		form.Set("url", req.ImageURL)
	}

	var resp transfer.GraphResponse
	if err := s.graph.postForm(ctx, path, form, &resp); err != nil {
		return nil, err
	}

	id := resp.ID
	if id == "" {
		id = resp.PostID
	}
	if id == "" {
		return nil, errors.New("facebook response carried no post id")
	}
	return &PublishResult{ID: id}, nil
}
