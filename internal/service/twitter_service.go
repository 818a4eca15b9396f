package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/h2non/filetype"
	config "github.com/rebloomsa/social-publisher/configs"
	"github.com/rebloomsa/social-publisher/internal/models"
	"github.com/rebloomsa/social-publisher/internal/transfer"
	"github.com/rebloomsa/social-publisher/pkg/utils"
	"go.uber.org/ratelimit"
)

const (
	TweetMaxLength    = 280
	tweetEllipsis     = "..."
	maxTweetImageSize = 5 << 20
)

type twitterService struct {
	apiURL     string
	uploadURL  string
	dryRun     bool
	creds      utils.OAuth1Credentials
	signer     *utils.OAuth1Signer
	httpClient *http.Client
	limiter    ratelimit.Limiter
}

func NewTwitterService(cfg config.X, deps AdapterDeps) PlatformAdapter {
	deps = deps.withDefaults()
	creds := utils.OAuth1Credentials{
		ConsumerKey:    cfg.APIKey,
		ConsumerSecret: cfg.APISecret,
		Token:          cfg.AccessToken,
		TokenSecret:    cfg.AccessSecret,
	}
	return &twitterService{
		apiURL:     strings.TrimRight(cfg.APIURL, "/"),
		uploadURL:  strings.TrimRight(cfg.UploadURL, "/"),
		dryRun:     deps.DryRun,
		creds:      creds,
		signer:     utils.NewOAuth1Signer(creds),
		httpClient: deps.HTTPClient,
		limiter:    deps.Limiter,
	}
}

func (s *twitterService) Platform() models.Platform { return models.PlatformTwitter }

func (s *twitterService) RequiresImage() bool { return false }

// TruncateTweet shortens text to the platform limit, ending with an ellipsis.
func TruncateTweet(text string) string {
	r := []rune(text)
	if len(r) <= TweetMaxLength {
		return text
	}
	return string(r[:TweetMaxLength-len(tweetEllipsis)]) + tweetEllipsis
}

func (s *twitterService) Publish(ctx context.Context, req PublishRequest) (*PublishResult, error) {
	text := TruncateTweet(req.Text)

	if s.dryRun {
		slog.Info("[DRY RUN] twitter post", "preview", preview(text, 80), "image", req.ImageURL)
		return &PublishResult{ID: dryRunID("x")}, nil
	}

	if !s.creds.Complete() {
		return nil, missingCredentials(models.PlatformTwitter, "Missing X API credentials")
	}

	payload := transfer.TweetRequest{Text: text}
	if req.ImageURL != "" {
		mediaID, err := s.uploadMedia(ctx, req.ImageURL)
		if err != nil {
			log.Printf("Twitter image upload failed, posting text-only: %v", err)
		} else {
			payload.Media = &transfer.TweetMedia{MediaIDs: []string{mediaID}}
		}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("error marshalling payload: %w", err)
	}

	endpoint := s.apiURL + "/tweets"
	authHeader, err := s.signer.AuthorizationHeader(http.MethodPost, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to sign request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewBuffer(body))
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}
	httpReq.Header.Set("Authorization", authHeader)
	httpReq.Header.Set("Content-Type", "application/json")

	s.limiter.Take()
	resp, err := s.httpClient.Do(httpReq)
	if err != nil {
		slog.Info(err.Error())
		return nil, fmt.Errorf("twitter request failed: %w", err)
	}
	defer resp.Body.Close()

	var tweet transfer.TweetResponse
	decodeErr := json.NewDecoder(resp.Body).Decode(&tweet)

	if resp.StatusCode >= http.StatusBadRequest || len(tweet.Errors) > 0 {
		apiErr := newAPIError(models.PlatformTwitter, resp.StatusCode, twitterErrorMessage(resp.StatusCode, &tweet))
		if apiErr.StatusCode < http.StatusBadRequest {
			apiErr.StatusCode = http.StatusBadRequest
		}
		if resp.StatusCode == http.StatusTooManyRequests {
			apiErr.RetryAfter = parseRetryAfter(resp.Header)
		}
		return nil, apiErr
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("failed to decode twitter response: %w", decodeErr)
	}
	if tweet.Data == nil || tweet.Data.ID == "" {
		return nil, errors.New("twitter response carried no tweet id")
	}

	return &PublishResult{ID: tweet.Data.ID}, nil
}

func twitterErrorMessage(status int, resp *transfer.TweetResponse) string {
	switch {
	case len(resp.Errors) > 0 && resp.Errors[0].Message != "":
		return resp.Errors[0].Message
	case resp.Detail != "":
		return resp.Detail
	default:
		return fmt.Sprintf("Twitter API error %d", status)
	}
}

// uploadMedia downloads the image and uploads it through the v1.1 media
// endpoint, returning the media id.
func (s *twitterService) uploadMedia(ctx context.Context, imageURL string) (string, error) {
	dlReq, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return "", fmt.Errorf("error creating download request: %w", err)
	}
	dlResp, err := s.httpClient.Do(dlReq)
	if err != nil {
		return "", fmt.Errorf("failed to download image: %w", err)
	}
	defer dlResp.Body.Close()

	if dlResp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("failed to download image: %d", dlResp.StatusCode)
	}

	image, err := io.ReadAll(io.LimitReader(dlResp.Body, maxTweetImageSize+1))
	if err != nil {
		return "", fmt.Errorf("failed to read image: %w", err)
	}
	if len(image) > maxTweetImageSize {
		return "", errors.New("image exceeds the 5MB upload limit")
	}
	if !filetype.IsImage(image) {
		return "", errors.New("downloaded media is not an image")
	}

	params := map[string]string{
		"media_data":     base64.StdEncoding.EncodeToString(image),
		"media_category": "tweet_image",
	}
	form := url.Values{}
	for k, v := range params {
		form.Set(k, v)
	}

	endpoint := s.uploadURL + "/media/upload.json"
	authHeader, err := s.signer.AuthorizationHeader(http.MethodPost, endpoint, params)
	if err != nil {
		return "", fmt.Errorf("failed to sign upload: %w", err)
	}

	upReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("error creating upload request: %w", err)
	}
	upReq.Header.Set("Authorization", authHeader)
	upReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	s.limiter.Take()
	upResp, err := s.httpClient.Do(upReq)
	if err != nil {
		return "", fmt.Errorf("media upload request failed: %w", err)
	}
	defer upResp.Body.Close()

	var media transfer.MediaUploadResponse
	if err := json.NewDecoder(upResp.Body).Decode(&media); err != nil && upResp.StatusCode < http.StatusBadRequest {
		return "", fmt.Errorf("failed to decode media upload response: %w", err)
	}
	if upResp.StatusCode >= http.StatusBadRequest || media.MediaIDString == "" {
		if len(media.Errors) > 0 {
			return "", errors.New(media.Errors[0].Message)
		}
		return "", fmt.Errorf("media upload failed: %d", upResp.StatusCode)
	}

	return media.MediaIDString, nil
}
