package service

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	config "github.com/rebloomsa/social-publisher/configs"
	"github.com/rebloomsa/social-publisher/internal/transfer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngHeader = []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A, 0x00, 0x00, 0x00, 0x0D, 0x49, 0x48, 0x44, 0x52}

func testMeta(graphURL string) config.Meta {
	return config.Meta{PageID: "page-1", IGUserID: "ig-1", PageAccessToken: "page-token", GraphURL: graphURL}
}

func newFacebook(meta config.Meta, dryRun bool) PlatformAdapter {
	return NewFacebookService(meta, NewMetaTokenSource(meta), AdapterDeps{DryRun: dryRun})
}

func TestFacebook_TextPost(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "/page-1/feed", r.URL.Path)
		assert.Equal(t, "hello", r.PostForm.Get("message"))
		assert.Equal(t, "page-token", r.PostForm.Get("access_token"))
		assert.Empty(t, r.PostForm.Get("url"))
		w.Write([]byte(`{"id":"page-1_123"}`))
	}))
	defer srv.Close()

	res, err := newFacebook(testMeta(srv.URL), false).Publish(context.Background(), PublishRequest{Text: "hello"})
	require.NoError(t, err)
	assert.Equal(t, "page-1_123", res.ID)
}

func TestFacebook_PhotoPostUsesPostID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "/page-1/photos", r.URL.Path)
		assert.Equal(t, "https://img.example/1.jpg", r.PostForm.Get("url"))
		w.Write([]byte(`{"post_id":"page-1_456"}`))
	}))
	defer srv.Close()

	res, err := newFacebook(testMeta(srv.URL), false).Publish(context.Background(), PublishRequest{Text: "hi", ImageURL: "https://img.example/1.jpg"})
	require.NoError(t, err)
	assert.Equal(t, "page-1_456", res.ID)
}

func TestFacebook_GraphErrorClassification(t *testing.T) {
	tests := []struct {
		name     string
		code     int
		expected int
	}{
		{"expired token", 190, http.StatusUnauthorized},
		{"rate limited", 4, http.StatusTooManyRequests},
		{"page rate limited", 32, http.StatusTooManyRequests},
		{"permission", 200, http.StatusForbidden},
		{"other", 1, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadRequest)
				json.NewEncoder(w).Encode(transfer.GraphResponse{Error: &transfer.GraphError{Message: "graph says no", Code: tt.code}})
			}))
			defer srv.Close()

			_, err := newFacebook(testMeta(srv.URL), false).Publish(context.Background(), PublishRequest{Text: "hello"})

			var apiErr *APIError
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, tt.expected, apiErr.StatusCode)
			assert.Equal(t, "graph says no", apiErr.Error())
		})
	}
}

func TestFacebook_DryRunNeedsNoCredentials(t *testing.T) {
	res, err := newFacebook(config.Meta{}, true).Publish(context.Background(), PublishRequest{Text: "hello"})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(res.ID, "dry_run_fb_"))
}

func TestFacebook_ExpiredTokenFailsWithoutNetwork(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer srv.Close()

	meta := testMeta(srv.URL)
	meta.TokenExpiresAt = time.Now().Add(-time.Hour)

	_, err := newFacebook(meta, false).Publish(context.Background(), PublishRequest{Text: "hello"})
	assert.True(t, IsNonRetryable(err))
	assert.Equal(t, int32(0), calls.Load())
}

func newInstagram(meta config.Meta, dryRun bool, timeout time.Duration) PlatformAdapter {
	return NewInstagramService(meta, NewMetaTokenSource(meta), 5*time.Millisecond, timeout, AdapterDeps{DryRun: dryRun})
}

func TestInstagram_RequiresImageBeforeNetwork(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer srv.Close()

	for _, dryRun := range []bool{false, true} {
		_, err := newInstagram(testMeta(srv.URL), dryRun, time.Second).Publish(context.Background(), PublishRequest{Text: "caption"})
		assert.ErrorIs(t, err, ErrImageRequired)
	}
	assert.Equal(t, int32(0), calls.Load())
}

func TestInstagram_TwoPhasePublish(t *testing.T) {
	var polls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/ig-1/media":
			var body transfer.InstagramContainerRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "https://img.example/sq.jpg", body.ImageURL)
			assert.Equal(t, "caption", body.Caption)
			w.Write([]byte(`{"id":"container-9"}`))
		case r.Method == http.MethodGet && r.URL.Path == "/container-9":
			assert.Equal(t, "status_code,status", r.URL.Query().Get("fields"))
			if polls.Add(1) < 3 {
				w.Write([]byte(`{"status_code":"IN_PROGRESS"}`))
				return
			}
			w.Write([]byte(`{"status_code":"FINISHED"}`))
		case r.Method == http.MethodPost && r.URL.Path == "/ig-1/media_publish":
			var body transfer.InstagramPublishRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "container-9", body.CreationID)
			w.Write([]byte(`{"id":"media-77"}`))
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
	}))
	defer srv.Close()

	res, err := newInstagram(testMeta(srv.URL), false, time.Second).Publish(context.Background(), PublishRequest{Text: "caption", ImageURL: "https://img.example/sq.jpg"})
	require.NoError(t, err)
	assert.Equal(t, "media-77", res.ID)
	assert.Equal(t, int32(3), polls.Load())
}

func TestInstagram_ContainerErrorAndTimeout(t *testing.T) {
	newServer := func(status string) *httptest.Server {
		return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodPost {
				w.Write([]byte(`{"id":"container-1"}`))
				return
			}
			w.Write([]byte(`{"status_code":"` + status + `","status":"bad media"}`))
		}))
	}

	failing := newServer("ERROR")
	defer failing.Close()
	_, err := newInstagram(testMeta(failing.URL), false, time.Second).Publish(context.Background(), PublishRequest{Text: "c", ImageURL: "https://img/1.jpg"})
	assert.ErrorIs(t, err, ErrContainerFailed)
	assert.Contains(t, err.Error(), "bad media")

	slow := newServer("IN_PROGRESS")
	defer slow.Close()
	_, err = newInstagram(testMeta(slow.URL), false, 30*time.Millisecond).Publish(context.Background(), PublishRequest{Text: "c", ImageURL: "https://img/1.jpg"})
	assert.ErrorIs(t, err, ErrContainerTimeout)
	assert.False(t, IsNonRetryable(err))
}

func TestInstagram_DryRun(t *testing.T) {
	res, err := newInstagram(config.Meta{}, true, time.Second).Publish(context.Background(), PublishRequest{Text: "c", ImageURL: "https://img/1.jpg"})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(res.ID, "dry_run_ig_"))
}

func testX(baseURL string) config.X {
	return config.X{APIKey: "ck", APISecret: "cs", AccessToken: "at", AccessSecret: "as", APIURL: baseURL, UploadURL: baseURL}
}

func TestTwitter_PostsSignedTweet(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/tweets", r.URL.Path)
		assert.True(t, strings.HasPrefix(r.Header.Get("Authorization"), "OAuth "))
		var body transfer.TweetRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "short text", body.Text)
		assert.Nil(t, body.Media)
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"data":{"id":"1789","text":"short text"}}`))
	}))
	defer srv.Close()

	res, err := NewTwitterService(testX(srv.URL), AdapterDeps{}).Publish(context.Background(), PublishRequest{Text: "short text"})
	require.NoError(t, err)
	assert.Equal(t, "1789", res.ID)
}

func TestTwitter_UploadsMediaFirst(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/image.png":
			w.Write(pngHeader)
		case "/media/upload.json":
			require.NoError(t, r.ParseForm())
			assert.Equal(t, "tweet_image", r.PostForm.Get("media_category"))
			assert.NotEmpty(t, r.PostForm.Get("media_data"))
			w.Write([]byte(`{"media_id_string":"m-1"}`))
		case "/tweets":
			var body transfer.TweetRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			require.NotNil(t, body.Media)
			assert.Equal(t, []string{"m-1"}, body.Media.MediaIDs)
			w.Write([]byte(`{"data":{"id":"2"}}`))
		}
	}))
	defer srv.Close()

	res, err := NewTwitterService(testX(srv.URL), AdapterDeps{}).Publish(context.Background(), PublishRequest{Text: "t", ImageURL: srv.URL + "/image.png"})
	require.NoError(t, err)
	assert.Equal(t, "2", res.ID)
}

func TestTwitter_UploadFailureFallsBackToText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/missing.png":
			w.WriteHeader(http.StatusNotFound)
		case "/tweets":
			var body transfer.TweetRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Nil(t, body.Media)
			w.Write([]byte(`{"data":{"id":"3"}}`))
		default:
			t.Errorf("unexpected request %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	res, err := NewTwitterService(testX(srv.URL), AdapterDeps{}).Publish(context.Background(), PublishRequest{Text: "t", ImageURL: srv.URL + "/missing.png"})
	require.NoError(t, err)
	assert.Equal(t, "3", res.ID)
}

func TestTwitter_RateLimitCarriesRetryAfter(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "15")
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"title":"Too Many Requests","detail":"Too Many Requests"}`))
	}))
	defer srv.Close()

	_, err := NewTwitterService(testX(srv.URL), AdapterDeps{}).Publish(context.Background(), PublishRequest{Text: "t"})

	wait, ok := RetryAfterOf(err)
	assert.True(t, ok)
	assert.Equal(t, 15*time.Second, wait)
	assert.Equal(t, "Too Many Requests", err.Error())
}

func TestTwitter_MissingCredentialsAndDryRun(t *testing.T) {
	_, err := NewTwitterService(config.X{}, AdapterDeps{}).Publish(context.Background(), PublishRequest{Text: "t"})
	assert.True(t, IsNonRetryable(err))

	res, err := NewTwitterService(config.X{}, AdapterDeps{DryRun: true}).Publish(context.Background(), PublishRequest{Text: "t"})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(res.ID, "dry_run_x_"))
}

func TestTruncateTweet(t *testing.T) {
	assert.Equal(t, "short", TruncateTweet("short"))

	long := strings.Repeat("\U0001F338", 300)
	truncated := TruncateTweet(long)
	assert.Equal(t, TweetMaxLength, len([]rune(truncated)))
	assert.True(t, strings.HasSuffix(truncated, "..."))
}
