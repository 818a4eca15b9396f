package service

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	cfg "github.com/rebloomsa/social-publisher/configs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
)

type stubProvider struct {
	name string
	urls []string
	err  error
}

func (s *stubProvider) Name() string { return s.name }

func (s *stubProvider) Search(ctx context.Context, query, orientation string) ([]string, error) {
	return s.urls, s.err
}

type mockUploader struct {
	mock.Mock
}

func (m *mockUploader) UploadToR2(ctx context.Context, key string, file []byte, filetype string) error {
	args := m.Called(key, filetype)
	return args.Error(0)
}

func (m *mockUploader) PublicURL(key string) string {
	return "https://cdn.example/" + key
}

func firstIndex(int) int { return 0 }

func writeGallery(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bloom.png"), pngHeader, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("not an image"), 0o644))
	return dir
}

func TestMediaService_UsesFirstWorkingProvider(t *testing.T) {
	providers := []ImageProvider{
		&stubProvider{name: "down", err: errors.New("timeout")},
		&stubProvider{name: "empty"},
		&stubProvider{name: "ok", urls: []string{"https://a/1.jpg", "https://a/2.jpg"}},
	}
	picks := 0
	svc := NewMediaService(providers, "", nil, func(n int) int {
		picks++
		assert.Equal(t, 2, n)
		return 1
	})

	assert.Equal(t, "https://a/2.jpg", svc.Resolve(context.Background(), "sunrise", OrientationLandscape))
	assert.Equal(t, 1, picks)
}

func TestMediaService_FallsBackToGallery(t *testing.T) {
	uploader := &mockUploader{}
	uploader.On("UploadToR2", "social/fallback/bloom.png", "image/png").Return(nil)

	svc := NewMediaService([]ImageProvider{&stubProvider{name: "down", err: errors.New("500")}}, writeGallery(t), uploader, firstIndex)

	assert.Equal(t, "https://cdn.example/social/fallback/bloom.png", svc.Resolve(context.Background(), "sunrise", ""))
	uploader.AssertExpectations(t)
}

func TestMediaService_NeverFails(t *testing.T) {
	uploader := &mockUploader{}
	uploader.On("UploadToR2", mock.Anything, mock.Anything).Return(errors.New("bucket gone"))

	svc := NewMediaService(nil, writeGallery(t), uploader, firstIndex)
	assert.Equal(t, "", svc.Resolve(context.Background(), "sunrise", OrientationSquare))

	missing := NewMediaService(nil, filepath.Join(t.TempDir(), "nope"), uploader, firstIndex)
	assert.Equal(t, "", missing.Resolve(context.Background(), "sunrise", OrientationSquare))

	noUploader := NewMediaService(nil, writeGallery(t), nil, firstIndex)
	assert.Equal(t, "", noUploader.Resolve(context.Background(), "", ""))
}

func TestPexelsProvider_Orientation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "pexels-key", r.Header.Get("Authorization"))
		assert.Equal(t, "10", r.URL.Query().Get("per_page"))
		w.Write([]byte(`{"photos":[{"id":1,"src":{"large":"https://p/large.jpg","landscape":"https://p/land.jpg"}}]}`))
	}))
	defer srv.Close()

	p := NewPexelsProvider("pexels-key", srv.URL, srv.Client())

	square, err := p.Search(context.Background(), "blossom", OrientationSquare)
	require.NoError(t, err)
	assert.Equal(t, []string{"https://p/large.jpg"}, square)

	landscape, err := p.Search(context.Background(), "blossom", OrientationLandscape)
	require.NoError(t, err)
	assert.Equal(t, []string{"https://p/land.jpg"}, landscape)
}

func TestPexelsProvider_ErrorsAndMissingKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := NewPexelsProvider("k", srv.URL, srv.Client()).Search(context.Background(), "q", OrientationSquare)
	assert.Error(t, err)

	urls, err := NewPexelsProvider("", srv.URL, srv.Client()).Search(context.Background(), "q", OrientationSquare)
	assert.NoError(t, err)
	assert.Empty(t, urls)
}

func TestGoogleImageProvider_Search(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "image", r.URL.Query().Get("searchType"))
		assert.Equal(t, "cx-1", r.URL.Query().Get("cx"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"items":[{"link":"https://g/1.jpg"},{"link":"https://g/2.jpg"}]}`))
	}))
	defer srv.Close()

	p := NewGoogleImageProvider("key", "cx-1", option.WithEndpoint(srv.URL+"/"), option.WithHTTPClient(srv.Client()))
	urls, err := p.Search(context.Background(), "blossom", OrientationSquare)
	require.NoError(t, err)
	assert.Equal(t, []string{"https://g/1.jpg", "https://g/2.jpg"}, urls)
}

type mockPutter struct {
	mock.Mock
}

func (m *mockPutter) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	args := m.Called(*params.Bucket, *params.Key, *params.ContentType)
	return &s3.PutObjectOutput{}, args.Error(0)
}

func TestR2Service_Upload(t *testing.T) {
	putter := &mockPutter{}
	putter.On("PutObject", "media", "social/fallback/a.png", "image/png").Return(nil)

	r2 := NewR2ServiceWithClient(cfg.R2{BucketName: "media", PublicURL: "https://cdn.example/"}, putter)

	require.NoError(t, r2.UploadToR2(context.Background(), "social/fallback/a.png", pngHeader, "image/png"))
	assert.Equal(t, "https://cdn.example/social/fallback/a.png", r2.PublicURL("social/fallback/a.png"))
	putter.AssertExpectations(t)
}
