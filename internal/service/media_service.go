package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"sort"

	"github.com/h2non/filetype"
	"github.com/rebloomsa/social-publisher/internal/transfer"
	"google.golang.org/api/customsearch/v1"
	"google.golang.org/api/option"
)

const (
	OrientationSquare    = "square"
	OrientationLandscape = "landscape"

	galleryKeyPrefix = "social/fallback/"
)

// ImageProvider returns candidate public image URLs for a query.
type ImageProvider interface {
	Name() string
	Search(ctx context.Context, query, orientation string) ([]string, error)
}

// MediaResolver never fails; an empty string means no image.
type MediaResolver interface {
	Resolve(ctx context.Context, query, orientation string) string
}

type mediaService struct {
	providers  []ImageProvider
	galleryDir string
	uploader   ObjectUploader
	pick       func(n int) int
}

// NewMediaService builds the fallback chain. pick chooses an index in [0,n);
// nil uses math/rand.
func NewMediaService(providers []ImageProvider, galleryDir string, uploader ObjectUploader, pick func(n int) int) MediaResolver {
	if pick == nil {
		pick = rand.Intn
	}
	return &mediaService{
		providers:  providers,
		galleryDir: galleryDir,
		uploader:   uploader,
		pick:       pick,
	}
}

func (m *mediaService) Resolve(ctx context.Context, query, orientation string) string {
	if orientation == "" {
		orientation = OrientationLandscape
	}

	if query != "" {
		for _, p := range m.providers {
			urls, err := p.Search(ctx, query, orientation)
			if err != nil {
				slog.Warn("image search failed", "provider", p.Name(), "error", err.Error())
				continue
			}
			if len(urls) == 0 {
				continue
			}
			return urls[m.pick(len(urls))]
		}
	}

	imageURL, err := m.fromGallery(ctx)
	if err != nil {
		slog.Warn("fallback gallery failed", "error", err.Error())
		return ""
	}
	if imageURL == "" {
		slog.Warn("no image available", "query", query)
	}
	return imageURL
}

// fromGallery uploads a random local image so platforms can fetch it.
func (m *mediaService) fromGallery(ctx context.Context) (string, error) {
	if m.galleryDir == "" || m.uploader == nil {
		return "", nil
	}

	entries, err := os.ReadDir(m.galleryDir)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", err
	}

	var images []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		path := filepath.Join(m.galleryDir, e.Name())
		if isImageFile(path) {
			images = append(images, path)
		}
	}
	if len(images) == 0 {
		return "", nil
	}
	sort.Strings(images)

	path := images[m.pick(len(images))]
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	kind, err := filetype.Match(data)
	if err != nil {
		return "", err
	}

	key := galleryKeyPrefix + filepath.Base(path)
	if err := m.uploader.UploadToR2(ctx, key, data, kind.MIME.Value); err != nil {
		return "", fmt.Errorf("failed to upload %s: %w", key, err)
	}
	return m.uploader.PublicURL(key), nil
}

func isImageFile(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()

	head := make([]byte, 261)
	n, _ := f.Read(head)
	return filetype.IsImage(head[:n])
}

type pexelsProvider struct {
	apiKey     string
	apiURL     string
	httpClient *http.Client
}

func NewPexelsProvider(apiKey, apiURL string, httpClient *http.Client) ImageProvider {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &pexelsProvider{apiKey: apiKey, apiURL: apiURL, httpClient: httpClient}
}

func (p *pexelsProvider) Name() string { return "pexels" }

func (p *pexelsProvider) Search(ctx context.Context, query, orientation string) ([]string, error) {
	if p.apiKey == "" {
		return nil, nil
	}

	params := url.Values{}
	params.Set("query", query)
	params.Set("per_page", "10")
	params.Set("orientation", orientation)
	params.Set("size", "large")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.apiURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", p.apiKey)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("pexels API error: %d", resp.StatusCode)
	}

	var result transfer.PexelsSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode pexels response: %w", err)
	}

	urls := make([]string, 0, len(result.Photos))
	for _, photo := range result.Photos {
		u := photo.Src.Landscape
		if orientation == OrientationSquare {
			u = photo.Src.Large
		}
		if u != "" {
			urls = append(urls, u)
		}
	}
	return urls, nil
}

type googleImageProvider struct {
	apiKey string
	cx     string
	opts   []option.ClientOption
}

// NewGoogleImageProvider searches images through the Custom Search JSON API.
func NewGoogleImageProvider(apiKey, cx string, opts ...option.ClientOption) ImageProvider {
	return &googleImageProvider{apiKey: apiKey, cx: cx, opts: opts}
}

func (g *googleImageProvider) Name() string { return "google" }

func (g *googleImageProvider) Search(ctx context.Context, query, orientation string) ([]string, error) {
	if g.apiKey == "" || g.cx == "" {
		return nil, nil
	}

	opts := append([]option.ClientOption{option.WithAPIKey(g.apiKey)}, g.opts...)
	svc, err := customsearch.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create custom search client: %w", err)
	}

	call := svc.Cse.List().Cx(g.cx).Q(query).SearchType("image").Num(10).Safe("active")
	if orientation == OrientationLandscape {
		call = call.ImgSize("xlarge")
	}
	res, err := call.Context(ctx).Do()
	if err != nil {
		return nil, err
	}

	urls := make([]string, 0, len(res.Items))
	for _, item := range res.Items {
		if item.Link != "" {
			urls = append(urls, item.Link)
		}
	}
	return urls, nil
}
