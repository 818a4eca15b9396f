package service

import (
	"context"
	"testing"
	"time"

	"github.com/rebloomsa/social-publisher/internal/models"
	"github.com/rebloomsa/social-publisher/internal/repository/repositorytest"
	"github.com/rebloomsa/social-publisher/internal/transfer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPostService(posts ...*models.Post) (PostService, *repositorytest.MemoryPostRepository) {
	repo := repositorytest.NewMemoryPostRepository(posts...)
	return NewPostService(repo, NewBrandGuard(testBrand), time.UTC), repo
}

func TestPostService_Create(t *testing.T) {
	svc, repo := newPostService()
	set := "c"

	post, err := svc.Create(context.Background(), &transfer.PostCreation{
		Content:     validContent,
		Platforms:   []string{"facebook", "Twitter"},
		ScheduledAt: "2026-03-01T09:30:00+02:00",
		HashtagSet:  &set,
	})
	require.NoError(t, err)

	stored := repo.Get(post.ID)
	require.NotNil(t, stored)
	assert.Equal(t, models.PostStatusPending, stored.Status)
	assert.True(t, stored.BrandCheckPassed)
	assert.Equal(t, []models.Platform{models.PlatformFacebook, models.PlatformTwitter}, stored.Platforms)
	assert.Equal(t, time.Date(2026, 3, 1, 7, 30, 0, 0, time.UTC), stored.ScheduledAt)
	assert.Equal(t, "C", models.StringValue(stored.HashtagSet))
}

func TestPostService_CreateRejectsInvalidInput(t *testing.T) {
	unknownSet := "Q"
	tests := []struct {
		name string
		pc   transfer.PostCreation
	}{
		{"empty content", transfer.PostCreation{Platforms: []string{"facebook"}, ScheduledAt: "2026-03-01T09:30:00Z"}},
		{"no platforms", transfer.PostCreation{Content: validContent, ScheduledAt: "2026-03-01T09:30:00Z"}},
		{"unknown platform", transfer.PostCreation{Content: validContent, Platforms: []string{"myspace"}, ScheduledAt: "2026-03-01T09:30:00Z"}},
		{"missing schedule", transfer.PostCreation{Content: validContent, Platforms: []string{"facebook"}}},
		{"bad schedule", transfer.PostCreation{Content: validContent, Platforms: []string{"facebook"}, ScheduledAt: "tomorrow"}},
		{"unknown hashtag set", transfer.PostCreation{Content: validContent, Platforms: []string{"facebook"}, ScheduledAt: "2026-03-01T09:30:00Z", HashtagSet: &unknownSet}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, repo := newPostService()
			_, err := svc.Create(context.Background(), &tt.pc)
			assert.ErrorIs(t, err, ErrInvalidRequest)
			posts, _ := repo.List(context.Background(), nil)
			assert.Empty(t, posts)
		})
	}
}

func TestPostService_CreateRejectsBrandViolations(t *testing.T) {
	svc, repo := newPostService()

	_, err := svc.Create(context.Background(), &transfer.PostCreation{
		Content:     "Singles night, buy now",
		Platforms:   []string{"facebook"},
		ScheduledAt: "2026-03-01T09:30:00Z",
	})

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Reasons, `Banned word detected: "singles"`)
	posts, _ := repo.List(context.Background(), nil)
	assert.Empty(t, posts)
}

func TestPostService_List(t *testing.T) {
	svc, _ := newPostService(
		&models.Post{ID: "a", Status: models.PostStatusPending, ScheduledAt: time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)},
		&models.Post{ID: "b", Status: models.PostStatusFailed, ScheduledAt: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)},
	)

	all, err := svc.List(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "b", all[0].ID)

	failed, err := svc.List(context.Background(), "failed")
	require.NoError(t, err)
	require.Len(t, failed, 1)
	assert.Equal(t, "b", failed[0].ID)

	_, err = svc.List(context.Background(), "archived")
	assert.ErrorIs(t, err, ErrInvalidRequest)
}

func TestPostService_Validate(t *testing.T) {
	svc, _ := newPostService()

	res := svc.Validate(&transfer.PostValidation{Content: "hello"})

	assert.False(t, res.Valid)
	assert.Len(t, res.Reasons, 3)
}

func TestPostService_Cancel(t *testing.T) {
	svc, repo := newPostService(
		&models.Post{ID: "pending", Status: models.PostStatusPending},
		&models.Post{ID: "done", Status: models.PostStatusPublished},
	)

	require.NoError(t, svc.Cancel(context.Background(), "pending"))
	assert.Equal(t, models.PostStatusCancelled, repo.Get("pending").Status)

	assert.ErrorIs(t, svc.Cancel(context.Background(), "done"), ErrNotPending)
	assert.Equal(t, models.PostStatusPublished, repo.Get("done").Status)

	assert.ErrorIs(t, svc.Cancel(context.Background(), "missing"), ErrNotFound)
}

func TestParseScheduledAt(t *testing.T) {
	loc, err := time.LoadLocation("Africa/Johannesburg")
	require.NoError(t, err)

	got, err := ParseScheduledAt("2026-03-01T09:30", loc)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 1, 7, 30, 0, 0, time.UTC), got)

	got, err = ParseScheduledAt("2026-03-01T09:30:00Z", loc)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC), got)
}
