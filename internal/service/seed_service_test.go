package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/rebloomsa/social-publisher/internal/models"
	"github.com/rebloomsa/social-publisher/internal/repository/repositorytest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const seedYAML = `
- scheduledAt: "2026-02-17T08:00:00+02:00"
  platforms: [facebook, instagram, twitter]
  content: |
    I built Rebloom SA for my mother.
  contentAlt: Short version
  imageQuery: cherry blossom sunrise hope
- scheduledAt: "2026-02-18T12:00:00+02:00"
  platforms: [facebook]
  content: Second post
  hashtagSet: d
- scheduledAt: "2026-02-19T12:00:00+02:00"
  platforms: []
  content: Missing platforms
`

func TestReadSeedFile(t *testing.T) {
	entries, err := ReadSeedFile(strings.NewReader(seedYAML))
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "Short version", *entries[0].ContentAlt)
	assert.Equal(t, []string{"facebook", "instagram", "twitter"}, entries[0].Platforms)

	empty, err := ReadSeedFile(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestSeedPosts_SkipsExistingSlots(t *testing.T) {
	repo := repositorytest.NewMemoryPostRepository(&models.Post{
		ID: "existing", ScheduledAt: time.Date(2026, 2, 18, 10, 0, 0, 0, time.UTC),
	})
	entries, err := ReadSeedFile(strings.NewReader(seedYAML))
	require.NoError(t, err)

	res, err := SeedPosts(context.Background(), repo, entries, time.UTC)
	require.NoError(t, err)
	assert.Equal(t, SeedResult{Inserted: 1, Skipped: 1, Failed: 1}, res)

	pending, _ := repo.ListDue(context.Background(), time.Date(2026, 2, 17, 6, 0, 0, 0, time.UTC))
	require.Len(t, pending, 1)
	assert.False(t, pending[0].BrandCheckPassed)
	assert.Equal(t, "I built Rebloom SA for my mother.", pending[0].Content)

	res, err = SeedPosts(context.Background(), repo, entries, time.UTC)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Inserted)
	assert.Equal(t, 2, res.Skipped)
}
