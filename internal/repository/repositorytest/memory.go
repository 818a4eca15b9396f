// Package repositorytest provides an in-memory PostRepository for tests.
package repositorytest

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rebloomsa/social-publisher/internal/models"
	"github.com/rebloomsa/social-publisher/internal/repository"
)

type MemoryPostRepository struct {
	mu    sync.Mutex
	posts map[string]*models.Post
	seq   int
	Now   func() time.Time
}

var _ repository.PostRepository = (*MemoryPostRepository)(nil)

func NewMemoryPostRepository(posts ...*models.Post) *MemoryPostRepository {
	r := &MemoryPostRepository{posts: map[string]*models.Post{}, Now: time.Now}
	for _, p := range posts {
		r.Put(p)
	}
	return r
}

// Put stores a copy of p as-is.
func (r *MemoryPostRepository) Put(p *models.Post) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *p
	if cp.Status == "" {
		cp.Status = models.PostStatusPending
	}
	r.posts[cp.ID] = &cp
}

// Get returns a copy of the stored post, or nil.
func (r *MemoryPostRepository) Get(id string) *models.Post {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.posts[id]
	if !ok {
		return nil
	}
	cp := *p
	return &cp
}

func (r *MemoryPostRepository) Create(ctx context.Context, post *models.Post) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if post.ID == "" {
		r.seq++
		post.ID = fmt.Sprintf("post-%d", r.seq)
	}
	if post.Status == "" {
		post.Status = models.PostStatusPending
	}
	post.CreatedAt = r.Now()
	post.UpdatedAt = post.CreatedAt
	cp := *post
	r.posts[cp.ID] = &cp
	return cp.ID, nil
}

func (r *MemoryPostRepository) GetByID(ctx context.Context, id string) (*models.Post, error) {
	return r.Get(id), nil
}

func (r *MemoryPostRepository) filter(keep func(p *models.Post) bool) []*models.Post {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Post
	for _, p := range r.posts {
		if keep(p) {
			cp := *p
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ScheduledAt.Before(out[j].ScheduledAt) })
	return out
}

func (r *MemoryPostRepository) List(ctx context.Context, status *models.PostStatus) ([]*models.Post, error) {
	return r.filter(func(p *models.Post) bool { return status == nil || p.Status == *status }), nil
}

func (r *MemoryPostRepository) ListDue(ctx context.Context, now time.Time) ([]*models.Post, error) {
	return r.filter(func(p *models.Post) bool {
		return p.Status == models.PostStatusPending && !p.ScheduledAt.After(now)
	}), nil
}

func (r *MemoryPostRepository) ListPendingBetween(ctx context.Context, from, to time.Time) ([]*models.Post, error) {
	return r.filter(func(p *models.Post) bool {
		return p.Status == models.PostStatusPending && !p.ScheduledAt.Before(from) && p.ScheduledAt.Before(to)
	}), nil
}

func (r *MemoryPostRepository) ListScheduledBetween(ctx context.Context, from, to time.Time) ([]*models.Post, error) {
	return r.filter(func(p *models.Post) bool {
		return !p.ScheduledAt.Before(from) && p.ScheduledAt.Before(to)
	}), nil
}

func (r *MemoryPostRepository) ListStalePublishing(ctx context.Context, updatedBefore time.Time) ([]*models.Post, error) {
	return r.filter(func(p *models.Post) bool {
		return p.Status == models.PostStatusPublishing && p.UpdatedAt.Before(updatedBefore)
	}), nil
}

func (r *MemoryPostRepository) CountByStatus(ctx context.Context) (map[models.PostStatus]int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	counts := make(map[models.PostStatus]int, len(models.AllPostStatuses))
	for _, st := range models.AllPostStatuses {
		counts[st] = 0
	}
	for _, p := range r.posts {
		counts[p.Status]++
	}
	return counts, nil
}

func (r *MemoryPostRepository) ExistsScheduledAt(ctx context.Context, scheduledAt time.Time) (bool, error) {
	return len(r.filter(func(p *models.Post) bool { return p.ScheduledAt.Equal(scheduledAt) })) > 0, nil
}

func (r *MemoryPostRepository) transition(id string, from, to models.PostStatus) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.posts[id]
	if !ok || p.Status != from {
		return false
	}
	p.Status = to
	p.UpdatedAt = r.Now()
	return true
}

func (r *MemoryPostRepository) Claim(ctx context.Context, id string) (bool, error) {
	return r.transition(id, models.PostStatusPending, models.PostStatusPublishing), nil
}

func (r *MemoryPostRepository) Cancel(ctx context.Context, id string) (bool, error) {
	return r.transition(id, models.PostStatusPending, models.PostStatusCancelled), nil
}

func (r *MemoryPostRepository) MarkBlocked(ctx context.Context, id, errorLog string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.posts[id]
	if !ok {
		return fmt.Errorf("post %s not found", id)
	}
	p.Status = models.PostStatusBlocked
	p.BrandCheckPassed = false
	p.ErrorLog = &errorLog
	p.UpdatedAt = r.Now()
	return nil
}

func (r *MemoryPostRepository) Complete(ctx context.Context, id string, o *models.PublishOutcome) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.posts[id]
	if !ok {
		return fmt.Errorf("post %s not found", id)
	}
	if p.Status != models.PostStatusPublishing {
		return nil
	}
	p.Status = o.Status
	p.FacebookPostID = o.FacebookPostID
	p.InstagramPostID = o.InstagramPostID
	p.TwitterPostID = o.TwitterPostID
	p.ErrorLog = o.ErrorLog
	p.BrandCheckPassed = true
	p.PublishedAt = o.PublishedAt
	if o.ImageURL != nil {
		p.ImageURL = o.ImageURL
	}
	p.RetryCount += o.RetryIncrement
	p.UpdatedAt = r.Now()
	return nil
}
