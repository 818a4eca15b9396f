package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/rebloomsa/social-publisher/internal/models"
	"github.com/rebloomsa/social-publisher/internal/repository"
)

const (
	reportRule         = "═══════════════════════════════════════"
	reportPreviewRunes = 50
	issueIDPrefix      = 8
)

// Report is a read-only digest of the queue.
type Report struct {
	Date     string                    `json:"date"`
	DryRun   bool                      `json:"dry_run"`
	Today    []*models.Post            `json:"today"`
	Tomorrow []*models.Post            `json:"tomorrow"`
	Issues   []*models.Post            `json:"issues"`
	Counts   map[models.PostStatus]int `json:"counts"`
	Text     string                    `json:"text"`
}

type ReportService interface {
	Build(ctx context.Context) (*Report, error)
	// Send builds the digest and hands it to the notifier if one is set.
	Send(ctx context.Context) (*Report, error)
}

type reportService struct {
	posts    repository.PostRepository
	notifier Notifier
	loc      *time.Location
	dryRun   bool
	now      func() time.Time
}

func NewReportService(posts repository.PostRepository, notifier Notifier, loc *time.Location, dryRun bool, now func() time.Time) ReportService {
	if loc == nil {
		loc = time.UTC
	}
	if now == nil {
		now = time.Now
	}
	return &reportService{
		posts:    posts,
		notifier: notifier,
		loc:      loc,
		dryRun:   dryRun,
		now:      now,
	}
}

func (s *reportService) Build(ctx context.Context) (*Report, error) {
	now := s.now()
	todayStart, tomorrowStart := dayBounds(now, s.loc)
	tomorrowEnd := tomorrowStart.AddDate(0, 0, 1)

	today, err := s.posts.ListScheduledBetween(ctx, todayStart, tomorrowStart)
	if err != nil {
		return nil, fmt.Errorf("failed to list today's posts: %w", err)
	}
	upcoming, err := s.posts.ListPendingBetween(ctx, tomorrowStart, tomorrowEnd)
	if err != nil {
		return nil, fmt.Errorf("failed to list tomorrow's posts: %w", err)
	}
	counts, err := s.posts.CountByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count posts: %w", err)
	}

	report := &Report{
		Date:     now.In(s.loc).Format("Monday, 2 January 2006"),
		DryRun:   s.dryRun,
		Today:    today,
		Tomorrow: upcoming,
		Counts:   counts,
	}
	for _, p := range today {
		if p.Status == models.PostStatusFailed || p.Status == models.PostStatusBlocked {
			report.Issues = append(report.Issues, p)
		}
	}
	report.Text = s.render(report)
	return report, nil
}

func (s *reportService) Send(ctx context.Context) (*Report, error) {
	report, err := s.Build(ctx)
	if err != nil {
		return nil, err
	}
	slog.Info("daily report built", "date", report.Date, "today", len(report.Today), "issues", len(report.Issues))

	if s.notifier == nil {
		slog.Warn("report not sent, no notification channel configured")
		return report, nil
	}
	s.notifier.Notify(ctx, Notification{
		Subject: fmt.Sprintf("Daily Report [%s]", s.now().In(s.loc).Format("2006/01/02")),
		Body:    report.Text,
	})
	return report, nil
}

func (s *reportService) render(r *Report) string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s\n  REBLOOM SA — SOCIAL MEDIA REPORT\n  %s\n%s\n", reportRule, r.Date, reportRule)
	if r.DryRun {
		b.WriteString("\n⚠️  DRY RUN MODE — no real posts were published\n")
	}

	b.WriteString("\nTODAY'S POSTS:\n")
	if len(r.Today) == 0 {
		b.WriteString("  No posts scheduled for today.\n")
	}
	for _, p := range r.Today {
		fmt.Fprintf(&b, "  %s %s — %s — \"%s\" — %s\n", statusIcon(p.Status), joinPlatforms(p.Platforms), s.clock(p.ScheduledAt), reportPreview(p.Content), p.Status)
	}

	b.WriteString("\nTOMORROW'S SCHEDULED:\n")
	if len(r.Tomorrow) == 0 {
		b.WriteString("  No posts scheduled for tomorrow.\n")
	}
	for _, p := range r.Tomorrow {
		fmt.Fprintf(&b, "  %s %s — %s — \"%s\"\n", statusIcon(models.PostStatusPending), joinPlatforms(p.Platforms), s.clock(p.ScheduledAt), reportPreview(p.Content))
	}

	fmt.Fprintf(&b, "\nISSUES (%d):\n", len(r.Issues))
	if len(r.Issues) == 0 {
		b.WriteString("  None — all systems healthy.\n")
	}
	for _, p := range r.Issues {
		errorLog := models.StringValue(p.ErrorLog)
		if errorLog == "" {
			errorLog = "unknown error"
		}
		id := p.ID
		if len(id) > issueIDPrefix {
			id = id[:issueIDPrefix]
		}
		fmt.Fprintf(&b, "  %s Post %s... — %s\n", statusIcon(p.Status), id, errorLog)
	}

	b.WriteString("\nQUEUE STATUS:\n ")
	for i, st := range models.AllPostStatuses {
		if i > 0 {
			b.WriteString(" |")
		}
		fmt.Fprintf(&b, " %s: %d", statusLabel(st), r.Counts[st])
	}
	return b.String()
}

func (s *reportService) clock(t time.Time) string {
	return t.In(s.loc).Format("15:04")
}

func reportPreview(content string) string {
	return preview(strings.ReplaceAll(content, "\n", " "), reportPreviewRunes)
}

func joinPlatforms(platforms []models.Platform) string {
	names := make([]string, len(platforms))
	for i, p := range platforms {
		names[i] = string(p)
	}
	return strings.Join(names, ", ")
}

func statusLabel(st models.PostStatus) string {
	s := string(st)
	return strings.ToUpper(s[:1]) + s[1:]
}

func statusIcon(st models.PostStatus) string {
	switch st {
	case models.PostStatusPublished:
		return "✅"
	case models.PostStatusFailed:
		return "❌"
	case models.PostStatusBlocked, models.PostStatusCancelled:
		return "🚫"
	case models.PostStatusPending:
		return "⏰"
	case models.PostStatusPublishing:
		return "⏳"
	default:
		return "❓"
	}
}
