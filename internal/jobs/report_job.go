package job

import (
	"context"
	"log/slog"

	"github.com/rebloomsa/social-publisher/internal/service"
)

type ReportJob struct {
	reports service.ReportService
	enabled bool
}

func NewReportJob(reports service.ReportService, enabled bool) *ReportJob {
	return &ReportJob{reports: reports, enabled: enabled}
}

// SendDailyReport is the cron entry point.
func (j *ReportJob) SendDailyReport() {
	if !j.enabled {
		return
	}
	if _, err := j.reports.Send(context.Background()); err != nil {
		slog.Error("daily report error", "error", err.Error())
	}
}
