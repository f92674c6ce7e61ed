package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/sakif/social-network/internal/repository"
)

// SessionPurger drops expired sessions. *auth.SessionManager satisfies it.
type SessionPurger interface {
	Purge(ctx context.Context) (int64, error)
}

// Maintenance is the periodic housekeeping pass: it repairs drifted post
// counters from the likes and comments tables and purges expired sessions.
type Maintenance struct {
	posts    repository.PostRepository
	sessions SessionPurger
	logger   *slog.Logger
}

func NewMaintenance(posts repository.PostRepository, sessions SessionPurger, logger *slog.Logger) *Maintenance {
	return &Maintenance{posts: posts, sessions: sessions, logger: logger}
}

type MaintenanceReport struct {
	CountersFixed  int64
	SessionsPurged int64
}

// RunOnce performs one pass. A failure in one task is logged and does not
// stop the other.
func (m *Maintenance) RunOnce(ctx context.Context) MaintenanceReport {
	var report MaintenanceReport

	fixed, err := m.posts.ReconcileCounters(ctx)
	if err != nil {
		m.logger.Error("counter reconciliation failed", slog.String("error", err.Error()))
	} else {
		report.CountersFixed = fixed
		if fixed > 0 {
			m.logger.Warn("post counters drifted and were repaired", slog.Int64("posts", fixed))
		}
	}

	purged, err := m.sessions.Purge(ctx)
	if err != nil {
		m.logger.Error("session purge failed", slog.String("error", err.Error()))
	} else {
		report.SessionsPurged = purged
	}

	m.logger.Debug("maintenance pass complete",
		slog.Int64("counters_fixed", report.CountersFixed),
		slog.Int64("sessions_purged", report.SessionsPurged),
	)
	return report
}

// Run calls RunOnce immediately and then every interval until ctx is done.
// extra tasks run after each pass.
func (m *Maintenance) Run(ctx context.Context, interval time.Duration, extra ...func()) {
	tick := func() {
		m.RunOnce(ctx)
		for _, task := range extra {
			task()
		}
	}
	tick()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			tick()
		}
	}
}
