package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sakif/social-network/internal/model"
	"github.com/sakif/social-network/internal/repository"
)

type StatsService struct {
	stats  repository.StatsRepository
	logger *slog.Logger
}

func NewStatsService(stats repository.StatsRepository, logger *slog.Logger) *StatsService {
	return &StatsService{stats: stats, logger: logger}
}

// Statistics returns the leaderboard. On an empty database every leader is
// nil and TotalUsers is 0.
func (s *StatsService) Statistics(ctx context.Context) (*model.Statistics, error) {
	stats, err := s.stats.GetStatistics(ctx)
	if err != nil {
		s.logger.Error("failed to compute statistics", slog.String("error", err.Error()))
		return nil, fmt.Errorf("computing statistics: %w", err)
	}
	return stats, nil
}
