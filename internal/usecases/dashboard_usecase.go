package usecases

import (
	"context"

	"warelay/internal/entities"
	"warelay/internal/interfaces"
	"warelay/internal/repository"
)

// DashboardUsecase backs the operator API: runtime config and traffic stats.
type DashboardUsecase struct {
	configRepo *repository.ConfigRepository
	usageRepo  *repository.UsageRepository
	store      interfaces.ConversationStore
}

func NewDashboardUsecase(configRepo *repository.ConfigRepository, usageRepo *repository.UsageRepository, store interfaces.ConversationStore) *DashboardUsecase {
	return &DashboardUsecase{
		configRepo: configRepo,
		usageRepo:  usageRepo,
		store:      store,
	}
}

// Stats is the dashboard summary payload.
type Stats struct {
	TodaySent      int                     `json:"today_sent"`
	TodayReceived  int                     `json:"today_received"`
	UsageHistory   []repository.DailyUsage `json:"usage_history"`
	RecentMessages []entities.MessageEvent `json:"recent_messages"`
}

func (u *DashboardUsecase) GetStats(ctx context.Context, historyDays, recentLimit int) (*Stats, error) {
	sent, received, err := u.usageRepo.GetTodayUsage()
	if err != nil {
		return nil, err
	}
	history, err := u.usageRepo.GetUsageHistory(historyDays)
	if err != nil {
		return nil, err
	}
	return &Stats{
		TodaySent:      sent,
		TodayReceived:  received,
		UsageHistory:   history,
		RecentMessages: u.store.Recent(ctx, recentLimit),
	}, nil
}

// Config management
func (u *DashboardUsecase) GetAllConfigs() ([]repository.BotConfig, error) {
	return u.configRepo.GetAllConfigs()
}

func (u *DashboardUsecase) SetConfig(key, value string) error {
	return u.configRepo.SetConfig(key, value)
}
