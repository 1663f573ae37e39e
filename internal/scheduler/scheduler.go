package scheduler

import (
	"context"
	"time"

	"github.com/go-co-op/gocron"
	"go.uber.org/zap"

	"github.com/Aramushaa/LingoDojo/internal/database"
)

// Notifier delivers a due-review reminder to one user
type Notifier interface {
	SendReminder(userID int64, dueCount int) error
}

// Scheduler runs the hourly reminder job
type Scheduler struct {
	cron     *gocron.Scheduler
	notifier Notifier
	users    *database.UserRepository
	reviews  *database.ReviewRepository
	log      *zap.Logger
}

// New creates a scheduler instance
func New(notifier Notifier, log *zap.Logger) *Scheduler {
	return &Scheduler{
		cron:     gocron.NewScheduler(time.UTC),
		notifier: notifier,
		users:    database.NewUserRepository(),
		reviews:  database.NewReviewRepository(),
		log:      log,
	}
}

// Start begins the hourly reminder checks without blocking
func (s *Scheduler) Start() {
	s.cron.Every(1).Hour().Do(s.checkAndSendReminders)
	s.cron.StartAsync()
}

// Stop terminates all scheduled jobs
func (s *Scheduler) Stop() {
	s.cron.Stop()
}

// checkAndSendReminders pings every user whose notification hour matches the
// current UTC hour and who has reviews due today
func (s *Scheduler) checkAndSendReminders() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	now := time.Now().UTC()
	users, err := s.users.GetUsersForHour(ctx, now.Hour())
	if err != nil {
		s.log.Error("failed to get users for reminder hour", zap.Error(err))
		return
	}

	today := now.Format("2006-01-02")
	for _, user := range users {
		due, err := s.reviews.DueCount(ctx, user.ID, today)
		if err != nil {
			s.log.Error("failed to count due reviews",
				zap.Int64("user_id", user.ID), zap.Error(err))
			continue
		}
		if due == 0 {
			continue
		}
		if err := s.notifier.SendReminder(user.ID, due); err != nil {
			s.log.Warn("failed to send reminder",
				zap.Int64("user_id", user.ID), zap.Error(err))
		}
	}
}

// RunManualCheck sends a reminder to one user right away if anything is due
func (s *Scheduler) RunManualCheck(ctx context.Context, userID int64) error {
	today := time.Now().UTC().Format("2006-01-02")
	due, err := s.reviews.DueCount(ctx, userID, today)
	if err != nil {
		return err
	}
	if due == 0 {
		return nil
	}
	return s.notifier.SendReminder(userID, due)
}
