package scheduler

import (
	"time"

	"github.com/robfig/cron/v3"
	"github.com/velocommerce/velo-backend/internal/app/service"
	"github.com/velocommerce/velo-backend/pkg/logger"
)

// OrderExpiryScheduler cancels pending orders that were never confirmed
// within the configured expiry window, restoring their reserved stock.
type OrderExpiryScheduler struct {
	cron         *cron.Cron
	orderService service.OrderService
	expiry       time.Duration
}

func NewOrderExpiryScheduler(orderService service.OrderService, expiry time.Duration) *OrderExpiryScheduler {
	return &OrderExpiryScheduler{
		cron:         cron.New(),
		orderService: orderService,
		expiry:       expiry,
	}
}

// Start registers the hourly sweep and starts the cron loop.
func (s *OrderExpiryScheduler) Start() error {
	_, err := s.cron.AddFunc("@hourly", func() {
		logger.Info("Starting pending order expiry sweep", map[string]interface{}{
			"older_than": s.expiry.String(),
		})

		cancelled, err := s.orderService.CancelExpiredPending(s.expiry)
		if err != nil {
			logger.Error("Pending order expiry sweep failed", err)
			return
		}

		logger.Info("Pending order expiry sweep finished", map[string]interface{}{
			"cancelled": cancelled,
		})
	})

	if err != nil {
		logger.Error("Failed to add cron job for order expiry", err)
		return err
	}

	s.cron.Start()
	logger.Info("Order expiry scheduler started (hourly)", nil)

	return nil
}

func (s *OrderExpiryScheduler) Stop() {
	logger.Info("Stopping order expiry scheduler...", nil)
	s.cron.Stop()
	logger.Info("Order expiry scheduler stopped", nil)
}
