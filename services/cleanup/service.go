package cleanup

import (
	"time"

	"github.com/taskly-app/identity/config"
	"github.com/taskly-app/identity/services/logging"
	"github.com/taskly-app/identity/services/otp"
	"github.com/taskly-app/identity/services/user"
	"go.uber.org/zap"
)

// Service periodically purges expired OTP codes and pending registrations.
// Flow logic never depends on this sweep; verification re-checks expiry at
// read time.
type Service struct {
	config *config.Config
	otps   *otp.Service
	users  *user.Service
	logger *logging.Service
	stop   chan struct{}
	done   chan struct{}
}

func NewService(cfg *config.Config, otps *otp.Service, users *user.Service, logger *logging.Service) *Service {
	return &Service{
		config: cfg,
		otps:   otps,
		users:  users,
		logger: logger,
	}
}

// RunOnce performs a single sweep and reports the number of rows removed.
func (s *Service) RunOnce() (int64, error) {
	otpRemoved, err := s.otps.CleanupExpired()
	if err != nil {
		return 0, err
	}

	pendingRemoved, err := s.users.CleanupExpiredPending()
	if err != nil {
		return otpRemoved, err
	}

	return otpRemoved + pendingRemoved, nil
}

// Start launches the sweep loop. The first sweep runs immediately, then on
// every interval tick until Stop.
func (s *Service) Start() {
	if !s.config.Cleanup.Enabled {
		s.logger.Debug("cleanup sweep disabled")
		return
	}

	s.stop = make(chan struct{})
	s.done = make(chan struct{})

	go s.run()

	s.logger.Info("cleanup sweep started", zap.Duration("interval", s.config.Cleanup.Interval))
}

func (s *Service) run() {
	defer close(s.done)

	s.sweep()

	ticker := time.NewTicker(s.config.Cleanup.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.sweep()
		case <-s.stop:
			return
		}
	}
}

func (s *Service) sweep() {
	removed, err := s.RunOnce()
	if err != nil {
		s.logger.Error("cleanup sweep failed", zap.Error(err))
		return
	}
	if removed > 0 {
		s.logger.Info("cleanup sweep complete", zap.Int64("removed", removed))
	}
}

func (s *Service) Stop() {
	if s.stop == nil {
		return
	}
	close(s.stop)
	<-s.done
	s.stop = nil
	s.logger.Info("cleanup sweep stopped")
}
