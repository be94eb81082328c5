package job

import (
	"context"
	"time"

	"github.com/dtroode/securemail-server/internal/logger"
)

// OTPCleaner deletes stale passcodes.
type OTPCleaner interface {
	Cleanup(ctx context.Context, grace time.Duration) (int64, error)
}

// OTPCleanup purges codes that expired or were used more than grace ago.
// Verification checks expiry on its own, so this only bounds table growth.
type OTPCleanup struct {
	otp    OTPCleaner
	grace  time.Duration
	logger *logger.Logger
}

func NewOTPCleanup(otp OTPCleaner, grace time.Duration, logger *logger.Logger) *OTPCleanup {
	return &OTPCleanup{otp: otp, grace: grace, logger: logger}
}

func (j *OTPCleanup) Name() string { return "otp_cleanup" }

func (j *OTPCleanup) Run(ctx context.Context) error {
	n, err := j.otp.Cleanup(ctx, j.grace)
	if err != nil {
		return err
	}
	if n > 0 {
		j.logger.Info("OTP cleanup: removed stale codes", "count", n)
	}
	return nil
}
