package main

import (
	"context"
	"fmt"

	"github.com/dtroode/securemail-server/internal/config"
	"github.com/dtroode/securemail-server/internal/logger"
	"github.com/dtroode/securemail-server/internal/model"
	"github.com/dtroode/securemail-server/internal/notify"
	"github.com/dtroode/securemail-server/internal/repository/memory"
	"github.com/dtroode/securemail-server/internal/repository/postgres"
	"github.com/dtroode/securemail-server/internal/storage/minio"
	"github.com/dtroode/securemail-server/internal/storage/s3"
)

// stores bundles the record store implementations picked by DATABASE_DRIVER.
type stores struct {
	tx        model.Transactor
	accounts  model.AccountStore
	otps      model.OTPStore
	messages  model.MessageStore
	sessions  model.DecryptionSessionStore
	approvals model.ApprovalStore
	logs      model.SecurityLogStore
	close     func() error
}

func openStores(ctx context.Context, cfg config.Database) (stores, error) {
	switch cfg.Driver {
	case "postgres":
		conn, err := postgres.NewConnection(ctx, cfg.DSN)
		if err != nil {
			return stores{}, err
		}
		return stores{
			tx:        conn,
			accounts:  postgres.NewAccountRepository(conn),
			otps:      postgres.NewOTPRepository(conn),
			messages:  postgres.NewMessageRepository(conn),
			sessions:  postgres.NewSessionRepository(conn),
			approvals: postgres.NewApprovalRepository(conn),
			logs:      postgres.NewSecurityLogRepository(conn),
			close:     conn.Close,
		}, nil
	case "memory":
		store := memory.NewStore()
		return stores{
			tx:        store,
			accounts:  store.Accounts(),
			otps:      store.OTPs(),
			messages:  store.Messages(),
			sessions:  store.Sessions(),
			approvals: store.Approvals(),
			logs:      store.SecurityLogs(),
			close:     func() error { return nil },
		}, nil
	default:
		return stores{}, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
}

func openStorage(ctx context.Context, cfg *config.Config) (model.Storage, error) {
	switch cfg.Storage.Driver {
	case "minio":
		return minio.Open(ctx, minio.Config{
			Endpoint:  cfg.Minio.Endpoint,
			AccessKey: cfg.Minio.AccessKey,
			SecretKey: cfg.Minio.SecretKey,
			Bucket:    cfg.Minio.Bucket,
			UseSSL:    cfg.Minio.UseSSL,
		})
	case "s3":
		return s3.Open(ctx, s3.Config{
			Region:       cfg.S3.Region,
			Bucket:       cfg.S3.Bucket,
			Endpoint:     cfg.S3.Endpoint,
			AccessKey:    cfg.S3.AccessKey,
			SecretKey:    cfg.S3.SecretKey,
			UsePathStyle: cfg.S3.UsePathStyle,
		})
	case "memory":
		return memory.NewBlobs(), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}

func newNotifier(cfg config.Notify, lg *logger.Logger) (model.Notifier, error) {
	switch cfg.Driver {
	case "smtp":
		return notify.NewSMTP(notify.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUser,
			Password: cfg.SMTPPassword,
			From:     cfg.From,
		}), nil
	case "log":
		return notify.NewLog(lg), nil
	default:
		return nil, fmt.Errorf("unknown notify driver %q", cfg.Driver)
	}
}
