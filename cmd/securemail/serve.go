package main

import (
	"context"
	"fmt"
	"sync"
	"time"

	grpcctx "github.com/dtroode/securemail-server/internal/api/grpc/context"
	"github.com/dtroode/securemail-server/internal/api/grpc/router"
	grpcserver "github.com/dtroode/securemail-server/internal/api/grpc/server"
	"github.com/dtroode/securemail-server/internal/biometric"
	"github.com/dtroode/securemail-server/internal/config"
	"github.com/dtroode/securemail-server/internal/envelope"
	"github.com/dtroode/securemail-server/internal/identity"
	"github.com/dtroode/securemail-server/internal/job"
	"github.com/dtroode/securemail-server/internal/logger"
	"github.com/dtroode/securemail-server/internal/model"
	"github.com/dtroode/securemail-server/internal/server"
	"github.com/dtroode/securemail-server/internal/service"
	"github.com/dtroode/securemail-server/internal/token"
)

const shutdownTimeout = 10 * time.Second

// app is the wired server and its background jobs.
type app struct {
	server    *grpcserver.GRPCServer
	scheduler *job.Scheduler
	close     func() error
}

func newApp(ctx context.Context, cfg *config.Config, lg *logger.Logger) (*app, error) {
	st, err := openStores(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	blobs, err := openStorage(ctx, cfg)
	if err != nil {
		_ = st.close()
		return nil, fmt.Errorf("failed to initialize blob storage: %w", err)
	}

	notifier, err := newNotifier(cfg.Notify, lg)
	if err != nil {
		_ = st.close()
		return nil, err
	}

	tokens := token.NewJWT(cfg.JWT.Secret, cfg.JWT.AccessTTL)
	env := envelope.New(envelope.Params{Time: cfg.KDF.Time, MemKiB: cfg.KDF.MemKiB, Threads: cfg.KDF.Par})

	otp, err := service.NewOTP(st.otps, notifier, service.OTPConfig{
		TTL:            cfg.OTP.TTL,
		ResendInterval: cfg.OTP.ResendInterval,
		Burst:          cfg.OTP.Burst,
		LimiterSize:    cfg.OTP.LimiterSize,
	}, lg)
	if err != nil {
		_ = st.close()
		return nil, fmt.Errorf("failed to initialize otp service: %w", err)
	}

	audit := service.NewAudit(st.logs, lg)
	accounts := service.NewAccount(otp, identity.NewLocal(st.accounts, tokens), st.accounts, lg)
	messages := service.NewMessage(st.accounts, st.messages, st.sessions, st.approvals, audit, blobs, env,
		cfg.Message.MaxAttachmentBytes, lg)
	gate := service.NewGate(st.tx, st.accounts, st.messages, st.sessions, audit,
		biometric.NewSimulated(cfg.Gate.BiometricPassRate), notifier, blobs, env,
		service.GateConfig{
			MaxAttempts:      cfg.Gate.MaxAttempts,
			CacheSize:        cfg.Gate.CacheSize,
			CacheTTL:         cfg.Gate.CacheTTL,
			KeyCheckInterval: cfg.Gate.KeyCheckInterval,
			KeyCheckBurst:    cfg.Gate.KeyCheckBurst,
		}, lg)
	approvals := service.NewApproval(st.accounts, st.messages, st.sessions, st.approvals, blobs, notifier,
		service.ApprovalConfig{
			PollInterval:  cfg.Approval.PollInterval,
			MaxPhotoBytes: cfg.Approval.MaxPhotoBytes,
		}, lg)

	r := router.New(router.Services{
		OTP:       otp,
		Accounts:  accounts,
		Messages:  messages,
		Gate:      gate,
		Approvals: approvals,
	}, tokens, grpcctx.NewManager(), cfg.Approval.PollInterval, lg)

	scheduler := job.NewScheduler(lg)
	if err := scheduler.Add(job.NewOTPCleanup(otp, cfg.OTP.CleanupGrace, lg), cfg.OTP.CleanupSpec); err != nil {
		_ = st.close()
		return nil, err
	}

	return &app{
		server:    grpcserver.NewGRPCServer(r.Register(), fmt.Sprintf(":%s", cfg.GRPC.Port)),
		scheduler: scheduler,
		close:     st.close,
	}, nil
}

func serve(ctx context.Context, cfg *config.Config, lg *logger.Logger) error {
	a, err := newApp(ctx, cfg, lg)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.close(); err != nil {
			lg.Error("failed to close storage", "error", err)
		}
	}()

	var sl model.SecurityLayer
	if cfg.GRPC.EnableHTTPS {
		sl = server.NewTLSListener(cfg.GRPC.CertFileName, cfg.GRPC.PrivateKeyFileName)
	} else {
		sl = server.NewPlainListener()
	}

	a.scheduler.Start(ctx)
	defer a.scheduler.Stop()

	serveErr := make(chan error, 1)
	var wg sync.WaitGroup
	wg.Add(1)
	go func(s model.Server) {
		defer wg.Done()
		lg.Info("starting server", "address", s.Address(), "tls", cfg.GRPC.EnableHTTPS)
		serveErr <- s.Start(sl)
	}(a.server)

	select {
	case <-ctx.Done():
		lg.Info("received interruption signal, shutting down")
	case err := <-serveErr:
		wg.Wait()
		if err != nil {
			return fmt.Errorf("server stopped: %w", err)
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := a.server.Stop(shutdownCtx); err != nil {
		lg.Error("error during server shutdown", "error", err, "address", a.server.Address())
	}

	wg.Wait()
	lg.Info("shutdown complete")
	return nil
}
