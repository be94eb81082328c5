package handler

import (
	"context"

	"github.com/dtroode/securemail-server/internal/api/grpc/rpc"
	"github.com/dtroode/securemail-server/internal/logger"
	"github.com/dtroode/securemail-server/internal/model"
)

var _ rpc.AuthServer = (*Auth)(nil)

// Auth handles the unauthenticated account endpoints.
type Auth struct {
	otp      OTPService
	accounts AccountService
	logger   *logger.Logger
}

func NewAuth(otp OTPService, accounts AccountService, logger *logger.Logger) *Auth {
	return &Auth{
		otp:      otp,
		accounts: accounts,
		logger:   logger,
	}
}

// IssueOTP mails a fresh code. The code itself is never returned.
func (h *Auth) IssueOTP(ctx context.Context, req *rpc.IssueOTPRequest) (*rpc.IssueOTPResponse, error) {
	h.logger.Debug("Auth handler: issuing code", "email", req.Email, "type", req.Type)

	record, err := h.otp.Issue(ctx, req.Email, model.OTPType(req.Type))
	if err != nil {
		return nil, fail(h.logger, "Auth handler: issue code", err, "email", req.Email)
	}

	return &rpc.IssueOTPResponse{ExpiresAt: record.ExpiresAt}, nil
}

func (h *Auth) VerifyOTP(ctx context.Context, req *rpc.VerifyOTPRequest) (*rpc.VerifyOTPResponse, error) {
	if err := h.otp.Verify(ctx, req.Email, req.Code, model.OTPType(req.Type)); err != nil {
		return nil, fail(h.logger, "Auth handler: verify code", err, "email", req.Email)
	}

	return &rpc.VerifyOTPResponse{Verified: true}, nil
}

func (h *Auth) Signup(ctx context.Context, req *rpc.SignupRequest) (*rpc.SignupResponse, error) {
	id, err := h.accounts.Signup(ctx, model.SignupParams{
		Email:    req.Email,
		Code:     req.Code,
		Password: req.Password,
		FullName: req.FullName,
	})
	if err != nil {
		return nil, fail(h.logger, "Auth handler: signup", err, "email", req.Email)
	}

	h.logger.Info("Auth handler: account created", "account_id", id)

	return &rpc.SignupResponse{AccountID: id.String()}, nil
}

func (h *Auth) Login(ctx context.Context, req *rpc.LoginRequest) (*rpc.LoginResponse, error) {
	session, err := h.accounts.Login(ctx, req.Email, req.Password, req.Code)
	if err != nil {
		return nil, fail(h.logger, "Auth handler: login", err, "email", req.Email)
	}

	return &rpc.LoginResponse{
		AccountID:   session.AccountID.String(),
		Email:       session.Email,
		AccessToken: session.AccessToken,
	}, nil
}
