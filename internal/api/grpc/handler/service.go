package handler

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/dtroode/securemail-server/internal/model"
)

// OTPService issues and checks one-time passcodes.
type OTPService interface {
	Issue(ctx context.Context, email string, otpType model.OTPType) (model.OTPRecord, error)
	Verify(ctx context.Context, email, code string, otpType model.OTPType) error
}

// AccountService covers signup, login and onboarding.
type AccountService interface {
	Signup(ctx context.Context, params model.SignupParams) (uuid.UUID, error)
	Login(ctx context.Context, email, password, code string) (model.Session, error)
	SetupSecretKey(ctx context.Context, accountID uuid.UUID) (string, error)
	EnrollBiometric(ctx context.Context, accountID uuid.UUID) error
}

type MessageService interface {
	Create(ctx context.Context, params model.CreateMessageParams) (model.Message, error)
	Inbox(ctx context.Context, accountID uuid.UUID) ([]model.Message, error)
	DownloadAttachment(ctx context.Context, messageID, accountID uuid.UUID) (model.Attachment, error)
	SecurityLog(ctx context.Context, messageID, accountID uuid.UUID) ([]model.SecurityLogEntry, error)
}

// GateService is the two-factor decryption gate.
type GateService interface {
	VerifyKey(ctx context.Context, messageID, recipientID uuid.UUID, key string, client model.ClientInfo) (model.KeyCheckResult, error)
	VerifyBiometric(ctx context.Context, messageID, recipientID uuid.UUID, client model.ClientInfo) (model.BiometricResult, error)
	EndSession(ctx context.Context, messageID, recipientID uuid.UUID) error
	Session(ctx context.Context, messageID, recipientID uuid.UUID) (model.DecryptionSession, error)
}

type ApprovalService interface {
	Request(ctx context.Context, params model.RequestApprovalParams) (model.ApprovalRequest, error)
	Decide(ctx context.Context, requestID, callerID uuid.UUID, approved bool) (model.ApprovalRequest, error)
	Poll(ctx context.Context, messageID, receiverID uuid.UUID) (model.ApprovalRequest, error)
	Watch(ctx context.Context, messageID, receiverID uuid.UUID, interval time.Duration, fn func(model.ApprovalRequest) error) error
	Pending(ctx context.Context, senderID uuid.UUID) ([]model.ApprovalRequest, error)
	Photo(ctx context.Context, requestID, callerID uuid.UUID) ([]byte, error)
}
