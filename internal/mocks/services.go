package mocks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/dtroode/securemail-server/internal/model"
)

// OTPService is a mock of handler.OTPService.
type OTPService struct {
	mock.Mock
}

func NewOTPService(t testingT) *OTPService {
	m := &OTPService{}
	register(&m.Mock, t)
	return m
}

func (_m *OTPService) Issue(ctx context.Context, email string, otpType model.OTPType) (model.OTPRecord, error) {
	ret := _m.Called(ctx, email, otpType)
	return ret.Get(0).(model.OTPRecord), errorAt(ret, 1)
}

func (_m *OTPService) Verify(ctx context.Context, email, code string, otpType model.OTPType) error {
	ret := _m.Called(ctx, email, code, otpType)
	return errorAt(ret, 0)
}

// AccountService is a mock of handler.AccountService.
type AccountService struct {
	mock.Mock
}

func NewAccountService(t testingT) *AccountService {
	m := &AccountService{}
	register(&m.Mock, t)
	return m
}

func (_m *AccountService) Signup(ctx context.Context, params model.SignupParams) (uuid.UUID, error) {
	ret := _m.Called(ctx, params)
	return ret.Get(0).(uuid.UUID), errorAt(ret, 1)
}

func (_m *AccountService) Login(ctx context.Context, email, password, code string) (model.Session, error) {
	ret := _m.Called(ctx, email, password, code)
	return ret.Get(0).(model.Session), errorAt(ret, 1)
}

func (_m *AccountService) SetupSecretKey(ctx context.Context, accountID uuid.UUID) (string, error) {
	ret := _m.Called(ctx, accountID)
	return ret.String(0), errorAt(ret, 1)
}

func (_m *AccountService) EnrollBiometric(ctx context.Context, accountID uuid.UUID) error {
	ret := _m.Called(ctx, accountID)
	return errorAt(ret, 0)
}

// MessageService is a mock of handler.MessageService.
type MessageService struct {
	mock.Mock
}

func NewMessageService(t testingT) *MessageService {
	m := &MessageService{}
	register(&m.Mock, t)
	return m
}

func (_m *MessageService) Create(ctx context.Context, params model.CreateMessageParams) (model.Message, error) {
	ret := _m.Called(ctx, params)
	return ret.Get(0).(model.Message), errorAt(ret, 1)
}

func (_m *MessageService) Inbox(ctx context.Context, accountID uuid.UUID) ([]model.Message, error) {
	ret := _m.Called(ctx, accountID)
	var messages []model.Message
	if v := ret.Get(0); v != nil {
		messages = v.([]model.Message)
	}
	return messages, errorAt(ret, 1)
}

func (_m *MessageService) DownloadAttachment(ctx context.Context, messageID, accountID uuid.UUID) (model.Attachment, error) {
	ret := _m.Called(ctx, messageID, accountID)
	return ret.Get(0).(model.Attachment), errorAt(ret, 1)
}

func (_m *MessageService) SecurityLog(ctx context.Context, messageID, accountID uuid.UUID) ([]model.SecurityLogEntry, error) {
	ret := _m.Called(ctx, messageID, accountID)
	var entries []model.SecurityLogEntry
	if v := ret.Get(0); v != nil {
		entries = v.([]model.SecurityLogEntry)
	}
	return entries, errorAt(ret, 1)
}

// GateService is a mock of handler.GateService.
type GateService struct {
	mock.Mock
}

func NewGateService(t testingT) *GateService {
	m := &GateService{}
	register(&m.Mock, t)
	return m
}

func (_m *GateService) VerifyKey(ctx context.Context, messageID, recipientID uuid.UUID, key string, client model.ClientInfo) (model.KeyCheckResult, error) {
	ret := _m.Called(ctx, messageID, recipientID, key, client)
	return ret.Get(0).(model.KeyCheckResult), errorAt(ret, 1)
}

func (_m *GateService) VerifyBiometric(ctx context.Context, messageID, recipientID uuid.UUID, client model.ClientInfo) (model.BiometricResult, error) {
	ret := _m.Called(ctx, messageID, recipientID, client)
	return ret.Get(0).(model.BiometricResult), errorAt(ret, 1)
}

func (_m *GateService) EndSession(ctx context.Context, messageID, recipientID uuid.UUID) error {
	ret := _m.Called(ctx, messageID, recipientID)
	return errorAt(ret, 0)
}

func (_m *GateService) Session(ctx context.Context, messageID, recipientID uuid.UUID) (model.DecryptionSession, error) {
	ret := _m.Called(ctx, messageID, recipientID)
	return ret.Get(0).(model.DecryptionSession), errorAt(ret, 1)
}

// ApprovalService is a mock of handler.ApprovalService.
type ApprovalService struct {
	mock.Mock
}

func NewApprovalService(t testingT) *ApprovalService {
	m := &ApprovalService{}
	register(&m.Mock, t)
	return m
}

func (_m *ApprovalService) Request(ctx context.Context, params model.RequestApprovalParams) (model.ApprovalRequest, error) {
	ret := _m.Called(ctx, params)
	return ret.Get(0).(model.ApprovalRequest), errorAt(ret, 1)
}

func (_m *ApprovalService) Decide(ctx context.Context, requestID, callerID uuid.UUID, approved bool) (model.ApprovalRequest, error) {
	ret := _m.Called(ctx, requestID, callerID, approved)
	return ret.Get(0).(model.ApprovalRequest), errorAt(ret, 1)
}

func (_m *ApprovalService) Poll(ctx context.Context, messageID, receiverID uuid.UUID) (model.ApprovalRequest, error) {
	ret := _m.Called(ctx, messageID, receiverID)
	return ret.Get(0).(model.ApprovalRequest), errorAt(ret, 1)
}

// Watch calls fn with every request listed in the first return value before returning the error.
func (_m *ApprovalService) Watch(ctx context.Context, messageID, receiverID uuid.UUID, interval time.Duration, fn func(model.ApprovalRequest) error) error {
	ret := _m.Called(ctx, messageID, receiverID, interval, fn)
	if updates, ok := ret.Get(0).([]model.ApprovalRequest); ok {
		for _, u := range updates {
			if err := fn(u); err != nil {
				return err
			}
		}
	}
	return errorAt(ret, 1)
}

func (_m *ApprovalService) Pending(ctx context.Context, senderID uuid.UUID) ([]model.ApprovalRequest, error) {
	ret := _m.Called(ctx, senderID)
	var requests []model.ApprovalRequest
	if v := ret.Get(0); v != nil {
		requests = v.([]model.ApprovalRequest)
	}
	return requests, errorAt(ret, 1)
}

func (_m *ApprovalService) Photo(ctx context.Context, requestID, callerID uuid.UUID) ([]byte, error) {
	ret := _m.Called(ctx, requestID, callerID)
	var photo []byte
	if v := ret.Get(0); v != nil {
		photo = v.([]byte)
	}
	return photo, errorAt(ret, 1)
}
