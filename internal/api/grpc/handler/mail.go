package handler

import (
	"context"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"

	"github.com/dtroode/securemail-server/internal/api/grpc/rpc"
	"github.com/dtroode/securemail-server/internal/logger"
	"github.com/dtroode/securemail-server/internal/model"
)

// minWatchInterval bounds how often a client may make the server poll.
const minWatchInterval = 500 * time.Millisecond

var _ rpc.MailServer = (*Mail)(nil)

// Mail handles the authenticated endpoints. Every call acts as the caller
// put into the context by the authenticate interceptor.
type Mail struct {
	accounts       AccountService
	messages       MessageService
	gate           GateService
	approvals      ApprovalService
	contextManager model.ContextManager
	pollInterval   time.Duration
	logger         *logger.Logger
}

func NewMail(
	accounts AccountService,
	messages MessageService,
	gate GateService,
	approvals ApprovalService,
	contextManager model.ContextManager,
	pollInterval time.Duration,
	logger *logger.Logger,
) *Mail {
	return &Mail{
		accounts:       accounts,
		messages:       messages,
		gate:           gate,
		approvals:      approvals,
		contextManager: contextManager,
		pollInterval:   pollInterval,
		logger:         logger,
	}
}

func (h *Mail) SetupSecretKey(ctx context.Context, _ *rpc.SetupSecretKeyRequest) (*rpc.SetupSecretKeyResponse, error) {
	caller, err := requireCaller(ctx, h.contextManager)
	if err != nil {
		return nil, err
	}

	key, err := h.accounts.SetupSecretKey(ctx, caller.AccountID)
	if err != nil {
		return nil, fail(h.logger, "Mail handler: setup secret key", err, "account_id", caller.AccountID)
	}

	return &rpc.SetupSecretKeyResponse{SecretKey: key}, nil
}

func (h *Mail) EnrollBiometric(ctx context.Context, _ *rpc.EnrollBiometricRequest) (*rpc.EnrollBiometricResponse, error) {
	caller, err := requireCaller(ctx, h.contextManager)
	if err != nil {
		return nil, err
	}

	if err := h.accounts.EnrollBiometric(ctx, caller.AccountID); err != nil {
		return nil, fail(h.logger, "Mail handler: enroll biometric", err, "account_id", caller.AccountID)
	}

	return &rpc.EnrollBiometricResponse{}, nil
}

func (h *Mail) CreateMessage(ctx context.Context, req *rpc.CreateMessageRequest) (*rpc.CreateMessageResponse, error) {
	caller, err := requireCaller(ctx, h.contextManager)
	if err != nil {
		return nil, err
	}

	params := model.CreateMessageParams{
		SenderID:       caller.AccountID,
		RecipientEmail: req.RecipientEmail,
		Subject:        req.Subject,
		Body:           req.Body,
		AttachmentName: req.AttachmentName,
	}
	if len(req.Attachment) > 0 {
		params.Attachment = req.Attachment
	}

	message, err := h.messages.Create(ctx, params)
	if err != nil {
		return nil, fail(h.logger, "Mail handler: create message", err, "account_id", caller.AccountID)
	}

	return &rpc.CreateMessageResponse{Message: toSummary(message)}, nil
}

func (h *Mail) ListInbox(ctx context.Context, _ *rpc.ListInboxRequest) (*rpc.ListInboxResponse, error) {
	caller, err := requireCaller(ctx, h.contextManager)
	if err != nil {
		return nil, err
	}

	messages, err := h.messages.Inbox(ctx, caller.AccountID)
	if err != nil {
		return nil, fail(h.logger, "Mail handler: list inbox", err, "account_id", caller.AccountID)
	}

	resp := &rpc.ListInboxResponse{Messages: make([]rpc.MessageSummary, 0, len(messages))}
	for _, m := range messages {
		resp.Messages = append(resp.Messages, toSummary(m))
	}
	return resp, nil
}

func (h *Mail) VerifyKey(ctx context.Context, req *rpc.VerifyKeyRequest) (*rpc.VerifyKeyResponse, error) {
	caller, err := requireCaller(ctx, h.contextManager)
	if err != nil {
		return nil, err
	}
	messageID, err := parseID("message_id", req.MessageID)
	if err != nil {
		return nil, err
	}

	result, err := h.gate.VerifyKey(ctx, messageID, caller.AccountID, req.SecretKey, clientInfo(ctx))
	if err != nil {
		return nil, fail(h.logger, "Mail handler: verify key", err, "message_id", messageID)
	}

	return &rpc.VerifyKeyResponse{State: string(result.State), KeyID: result.KeyID}, nil
}

// VerifyBiometric returns the decrypted message on success. A failed check
// is PermissionDenied with the remaining attempts in the x-attempts-remaining trailer.
func (h *Mail) VerifyBiometric(ctx context.Context, req *rpc.VerifyBiometricRequest) (*rpc.VerifyBiometricResponse, error) {
	caller, err := requireCaller(ctx, h.contextManager)
	if err != nil {
		return nil, err
	}
	messageID, err := parseID("message_id", req.MessageID)
	if err != nil {
		return nil, err
	}

	result, err := h.gate.VerifyBiometric(ctx, messageID, caller.AccountID, clientInfo(ctx))
	if err != nil {
		if remaining, ok := attemptsTrailer(err); ok {
			_ = grpc.SetTrailer(ctx, metadata.Pairs(attemptsRemainingKey, remaining))
		}
		return nil, fail(h.logger, "Mail handler: verify biometric", err, "message_id", messageID)
	}

	return &rpc.VerifyBiometricResponse{
		State:          string(result.State),
		Subject:        result.Subject,
		Content:        result.Content,
		HasAttachment:  result.HasAttachment,
		AttachmentName: result.AttachmentName,
	}, nil
}

func (h *Mail) EndSession(ctx context.Context, req *rpc.EndSessionRequest) (*rpc.EndSessionResponse, error) {
	caller, err := requireCaller(ctx, h.contextManager)
	if err != nil {
		return nil, err
	}
	messageID, err := parseID("message_id", req.MessageID)
	if err != nil {
		return nil, err
	}

	if err := h.gate.EndSession(ctx, messageID, caller.AccountID); err != nil {
		return nil, fail(h.logger, "Mail handler: end session", err, "message_id", messageID)
	}

	return &rpc.EndSessionResponse{}, nil
}

func (h *Mail) GetDecryptionSession(ctx context.Context, req *rpc.GetDecryptionSessionRequest) (*rpc.GetDecryptionSessionResponse, error) {
	caller, err := requireCaller(ctx, h.contextManager)
	if err != nil {
		return nil, err
	}
	messageID, err := parseID("message_id", req.MessageID)
	if err != nil {
		return nil, err
	}

	session, err := h.gate.Session(ctx, messageID, caller.AccountID)
	if err != nil {
		return nil, fail(h.logger, "Mail handler: get session", err, "message_id", messageID)
	}

	return &rpc.GetDecryptionSessionResponse{
		State:             string(session.State()),
		KeyVerified:       session.KeyVerified,
		BiometricVerified: session.BiometricVerified,
		AttemptsRemaining: session.AttemptsRemaining,
	}, nil
}

func (h *Mail) RequestAttachmentApproval(ctx context.Context, req *rpc.RequestAttachmentApprovalRequest) (*rpc.ApprovalResponse, error) {
	caller, err := requireCaller(ctx, h.contextManager)
	if err != nil {
		return nil, err
	}
	messageID, err := parseID("message_id", req.MessageID)
	if err != nil {
		return nil, err
	}

	params := model.RequestApprovalParams{
		MessageID:  messageID,
		ReceiverID: caller.AccountID,
		Photo:      req.Photo,
		Client:     clientInfo(ctx),
	}
	if req.SenderID != "" {
		if params.SenderID, err = parseID("sender_id", req.SenderID); err != nil {
			return nil, err
		}
	}

	request, err := h.approvals.Request(ctx, params)
	if err != nil {
		return nil, fail(h.logger, "Mail handler: request approval", err, "message_id", messageID)
	}

	return &rpc.ApprovalResponse{Request: toApproval(request)}, nil
}

func (h *Mail) DecideAttachmentApproval(ctx context.Context, req *rpc.DecideAttachmentApprovalRequest) (*rpc.ApprovalResponse, error) {
	caller, err := requireCaller(ctx, h.contextManager)
	if err != nil {
		return nil, err
	}
	requestID, err := parseID("request_id", req.RequestID)
	if err != nil {
		return nil, err
	}

	request, err := h.approvals.Decide(ctx, requestID, caller.AccountID, req.Approved)
	if err != nil {
		return nil, fail(h.logger, "Mail handler: decide approval", err, "request_id", requestID)
	}

	return &rpc.ApprovalResponse{Request: toApproval(request)}, nil
}

func (h *Mail) PollAttachmentApproval(ctx context.Context, req *rpc.PollAttachmentApprovalRequest) (*rpc.ApprovalResponse, error) {
	caller, err := requireCaller(ctx, h.contextManager)
	if err != nil {
		return nil, err
	}
	messageID, err := parseID("message_id", req.MessageID)
	if err != nil {
		return nil, err
	}

	request, err := h.approvals.Poll(ctx, messageID, caller.AccountID)
	if err != nil {
		return nil, fail(h.logger, "Mail handler: poll approval", err, "message_id", messageID)
	}

	return &rpc.ApprovalResponse{Request: toApproval(request)}, nil
}

// WatchAttachmentApproval streams the receiver's latest request until it is decided.
func (h *Mail) WatchAttachmentApproval(req *rpc.WatchAttachmentApprovalRequest, stream grpc.ServerStreamingServer[rpc.Approval]) error {
	ctx := stream.Context()
	caller, err := requireCaller(ctx, h.contextManager)
	if err != nil {
		return err
	}
	messageID, err := parseID("message_id", req.MessageID)
	if err != nil {
		return err
	}

	interval := h.pollInterval
	if req.IntervalMS > 0 {
		interval = max(time.Duration(req.IntervalMS)*time.Millisecond, minWatchInterval)
	}

	err = h.approvals.Watch(ctx, messageID, caller.AccountID, interval, func(request model.ApprovalRequest) error {
		approval := toApproval(request)
		return stream.Send(&approval)
	})
	if err != nil {
		return fail(h.logger, "Mail handler: watch approval", err, "message_id", messageID)
	}

	return nil
}

func (h *Mail) ListPendingApprovals(ctx context.Context, _ *rpc.ListPendingApprovalsRequest) (*rpc.ListPendingApprovalsResponse, error) {
	caller, err := requireCaller(ctx, h.contextManager)
	if err != nil {
		return nil, err
	}

	requests, err := h.approvals.Pending(ctx, caller.AccountID)
	if err != nil {
		return nil, fail(h.logger, "Mail handler: list pending approvals", err, "account_id", caller.AccountID)
	}

	resp := &rpc.ListPendingApprovalsResponse{Requests: make([]rpc.Approval, 0, len(requests))}
	for _, r := range requests {
		resp.Requests = append(resp.Requests, toApproval(r))
	}
	return resp, nil
}

func (h *Mail) GetApprovalPhoto(ctx context.Context, req *rpc.GetApprovalPhotoRequest) (*rpc.GetApprovalPhotoResponse, error) {
	caller, err := requireCaller(ctx, h.contextManager)
	if err != nil {
		return nil, err
	}
	requestID, err := parseID("request_id", req.RequestID)
	if err != nil {
		return nil, err
	}

	photo, err := h.approvals.Photo(ctx, requestID, caller.AccountID)
	if err != nil {
		return nil, fail(h.logger, "Mail handler: get approval photo", err, "request_id", requestID)
	}

	return &rpc.GetApprovalPhotoResponse{Photo: photo}, nil
}

func (h *Mail) DownloadAttachment(ctx context.Context, req *rpc.DownloadAttachmentRequest) (*rpc.DownloadAttachmentResponse, error) {
	caller, err := requireCaller(ctx, h.contextManager)
	if err != nil {
		return nil, err
	}
	messageID, err := parseID("message_id", req.MessageID)
	if err != nil {
		return nil, err
	}

	attachment, err := h.messages.DownloadAttachment(ctx, messageID, caller.AccountID)
	if err != nil {
		return nil, fail(h.logger, "Mail handler: download attachment", err, "message_id", messageID)
	}

	return &rpc.DownloadAttachmentResponse{Name: attachment.Name, Data: attachment.Data}, nil
}

func (h *Mail) ListSecurityLog(ctx context.Context, req *rpc.ListSecurityLogRequest) (*rpc.ListSecurityLogResponse, error) {
	caller, err := requireCaller(ctx, h.contextManager)
	if err != nil {
		return nil, err
	}
	messageID, err := parseID("message_id", req.MessageID)
	if err != nil {
		return nil, err
	}

	entries, err := h.messages.SecurityLog(ctx, messageID, caller.AccountID)
	if err != nil {
		return nil, fail(h.logger, "Mail handler: list security log", err, "message_id", messageID)
	}

	resp := &rpc.ListSecurityLogResponse{Entries: make([]rpc.SecurityLogEntry, 0, len(entries))}
	for _, e := range entries {
		resp.Entries = append(resp.Entries, rpc.SecurityLogEntry{
			ID:           e.ID.String(),
			ActorEmail:   e.ActorEmail,
			AttemptType:  string(e.AttemptType),
			Success:      e.Success,
			AttemptCount: e.AttemptCount,
			Detail:       e.Detail,
			UserAgent:    e.UserAgent,
			IPAddress:    e.IPAddress,
			CreatedAt:    e.CreatedAt,
		})
	}
	return resp, nil
}

func toSummary(m model.Message) rpc.MessageSummary {
	return rpc.MessageSummary{
		ID:             m.ID.String(),
		SenderEmail:    m.SenderEmail,
		RecipientEmail: m.RecipientEmail,
		Subject:        m.Subject,
		HasAttachment:  m.HasAttachment(),
		AttachmentName: m.AttachmentName,
		KeyID:          m.KeyID(),
		CreatedAt:      m.CreatedAt,
	}
}

func toApproval(r model.ApprovalRequest) rpc.Approval {
	return rpc.Approval{
		ID:         r.ID.String(),
		MessageID:  r.EmailID.String(),
		SenderID:   r.SenderID.String(),
		ReceiverID: r.ReceiverID.String(),
		Status:     string(r.Status),
		CreatedAt:  r.CreatedAt,
		DecidedAt:  r.DecidedAt,
	}
}
