package rpc

import "time"

type IssueOTPRequest struct {
	Email string `json:"email"`
	Type  string `json:"type"`
}

type IssueOTPResponse struct {
	ExpiresAt time.Time `json:"expires_at"`
}

type VerifyOTPRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
	Type  string `json:"type"`
}

type VerifyOTPResponse struct {
	Verified bool `json:"verified"`
}

type SignupRequest struct {
	Email    string `json:"email"`
	Code     string `json:"code"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
}

type SignupResponse struct {
	AccountID string `json:"account_id"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Code     string `json:"code"`
}

type LoginResponse struct {
	AccountID   string `json:"account_id"`
	Email       string `json:"email"`
	AccessToken string `json:"access_token"`
}

type SetupSecretKeyRequest struct{}

// SetupSecretKeyResponse carries the key. It is shown once and cannot be fetched again.
type SetupSecretKeyResponse struct {
	SecretKey string `json:"secret_key"`
}

type EnrollBiometricRequest struct{}

type EnrollBiometricResponse struct{}

type CreateMessageRequest struct {
	RecipientEmail string `json:"recipient_email"`
	Subject        string `json:"subject"`
	Body           string `json:"body"`
	AttachmentName string `json:"attachment_name,omitempty"`
	Attachment     []byte `json:"attachment,omitempty"`
}

type CreateMessageResponse struct {
	Message MessageSummary `json:"message"`
}

// MessageSummary is a message as listed in an inbox. Content stays sealed.
type MessageSummary struct {
	ID             string    `json:"id"`
	SenderEmail    string    `json:"sender_email"`
	RecipientEmail string    `json:"recipient_email"`
	Subject        string    `json:"subject"`
	HasAttachment  bool      `json:"has_attachment"`
	AttachmentName string    `json:"attachment_name,omitempty"`
	KeyID          string    `json:"key_id"`
	CreatedAt      time.Time `json:"created_at"`
}

type ListInboxRequest struct{}

type ListInboxResponse struct {
	Messages []MessageSummary `json:"messages"`
}

type VerifyKeyRequest struct {
	MessageID string `json:"message_id"`
	SecretKey string `json:"secret_key"`
}

type VerifyKeyResponse struct {
	State string `json:"state"`
	KeyID string `json:"key_id"`
}

type VerifyBiometricRequest struct {
	MessageID string `json:"message_id"`
}

type VerifyBiometricResponse struct {
	State          string `json:"state"`
	Subject        string `json:"subject"`
	Content        string `json:"content"`
	HasAttachment  bool   `json:"has_attachment"`
	AttachmentName string `json:"attachment_name,omitempty"`
}

type EndSessionRequest struct {
	MessageID string `json:"message_id"`
}

type EndSessionResponse struct{}

type GetDecryptionSessionRequest struct {
	MessageID string `json:"message_id"`
}

type GetDecryptionSessionResponse struct {
	State             string `json:"state"`
	KeyVerified       bool   `json:"key_verified"`
	BiometricVerified bool   `json:"biometric_verified"`
	AttemptsRemaining int    `json:"attempts_remaining"`
}

type RequestAttachmentApprovalRequest struct {
	MessageID string `json:"message_id"`
	// SenderID is optional. When set it must match the message sender.
	SenderID string `json:"sender_id,omitempty"`
	Photo    []byte `json:"photo"`
}

type DecideAttachmentApprovalRequest struct {
	RequestID string `json:"request_id"`
	Approved  bool   `json:"approved"`
}

type PollAttachmentApprovalRequest struct {
	MessageID string `json:"message_id"`
}

type WatchAttachmentApprovalRequest struct {
	MessageID string `json:"message_id"`
	// IntervalMS overrides the server poll interval when positive.
	IntervalMS int64 `json:"interval_ms,omitempty"`
}

// ApprovalResponse wraps a single approval request.
type ApprovalResponse struct {
	Request Approval `json:"request"`
}

// Approval is an attachment approval request. The photo is fetched separately.
type Approval struct {
	ID         string     `json:"id"`
	MessageID  string     `json:"message_id"`
	SenderID   string     `json:"sender_id"`
	ReceiverID string     `json:"receiver_id"`
	Status     string     `json:"status"`
	CreatedAt  time.Time  `json:"created_at"`
	DecidedAt  *time.Time `json:"decided_at,omitempty"`
}

type ListPendingApprovalsRequest struct{}

type ListPendingApprovalsResponse struct {
	Requests []Approval `json:"requests"`
}

type GetApprovalPhotoRequest struct {
	RequestID string `json:"request_id"`
}

type GetApprovalPhotoResponse struct {
	Photo []byte `json:"photo"`
}

type DownloadAttachmentRequest struct {
	MessageID string `json:"message_id"`
}

type DownloadAttachmentResponse struct {
	Name string `json:"name"`
	Data []byte `json:"data"`
}

type ListSecurityLogRequest struct {
	MessageID string `json:"message_id"`
}

type ListSecurityLogResponse struct {
	Entries []SecurityLogEntry `json:"entries"`
}

type SecurityLogEntry struct {
	ID           string    `json:"id"`
	ActorEmail   string    `json:"actor_email"`
	AttemptType  string    `json:"attempt_type"`
	Success      bool      `json:"success"`
	AttemptCount int       `json:"attempt_count"`
	Detail       string    `json:"detail,omitempty"`
	UserAgent    string    `json:"user_agent,omitempty"`
	IPAddress    string    `json:"ip_address,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}
