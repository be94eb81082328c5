package rpc

import (
	"context"

	"google.golang.org/grpc"
)

const (
	AuthServiceName = "securemail.v1.Auth"
	MailServiceName = "securemail.v1.Mail"
)

// AuthServer serves the unauthenticated account endpoints.
type AuthServer interface {
	IssueOTP(context.Context, *IssueOTPRequest) (*IssueOTPResponse, error)
	VerifyOTP(context.Context, *VerifyOTPRequest) (*VerifyOTPResponse, error)
	Signup(context.Context, *SignupRequest) (*SignupResponse, error)
	Login(context.Context, *LoginRequest) (*LoginResponse, error)
}

// MailServer serves everything that needs an access token.
type MailServer interface {
	SetupSecretKey(context.Context, *SetupSecretKeyRequest) (*SetupSecretKeyResponse, error)
	EnrollBiometric(context.Context, *EnrollBiometricRequest) (*EnrollBiometricResponse, error)
	CreateMessage(context.Context, *CreateMessageRequest) (*CreateMessageResponse, error)
	ListInbox(context.Context, *ListInboxRequest) (*ListInboxResponse, error)
	VerifyKey(context.Context, *VerifyKeyRequest) (*VerifyKeyResponse, error)
	VerifyBiometric(context.Context, *VerifyBiometricRequest) (*VerifyBiometricResponse, error)
	EndSession(context.Context, *EndSessionRequest) (*EndSessionResponse, error)
	GetDecryptionSession(context.Context, *GetDecryptionSessionRequest) (*GetDecryptionSessionResponse, error)
	RequestAttachmentApproval(context.Context, *RequestAttachmentApprovalRequest) (*ApprovalResponse, error)
	DecideAttachmentApproval(context.Context, *DecideAttachmentApprovalRequest) (*ApprovalResponse, error)
	PollAttachmentApproval(context.Context, *PollAttachmentApprovalRequest) (*ApprovalResponse, error)
	WatchAttachmentApproval(*WatchAttachmentApprovalRequest, grpc.ServerStreamingServer[Approval]) error
	ListPendingApprovals(context.Context, *ListPendingApprovalsRequest) (*ListPendingApprovalsResponse, error)
	GetApprovalPhoto(context.Context, *GetApprovalPhotoRequest) (*GetApprovalPhotoResponse, error)
	DownloadAttachment(context.Context, *DownloadAttachmentRequest) (*DownloadAttachmentResponse, error)
	ListSecurityLog(context.Context, *ListSecurityLogRequest) (*ListSecurityLogResponse, error)
}

// FullMethod returns the route of method on service, as seen by interceptors.
func FullMethod(service, method string) string {
	return "/" + service + "/" + method
}

// unary builds the method descriptor for one request/response call.
func unary[S any, Req any, Resp any](service, method string, call func(S, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: method,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			s := srv.(S)
			if interceptor == nil {
				return call(s, ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: FullMethod(service, method)}
			return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
				return call(s, ctx, req.(*Req))
			})
		},
	}
}

var AuthServiceDesc = grpc.ServiceDesc{
	ServiceName: AuthServiceName,
	HandlerType: (*AuthServer)(nil),
	Methods: []grpc.MethodDesc{
		unary(AuthServiceName, "IssueOTP", AuthServer.IssueOTP),
		unary(AuthServiceName, "VerifyOTP", AuthServer.VerifyOTP),
		unary(AuthServiceName, "Signup", AuthServer.Signup),
		unary(AuthServiceName, "Login", AuthServer.Login),
	},
	Metadata: "securemail/v1/auth",
}

var MailServiceDesc = grpc.ServiceDesc{
	ServiceName: MailServiceName,
	HandlerType: (*MailServer)(nil),
	Methods: []grpc.MethodDesc{
		unary(MailServiceName, "SetupSecretKey", MailServer.SetupSecretKey),
		unary(MailServiceName, "EnrollBiometric", MailServer.EnrollBiometric),
		unary(MailServiceName, "CreateMessage", MailServer.CreateMessage),
		unary(MailServiceName, "ListInbox", MailServer.ListInbox),
		unary(MailServiceName, "VerifyKey", MailServer.VerifyKey),
		unary(MailServiceName, "VerifyBiometric", MailServer.VerifyBiometric),
		unary(MailServiceName, "EndSession", MailServer.EndSession),
		unary(MailServiceName, "GetDecryptionSession", MailServer.GetDecryptionSession),
		unary(MailServiceName, "RequestAttachmentApproval", MailServer.RequestAttachmentApproval),
		unary(MailServiceName, "DecideAttachmentApproval", MailServer.DecideAttachmentApproval),
		unary(MailServiceName, "PollAttachmentApproval", MailServer.PollAttachmentApproval),
		unary(MailServiceName, "ListPendingApprovals", MailServer.ListPendingApprovals),
		unary(MailServiceName, "GetApprovalPhoto", MailServer.GetApprovalPhoto),
		unary(MailServiceName, "DownloadAttachment", MailServer.DownloadAttachment),
		unary(MailServiceName, "ListSecurityLog", MailServer.ListSecurityLog),
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "WatchAttachmentApproval",
			ServerStreams: true,
			Handler: func(srv any, stream grpc.ServerStream) error {
				in := new(WatchAttachmentApprovalRequest)
				if err := stream.RecvMsg(in); err != nil {
					return err
				}
				return srv.(MailServer).WatchAttachmentApproval(in, &grpc.GenericServerStream[WatchAttachmentApprovalRequest, Approval]{ServerStream: stream})
			},
		},
	},
	Metadata: "securemail/v1/mail",
}

func RegisterAuthServer(s grpc.ServiceRegistrar, srv AuthServer) {
	s.RegisterService(&AuthServiceDesc, srv)
}

func RegisterMailServer(s grpc.ServiceRegistrar, srv MailServer) {
	s.RegisterService(&MailServiceDesc, srv)
}
