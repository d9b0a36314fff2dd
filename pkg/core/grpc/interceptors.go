package grpc

import (
	"context"
	"runtime/debug"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	mdwlog "github.com/msto63/gridwerk/foundation/core/log"
	"github.com/msto63/gridwerk/pkg/core/logging"
)

var interceptorLogger atomic.Pointer[logging.Logger]

// SetLogger replaces the logger used by the interceptors
func SetLogger(l *mdwlog.Logger) {
	interceptorLogger.Store(logging.Wrap(l, "grpc"))
}

func logger() *logging.Logger {
	if l := interceptorLogger.Load(); l != nil {
		return l
	}
	interceptorLogger.CompareAndSwap(nil, logging.New("grpc"))
	return interceptorLogger.Load()
}

type requestIDKey struct{}

// RequestIDHeader is the metadata key carrying the request ID
const RequestIDHeader = "x-request-id"

// RecoveryInterceptor turns handler panics into Internal errors
func RecoveryInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (resp interface{}, err error) {
		defer recoverTo(&err, info.FullMethod)
		return handler(ctx, req)
	}
}

// StreamRecoveryInterceptor is RecoveryInterceptor for streams (health Watch)
func StreamRecoveryInterceptor() grpc.StreamServerInterceptor {
	return func(srv interface{}, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) (err error) {
		defer recoverTo(&err, info.FullMethod)
		return handler(srv, ss)
	}
}

func recoverTo(err *error, method string) {
	if r := recover(); r != nil {
		logger().Error("gRPC panic recovered", "panic", r, "method", method, "stack", string(debug.Stack()))
		*err = status.Error(codes.Internal, "internal server error")
	}
}

// LoggingInterceptor logs each call with the sheet it addressed. Server
// faults are logged as errors, caller mistakes at info.
func LoggingInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		start := time.Now()
		resp, err := handler(ctx, req)

		code := status.Code(err)
		kv := []interface{}{
			"request_id", GetRequestID(ctx),
			"method", info.FullMethod,
			"status", code.String(),
			"duration_ms", time.Since(start).Milliseconds(),
		}
		if id := sheetID(req); id != "" {
			kv = append(kv, "sheet_id", id)
		}
		switch code {
		case codes.Internal, codes.Unknown, codes.DataLoss, codes.Unavailable:
			logger().Error("gRPC request failed", append(kv, "error", err.Error())...)
		default:
			logger().Info("gRPC request", kv...)
		}
		return resp, err
	}
}

// sheetID reads the sheet_id field of a struct envelope
func sheetID(req interface{}) string {
	s, ok := req.(*structpb.Struct)
	if !ok || s == nil {
		return ""
	}
	return s.GetFields()["sheet_id"].GetStringValue()
}

// RequestIDInterceptor stores the incoming request ID in the context,
// generating one when the caller sent none, and echoes it as a header
func RequestIDInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		id := incomingRequestID(ctx)
		if id == "" {
			id = uuid.New().String()
		}
		ctx = WithRequestID(ctx, id)
		_ = grpc.SetHeader(ctx, metadata.Pairs(RequestIDHeader, id))
		return handler(ctx, req)
	}
}

// ClientRequestIDInterceptor forwards the context's request ID, or a new one
func ClientRequestIDInterceptor() grpc.UnaryClientInterceptor {
	return func(ctx context.Context, method string, req, reply interface{}, cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption) error {
		id := GetRequestID(ctx)
		if id == "" {
			id = uuid.New().String()
		}
		ctx = metadata.AppendToOutgoingContext(ctx, RequestIDHeader, id)
		return invoker(ctx, method, req, reply, cc, opts...)
	}
}

// ClientLoggingInterceptor logs outgoing calls at debug level
func ClientLoggingInterceptor() grpc.UnaryClientInterceptor {
	return func(ctx context.Context, method string, req, reply interface{}, cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption) error {
		start := time.Now()
		err := invoker(ctx, method, req, reply, cc, opts...)
		logger().Debug("gRPC client request",
			"method", method,
			"target", cc.Target(),
			"status", status.Code(err).String(),
			"duration_ms", time.Since(start).Milliseconds(),
		)
		return err
	}
}

// GetRequestID returns the request ID stored in ctx or, failing that, the
// one in the incoming metadata
func GetRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey{}).(string); ok {
		return id
	}
	return incomingRequestID(ctx)
}

func incomingRequestID(ctx context.Context) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	if values := md.Get(RequestIDHeader); len(values) > 0 {
		return values[0]
	}
	return ""
}

// WithRequestID stores a request ID in the context
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, requestID)
}
