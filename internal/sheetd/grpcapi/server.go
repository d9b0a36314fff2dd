package grpcapi

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	mdwerror "github.com/msto63/gridwerk/foundation/core/error"
	"github.com/msto63/gridwerk/internal/sheetd/service"
)

// ErrorCodeTrailer carries the error code of a failed call
const ErrorCodeTrailer = "x-error-code"

// SheetServer is the server API of the sheet service
type SheetServer interface {
	Execute(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	GetSheet(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	CreateSheet(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	ListSheets(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	DeleteSheet(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

type method func(srv SheetServer, ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)

func unary(name string, call method) grpc.MethodDesc {
	fullMethod := "/" + ServiceName + "/" + name
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(SheetServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
			handler := func(ctx context.Context, req interface{}) (interface{}, error) {
				return call(srv.(SheetServer), ctx, req.(*structpb.Struct))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*SheetServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("Execute", SheetServer.Execute),
		unary("GetSheet", SheetServer.GetSheet),
		unary("CreateSheet", SheetServer.CreateSheet),
		unary("ListSheets", SheetServer.ListSheets),
		unary("DeleteSheet", SheetServer.DeleteSheet),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "gridwerk/v1/sheet.proto",
}

// Register registers srv on s
func Register(s grpc.ServiceRegistrar, srv SheetServer) {
	s.RegisterService(&serviceDesc, srv)
}

// Server implements SheetServer on top of the sheet service
type Server struct {
	sheets *service.Service
}

// NewServer creates the gRPC front of the sheet service
func NewServer(sheets *service.Service) *Server {
	return &Server{sheets: sheets}
}

// Execute runs a command string
func (s *Server) Execute(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req ExecuteRequest
	if err := fromStruct(in, &req); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	if req.SheetID == "" {
		return nil, status.Error(codes.InvalidArgument, "sheet_id is required")
	}

	ex, err := s.sheets.Execute(ctx, req.SheetID, req.Command, service.SourceGRPC)
	if ex == nil {
		return nil, toStatus(ctx, err)
	}

	reply := ExecuteReply{
		Text:     ex.Text,
		Lines:    ex.Lines,
		Executed: ex.Executed,
		Total:    ex.Total,
		Changed:  ex.Changed,
		Saved:    ex.Saved,
	}
	if ex.Sheet != nil {
		view := service.View(ex.Sheet)
		reply.Sheet = &view
	}
	if ex.Err != nil {
		reply.Error = &RemoteError{Code: string(mdwerror.GetCode(ex.Err)), Message: ex.Err.Error()}
	}
	return encode(reply)
}

// GetSheet returns a sheet
func (s *Server) GetSheet(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req SheetRequest
	if err := fromStruct(in, &req); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	sh, err := s.sheets.Get(ctx, req.SheetID)
	if err != nil {
		return nil, toStatus(ctx, err)
	}
	return encode(service.View(sh))
}

// CreateSheet creates a sheet
func (s *Server) CreateSheet(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req CreateSheetRequest
	if err := fromStruct(in, &req); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	sh, err := s.sheets.Create(ctx, service.CreateRequest{
		Title:   req.Title,
		Rows:    req.Rows,
		Columns: req.Columns,
		Data:    req.Data,
	})
	if err != nil {
		return nil, toStatus(ctx, err)
	}
	return encode(service.View(sh))
}

// ListSheets lists stored sheets
func (s *Server) ListSheets(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	list, err := s.sheets.List(ctx)
	if err != nil {
		return nil, toStatus(ctx, err)
	}
	return encode(ListSheetsReply{Sheets: list})
}

// DeleteSheet deletes a sheet
func (s *Server) DeleteSheet(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req SheetRequest
	if err := fromStruct(in, &req); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	if err := s.sheets.Delete(ctx, req.SheetID); err != nil {
		return nil, toStatus(ctx, err)
	}
	return &structpb.Struct{}, nil
}

func encode(v interface{}) (*structpb.Struct, error) {
	s, err := toStruct(v)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return s, nil
}

// toStatus converts err to a gRPC status and sends its code as a trailer
func toStatus(ctx context.Context, err error) error {
	code := mdwerror.GetCode(err)
	grpc.SetTrailer(ctx, metadata.Pairs(ErrorCodeTrailer, string(code)))
	return status.Error(grpcCode(code), err.Error())
}

func grpcCode(code mdwerror.Code) codes.Code {
	switch code {
	case mdwerror.CodeNotFound:
		return codes.NotFound
	case mdwerror.CodeInvalidInput, mdwerror.CodeInvalidFormat, mdwerror.CodeInvalidLength,
		mdwerror.CodeInvalidSyntax, mdwerror.CodeUnknownFunction, mdwerror.CodeInvalidArguments:
		return codes.InvalidArgument
	case mdwerror.CodeOutOfBounds:
		return codes.OutOfRange
	case mdwerror.CodeConflict, mdwerror.CodeDuplicateEntry:
		return codes.AlreadyExists
	case mdwerror.CodeTimeout:
		return codes.DeadlineExceeded
	case mdwerror.CodeServiceUnavailable, mdwerror.CodeExternalServiceError:
		return codes.Unavailable
	case mdwerror.CodeDataCorruption:
		return codes.DataLoss
	default:
		return codes.Internal
	}
}
