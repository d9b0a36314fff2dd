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

// Client calls a remote sheet service
type Client struct {
	cc grpc.ClientConnInterface
}

// NewClient creates a client on an existing connection
func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

// Execute runs a command string on the remote sheet
func (c *Client) Execute(ctx context.Context, sheetID, command string) (*ExecuteReply, error) {
	var reply ExecuteReply
	if err := c.call(ctx, "Execute", ExecuteRequest{SheetID: sheetID, Command: command}, &reply); err != nil {
		return nil, err
	}
	return &reply, nil
}

// GetSheet loads a remote sheet
func (c *Client) GetSheet(ctx context.Context, sheetID string) (*service.SheetView, error) {
	var view service.SheetView
	if err := c.call(ctx, "GetSheet", SheetRequest{SheetID: sheetID}, &view); err != nil {
		return nil, err
	}
	return &view, nil
}

// CreateSheet creates a remote sheet
func (c *Client) CreateSheet(ctx context.Context, req CreateSheetRequest) (*service.SheetView, error) {
	var view service.SheetView
	if err := c.call(ctx, "CreateSheet", req, &view); err != nil {
		return nil, err
	}
	return &view, nil
}

// ListSheets lists remote sheets
func (c *Client) ListSheets(ctx context.Context) (*ListSheetsReply, error) {
	var reply ListSheetsReply
	if err := c.call(ctx, "ListSheets", struct{}{}, &reply); err != nil {
		return nil, err
	}
	return &reply, nil
}

// DeleteSheet deletes a remote sheet
func (c *Client) DeleteSheet(ctx context.Context, sheetID string) error {
	return c.call(ctx, "DeleteSheet", SheetRequest{SheetID: sheetID}, nil)
}

func (c *Client) call(ctx context.Context, method string, req, reply interface{}) error {
	in, err := toStruct(req)
	if err != nil {
		return mdwerror.Wrap(err, "failed to encode request").WithCode(mdwerror.CodeInvalidInput)
	}

	out := new(structpb.Struct)
	var trailer metadata.MD
	if err := c.cc.Invoke(ctx, "/"+ServiceName+"/"+method, in, out, grpc.Trailer(&trailer)); err != nil {
		return fromStatus(err, trailer)
	}

	if reply == nil {
		return nil
	}
	if err := fromStruct(out, reply); err != nil {
		return mdwerror.Wrap(err, "failed to decode reply").WithCode(mdwerror.CodeInvalidFormat)
	}
	return nil
}

// fromStatus restores the error code sent by the server
func fromStatus(err error, trailer metadata.MD) error {
	st, ok := status.FromError(err)
	if !ok {
		return mdwerror.Wrap(err, "remote call failed").WithCode(mdwerror.CodeExternalServiceError)
	}

	code := localCode(st.Code())
	if values := trailer.Get(ErrorCodeTrailer); len(values) > 0 && values[0] != "" {
		code = mdwerror.Code(values[0])
	}
	return mdwerror.New(st.Message()).
		WithCode(code).
		WithDetail("grpc_code", st.Code().String())
}

// localCode maps statuses that carry no error code trailer
func localCode(c codes.Code) mdwerror.Code {
	switch c {
	case codes.InvalidArgument:
		return mdwerror.CodeInvalidInput
	case codes.NotFound:
		return mdwerror.CodeNotFound
	case codes.DeadlineExceeded, codes.Canceled:
		return mdwerror.CodeTimeout
	case codes.Unavailable:
		return mdwerror.CodeServiceUnavailable
	default:
		return mdwerror.CodeExternalServiceError
	}
}
