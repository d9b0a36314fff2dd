// Package grpcapi exposes the sheet service over gRPC. Messages travel as
// google.protobuf.Struct values shaped like the REST payloads.
package grpcapi

import (
	"encoding/json"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/msto63/gridwerk/internal/sheet"
	"github.com/msto63/gridwerk/internal/sheetd/service"
	"github.com/msto63/gridwerk/internal/sheetd/store"
)

// ServiceName is the fully qualified gRPC service name
const ServiceName = "gridwerk.v1.SheetService"

// ExecuteRequest runs a command string against a sheet
type ExecuteRequest struct {
	SheetID string `json:"sheet_id"`
	Command string `json:"command"`
}

// ExecuteReply is the outcome of a command string. Command errors are
// reported in Error; the call itself still succeeds.
type ExecuteReply struct {
	Text     string               `json:"text"`
	Lines    []service.LineResult `json:"lines"`
	Executed int                  `json:"executed"`
	Total    int                  `json:"total"`
	Changed  bool                 `json:"changed"`
	Saved    bool                 `json:"saved"`
	Sheet    *service.SheetView   `json:"sheet,omitempty"`
	Error    *RemoteError         `json:"error,omitempty"`
}

// RemoteError is a command error as seen by the client
type RemoteError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// SheetRequest addresses one sheet
type SheetRequest struct {
	SheetID string `json:"sheet_id"`
}

// CreateSheetRequest creates a sheet
type CreateSheetRequest struct {
	Title   string      `json:"title"`
	Rows    int         `json:"rows,omitempty"`
	Columns int         `json:"columns,omitempty"`
	Data    *sheet.Data `json:"data,omitempty"`
}

// ListSheetsReply lists stored sheets
type ListSheetsReply struct {
	Sheets []store.Summary `json:"sheets"`
}

func toStruct(v interface{}) (*structpb.Struct, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	s := &structpb.Struct{}
	if err := protojson.Unmarshal(raw, s); err != nil {
		return nil, err
	}
	return s, nil
}

func fromStruct(s *structpb.Struct, v interface{}) error {
	if s == nil {
		return nil
	}
	raw, err := protojson.Marshal(s)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, v)
}
