package assistant

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	mdwerror "github.com/msto63/gridwerk/foundation/core/error"
	mdwlog "github.com/msto63/gridwerk/foundation/core/log"
	"github.com/msto63/gridwerk/internal/sheet"
	"github.com/msto63/gridwerk/pkg/core/logging"
)

func quietLogger() *logging.Logger {
	return logging.Wrap(mdwlog.NewWithConfig(mdwlog.Config{Output: &bytes.Buffer{}}), "assistant")
}

func TestParsePlan(t *testing.T) {
	tests := []struct {
		name     string
		answer   string
		wantErr  bool
		wantMsg  string
		wantFunc []string
	}{
		{
			name:     "plain json",
			answer:   `{"message": "done", "functions": ["add_row()", "update_cell(A, 1, 5)"]}`,
			wantMsg:  "done",
			wantFunc: []string{"add_row()", "update_cell(A, 1, 5)"},
		},
		{
			name:     "fenced",
			answer:   "```json\n{\"message\": \"ok\", \"functions\": [\"sum_col('A')\"]}\n```",
			wantMsg:  "ok",
			wantFunc: []string{"sum_col('A')"},
		},
		{
			name:     "surrounding text and blanks",
			answer:   "Sure! {\"message\": \"x\", \"functions\": [\" \", \"clear_all()\"]} Hope this helps.",
			wantMsg:  "x",
			wantFunc: []string{"clear_all()"},
		},
		{
			name:    "message only",
			answer:  `{"message": "nothing to do"}`,
			wantMsg: "nothing to do",
		},
		{
			name:    "not json",
			answer:  "I cannot help with that.",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan, err := ParsePlan(tt.answer)
			if tt.wantErr {
				if !mdwerror.HasCode(err, mdwerror.CodeInvalidFormat) {
					t.Errorf("ParsePlan() error = %v, want %s", err, mdwerror.CodeInvalidFormat)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParsePlan() error = %v", err)
			}
			if plan.Message != tt.wantMsg {
				t.Errorf("Message = %q, want %q", plan.Message, tt.wantMsg)
			}
			if strings.Join(plan.Functions, "|") != strings.Join(tt.wantFunc, "|") {
				t.Errorf("Functions = %v, want %v", plan.Functions, tt.wantFunc)
			}
		})
	}
}

func TestPlan_Commands(t *testing.T) {
	p := &Plan{Functions: []string{"add_row()", "add_col()"}}
	if got := p.Commands(); got != "add_row(); add_col()" {
		t.Errorf("Commands() = %q", got)
	}
}

func TestAssistant_SystemPrompt(t *testing.T) {
	a := New(nil, Config{Model: "m"}, nil, quietLogger())

	b := sheet.New(1, 1).Mutate()
	b.SetValue(sheet.Key{Column: "A", Row: 1}, "42")
	prompt, err := a.SystemPrompt(b.Freeze().Data())
	if err != nil {
		t.Fatalf("SystemPrompt() error = %v", err)
	}

	for _, want := range []string{
		`"A1"`,
		"update_cell(col: string, row: integer, value: string|number)",
		"replace_all(",
		`"functions"`,
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt does not contain %q", want)
		}
	}
}

func TestAssistant_Plan(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			t.Errorf("Path = %v, want /api/chat", r.URL.Path)
		}

		var req ChatRequest
		json.NewDecoder(r.Body).Decode(&req)
		if req.Model != "mistral:7b" || req.Format != "json" || req.Stream {
			t.Errorf("request = %+v", req)
		}
		if len(req.Messages) != 2 || req.Messages[1].Content != "put 5 into A1" {
			t.Errorf("Messages = %+v", req.Messages)
		}

		json.NewEncoder(w).Encode(ChatResponse{
			Model: "mistral:7b",
			Message: ChatMessage{
				Role:    "assistant",
				Content: "```json\n{\"message\": \"A1 is now 5.\", \"functions\": [\"update_cell(A, 1, 5)\"]}\n```",
			},
			Done: true,
		})
	}))
	defer server.Close()

	client := NewClient(ClientConfig{BaseURL: server.URL, Timeout: 5 * time.Second})
	a := New(client, Config{Model: "mistral:7b", Temperature: 0.1}, nil, quietLogger())

	plan, err := a.Plan(context.Background(), Request{Message: "put 5 into A1", Sheet: sheet.New(2, 2).Data()})
	if err != nil {
		t.Fatalf("Plan() error = %v", err)
	}
	if plan.Message != "A1 is now 5." || plan.Commands() != "update_cell(A, 1, 5)" {
		t.Errorf("Plan() = %+v", plan)
	}
}

func TestAssistant_PlanErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("model not loaded"))
	}))
	defer server.Close()

	a := New(NewClient(ClientConfig{BaseURL: server.URL, Timeout: 5 * time.Second}), Config{Model: "m"}, nil, quietLogger())

	_, err := a.Plan(context.Background(), Request{Message: "hi"})
	if !mdwerror.HasCode(err, mdwerror.CodeExternalServiceError) {
		t.Errorf("Plan() error = %v, want %s", err, mdwerror.CodeExternalServiceError)
	}

	_, err = a.Plan(context.Background(), Request{Message: "  "})
	if !mdwerror.HasCode(err, mdwerror.CodeInvalidInput) {
		t.Errorf("Plan(blank) error = %v, want %s", err, mdwerror.CodeInvalidInput)
	}
}

func TestClient_Ping(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/tags" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Write([]byte(`{"models": []}`))
	}))
	defer server.Close()

	client := NewClient(ClientConfig{BaseURL: server.URL, Timeout: time.Second})
	if err := client.Ping(context.Background()); err != nil {
		t.Errorf("Ping() error = %v", err)
	}
	if client.BaseURL() != server.URL {
		t.Errorf("BaseURL() = %v", client.BaseURL())
	}
}
