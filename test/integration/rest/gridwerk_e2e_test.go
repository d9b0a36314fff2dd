//go:build integration

package rest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

var (
	baseURL     = getEnvOrDefault("GRIDWERK_URL", "http://localhost:8080")
	testTimeout = 15 * time.Second
)

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// ============================================================================
// Request/Response Types (matching the handler package)
// ============================================================================

type sheetView struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Version int64  `json:"version"`
	Data    struct {
		Cells       map[string]struct{ Value string } `json:"cells"`
		RowCount    int                               `json:"rowCount"`
		ColumnCount int                               `json:"columnCount"`
	} `json:"data"`
}

type executeResponse struct {
	Text     string     `json:"text"`
	Executed int        `json:"executed"`
	Changed  bool       `json:"changed"`
	Sheet    *sheetView `json:"sheet"`
	Error    *struct {
		Code    string `json:"code"`
		Details string `json:"details"`
	} `json:"error"`
}

type wsMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// ============================================================================
// Helpers
// ============================================================================

type testClient struct {
	http *http.Client
	t    *testing.T
}

func newTestClient(t *testing.T) *testClient {
	c := &testClient{http: &http.Client{Timeout: testTimeout}, t: t}
	resp, err := c.http.Get(baseURL + "/api/v1/health")
	if err != nil {
		t.Skipf("gridwerk server not available at %s: %v", baseURL, err)
	}
	resp.Body.Close()
	return c
}

func (c *testClient) do(method, path string, body, out interface{}) int {
	c.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			c.t.Fatalf("encode request: %v", err)
		}
	}
	req, err := http.NewRequest(method, baseURL+path, &buf)
	if err != nil {
		c.t.Fatalf("NewRequest() error = %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		c.t.Fatalf("%s %s error = %v", method, path, err)
	}
	defer resp.Body.Close()
	if out != nil && resp.StatusCode != http.StatusNoContent {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			c.t.Fatalf("decode %s %s: %v", method, path, err)
		}
	}
	return resp.StatusCode
}

func (c *testClient) createSheet(rows, cols int) sheetView {
	c.t.Helper()
	var view sheetView
	status := c.do(http.MethodPost, "/api/v1/sheets",
		map[string]interface{}{"title": "e2e", "rows": rows, "columns": cols}, &view)
	if status != http.StatusCreated {
		c.t.Fatalf("create sheet status = %d", status)
	}
	c.t.Cleanup(func() { c.do(http.MethodDelete, "/api/v1/sheets/"+view.ID, nil, nil) })
	return view
}

// ============================================================================
// Tests
// ============================================================================

func TestE2E_Health(t *testing.T) {
	c := newTestClient(t)
	var body map[string]interface{}
	if status := c.do(http.MethodGet, "/api/v1/health", nil, &body); status != http.StatusOK {
		t.Errorf("health status = %d, want 200", status)
	}
}

func TestE2E_Functions(t *testing.T) {
	c := newTestClient(t)
	var body struct {
		Total int `json:"total"`
	}
	c.do(http.MethodGet, "/api/v1/functions", nil, &body)
	if body.Total != 23 {
		t.Errorf("total = %d, want 23", body.Total)
	}
}

func TestE2E_Execute(t *testing.T) {
	c := newTestClient(t)
	view := c.createSheet(3, 3)
	path := "/api/v1/sheets/" + view.ID + "/execute"

	tests := []struct {
		name       string
		command    string
		wantStatus int
		wantText   string
		wantCode   string
	}{
		{
			name:       "range sum",
			command:    "update_cell(A,1,1), update_cell(B,2,2), sum_range(A,1,B,2)",
			wantStatus: http.StatusOK,
			wantText:   "update_cell(A,1,1): Cell A1 updated.\nupdate_cell(B,2,2): Cell B2 updated.\nsum_range(A,1,B,2): 3",
		},
		{
			name:       "replace",
			command:    "replace_all(2, two), find_cell(two)",
			wantStatus: http.StatusOK,
			wantText:   "replace_all(2, two): Replaced 1 instances.\nfind_cell(two): B2",
		},
		{
			name:       "out of bounds",
			command:    "get_cell(Z, 1)",
			wantStatus: http.StatusUnprocessableEntity,
			wantCode:   "OUT_OF_BOUNDS",
		},
		{
			name:       "syntax error",
			command:    "update_cell(A,1",
			wantStatus: http.StatusBadRequest,
			wantCode:   "INVALID_SYNTAX",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var resp executeResponse
			status := c.do(http.MethodPost, path, map[string]string{"command": tt.command}, &resp)
			if status != tt.wantStatus {
				t.Fatalf("status = %d, want %d", status, tt.wantStatus)
			}
			if tt.wantText != "" && resp.Text != tt.wantText {
				t.Errorf("text = %q, want %q", resp.Text, tt.wantText)
			}
			if tt.wantCode != "" && (resp.Error == nil || resp.Error.Code != tt.wantCode) {
				t.Errorf("error = %+v, want code %s", resp.Error, tt.wantCode)
			}
		})
	}
}

func TestE2E_WebSocketBroadcast(t *testing.T) {
	c := newTestClient(t)
	view := c.createSheet(2, 2)

	wsURL := "ws" + strings.TrimPrefix(baseURL, "http") + "/api/v1/sheets/" + view.ID + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(testTimeout))

	var first wsMessage
	if err := conn.ReadJSON(&first); err != nil || first.Type != "snapshot" {
		t.Fatalf("first message = %+v, err = %v, want snapshot", first, err)
	}

	c.do(http.MethodPost, "/api/v1/sheets/"+view.ID+"/execute", map[string]string{"command": "add_col()"}, nil)

	seen := map[string]bool{}
	for !seen["snapshot"] {
		var msg wsMessage
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("ReadJSON() error = %v (seen %v)", err, seen)
		}
		seen[msg.Type] = true
	}
	for _, want := range []string{"execute_command", "result"} {
		if !seen[want] {
			t.Errorf("event %q not received before snapshot (seen %v)", want, seen)
		}
	}
}

func TestE2E_History(t *testing.T) {
	c := newTestClient(t)
	view := c.createSheet(1, 1)
	for i := 0; i < 3; i++ {
		c.do(http.MethodPost, "/api/v1/sheets/"+view.ID+"/execute",
			map[string]string{"command": fmt.Sprintf("update_cell(A,1,%d)", i)}, nil)
	}
	var body struct {
		History []json.RawMessage `json:"history"`
		Total   int               `json:"total"`
	}
	status := c.do(http.MethodGet, "/api/v1/sheets/"+view.ID+"/history?limit=2", nil, &body)
	if status != http.StatusOK || len(body.History) != 2 {
		t.Errorf("history status = %d, len = %d, want 200 and 2", status, len(body.History))
	}
}
