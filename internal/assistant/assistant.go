// Package assistant turns natural-language requests into catalog calls
// using a local Ollama model.
package assistant

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	mdwerror "github.com/msto63/gridwerk/foundation/core/error"
	"github.com/msto63/gridwerk/internal/command/registry"
	"github.com/msto63/gridwerk/internal/sheet"
	"github.com/msto63/gridwerk/pkg/core/logging"
)

// Chatter is the part of the Ollama client the assistant needs
type Chatter interface {
	Chat(ctx context.Context, req *ChatRequest) (*ChatResponse, error)
}

// Config holds assistant settings
type Config struct {
	Model       string
	Temperature float64
}

// Request is one natural-language request against a sheet
type Request struct {
	Message string
	Sheet   sheet.Data
}

// Plan is the model's answer: a message for the user and the calls to run
type Plan struct {
	Message   string   `json:"message"`
	Functions []string `json:"functions"`
}

// Commands joins the planned calls into one command string
func (p *Plan) Commands() string {
	return strings.Join(p.Functions, "; ")
}

// Assistant builds prompts, queries the model and decodes its plan
type Assistant struct {
	client  Chatter
	config  Config
	catalog []registry.Signature
	logger  *logging.Logger
}

// New creates an assistant for the given catalog
func New(client Chatter, cfg Config, reg *registry.Registry, logger *logging.Logger) *Assistant {
	if reg == nil {
		reg = registry.Default()
	}
	if logger == nil {
		logger = logging.New("assistant")
	}
	return &Assistant{
		client:  client,
		config:  cfg,
		catalog: reg.Signatures(),
		logger:  logger,
	}
}

// Plan asks the model which calls fulfil the request
func (a *Assistant) Plan(ctx context.Context, req Request) (*Plan, error) {
	if strings.TrimSpace(req.Message) == "" {
		return nil, mdwerror.New("assistant message cannot be empty").
			WithCode(mdwerror.CodeInvalidInput)
	}

	system, err := a.SystemPrompt(req.Sheet)
	if err != nil {
		return nil, err
	}

	resp, err := a.client.Chat(ctx, &ChatRequest{
		Model: a.config.Model,
		Messages: []ChatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: req.Message},
		},
		Format:  "json",
		Options: map[string]interface{}{"temperature": a.config.Temperature},
	})
	if err != nil {
		a.logger.Warn("Assistant request failed", "model", a.config.Model, "error", err.Error())
		return nil, mdwerror.Wrap(err, "assistant request failed").
			WithCode(mdwerror.CodeExternalServiceError).
			WithOperation("assistant.plan")
	}

	plan, err := ParsePlan(resp.Message.Content)
	if err != nil {
		a.logger.Warn("Assistant answer not usable", "model", a.config.Model, "answer", resp.Message.Content)
		return nil, err
	}

	a.logger.Debug("Assistant plan received", "model", a.config.Model, "functions", len(plan.Functions))
	return plan, nil
}

// SystemPrompt describes the task, the sheet and the function catalog
func (a *Assistant) SystemPrompt(data sheet.Data) (string, error) {
	sheetJSON, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", mdwerror.Wrap(err, "failed to encode sheet for prompt").WithCode(mdwerror.CodeInternal)
	}

	var b strings.Builder
	b.WriteString("You are a spreadsheet assistant. Interpret the user's request and answer with JSON only.\n\n")
	b.WriteString("Spreadsheet data:\n")
	b.Write(sheetJSON)
	b.WriteString("\n\nAvailable functions:\n")
	for _, sig := range a.catalog {
		fmt.Fprintf(&b, "- %s: %s. Example: %s\n", sig.String(), sig.Description, sig.Example)
	}
	b.WriteString("\nColumns are referenced by their label, rows are 1-based integers.\n")
	b.WriteString("Your answer must be a JSON object with two keys:\n")
	b.WriteString("- \"message\": a short user-facing message\n")
	b.WriteString("- \"functions\": the function calls to execute, in order, as strings\n\n")
	b.WriteString("Example answer:\n")
	b.WriteString(`{"message": "Column A is summed into B1.", "functions": ["update_cell(B, 1, 12)"]}`)
	b.WriteString("\n")
	return b.String(), nil
}

// ParsePlan decodes a model answer, tolerating markdown code fences and
// text around the JSON object
func ParsePlan(answer string) (*Plan, error) {
	text := strings.TrimSpace(answer)
	text = strings.ReplaceAll(text, "```json", "")
	text = strings.ReplaceAll(text, "```", "")
	text = strings.TrimSpace(text)

	if start, end := strings.Index(text, "{"), strings.LastIndex(text, "}"); start >= 0 && end > start {
		text = text[start : end+1]
	}

	var plan Plan
	if err := json.Unmarshal([]byte(text), &plan); err != nil {
		return nil, mdwerror.Wrap(err, "assistant answer is not valid JSON").
			WithCode(mdwerror.CodeInvalidFormat).
			WithOperation("assistant.parse")
	}

	functions := plan.Functions[:0]
	for _, f := range plan.Functions {
		if f = strings.TrimSpace(f); f != "" {
			functions = append(functions, f)
		}
	}
	plan.Functions = functions
	return &plan, nil
}
