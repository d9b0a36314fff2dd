// Package service owns stored sheets: it runs command strings against them
// one at a time per sheet, persists the outcome, keeps a history and
// notifies live subscribers.
package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	mdwerror "github.com/msto63/gridwerk/foundation/core/error"
	mdwlog "github.com/msto63/gridwerk/foundation/core/log"
	mdwstringx "github.com/msto63/gridwerk/foundation/utils/stringx"
	"github.com/msto63/gridwerk/internal/assistant"
	"github.com/msto63/gridwerk/internal/command"
	"github.com/msto63/gridwerk/internal/command/executor"
	"github.com/msto63/gridwerk/internal/sheet"
	"github.com/msto63/gridwerk/internal/sheetd/store"
	"github.com/msto63/gridwerk/pkg/core/cache"
)

// Error policies for partially executed command strings
const (
	OnErrorKeep     = "keep"
	OnErrorRollback = "rollback"
)

// Sources recorded in the history
const (
	SourceHTTP      = "http"
	SourceGRPC      = "grpc"
	SourceWebSocket = "ws"
	SourceAssistant = "assistant"
	SourceCLI       = "cli"
)

// Publisher receives sheet changes for live subscribers
type Publisher interface {
	PublishExecution(ex *Execution)
	PublishSheet(sh *store.Sheet)
}

// Planner turns natural-language requests into catalog calls
type Planner interface {
	Plan(ctx context.Context, req assistant.Request) (*assistant.Plan, error)
}

// Config holds service configuration
type Config struct {
	Store     store.Store
	Engine    *command.Engine
	Publisher Publisher
	Planner   Planner
	Logger    *mdwlog.Logger

	// OnError is keep (store partial effects) or rollback
	OnError string

	DefaultRows    int
	DefaultColumns int

	// CacheTTL for loaded sheets (default: 5 minutes)
	CacheTTL time.Duration
}

// Execution is the outcome of one command string against a stored sheet
type Execution struct {
	SheetID  string          `json:"sheet_id"`
	Command  string          `json:"command"`
	Text     string          `json:"text"`
	Lines    []LineResult    `json:"lines"`
	Executed int             `json:"executed"`
	Total    int             `json:"total"`
	Changed  bool            `json:"changed"`
	Saved    bool            `json:"saved"`
	Source   string          `json:"source"`
	Duration time.Duration   `json:"duration"`

	// Sheet is the stored state after the run
	Sheet *store.Sheet `json:"-"`

	// Err is the command error that stopped the run, if any
	Err error `json:"-"`
}

// LineResult is the result of one call within an execution
type LineResult struct {
	Call   string `json:"call"`
	Result string `json:"result"`
}

func lineResults(lines []executor.Line) []LineResult {
	out := make([]LineResult, len(lines))
	for i, l := range lines {
		out[i] = LineResult{Call: l.Command.Source, Result: l.Result}
	}
	return out
}

// CreateRequest describes a new sheet
type CreateRequest struct {
	Title   string
	Rows    int
	Columns int

	// Data seeds the sheet. Rows and Columns are ignored when set.
	Data *sheet.Data
}

// AssistResult is the outcome of an assistant request
type AssistResult struct {
	Message   string     `json:"message"`
	Functions []string   `json:"functions"`
	Execution *Execution `json:"execution,omitempty"`
}

// Service manages sheets
type Service struct {
	store     store.Store
	engine    *command.Engine
	publisher Publisher
	planner   Planner
	logger    *mdwlog.Logger
	config    Config
	sheets    *cache.Cache[*store.Sheet]

	locksMu sync.Mutex
	locks   map[string]*sync.Mutex
}

// New creates the sheet service
func New(cfg Config) (*Service, error) {
	if cfg.Store == nil {
		return nil, mdwerror.New("sheet store is required").WithCode(mdwerror.CodeServiceInitialization)
	}
	if cfg.Engine == nil {
		cfg.Engine = command.NewEngine()
	}
	if cfg.Logger == nil {
		cfg.Logger = mdwlog.GetDefault()
	}
	switch cfg.OnError {
	case "":
		cfg.OnError = OnErrorKeep
	case OnErrorKeep, OnErrorRollback:
	default:
		return nil, mdwerror.Newf("invalid error policy %q", cfg.OnError).WithCode(mdwerror.CodeInvalidConfig)
	}
	if cfg.DefaultRows <= 0 {
		cfg.DefaultRows = 20
	}
	if cfg.DefaultColumns <= 0 {
		cfg.DefaultColumns = 10
	}

	return &Service{
		store:     cfg.Store,
		engine:    cfg.Engine,
		publisher: cfg.Publisher,
		planner:   cfg.Planner,
		logger:    cfg.Logger.WithField("component", "sheet-service"),
		config:    cfg,
		sheets:    cache.New[*store.Sheet](cache.Config{MaxItems: 256, TTL: cfg.CacheTTL}),
		locks:     make(map[string]*sync.Mutex),
	}, nil
}

// SetPublisher attaches the live hub after construction
func (s *Service) SetPublisher(p Publisher) {
	s.publisher = p
}

// Engine returns the command engine
func (s *Service) Engine() *command.Engine {
	return s.engine
}

// Close releases the sheet cache
func (s *Service) Close() {
	s.sheets.Close()
}

// Create stores a new sheet
func (s *Service) Create(ctx context.Context, req CreateRequest) (*store.Sheet, error) {
	var snap sheet.Snapshot
	if req.Data != nil {
		var err error
		if snap, err = sheet.FromData(*req.Data); err != nil {
			return nil, err
		}
	} else {
		if req.Rows < 0 || req.Columns < 0 {
			return nil, mdwerror.New("rows and columns must not be negative").
				WithCode(mdwerror.CodeInvalidInput)
		}
		rows, cols := req.Rows, req.Columns
		if rows == 0 {
			rows = s.config.DefaultRows
		}
		if cols == 0 {
			cols = s.config.DefaultColumns
		}
		snap = sheet.New(rows, cols)
	}

	title := strings.TrimSpace(mdwstringx.FirstNonBlank(req.Title, "Untitled"))

	sh := &store.Sheet{
		ID:       uuid.New().String(),
		Title:    title,
		Snapshot: snap,
	}
	if err := s.store.CreateSheet(ctx, sh); err != nil {
		return nil, err
	}
	s.sheets.Set(sh.ID, sh)

	s.logger.Info("Sheet created", mdwlog.Fields{
		"sheet_id": sh.ID,
		"rows":     snap.RowCount(),
		"columns":  snap.ColumnCount(),
	})
	return sh, nil
}

// Get loads a sheet
func (s *Service) Get(ctx context.Context, id string) (*store.Sheet, error) {
	return s.sheets.GetOrSet(id, func() (*store.Sheet, error) {
		return s.store.GetSheet(ctx, id)
	})
}

// List returns all sheets
func (s *Service) List(ctx context.Context) ([]store.Summary, error) {
	return s.store.ListSheets(ctx)
}

// Delete removes a sheet and its history
func (s *Service) Delete(ctx context.Context, id string) error {
	unlock := s.lock(id)
	defer unlock()

	s.sheets.Delete(id)
	if err := s.store.DeleteSheet(ctx, id); err != nil {
		return err
	}

	s.locksMu.Lock()
	delete(s.locks, id)
	s.locksMu.Unlock()

	s.logger.Info("Sheet deleted", mdwlog.Fields{"sheet_id": id})
	return nil
}

// History returns the newest command runs of a sheet first
func (s *Service) History(ctx context.Context, id string, limit int) ([]store.HistoryEntry, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	return s.store.History(ctx, id, limit)
}

// Execute runs a command string against a stored sheet. Runs on the same
// sheet are serialized. The returned execution is non-nil whenever the
// sheet could be loaded, also when the command failed; its Err equals the
// returned error in that case.
func (s *Service) Execute(ctx context.Context, id, input, source string) (*Execution, error) {
	unlock := s.lock(id)
	defer unlock()

	sh, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	result, runErr := s.engine.Run(ctx, input, sh.Snapshot)

	ex := &Execution{
		SheetID:  id,
		Command:  input,
		Text:     result.Text(),
		Lines:    lineResults(result.Lines),
		Executed: result.Executed,
		Total:    len(result.Commands),
		Changed:  result.Changed,
		Source:   source,
		Duration: result.ExecutionTime,
		Sheet:    sh,
		Err:      runErr,
	}

	if result.Changed && (runErr == nil || s.config.OnError == OnErrorKeep) {
		updated := *sh
		updated.Snapshot = result.Snapshot
		if err := s.save(ctx, &updated); err != nil {
			return nil, err
		}
		ex.Sheet = &updated
		ex.Saved = true
	}

	s.record(ctx, ex)

	if s.publisher != nil {
		s.publisher.PublishExecution(ex)
	}
	return ex, runErr
}

// RenameColumn relabels the column at index
func (s *Service) RenameColumn(ctx context.Context, id string, index int, label string) (*store.Sheet, error) {
	unlock := s.lock(id)
	defer unlock()

	sh, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	b := sh.Snapshot.Mutate()
	if err := b.RenameColumn(index, strings.TrimSpace(label)); err != nil {
		return nil, err
	}

	updated := *sh
	updated.Snapshot = b.Freeze()
	if err := s.save(ctx, &updated); err != nil {
		return nil, err
	}

	s.logger.Info("Column renamed", mdwlog.Fields{"sheet_id": id, "index": index, "label": label})
	if s.publisher != nil {
		s.publisher.PublishSheet(&updated)
	}
	return &updated, nil
}

// Assist asks the assistant for calls and runs them against the sheet
func (s *Service) Assist(ctx context.Context, id, message string) (*AssistResult, error) {
	if s.planner == nil {
		return nil, mdwerror.New("assistant is not enabled").
			WithCode(mdwerror.CodeServiceUnavailable)
	}

	sh, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	plan, err := s.planner.Plan(ctx, assistant.Request{Message: message, Sheet: sh.Snapshot.Data()})
	if err != nil {
		return nil, err
	}

	res := &AssistResult{Message: plan.Message, Functions: plan.Functions}
	if len(plan.Functions) == 0 {
		return res, nil
	}

	ex, err := s.Execute(ctx, id, plan.Commands(), SourceAssistant)
	res.Execution = ex
	return res, err
}

// save persists sh and refreshes the cache. On failure the cached entry is
// dropped so the next read goes back to the store.
func (s *Service) save(ctx context.Context, sh *store.Sheet) error {
	if err := s.store.SaveSheet(ctx, sh); err != nil {
		s.sheets.Delete(sh.ID)
		return err
	}
	s.sheets.Set(sh.ID, sh)
	return nil
}

// record appends the run to the history; failures are logged, not returned
func (s *Service) record(ctx context.Context, ex *Execution) {
	entry := &store.HistoryEntry{
		SheetID:  ex.SheetID,
		Command:  ex.Command,
		Result:   ex.Text,
		Success:  ex.Err == nil,
		Executed: ex.Executed,
		Source:   ex.Source,
	}
	if ex.Err != nil {
		entry.Error = ex.Err.Error()
		entry.ErrorCode = string(mdwerror.GetCode(ex.Err))
	}

	if err := s.store.AppendHistory(context.WithoutCancel(ctx), entry); err != nil {
		s.logger.WarnWithErr("Failed to record history", err, mdwlog.Fields{"sheet_id": ex.SheetID})
	}
}

// lock serializes work on one sheet
func (s *Service) lock(id string) func() {
	s.locksMu.Lock()
	mu, ok := s.locks[id]
	if !ok {
		mu = &sync.Mutex{}
		s.locks[id] = mu
	}
	s.locksMu.Unlock()

	mu.Lock()
	return mu.Unlock
}
