// Package pipeline drives one turn end to end: intent triage, the retrieval
// stages for the turn's data source, streaming of the answer, structured
// summarization, and persistence of the turn ledger record.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"dataexplorer/internal/agent/ledger"
	"dataexplorer/internal/agent/react"
	"dataexplorer/internal/agent/summary"
	"dataexplorer/internal/agent/tools"
	"dataexplorer/internal/datasource"
	"dataexplorer/internal/domain"
	"dataexplorer/internal/llm"
	"dataexplorer/internal/models"
	"dataexplorer/internal/repository"
	"dataexplorer/internal/search"
	"dataexplorer/internal/warehouse"
)

// priorTurnWindow is how many stored turns feed the prompts as context.
const priorTurnWindow = 5

const (
	rateLimitMessage = "The service is handling too many requests right now. Please wait a moment and ask again."
	genericMessage   = "Something went wrong while answering your question. Please try again."
)

// Chunk is one unit of the output stream. Text chunks are display content;
// the terminal chunk has Final set and, when summarization succeeded, carries
// the structured summary.
type Chunk struct {
	Text    string          `json:"text,omitempty"`
	Summary *models.Summary `json:"summary,omitempty"`
	Final   bool            `json:"final,omitempty"`
}

// Request identifies one turn to run.
type Request struct {
	UserID      string `json:"userId"`
	SessionID   string `json:"sessionId"`
	SessionName string `json:"sessionName"`
	DataSource  string `json:"dataSource"`
	Prompt      string `json:"prompt"`
}

// Validate checks required request fields.
func (r Request) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.UserID, validation.Required),
		validation.Field(&r.SessionID, validation.Required),
		validation.Field(&r.DataSource, validation.Required),
		validation.Field(&r.Prompt, validation.Required),
	)
}

// Deps are the collaborators a pipeline Service needs.
type Deps struct {
	Registry  *datasource.Registry
	Sessions  repository.SessionRepository
	Turns     repository.TurnRepository
	Client    llm.Client
	Executor  *react.Executor
	Validator *summary.Validator
	Index     search.Index
	Warehouse warehouse.Executor
	Metadata  tools.MetadataProvider
	Mappings  map[string]string
	Logger    *slog.Logger
}

// Service runs turns. It is stateless across turns and safe for concurrent
// use; each turn owns its state exclusively.
type Service struct {
	registry  *datasource.Registry
	sessions  repository.SessionRepository
	turns     repository.TurnRepository
	client    llm.Client
	executor  *react.Executor
	validator *summary.Validator
	index     search.Index
	warehouse warehouse.Executor
	metadata  tools.MetadataProvider
	mappings  map[string]string
	logger    *slog.Logger
}

// NewService creates a pipeline Service.
func NewService(deps Deps) *Service {
	return &Service{
		registry:  deps.Registry,
		sessions:  deps.Sessions,
		turns:     deps.Turns,
		client:    deps.Client,
		executor:  deps.Executor,
		validator: deps.Validator,
		index:     deps.Index,
		warehouse: deps.Warehouse,
		metadata:  deps.Metadata,
		mappings:  deps.Mappings,
		logger:    deps.Logger,
	}
}

// turnState is the mutable working state of one turn. It is owned exclusively
// by that turn's goroutine.
type turnState struct {
	req    Request
	ds     *datasource.Descriptor
	chatID int
	prior  []models.PriorTurn

	log       models.StepLog
	usage     models.TokenUsage
	rephrased string
	notes     []string
	columns   string
	sqlCode   string
	answer    strings.Builder
}

// Run validates the request and starts the turn. The returned channel is
// unbuffered: production suspends after every chunk until the caller reads
// it. The channel is closed when the turn is complete.
func (s *Service) Run(ctx context.Context, req Request) (<-chan Chunk, error) {
	if err := req.Validate(); err != nil {
		return nil, &domain.ValidationError{Message: err.Error()}
	}
	ds, err := s.registry.Get(req.DataSource)
	if err != nil {
		return nil, &domain.ValidationError{Message: fmt.Sprintf("unknown data source %q", req.DataSource)}
	}

	chunks := make(chan Chunk)
	go s.run(ctx, req, ds, chunks)
	return chunks, nil
}

func (s *Service) run(ctx context.Context, req Request, ds *datasource.Descriptor, chunks chan<- Chunk) {
	defer close(chunks)

	emit := func(c Chunk) bool {
		select {
		case chunks <- c:
			return true
		case <-ctx.Done():
			return false
		}
	}

	// Handshake: an empty chunk confirms the stream is live before any
	// model work starts.
	if !emit(Chunk{}) {
		return
	}

	st := &turnState{req: req, ds: ds}
	logger := s.logger.With(
		slog.String("user_id", req.UserID),
		slog.String("session_id", req.SessionID),
		slog.String("data_source", ds.Name),
	)

	if err := s.begin(ctx, st); err != nil {
		logger.Error("turn setup failed", slog.String("error", err.Error()))
		emit(Chunk{Text: genericMessage})
		emit(Chunk{Final: true})
		return
	}
	logger = logger.With(slog.Int("chat_id", st.chatID))

	started := time.Now()
	runErr := s.runStages(ctx, st, emit, logger)

	var sum models.Summary
	summarized := false
	if runErr != nil {
		msg := genericMessage
		if domain.IsRateLimited(runErr) {
			msg = rateLimitMessage
		}
		logger.Error("turn failed", slog.String("error", runErr.Error()))
		emit(Chunk{Text: msg})
		st.answer.Reset()
		st.answer.WriteString(msg)
		st.log.Append(models.StepFinalOutput, msg)
		sum = models.DefaultSummary()
	} else {
		var usage models.TokenUsage
		sum, usage = s.validator.Build(ctx, ds, st.req.Prompt, st.sqlCode, st.log.Render())
		st.usage.Add(usage)
		summarized = true
	}

	if err := s.persist(ctx, st, sum); err != nil {
		logger.Error("turn persistence failed", slog.String("error", err.Error()))
	}

	logger.Info("turn complete",
		slog.Bool("failed", runErr != nil),
		slog.Int("input_tokens", st.usage.InputTokens),
		slog.Int("output_tokens", st.usage.OutputTokens),
		slog.Duration("elapsed", time.Since(started)))

	if summarized {
		emit(Chunk{Summary: &sum, Final: true})
	} else {
		emit(Chunk{Final: true})
	}
}

// begin ensures the session exists, assigns the turn index, persists the
// placeholder record, and loads prior context.
func (s *Service) begin(ctx context.Context, st *turnState) error {
	name := st.req.SessionName
	if name == "" {
		name = st.req.Prompt
	}
	err := s.sessions.Create(ctx, &models.Session{
		UserID:          st.req.UserID,
		SessionID:       st.req.SessionID,
		SessionName:     name,
		DataSource:      st.ds.Name,
		ApplicationName: st.ds.ApplicationName,
	})
	if err != nil && !errors.Is(err, domain.ErrConflict) {
		return fmt.Errorf("ensure session: %w", err)
	}

	maxID, err := s.turns.MaxChatID(ctx, st.req.SessionID)
	if err != nil {
		return fmt.Errorf("assign turn index: %w", err)
	}
	st.chatID = maxID + 1

	placeholder := ledger.BuildRecord(ledger.Turn{
		ChatID:    st.chatID,
		UserID:    st.req.UserID,
		SessionID: st.req.SessionID,
		Prompt:    st.req.Prompt,
		Summary:   models.DefaultSummary(),
		ModelName: s.client.Model(),
	}, st.ds)
	if err := s.turns.Insert(ctx, placeholder); err != nil && !errors.Is(err, domain.ErrConflict) {
		return fmt.Errorf("persist placeholder: %w", err)
	}

	st.prior, err = s.turns.ListRecent(ctx, st.req.SessionID, priorTurnWindow)
	if err != nil {
		return fmt.Errorf("load prior turns: %w", err)
	}
	// The placeholder itself is not context.
	for i, t := range st.prior {
		if t.ChatID == st.chatID {
			st.prior = append(st.prior[:i], st.prior[i+1:]...)
			break
		}
	}
	return nil
}

// runStages executes Intent and Retrieve. Panics anywhere inside become the
// returned error so the turn still persists and the stream ends cleanly.
func (s *Service) runStages(ctx context.Context, st *turnState, emit func(Chunk) bool, logger *slog.Logger) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("turn panicked: %v", r)
		}
	}()

	st.log.Append(models.StepUserQuestion, st.req.Prompt)

	stageStart := time.Now()
	decision, err := s.classifyIntent(ctx, st)
	if err != nil {
		return err
	}
	logger.Info("stage complete", slog.String("stage", "intent"), slog.Duration("elapsed", time.Since(stageStart)))

	for _, t := range referencedTurns(st.prior, decision.ChatIDs) {
		st.log.Append(models.StepPriorTurn, renderPriorTurns([]models.PriorTurn{t}))
	}

	if !decision.RunDownstream && decision.Response != "" {
		if !emit(Chunk{Text: decision.Response}) {
			return ctx.Err()
		}
		st.answer.WriteString(decision.Response)
		st.log.Append(models.StepFinalOutput, decision.Response)
		return nil
	}

	st.rephrased = decision.RephrasedQuery
	if st.rephrased == "" {
		st.rephrased = st.req.Prompt
	}

	if !st.ds.Structured {
		return s.retrieveResearch(ctx, st, emit, logger)
	}
	return s.retrieveStructured(ctx, st, emit, logger)
}

// persist writes the final ledger record over the placeholder and bumps the
// session timestamp.
func (s *Service) persist(ctx context.Context, st *turnState, sum models.Summary) error {
	record := ledger.BuildRecord(ledger.Turn{
		ChatID:          st.chatID,
		UserID:          st.req.UserID,
		SessionID:       st.req.SessionID,
		Prompt:          st.req.Prompt,
		RephrasedPrompt: st.rephrased,
		Response:        st.answer.String(),
		Summary:         sum,
		Usage:           st.usage,
		ModelName:       s.client.Model(),
	}, st.ds)

	if err := s.turns.Update(ctx, record); err != nil {
		return err
	}
	return s.sessions.Touch(ctx, st.req.UserID, st.req.SessionID)
}
