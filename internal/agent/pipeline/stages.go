package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"dataexplorer/internal/agent/react"
	"dataexplorer/internal/agent/tools"
	"dataexplorer/internal/models"
)

// retrieveResearch answers from the documentation corpus: one reasoning loop
// whose final answer is the user-visible response.
func (s *Service) retrieveResearch(ctx context.Context, st *turnState, emit func(Chunk) bool, logger *slog.Logger) error {
	start := time.Now()

	registry := tools.NewRegistry()
	registry.Register(tools.NewSearchDocs(s.index, st.ds.SectionIndex))

	result, err := s.executor.Run(ctx, st.ds.QueryInstructions, researchTask(st.rephrased), registry)
	if err != nil {
		return err
	}
	st.usage.Add(result.Usage)
	appendSteps(st, result.Steps)

	if result.Answer != "" {
		if !emit(Chunk{Text: result.Answer}) {
			return ctx.Err()
		}
		st.answer.WriteString(result.Answer)
	}
	logger.Info("stage complete", slog.String("stage", "research"), slog.Duration("elapsed", time.Since(start)))
	return nil
}

// stage is one optional step of the structured retrieval chain. Stages run in
// order; enabled gates each one on the descriptor and accumulated state.
type stage struct {
	name    string
	enabled func(st *turnState) bool
	run     func(ctx context.Context, st *turnState, emit func(Chunk) bool) error
}

// retrieveStructured runs the warehouse-backed chain: rephrase, the optional
// survey classifiers and hierarchy loop, column retrieval, query execution,
// and the token-streamed final answer.
func (s *Service) retrieveStructured(ctx context.Context, st *turnState, emit func(Chunk) bool, logger *slog.Logger) error {
	always := func(*turnState) bool { return true }
	survey := func(st *turnState) bool { return st.ds.ClassifyDenominator }

	stages := []stage{
		{name: "rephrase", enabled: always, run: s.stageRephrase},
		{name: "year_scope", enabled: survey, run: s.stageYearScope},
		{name: "denominator", enabled: survey, run: s.stageDenominator},
		{name: "columns", enabled: always, run: s.stageColumns},
		{name: "query", enabled: always, run: s.stageQuery},
		{name: "final_answer", enabled: always, run: s.stageFinalAnswer},
	}

	for _, stg := range stages {
		if !stg.enabled(st) {
			continue
		}
		start := time.Now()
		if err := stg.run(ctx, st, emit); err != nil {
			return fmt.Errorf("%s stage: %w", stg.name, err)
		}
		logger.Info("stage complete", slog.String("stage", stg.name), slog.Duration("elapsed", time.Since(start)))
	}
	return nil
}

func (s *Service) stageRephrase(ctx context.Context, st *turnState, _ func(Chunk) bool) error {
	raw, usage, err := s.client.Invoke(ctx, rephrasePrompt(st.ds.RephraseInstructions, st.rephrased, st.prior))
	st.usage.Add(usage)
	if err != nil {
		return err
	}
	st.rephrased = strings.TrimSpace(raw)
	st.log.Append(models.StepRephrase, st.rephrased)
	return nil
}

func (s *Service) stageYearScope(ctx context.Context, st *turnState, _ func(Chunk) bool) error {
	raw, usage, err := s.client.Invoke(ctx, yearScopePrompt(st.rephrased))
	st.usage.Add(usage)
	if err != nil {
		return err
	}
	st.notes = append(st.notes, "Time scope: "+strings.TrimSpace(raw))
	return nil
}

// stageDenominator classifies whether the question needs a denominator
// population and, when it does, runs the hierarchy-mapping loop to resolve it.
func (s *Service) stageDenominator(ctx context.Context, st *turnState, _ func(Chunk) bool) error {
	raw, usage, err := s.client.Invoke(ctx, denominatorPrompt(st.rephrased))
	st.usage.Add(usage)
	if err != nil {
		return err
	}

	var verdict struct {
		NeedsDenominator bool   `json:"needs_denominator"`
		Reason           string `json:"reason"`
	}
	text, err := react.ExtractJSON(raw)
	if err == nil {
		err = json.Unmarshal([]byte(text), &verdict)
	}
	if err != nil {
		// An unreadable verdict means no hierarchy work, not a failed turn.
		return nil
	}
	if !verdict.NeedsDenominator {
		return nil
	}

	registry := tools.NewRegistry()
	registry.Register(tools.NewReadMappingFile(s.mappings))

	yearScope := "all years"
	for _, note := range st.notes {
		if scope, ok := strings.CutPrefix(note, "Time scope: "); ok {
			yearScope = scope
		}
	}
	result, err := s.executor.Run(ctx, st.ds.HierarchyInstructions, hierarchyTask(st.rephrased, yearScope), registry)
	if err != nil {
		return err
	}
	st.usage.Add(result.Usage)
	appendSteps(st, result.Steps)
	if result.Answer != "" {
		st.notes = append(st.notes, "Denominator mapping: "+result.Answer)
	}
	return nil
}

func (s *Service) stageColumns(ctx context.Context, st *turnState, _ func(Chunk) bool) error {
	registry := tools.NewRegistry()
	registry.Register(tools.NewSearchColumns(s.index, st.ds.SearchIndex))
	registry.Register(tools.NewFetchMetadata(s.metadata, st.ds.Name))

	result, err := s.executor.Run(ctx, st.ds.ColumnInstructions, columnTask(st.rephrased, st.notes), registry)
	if err != nil {
		return err
	}
	st.usage.Add(result.Usage)
	appendSteps(st, result.Steps)
	st.columns = result.Answer
	return nil
}

func (s *Service) stageQuery(ctx context.Context, st *turnState, _ func(Chunk) bool) error {
	queryTool := tools.NewExecuteQuery(s.warehouse)
	registry := tools.NewRegistry()
	registry.Register(queryTool)
	registry.Register(tools.NewFetchMetadata(s.metadata, st.ds.Name))

	result, err := s.executor.Run(ctx, st.ds.QueryInstructions, queryTask(st.rephrased, st.columns, st.notes), registry)
	if err != nil {
		return err
	}
	st.usage.Add(result.Usage)
	appendSteps(st, result.Steps)
	st.sqlCode = queryTool.LastSQL()
	return nil
}

// stageFinalAnswer streams the user-facing answer token by token, forwarding
// each fragment to the caller while accumulating the full text.
func (s *Service) stageFinalAnswer(ctx context.Context, st *turnState, emit func(Chunk) bool) error {
	stream, err := s.client.Stream(ctx, finalAnswerPrompt(st.req.Prompt, &st.log))
	if err != nil {
		return err
	}

	for chunk := range stream {
		if chunk.Err != nil {
			return chunk.Err
		}
		if chunk.Usage != nil {
			st.usage.Add(*chunk.Usage)
			continue
		}
		if chunk.Text == "" {
			continue
		}
		if !emit(Chunk{Text: chunk.Text}) {
			return ctx.Err()
		}
		st.answer.WriteString(chunk.Text)
	}

	st.log.Append(models.StepFinalOutput, st.answer.String())
	return nil
}

func appendSteps(st *turnState, steps []models.AgentStep) {
	for _, step := range steps {
		st.log.Append(step.Kind, step.Payload)
	}
}
