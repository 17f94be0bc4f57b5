package service

import (
	"context"

	"github.com/koustreak/dbchat/internal/assistant"
	"github.com/koustreak/dbchat/internal/database"
	"github.com/koustreak/dbchat/internal/history"
	"github.com/koustreak/dbchat/internal/logger"
	"github.com/koustreak/dbchat/internal/schema"
)

// RunResult is the outcome of one question answered end to end.
type RunResult struct {
	Schema  *schema.DatabaseSchema `json:"-"`
	Summary string                 `json:"summary"`
	Query   string                 `json:"query"`
	Grid    database.Grid          `json:"rows"`
	History *history.Item          `json:"history,omitempty"`
}

// Run introspects conn, asks the model for a query answering prompt, runs
// it and records it in history.
func (s *Service) Run(ctx context.Context, conn database.Connection, model, provider, prompt string) (*RunResult, error) {
	sch, err := s.GenerateSchema(ctx, conn)
	if err != nil {
		return nil, err
	}

	q, err := s.GetAISQLQuery(ctx, model, provider, prompt, sch, s.Dialect(conn.Engine))
	if err != nil {
		return nil, err
	}

	grid, err := s.GetDataTable(ctx, conn, q.Query)
	if err != nil {
		return &RunResult{Schema: sch, Summary: q.Summary, Query: q.Query}, err
	}

	res := &RunResult{Schema: sch, Summary: q.Summary, Query: q.Query, Grid: grid}
	res.History = s.record(ctx, conn, q)
	return res, nil
}

// record saves q to history. A failing history store never fails the run.
func (s *Service) record(ctx context.Context, conn database.Connection, q assistant.Query) *history.Item {
	if s.history == nil {
		return nil
	}
	item, err := s.history.Save(ctx, history.Item{
		Query:          q.Query,
		ConnectionName: conn.Name,
		Type:           history.TypeHistory,
	})
	if err != nil {
		logger.FromContext(ctx).Warnf("failed to record query history: %v", err)
		return nil
	}
	return &item
}

// PreviewTable returns up to limit rows of table, built with the engine's
// own quoting and row-limiting syntax.
func (s *Service) PreviewTable(ctx context.Context, conn database.Connection, table string, limit int) (database.Grid, error) {
	if limit <= 0 || limit > s.maxRows {
		limit = s.maxRows
	}
	sqlText, args, err := database.Select(conn.Engine, table).Limit(limit).Build()
	if err != nil {
		return nil, err
	}
	return s.execute(ctx, conn, sqlText, args...)
}
