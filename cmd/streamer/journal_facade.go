package main

import (
	"context"

	"streamer/internal/api"
	"streamer/internal/journal"
	"streamer/internal/pipeline"
)

// journalAPI is the journal surface shared by the daemon and direct access.
type journalAPI interface {
	Exceptions(ctx context.Context, filter journal.Filter) ([]pipeline.ExceptionView, error)
	Artifacts(ctx context.Context, filter journal.Filter) ([]pipeline.Artifact, error)
	Clear(ctx context.Context) (int64, error)
}

// --- HTTP adapter ---

type journalHTTPAdapter struct {
	client *api.Client
}

func (a *journalHTTPAdapter) Exceptions(ctx context.Context, filter journal.Filter) ([]pipeline.ExceptionView, error) {
	resp, err := a.client.Exceptions(ctx, api.SourceJournal, filter.Stage, filter.Limit)
	if err != nil {
		return nil, err
	}
	return resp.Exceptions, nil
}

func (a *journalHTTPAdapter) Artifacts(ctx context.Context, filter journal.Filter) ([]pipeline.Artifact, error) {
	resp, err := a.client.Artifacts(ctx, api.SourceJournal, filter.Stage, filter.Limit)
	if err != nil {
		return nil, err
	}
	return resp.Artifacts, nil
}

func (a *journalHTTPAdapter) Clear(ctx context.Context) (int64, error) {
	resp, err := a.client.ClearJournal(ctx)
	if err != nil {
		return 0, err
	}
	return resp.Removed, nil
}

// --- Store adapter ---

type journalStoreAdapter struct {
	journal *journal.Journal
}

func (a *journalStoreAdapter) Exceptions(ctx context.Context, filter journal.Filter) ([]pipeline.ExceptionView, error) {
	rows, err := a.journal.ListExceptions(ctx, filter)
	if err != nil {
		return nil, err
	}
	return api.FromJournalExceptions(rows), nil
}

func (a *journalStoreAdapter) Artifacts(ctx context.Context, filter journal.Filter) ([]pipeline.Artifact, error) {
	rows, err := a.journal.ListArtifacts(ctx, filter)
	if err != nil {
		return nil, err
	}
	return api.FromJournalArtifacts(rows), nil
}

func (a *journalStoreAdapter) Clear(ctx context.Context) (int64, error) {
	return a.journal.Clear(ctx)
}

// withJournal routes through the daemon when one answers and opens the
// journal database directly otherwise.
func (c *commandContext) withJournal(ctx context.Context, fn func(journalAPI) error) error {
	if client, err := c.client(); err == nil {
		_, statusErr := client.Status(ctx)
		if statusErr == nil {
			return wrapDialError(fn(&journalHTTPAdapter{client: client}), c.apiAddress())
		}
		if !isDaemonUnreachable(statusErr) {
			return wrapDialError(statusErr, c.apiAddress())
		}
	}

	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	j, err := journal.Open(cfg)
	if err != nil {
		return err
	}
	defer j.Close()
	return fn(&journalStoreAdapter{journal: j})
}
