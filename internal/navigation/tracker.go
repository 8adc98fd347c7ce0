package navigation

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/verte-zerg/shellfolio/internal/model"
)

// HistoryStore persists a session's ordered history.
type HistoryStore interface {
	LoadHistory(ctx context.Context, session string) ([]string, error)
	AppendHistory(ctx context.Context, session, entry string) error
	ResetHistory(ctx context.Context, session, entry string) error
}

// Tracker records one page load into the session history. It is the only
// writer of the history and writes at most once per load.
type Tracker struct {
	store   HistoryStore
	session string
	opts    Options
	log     *zap.Logger

	current model.Entry
}

// NewTracker returns a tracker for the given session.
func NewTracker(store HistoryStore, session string, opts Options, log *zap.Logger) *Tracker {
	if log == nil {
		log = zap.NewNop()
	}
	return &Tracker{store: store, session: session, opts: opts, log: log, current: model.Root}
}

// ClassifyAndRecord classifies the visit and updates the stored history.
func (t *Tracker) ClassifyAndRecord(ctx context.Context, visit model.Visit) (model.Classification, error) {
	origin := t.opts.Origin
	if origin == "" {
		origin = OriginOf(visit.URL)
	}
	t.current = Normalize(visit.URL, t.opts)
	class := Classify(visit.TimingType, visit.Referrer, origin)
	t.log.Debug("classified load",
		zap.String("session", t.session),
		zap.String("class", class.String()),
		zap.String("entry", string(t.current)),
		zap.String("timing", visit.TimingType))

	switch class {
	case model.Reload:
		entries, err := t.store.LoadHistory(ctx, t.session)
		if err != nil {
			return class, fmt.Errorf("failed to load history: %w", err)
		}
		if len(entries) == 0 {
			if err := t.store.AppendHistory(ctx, t.session, string(t.current)); err != nil {
				return class, fmt.Errorf("failed to seed history: %w", err)
			}
		}
	case model.InternalNavigation:
		if err := t.store.AppendHistory(ctx, t.session, string(t.current)); err != nil {
			return class, fmt.Errorf("failed to append history: %w", err)
		}
	default:
		if err := t.store.ResetHistory(ctx, t.session, string(t.current)); err != nil {
			return class, fmt.Errorf("failed to reset history: %w", err)
		}
	}
	return class, nil
}

// AllEntries returns the session history, seeding it with the current entry when empty.
func (t *Tracker) AllEntries(ctx context.Context) (model.History, error) {
	entries, err := t.store.LoadHistory(ctx, t.session)
	if err != nil {
		return model.History{t.current}, fmt.Errorf("failed to load history: %w", err)
	}
	if len(entries) == 0 {
		if err := t.store.AppendHistory(ctx, t.session, string(t.current)); err != nil {
			return model.History{t.current}, fmt.Errorf("failed to seed history: %w", err)
		}
		return model.History{t.current}, nil
	}
	history := make(model.History, len(entries))
	for i, e := range entries {
		history[i] = model.Entry(e)
	}
	return history, nil
}

// Current returns the entry of the page being loaded.
func (t *Tracker) Current(ctx context.Context) (model.Entry, error) {
	history, err := t.AllEntries(ctx)
	return history.Last(), err
}

// Window returns at most the n most recent entries. n <= 0 keeps everything.
func Window(history model.History, n int) model.History {
	if n <= 0 || len(history) <= n {
		return history
	}
	return history[len(history)-n:]
}
