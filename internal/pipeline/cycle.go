package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"startask/internal/domain"
	"startask/internal/extraction"
	"startask/internal/mail"
	"startask/internal/platform/logger"
	"startask/internal/store"
	"startask/internal/taxonomy"
)

// Gateway is the cycle's view of the extraction gateway.
type Gateway interface {
	// CheckEnvironment reports a fatal misconfiguration, if any.
	CheckEnvironment() error

	// Extract classifies one item into a routing outcome.
	Extract(ctx context.Context, item domain.Item) extraction.Outcome
}

// TaskCommitter is the cycle's view of the committer.
type TaskCommitter interface {
	Commit(
		ctx context.Context,
		item domain.Item,
		result *domain.ExtractionResult,
		labelIDs []string,
		mode domain.ProcessMode,
	) (*domain.ProcessedRecord, error)
}

// CycleConfig holds per-cycle parameters.
type CycleConfig struct {
	// MaxResults bounds the fetched batch.
	MaxResults int
}

// Cycle orchestrates one pass: fetch, filter against the ledger, and run
// each new item through gateway, normalizer, and committer. Items are
// processed strictly sequentially in fetch order; the external services
// are rate-sensitive and must not see concurrent calls from one cycle.
type Cycle struct {
	source     mail.Source
	gateway    Gateway
	normalizer *taxonomy.Normalizer
	committer  TaskCommitter
	processed  store.ProcessedStore
	reviews    store.ReviewStore
	errorLog   store.ErrorStore
	state      store.StateStore
	cfg        CycleConfig
	logger     *slog.Logger
}

// NewCycle creates a Cycle. All dependencies are required.
func NewCycle(
	source mail.Source,
	gateway Gateway,
	normalizer *taxonomy.Normalizer,
	committer TaskCommitter,
	processed store.ProcessedStore,
	reviews store.ReviewStore,
	errorLog store.ErrorStore,
	state store.StateStore,
	cfg CycleConfig,
	log *slog.Logger,
) (*Cycle, error) {
	switch {
	case source == nil:
		return nil, errors.New("mail source cannot be nil")
	case gateway == nil:
		return nil, errors.New("gateway cannot be nil")
	case normalizer == nil:
		return nil, errors.New("normalizer cannot be nil")
	case committer == nil:
		return nil, errors.New("committer cannot be nil")
	case processed == nil:
		return nil, errors.New("processed store cannot be nil")
	case reviews == nil:
		return nil, errors.New("review store cannot be nil")
	case errorLog == nil:
		return nil, errors.New("error store cannot be nil")
	case state == nil:
		return nil, errors.New("state store cannot be nil")
	}
	if cfg.MaxResults <= 0 {
		cfg.MaxResults = 25
	}
	if log == nil {
		log = slog.Default()
	}

	return &Cycle{
		source:     source,
		gateway:    gateway,
		normalizer: normalizer,
		committer:  committer,
		processed:  processed,
		reviews:    reviews,
		errorLog:   errorLog,
		state:      state,
		cfg:        cfg,
		logger:     log.With(slog.String("component", "cycle")),
	}, nil
}

// Run executes one cycle. The returned result is always meaningful, even
// on error; Aborted is true only for a fatal environment abort.
//
// Error policy: per-item failures are recorded and never escape; an
// authentication-required fetch failure and cycle/environment errors are
// returned to the scheduler, which logs and waits for the next wake.
func (c *Cycle) Run(ctx context.Context) (domain.CycleResult, error) {
	log := logger.FromContextOrDefault(ctx, c.logger)
	var result domain.CycleResult

	startedAt := time.Now().UTC()
	if err := c.state.SetLastRunAt(ctx, startedAt); err != nil {
		// The status surface will show a stale timestamp; the cycle
		// itself can still do useful work.
		log.Warn("failed to record cycle start", slog.String("error", err.Error()))
	}

	// Environment checks are re-validated at the start of every cycle so
	// a credential appearing mid-run halts before any external call.
	if err := c.gateway.CheckEnvironment(); err != nil {
		c.appendError(ctx, domain.ErrorKindEnvironment, err.Error(), "")
		result.Aborted = true
		result.ErrorCount++
		return result, fmt.Errorf("%w: %v", ErrCycleAborted, err)
	}

	items, err := c.source.FetchStarred(ctx, c.cfg.MaxResults)
	if err != nil {
		var authErr *mail.AuthRequiredError
		if errors.As(err, &authErr) {
			// Not an error record: the remediation is operator
			// re-authentication, surfaced via the returned error.
			log.Warn("mail source requires re-authentication",
				slog.String("reauth_url", authErr.ReauthURL))
			return result, err
		}

		c.appendError(ctx, domain.ErrorKindCycle, fmt.Sprintf("fetch failed: %v", err), "")
		result.ErrorCount++
		return result, fmt.Errorf("%w: fetch: %v", ErrCycleFailed, err)
	}

	log.Info("cycle started",
		slog.Int("fetched", len(items)),
		slog.Time("started_at", startedAt))

	for _, item := range items {
		skip, err := c.alreadySeen(ctx, item.ID)
		if err != nil {
			c.appendError(ctx, domain.ErrorKindCycle,
				fmt.Sprintf("ledger lookup failed: %v", err), item.ID)
			result.ErrorCount++
			continue
		}
		if skip {
			continue
		}

		outcome := c.gateway.Extract(ctx, item)
		switch outcome.Kind {
		case extraction.KindFatal:
			c.appendError(ctx, domain.ErrorKindEnvironment, outcome.Err.Error(), item.ID)
			result.Aborted = true
			result.ErrorCount++
			log.Error("fatal extraction outcome, aborting cycle",
				slog.String("item_id", item.ID),
				slog.String("error", outcome.Err.Error()))
			return result, fmt.Errorf("%w: %v", ErrCycleAborted, outcome.Err)

		case extraction.KindFallbackRequired:
			if err := c.enqueueReview(ctx, item, outcome.Reason); err != nil {
				c.appendError(ctx, domain.ErrorKindCycle,
					fmt.Sprintf("enqueue review failed: %v", err), item.ID)
				result.ErrorCount++
				continue
			}
			result.PendingCount++

		case extraction.KindSuccess:
			labelIDs := c.normalizer.Normalize(outcome.Result.LabelIDs)
			if _, err := c.committer.Commit(ctx, item, outcome.Result, labelIDs, domain.ProcessModeAuto); err != nil {
				c.appendError(ctx, domain.ErrorKindCommit, err.Error(), item.ID)
				result.ErrorCount++
				log.Error("commit failed, item stays eligible for retry",
					slog.String("item_id", item.ID),
					slog.String("error", err.Error()))
				continue
			}
			result.ProcessedCount++
		}
	}

	log.Info("cycle finished",
		slog.Int("processed", result.ProcessedCount),
		slog.Int("pending", result.PendingCount),
		slog.Int("errors", result.ErrorCount))

	return result, nil
}

// alreadySeen reports whether the ledger already accounts for the item,
// either as processed or as awaiting review.
func (c *Cycle) alreadySeen(ctx context.Context, itemID string) (bool, error) {
	handled, err := c.processed.Exists(ctx, itemID)
	if err != nil {
		return false, err
	}
	if handled {
		return true, nil
	}
	return c.reviews.ExistsPending(ctx, itemID)
}

func (c *Cycle) enqueueReview(ctx context.Context, item domain.Item, reason string) error {
	log := logger.FromContextOrDefault(ctx, c.logger)

	review, err := domain.NewPendingReview(item)
	if err != nil {
		return err
	}

	inserted, err := c.reviews.CreateIfAbsent(ctx, review)
	if err != nil {
		return err
	}

	log.Info("item routed to human review",
		slog.String("item_id", item.ID),
		slog.String("reason", reason),
		slog.Bool("inserted", inserted))
	return nil
}

func (c *Cycle) appendError(ctx context.Context, kind domain.ErrorKind, message, itemID string) {
	log := logger.FromContextOrDefault(ctx, c.logger)

	record, err := domain.NewErrorRecord(kind, message, itemID)
	if err != nil {
		log.Error("failed to build error record", slog.String("error", err.Error()))
		return
	}
	if err := c.errorLog.Append(ctx, record); err != nil {
		log.Error("failed to append error record",
			slog.String("error", err.Error()),
			slog.String("message", message))
	}
}
