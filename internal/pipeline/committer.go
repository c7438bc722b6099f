package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"startask/internal/domain"
	"startask/internal/mail"
	"startask/internal/platform/logger"
	"startask/internal/store"
	"startask/internal/taxonomy"
	"startask/internal/tracker"
)

// Committer commits one normalized extraction result to the tracker and
// records the durable outcome. Its three steps fail independently:
//
//  1. create the tracker task: failure propagates as ErrCommitFailed and
//     nothing is recorded, so the item retries on a later cycle;
//  2. mark the source item handled: best-effort, logged on failure, never
//     rolls back step 1 (the task is the durable fact of record);
//  3. write the processed record.
type Committer struct {
	tracker   tracker.Tracker
	source    mail.Source
	processed store.ProcessedStore
	registry  *taxonomy.Registry
	logger    *slog.Logger
}

// NewCommitter creates a Committer. All dependencies are required.
func NewCommitter(
	trk tracker.Tracker,
	source mail.Source,
	processed store.ProcessedStore,
	registry *taxonomy.Registry,
	log *slog.Logger,
) (*Committer, error) {
	if trk == nil {
		return nil, errors.New("tracker cannot be nil")
	}
	if source == nil {
		return nil, errors.New("mail source cannot be nil")
	}
	if processed == nil {
		return nil, errors.New("processed store cannot be nil")
	}
	if registry == nil {
		return nil, errors.New("registry cannot be nil")
	}
	if log == nil {
		log = slog.Default()
	}

	return &Committer{
		tracker:   trk,
		source:    source,
		processed: processed,
		registry:  registry,
		logger:    log.With(slog.String("component", "committer")),
	}, nil
}

// Commit creates the task for the given item and already-normalized label
// ids, applies the handled side effects, and records the processed record.
// labelIDs must be the normalizer's output; an id missing from the
// registry at this point is a programming error reported as ErrCommitFailed.
func (c *Committer) Commit(
	ctx context.Context,
	item domain.Item,
	result *domain.ExtractionResult,
	labelIDs []string,
	mode domain.ProcessMode,
) (*domain.ProcessedRecord, error) {
	log := logger.FromContextOrDefault(ctx, c.logger)

	displayLabels := make([]string, 0, len(labelIDs))
	for _, id := range labelIDs {
		display, err := c.registry.DisplayString(id)
		if err != nil {
			return nil, fmt.Errorf("%w: translate label %q: %v", ErrCommitFailed, id, err)
		}
		displayLabels = append(displayLabels, display)
	}

	task, err := c.tracker.CreateTask(ctx, tracker.NewTask{
		Content:     result.TaskTitle,
		Description: ComposeDescription(item.Sender, item.Subject, result.Notes, item.SourceLink),
		Labels:      displayLabels,
		DueString:   result.DueHint,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: create task: %v", ErrCommitFailed, err)
	}

	log.Info("tracker task created",
		slog.String("item_id", item.ID),
		slog.String("task_id", task.ID),
		slog.String("mode", string(mode)))

	// Best-effort: the task exists, so the processed record is written
	// regardless of whether the source item's visual state updates.
	if mode == domain.ProcessModeAuto {
		if err := c.source.MarkHandled(ctx, item.ID); err != nil {
			log.Warn("failed to mark source item handled",
				slog.String("item_id", item.ID),
				slog.String("error", err.Error()))
		}
	}

	record, err := domain.NewProcessedRecord(item.ID, task.ID, result.TaskTitle, labelIDs, mode)
	if err != nil {
		return nil, fmt.Errorf("%w: build processed record: %v", ErrCommitFailed, err)
	}

	if err := c.processed.Create(ctx, record); err != nil {
		return nil, fmt.Errorf("%w: record outcome: %v", ErrCommitFailed, err)
	}

	return record, nil
}
