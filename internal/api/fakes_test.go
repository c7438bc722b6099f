package api

import (
	"context"
	"time"

	"github.com/google/uuid"

	"startask/internal/domain"
	"startask/internal/pipeline"
	"startask/internal/store"
)

// fakeStateStore serves the status and scheduler handlers in tests.
type fakeStateStore struct {
	running      bool
	runningErr   error
	lastRunAt    time.Time
	lastRunErr   error
	triggerSet    bool
	credentials   map[string]string
	credentialErr error
}

var _ store.StateStore = (*fakeStateStore)(nil)

func (s *fakeStateStore) Running(ctx context.Context) (bool, error) {
	return s.running, s.runningErr
}

func (s *fakeStateStore) SetRunning(ctx context.Context, running bool) error {
	s.running = running
	return nil
}

func (s *fakeStateStore) LastRunAt(ctx context.Context) (time.Time, error) {
	return s.lastRunAt, s.lastRunErr
}

func (s *fakeStateStore) SetLastRunAt(ctx context.Context, at time.Time) error {
	s.lastRunAt = at
	return nil
}

func (s *fakeStateStore) RequestTrigger(ctx context.Context) error {
	s.triggerSet = true
	return nil
}

func (s *fakeStateStore) ConsumeTrigger(ctx context.Context) (bool, error) {
	fired := s.triggerSet
	s.triggerSet = false
	return fired, nil
}

func (s *fakeStateStore) Credential(ctx context.Context, name string) (string, error) {
	if s.credentialErr != nil {
		return "", s.credentialErr
	}
	value, ok := s.credentials[name]
	if !ok {
		return "", store.ErrCredentialNotFound
	}
	return value, nil
}

// fakeReviewStore serves the list endpoint; write paths go through the
// resolver fake instead.
type fakeReviewStore struct {
	pending []*domain.PendingReview
	listErr error
}

var _ store.ReviewStore = (*fakeReviewStore)(nil)

func (s *fakeReviewStore) CreateIfAbsent(ctx context.Context, review *domain.PendingReview) (bool, error) {
	s.pending = append(s.pending, review)
	return true, nil
}

func (s *fakeReviewStore) ExistsPending(ctx context.Context, itemID string) (bool, error) {
	for _, review := range s.pending {
		if review.ItemID == itemID && review.Status == domain.ReviewStatusPending {
			return true, nil
		}
	}
	return false, nil
}

func (s *fakeReviewStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.PendingReview, error) {
	for _, review := range s.pending {
		if review.ID == id {
			return review, nil
		}
	}
	return nil, store.ErrReviewNotFound
}

func (s *fakeReviewStore) ListPending(ctx context.Context) ([]*domain.PendingReview, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	return s.pending, nil
}

func (s *fakeReviewStore) CountPending(ctx context.Context) (int, error) {
	if s.listErr != nil {
		return 0, s.listErr
	}
	return len(s.pending), nil
}

func (s *fakeReviewStore) Resolve(ctx context.Context, id uuid.UUID, status domain.ReviewStatus, completedAt time.Time) error {
	return nil
}

// fakeProcessedStore only needs the count for the status endpoint.
type fakeProcessedStore struct {
	total    int
	countErr error
}

var _ store.ProcessedStore = (*fakeProcessedStore)(nil)

func (s *fakeProcessedStore) Create(ctx context.Context, record *domain.ProcessedRecord) error {
	s.total++
	return nil
}

func (s *fakeProcessedStore) Exists(ctx context.Context, itemID string) (bool, error) {
	return false, nil
}

func (s *fakeProcessedStore) GetByItemID(ctx context.Context, itemID string) (*domain.ProcessedRecord, error) {
	return nil, store.ErrNotFound
}

func (s *fakeProcessedStore) CountAll(ctx context.Context) (int, error) {
	return s.total, s.countErr
}

// fakeErrorStore returns canned records for the status endpoint.
type fakeErrorStore struct {
	records []*domain.ErrorRecord
	listErr error
}

var _ store.ErrorStore = (*fakeErrorStore)(nil)

func (s *fakeErrorStore) Append(ctx context.Context, record *domain.ErrorRecord) error {
	s.records = append(s.records, record)
	return nil
}

func (s *fakeErrorStore) ListRecent(ctx context.Context, limit int) ([]*domain.ErrorRecord, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	if len(s.records) > limit {
		return s.records[:limit], nil
	}
	return s.records, nil
}

// fakeResolver records resolver calls and returns configured results.
type fakeResolver struct {
	completeRecord *domain.ProcessedRecord
	completeErr    error
	skipErr        error
	completedID    uuid.UUID
	completedInput pipeline.CompleteInput
	skippedID      uuid.UUID
}

var _ ReviewResolver = (*fakeResolver)(nil)

func (r *fakeResolver) Complete(ctx context.Context, id uuid.UUID, input pipeline.CompleteInput) (*domain.ProcessedRecord, error) {
	r.completedID = id
	r.completedInput = input
	if r.completeErr != nil {
		return nil, r.completeErr
	}
	return r.completeRecord, nil
}

func (r *fakeResolver) Skip(ctx context.Context, id uuid.UUID) error {
	r.skippedID = id
	return r.skipErr
}

// fakeControl records scheduler control calls.
type fakeControl struct {
	started   bool
	stopped   bool
	triggered bool
	err       error
}

var _ SchedulerControl = (*fakeControl)(nil)

func (c *fakeControl) Start(ctx context.Context) error {
	if c.err != nil {
		return c.err
	}
	c.started = true
	return nil
}

func (c *fakeControl) Stop(ctx context.Context) error {
	if c.err != nil {
		return c.err
	}
	c.stopped = true
	return nil
}

func (c *fakeControl) TriggerOnce(ctx context.Context) error {
	if c.err != nil {
		return c.err
	}
	c.triggered = true
	return nil
}
