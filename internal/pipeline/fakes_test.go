package pipeline

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"startask/internal/domain"
	"startask/internal/extraction"
	"startask/internal/store"
	"startask/internal/tracker"
)

// In-memory fakes for the pipeline's collaborators. They implement the real
// contracts including error semantics (ErrProcessedRecordExists on dedup
// violations, insert-if-absent reviews) so the tests exercise the same paths
// the Postgres stores would.

type fakeSource struct {
	mu       sync.Mutex
	items    []domain.Item
	fetchErr error
	markErr  error
	marked   []string
}

func (s *fakeSource) FetchStarred(_ context.Context, maxResults int) ([]domain.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fetchErr != nil {
		return nil, s.fetchErr
	}
	if maxResults > 0 && len(s.items) > maxResults {
		return append([]domain.Item(nil), s.items[:maxResults]...), nil
	}
	return append([]domain.Item(nil), s.items...), nil
}

func (s *fakeSource) MarkHandled(_ context.Context, itemID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.markErr != nil {
		return s.markErr
	}
	s.marked = append(s.marked, itemID)
	return nil
}

type fakeTracker struct {
	mu      sync.Mutex
	created []tracker.NewTask
	failOn  map[string]error // keyed by task content
	nextID  int
}

func (f *fakeTracker) CreateTask(_ context.Context, task tracker.NewTask) (*tracker.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.failOn[task.Content]; ok {
		return nil, err
	}
	f.nextID++
	f.created = append(f.created, task)
	return &tracker.Task{
		ID:          uuid.NewString(),
		Content:     task.Content,
		Description: task.Description,
		Labels:      task.Labels,
	}, nil
}

type fakeGateway struct {
	envErr   error
	outcomes map[string]extraction.Outcome // keyed by item ID
	calls    []string
}

func (g *fakeGateway) CheckEnvironment() error { return g.envErr }

func (g *fakeGateway) Extract(_ context.Context, item domain.Item) extraction.Outcome {
	g.calls = append(g.calls, item.ID)
	if out, ok := g.outcomes[item.ID]; ok {
		return out
	}
	return extraction.Fallback("no outcome configured")
}

type memProcessed struct {
	mu        sync.Mutex
	byItemID  map[string]*domain.ProcessedRecord
	createErr error
	existsErr error
}

func newMemProcessed() *memProcessed {
	return &memProcessed{byItemID: make(map[string]*domain.ProcessedRecord)}
}

func (m *memProcessed) Create(_ context.Context, record *domain.ProcessedRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	if _, exists := m.byItemID[record.ItemID]; exists {
		return store.ErrProcessedRecordExists
	}
	m.byItemID[record.ItemID] = record
	return nil
}

func (m *memProcessed) Exists(_ context.Context, itemID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.existsErr != nil {
		return false, m.existsErr
	}
	_, ok := m.byItemID[itemID]
	return ok, nil
}

func (m *memProcessed) GetByItemID(_ context.Context, itemID string) (*domain.ProcessedRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	record, ok := m.byItemID[itemID]
	if !ok {
		return nil, store.ErrNotFound
	}
	return record, nil
}

func (m *memProcessed) CountAll(_ context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.byItemID), nil
}

type memReviews struct {
	mu       sync.Mutex
	byItemID map[string]*domain.PendingReview
	byID     map[uuid.UUID]*domain.PendingReview
}

func newMemReviews() *memReviews {
	return &memReviews{
		byItemID: make(map[string]*domain.PendingReview),
		byID:     make(map[uuid.UUID]*domain.PendingReview),
	}
}

func (m *memReviews) CreateIfAbsent(_ context.Context, review *domain.PendingReview) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.byItemID[review.ItemID]; exists {
		return false, nil
	}
	copied := *review
	m.byItemID[review.ItemID] = &copied
	m.byID[review.ID] = &copied
	return true, nil
}

func (m *memReviews) ExistsPending(_ context.Context, itemID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	review, ok := m.byItemID[itemID]
	return ok && review.Status == domain.ReviewStatusPending, nil
}

func (m *memReviews) GetByID(_ context.Context, id uuid.UUID) (*domain.PendingReview, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	review, ok := m.byID[id]
	if !ok {
		return nil, store.ErrReviewNotFound
	}
	copied := *review
	return &copied, nil
}

func (m *memReviews) ListPending(_ context.Context) ([]*domain.PendingReview, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var pending []*domain.PendingReview
	for _, review := range m.byItemID {
		if review.Status == domain.ReviewStatusPending {
			copied := *review
			pending = append(pending, &copied)
		}
	}
	return pending, nil
}

func (m *memReviews) CountPending(_ context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, review := range m.byItemID {
		if review.Status == domain.ReviewStatusPending {
			count++
		}
	}
	return count, nil
}

func (m *memReviews) Resolve(_ context.Context, id uuid.UUID, status domain.ReviewStatus, completedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	review, ok := m.byID[id]
	if !ok || review.Status != domain.ReviewStatusPending {
		return store.ErrReviewNotFound
	}
	review.Status = status
	review.CompletedAt = &completedAt
	return nil
}

type memErrors struct {
	mu      sync.Mutex
	records []*domain.ErrorRecord
}

func (m *memErrors) Append(_ context.Context, record *domain.ErrorRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, record)
	return nil
}

func (m *memErrors) ListRecent(_ context.Context, limit int) ([]*domain.ErrorRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	records := append([]*domain.ErrorRecord(nil), m.records...)
	for i, j := 0, len(records)-1; i < j; i, j = i+1, j-1 {
		records[i], records[j] = records[j], records[i]
	}
	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}

type memState struct {
	mu          sync.Mutex
	running     bool
	lastRunAt   time.Time
	trigger     bool
	credentials map[string]string
	setLastErr  error
}

func (m *memState) Running(_ context.Context) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running, nil
}

func (m *memState) SetRunning(_ context.Context, running bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.running = running
	return nil
}

func (m *memState) LastRunAt(_ context.Context) (time.Time, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastRunAt, nil
}

func (m *memState) SetLastRunAt(_ context.Context, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.setLastErr != nil {
		return m.setLastErr
	}
	m.lastRunAt = at
	return nil
}

func (m *memState) RequestTrigger(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.trigger = true
	return nil
}

func (m *memState) ConsumeTrigger(_ context.Context) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	was := m.trigger
	m.trigger = false
	return was, nil
}

func (m *memState) Credential(_ context.Context, name string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	value, ok := m.credentials[name]
	if !ok {
		return "", store.ErrCredentialNotFound
	}
	return value, nil
}

var (
	_ store.ProcessedStore = (*memProcessed)(nil)
	_ store.ReviewStore    = (*memReviews)(nil)
	_ store.ErrorStore     = (*memErrors)(nil)
	_ store.StateStore     = (*memState)(nil)
)
