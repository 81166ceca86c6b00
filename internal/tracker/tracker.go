// Package tracker is the headless state container behind the pipeline
// board: it mirrors live collection snapshots, applies client-side
// filtering and sorting, and turns user actions into writes against the
// collection. All remote work goes through small collaborator interfaces,
// so the package runs the same against the in-process service layer or
// against fakes.
package tracker

import (
	"context"
	"log"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/selfmadecero/onevdr/internal/domain"
)

// GenericErrorMessage is the one banner text every failed write surfaces.
// Failure kinds are deliberately indistinguishable to the user; causes are
// only logged.
const GenericErrorMessage = "Something went wrong. Please try again."

// Celebration stays active this long after a record reaches the final stage.
const celebrationDuration = 5 * time.Second

// FilterAll disables status filtering.
const FilterAll = "all"

// SortKey selects the ordering Visible applies after filtering.
type SortKey string

// Sort keys. Name and company sort ascending, case-insensitive; amount
// sorts descending with unset amounts treated as zero.
const (
	SortByName    SortKey = "name"
	SortByCompany SortKey = "company"
	SortByAmount  SortKey = "amount"
)

// Collection is the per-user record store the tracker writes through.
type Collection interface {
	List(ctx context.Context) ([]domain.Investor, error)
	Create(ctx context.Context, draft *domain.Investor) (*domain.Investor, error)
	Update(ctx context.Context, draft *domain.Investor) (*domain.Investor, error)
	Delete(ctx context.Context, id string) error
	Advance(ctx context.Context, id string) (*domain.Investor, error)
	Retreat(ctx context.Context, id string) (*domain.Investor, error)
	SetStatus(ctx context.Context, id, status string) (*domain.Investor, error)
	AddComment(ctx context.Context, id, text string) (*domain.Investor, error)
}

// StatsFetcher loads the read-only data room activity for one record.
type StatsFetcher interface {
	Stats(ctx context.Context, investorID string) (*domain.DataRoomStats, error)
}

// InsightSource recomputes the derived fields after an edit commit. A nil
// source skips the refresh entirely.
type InsightSource interface {
	PortfolioFocus(ctx context.Context, investor *domain.Investor) ([]string, error)
	Likelihood(ctx context.Context, investor *domain.Investor) (int, error)
	SuggestedActions(ctx context.Context, investor *domain.Investor) ([]string, error)
}

// Navigator routes to the per-investor detail view.
type Navigator interface {
	OpenInvestor(id string)
}

// Tracker holds the board state for one signed-in user. Snapshots arriving
// from the live feed and actions from the UI loop are serialized by one
// mutex; the next snapshot overwrites whatever optimistic state a write
// left behind.
type Tracker struct {
	mu sync.Mutex

	collection Collection
	stats      StatsFetcher
	insights   InsightSource
	nav        Navigator
	now        func() time.Time

	investors    []domain.Investor
	statusFilter string
	sortKey      SortKey

	expanded  map[string]bool
	statsByID map[string]*domain.DataRoomStats

	draft *domain.Investor

	celebrationUntil time.Time
	errMsg           string
}

// New creates a tracker over the collaborators. stats, insights and nav may
// be nil; the corresponding behaviors then no-op.
func New(collection Collection, stats StatsFetcher, insights InsightSource, nav Navigator) *Tracker {
	return &Tracker{
		collection:   collection,
		stats:        stats,
		insights:     insights,
		nav:          nav,
		now:          time.Now,
		statusFilter: FilterAll,
		sortKey:      SortByName,
		expanded:     make(map[string]bool),
		statsByID:    make(map[string]*domain.DataRoomStats),
	}
}

// Load pulls the current collection once. The live feed keeps the list
// fresh afterwards through ApplySnapshot.
func (t *Tracker) Load(ctx context.Context) error {
	investors, err := t.collection.List(ctx)
	if err != nil {
		return err
	}
	t.ApplySnapshot(investors)
	return nil
}

// ApplySnapshot replaces the entire local list with the delivered one.
// Expanded flags and fetched stats survive; entries for records no longer
// present simply stop rendering.
func (t *Tracker) ApplySnapshot(investors []domain.Investor) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.investors = investors
}

// SetStatusFilter narrows Visible to records whose status equals the given
// value. FilterAll shows everything.
func (t *Tracker) SetStatusFilter(status string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.statusFilter = status
}

// SetSortKey selects the ordering Visible applies.
func (t *Tracker) SetSortKey(key SortKey) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sortKey = key
}

// Visible recomputes the rendered list on every call: filter first, then
// sort.
func (t *Tracker) Visible() []domain.Investor {
	t.mu.Lock()
	defer t.mu.Unlock()

	visible := make([]domain.Investor, 0, len(t.investors))
	for _, inv := range t.investors {
		if t.statusFilter == FilterAll || inv.Status == t.statusFilter {
			visible = append(visible, inv)
		}
	}

	switch t.sortKey {
	case SortByCompany:
		sort.SliceStable(visible, func(i, j int) bool {
			return strings.ToLower(deref(visible[i].Company)) < strings.ToLower(deref(visible[j].Company))
		})
	case SortByAmount:
		sort.SliceStable(visible, func(i, j int) bool {
			return visible[i].AmountOrZero().GreaterThan(visible[j].AmountOrZero())
		})
	default:
		sort.SliceStable(visible, func(i, j int) bool {
			return strings.ToLower(visible[i].Name) < strings.ToLower(visible[j].Name)
		})
	}
	return visible
}

// ToggleExpanded flips the expanded flag for exactly one record. The first
// expansion of an id fetches its data room stats; the result (or the
// failure) is cached, so collapsing and re-expanding never refetches.
func (t *Tracker) ToggleExpanded(ctx context.Context, id string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.expanded[id] = !t.expanded[id]
	if !t.expanded[id] || t.stats == nil {
		return
	}
	if _, fetched := t.statsByID[id]; fetched {
		return
	}

	stats, err := t.stats.Stats(ctx, id)
	if err != nil {
		log.Printf("[TRACKER] Data room stats fetch failed: id=%s: %v", id, err)
		stats = nil
	}
	t.statsByID[id] = stats
}

// Expanded reports whether the record is currently expanded.
func (t *Tracker) Expanded(id string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.expanded[id]
}

// StatsFor returns the cached data room stats for the record, or nil when
// none have been fetched yet (or the fetch failed).
func (t *Tracker) StatsFor(id string) *domain.DataRoomStats {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.statsByID[id]
}

// CanAdvance reports whether the record can move one stage forward.
func (t *Tracker) CanAdvance(id string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	inv := t.find(id)
	return inv != nil && inv.CurrentStep < domain.FinalStage
}

// CanRetreat reports whether the record can move one stage back.
func (t *Tracker) CanRetreat(id string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	inv := t.find(id)
	return inv != nil && inv.CurrentStep > domain.FirstStage
}

// Advance moves the record one stage forward. At the final stage the
// control is disabled, so the call is a no-op rather than an error. A move
// that lands on the final stage arms the celebration one-shot.
func (t *Tracker) Advance(ctx context.Context, id string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	inv := t.find(id)
	if inv == nil || inv.CurrentStep >= domain.FinalStage {
		return
	}

	saved, err := t.collection.Advance(ctx, id)
	if err != nil {
		t.writeFailed("advance", err)
		return
	}
	t.applyRecord(saved)
	if saved.AtFinalStage() {
		t.celebrationUntil = t.now().Add(celebrationDuration)
	}
}

// Retreat moves the record one stage back, no-op at the first stage.
func (t *Tracker) Retreat(ctx context.Context, id string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	inv := t.find(id)
	if inv == nil || inv.CurrentStep <= domain.FirstStage {
		return
	}

	saved, err := t.collection.Retreat(ctx, id)
	if err != nil {
		t.writeFailed("retreat", err)
		return
	}
	t.applyRecord(saved)
}

// CelebrationActive reports whether the final-stage celebration is showing.
func (t *Tracker) CelebrationActive() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.now().Before(t.celebrationUntil)
}

// DismissCelebration clears the celebration before its auto-dismiss.
func (t *Tracker) DismissCelebration() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.celebrationUntil = time.Time{}
}

// Create adds a new record built from the draft fields.
func (t *Tracker) Create(ctx context.Context, draft *domain.Investor) {
	t.mu.Lock()
	defer t.mu.Unlock()

	saved, err := t.collection.Create(ctx, draft)
	if err != nil {
		t.writeFailed("create", err)
		return
	}
	t.applyRecord(saved)
}

// Delete removes the record.
func (t *Tracker) Delete(ctx context.Context, id string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.collection.Delete(ctx, id); err != nil {
		t.writeFailed("delete", err)
		return
	}
	for i := range t.investors {
		if t.investors[i].ID == id {
			t.investors = append(t.investors[:i], t.investors[i+1:]...)
			break
		}
	}
}

// SetStatus moves the record to one of the lifecycle statuses.
func (t *Tracker) SetStatus(ctx context.Context, id, status string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	saved, err := t.collection.SetStatus(ctx, id, status)
	if err != nil {
		t.writeFailed("set status", err)
		return
	}
	t.applyRecord(saved)
}

// BeginEdit copies the record into the draft. It reports false when the id
// is not in the current list.
func (t *Tracker) BeginEdit(id string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	inv := t.find(id)
	if inv == nil {
		return false
	}
	draft := *inv
	t.draft = &draft
	return true
}

// Draft exposes the edit draft for mutation between BeginEdit and
// CommitEdit. The draft belongs to the UI loop; it is nil outside an edit.
func (t *Tracker) Draft() *domain.Investor {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.draft
}

// Editing reports whether an edit draft is open.
func (t *Tracker) Editing() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.draft != nil
}

// CommitEdit writes the whole draft through the collection, then refreshes
// the derived fields from the saved record. Each refresh tolerates failure
// independently; a failed commit keeps the draft open for another attempt.
func (t *Tracker) CommitEdit(ctx context.Context) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.draft == nil {
		return
	}

	saved, err := t.collection.Update(ctx, t.draft)
	if err != nil {
		t.writeFailed("update", err)
		return
	}
	t.draft = nil
	t.applyRecord(saved)
	t.refreshDerived(ctx, *saved)
}

// CancelEdit discards the draft.
func (t *Tracker) CancelEdit() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.draft = nil
}

// AddComment appends a note to the record's timeline. Whitespace-only text
// performs no write at all.
func (t *Tracker) AddComment(ctx context.Context, id, text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	saved, err := t.collection.AddComment(ctx, id, text)
	if err != nil {
		t.writeFailed("add comment", err)
		return
	}
	t.applyRecord(saved)
}

// ErrorMessage returns the banner text, or "" when no banner is showing.
func (t *Tracker) ErrorMessage() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.errMsg
}

// ClearError dismisses the banner.
func (t *Tracker) ClearError() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.errMsg = ""
}

// OpenDetail routes to the record's detail view.
func (t *Tracker) OpenDetail(id string) {
	if t.nav != nil {
		t.nav.OpenInvestor(id)
	}
}

// refreshDerived recomputes portfolio focus, likelihood and suggested
// actions from the freshly saved record and applies them to the local copy.
// The remote columns are refreshed by the service behind the same update,
// so the next snapshot confirms or overwrites these values. Caller holds
// the lock.
func (t *Tracker) refreshDerived(ctx context.Context, saved domain.Investor) {
	if t.insights == nil {
		return
	}

	if focus, err := t.insights.PortfolioFocus(ctx, &saved); err != nil {
		log.Printf("[TRACKER] Portfolio focus refresh failed: id=%s: %v", saved.ID, err)
	} else if inv := t.find(saved.ID); inv != nil {
		inv.PortfolioFocus = focus
	}

	if likelihood, err := t.insights.Likelihood(ctx, &saved); err != nil {
		log.Printf("[TRACKER] Likelihood refresh failed: id=%s: %v", saved.ID, err)
	} else if inv := t.find(saved.ID); inv != nil {
		inv.Likelihood = &likelihood
	}

	if actions, err := t.insights.SuggestedActions(ctx, &saved); err != nil {
		log.Printf("[TRACKER] Suggested actions refresh failed: id=%s: %v", saved.ID, err)
	} else if inv := t.find(saved.ID); inv != nil {
		inv.SuggestedActions = actions
	}
}

// applyRecord replaces the local copy of a freshly written record, or
// prepends it when it is new. Caller holds the lock.
func (t *Tracker) applyRecord(saved *domain.Investor) {
	for i := range t.investors {
		if t.investors[i].ID == saved.ID {
			t.investors[i] = *saved
			return
		}
	}
	t.investors = append([]domain.Investor{*saved}, t.investors...)
}

// find returns a pointer into the local list, or nil. Caller holds the lock.
func (t *Tracker) find(id string) *domain.Investor {
	for i := range t.investors {
		if t.investors[i].ID == id {
			return &t.investors[i]
		}
	}
	return nil
}

// writeFailed logs the cause and raises the one generic banner. Caller
// holds the lock.
func (t *Tracker) writeFailed(op string, err error) {
	log.Printf("[TRACKER] %s failed: %v", op, err)
	t.errMsg = GenericErrorMessage
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
