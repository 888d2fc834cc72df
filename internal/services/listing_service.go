package services

import (
	"context"
	"encoding/json"
	"io"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"example.com/oilchain/internal/backend"
	"example.com/oilchain/internal/cache"
	"example.com/oilchain/internal/catalog"
	"example.com/oilchain/internal/export"
	"example.com/oilchain/internal/listview"
	"example.com/oilchain/internal/messaging"
	"example.com/oilchain/internal/metrics"
	"example.com/oilchain/internal/models"
	"example.com/oilchain/internal/repositories"
	"example.com/oilchain/internal/search"
	"example.com/oilchain/internal/tracing"
)

// ErrSessionRequired is returned when a call carries no session id
var ErrSessionRequired = errors.New("session id required")

// PreferenceStore keeps per-client view preferences
type PreferenceStore interface {
	Get(ctx context.Context, key string, value interface{}) error
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
}

// ReportRepository persists bulk run reports
type ReportRepository interface {
	Create(ctx context.Context, report *models.BulkReport) error
	List(ctx context.Context, filter repositories.ReportFilter) ([]models.BulkReport, error)
}

// Searcher queries the cross-entity search index
type Searcher interface {
	Search(ctx context.Context, term, entity string, limit int) ([]search.Hit, error)
}

// Invalidator is told whenever the backend state changed
type Invalidator interface {
	Invalidate()
}

// Options configures the listing service
type Options struct {
	BulkRequestTimeout time.Duration
	SessionTTL         time.Duration
	PrefTTL            time.Duration
}

// Deps are the collaborators of the listing service. Only Client is required.
type Deps struct {
	Client    *backend.Client
	Prefs     PreferenceStore
	Reports   ReportRepository
	Publisher messaging.Publisher
	Searcher  Searcher
	Dashboard Invalidator
	Metrics   *metrics.Metrics
}

// ViewResponse is the payload rendered for one list screen
type ViewResponse struct {
	View       interface{}         `json:"view"`
	Actions    []string            `json:"actions,omitempty"`
	References map[string][]Option `json:"references,omitempty"`
}

// ListingService keeps one workspace of list views per client session
type ListingService struct {
	deps Deps
	opts Options

	mu         sync.Mutex
	workspaces map[string]*Workspace
}

// NewListingService creates a new listing service
func NewListingService(deps Deps, opts Options) *ListingService {
	if deps.Prefs == nil {
		deps.Prefs = cache.NewMemoryCache()
	}
	if deps.Reports == nil {
		deps.Reports = repositories.NewMemoryBulkReportRepository()
	}
	if deps.Metrics == nil {
		deps.Metrics = metrics.NewMetrics()
	}
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = 8 * time.Hour
	}
	return &ListingService{
		deps:       deps,
		opts:       opts,
		workspaces: make(map[string]*Workspace),
	}
}

func (s *ListingService) workspace(sessionID string) (*Workspace, error) {
	if sessionID == "" {
		return nil, ErrSessionRequired
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ws, ok := s.workspaces[sessionID]
	if !ok {
		ws = newWorkspace(sessionID, s.deps.Client)
		s.workspaces[sessionID] = ws
		s.deps.Metrics.SetGauge("sessions", int64(len(s.workspaces)))
	}
	ws.touch()
	return ws, nil
}

func (s *ListingService) entityView(sessionID, entity string) (*Workspace, EntityView, error) {
	ws, err := s.workspace(sessionID)
	if err != nil {
		return nil, nil, err
	}
	v, err := ws.View(entity)
	if err != nil {
		return nil, nil, err
	}
	return ws, v, nil
}

// Open returns the view of entity, loading it with its reference lists on first use.
func (s *ListingService) Open(ctx context.Context, sessionID, entity string) (ViewResponse, error) {
	ws, v, err := s.entityView(sessionID, entity)
	if err != nil {
		return ViewResponse{}, err
	}
	if !v.Loaded() {
		s.restoreMode(ctx, sessionID, v)
		if err := s.LoadAll(ctx, ws, entity); err != nil {
			return ViewResponse{}, err
		}
	}
	return s.response(ws, v)
}

// Refresh reloads entity and its reference lists from the backend.
func (s *ListingService) Refresh(ctx context.Context, sessionID, entity string) (ViewResponse, error) {
	ws, v, err := s.entityView(sessionID, entity)
	if err != nil {
		return ViewResponse{}, err
	}
	if err := s.LoadAll(ctx, ws, entity); err != nil {
		return ViewResponse{}, err
	}
	return s.response(ws, v)
}

// LoadAll loads the list of entity and the lists its forms refer to
// concurrently. Only the main list decides the outcome; a reference list that
// fails keeps its previous contents and is logged.
func (s *ListingService) LoadAll(ctx context.Context, ws *Workspace, entity string) error {
	defer tracing.Segment(ctx, "listing.LoadAll").End()
	start := time.Now()

	main, err := ws.View(entity)
	if err != nil {
		return err
	}
	var refs []EntityView
	for _, name := range catalog.References(entity) {
		ref, err := ws.View(name)
		if err != nil {
			return err
		}
		refs = append(refs, ref)
	}

	var g errgroup.Group
	var mainErr error
	g.Go(func() error {
		mainErr = main.Load(ctx)
		return nil
	})
	for _, ref := range refs {
		ref := ref
		g.Go(func() error {
			if err := ref.Load(ctx); err != nil {
				log.Warn().Err(err).Str("session", ws.ID).Str("entity", ref.Entity()).Msg("Failed to load reference list")
			}
			return nil
		})
	}
	_ = g.Wait()

	s.deps.Metrics.Observe("load."+entity, start, mainErr)
	if mainErr != nil {
		log.Warn().Err(mainErr).Str("session", ws.ID).Str("entity", entity).Msg("Failed to load list")
	}
	return mainErr
}

// Query applies a search term and view-mode to the view of entity.
func (s *ListingService) Query(ctx context.Context, sessionID, entity string, q listview.Query) (ViewResponse, error) {
	ws, v, err := s.entityView(sessionID, entity)
	if err != nil {
		return ViewResponse{}, err
	}
	if !v.Loaded() {
		if err := s.LoadAll(ctx, ws, entity); err != nil {
			return ViewResponse{}, err
		}
	}
	previous := v.Query().Partition
	if err := v.Apply(q); err != nil {
		return ViewResponse{}, err
	}
	if q.Partition != previous {
		s.saveMode(ctx, sessionID, entity, q.Partition)
	}
	return s.response(ws, v)
}

// CurrentQuery returns the filter state of the view of entity.
func (s *ListingService) CurrentQuery(sessionID, entity string) (listview.Query, error) {
	_, v, err := s.entityView(sessionID, entity)
	if err != nil {
		return listview.Query{}, err
	}
	return v.Query(), nil
}

// SetMode changes the view-mode of entity and remembers it for the session.
func (s *ListingService) SetMode(ctx context.Context, sessionID, entity string, mode listview.Status) (ViewResponse, error) {
	ws, v, err := s.entityView(sessionID, entity)
	if err != nil {
		return ViewResponse{}, err
	}
	q := v.Query()
	q.Partition = mode
	if err := v.Apply(q); err != nil {
		return ViewResponse{}, err
	}
	s.saveMode(ctx, sessionID, entity, mode)
	return s.response(ws, v)
}

func (s *ListingService) saveMode(ctx context.Context, sessionID, entity string, mode listview.Status) {
	if err := s.deps.Prefs.Set(ctx, cache.ViewModeKey(sessionID, entity), mode, s.opts.PrefTTL); err != nil {
		log.Warn().Err(err).Str("entity", entity).Msg("Failed to save view mode")
	}
}

func (s *ListingService) restoreMode(ctx context.Context, sessionID string, v EntityView) {
	var mode listview.Status
	err := s.deps.Prefs.Get(ctx, cache.ViewModeKey(sessionID, v.Entity()), &mode)
	if err != nil {
		if !errors.Is(err, cache.ErrMiss) {
			log.Warn().Err(err).Str("entity", v.Entity()).Msg("Failed to read view mode")
		}
		return
	}
	q := v.Query()
	q.Partition = mode
	if err := v.Apply(q); err != nil {
		log.Warn().Err(err).Str("entity", v.Entity()).Msg("Ignoring stored view mode")
	}
}

// Toggle flips the selection of one record.
func (s *ListingService) Toggle(sessionID, entity string, id int64) ([]int64, error) {
	_, v, err := s.entityView(sessionID, entity)
	if err != nil {
		return nil, err
	}
	if _, err := v.Toggle(id); err != nil {
		return nil, err
	}
	return v.SelectedIDs(), nil
}

// SelectAll selects every visible and selectable record.
func (s *ListingService) SelectAll(sessionID, entity string) ([]int64, error) {
	_, v, err := s.entityView(sessionID, entity)
	if err != nil {
		return nil, err
	}
	return v.SelectAll(), nil
}

// ClearSelection empties the selection of entity.
func (s *ListingService) ClearSelection(sessionID, entity string) error {
	_, v, err := s.entityView(sessionID, entity)
	if err != nil {
		return err
	}
	v.ClearSelection()
	return nil
}

// Create posts a new record and adds it to the view once the backend stored it.
func (s *ListingService) Create(ctx context.Context, sessionID, entity string, body []byte) (Mutation, error) {
	_, v, err := s.entityView(sessionID, entity)
	if err != nil {
		return Mutation{}, err
	}
	start := time.Now()
	m, err := v.Create(ctx, body)
	s.deps.Metrics.Observe("create."+entity, start, err)
	if err != nil {
		return Mutation{}, err
	}
	s.committed(ctx, sessionID, entity, messaging.KindCreated, "", m)
	return m, nil
}

// Update replaces a record and patches the view once the backend stored it.
func (s *ListingService) Update(ctx context.Context, sessionID, entity string, id int64, body []byte) (Mutation, error) {
	_, v, err := s.entityView(sessionID, entity)
	if err != nil {
		return Mutation{}, err
	}
	start := time.Now()
	m, err := v.Update(ctx, id, body)
	s.deps.Metrics.Observe("update."+entity, start, err)
	if err != nil {
		return Mutation{}, err
	}
	s.committed(ctx, sessionID, entity, messaging.KindUpdated, "", m)
	return m, nil
}

// Delete removes a record on the backend, then from the view.
func (s *ListingService) Delete(ctx context.Context, sessionID, entity string, id int64) error {
	_, v, err := s.entityView(sessionID, entity)
	if err != nil {
		return err
	}
	start := time.Now()
	err = v.Delete(ctx, id)
	s.deps.Metrics.Observe("delete."+entity, start, err)
	if err != nil {
		return err
	}
	s.committed(ctx, sessionID, entity, messaging.KindDeleted, "", Mutation{ID: id})
	return nil
}

// Transition runs a status action on one record.
func (s *ListingService) Transition(ctx context.Context, sessionID, entity string, id int64, action string, payload models.TransitionPayload) (Mutation, error) {
	defer tracing.Segment(ctx, "listing.Transition").End()

	if err := ValidateTransition(payload); err != nil {
		return Mutation{}, err
	}
	_, v, err := s.entityView(sessionID, entity)
	if err != nil {
		return Mutation{}, err
	}
	start := time.Now()
	m, err := v.Transition(ctx, id, action, payload)
	s.deps.Metrics.Observe("transition."+entity+"."+action, start, err)
	if err != nil {
		return Mutation{}, err
	}
	s.committed(ctx, sessionID, entity, messaging.KindTransitioned, action, m)
	return m, nil
}

// Bulk runs action over the selection of entity, one record at a time, and
// stores the report. The returned error is a *PartialBatchFailure when some
// records failed or were skipped.
func (s *ListingService) Bulk(ctx context.Context, sessionID, entity, action string, payload models.TransitionPayload) (listview.BulkReport, error) {
	defer tracing.Segment(ctx, "listing.Bulk").End()

	if err := ValidateTransition(payload); err != nil {
		return listview.BulkReport{}, err
	}
	_, v, err := s.entityView(sessionID, entity)
	if err != nil {
		return listview.BulkReport{}, err
	}

	opts := listview.BulkOptions{RequestTimeout: s.opts.BulkRequestTimeout}
	result := v.Bulk(ctx, action, opts, payload)
	report := result.Report

	for _, m := range result.Committed {
		s.committed(ctx, sessionID, entity, messaging.KindTransitioned, action, m)
	}
	s.deps.Metrics.IncrementCounterBy("bulk."+action+".succeeded", int64(len(report.Succeeded)))
	s.deps.Metrics.IncrementCounterBy("bulk."+action+".failed", int64(len(report.Failed)))

	// the run may have been cancelled; the audit row is still written
	if err := s.deps.Reports.Create(context.WithoutCancel(ctx), toAuditRow(sessionID, report)); err != nil {
		log.Error().Err(err).Str("entity", entity).Str("action", action).Msg("Failed to store bulk report")
	}

	log.Info().
		Str("session", sessionID).
		Str("entity", entity).
		Str("action", action).
		Int("succeeded", len(report.Succeeded)).
		Int("failed", len(report.Failed)).
		Int("skipped", len(report.Skipped)).
		Msg("Bulk run finished")

	return report, report.Err()
}

func toAuditRow(sessionID string, report listview.BulkReport) *models.BulkReport {
	details, err := json.Marshal(report)
	if err != nil {
		details = nil
	}
	return &models.BulkReport{
		SessionID:  sessionID,
		Entity:     report.Entity,
		Action:     report.Action,
		Requested:  len(report.Requested),
		Succeeded:  len(report.Succeeded),
		Failed:     len(report.Failed),
		Skipped:    len(report.Skipped),
		Details:    details,
		StartedAt:  report.StartedAt,
		FinishedAt: report.FinishedAt,
	}
}

// Export writes the visible or selected records of entity as a PDF.
func (s *ListingService) Export(ctx context.Context, sessionID, entity string, scope listview.Scope, w io.Writer) error {
	ws, v, err := s.entityView(sessionID, entity)
	if err != nil {
		return err
	}
	if !v.Loaded() {
		if err := s.LoadAll(ctx, ws, entity); err != nil {
			return err
		}
	}
	s.deps.Metrics.IncrementCounter("export." + entity)
	return export.Render(w, v.Table(scope))
}

// Search queries the cross-entity index.
func (s *ListingService) Search(ctx context.Context, term, entity string, limit int) ([]search.Hit, error) {
	if s.deps.Searcher == nil {
		return nil, errors.New("search index is not configured")
	}
	if entity != "" && !catalog.Known(entity) {
		return nil, errors.Wrapf(catalog.ErrUnknownEntity, "%q", entity)
	}
	return s.deps.Searcher.Search(ctx, term, entity, limit)
}

// Reports lists the stored bulk reports.
func (s *ListingService) Reports(ctx context.Context, filter repositories.ReportFilter) ([]models.BulkReport, error) {
	return s.deps.Reports.List(ctx, filter)
}

// HandleChange patches every workspace holding entity with a change committed
// by another session or process.
func (s *ListingService) HandleChange(ctx context.Context, change messaging.Change) error {
	if !catalog.Known(change.Entity) {
		log.Warn().Str("entity", change.Entity).Msg("Ignoring change for unknown entity")
		return nil
	}

	s.mu.Lock()
	targets := make([]*Workspace, 0, len(s.workspaces))
	for id, ws := range s.workspaces {
		if id != change.SessionID {
			targets = append(targets, ws)
		}
	}
	s.mu.Unlock()

	for _, ws := range targets {
		v, ok := ws.existing(change.Entity)
		if !ok {
			continue
		}
		if err := v.ApplyChange(change); err != nil {
			return err
		}
	}
	if s.deps.Dashboard != nil {
		s.deps.Dashboard.Invalidate()
	}
	return nil
}

// Sweep drops the workspaces idle for longer than the session TTL.
func (s *ListingService) Sweep(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, ws := range s.workspaces {
		if now.Sub(ws.LastSeen()) > s.opts.SessionTTL {
			delete(s.workspaces, id)
			removed++
		}
	}
	s.deps.Metrics.SetGauge("sessions", int64(len(s.workspaces)))
	if removed > 0 {
		log.Info().Int("removed", removed).Msg("Swept idle sessions")
	}
	return removed
}

// Sessions returns the number of live workspaces.
func (s *ListingService) Sessions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.workspaces)
}

func (s *ListingService) response(ws *Workspace, v EntityView) (ViewResponse, error) {
	resp := ViewResponse{View: v.Snapshot(), Actions: v.Actions()}
	for _, ref := range catalog.References(v.Entity()) {
		rv, ok := ws.existing(ref)
		if !ok || !rv.Loaded() {
			continue
		}
		if resp.References == nil {
			resp.References = make(map[string][]Option)
		}
		resp.References[ref] = rv.Options()
	}
	return resp, nil
}

// committed runs after every mutation the backend confirmed.
func (s *ListingService) committed(ctx context.Context, sessionID, entity, kind, action string, m Mutation) {
	if s.deps.Dashboard != nil {
		s.deps.Dashboard.Invalidate()
	}
	if s.deps.Publisher == nil {
		return
	}
	if m.ID == 0 {
		log.Debug().Str("entity", entity).Str("kind", kind).Msg("No record id to publish")
		return
	}

	change, err := messaging.NewChange(entity, m.ID, kind, m.Record)
	if err != nil {
		log.Error().Err(err).Str("entity", entity).Int64("id", m.ID).Msg("Failed to build change notification")
		return
	}
	change.Action = action
	change.Status = m.Status
	change.SessionID = sessionID

	if err := s.deps.Publisher.Publish(ctx, change); err != nil {
		log.Warn().Err(err).Str("entity", entity).Int64("id", m.ID).Msg("Failed to publish change")
	}
}
