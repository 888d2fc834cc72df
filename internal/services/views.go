package services

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"

	"example.com/oilchain/internal/backend"
	"example.com/oilchain/internal/catalog"
	"example.com/oilchain/internal/export"
	"example.com/oilchain/internal/listview"
	"example.com/oilchain/internal/messaging"
	"example.com/oilchain/internal/models"
	"example.com/oilchain/internal/search"
)

// Option is one entry of a reference list offered by a form
type Option struct {
	ID    int64  `json:"id"`
	Label string `json:"label"`
}

// Mutation is a record the backend confirmed, with its status after the change
type Mutation struct {
	ID     int64           `json:"id"`
	Status string          `json:"status,omitempty"`
	Record listview.Record `json:"record,omitempty"`
}

// BulkResult is the outcome of a bulk run with the records it committed
type BulkResult struct {
	Report    listview.BulkReport
	Committed []Mutation
}

// EntityView is a list view of one entity bound to its backend collection.
type EntityView interface {
	Entity() string
	Title() string
	Modes() []listview.Status
	Actions() []string

	Load(ctx context.Context) error
	Loaded() bool
	Query() listview.Query
	Apply(q listview.Query) error
	Snapshot() interface{}
	Options() []Option

	Toggle(id int64) (bool, error)
	Select(ids []int64) error
	SelectAll() []int64
	ClearSelection()
	SelectedIDs() []int64

	Create(ctx context.Context, body []byte) (Mutation, error)
	Update(ctx context.Context, id int64, body []byte) (Mutation, error)
	Delete(ctx context.Context, id int64) error
	Transition(ctx context.Context, id int64, action string, payload models.TransitionPayload) (Mutation, error)
	Bulk(ctx context.Context, action string, opts listview.BulkOptions, payload models.TransitionPayload) BulkResult

	Table(scope listview.Scope) export.Table
	Documents() []search.Document
	Document(raw json.RawMessage) (search.Document, error)
	ApplyChange(change messaging.Change) error
}

// NewEntityView binds the list view of entity to its backend collection.
func NewEntityView(client *backend.Client, entity string) (EntityView, error) {
	switch entity {
	case catalog.Destinataires:
		return newEntityView[models.Destinataire, models.DestinatairePayload](client, catalog.DestinataireSpec()), nil
	case catalog.Fournisseurs:
		return newEntityView[models.Fournisseur, models.FournisseurPayload](client, catalog.FournisseurSpec()), nil
	case catalog.Distillations:
		return newEntityView[models.Distillation, models.DistillationPayload](client, catalog.DistillationSpec()), nil
	case catalog.Expeditions:
		return newEntityView[models.Expedition, models.ExpeditionPayload](client, catalog.ExpeditionSpec()), nil
	case catalog.Receptions:
		return newEntityView[models.Reception, models.ReceptionPayload](client, catalog.ReceptionSpec()), nil
	case catalog.Transactions:
		return newEntityView[models.Transaction, models.TransactionPayload](client, catalog.TransactionSpec()), nil
	case catalog.Agregages:
		return newEntityView[models.Agregage, models.AgregagePayload](client, catalog.AgregageSpec()), nil
	}
	return nil, errors.Wrapf(catalog.ErrUnknownEntity, "%q", entity)
}

type entityView[T listview.Record, P any] struct {
	spec     *listview.Spec[T]
	view     *listview.View[T]
	resource *backend.Resource[T]
}

func newEntityView[T listview.Record, P any](client *backend.Client, spec *listview.Spec[T]) *entityView[T, P] {
	return &entityView[T, P]{
		spec:     spec,
		view:     listview.NewView(spec),
		resource: backend.NewResource[T](client, spec.Entity),
	}
}

func (e *entityView[T, P]) Entity() string           { return e.spec.Entity }
func (e *entityView[T, P]) Title() string            { return e.spec.Title }
func (e *entityView[T, P]) Modes() []listview.Status { return e.spec.Statuses }
func (e *entityView[T, P]) Actions() []string        { return e.spec.Actions() }

func (e *entityView[T, P]) Load(ctx context.Context) error {
	return e.view.Load(ctx, e.resource.List)
}

func (e *entityView[T, P]) Loaded() bool                 { return e.view.Loaded() }
func (e *entityView[T, P]) Query() listview.Query        { return e.view.Query() }
func (e *entityView[T, P]) Apply(q listview.Query) error { return e.view.Apply(q) }
func (e *entityView[T, P]) Snapshot() interface{}        { return e.view.Snapshot() }

func (e *entityView[T, P]) Options() []Option {
	records := e.view.Records()
	opts := make([]Option, 0, len(records))
	for _, r := range records {
		doc := search.BuildDocument(e.spec, r)
		opts = append(opts, Option{ID: r.RecordID(), Label: doc.Title})
	}
	return opts
}

func (e *entityView[T, P]) Toggle(id int64) (bool, error) { return e.view.Toggle(id) }
func (e *entityView[T, P]) SelectAll() []int64            { return e.view.SelectAll() }
func (e *entityView[T, P]) ClearSelection()               { e.view.ClearSelection() }
func (e *entityView[T, P]) SelectedIDs() []int64          { return e.view.SelectedIDs() }

// Select replaces the selection by ids. Every id must be eligible.
func (e *entityView[T, P]) Select(ids []int64) error {
	e.view.ClearSelection()
	for _, id := range ids {
		if e.isSelected(id) {
			continue
		}
		if _, err := e.view.Toggle(id); err != nil {
			e.view.ClearSelection()
			return err
		}
	}
	return nil
}

func (e *entityView[T, P]) isSelected(id int64) bool {
	for _, s := range e.view.SelectedIDs() {
		if s == id {
			return true
		}
	}
	return false
}

func (e *entityView[T, P]) Create(ctx context.Context, body []byte) (Mutation, error) {
	payload, err := decodePayload[P](body)
	if err != nil {
		return Mutation{}, err
	}
	record, err := e.resource.Create(ctx, payload)
	if errors.Is(err, backend.ErrNoRecord) {
		return e.reloadCreated(ctx)
	}
	if err != nil {
		return Mutation{}, err
	}
	e.view.ApplyCreate(record)
	return e.mutation(record), nil
}

// reloadCreated refetches the list after a creation the backend confirmed
// without the record, and reports the record that appeared. The mutation
// has no id when none can be told apart.
func (e *entityView[T, P]) reloadCreated(ctx context.Context) (Mutation, error) {
	before := make(map[int64]bool)
	for _, r := range e.view.Records() {
		before[r.RecordID()] = true
	}
	if err := e.view.Load(ctx, e.resource.List); err != nil {
		return Mutation{}, err
	}

	var created []T
	for _, r := range e.view.Records() {
		if !before[r.RecordID()] {
			created = append(created, r)
		}
	}
	if len(created) != 1 {
		return Mutation{}, nil
	}
	return e.mutation(created[0]), nil
}

func (e *entityView[T, P]) Update(ctx context.Context, id int64, body []byte) (Mutation, error) {
	payload, err := decodePayload[P](body)
	if err != nil {
		return Mutation{}, err
	}
	record, err := e.resource.Update(ctx, id, payload)
	if err != nil {
		return Mutation{}, err
	}
	e.view.ApplyUpdate(record)
	return e.mutation(record), nil
}

func (e *entityView[T, P]) Delete(ctx context.Context, id int64) error {
	if err := e.resource.Delete(ctx, id); err != nil {
		return err
	}
	e.view.ApplyDelete(id)
	return nil
}

func (e *entityView[T, P]) call(payload models.TransitionPayload) listview.TransitionCall[T] {
	return func(ctx context.Context, current T, t listview.Transition) (T, error) {
		return e.resource.Transition(ctx, current.RecordID(), t.Action, payload)
	}
}

func (e *entityView[T, P]) Transition(ctx context.Context, id int64, action string, payload models.TransitionPayload) (Mutation, error) {
	record, err := e.view.Transition(ctx, id, action, e.call(payload))
	if err != nil {
		return Mutation{}, err
	}
	return e.mutation(record), nil
}

func (e *entityView[T, P]) Bulk(ctx context.Context, action string, opts listview.BulkOptions, payload models.TransitionPayload) BulkResult {
	var committed []Mutation
	call := e.call(payload)
	report := e.view.Bulk(ctx, action, opts, func(ctx context.Context, current T, t listview.Transition) (T, error) {
		record, err := call(ctx, current, t)
		if err == nil {
			committed = append(committed, e.mutation(record))
		}
		return record, err
	})
	return BulkResult{Report: report, Committed: committed}
}

func (e *entityView[T, P]) Table(scope listview.Scope) export.Table {
	records := e.view.Visible()
	if scope == listview.ScopeSelected {
		records = e.view.Selected()
	}
	return export.FromView(e.spec, "", records, e.view.Totals(scope))
}

func (e *entityView[T, P]) Documents() []search.Document {
	records := e.view.Records()
	docs := make([]search.Document, 0, len(records))
	for _, r := range records {
		docs = append(docs, search.BuildDocument(e.spec, r))
	}
	return docs
}

// Document builds the index document of a record encoded as JSON.
func (e *entityView[T, P]) Document(raw json.RawMessage) (search.Document, error) {
	var record T
	if err := json.Unmarshal(raw, &record); err != nil {
		return search.Document{}, errors.Wrapf(err, "failed to decode %s record", e.spec.Entity)
	}
	return search.BuildDocument(e.spec, record), nil
}

// ApplyChange patches the view with a mutation committed elsewhere. Views
// that were never loaded are left alone; they fetch fresh data when opened.
func (e *entityView[T, P]) ApplyChange(change messaging.Change) error {
	if change.Entity != e.spec.Entity || !e.view.Loaded() {
		return nil
	}
	if change.Kind == messaging.KindDeleted {
		e.view.ApplyDelete(change.RecordID)
		return nil
	}
	if len(change.Record) == 0 {
		return nil
	}

	var record T
	if err := json.Unmarshal(change.Record, &record); err != nil {
		return errors.Wrapf(err, "failed to decode %s %d", change.Entity, change.RecordID)
	}
	if !e.view.ApplyUpdate(record) {
		e.view.ApplyCreate(record)
	}
	return nil
}

func (e *entityView[T, P]) mutation(record T) Mutation {
	return Mutation{
		ID:     record.RecordID(),
		Status: string(e.spec.StatusOf(record)),
		Record: record,
	}
}

// decodePayload reads and validates a create/update body before any backend call.
func decodePayload[P any](body []byte) (*P, error) {
	payload := new(P)
	if err := json.Unmarshal(body, payload); err != nil {
		return nil, backend.NewValidationError("corps de requête invalide", nil)
	}
	if err := models.Validate(payload); err != nil {
		return nil, backend.NewValidationError("", models.FieldErrors(err))
	}
	return payload, nil
}

// ValidateTransition checks the optional body of a transition.
func ValidateTransition(payload models.TransitionPayload) error {
	if err := models.Validate(payload); err != nil {
		return backend.NewValidationError("", models.FieldErrors(err))
	}
	return nil
}
