package services

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"example.com/oilchain/internal/backend"
	"example.com/oilchain/internal/catalog"
	"example.com/oilchain/internal/messaging"
	"example.com/oilchain/internal/metrics"
	"example.com/oilchain/internal/search"
	"example.com/oilchain/internal/tracing"
)

// Index is the write side of the search index
type Index interface {
	IndexDocument(ctx context.Context, doc search.Document) error
	DeleteDocument(ctx context.Context, entity string, id int64) error
	BulkIndex(ctx context.Context, docs []search.Document) error
}

// Indexer keeps the cross-entity search index in line with the backend
type Indexer struct {
	client  *backend.Client
	index   Index
	metrics *metrics.Metrics
	tracer  tracing.Tracer
}

// NewIndexer creates a new indexer
func NewIndexer(client *backend.Client, index Index, m *metrics.Metrics, tracer tracing.Tracer) *Indexer {
	if m == nil {
		m = metrics.NewMetrics()
	}
	if tracer == nil {
		tracer = tracing.Disabled()
	}
	return &Indexer{client: client, index: index, metrics: m, tracer: tracer}
}

// HandleChange indexes or removes the record a change is about.
func (i *Indexer) HandleChange(ctx context.Context, change messaging.Change) error {
	start := time.Now()
	err := i.handleChange(ctx, change)
	i.metrics.Observe("index.change", start, err)
	return err
}

func (i *Indexer) handleChange(ctx context.Context, change messaging.Change) error {
	if !catalog.Known(change.Entity) {
		log.Warn().Str("entity", change.Entity).Msg("Ignoring change for unknown entity")
		return nil
	}
	if change.Kind == messaging.KindDeleted {
		return i.index.DeleteDocument(ctx, change.Entity, change.RecordID)
	}
	if len(change.Record) == 0 {
		log.Debug().Str("entity", change.Entity).Int64("id", change.RecordID).Msg("Change carries no record, left to the next reindex")
		return nil
	}

	v, err := NewEntityView(i.client, change.Entity)
	if err != nil {
		return err
	}
	doc, err := v.Document(change.Record)
	if err != nil {
		// undecodable payloads would fail again on redelivery
		log.Error().Err(err).Str("change", change.ID).Msg("Dropping change with invalid record")
		return nil
	}
	return i.index.IndexDocument(ctx, doc)
}

// Reindex loads every entity from the backend and rewrites its documents.
// Entities are loaded concurrently; the first failure cancels the run.
func (i *Indexer) Reindex(ctx context.Context) (indexed int, err error) {
	ctx, txn := i.tracer.StartTransaction(ctx, "reindex")
	start := time.Now()
	defer func() {
		i.metrics.Observe("index.reindex", start, err)
		i.tracer.AddAttribute(txn, "documents", indexed)
		i.tracer.EndTransaction(txn, err)
	}()

	names := catalog.Names()
	docs := make([][]search.Document, len(names))
	g, gctx := errgroup.WithContext(ctx)
	for n, name := range names {
		n, name := n, name
		g.Go(func() error {
			v, err := NewEntityView(i.client, name)
			if err != nil {
				return err
			}
			if err := v.Load(gctx); err != nil {
				return err
			}
			docs[n] = v.Documents()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, errors.Wrap(err, "reindex aborted")
	}

	var all []search.Document
	for _, d := range docs {
		all = append(all, d...)
	}
	if err := i.index.BulkIndex(ctx, all); err != nil {
		return 0, err
	}
	log.Info().Int("documents", len(all)).Dur("duration", time.Since(start)).Msg("Search index rebuilt")
	return len(all), nil
}
