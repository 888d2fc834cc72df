package backend

import (
	"context"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"example.com/oilchain/internal/models"
)

// Dashboard is the process-wide summary shown on the home screen
type Dashboard struct {
	Solde     models.Solde       `json:"solde"`
	Stock     []models.StockLine `json:"stock"`
	Stats     models.Stats       `json:"stats"`
	FetchedAt time.Time          `json:"fetched_at"`
}

// Dashboard fetches solde, stock and stats concurrently. The first failure
// cancels the other calls.
func (c *Client) Dashboard(ctx context.Context) (Dashboard, error) {
	var d Dashboard

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return c.Do(gctx, http.MethodGet, "/dashboard/solde/", nil, &d.Solde)
	})
	g.Go(func() error {
		return c.Do(gctx, http.MethodGet, "/dashboard/stock/", nil, &d.Stock)
	})
	g.Go(func() error {
		return c.Do(gctx, http.MethodGet, "/dashboard/stats/", nil, &d.Stats)
	})
	if err := g.Wait(); err != nil {
		return Dashboard{}, err
	}

	if d.Stock == nil {
		d.Stock = []models.StockLine{}
	}
	d.FetchedAt = time.Now()
	return d, nil
}
