// Package stats reports attendance and menu totals across all invitations.
package stats

import (
	"context"
	"net/http"

	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/sync/errgroup"

	"weddingplanner/api"
)

// Aggregator runs a pipeline over the invitations collection.
type Aggregator interface {
	Aggregate(ctx context.Context, pipeline mongo.Pipeline, out any) error
}

type Handler struct {
	Invitations Aggregator
}

func (h *Handler) Routes() []api.Route {
	return []api.Route{
		{Path: "admin/stats/invitations", Auth: api.AdminAuth, Action: h.invitations},
		{Path: "admin/stats/menu", Auth: api.AdminAuth, Action: h.menu},
	}
}

// Counts maps a status or menu item id to how many people hold it.
type Counts map[string]int64

type InvitationStats struct {
	StatusCeremony    Counts `json:"status_ceremony"`
	StatusReception   Counts `json:"status_reception"`
	UnusedPlusOne     int64  `json:"unused_plus_one"`
	TotalChildren     int64  `json:"total_children"`
	TotalLogins       int64  `json:"total_logins"`
	TotalSongRequests int64  `json:"total_song_requests"`
	TotalMessages     int64  `json:"total_messages"`
}

type totalDoc struct {
	Count int64 `bson:"count"`
}

type MenuStats struct {
	Adult Counts `json:"adult"`
	Child Counts `json:"child"`
}

// InvitationReport runs every attendance pipeline concurrently.
func (h *Handler) InvitationReport(ctx context.Context) (*InvitationStats, error) {
	var out InvitationStats
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) { out.StatusCeremony, err = h.counts(ctx, statusPipeline("status_ceremony")); return })
	g.Go(func() (err error) { out.StatusReception, err = h.counts(ctx, statusPipeline("status_reception")); return })
	g.Go(func() (err error) { out.UnusedPlusOne, err = h.total(ctx, unusedPlusOnePipeline); return })
	g.Go(func() (err error) { out.TotalChildren, err = h.total(ctx, childrenPipeline); return })
	g.Go(func() (err error) { out.TotalLogins, err = h.total(ctx, loginsPipeline); return })
	g.Go(func() (err error) { out.TotalSongRequests, err = h.total(ctx, songsPipeline); return })
	g.Go(func() (err error) { out.TotalMessages, err = h.total(ctx, messagesPipeline); return })
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &out, nil
}

// MenuReport counts picks per menu item for attending adults and for
// children old enough to order.
func (h *Handler) MenuReport(ctx context.Context) (*MenuStats, error) {
	var out MenuStats
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) { out.Adult, err = h.counts(ctx, adultMealPipeline); return })
	g.Go(func() (err error) { out.Child, err = h.counts(ctx, childMealPipeline); return })
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &out, nil
}

func (h *Handler) counts(ctx context.Context, p mongo.Pipeline) (Counts, error) {
	var docs []Counts
	if err := h.Invitations.Aggregate(ctx, p, &docs); err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return Counts{}, nil
	}
	return docs[0], nil
}

func (h *Handler) total(ctx context.Context, p mongo.Pipeline) (int64, error) {
	var docs []totalDoc
	if err := h.Invitations.Aggregate(ctx, p, &docs); err != nil {
		return 0, err
	}
	if len(docs) == 0 {
		return 0, nil
	}
	return docs[0].Count, nil
}

func (h *Handler) invitations(w http.ResponseWriter, r *api.Request) error {
	out, err := h.InvitationReport(r.Context())
	if err != nil {
		return err
	}
	return api.OK(w, out)
}

func (h *Handler) menu(w http.ResponseWriter, r *api.Request) error {
	out, err := h.MenuReport(r.Context())
	if err != nil {
		return err
	}
	return api.OK(w, out)
}
