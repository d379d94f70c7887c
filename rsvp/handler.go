// Package rsvp serves the single-status RSVP records that predate
// invitations.
package rsvp

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"weddingplanner/api"
	"weddingplanner/db"
	"weddingplanner/models"
	"weddingplanner/payload"
	"weddingplanner/session"
	"weddingplanner/utils"
)

type Store interface {
	List(ctx context.Context) ([]models.RSVP, error)
	Get(ctx context.Context, id string) (*models.RSVP, error)
	Insert(ctx context.Context, r *models.RSVP) error
	Update(ctx context.Context, id string, changes payload.Changes) error
	Delete(ctx context.Context, id string) (bool, error)
}

type Handler struct {
	RSVPs Store
}

func (h *Handler) Routes() []api.Route {
	return []api.Route{
		{Path: "rsvp", Auth: api.AdminAuth, Action: h.list},
		{Path: "rsvp", Method: http.MethodPost, Auth: api.AdminAuth, Action: h.create},
		{Path: "rsvp/:rsvpId", Auth: api.SelfOf(session.KindRSVP, "rsvpId"), Action: h.get},
		{Path: "rsvp/:rsvpId", Method: http.MethodPut, Auth: api.SelfOf(session.KindRSVP, "rsvpId"), Action: h.update},
		{Path: "rsvp/:rsvpId", Method: http.MethodDelete, Auth: api.AdminAuth, Action: h.remove},
	}
}

func pathID(r *api.Request) string {
	return strings.ToLower(r.Params.ByName("rsvpId"))
}

func (h *Handler) list(w http.ResponseWriter, r *api.Request) error {
	rsvps, err := h.RSVPs.List(r.Context())
	if err != nil {
		return err
	}
	return api.OK(w, rsvps)
}

func (h *Handler) get(w http.ResponseWriter, r *api.Request) error {
	rec, err := h.RSVPs.Get(r.Context(), pathID(r))
	if errors.Is(err, db.ErrNotFound) {
		return api.NotFound()
	}
	if err != nil {
		return err
	}
	return api.OK(w, rec)
}

type createRequest struct {
	Guests []struct {
		Name string `json:"name" validate:"max=100"`
	} `json:"guests" validate:"required,min=1,dive"`
}

func (h *Handler) create(w http.ResponseWriter, r *api.Request) error {
	var body createRequest
	if err := payload.Bind(r.Body, &body); err != nil {
		return err
	}
	rec := &models.RSVP{ID: utils.GenerateID(10), Updated: time.Now()}
	for _, g := range body.Guests {
		rec.Guests = append(rec.Guests, models.RSVPGuest{Name: g.Name})
	}
	if err := h.RSVPs.Insert(r.Context(), rec); err != nil {
		return err
	}
	r.Log.Info().Str("rsvp", rec.ID).Int("guests", len(rec.Guests)).Msg("rsvp created")
	return api.OK(w, rec)
}

func (h *Handler) update(w http.ResponseWriter, r *api.Request) error {
	id := pathID(r)
	existing, err := h.RSVPs.Get(r.Context(), id)
	if errors.Is(err, db.ErrNotFound) {
		return api.NotFound()
	}
	if err != nil {
		return err
	}
	body, err := payload.Decode(r.Body)
	if err != nil {
		return err
	}
	_, changes, err := Reduce(existing, body, r.Admin)
	if err != nil {
		return err
	}
	if len(changes) > 0 {
		r.Log.Info().Str("rsvp", id).Strs("fields", changes.Names()).Msg("updating rsvp")
		if err := h.RSVPs.Update(r.Context(), id, changes); err != nil {
			return err
		}
	}
	return api.NoContent(w)
}

func (h *Handler) remove(w http.ResponseWriter, r *api.Request) error {
	found, err := h.RSVPs.Delete(r.Context(), pathID(r))
	if err != nil {
		return err
	}
	if !found {
		return payload.Invalid("rsvpId", "")
	}
	return api.NoContent(w)
}
