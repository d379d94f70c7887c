// Package feedback collects messages from guests for the admins.
package feedback

import (
	"context"
	"errors"
	"net/http"
	"time"

	"weddingplanner/api"
	"weddingplanner/db"
	"weddingplanner/models"
	"weddingplanner/payload"
	"weddingplanner/utils"
)

type Store interface {
	List(ctx context.Context, read *bool) ([]models.FeedbackItem, error)
	Count(ctx context.Context, read *bool) (int64, error)
	Get(ctx context.Context, id string) (*models.FeedbackItem, error)
	Insert(ctx context.Context, f *models.FeedbackItem) error
	Update(ctx context.Context, id string, changes payload.Changes) error
	Delete(ctx context.Context, id string) (bool, error)
}

type Handler struct {
	Feedback Store
}

func (h *Handler) Routes() []api.Route {
	return []api.Route{
		{Path: "feedback", Auth: api.AdminAuth, Action: h.list},
		{Path: "feedback", Method: http.MethodPost, Auth: api.SessionAuth, Action: h.create},
		{Path: "feedback/count", Auth: api.AdminAuth, Action: h.count},
		{Path: "feedback/:feedbackId", Method: http.MethodPut, Auth: api.AdminAuth, Action: h.update},
		{Path: "feedback/:feedbackId", Method: http.MethodDelete, Auth: api.AdminAuth, Action: h.remove},
	}
}

// readQuery returns the optional read filter from the query string.
func readQuery(r *api.Request) *bool {
	q := r.URL.Query()
	if !q.Has("read") {
		return nil
	}
	read := q.Get("read") == "true"
	return &read
}

func (h *Handler) list(w http.ResponseWriter, r *api.Request) error {
	items, err := h.Feedback.List(r.Context(), readQuery(r))
	if err != nil {
		return err
	}
	return api.OK(w, items)
}

func (h *Handler) count(w http.ResponseWriter, r *api.Request) error {
	n, err := h.Feedback.Count(r.Context(), readQuery(r))
	if err != nil {
		return err
	}
	return api.OK(w, n)
}

type createRequest struct {
	Message string `json:"message" validate:"required,max=512"`
}

func (h *Handler) create(w http.ResponseWriter, r *api.Request) error {
	var body createRequest
	if err := payload.Bind(r.Body, &body); err != nil {
		return err
	}
	now := time.Now()
	item := &models.FeedbackItem{
		ID:         utils.GetUUID(),
		Invitation: r.BoundID(),
		Created:    now,
		Updated:    now,
		Message:    body.Message,
	}
	r.Log.Info().Str("feedback", item.ID).Str("invitation", item.Invitation).Msg("creating feedback item")
	if err := h.Feedback.Insert(r.Context(), item); err != nil {
		return err
	}
	return api.NoContent(w)
}

func (h *Handler) update(w http.ResponseWriter, r *api.Request) error {
	id := r.Params.ByName("feedbackId")
	existing, err := h.Feedback.Get(r.Context(), id)
	if errors.Is(err, db.ErrNotFound) {
		return payload.Invalid("feedbackId", "")
	}
	if err != nil {
		return err
	}
	body, err := payload.Decode(r.Body)
	if err != nil {
		return err
	}
	changes := payload.Changes{}
	if raw, ok := body["read"]; ok {
		read, err := payload.Bool(raw, "read")
		if err != nil {
			return err
		}
		if read != existing.Read {
			changes["read"] = read
		}
	}
	if len(changes) > 0 {
		r.Log.Info().Str("feedback", id).Msg("updating feedback")
		if err := h.Feedback.Update(r.Context(), id, changes); err != nil {
			return err
		}
	}
	return api.NoContent(w)
}

func (h *Handler) remove(w http.ResponseWriter, r *api.Request) error {
	id := r.Params.ByName("feedbackId")
	found, err := h.Feedback.Delete(r.Context(), id)
	if err != nil {
		return err
	}
	if !found {
		return payload.Invalid("feedbackId", "")
	}
	r.Log.Info().Str("feedback", id).Msg("removed feedback")
	return api.NoContent(w)
}
