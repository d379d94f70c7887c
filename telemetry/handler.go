// Package telemetry records front-end page views.
package telemetry

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"weddingplanner/api"
	"weddingplanner/models"
	"weddingplanner/payload"
	"weddingplanner/utils"
)

const defaultLimit = 500

type Store interface {
	Insert(ctx context.Context, e *models.TelemetryEvent) error
	List(ctx context.Context, limit int64) ([]models.TelemetryEvent, error)
}

type Handler struct {
	Events Store
}

func (h *Handler) Routes() []api.Route {
	return []api.Route{
		{Path: "telemetry", Auth: api.AdminAuth, Action: h.list},
		{Path: "telemetry", Method: http.MethodPost, Auth: api.Public, Action: h.create},
	}
}

type createRequest struct {
	Path      string `json:"path" validate:"max=512"`
	PathMatch string `json:"path_match" validate:"max=512"`
	PathName  string `json:"path_name" validate:"max=128"`
	Viewport  string `json:"viewport" validate:"required,oneof=xs sm md lg xl xxl"`
}

func (h *Handler) create(w http.ResponseWriter, r *api.Request) error {
	body, err := payload.Decode(r.Body)
	if err != nil {
		return err
	}
	var req createRequest
	for _, f := range []struct {
		key string
		dst *string
	}{{"path", &req.Path}, {"path_match", &req.PathMatch}, {"path_name", &req.PathName}, {"viewport", &req.Viewport}} {
		if *f.dst, err = payload.String(body[f.key], f.key); err != nil {
			return err
		}
	}
	if err := payload.Struct(&req); err != nil {
		return err
	}
	e := &models.TelemetryEvent{
		ID:         utils.GetUUID(),
		Invitation: r.BoundID(),
		Created:    time.Now(),
		Path:       req.Path,
		PathMatch:  req.PathMatch,
		PathName:   req.PathName,
		Viewport:   req.Viewport,
	}
	if err := h.Events.Insert(r.Context(), e); err != nil {
		return err
	}
	return api.NoContent(w)
}

func (h *Handler) list(w http.ResponseWriter, r *api.Request) error {
	limit := int64(defaultLimit)
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n < 1 {
			return payload.Invalid("limit", "Value must be a positive integer")
		}
		limit = n
	}
	events, err := h.Events.List(r.Context(), limit)
	if err != nil {
		return err
	}
	return api.OK(w, events)
}
