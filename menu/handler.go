// Package menu serves the adult and children's menus and keeps meal
// selections consistent when an item is removed.
package menu

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"weddingplanner/api"
	"weddingplanner/db"
	"weddingplanner/models"
	"weddingplanner/payload"
	"weddingplanner/utils"
)

type Store interface {
	List(ctx context.Context, ids []string) ([]models.MenuItem, error)
	Get(ctx context.Context, id string) (*models.MenuItem, error)
	Insert(ctx context.Context, m *models.MenuItem) error
	Update(ctx context.Context, id string, changes payload.Changes) error
	Delete(ctx context.Context, id string) (bool, error)
}

// SelectionClearer blanks a meal selection across all invitations.
type SelectionClearer interface {
	ClearSelection(ctx context.Context, group, field, itemID string) (int64, error)
}

type Handler struct {
	Items       Store
	Invitations SelectionClearer
}

func (h *Handler) Routes() []api.Route {
	return []api.Route{
		{Path: "menu", Auth: api.SessionAuth, Action: h.list},
		{Path: "menu", Method: http.MethodPost, Auth: api.AdminAuth, Action: h.create},
		{Path: "menu/:menuItemId", Auth: api.SessionAuth, Action: h.get},
		{Path: "menu/:menuItemId", Method: http.MethodPut, Auth: api.AdminAuth, Action: h.update},
		{Path: "menu/:menuItemId", Method: http.MethodDelete, Auth: api.AdminAuth, Action: h.remove},
	}
}

// Summary is the projection returned when specific items are requested.
type Summary struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	Vegan      bool   `json:"vegan"`
	Vegetarian bool   `json:"vegetarian"`
	GlutenFree bool   `json:"gluten_free"`
}

func (h *Handler) list(w http.ResponseWriter, r *api.Request) error {
	ids := r.URL.Query()["id"]
	items, err := h.Items.List(r.Context(), ids)
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		return api.OK(w, items)
	}
	out := make([]Summary, len(items))
	for i, item := range items {
		out[i] = Summary{ID: item.ID, Title: item.Title, Vegan: item.Vegan, Vegetarian: item.Vegetarian, GlutenFree: item.GlutenFree}
	}
	return api.OK(w, out)
}

func (h *Handler) get(w http.ResponseWriter, r *api.Request) error {
	item, err := h.Items.Get(r.Context(), r.Params.ByName("menuItemId"))
	if errors.Is(err, db.ErrNotFound) {
		return api.NotFound()
	}
	if err != nil {
		return err
	}
	return api.OK(w, item)
}

type createRequest struct {
	Child       bool   `json:"child"`
	Course      *int   `json:"course" validate:"required,gte=0,lte=2"`
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description" validate:"max=1024"`
	Vegan       bool   `json:"vegan"`
	Vegetarian  bool   `json:"vegetarian"`
	GlutenFree  bool   `json:"gluten_free"`
}

func (h *Handler) create(w http.ResponseWriter, r *api.Request) error {
	var body createRequest
	if err := payload.Bind(r.Body, &body); err != nil {
		return err
	}
	now := time.Now()
	item := &models.MenuItem{
		ID:          utils.GetUUID(),
		Created:     now,
		Updated:     now,
		Child:       body.Child,
		Course:      *body.Course,
		Title:       body.Title,
		Description: body.Description,
		Vegan:       body.Vegan,
		Vegetarian:  body.Vegan || body.Vegetarian,
		GlutenFree:  body.GlutenFree,
	}
	r.Log.Info().Str("item", item.ID).Str("title", item.Title).Msg("creating menu item")
	if err := h.Items.Insert(r.Context(), item); err != nil {
		return err
	}
	return api.OK(w, item)
}

func (h *Handler) update(w http.ResponseWriter, r *api.Request) error {
	id := r.Params.ByName("menuItemId")
	existing, err := h.Items.Get(r.Context(), id)
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
	updated, changes, err := Reduce(existing, body)
	if err != nil {
		return err
	}
	if len(changes) > 0 {
		r.Log.Info().Str("item", id).Str("title", updated.Title).Strs("fields", changes.Names()).Msg("updating menu item")
		if err := h.Items.Update(r.Context(), id, changes); err != nil {
			return err
		}
	}
	return api.NoContent(w)
}

func (h *Handler) remove(w http.ResponseWriter, r *api.Request) error {
	item, err := h.Items.Get(r.Context(), r.Params.ByName("menuItemId"))
	if errors.Is(err, db.ErrNotFound) {
		return payload.Invalid("menuItemId", "")
	}
	if err != nil {
		return err
	}
	if err := h.Cascade(r.Context(), item); err != nil {
		return err
	}
	r.Log.Info().Str("item", item.ID).Str("title", item.Title).Msg("removing menu item")
	if _, err := h.Items.Delete(r.Context(), item.ID); err != nil {
		return err
	}
	return api.NoContent(w)
}

// Cascade clears item from every meal selection that references it. Adult
// guests can only hold adult items; children may hold either. The updates
// are not atomic.
func (h *Handler) Cascade(ctx context.Context, item *models.MenuItem) error {
	if item.Course < 0 || item.Course >= len(models.MealFields) {
		return fmt.Errorf("menu item %s has unknown course %d", item.ID, item.Course)
	}
	field := models.MealFields[item.Course]
	if !item.Child {
		if _, err := h.Invitations.ClearSelection(ctx, "guests", field, item.ID); err != nil {
			return err
		}
	}
	_, err := h.Invitations.ClearSelection(ctx, "children", field, item.ID)
	return err
}
