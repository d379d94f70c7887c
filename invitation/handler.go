// Package invitation serves the invitation endpoints and owns the rules for
// updating an invitation.
package invitation

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

// Store is the persistence the handler needs.
type Store interface {
	List(ctx context.Context, menuItemID string) ([]models.Invitation, error)
	Get(ctx context.Context, id string) (*models.Invitation, error)
	Insert(ctx context.Context, inv *models.Invitation) error
	Update(ctx context.Context, id string, changes payload.Changes) error
	Delete(ctx context.Context, id string) (bool, error)
}

// MenuLister lists menu items for meal selection checks.
type MenuLister interface {
	List(ctx context.Context, ids []string) ([]models.MenuItem, error)
}

type Handler struct {
	Invitations Store
	Menu        MenuLister
}

func (h *Handler) Routes() []api.Route {
	return []api.Route{
		{Path: "invitation", Auth: api.AdminAuth, Action: h.list},
		{Path: "invitation", Method: http.MethodPost, Auth: api.AdminAuth, Action: h.create},
		{Path: "invitation/:invitationId", Auth: api.SelfOf(session.KindInvitation, "invitationId"), Action: h.get},
		{Path: "invitation/:invitationId", Method: http.MethodPut, Auth: api.SelfOf(session.KindInvitation, "invitationId"), Action: h.update},
		{Path: "invitation/:invitationId", Method: http.MethodDelete, Auth: api.AdminAuth, Action: h.remove},
	}
}

func pathID(r *api.Request) string {
	return strings.ToLower(r.Params.ByName("invitationId"))
}

func (h *Handler) list(w http.ResponseWriter, r *api.Request) error {
	invs, err := h.Invitations.List(r.Context(), r.URL.Query().Get("menuItemId"))
	if err != nil {
		return err
	}
	return api.OK(w, invs)
}

func (h *Handler) get(w http.ResponseWriter, r *api.Request) error {
	inv, err := h.Invitations.Get(r.Context(), pathID(r))
	if errors.Is(err, db.ErrNotFound) {
		return api.NotFound()
	}
	if err != nil {
		return err
	}
	return api.OK(w, inv)
}

type createGuest struct {
	Name string `json:"name" validate:"max=100"`
}

type createChild struct {
	Name string `json:"name" validate:"max=100"`
	Age  int    `json:"age" validate:"gte=0,lte=17"`
}

type createRequest struct {
	ID       string        `json:"id" validate:"omitempty,max=64,excludesall=/?# "`
	Guests   []createGuest `json:"guests" validate:"required,min=1,dive"`
	Children []createChild `json:"children" validate:"max=5,dive"`
	Email    bool          `json:"email"`
}

func (h *Handler) create(w http.ResponseWriter, r *api.Request) error {
	var body createRequest
	if err := payload.Bind(r.Body, &body); err != nil {
		return err
	}
	inv := New(body.ID, time.Now())
	for _, g := range body.Guests {
		inv.Guests = append(inv.Guests, models.Guest{Name: g.Name})
	}
	for _, c := range body.Children {
		inv.Children = append(inv.Children, models.Child{Name: c.Name, Age: c.Age})
	}
	inv.Email = body.Email

	if err := h.Invitations.Insert(r.Context(), inv); err != nil {
		if db.IsDuplicate(err) {
			return payload.Invalid("id", "An invitation with this id already exists")
		}
		return err
	}
	r.Log.Info().Str("invitation", inv.ID).Str("name", inv.PrimaryName()).Int("guests", len(inv.Guests)).Msg("invitation created")
	return api.OK(w, inv)
}

// New returns an empty invitation. A blank id gets a generated one.
func New(id string, now time.Time) *models.Invitation {
	id = strings.ToLower(strings.TrimSpace(id))
	if id == "" {
		id = utils.GenerateID(10)
	}
	return &models.Invitation{
		ID:       id,
		Created:  now,
		Guests:   []models.Guest{},
		Children: []models.Child{},
		Songs:    []string{},
	}
}

func (h *Handler) update(w http.ResponseWriter, r *api.Request) error {
	id := pathID(r)
	existing, err := h.Invitations.Get(r.Context(), id)
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

	opts := Options{Admin: r.Admin}
	if body.Has("guests") || body.Has("children") {
		items, err := h.Menu.List(r.Context(), nil)
		if err != nil {
			return err
		}
		opts.Menu = make(map[string]models.MenuItem, len(items))
		for _, item := range items {
			opts.Menu[item.ID] = item
		}
	}

	_, changes, err := Reduce(existing, body, opts)
	if err != nil {
		return err
	}
	if len(changes) == 0 {
		return api.NoContent(w)
	}
	r.Log.Info().Str("invitation", id).Str("name", existing.PrimaryName()).Strs("fields", changes.Names()).Msg("updating invitation")
	if err := h.Invitations.Update(r.Context(), id, changes); err != nil {
		return err
	}
	return api.NoContent(w)
}

func (h *Handler) remove(w http.ResponseWriter, r *api.Request) error {
	id := pathID(r)
	found, err := h.Invitations.Delete(r.Context(), id)
	if err != nil {
		return err
	}
	if !found {
		return payload.Invalid("invitationId", "")
	}
	r.Log.Info().Str("invitation", id).Msg("invitation removed")
	return api.NoContent(w)
}
