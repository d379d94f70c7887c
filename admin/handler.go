// Package admin serves the back office: admin identities, API tokens and
// printable invitation documents.
package admin

import (
	"context"
	"net/http"
	"strings"
	"time"

	"weddingplanner/api"
	"weddingplanner/db"
	"weddingplanner/models"
	"weddingplanner/payload"
)

// InvitationStore is the part of the invitation collection the back office
// reads and writes.
type InvitationStore interface {
	Admins(ctx context.Context) ([]models.Invitation, error)
	List(ctx context.Context, menuItemID string) ([]models.Invitation, error)
	Get(ctx context.Context, id string) (*models.Invitation, error)
	Insert(ctx context.Context, inv *models.Invitation) error
}

type Handler struct {
	Invitations InvitationStore
	Tokens      TokenStore
	// BaseURL prefixes login links in QR codes.
	BaseURL string
	// Title heads each printed invitation card.
	Title string
}

func (h *Handler) Routes() []api.Route {
	return []api.Route{
		{Path: "admin", Auth: api.AdminAuth, Action: h.list},
		{Path: "admin", Method: http.MethodPost, Auth: api.AdminAuth, Action: h.create},
		{Path: "admin/token", Auth: api.AdminAuth, Action: h.listTokens},
		{Path: "admin/token", Method: http.MethodPost, Auth: api.AdminAuth, Action: h.createToken},
		{Path: "admin/token/:tokenId", Method: http.MethodDelete, Auth: api.AdminAuth, Action: h.removeToken},
		{Path: "admin/qr/:invitationId", Auth: api.AdminAuth, Action: h.qr},
		{Path: "admin/invitations.pdf", Auth: api.AdminAuth, Action: h.cards},
	}
}

func (h *Handler) list(w http.ResponseWriter, r *api.Request) error {
	admins, err := h.Invitations.Admins(r.Context())
	if err != nil {
		return err
	}
	return api.OK(w, admins)
}

type createRequest struct {
	ID    string `json:"id" validate:"required,max=254"`
	Email bool   `json:"email"`
}

func (h *Handler) create(w http.ResponseWriter, r *api.Request) error {
	var body createRequest
	if err := payload.Bind(r.Body, &body); err != nil {
		return err
	}
	id := strings.ToLower(strings.TrimSpace(body.ID))
	if body.Email {
		if err := payload.Validator().Var(id, "email"); err != nil {
			return payload.Invalid("id", `"id" must be an email address with "email" enabled`)
		}
	}
	inv := &models.Invitation{
		ID:       id,
		Created:  time.Now(),
		Admin:    true,
		Email:    body.Email,
		Guests:   []models.Guest{},
		Children: []models.Child{},
		Songs:    []string{},
	}
	r.Log.Info().Str("admin", id).Bool("email", body.Email).Msg("creating admin user")
	if err := h.Invitations.Insert(r.Context(), inv); err != nil {
		if db.IsDuplicate(err) {
			return payload.Invalid("id", "An invitation with this id already exists")
		}
		return err
	}
	return api.NoContent(w)
}
