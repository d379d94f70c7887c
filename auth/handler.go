package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"weddingplanner/api"
	"weddingplanner/db"
	"weddingplanner/models"
	"weddingplanner/payload"
	"weddingplanner/session"
	"weddingplanner/utils"
)

type InvitationStore interface {
	Get(ctx context.Context, id string) (*models.Invitation, error)
	RecordLogin(ctx context.Context, id string) (*models.Invitation, error)
}

type RSVPStore interface {
	Get(ctx context.Context, id string) (*models.RSVP, error)
}

// SessionManager persists session changes and reissues cookies.
type SessionManager interface {
	Regenerate(ctx context.Context, w http.ResponseWriter, s *session.Session) error
	Destroy(ctx context.Context, w http.ResponseWriter, s *session.Session) error
}

// Handler serves session and OAuth callback endpoints.
type Handler struct {
	Invitations InvitationStore
	RSVPs       RSVPStore
	Sessions    SessionManager
	AllowList   *AllowList
	// ClientID is the OAuth client; empty disables the OAuth flow.
	ClientID string
	Verifier CredentialVerifier
}

// Pending is returned when an admin must finish signing in with OAuth.
type Pending struct {
	Pending  bool   `json:"pending"`
	State    string `json:"state"`
	ClientID string `json:"client_id"`
}

func (h *Handler) Routes() []api.Route {
	return []api.Route{
		{Path: "session", Method: http.MethodPost, Auth: api.Public, Action: h.create},
		{Path: "session", Method: http.MethodGet, Auth: api.Public, Action: h.find},
		{Path: "session", Method: http.MethodDelete, Auth: api.Public, Action: h.destroy},
		{Path: "oauth/callback", Method: http.MethodPost, Auth: h.oauthPending, Action: h.callback},
	}
}

func (h *Handler) oauthEnabled() bool {
	return h.ClientID != "" && h.Verifier != nil
}

type identity struct {
	kind   session.Kind
	id     string
	admin  bool
	email  bool
	name   string
	record any
}

func (h *Handler) lookup(ctx context.Context, body payload.Object) (*identity, error) {
	field, kind := "invitationId", session.KindInvitation
	if !body.Has(field) && body.Has("rsvpId") {
		field, kind = "rsvpId", session.KindRSVP
	}
	raw, ok := body[field]
	if !ok {
		return nil, api.Unauthorized()
	}
	id, err := payload.String(raw, field)
	if err != nil {
		return nil, err
	}
	id = strings.ToLower(strings.TrimSpace(id))
	if id == "" {
		return nil, api.Unauthorized()
	}

	switch kind {
	case session.KindRSVP:
		rsvp, err := h.RSVPs.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		name := ""
		if len(rsvp.Guests) > 0 {
			name = rsvp.Guests[0].Name
		}
		return &identity{kind: kind, id: rsvp.ID, admin: rsvp.Admin, name: name, record: rsvp}, nil
	default:
		inv, err := h.Invitations.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		return &identity{kind: kind, id: inv.ID, admin: inv.Admin, email: inv.Email, name: inv.PrimaryName(), record: inv}, nil
	}
}

func (h *Handler) create(w http.ResponseWriter, r *api.Request) error {
	body, err := payload.Decode(r.Body)
	if err != nil {
		return err
	}
	who, err := h.lookup(r.Context(), body)
	if errors.Is(err, db.ErrNotFound) {
		return api.Unauthorized()
	}
	if err != nil {
		return err
	}

	sess := r.Session
	sess.Reset()
	sess.InvitationID = who.id
	sess.Kind = who.kind
	sess.Admin = who.admin

	if who.admin && who.email && h.oauthEnabled() {
		sess.Pending = true
		sess.State = utils.GenerateSecret(32)
		if err := h.Sessions.Regenerate(r.Context(), w, sess); err != nil {
			return err
		}
		r.Log.Info().Str("invitation", who.id).Msg("admin session pending oauth verification")
		return api.OK(w, Pending{Pending: true, State: sess.State, ClientID: h.ClientID})
	}
	if who.admin && !h.AllowList.Contains(r.IP) {
		sess.Reset()
		r.Log.Warn().Str("invitation", who.id).Str("ip", r.IP).Msg("admin sign in refused from external network")
		return api.Forbidden()
	}

	if err := h.Sessions.Regenerate(r.Context(), w, sess); err != nil {
		return err
	}
	record := who.record
	if who.kind == session.KindInvitation {
		inv, err := h.Invitations.RecordLogin(r.Context(), who.id)
		if err != nil {
			return err
		}
		record = inv
	}
	r.Log.Info().Str("invitation", who.id).Str("name", who.name).Msg("session created")
	return api.OK(w, record)
}

func (h *Handler) find(w http.ResponseWriter, r *api.Request) error {
	id := r.BoundID()
	if id == "" {
		return api.OK(w, nil)
	}
	var (
		record any
		err    error
	)
	if r.Session.Kind == session.KindRSVP {
		record, err = h.RSVPs.Get(r.Context(), id)
	} else {
		record, err = h.Invitations.Get(r.Context(), id)
	}
	if errors.Is(err, db.ErrNotFound) {
		return api.OK(w, nil)
	}
	if err != nil {
		return err
	}
	return api.OK(w, record)
}

func (h *Handler) destroy(w http.ResponseWriter, r *api.Request) error {
	if err := h.Sessions.Destroy(r.Context(), w, r.Session); err != nil {
		return err
	}
	return api.NoContent(w)
}

func (h *Handler) oauthPending(r *api.Request) (int, error) {
	if !h.oauthEnabled() {
		return http.StatusForbidden, nil
	}
	s := r.Session
	if s.InvitationID != "" && s.Pending && s.State != "" {
		return http.StatusOK, nil
	}
	return http.StatusUnauthorized, nil
}

func (h *Handler) callback(w http.ResponseWriter, r *api.Request) error {
	body, err := payload.Decode(r.Body)
	if err != nil {
		return err
	}
	sess := r.Session

	state := ""
	if raw, ok := body["state"]; ok {
		if state, err = payload.String(raw, "state"); err != nil {
			return err
		}
	}
	if state != sess.State {
		return payload.Invalid("state", "Value does not match the value in the session record")
	}
	token := ""
	if raw, ok := body["credential"]; ok {
		if token, err = payload.String(raw, "credential"); err != nil {
			return err
		}
	}
	if token == "" {
		return api.BadRequest(`"credential" is a required parameter`)
	}

	cred, err := h.Verifier.Verify(r.Context(), token)
	if err != nil {
		r.Log.Warn().Err(err).Msg("failed to verify oauth credential")
		return payload.Invalid("credential", "")
	}
	if !cred.EmailVerified || !strings.EqualFold(cred.Email, sess.InvitationID) {
		return payload.Invalid("credential", `"email" does not match the pending session`)
	}

	inv, err := h.Invitations.RecordLogin(r.Context(), sess.InvitationID)
	if err != nil {
		return err
	}
	sess.Pending = false
	sess.State = ""
	if err := h.Sessions.Regenerate(r.Context(), w, sess); err != nil {
		return err
	}
	r.Log.Info().Str("invitation", inv.ID).Msg("admin session verified by oauth")
	return api.OK(w, inv)
}
