// Package routes assembles the endpoint table and the router around it.
package routes

import (
	"io/fs"
	"net/http"
	"strings"
	"time"

	"github.com/julienschmidt/httprouter"

	"weddingplanner/admin"
	"weddingplanner/api"
	"weddingplanner/auth"
	"weddingplanner/calendar"
	"weddingplanner/config"
	"weddingplanner/content"
	"weddingplanner/db"
	"weddingplanner/feedback"
	"weddingplanner/gallery"
	"weddingplanner/invitation"
	"weddingplanner/logging"
	"weddingplanner/menu"
	"weddingplanner/rsvp"
	"weddingplanner/seating"
	"weddingplanner/session"
	"weddingplanner/stats"
	"weddingplanner/telemetry"
)

// Deps are the collaborators the endpoints are built from.
type Deps struct {
	Config    *config.Config
	DB        *db.Client
	Sessions  *session.Manager
	AllowList *auth.AllowList
	// Verifier is nil when OAuth is not configured.
	Verifier auth.CredentialVerifier
	Gallery  fs.FS
	Version  string
	Started  time.Time
}

// Endpoints is the static table of every API handler.
func Endpoints(d Deps) []api.Endpoint {
	cfg := d.Config
	couple := cfg.Bride.Name + " & " + cfg.Groom.Name

	endpoints := []api.Endpoint{
		&auth.Handler{
			Invitations: d.DB.Invitations,
			RSVPs:       d.DB.RSVPs,
			Sessions:    d.Sessions,
			AllowList:   d.AllowList,
			ClientID:    cfg.OAuth.ClientID,
			Verifier:    d.Verifier,
		},
		&invitation.Handler{Invitations: d.DB.Invitations, Menu: d.DB.MenuItems},
		&rsvp.Handler{RSVPs: d.DB.RSVPs},
		&menu.Handler{Items: d.DB.MenuItems, Invitations: d.DB.Invitations},
		&calendar.Handler{Events: d.DB.CalendarEvents, Feed: calendar.Feed{
			ProductID: "-//" + couple + "//Wedding Planner//EN",
			Name:      couple,
			Source:    cfg.BaseURL() + "/api/calendar.ics",
		}},
		&feedback.Handler{Feedback: d.DB.Feedback},
		&seating.Handler{Plan: d.DB.Seating, Invitations: d.DB.Invitations},
		gallery.NewImages(d.Gallery),
		&admin.Handler{
			Invitations: d.DB.Invitations,
			Tokens:      d.DB.Tokens,
			BaseURL:     cfg.BaseURL(),
			Title:       couple,
		},
		&stats.Handler{Invitations: d.DB.Invitations},
		&telemetry.Handler{Events: d.DB.Telemetry},
	}
	for _, s := range content.Sections(d.DB.About, d.DB.Gallery, d.DB.Questions, d.DB.Story) {
		endpoints = append(endpoints, s)
	}
	return endpoints
}

// New registers the endpoint table, the status check and the page shell.
func New(d Deps) (*httprouter.Router, error) {
	router := httprouter.New()

	count, err := api.Register(router, Endpoints(d)...)
	if err != nil {
		return nil, err
	}
	log := logging.For("routes")
	log.Info().Int("routes", count).Msg("api registered")

	router.GET("/status", Status(d.Version, d.Started))

	shell, err := NewShell(d.Config)
	if err != nil {
		return nil, err
	}
	router.NotFound = fallback(shell)
	router.MethodNotAllowed = api.MethodNotAllowedHandler()
	return router, nil
}

// fallback answers unmatched API paths with JSON and renders the page shell
// for everything else.
func fallback(shell http.Handler) http.Handler {
	notFound := api.NotFoundHandler()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if isAPI(r.URL.Path) {
			notFound.ServeHTTP(w, r)
			return
		}
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			notFound.ServeHTTP(w, r)
			return
		}
		shell.ServeHTTP(w, r)
	})
}

func isAPI(path string) bool {
	return path == strings.TrimSuffix(api.Prefix, "/") || strings.HasPrefix(path, api.Prefix)
}
