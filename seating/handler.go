// Package seating serves the reception seating plan.
package seating

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"weddingplanner/api"
	"weddingplanner/db"
	"weddingplanner/models"
	"weddingplanner/payload"
)

// Document is a single-document collection.
type Document interface {
	Load(ctx context.Context, out any) error
	Replace(ctx context.Context, doc any) error
}

// InvitationLookup resolves seat occupants.
type InvitationLookup interface {
	GetMany(ctx context.Context, ids []string) ([]models.Invitation, error)
}

type Handler struct {
	Plan        Document
	Invitations InvitationLookup
}

func (h *Handler) Routes() []api.Route {
	return []api.Route{
		{Path: "seating", Auth: api.SessionAuth, Action: h.get},
		{Path: "seating", Method: http.MethodPut, Auth: api.AdminAuth, Action: h.update},
	}
}

func (h *Handler) get(w http.ResponseWriter, r *api.Request) error {
	plan := models.SeatingPlan{Tables: []models.Table{}}
	if err := h.Plan.Load(r.Context(), &plan); err != nil && !errors.Is(err, db.ErrNotFound) {
		return err
	}
	if !r.Admin {
		if err := h.anonymize(r.Context(), &plan); err != nil {
			return err
		}
	}
	return api.OK(w, plan)
}

// anonymize replaces invitation references with occupant names. The loaded
// tables are not modified; plan gets fresh slices.
func (h *Handler) anonymize(ctx context.Context, plan *models.SeatingPlan) error {
	seen := map[string]bool{}
	var ids []string
	for _, table := range plan.Tables {
		for _, seat := range table.Seats {
			if seat.ID != "" && !seen[seat.ID] {
				seen[seat.ID] = true
				ids = append(ids, seat.ID)
			}
		}
	}
	byID := map[string]models.Invitation{}
	if len(ids) > 0 {
		invs, err := h.Invitations.GetMany(ctx, ids)
		if err != nil {
			return err
		}
		for _, inv := range invs {
			byID[inv.ID] = inv
		}
	}
	tables := make([]models.Table, len(plan.Tables))
	for t, table := range plan.Tables {
		seats := make([]models.Seat, len(table.Seats))
		for s, seat := range table.Seats {
			seats[s] = models.Seat{Child: seat.Child, Name: occupant(byID[seat.ID], seat.Idx, seat.Child)}
		}
		table.Seats = seats
		tables[t] = table
	}
	plan.Tables = tables
	return nil
}

func occupant(inv models.Invitation, idx int, child bool) string {
	if child {
		if idx >= 0 && idx < len(inv.Children) {
			return inv.Children[idx].Name
		}
		return ""
	}
	if idx >= 0 && idx < len(inv.Guests) {
		return inv.Guests[idx].Name
	}
	return ""
}

func (h *Handler) update(w http.ResponseWriter, r *api.Request) error {
	body, err := payload.Decode(r.Body)
	if err != nil {
		return err
	}
	plan, err := Parse(body)
	if err != nil {
		return err
	}
	plan.Updated = time.Now()
	r.Log.Info().Int("tables", len(plan.Tables)).Msg("updating seating plan")
	if err := h.Plan.Replace(r.Context(), plan); err != nil {
		return err
	}
	return api.NoContent(w)
}

// Parse validates a complete seating plan.
func Parse(p payload.Object) (*models.SeatingPlan, error) {
	plan := &models.SeatingPlan{Tables: []models.Table{}}
	var err error
	if plan.Ratio, err = optionalNumber(p, "ratio", "ratio"); err != nil {
		return nil, err
	}
	if plan.Scale, err = optionalNumber(p, "scale", "scale"); err != nil {
		return nil, err
	}
	if plan.Ratio < 0 || plan.Scale < 0 {
		return nil, payload.Invalid("ratio", "Dimensions must not be negative")
	}
	tables, err := payload.Array(p["tables"], "tables")
	if err != nil {
		return nil, err
	}
	for t, raw := range tables {
		prefix := fmt.Sprintf("tables[%d]", t)
		obj, err := payload.Parse(raw, prefix)
		if err != nil {
			return nil, err
		}
		table, err := parseTable(obj, prefix)
		if err != nil {
			return nil, err
		}
		plan.Tables = append(plan.Tables, table)
	}
	return plan, nil
}

func parseTable(obj payload.Object, prefix string) (models.Table, error) {
	table := models.Table{Seats: []models.Seat{}}
	var err error
	for _, f := range []struct {
		key string
		dst *float64
	}{{"x", &table.X}, {"y", &table.Y}, {"rotation", &table.Rotation}} {
		if *f.dst, err = optionalNumber(obj, f.key, prefix+"."+f.key); err != nil {
			return table, err
		}
	}
	seats, err := payload.Array(obj["seats"], prefix+".seats")
	if err != nil {
		return table, err
	}
	for s, raw := range seats {
		field := fmt.Sprintf("%s.seats[%d]", prefix, s)
		seat, err := parseSeat(raw, field)
		if err != nil {
			return table, err
		}
		table.Seats = append(table.Seats, seat)
	}
	return table, nil
}

func parseSeat(raw json.RawMessage, field string) (models.Seat, error) {
	var seat models.Seat
	obj, err := payload.Parse(raw, field)
	if err != nil {
		return seat, err
	}
	if v, ok := obj["id"]; ok {
		if seat.ID, err = payload.String(v, field+".id"); err != nil {
			return seat, payload.Invalid(field+".id", "Unsupported value: %s", v)
		}
	}
	if v, ok := obj["idx"]; ok {
		idx, err := payload.Int(v, field+".idx")
		if err != nil || idx < 0 {
			return seat, payload.Invalid(field+".idx", "Unsupported value: %s", v)
		}
		seat.Idx = idx
	}
	if v, ok := obj["child"]; ok {
		if seat.Child, err = payload.Bool(v, field+".child"); err != nil {
			return seat, payload.Invalid(field+".child", "Unsupported value: %s", v)
		}
	}
	return seat, nil
}

func optionalNumber(obj payload.Object, key, field string) (float64, error) {
	raw, ok := obj[key]
	if !ok {
		return 0, nil
	}
	return payload.Number(raw, field)
}
