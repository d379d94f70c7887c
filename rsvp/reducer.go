package rsvp

import (
	"fmt"
	"slices"

	"weddingplanner/models"
	"weddingplanner/payload"
)

// Reduce merges p into a copy of existing and reports the changed fields.
func Reduce(existing *models.RSVP, p payload.Object, admin bool) (*models.RSVP, payload.Changes, error) {
	updated := *existing
	changes := payload.Changes{}

	raw, ok := p["guests"]
	if !ok {
		return &updated, changes, nil
	}
	guests, err := payload.Array(raw, "guests")
	if err != nil {
		return nil, nil, err
	}
	if !admin && len(guests) != len(existing.Guests) {
		return nil, nil, &payload.Error{Message: "Guest count cannot be modified"}
	}
	if len(guests) == 0 {
		return nil, nil, payload.Invalid("guests", "At least one guest is required for an RSVP")
	}

	next := make([]models.RSVPGuest, len(guests))
	for idx, raw := range guests {
		prefix := fmt.Sprintf("guests[%d]", idx)
		obj, err := payload.Parse(raw, prefix)
		if err != nil {
			return nil, nil, err
		}
		var g models.RSVPGuest
		if idx < len(existing.Guests) {
			g = existing.Guests[idx]
		}
		if v, ok := obj["name"]; ok {
			if g.Name, err = payload.String(v, prefix+".name"); err != nil {
				return nil, nil, payload.Invalid(prefix+".name", "Unsupported value: %s", v)
			}
		}
		if v, ok := obj["status"]; ok {
			field := prefix + ".status"
			n, err := payload.Number(v, field)
			if err != nil || n != float64(int(n)) || !models.Status(n).Valid() {
				return nil, nil, payload.Invalid(field, "Unknown status value: %s", v)
			}
			status := models.Status(n)
			if status == models.StatusPending && g.Status != models.StatusPending && !admin {
				return nil, nil, payload.Invalid(field, "Cannot set status to Pending (0).")
			}
			g.Status = status
		}
		next[idx] = g
	}
	updated.Guests = next
	if !slices.Equal(next, existing.Guests) {
		changes["guests"] = next
	}
	return &updated, changes, nil
}
