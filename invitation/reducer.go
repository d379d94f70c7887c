package invitation

import (
	"bytes"
	"fmt"
	"slices"
	"unicode/utf8"

	"github.com/goccy/go-json"

	"weddingplanner/models"
	"weddingplanner/payload"
)

const (
	maxChildren   = 5
	maxSongs      = 5
	maxSongLength = 100
	maxMessage    = 1024
	maxDietary    = 256
	maxChildAge   = 17
)

var courseNames = [...]string{"starter", "main", "dessert"}

// Options carries the caller context a reducer needs.
type Options struct {
	Admin bool
	// Menu holds every menu item keyed by id, for meal selection checks.
	Menu map[string]models.MenuItem
}

// Reduce merges p into a copy of existing. It returns the resulting record
// and the top-level fields that changed. existing is not modified.
func Reduce(existing *models.Invitation, p payload.Object, opts Options) (*models.Invitation, payload.Changes, error) {
	updated := clone(existing)
	changes := payload.Changes{}

	var guests, children, songs []json.RawMessage
	var err error

	// Structural checks come before any field is inspected.
	if raw, ok := p["guests"]; ok {
		if guests, err = payload.Array(raw, "guests"); err != nil {
			return nil, nil, err
		}
		if !opts.Admin && len(guests) != len(existing.Guests) {
			return nil, nil, &payload.Error{Message: "Guest count cannot be modified"}
		}
		if len(guests) == 0 {
			return nil, nil, payload.Invalid("guests", "At least one guest is required for an Invitation")
		}
	}
	if raw, ok := p["children"]; ok {
		if children, err = payload.Array(raw, "children"); err != nil {
			return nil, nil, err
		}
		if len(children) > maxChildren {
			return nil, nil, payload.Invalid("children", "Only %d children allowed per invitation", maxChildren)
		}
	}
	if raw, ok := p["songs"]; ok {
		if songs, err = payload.Array(raw, "songs"); err != nil {
			return nil, nil, err
		}
		songs = slices.DeleteFunc(songs, emptySong)
		if len(songs) > maxSongs {
			return nil, nil, payload.Invalid("songs", "Only five song recommendations allowed per invitation")
		}
	}

	if guests != nil {
		next := make([]models.Guest, len(guests))
		for idx, raw := range guests {
			var base models.Guest
			if idx < len(existing.Guests) {
				base = existing.Guests[idx]
			}
			if next[idx], err = reduceGuest(base, raw, idx, opts); err != nil {
				return nil, nil, err
			}
		}
		updated.Guests = next
		if !slices.Equal(next, existing.Guests) {
			changes["guests"] = next
		}
	}

	if children != nil {
		next := make([]models.Child, len(children))
		for idx, raw := range children {
			var base models.Child
			if idx < len(existing.Children) {
				base = existing.Children[idx]
			}
			if next[idx], err = reduceChild(base, raw, idx, opts); err != nil {
				return nil, nil, err
			}
		}
		updated.Children = next
		if !slices.Equal(next, existing.Children) {
			changes["children"] = next
		}
	}

	if raw, ok := p["message"]; ok {
		msg, err := payload.String(raw, "message")
		if err != nil {
			return nil, nil, err
		}
		if utf8.RuneCountInString(msg) > maxMessage {
			return nil, nil, payload.Invalid("message", "Message must be %d characters or less", maxMessage)
		}
		updated.Message = msg
		if msg != existing.Message {
			changes["message"] = msg
		}
	}

	if p.Has("songs") {
		next := make([]string, 0, len(songs))
		for idx, raw := range songs {
			field := fmt.Sprintf("songs[%d]", idx)
			song, err := payload.String(raw, field)
			if err != nil {
				return nil, nil, payload.Invalid(field, "Songs must be strings")
			}
			if utf8.RuneCountInString(song) > maxSongLength {
				return nil, nil, payload.Invalid(field, "Song values must be %d characters or less", maxSongLength)
			}
			next = append(next, song)
		}
		updated.Songs = next
		if !slices.Equal(next, existing.Songs) {
			changes["songs"] = next
		}
	}

	return updated, changes, nil
}

func emptySong(raw json.RawMessage) bool {
	s := string(bytes.TrimSpace(raw))
	return s == "null" || s == `""`
}

func reduceGuest(g models.Guest, raw json.RawMessage, idx int, opts Options) (models.Guest, error) {
	prefix := fmt.Sprintf("guests[%d]", idx)
	obj, err := payload.Parse(raw, prefix)
	if err != nil {
		return g, err
	}
	field := func(name string) string { return prefix + "." + name }

	if v, ok := obj["name"]; ok {
		if g.Name, err = payload.String(v, field("name")); err != nil {
			return g, payload.Invalid(field("name"), "Unsupported value: %s", v)
		}
	}
	// An empty name frees the slot; nothing else about it survives.
	if g.Name == "" {
		return models.Guest{}, nil
	}
	for _, s := range []struct {
		key string
		dst *models.Status
	}{{"status_ceremony", &g.StatusCeremony}, {"status_reception", &g.StatusReception}} {
		v, ok := obj[s.key]
		if !ok {
			continue
		}
		if *s.dst, err = parseStatus(v, field(s.key)); err != nil {
			return g, err
		}
	}
	if v, ok := obj["dietary_requirements"]; ok {
		if g.DietaryRequirements, err = parseDietary(v, field("dietary_requirements")); err != nil {
			return g, err
		}
	}
	supplied, err := parseMeals(obj, field, g.Meal)
	if err != nil {
		return g, err
	}
	for course := range courseNames {
		if err := checkMeal(*g.Meal(course), course, g.DietaryRequirements, supplied[course], false, field(models.MealFields[course]), opts); err != nil {
			return g, err
		}
	}
	return g, nil
}

func reduceChild(c models.Child, raw json.RawMessage, idx int, opts Options) (models.Child, error) {
	prefix := fmt.Sprintf("children[%d]", idx)
	obj, err := payload.Parse(raw, prefix)
	if err != nil {
		return c, err
	}
	field := func(name string) string { return prefix + "." + name }

	if v, ok := obj["name"]; ok {
		if c.Name, err = payload.String(v, field("name")); err != nil {
			return c, payload.Invalid(field("name"), "Unsupported value: %s", v)
		}
	}
	if c.Name == "" {
		return models.Child{}, nil
	}
	if v, ok := obj["age"]; ok {
		age, err := payload.Int(v, field("age"))
		if err != nil {
			return c, err
		}
		if age < 0 || age > maxChildAge {
			return c, payload.Invalid(field("age"), "Age must be between 0 and %d", maxChildAge)
		}
		c.Age = age
	}
	if v, ok := obj["dietary_requirements"]; ok {
		if c.DietaryRequirements, err = parseDietary(v, field("dietary_requirements")); err != nil {
			return c, err
		}
	}
	supplied, err := parseMeals(obj, field, c.Meal)
	if err != nil {
		return c, err
	}
	for course := range courseNames {
		if err := checkMeal(*c.Meal(course), course, c.DietaryRequirements, supplied[course], true, field(models.MealFields[course]), opts); err != nil {
			return c, err
		}
	}
	return c, nil
}

func parseStatus(raw json.RawMessage, field string) (models.Status, error) {
	n, err := payload.Number(raw, field)
	if err != nil || n != float64(int(n)) || !models.Status(n).Valid() {
		return 0, payload.Invalid(field, "Unknown status value: %s", raw)
	}
	return models.Status(n), nil
}

func parseDietary(raw json.RawMessage, field string) (string, error) {
	s, err := payload.String(raw, field)
	if err != nil {
		return "", err
	}
	if utf8.RuneCountInString(s) > maxDietary {
		return "", payload.Invalid(field, "Dietary requirements must be %d characters or less", maxDietary)
	}
	return s, nil
}

// parseMeals applies any supplied meal fields through slot and reports which
// courses were supplied.
func parseMeals(obj payload.Object, field func(string) string, slot func(int) *string) ([3]bool, error) {
	var supplied [3]bool
	for course, key := range models.MealFields {
		v, ok := obj[key]
		if !ok {
			continue
		}
		id, err := payload.String(v, field(key))
		if err != nil {
			return supplied, err
		}
		*slot(course) = id
		supplied[course] = true
	}
	return supplied, nil
}

// checkMeal validates one meal selection of the resulting record. Menu
// references are only resolved when the selection was supplied.
func checkMeal(id string, course int, dietary string, supplied, child bool, field string, opts Options) error {
	switch {
	case id == "":
		return nil
	case id == models.MealOther:
		if dietary == "" {
			return payload.Invalid(field, "Dietary requirements must be provided when selecting \"other\"")
		}
		return nil
	case !supplied:
		return nil
	}
	item, ok := opts.Menu[id]
	if !ok {
		return payload.Invalid(field, "Unknown menu item: %q", id)
	}
	if item.Child && !child {
		return payload.Invalid(field, "Menu item %q is only available on the children's menu", id)
	}
	if item.Course != course {
		return payload.Invalid(field, "Menu item %q is not a %s", id, courseNames[course])
	}
	return nil
}

func clone(inv *models.Invitation) *models.Invitation {
	cp := *inv
	cp.Guests = slices.Clone(inv.Guests)
	cp.Children = slices.Clone(inv.Children)
	cp.Songs = slices.Clone(inv.Songs)
	return &cp
}
