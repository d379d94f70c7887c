package menu

import (
	"weddingplanner/models"
	"weddingplanner/payload"
)

var (
	stringProps = []string{"title", "description"}
	boolProps   = []string{"child", "vegan", "vegetarian", "gluten_free"}
)

// Reduce merges p into a copy of existing and reports the changed fields.
func Reduce(existing *models.MenuItem, p payload.Object) (*models.MenuItem, payload.Changes, error) {
	updated := *existing
	strs := map[string]*string{"title": &updated.Title, "description": &updated.Description}
	bools := map[string]*bool{"child": &updated.Child, "vegan": &updated.Vegan, "vegetarian": &updated.Vegetarian, "gluten_free": &updated.GlutenFree}

	for _, prop := range stringProps {
		if raw, ok := p[prop]; ok {
			v, err := payload.String(raw, prop)
			if err != nil {
				return nil, nil, err
			}
			*strs[prop] = v
		}
	}
	for _, prop := range boolProps {
		if raw, ok := p[prop]; ok {
			v, err := payload.Bool(raw, prop)
			if err != nil {
				return nil, nil, err
			}
			*bools[prop] = v
		}
	}
	if raw, ok := p["course"]; ok {
		n, err := payload.Number(raw, "course")
		if err != nil {
			return nil, nil, err
		}
		if n != float64(int(n)) || n < models.CourseStarter || n > models.CourseDessert {
			return nil, nil, payload.Invalid("course", "Unknown course value: %s", raw)
		}
		updated.Course = int(n)
	}
	if updated.Title == "" {
		return nil, nil, payload.Invalid("title", "Value is required")
	}
	if updated.Vegan {
		updated.Vegetarian = true
	}

	changes := payload.Changes{}
	diff := func(name string, before, after any) {
		if before != after {
			changes[name] = after
		}
	}
	diff("title", existing.Title, updated.Title)
	diff("description", existing.Description, updated.Description)
	diff("child", existing.Child, updated.Child)
	diff("course", existing.Course, updated.Course)
	diff("vegan", existing.Vegan, updated.Vegan)
	diff("vegetarian", existing.Vegetarian, updated.Vegetarian)
	diff("gluten_free", existing.GlutenFree, updated.GlutenFree)
	return &updated, changes, nil
}
