// Package content serves the editable singleton pages: about, gallery,
// questions and story.
package content

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

// Section is one content page. Every item must carry a non-empty string
// in at least one of Fields.
type Section struct {
	Path   string
	Fields []string
	Doc    Document
}

func (s Section) Routes() []api.Route {
	return []api.Route{
		{Path: s.Path, Auth: api.SessionAuth, Action: s.get},
		{Path: s.Path, Method: http.MethodPut, Auth: api.AdminAuth, Action: s.update},
	}
}

// Sections returns the four pages bound to their collections.
func Sections(about, gallery, questions, story Document) []Section {
	return []Section{
		{Path: "about", Fields: []string{"title", "content"}, Doc: about},
		{Path: "gallery", Fields: []string{"path"}, Doc: gallery},
		{Path: "question", Fields: []string{"title", "answer"}, Doc: questions},
		{Path: "story", Fields: []string{"title", "description", "date"}, Doc: story},
	}
}

func (s Section) get(w http.ResponseWriter, r *api.Request) error {
	doc := models.Content{Items: []map[string]any{}}
	if err := s.Doc.Load(r.Context(), &doc); err != nil && !errors.Is(err, db.ErrNotFound) {
		return err
	}
	return api.OK(w, doc)
}

func (s Section) update(w http.ResponseWriter, r *api.Request) error {
	body, err := payload.Decode(r.Body)
	if err != nil {
		return err
	}
	items, err := s.Parse(body)
	if err != nil {
		return err
	}
	r.Log.Info().Str("section", s.Path).Int("items", len(items)).Msg("updating content")
	if err := s.Doc.Replace(r.Context(), models.Content{Items: items, Updated: time.Now()}); err != nil {
		return err
	}
	return api.NoContent(w)
}

// Parse validates the replacement item list.
func (s Section) Parse(p payload.Object) ([]map[string]any, error) {
	raws, err := payload.Array(p["items"], "items")
	if err != nil {
		return nil, err
	}
	items := make([]map[string]any, 0, len(raws))
	for idx, raw := range raws {
		field := fmt.Sprintf("items[%d]", idx)
		obj, err := payload.Parse(raw, field)
		if err != nil {
			return nil, err
		}
		if err := s.check(obj, field); err != nil {
			return nil, err
		}
		var item map[string]any
		if err := json.Unmarshal(raw, &item); err != nil {
			return nil, payload.MustBe(field, "object")
		}
		items = append(items, item)
	}
	return items, nil
}

func (s Section) check(obj payload.Object, field string) error {
	found := false
	for _, key := range s.Fields {
		v, ok := obj[key]
		if !ok {
			continue
		}
		str, err := payload.String(v, field+"."+key)
		if err != nil {
			return err
		}
		if str != "" {
			found = true
		}
	}
	if !found {
		if len(s.Fields) == 1 {
			return payload.Invalid(field+"."+s.Fields[0], "Value is required")
		}
		return payload.Invalid(field, "Item must include one of: %v", s.Fields)
	}
	return nil
}
