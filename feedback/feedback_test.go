package feedback

import (
	"context"
	"net/http"
	"sort"
	"strings"
	"testing"
	"time"

	"weddingplanner/api/apitest"
	"weddingplanner/db"
	"weddingplanner/models"
	"weddingplanner/payload"
)

type fakeStore struct {
	items []*models.FeedbackItem
}

func (f *fakeStore) filter(read *bool) []models.FeedbackItem {
	out := []models.FeedbackItem{}
	for _, item := range f.items {
		if read == nil || item.Read == *read {
			out = append(out, *item)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Read != out[j].Read {
			return !out[i].Read
		}
		return out[i].Created.After(out[j].Created)
	})
	return out
}

func (f *fakeStore) List(_ context.Context, read *bool) ([]models.FeedbackItem, error) {
	return f.filter(read), nil
}

func (f *fakeStore) Count(_ context.Context, read *bool) (int64, error) {
	return int64(len(f.filter(read))), nil
}

func (f *fakeStore) Get(_ context.Context, id string) (*models.FeedbackItem, error) {
	for _, item := range f.items {
		if item.ID == id {
			cp := *item
			return &cp, nil
		}
	}
	return nil, db.ErrNotFound
}

func (f *fakeStore) Insert(_ context.Context, item *models.FeedbackItem) error {
	f.items = append(f.items, item)
	return nil
}

func (f *fakeStore) Update(_ context.Context, id string, changes payload.Changes) error {
	for _, item := range f.items {
		if item.ID == id {
			item.Read = changes["read"].(bool)
		}
	}
	return nil
}

func (f *fakeStore) Delete(_ context.Context, id string) (bool, error) {
	for i, item := range f.items {
		if item.ID == id {
			f.items = append(f.items[:i], f.items[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func TestFeedbackLengthLimit(t *testing.T) {
	store := &fakeStore{items: []*models.FeedbackItem{
		{ID: "old", Message: "seen", Read: true, Created: time.Now().Add(-time.Hour)},
	}}
	router := apitest.Router(t, &Handler{Feedback: store})

	rec := apitest.Do(t, router, apitest.Guest("alice"), http.MethodPost, "/api/feedback", `{"message":"`+strings.Repeat("a", 600)+`"}`)
	apitest.Expect(t, rec, http.StatusBadRequest)

	rec = apitest.Do(t, router, apitest.Guest("alice"), http.MethodPost, "/api/feedback", `{"message":"`+strings.Repeat("a", 500)+`"}`)
	apitest.Expect(t, rec, http.StatusNoContent)

	rec = apitest.Do(t, router, apitest.Admin, http.MethodGet, "/api/feedback", "")
	apitest.Expect(t, rec, http.StatusOK)
	var items []models.FeedbackItem
	apitest.Decode(t, rec, &items)
	if len(items) != 2 || items[0].Read || items[0].Invitation != "alice" || len(items[0].Message) != 500 {
		t.Fatalf("unexpected list %+v", items)
	}

	rec = apitest.Do(t, router, apitest.Admin, http.MethodGet, "/api/feedback/count?read=false", "")
	var n int64
	apitest.Decode(t, rec, &n)
	if n != 1 {
		t.Fatalf("unread count %d", n)
	}
}

func TestFeedbackAccess(t *testing.T) {
	store := &fakeStore{}
	router := apitest.Router(t, &Handler{Feedback: store})

	rec := apitest.Do(t, router, apitest.Anonymous, http.MethodPost, "/api/feedback", `{"message":"hi"}`)
	apitest.Expect(t, rec, http.StatusUnauthorized)

	rec = apitest.Do(t, router, apitest.Guest("alice"), http.MethodGet, "/api/feedback", "")
	apitest.Expect(t, rec, http.StatusUnauthorized)
}

func TestFeedbackMarkRead(t *testing.T) {
	store := &fakeStore{items: []*models.FeedbackItem{{ID: "f1", Message: "hi"}}}
	router := apitest.Router(t, &Handler{Feedback: store})

	rec := apitest.Do(t, router, apitest.Admin, http.MethodPut, "/api/feedback/f1", `{"read":"yes"}`)
	apitest.Expect(t, rec, http.StatusBadRequest)

	rec = apitest.Do(t, router, apitest.Admin, http.MethodPut, "/api/feedback/f1", `{"read":true}`)
	apitest.Expect(t, rec, http.StatusNoContent)
	if !store.items[0].Read {
		t.Fatal("item not marked read")
	}

	rec = apitest.Do(t, router, apitest.Admin, http.MethodPut, "/api/feedback/missing", `{"read":true}`)
	apitest.Expect(t, rec, http.StatusBadRequest)

	rec = apitest.Do(t, router, apitest.Admin, http.MethodDelete, "/api/feedback/f1", "")
	apitest.Expect(t, rec, http.StatusNoContent)
	if len(store.items) != 0 {
		t.Fatal("item not deleted")
	}
}
