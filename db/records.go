package db

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"weddingplanner/models"
	"weddingplanner/payload"
)

// keyed is the shared shape of collections addressed by a string id field.
type keyed[T any] struct {
	c *mongo.Collection
}

func (s keyed[T]) list(ctx context.Context, filter any, opts ...*options.FindOptions) ([]T, error) {
	if filter == nil {
		filter = bson.M{}
	}
	return findAll[T](ctx, s.c, filter, opts...)
}

func (s keyed[T]) Get(ctx context.Context, id string) (*T, error) {
	return findOne[T](ctx, s.c, bson.M{"id": id})
}

func (s keyed[T]) Insert(ctx context.Context, v *T) error {
	_, err := s.c.InsertOne(ctx, v)
	return err
}

func (s keyed[T]) Update(ctx context.Context, id string, changes payload.Changes) error {
	res, err := s.c.UpdateOne(ctx, bson.M{"id": id}, setChanges(changes, time.Now()))
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s keyed[T]) Delete(ctx context.Context, id string) (bool, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"id": id})
	if err != nil {
		return false, err
	}
	return res.DeletedCount > 0, nil
}

type RSVPs struct {
	c *mongo.Collection
}

func (s *RSVPs) k() keyed[models.RSVP] { return keyed[models.RSVP]{c: s.c} }

func (s *RSVPs) List(ctx context.Context) ([]models.RSVP, error) { return s.k().list(ctx, nil, noObjectID) }
func (s *RSVPs) Get(ctx context.Context, id string) (*models.RSVP, error) {
	return s.k().Get(ctx, id)
}
func (s *RSVPs) Insert(ctx context.Context, r *models.RSVP) error { return s.k().Insert(ctx, r) }
func (s *RSVPs) Update(ctx context.Context, id string, changes payload.Changes) error {
	return s.k().Update(ctx, id, changes)
}
func (s *RSVPs) Delete(ctx context.Context, id string) (bool, error) { return s.k().Delete(ctx, id) }

type MenuItems struct {
	c *mongo.Collection
}

func (s *MenuItems) k() keyed[models.MenuItem] { return keyed[models.MenuItem]{c: s.c} }

// List returns all menu items, or only those in ids when ids is non-empty.
func (s *MenuItems) List(ctx context.Context, ids []string) ([]models.MenuItem, error) {
	filter := bson.M{}
	if len(ids) > 0 {
		filter["id"] = bson.M{"$in": ids}
	}
	opts := options.Find().SetProjection(bson.M{"_id": 0}).SetSort(bson.D{{Key: "course", Value: 1}, {Key: "title", Value: 1}})
	return s.k().list(ctx, filter, opts)
}
func (s *MenuItems) Get(ctx context.Context, id string) (*models.MenuItem, error) {
	return s.k().Get(ctx, id)
}
func (s *MenuItems) Insert(ctx context.Context, m *models.MenuItem) error { return s.k().Insert(ctx, m) }
func (s *MenuItems) Update(ctx context.Context, id string, changes payload.Changes) error {
	return s.k().Update(ctx, id, changes)
}
func (s *MenuItems) Delete(ctx context.Context, id string) (bool, error) { return s.k().Delete(ctx, id) }

type CalendarEvents struct {
	c *mongo.Collection
}

func (s *CalendarEvents) k() keyed[models.CalendarEvent] { return keyed[models.CalendarEvent]{c: s.c} }

func (s *CalendarEvents) List(ctx context.Context) ([]models.CalendarEvent, error) {
	opts := options.Find().SetProjection(bson.M{"_id": 0}).SetSort(bson.D{{Key: "start", Value: 1}})
	return s.k().list(ctx, nil, opts)
}
func (s *CalendarEvents) Get(ctx context.Context, id string) (*models.CalendarEvent, error) {
	return s.k().Get(ctx, id)
}
func (s *CalendarEvents) Insert(ctx context.Context, e *models.CalendarEvent) error {
	return s.k().Insert(ctx, e)
}
func (s *CalendarEvents) Update(ctx context.Context, id string, changes payload.Changes) error {
	return s.k().Update(ctx, id, changes)
}
func (s *CalendarEvents) Delete(ctx context.Context, id string) (bool, error) {
	return s.k().Delete(ctx, id)
}

type Feedback struct {
	c *mongo.Collection
}

func (s *Feedback) k() keyed[models.FeedbackItem] { return keyed[models.FeedbackItem]{c: s.c} }

func readFilter(read *bool) bson.M {
	if read == nil {
		return bson.M{}
	}
	return bson.M{"read": *read}
}

// List returns feedback, unread first then newest first.
func (s *Feedback) List(ctx context.Context, read *bool) ([]models.FeedbackItem, error) {
	opts := options.Find().SetProjection(bson.M{"_id": 0}).SetSort(bson.D{{Key: "read", Value: 1}, {Key: "created", Value: -1}})
	return s.k().list(ctx, readFilter(read), opts)
}

func (s *Feedback) Count(ctx context.Context, read *bool) (int64, error) {
	return s.c.CountDocuments(ctx, readFilter(read))
}
func (s *Feedback) Get(ctx context.Context, id string) (*models.FeedbackItem, error) {
	return s.k().Get(ctx, id)
}
func (s *Feedback) Insert(ctx context.Context, f *models.FeedbackItem) error { return s.k().Insert(ctx, f) }
func (s *Feedback) Update(ctx context.Context, id string, changes payload.Changes) error {
	return s.k().Update(ctx, id, changes)
}
func (s *Feedback) Delete(ctx context.Context, id string) (bool, error) { return s.k().Delete(ctx, id) }

type Tokens struct {
	c *mongo.Collection
}

func (s *Tokens) FindByHash(ctx context.Context, hash string) (*models.Token, error) {
	return findOne[models.Token](ctx, s.c, bson.M{"hash": hash})
}

func (s *Tokens) List(ctx context.Context) ([]models.Token, error) {
	return findAll[models.Token](ctx, s.c, bson.M{}, options.Find().SetSort(bson.D{{Key: "created", Value: -1}}))
}

func (s *Tokens) Insert(ctx context.Context, t *models.Token) error {
	res, err := s.c.InsertOne(ctx, t)
	if err != nil {
		return err
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		t.ObjectID = oid
	}
	return nil
}

func (s *Tokens) Delete(ctx context.Context, id primitive.ObjectID) (bool, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return false, err
	}
	return res.DeletedCount > 0, nil
}

type Telemetry struct {
	c *mongo.Collection
}

func (s *Telemetry) Insert(ctx context.Context, e *models.TelemetryEvent) error {
	_, err := s.c.InsertOne(ctx, e)
	return err
}

// List returns the newest events first, at most limit of them.
func (s *Telemetry) List(ctx context.Context, limit int64) ([]models.TelemetryEvent, error) {
	opts := options.Find().SetProjection(bson.M{"_id": 0}).SetSort(bson.D{{Key: "created", Value: -1}}).SetLimit(limit)
	return findAll[models.TelemetryEvent](ctx, s.c, bson.M{}, opts)
}

// Singleton is a collection holding exactly one document.
type Singleton struct {
	c *mongo.Collection
}

// Load decodes the document into out, returning ErrNotFound when absent.
func (s *Singleton) Load(ctx context.Context, out any) error {
	err := s.c.FindOne(ctx, bson.M{}, options.FindOne().SetProjection(bson.M{"_id": 0})).Decode(out)
	return notFound(err)
}

// Replace overwrites the document, creating it if needed.
func (s *Singleton) Replace(ctx context.Context, doc any) error {
	_, err := s.c.ReplaceOne(ctx, bson.M{}, doc, options.Replace().SetUpsert(true))
	return err
}
