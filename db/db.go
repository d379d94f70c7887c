// Package db wraps the MongoDB collections used by the API.
package db

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/x/mongo/driver/connstring"

	"weddingplanner/logging"
	"weddingplanner/payload"
)

// ErrNotFound is returned when a lookup matches no document.
var ErrNotFound = errors.New("document not found")

// Collection names.
const (
	CollCalendarEvents = "calendar_events"
	CollFeedback       = "feedback"
	CollInvitations    = "invitations"
	CollMenuItems      = "menu_items"
	CollRSVPs          = "rsvps"
	CollTokens         = "tokens"
	CollTelemetry      = "telemetry"
	CollSeating        = "seating"
	CollAbout          = "about"
	CollGallery        = "gallery"
	CollQuestions      = "questions"
	CollStory          = "story"
)

// Client holds the connection and one typed accessor per collection.
type Client struct {
	client   *mongo.Client
	database *mongo.Database

	Invitations    *Invitations
	RSVPs          *RSVPs
	MenuItems      *MenuItems
	CalendarEvents *CalendarEvents
	Feedback       *Feedback
	Tokens         *Tokens
	Telemetry      *Telemetry
	Seating        *Singleton
	About          *Singleton
	Gallery        *Singleton
	Questions      *Singleton
	Story          *Singleton
}

// Connect dials uri, verifies the connection and brings indexes up to date.
func Connect(ctx context.Context, uri string) (*Client, error) {
	log := logging.For("db")

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	log.Info().Msg("database connected")

	// The database name comes from the URI path.
	database := client.Database(dbName(uri))
	if err := EnsureIndexes(ctx, database); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	return New(client, database), nil
}

// New builds the accessors over an existing database handle.
func New(client *mongo.Client, database *mongo.Database) *Client {
	c := func(name string) *mongo.Collection { return database.Collection(name) }
	return &Client{
		client:         client,
		database:       database,
		Invitations:    &Invitations{c: c(CollInvitations)},
		RSVPs:          &RSVPs{c: c(CollRSVPs)},
		MenuItems:      &MenuItems{c: c(CollMenuItems)},
		CalendarEvents: &CalendarEvents{c: c(CollCalendarEvents)},
		Feedback:       &Feedback{c: c(CollFeedback)},
		Tokens:         &Tokens{c: c(CollTokens)},
		Telemetry:      &Telemetry{c: c(CollTelemetry)},
		Seating:        &Singleton{c: c(CollSeating)},
		About:          &Singleton{c: c(CollAbout)},
		Gallery:        &Singleton{c: c(CollGallery)},
		Questions:      &Singleton{c: c(CollQuestions)},
		Story:          &Singleton{c: c(CollStory)},
	}
}

// Close disconnects from the server.
func (c *Client) Close(ctx context.Context) error {
	if c.client == nil {
		return nil
	}
	err := c.client.Disconnect(ctx)
	if err == nil {
		log := logging.For("db")
		log.Info().Msg("database connection closed")
	}
	return err
}

func dbName(uri string) string {
	cs, err := connstring.ParseAndValidate(uri)
	if err != nil || cs.Database == "" {
		return "wedding"
	}
	return cs.Database
}

// IsDuplicate reports whether err is a unique index violation.
func IsDuplicate(err error) bool {
	return mongo.IsDuplicateKeyError(err)
}

func notFound(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	return err
}

// setChanges builds a $set covering changes plus the updated stamp.
func setChanges(changes payload.Changes, now time.Time) bson.M {
	set := bson.M{"updated": now}
	for k, v := range changes {
		set[k] = v
	}
	return bson.M{"$set": set}
}

// findAll runs a query and decodes every result, never returning a nil slice.
func findAll[T any](ctx context.Context, c *mongo.Collection, filter any, opts ...*options.FindOptions) ([]T, error) {
	cur, err := c.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	out := []T{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func findOne[T any](ctx context.Context, c *mongo.Collection, filter any) (*T, error) {
	var v T
	if err := c.FindOne(ctx, filter).Decode(&v); err != nil {
		return nil, notFound(err)
	}
	return &v, nil
}
