package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// RSVP is the earlier single-status shape of an invitation.
type RSVP struct {
	ID      string      `json:"id" bson:"id"`
	Admin   bool        `json:"admin,omitempty" bson:"admin,omitempty"`
	Updated time.Time   `json:"updated,omitempty" bson:"updated,omitempty"`
	Guests  []RSVPGuest `json:"guests" bson:"guests"`
}

type RSVPGuest struct {
	Name   string `json:"name" bson:"name"`
	Status Status `json:"status" bson:"status"`
}

// MenuItem is a dish on the adult or children's menu.
type MenuItem struct {
	ID          string    `json:"id" bson:"id"`
	Created     time.Time `json:"created" bson:"created"`
	Updated     time.Time `json:"updated" bson:"updated"`
	Child       bool      `json:"child" bson:"child"`
	Course      int       `json:"course" bson:"course"`
	Title       string    `json:"title" bson:"title"`
	Description string    `json:"description" bson:"description"`
	Vegan       bool      `json:"vegan" bson:"vegan"`
	Vegetarian  bool      `json:"vegetarian" bson:"vegetarian"`
	GlutenFree  bool      `json:"gluten_free" bson:"gluten_free"`
}

// CalendarEvent is an entry published in the calendar feed.
type CalendarEvent struct {
	ID          string    `json:"id" bson:"id"`
	Created     time.Time `json:"created" bson:"created"`
	Updated     time.Time `json:"updated,omitempty" bson:"updated,omitempty"`
	AllDay      bool      `json:"allDay" bson:"allDay"`
	Description string    `json:"description" bson:"description"`
	Start       time.Time `json:"start" bson:"start"`
	End         time.Time `json:"end" bson:"end"`
	Organizer   Organizer `json:"organizer" bson:"organizer"`
	Location    Location  `json:"location" bson:"location"`
	Summary     string    `json:"summary" bson:"summary"`
	Timezone    string    `json:"timezone,omitempty" bson:"timezone,omitempty"`
}

type Organizer struct {
	Name  string `json:"name" bson:"name" validate:"required"`
	Email string `json:"email" bson:"email" validate:"required,email"`
}

type Location struct {
	Title   string   `json:"title" bson:"title" validate:"required"`
	Address string   `json:"address,omitempty" bson:"address,omitempty"`
	Radius  *float64 `json:"radius,omitempty" bson:"radius,omitempty" validate:"omitempty,gte=0"`
	Geo     *Geo     `json:"geo,omitempty" bson:"geo,omitempty"`
}

type Geo struct {
	Lat float64 `json:"lat" bson:"lat" validate:"latitude"`
	Lon float64 `json:"lon" bson:"lon" validate:"longitude"`
}

// FeedbackItem is a message left by a guest for the admins.
type FeedbackItem struct {
	ID         string    `json:"id" bson:"id"`
	Invitation string    `json:"invitation" bson:"invitation"`
	Created    time.Time `json:"created" bson:"created"`
	Updated    time.Time `json:"updated" bson:"updated"`
	Message    string    `json:"message" bson:"message"`
	Read       bool      `json:"read" bson:"read"`
}

// Token is an admin API credential. Only the digest of the secret is stored.
type Token struct {
	ObjectID    primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	Hash        string             `json:"-" bson:"hash"`
	Name        string             `json:"name" bson:"name"`
	Description string             `json:"description" bson:"description"`
	Created     time.Time          `json:"created" bson:"created"`
}

// TelemetryEvent records a front-end page view.
type TelemetryEvent struct {
	ID         string    `json:"id" bson:"id"`
	Invitation string    `json:"invitation,omitempty" bson:"invitation,omitempty"`
	Created    time.Time `json:"created" bson:"created"`
	Path       string    `json:"path" bson:"path"`
	PathMatch  string    `json:"path_match" bson:"path_match"`
	PathName   string    `json:"path_name" bson:"path_name"`
	Viewport   string    `json:"viewport" bson:"viewport"`
}
