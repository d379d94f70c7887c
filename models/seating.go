package models

import "time"

// SeatingPlan is the single document describing the reception room.
type SeatingPlan struct {
	Ratio   float64   `json:"ratio" bson:"ratio"`
	Scale   float64   `json:"scale" bson:"scale"`
	Tables  []Table   `json:"tables" bson:"tables"`
	Updated time.Time `json:"updated,omitempty" bson:"updated,omitempty"`
}

type Table struct {
	X        float64 `json:"x" bson:"x"`
	Y        float64 `json:"y" bson:"y"`
	Rotation float64 `json:"rotation" bson:"rotation"`
	Seats    []Seat  `json:"seats" bson:"seats"`
}

// Seat points at a guest (or child) slot on an invitation. An empty ID is a free seat.
type Seat struct {
	ID    string `json:"id,omitempty" bson:"id"`
	Idx   int    `json:"idx" bson:"idx"`
	Child bool   `json:"child" bson:"child"`
	// Name is filled in on read for callers that may not see invitation ids.
	Name string `json:"name,omitempty" bson:"-"`
}

// Content is a free-form singleton page (about, gallery, questions, story).
type Content struct {
	Items   []map[string]any `json:"items" bson:"items"`
	Updated time.Time        `json:"updated,omitempty" bson:"updated,omitempty"`
}
