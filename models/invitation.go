package models

import "time"

// Status is the attendance state of a guest.
type Status int

const (
	StatusPending Status = iota
	StatusConfirmed
	StatusTentative
	StatusDeclined
)

// Valid reports whether s is one of the defined attendance values.
func (s Status) Valid() bool {
	return s >= StatusPending && s <= StatusDeclined
}

// Course of a menu item.
const (
	CourseStarter = iota
	CourseMain
	CourseDessert
)

// MealOther is the sentinel meal selection that requires a dietary requirement.
const MealOther = "other"

// MealFields maps a course to the guest/child field holding its selection.
var MealFields = [...]string{"starter_id", "main_id", "dessert_id"}

// Invitation is one invited party and the people it covers.
type Invitation struct {
	ID         string    `json:"id" bson:"id"`
	Created    time.Time `json:"created" bson:"created"`
	Updated    time.Time `json:"updated,omitempty" bson:"updated,omitempty"`
	LoginCount int       `json:"login_count" bson:"login_count"`
	Admin      bool      `json:"admin,omitempty" bson:"admin,omitempty"`
	Email      bool      `json:"email,omitempty" bson:"email,omitempty"`
	Guests     []Guest   `json:"guests" bson:"guests"`
	Children   []Child   `json:"children" bson:"children"`
	Message    string    `json:"message" bson:"message"`
	Songs      []string  `json:"songs" bson:"songs"`
}

// Guest is an adult slot on an invitation. An empty name marks an unused plus-one.
type Guest struct {
	Name                string `json:"name" bson:"name"`
	StatusCeremony      Status `json:"status_ceremony" bson:"status_ceremony"`
	StatusReception     Status `json:"status_reception" bson:"status_reception"`
	DietaryRequirements string `json:"dietary_requirements" bson:"dietary_requirements"`
	StarterID           string `json:"starter_id" bson:"starter_id"`
	MainID              string `json:"main_id" bson:"main_id"`
	DessertID           string `json:"dessert_id" bson:"dessert_id"`
}

// Meal returns a pointer to the selection field for course.
func (g *Guest) Meal(course int) *string {
	return mealField(course, &g.StarterID, &g.MainID, &g.DessertID)
}

// Child is a child attending on an invitation.
type Child struct {
	Name                string `json:"name" bson:"name"`
	Age                 int    `json:"age" bson:"age"`
	DietaryRequirements string `json:"dietary_requirements" bson:"dietary_requirements"`
	StarterID           string `json:"starter_id" bson:"starter_id"`
	MainID              string `json:"main_id" bson:"main_id"`
	DessertID           string `json:"dessert_id" bson:"dessert_id"`
}

// Meal returns a pointer to the selection field for course.
func (c *Child) Meal(course int) *string {
	return mealField(course, &c.StarterID, &c.MainID, &c.DessertID)
}

func mealField(course int, starter, main, dessert *string) *string {
	switch course {
	case CourseStarter:
		return starter
	case CourseMain:
		return main
	case CourseDessert:
		return dessert
	}
	return nil
}

// PrimaryName is the first guest's name, used in logs and printed cards.
func (i *Invitation) PrimaryName() string {
	if len(i.Guests) == 0 {
		return ""
	}
	return i.Guests[0].Name
}
