package db

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"weddingplanner/models"
	"weddingplanner/payload"
)

type Invitations struct {
	c *mongo.Collection
}

var noObjectID = options.Find().SetProjection(bson.M{"_id": 0})

// List returns every invitation. A non-empty menuItemID restricts the result
// to invitations where any guest or child picked that item.
func (s *Invitations) List(ctx context.Context, menuItemID string) ([]models.Invitation, error) {
	filter := bson.M{}
	if menuItemID != "" {
		var or bson.A
		for _, field := range models.MealFields {
			or = append(or, bson.M{"guests." + field: menuItemID}, bson.M{"children." + field: menuItemID})
		}
		filter["$or"] = or
	}
	return findAll[models.Invitation](ctx, s.c, filter, noObjectID)
}

// Admins returns the invitations flagged admin.
func (s *Invitations) Admins(ctx context.Context) ([]models.Invitation, error) {
	return findAll[models.Invitation](ctx, s.c, bson.M{"admin": true}, noObjectID)
}

func (s *Invitations) Get(ctx context.Context, id string) (*models.Invitation, error) {
	return findOne[models.Invitation](ctx, s.c, bson.M{"id": id})
}

// GetMany returns the invitations with the given ids, in no particular order.
func (s *Invitations) GetMany(ctx context.Context, ids []string) ([]models.Invitation, error) {
	return findAll[models.Invitation](ctx, s.c, bson.M{"id": bson.M{"$in": ids}}, noObjectID)
}

func (s *Invitations) Insert(ctx context.Context, inv *models.Invitation) error {
	_, err := s.c.InsertOne(ctx, inv)
	return err
}

// Update applies changes and stamps updated. Callers skip empty change sets.
func (s *Invitations) Update(ctx context.Context, id string, changes payload.Changes) error {
	res, err := s.c.UpdateOne(ctx, bson.M{"id": id}, setChanges(changes, time.Now()))
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes an invitation and reports whether it existed.
func (s *Invitations) Delete(ctx context.Context, id string) (bool, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"id": id})
	if err != nil {
		return false, err
	}
	return res.DeletedCount > 0, nil
}

// RecordLogin increments the login counter and returns the updated record.
func (s *Invitations) RecordLogin(ctx context.Context, id string) (*models.Invitation, error) {
	var inv models.Invitation
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"id": id},
		bson.M{"$inc": bson.M{"login_count": 1}},
		options.FindOneAndUpdate().SetReturnDocument(options.After).SetProjection(bson.M{"_id": 0}),
	).Decode(&inv)
	if err != nil {
		return nil, notFound(err)
	}
	return &inv, nil
}

// ClearSelection blanks field on every guest (or child) entry that selected
// itemID. group is "guests" or "children".
func (s *Invitations) ClearSelection(ctx context.Context, group, field, itemID string) (int64, error) {
	res, err := s.c.UpdateMany(ctx,
		bson.M{group: bson.M{"$exists": true, "$ne": bson.A{}}},
		bson.M{"$set": bson.M{group + ".$[entry]." + field: ""}},
		options.Update().SetArrayFilters(options.ArrayFilters{
			Filters: []any{bson.M{"entry." + field: itemID}},
		}),
	)
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

// Aggregate runs pipeline and decodes every result document into out.
func (s *Invitations) Aggregate(ctx context.Context, pipeline mongo.Pipeline, out any) error {
	cur, err := s.c.Aggregate(ctx, pipeline)
	if err != nil {
		return err
	}
	return cur.All(ctx, out)
}
