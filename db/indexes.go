package db

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"weddingplanner/logging"
)

// Indexes lists the wanted indexes per collection. Index names are the
// identity used when reconciling against the server.
var Indexes = map[string][]mongo.IndexModel{
	CollCalendarEvents: {
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetName("event_id").SetUnique(true)},
	},
	CollFeedback: {
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetName("feedback_id").SetUnique(true)},
		{Keys: bson.D{{Key: "read", Value: 1}}, Options: options.Index().SetName("feedback_read")},
		{Keys: bson.D{{Key: "read", Value: 1}, {Key: "created", Value: -1}}, Options: options.Index().SetName("feedback_search_order")},
	},
	CollInvitations: {
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetName("invitation_id").SetUnique(true)},
		{Keys: bson.D{{Key: "admin", Value: 1}}, Options: options.Index().SetName("is_admin")},
	},
	CollMenuItems: {
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetName("item_id").SetUnique(true)},
	},
	CollRSVPs: {
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetName("rsvp_id").SetUnique(true)},
	},
	CollTokens: {
		{Keys: bson.D{{Key: "hash", Value: 1}}, Options: options.Index().SetName("token_hash").SetUnique(true)},
	},
	CollTelemetry: {
		{Keys: bson.D{{Key: "created", Value: -1}}, Options: options.Index().SetName("telemetry_created")},
	},
}

// EnsureIndexes creates missing collections and indexes and drops indexes
// that are no longer declared.
func EnsureIndexes(ctx context.Context, database *mongo.Database) error {
	log := logging.For("db")
	for name, wanted := range Indexes {
		if err := database.CreateCollection(ctx, name); err != nil && !isNamespaceExists(err) {
			return fmt.Errorf("create collection %s: %w", name, err)
		}
		coll := database.Collection(name)

		existing, err := indexNames(ctx, coll)
		if err != nil {
			return fmt.Errorf("list indexes of %s: %w", name, err)
		}
		declared := make(map[string]bool, len(wanted))
		for _, model := range wanted {
			idxName := *model.Options.Name
			declared[idxName] = true
			if existing[idxName] {
				continue
			}
			log.Info().Str("collection", name).Str("index", idxName).Msg("adding index")
			if _, err := coll.Indexes().CreateOne(ctx, model); err != nil {
				return fmt.Errorf("create index %s.%s: %w", name, idxName, err)
			}
		}
		for idxName := range existing {
			if idxName == "_id_" || declared[idxName] {
				continue
			}
			log.Info().Str("collection", name).Str("index", idxName).Msg("removing unknown index")
			if _, err := coll.Indexes().DropOne(ctx, idxName); err != nil {
				return fmt.Errorf("drop index %s.%s: %w", name, idxName, err)
			}
		}
	}
	log.Info().Msg("database indexes up to date")
	return nil
}

func indexNames(ctx context.Context, coll *mongo.Collection) (map[string]bool, error) {
	cur, err := coll.Indexes().List(ctx)
	if err != nil {
		return nil, err
	}
	var specs []struct {
		Name string `bson:"name"`
	}
	if err := cur.All(ctx, &specs); err != nil {
		return nil, err
	}
	names := make(map[string]bool, len(specs))
	for _, s := range specs {
		names[s.Name] = true
	}
	return names, nil
}

func isNamespaceExists(err error) bool {
	var ce mongo.CommandError
	return errors.As(err, &ce) && ce.Name == "NamespaceExists"
}
