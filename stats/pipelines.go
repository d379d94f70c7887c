package stats

import (
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// countBy flattens {_id, count} groups into a single {"<_id>": count}
// document.
func countBy(key any) []bson.D {
	return []bson.D{
		{{Key: "$group", Value: bson.D{{Key: "_id", Value: key}, {Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}}}}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: nil},
			{Key: "counts", Value: bson.D{{Key: "$push", Value: bson.D{
				{Key: "k", Value: bson.D{{Key: "$toString", Value: "$_id"}}},
				{Key: "v", Value: "$count"},
			}}}},
		}}},
		{{Key: "$replaceRoot", Value: bson.D{{Key: "newRoot", Value: bson.D{{Key: "$arrayToObject", Value: "$counts"}}}}}},
	}
}

func total(value any) bson.D {
	return bson.D{{Key: "$group", Value: bson.D{{Key: "_id", Value: nil}, {Key: "count", Value: bson.D{{Key: "$sum", Value: value}}}}}}
}

func pipeline(stages ...[]bson.D) mongo.Pipeline {
	var p mongo.Pipeline
	for _, s := range stages {
		p = append(p, s...)
	}
	return p
}

func stage(op string, value any) []bson.D {
	return []bson.D{{{Key: op, Value: value}}}
}

// statusPipeline counts named guests by the status held in field.
func statusPipeline(field string) mongo.Pipeline {
	return pipeline(
		stage("$project", bson.D{{Key: "_id", Value: 0}, {Key: "guests.name", Value: 1}, {Key: "guests." + field, Value: 1}}),
		stage("$unwind", "$guests"),
		stage("$match", bson.D{{Key: "guests.name", Value: bson.D{{Key: "$ne", Value: ""}}}, {Key: "guests." + field, Value: bson.D{{Key: "$ne", Value: nil}}}}),
		countBy("$guests."+field),
	)
}

var (
	unusedPlusOnePipeline = pipeline(
		stage("$project", bson.D{{Key: "_id", Value: 0}, {Key: "guests.name", Value: 1}}),
		stage("$unwind", "$guests"),
		stage("$match", bson.D{{Key: "guests.name", Value: ""}}),
		[]bson.D{total(1)},
	)
	childrenPipeline = pipeline(
		stage("$project", bson.D{{Key: "_id", Value: 0}, {Key: "children.name", Value: 1}, {Key: "children.age", Value: 1}}),
		stage("$unwind", "$children"),
		stage("$match", bson.D{{Key: "children.name", Value: bson.D{{Key: "$ne", Value: ""}}}, {Key: "children.age", Value: bson.D{{Key: "$gt", Value: 0}}}}),
		[]bson.D{total(1)},
	)
	loginsPipeline = pipeline(
		stage("$match", bson.D{{Key: "admin", Value: bson.D{{Key: "$ne", Value: true}}}}),
		stage("$project", bson.D{{Key: "_id", Value: 0}, {Key: "login_count", Value: 1}}),
		[]bson.D{total("$login_count")},
	)
	songsPipeline = pipeline(
		stage("$project", bson.D{{Key: "_id", Value: 0}, {Key: "songs", Value: 1}}),
		stage("$unwind", "$songs"),
		stage("$match", bson.D{{Key: "songs", Value: bson.D{{Key: "$nin", Value: bson.A{"", nil}}}}}),
		[]bson.D{total(1)},
	)
	messagesPipeline = pipeline(
		stage("$match", bson.D{{Key: "message", Value: bson.D{{Key: "$nin", Value: bson.A{"", nil}}}}}),
		stage("$project", bson.D{{Key: "_id", Value: 0}, {Key: "message", Value: 1}}),
		[]bson.D{total(1)},
	)
)

// mealPipeline counts menu picks of group entries passing match.
func mealPipeline(group string, match bson.D) mongo.Pipeline {
	return pipeline(
		stage("$project", bson.D{{Key: "_id", Value: 0}, {Key: group, Value: 1}}),
		stage("$unwind", "$"+group),
		stage("$match", match),
		stage("$addFields", bson.D{{Key: "meal", Value: bson.A{"$" + group + ".starter_id", "$" + group + ".main_id", "$" + group + ".dessert_id"}}}),
		stage("$unwind", "$meal"),
		stage("$match", bson.D{{Key: "meal", Value: bson.D{{Key: "$nin", Value: bson.A{"", nil}}}}}),
		countBy("$meal"),
	)
}

var (
	adultMealPipeline = mealPipeline("guests", bson.D{{Key: "guests.status_reception", Value: bson.D{{Key: "$in", Value: bson.A{1, 2}}}}})
	childMealPipeline = mealPipeline("children", bson.D{{Key: "children.age", Value: bson.D{{Key: "$gt", Value: 2}}}})
)
