package mongodb

import (
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/jw164/MP3/domain"
	"github.com/jw164/MP3/repository"
)

func toBson(m map[string]interface{}) bson.M {
	if m == nil {
		return bson.M{}
	}
	return bson.M(m)
}

// findOptions translates the declarative query into driver options. The
// filter is handled separately; everything here only shapes the result set.
func findOptions(q repository.Query) *options.FindOptions {
	opts := options.Find()
	if len(q.Sort) > 0 {
		opts.SetSort(bson.M(q.Sort))
	}
	if len(q.Projection) > 0 {
		opts.SetProjection(bson.M(q.Projection))
	}
	if q.Skip > 0 {
		opts.SetSkip(q.Skip)
	}
	if q.Limit > 0 {
		opts.SetLimit(q.Limit)
	}
	return opts
}

func findOneOptions(projection map[string]interface{}) *options.FindOneOptions {
	opts := options.FindOne()
	if len(projection) > 0 {
		opts.SetProjection(bson.M(projection))
	}
	return opts
}

func storeErr(action string, err error) error {
	return domain.WrapError(domain.ErrCodeStore, action+" failed", err)
}
