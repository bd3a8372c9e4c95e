package mongostore

import (
	"github.com/elevare/elevare-backend-go/internal/domain"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// buildFilter combines the record id (if any), ownership scope, equality
// match and time bound into one query document.
func buildFilter(id string, scope domain.Scope, match domain.Match, after *domain.TimeBound) bson.M {
	var conds []bson.M

	if id != "" {
		conds = append(conds, bson.M{"_id": id})
	}
	if c := scopeCond(scope); c != nil {
		conds = append(conds, c)
	}
	if len(match) > 0 {
		m := bson.M{}
		for k, v := range match {
			m[k] = v
		}
		conds = append(conds, m)
	}
	if after != nil {
		conds = append(conds, bson.M{after.Field: bson.M{"$gt": after.Time}})
	}

	switch len(conds) {
	case 0:
		return bson.M{}
	case 1:
		return conds[0]
	default:
		return bson.M{"$and": conds}
	}
}

func scopeCond(scope domain.Scope) bson.M {
	if scope.Global {
		return nil
	}
	switch len(scope.Fields) {
	case 0:
		// Nothing can be owned through no field.
		return bson.M{"_id": bson.M{"$in": bson.A{}}}
	case 1:
		return bson.M{scope.Fields[0]: scope.OwnerID}
	default:
		or := make(bson.A, 0, len(scope.Fields))
		for _, f := range scope.Fields {
			or = append(or, bson.M{f: scope.OwnerID})
		}
		return bson.M{"$or": or}
	}
}

// findOptions applies sort order and limit. Lists default to newest first.
func findOptions(q domain.Query) *options.FindOptions {
	field := q.SortField
	if field == "" {
		field = "createdAt"
	}
	dir := -1
	if q.SortAsc {
		dir = 1
	}
	opts := options.Find().SetSort(bson.D{{Key: field, Value: dir}, {Key: "_id", Value: dir}})
	if q.Limit > 0 {
		opts.SetLimit(q.Limit)
	}
	return opts
}
