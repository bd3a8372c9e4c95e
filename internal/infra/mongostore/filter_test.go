package mongostore

import (
	"testing"
	"time"

	"github.com/elevare/elevare-backend-go/internal/domain"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson"
)

func TestBuildFilter(t *testing.T) {
	since := time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		id    string
		scope domain.Scope
		match domain.Match
		after *domain.TimeBound
		want  bson.M
	}{
		{
			name:  "global list",
			scope: domain.GlobalScope(),
			want:  bson.M{},
		},
		{
			name:  "owned list",
			scope: domain.OwnedBy("alice", "agent"),
			want:  bson.M{"agent": "alice"},
		},
		{
			name:  "get by id within scope",
			id:    "lead-1",
			scope: domain.OwnedBy("alice", "agent"),
			want:  bson.M{"$and": []bson.M{{"_id": "lead-1"}, {"agent": "alice"}}},
		},
		{
			name:  "scope on _id does not clobber the id condition",
			id:    "u-2",
			scope: domain.OwnedBy("u-1", "_id"),
			want:  bson.M{"$and": []bson.M{{"_id": "u-2"}, {"_id": "u-1"}}},
		},
		{
			name:  "multiple owner fields",
			scope: domain.OwnedBy("bob", "agent", "assignedTo"),
			want:  bson.M{"$or": bson.A{bson.M{"agent": "bob"}, bson.M{"assignedTo": "bob"}}},
		},
		{
			name:  "match and time bound",
			scope: domain.GlobalScope(),
			match: domain.Match{"status": "new"},
			after: &domain.TimeBound{Field: "date", Time: since},
			want: bson.M{"$and": []bson.M{
				{"status": "new"},
				{"date": bson.M{"$gt": since}},
			}},
		},
		{
			name:  "scope without owner fields matches nothing",
			scope: domain.Scope{OwnerID: "x"},
			want:  bson.M{"_id": bson.M{"$in": bson.A{}}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, buildFilter(tt.id, tt.scope, tt.match, tt.after))
		})
	}
}

func TestFindOptions_DefaultsToNewestFirst(t *testing.T) {
	opts := findOptions(domain.Query{})
	assert.Equal(t, bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}, opts.Sort)
	assert.Nil(t, opts.Limit)

	opts = findOptions(domain.Query{SortField: "date", SortAsc: true, Limit: 20})
	assert.Equal(t, bson.D{{Key: "date", Value: 1}, {Key: "_id", Value: 1}}, opts.Sort)
	assert.Equal(t, int64(20), *opts.Limit)
}
