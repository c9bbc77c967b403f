package meals

import (
	"net/url"
	"strings"

	"localchef/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Sort orders accepted by GET /meals
const (
	SortAsc  = "asc"
	SortDesc = "desc"
)

// Query holds the list options of GET /meals. An unknown sort means
// unsorted, and a zero limit means all meals.
type Query struct {
	Sort  string
	Limit int64
}

func ParseQuery(values url.Values) Query {
	q := Query{Limit: utils.PositiveInt(values.Get("limit"))}
	switch sort := strings.ToLower(strings.TrimSpace(values.Get("sort"))); sort {
	case SortAsc, SortDesc:
		q.Sort = sort
	}
	return q
}

// FindOptions translates the query into driver options.
func (q Query) FindOptions() *options.FindOptions {
	opts := options.Find()
	switch q.Sort {
	case SortAsc:
		opts.SetSort(bson.D{{Key: "price", Value: 1}})
	case SortDesc:
		opts.SetSort(bson.D{{Key: "price", Value: -1}})
	}
	if q.Limit > 0 {
		opts.SetLimit(q.Limit)
	}
	return opts
}
