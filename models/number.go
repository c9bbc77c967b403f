package models

import (
	"strconv"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
)

// Number is a numeric field that older documents may hold as a string
// ("12") or not at all. Anything that does not read as a number decodes
// to zero, so one odd document never fails a whole cursor.
type Number float64

func (n *Number) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	raw := bson.RawValue{Type: t, Value: data}

	switch t {
	case bsontype.Double:
		*n = Number(raw.Double())
	case bsontype.Int32:
		*n = Number(raw.Int32())
	case bsontype.Int64:
		*n = Number(raw.Int64())
	case bsontype.Decimal128:
		f, err := strconv.ParseFloat(raw.Decimal128().String(), 64)
		if err != nil {
			f = 0
		}
		*n = Number(f)
	case bsontype.String:
		f, err := strconv.ParseFloat(strings.TrimSpace(raw.StringValue()), 64)
		if err != nil {
			f = 0
		}
		*n = Number(f)
	default:
		*n = 0
	}
	return nil
}
