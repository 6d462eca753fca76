package mongodb

import (
	"encoding/base64"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/kailas-cloud/minicompass/internal/domain/document"
	"github.com/kailas-cloud/minicompass/internal/domain/document/oid"
	"github.com/kailas-cloud/minicompass/internal/domain/query/filter"
)

// toBSON renders f as an equality query. Identifiers become ObjectIDs.
func toBSON(f filter.Filter) bson.M {
	out := bson.M{}
	for k, v := range f.Conditions() {
		if id, ok := v.(oid.ID); ok {
			out[k] = id.ObjectID()
			continue
		}
		out[k] = v
	}
	return out
}

// fromBSON maps a decoded document into the document value set.
func fromBSON(m bson.M) document.Document {
	out := make(document.Document, len(m))
	for k, v := range m {
		out[k] = fromValue(v)
	}
	return out
}

func fromValue(v any) any {
	switch t := v.(type) {
	case nil, string, bool, int64, float64:
		return t
	case int32:
		return int64(t)
	case int:
		return int64(t)
	case primitive.ObjectID:
		return t.Hex()
	case primitive.DateTime:
		return t.Time().UTC().Format(time.RFC3339Nano)
	case time.Time:
		return t.UTC().Format(time.RFC3339Nano)
	case primitive.Timestamp:
		return int64(t.T)
	case primitive.Decimal128:
		return t.String()
	case primitive.Binary:
		return base64.StdEncoding.EncodeToString(t.Data)
	case primitive.Regex:
		return "/" + t.Pattern + "/" + t.Options
	case primitive.Null, primitive.Undefined:
		return nil
	case bson.M:
		return map[string]any(fromBSON(t))
	case map[string]any:
		return map[string]any(fromBSON(t))
	case bson.D:
		m := make(map[string]any, len(t))
		for _, e := range t {
			m[e.Key] = fromValue(e.Value)
		}
		return m
	case bson.A:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = fromValue(e)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = fromValue(e)
		}
		return out
	default:
		return fmt.Sprint(t)
	}
}
