package tree

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"go.mongodb.org/mongo-driver/bson/bsontype"
	"go.mongodb.org/mongo-driver/x/bsonx/bsoncore"
)

// Person is a single record of the tree document.
type Person struct {
	ID     int       `json:"id" bson:"id"`
	Name   string    `json:"name" bson:"name"`
	Father ParentRef `json:"father,omitempty" bson:"father,omitempty"`
	Mother ParentRef `json:"mother,omitempty" bson:"mother,omitempty"`
	Level  int       `json:"level" bson:"level"`
}

// Key returns the record ID in the string form used by nodes and edges.
func (p Person) Key() string { return strconv.Itoa(p.ID) }

// Parents returns the present parent references, father first.
func (p Person) Parents() []ParentRef {
	parents := make([]ParentRef, 0, 2)
	if p.Father.Valid() {
		parents = append(parents, p.Father)
	}
	if p.Mother.Valid() {
		parents = append(parents, p.Mother)
	}
	return parents
}

// ParentRef references another person by ID.
//
// Documents may encode a reference as a JSON number or a JSON string; the
// textual form is kept so that "1" and 1 compare equal. The empty value
// means the parent is unknown.
type ParentRef string

// Ref returns a reference to the person with the given ID.
func Ref(id int) ParentRef { return ParentRef(strconv.Itoa(id)) }

// Valid reports whether the reference is present.
func (r ParentRef) Valid() bool { return r != "" }

// String returns the reference token.
func (r ParentRef) String() string { return string(r) }

// UnmarshalJSON accepts null, strings and numbers.
func (r *ParentRef) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*r = ""
		return nil
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*r = ParentRef(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("parent reference must be a string or number, got %s", data)
	}
	*r = ParentRef(canonicalNumber(n.String()))
	return nil
}

// MarshalJSON writes integral references as numbers and everything else as strings.
func (r ParentRef) MarshalJSON() ([]byte, error) {
	if r == "" {
		return []byte("null"), nil
	}
	if _, err := strconv.ParseInt(string(r), 10, 64); err == nil {
		return []byte(r), nil
	}
	return json.Marshal(string(r))
}

// UnmarshalBSONValue accepts null, strings, and 32/64-bit integers and doubles.
func (r *ParentRef) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	switch t {
	case bsontype.Null, bsontype.Undefined:
		*r = ""
	case bsontype.String:
		s, _, ok := bsoncore.ReadString(data)
		if !ok {
			return fmt.Errorf("parent reference: malformed string")
		}
		*r = ParentRef(s)
	case bsontype.Int32:
		v, _, ok := bsoncore.ReadInt32(data)
		if !ok {
			return fmt.Errorf("parent reference: malformed int32")
		}
		*r = ParentRef(strconv.FormatInt(int64(v), 10))
	case bsontype.Int64:
		v, _, ok := bsoncore.ReadInt64(data)
		if !ok {
			return fmt.Errorf("parent reference: malformed int64")
		}
		*r = ParentRef(strconv.FormatInt(v, 10))
	case bsontype.Double:
		v, _, ok := bsoncore.ReadDouble(data)
		if !ok {
			return fmt.Errorf("parent reference: malformed double")
		}
		*r = ParentRef(canonicalNumber(strconv.FormatFloat(v, 'f', -1, 64)))
	default:
		return fmt.Errorf("parent reference must be a string or number, got BSON %s", t)
	}
	return nil
}

// MarshalBSONValue mirrors MarshalJSON: integral references become int64.
func (r ParentRef) MarshalBSONValue() (bsontype.Type, []byte, error) {
	if r == "" {
		return bsontype.Null, nil, nil
	}
	if v, err := strconv.ParseInt(string(r), 10, 64); err == nil {
		return bsontype.Int64, bsoncore.AppendInt64(nil, v), nil
	}
	return bsontype.String, bsoncore.AppendString(nil, string(r)), nil
}

// canonicalNumber renders whole numbers without a fraction so 3 and 3.0
// produce the same token.
func canonicalNumber(s string) string {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
		return s
	}
	if f == math.Trunc(f) && math.Abs(f) < 1<<53 {
		return strconv.FormatInt(int64(f), 10)
	}
	return s
}
