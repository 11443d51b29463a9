package custom

import (
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
)

// Datetime represents a datetime. It is stored as an RFC3339 string in both
// JSON and BSON so that documents remain human readable.
type Datetime time.Time

// Now returns the current UTC time as a Datetime.
func Now() Datetime {
	return Datetime(time.Now().UTC())
}

// Time returns the underlying time.Time.
func (d Datetime) Time() time.Time {
	return time.Time(d)
}

// IsZero reports whether the datetime is unset.
func (d Datetime) IsZero() bool {
	return time.Time(d).IsZero()
}

// MarshalJSON implements the json.Marshaler interface.
func (d *Datetime) MarshalJSON() ([]byte, error) {
	if d == nil || time.Time(*d).IsZero() {
		return nil, nil
	}
	return []byte(fmt.Sprintf(`%q`, time.Time(*d).UTC().Format(time.RFC3339))), nil
}

func (d *Datetime) MarshalBSONValue() (bsontype.Type, []byte, error) {
	if d == nil || time.Time(*d).IsZero() {
		return bson.TypeNull, nil, nil
	}
	return bson.MarshalValue(time.Time(*d).UTC().Format(time.RFC3339))
}

// UnmarshalJSON implements the json.Unmarshaler interface.
func (d *Datetime) UnmarshalJSON(text []byte) error {
	// Remove " from text if present (e.g. "2020-01-01T00:00:00Z" -> 2020-01-01T00:00:00Z)
	reg := regexp.MustCompile(`"(.*)"`)
	text = reg.ReplaceAll(text, []byte("$1"))

	t, err := time.Parse(time.RFC3339, string(text))
	if err != nil {
		return err
	}
	*d = Datetime(t)
	return nil
}

func (d *Datetime) UnmarshalBSON(bytes []byte) error {
	if len(bytes) == 0 {
		return nil
	}

	// Remove all non-alphanumeric characters from the string.
	got := regexp.MustCompile(`[^a-zA-Z0-9-:]`).ReplaceAllString(string(bytes), "")

	t, err := time.Parse(time.RFC3339, got)
	if err != nil {
		return fmt.Errorf("invalid datetime: %s", got)
	}

	*d = Datetime(t)
	return nil
}

// String implements the fmt.Stringer interface.
func (d Datetime) String() string {
	return time.Time(d).Format(time.RFC3339)
}
