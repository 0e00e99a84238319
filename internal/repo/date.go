package repo

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

const sqliteTimeFormat = "2006-01-02 15:04:05"

// Date wraps time.Time so timestamps round-trip through sqlite TEXT columns
// in the same format CURRENT_TIMESTAMP uses. Keeping one format matters:
// created_at ordering is lexicographic on the stored text.
type Date time.Time

func (d Date) Value() (driver.Value, error) {
	return time.Time(d).UTC().Format(sqliteTimeFormat), nil
}

func (d *Date) Scan(value any) error {
	if value == nil {
		*d = Date(time.Time{})
		return nil
	}

	if str, ok := value.(string); ok {
		t, err := time.Parse(sqliteTimeFormat, str)
		if err != nil {
			t, err = time.Parse(time.RFC3339, str)
			if err != nil {
				return err
			}
		}
		*d = Date(t.UTC())
		return nil
	}

	if t, ok := value.(time.Time); ok {
		*d = Date(t)
		return nil
	}

	return fmt.Errorf("cannot scan type %T into Date", value)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Time(d).UTC())
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var t time.Time
	if err := json.Unmarshal(b, &t); err != nil {
		return err
	}
	*d = Date(t)
	return nil
}

func (d Date) String() string {
	return time.Time(d).UTC().Format(time.RFC3339)
}

func (d Date) Time() time.Time {
	return time.Time(d)
}
