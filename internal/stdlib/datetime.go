package stdlib

import (
	"time"

	"nickandperla.net/jspy/internal/value"
)

var dateLayouts = []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05", "2006-01-02 15:04:05", "2006-01-02"}

// DateTime is the value returned by dateTime().
type DateTime struct {
	T time.Time
}

func (d DateTime) String() string { return d.T.Format(time.RFC3339) }

// GetMember implements value.Member.
func (d DateTime) GetMember(name string) (any, bool) {
	switch name {
	case "year":
		return float64(d.T.Year()), true
	case "month":
		return float64(d.T.Month()), true
	case "day":
		return float64(d.T.Day()), true
	case "hour":
		return float64(d.T.Hour()), true
	case "minute":
		return float64(d.T.Minute()), true
	case "second":
		return float64(d.T.Second()), true
	case "weekday":
		return float64(d.T.Weekday()), true
	case "timestamp":
		return float64(d.T.UnixMilli()), true
	case "iso":
		return native("iso", func([]any) (any, error) { return d.String(), nil }), true
	case "format":
		return native("format", func(args []any) (any, error) {
			layout, ok := argAt(args, 0).(string)
			if !ok {
				layout = time.RFC3339
			}
			return d.T.Format(layout), nil
		}), true
	case "addDays":
		return native("addDays", func(args []any) (any, error) {
			n, err := number("addDays", args, 0)
			if err != nil {
				return nil, err
			}
			return DateTime{T: d.T.AddDate(0, 0, int(n))}, nil
		}), true
	}
	return nil, false
}

// SetMember implements value.Member.
func (d DateTime) SetMember(name string, _ any) error {
	return value.NewError(value.CategoryType, "dateTime member %q is read-only", name)
}

// dateTimeAt builds dateTime(): no argument is now, a string is parsed and a
// number is a unix timestamp in milliseconds.
func dateTimeAt(now func() time.Time) func(args []any) (any, error) {
	return func(args []any) (any, error) {
		switch x := argAt(args, 0).(type) {
		case string:
			for _, layout := range dateLayouts {
				if t, err := time.Parse(layout, x); err == nil {
					return DateTime{T: t}, nil
				}
			}
			return nil, value.NewError("ValueError", "cannot parse date %q", x)
		case float64:
			return DateTime{T: time.UnixMilli(int64(x)).UTC()}, nil
		case DateTime:
			return x, nil
		}
		return DateTime{T: now()}, nil
	}
}
