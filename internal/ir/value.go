package ir

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Kind identifies which member of the Value union a value is.
type Kind int

const (
	KindNull Kind = iota
	KindString
	KindNumber
	KindBool
	KindDate
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBool:
		return "bool"
	case KindDate:
		return "date"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Value is a sealed interface over the scalar kinds a record field can hold.
// Only Null, String, Number, Bool and Date implement it.
type Value interface {
	Kind() Kind
	irValue() // Sealed - only these types implement it
}

// Null is the absent value. Missing record fields resolve to Null.
type Null struct{}

func (Null) Kind() Kind { return KindNull }
func (Null) irValue()   {}

// MarshalJSON implements json.Marshaler for Null.
func (Null) MarshalJSON() ([]byte, error) {
	return []byte("null"), nil
}

// String is a text value.
type String string

func (String) Kind() Kind { return KindString }
func (String) irValue()   {}

// Number is a numeric value. Integers and decimals share one representation.
type Number float64

func (Number) Kind() Kind { return KindNumber }
func (Number) irValue()   {}

// MarshalJSON implements json.Marshaler for Number.
// NaN and infinities have no JSON form and encode as null.
func (n Number) MarshalJSON() ([]byte, error) {
	f := float64(n)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return []byte("null"), nil
	}
	return []byte(FormatNumber(f)), nil
}

// Bool is a boolean value.
type Bool bool

func (Bool) Kind() Kind { return KindBool }
func (Bool) irValue()   {}

// Date is a timestamp value. Dates without a time part sit at midnight UTC.
type Date time.Time

func (Date) Kind() Kind { return KindDate }
func (Date) irValue()   {}

// Time returns the underlying time.Time.
func (d Date) Time() time.Time {
	return time.Time(d)
}

// MarshalJSON implements json.Marshaler for Date using FormatDate.
func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(FormatDate(time.Time(d)))
}

// NewDate creates a Date at midnight UTC.
func NewDate(year int, month time.Month, day int) Date {
	return Date(time.Date(year, month, day, 0, 0, 0, 0, time.UTC))
}

// IsNull reports whether v is Null. A Go nil is treated as Null.
func IsNull(v Value) bool {
	if v == nil {
		return true
	}
	_, ok := v.(Null)
	return ok
}

// IsEmpty reports whether v is Null or the empty string.
// COALESCE and IFNULL skip empty values.
func IsEmpty(v Value) bool {
	if IsNull(v) {
		return true
	}
	s, ok := v.(String)
	return ok && s == ""
}

// ToString renders v as text. Null renders as "".
func ToString(v Value) string {
	switch val := v.(type) {
	case nil, Null:
		return ""
	case String:
		return string(val)
	case Number:
		return FormatNumber(float64(val))
	case Bool:
		if val {
			return "true"
		}
		return "false"
	case Date:
		return FormatDate(time.Time(val))
	default:
		return fmt.Sprintf("%v", v)
	}
}

// ToNumber coerces v to a float64. Strings coerce when their trimmed text
// parses as a number. Null, Bool and Date do not coerce.
func ToNumber(v Value) (float64, bool) {
	switch val := v.(type) {
	case Number:
		return float64(val), true
	case String:
		s := strings.TrimSpace(string(val))
		if s == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// ToDate coerces v to a time.Time. Strings coerce when ParseDate accepts them.
func ToDate(v Value) (time.Time, bool) {
	switch val := v.(type) {
	case Date:
		return time.Time(val), true
	case String:
		return ParseDate(string(val))
	default:
		return time.Time{}, false
	}
}

// dateLayouts are tried in order by ParseDate.
var dateLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02",
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006/01/02 15:04:05",
	"2006/01/02",
}

// ParseDate parses the date formats found in snapshot data.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if len(s) < 8 {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// FormatDate renders t as "2006-01-02 15:04:05", or "2006-01-02" at midnight.
func FormatDate(t time.Time) string {
	if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0 {
		return t.Format("2006-01-02")
	}
	return t.Format("2006-01-02 15:04:05")
}

// FormatNumber renders f in its shortest decimal form ("3", "2.5", "0.1").
func FormatNumber(f float64) string {
	if f == math.Trunc(f) && math.Abs(f) < 1e21 {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// FromGo converts a decoded JSON or YAML scalar into a Value.
// Nested arrays and objects are kept as their compact JSON text, except the
// tagged date object {"$date": "..."} which becomes a Date.
func FromGo(v any) (Value, error) {
	switch val := v.(type) {
	case nil:
		return Null{}, nil
	case Value:
		return val, nil
	case string:
		return String(val), nil
	case bool:
		return Bool(val), nil
	case int:
		return Number(val), nil
	case int32:
		return Number(val), nil
	case int64:
		return Number(val), nil
	case uint64:
		return Number(val), nil
	case float32:
		return Number(val), nil
	case float64:
		return Number(val), nil
	case json.Number:
		f, err := val.Float64()
		if err != nil {
			return nil, fmt.Errorf("invalid number %q: %w", val.String(), err)
		}
		return Number(f), nil
	case time.Time:
		return Date(val), nil
	case map[string]any:
		if raw, ok := val[dateTag]; ok && len(val) == 1 {
			s, isString := raw.(string)
			if !isString {
				return nil, fmt.Errorf("%s must be a string, got %T", dateTag, raw)
			}
			t, err := time.Parse(time.RFC3339Nano, s)
			if err != nil {
				return nil, fmt.Errorf("invalid %s value %q: %w", dateTag, s, err)
			}
			return Date(t), nil
		}
		return compactJSON(val)
	case []any:
		return compactJSON(val)
	default:
		return nil, fmt.Errorf("unsupported value type: %T", v)
	}
}

// dateTag marks a tagged date object in stored snapshots.
const dateTag = "$date"

func compactJSON(v any) (Value, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode nested value: %w", err)
	}
	return String(data), nil
}
