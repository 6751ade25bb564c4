package alsa

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// ParamKind discriminates the variants of ParamValue.
type ParamKind int

// Parameter value kinds.
const (
	KindText ParamKind = iota
	KindScalar
	KindRange
)

// String returns the kind name.
func (k ParamKind) String() string {
	switch k {
	case KindScalar:
		return "scalar"
	case KindRange:
		return "range"
	default:
		return "text"
	}
}

// ParamValue is one hardware parameter as reported by a hw-params dump:
// a single integer, an integer interval, or free text.
type ParamValue struct {
	Kind ParamKind
	// Value holds a Scalar.
	Value int
	// Min and Max hold a Range; Min <= Max always.
	Min int
	Max int
	// Text holds a Text value.
	Text string
}

// Scalar creates a single-integer parameter.
func Scalar(v int) ParamValue {
	return ParamValue{Kind: KindScalar, Value: v}
}

// Range creates an interval parameter, swapping reversed bounds.
func Range(lo, hi int) ParamValue {
	if lo > hi {
		lo, hi = hi, lo
	}
	return ParamValue{Kind: KindRange, Min: lo, Max: hi}
}

// Text creates a free-text parameter.
func Text(s string) ParamValue {
	return ParamValue{Kind: KindText, Text: s}
}

// Int returns the value to use when a single number is required:
// the scalar itself or the upper bound of a range.
func (v ParamValue) Int() (int, bool) {
	switch v.Kind {
	case KindScalar:
		return v.Value, true
	case KindRange:
		return v.Max, true
	default:
		return 0, false
	}
}

// Any returns the JSON-shaped form of the value:
// int for scalars, {"min","max"} for ranges, string for text.
func (v ParamValue) Any() any {
	switch v.Kind {
	case KindScalar:
		return v.Value
	case KindRange:
		return map[string]int{"min": v.Min, "max": v.Max}
	default:
		return v.Text
	}
}

// String formats the value the way it would appear in a dump.
func (v ParamValue) String() string {
	switch v.Kind {
	case KindScalar:
		return strconv.Itoa(v.Value)
	case KindRange:
		return fmt.Sprintf("%d-%d", v.Min, v.Max)
	default:
		return v.Text
	}
}

// MarshalJSON implements json.Marshaler.
func (v ParamValue) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Any())
}

// UnmarshalJSON implements json.Unmarshaler.
func (v *ParamValue) UnmarshalJSON(data []byte) error {
	var n int
	if err := json.Unmarshal(data, &n); err == nil {
		*v = Scalar(n)
		return nil
	}
	var r struct {
		Min *int `json:"min"`
		Max *int `json:"max"`
	}
	if err := json.Unmarshal(data, &r); err == nil && r.Min != nil && r.Max != nil {
		*v = Range(*r.Min, *r.Max)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("parameter value must be a number, range or string: %w", err)
	}
	*v = Text(s)
	return nil
}

// Defaults seeded into every DeviceParams before probed values are applied.
const (
	DefaultRate    = 48000
	DefaultPeriods = 1
)

// DeviceParams maps camelCase parameter names to their values.
type DeviceParams map[string]ParamValue

// NewDeviceParams returns params seeded with the rate and periods defaults.
func NewDeviceParams() DeviceParams {
	return DeviceParams{
		"rate":    Scalar(DefaultRate),
		"periods": Scalar(DefaultPeriods),
	}
}

// Rate returns the rate parameter as a single number.
func (p DeviceParams) Rate() (int, bool) {
	v, ok := p["rate"]
	if !ok {
		return 0, false
	}
	return v.Int()
}

var (
	digitsRe     = regexp.MustCompile(`^\d+$`)
	dashRangeRe  = regexp.MustCompile(`^(\d+)-(\d+)$`)
	spaceRangeRe = regexp.MustCompile(`(\d+)\s+(\d+)`)
)

// ParseValue classifies the value half of a "KEY: value" dump line.
//
// The two-integer rule is deliberately loose: it matches anywhere in the
// text, so bracketed intervals like "[44100 48000]" and descriptive strings
// like "RATE 44100 48000" both become ranges.
func ParseValue(text string) ParamValue {
	if digitsRe.MatchString(text) {
		if n, err := strconv.Atoi(text); err == nil {
			return Scalar(n)
		}
		return Text(text)
	}

	if m := dashRangeRe.FindStringSubmatch(text); m != nil {
		if v, ok := rangeOf(m[1], m[2]); ok {
			return v
		}
		return Text(text)
	}

	if m := spaceRangeRe.FindStringSubmatch(text); m != nil {
		if v, ok := rangeOf(m[1], m[2]); ok {
			return v
		}
	}

	return Text(text)
}

func rangeOf(lo, hi string) (ParamValue, bool) {
	a, err := strconv.Atoi(lo)
	if err != nil {
		return ParamValue{}, false
	}
	b, err := strconv.Atoi(hi)
	if err != nil {
		return ParamValue{}, false
	}
	return Range(a, b), true
}

// CamelKey converts a dump key such as PERIOD_SIZE into periodSize.
func CamelKey(key string) string {
	lower := strings.ToLower(key)

	var sb strings.Builder
	sb.Grow(len(lower))
	for i := 0; i < len(lower); i++ {
		c := lower[i]
		if c == '_' && i+1 < len(lower) {
			i++
			sb.WriteString(strings.ToUpper(lower[i : i+1]))
			continue
		}
		sb.WriteByte(c)
	}
	return sb.String()
}
