package serving

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/aayushagarwaltech-bot/Transportation/pkg/errors"
	"github.com/aayushagarwaltech-bot/Transportation/schema"
)

// aliases maps human-facing field names onto dataset column names.
var aliases = map[string]string{
	"temperature":            "temp",
	"month":                  "mnth",
	"humidity":               "hum",
	"wind_speed":             "windspeed",
	"weather":                "weathersit",
	"weather_situation":      "weathersit",
	"year":                   "yr",
	"working_day":            "workingday",
	"feels_like":             "atemp",
	"feels_like_temperature": "atemp",
}

// canonicalName resolves a caller field name against s: the exact name
// first, then its lowercase form, then an alias. A name the schema knows wins
// over an alias. Schema columns with upper-case letters still match
// case-insensitively.
func canonicalName(s *schema.Schema, name string) string {
	raw := strings.TrimSpace(name)
	if s.Has(raw) {
		return raw
	}
	n := strings.ToLower(raw)
	if s.Has(n) {
		return n
	}
	if c, ok := aliases[n]; ok {
		n = c
		if s.Has(n) {
			return n
		}
	}
	for _, f := range s.Features {
		if strings.EqualFold(f, n) {
			return f
		}
	}
	return n
}

// normalizeFields turns caller input into schema-named numeric values.
// Keys are visited in sorted order so errors are reproducible.
func normalizeFields(s *schema.Schema, in map[string]any, strict bool) (map[string]float64, []string, error) {
	keys := make([]string, 0, len(in))
	for k := range in {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	values := make(map[string]float64, len(in))
	from := make(map[string]string, len(in))
	var unknown []string
	for _, key := range keys {
		name := canonicalName(s, key)
		if prev, dup := from[name]; dup {
			return nil, nil, errors.NewValidationError(key,
				fmt.Sprintf("field %q is given twice (also as %q)", name, prev), in[key])
		}
		from[name] = key

		if !s.Has(name) {
			if strict {
				return nil, nil, errors.NewValidationError(key, "not a feature of the trained model", in[key])
			}
			unknown = append(unknown, key)
			continue
		}
		v, err := numericValue(key, in[key])
		if err != nil {
			return nil, nil, err
		}
		values[name] = v
	}
	return values, unknown, nil
}

// numericValue accepts numbers, booleans (0/1), json.Number and numeric
// strings. Everything else fails with a ValidationError naming field.
func numericValue(field string, v any) (float64, error) {
	var f float64
	switch x := v.(type) {
	case nil:
		return 0, errors.NewValidationError(field, "value is null", v)
	case float64:
		f = x
	case float32:
		f = float64(x)
	case int:
		f = float64(x)
	case int8:
		f = float64(x)
	case int16:
		f = float64(x)
	case int32:
		f = float64(x)
	case int64:
		f = float64(x)
	case uint:
		f = float64(x)
	case uint8:
		f = float64(x)
	case uint16:
		f = float64(x)
	case uint32:
		f = float64(x)
	case uint64:
		f = float64(x)
	case bool:
		if x {
			f = 1
		}
	case json.Number:
		parsed, err := x.Float64()
		if err != nil {
			return 0, errors.NewValidationError(field, "not a number", string(x))
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return 0, errors.NewValidationError(field, "not a number", x)
		}
		f = parsed
	default:
		return 0, errors.NewValidationError(field, fmt.Sprintf("unsupported type %T", v), v)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, errors.NewValidationError(field, "must be finite", f)
	}
	return f, nil
}
