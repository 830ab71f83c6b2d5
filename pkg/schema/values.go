package schema

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/merlinfuchs/embed-generator-sub000/pkg/models"
)

type object = map[string]any

func join(path, key string) string {
	if path == "" {
		return key
	}
	return path + "." + key
}

func index(path string, i int) string {
	return path + "[" + strconv.Itoa(i) + "]"
}

func str(o object, key string) string {
	if s, ok := o[key].(string); ok {
		return s
	}
	return ""
}

func boolean(o object, key string) bool {
	b, _ := o[key].(bool)
	return b
}

// optBool returns def when the key is missing or not a bool.
func optBool(o object, key string, def bool) bool {
	if b, ok := o[key].(bool); ok {
		return b
	}
	return def
}

// integer converts a decoded JSON number. Fractional, out of range and
// non-numeric values are rejected.
func integer(v any) (int, bool) {
	var f float64
	switch n := v.(type) {
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return safeInt(i)
		}
		parsed, err := n.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case float64:
		f = n
	case int:
		return safeInt(int64(n))
	case int64:
		return safeInt(n)
	default:
		return 0, false
	}
	if f != math.Trunc(f) || math.Abs(f) > maxSafeInt {
		return 0, false
	}
	return int(f), true
}

// maxSafeInt is the largest integer a JSON number holds exactly in a
// browser. Larger ids would also push the id generator toward overflow.
const maxSafeInt = 1 << 53

func safeInt(i int64) (int, bool) {
	if i > maxSafeInt || i < -maxSafeInt {
		return 0, false
	}
	return int(i), true
}

func intField(o object, key string) int {
	n, _ := integer(o[key])
	return n
}

// keyString accepts action set keys stored as strings or, in old documents,
// as numbers.
func keyString(v any) string {
	switch k := v.(type) {
	case string:
		return k
	case json.Number:
		if _, err := k.Int64(); err == nil {
			return k.String()
		}
	case float64:
		if n, ok := integer(k); ok {
			return strconv.Itoa(n)
		}
	}
	return ""
}

// snowflakeValue reads a Discord id given as a decimal string or a number.
func snowflakeValue(v any) models.Snowflake {
	switch s := v.(type) {
	case string:
		if id, err := models.ParseSnowflake(s); err == nil {
			return id
		}
	case json.Number:
		if id, err := models.ParseSnowflake(s.String()); err == nil {
			return id
		}
	case float64:
		if s > 0 && s == math.Trunc(s) && s < 1<<63 {
			return models.Snowflake(uint64(s))
		}
	}
	return 0
}

// color reads a 24-bit colour given as a number or as a "#rrggbb" string.
func color(v any) *int {
	var n int
	switch c := v.(type) {
	case string:
		h := strings.TrimPrefix(strings.TrimSpace(c), "#")
		if len(h) != 6 {
			return nil
		}
		parsed, err := strconv.ParseInt(h, 16, 32)
		if err != nil {
			return nil
		}
		n = int(parsed)
	default:
		var ok bool
		if n, ok = integer(v); !ok {
			return nil
		}
	}
	if n < 0 || n > 0xffffff {
		return nil
	}
	return &n
}

// timestamp normalises an RFC 3339 string or a unix-milliseconds number.
// Anything else is dropped.
func timestamp(v any) string {
	switch t := v.(type) {
	case string:
		if t == "" {
			return ""
		}
		if _, err := time.Parse(time.RFC3339, t); err == nil {
			return t
		}
		if ms, err := strconv.ParseInt(t, 10, 64); err == nil && ms > 0 {
			return time.UnixMilli(ms).UTC().Format(time.RFC3339)
		}
	default:
		if ms, ok := integer(v); ok && ms > 0 {
			return time.UnixMilli(int64(ms)).UTC().Format(time.RFC3339)
		}
	}
	return ""
}

// emoji accepts {id, name, animated} objects and bare unicode strings.
func emoji(v any) *models.Emoji {
	switch e := v.(type) {
	case string:
		if e == "" {
			return nil
		}
		return &models.Emoji{Name: e}
	case object:
		out := &models.Emoji{
			ID:       snowflakeValue(e["id"]),
			Name:     str(e, "name"),
			Animated: boolean(e, "animated"),
		}
		if out.ID == 0 && out.Name == "" {
			return nil
		}
		return out
	}
	return nil
}

func media(v any) models.UnfurledMediaItem {
	switch m := v.(type) {
	case object:
		return models.UnfurledMediaItem{URL: str(m, "url")}
	case string:
		return models.UnfurledMediaItem{URL: m}
	}
	return models.UnfurledMediaItem{}
}

// list returns the array stored under key. Missing and null values become an
// empty list; anything else that is not an array is a structural error.
func list(o object, key, path string) ([]any, error) {
	v, ok := o[key]
	if !ok || v == nil {
		return nil, nil
	}
	arr, ok := v.([]any)
	if !ok {
		return nil, invalid(join(path, key), "expected an array")
	}
	return arr, nil
}

// actionKeyFromCustomID recognises the "action:<key>" custom ids that sent
// messages carry.
func actionKeyFromCustomID(v any) string {
	s, ok := v.(string)
	if !ok {
		return ""
	}
	if key, found := strings.CutPrefix(s, "action:"); found {
		return key
	}
	return ""
}
