package cleaner

import (
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"unicode/utf16"

	"github.com/tidwall/gjson"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Object is a JSON object that remembers the order its keys were produced in.
// It marshals back to JSON in that same order.
type Object = orderedmap.OrderedMap[string, any]

// NewObject returns an empty Object.
func NewObject() *Object {
	return orderedmap.New[string, any]()
}

var errInvalidJSON = errors.New("cleaner: invalid JSON document")

// Decode parses raw JSON into a tree of *Object, []any, string, json.Number,
// bool and nil. Object key order and number spelling are preserved.
// Unpaired UTF-16 surrogate escapes in string values are dropped rather
// than decoded to U+FFFD.
func Decode(raw []byte) (any, error) {
	if !gjson.ValidBytes(raw) {
		return nil, errInvalidJSON
	}
	return fromResult(gjson.ParseBytes(raw)), nil
}

func fromResult(r gjson.Result) any {
	switch {
	case r.IsObject():
		obj := NewObject()
		r.ForEach(func(key, value gjson.Result) bool {
			obj.Set(key.String(), fromResult(value))
			return true
		})
		return obj
	case r.IsArray():
		arr := make([]any, 0)
		r.ForEach(func(_, value gjson.Result) bool {
			arr = append(arr, fromResult(value))
			return true
		})
		return arr
	}

	switch r.Type {
	case gjson.True:
		return true
	case gjson.False:
		return false
	case gjson.Number:
		return json.Number(r.Raw)
	case gjson.String:
		return decodeString(r)
	default:
		return nil
	}
}

// Lookup follows path through nested objects. ok is false when any step is
// missing or is not an object.
func Lookup(root any, path ...string) (any, bool) {
	cur := root
	for _, key := range path {
		obj, isObj := cur.(*Object)
		if !isObj || obj == nil {
			return nil, false
		}
		next, present := obj.Get(key)
		if !present {
			return nil, false
		}
		cur = next
	}
	return cur, true
}

// decodeString unescapes a JSON string value, first removing any \uXXXX
// escape that is a surrogate without its partner.
func decodeString(r gjson.Result) string {
	if !strings.Contains(r.Raw, `\u`) {
		return r.String()
	}
	return gjson.Parse(dropLoneSurrogates(r.Raw)).String()
}

// dropLoneSurrogates rewrites a raw JSON string literal without unpaired
// surrogate escapes. Well-formed surrogate pairs and every other escape are
// copied through unchanged.
func dropLoneSurrogates(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for i := 0; i < len(raw); i++ {
		if raw[i] != '\\' || i+1 >= len(raw) {
			b.WriteByte(raw[i])
			continue
		}
		if raw[i+1] != 'u' {
			b.WriteString(raw[i : i+2])
			i++
			continue
		}
		r1, ok := hexRune(raw, i+2)
		if !ok || !utf16.IsSurrogate(r1) {
			b.WriteString(raw[i : i+2])
			i++
			continue
		}
		if r2, ok := lowSurrogateAt(raw, i+6); ok && utf16.DecodeRune(r1, r2) != '\uFFFD' {
			b.WriteString(raw[i : i+12])
			i += 11
			continue
		}
		i += 5
	}
	return b.String()
}

// lowSurrogateAt reports the \uXXXX escape starting at i when it is a
// surrogate.
func lowSurrogateAt(raw string, i int) (rune, bool) {
	if i+1 >= len(raw) || raw[i] != '\\' || raw[i+1] != 'u' {
		return 0, false
	}
	r, ok := hexRune(raw, i+2)
	return r, ok && utf16.IsSurrogate(r)
}

func hexRune(raw string, i int) (rune, bool) {
	if i+4 > len(raw) {
		return 0, false
	}
	n, err := strconv.ParseUint(raw[i:i+4], 16, 32)
	if err != nil {
		return 0, false
	}
	return rune(n), true
}
