package cleaner

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/use-agent/nuxtinfo/models"
)

// leavingPrefix marks download links wrapped by the site's "leaving" interstitial.
const leavingPrefix = "/leaving"

// modelPath locates the product model inside the Nuxt state.
var modelPath = []string{"state", "slug", "model"}

// Normalize post-processes an evaluated Nuxt state in place and returns the
// sanitised tree:
//
//  1. leaving links in model.downloads are unwrapped to their real URL,
//  2. model.downloads and model.downloads_vip are deduplicated by "file",
//  3. invalid UTF-8 is dropped from every string in the tree.
//
// A missing or empty model is a MODEL_NOT_FOUND error.
func Normalize(root any) (any, error) {
	v, ok := Lookup(root, modelPath...)
	model, isObj := v.(*Object)
	if !ok || !isObj || model == nil || model.Len() == 0 {
		return nil, models.NewScrapeError(
			models.ErrCodeModelNotFound,
			"expected 'model' structure not found in __NUXT__ data",
			nil,
		)
	}

	if list, ok := listField(model, "downloads"); ok {
		for _, entry := range list {
			unwrapEntry(entry)
		}
		model.Set("downloads", Dedupe(list))
	}
	if list, ok := listField(model, "downloads_vip"); ok {
		model.Set("downloads_vip", Dedupe(list))
	}

	return Sanitize(root), nil
}

func listField(obj *Object, key string) ([]any, bool) {
	v, ok := obj.Get(key)
	if !ok {
		return nil, false
	}
	list, ok := v.([]any)
	return list, ok
}

func unwrapEntry(entry any) {
	obj, ok := entry.(*Object)
	if !ok {
		return
	}
	file, ok := obj.Get("file")
	if !ok {
		return
	}
	if s, ok := file.(string); ok {
		obj.Set("file", DecodeLeavingLink(s))
	}
}

// DecodeLeavingLink returns the destination wrapped in a "/leaving?url=..."
// link: everything after the first "url=", percent-decoded. Other values, and
// leaving links without "url=", are returned unchanged. A malformed escape is
// kept as written while the valid ones around it are still decoded.
func DecodeLeavingLink(file string) string {
	if !strings.HasPrefix(file, leavingPrefix) {
		return file
	}
	_, rest, found := strings.Cut(file, "url=")
	if !found {
		return file
	}
	return unescapeLenient(rest)
}

// unescapeLenient decodes every well-formed %XX escape in s and copies
// anything else through byte for byte. "+" is not treated as a space.
func unescapeLenient(s string) string {
	if !strings.Contains(s, "%") {
		return s
	}
	if decoded, err := url.PathUnescape(s); err == nil {
		return decoded
	}
	b := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '%' && i+2 < len(s) && isHex(s[i+1]) && isHex(s[i+2]) {
			b = append(b, unhex(s[i+1])<<4|unhex(s[i+2]))
			i += 2
			continue
		}
		b = append(b, s[i])
	}
	return string(b)
}

func isHex(c byte) bool {
	return '0' <= c && c <= '9' || 'a' <= c && c <= 'f' || 'A' <= c && c <= 'F'
}

func unhex(c byte) byte {
	switch {
	case c >= 'a':
		return c - 'a' + 10
	case c >= 'A':
		return c - 'A' + 10
	default:
		return c - '0'
	}
}

// Dedupe keeps the first entry for each "file" value, preserving order.
// Entries without a file (or that are not objects) share one key, so at most
// one of them survives.
func Dedupe(list []any) []any {
	seen := make(map[string]struct{}, len(list))
	out := make([]any, 0, len(list))
	for _, entry := range list {
		key := fileKey(entry)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, entry)
	}
	return out
}

func fileKey(entry any) string {
	obj, ok := entry.(*Object)
	if !ok {
		return "null"
	}
	v, ok := obj.Get("file")
	if !ok || v == nil {
		return "null"
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%#v", v)
	}
	return string(b)
}
