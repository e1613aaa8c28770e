package models

import "strings"

// InfoRequest is the payload for POST /mcpedl/info.
type InfoRequest struct {
	// URL is the product page to read. Required, and it must start with the
	// configured site prefix.
	URL string `json:"url" binding:"required"`
}

// Normalize trims surrounding whitespace from the URL.
func (r *InfoRequest) Normalize() {
	r.URL = strings.TrimSpace(r.URL)
}

// HasPrefix reports whether the URL belongs to the allowed site.
// An empty prefix allows every URL.
func (r *InfoRequest) HasPrefix(prefix string) bool {
	return prefix == "" || strings.HasPrefix(r.URL, prefix)
}
