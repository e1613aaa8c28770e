package scraper

import (
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"github.com/use-agent/nuxtinfo/models"
	"golang.org/x/net/html"
)

const (
	// nuxtMarker identifies the script that assigns the Nuxt state.
	nuxtMarker = "window.__NUXT__"

	// iifeMarker is where the state-building expression starts.
	iifeMarker = "(function"
)

var scriptMatcher = cascadia.MustCompile("script")

// FindNuxtScript returns the text of the first <script> element, in document
// order, that contains window.__NUXT__.
func FindNuxtScript(rawHTML string) (string, error) {
	root, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return "", models.NewScrapeError(
			models.ErrCodeNuxtNotFound,
			"failed to parse page HTML",
			err,
		)
	}

	var (
		text  string
		found bool
	)
	goquery.NewDocumentFromNode(root).
		FindMatcher(scriptMatcher).
		EachWithBreak(func(_ int, s *goquery.Selection) bool {
			if t := s.Text(); strings.Contains(t, nuxtMarker) {
				text, found = t, true
				return false
			}
			return true
		})

	if !found {
		return "", models.NewScrapeError(
			models.ErrCodeNuxtNotFound,
			"no script tag containing '__NUXT__' data found on the page",
			nil,
		)
	}
	return text, nil
}

// ExtractIIFE slices the state expression out of the Nuxt script: from the
// first "(function" to the end, minus the final character (the statement's
// terminating semicolon). Trailing whitespace is ignored when locating that
// final character.
func ExtractIIFE(script string) (string, error) {
	idx := strings.Index(script, iifeMarker)
	if idx == -1 {
		return "", models.NewScrapeError(
			models.ErrCodeIIFENotFound,
			"IIFE start not found in '__NUXT__' script",
			nil,
		)
	}

	body := strings.TrimRightFunc(script[idx:], unicode.IsSpace)
	return body[:len(body)-1], nil
}
