package scraper

// ScrapeResult is the outcome of one successful pipeline run.
type ScrapeResult struct {
	// Data is the normalised Nuxt state, ready to be JSON-encoded.
	Data any

	// FinalURL is the page URL after redirects.
	FinalURL string

	// Timing in milliseconds per stage.
	FetchMs    int64
	EvaluateMs int64
}
