package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/tidwall/gjson"
)

// CLI flags
var (
	apiURL = flag.String("api-url", "http://localhost:8000", "nuxtinfo API base URL")
	runs   = flag.Int("runs", 3, "Number of runs per URL for averaging")
	output = flag.String("output", "benchmark-results.json", "JSON output file path")
)

// defaultURLs are used when no page URLs are given on the command line.
var defaultURLs = []string{
	"https://mcpedl.com/",
}

// --- Benchmark result types ---

type runResult struct {
	Run        int    `json:"run"`
	LatencyMs  int64  `json:"latency_ms"`
	StatusCode int    `json:"status_code"`
	BodyBytes  int    `json:"body_bytes"`
	Downloads  int    `json:"downloads"`
	Success    bool   `json:"success"`
	Error      string `json:"error,omitempty"`
}

type urlResult struct {
	URL          string      `json:"url"`
	Runs         []runResult `json:"runs"`
	AvgLatencyMs float64     `json:"avg_latency_ms,omitempty"`
}

type benchmarkReport struct {
	Timestamp  string      `json:"timestamp"`
	APIURL     string      `json:"api_url"`
	RunsPerURL int         `json:"runs_per_url"`
	Results    []urlResult `json:"results"`
}

func main() {
	flag.Parse()

	urls := flag.Args()
	if len(urls) == 0 {
		urls = defaultURLs
	}

	fmt.Println("=== nuxtinfo Benchmark ===")
	fmt.Printf("API URL:   %s\n", *apiURL)
	fmt.Printf("Runs/URL:  %d\n", *runs)
	fmt.Printf("Output:    %s\n", *output)
	fmt.Println()

	// Quick connectivity check.
	if err := checkAPI(*apiURL); err != nil {
		fmt.Fprintf(os.Stderr, "Error: cannot reach API at %s: %v\n", *apiURL, err)
		os.Exit(1)
	}

	report := benchmarkReport{
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
		APIURL:     *apiURL,
		RunsPerURL: *runs,
	}

	client := &http.Client{Timeout: 90 * time.Second}
	for _, u := range urls {
		fmt.Printf("Benchmarking %s ...\n", u)
		ur := urlResult{URL: u}

		for i := 1; i <= *runs; i++ {
			fmt.Printf("  Run %d/%d ... ", i, *runs)
			rr := benchmarkURL(client, u, i)
			if rr.Success {
				fmt.Printf("OK  %dms  %d downloads\n", rr.LatencyMs, rr.Downloads)
			} else {
				fmt.Printf("FAILED: %s\n", rr.Error)
			}
			ur.Runs = append(ur.Runs, rr)
		}

		ur.AvgLatencyMs = averageLatency(ur.Runs)
		report.Results = append(report.Results, ur)
		fmt.Println()
	}

	printTable(report.Results)

	if err := writeJSON(*output, report); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing JSON output: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("\nDetailed results written to %s\n", *output)
}

func checkAPI(baseURL string) error {
	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Get(baseURL + "/health")
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}

func benchmarkURL(client *http.Client, pageURL string, run int) runResult {
	rr := runResult{Run: run}

	bodyBytes, err := json.Marshal(map[string]string{"url": pageURL})
	if err != nil {
		rr.Error = fmt.Sprintf("marshal error: %v", err)
		return rr
	}

	start := time.Now()
	resp, err := client.Post(*apiURL+"/mcpedl/info", "application/json", bytes.NewReader(bodyBytes))
	if err != nil {
		rr.Error = fmt.Sprintf("request failed: %v", err)
		return rr
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	rr.LatencyMs = time.Since(start).Milliseconds()
	if err != nil {
		rr.Error = fmt.Sprintf("read error: %v", err)
		return rr
	}

	rr.StatusCode = resp.StatusCode
	rr.BodyBytes = len(body)
	if resp.StatusCode != http.StatusOK {
		rr.Error = gjson.GetBytes(body, "detail").String()
		if rr.Error == "" {
			rr.Error = fmt.Sprintf("HTTP %d", resp.StatusCode)
		}
		return rr
	}

	rr.Success = true
	rr.Downloads = int(gjson.GetBytes(body, "state.slug.model.downloads.#").Int())
	return rr
}

func averageLatency(runs []runResult) float64 {
	var total float64
	var n int
	for _, r := range runs {
		if r.Success {
			total += float64(r.LatencyMs)
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return total / float64(n)
}

func printTable(results []urlResult) {
	fmt.Println(strings.Repeat("─", 72))
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "URL\tAvg Latency\tOK Runs\n")
	fmt.Fprintf(w, "───\t───────────\t───────\n")

	for _, r := range results {
		ok := 0
		for _, run := range r.Runs {
			if run.Success {
				ok++
			}
		}
		if ok == 0 {
			fmt.Fprintf(w, "%s\tFAILED\t0/%d\n", truncateURL(r.URL, 48), len(r.Runs))
			continue
		}
		fmt.Fprintf(w, "%s\t%dms\t%d/%d\n", truncateURL(r.URL, 48), int64(r.AvgLatencyMs), ok, len(r.Runs))
	}

	w.Flush()
	fmt.Println(strings.Repeat("─", 72))
}

func truncateURL(u string, max int) string {
	if len(u) <= max {
		return u
	}
	return u[:max-3] + "..."
}

func writeJSON(path string, report benchmarkReport) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
