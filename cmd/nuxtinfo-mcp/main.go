package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// infoRequest mirrors the nuxtinfo API request model.
type infoRequest struct {
	URL string `json:"url"`
}

// errorResponse mirrors the nuxtinfo API error body.
type errorResponse struct {
	Code   string `json:"code"`
	Detail string `json:"detail"`
}

func main() {
	apiURL := os.Getenv("NUXTINFO_API_URL")
	if apiURL == "" {
		apiURL = "http://127.0.0.1:8000"
	}

	s := server.NewMCPServer(
		"nuxtinfo",
		"0.1.0",
		server.WithToolCapabilities(false),
	)

	infoTool := mcp.NewTool("mcpedl_info",
		mcp.WithDescription("Read an mcpedl.com product page and return its embedded page state (title, metadata and deduplicated download links) as JSON."),
		mcp.WithString("url",
			mcp.Required(),
			mcp.Description("The mcpedl.com product page URL, e.g. https://mcpedl.com/some-addon/"),
		),
	)

	s.AddTool(infoTool, handleInfo(apiURL))

	if err := server.ServeStdio(s); err != nil {
		fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}
}

func handleInfo(apiURL string) server.ToolHandlerFunc {
	client := &http.Client{Timeout: 60 * time.Second}

	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		url, err := request.RequireString("url")
		if err != nil {
			return mcp.NewToolResultError("url is required"), nil
		}

		status, respBody, err := apiPost(ctx, client, apiURL+"/mcpedl/info", infoRequest{URL: url})
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("API request failed: %v", err)), nil
		}

		if status != http.StatusOK {
			var errResp errorResponse
			if err := json.Unmarshal(respBody, &errResp); err != nil || errResp.Detail == "" {
				return mcp.NewToolResultError(fmt.Sprintf("API returned HTTP %d", status)), nil
			}
			return mcp.NewToolResultError(fmt.Sprintf("[%s] %s", errResp.Code, errResp.Detail)), nil
		}

		// Format the page state as pretty JSON.
		var pretty bytes.Buffer
		if err := json.Indent(&pretty, respBody, "", "  "); err != nil {
			// Fall back to raw JSON.
			pretty.Reset()
			pretty.Write(respBody)
		}

		return mcp.NewToolResultText(pretty.String()), nil
	}
}

// apiPost sends a POST request to the nuxtinfo API and returns the status
// code and response body.
func apiPost(ctx context.Context, client *http.Client, endpoint string, payload interface{}) (int, []byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return 0, nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return 0, nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("read response: %w", err)
	}
	return resp.StatusCode, respBody, nil
}
