package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// runRequest mirrors the Harvest API run request model.
type runRequest struct {
	Scraper    string   `json:"scraper"`
	URLs       []string `json:"urls,omitempty"`
	Discovery  string   `json:"discovery,omitempty"`
	SaveErrors bool     `json:"save_errors,omitempty"`
	Workers    int      `json:"workers,omitempty"`
	Stealth    bool     `json:"stealth,omitempty"`
}

// runResponse mirrors the Harvest API run response model.
type runResponse struct {
	Success bool                `json:"success"`
	Columns []string            `json:"columns"`
	Rows    []map[string]string `json:"rows"`
	Errors  []struct {
		URL     string `json:"url"`
		Kind    string `json:"kind"`
		Message string `json:"message"`
	} `json:"errors"`
	Stats struct {
		URLs       int   `json:"urls"`
		Rows       int   `json:"rows"`
		Failed     int   `json:"failed"`
		DurationMs int64 `json:"duration_ms"`
	} `json:"stats"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// scrapersResponse mirrors the Harvest API scraper catalogue model.
type scrapersResponse struct {
	Scrapers []struct {
		Name    string   `json:"name"`
		Columns []string `json:"columns"`
		Mode    string   `json:"mode"`
	} `json:"scrapers"`
	Total int `json:"total"`
}

func main() {
	apiURL := os.Getenv("HARVEST_API_URL")
	if apiURL == "" {
		apiURL = "http://127.0.0.1:8080"
	}
	apiKey := os.Getenv("HARVEST_API_KEY")
	if apiKey == "" {
		fmt.Fprintln(os.Stderr, "HARVEST_API_KEY is required")
		os.Exit(1)
	}

	s := server.NewMCPServer(
		"harvest",
		"1.0.0",
		server.WithToolCapabilities(false),
	)

	runScraperTool := mcp.NewTool("run_scraper",
		mcp.WithDescription("Run a registered scraper over a list of URLs and return the extracted rows. Optionally expand seed URLs via a discovery strategy first."),
		mcp.WithString("scraper",
			mcp.Required(),
			mcp.Description("Name of the registered scraper to run (see list_scrapers)"),
		),
		mcp.WithArray("urls",
			mcp.Required(),
			mcp.Description("Seed URLs to scrape (or to expand, when a discovery strategy is set)"),
		),
		mcp.WithString("discovery",
			mcp.Description("URL discovery strategy: 'sitemap' (expand sitemap/sitemap-index seeds) or 'links' (expand same-host links on seed pages). Omit to scrape the URLs directly."),
			mcp.Enum("sitemap", "links"),
		),
		mcp.WithNumber("workers",
			mcp.Description("Number of URLs processed in parallel (default: 1)"),
		),
		mcp.WithBoolean("stealth",
			mcp.Description("Enable anti-bot-detection evasions on rendered fetches"),
		),
	)
	s.AddTool(runScraperTool, handleRunScraper(apiURL, apiKey))

	listScrapersTool := mcp.NewTool("list_scrapers",
		mcp.WithDescription("List the registered scrapers with their output columns and fetch mode (raw or rendered)."),
	)
	s.AddTool(listScrapersTool, handleListScrapers(apiURL, apiKey))

	if err := server.ServeStdio(s); err != nil {
		fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}
}

// apiPost sends a POST request to the Harvest API and returns the response body.
func apiPost(ctx context.Context, client *http.Client, apiURL, apiKey, path string, payload interface{}) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Key", apiKey)

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	return io.ReadAll(resp.Body)
}

func handleRunScraper(apiURL, apiKey string) server.ToolHandlerFunc {
	client := &http.Client{Timeout: 600 * time.Second}

	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		scraperName, err := request.RequireString("scraper")
		if err != nil {
			return mcp.NewToolResultError("scraper is required"), nil
		}
		urls, err := request.RequireStringSlice("urls")
		if err != nil {
			return mcp.NewToolResultError("urls is required and must be an array of strings"), nil
		}

		payload := runRequest{
			Scraper:   scraperName,
			URLs:      urls,
			Discovery: request.GetString("discovery", ""),
			Workers:   request.GetInt("workers", 0),
			Stealth:   request.GetBool("stealth", false),
		}

		respBody, err := apiPost(ctx, client, apiURL, apiKey, "/api/v1/runs", payload)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("run request failed: %v", err)), nil
		}

		var runResp runResponse
		if err := json.Unmarshal(respBody, &runResp); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to parse run response: %v", err)), nil
		}

		if !runResp.Success {
			errMsg := "run failed"
			if runResp.Error != nil {
				errMsg = fmt.Sprintf("[%s] %s", runResp.Error.Code, runResp.Error.Message)
			}
			return mcp.NewToolResultError(errMsg), nil
		}

		// Format the table as pipe-separated rows, one header line first.
		var sb strings.Builder
		sb.WriteString(fmt.Sprintf("Run complete: %d rows from %d URLs (%d failed, %dms)\n\n",
			runResp.Stats.Rows, runResp.Stats.URLs, runResp.Stats.Failed, runResp.Stats.DurationMs))

		sb.WriteString(strings.Join(runResp.Columns, " | ") + "\n")
		for _, row := range runResp.Rows {
			values := make([]string, 0, len(runResp.Columns))
			for _, col := range runResp.Columns {
				values = append(values, row[col])
			}
			sb.WriteString(strings.Join(values, " | ") + "\n")
		}

		if len(runResp.Errors) > 0 {
			sb.WriteString("\nFailures:\n")
			for _, f := range runResp.Errors {
				sb.WriteString(fmt.Sprintf("- %s [%s]: %s\n", f.URL, f.Kind, f.Message))
			}
		}

		return mcp.NewToolResultText(sb.String()), nil
	}
}

func handleListScrapers(apiURL, apiKey string) server.ToolHandlerFunc {
	client := &http.Client{Timeout: 30 * time.Second}

	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL+"/api/v1/scrapers", nil)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("create request: %v", err)), nil
		}
		req.Header.Set("X-API-Key", apiKey)

		resp, err := client.Do(req)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("API request failed: %v", err)), nil
		}
		defer resp.Body.Close()

		respBody, err := io.ReadAll(resp.Body)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to read response: %v", err)), nil
		}

		var listResp scrapersResponse
		if err := json.Unmarshal(respBody, &listResp); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to parse response: %v", err)), nil
		}

		var sb strings.Builder
		sb.WriteString(fmt.Sprintf("%d scrapers registered:\n\n", listResp.Total))
		for _, s := range listResp.Scrapers {
			sb.WriteString(fmt.Sprintf("- %s (%s): %s\n", s.Name, s.Mode, strings.Join(s.Columns, ", ")))
		}

		return mcp.NewToolResultText(sb.String()), nil
	}
}
