// Package main provides a CLI tool for validating blinq server endpoints.
// It signs up a throwaway user and exercises the API as that user.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-retryablehttp"

	"blinq/internal/version"
)

type endpoint struct {
	path        string
	method      string
	body        any
	status      int
	contentType string
	contains    []string
}

var endpoints = []endpoint{
	// Health and session
	{path: "/api/health", method: "GET", contentType: "application/json", contains: []string{`"status":"ok"`}},
	{path: "/api/auth/session", method: "GET", contentType: "application/json", contains: []string{`"isAuthenticated":true`}},

	// Document
	{path: "/api/data", method: "GET", contentType: "application/json", contains: []string{`"accounts"`, `"transactions"`}},
	{path: "/api/dashboard", method: "GET", contentType: "application/json", contains: []string{`"display"`, `"metrics"`}},
	{path: "/api/dashboard/metrics/totalBalance", method: "PUT", body: map[string]any{"value": 250000}, contentType: "application/json", contains: []string{`"totalBalance":250000`}},

	// Mutators
	{path: "/api/accounts", method: "POST", body: map[string]any{"name": "Validation", "accountNumber": "0000", "bank": "Test Bank"}, status: http.StatusCreated, contentType: "application/json", contains: []string{`"status":"active"`}},
	{path: "/api/accounts", method: "GET", contentType: "application/json", contains: []string{`"Validation"`, `"summary"`}},
	{path: "/api/budget/categories", method: "POST", body: map[string]any{"name": "Food", "budgetAmount": 100, "spentAmount": 95}, status: http.StatusCreated, contentType: "application/json", contains: []string{`"status":"warning"`}},
	{path: "/api/budget", method: "GET", contentType: "application/json", contains: []string{`"overview"`}},
	{path: "/api/savings-goals", method: "POST", body: map[string]any{"name": "Trip", "targetAmount": 1000}, status: http.StatusCreated, contentType: "application/json", contains: []string{`"progress"`}},

	// Reports
	{path: "/api/reports?period=12m", method: "GET", contentType: "application/json", contains: []string{`"monthlyData"`, `"summary"`}},
	{path: "/api/reports/comparison?type=previous", method: "GET", contentType: "application/json", contains: []string{`"hasData"`}},
	{path: "/api/reports/recurring", method: "GET", contentType: "application/json", contains: []string{`"payments"`}},
	{path: "/api/transactions/search?sort=amount&order=asc", method: "GET", contentType: "application/json", contains: []string{`"pageRange"`}},
	{path: "/api/settings", method: "GET", contentType: "application/json", contains: []string{`"currency"`}},
	{path: "/api/backup", method: "GET", contentType: "application/zip"},

	// Cleanup
	{path: "/api/data", method: "DELETE", contentType: "application/json", contains: []string{`"totalBalance":0`}},
	{path: "/api/auth/logout", method: "POST", status: http.StatusNoContent},
}

var userAgent = version.Get().UserAgent("validate")

type result struct {
	endpoint endpoint
	status   int
	duration time.Duration
	err      error
	body     string
}

func main() {
	url := flag.String("url", "http://localhost:8080", "Base URL of the server to validate")
	verbose := flag.Bool("v", false, "Verbose output")
	timeout := flag.Int("timeout", 10, "Request timeout in seconds")
	retries := flag.Int("retries", 3, "Retries for connection failures and 5xx responses")
	flag.Parse()

	client := retryablehttp.NewClient()
	client.HTTPClient.Timeout = time.Duration(*timeout) * time.Second
	client.RetryMax = *retries
	client.RetryWaitMax = 5 * time.Second
	client.Logger = nil

	fmt.Printf("Validating server at %s\n", *url)

	token, err := signup(client, *url)
	if err != nil {
		fmt.Printf("FAIL POST /api/auth/signup\n     Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Testing %d endpoints...\n\n", len(endpoints))

	var passed, failed int
	for _, ep := range endpoints {
		r := validateEndpoint(client, *url, token, ep)

		if r.err != nil {
			failed++
			fmt.Printf("FAIL %s %s\n", ep.method, ep.path)
			fmt.Printf("     Error: %v\n", r.err)
		} else {
			passed++
			if *verbose {
				fmt.Printf("PASS %s %s (%v)\n", ep.method, ep.path, r.duration)
			}
		}
	}

	fmt.Printf("\n========================================\n")
	fmt.Printf("Results: %d passed, %d failed\n", passed, failed)

	if failed > 0 {
		os.Exit(1)
	}
}

// signup registers a throwaway user and returns its session token
func signup(client *retryablehttp.Client, baseURL string) (string, error) {
	email := fmt.Sprintf("validate-%s@example.com", uuid.NewString())
	payload, _ := json.Marshal(map[string]string{
		"fullName": "Validation Bot",
		"email":    email,
		"password": uuid.NewString(),
	})

	req, err := retryablehttp.NewRequest(http.MethodPost, baseURL+"/api/auth/signup", payload)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var out struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("invalid JSON: %w", err)
	}
	return out.Token, nil
}

func validateEndpoint(client *retryablehttp.Client, baseURL, token string, ep endpoint) result {
	start := time.Now()

	var reqBody any
	if ep.body != nil {
		data, err := json.Marshal(ep.body)
		if err != nil {
			return result{endpoint: ep, err: fmt.Errorf("failed to encode body: %w", err)}
		}
		reqBody = data
	}

	req, err := retryablehttp.NewRequest(ep.method, baseURL+ep.path, reqBody)
	if err != nil {
		return result{endpoint: ep, err: fmt.Errorf("failed to create request: %w", err)}
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("User-Agent", userAgent)
	if reqBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := client.Do(req)
	if err != nil {
		return result{endpoint: ep, err: fmt.Errorf("request failed: %w", err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return result{endpoint: ep, err: fmt.Errorf("failed to read body: %w", err)}
	}

	r := result{
		endpoint: ep,
		status:   resp.StatusCode,
		duration: time.Since(start),
		body:     string(body),
	}

	want := ep.status
	if want == 0 {
		want = http.StatusOK
	}
	if r.status != want {
		r.err = fmt.Errorf("status %d (expected %d)", r.status, want)
		return r
	}

	if ep.contentType == "" {
		return r
	}

	// Validate content type
	ct := resp.Header.Get("Content-Type")
	if !strings.Contains(ct, ep.contentType) {
		r.err = fmt.Errorf("wrong content type: got %q, expected %q", ct, ep.contentType)
		return r
	}

	// Validate JSON if expected
	if ep.contentType == "application/json" {
		var js any
		if err := json.Unmarshal(body, &js); err != nil {
			r.err = fmt.Errorf("invalid JSON: %w", err)
			return r
		}
	}

	// Validate required content
	for _, needle := range ep.contains {
		if !strings.Contains(r.body, needle) {
			r.err = fmt.Errorf("missing expected content: %q", needle)
			return r
		}
	}

	return r
}
