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
)

type KnowledgeFile struct {
	BusinessName string  `json:"business_name"`
	Entries      []Entry `json:"entries"`
}

type Entry struct {
	Intent   string `json:"intent"`
	Keywords string `json:"keywords"`
	Response string `json:"response"`
	Priority int    `json:"priority"`
	Active   bool   `json:"active"`
}

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: seed-knowledge <knowledge-file.json>")
		fmt.Println("Example: seed-knowledge testdata/sample-knowledge.json")
		os.Exit(1)
	}

	apiURL := os.Getenv("API_URL")
	if apiURL == "" {
		apiURL = "http://localhost:8080"
	}
	adminToken := strings.TrimSpace(os.Getenv("ADMIN_TOKEN"))
	if adminToken == "" {
		fmt.Println("ADMIN_TOKEN is required (a JWT signed with ADMIN_JWT_SECRET)")
		os.Exit(1)
	}

	knowledgeFile := os.Args[1]

	fmt.Printf("Seeding knowledge base\n")
	fmt.Printf("======================\n")
	fmt.Printf("API URL: %s\n", apiURL)
	fmt.Printf("Knowledge file: %s\n\n", knowledgeFile)

	data, err := os.ReadFile(knowledgeFile)
	if err != nil {
		fmt.Printf("Error reading file: %v\n", err)
		os.Exit(1)
	}

	var file KnowledgeFile
	if err := json.Unmarshal(data, &file); err != nil {
		fmt.Printf("Error parsing JSON: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Business: %s\n", file.BusinessName)
	fmt.Printf("Entries to upload: %d\n\n", len(file.Entries))

	ctx := context.Background()
	client := &http.Client{Timeout: 30 * time.Second}
	created := 0

	for i, entry := range file.Entries {
		payload, err := json.Marshal(entry)
		if err != nil {
			fmt.Printf("  [%d] error marshaling entry: %v\n", i+1, err)
			continue
		}

		url := fmt.Sprintf("%s/admin/knowledge/", apiURL)
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
		if err != nil {
			fmt.Printf("  [%d] error creating request: %v\n", i+1, err)
			continue
		}
		httpReq.Header.Set("Content-Type", "application/json")
		httpReq.Header.Set("Authorization", "Bearer "+adminToken)

		resp, err := client.Do(httpReq)
		if err != nil {
			fmt.Printf("  [%d] error sending request: %v\n", i+1, err)
			continue
		}

		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()

		if resp.StatusCode == http.StatusCreated {
			created++
			fmt.Printf("  [%d] created intent %q\n", i+1, entry.Intent)
		} else {
			fmt.Printf("  [%d] failed (status %d): %s\n", i+1, resp.StatusCode, string(body))
		}
	}

	fmt.Printf("\nDone: %d/%d entries created\n", created, len(file.Entries))
	fmt.Printf("\nNext steps:\n")
	fmt.Printf("  curl %s/api/chat -d '{\"message\":\"how much does a website cost?\"}'\n", apiURL)
}
