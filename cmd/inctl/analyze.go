package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
)

// analyzeCmd sends incident text from a file or stdin for analysis
var analyzeCmd = &cobra.Command{
	Use:   "analyze [file]",
	Short: "Analyze incident text from a file or stdin",
	Long: `Analyze incident text against the knowledge base using the incidentd server.

Examples:
  # Analyze a file
  inctl analyze incident.txt

  # Analyze from stdin
  kubectl logs payment-api | tail -50 | inctl analyze -

  # Use a different server
  inctl analyze --server http://localhost:9000 incident.txt`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAnalyze,
}

// AnalyzeRequest matches internal/http/server.go AnalyzeRequest
type AnalyzeRequest struct {
	IncidentText string `json:"incident_text"`
}

// AnalyzeResponse matches internal/http/server.go AnalyzeResponse
type AnalyzeResponse struct {
	RawOutput    string         `json:"raw_output"`
	ParsedOutput map[string]any `json:"parsed_output"`
}

// runAnalyze handles the analyze command
func runAnalyze(cmd *cobra.Command, args []string) error {
	var content []byte
	var err error

	if len(args) == 0 || args[0] == "-" {
		content, err = io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("failed to read from stdin: %w", err)
		}
	} else {
		content, err = os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("failed to read file %s: %w", args[0], err)
		}
	}

	if len(content) == 0 {
		return fmt.Errorf("no incident text to analyze")
	}

	reqJSON, err := json.Marshal(AnalyzeRequest{IncidentText: string(content)})
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/analyze", serverURL)
	httpReq, err := http.NewRequest("POST", url, bytes.NewReader(reqJSON))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	client := &http.Client{
		Timeout: 120 * time.Second,
	}

	resp, err := client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("failed to send request to %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			return fmt.Errorf("server returned status %d (failed to read response body: %w)", resp.StatusCode, readErr)
		}
		return fmt.Errorf("server returned status %d: %s", resp.StatusCode, string(body))
	}

	var analyzeResp AnalyzeResponse
	if err := json.NewDecoder(resp.Body).Decode(&analyzeResp); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	// Pretty-print the structured analysis when the server parsed it, raw
	// output otherwise.
	if analyzeResp.ParsedOutput != nil {
		pretty, err := json.MarshalIndent(analyzeResp.ParsedOutput, "", "  ")
		if err == nil {
			fmt.Println(string(pretty))
			return nil
		}
	}
	fmt.Println(analyzeResp.RawOutput)
	return nil
}
