package cmd

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"interview-copilot/internal/cache"
)

var faqServerURL string

var faqCmd = &cobra.Command{
	Use:   "faq",
	Short: "Manage the answer cache of a running server",
}

var faqStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show answer cache statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		return adminGet("/get-faq-stats")
	},
}

var faqClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Empty the answer cache",
	RunE: func(cmd *cobra.Command, args []string) error {
		return adminPost("/clear-faq", nil)
	},
}

var faqReloadCmd = &cobra.Command{
	Use:   "reload",
	Short: "Reload the cache from the server's seed file",
	RunE: func(cmd *cobra.Command, args []string) error {
		return adminPost("/reload-faq", nil)
	},
}

var faqUploadCmd = &cobra.Command{
	Use:   "upload <file>",
	Short: "Upload a FAQ seed file and reload the cache from it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", args[0], err)
		}
		// Validate locally before sending.
		if _, err := cache.ParseSeed(data); err != nil {
			return err
		}
		return adminPost("/upload-faq", data)
	},
}

func init() {
	faqCmd.PersistentFlags().StringVar(&faqServerURL, "server", "http://localhost:8000", "Server admin URL")
	faqCmd.AddCommand(faqStatsCmd, faqClearCmd, faqReloadCmd, faqUploadCmd)
	rootCmd.AddCommand(faqCmd)
}

var adminClient = &http.Client{Timeout: 30 * time.Second}

func adminGet(path string) error {
	resp, err := adminClient.Get(faqServerURL + path)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	return printResponse(resp)
}

func adminPost(path string, body []byte) error {
	resp, err := adminClient.Post(faqServerURL+path, "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	return printResponse(resp)
}

func printResponse(resp *http.Response) error {
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	fmt.Println(string(bytes.TrimSpace(data)))
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("server returned status %d", resp.StatusCode)
	}
	return nil
}
