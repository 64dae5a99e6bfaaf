package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/spf13/cobra"
)

type healthStatus struct {
	Status string `json:"status"`
}

func newHealthcheckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "healthcheck",
		Short: "Probe a running service's /health endpoint",
		RunE: func(cmd *cobra.Command, args []string) error {
			url, _ := cmd.Flags().GetString("url")
			timeout, _ := cmd.Flags().GetDuration("timeout")
			status, err := probeHealth(cmd.Context(), resty.New().SetTimeout(timeout), url)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", url, status)
			return nil
		},
	}
	cmd.Flags().String("url", "http://localhost:8080/health", "Health endpoint to probe")
	cmd.Flags().Duration("timeout", 5*time.Second, "Request timeout")
	return cmd
}

func probeHealth(ctx context.Context, client *resty.Client, url string) (string, error) {
	var body healthStatus
	resp, err := client.R().
		SetContext(ctx).
		SetResult(&body).
		Get(url)
	if err != nil {
		return "", fmt.Errorf("healthcheck %s: %w", url, err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("healthcheck %s: unexpected status %d", url, resp.StatusCode())
	}
	if body.Status == "" {
		return "", fmt.Errorf("healthcheck %s: empty status", url)
	}
	return body.Status, nil
}
