package commands

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/teamchat/tchat/internal/health"
	"github.com/teamchat/tchat/internal/logging"
)

var (
	healthJSON      bool
	healthInstances []string
	healthTimeout   time.Duration
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Probe chat backend instances",
	Long: `Probe GET /api/health on each backend instance, one at a time, and print
a pass/fail summary. Exits non-zero if any instance fails.

Instances default to health_instances in .tchat, or localhost:3001-3003.

Examples:
  tchat health
  tchat health --instance http://chat-1:3001 --instance http://chat-2:3001
  tchat health --timeout 2s --json`,
	Args: cobra.NoArgs,
	RunE: runHealth,
}

func init() {
	healthCmd.Flags().BoolVar(&healthJSON, "json", false, "Output as JSON")
	healthCmd.Flags().StringArrayVar(&healthInstances, "instance", nil, "Instance base URL to probe (repeatable)")
	healthCmd.Flags().DurationVar(&healthTimeout, "timeout", 0, "Per-instance timeout (default from config, 5s)")
}

func runHealth(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	instances := healthInstances
	if len(instances) == 0 {
		instances = cfg.HealthInstances
	}
	timeout := healthTimeout
	if timeout <= 0 {
		timeout = cfg.HealthTimeoutOrDefault()
	}
	logger := logging.New(logging.Options{Level: cfg.LogLevel, Format: cfg.LogFormat, Writer: os.Stderr})

	ctx, cancel := context.WithTimeout(cmd.Context(), time.Duration(len(instances)+1)*timeout)
	defer cancel()

	report := health.Probe(ctx, instances, health.Options{Timeout: timeout, Logger: logger})
	fmt.Print(formatHealthOutput(report, healthJSON))
	return healthError(report)
}

// healthError is non-nil when any instance failed, so main exits 1.
func healthError(report health.Report) error {
	if report.AllOK() {
		return nil
	}
	failed := len(report.Results) - report.Passed()
	return fmt.Errorf("%w: %d of %d instances unhealthy", errHealthFailed, failed, len(report.Results))
}

// HealthOutput is the JSON shape of `tchat health --json`.
type HealthOutput struct {
	OK      bool            `json:"ok"`
	Passed  int             `json:"passed"`
	Total   int             `json:"total"`
	Results []health.Result `json:"results"`
}

func formatHealthOutput(report health.Report, asJSON bool) string {
	if asJSON {
		return marshalJSONOrFallback(HealthOutput{
			OK:      report.AllOK(),
			Passed:  report.Passed(),
			Total:   len(report.Results),
			Results: report.Results,
		})
	}

	var sb strings.Builder
	for _, r := range report.Results {
		if r.OK() {
			rep := r.Report
			websockets := 0
			if rep.Connections.Websockets != nil {
				websockets = *rep.Connections.Websockets
			}
			sb.WriteString(fmt.Sprintf("✓ %s: OK\n", r.URL))
			sb.WriteString(fmt.Sprintf("    instance: %s, websockets: %d, database: %s, redis: %s\n",
				rep.Instance, websockets, rep.Services.Database, rep.Services.Redis))
			continue
		}
		sb.WriteString(fmt.Sprintf("✗ %s: ERROR - %s\n", r.URL, r.Message))
	}

	sb.WriteString(fmt.Sprintf("\n%d/%d instances healthy\n", report.Passed(), len(report.Results)))
	return sb.String()
}
