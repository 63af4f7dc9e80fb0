package main

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/insightify/insightify-cli/internal/api"
	"github.com/insightify/insightify-cli/internal/classify"
	"github.com/insightify/insightify-cli/internal/config"
	"github.com/insightify/insightify-cli/internal/ignore"
	"github.com/insightify/insightify-cli/internal/job"
	"github.com/insightify/insightify-cli/internal/retry"
	"github.com/insightify/insightify-cli/internal/scan"
	"github.com/insightify/insightify-cli/internal/throttle"
)

var (
	analyzePath       string
	analyzeIgnorePath string
	analyzeWhatIf     bool
	analyzeRoles      []string
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Scan the project and run a remote analysis job",
	Long: `Scan the project for source files and package manifests, classify
them by structural role, and upload the selected files to the analysis
service. The service returns the locations of the generated reports.

Examples:
  insightify analyze                         # analyze the current directory
  insightify analyze --path ../shop          # analyze another project
  insightify analyze --what-if               # show the file list, upload nothing
  insightify analyze --roles=Component,Page  # narrow the roles of interest
  insightify analyze --debug                 # use the local debug host`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAnalyze(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	analyzeCmd.Flags().StringVar(&analyzePath, "path", ".", "project root to analyze")
	analyzeCmd.Flags().StringVar(&analyzeIgnorePath, "ignore-path", "", "ignore file used instead of the project .gitignore")
	analyzeCmd.Flags().BoolVar(&analyzeWhatIf, "what-if", false, "discover and classify files without uploading anything")
	analyzeCmd.Flags().StringSliceVar(&analyzeRoles, "roles", nil, "comma-separated roles of interest (default: all except Module)")
}

func runAnalyze(ctx context.Context) error {
	log := newLogger()

	root, err := filepath.Abs(analyzePath)
	if err != nil {
		return fmt.Errorf("resolving project path: %w", err)
	}

	cfg, err := config.Load(root, debugMode)
	if err != nil {
		return err
	}

	roles, err := rolesOfInterest(analyzeRoles)
	if err != nil {
		return err
	}

	renderer := newRenderer()
	rules := ignore.Load(root, analyzeIgnorePath, log)
	engine := scan.NewEngine(roles, renderer, log)

	files, err := engine.Discover(root, rules)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		fmt.Println("No files selected for analysis.")
		return nil
	}

	if analyzeWhatIf {
		renderer.printWhatIf(files)
		return nil
	}

	policy := retry.DefaultPolicy()
	if cfg.Retries > 0 {
		policy.Attempts = uint(cfg.Retries)
	}
	if cfg.MinDelayMs > 0 {
		policy.MinDelay = time.Duration(cfg.MinDelayMs) * time.Millisecond
	}
	if cfg.MaxDelayMs > 0 {
		policy.MaxDelay = time.Duration(cfg.MaxDelayMs) * time.Millisecond
	}

	throttleCfg := throttle.Config{
		MaxConcurrent: cfg.MaxConcurrent,
		IntervalCap:   cfg.IntervalCap,
		Interval:      time.Duration(cfg.IntervalMs) * time.Millisecond,
		Timeout:       time.Duration(cfg.TimeoutMs) * time.Millisecond,
	}

	client := api.NewClient(cfg, log)
	orchestrator := job.New(client, throttleCfg, policy, renderer, log)

	summary, err := orchestrator.Run(ctx, files)
	if err != nil {
		return err
	}

	renderer.printSummary(summary)
	return nil
}

// rolesOfInterest resolves the --roles flag. Module is rejected rather
// than silently dropped so the user learns it is never analyzable.
func rolesOfInterest(names []string) (classify.RoleSet, error) {
	if len(names) == 0 {
		return classify.DefaultRolesOfInterest(), nil
	}
	roles := make([]classify.Role, 0, len(names))
	for _, name := range names {
		role, ok := classify.ParseRole(name)
		if !ok {
			return nil, fmt.Errorf("unknown role %q", name)
		}
		if role == classify.RoleModule {
			return nil, fmt.Errorf("role %q is never selected for analysis", name)
		}
		roles = append(roles, role)
	}
	return classify.NewRoleSet(roles...), nil
}
