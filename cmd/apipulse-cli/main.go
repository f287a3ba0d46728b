package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/rahulrathod315/apipulse/internal/budget"
	"github.com/rahulrathod315/apipulse/internal/compliance"
	"github.com/rahulrathod315/apipulse/internal/incident"
	"github.com/rahulrathod315/apipulse/internal/metrics"
	"github.com/rahulrathod315/apipulse/internal/sla"
)

var rootCmd = &cobra.Command{
	Use:   "apipulse",
	Short: "SLA compliance and alert health tooling",
	Long: `apipulse derives health and compliance signals from per-request
observability data: SLA compliance, error budgets, downtime incidents
and alert health scores.`,
	Version: "0.1.0",
}

var (
	validateDir     string
	validateSchemas string
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate SLA and alert definition files",
	RunE:  runValidate,
}

var (
	evaluateSLAFile string
	evaluateFixture string
)

var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Evaluate one SLA offline against a metric fixture",
	RunE:  runEvaluate,
}

func init() {
	validateCmd.Flags().StringVar(&validateDir, "dir", "", "directory containing definition YAML files")
	validateCmd.Flags().StringVar(&validateSchemas, "schemas", "schemas", "directory containing JSON schemas")
	validateCmd.MarkFlagRequired("dir")

	evaluateCmd.Flags().StringVar(&evaluateSLAFile, "sla-file", "", "SLA definition YAML file")
	evaluateCmd.Flags().StringVar(&evaluateFixture, "fixture", "", "metric fixture JSON file")
	evaluateCmd.MarkFlagRequired("sla-file")
	evaluateCmd.MarkFlagRequired("fixture")

	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(evaluateCmd)
	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runValidate(cmd *cobra.Command, args []string) error {
	validator, err := sla.NewValidator(validateSchemas)
	if err != nil {
		return fmt.Errorf("failed to initialize validator: %w", err)
	}

	errors := validator.ValidateDirectory(validateDir)
	if len(errors) == 0 {
		fmt.Println("✓ All definition files are valid")
		return nil
	}

	// Group errors by file
	errorsByFile := make(map[string][]sla.ValidationError)
	for _, err := range errors {
		errorsByFile[err.File] = append(errorsByFile[err.File], err)
	}

	var files []string
	for file := range errorsByFile {
		files = append(files, file)
	}
	sort.Strings(files)

	fmt.Fprintf(os.Stderr, "✗ Validation failed with %d error(s):\n\n", len(errors))
	for _, file := range files {
		for _, err := range errorsByFile[file] {
			if err.Path != "" {
				fmt.Fprintf(os.Stderr, "%s: %s: %s\n", filepath.Base(err.File), err.Path, err.Message)
			} else {
				fmt.Fprintf(os.Stderr, "%s: %s\n", filepath.Base(err.File), err.Message)
			}
		}
	}

	return fmt.Errorf("%d validation error(s)", len(errors))
}

// evaluateReport is the CLI's offline evaluation output.
type evaluateReport struct {
	SLAID      string              `json:"slaID"`
	Window     evaluateWindowInfo  `json:"window"`
	Compliance *compliance.Result  `json:"compliance"`
	Budget     *budget.Budget      `json:"budget"`
	Incidents  []incident.Incident `json:"incidents"`
}

type evaluateWindowInfo struct {
	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`
	Intervals int       `json:"intervals"`
}

func runEvaluate(cmd *cobra.Command, args []string) error {
	def, err := loadSLAFile(evaluateSLAFile)
	if err != nil {
		return err
	}

	window, err := loadFixtureWindow(evaluateFixture)
	if err != nil {
		return err
	}

	cr, err := compliance.Evaluate(def, window, compliance.DefaultOptions())
	if err != nil {
		return fmt.Errorf("compliance evaluation failed: %w", err)
	}

	bud, err := budget.Track(def.Spec.UptimeTargetPercent, def.Spec.EvaluationPeriod, cr,
		window.Start, window.End, budget.DefaultOptions())
	if err != nil {
		return fmt.Errorf("budget tracking failed: %w", err)
	}

	incidents, err := incident.Detect(window, incident.Config{
		Down:               compliance.DownPredicate(window.WidthMinutes(), def.Spec.Downtime),
		ErrorRateThreshold: def.Spec.Downtime.ErrorRatePercent,
		LatencyThresholdMs: float64(def.Spec.ResponseTime.TargetMs),
	})
	if err != nil {
		return fmt.Errorf("incident detection failed: %w", err)
	}

	report := evaluateReport{
		SLAID: def.Metadata.ID,
		Window: evaluateWindowInfo{
			Start:     window.Start,
			End:       window.End,
			Intervals: len(window.Intervals),
		},
		Compliance: cr,
		Budget:     bud,
		Incidents:  incidents,
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(report)
}

func loadSLAFile(path string) (*sla.SLA, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read SLA file: %w", err)
	}

	var def sla.SLA
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("failed to parse SLA file: %w", err)
	}
	if def.Kind != "SLA" {
		return nil, fmt.Errorf("%s: kind %q is not SLA", path, def.Kind)
	}

	return &def, nil
}

// loadFixtureWindow builds a window spanning the fixture's full series.
func loadFixtureWindow(path string) (*metrics.Window, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fixture: %w", err)
	}

	var fixture struct {
		Intervals []metrics.Interval `json:"intervals"`
	}
	if err := json.Unmarshal(data, &fixture); err != nil {
		return nil, fmt.Errorf("failed to parse fixture: %w", err)
	}
	if len(fixture.Intervals) == 0 {
		return nil, fmt.Errorf("fixture %s has no intervals", path)
	}

	start := fixture.Intervals[0].Timestamp
	width := time.Hour
	if len(fixture.Intervals) > 1 {
		width = fixture.Intervals[1].Timestamp.Sub(start)
	}
	end := fixture.Intervals[len(fixture.Intervals)-1].Timestamp.Add(width)

	return metrics.NewWindow(start, end, fixture.Intervals)
}
