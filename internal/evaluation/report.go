package evaluation

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// RunConfig records what was evaluated
type RunConfig struct {
	Provider    string  `yaml:"provider"`
	Model       string  `yaml:"model"`
	Temperature float64 `yaml:"temperature"`
	Dataset     string  `yaml:"dataset"`
	Timestamp   string  `yaml:"timestamp"`
}

// Report is the file written after a run
type Report struct {
	Config  RunConfig `yaml:"config"`
	Summary Summary   `yaml:"summary"`
	Results []Result  `yaml:"results"`
}

// ReportName is the default file name for a run of model at t
func ReportName(model string, t time.Time) string {
	safe := filepath.Base(filepath.Clean("/" + model))
	return fmt.Sprintf("%s-%s.yaml", safe, t.Format("2006-01-02_15-04-05"))
}

// SaveReport writes the report as YAML, creating parent directories
func SaveReport(path string, report *Report) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create report directory: %w", err)
	}

	data, err := yaml.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to marshal YAML: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}
