package adapter

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	m "gooze.dev/pkg/unitmut/internal/model"
)

// ReportFileName is the file a report is saved to inside the reports directory.
const ReportFileName = "report.yaml"

// ReportStore persists mutation reports.
type ReportStore interface {
	SaveReport(dir m.Path, report m.Report) error
	LoadReport(dir m.Path) (m.Report, error)
}

// YAMLReportStore stores a report as YAML.
type YAMLReportStore struct{}

// NewYAMLReportStore constructs a YAMLReportStore.
func NewYAMLReportStore() *YAMLReportStore {
	return &YAMLReportStore{}
}

// SaveReport writes report to dir/report.yaml, creating dir when needed.
func (s *YAMLReportStore) SaveReport(dir m.Path, report m.Report) error {
	if dir == "" {
		return fmt.Errorf("%w: empty reports directory", m.ErrInvalidArgument)
	}

	if err := os.MkdirAll(string(dir), 0o750); err != nil {
		return fmt.Errorf("create reports directory %s: %w", dir, err)
	}

	data, err := yaml.Marshal(report)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}

	path := filepath.Join(string(dir), ReportFileName)
	tmp := path + ".tmp"

	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write report %s: %w", tmp, err)
	}

	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replace report %s: %w", path, err)
	}

	return nil
}

// LoadReport reads dir/report.yaml.
func (s *YAMLReportStore) LoadReport(dir m.Path) (m.Report, error) {
	var report m.Report

	path := filepath.Join(string(dir), ReportFileName)

	// #nosec G304 - reports directory comes from configuration
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return report, fmt.Errorf("%w: no report found in %s", m.ErrInvalidArgument, dir)
		}

		return report, fmt.Errorf("read report %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &report); err != nil {
		return report, fmt.Errorf("parse report %s: %w", path, err)
	}

	return report, nil
}
