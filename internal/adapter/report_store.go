package adapter

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	m "gooze.dev/pkg/mutguard/internal/model"
)

const latestReportName = "latest.yaml"

// ErrNoReport is returned when no scan result has been saved yet.
var ErrNoReport = errors.New("no saved report")

// ReportStore persists scan results.
type ReportStore interface {
	// SaveResult writes result under dir as <run id>.yaml and latest.yaml and
	// returns the path of the run file.
	SaveResult(ctx context.Context, dir m.Path, result m.ScanResult) (m.Path, error)

	// LoadLatest reads latest.yaml from dir.
	LoadLatest(ctx context.Context, dir m.Path) (m.ScanResult, error)
}

// YAMLReportStore stores results as YAML documents.
type YAMLReportStore struct{}

// NewYAMLReportStore constructs a YAMLReportStore.
func NewYAMLReportStore() *YAMLReportStore {
	return &YAMLReportStore{}
}

// SaveResult marshals result and writes both copies.
func (s *YAMLReportStore) SaveResult(ctx context.Context, dir m.Path, result m.ScanResult) (m.Path, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	if result.RunID == "" {
		return "", fmt.Errorf("save report: missing run id")
	}

	data, err := yaml.Marshal(result)
	if err != nil {
		return "", fmt.Errorf("marshal report: %w", err)
	}

	if err := os.MkdirAll(string(dir), 0o750); err != nil {
		return "", fmt.Errorf("create reports dir: %w", err)
	}

	runPath := filepath.Join(string(dir), result.RunID+".yaml")
	if err := os.WriteFile(runPath, data, 0o600); err != nil {
		return "", fmt.Errorf("write report: %w", err)
	}

	if err := os.WriteFile(filepath.Join(string(dir), latestReportName), data, 0o600); err != nil {
		return "", fmt.Errorf("write latest report: %w", err)
	}

	return m.Path(runPath), nil
}

// LoadLatest unmarshals the most recently saved result.
func (s *YAMLReportStore) LoadLatest(ctx context.Context, dir m.Path) (m.ScanResult, error) {
	if err := ctx.Err(); err != nil {
		return m.ScanResult{}, err
	}

	// #nosec G304 - reports directory is configured by the user
	data, err := os.ReadFile(filepath.Join(string(dir), latestReportName))
	if err != nil {
		if os.IsNotExist(err) {
			return m.ScanResult{}, fmt.Errorf("%s: %w", dir, ErrNoReport)
		}

		return m.ScanResult{}, fmt.Errorf("read report: %w", err)
	}

	var result m.ScanResult
	if err := yaml.Unmarshal(data, &result); err != nil {
		return m.ScanResult{}, fmt.Errorf("unmarshal report: %w", err)
	}

	return result, nil
}
