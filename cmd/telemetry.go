package cmd

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/khanhnv2901/moodscan/internal/domain/scan"
	consts "github.com/khanhnv2901/moodscan/internal/shared/constants"
)

const telemetryFilename = "telemetry.jsonl"

type telemetryRecord struct {
	Timestamp        time.Time `json:"timestamp"`
	Command          string    `json:"command"`
	Target           string    `json:"target"`
	State            string    `json:"state"`
	Level            int       `json:"level"`
	PluginsFound     int       `json:"plugins_found"`
	OfficialFindings int       `json:"official_findings"`
	ModuleCount      int       `json:"module_count"`
	VulnerableCount  int       `json:"vulnerable_count"`
	FaultCount       int       `json:"fault_count"`
	DurationSeconds  float64   `json:"duration_seconds"`
	AvgModuleSeconds float64   `json:"avg_module_seconds"`
}

func recordTelemetry(appCtx *AppContext, command string, level int, s *scan.Scan) error {
	outcomes := s.Community()
	vulnerable, faults := summarizeOutcomes(outcomes)

	avgModule := 0.0
	if len(outcomes) > 0 {
		var total time.Duration
		for _, o := range outcomes {
			total += o.Duration
		}
		avgModule = total.Seconds() / float64(len(outcomes))
	}

	record := telemetryRecord{
		Timestamp:        time.Now().UTC(),
		Command:          command,
		Target:           s.Target(),
		State:            string(s.State()),
		Level:            level,
		PluginsFound:     len(s.Plugins()),
		OfficialFindings: len(s.Official()),
		ModuleCount:      len(outcomes),
		VulnerableCount:  vulnerable,
		FaultCount:       faults,
		DurationSeconds:  s.Duration().Seconds(),
		AvgModuleSeconds: avgModule,
	}

	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal telemetry: %w", err)
	}

	telemetryPath := filepath.Join(appCtx.DataDir, telemetryFilename)
	f, err := os.OpenFile(telemetryPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, consts.DefaultFilePerm)
	if err != nil {
		return fmt.Errorf("open telemetry file: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("write telemetry: %w", err)
	}

	return nil
}

func summarizeOutcomes(outcomes []scan.ModuleOutcome) (vulnerable, faults int) {
	for _, o := range outcomes {
		if o.Vulnerable {
			vulnerable++
		}
		if o.Faulted() {
			faults++
		}
	}
	return vulnerable, faults
}

// loadTelemetryHistory returns up to limit of the most recent records, oldest first.
// A missing telemetry file yields no records.
func loadTelemetryHistory(dataDir string, limit int) ([]telemetryRecord, error) {
	f, err := os.Open(filepath.Join(dataDir, telemetryFilename))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open telemetry file: %w", err)
	}
	defer f.Close()

	var records []telemetryRecord
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if len(scanner.Bytes()) == 0 {
			continue
		}
		var rec telemetryRecord
		if err := json.Unmarshal(scanner.Bytes(), &rec); err != nil {
			return nil, fmt.Errorf("parse telemetry record: %w", err)
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read telemetry: %w", err)
	}

	if limit > 0 && len(records) > limit {
		records = records[len(records)-limit:]
	}
	return records, nil
}
