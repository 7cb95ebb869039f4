package json

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/khanhnv2901/moodscan/internal/domain/catalog"
	"github.com/khanhnv2901/moodscan/internal/domain/scan"
	"github.com/khanhnv2901/moodscan/internal/domain/vulnerability"
)

func TestResultWriterWritesAllKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "result.json")
	result := scan.Result{
		URL:       "http://moodle.test",
		Version:   "3.10.4",
		Plugins:   []catalog.Plugin{},
		Official:  []vulnerability.Record{},
		Community: []string{"open_registration"},
	}

	if err := NewResultWriter().Write(context.Background(), path, result); err != nil {
		t.Fatalf("Write: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("decode: %v", err)
	}
	for _, key := range []string{"url", "version", "plugins", "official_vulnerabilities", "community_vulnerabilities"} {
		if _, ok := raw[key]; !ok {
			t.Errorf("result lacks %q", key)
		}
	}
	if string(raw["plugins"]) != "[]" {
		t.Errorf("plugins should be an empty list, got %s", raw["plugins"])
	}
}

func TestResultWriterLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "result.json")
	w := NewResultWriter()

	for i := 0; i < 2; i++ {
		if err := w.Write(context.Background(), path, scan.Result{URL: "http://moodle.test"}); err != nil {
			t.Fatalf("Write: %v", err)
		}
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 1 || entries[0].Name() != "result.json" {
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			names = append(names, e.Name())
		}
		t.Fatalf("expected only result.json, got %v", names)
	}
}

func TestResultWriterHonorsCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	path := filepath.Join(t.TempDir(), "result.json")
	if err := NewResultWriter().Write(ctx, path, scan.Result{}); err == nil {
		t.Fatal("expected error for cancelled context")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatal("no file should be written after cancellation")
	}
}

func TestResultWriterReadsBackWrittenResult(t *testing.T) {
	path := filepath.Join(t.TempDir(), "result.json")
	w := NewResultWriter()
	want := scan.Result{
		URL:       "http://moodle.test",
		Version:   "v3.9",
		Plugins:   []catalog.Plugin{},
		Official:  []vulnerability.Record{vulnerability.NewRecord("MSA-20-0001", nil, "3.9", "https://moodle.org/mod/forum/discuss.php?d=1")},
		Community: []string{"guest_access_enabled"},
	}
	if err := w.Write(context.Background(), path, want); err != nil {
		t.Fatalf("Write: %v", err)
	}

	got, err := w.Read(context.Background(), path)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if got.URL != want.URL || got.Version != want.Version {
		t.Fatalf("unexpected result header: %+v", got)
	}
	if len(got.Official) != 1 || got.Official[0].CVEs[0] != vulnerability.NoIdentifier {
		t.Fatalf("unexpected official findings: %+v", got.Official)
	}
	if len(got.Community) != 1 || got.Community[0] != "guest_access_enabled" {
		t.Fatalf("unexpected community findings: %v", got.Community)
	}
}

func TestResultWriterReadRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "result.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := NewResultWriter().Read(context.Background(), path); err == nil {
		t.Fatal("expected decode error")
	}
}
