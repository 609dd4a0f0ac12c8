package config

import (
	"path/filepath"
	"reflect"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if len(cfg.Jobs) != 2 {
		t.Fatalf("expected 2 built-in jobs, got %d", len(cfg.Jobs))
	}

	banks, exists := cfg.Jobs["banks"]
	if !exists {
		t.Fatal("expected 'banks' job to exist")
	}
	if banks.TableName != "Largest_banks" {
		t.Errorf("expected table_name 'Largest_banks', got %s", banks.TableName)
	}
	if banks.Table.Index != 0 {
		t.Errorf("expected banks table index 0, got %d", banks.Table.Index)
	}
	if banks.Transform.Type != TransformCurrency {
		t.Errorf("expected banks transform 'currency', got %s", banks.Transform.Type)
	}
	if len(banks.Queries) != 4 {
		t.Errorf("expected 4 banks queries, got %d", len(banks.Queries))
	}

	gdp, exists := cfg.Jobs["gdp"]
	if !exists {
		t.Fatal("expected 'gdp' job to exist")
	}
	if gdp.Table.Index != 2 {
		t.Errorf("expected gdp table index 2, got %d", gdp.Table.Index)
	}
	if gdp.Table.Placeholder == nil || gdp.Table.Placeholder.Token != "—" {
		t.Errorf("expected gdp placeholder token em-dash, got %+v", gdp.Table.Placeholder)
	}
	if gdp.Transform.LegacyConstant != nil {
		t.Error("expected the corrected rescale by default")
	}
	if len(gdp.Queries) != 1 {
		t.Errorf("expected 1 gdp query, got %d", len(gdp.Queries))
	}

	if cfg.Database.Driver != DriverSQLite {
		t.Errorf("expected driver 'sqlite', got %s", cfg.Database.Driver)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("expected logging level 'info', got %s", cfg.Logging.Level)
	}
	if cfg.Database.LockTimeoutSeconds != 10 {
		t.Errorf("expected lock timeout 10, got %d", cfg.Database.LockTimeoutSeconds)
	}
	if cfg.Verification.Method != VerifyCount {
		t.Errorf("expected verification method 'count', got %s", cfg.Verification.Method)
	}
}

func TestDefaultConfigIsValid(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Errorf("expected built-in config to validate, got: %v", err)
	}
}

func TestDefaultConfigReturnsFreshCopies(t *testing.T) {
	a := DefaultConfig()
	b := DefaultConfig()

	job := a.Jobs["banks"]
	job.Table.Columns[0].Name = "Changed"

	if b.Jobs["banks"].Table.Columns[0].Name != "Name" {
		t.Error("DefaultConfig should not share column slices between calls")
	}
}

func TestListJobs(t *testing.T) {
	cfg := &Config{
		Jobs: map[string]JobConfig{
			"zeta":  {},
			"alpha": {},
			"mid":   {},
		},
	}

	got := cfg.ListJobs()
	want := []string{"alpha", "mid", "zeta"}
	if len(got) != len(want) {
		t.Fatalf("expected %d jobs, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("ListJobs()[%d] = %s, expected %s", i, got[i], want[i])
		}
	}
}

func TestColumnNames(t *testing.T) {
	tc := GDPJob().Table
	names := tc.ColumnNames()
	if len(names) != 2 || names[0] != "Country" || names[1] != "GDP_USD_millions" {
		t.Errorf("unexpected column names: %v", names)
	}
}

func TestExampleConfigMatchesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join("..", "..", "wikietl.yaml"))
	if err != nil {
		t.Fatalf("failed to load example config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("example config is invalid: %v", err)
	}

	defaults := DefaultConfig()
	for _, name := range []string{"banks", "gdp"} {
		if !reflect.DeepEqual(cfg.Jobs[name], defaults.Jobs[name]) {
			t.Errorf("example job %q differs from the built-in job:\n got  %+v\n want %+v", name, cfg.Jobs[name], defaults.Jobs[name])
		}
	}
}
