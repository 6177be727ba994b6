package cli_test

import (
	"path/filepath"
	"testing"

	"github.com/calvinalkan/dataset/internal/cli"
)

func Test_LoadConfig_Defaults_When_No_Files_Exist(t *testing.T) {
	t.Parallel()

	cfg, err := cli.LoadConfig(t.TempDir(), "", nil)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if len(cfg.Stores) != 0 {
		t.Errorf("stores=%v, want empty", cfg.Stores)
	}

	if cfg.Sources.Global != "" || cfg.Sources.Project != "" {
		t.Errorf("sources=%+v, want empty", cfg.Sources)
	}
}

func Test_LoadConfig_Merges_Global_And_Project_Stores(t *testing.T) {
	t.Parallel()

	configHome := t.TempDir()
	workDir := t.TempDir()

	writeFile(t, filepath.Join(configHome, "dsctl", "config.json"), `{
  "stores": {
    "corpus": "dir:/srv/corpus",
    "cache": "badger:/srv/cache",
  },
}`)
	writeFile(t, filepath.Join(workDir, ".dsctl.json"), `{
  "stores": {"cache": "dir:/tmp/cache"},
}`)

	cfg, err := cli.LoadConfig(workDir, "", map[string]string{"XDG_CONFIG_HOME": configHome})
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	// Project entries win, global-only entries survive.
	if got, want := cfg.Stores["cache"], "dir:/tmp/cache"; got != want {
		t.Errorf("cache=%q, want=%q", got, want)
	}

	if got, want := cfg.Stores["corpus"], "dir:/srv/corpus"; got != want {
		t.Errorf("corpus=%q, want=%q", got, want)
	}

	if cfg.Sources.Global == "" || cfg.Sources.Project == "" {
		t.Errorf("sources=%+v, want both set", cfg.Sources)
	}
}

func Test_LoadConfig_Explicit_File_Must_Exist(t *testing.T) {
	t.Parallel()

	_, err := cli.LoadConfig(t.TempDir(), filepath.Join(t.TempDir(), "nope.json"), nil)
	if err == nil {
		t.Fatal("want error for missing explicit config")
	}
}

func Test_LoadConfig_Rejects_Malformed_File(t *testing.T) {
	t.Parallel()

	workDir := t.TempDir()
	writeFile(t, filepath.Join(workDir, ".dsctl.json"), `{"stores": [1, 2]}`)

	_, err := cli.LoadConfig(workDir, "", nil)
	if err == nil {
		t.Fatal("want error for malformed config")
	}
}
