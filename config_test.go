package usox

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTempConfig(t *testing.T, name, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write temp config: %+v", err)
	}
	return path
}

func TestLoadLoopConfigYAML(t *testing.T) {
	path := writeTempConfig(t, "loop.yaml", `
global:
  log_level: debug
sweep_granularity_sec: 2
shards: 4
`)
	cfg, err := LoadLoopConfig(path)
	if err != nil {
		t.Fatalf("LoadLoopConfig: %+v", err)
	}
	if cfg.SweepGranularitySec != 2 {
		t.Fatalf("SweepGranularitySec = %d, want 2", cfg.SweepGranularitySec)
	}
	if cfg.Shards != 4 {
		t.Fatalf("Shards = %d, want 4", cfg.Shards)
	}
	if cfg.RecvBufferLength != DefaultRecvBufferLength {
		t.Fatalf("RecvBufferLength default not applied: %d", cfg.RecvBufferLength)
	}
}

func TestLoadLoopConfigTOML(t *testing.T) {
	path := writeTempConfig(t, "loop.toml", `
lock_os_thread = true

[global]
log_level = "info"
`)
	cfg, err := LoadLoopConfig(path)
	if err != nil {
		t.Fatalf("LoadLoopConfig: %+v", err)
	}
	if !cfg.LockOSThread {
		t.Fatalf("LockOSThread = false, want true")
	}
	if cfg.Shards != 1 {
		t.Fatalf("Shards default = %d, want 1", cfg.Shards)
	}
}

func TestLoadLoopConfigUnknownExtension(t *testing.T) {
	path := writeTempConfig(t, "loop.ini", "nope")
	if _, err := LoadLoopConfig(path); err != errUnknownConfigExt {
		t.Fatalf("err = %v, want errUnknownConfigExt", err)
	}
}
