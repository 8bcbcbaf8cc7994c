package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Filter.Active {
		t.Fatal("Filter.Active = true, want false by default")
	}
	if cfg.Filter.SmoothingFactor != 50 || cfg.Filter.ResponseSpeed != 50 || cfg.Filter.FilteringStrength != 50 {
		t.Fatalf("filter defaults = %+v, want 50/50/50", cfg.Filter)
	}
	if cfg.VirtualMouse.DevicePath != "/dev/uinput" {
		t.Fatalf("VirtualMouse.DevicePath = %q, want /dev/uinput", cfg.VirtualMouse.DevicePath)
	}
}

func TestLoadConfigCreatesDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() = %v", err)
	}
	if *cfg != *DefaultConfig() {
		t.Fatalf("LoadConfig() = %+v, want defaults", cfg)
	}

	// 存在しなかったファイルはデフォルト設定で作成されている
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("config file not created: %v", err)
	}
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	want := DefaultConfig()
	want.Filter.Active = true
	want.Filter.SmoothingFactor = 80
	want.DevicePrefs.PreferredMouseDevice = "usb-test-mouse-event-mouse"

	if err := SaveConfig(path, want); err != nil {
		t.Fatalf("SaveConfig() = %v", err)
	}
	got, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() = %v", err)
	}
	if *got != *want {
		t.Fatalf("round trip = %+v, want %+v", got, want)
	}
}

func TestLoadConfigRejectsOutOfRange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	bad := DefaultConfig()
	bad.Filter.SmoothingFactor = 120
	if err := SaveConfig(path, bad); err != nil {
		t.Fatalf("SaveConfig() = %v", err)
	}

	got, err := LoadConfig(path)
	if err == nil {
		t.Fatal("LoadConfig() = nil error, want validation error")
	}
	// 検証に失敗した場合はデフォルト設定に戻る
	if *got != *DefaultConfig() {
		t.Fatalf("LoadConfig() = %+v, want defaults on validation failure", got)
	}
}

func TestValidate(t *testing.T) {
	fc := FilterConfig{SmoothingFactor: 100, ResponseSpeed: 0, FilteringStrength: 50}
	if err := fc.Validate(); err != nil {
		t.Fatalf("Validate() = %v, want nil", err)
	}

	fc.ResponseSpeed = -1
	if err := fc.Validate(); err == nil {
		t.Fatal("Validate() = nil, want error for response_speed=-1")
	}
}
