package api

import (
	"testing"

	"github.com/char5742/mouse-filter/internal/config"
	"github.com/char5742/mouse-filter/internal/features"
)

// newRunningService は実行中状態のサービスを組み立てる
// デバイスを開かずにデバイスイベントの扱いだけを検証するための下準備
func newRunningService(devicePath string) *FilterService {
	s := NewFilterService(config.DefaultConfig())
	s.devicePath = devicePath
	s.running = true
	return s
}

func TestDeviceRemovalStopsService(t *testing.T) {
	s := newRunningService("/dev/input/event5")

	// 別のデバイスの切断では停止しない
	s.handleDeviceEvent(features.DeviceEvent{
		Type:   features.DeviceRemoved,
		Device: features.Device{Name: "other-mouse", Path: "/dev/input/event9"},
	})
	if !s.IsRunning() {
		t.Fatal("service stopped on removal of an unrelated device")
	}

	// 追加イベントでは停止しない
	s.handleDeviceEvent(features.DeviceEvent{
		Type:   features.DeviceAdded,
		Device: features.Device{Name: "in-use-mouse", Path: "/dev/input/event5"},
	})
	if !s.IsRunning() {
		t.Fatal("service stopped on a device-added event")
	}

	// 使用中デバイスの切断で停止する
	s.handleDeviceEvent(features.DeviceEvent{
		Type:   features.DeviceRemoved,
		Device: features.Device{Name: "in-use-mouse", Path: "/dev/input/event5"},
	})
	if s.IsRunning() {
		t.Fatal("service still running after its mouse was removed")
	}
}

func TestApplyFilterConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Filter.Active = true
	cfg.Filter.SmoothingFactor = 80
	cfg.Filter.ResponseSpeed = 20
	cfg.Filter.FilteringStrength = 70

	s := NewFilterService(cfg)
	got := s.Engine().Parameters()
	if !got.Active || got.SmoothingFactor != 80 || got.ResponseSpeed != 20 || got.FilteringStrength != 70 {
		t.Fatalf("engine parameters = %+v, want config values applied", got)
	}
}
