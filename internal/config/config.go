package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config はアプリケーション全体の設定を表す構造体
type Config struct {
	Filter       FilterConfig       `toml:"filter"`
	DevicePrefs  DevicePrefsConfig  `toml:"device_prefs"`
	VirtualMouse VirtualMouseConfig `toml:"virtual_mouse"`
}

// FilterConfig はサンプルフィルタの設定
type FilterConfig struct {
	Active            bool `toml:"active"`
	SmoothingFactor   int  `toml:"smoothing_factor"`
	ResponseSpeed     int  `toml:"response_speed"`
	FilteringStrength int  `toml:"filtering_strength"`
}

// DevicePrefsConfig はデバイス選択の設定
type DevicePrefsConfig struct {
	PreferredMouseDevice string `toml:"preferred_mouse_device"`
}

// VirtualMouseConfig は仮想マウスデバイスの設定
type VirtualMouseConfig struct {
	DevicePath string `toml:"device_path"`
	Name       string `toml:"name"`
}

// DefaultConfig はデフォルト設定を返す
func DefaultConfig() *Config {
	return &Config{
		Filter: FilterConfig{
			Active:            false,
			SmoothingFactor:   50,
			ResponseSpeed:     50,
			FilteringStrength: 50,
		},
		DevicePrefs: DevicePrefsConfig{
			PreferredMouseDevice: "",
		},
		VirtualMouse: VirtualMouseConfig{
			DevicePath: "/dev/uinput",
			Name:       "FilteredMouse",
		},
	}
}

// Validate はフィルタ設定値が範囲内かを確認する
func (fc *FilterConfig) Validate() error {
	for name, v := range map[string]int{
		"smoothing_factor":   fc.SmoothingFactor,
		"response_speed":     fc.ResponseSpeed,
		"filtering_strength": fc.FilteringStrength,
	} {
		if v < 0 || v > 100 {
			return fmt.Errorf("%s が範囲外です: %d (0-100)", name, v)
		}
	}
	return nil
}

// GetDefaultConfigDir はデフォルトの設定ディレクトリを返す
func GetDefaultConfigDir() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "mouse-filter"), nil
}

// LoadConfig は設定ファイルから設定を読み込む
func LoadConfig(configPath string) (*Config, error) {
	// デフォルト設定を用意
	config := DefaultConfig()

	// ファイルが存在しない場合はデフォルト設定を保存して返す
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		if err := SaveConfig(configPath, config); err != nil {
			return config, err
		}
		return config, nil
	}

	// 設定ファイルの読み込み
	if _, err := toml.DecodeFile(configPath, config); err != nil {
		return config, err
	}

	// フィルタ設定値の検証
	if err := config.Filter.Validate(); err != nil {
		return DefaultConfig(), err
	}

	return config, nil
}

// SaveConfig は設定をTOMLファイルに保存する
func SaveConfig(configPath string, config *Config) error {
	// 設定ディレクトリの作成
	configDir := filepath.Dir(configPath)
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return err
	}

	// ファイルを開く（なければ作成）
	f, err := os.Create(configPath)
	if err != nil {
		return err
	}
	defer f.Close()

	// TOML形式でエンコードして書き込み
	encoder := toml.NewEncoder(f)
	return encoder.Encode(config)
}
