package filter

import (
	"errors"
	"sync"
)

// ErrInvalidParameter は設定値が[0, 100]の範囲外だった場合に返されるエラー
var ErrInvalidParameter = errors.New("parameter out of range [0, 100]")

// パラメータの有効範囲
const (
	paramMin = 0
	paramMax = 100
)

// Parameters はフィルタの設定値を保持する構造体
// 設定の書き込みはAPI側のゴルーチンから、読み取りはサンプル処理側から
// 行われるため、RWMutexで保護する。途中状態が観測されることはない
type Parameters struct {
	mu                sync.RWMutex
	active            bool
	smoothingFactor   int
	responseSpeed     int
	filteringStrength int
}

// Snapshot はある時点のパラメータの一貫したコピー
type Snapshot struct {
	Active            bool `json:"active"`
	SmoothingFactor   int  `json:"smoothing_factor"`
	ResponseSpeed     int  `json:"response_speed"`
	FilteringStrength int  `json:"filtering_strength"`
}

// SetActive はフィルタの有効/無効を切り替える
func (p *Parameters) SetActive(active bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.active = active
}

// SetSmoothingFactor はスムージング係数を設定する
// 範囲外の値は拒否され、元の値が保持される
func (p *Parameters) SetSmoothingFactor(v int) error {
	if v < paramMin || v > paramMax {
		return ErrInvalidParameter
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.smoothingFactor = v
	return nil
}

// SetResponseSpeed は応答速度を設定する
func (p *Parameters) SetResponseSpeed(v int) error {
	if v < paramMin || v > paramMax {
		return ErrInvalidParameter
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.responseSpeed = v
	return nil
}

// SetFilteringStrength はフィルタ強度を設定する
func (p *Parameters) SetFilteringStrength(v int) error {
	if v < paramMin || v > paramMax {
		return ErrInvalidParameter
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.filteringStrength = v
	return nil
}

// Snapshot は現在のパラメータの一貫したコピーを返す
func (p *Parameters) Snapshot() Snapshot {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return Snapshot{
		Active:            p.active,
		SmoothingFactor:   p.smoothingFactor,
		ResponseSpeed:     p.responseSpeed,
		FilteringStrength: p.filteringStrength,
	}
}
