package api

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/char5742/mouse-filter/internal/config"
	"github.com/char5742/mouse-filter/internal/features"
	"github.com/char5742/mouse-filter/internal/filter"
)

// FilterService はマウスの専有からフィルタ済みイベントの送出までを
// 管理する構造体。エンジンはサービスと同じ寿命で、デバイス1つにつき1つ
type FilterService struct {
	cfg          *config.Config
	engine       *filter.Engine
	stopChan     chan struct{}
	running      bool
	statusMutex  sync.RWMutex
	mouse        features.Mouse
	virtualMouse features.VirtualMouse
	monitor      *features.DeviceMonitor
	devicePath   string
	updateConfig chan *config.Config
}

// NewFilterService は新しいフィルタサービスを作成する
func NewFilterService(cfg *config.Config) *FilterService {
	s := &FilterService{
		cfg:          cfg,
		engine:       filter.New(),
		stopChan:     make(chan struct{}),
		running:      false,
		updateConfig: make(chan *config.Config, 1),
	}
	s.applyFilterConfig(cfg.Filter)
	return s
}

// Engine はサービスが保持するフィルタエンジンを返す
func (s *FilterService) Engine() *filter.Engine {
	return s.engine
}

// applyFilterConfig は設定ファイルの値をエンジンへ反映する
// 設定値はロード時に検証済みだが、範囲外はここでも拒否される
func (s *FilterService) applyFilterConfig(fc config.FilterConfig) {
	if err := s.engine.SetSmoothingFactor(fc.SmoothingFactor); err != nil {
		log.Printf("smoothing_factor の反映に失敗しました: %v", err)
	}
	if err := s.engine.SetResponseSpeed(fc.ResponseSpeed); err != nil {
		log.Printf("response_speed の反映に失敗しました: %v", err)
	}
	if err := s.engine.SetFilteringStrength(fc.FilteringStrength); err != nil {
		log.Printf("filtering_strength の反映に失敗しました: %v", err)
	}
	s.engine.SetActive(fc.Active)
}

// Start はフィルタサービスを開始する
func (s *FilterService) Start() error {
	s.statusMutex.Lock()
	defer s.statusMutex.Unlock()

	if s.running {
		return fmt.Errorf("サービスは既に実行中です")
	}

	// 物理マウスデバイスの選択
	mouseDevice, err := features.FindDevice(s.cfg.DevicePrefs.PreferredMouseDevice)
	if err != nil {
		return fmt.Errorf("デバイス一覧の取得に失敗しました: %v", err)
	}
	if mouseDevice == nil {
		return fmt.Errorf("マウスデバイスが見つかりませんでした")
	}
	log.Printf("使用するマウス: %s", mouseDevice.Name)

	// 仮想マウスデバイスの作成
	virtualMouse, err := features.CreateVirtualMouse(
		s.cfg.VirtualMouse.DevicePath, []byte(s.cfg.VirtualMouse.Name))
	if err != nil {
		return fmt.Errorf("仮想マウスの作成に失敗しました: %v", err)
	}
	s.virtualMouse = virtualMouse

	// 物理マウスデバイスを開いて専有する
	mouse, err := features.CreateMouse(mouseDevice.Path)
	if err != nil {
		s.virtualMouse.Close()
		return fmt.Errorf("マウスデバイスのオープンに失敗しました[path=%s]: %v", mouseDevice.Path, err)
	}
	if err := mouse.Grab(); err != nil {
		mouse.Close()
		s.virtualMouse.Close()
		return fmt.Errorf("マウスデバイスの専有に失敗しました: %v", err)
	}
	s.mouse = mouse
	s.devicePath = mouseDevice.Path

	s.stopChan = make(chan struct{})
	s.running = true

	// 使用中のマウスの抜き差しを監視する
	// モニターを作成できなくてもフィルタ処理自体は続行する
	monitor, err := features.NewDeviceMonitor()
	if err != nil {
		log.Printf("デバイスモニターを作成できませんでした: %v", err)
	} else if err := monitor.Start(); err != nil {
		log.Printf("デバイスモニターを開始できませんでした: %v", err)
	} else {
		monitor.RegisterCallback(s.handleDeviceEvent)
		s.monitor = monitor
	}

	// フィルタ処理のメインループを開始
	go s.runFilterLoop()

	return nil
}

// handleDeviceEvent は使用中のマウスが切断されたらサービスを停止する
func (s *FilterService) handleDeviceEvent(ev features.DeviceEvent) {
	s.statusMutex.RLock()
	devicePath := s.devicePath
	s.statusMutex.RUnlock()

	if ev.Type != features.DeviceRemoved || ev.Device.Path != devicePath {
		return
	}
	log.Printf("使用中のマウスが切断されました: %s", ev.Device.Name)
	if err := s.Stop(); err != nil {
		log.Printf("サービスの停止に失敗しました: %v", err)
	}
}

// Stop はフィルタサービスを停止する
func (s *FilterService) Stop() error {
	s.statusMutex.Lock()
	defer s.statusMutex.Unlock()

	if !s.running {
		return fmt.Errorf("サービスは実行されていません")
	}

	close(s.stopChan)
	s.running = false

	if s.monitor != nil {
		s.monitor.Stop()
		s.monitor = nil
	}

	// デバイスのクローズは runFilterLoop 内で行われる

	return nil
}

// UpdateConfig は設定を更新する
func (s *FilterService) UpdateConfig(cfg *config.Config) {
	select {
	case s.updateConfig <- cfg:
		// 設定更新チャネルに送信成功
	default:
		// チャネルがブロックされている場合は古い設定を破棄して新しい設定を送信
		select {
		case <-s.updateConfig:
		default:
		}
		s.updateConfig <- cfg
	}
}

// IsRunning はサービスが実行中かどうかを返す
func (s *FilterService) IsRunning() bool {
	s.statusMutex.RLock()
	defer s.statusMutex.RUnlock()
	return s.running
}

// runFilterLoop はサンプル処理のメインループ
// 物理マウスのフレームを読み、X/Yをフィルタして仮想マウスへ流す
// ボタンとホイールは調整せずそのまま通す
func (s *FilterService) runFilterLoop() {
	defer func() {
		if s.mouse != nil {
			s.mouse.Close()
		}
		if s.virtualMouse != nil {
			s.virtualMouse.Close()
		}
		log.Println("フィルタサービスを停止しました")
	}()

	log.Println("フィルタ処理を開始しました...")

	for {
		select {
		case <-s.stopChan:
			return
		default:
			// 設定更新があればエンジンへ反映
			select {
			case newCfg := <-s.updateConfig:
				log.Println("設定を更新しました")
				s.cfg = newCfg
				s.applyFilterConfig(newCfg.Filter)
			default:
			}

			frame, ok := s.mouse.ReadFrame()
			if !ok {
				time.Sleep(100 * time.Microsecond)
				continue
			}

			adjusted := s.engine.Process(filter.Sample{
				X: clampDelta(frame.DX),
				Y: clampDelta(frame.DY),
			})

			out := features.Frame{
				DX:      int32(adjusted.X),
				DY:      int32(adjusted.Y),
				Wheel:   frame.Wheel,
				Buttons: frame.Buttons,
			}
			if err := s.virtualMouse.SendFrame(out); err != nil {
				log.Printf("イベントの送出に失敗しました: %v", err)
			}
		}
	}
}

// clampDelta はevdevの32bit移動量をHIDレポートの8bit範囲に丸める
func clampDelta(v int32) int8 {
	if v < -128 {
		return -128
	}
	if v > 127 {
		return 127
	}
	return int8(v)
}
