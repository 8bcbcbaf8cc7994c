package features

import (
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// Device は検出された物理ポインティングデバイス
type Device struct {
	Name string
	Path string
}

// DeviceEventType はデバイスイベントの種類を表す
type DeviceEventType int

const (
	DeviceAdded DeviceEventType = iota
	DeviceRemoved
)

// DeviceEvent はデバイスの接続状態の変化を表す
type DeviceEvent struct {
	Type   DeviceEventType
	Device Device
}

// DeviceCallback はデバイスイベント発生時に呼び出されるコールバック関数の型
type DeviceCallback func(event DeviceEvent)

// ScanDevices は/dev/input/by-idからマウスデバイスを検出する
func ScanDevices() ([]Device, error) {
	entries, err := os.ReadDir("/dev/input/by-id")
	if err != nil {
		return nil, err
	}
	var devices []Device
	for _, entry := range entries {
		// eventノード以外（mouseN形式の旧インターフェース）はスキップ
		if !strings.Contains(entry.Name(), "event") {
			continue
		}
		if !strings.Contains(entry.Name(), "mouse") {
			continue
		}
		fullPath := "/dev/input/by-id/" + entry.Name()
		realPath, err := os.Readlink(fullPath)
		if err != nil {
			continue
		}

		// 絶対パスを構築
		absPath := realPath
		if !strings.HasPrefix(realPath, "/") {
			absPath = "/dev/input/" + filepath.Base(realPath)
		}

		devices = append(devices, Device{Name: entry.Name(), Path: absPath})
	}

	return devices, nil
}

// FindDevice は優先デバイス名に一致するマウスを探す
// 一致するものがなければ最初に見つかったマウスを返す
func FindDevice(preferredName string) (*Device, error) {
	devices, err := ScanDevices()
	if err != nil {
		return nil, err
	}

	var first *Device
	for i := range devices {
		if first == nil {
			first = &devices[i]
		}
		if preferredName != "" && devices[i].Name == preferredName {
			return &devices[i], nil
		}
	}
	return first, nil
}

// DeviceMonitor はマウスの抜き差しを監視する構造体
type DeviceMonitor struct {
	watcher   *fsnotify.Watcher
	callbacks []DeviceCallback
	devices   map[string]Device // パスをキーにしたデバイスマップ
	mutex     sync.RWMutex
	stopChan  chan struct{}
	isRunning bool
}

// NewDeviceMonitor は新しいDeviceMonitorを作成する
func NewDeviceMonitor() (*DeviceMonitor, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &DeviceMonitor{
		watcher:  watcher,
		devices:  make(map[string]Device),
		stopChan: make(chan struct{}),
	}, nil
}

// Start はデバイスの監視を開始する
func (dm *DeviceMonitor) Start() error {
	if dm.isRunning {
		return nil // すでに実行中
	}

	log.Println("デバイスモニターを開始します")
	dm.isRunning = true

	for _, dir := range []string{"/dev/input", "/dev/input/by-id"} {
		if _, err := os.Stat(dir); !os.IsNotExist(err) {
			if err := dm.watcher.Add(dir); err != nil {
				log.Printf("ディレクトリの監視に失敗しました: %s - %v", dir, err)
			}
		}
	}

	// 初期デバイス一覧を取得
	devices, err := ScanDevices()
	if err != nil {
		log.Printf("初期デバイス一覧の取得に失敗しました: %v", err)
	} else {
		log.Printf("初期デバイス検出: %d 個のマウスを検出", len(devices))
		dm.updateDeviceList(devices)
	}

	go dm.watchEvents()

	return nil
}

// Stop はデバイスの監視を停止する
func (dm *DeviceMonitor) Stop() {
	if !dm.isRunning {
		return
	}

	log.Println("デバイスモニターを停止します")
	close(dm.stopChan)
	dm.watcher.Close()
	dm.isRunning = false
}

// RegisterCallback はデバイスイベントのコールバック関数を登録する
func (dm *DeviceMonitor) RegisterCallback(callback DeviceCallback) {
	dm.mutex.Lock()
	defer dm.mutex.Unlock()
	dm.callbacks = append(dm.callbacks, callback)
}

// GetConnectedDevices は現在接続されているデバイスの一覧を返す
func (dm *DeviceMonitor) GetConnectedDevices() []Device {
	dm.mutex.RLock()
	defer dm.mutex.RUnlock()

	devices := make([]Device, 0, len(dm.devices))
	for _, d := range dm.devices {
		devices = append(devices, d)
	}
	return devices
}

// watchEvents はfsnotifyのイベントを受けて再スキャンする
func (dm *DeviceMonitor) watchEvents() {
	for {
		select {
		case <-dm.stopChan:
			return
		case ev, ok := <-dm.watcher.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			devices, err := ScanDevices()
			if err != nil {
				continue
			}
			dm.updateDeviceList(devices)
		case err, ok := <-dm.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("デバイス監視エラー: %v", err)
		}
	}
}

// updateDeviceList は現在のデバイス一覧を更新し、変更があれば通知する
func (dm *DeviceMonitor) updateDeviceList(newDevices []Device) {
	dm.mutex.Lock()

	newMap := make(map[string]Device, len(newDevices))
	for _, d := range newDevices {
		newMap[d.Path] = d
	}

	var events []DeviceEvent
	for path, d := range newMap {
		if _, exists := dm.devices[path]; !exists {
			log.Printf("デバイスが追加されました: %s (%s)", d.Name, path)
			events = append(events, DeviceEvent{Type: DeviceAdded, Device: d})
		}
	}
	for path, d := range dm.devices {
		if _, exists := newMap[path]; !exists {
			log.Printf("デバイスが削除されました: %s (%s)", d.Name, path)
			events = append(events, DeviceEvent{Type: DeviceRemoved, Device: d})
		}
	}
	dm.devices = newMap

	callbacks := make([]DeviceCallback, len(dm.callbacks))
	copy(callbacks, dm.callbacks)
	dm.mutex.Unlock()

	for _, ev := range events {
		for _, cb := range callbacks {
			cb(ev)
		}
	}
}
