package features

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"syscall"

	"github.com/char5742/mouse-filter/internal/device"
	"github.com/char5742/mouse-filter/internal/event"
	"github.com/char5742/mouse-filter/internal/utils"
)

// フィルタ済みイベントを送出する仮想マウスのインターフェース
type VirtualMouse interface {
	// 1フレーム分のイベントを書き込み、SYN_REPORTで締める
	SendFrame(frame Frame) error
	io.Closer
}

type virtualMouse struct {
	name       []byte
	deviceFile *os.File
}

// 新しい仮想マウスデバイスを作成する
func CreateVirtualMouse(path string, name []byte) (VirtualMouse, error) {
	fd, err := createVirtualMouse(path, name)
	if err != nil {
		return nil, err
	}

	return &virtualMouse{name: name, deviceFile: fd}, nil
}

func (vm *virtualMouse) Close() error {
	_ = releaseDevice(vm.deviceFile)
	return vm.deviceFile.Close()
}

func createVirtualMouse(path string, name []byte) (*os.File, error) {
	deviceFile, err := createDeviceFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not create relative axis input device: %v", err)
	}

	// キー入力イベント(EV_KEY)を登録する
	// これによりマウスボタンの送出が可能になる
	err = registerDevice(deviceFile, uintptr(event.Key))
	if err != nil {
		_ = deviceFile.Close()
		return nil, fmt.Errorf("キー入力イベント(EV_KEY)の登録に失敗しました: %v", err)
	}

	// 送出するボタンの種類を登録する
	for _, ev := range []int{
		event.MouseBtnLeft,   // マウス左ボタン
		event.MouseBtnRight,  // マウス右ボタン
		event.MouseBtnMiddle, // マウス中ボタン
		event.MouseBtnSide,   // マウスサイドボタン
		event.MouseBtnExtra,  // マウス拡張ボタン
	} {
		if err = utils.IOCtl(deviceFile, device.SetKeyBit, uintptr(ev)); err != nil {
			_ = deviceFile.Close()
			return nil, fmt.Errorf("ボタン種別の登録に失敗しました %v: %v", ev, err)
		}
	}

	// 相対座標入力イベント(EV_REL)を登録する
	err = registerDevice(deviceFile, uintptr(event.Rel))
	if err != nil {
		_ = deviceFile.Close()
		return nil, fmt.Errorf("相対座標入力イベント(EV_REL)の登録に失敗しました: %v", err)
	}

	// X軸・Y軸・ホイールを登録する
	for _, ev := range []int{event.RelX, event.RelY, event.RelWheel} {
		if err = utils.IOCtl(deviceFile, device.SetRelBit, uintptr(ev)); err != nil {
			_ = deviceFile.Close()
			return nil, fmt.Errorf("相対軸の登録に失敗しました %v: %v", ev, err)
		}
	}

	// ポインターデバイスプロパティを設定する
	if err := utils.IOCtl(deviceFile, device.SetPropBit, uintptr(device.PropPointer)); err != nil {
		_ = deviceFile.Close()
		return nil, fmt.Errorf("ポインターデバイスプロパティの設定に失敗しました: %v", err)
	}

	userDev := device.UserDev{
		Name: toUinputName(name),
		ID: device.InputID{
			Bustype: device.BusUsb,
			Vendor:  0x4711,
			Product: 0x0818,
			Version: 1,
		},
	}

	fd, err := createUsbDevice(deviceFile, userDev)
	if err != nil {
		_ = deviceFile.Close()
		return nil, fmt.Errorf("USBデバイスの作成に失敗しました: %v", err)
	}

	return fd, nil
}

// SendFrame はフレームの内容をイベント列に展開して書き込む
func (vm *virtualMouse) SendFrame(frame Frame) error {
	var events []event.Event

	if frame.DX != 0 {
		events = append(events, event.Event{Type: event.Rel, Code: event.RelX, Value: frame.DX})
	}
	if frame.DY != 0 {
		events = append(events, event.Event{Type: event.Rel, Code: event.RelY, Value: frame.DY})
	}
	if frame.Wheel != 0 {
		events = append(events, event.Event{Type: event.Rel, Code: event.RelWheel, Value: frame.Wheel})
	}
	for _, btn := range frame.Buttons {
		events = append(events, event.Event{Type: event.Key, Code: btn.Code, Value: btn.Value})
	}

	if len(events) == 0 {
		return nil
	}
	events = append(events, event.Event{Type: event.Syn, Code: event.SynReport, Value: 0})

	return writeEvents(vm.deviceFile, events)
}

// デバイスファイルを作成する
func createDeviceFile(path string) (fd *os.File, err error) {
	deviceFile, err := os.OpenFile(path, syscall.O_WRONLY|syscall.O_NONBLOCK, 0660)
	if err != nil {
		return nil, errors.New("デバイスファイルを開くのに失敗しました")
	}
	return deviceFile, err
}

// デバイスを解放する
func releaseDevice(deviceFile *os.File) error {
	return utils.IOCtl(deviceFile, device.DevDestroy, uintptr(0))
}

// デバイスを登録する
func registerDevice(deviceFile *os.File, evType uintptr) error {
	err := utils.IOCtl(deviceFile, device.SetEvBit, evType)
	if err != nil {
		defer deviceFile.Close()
		err = releaseDevice(deviceFile)
		if err != nil {
			return fmt.Errorf("デバイスを解放するのに失敗しました: %v", err)
		}
		return fmt.Errorf("無効なファイルハンドルがutils.IOCtlから返されました: %v", err)
	}
	return nil
}

// USBデバイスを作成する
func createUsbDevice(deviceFile *os.File, dev device.UserDev) (fd *os.File, err error) {
	buf := new(bytes.Buffer)
	err = binary.Write(buf, binary.LittleEndian, dev)
	if err != nil {
		_ = deviceFile.Close()
		return nil, fmt.Errorf("ユーザーデバイスバッファの書き込みに失敗しました: %v", err)
	}
	_, err = deviceFile.Write(buf.Bytes())
	if err != nil {
		_ = deviceFile.Close()
		return nil, fmt.Errorf("デバイス構造体をデバイスファイルに書き込むのに失敗しました: %v", err)
	}

	err = utils.IOCtl(deviceFile, device.DevCreate, uintptr(0))
	if err != nil {
		_ = deviceFile.Close()
		return nil, fmt.Errorf("デバイスの作成に失敗しました: %v", err)
	}

	return deviceFile, err
}

// イベントを書き込む
func writeEvents(deviceFile *os.File, events []event.Event) error {
	for _, ev := range events {
		buf := new(bytes.Buffer)
		if err := binary.Write(buf, binary.LittleEndian, ev); err != nil {
			return fmt.Errorf("イベントをバッファに書き込むのに失敗しました: %v", err)
		}
		if _, err := deviceFile.Write(buf.Bytes()); err != nil {
			return fmt.Errorf("イベントの書き込みに失敗しました: %v", err)
		}
	}
	return nil
}

// 名前をuinput用の固定長配列に変換する
func toUinputName(name []byte) (uinputName [device.MaxNameSize]byte) {
	var fixedSizeName [device.MaxNameSize]byte
	copy(fixedSizeName[:], name)
	return fixedSizeName
}
