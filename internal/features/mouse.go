package features

import (
	"encoding/binary"
	"fmt"
	"os"
	"syscall"

	"github.com/char5742/mouse-filter/internal/device"
	"github.com/char5742/mouse-filter/internal/event"
	"github.com/char5742/mouse-filter/internal/utils"
)

// ButtonEvent はボタンの押下/解放を表す
type ButtonEvent struct {
	Code  uint16
	Value int32
}

// Frame は1回のSYN_REPORTまでにデバイスが報告した内容
// フィルタの対象はDX/DYのみで、ボタンとホイールはそのまま通す
type Frame struct {
	DX      int32
	DY      int32
	Wheel   int32
	Buttons []ButtonEvent
}

// 物理マウスからの入力を扱うインターフェース
type Mouse interface {
	// 次のフレームを読み取る。イベントが来ていない場合はok=false
	ReadFrame() (frame Frame, ok bool)
	// マウス操作を専有する
	Grab() error
	// マウス操作の専有を解除する
	Release() error
	Close() error
}

type physicalMouse struct {
	file    *os.File
	grabbed bool

	// SYN_REPORT前に読み取りが途切れたフレームの持ち越し
	pending    Frame
	pendingSet bool
}

// 指定されたパスでマウスを開く
func CreateMouse(path string) (Mouse, error) {
	f, err := os.OpenFile(path, syscall.O_RDWR|syscall.O_NONBLOCK, 0660)
	if err != nil {
		return nil, fmt.Errorf("failed to open device file: %w", err)
	}
	return &physicalMouse{file: f}, nil
}

// ReadFrame はSYN_REPORTが来るまでイベントを読み集める
// SYN_REPORT前に読み取りが途切れた場合は読めた分を持ち越してok=falseを
// 返し、次回の呼び出しで同じフレームの続きとして扱う。これにより
// デバイスが1つのSYN_REPORTで報告した内容が2フレームに分かれることはない
func (m *physicalMouse) ReadFrame() (Frame, bool) {
	for {
		e, err := m.readEvent()
		if err != nil {
			return Frame{}, false
		}

		switch e.Type {
		case event.Syn:
			if e.Code == event.SynReport && m.pendingSet {
				frame := m.pending
				m.pending = Frame{}
				m.pendingSet = false
				return frame, true
			}
		case event.Rel:
			m.pendingSet = true
			switch e.Code {
			case event.RelX:
				m.pending.DX += e.Value
			case event.RelY:
				m.pending.DY += e.Value
			case event.RelWheel:
				m.pending.Wheel += e.Value
			}
		case event.Key:
			m.pendingSet = true
			m.pending.Buttons = append(m.pending.Buttons, ButtonEvent{Code: e.Code, Value: e.Value})
		}
	}
}

// readEvent は1つのinput_eventを読み取ってデコードする
func (m *physicalMouse) readEvent() (event.Event, error) {
	var e event.Event
	size := binary.Size(e)
	buf := make([]byte, size)

	if _, err := m.file.Read(buf); err != nil {
		return e, err
	}

	e.Time.Sec = int64(binary.LittleEndian.Uint64(buf[0:8]))
	e.Time.Usec = int64(binary.LittleEndian.Uint64(buf[8:16]))
	e.Type = binary.LittleEndian.Uint16(buf[16:18])
	e.Code = binary.LittleEndian.Uint16(buf[18:20])
	e.Value = int32(binary.LittleEndian.Uint32(buf[20:24]))
	return e, nil
}

func (m *physicalMouse) Grab() error {
	if m.grabbed {
		return nil
	}
	if err := utils.IOCtl(m.file, device.EVIOCGRAB, 1); err != nil {
		return fmt.Errorf("failed to grab device: %w", err)
	}
	m.grabbed = true
	return nil
}

func (m *physicalMouse) Release() error {
	if !m.grabbed {
		return nil
	}
	if err := utils.IOCtl(m.file, device.EVIOCGRAB, 0); err != nil {
		return fmt.Errorf("failed to release device: %w", err)
	}
	m.grabbed = false
	return nil
}

func (m *physicalMouse) Close() error {
	_ = m.Release()
	return m.file.Close()
}
