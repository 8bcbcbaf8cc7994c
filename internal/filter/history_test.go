package filter

import "testing"

func TestWindowAverageBasic(t *testing.T) {
	var h historyBuffer
	h.push(10, -10)
	h.push(20, -20)
	h.push(30, -30)

	avgX, avgY := h.windowAverage(3)
	if avgX != 20 {
		t.Fatalf("avgX = %d, want 20", avgX)
	}
	if avgY != -20 {
		t.Fatalf("avgY = %d, want -20", avgY)
	}
}

func TestWindowAverageWalksBackwardFromCursor(t *testing.T) {
	var h historyBuffer
	for _, v := range []int{1, 2, 3, 4, 5} {
		h.push(v, v)
	}
	// 直近2件は4と5
	avgX, _ := h.windowAverage(2)
	if avgX != 4 {
		t.Fatalf("avgX = %d, want 4", avgX)
	}
}

func TestWindowAverageAfterWrap(t *testing.T) {
	var h historyBuffer
	// 容量を超えて書き込み、古い値が上書きされることを確認する
	for v := 1; v <= 15; v++ {
		h.push(v, 0)
	}
	// 残っているのは6..15
	avgX, _ := h.windowAverage(historySize)
	want := (6 + 7 + 8 + 9 + 10 + 11 + 12 + 13 + 14 + 15) / 10
	if avgX != want {
		t.Fatalf("avgX = %d, want %d", avgX, want)
	}
}

func TestWindowAverageTruncatesTowardZero(t *testing.T) {
	var h historyBuffer
	h.push(-1, 1)
	h.push(-2, 2)

	avgX, avgY := h.windowAverage(2)
	// -3/2 は0方向へ切り捨てられ-1になる
	if avgX != -1 {
		t.Fatalf("avgX = %d, want -1", avgX)
	}
	if avgY != 1 {
		t.Fatalf("avgY = %d, want 1", avgY)
	}
}

func TestWindowAverageClampsWindow(t *testing.T) {
	var h historyBuffer
	h.push(50, 50)

	// 0以下は1として扱う
	avgX, _ := h.windowAverage(0)
	if avgX != 50 {
		t.Fatalf("avgX = %d, want 50 for window 0", avgX)
	}

	// 容量超えはhistorySizeに丸める（未書き込みスロットは0）
	avgX, _ = h.windowAverage(99)
	if avgX != 5 {
		t.Fatalf("avgX = %d, want 5 for window 99", avgX)
	}
}

func TestResetZeroFills(t *testing.T) {
	var h historyBuffer
	for v := 0; v < 7; v++ {
		h.push(100, -100)
	}
	h.reset()

	if h.index != 0 {
		t.Fatalf("index = %d, want 0 after reset", h.index)
	}
	avgX, avgY := h.windowAverage(historySize)
	if avgX != 0 || avgY != 0 {
		t.Fatalf("average after reset = (%d, %d), want (0, 0)", avgX, avgY)
	}
}
