package filter

// 履歴バッファの長さ
const historySize = 10

// historyBuffer は直近のX/Y生値を保持する固定長のリングバッファ
// 両軸で1つの書き込みカーソルを共有する
type historyBuffer struct {
	x     [historySize]int
	y     [historySize]int
	index int
}

// push は(x, y)を現在のカーソル位置に書き込み、カーソルを1つ進める
func (h *historyBuffer) push(x, y int) {
	h.x[h.index] = x
	h.y[h.index] = y
	h.index = (h.index + 1) % historySize
}

// windowAverage は直近window個のX値とY値それぞれの算術平均を返す
// 整数除算（0方向への切り捨て）で計算する。windowは[1, historySize]に
// 丸められる
func (h *historyBuffer) windowAverage(window int) (avgX, avgY int) {
	if window < 1 {
		window = 1
	}
	if window > historySize {
		window = historySize
	}

	var sumX, sumY int
	for i := 1; i <= window; i++ {
		idx := (h.index - i + historySize) % historySize
		sumX += h.x[idx]
		sumY += h.y[idx]
	}
	return sumX / window, sumY / window
}

// reset は両軸の履歴をゼロクリアし、カーソルを先頭に戻す
func (h *historyBuffer) reset() {
	for i := range h.x {
		h.x[i] = 0
		h.y[i] = 0
	}
	h.index = 0
}
