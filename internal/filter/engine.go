package filter

// Engine は1つの物理デバイスに対するサンプルフィルタ処理の本体
// 履歴・前回出力・パラメータをすべて専有し、Processはデバイスごとに
// 直列に呼ばれる前提（内部ロックは持たない）。パラメータの変更だけは
// 別ゴルーチンから届くため、Parameters側のロックで保護される
type Engine struct {
	params  Parameters
	history historyBuffer

	// 前回の調整済み出力（減衰計算にフィードバックされる）
	lastXOutput int
	lastYOutput int

	// 前回の生入力（現在は未参照。将来の速度計算用に記録のみ）
	lastXPosition int
	lastYPosition int

	// 初回有効化時に履歴を初期化したかどうか（1回限り）
	historyInitialized bool
}

// New はデフォルト設定のエンジンを作成する
// フィルタ無効、各パラメータ50、履歴と出力状態はゼロ
func New() *Engine {
	e := &Engine{}
	e.params.smoothingFactor = 50
	e.params.responseSpeed = 50
	e.params.filteringStrength = 50
	return e
}

// SetActive はフィルタの有効/無効を切り替える
func (e *Engine) SetActive(active bool) {
	e.params.SetActive(active)
}

// SetSmoothingFactor はスムージング係数(0-100)を設定する
func (e *Engine) SetSmoothingFactor(v int) error {
	return e.params.SetSmoothingFactor(v)
}

// SetResponseSpeed は応答速度(0-100)を設定する
func (e *Engine) SetResponseSpeed(v int) error {
	return e.params.SetResponseSpeed(v)
}

// SetFilteringStrength はフィルタ強度(0-100)を設定する
func (e *Engine) SetFilteringStrength(v int) error {
	return e.params.SetFilteringStrength(v)
}

// Parameters は現在のパラメータのスナップショットを返す
func (e *Engine) Parameters() Snapshot {
	return e.params.Snapshot()
}

// Process は1サンプルを処理して調整済みサンプルを返す
// 無効時は恒等変換で、履歴も出力状態も変化しない。有効時は履歴への
// 記録、アルゴリズム選択、変換適用、出力状態の更新を行う。
// 失敗経路はなく、結果は常に[-128, 127]に収まる
func (e *Engine) Process(s Sample) Sample {
	p := e.params.Snapshot()
	if !p.Active {
		return s
	}

	// 初回有効化時のみ履歴と出力状態をゼロに戻す
	if !e.historyInitialized {
		e.history.reset()
		e.lastXOutput = 0
		e.lastYOutput = 0
		e.lastXPosition = 0
		e.lastYPosition = 0
		e.historyInitialized = true
	}

	x := int(s.X)
	y := int(s.Y)
	e.history.push(x, y)

	var outX, outY int
	switch selectAlgorithm(p.SmoothingFactor) {
	case algorithmExponential:
		outX = exponentialStep(x, e.lastXOutput, p.SmoothingFactor)
		outY = exponentialStep(y, e.lastYOutput, p.SmoothingFactor)

	case algorithmMovingAverage:
		window := movingAverageWindow(p.FilteringStrength)
		avgX, avgY := e.history.windowAverage(window)
		outX = clampSample(avgX)
		outY = clampSample(avgY)

	case algorithmAdaptive:
		velocity := abs(x) + abs(y)
		outX = adaptiveStep(x, e.lastXOutput, velocity, p.ResponseSpeed)
		outY = adaptiveStep(y, e.lastYOutput, velocity, p.ResponseSpeed)
	}

	e.lastXOutput = outX
	e.lastYOutput = outY
	e.lastXPosition = x
	e.lastYPosition = y

	return Sample{X: int8(outX), Y: int8(outY)}
}

// abs は整数の絶対値を返す
func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
