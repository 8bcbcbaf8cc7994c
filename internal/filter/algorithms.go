package filter

import "math"

// algorithm はサンプルごとに選択されるスムージングアルゴリズムの種別
type algorithm int

const (
	algorithmExponential algorithm = iota
	algorithmMovingAverage
	algorithmAdaptive
)

// スムージング係数によるアルゴリズム選択のしきい値
// 75と25の境界の扱い（75はMovingAverage、25はAdaptive）は固定仕様
const (
	exponentialThreshold = 75
	adaptiveThreshold    = 25
)

// selectAlgorithm はスムージング係数からアルゴリズムを決定する
func selectAlgorithm(smoothingFactor int) algorithm {
	switch {
	case smoothingFactor > exponentialThreshold:
		return algorithmExponential
	case smoothingFactor > adaptiveThreshold:
		return algorithmMovingAverage
	default:
		return algorithmAdaptive
	}
}

// exponentialStep は1次IIR（指数平滑）を1軸分適用する
// 設定上の「スムージング」が大きいほどalphaは小さくなり、減衰が強くなる
func exponentialStep(input, last, smoothingFactor int) int {
	alpha := clampFloat(float64(100-smoothingFactor)/100.0, 0.01, 1.0)
	out := math.Round(float64(input)*alpha + float64(last)*(1-alpha))
	return clampSample(int(out))
}

// movingAverageWindow はフィルタ強度から移動平均のウィンドウ幅を決める
func movingAverageWindow(filteringStrength int) int {
	window := 3 + filteringStrength*7/100
	if window < 1 {
		window = 1
	}
	if window > historySize {
		window = historySize
	}
	return window
}

// adaptiveStep は速度適応型の指数平滑を1軸分適用する
// velocityは現在サンプルの|x|+|y|（両軸共通の速度近似）で、
// 速い動きほどalphaが1に近づき減衰が弱まる
func adaptiveStep(input, last, velocity, responseSpeed int) int {
	velocityFactor := clampFloat(float64(velocity)/20.0, 0, 1)
	baseAlpha := float64(responseSpeed) / 100.0
	alpha := clampFloat(baseAlpha+(1-baseAlpha)*velocityFactor, 0.1, 0.9)
	out := math.Round(float64(input)*alpha + float64(last)*(1-alpha))
	return clampSample(int(out))
}

// clampFloat は値を[lo, hi]の範囲に制限する
func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
