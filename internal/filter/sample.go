package filter

// Sample は1回の相対移動レポート（X/Yの移動量）を表す構造体
// HIDレポートに合わせて各軸は[-128, 127]の8bit符号付き範囲
type Sample struct {
	X int8
	Y int8
}

// サンプル値の範囲（HIDレポートの8bit符号付き範囲）
const (
	sampleMin = -128
	sampleMax = 127
)

// clampSample は値をサンプル範囲[-128, 127]に制限する
// 全アルゴリズム共通で、8bitに戻す前に必ず適用する
func clampSample(v int) int {
	if v < sampleMin {
		return sampleMin
	}
	if v > sampleMax {
		return sampleMax
	}
	return v
}
