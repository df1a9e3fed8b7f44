package correlate

import "math"

// Pearson 计算两个等长序列的皮尔逊相关系数，取值 [-1, 1]。
// 长度不等、为空，或任一方差为零（退化的常数序列）时钳制为 0：
// 平坦窗口按 0 参与比较，可能胜过弱负相关的候选。
func Pearson(x, y []float64) float64 {
	n := len(x)
	if n == 0 || n != len(y) {
		return 0
	}

	var meanX, meanY float64
	for i := 0; i < n; i++ {
		meanX += x[i]
		meanY += y[i]
	}
	meanX /= float64(n)
	meanY /= float64(n)

	var num, denX, denY float64
	for i := 0; i < n; i++ {
		dx := x[i] - meanX
		dy := y[i] - meanY
		num += dx * dy
		denX += dx * dx
		denY += dy * dy
	}

	if denX == 0 || denY == 0 {
		return 0
	}
	return num / (math.Sqrt(denX) * math.Sqrt(denY))
}
