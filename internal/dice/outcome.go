// Package dice 命运骰规则：d6 修正与 d20 结果判定
package dice

import "math"

// Outcome 检定结果
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeNeutral Outcome = "neutral"
	OutcomeFailure Outcome = "failure"
)

// 点数范围
const (
	MinD6         = 1
	MaxD6         = 6
	MinD20        = 1
	MaxD20        = 20
	MinDifficulty = -3
	MaxDifficulty = 2
)

// Valid 判断是否为已知结果
func (o Outcome) Valid() bool {
	switch o {
	case OutcomeSuccess, OutcomeNeutral, OutcomeFailure:
		return true
	}
	return false
}

// Calculate 根据修正后的d6与d20点数判定结果
//
//	6    必定成功
//	5    d20 > 10 成功，否则中立
//	3-4  d20 > 15 成功，d20 > 5 中立，否则失败
//	1-2  d20 > 10 中立，否则失败
//
// modifiedD6 应已由 ModifiedD6 截断到 [1,6]，越界值按最近的档位处理。
func Calculate(modifiedD6, d20 int) Outcome {
	switch {
	case modifiedD6 >= 6:
		return OutcomeSuccess
	case modifiedD6 == 5:
		if d20 > 10 {
			return OutcomeSuccess
		}
		return OutcomeNeutral
	case modifiedD6 >= 3:
		if d20 > 15 {
			return OutcomeSuccess
		}
		if d20 > 5 {
			return OutcomeNeutral
		}
		return OutcomeFailure
	default:
		if d20 > 10 {
			return OutcomeNeutral
		}
		return OutcomeFailure
	}
}

// Clamp 将 v 限制在 [lo, hi]
func Clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// ModifiedD6 计算修正后的d6点数
func ModifiedD6(die, skill, other, difficulty int) int {
	sum := satAdd(satAdd(satAdd(die, skill), other), difficulty)
	return Clamp(sum, MinD6, MaxD6)
}

// satAdd 饱和加法，溢出时停在 int 边界
func satAdd(a, b int) int {
	c := a + b
	if (c > a) == (b > 0) {
		return c
	}
	if b > 0 {
		return math.MaxInt
	}
	return math.MinInt
}

// ValidD6 d6点数是否合法
func ValidD6(v int) bool {
	return v >= MinD6 && v <= MaxD6
}

// ValidD20 d20点数是否合法
func ValidD20(v int) bool {
	return v >= MinD20 && v <= MaxD20
}

// ValidDifficulty 挑战难度修正是否合法
func ValidDifficulty(v int) bool {
	return v >= MinDifficulty && v <= MaxDifficulty
}
