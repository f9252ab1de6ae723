package dice

import (
	crand "crypto/rand"
	"encoding/binary"
	"math/rand"
	"sync"
)

// Roller 骰子点数来源，测试中可替换为固定序列
type Roller interface {
	D6() int
	D20() int
}

// randRoller 基于 math/rand 的并发安全实现
type randRoller struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewRoller 使用固定种子创建，相同种子产生相同序列
func NewRoller(seed int64) Roller {
	return &randRoller{rng: rand.New(rand.NewSource(seed))}
}

// NewSeededRoller 使用系统随机数作为种子
func NewSeededRoller() Roller {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		panic("dice: 读取系统随机数失败: " + err.Error())
	}
	return NewRoller(int64(binary.LittleEndian.Uint64(b[:])))
}

func (r *randRoller) roll(sides int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rng.Intn(sides) + 1
}

// D6 掷一枚六面骰
func (r *randRoller) D6() int {
	return r.roll(MaxD6)
}

// D20 掷一枚二十面骰
func (r *randRoller) D20() int {
	return r.roll(MaxD20)
}

// Sequence 按顺序返回预设点数的 Roller，用尽后从头循环
type Sequence struct {
	mu  sync.Mutex
	d6  []int
	d20 []int
	i6  int
	i20 int
}

// NewSequence 创建固定序列 Roller
func NewSequence(d6 []int, d20 []int) *Sequence {
	return &Sequence{d6: d6, d20: d20}
}

// D6 返回下一个预设d6点数
func (s *Sequence) D6() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.d6) == 0 {
		return MinD6
	}
	v := s.d6[s.i6%len(s.d6)]
	s.i6++
	return v
}

// D20 返回下一个预设d20点数
func (s *Sequence) D20() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.d20) == 0 {
		return MinD20
	}
	v := s.d20[s.i20%len(s.d20)]
	s.i20++
	return v
}
