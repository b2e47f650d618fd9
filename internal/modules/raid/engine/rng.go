package engine

import (
	crand "crypto/rand"
	"encoding/binary"
	"math/rand"
	"sync"
)

// RNG 随机源，测试中可替换为固定序列
type RNG interface {
	// Intn 返回 [0, n) 内的整数，n > 0
	Intn(n int) int
}

type lockedRand struct {
	mu sync.Mutex
	r  *rand.Rand
}

func (l *lockedRand) Intn(n int) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.Intn(n)
}

// NewRNG 创建可复现的随机源；seed 为 0 时取系统随机种子
func NewRNG(seed int64) RNG {
	if seed == 0 {
		seed = NewSeed()
	}
	return &lockedRand{r: rand.New(rand.NewSource(seed))}
}

// NewSeed 从系统熵源生成种子
func NewSeed() int64 {
	var buf [8]byte
	if _, err := crand.Read(buf[:]); err != nil {
		return 1
	}
	seed := int64(binary.LittleEndian.Uint64(buf[:]) & (1<<63 - 1))
	if seed == 0 {
		seed = 1
	}
	return seed
}

// RandInt 闭区间 [lo, hi] 均匀采样
func RandInt(r RNG, lo, hi int64) int64 {
	if hi <= lo {
		return lo
	}
	return lo + int64(r.Intn(int(hi-lo+1)))
}

// Percent 1..100 百分位
func Percent(r RNG) int {
	return r.Intn(100) + 1
}

// Sample 从 [0, n) 中无放回取 k 个下标
func Sample(r RNG, n, k int) []int {
	if k > n {
		k = n
	}
	if k <= 0 {
		return nil
	}
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	for i := 0; i < k; i++ {
		j := i + r.Intn(n-i)
		idx[i], idx[j] = idx[j], idx[i]
	}
	return idx[:k]
}
