// Package luck はプッシュの確率的な結果判定を提供する。
// テストで決定的なシーケンスを注入できるよう、判定はRollerインターフェースで抽象化する。
package luck

import (
	"math/rand"
	"sync"
)

// Outcome は1回のプッシュの結果を表す。
type Outcome int

const (
	// OutcomeContinue はゲーム続行（成功）を示す。
	OutcomeContinue Outcome = iota
	// OutcomeBust はバスト（ゲーム終了）を示す。
	OutcomeBust
)

// Roller は1回のプッシュの結果を判定するインターフェース。
type Roller interface {
	// Roll は続行かバストかを1回判定する。
	Roll() Outcome
	// Pick はn個の選択肢から1つのインデックスを選ぶ。励ましメッセージの選択に使う。
	Pick(n int) int
}

// RandomRoller は疑似乱数による50/50のRoller実装。
type RandomRoller struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewRandomRoller は指定シードのRandomRollerを生成する。
func NewRandomRoller(seed int64) *RandomRoller {
	return &RandomRoller{rng: rand.New(rand.NewSource(seed))}
}

// Roll は50/50で続行かバストかを判定する。
func (r *RandomRoller) Roll() Outcome {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.rng.Intn(2) == 0 {
		return OutcomeContinue
	}
	return OutcomeBust
}

// Pick はn個の選択肢から一様に1つのインデックスを選ぶ。
// nが0以下の場合は0を返す。
func (r *RandomRoller) Pick(n int) int {
	if n <= 0 {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rng.Intn(n)
}

// SequenceRoller はあらかじめ決めたシーケンスを順に返すRoller実装。
// テスト用。シーケンスを使い切った後はOutcomeBustを返し続ける。
type SequenceRoller struct {
	mu       sync.Mutex
	outcomes []Outcome
	pos      int
}

// NewSequenceRoller は指定シーケンスのSequenceRollerを生成する。
func NewSequenceRoller(outcomes ...Outcome) *SequenceRoller {
	return &SequenceRoller{outcomes: outcomes}
}

// Roll はシーケンスの次の結果を返す。
func (r *SequenceRoller) Roll() Outcome {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.pos >= len(r.outcomes) {
		return OutcomeBust
	}
	o := r.outcomes[r.pos]
	r.pos++
	return o
}

// Pick は常に0を返す。
func (r *SequenceRoller) Pick(n int) int {
	return 0
}

// compile-time interface check
var (
	_ Roller = (*RandomRoller)(nil)
	_ Roller = (*SequenceRoller)(nil)
)
