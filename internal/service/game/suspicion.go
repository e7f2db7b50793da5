package game

// SuspicionTrack 是一个有上限的计数器，达到上限后少数派获胜
type SuspicionTrack struct {
	level int
	max   int
}

func NewSuspicionTrack(max int) *SuspicionTrack {
	return &SuspicionTrack{max: max}
}

// Advance 增加怀疑度并返回新值，结果不会超过上限
func (st *SuspicionTrack) Advance(by int) (int, error) {
	if by < 0 {
		return st.level, ErrInvalidDelta
	}

	st.level = min(st.level+by, st.max)
	return st.level, nil
}

func (st *SuspicionTrack) Level() int {
	return st.level
}

func (st *SuspicionTrack) Max() int {
	return st.max
}

func (st *SuspicionTrack) IsMaxed() bool {
	return st.level >= st.max
}

// Reset 只在两局游戏之间调用
func (st *SuspicionTrack) Reset() {
	st.level = 0
}
