package game

import (
	"math/rand/v2"

	"github.com/google/uuid"
)

// GenID 生成一个较短的 ID，取 UUIDv7 的末尾 8 位
func GenID() string {
	id, err := uuid.NewV7()
	if err != nil {
		panic("Failed to generate UUID: " + err.Error())
	}

	s := id.String()
	return s[len(s)-8:]
}

// NewRand 用种子创建一个确定性的随机源
func NewRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}
