package service

import (
	"crypto/rand"
	"math/big"
)

// Алфавит без визуально похожих символов (0/O, 1/I/l)
const joinCodeAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

const joinCodeLength = 8

// generateJoinCode создает короткий код, которым можно поделиться вслух
func generateJoinCode() string {
	code := make([]byte, joinCodeLength)
	max := big.NewInt(int64(len(joinCodeAlphabet)))
	for i := range code {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			// crypto/rand на этой платформе недоступен - дальше работать нельзя
			panic(err)
		}
		code[i] = joinCodeAlphabet[n.Int64()]
	}
	return string(code)
}
