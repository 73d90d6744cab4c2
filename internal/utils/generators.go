package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"
)

// GenerateOrderReference builds the short human-facing code printed on
// order confirmations, e.g. "C95-1735689600-004821".
func GenerateOrderReference() string {
	timestamp := time.Now().Unix()
	randomNum, _ := rand.Int(rand.Reader, big.NewInt(999999))
	return fmt.Sprintf("C95-%d-%06d", timestamp, randomNum.Int64())
}
