package service

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"
)

func generateOrderNo() string {
	now := time.Now().Format("20060102150405")
	return fmt.Sprintf("BK%s%s", now, randNumeric(6))
}

func randNumeric(length int) string {
	var b strings.Builder
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			b.WriteString("0")
			continue
		}
		b.WriteString(fmt.Sprintf("%d", n.Int64()))
	}
	return b.String()
}
