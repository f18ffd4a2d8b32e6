package util

import (
	"crypto/rand"
	"encoding/hex"
	"time"
)

// TimestampLayout renders as YYYYMMDD_HHMMSS.
const TimestampLayout = "20060102_150405"

func RandomString(n int) string {
	bytes := make([]byte, (n+1)/2)
	rand.Read(bytes)
	return hex.EncodeToString(bytes)[:n]
}

func Timestamp(t time.Time) string {
	return t.Format(TimestampLayout)
}
