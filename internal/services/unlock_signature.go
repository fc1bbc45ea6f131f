package services

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// SignUnlock signs "<deviceId>:<timestampMs>:<durationDays>" with
// HMAC-SHA256. Clients verify the same hex digest.
func SignUnlock(secret []byte, deviceID string, timestampMs int64, durationDays int) string {
	mac := hmac.New(sha256.New, secret)
	fmt.Fprintf(mac, "%s:%d:%d", deviceID, timestampMs, durationDays)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifyUnlock checks a signature in constant time
func VerifyUnlock(secret []byte, deviceID string, timestampMs int64, durationDays int, signature string) bool {
	expected := SignUnlock(secret, deviceID, timestampMs, durationDays)
	return hmac.Equal([]byte(expected), []byte(signature))
}
