package util

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strconv"
)

// GenerateOTPInRange draws a code uniformly from [min, max].
func GenerateOTPInRange(min, max int) (string, error) {
	if min < 0 || max < min {
		return "", fmt.Errorf("otp: invalid range [%d, %d]", min, max)
	}
	n, err := rand.Int(rand.Reader, big.NewInt(int64(max-min+1)))
	if err != nil {
		return "", err
	}
	return strconv.Itoa(min + int(n.Int64())), nil
}
