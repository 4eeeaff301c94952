package auth

import (
	"crypto/rand"
	"fmt"
	"io"
	"math/big"
	"time"
)

const (
	otpMin = 100000
	otpMax = 999999
)

// randReader is the entropy source for codes. Tests replace it.
var randReader io.Reader = rand.Reader

// GenerateOTP returns a uniformly random six digit code in [100000, 999999].
func GenerateOTP() (string, error) {
	n, err := rand.Int(randReader, big.NewInt(otpMax-otpMin+1))
	if err != nil {
		return "", fmt.Errorf("generate otp: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()+otpMin), nil
}

// OTPExpiry is the instant a code issued at now stops being accepted.
func OTPExpiry(now time.Time, ttl time.Duration) time.Time {
	return now.Add(ttl)
}
