package utils

import (
	"crypto/rand"
	"encoding/hex"
)

// GenerateSecureOTP returns a random numeric code of the given length.
// Collisions are not checked; codes are scoped to a single email address.
func GenerateSecureOTP(length int) (string, error) {
	const otpChars = "0123456789"
	buffer := make([]byte, length)
	_, err := rand.Read(buffer)
	if err != nil {
		return "", err
	}

	for i := 0; i < length; i++ {
		buffer[i] = otpChars[int(buffer[i])%len(otpChars)]
	}

	return string(buffer), nil
}

// GenerateResetToken returns 32 random bytes hex-encoded, matching the
// entropy of the password reset links the client mails out.
func GenerateResetToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
