package service

import (
	"crypto/rand"
	"math/big"

	"github.com/lensphilisme/social-dating-app-nextjs-react-sub002/internal/validation"
)

var alphabetSize = big.NewInt(int64(len(validation.ReferralCodeAlphabet)))

// GenerateReferralCode draws a code uniformly from the referral alphabet.
func GenerateReferralCode() (string, error) {
	buf := make([]byte, validation.ReferralCodeLength)
	for i := range buf {
		n, err := rand.Int(rand.Reader, alphabetSize)
		if err != nil {
			return "", err
		}
		buf[i] = validation.ReferralCodeAlphabet[n.Int64()]
	}
	return string(buf), nil
}
