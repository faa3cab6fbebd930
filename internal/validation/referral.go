// Package validation checks the shape of user-supplied values before they reach services.
package validation

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// ReferralCodeAlphabet is the character set of issued codes.
const ReferralCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789!@#$%&*"

// ReferralCodeLength is the length of issued codes.
const ReferralCodeLength = 8

// MaxAnswerLength caps a stored answer, in runes.
const MaxAnswerLength = 2000

// MaxPromptLength caps a question prompt, in runes.
const MaxPromptLength = 500

var errCodeFormat = errors.New("referral code has an invalid format")

// NormalizeReferralCode trims surrounding whitespace. Codes are case-sensitive.
func NormalizeReferralCode(code string) string {
	return strings.TrimSpace(code)
}

// ValidateReferralCode reports whether code could have been issued.
func ValidateReferralCode(code string) error {
	if len(code) != ReferralCodeLength {
		return errCodeFormat
	}
	for i := 0; i < len(code); i++ {
		if strings.IndexByte(ReferralCodeAlphabet, code[i]) < 0 {
			return errCodeFormat
		}
	}
	return nil
}

// ValidatePrompt checks a question prompt after trimming.
func ValidatePrompt(prompt string) error {
	p := strings.TrimSpace(prompt)
	if p == "" {
		return errors.New("prompt is required")
	}
	if utf8.RuneCountInString(p) > MaxPromptLength {
		return fmt.Errorf("prompt must be at most %d characters", MaxPromptLength)
	}
	return nil
}

// ValidateTimer checks a question timer against [minSeconds, maxSeconds].
func ValidateTimer(seconds, minSeconds, maxSeconds int) error {
	if seconds < minSeconds || seconds > maxSeconds {
		return fmt.Errorf("timer must be between %d and %d seconds", minSeconds, maxSeconds)
	}
	return nil
}

// NormalizeAnswer trims an answer and truncates it to MaxAnswerLength runes.
func NormalizeAnswer(answer string) string {
	a := strings.TrimSpace(answer)
	if utf8.RuneCountInString(a) <= MaxAnswerLength {
		return a
	}
	runes := []rune(a)
	return strings.TrimSpace(string(runes[:MaxAnswerLength]))
}
