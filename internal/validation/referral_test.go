package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateReferralCode(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		code    string
		wantErr bool
	}{
		{"Letters and digits", "Ab3dE9xZ", false},
		{"Symbols", "!@#$%&*A", false},
		{"Too Short", "Ab3dE9x", true},
		{"Too Long", "Ab3dE9xZq", true},
		{"Empty", "", true},
		{"Space", "Ab3d E9x", true},
		{"Disallowed Symbol", "Ab3d^E9x", true},
		{"Non ASCII", "Ab3dE9é", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateReferralCode(tt.code)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestReferralCodeAlphabet(t *testing.T) {
	t.Parallel()
	assert.Len(t, ReferralCodeAlphabet, 69)
	seen := make(map[rune]bool)
	for _, r := range ReferralCodeAlphabet {
		assert.False(t, seen[r], "duplicate %q", r)
		seen[r] = true
	}
	assert.Equal(t, "Ab3dE9xZ", NormalizeReferralCode("  Ab3dE9xZ\n"))
}

func TestValidatePromptAndTimer(t *testing.T) {
	t.Parallel()
	assert.NoError(t, ValidatePrompt("What do you do on Sundays?"))
	assert.Error(t, ValidatePrompt("   "))
	assert.Error(t, ValidatePrompt(strings.Repeat("x", MaxPromptLength+1)))

	assert.NoError(t, ValidateTimer(3, 3, 120))
	assert.NoError(t, ValidateTimer(120, 3, 120))
	assert.Error(t, ValidateTimer(2, 3, 120))
	assert.Error(t, ValidateTimer(121, 3, 120))
}

func TestNormalizeAnswer(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "hello", NormalizeAnswer("  hello \n"))
	assert.Equal(t, "", NormalizeAnswer("   "))

	long := strings.Repeat("é", MaxAnswerLength+50)
	got := NormalizeAnswer(long)
	assert.Equal(t, MaxAnswerLength, len([]rune(got)))
}
