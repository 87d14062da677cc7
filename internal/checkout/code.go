package checkout

import (
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"strings"
)

// codeAlphabet has 32 symbols without 0/O and 1/I, so each byte maps without bias.
const codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// CodeLength gives 40 bits of entropy.
const CodeLength = 8

// NewCode returns a random verification code.
func NewCode() (string, error) {
	buf := make([]byte, CodeLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("read random: %w", err)
	}
	for i, b := range buf {
		buf[i] = codeAlphabet[int(b)%len(codeAlphabet)]
	}
	return string(buf), nil
}

// codesMatch compares case-insensitively, ignoring surrounding whitespace.
func codesMatch(want, got string) bool {
	w := strings.ToUpper(want)
	g := strings.ToUpper(strings.TrimSpace(got))
	return subtle.ConstantTimeCompare([]byte(w), []byte(g)) == 1
}
