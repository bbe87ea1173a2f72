package service

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
)

const (
	inviteAlphabet     = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	inviteCodeLength   = 6
	inviteCodeAttempts = 5
)

// generateInviteCode draws a code from an alphabet without 0/O and 1/I.
func generateInviteCode() (string, error) {
	limit := big.NewInt(int64(len(inviteAlphabet)))
	code := make([]byte, inviteCodeLength)
	for i := range code {
		n, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", fmt.Errorf("failed to read random: %w", err)
		}
		code[i] = inviteAlphabet[n.Int64()]
	}
	return string(code), nil
}

// NormalizeInviteCode canonicalises user input before lookup.
func NormalizeInviteCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
