package service

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"strings"
)

// EscrowTokenPrefix marks escrow tokens in links and logs.
const EscrowTokenPrefix = "escrow_"

const escrowTokenBytes = 32

// NewEscrowToken returns a fresh unguessable escrow token.
func NewEscrowToken() (string, error) {
	buf := make([]byte, escrowTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("escrow token: %w", err)
	}
	return EscrowTokenPrefix + base64.RawURLEncoding.EncodeToString(buf), nil
}

// LooksLikeEscrowToken is a cheap shape check done before any lookup.
func LooksLikeEscrowToken(token string) bool {
	body, ok := strings.CutPrefix(token, EscrowTokenPrefix)
	if !ok || len(body) != base64.RawURLEncoding.EncodedLen(escrowTokenBytes) {
		return false
	}
	_, err := base64.RawURLEncoding.DecodeString(body)
	return err == nil
}
