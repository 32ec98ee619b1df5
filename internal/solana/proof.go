package solana

import (
	"crypto/ed25519"
	"errors"
	"fmt"
	"time"

	"github.com/mr-tron/base58"
)

// MaxProofAge: максимальный возраст proof (защита от replay).
const MaxProofAge = 5 * time.Minute

// maxClockSkew tolerates wallets whose clock runs slightly ahead.
const maxClockSkew = time.Minute

var ErrInvalidProof = errors.New("invalid wallet proof")

// Proof is what the wallet returns from signMessage for a sign-in request.
type Proof struct {
	Timestamp int64  `json:"timestamp" validate:"required"`
	Domain    string `json:"domain" validate:"required"`
	Payload   string `json:"payload" validate:"required"`   // наш nonce
	Signature string `json:"signature" validate:"required"` // base58
}

// ParseAddress decodes a base58 Solana account address into its Ed25519
// public key.
func ParseAddress(address string) (ed25519.PublicKey, error) {
	raw, err := base58.Decode(address)
	if err != nil {
		return nil, fmt.Errorf("invalid base58 address: %w", err)
	}
	if len(raw) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("address must decode to %d bytes, got %d", ed25519.PublicKeySize, len(raw))
	}
	return ed25519.PublicKey(raw), nil
}

// Message builds the plain-text sign-in message the wallet signs:
//
//	<domain> wants you to sign in with your Solana account:
//	<address>
//
//	Nonce: <payload>
//	Issued At: <RFC3339 UTC>
func Message(address string, proof Proof) []byte {
	issuedAt := time.Unix(proof.Timestamp, 0).UTC().Format(time.RFC3339)
	return []byte(fmt.Sprintf(
		"%s wants you to sign in with your Solana account:\n%s\n\nNonce: %s\nIssued At: %s",
		proof.Domain, address, proof.Payload, issuedAt,
	))
}

// VerifyProof checks age, domain and the Ed25519 signature of proof for
// address. Every failure wraps ErrInvalidProof.
func VerifyProof(address string, proof Proof, allowedDomains []string, now time.Time) error {
	// 1. Проверяем timestamp
	proofTime := time.Unix(proof.Timestamp, 0)
	if now.Sub(proofTime) > MaxProofAge {
		return fmt.Errorf("%w: proof expired, %s old", ErrInvalidProof, now.Sub(proofTime).Round(time.Second))
	}
	if proofTime.After(now.Add(maxClockSkew)) {
		return fmt.Errorf("%w: proof timestamp is in the future", ErrInvalidProof)
	}

	// 2. Проверяем domain
	if !isDomainAllowed(proof.Domain, allowedDomains) {
		return fmt.Errorf("%w: domain %q not in allowed list", ErrInvalidProof, proof.Domain)
	}

	// 3. Public key из адреса
	pubKey, err := ParseAddress(address)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidProof, err)
	}

	// 4. Декодируем signature
	sig, err := base58.Decode(proof.Signature)
	if err != nil {
		return fmt.Errorf("%w: invalid signature encoding: %v", ErrInvalidProof, err)
	}
	if len(sig) != ed25519.SignatureSize {
		return fmt.Errorf("%w: invalid signature size %d", ErrInvalidProof, len(sig))
	}

	if !ed25519.Verify(pubKey, Message(address, proof), sig) {
		return fmt.Errorf("%w: signature mismatch", ErrInvalidProof)
	}
	return nil
}

func isDomainAllowed(domain string, allowed []string) bool {
	if len(allowed) == 0 {
		return true // если список пуст, разрешаем всё (dev mode)
	}
	for _, d := range allowed {
		if d == domain {
			return true
		}
	}
	return false
}
