// Package security provides cryptographic signing of served yield
// reports so downstream consumers can detect tampering in transit.
package security

import (
	"crypto/ecdsa"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/sirupsen/logrus"
)

// SignerOptions configures the behavior of report signing
type SignerOptions struct {
	Enabled           bool          `json:"enabled"`
	SignatureValidity time.Duration `json:"signature_validity"`
	StrictMode        bool          `json:"strict_mode"`
}

// ReportSigner signs served payloads with a secp256k1 key using the
// Ethereum signature scheme, so signatures stay verifiable on-chain.
type ReportSigner struct {
	privateKey *ecdsa.PrivateKey
	publicKey  string
	opts       SignerOptions
}

// NewReportSigner creates a signer with a fresh key pair.
func NewReportSigner(opts SignerOptions) (*ReportSigner, error) {
	privateKey, err := crypto.GenerateKey()
	if err != nil {
		return nil, fmt.Errorf("failed to generate key: %w", err)
	}

	if opts.SignatureValidity <= 0 {
		opts.SignatureValidity = 24 * time.Hour
	}

	signer := &ReportSigner{
		privateKey: privateKey,
		publicKey:  fmt.Sprintf("0x%x", crypto.FromECDSAPub(&privateKey.PublicKey)),
		opts:       opts,
	}

	logrus.Infof("Report signer initialized with public key: %s...", signer.publicKey[:18])
	return signer, nil
}

// PublicKey returns the hex-encoded uncompressed public key.
func (s *ReportSigner) PublicKey() string {
	return s.publicKey
}

// Wrap returns the payload together with its integrity hashes and an
// Ethereum-style signature over the Keccak-256 digest.
func (s *ReportSigner) Wrap(payload interface{}) (map[string]interface{}, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}

	sha256Hash := sha256.Sum256(payloadBytes)
	keccakHash := crypto.Keccak256Hash(payloadBytes)

	wrapper := map[string]interface{}{
		"payload": payload,
		"integrity": map[string]interface{}{
			"sha256":    fmt.Sprintf("%x", sha256Hash),
			"keccak256": keccakHash.Hex(),
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		},
	}

	if !s.opts.Enabled {
		return wrapper, nil
	}

	signature, err := crypto.Sign(keccakHash.Bytes(), s.privateKey)
	if err != nil {
		return nil, fmt.Errorf("failed to sign payload: %w", err)
	}

	wrapper["_signature"] = map[string]interface{}{
		"signature":  fmt.Sprintf("0x%x", signature),
		"publicKey":  s.publicKey,
		"algorithm":  "ECDSA-secp256k1-Keccak256",
		"timestamp":  time.Now().Unix(),
		"validUntil": time.Now().Add(s.opts.SignatureValidity).Unix(),
	}

	return wrapper, nil
}

// Verify checks the hashes and signature of a wrapped payload and
// returns the inner payload when everything matches.
func (s *ReportSigner) Verify(wrapped map[string]interface{}) (interface{}, error) {
	payload, ok := wrapped["payload"]
	if !ok {
		return nil, fmt.Errorf("payload missing from wrapped data")
	}

	integrity, ok := wrapped["integrity"].(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("integrity information missing")
	}

	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}

	if expected, ok := integrity["sha256"].(string); ok {
		if actual := fmt.Sprintf("%x", sha256.Sum256(payloadBytes)); actual != expected {
			return nil, fmt.Errorf("SHA256 hash mismatch")
		}
	} else {
		return nil, fmt.Errorf("SHA256 hash missing")
	}

	keccakHash := crypto.Keccak256Hash(payloadBytes)
	if expected, ok := integrity["keccak256"].(string); ok {
		if keccakHash.Hex() != expected {
			return nil, fmt.Errorf("Keccak256 hash mismatch")
		}
	} else {
		return nil, fmt.Errorf("Keccak256 hash missing")
	}

	sigMeta, ok := wrapped["_signature"].(map[string]interface{})
	if !ok {
		if s.opts.StrictMode {
			return nil, fmt.Errorf("signature metadata missing")
		}
		return payload, nil
	}

	validUntil, ok := sigMeta["validUntil"].(float64)
	if ok && time.Now().Unix() > int64(validUntil) {
		return nil, fmt.Errorf("signature expired at %v", time.Unix(int64(validUntil), 0))
	}

	signatureStr, ok := sigMeta["signature"].(string)
	if !ok {
		return nil, fmt.Errorf("invalid signature format")
	}

	var signature []byte
	if _, err := fmt.Sscanf(signatureStr, "0x%x", &signature); err != nil {
		return nil, fmt.Errorf("failed to decode signature: %w", err)
	}

	if len(signature) != 65 {
		return nil, fmt.Errorf("invalid signature length: %d", len(signature))
	}

	// VerifySignature takes the signature without the recovery id
	pubKey := crypto.FromECDSAPub(&s.privateKey.PublicKey)
	if !crypto.VerifySignature(pubKey, keccakHash.Bytes(), signature[:64]) {
		return nil, fmt.Errorf("signature verification failed")
	}

	return payload, nil
}
