package app

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"

	"golang.org/x/crypto/curve25519"

	"github.com/nico4348/baileys-nest-sub001/internal/authstate/domain"
)

// GenerateCredentials is the development default CredentialsFactory. A real
// transport injects its own factory so registration stays its concern; this
// one produces structurally valid key material for local runs and tests.
func GenerateCredentials() (*domain.Credentials, error) {
	noise, err := generateKeyPair()
	if err != nil {
		return nil, fmt.Errorf("failed to generate noise key: %w", err)
	}
	identity, err := generateKeyPair()
	if err != nil {
		return nil, fmt.Errorf("failed to generate identity key: %w", err)
	}
	preKey, err := generateKeyPair()
	if err != nil {
		return nil, fmt.Errorf("failed to generate signed pre-key: %w", err)
	}

	signature := make([]byte, 64)
	if _, err := rand.Read(signature); err != nil {
		return nil, fmt.Errorf("failed to generate pre-key signature: %w", err)
	}
	advSecret := make([]byte, 32)
	if _, err := rand.Read(advSecret); err != nil {
		return nil, fmt.Errorf("failed to generate adv secret: %w", err)
	}

	var regIDBytes [4]byte
	if _, err := rand.Read(regIDBytes[:]); err != nil {
		return nil, fmt.Errorf("failed to generate registration id: %w", err)
	}
	// Registration ids are 14-bit values in the signal protocol.
	regID := binary.BigEndian.Uint32(regIDBytes[:])&0x3FFF + 1

	return &domain.Credentials{
		NoiseKey:          noise,
		SignedIdentityKey: identity,
		SignedPreKey: domain.SignedPreKey{
			KeyPair:   preKey,
			Signature: signature,
			KeyID:     1,
		},
		RegistrationID: regID,
		AdvSecretKey:   advSecret,
	}, nil
}

func generateKeyPair() (domain.KeyPair, error) {
	private := make([]byte, curve25519.ScalarSize)
	if _, err := rand.Read(private); err != nil {
		return domain.KeyPair{}, err
	}
	public, err := curve25519.X25519(private, curve25519.Basepoint)
	if err != nil {
		return domain.KeyPair{}, err
	}
	return domain.KeyPair{Public: public, Private: private}, nil
}
