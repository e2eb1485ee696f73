package domain

import (
	"fmt"
)

// Signal key-store categories used by the multi-device E2E transport. The
// composite logical key of an entry is "<category>-<id>".
const (
	KeyCategoryPreKey              = "pre-key"
	KeyCategorySession             = "session"
	KeyCategorySenderKey           = "sender-key"
	KeyCategoryAppStateSyncKey     = "app-state-sync-key"
	KeyCategoryAppStateSyncVersion = "app-state-sync-version"
	KeyCategorySenderKeyMemory     = "sender-key-memory"
)

// KeyPair is a Curve25519 key pair.
type KeyPair struct {
	Public  []byte
	Private []byte
}

// EncodeWire implements the codec wire-format conversion.
func (k KeyPair) EncodeWire() any {
	return map[string]any{
		"public":  k.Public,
		"private": k.Private,
	}
}

// SignedPreKey is a pre-key signed with the identity key.
type SignedPreKey struct {
	KeyPair   KeyPair
	Signature []byte
	KeyID     uint32
}

// EncodeWire implements the codec wire-format conversion.
func (k SignedPreKey) EncodeWire() any {
	return map[string]any{
		"keyPair":   k.KeyPair.EncodeWire(),
		"signature": k.Signature,
		"keyId":     k.KeyID,
	}
}

// Credentials is the root credential blob of a session: the long-lived key
// material the transport needs to resume an authenticated connection.
type Credentials struct {
	NoiseKey          KeyPair
	SignedIdentityKey KeyPair
	SignedPreKey      SignedPreKey
	RegistrationID    uint32
	AdvSecretKey      []byte
}

// EncodeWire implements the codec wire-format conversion.
func (c *Credentials) EncodeWire() any {
	return map[string]any{
		"noiseKey":          c.NoiseKey.EncodeWire(),
		"signedIdentityKey": c.SignedIdentityKey.EncodeWire(),
		"signedPreKey":      c.SignedPreKey.EncodeWire(),
		"registrationId":    c.RegistrationID,
		"advSecretKey":      c.AdvSecretKey,
	}
}

// DecodeCredentials reconstructs Credentials from a decoded wire tree.
func DecodeCredentials(v any) (*Credentials, error) {
	m, err := wireMap(v, "credentials")
	if err != nil {
		return nil, err
	}
	noise, err := decodeKeyPair(m["noiseKey"], "noiseKey")
	if err != nil {
		return nil, err
	}
	identity, err := decodeKeyPair(m["signedIdentityKey"], "signedIdentityKey")
	if err != nil {
		return nil, err
	}
	signedPre, err := decodeSignedPreKey(m["signedPreKey"])
	if err != nil {
		return nil, err
	}
	regID, err := wireUint32(m["registrationId"], "registrationId")
	if err != nil {
		return nil, err
	}
	advSecret, err := wireBytes(m["advSecretKey"], "advSecretKey")
	if err != nil {
		return nil, err
	}
	return &Credentials{
		NoiseKey:          noise,
		SignedIdentityKey: identity,
		SignedPreKey:      signedPre,
		RegistrationID:    regID,
		AdvSecretKey:      advSecret,
	}, nil
}

// SignalKey is one unit of per-device cryptographic key material stored for
// a session. Together with Credentials it forms the closed set of payloads
// the auth store persists.
type SignalKey struct {
	Category string
	ID       string
	Data     []byte
}

// LogicalKey returns the "<category>-<id>" form used in the store key.
func (k SignalKey) LogicalKey() string {
	return k.Category + "-" + k.ID
}

func decodeKeyPair(v any, field string) (KeyPair, error) {
	m, err := wireMap(v, field)
	if err != nil {
		return KeyPair{}, err
	}
	pub, err := wireBytes(m["public"], field+".public")
	if err != nil {
		return KeyPair{}, err
	}
	priv, err := wireBytes(m["private"], field+".private")
	if err != nil {
		return KeyPair{}, err
	}
	return KeyPair{Public: pub, Private: priv}, nil
}

func decodeSignedPreKey(v any) (SignedPreKey, error) {
	m, err := wireMap(v, "signedPreKey")
	if err != nil {
		return SignedPreKey{}, err
	}
	pair, err := decodeKeyPair(m["keyPair"], "signedPreKey.keyPair")
	if err != nil {
		return SignedPreKey{}, err
	}
	sig, err := wireBytes(m["signature"], "signedPreKey.signature")
	if err != nil {
		return SignedPreKey{}, err
	}
	keyID, err := wireUint32(m["keyId"], "signedPreKey.keyId")
	if err != nil {
		return SignedPreKey{}, err
	}
	return SignedPreKey{KeyPair: pair, Signature: sig, KeyID: keyID}, nil
}

func wireMap(v any, field string) (map[string]any, error) {
	m, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%s: expected object, got %T", field, v)
	}
	return m, nil
}

func wireBytes(v any, field string) ([]byte, error) {
	b, ok := v.([]byte)
	if !ok {
		return nil, fmt.Errorf("%s: expected byte sequence, got %T", field, v)
	}
	return b, nil
}

func wireUint32(v any, field string) (uint32, error) {
	n, ok := v.(float64)
	if !ok {
		return 0, fmt.Errorf("%s: expected number, got %T", field, v)
	}
	return uint32(n), nil
}
