package middleware

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/tendrilhq/tendril/pkg/domain"
	"github.com/tendrilhq/tendril/pkg/ports"
)

// envelopeKey marks an encrypted variable map in the underlying store.
const envelopeKey = "__encrypted__"

// EncryptionConfig holds the keys for encryption and decryption.
type EncryptionConfig struct {
	// ActiveKey is the key used for encrypting new data.
	// Must be 32 bytes for AES-256.
	ActiveKey []byte

	// FallbackKeys is a list of old keys to try when decryption fails.
	// This enables zero-downtime key rotation.
	FallbackKeys [][]byte
}

type encryptionMiddleware struct {
	next   ports.SessionStore
	config EncryptionConfig
}

// NewEncryptionMiddleware creates a middleware that encrypts session
// variables at rest using AES-GCM. Cursor and identity columns stay in the
// clear so stores can keep indexing by (user, contact).
func NewEncryptionMiddleware(config EncryptionConfig) Middleware {
	if len(config.ActiveKey) != 32 {
		panic("active key must be 32 bytes (AES-256)")
	}
	return func(next ports.SessionStore) ports.SessionStore {
		return &encryptionMiddleware{
			next:   next,
			config: config,
		}
	}
}

func (m *encryptionMiddleware) Get(ctx context.Context, userID, contact string) (*domain.Session, error) {
	sess, err := m.next.Get(ctx, userID, contact)
	if err != nil {
		return nil, err
	}
	return m.open(sess)
}

func (m *encryptionMiddleware) Create(ctx context.Context, sess *domain.Session) (*domain.Session, error) {
	sealed := *sess
	vars, err := m.seal(sess.Variables)
	if err != nil {
		return nil, err
	}
	sealed.Variables = vars

	created, err := m.next.Create(ctx, &sealed)
	if err != nil {
		return nil, err
	}
	return m.open(created)
}

func (m *encryptionMiddleware) Update(ctx context.Context, sessionID string, patch domain.SessionPatch) (*domain.Session, error) {
	if patch.Variables != nil {
		vars, err := m.seal(patch.Variables)
		if err != nil {
			return nil, err
		}
		patch.Variables = vars
	}

	updated, err := m.next.Update(ctx, sessionID, patch)
	if err != nil {
		return nil, err
	}
	return m.open(updated)
}

func (m *encryptionMiddleware) Delete(ctx context.Context, sessionID string) error {
	return m.next.Delete(ctx, sessionID)
}

// seal encrypts a variable map into its envelope form.
func (m *encryptionMiddleware) seal(vars map[string]any) (map[string]any, error) {
	plainText, err := json.Marshal(vars)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal variables: %w", err)
	}

	ciphertext, err := encrypt(plainText, m.config.ActiveKey)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt variables: %w", err)
	}

	return map[string]any{
		envelopeKey: base64.StdEncoding.EncodeToString(ciphertext),
	}, nil
}

// open decrypts an envelope back into the real variable map. Sessions written
// before the middleware was enabled pass through untouched.
func (m *encryptionMiddleware) open(sess *domain.Session) (*domain.Session, error) {
	raw, ok := sess.Variables[envelopeKey].(string)
	if !ok {
		return sess, nil
	}

	ciphertext, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return nil, fmt.Errorf("corrupted variable envelope: %w", err)
	}

	plainText, err := decryptWithFallback(ciphertext, m.config)
	if err != nil {
		return nil, err
	}

	opened := *sess
	opened.Variables = nil
	if err := json.Unmarshal(plainText, &opened.Variables); err != nil {
		return nil, fmt.Errorf("failed to unmarshal variables: %w", err)
	}
	return &opened, nil
}

func decryptWithFallback(ciphertext []byte, config EncryptionConfig) ([]byte, error) {
	plainText, err := decrypt(ciphertext, config.ActiveKey)
	if err == nil {
		return plainText, nil
	}

	for _, key := range config.FallbackKeys {
		if plainText, err := decrypt(ciphertext, key); err == nil {
			return plainText, nil
		}
	}
	return nil, errors.New("failed to decrypt variables with any configured key")
}

func encrypt(plainText, key []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}

	return gcm.Seal(nonce, nonce, plainText, nil), nil
}

func decrypt(ciphertext, key []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	if len(ciphertext) < gcm.NonceSize() {
		return nil, errors.New("ciphertext too short")
	}

	nonce, sealed := ciphertext[:gcm.NonceSize()], ciphertext[gcm.NonceSize():]
	return gcm.Open(nil, nonce, sealed, nil)
}
