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

	"github.com/aretw0/spindle/pkg/domain"
	"github.com/aretw0/spindle/pkg/ports"
)

const envelopeKey = "__encrypted__"

// ErrKeySize is returned when the active key is not 32 bytes.
var ErrKeySize = errors.New("active key must be 32 bytes (AES-256)")

// EncryptionConfig holds the keys for encryption and decryption.
type EncryptionConfig struct {
	// ActiveKey is the key used for encrypting new data.
	// Must be 32 bytes for AES-256.
	ActiveKey []byte

	// FallbackKeys is a list of old keys to try when decryption fails.
	// This enables zero-downtime key rotation.
	FallbackKeys [][]byte
}

// payload is the sealed part of a record. Ids, status and timestamps stay
// in clear so runs can still be listed and monitored.
type payload struct {
	Inputs  map[string]any `json:"inputs,omitempty"`
	Outputs map[string]any `json:"outputs,omitempty"`
	Error   string         `json:"error,omitempty"`
}

type encryptionMiddleware struct {
	next   ports.RunStore
	config EncryptionConfig
}

// NewEncryptionMiddleware creates a middleware that encrypts run and task
// payloads using AES-GCM.
func NewEncryptionMiddleware(config EncryptionConfig) (Middleware, error) {
	if len(config.ActiveKey) != 32 {
		return nil, ErrKeySize
	}
	return func(next ports.RunStore) ports.RunStore {
		return &encryptionMiddleware{
			next:   next,
			config: config,
		}
	}, nil
}

func (m *encryptionMiddleware) SaveRun(ctx context.Context, run *domain.RunRecord) error {
	sealed, err := m.seal(payload{Inputs: run.Inputs, Outputs: run.Outputs, Error: run.Error})
	if err != nil {
		return fmt.Errorf("failed to encrypt run: %w", err)
	}
	envelope := *run
	envelope.Inputs = sealed
	envelope.Outputs = nil
	envelope.Error = ""
	return m.next.SaveRun(ctx, &envelope)
}

func (m *encryptionMiddleware) LoadRun(ctx context.Context, runID string) (*domain.RunRecord, error) {
	run, err := m.next.LoadRun(ctx, runID)
	if err != nil {
		return nil, err
	}
	if err := m.openRun(run); err != nil {
		return nil, err
	}
	return run, nil
}

func (m *encryptionMiddleware) ListRuns(ctx context.Context, workflowID string) ([]*domain.RunRecord, error) {
	runs, err := m.next.ListRuns(ctx, workflowID)
	if err != nil {
		return nil, err
	}
	for _, run := range runs {
		if err := m.openRun(run); err != nil {
			return nil, err
		}
	}
	return runs, nil
}

func (m *encryptionMiddleware) SaveTask(ctx context.Context, task *domain.TaskRecord) error {
	sealed, err := m.seal(payload{Inputs: task.Inputs, Outputs: task.Outputs, Error: task.Error})
	if err != nil {
		return fmt.Errorf("failed to encrypt task: %w", err)
	}
	envelope := *task
	envelope.Inputs = sealed
	envelope.Outputs = nil
	envelope.Error = ""
	return m.next.SaveTask(ctx, &envelope)
}

func (m *encryptionMiddleware) ListTasks(ctx context.Context, runID string) ([]*domain.TaskRecord, error) {
	tasks, err := m.next.ListTasks(ctx, runID)
	if err != nil {
		return nil, err
	}
	for _, task := range tasks {
		p, err := m.open(task.Inputs)
		if err != nil {
			return nil, fmt.Errorf("task %s: %w", task.NodeID, err)
		}
		task.Inputs, task.Outputs, task.Error = p.Inputs, p.Outputs, p.Error
	}
	return tasks, nil
}

func (m *encryptionMiddleware) DeleteRun(ctx context.Context, runID string) error {
	return m.next.DeleteRun(ctx, runID)
}

func (m *encryptionMiddleware) openRun(run *domain.RunRecord) error {
	p, err := m.open(run.Inputs)
	if err != nil {
		return fmt.Errorf("run %s: %w", run.ID, err)
	}
	run.Inputs, run.Outputs, run.Error = p.Inputs, p.Outputs, p.Error
	return nil
}

func (m *encryptionMiddleware) seal(p payload) (map[string]any, error) {
	plainText, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	ciphertext, err := encrypt(plainText, m.config.ActiveKey)
	if err != nil {
		return nil, err
	}
	return map[string]any{envelopeKey: base64.StdEncoding.EncodeToString(ciphertext)}, nil
}

func (m *encryptionMiddleware) open(envelope map[string]any) (payload, error) {
	var p payload
	encryptedStr, ok := envelope[envelopeKey].(string)
	if !ok {
		// Fail secure: a configured store only holds sealed records.
		return p, errors.New("record is missing encrypted data envelope")
	}

	ciphertext, err := base64.StdEncoding.DecodeString(encryptedStr)
	if err != nil {
		return p, fmt.Errorf("failed to decode ciphertext base64: %w", err)
	}

	// Try Active, then Fallback
	plainText, err := decryptWithRotation(ciphertext, m.config.ActiveKey, m.config.FallbackKeys)
	if err != nil {
		return p, fmt.Errorf("failed to decrypt: %w", err)
	}

	if err := json.Unmarshal(plainText, &p); err != nil {
		return p, fmt.Errorf("failed to unmarshal decrypted payload: %w", err)
	}
	return p, nil
}

// Helpers

func encrypt(plaintext []byte, key []byte) ([]byte, error) {
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

	return gcm.Seal(nonce, nonce, plaintext, nil), nil
}

func decryptWithRotation(ciphertext []byte, activeKey []byte, fallbackKeys [][]byte) ([]byte, error) {
	if plain, err := decrypt(ciphertext, activeKey); err == nil {
		return plain, nil
	}

	for _, key := range fallbackKeys {
		if plain, err := decrypt(ciphertext, key); err == nil {
			return plain, nil
		}
	}

	return nil, errors.New("decryption failed with all available keys")
}

func decrypt(ciphertext []byte, key []byte) ([]byte, error) {
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

	nonce := ciphertext[:gcm.NonceSize()]
	ciphertextBytes := ciphertext[gcm.NonceSize():]

	return gcm.Open(nil, nonce, ciphertextBytes, nil)
}
