package middleware_test

import (
	"context"
	"crypto/rand"
	"io"
	"testing"
	"time"

	"github.com/aretw0/spindle/pkg/adapters/memory"
	"github.com/aretw0/spindle/pkg/domain"
	"github.com/aretw0/spindle/pkg/persistence/middleware"
	"github.com/aretw0/spindle/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func generateKey(t *testing.T) []byte {
	k := make([]byte, 32)
	_, err := io.ReadFull(rand.Reader, k)
	require.NoError(t, err)
	return k
}

func newEncrypted(t *testing.T, store ports.RunStore, cfg middleware.EncryptionConfig) ports.RunStore {
	mw, err := middleware.NewEncryptionMiddleware(cfg)
	require.NoError(t, err)
	return mw(store)
}

func TestEncryptionMiddleware_Contract(t *testing.T) {
	ports.RunRunStoreContract(t, newEncrypted(t, memory.NewRunStore(), middleware.EncryptionConfig{ActiveKey: generateKey(t)}))
}

func TestEncryptionMiddleware_Roundtrip(t *testing.T) {
	underlying := memory.NewRunStore()
	secure := newEncrypted(t, underlying, middleware.EncryptionConfig{ActiveKey: generateKey(t)})
	ctx := context.Background()

	run := &domain.RunRecord{
		ID: "r1", WorkflowID: "wf", Status: domain.RunFailed, StartTime: time.Now().UTC(),
		Inputs: map[string]any{"secret": "my-secret-sauce"},
		Error:  "node leaked my-secret-sauce",
	}
	require.NoError(t, secure.SaveRun(ctx, run))

	// Underlying store holds only the envelope
	stored, err := underlying.LoadRun(ctx, "r1")
	require.NoError(t, err)
	assert.NotContains(t, stored.Inputs, "secret")
	assert.Contains(t, stored.Inputs, "__encrypted__")
	assert.Empty(t, stored.Error)
	assert.Equal(t, domain.RunFailed, stored.Status, "status stays visible")

	loaded, err := secure.LoadRun(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, "my-secret-sauce", loaded.Inputs["secret"])
	assert.Equal(t, "node leaked my-secret-sauce", loaded.Error)

	// Caller's record is untouched
	assert.Equal(t, "my-secret-sauce", run.Inputs["secret"])
}

func TestEncryptionMiddleware_KeyRotation(t *testing.T) {
	underlying := memory.NewRunStore()
	oldKey, newKey := generateKey(t), generateKey(t)
	ctx := context.Background()

	old := newEncrypted(t, underlying, middleware.EncryptionConfig{ActiveKey: oldKey})
	require.NoError(t, old.SaveTask(ctx, &domain.TaskRecord{
		RunID: "r", NodeID: "n", Status: domain.TaskCompleted, Outputs: map[string]any{"output": "x"},
	}))

	rotated := newEncrypted(t, underlying, middleware.EncryptionConfig{ActiveKey: newKey, FallbackKeys: [][]byte{oldKey}})
	tasks, err := rotated.ListTasks(ctx, "r")
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "x", tasks[0].Outputs["output"])

	withoutFallback := newEncrypted(t, underlying, middleware.EncryptionConfig{ActiveKey: newKey})
	_, err = withoutFallback.ListTasks(ctx, "r")
	assert.Error(t, err)
}

func TestEncryptionMiddleware_RejectsPlainRecords(t *testing.T) {
	underlying := memory.NewRunStore()
	ctx := context.Background()
	require.NoError(t, underlying.SaveRun(ctx, &domain.RunRecord{ID: "plain", StartTime: time.Now().UTC()}))

	secure := newEncrypted(t, underlying, middleware.EncryptionConfig{ActiveKey: generateKey(t)})
	_, err := secure.LoadRun(ctx, "plain")
	assert.ErrorContains(t, err, "missing encrypted data envelope")
}

func TestNewEncryptionMiddleware_KeySize(t *testing.T) {
	_, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: []byte("short")})
	assert.ErrorIs(t, err, middleware.ErrKeySize)
}
