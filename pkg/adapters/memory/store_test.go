package memory_test

import (
	"testing"

	"github.com/aretw0/spindle/pkg/adapters/memory"
	"github.com/aretw0/spindle/pkg/ports"
)

func TestMemoryRunStore_Contract(t *testing.T) {
	store := memory.NewRunStore()
	ports.RunRunStoreContract(t, store)
}
