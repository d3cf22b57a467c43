package idempotency

import (
	"context"
	"fmt"
	"time"
)

type exampleStore struct {
	seen map[string]bool
}

func (s *exampleStore) SetNX(_ context.Context, key string, _ any, _ time.Duration) (bool, error) {
	if s.seen[key] {
		return false, nil
	}
	s.seen[key] = true
	return true, nil
}

func (s *exampleStore) IdempotencyKey(scope, id string) string {
	return "tm:idempotency:" + scope + ":" + id
}

func (s *exampleStore) Del(_ context.Context, keys ...string) error {
	for _, k := range keys {
		delete(s.seen, k)
	}
	return nil
}

func ExampleManager_CheckAndMarkProcessed() {
	ctx := context.Background()
	manager, _ := NewManager(&exampleStore{seen: map[string]bool{}}, 24*time.Hour)

	handle := func(txnRef string) string {
		if done, _ := manager.CheckAndMarkProcessed(ctx, "vnpay-return", txnRef); done {
			return "already processed"
		}
		return "processing callback"
	}

	fmt.Println(handle("TXN-42"))
	fmt.Println(handle("TXN-42"))
	// Output:
	// processing callback
	// already processed
}
