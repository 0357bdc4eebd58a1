// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Railwise Contributors

package redis_test

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/railwise/railwise/internal/store"
	"github.com/railwise/railwise/internal/store/redis"
	"github.com/railwise/railwise/internal/store/storetest"
)

func TestSnapshotStore_Contract(t *testing.T) {
	url := os.Getenv("RAILWISE_TEST_REDIS_URL")
	if url == "" {
		t.Skip("RAILWISE_TEST_REDIS_URL not set")
	}

	storetest.Run(t, func(t *testing.T, retention int) store.SnapshotStore {
		ctx := context.Background()
		client, err := redis.NewClient(ctx, url)
		require.NoError(t, err)

		key := "railwise:test:" + uuid.NewString()
		s := redis.NewSnapshotStore(client, key, retention)
		t.Cleanup(func() { _ = s.Close() })
		t.Cleanup(func() { _ = client.Del(context.Background(), key).Err() })
		return s
	})
}

func TestNewClient_InvalidURL(t *testing.T) {
	_, err := redis.NewClient(context.Background(), "ftp://nope")
	require.Error(t, err)
}
