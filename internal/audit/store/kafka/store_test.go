package kafka

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewValidatesConfig(t *testing.T) {
	_, err := New(nil, "audit")
	assert.Error(t, err)

	_, err = New([]string{"localhost:9092"}, "")
	assert.Error(t, err)
}

func TestPingUnreachableBroker(t *testing.T) {
	store, err := New([]string{"127.0.0.1:1"}, "audit")
	require.NoError(t, err)
	defer store.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	assert.Error(t, store.Ping(ctx))
}
