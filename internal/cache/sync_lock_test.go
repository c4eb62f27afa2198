package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSyncLock_ExtendWithoutAcquire(t *testing.T) {
	lock := NewSyncLock(nil, time.Minute)
	assert.ErrorIs(t, lock.Extend(context.Background()), ErrLockLost)
}

func TestSyncLock_ClearTokenKeepsNewerHolder(t *testing.T) {
	lock := NewSyncLock(nil, time.Minute)
	lock.setToken("second")
	lock.clearToken("first")
	assert.Equal(t, "second", lock.token)
	lock.clearToken("second")
	assert.Empty(t, lock.token)
}
