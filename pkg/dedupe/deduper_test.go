package dedupe

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestAcquireOnce(t *testing.T) {
	mr := miniredis.RunT(t)
	d := NewDeduper(redis.NewClient(&redis.Options{Addr: mr.Addr()}), time.Minute, zap.NewNop())
	defer d.Close()
	ctx := context.Background()

	assert.True(t, d.AcquireOnce(ctx, "interaction", "1"))
	assert.False(t, d.AcquireOnce(ctx, "interaction", "1"))
	assert.True(t, d.AcquireOnce(ctx, "interaction", "2"))
	assert.True(t, d.AcquireOnce(ctx, "other", "1"))

	mr.FastForward(2 * time.Minute)
	assert.True(t, d.AcquireOnce(ctx, "interaction", "1"))
}

func TestAcquireOnce_FailsOpen(t *testing.T) {
	mr := miniredis.RunT(t)
	d := NewDeduper(redis.NewClient(&redis.Options{Addr: mr.Addr()}), time.Minute, zap.NewNop())
	defer d.Close()
	mr.Close()

	assert.True(t, d.AcquireOnce(context.Background(), "interaction", "1"))
	assert.True(t, d.AcquireOnce(context.Background(), "interaction", "1"))
}
