package ocr

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCache_SetAndGet(t *testing.T) {
	cache := NewCache(1 * time.Minute)

	cache.Set(Key("cap-1", 0), "recognized text")

	text, ok := cache.Get(Key("cap-1", 0))
	assert.True(t, ok)
	assert.Equal(t, "recognized text", text)
}

func TestCache_Miss(t *testing.T) {
	cache := NewCache(1 * time.Minute)

	text, ok := cache.Get(Key("missing", 0))
	assert.False(t, ok)
	assert.Equal(t, "", text)
}

func TestCache_TTLExpiry(t *testing.T) {
	cache := NewCache(50 * time.Millisecond)

	cache.Set(Key("cap-1", 0), "text")

	text, ok := cache.Get(Key("cap-1", 0))
	assert.True(t, ok)
	assert.Equal(t, "text", text)

	time.Sleep(60 * time.Millisecond)

	text, ok = cache.Get(Key("cap-1", 0))
	assert.False(t, ok)
	assert.Equal(t, "", text)
}

func TestCache_DistinctTimestampsAreDistinctKeys(t *testing.T) {
	cache := NewCache(1 * time.Minute)

	cache.Set(Key("cap-1", 10*time.Second), "at ten seconds")
	cache.Set(Key("cap-1", 20*time.Second), "at twenty seconds")

	t1, ok1 := cache.Get(Key("cap-1", 10*time.Second))
	t2, ok2 := cache.Get(Key("cap-1", 20*time.Second))

	assert.True(t, ok1)
	assert.Equal(t, "at ten seconds", t1)
	assert.True(t, ok2)
	assert.Equal(t, "at twenty seconds", t2)
}
