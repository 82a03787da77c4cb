package ratelimit

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeScripter evaluates the two limiter scripts against an in-memory map.
type fakeScripter struct {
	mu     sync.Mutex
	counts map[string]int64
	ttls   map[string]int64
}

func newFakeScripter() *fakeScripter {
	return &fakeScripter{counts: map[string]int64{}, ttls: map[string]int64{}}
}

func (f *fakeScripter) run(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	cmd := redis.NewCmd(ctx)
	key := keys[0]
	ttl, _ := strconv.ParseInt(toString(args[0]), 10, 64)
	if strings.Contains(script, "INCR") {
		f.counts[key]++
		if f.counts[key] == 1 {
			f.ttls[key] = ttl
		}
		cmd.SetVal([]interface{}{f.counts[key], f.ttls[key]})
		return cmd
	}
	f.counts[key] = 1000000
	f.ttls[key] = ttl
	cmd.SetVal(int64(1))
	return cmd
}

func toString(v interface{}) string {
	switch x := v.(type) {
	case int64:
		return strconv.FormatInt(x, 10)
	case string:
		return x
	}
	return ""
}

func (f *fakeScripter) Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd {
	return f.run(ctx, script, keys, args...)
}

func (f *fakeScripter) EvalSha(ctx context.Context, sha1 string, keys []string, args ...interface{}) *redis.Cmd {
	script := incrScript
	if sha1 == blockScript.Hash() {
		script = blockScript
	}
	return f.run(ctx, scriptSource[script], keys, args...)
}

func (f *fakeScripter) EvalRO(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd {
	return f.run(ctx, script, keys, args...)
}

func (f *fakeScripter) EvalShaRO(ctx context.Context, sha1 string, keys []string, args ...interface{}) *redis.Cmd {
	return f.EvalSha(ctx, sha1, keys, args...)
}

func (f *fakeScripter) ScriptExists(ctx context.Context, hashes ...string) *redis.BoolSliceCmd {
	cmd := redis.NewBoolSliceCmd(ctx)
	cmd.SetVal(make([]bool, len(hashes)))
	return cmd
}

func (f *fakeScripter) ScriptLoad(ctx context.Context, script string) *redis.StringCmd {
	cmd := redis.NewStringCmd(ctx)
	cmd.SetVal("")
	return cmd
}

var scriptSource = map[*redis.Script]string{
	incrScript:  "INCR",
	blockScript: "SET",
}

func TestLimiter_AllowWithinWindow(t *testing.T) {
	l := New(newFakeScripter(), "test")
	ctx := context.Background()

	for i := 1; i <= 5; i++ {
		d, err := l.Allow(ctx, "ip:1.2.3.4", 5, 5*time.Minute)
		require.NoError(t, err)
		assert.True(t, d.Allowed, "hit %d should be allowed", i)
		assert.Equal(t, int64(i), d.Count)
	}

	d, err := l.Allow(ctx, "ip:1.2.3.4", 5, 5*time.Minute)
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Equal(t, 5*time.Minute, d.RetryAfter)

	// Other keys are independent.
	d, err = l.Allow(ctx, "ip:5.6.7.8", 5, 5*time.Minute)
	require.NoError(t, err)
	assert.True(t, d.Allowed)
}

func TestLimiter_Block(t *testing.T) {
	l := New(newFakeScripter(), "")
	ctx := context.Background()

	require.NoError(t, l.Block(ctx, "admin:ip", 15*time.Second))
	d, err := l.Allow(ctx, "admin:ip", 1, 15*time.Second)
	require.NoError(t, err)
	assert.False(t, d.Allowed)
}
