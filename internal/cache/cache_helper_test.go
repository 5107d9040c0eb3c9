package cache

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cachedCourse struct {
	ID    uint   `json:"id"`
	Title string `json:"title"`
}

func newTestManager(t *testing.T) (*CacheManager, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewCacheManager(client), mr
}

func TestCacheOrExecute_FetchesOnceThenHits(t *testing.T) {
	cm, mr := newTestManager(t)
	ctx := context.Background()

	calls := 0
	fetch := func() (interface{}, error) {
		calls++
		return []cachedCourse{{ID: 1, Title: "AP Physics"}}, nil
	}

	var first []cachedCourse
	require.NoError(t, cm.Course.CacheOrExecute(ctx, CourseListKey, &first, cm.TTL(), fetch))
	assert.True(t, mr.Exists("course:"+CourseListKey))

	var second []cachedCourse
	require.NoError(t, cm.Course.CacheOrExecute(ctx, CourseListKey, &second, cm.TTL(), fetch))

	assert.Equal(t, 1, calls)
	assert.Equal(t, first, second)
}

func TestInvalidateCourseCache(t *testing.T) {
	cm, mr := newTestManager(t)
	ctx := context.Background()

	require.NoError(t, cm.Course.Set(ctx, CourseListKey, []cachedCourse{{ID: 1}}, cm.TTL()))
	require.NoError(t, cm.Course.Set(ctx, CourseDetailKey(1), cachedCourse{ID: 1}, cm.TTL()))
	require.NoError(t, cm.Course.Set(ctx, CourseDetailKey(2), cachedCourse{ID: 2}, cm.TTL()))

	InvalidateCourseCache(ctx, cm, 1)

	assert.False(t, mr.Exists("course:"+CourseListKey))
	assert.False(t, mr.Exists("course:"+CourseDetailKey(1)))
	assert.True(t, mr.Exists("course:"+CourseDetailKey(2)))
}

func TestNilClientDegradesGracefully(t *testing.T) {
	cm := NewCacheManager(nil)
	ctx := context.Background()

	assert.False(t, cm.Enabled())
	assert.ErrorIs(t, cm.HealthCheck(ctx), ErrCacheNotAvailable)

	calls := 0
	var out cachedCourse
	err := cm.Course.CacheOrExecute(ctx, CourseDetailKey(3), &out, cm.TTL(), func() (interface{}, error) {
		calls++
		return cachedCourse{ID: 3, Title: "AP Art"}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, "AP Art", out.Title)

	_ = cm.Course.CacheOrExecute(ctx, CourseDetailKey(3), &out, cm.TTL(), func() (interface{}, error) {
		calls++
		return cachedCourse{ID: 3}, nil
	})
	assert.Equal(t, 2, calls)

	InvalidateCourseCache(ctx, cm, 3)
}
