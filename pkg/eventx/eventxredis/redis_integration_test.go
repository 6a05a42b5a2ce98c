//go:build integration

package eventxredis_test

import (
	"context"
	"testing"
	"time"

	"github.com/Abraxas-365/portal/pkg/eventx"
	"github.com/Abraxas-365/portal/pkg/eventx/eventxredis"
	"github.com/Abraxas-365/portal/pkg/testutil/containers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueLifecycle(t *testing.T) {
	ctx := context.Background()
	q := eventxredis.NewQueue(containers.NewRedis(t), "test", time.Hour)

	id, err := q.Publish(ctx, eventx.Event{Type: "identity.created", Key: "a@b.org", MaxRetries: 2})
	require.NoError(t, err)

	d, err := q.Dequeue(ctx, time.Second)
	require.NoError(t, err)
	require.NotNil(t, d)
	assert.Equal(t, id, d.ID)
	assert.Equal(t, eventx.StatusActive, d.Status)
	assert.Equal(t, 1, d.Attempts)

	retry, err := q.Nack(ctx, id, "transient")
	require.NoError(t, err)
	assert.True(t, retry)

	require.NoError(t, q.Requeue(ctx, id, -time.Second))
	require.NoError(t, q.PromoteDue(ctx))

	d, err = q.Dequeue(ctx, time.Second)
	require.NoError(t, err)
	require.NotNil(t, d)
	assert.Equal(t, 2, d.Attempts)

	require.NoError(t, q.Ack(ctx, id))
	got, err := q.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, eventx.StatusDelivered, got.Status)

	empty, err := q.Dequeue(ctx, 100*time.Millisecond)
	require.NoError(t, err)
	assert.Nil(t, empty)
}

func TestQueueRecoversUnsettledDeliveries(t *testing.T) {
	ctx := context.Background()
	q := eventxredis.NewQueue(containers.NewRedis(t), "recover", time.Hour)

	id, err := q.Publish(ctx, eventx.Event{Type: "profile.updated", Key: "a@b.org", MaxRetries: 3})
	require.NoError(t, err)

	d, err := q.Dequeue(ctx, time.Second)
	require.NoError(t, err)
	require.NotNil(t, d)

	empty, err := q.Dequeue(ctx, 100*time.Millisecond)
	require.NoError(t, err)
	assert.Nil(t, empty)

	n, err := q.Recover(ctx, time.Hour)
	require.NoError(t, err)
	assert.Zero(t, n)

	time.Sleep(10 * time.Millisecond)
	n, err = q.Recover(ctx, time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	d, err = q.Dequeue(ctx, time.Second)
	require.NoError(t, err)
	require.NotNil(t, d)
	assert.Equal(t, id, d.ID)
	assert.Equal(t, 2, d.Attempts)

	require.NoError(t, q.Ack(ctx, id))
	n, err = q.Recover(ctx, 0)
	require.NoError(t, err)
	assert.Zero(t, n, "acked deliveries leave the processing list")
}
