package eqlog

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBroker_DeliversInOrderToEverySubscriber(t *testing.T) {
	var b broker[int]
	first, unsubFirst := b.subscribe(0)
	second, unsubSecond := b.subscribe(4)
	defer unsubFirst()
	defer unsubSecond()

	go func() {
		for i := range 5 {
			b.publish(context.Background(), i)
		}
	}()

	for i := range 5 {
		assert.Equal(t, i, <-first)
		assert.Equal(t, i, <-second)
	}
}

func TestBroker_UnsubscribeReleasesPublisher(t *testing.T) {
	var b broker[string]
	_, unsubscribe := b.subscribe(0)

	done := make(chan struct{})
	go func() {
		b.publish(context.Background(), "blocked")
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	unsubscribe()
	unsubscribe()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish still blocked after unsubscribe")
	}
	assert.Zero(t, b.count())
}

func TestBroker_PublishStopsOnContext(t *testing.T) {
	var b broker[int]
	_, unsubscribe := b.subscribe(0)
	defer unsubscribe()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	b.publish(ctx, 1)
	assert.Less(t, time.Since(start), time.Second)
}

func TestBroker_Close(t *testing.T) {
	var b broker[int]
	ch, _ := b.subscribe(1)

	b.close()
	b.close()

	_, ok := <-ch
	assert.False(t, ok)

	late, unsubscribe := b.subscribe(1)
	unsubscribe()
	_, ok = <-late
	require.False(t, ok)

	// Publishing after close is a no-op.
	b.publish(context.Background(), 2)
}

func TestBroker_PublishWithoutSubscribers(t *testing.T) {
	var b broker[int]
	b.publish(context.Background(), 1)
	assert.Zero(t, b.count())
}
