package framebridge

import (
	"testing"
	"testing/synctest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func taggedFrame(tag byte) *Frame {
	return &Frame{Data: []byte{tag}, Width: 1, Height: 1}
}

func TestQueueDropNewestOnFull(t *testing.T) {
	q := NewFrameQueue(2)

	assert.True(t, q.TryPush(taggedFrame(1)))
	assert.True(t, q.TryPush(taggedFrame(2)))
	assert.False(t, q.TryPush(taggedFrame(3)))
	assert.False(t, q.TryPush(taggedFrame(4)))

	assert.Equal(t, 2, q.Len())

	f, ok := q.Pop()
	require.True(t, ok)
	assert.Equal(t, byte(1), f.Data[0])
	f, ok = q.Pop()
	require.True(t, ok)
	assert.Equal(t, byte(2), f.Data[0])

	stats := q.Stats()
	assert.Equal(t, uint64(2), stats.Pushed)
	assert.Equal(t, uint64(2), stats.Dropped)
}

func TestQueueFIFO(t *testing.T) {
	q := NewFrameQueue(8)
	for i := byte(1); i <= 5; i++ {
		require.True(t, q.TryPush(taggedFrame(i)))
	}
	for i := byte(1); i <= 5; i++ {
		f, ok := q.Pop()
		require.True(t, ok)
		assert.Equal(t, i, f.Data[0])
		assert.Equal(t, uint64(i), f.Seq)
	}
}

func TestQueueCloseDrainsBufferedFrames(t *testing.T) {
	q := NewFrameQueue(4)
	require.True(t, q.TryPush(taggedFrame(1)))
	require.True(t, q.TryPush(taggedFrame(2)))
	q.Close()

	_, ok := q.Pop()
	assert.True(t, ok)
	_, ok = q.Pop()
	assert.True(t, ok)
	f, ok := q.Pop()
	assert.False(t, ok)
	assert.Nil(t, f)
}

func TestQueueCloseIdempotent(t *testing.T) {
	q := NewFrameQueue(1)
	q.Close()
	q.Close()

	assert.False(t, q.TryPush(taggedFrame(1)))
	assert.Equal(t, uint64(1), q.Stats().Dropped)

	f, ok := q.Pop()
	assert.False(t, ok)
	assert.Nil(t, f)
}

func TestQueueCloseWakesBlockedPop(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		q := NewFrameQueue(1)

		var frame *Frame
		var ok bool
		done := make(chan struct{})
		go func() {
			defer close(done)
			frame, ok = q.Pop()
		}()

		// wait until the consumer is blocked in Pop
		synctest.Wait()
		q.Close()
		<-done

		assert.False(t, ok)
		assert.Nil(t, frame)
	})
}

func TestQueuePopBlocksUntilPush(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		q := NewFrameQueue(1)

		var frame *Frame
		var ok bool
		done := make(chan struct{})
		go func() {
			defer close(done)
			frame, ok = q.Pop()
		}()

		synctest.Wait()
		require.True(t, q.TryPush(taggedFrame(7)))
		<-done

		require.True(t, ok)
		assert.Equal(t, byte(7), frame.Data[0])
	})
}
