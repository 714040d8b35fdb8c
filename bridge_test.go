package framebridge

import (
	"testing"
	"testing/synctest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestSyntheticProducer runs the full unpack → queue → consumer path with a
// producer goroutine standing in for the pipeline callback thread: three
// padded samples (width=4, height=2, stride=16) must come out as three
// packed 24-byte frames with the padding gone.
func TestSyntheticProducer(t *testing.T) {
	q := NewFrameQueue(DefaultQueueCapacity)
	var lc Lifecycle
	require.NoError(t, lc.BeginPlaying())

	go func() {
		for i := byte(0); i < 3; i++ {
			if lc.Done() {
				return
			}
			frame, err := UnpackFrame(paddedSample(4, 2, 16, i))
			if err != nil {
				continue
			}
			q.TryPush(frame)
		}
		// end of stream
		if lc.MarkStopped() {
			q.Close()
		}
	}()

	var frames []*Frame
	for {
		frame, ok := q.Pop()
		if !ok {
			break
		}
		frames = append(frames, frame)
	}

	require.Len(t, frames, 3)
	for i, frame := range frames {
		assert.Len(t, frame.Data, 24)
		assert.NotContains(t, frame.Data, byte(0xAA))
		assert.Equal(t, uint64(i+1), frame.Seq)
	}
	assert.True(t, lc.Done())
}

// TestErrorNotificationStopsProducer simulates a control-bus error arriving
// mid stream: done flips within the dispatch and the producer cannot get
// another frame past the closed queue.
func TestErrorNotificationStopsProducer(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		q := NewFrameQueue(4)
		var lc Lifecycle
		require.NoError(t, lc.BeginPlaying())

		proceed := make(chan struct{})
		producerDone := make(chan struct{})
		go func() {
			defer close(producerDone)
			frame, err := UnpackFrame(paddedSample(4, 2, 16, 0))
			assert.NoError(t, err)
			assert.True(t, q.TryPush(frame))

			// wait for the error notification to be dispatched
			<-proceed

			frame, err = UnpackFrame(paddedSample(4, 2, 16, 1))
			assert.NoError(t, err)
			assert.False(t, q.TryPush(frame))
		}()

		synctest.Wait()

		// control bus delivers an error: terminal, no retry
		require.True(t, lc.MarkStopped())
		q.Close()
		assert.True(t, lc.Done())

		close(proceed)
		<-producerDone

		// the one pre-error frame is still retrievable, then end of data
		frame, ok := q.Pop()
		require.True(t, ok)
		assert.Len(t, frame.Data, 24)
		_, ok = q.Pop()
		assert.False(t, ok)

		assert.Equal(t, uint64(1), q.Stats().Pushed)
		assert.Equal(t, uint64(1), q.Stats().Dropped)
	})
}

// TestConsumerObservesOrderedSubsequence pushes more frames than the queue
// holds while a consumer drains concurrently: whatever the consumer sees
// must be in strictly increasing production order, without duplicates.
func TestConsumerObservesOrderedSubsequence(t *testing.T) {
	q := NewFrameQueue(2)
	var lc Lifecycle
	require.NoError(t, lc.BeginPlaying())

	const produced = 200
	go func() {
		for i := 0; i < produced; i++ {
			frame, err := UnpackFrame(paddedSample(4, 2, 16, 0))
			if err != nil {
				continue
			}
			q.TryPush(frame)
		}
		if lc.MarkStopped() {
			q.Close()
		}
	}()

	var last uint64
	seen := 0
	for {
		frame, ok := q.Pop()
		if !ok {
			break
		}
		assert.Greater(t, frame.Seq, last)
		last = frame.Seq
		seen++
	}

	stats := q.Stats()
	assert.Equal(t, uint64(seen), stats.Pushed)
	assert.Equal(t, uint64(produced), stats.Pushed+stats.Dropped)
}
