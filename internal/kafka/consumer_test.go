package kafka

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeReader hands out msgs, then fails every fetch with fetchErr.
type fakeReader struct {
	mu        sync.Mutex
	msgs      []kafka.Message
	fetchErr  error
	commitErr error
	committed []kafka.Message
	closed    bool
}

func (f *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.msgs) == 0 {
		return kafka.Message{}, f.fetchErr
	}
	m := f.msgs[0]
	f.msgs = f.msgs[1:]
	return m, nil
}

func (f *fakeReader) CommitMessages(ctx context.Context, msgs ...kafka.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.commitErr != nil {
		return f.commitErr
	}
	f.committed = append(f.committed, msgs...)
	return nil
}

func (f *fakeReader) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func messages(n int) []kafka.Message {
	out := make([]kafka.Message, n)
	for i := range out {
		out[i] = kafka.Message{Topic: "notification.created", Offset: int64(i)}
	}
	return out
}

func startConsumer(t *testing.T, c *Consumer, h Handler) error {
	t.Helper()
	done := make(chan error, 1)
	go func() { done <- c.Start(context.Background(), h) }()
	select {
	case err := <-done:
		return err
	case <-time.After(5 * time.Second):
		t.Fatal("consumer did not return")
		return nil
	}
}

func TestConsumer_CommitsHandledMessages(t *testing.T) {
	r := &fakeReader{msgs: messages(3), fetchErr: errors.New("broker gone")}
	var mu sync.Mutex
	handled := 0

	err := startConsumer(t, NewConsumerWithReader(r, 2, nil), func(ctx context.Context, m kafka.Message) error {
		mu.Lock()
		defer mu.Unlock()
		handled++
		return nil
	})

	assert.EqualError(t, err, "broker gone")
	assert.Equal(t, 3, handled)
	assert.Len(t, r.committed, 3)
	assert.True(t, r.closed)
}

func TestConsumer_FailingCommitsDoNotStrandWorkers(t *testing.T) {
	r := &fakeReader{msgs: messages(8), fetchErr: errors.New("broker gone"), commitErr: errors.New("rebalance")}
	var mu sync.Mutex
	handled := 0

	err := startConsumer(t, NewConsumerWithReader(r, 1, nil), func(ctx context.Context, m kafka.Message) error {
		mu.Lock()
		defer mu.Unlock()
		handled++
		return nil
	})

	require.Error(t, err)
	assert.Equal(t, 8, handled)
	assert.Empty(t, r.committed)
	assert.True(t, r.closed)
}

func TestConsumer_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r := &fakeReader{fetchErr: context.Canceled}

	err := NewConsumerWithReader(r, 1, nil).Start(ctx, func(context.Context, kafka.Message) error { return nil })
	assert.NoError(t, err)
	assert.True(t, r.closed)
}
