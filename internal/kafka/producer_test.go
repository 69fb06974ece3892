package kafka

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	mu      sync.Mutex
	msgs    []kafka.Message
	fail    bool
	closed  bool
	release chan struct{}
}

func (f *fakeWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	if f.release != nil {
		<-f.release
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errors.New("broker down")
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func TestProducer_FlushesOnClose(t *testing.T) {
	w := &fakeWriter{}
	p := NewProducerWithWriter(w, 8, nil)
	p.Start()

	p.Publish([]byte("Srinivas Farms"), []byte(`{"a":1}`))
	p.Publish([]byte("Retailer Joe"), []byte(`{"a":2}`), kafka.Header{Key: "x-event-type", Value: []byte("T")})
	p.Close()
	p.WaitClosed()

	require.Len(t, w.msgs, 2)
	assert.Equal(t, "Srinivas Farms", string(w.msgs[0].Key))
	assert.Equal(t, "x-event-type", w.msgs[1].Headers[0].Key)
	assert.True(t, w.closed)
}

func TestProducer_PublishAfterCloseIsDropped(t *testing.T) {
	w := &fakeWriter{}
	p := NewProducerWithWriter(w, 1, nil)
	p.Start()
	p.Close()
	p.Close()
	p.WaitClosed()

	p.Publish([]byte("k"), []byte("v"))
	assert.Empty(t, w.msgs)
}

func TestProducer_FullInboxDoesNotBlock(t *testing.T) {
	w := &fakeWriter{release: make(chan struct{})}
	p := NewProducerWithWriter(w, 1, nil)
	p.Start()

	for i := 0; i < 10; i++ {
		p.Publish([]byte("k"), []byte("v"))
	}
	close(w.release)
	p.Close()
	p.WaitClosed()

	assert.LessOrEqual(t, len(w.msgs), 2)
	assert.GreaterOrEqual(t, len(w.msgs), 1)
}

func TestProducer_WriteErrorsAreSwallowed(t *testing.T) {
	w := &fakeWriter{fail: true}
	p := NewProducerWithWriter(w, 4, nil)
	p.Start()
	p.Publish([]byte("k"), []byte("v"))
	p.Close()
	p.WaitClosed()

	assert.Empty(t, w.msgs)
	assert.True(t, w.closed)
}

func TestUnwrapPayload(t *testing.T) {
	type payload struct {
		ID string `json:"id"`
	}
	got, err := UnwrapPayload[payload](MustMarshal(payload{ID: "n1"}))
	require.NoError(t, err)
	assert.Equal(t, "n1", got.ID)

	_, err = UnwrapPayload[payload]([]byte("{"))
	assert.Error(t, err)
}
