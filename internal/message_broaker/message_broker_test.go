package message_broaker

import (
	"context"
	"testing"
	"time"

	"github.com/RezaEskandarii/gohire/types/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessageBrokerInterface(t *testing.T) {
	var _ MessageBroker = (*RabbitMQ)(nil)
	var _ MessageBroker = (*InMemory)(nil)
}

func TestInMemory_PublishConsume(t *testing.T) {
	broker := NewInMemory(10)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, broker.Publish(ctx, "gohire.operations", []byte("1")))
	require.NoError(t, broker.Publish(ctx, "gohire.operations", []byte("2")))
	require.NoError(t, broker.Publish(ctx, "gohire.notifications", []byte("other")))

	ch, err := broker.Consume(ctx, "gohire.operations")
	require.NoError(t, err)

	var got []string
	for i := 0; i < 2; i++ {
		select {
		case msg := <-ch:
			got = append(got, string(msg))
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for message")
		}
	}
	assert.Equal(t, []string{"1", "2"}, got)

	cancel()
	_, open := <-ch
	assert.False(t, open, "consumer channel closes with its context")
}

func TestInMemory_Closed(t *testing.T) {
	broker := NewInMemory(1)
	require.NoError(t, broker.Close())
	assert.Error(t, broker.Publish(context.Background(), "q", []byte("x")))
}

func TestNewRabbitMQ_RequiresURLAndQueue(t *testing.T) {
	_, err := NewRabbitMQ(config.RabbitMQConfig{})
	assert.Error(t, err)
}
