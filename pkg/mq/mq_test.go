package mq

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryQueue(t *testing.T) {
	t.Run("publish delivers to subscribers", func(t *testing.T) {
		q := NewInMemoryQueue()

		var got []string
		require.NoError(t, q.Subscribe("events", func(msg []byte) error {
			got = append(got, string(msg))
			return nil
		}))

		require.NoError(t, q.Publish("events", []byte("one")))
		require.NoError(t, q.Publish("other", []byte("two")))

		assert.Equal(t, []string{"one"}, got)
		assert.Len(t, q.GetMessages("events"), 1)
		assert.Len(t, q.GetMessages("other"), 1)
	})

	t.Run("handler error is returned", func(t *testing.T) {
		q := NewInMemoryQueue()
		boom := errors.New("boom")
		require.NoError(t, q.Subscribe("events", func([]byte) error { return boom }))

		assert.ErrorIs(t, q.Publish("events", []byte("x")), boom)
	})

	t.Run("closed queue rejects", func(t *testing.T) {
		q := NewInMemoryQueue()
		require.NoError(t, q.Close())

		assert.ErrorIs(t, q.Publish("events", []byte("x")), ErrClosed)
		assert.ErrorIs(t, q.Subscribe("events", func([]byte) error { return nil }), ErrClosed)
	})

	t.Run("concurrent publish", func(t *testing.T) {
		q := NewInMemoryQueue()

		var wg sync.WaitGroup
		for i := 0; i < 32; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_ = q.Publish("events", []byte("x"))
			}()
		}
		wg.Wait()

		assert.Len(t, q.GetMessages("events"), 32)
	})
}

func TestKafkaConfigValidate(t *testing.T) {
	valid := KafkaConfig{
		Enabled:     true,
		Brokers:     []string{"localhost:9092"},
		EventsTopic: "skyroute.events",
		Consumers: []ConsumerConfig{
			{Name: "ingest", Group: "skyroute-ingest", Topics: []string{"skyroute.commands"}},
		},
	}
	require.NoError(t, valid.Validate())

	disabled := KafkaConfig{}
	assert.NoError(t, disabled.Validate())

	tests := map[string]func(*KafkaConfig){
		"no brokers":     func(c *KafkaConfig) { c.Brokers = nil },
		"no group":       func(c *KafkaConfig) { c.Consumers[0].Group = "" },
		"no topics":      func(c *KafkaConfig) { c.Consumers[0].Topics = nil },
		"bad offset":     func(c *KafkaConfig) { c.Consumers[0].Offset = "latest" },
		"consume events": func(c *KafkaConfig) { c.Consumers[0].Topics = []string{"skyroute.events"} },
	}
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			cfg := valid
			cfg.Consumers = append([]ConsumerConfig(nil), valid.Consumers...)
			mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
