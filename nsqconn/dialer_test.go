package nsqconn

import (
	"math"
	"testing"
	"time"

	"github.com/arloliu/subwire/types"
	"github.com/nsqio/go-nsq"
	"github.com/stretchr/testify/require"
)

func TestNewDialer(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		d := NewDialer()
		require.NotNil(t, d.logger)
		require.Equal(t, nsq.LogLevelInfo, d.logLevel)
		require.True(t, d.lookupd)
	})

	t.Run("options", func(t *testing.T) {
		d := NewDialer(WithoutLookupd(), WithLogLevel(nsq.LogLevelError), WithLogger(nil))
		require.NotNil(t, d.logger)
		require.Equal(t, nsq.LogLevelError, d.logLevel)
		require.False(t, d.lookupd)
	})
}

func TestDialer_ConsumerConfig(t *testing.T) {
	t.Run("applies target settings", func(t *testing.T) {
		cfg := NewDialer().consumerConfig(types.Target{
			MessageTimeout: 30 * time.Second,
			MaxInFlight:    8,
			MaxAttempts:    3,
		})

		require.Equal(t, 30*time.Second, cfg.MsgTimeout)
		require.Equal(t, 8, cfg.MaxInFlight)
		require.Equal(t, uint16(3), cfg.MaxAttempts)
	})

	t.Run("keeps go-nsq defaults for zero values", func(t *testing.T) {
		defaults := nsq.NewConfig()
		cfg := NewDialer().consumerConfig(types.Target{})

		require.Equal(t, defaults.MsgTimeout, cfg.MsgTimeout)
		require.Equal(t, defaults.MaxInFlight, cfg.MaxInFlight)
		require.Equal(t, defaults.MaxAttempts, cfg.MaxAttempts)
	})

	t.Run("clamps max attempts", func(t *testing.T) {
		cfg := NewDialer().consumerConfig(types.Target{MaxAttempts: math.MaxUint16 + 10})
		require.Equal(t, uint16(math.MaxUint16), cfg.MaxAttempts)
	})

	t.Run("custom configuration runs last", func(t *testing.T) {
		d := NewDialer(WithConfig(func(cfg *nsq.Config) {
			cfg.MaxInFlight = 100
		}))

		cfg := d.consumerConfig(types.Target{MaxInFlight: 2})
		require.Equal(t, 100, cfg.MaxInFlight)
	})
}

func TestDialer_Dial(t *testing.T) {
	d := NewDialer()

	t.Run("returns an unconnected connection", func(t *testing.T) {
		conn, err := d.Dial(types.Target{Topic: "orders", Channel: "billing", DataAddress: "127.0.0.1:4150"})
		require.NoError(t, err)
		require.IsType(t, &Connection{}, conn)
		require.NoError(t, conn.Close())
	})

	t.Run("rejects invalid names", func(t *testing.T) {
		_, err := d.Dial(types.Target{Topic: "bad topic", Channel: "c"})
		require.Error(t, err)
		require.Contains(t, err.Error(), "failed to create nsq consumer")
	})
}
