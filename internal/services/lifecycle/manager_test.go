package lifecycle

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShutdownRunsStagesInReverseOrder(t *testing.T) {
	m := New(time.Second, nil)

	var order []string
	for _, name := range []string{"first", "second", "third"} {
		name := name
		m.Register(name, func(context.Context) error {
			order = append(order, name)
			return nil
		})
	}

	require.NoError(t, m.Shutdown(context.Background()))
	assert.Equal(t, []string{"third", "second", "first"}, order)
}

func TestShutdownCollectsFailuresWithoutStopping(t *testing.T) {
	m := New(time.Second, nil)

	var ran []string
	m.Register("ok", func(context.Context) error {
		ran = append(ran, "ok")
		return nil
	})
	m.Register("broken", func(context.Context) error {
		ran = append(ran, "broken")
		return assert.AnError
	})

	err := m.Shutdown(context.Background())
	assert.ErrorIs(t, err, assert.AnError)
	assert.Equal(t, []string{"broken", "ok"}, ran)
}

func TestShutdownAppliesDeadline(t *testing.T) {
	m := New(50*time.Millisecond, nil)

	var sawDeadline bool
	m.Register("deadline-check", func(ctx context.Context) error {
		_, sawDeadline = ctx.Deadline()
		return nil
	})

	require.NoError(t, m.Shutdown(context.Background()))
	assert.True(t, sawDeadline)
}

func TestRegisterIgnoresNilStops(t *testing.T) {
	m := New(time.Second, nil)
	m.Register("noop", nil)
	require.NoError(t, m.Shutdown(context.Background()))
}
