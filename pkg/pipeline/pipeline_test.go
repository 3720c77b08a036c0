package pipeline

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNotifyOrder(t *testing.T) {
	var n Notifier[int]
	var got []string

	n.Subscribe(SinkFunc[int](func(v int) error {
		got = append(got, fmt.Sprintf("a%d", v))
		return nil
	}))
	n.Subscribe(SinkFunc[int](func(v int) error {
		got = append(got, fmt.Sprintf("b%d", v))
		return nil
	}))

	require.NoError(t, n.Notify(1))
	require.NoError(t, n.Notify(2))
	require.Equal(t, []string{"a1", "b1", "a2", "b2"}, got)
}

func TestNotifyStopsOnError(t *testing.T) {
	var n Notifier[int]
	reached := false

	n.Subscribe(SinkFunc[int](func(_ int) error {
		return fmt.Errorf("sink failed")
	}))
	n.Subscribe(SinkFunc[int](func(_ int) error {
		reached = true
		return nil
	}))

	require.EqualError(t, n.Notify(1), "sink failed")
	require.False(t, reached)
}
