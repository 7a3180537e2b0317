package core

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectSystemStatus(t *testing.T) {
	up := PingFunc(func(context.Context) error { return nil })
	down := PingFunc(func(context.Context) error { return errors.New("dial tcp: refused") })

	st := CollectSystemStatus(context.Background(), map[string]Pinger{"redis": up, "database": up}, time.Now().Add(-time.Minute))
	assert.Equal(t, "ok", st.Status)
	assert.GreaterOrEqual(t, st.UptimeSeconds, int64(59))
	require.Len(t, st.Components, 2)
	assert.Equal(t, "database", st.Components[0].Name)
	assert.Equal(t, "redis", st.Components[1].Name)

	st = CollectSystemStatus(context.Background(), map[string]Pinger{"database": down}, time.Now())
	assert.Equal(t, "error", st.Status)
	require.Len(t, st.Components, 1)
	assert.Equal(t, "disconnected", st.Components[0].Status)
	assert.Contains(t, st.Components[0].Message, "refused")
}
