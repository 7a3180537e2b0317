package core

import (
	"context"
	"maps"
	"slices"
	"time"
)

// Pinger is anything whose availability the health endpoint reports.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc adapts a function to Pinger.
type PingFunc func(ctx context.Context) error

func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

type ComponentStatus struct {
	Name    string `json:"name"`
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

type SystemStatus struct {
	Status        string            `json:"status"`
	UptimeSeconds int64             `json:"uptime_seconds"`
	Components    []ComponentStatus `json:"components"`
}

// CollectSystemStatus pings every dependency with a short deadline. Overall
// status is "ok" only when all of them answer.
func CollectSystemStatus(ctx context.Context, deps map[string]Pinger, startedAt time.Time) SystemStatus {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	st := SystemStatus{
		Status:        "ok",
		UptimeSeconds: int64(time.Since(startedAt).Seconds()),
		Components:    make([]ComponentStatus, 0, len(deps)),
	}
	for _, name := range slices.Sorted(maps.Keys(deps)) {
		cs := ComponentStatus{Name: name, Status: "connected"}
		if err := deps[name].Ping(ctx); err != nil {
			cs.Status = "disconnected"
			cs.Message = err.Error()
			st.Status = "error"
		}
		st.Components = append(st.Components, cs)
	}
	return st
}
