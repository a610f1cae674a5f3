package realtime

import (
	"context"
	"time"
)

// Snapshot is one consistent sample of the coordinator's observable state.
// All fields are read under a single lock so a snapshot is never torn.
type Snapshot struct {
	ConnectionState ConnectionState `json:"connectionState"`
	CallState       CallState       `json:"callState"`
	Session         *Session        `json:"session,omitempty"`
	Muted           bool            `json:"isMuted"`
	Volume          float64         `json:"volume"`
}

// Snapshot returns the current observable state.
func (c *Coordinator) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Snapshot{
		ConnectionState: c.connState,
		CallState:       c.callState,
		Session:         cloneSession(c.session),
		Muted:           c.muted,
		Volume:          c.volume,
	}
}

// Watch samples the coordinator at the given interval and delivers a
// snapshot whenever the observable state changed, plus the initial state.
// Staleness of up to one interval is accepted by design; transitions
// faster than the interval may collapse into one delivery. The channel
// closes when ctx is done.
func (c *Coordinator) Watch(ctx context.Context, interval time.Duration) <-chan Snapshot {
	if interval <= 0 {
		interval = 100 * time.Millisecond
	}
	out := make(chan Snapshot, 16)

	go func() {
		defer close(out)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		last := c.Snapshot()
		select {
		case out <- last:
		case <-ctx.Done():
			return
		}

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				snap := c.Snapshot()
				if !changed(last, snap) {
					continue
				}
				last = snap
				select {
				case out <- snap:
				case <-ctx.Done():
					return
				default:
					// A slow consumer keeps only the freshest sample.
					select {
					case <-out:
					default:
					}
					out <- snap
				}
			}
		}
	}()

	return out
}

func changed(a, b Snapshot) bool {
	if a.ConnectionState != b.ConnectionState || a.CallState != b.CallState {
		return true
	}
	if a.Muted != b.Muted || a.Volume != b.Volume {
		return true
	}
	aActive := a.Session != nil && a.Session.Active
	bActive := b.Session != nil && b.Session.Active
	return aActive != bActive
}
