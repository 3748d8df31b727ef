package ledger

import (
	"context"
	"time"
)

// Oracle reports a best-effort, momentary online/offline signal by probing
// the ledger service. Callers must not assume the signal remains valid
// beyond the immediate call.
type Oracle struct {
	client  Client
	timeout time.Duration
}

// NewOracle creates an oracle probing through the given client. A zero
// timeout defaults to 3 seconds.
func NewOracle(client Client, timeout time.Duration) *Oracle {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &Oracle{client: client, timeout: timeout}
}

// Online probes the ledger with a short timeout. Any error, including
// timeout, degrades to offline; the probe never fails loudly.
func (o *Oracle) Online(ctx context.Context) bool {
	probeCtx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()
	return o.client.ProbeConnectivity(probeCtx) == nil
}
