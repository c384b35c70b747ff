package pool

import (
	poolerrors "github.com/kbukum/whisperpool/errors"
	"github.com/kbukum/whisperpool/worker"
)

// selectable returns the workers currently eligible to receive a request:
// healthy, accepting, and not mid-replacement. The result is sorted by ID,
// so the order is stable across calls with an unchanged registry even
// though Go map iteration order is not.
func (m *Manager) selectable() []*worker.Handle {
	out := make([]*worker.Handle, 0, len(m.workers))
	for _, h := range m.workers {
		if h.State == worker.StateHealthy && h.AcceptingRequests && !h.Replacing {
			out = append(out, h)
		}
	}
	// Sort by ID for a deterministic round-robin order; the registry is
	// small enough that this is cheap on every dispatch.
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j].ID < out[j-1].ID; j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}

// SelectWorker returns the next worker in round-robin order among the
// currently selectable set, advancing the cursor. It returns
// NoHealthyWorker if the selectable set is empty.
func (m *Manager) SelectWorker() (*worker.Handle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	candidates := m.selectable()
	if len(candidates) == 0 {
		return nil, poolerrors.NoHealthyWorker()
	}
	if m.cursor >= len(candidates) {
		m.cursor = 0
	}
	h := candidates[m.cursor]
	m.cursor = (m.cursor + 1) % len(candidates)
	return h, nil
}
