package trainer

import "time"

import "github.com/deephdc/demoapp/store"

// Resume marks the runs a previous process left running as failed, since
// nothing executes them anymore. It returns how many were marked.
func (m *Manager) Resume() (int, error) {
	runs, err := m.store.List()
	if err != nil {
		return 0, err
	}
	var n int
	for _, t := range runs {
		if t.Status != store.Running {
			continue
		}
		m.mu.Lock()
		_, executing := m.runs[t.UUID]
		m.mu.Unlock()
		if executing {
			continue
		}
		now := time.Now().UTC()
		t.Status = store.Failed
		t.Error = "interrupted by a restart"
		t.Finished = &now
		if err := m.store.Put(t); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}
