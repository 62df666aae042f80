package observer

import "sync"

// knownAppsCap bounds the known-apps ring so a user who cycles through
// many short-lived apps doesn't grow the list unbounded.
const knownAppsCap = 50

// knownApps is a deduplicated, most-recent-first ring of foreground apps
// the observer has seen, surfaced so a user can populate blocked_apps
// without typing exact process names.
type knownApps struct {
	mu   sync.Mutex
	list []string
}

func newKnownApps() *knownApps {
	return &knownApps{}
}

func (k *knownApps) record(app string) {
	if app == "" {
		return
	}
	k.mu.Lock()
	defer k.mu.Unlock()

	for i, existing := range k.list {
		if existing == app {
			k.list = append(k.list[:i], k.list[i+1:]...)
			break
		}
	}
	k.list = append([]string{app}, k.list...)
	if len(k.list) > knownAppsCap {
		k.list = k.list[:knownAppsCap]
	}
}

func (k *knownApps) snapshot() []string {
	k.mu.Lock()
	defer k.mu.Unlock()
	out := make([]string, len(k.list))
	copy(out, k.list)
	return out
}
