package client

import (
	"github.com/puzpuzpuz/xsync/v3"

	"github.com/arloliu/go-director/director"
)

// statusCache holds the last known state of every output, keyed by the output wire token.
//
// It is filled by a status query and patched by mutations the device confirmed. Readers never take
// the exchange mutex.
type statusCache struct {
	outputs *xsync.MapOf[string, director.OutputStatus]
}

func newStatusCache() *statusCache {
	return &statusCache{outputs: xsync.NewMapOf[string, director.OutputStatus]()}
}

// replace stores every output of status.
func (sc *statusCache) replace(status *director.SystemStatus) {
	sc.outputs.Clear()
	for _, out := range status.Outputs() {
		sc.outputs.Store(out.Output.String(), out)
	}
}

// update applies fn to the cached state of out. Outputs not seen in a status report stay unknown.
func (sc *statusCache) update(out director.OutputID, fn func(*director.OutputStatus)) {
	sc.outputs.Compute(out.String(), func(old director.OutputStatus, loaded bool) (director.OutputStatus, bool) {
		if !loaded {
			return old, true
		}
		fn(&old)

		return old, false
	})
}

func (sc *statusCache) load(out director.OutputID) (director.OutputStatus, bool) {
	return sc.outputs.Load(out.String())
}

// snapshot returns the cached outputs in report order.
func (sc *statusCache) snapshot() []director.OutputStatus {
	result := make([]director.OutputStatus, 0, director.OutputCount)
	for _, out := range director.AllOutputs() {
		if st, ok := sc.load(out); ok {
			result = append(result, st)
		}
	}

	return result
}

func (sc *statusCache) clear() {
	sc.outputs.Clear()
}
