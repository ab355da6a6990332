package geofence

import (
	"time"

	"github.com/intel/rsp-sw-toolkit-im-suite-utilities/go-metrics"

	"github.com/deepseaguard/compliance-engine/app/zones"
)

// Evaluator answers which zones a position falls inside. Candidates come from
// the store's current index snapshot; each candidate then gets the exact
// containment test, so the answer is independent of index granularity.
type Evaluator struct {
	store *zones.Store
}

func NewEvaluator(store *zones.Store) *Evaluator {
	return &Evaluator{store: store}
}

// Evaluate returns every zone whose geometry contains the position, ordered
// as the snapshot orders them (by zone id). The snapshot is held for the
// whole evaluation, so a concurrent zone reload cannot produce a half-old,
// half-new answer.
func (e *Evaluator) Evaluate(p Position) []*zones.Zone {
	mEvalLatency := metrics.GetOrRegisterTimer(`Geofence.Evaluate.Latency`, nil)
	evalTimer := time.Now()

	pt := p.Point()
	snapshot := e.store.Current()

	var matched []*zones.Zone
	for _, zone := range snapshot.Candidates(pt) {
		if zone.Contains(pt) {
			matched = append(matched, zone)
		}
	}

	mEvalLatency.Update(time.Since(evalTimer))
	return matched
}
