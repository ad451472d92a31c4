package houghvoting

import (
	"context"
	"sort"
	"sync"

	"github.com/samber/lo"

	"go.viam.com/houghvoting/utils"
)

// HypothesisPool holds the surviving hypotheses of every class. Insertion and pruning are safe to
// call concurrently.
type HypothesisPool struct {
	mu      sync.Mutex
	byClass map[int][]*Hypothesis
	nextSeq int
}

// NewHypothesisPool returns an empty pool.
func NewHypothesisPool() *HypothesisPool {
	return &HypothesisPool{byClass: map[int][]*Hypothesis{}}
}

// Insert adds h to its class. Insertion order is remembered for tie breaking.
func (p *HypothesisPool) Insert(h *Hypothesis) {
	p.mu.Lock()
	defer p.mu.Unlock()
	h.seq = p.nextSeq
	p.nextSeq++
	p.byClass[h.ClassID] = append(p.byClass[h.ClassID], h)
}

// Classes returns the classes holding at least one hypothesis in increasing order.
func (p *HypothesisPool) Classes() []int {
	p.mu.Lock()
	defer p.mu.Unlock()
	ids := lo.Keys(lo.OmitBy(p.byClass, func(_ int, hs []*Hypothesis) bool { return len(hs) == 0 }))
	sort.Ints(ids)
	return ids
}

// Hypotheses returns a copy of the hypotheses of classID.
func (p *HypothesisPool) Hypotheses(classID int) []*Hypothesis {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]*Hypothesis(nil), p.byClass[classID]...)
}

// Len is the total number of hypotheses.
func (p *HypothesisPool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, hs := range p.byClass {
		n += len(hs)
	}
	return n
}

// WorkingSet returns every hypothesis that still needs work: all members of classes with more than
// one hypothesis, and lone survivors refined fewer than minRefinements times. The result is ordered
// by class, then by position in the class.
func (p *HypothesisPool) WorkingSet(minRefinements int) []*Hypothesis {
	var working []*Hypothesis
	for _, classID := range p.Classes() {
		hs := p.Hypotheses(classID)
		if len(hs) > 1 || hs[0].RefSteps < minRefinements {
			working = append(working, hs...)
		}
	}
	return working
}

// Prune keeps the better ceil(N/2) of the N hypotheses of classID. Hypotheses are ranked by inlier
// count descending, then pixel budget ascending, then insertion order. A lone hypothesis is kept.
func (p *HypothesisPool) Prune(classID int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	hs := p.byClass[classID]
	if len(hs) <= 1 {
		return
	}
	sort.Slice(hs, func(i, j int) bool {
		a, b := hs[i], hs[j]
		if a.Inliers != b.Inliers {
			return a.Inliers > b.Inliers
		}
		if a.MaxPixels != b.MaxPixels {
			return a.MaxPixels < b.MaxPixels
		}
		return a.seq < b.seq
	})
	keep := utils.CeilDiv(len(hs), 2)
	for i := keep; i < len(hs); i++ {
		hs[i] = nil
	}
	p.byClass[classID] = hs[:keep]
}

// PruneAll prunes every class in parallel.
func (p *HypothesisPool) PruneAll(ctx context.Context) error {
	classes := p.Classes()
	return utils.ParallelForEach(ctx, len(classes), func(workNum int) {
		p.Prune(classes[workNum])
	})
}

// Finals returns one hypothesis per class in class order. It is meant for a converged pool; for
// classes still holding several hypotheses the first ranked is returned.
func (p *HypothesisPool) Finals() []*Hypothesis {
	classes := p.Classes()
	finals := make([]*Hypothesis, 0, len(classes))
	for _, classID := range classes {
		finals = append(finals, p.Hypotheses(classID)[0])
	}
	return finals
}
