package model

import "math"

// StddevEpsilon is substituted when a vendor's variance is zero or based on a
// single observation, so threshold math never divides by zero.
const StddevEpsilon = 1e-9

// RunningStats tracks an online mean/variance over absolute amounts using
// Welford's algorithm.
type RunningStats struct {
	Count int64
	Mean  float64
	m2    float64 // sum of squared deviations
}

// Add folds one observation into the stats.
func (s *RunningStats) Add(x float64) {
	s.Count++
	delta := x - s.Mean
	s.Mean += delta / float64(s.Count)
	s.m2 += delta * (x - s.Mean)
}

// Variance returns the sample variance, or 0 with fewer than 2 observations.
func (s *RunningStats) Variance() float64 {
	if s.Count < 2 {
		return 0
	}
	return s.m2 / float64(s.Count-1)
}

// Stddev returns the sample standard deviation, floored at StddevEpsilon.
func (s *RunningStats) Stddev() float64 {
	sd := math.Sqrt(s.Variance())
	if sd < StddevEpsilon {
		return StddevEpsilon
	}
	return sd
}

// clone returns a copy safe to mutate independently.
func (s *RunningStats) clone() *RunningStats {
	cp := *s
	return &cp
}

// UserBaseline holds the running statistics for one user's committed
// transactions, in arrival order. Detectors always read the baseline as it
// stood before the transaction under evaluation was observed.
type UserBaseline struct {
	VendorStats     map[string]*RunningStats
	CategoryStats   map[string]*RunningStats
	VendorFrequency map[string]int64
	seenSigs        map[uint64]struct{}
	sigQueue        []uint64 // oldest first, for retention eviction
	sigRetention    int
	totalCount      int64
}

// NewUserBaseline returns an empty baseline whose signature set is bounded by
// retention entries (0 means unbounded).
func NewUserBaseline(retention int) *UserBaseline {
	return &UserBaseline{
		VendorStats:     make(map[string]*RunningStats),
		CategoryStats:   make(map[string]*RunningStats),
		VendorFrequency: make(map[string]int64),
		seenSigs:        make(map[uint64]struct{}),
		sigRetention:    retention,
	}
}

// Observe folds one transaction into the baseline.
func (b *UserBaseline) Observe(tx Transaction) {
	amt := tx.Amount.Abs().InexactFloat64()

	vs, ok := b.VendorStats[tx.NormalizedVendor]
	if !ok {
		vs = &RunningStats{}
		b.VendorStats[tx.NormalizedVendor] = vs
	}
	vs.Add(amt)

	cs, ok := b.CategoryStats[tx.Category]
	if !ok {
		cs = &RunningStats{}
		b.CategoryStats[tx.Category] = cs
	}
	cs.Add(amt)

	b.VendorFrequency[tx.NormalizedVendor]++
	b.totalCount++
	b.addSignature(tx.DuplicateSig)
}

// TotalCount returns the number of transactions observed into this baseline.
func (b *UserBaseline) TotalCount() int64 {
	return b.totalCount
}

// HasSignature reports whether the duplicate signature has been seen within
// the retention window.
func (b *UserBaseline) HasSignature(sig uint64) bool {
	_, ok := b.seenSigs[sig]
	return ok
}

// SignatureCount returns the number of retained signatures.
func (b *UserBaseline) SignatureCount() int {
	return len(b.seenSigs)
}

func (b *UserBaseline) addSignature(sig uint64) {
	if _, ok := b.seenSigs[sig]; ok {
		return
	}
	b.seenSigs[sig] = struct{}{}
	b.sigQueue = append(b.sigQueue, sig)
	if b.sigRetention > 0 && len(b.sigQueue) > b.sigRetention {
		oldest := b.sigQueue[0]
		b.sigQueue = b.sigQueue[1:]
		delete(b.seenSigs, oldest)
	}
}

// Clone returns a deep copy. Batch sessions stage their observations on a
// clone so an aborted batch leaks nothing into the committed baseline.
func (b *UserBaseline) Clone() *UserBaseline {
	cp := NewUserBaseline(b.sigRetention)
	for v, s := range b.VendorStats {
		cp.VendorStats[v] = s.clone()
	}
	for c, s := range b.CategoryStats {
		cp.CategoryStats[c] = s.clone()
	}
	for v, n := range b.VendorFrequency {
		cp.VendorFrequency[v] = n
	}
	for sig := range b.seenSigs {
		cp.seenSigs[sig] = struct{}{}
	}
	cp.sigQueue = append(cp.sigQueue, b.sigQueue...)
	cp.totalCount = b.totalCount
	return cp
}
