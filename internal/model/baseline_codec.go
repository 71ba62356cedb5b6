package model

import "encoding/json"

// JSON codecs for baseline persistence. The wire shape is explicit so the
// unexported Welford and signature state survives a round trip.

type runningStatsJSON struct {
	Count int64   `json:"count"`
	Mean  float64 `json:"mean"`
	M2    float64 `json:"m2"`
}

// MarshalJSON encodes the full Welford state.
func (s *RunningStats) MarshalJSON() ([]byte, error) {
	return json.Marshal(runningStatsJSON{Count: s.Count, Mean: s.Mean, M2: s.m2})
}

// UnmarshalJSON restores the full Welford state.
func (s *RunningStats) UnmarshalJSON(data []byte) error {
	var raw runningStatsJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	s.Count = raw.Count
	s.Mean = raw.Mean
	s.m2 = raw.M2
	return nil
}

type userBaselineJSON struct {
	VendorStats     map[string]*RunningStats `json:"vendor_stats"`
	CategoryStats   map[string]*RunningStats `json:"category_stats"`
	VendorFrequency map[string]int64         `json:"vendor_frequency"`
	Signatures      []uint64                 `json:"signatures"` // oldest first
	Retention       int                      `json:"retention"`
	TotalCount      int64                    `json:"total_count"`
}

// MarshalJSON encodes the baseline including signature arrival order.
func (b *UserBaseline) MarshalJSON() ([]byte, error) {
	return json.Marshal(userBaselineJSON{
		VendorStats:     b.VendorStats,
		CategoryStats:   b.CategoryStats,
		VendorFrequency: b.VendorFrequency,
		Signatures:      b.sigQueue,
		Retention:       b.sigRetention,
		TotalCount:      b.totalCount,
	})
}

// UnmarshalJSON restores a persisted baseline.
func (b *UserBaseline) UnmarshalJSON(data []byte) error {
	var raw userBaselineJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*b = *NewUserBaseline(raw.Retention)
	if raw.VendorStats != nil {
		b.VendorStats = raw.VendorStats
	}
	if raw.CategoryStats != nil {
		b.CategoryStats = raw.CategoryStats
	}
	if raw.VendorFrequency != nil {
		b.VendorFrequency = raw.VendorFrequency
	}
	for _, sig := range raw.Signatures {
		b.addSignature(sig)
	}
	b.totalCount = raw.TotalCount
	return nil
}
