package anchors

import "sort"

// Bucket labels used to grade anchor diversity.
const (
	BucketLow    = "1-6"
	BucketMedium = "7-10"
	BucketHigh   = "11+"
)

// DiversityBucket grades a count of distinct anchors.
func DiversityBucket(n int) string {
	switch {
	case n <= 6:
		return BucketLow
	case n <= 10:
		return BucketMedium
	}
	return BucketHigh
}

// TargetAnchors pairs a target with its number of distinct anchors.
type TargetAnchors struct {
	URL      string `json:"url"`
	Distinct int    `json:"distinct"`
}

// DistinctCount is one histogram bar: URLs targets have Distinct anchors.
type DistinctCount struct {
	Distinct int    `json:"distinct"`
	URLs     int    `json:"urls"`
	Bucket   string `json:"bucket"`
}

// Distribution summarises anchor diversity across targets.
type Distribution struct {
	AvgDistinct float64         `json:"avg_distinct"`
	Histogram   []DistinctCount `json:"histogram"`
	Buckets     map[string]int  `json:"buckets"` // bucket label -> number of URLs
	Targets     []TargetAnchors `json:"targets"` // most diverse first
}

// Summarize computes the anchor distribution of a set of profiles.
func Summarize(profiles map[string]*Profile) Distribution {
	d := Distribution{Buckets: map[string]int{BucketLow: 0, BucketMedium: 0, BucketHigh: 0}}
	if len(profiles) == 0 {
		return d
	}

	hist := make(map[int]int)
	total := 0
	for url, p := range profiles {
		n := p.Distinct()
		d.Targets = append(d.Targets, TargetAnchors{URL: url, Distinct: n})
		hist[n]++
		d.Buckets[DiversityBucket(n)]++
		total += n
	}
	d.AvgDistinct = float64(total) / float64(len(profiles))

	sort.Slice(d.Targets, func(i, j int) bool {
		if d.Targets[i].Distinct != d.Targets[j].Distinct {
			return d.Targets[i].Distinct > d.Targets[j].Distinct
		}
		return d.Targets[i].URL < d.Targets[j].URL
	})
	for n, c := range hist {
		d.Histogram = append(d.Histogram, DistinctCount{Distinct: n, URLs: c, Bucket: DiversityBucket(n)})
	}
	sort.Slice(d.Histogram, func(i, j int) bool { return d.Histogram[i].Distinct < d.Histogram[j].Distinct })
	return d
}

// Top returns at most limit of the most diverse targets.
func (d Distribution) Top(limit int) []TargetAnchors {
	if limit <= 0 || limit >= len(d.Targets) {
		return d.Targets
	}
	return d.Targets[:limit]
}
