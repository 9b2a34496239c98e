package logging

// ProgressSampler suppresses repetitive progress logs for long migrations,
// emitting only when the completed fraction crosses a bucket boundary.
type ProgressSampler struct {
	bucketPercent int
	lastBucket    int
}

// NewProgressSampler constructs a sampler that emits each time progress
// crosses a multiple of bucketPercent (default 10%).
func NewProgressSampler(bucketPercent int) *ProgressSampler {
	if bucketPercent <= 0 || bucketPercent > 100 {
		bucketPercent = 10
	}
	return &ProgressSampler{bucketPercent: bucketPercent, lastBucket: -1}
}

// ShouldLog reports whether progress of done out of total should be logged.
// An unknown total (<= 0) never logs.
func (s *ProgressSampler) ShouldLog(done, total int) bool {
	if s == nil {
		return true
	}
	if total <= 0 {
		return false
	}
	if done > total {
		done = total
	}
	bucket := done * 100 / total / s.bucketPercent
	if bucket <= s.lastBucket {
		return false
	}
	s.lastBucket = bucket
	return true
}

// Reset clears the sampler state when a new task starts.
func (s *ProgressSampler) Reset() {
	if s == nil {
		return
	}
	s.lastBucket = -1
}
