package pipeline

import "time"

// Timestamp проставляет RequestTime
type Timestamp struct {
	now func() time.Time
}

func NewTimestamp(now func() time.Time) *Timestamp {
	if now == nil {
		now = time.Now
	}
	return &Timestamp{now: now}
}

func (t *Timestamp) Name() string { return "timestamp" }

func (t *Timestamp) Process(rc *RequestContext) Outcome {
	rc.RequestTime = t.now()
	return Continue()
}
