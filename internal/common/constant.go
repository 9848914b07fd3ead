package common

// Upload status lifecycle. A record starts as StatusInProgress and is updated
// exactly once more, to StatusSuccess or StatusFailed.
const (
	StatusInProgress = "IN_PROGRESS"
	StatusSuccess    = "SUCCESS"
	StatusFailed     = "FAILED"
)
