package models

import "time"

// UploadRecord is the durable record of one upload attempt. A record is
// created with StatusInProgress the moment an attempt begins and updated
// exactly once more, to a terminal status. Records are never deleted.
type UploadRecord struct {
	ID       string
	Owner    string
	Filename string

	// Status is one of common.StatusInProgress, StatusSuccess, StatusFailed.
	Status string

	// SizeBytes is set only on the transition to SUCCESS.
	SizeBytes int64

	// ErrorMessage is set only on the transition to FAILED.
	ErrorMessage string

	// UploadTime is the creation timestamp (UTC), immutable.
	UploadTime time.Time
}
