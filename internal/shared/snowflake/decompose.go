package snowflake

import "time"

// Decomposed is the field view of an identifier.
type Decomposed struct {
	// Timestamp is milliseconds since the Unix epoch.
	Timestamp int64  `json:"timestamp"`
	WorkerID  uint16 `json:"worker_id"`
	Sequence  uint16 `json:"sequence"`
}

// Time returns Timestamp as a UTC time.
func (d Decomposed) Time() time.Time {
	return time.UnixMilli(d.Timestamp).UTC()
}

// Decompose splits id into its fields. epoch must be the one the id was
// generated with, otherwise Timestamp is shifted by the difference.
func Decompose(id, epoch int64) (Decomposed, error) {
	if id < 0 {
		return Decomposed{}, ErrNegativeIdentifier
	}

	return Decomposed{
		Timestamp: (id >> TimestampShift) + epoch,
		WorkerID:  uint16((id >> WorkerIDShift) & MaxWorkerID),
		Sequence:  uint16(id & MaxSequence),
	}, nil
}
