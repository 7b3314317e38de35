package storage

import (
	"encoding/json"
	"time"
)

// PadRecord is the pad as exchanged with the remote store. Envelope is the
// cipher output and is never decrypted outside the client.
type PadRecord struct {
	PadID      string `json:"pad_id"`
	Envelope   string `json:"envelope"`
	Version    int64  `json:"version"`
	ModifiedAt string `json:"modified_at"` // RFC 3339
}

// ToJSON serializes the record to JSON
func (r *PadRecord) ToJSON() ([]byte, error) {
	return json.Marshal(r)
}

// PadRecordFromJSON deserializes a record from JSON
func PadRecordFromJSON(data []byte) (*PadRecord, error) {
	var r PadRecord
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// GetModifiedAtTime parses the ModifiedAt timestamp
func (r *PadRecord) GetModifiedAtTime() (time.Time, error) {
	return time.Parse(time.RFC3339, r.ModifiedAt)
}

// SetModifiedAt sets the ModifiedAt timestamp
func (r *PadRecord) SetModifiedAt(t time.Time) {
	r.ModifiedAt = t.UTC().Format(time.RFC3339)
}

// NewerThan reports whether r was modified strictly after other. An
// unparsable timestamp counts as the zero time.
func (r *PadRecord) NewerThan(other *PadRecord) bool {
	mine, _ := r.GetModifiedAtTime()
	theirs, _ := other.GetModifiedAtTime()
	return mine.After(theirs)
}
