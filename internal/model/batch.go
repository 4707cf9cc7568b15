package model

// Batch is the ordered accumulation of records extracted in one run.
// It is append-only and is flushed to the sink once at the end of the run.
type Batch struct {
	records []CaseRecord
}

// NewBatch returns an empty batch.
func NewBatch() *Batch {
	return &Batch{records: make([]CaseRecord, 0)}
}

// Append adds a record to the end of the batch.
func (b *Batch) Append(r CaseRecord) {
	b.records = append(b.records, r)
}

// Len returns the number of records in the batch.
func (b *Batch) Len() int {
	return len(b.records)
}

// Records returns a copy of the accumulated records in insertion order.
func (b *Batch) Records() []CaseRecord {
	out := make([]CaseRecord, len(b.records))
	copy(out, b.records)
	return out
}
