package luminous

import "encoding/json"

// IncludedRecord is one side-loaded related record from a response's
// "included" array. Only the identifying fields are decoded eagerly; the full
// record is available through Decode.
type IncludedRecord struct {
	ID   string
	Type string

	raw json.RawMessage
}

// UnmarshalJSON captures the record's id and type and retains the raw bytes.
func (r *IncludedRecord) UnmarshalJSON(b []byte) error {
	var head struct {
		ID   string `json:"id"`
		Type string `json:"type"`
	}
	if err := json.Unmarshal(b, &head); err != nil {
		return err
	}
	r.ID = head.ID
	r.Type = head.Type
	r.raw = append(r.raw[:0], b...)
	return nil
}

// MarshalJSON round-trips the record's original bytes.
func (r IncludedRecord) MarshalJSON() ([]byte, error) {
	if r.raw == nil {
		return json.Marshal(map[string]string{"id": r.ID, "type": r.Type})
	}
	return r.raw, nil
}

// Decode unmarshals the full record into v.
func (r IncludedRecord) Decode(v any) error {
	return json.Unmarshal(r.raw, v)
}

// FindIncluded returns the first included record with the given id. When typ
// is non-empty the type must match as well.
func FindIncluded(included []IncludedRecord, id, typ string) (IncludedRecord, bool) {
	for _, rec := range included {
		if rec.ID != id {
			continue
		}
		if typ != "" && rec.Type != typ {
			continue
		}
		return rec, true
	}
	return IncludedRecord{}, false
}

// FilterIncluded returns every included record of the given type, preserving
// order.
func FilterIncluded(included []IncludedRecord, typ string) []IncludedRecord {
	var out []IncludedRecord
	for _, rec := range included {
		if rec.Type == typ {
			out = append(out, rec)
		}
	}
	return out
}
