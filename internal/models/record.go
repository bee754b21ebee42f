package models

import "encoding/json"

// Record is a synchronized domain object (customer, invoice, payment, ...).
// Records are schemaless on the client: the hosted backend owns the column
// set, the client only cares about identity and scoping fields.
type Record map[string]any

// ID returns the record's globally unique id, or "" if absent.
func (r Record) ID() string {
	return r.stringField("id")
}

// CompanyID returns the owning tenant id, or "" if absent.
func (r Record) CompanyID() string {
	return r.stringField("company_id")
}

// InvoiceID returns the owning invoice id (line items only), or "" if absent.
func (r Record) InvoiceID() string {
	return r.stringField("invoice_id")
}

func (r Record) stringField(key string) string {
	v, ok := r[key]
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}

// Marshal serializes the record to JSON for durable storage or the wire.
func (r Record) Marshal() ([]byte, error) {
	return json.Marshal(r)
}

// UnmarshalRecord parses a JSON payload into a Record.
func UnmarshalRecord(data []byte) (Record, error) {
	var r Record
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, err
	}
	return r, nil
}
