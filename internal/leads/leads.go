package leads

// Record is a business with at least one surviving extracted address.
type Record struct {
	CompanyName string
	Website     string
	Emails      []string
}

// Batch is an ordered sequence of records, insertion order = discovery
// order. The same website discovered under two queries yields two records;
// there is no cross-record dedup.
type Batch struct {
	records []Record
}

// Append adds a record unless its email set is empty. Sites with zero
// surviving addresses are excluded from the aggregate, not emitted as
// empty rows.
func (b *Batch) Append(companyName, website string, emails []string) {
	if len(emails) == 0 {
		return
	}
	b.records = append(b.records, Record{
		CompanyName: companyName,
		Website:     website,
		Emails:      emails,
	})
}

// Records returns the batch contents in discovery order.
func (b *Batch) Records() []Record {
	return b.records
}

// Len reports the number of records.
func (b *Batch) Len() int {
	return len(b.records)
}
