package leads

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

// ArtifactName is the fixed filename the export is delivered under.
const ArtifactName = "companies.csv"

// emailSeparator joins the addresses inside the one Emails field.
const emailSeparator = ", "

// Header returns the stable CSV header for the export artifact.
func Header() []string {
	return []string{"Company Name", "Website", "Emails"}
}

// WriteCSV serializes the batch with the stable Header() ordering.
func WriteCSV(w io.Writer, b *Batch) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header()); err != nil {
		return err
	}
	for _, r := range b.Records() {
		if err := cw.Write([]string{
			r.CompanyName,
			r.Website,
			strings.Join(r.Emails, emailSeparator),
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadCSV reimports an export artifact. Round-tripping preserves
// (name, website, email set) up to the comma-joining of addresses.
func ReadCSV(r io.Reader) (*Batch, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	want := Header()
	if len(header) < len(want) {
		return nil, fmt.Errorf("header has %d columns, want %d", len(header), len(want))
	}
	for i, name := range want {
		if strings.TrimSpace(header[i]) != name {
			return nil, fmt.Errorf("header[%d] = %q, want %q", i, header[i], name)
		}
	}

	var b Batch
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			return &b, nil
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		if len(rec) < len(want) {
			return nil, fmt.Errorf("row has %d columns, want %d", len(rec), len(want))
		}
		var emails []string
		for _, e := range strings.Split(rec[2], emailSeparator) {
			if e = strings.TrimSpace(e); e != "" {
				emails = append(emails, e)
			}
		}
		b.Append(rec[0], rec[1], emails)
	}
}
