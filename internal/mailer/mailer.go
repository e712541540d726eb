package mailer

import (
	"context"
	"encoding/csv"
	"io"
	"log"
	"strings"

	"github.com/leadsmith/leadsmith/pkg/pipeline/redact"
)

// defaultEmailColumn is the recipient-address position in the table
// (0-indexed) when the header does not name an email column.
const defaultEmailColumn = 2

// Credentials is the sender address/secret pair used for SMTP auth.
type Credentials struct {
	Address  string
	Password string
}

// Message is the approved subject and draft body for one campaign.
type Message struct {
	Subject string
	Body    string
}

// Outcome tallies one dispatch run. Malformed rows count in Skipped and in
// neither of the other two.
type Outcome struct {
	Sent    int
	Failed  int
	Skipped int
}

// Processed reports how many well-formed rows were attempted.
func (o Outcome) Processed() int {
	return o.Sent + o.Failed
}

// Sender delivers one message over a fresh, independently authenticated
// transport session.
type Sender interface {
	Send(ctx context.Context, creds Credentials, recipient string, msg Message) error
}

// Mailer drives the per-row dispatch loop over a recipient table.
type Mailer struct {
	Sender Sender
	Logger *log.Logger
}

// Dispatch reads a ';'-delimited recipient table (first row is a header and
// is skipped) and attempts one send per well-formed row. A send failure
// increments Failed and the loop continues; a row with too few columns is
// skipped with a diagnostic and counted in neither tally.
func (m *Mailer) Dispatch(ctx context.Context, creds Credentials, msg Message, table io.Reader) (Outcome, error) {
	var out Outcome

	cr := csv.NewReader(table)
	cr.Comma = ';'
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return out, nil
	}
	if err != nil {
		return out, err
	}
	emailIdx := resolveEmailColumn(header)

	for line := 2; ; line++ {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return out, err
		}
		if err := ctx.Err(); err != nil {
			return out, err
		}

		if len(row) <= emailIdx {
			m.logf("row %d has %d columns, need at least %d, skipping", line, len(row), emailIdx+1)
			out.Skipped++
			continue
		}

		recipient := strings.TrimSpace(row[emailIdx])
		if err := m.Sender.Send(ctx, creds, recipient, msg); err != nil {
			m.logf("send to %s failed: %s", recipient, redact.Secrets(err.Error()))
			out.Failed++
			continue
		}
		out.Sent++
	}

	m.logf("dispatch complete: processed=%d sent=%d failed=%d skipped=%d",
		out.Processed(), out.Sent, out.Failed, out.Skipped)
	return out, nil
}

// resolveEmailColumn prefers a header cell named "email"; otherwise the
// fixed position the table contract specifies.
func resolveEmailColumn(header []string) int {
	for i, col := range header {
		if strings.EqualFold(strings.TrimSpace(col), "email") {
			return i
		}
	}
	return defaultEmailColumn
}

func (m *Mailer) logf(format string, args ...any) {
	if m.Logger != nil {
		m.Logger.Printf(format, args...)
	}
}
