package app_test

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/leadsmith/leadsmith/internal/app"
	"github.com/leadsmith/leadsmith/internal/campaign"
	"github.com/leadsmith/leadsmith/internal/mailer"
)

type recordingSender struct {
	mu         sync.Mutex
	recipients []string
}

func (r *recordingSender) Send(_ context.Context, _ mailer.Credentials, recipient string, _ mailer.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.recipients = append(r.recipients, recipient)
	return nil
}

func TestSendCampaign_DispatchesTable(t *testing.T) {
	t.Parallel()

	table := filepath.Join(t.TempDir(), "recipients.csv")
	body := "name;company;email\nAda;Acme;ada@acme.example\nBob;Beta;bob@beta.example\n"
	if err := os.WriteFile(table, []byte(body), 0o644); err != nil {
		t.Fatalf("write table: %v", err)
	}

	sender := &recordingSender{}
	trig := &campaign.Trigger{
		Creds:     mailer.Credentials{Address: "sender@corp.example", Password: "pw"},
		Msg:       mailer.Message{Subject: "Hello", Body: "Body"},
		TablePath: table,
	}

	out, err := app.SendCampaign(context.Background(), trig, sender, nil)
	if err != nil {
		t.Fatalf("send campaign: %v", err)
	}
	if out.Sent != 2 || out.Failed != 0 || out.Skipped != 0 {
		t.Fatalf("unexpected outcome: %#v", out)
	}
	if len(sender.recipients) != 2 || sender.recipients[0] != "ada@acme.example" {
		t.Fatalf("unexpected recipients: %#v", sender.recipients)
	}
}

func TestSendCampaign_MissingTable(t *testing.T) {
	t.Parallel()

	trig := &campaign.Trigger{
		Creds:     mailer.Credentials{Address: "sender@corp.example", Password: "pw"},
		Msg:       mailer.Message{Subject: "Hello", Body: "Body"},
		TablePath: filepath.Join(t.TempDir(), "absent.csv"),
	}
	if _, err := app.SendCampaign(context.Background(), trig, &recordingSender{}, nil); err == nil {
		t.Fatal("expected an error for a missing table")
	}
}
