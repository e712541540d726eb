package app

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/leadsmith/leadsmith/internal/campaign"
	"github.com/leadsmith/leadsmith/internal/mailer"
)

// SendCampaign opens the trigger's recipient table and runs the dispatch
// loop to completion.
func SendCampaign(ctx context.Context, trig *campaign.Trigger, sender mailer.Sender, logger *log.Logger) (mailer.Outcome, error) {
	if logger == nil {
		logger = log.New(os.Stdout, "", log.LstdFlags)
	}
	runID := fmt.Sprintf("send-%d", time.Now().UnixNano())
	runLogger := log.New(logger.Writer(), logger.Prefix()+"run="+runID+" ", logger.Flags())
	runStart := time.Now()

	f, err := os.Open(trig.TablePath)
	if err != nil {
		return mailer.Outcome{}, fmt.Errorf("open recipient table: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()

	runLogger.Printf("campaign start: sender=%s table=%s", trig.Creds.Address, trig.TablePath)
	m := &mailer.Mailer{Sender: sender, Logger: runLogger}
	out, err := m.Dispatch(ctx, trig.Creds, trig.Msg, f)
	if err != nil {
		return out, err
	}
	runLogger.Printf("campaign complete: processed=%d duration=%s",
		out.Processed(), time.Since(runStart).Round(time.Millisecond))
	return out, nil
}
