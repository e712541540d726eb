package campaign

import (
	"context"
	"fmt"
	"log"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/leadsmith/leadsmith/internal/mailer"
	"github.com/leadsmith/leadsmith/internal/textgen"
	"github.com/leadsmith/leadsmith/pkg/pipeline/redact"
)

// State is the wizard's enumerated position. The sequence is linear with
// one loop-back on draft rejection; only the terminal transition hands a
// Trigger to the dispatch pipeline.
type State string

const (
	StateAwaitingSenderEmail State = "awaiting_sender_email"
	StateAwaitingPassword    State = "awaiting_password"
	StateAwaitingTheme       State = "awaiting_email_theme"
	StateAwaitingDraftReview State = "awaiting_draft_review"
	StateAwaitingTableSource State = "awaiting_csv_source"
	StateAwaitingTableUpload State = "awaiting_csv_upload"
)

// DefaultSubject is the fixed subject line campaigns go out under.
const DefaultSubject = "Subject of your emails"

const draftInstruction = "You are a skilled email writer. Create a professional email draft based on the user's provided theme. Keep it short."

var emailShapeRe = regexp.MustCompile(`^[a-zA-Z0-9_.+-]+@[a-zA-Z0-9-]+\.[a-zA-Z0-9-.]+$`)

// Session is the per-user wizard context, immutable between transitions and
// persisted in the Store under its ID.
type Session struct {
	ID          string
	State       State
	SenderEmail string
	Password    string
	Draft       string
	UpdatedAt   time.Time
}

// Trigger is everything the terminal transition passes to the bulk mailer:
// credentials, the approved message, and the recipient table reference.
type Trigger struct {
	Creds     mailer.Credentials
	Msg       mailer.Message
	TablePath string
}

// Wizard drives the campaign composition state machine.
type Wizard struct {
	Store   Store
	Gen     textgen.Generator
	Subject string

	// DefaultTablePath backs the "default" table-source choice.
	DefaultTablePath string

	Logger *log.Logger
}

func (w *Wizard) subject() string {
	if w.Subject != "" {
		return w.Subject
	}
	return DefaultSubject
}

// Begin creates a new session in the first state.
func (w *Wizard) Begin(ctx context.Context) (Session, error) {
	s := Session{
		ID:        uuid.NewString(),
		State:     StateAwaitingSenderEmail,
		UpdatedAt: time.Now().UTC(),
	}
	if err := w.Store.Put(ctx, s); err != nil {
		return Session{}, err
	}
	return s, nil
}

// SetSenderEmail validates the address shape and advances to the password
// state. An invalid address keeps the session where it is.
func (w *Wizard) SetSenderEmail(ctx context.Context, id, email string) (Session, error) {
	s, err := w.require(ctx, id, StateAwaitingSenderEmail)
	if err != nil {
		return Session{}, err
	}
	email = strings.TrimSpace(email)
	if !emailShapeRe.MatchString(email) {
		return s, fmt.Errorf("%q is not a valid email address", email)
	}
	s.SenderEmail = email
	s.State = StateAwaitingPassword
	return w.save(ctx, s)
}

// SetPassword stores the SMTP secret and advances to the theme state.
func (w *Wizard) SetPassword(ctx context.Context, id, password string) (Session, error) {
	s, err := w.require(ctx, id, StateAwaitingPassword)
	if err != nil {
		return Session{}, err
	}
	s.Password = password
	s.State = StateAwaitingTheme
	return w.save(ctx, s)
}

// ProposeDraft generates a draft body from the theme and advances to review.
// A generation failure is reported to the caller for re-prompting; the
// session stays in the theme state.
func (w *Wizard) ProposeDraft(ctx context.Context, id, theme string) (Session, error) {
	s, err := w.require(ctx, id, StateAwaitingTheme)
	if err != nil {
		return Session{}, err
	}
	draft, err := w.Gen.Generate(ctx, draftInstruction, theme)
	if err != nil {
		w.logf("draft generation failed: %s", redact.Secrets(err.Error()))
		return s, fmt.Errorf("draft generation failed, try the theme again: %w", err)
	}
	s.Draft = draft
	s.State = StateAwaitingDraftReview
	return w.save(ctx, s)
}

// ReviewDraft advances on approval ("yes"); any other response replaces the
// draft and loops back to review.
func (w *Wizard) ReviewDraft(ctx context.Context, id, response string) (Session, error) {
	s, err := w.require(ctx, id, StateAwaitingDraftReview)
	if err != nil {
		return Session{}, err
	}
	if strings.EqualFold(strings.TrimSpace(response), "yes") {
		s.State = StateAwaitingTableSource
		return w.save(ctx, s)
	}
	s.Draft = response
	return w.save(ctx, s)
}

// ChooseTableSource handles the upload/default fork. "default" is a
// terminal transition and returns a Trigger; "upload" advances to the
// upload state; anything else keeps the session in place.
func (w *Wizard) ChooseTableSource(ctx context.Context, id, choice string) (Session, *Trigger, error) {
	s, err := w.require(ctx, id, StateAwaitingTableSource)
	if err != nil {
		return Session{}, nil, err
	}
	switch strings.ToLower(strings.TrimSpace(choice)) {
	case "upload":
		s.State = StateAwaitingTableUpload
		s, err = w.save(ctx, s)
		return s, nil, err
	case "default":
		trig, err := w.finish(ctx, s, w.DefaultTablePath)
		return s, trig, err
	default:
		return s, nil, fmt.Errorf("answer %q not understood, expected 'upload' or 'default'", choice)
	}
}

// AttachTable is the terminal transition for the upload branch.
func (w *Wizard) AttachTable(ctx context.Context, id, tablePath string) (*Trigger, error) {
	s, err := w.require(ctx, id, StateAwaitingTableUpload)
	if err != nil {
		return nil, err
	}
	return w.finish(ctx, s, tablePath)
}

// finish clears the session and hands the dispatch trigger to the caller.
func (w *Wizard) finish(ctx context.Context, s Session, tablePath string) (*Trigger, error) {
	if tablePath == "" {
		return nil, fmt.Errorf("session %s: no recipient table configured", s.ID)
	}
	if err := w.Store.Delete(ctx, s.ID); err != nil {
		return nil, err
	}
	return &Trigger{
		Creds: mailer.Credentials{
			Address:  s.SenderEmail,
			Password: s.Password,
		},
		Msg: mailer.Message{
			Subject: w.subject(),
			Body:    s.Draft,
		},
		TablePath: tablePath,
	}, nil
}

func (w *Wizard) require(ctx context.Context, id string, want State) (Session, error) {
	s, err := w.Store.Get(ctx, id)
	if err != nil {
		return Session{}, err
	}
	if s.State != want {
		return Session{}, fmt.Errorf("session %s: in state %q, want %q", id, s.State, want)
	}
	return s, nil
}

func (w *Wizard) save(ctx context.Context, s Session) (Session, error) {
	s.UpdatedAt = time.Now().UTC()
	if err := w.Store.Put(ctx, s); err != nil {
		return Session{}, err
	}
	return s, nil
}

func (w *Wizard) logf(format string, args ...any) {
	if w.Logger != nil {
		w.Logger.Printf(format, args...)
	}
}
