package main

import (
	"bufio"
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/leadsmith/leadsmith/internal/app"
	"github.com/leadsmith/leadsmith/internal/campaign"
	"github.com/leadsmith/leadsmith/internal/config"
	"github.com/leadsmith/leadsmith/internal/crawl"
	"github.com/leadsmith/leadsmith/internal/expand"
	"github.com/leadsmith/leadsmith/internal/extract"
	"github.com/leadsmith/leadsmith/internal/leads"
	"github.com/leadsmith/leadsmith/internal/mailer"
	"github.com/leadsmith/leadsmith/internal/places"
	"github.com/leadsmith/leadsmith/internal/textgen/gemini"
	"github.com/leadsmith/leadsmith/internal/version"
	"github.com/leadsmith/leadsmith/pkg/pipeline/redact"

	_ "modernc.org/sqlite"
)

func main() {
	ctx := context.Background()

	if len(os.Args) < 2 {
		usage(os.Stderr)
		os.Exit(2)
	}

	switch os.Args[1] {
	case "help", "-h", "--help":
		usage(os.Stdout)
		return
	case "version", "--version":
		fmt.Println(version.Current)
		return
	case "discover":
		os.Exit(runDiscover(ctx, os.Args[2:]))
	case "compose":
		os.Exit(runCompose(ctx, os.Args[2:]))
	case "send":
		os.Exit(runSend(ctx, os.Args[2:]))
	default:
		_, _ = fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", os.Args[1])
		usage(os.Stderr)
		os.Exit(2)
	}
}

func runDiscover(ctx context.Context, args []string) int {
	cfg, code := loadConfig(args)
	if code != 0 {
		return code
	}
	gemEnv, err := loadGeminiConfigFromEnv()
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "config error: %s\n", redact.Secrets(err.Error()))
		return 2
	}
	placesKey := strings.TrimSpace(os.Getenv("PLACES_API_KEY"))
	if placesKey == "" {
		_, _ = fmt.Fprintln(os.Stderr, "config error: PLACES_API_KEY is required")
		return 2
	}

	fs := flag.NewFlagSet("discover", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	_ = fs.String("config", "", "YAML config file (env: LEADSMITH_CONFIG)")
	var request string
	var outputPath string
	var pageDelay time.Duration
	var maxPages int
	var workers int
	var rateLimitRPS float64
	var placesBaseURL string
	var geminiModel string

	fs.StringVar(&request, "request", "", "Free-form description of the businesses to find")
	fs.StringVar(&outputPath, "output", leads.ArtifactName, "Output CSV file path")
	fs.DurationVar(&pageDelay, "page-delay", cfg.PageDelay(), "Wait before reusing a search continuation token")
	fs.IntVar(&maxPages, "max-pages", cfg.Search.MaxPages, "Max search pages per query, 0 follows all tokens")
	fs.IntVar(&workers, "workers", cfg.Crawl.Workers, "Number of concurrent site fetches")
	fs.Float64Var(&rateLimitRPS, "rate-limit-rps", cfg.Crawl.RateLimitRPS, "Site fetch rate limit (RPS), 0 disables")
	fs.StringVar(&placesBaseURL, "places-base-url", cfg.Places.BaseURL, "Place-search API base URL override (testing)")
	fs.StringVar(&geminiModel, "gemini-model", gemEnv.Model, "Gemini model name (env: GEMINI_MODEL)")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if strings.TrimSpace(request) == "" {
		_, _ = fmt.Fprintln(os.Stderr, "discover requires --request")
		return 2
	}

	gen, err := gemini.New(ctx, gemini.Config{
		APIKey:  gemEnv.APIKey,
		Model:   geminiModel,
		BaseURL: gemEnv.BaseURL,
	})
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "gemini config error: %s\n", redact.Secrets(err.Error()))
		return 2
	}

	rules, err := loadRules(cfg)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "deny rules error: %s\n", redact.Secrets(err.Error()))
		return 2
	}

	logger := log.New(os.Stdout, "", log.LstdFlags)
	d := &app.Discoverer{
		Expander: &expand.Expander{Gen: gen, Logger: logger},
		Searcher: &places.Searcher{
			Client: places.NewClient(placesBaseURL, placesKey, nil),
			Opts:   places.SearchOptions{PageDelay: pageDelay, MaxPages: maxPages},
			Logger: logger,
		},
		Extractor: &extract.Extractor{Rules: rules},
		CrawlOpts: crawl.Options{
			Workers:      workers,
			FetchTimeout: cfg.FetchTimeout(),
			RateLimitRPS: rateLimitRPS,
		},
		Logger: logger,
	}

	batch, err := d.DiscoverToFile(ctx, request, outputPath)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "discover run failed: %s\n", redact.Secrets(err.Error()))
		return 1
	}
	if batch.Len() == 0 {
		_, _ = fmt.Fprintln(os.Stdout, "no results found, try a different request")
		return 0
	}
	_, _ = fmt.Fprintf(os.Stdout, "wrote %d records to %s\n", batch.Len(), outputPath)
	return 0
}

// runCompose drives the campaign wizard over stdin, then dispatches the
// resulting campaign.
func runCompose(ctx context.Context, args []string) int {
	cfg, code := loadConfig(args)
	if code != 0 {
		return code
	}
	gemEnv, err := loadGeminiConfigFromEnv()
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "config error: %s\n", redact.Secrets(err.Error()))
		return 2
	}

	fs := flag.NewFlagSet("compose", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	_ = fs.String("config", "", "YAML config file (env: LEADSMITH_CONFIG)")
	var sessionDB string
	var defaultTable string
	var smtpHost string
	var smtpPort int
	fs.StringVar(&sessionDB, "session-db", cfg.Campaign.SessionDB, "Path of the sqlite session store")
	fs.StringVar(&defaultTable, "default-table", cfg.Campaign.DefaultTable, "Recipient table used for the 'default' choice")
	fs.StringVar(&smtpHost, "smtp-host", cfg.SMTP.Host, "SMTP relay host")
	fs.IntVar(&smtpPort, "smtp-port", cfg.SMTP.Port, "SMTP relay port (STARTTLS)")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	gen, err := gemini.New(ctx, gemini.Config{
		APIKey:  gemEnv.APIKey,
		Model:   gemEnv.Model,
		BaseURL: gemEnv.BaseURL,
	})
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "gemini config error: %s\n", redact.Secrets(err.Error()))
		return 2
	}

	db, err := sql.Open("sqlite", sessionDB)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "session db error: %s\n", redact.Secrets(err.Error()))
		return 2
	}
	defer func() {
		_ = db.Close()
	}()
	store, err := campaign.NewSQLiteStore(db)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "session db error: %s\n", redact.Secrets(err.Error()))
		return 2
	}

	logger := log.New(os.Stdout, "", log.LstdFlags)
	w := &campaign.Wizard{
		Store:            store,
		Gen:              gen,
		Subject:          cfg.Campaign.Subject,
		DefaultTablePath: defaultTable,
		Logger:           logger,
	}

	trig, err := compose(ctx, w, bufio.NewScanner(os.Stdin), os.Stdout)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "compose failed: %s\n", redact.Secrets(err.Error()))
		return 1
	}

	out, err := app.SendCampaign(ctx, trig, &mailer.SMTPSender{Host: smtpHost, Port: smtpPort}, logger)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "dispatch failed: %s\n", redact.Secrets(err.Error()))
		return 1
	}
	_, _ = fmt.Fprintf(os.Stdout, "I have sent %d messages in total.\n", out.Processed())
	return 0
}

// compose walks the wizard states, one prompt per transition.
func compose(ctx context.Context, w *campaign.Wizard, in *bufio.Scanner, out *os.File) (*campaign.Trigger, error) {
	prompt := func(text string) (string, error) {
		_, _ = fmt.Fprintln(out, text)
		if !in.Scan() {
			if err := in.Err(); err != nil {
				return "", err
			}
			return "", errors.New("input closed")
		}
		return strings.TrimSpace(in.Text()), nil
	}

	s, err := w.Begin(ctx)
	if err != nil {
		return nil, err
	}

	for {
		addr, err := prompt("Enter the sender email address:")
		if err != nil {
			return nil, err
		}
		if s, err = w.SetSenderEmail(ctx, s.ID, addr); err != nil {
			_, _ = fmt.Fprintln(out, err.Error())
			continue
		}
		break
	}

	pw, err := prompt("Enter the app password for that account:")
	if err != nil {
		return nil, err
	}
	if s, err = w.SetPassword(ctx, s.ID, pw); err != nil {
		return nil, err
	}

	for {
		theme, err := prompt("Describe the theme of your emails:")
		if err != nil {
			return nil, err
		}
		if s, err = w.ProposeDraft(ctx, s.ID, theme); err != nil {
			_, _ = fmt.Fprintln(out, err.Error())
			continue
		}
		break
	}

	for s.State == campaign.StateAwaitingDraftReview {
		answer, err := prompt("Draft:\n\n" + s.Draft + "\n\nType 'yes' to approve, or paste a replacement draft:")
		if err != nil {
			return nil, err
		}
		if s, err = w.ReviewDraft(ctx, s.ID, answer); err != nil {
			return nil, err
		}
	}

	for {
		choice, err := prompt("Recipient table: type 'upload' to name a CSV file, or 'default':")
		if err != nil {
			return nil, err
		}
		next, trig, err := w.ChooseTableSource(ctx, s.ID, choice)
		if err != nil {
			_, _ = fmt.Fprintln(out, err.Error())
			continue
		}
		if trig != nil {
			return trig, nil
		}
		s = next
		path, err := prompt("Path of the ';'-delimited recipient CSV:")
		if err != nil {
			return nil, err
		}
		return w.AttachTable(ctx, s.ID, path)
	}
}

// runSend dispatches a campaign without the wizard: everything comes from
// flags and environment.
func runSend(ctx context.Context, args []string) int {
	cfg, code := loadConfig(args)
	if code != 0 {
		return code
	}

	fs := flag.NewFlagSet("send", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	_ = fs.String("config", "", "YAML config file (env: LEADSMITH_CONFIG)")
	var tablePath string
	var subject string
	var bodyPath string
	var smtpHost string
	var smtpPort int
	fs.StringVar(&tablePath, "table", "", "';'-delimited recipient CSV (header row required)")
	fs.StringVar(&subject, "subject", campaign.DefaultSubject, "Subject line")
	fs.StringVar(&bodyPath, "body-file", "", "File containing the message body")
	fs.StringVar(&smtpHost, "smtp-host", cfg.SMTP.Host, "SMTP relay host")
	fs.IntVar(&smtpPort, "smtp-port", cfg.SMTP.Port, "SMTP relay port (STARTTLS)")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if tablePath == "" || bodyPath == "" {
		_, _ = fmt.Fprintln(os.Stderr, "send requires --table and --body-file")
		return 2
	}

	sender := strings.TrimSpace(os.Getenv("SMTP_SENDER"))
	password := os.Getenv("SMTP_PASSWORD")
	if sender == "" || password == "" {
		_, _ = fmt.Fprintln(os.Stderr, "config error: SMTP_SENDER and SMTP_PASSWORD are required")
		return 2
	}

	body, err := os.ReadFile(bodyPath)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "body file error: %s\n", redact.Secrets(err.Error()))
		return 2
	}

	trig := &campaign.Trigger{
		Creds:     mailer.Credentials{Address: sender, Password: password},
		Msg:       mailer.Message{Subject: subject, Body: string(body)},
		TablePath: tablePath,
	}
	logger := log.New(os.Stdout, "", log.LstdFlags)
	out, err := app.SendCampaign(ctx, trig, &mailer.SMTPSender{Host: smtpHost, Port: smtpPort}, logger)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "dispatch failed: %s\n", redact.Secrets(err.Error()))
		return 1
	}
	_, _ = fmt.Fprintf(os.Stdout, "I have sent %d messages in total.\n", out.Processed())
	return 0
}

// loadConfig reads --config from args without consuming the other flags;
// the per-command flag sets re-parse args with config values as defaults.
func loadConfig(args []string) (config.Config, int) {
	path := strings.TrimSpace(os.Getenv("LEADSMITH_CONFIG"))
	for i, a := range args {
		if a == "--config" || a == "-config" {
			if i+1 < len(args) {
				path = args[i+1]
			}
		} else if v, ok := strings.CutPrefix(a, "--config="); ok {
			path = v
		} else if v, ok := strings.CutPrefix(a, "-config="); ok {
			path = v
		}
	}
	if path == "" {
		return config.Default(), 0
	}
	cfg, err := config.Load(path)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "config error: %s\n", redact.Secrets(err.Error()))
		return cfg, 2
	}
	return cfg, 0
}

func loadRules(cfg config.Config) (*extract.RuleSet, error) {
	if cfg.DenyRules.Path == "" {
		return extract.DefaultRules(), nil
	}
	return extract.LoadRules(cfg.DenyRules.Path)
}

func loadGeminiConfigFromEnv() (gemini.Config, error) {
	apiKey := strings.TrimSpace(os.Getenv("GEMINI_API_KEY"))
	if apiKey == "" {
		return gemini.Config{}, fmt.Errorf("GEMINI_API_KEY is required")
	}
	model := strings.TrimSpace(os.Getenv("GEMINI_MODEL"))
	if model == "" {
		return gemini.Config{}, fmt.Errorf("GEMINI_MODEL is required")
	}
	return gemini.Config{
		APIKey:  apiKey,
		Model:   model,
		BaseURL: strings.TrimSpace(os.Getenv("GEMINI_BASE_URL")),
	}, nil
}

func usage(w *os.File) {
	_, _ = fmt.Fprintf(w, `leadsmith: lead discovery and campaign dispatch

Usage:
  leadsmith <command> [flags]

Commands:
  discover  Expand a request into search queries, crawl the results, and
            export discovered contact emails as CSV
  compose   Walk the campaign wizard on the terminal, then dispatch
  send      Dispatch a campaign non-interactively from flags
  version   Print the release version

Examples:
  leadsmith discover --request "coffee shops in Berlin" --output companies.csv
  leadsmith send --table recipients.csv --body-file body.txt

Environment (discover):
  PLACES_API_KEY   Place-search API key (required)
  GEMINI_API_KEY   Gemini API key (required)
  GEMINI_MODEL     Gemini model name (required)
  GEMINI_BASE_URL  Optional base URL override (proxies/testing)

Environment (send):
  SMTP_SENDER      Sender address (required)
  SMTP_PASSWORD    App password for the sender account (required)

Config:
  LEADSMITH_CONFIG or --config names a YAML file; flags override it.

`)
}
