// Package notify delivers workflow notifications: a vehicle reaching lot
// ready, a finished import, the daily digest. Delivery is best-effort on
// every backend; a down Slack must never fail a stage operation.
package notify

import (
	"log"
	"os/exec"
	"strings"

	"github.com/lotworks/recontrack/internal/config"
)

// Event kinds.
const (
	KindLotReady = "lot_ready"
	KindImport   = "import"
	KindDigest   = "digest"
)

// Event is one notification to deliver.
type Event struct {
	Kind        string
	Subject     string
	Body        string
	StockNumber string
}

// Notifier delivers a single event to one backend.
type Notifier interface {
	Send(Event) error
}

// Fanout delivers to every configured backend, logging failures.
type Fanout []Notifier

// Send fans the event out. Always returns nil; per-backend failures are
// logged and swallowed.
func (f Fanout) Send(e Event) error {
	for _, n := range f {
		if err := n.Send(e); err != nil {
			log.Printf("notify: %T: %v", n, err)
		}
	}
	return nil
}

// FromConfig builds the configured backends. An empty config yields an
// empty (no-op) Fanout.
func FromConfig(cfg config.NotifyConfig) Fanout {
	var f Fanout
	if cfg.Command != "" {
		f = append(f, &CommandNotifier{Command: cfg.Command})
	}
	if cfg.Slack.Token != "" {
		f = append(f, NewSlackNotifier(cfg.Slack.Token, cfg.Slack.Channel))
	}
	if cfg.Discord.Token != "" {
		f = append(f, NewDiscordNotifier(cfg.Discord.Token, cfg.Discord.Channel))
	}
	return f
}

// CommandNotifier shells out to a user-supplied command template, e.g.
// "notify-send 'Recon' '{{.Subject}}'".
type CommandNotifier struct {
	Command string
}

// Send runs the templated command.
func (n *CommandNotifier) Send(e Event) error {
	cmd := exec.Command("sh", "-c", renderTemplate(n.Command, e))
	if out, err := cmd.CombinedOutput(); err != nil {
		log.Printf("notify: command failed: %v: %s", err, strings.TrimSpace(string(out)))
	}
	return nil
}

// renderTemplate replaces placeholders in the command template with event
// values.
func renderTemplate(command string, e Event) string {
	r := strings.NewReplacer(
		"{{.Subject}}", e.Subject,
		"{{.Body}}", e.Body,
		"{{.Kind}}", e.Kind,
		"{{.StockNumber}}", e.StockNumber,
	)
	return r.Replace(command)
}

// Message renders the event as a single chat message.
func Message(e Event) string {
	if e.Body == "" {
		return e.Subject
	}
	return e.Subject + "\n" + e.Body
}
