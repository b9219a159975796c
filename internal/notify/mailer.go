// internal/notify/mailer.go
package notify

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/wneessen/go-mail"
	"go.uber.org/zap"

	"github.com/xkilldash9x/intake-cli/internal/config"
	"github.com/xkilldash9x/intake-cli/internal/intake"
	"github.com/xkilldash9x/intake-cli/internal/persona"
)

const subjectPrefix = "[intake]"

// Notification is everything reported about one run.
type Notification struct {
	RunID        string
	Profile      persona.Profile
	Report       intake.Report
	Err          error
	WorkbookPath string
	ArchiveURL   string
}

// Succeeded reports whether the run finished without error.
func (n Notification) Succeeded() bool { return n.Err == nil }

// Sender delivers built messages. *mail.Client satisfies it.
type Sender interface {
	DialAndSendWithContext(ctx context.Context, messages ...*mail.Msg) error
}

// Mailer sends run notifications over SMTP.
type Mailer struct {
	cfg    config.MailConfig
	sender Sender
	logger *zap.Logger
}

// NewMailer creates a mailer with an SMTP client built from cfg.
func NewMailer(cfg config.MailConfig, logger *zap.Logger) (*Mailer, error) {
	opts := []mail.Option{
		mail.WithPort(cfg.Port),
		mail.WithTLSPolicy(tlsPolicy(cfg.TLS)),
	}
	if cfg.Timeout > 0 {
		opts = append(opts, mail.WithTimeout(cfg.Timeout))
	}
	if cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.Username),
			mail.WithPassword(cfg.Password),
		)
	}

	client, err := mail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create SMTP client: %w", err)
	}
	return NewMailerWithSender(cfg, client, logger), nil
}

// NewMailerWithSender creates a mailer that delivers through s.
func NewMailerWithSender(cfg config.MailConfig, s Sender, logger *zap.Logger) *Mailer {
	return &Mailer{cfg: cfg, sender: s, logger: logger.Named("notify")}
}

func tlsPolicy(name string) mail.TLSPolicy {
	switch strings.ToLower(name) {
	case "none":
		return mail.NoTLS
	case "opportunistic":
		return mail.TLSOpportunistic
	default:
		return mail.TLSMandatory
	}
}

// Send builds and delivers the notification.
func (m *Mailer) Send(ctx context.Context, n Notification) error {
	msg, err := m.Build(n)
	if err != nil {
		return err
	}
	if err := m.sender.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("failed to send notification: %w", err)
	}
	m.logger.Info("Notification sent.",
		zap.String("run_id", n.RunID),
		zap.Strings("to", m.cfg.To),
		zap.Bool("succeeded", n.Succeeded()),
	)
	return nil
}

// Build renders the notification as a message.
func (m *Mailer) Build(n Notification) (*mail.Msg, error) {
	msg := mail.NewMsg()
	if err := msg.From(m.cfg.From); err != nil {
		return nil, fmt.Errorf("invalid from address: %w", err)
	}
	if err := msg.To(m.cfg.To...); err != nil {
		return nil, fmt.Errorf("invalid recipient: %w", err)
	}
	msg.Subject(Subject(n))
	msg.SetBodyString(mail.TypeTextPlain, Body(n))

	if m.cfg.AttachWorkbook && n.WorkbookPath != "" {
		if _, err := os.Stat(n.WorkbookPath); err == nil {
			msg.AttachFile(n.WorkbookPath)
		} else {
			m.logger.Warn("Workbook not attached.", zap.String("path", n.WorkbookPath), zap.Error(err))
		}
	}
	return msg, nil
}

// Subject states the run outcome and whose data was used.
func Subject(n Notification) string {
	id := n.RunID
	if len(id) > 8 {
		id = id[:8]
	}
	switch {
	case n.Succeeded() && n.Report.Submitted:
		return fmt.Sprintf("%s run %s submitted: %s", subjectPrefix, id, n.Profile.FullName())
	case n.Succeeded():
		return fmt.Sprintf("%s run %s completed: %s", subjectPrefix, id, n.Profile.FullName())
	case errors.Is(n.Err, intake.ErrPageAborted):
		return fmt.Sprintf("%s run %s aborted on %s: %s", subjectPrefix, id, lastPage(n.Report), n.Profile.FullName())
	default:
		return fmt.Sprintf("%s run %s failed: %s", subjectPrefix, id, n.Profile.FullName())
	}
}

func lastPage(r intake.Report) string {
	if len(r.Pages) == 0 {
		return "start"
	}
	return r.Pages[len(r.Pages)-1].Name
}

// Body lists the outcome, the per-page report and the profile fields.
func Body(n Notification) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Run ID: %s\n", n.RunID)
	if n.Err != nil {
		fmt.Fprintf(&b, "Outcome: FAILED\nError: %v\n", n.Err)
	} else {
		fmt.Fprintf(&b, "Outcome: OK (submitted: %t)\n", n.Report.Submitted)
	}
	if n.Report.FinalURL != "" {
		fmt.Fprintf(&b, "Final URL: %s\n", n.Report.FinalURL)
	}
	if n.Report.Screenshot != "" {
		fmt.Fprintf(&b, "Screenshot: %s\n", n.Report.Screenshot)
	}
	if n.WorkbookPath != "" {
		fmt.Fprintf(&b, "Workbook: %s\n", n.WorkbookPath)
	}
	if n.ArchiveURL != "" {
		fmt.Fprintf(&b, "Archived copy: %s\n", n.ArchiveURL)
	}

	if len(n.Report.Pages) > 0 {
		b.WriteString("\nPages\n")
		pages := table.NewWriter()
		pages.AppendHeader(table.Row{"Page", "Filled", "Failed", "Completed"})
		for _, p := range n.Report.Pages {
			pages.AppendRow(table.Row{p.Name, len(p.Filled), failedNames(p.Failed), p.Completed})
		}
		b.WriteString(pages.Render())
		b.WriteString("\n")
	}

	b.WriteString("\nProfile\n")
	profile := table.NewWriter()
	profile.AppendHeader(table.Row{"Field", "Value"})
	for _, f := range n.Profile.Fields() {
		profile.AppendRow(table.Row{f.Header, f.Value})
	}
	b.WriteString(profile.Render())
	b.WriteString("\n")
	return b.String()
}

func failedNames(failures []intake.FieldFailure) string {
	if len(failures) == 0 {
		return "-"
	}
	names := make([]string, len(failures))
	for i, f := range failures {
		names[i] = f.Field
	}
	return strings.Join(names, ", ")
}
