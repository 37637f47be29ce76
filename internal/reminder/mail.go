package reminder

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"
	"github.com/emersion/go-message/mail"

	"github.com/nhle/planner/internal/model"
)

// MailNotifier files each shown reminder as a flagged message in an IMAP
// mailbox, so it reaches every device that syncs that mailbox.
type MailNotifier struct {
	cfg      model.MailConfig
	password func() (string, error)
}

// NewMailNotifier creates a mail notifier. password is called for every
// delivery so that a rotated keyring entry is picked up.
func NewMailNotifier(cfg model.MailConfig, password func() (string, error)) *MailNotifier {
	if cfg.Mailbox == "" {
		cfg.Mailbox = "INBOX"
	}
	if cfg.From == "" {
		cfg.From = cfg.Username
	}
	return &MailNotifier{cfg: cfg, password: password}
}

// Notify implements Notifier. Only shown events produce mail.
func (m *MailNotifier) Notify(ctx context.Context, ev Event) error {
	if ev.Kind != EventShown || ev.Task == nil {
		return nil
	}

	var buf bytes.Buffer
	if err := ComposeReminder(&buf, m.cfg.From, m.cfg.Username, ev); err != nil {
		return err
	}
	return m.appendMessage(ctx, buf.Bytes(), ev.At)
}

// ComposeReminder writes an RFC 5322 message describing a shown reminder.
func ComposeReminder(w io.Writer, from, to string, ev Event) error {
	var h mail.Header
	h.SetDate(ev.At)
	h.SetSubject("Reminder: " + ev.Task.Title)
	h.SetAddressList("From", []*mail.Address{{Name: "Planner", Address: from}})
	h.SetAddressList("To", []*mail.Address{{Address: to}})
	h.SetContentType("text/plain", map[string]string{"charset": "utf-8"})

	body, err := mail.CreateSingleInlineWriter(w, h)
	if err != nil {
		return fmt.Errorf("creating reminder message: %w", err)
	}

	fmt.Fprintf(body, "%s\n\n", ev.Task.Title)
	if ev.Task.DueDate != nil {
		due := model.FormatDate(*ev.Task.DueDate)
		if ev.Task.DueTime != "" {
			due += " " + ev.Task.DueTime
		}
		fmt.Fprintf(body, "Due: %s\n", due)
	}
	if ev.Task.ReminderAt != nil {
		fmt.Fprintf(body, "Reminder: %s\n", ev.Task.ReminderAt.Format("2006-01-02 15:04"))
	}
	if ev.Task.Notes != "" {
		fmt.Fprintf(body, "\n%s\n", ev.Task.Notes)
	}

	if err := body.Close(); err != nil {
		return fmt.Errorf("finishing reminder message: %w", err)
	}
	return nil
}

// appendMessage logs in and APPENDs msg to the configured mailbox.
func (m *MailNotifier) appendMessage(_ context.Context, msg []byte, at time.Time) error {
	password, err := m.password()
	if err != nil {
		return fmt.Errorf("reading mail password: %w", err)
	}

	addr := m.cfg.Host + ":" + m.cfg.Port
	var client *imapclient.Client
	if m.cfg.TLS {
		client, err = imapclient.DialTLS(addr, nil)
	} else {
		client, err = imapclient.DialStartTLS(addr, nil)
	}
	if err != nil {
		return fmt.Errorf("connecting to IMAP %s: %w", addr, err)
	}
	defer client.Close()

	if err := client.Login(m.cfg.Username, password).Wait(); err != nil {
		return fmt.Errorf("logging in to IMAP as %s: %w", m.cfg.Username, err)
	}
	defer func() { _ = client.Logout().Wait() }()

	cmd := client.Append(m.cfg.Mailbox, int64(len(msg)), &imap.AppendOptions{
		Flags: []imap.Flag{imap.FlagFlagged},
		Time:  at,
	})
	if _, err := cmd.Write(msg); err != nil {
		return fmt.Errorf("writing reminder to %s: %w", m.cfg.Mailbox, err)
	}
	if err := cmd.Close(); err != nil {
		return fmt.Errorf("writing reminder to %s: %w", m.cfg.Mailbox, err)
	}
	if _, err := cmd.Wait(); err != nil {
		return fmt.Errorf("appending reminder to %s: %w", m.cfg.Mailbox, err)
	}
	return nil
}
