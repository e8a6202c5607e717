// AngelaMos | 2026
// notifier.go

package email

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/carterperez-dev/templates/asset-manager/internal/outbox"
)

// Enqueuer accepts background work without blocking.
type Enqueuer interface {
	Enqueue(task outbox.Task) bool
}

type AssetSummary struct {
	Name          string
	Category      string
	Department    string
	Cost          string
	DatePurchased *time.Time
}

type ProfileRequestSummary struct {
	UserEmail      string
	CurrentName    string
	RequestedName  string
	RequestedEmail string
}

type ProfileDecision struct {
	Name  string
	Email string
	Notes string
}

// Notifier renders application emails and hands them to the outbox. Every
// method reports whether the message was queued; none of them fail the
// caller.
type Notifier struct {
	sender    Sender
	queue     Enqueuer
	templates *Templates
	appName   string
	publicURL string
}

func NewNotifier(
	sender Sender,
	queue Enqueuer,
	templates *Templates,
	appName, publicURL string,
) *Notifier {
	return &Notifier{
		sender:    sender,
		queue:     queue,
		templates: templates,
		appName:   appName,
		publicURL: strings.TrimRight(publicURL, "/"),
	}
}

func (n *Notifier) UserCredentials(ctx context.Context, to, name, password string) bool {
	return n.send(ctx, TemplateCredentials, []string{to}, map[string]any{
		"AppName":  n.appName,
		"Name":     name,
		"Email":    to,
		"Password": password,
		"LoginURL": n.publicURL + "/auth/login",
	})
}

func (n *Notifier) AssetCreated(ctx context.Context, to string, asset AssetSummary) bool {
	return n.send(ctx, TemplateAssetCreated, []string{to}, map[string]any{
		"AppName":      n.appName,
		"Asset":        asset,
		"DashboardURL": n.publicURL + "/assets/user",
	})
}

func (n *Notifier) ProfileRequested(
	ctx context.Context,
	admins []string,
	req ProfileRequestSummary,
) bool {
	return n.send(ctx, TemplateProfileRequest, admins, map[string]any{
		"AppName":   n.appName,
		"Request":   req,
		"ReviewURL": n.publicURL + "/admin/profile-requests",
	})
}

func (n *Notifier) ProfileApproved(ctx context.Context, to string, d ProfileDecision) bool {
	return n.send(ctx, TemplateProfileApproved, []string{to}, map[string]any{
		"AppName":  n.appName,
		"Decision": d,
		"LoginURL": n.publicURL + "/auth/login",
	})
}

func (n *Notifier) ProfileRejected(ctx context.Context, to string, d ProfileDecision) bool {
	return n.send(ctx, TemplateProfileRejected, []string{to}, map[string]any{
		"AppName":  n.appName,
		"Decision": d,
	})
}

func (n *Notifier) send(ctx context.Context, tpl string, to []string, data any) bool {
	recipients := make([]string, 0, len(to))
	for _, addr := range to {
		if addr = strings.TrimSpace(addr); addr != "" {
			recipients = append(recipients, addr)
		}
	}

	if len(recipients) == 0 {
		slog.WarnContext(ctx, "email has no recipients", "template", tpl)
		return false
	}

	if !n.sender.Enabled() {
		slog.WarnContext(ctx, "email not configured, message not sent", "template", tpl)
		return false
	}

	subject, body, err := n.templates.Render(tpl, data)
	if err != nil {
		slog.ErrorContext(ctx, "render email failed", "template", tpl, "error", err)
		return false
	}

	msg := Message{To: recipients, Subject: subject, HTML: body}

	return n.queue.Enqueue(outbox.Task{
		Kind: "email." + tpl,
		Run: func(ctx context.Context) error {
			return n.sender.Send(ctx, msg)
		},
	})
}
