// Package notify builds and delivers the platform's transactional emails.
// Composition is synchronous; delivery goes through the outbox so a mail
// outage can never affect donation state.
package notify

import (
	"fmt"
	"html"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"server/internal/domain"
)

var titleCaser = cases.Title(language.English)

// Composer renders outbox messages for donation lifecycle events.
type Composer struct {
	adminEmails    []string
	developerEmail string
	frontendURL    string
}

// NewComposer creates a composer. adminEmails and developerEmail may be
// empty; the corresponding messages are then simply not produced.
func NewComposer(adminEmails []string, developerEmail, frontendURL string) *Composer {
	return &Composer{
		adminEmails:    adminEmails,
		developerEmail: developerEmail,
		frontendURL:    frontendURL,
	}
}

// CompletedEmails returns the messages to enqueue when a donation settles:
// a receipt for the donor (when an email was given) and a notification for
// the admin team.
func (c *Composer) CompletedEmails(donation *domain.Donation, campaign *domain.Campaign) []domain.EmailMessage {
	var msgs []domain.EmailMessage
	if donation.DonorEmail != nil && *donation.DonorEmail != "" {
		msgs = append(msgs, domain.EmailMessage{
			ID:         uuid.NewString(),
			Kind:       domain.EmailKindReceipt,
			Recipients: []string{*donation.DonorEmail},
			Subject:    "Thank you for your donation",
			Body:       c.receiptBody(donation, campaign),
		})
	}
	if len(c.adminEmails) > 0 {
		msgs = append(msgs, domain.EmailMessage{
			ID:         uuid.NewString(),
			Kind:       domain.EmailKindAdmin,
			Recipients: c.adminEmails,
			Subject:    fmt.Sprintf("New donation to %s", campaign.Title),
			Body:       c.adminBody(donation, campaign),
		})
	}
	return msgs
}

// RefundEmails returns the messages to enqueue when a donation is refunded.
func (c *Composer) RefundEmails(donation *domain.Donation) []domain.EmailMessage {
	var msgs []domain.EmailMessage
	if donation.DonorEmail != nil && *donation.DonorEmail != "" {
		msgs = append(msgs, domain.EmailMessage{
			ID:         uuid.NewString(),
			Kind:       domain.EmailKindReceipt,
			Recipients: []string{*donation.DonorEmail},
			Subject:    "Your donation has been refunded",
			Body: fmt.Sprintf(
				"<h2>Refund processed</h2><p>Dear %s,</p><p>Your donation of %s has been refunded. The amount should appear in your account within a few business days.</p>",
				c.donorDisplayName(donation), amountLine(donation.Amount, donation.Currency)),
		})
	}
	if len(c.adminEmails) > 0 {
		msgs = append(msgs, domain.EmailMessage{
			ID:         uuid.NewString(),
			Kind:       domain.EmailKindAdmin,
			Recipients: c.adminEmails,
			Subject:    fmt.Sprintf("Donation %s refunded", donation.ID),
			Body: fmt.Sprintf(
				"<h2>Donation refunded</h2><p>Donation <code>%s</code> (%s via %s) was refunded and subtracted from the campaign total.</p>",
				html.EscapeString(donation.ID), amountLine(donation.Amount, donation.Currency), donation.Method),
		})
	}
	return msgs
}

// DevAlert returns an alert message for the developer address, or nil when
// none is configured.
func (c *Composer) DevAlert(subject string, err error) *domain.EmailMessage {
	if c.developerEmail == "" {
		return nil
	}
	return &domain.EmailMessage{
		ID:         uuid.NewString(),
		Kind:       domain.EmailKindDevAlert,
		Recipients: []string{c.developerEmail},
		Subject:    "[ALERT] " + subject,
		Body: fmt.Sprintf("<h2>%s</h2><pre>%s</pre>",
			html.EscapeString(subject), html.EscapeString(err.Error())),
	}
}

func (c *Composer) receiptBody(donation *domain.Donation, campaign *domain.Campaign) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<h2>Thank you, %s!</h2>", c.donorDisplayName(donation))
	fmt.Fprintf(&b, "<p>Your donation of <strong>%s</strong> to <strong>%s</strong> has been received.</p>",
		amountLine(donation.Amount, donation.Currency), html.EscapeString(campaign.Title))
	fmt.Fprintf(&b, "<p>Reference: <code>%s</code></p>", html.EscapeString(donation.ID))
	if c.frontendURL != "" {
		fmt.Fprintf(&b, "<p><a href=\"%s/campaigns/%s\">Follow the campaign's progress</a></p>",
			c.frontendURL, campaign.Slug)
	}
	return b.String()
}

func (c *Composer) adminBody(donation *domain.Donation, campaign *domain.Campaign) string {
	donor := "Anonymous"
	if !donation.Anonymous {
		donor = c.donorDisplayName(donation)
	}
	return fmt.Sprintf(
		"<h2>New donation</h2><p><strong>%s</strong> donated <strong>%s</strong> to <strong>%s</strong> via %s.</p><p>Campaign total is now tracked in the ledger; donation id <code>%s</code>.</p>",
		donor, amountLine(donation.Amount, donation.Currency),
		html.EscapeString(campaign.Title), donation.Method, html.EscapeString(donation.ID))
}

func (c *Composer) donorDisplayName(donation *domain.Donation) string {
	if donation.Anonymous || donation.DonorName == nil || strings.TrimSpace(*donation.DonorName) == "" {
		return "Friend"
	}
	return html.EscapeString(titleCaser.String(strings.TrimSpace(*donation.DonorName)))
}

func amountLine(amount decimal.Decimal, currency string) string {
	return amount.StringFixed(2) + " " + strings.ToUpper(currency)
}
