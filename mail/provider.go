// Package mail sends transactional email. The Provider interface keeps
// the notifier independent of the concrete mail vendor.
package mail

import "context"

// Message is one outbound transactional email.
type Message struct {
	To       string
	Subject  string
	HTMLBody string
}

// Provider is the adapter interface for mail vendors. Implement this to
// add new vendors (Resend, SendGrid, SMTP, etc.).
type Provider interface {
	// Name returns the vendor name for logging.
	Name() string
	// Send delivers the message, returning an error on any non-success
	// vendor response.
	Send(ctx context.Context, msg Message) error
}
