// Package notifier implements the link-expiry notification job. An
// external scheduler invokes it over HTTP; each tick evaluates every
// active expiring link and emails owners whose links are close to
// lapsing, at most once per notification window.
package notifier

import (
	"context"
	"fmt"
	"html"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/JuanjoRodri/Plan-de-viaje-a-medida-sub002/datastore"
	"github.com/JuanjoRodri/Plan-de-viaje-a-medida-sub002/mail"
	"github.com/JuanjoRodri/Plan-de-viaje-a-medida-sub002/metrics"
	"github.com/JuanjoRodri/Plan-de-viaje-a-medida-sub002/models"
	"github.com/JuanjoRodri/Plan-de-viaje-a-medida-sub002/temporal"
	"github.com/JuanjoRodri/Plan-de-viaje-a-medida-sub002/webutil"
)

// Per-link outcome statuses surfaced in the job summary.
const (
	StatusSuccess           = "success"
	StatusSkipped           = "skipped"
	StatusTimeConditions    = "time_conditions_not_met"
	StatusExpired           = "expired"
	StatusEmailFailed       = "email_failed"
	StatusEmailSentDBFailed = "email_sent_but_db_update_failed"
	StatusFetchFailed       = "fetch_failed"
)

// LinkResult is the outcome of evaluating one link.
type LinkResult struct {
	LinkID       string `json:"link_id"`
	LinkTitle    string `json:"link_title"`
	UserEmail    string `json:"user_email"`
	Status       string `json:"status"`
	Reason       string `json:"reason,omitempty"`
	ErrorDetails string `json:"error_details,omitempty"`
}

// Summary is the whole-job response. The HTTP status is 200 even when
// individual links failed; callers inspect the body.
type Summary struct {
	Success           bool            `json:"success"`
	Message           string          `json:"message"`
	NotificationsSent int             `json:"notificationsSent"`
	TotalLinksChecked int             `json:"totalLinksChecked"`
	DetailedResults   []LinkResult    `json:"detailed_results"`
	EnvironmentCheck  map[string]bool `json:"environment_check"`
	Timestamp         string          `json:"timestamp"`
}

// Notifier evaluates expiring shared links and sends expiry warnings.
type Notifier struct {
	linkRepo     *datastore.SharedLinkRepository
	mailProvider mail.Provider
	cronSecret   string
	baseURL      string
	now          func() time.Time
}

func New(linkRepo *datastore.SharedLinkRepository, mailProvider mail.Provider, cronSecret, baseURL string) *Notifier {
	return &Notifier{
		linkRepo:     linkRepo,
		mailProvider: mailProvider,
		cronSecret:   cronSecret,
		baseURL:      baseURL,
		now:          time.Now,
	}
}

// HandleRun is the HTTP entry point for the scheduler tick. It requires
// the shared cron secret as a bearer token.
func (n *Notifier) HandleRun(w http.ResponseWriter, r *http.Request) {
	if n.cronSecret == "" {
		webutil.RespondWithError(w, http.StatusInternalServerError, "CRON_SECRET is not configured")
		return
	}
	authHeader := r.Header.Get(webutil.HeaderAuthorization)
	if authHeader != "Bearer "+n.cronSecret {
		webutil.RespondWithError(w, http.StatusUnauthorized, "Invalid or missing cron secret")
		return
	}

	log.Println("INFO (Notifier): Expiry notification run triggered via HTTP")
	summary := n.Run(r.Context())
	webutil.RespondWithJSON(w, http.StatusOK, summary)
}

// Run executes a single notification pass. Links are processed
// independently; one failure never stops the remaining links.
func (n *Notifier) Run(ctx context.Context) Summary {
	now := n.now().UTC()
	summary := Summary{
		DetailedResults: []LinkResult{},
		EnvironmentCheck: map[string]bool{
			"mail_provider_configured": n.mailProvider != nil,
			"base_url_configured":      n.baseURL != "",
		},
		Timestamp: now.Format(time.RFC3339),
	}

	links, err := n.linkRepo.GetNotifiableLinks(ctx)
	if err != nil {
		log.Printf("ERROR (Notifier): Failed to fetch notifiable links: %v", err)
		summary.Success = false
		summary.Message = "failed to fetch links: " + err.Error()
		summary.DetailedResults = append(summary.DetailedResults, LinkResult{
			Status:       StatusFetchFailed,
			ErrorDetails: err.Error(),
		})
		metrics.ExpiryNotifications.WithLabelValues(StatusFetchFailed).Inc()
		return summary
	}

	summary.TotalLinksChecked = len(links)
	for i := range links {
		result := n.processLink(ctx, &links[i], now)
		summary.DetailedResults = append(summary.DetailedResults, result)
		metrics.ExpiryNotifications.WithLabelValues(result.Status).Inc()
		if result.Status == StatusSuccess || result.Status == StatusEmailSentDBFailed {
			summary.NotificationsSent++
		}
	}

	summary.Success = true
	summary.Message = fmt.Sprintf("checked %d links, sent %d notifications", summary.TotalLinksChecked, summary.NotificationsSent)
	log.Printf("INFO (Notifier): %s", summary.Message)
	return summary
}

func (n *Notifier) processLink(ctx context.Context, link *datastore.NotifiableLink, now time.Time) LinkResult {
	result := LinkResult{
		LinkID:    link.ID,
		LinkTitle: link.Title,
		UserEmail: link.UserEmail,
	}

	if !link.NotificationsEnabled {
		result.Status = StatusSkipped
		result.Reason = "user disabled notifications"
		return result
	}

	hoursBefore := link.NotificationHoursBefore
	if !models.ValidNotificationHours(hoursBefore) {
		hoursBefore = models.DefaultNotificationHoursBefore
	}

	remaining := link.ExpiresAt.Sub(now)
	if remaining <= 0 {
		result.Status = StatusExpired
		result.Reason = "link already expired"
		return result
	}

	threshold := link.ExpiresAt.Add(-time.Duration(hoursBefore) * time.Hour)
	if !temporal.ShouldFire(threshold, link.LastNotificationSentAt, now) {
		result.Status = StatusTimeConditions
		if now.Before(threshold) {
			result.Reason = "notification window not reached"
		} else {
			result.Reason = "notification already sent this window"
		}
		return result
	}

	msg := mail.Message{
		To:       link.UserEmail,
		Subject:  fmt.Sprintf("Your shared itinerary %q expires in %s", link.Title, formatRemaining(remaining)),
		HTMLBody: n.buildEmailBody(link, remaining),
	}
	if err := n.mailProvider.Send(ctx, msg); err != nil {
		log.Printf("ERROR (Notifier): Failed to send expiry email for link %s: %v", link.ID, err)
		result.Status = StatusEmailFailed
		result.ErrorDetails = err.Error()
		return result
	}

	updated, err := n.linkRepo.MarkNotificationSent(ctx, link.ID, threshold, now)
	if err != nil {
		log.Printf("ERROR (Notifier): Email sent but stamp update failed for link %s: %v", link.ID, err)
		result.Status = StatusEmailSentDBFailed
		result.ErrorDetails = err.Error()
		return result
	}

	result.Status = StatusSuccess
	if !updated {
		// A concurrent run stamped the window first; the email still went out.
		result.Reason = "notification stamp already recorded by a concurrent run"
	}
	return result
}

func (n *Notifier) buildEmailBody(link *datastore.NotifiableLink, remaining time.Duration) string {
	var b strings.Builder
	b.WriteString("<p>Hello,</p>")
	fmt.Fprintf(&b, "<p>Your shared itinerary <strong>%s</strong> will expire in %s.</p>", html.EscapeString(link.Title), formatRemaining(remaining))
	if n.baseURL != "" {
		fmt.Fprintf(&b, `<p><a href="%s/share/%s">Open the shared itinerary</a></p>`, strings.TrimRight(n.baseURL, "/"), link.Token)
	}
	b.WriteString("<p>Extend the expiry from your dashboard if you want to keep it available.</p>")
	return b.String()
}

func formatRemaining(remaining time.Duration) string {
	hours := int(remaining.Hours())
	if hours < 1 {
		return "less than an hour"
	}
	if hours == 1 {
		return "1 hour"
	}
	return fmt.Sprintf("%d hours", hours)
}
