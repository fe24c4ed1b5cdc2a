package webhook

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"timesheet-platform/internal/identity"
	"timesheet-platform/internal/session"
	"timesheet-platform/internal/sites"
	"timesheet-platform/internal/timeparse"
	"timesheet-platform/internal/timesheet"
	"timesheet-platform/pkg/logger"

	"github.com/gin-gonic/gin"
)

// Step names the voice platform invokes.
const (
	StepAuthenticate = "authenticate_caller"
	StepIdentifySite = "identify_site_for_timesheet"
	StepSaveEntry    = "save_timesheet_entry"
	StepConfirm      = "confirm_timesheet"
)

const capabilityTimesheet = "timesheet"

const secretHeader = "X-Vapi-Secret"

type toolResult struct {
	ToolCallID string `json:"toolCallId"`
	Result     any    `json:"result"`
}

type envelope struct {
	Results []toolResult `json:"results"`
}

// Gateway answers tool invocations from the voice platform. Every step
// failure becomes a spoken-safe result for the assistant to read back;
// the endpoint stays 200 so the platform does not retry mid-conversation.
//
// No business logic here beyond conversational phrasing. The services
// own validation and persistence.

type Gateway struct {
	Identity   *identity.Service
	Sessions   session.Store
	Sites      *sites.Resolver
	Timesheets *timesheet.Service
	Audit      auditLogger

	// Secret, when set, must match the X-Vapi-Secret header.
	Secret string
}

// auditLogger is the slice of the audit service the gateway uses.
type auditLogger interface {
	LogAuthAttempt(ctx context.Context, tenantID, workerID, callID, phone, message string) error
}

func (h *Gateway) HandleToolCalls(c *gin.Context) {
	log := logger.FromGin(c)

	if h.Secret != "" && c.GetHeader(secretHeader) != h.Secret {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid webhook secret"})
		return
	}

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "unreadable body"})
		return
	}

	p, err := Parse(body)
	if err != nil {
		log.Warn("webhook parse failed", "err", err)
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "malformed webhook payload"})
		return
	}

	resp := envelope{Results: make([]toolResult, 0, len(p.Invocations))}
	for _, inv := range p.Invocations {
		res := h.dispatch(c.Request.Context(), log, p, inv)
		resp.Results = append(resp.Results, toolResult{ToolCallID: inv.ID, Result: res})
	}
	c.JSON(http.StatusOK, resp)
}

// dispatch runs one invocation. A panic in a step must not take down the
// other invocations in the batch or leak a 500 to the platform.
func (h *Gateway) dispatch(ctx context.Context, log *slog.Logger, p Payload, inv Invocation) (res map[string]any) {
	defer func() {
		if r := recover(); r != nil {
			log.Error("webhook step panicked", "step", inv.Name, "call_id", p.CallID, "panic", r)
			res = failure("I encountered an unexpected error. Please try again.")
		}
	}()

	switch inv.Name {
	case StepAuthenticate:
		return h.authenticate(ctx, p)
	case StepIdentifySite:
		return h.identifySite(ctx, p.CallID, inv)
	case StepSaveEntry:
		return h.saveEntry(ctx, p.CallID, inv)
	case StepConfirm:
		return h.confirm(ctx, p.CallID, inv)
	default:
		log.Warn("unknown webhook step", "step", inv.Name, "call_id", p.CallID)
		return failure("I can't do that right now.")
	}
}

func (h *Gateway) authenticate(ctx context.Context, p Payload) map[string]any {
	id, err := h.Identity.Resolve(ctx, p.CallerPhone)
	if err != nil {
		if h.Audit != nil {
			_ = h.Audit.LogAuthAttempt(ctx, "", "", p.CallID, p.CallerPhone, "authentication failed")
		}
		if errors.Is(err, identity.ErrNotAuthorized) || errors.Is(err, identity.ErrNoPhone) {
			return map[string]any{
				"authenticated": false,
				"message":       "I'm sorry, I couldn't verify your phone number. Please contact your manager to get set up.",
			}
		}
		return map[string]any{
			"authenticated": false,
			"message":       "I had trouble verifying your number. Please try calling again.",
		}
	}

	if _, err := h.Sessions.GetOrCreate(ctx, p.CallID, id); err != nil {
		return map[string]any{
			"authenticated": false,
			"message":       "I had trouble starting your session. Please try calling again.",
		}
	}
	if h.Audit != nil {
		_ = h.Audit.LogAuthAttempt(ctx, id.TenantID, id.WorkerID, p.CallID, id.Phone, "authenticated")
	}

	return map[string]any{
		"authenticated":   true,
		"user_name":       id.FirstName,
		"tenant_name":     id.TenantName,
		"available_sites": siteList(id.Sites),
		"message":         fmt.Sprintf("Hi %s! Which site would you like to log time for?", id.FirstName),
	}
}

func (h *Gateway) identifySite(ctx context.Context, callID string, inv Invocation) map[string]any {
	var args struct {
		SiteDescription string `json:"site_description"`
	}
	if err := decodeArgs(inv.Args, &args); err != nil {
		return resolverFailure("I didn't catch that. Which site did you work at?")
	}

	sess, err := h.Sessions.Get(ctx, callID)
	if err != nil {
		return resolverFailure("I couldn't find your session. Please try calling again.")
	}
	if !sess.Identity.HasCapability(capabilityTimesheet) {
		return resolverFailure("Timesheet logging isn't enabled for your account. Please contact support.")
	}
	if len(sess.Identity.Sites) == 0 {
		return resolverFailure("I couldn't find any active sites for your account. Please contact support.")
	}

	// An empty description is a request for the list, not a match attempt.
	if strings.TrimSpace(args.SiteDescription) == "" {
		return map[string]any{
			"site_identified": false,
			"sites_list":      siteList(sess.Identity.Sites),
			"message":         fmt.Sprintf("You have %d sites available for timesheet logging.", len(sess.Identity.Sites)),
		}
	}

	candidates := make([]sites.Candidate, 0, len(sess.Identity.Sites))
	for _, s := range sess.Identity.Sites {
		candidates = append(candidates, sites.Candidate{ID: s.ID, Name: s.Name})
	}

	m, err := h.Sites.Resolve(ctx, args.SiteDescription, candidates)
	if err != nil {
		if errors.Is(err, sites.ErrNoMatch) {
			names := make([]string, 0, len(sess.Identity.Sites))
			for _, s := range sess.Identity.Sites {
				names = append(names, s.Name)
			}
			return map[string]any{
				"site_identified": false,
				"available_sites": names,
				"message":         fmt.Sprintf("I couldn't find that site. Your available sites are: %s. Which one did you mean?", strings.Join(names, ", ")),
			}
		}
		return resolverFailure("I had trouble identifying that site. Could you be more specific?")
	}

	return map[string]any{
		"site_identified": true,
		"site_id":         m.ID,
		"site_name":       m.Name,
		"confidence":      m.Confidence,
		"message":         fmt.Sprintf("Great! I've identified %s. What time did you start work there today?", m.Name),
	}
}

func (h *Gateway) saveEntry(ctx context.Context, callID string, inv Invocation) map[string]any {
	var args struct {
		SiteID           string `json:"site_id"`
		StartTime        string `json:"start_time"`
		EndTime          string `json:"end_time"`
		WorkDescription  string `json:"work_description"`
		PlansForTomorrow string `json:"plans_for_tomorrow"`
	}
	if err := decodeArgs(inv.Args, &args); err != nil {
		return failure("I'm missing some details for that entry. Let's go through it again.")
	}

	sess, err := h.Sessions.Get(ctx, callID)
	if err != nil {
		return failure("I couldn't find your session. Please try calling again.")
	}
	if !sess.Identity.HasCapability(capabilityTimesheet) {
		return failure("Timesheet logging isn't enabled for your account. Please contact support.")
	}

	entry, err := h.Timesheets.AddEntry(ctx, callID, timesheet.EntryInput{
		SiteID:           args.SiteID,
		StartTime:        args.StartTime,
		EndTime:          args.EndTime,
		WorkDescription:  args.WorkDescription,
		PlansForTomorrow: args.PlansForTomorrow,
	})
	if err != nil {
		switch {
		case errors.Is(err, timeparse.ErrUnparseable):
			return failure("I didn't catch those times. What time did you start and finish?")
		case errors.Is(err, timeparse.ErrInvalidRange):
			return failure("The finish time needs to be after the start time. What were your actual hours?")
		case errors.Is(err, timesheet.ErrUnknownSite):
			return failure("That site isn't on your list. Which site did you mean?")
		case errors.Is(err, timesheet.ErrTooManyEntries):
			return failure("That's a lot of entries for one call. Let's confirm what we have so far.")
		case errors.Is(err, session.ErrFinalized):
			return failure("Your timesheet for this call is already saved.")
		case errors.Is(err, timesheet.ErrInvalidArgument):
			return failure("I'm missing some details for that entry. Let's go through it again.")
		default:
			return failure("I had trouble saving that entry. Please try again.")
		}
	}

	return map[string]any{
		"success":      true,
		"site_name":    entry.SiteName,
		"work_date":    entry.WorkDate,
		"hours_worked": entry.Hours,
		"message":      fmt.Sprintf("Got it! I've logged %.2f hours at %s.", entry.Hours, entry.SiteName),
	}
}

func (h *Gateway) confirm(ctx context.Context, callID string, inv Invocation) map[string]any {
	var args struct {
		UserConfirmed bool `json:"user_confirmed"`
	}
	if err := decodeArgs(inv.Args, &args); err != nil {
		return failure("I didn't catch that. Should I save your timesheet?")
	}
	if !args.UserConfirmed {
		return failure("No problem, let's make corrections. What needs to be changed?")
	}

	sum, err := h.Timesheets.Finalize(ctx, callID)
	if err != nil {
		switch {
		case errors.Is(err, session.ErrNotFound):
			return failure("I couldn't find your session. Please try calling again.")
		case errors.Is(err, timesheet.ErrPersistence):
			return failure("I had trouble saving your timesheet. Please try again in a moment.")
		default:
			return failure("Something went wrong saving your timesheet. Please try again.")
		}
	}

	plural := ""
	if sum.Entries != 1 {
		plural = "s"
	}
	return map[string]any{
		"success":       true,
		"total_entries": sum.Entries,
		"total_hours":   sum.TotalHours,
		"entries":       sum.Lines,
		"message":       fmt.Sprintf("Perfect! I've saved your timesheet for %d site%s, totaling %.2f hours. Have a great day!", sum.Entries, plural, sum.TotalHours),
	}
}

func failure(msg string) map[string]any {
	return map[string]any{"success": false, "message": msg}
}

func resolverFailure(msg string) map[string]any {
	return map[string]any{"site_identified": false, "message": msg}
}

func siteList(ss []identity.Site) []map[string]any {
	out := make([]map[string]any, 0, len(ss))
	for _, s := range ss {
		out = append(out, map[string]any{
			"site_id":         s.ID,
			"site_name":       s.Name,
			"site_identifier": s.Identifier,
			"site_address":    s.Address,
		})
	}
	return out
}
