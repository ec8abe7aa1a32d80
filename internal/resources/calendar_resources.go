package resources

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/teemow/julian/internal/server"
	"github.com/teemow/julian/internal/tools/common"
)

type searchDefaults struct {
	SlotDurationMinutes int      `json:"slotDurationMinutes"`
	HorizonDays         int      `json:"horizonDays"`
	BusinessStartHour   int      `json:"businessStartHour"`
	BusinessEndHour     int      `json:"businessEndHour"`
	StepMinutes         int      `json:"stepMinutes"`
	WorkingDays         []string `json:"workingDays"`
}

type calendarSettings struct {
	Account        string            `json:"account"`
	TimeZone       string            `json:"timeZone"`
	Settings       map[string]string `json:"settings"`
	FreeSlots      searchDefaults    `json:"freeSlots"`
	DeclineComment string            `json:"declineComment"`
	ReadOnly       bool              `json:"readOnly"`
}

// handleCalendarSettings returns the calendar settings of the current account
// together with the configured free-slot search defaults
func handleCalendarSettings(ctx context.Context, request mcp.ReadResourceRequest, sc *server.ServerContext) ([]mcp.ResourceContents, error) {
	account := common.GetAccountFromArgs(ctx, nil)

	planner, err := sc.PlannerForAccount(ctx, account)
	if err != nil {
		return nil, err
	}
	loc, err := planner.Location(ctx)
	if err != nil {
		return nil, err
	}

	client, err := sc.CalendarClientForAccount(ctx, account)
	if err != nil {
		return nil, err
	}
	settings, err := client.ListSettings(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get calendar settings for account %s: %w", account, err)
	}

	cfg := sc.Config().Scheduling
	return jsonContents(request.Params.URI, calendarSettings{
		Account:  account,
		TimeZone: loc.String(),
		Settings: settings,
		FreeSlots: searchDefaults{
			SlotDurationMinutes: cfg.SlotDurationMinutes,
			HorizonDays:         cfg.HorizonDays,
			BusinessStartHour:   cfg.BusinessStartHour,
			BusinessEndHour:     cfg.BusinessEndHour,
			StepMinutes:         cfg.StepMinutes,
			WorkingDays:         cfg.WorkingDays,
		},
		DeclineComment: cfg.DeclineComment,
		ReadOnly:       sc.ReadOnly(),
	})
}
