package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/teemow/julian/internal/config"
	"github.com/teemow/julian/internal/freeslots"
	"github.com/teemow/julian/internal/google"
	"github.com/teemow/julian/internal/logging"
	"github.com/teemow/julian/internal/scheduling"
	"github.com/teemow/julian/internal/server"
)

type slotsOptions struct {
	account     string
	users       string
	busyFile    string
	now         string
	timeZone    string
	duration    time.Duration
	horizon     int
	startHour   int
	endHour     int
	step        time.Duration
	workingDays string
	maxResults  int
	logLevel    string
}

// busyJSON is one entry of a --busy file.
type busyJSON struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// slotJSON is the printed form of a free slot.
type slotJSON struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

func newSlotsCmd() *cobra.Command {
	var opts slotsOptions

	cmd := &cobra.Command{
		Use:   "slots",
		Short: "Find free meeting slots",
		Long: `Find free meeting slots and print them as a JSON array of {start, end} pairs.

By default the primary calendar of --account is searched. With --users the
free/busy information of every listed calendar is combined. With --busy the
search runs offline against busy intervals read from a JSON file ("-" for
stdin) of the form [{"start": "...", "end": "..."}].

Unset search options fall back to the [scheduling] section of julian.toml.`,
		Example: `  julian slots --duration 30m --horizon 3
  julian slots --users alice@example.com,bob@example.com
  julian slots --busy busy.json --now 2025-12-08T12:00:00-08:00`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			search, err := opts.searchOptions(cmd)
			if err != nil {
				return err
			}

			if opts.busyFile != "" {
				now, err := opts.reference(cfg)
				if err != nil {
					return err
				}
				in := cmd.InOrStdin()
				if opts.busyFile != "-" {
					f, err := os.Open(opts.busyFile)
					if err != nil {
						return fmt.Errorf("failed to open busy file: %w", err)
					}
					defer f.Close()
					in = f
				}
				return runOfflineSlots(cmd.OutOrStdout(), in, cfg, now, search, opts.maxResults)
			}

			configureGoogleCredentials(cfg, "", "")
			return runCalendarSlots(cmd.Context(), cmd.OutOrStdout(), cfg, opts, search)
		},
	}

	cmd.Flags().StringVar(&opts.account, "account", "default", "Google account whose calendar is searched")
	cmd.Flags().StringVar(&opts.users, "users", "", "Comma-separated emails; find slots where all of them are free")
	cmd.Flags().StringVar(&opts.busyFile, "busy", "", "Search offline against busy intervals from this JSON file (- for stdin)")
	cmd.Flags().StringVar(&opts.now, "now", "", "Reference instant in RFC 3339 with offset (default: current time)")
	cmd.Flags().StringVar(&opts.timeZone, "time-zone", "", "IANA time zone for day boundaries in offline searches (default: config or local)")
	cmd.Flags().DurationVar(&opts.duration, "duration", 0, "Slot length, e.g. 30m (default from config)")
	cmd.Flags().IntVar(&opts.horizon, "horizon", 0, "Number of days to search, starting tomorrow (default from config)")
	cmd.Flags().IntVar(&opts.startHour, "start-hour", 0, "First business hour, 0-23 (default from config)")
	cmd.Flags().IntVar(&opts.endHour, "end-hour", 0, "Hour the business day ends, 1-23 (default from config)")
	cmd.Flags().DurationVar(&opts.step, "step", 0, "Distance between candidate starts (default from config)")
	cmd.Flags().StringVar(&opts.workingDays, "working-days", "", "Comma-separated weekdays, e.g. mon,tue,wed (default from config)")
	cmd.Flags().IntVar(&opts.maxResults, "max", 0, "Maximum number of slots to print (default: all)")
	cmd.Flags().StringVar(&opts.logLevel, "log-level", "warn", "Log level: debug, info, warn or error")

	return cmd
}

// searchOptions converts the flags into planner options. Duration, horizon
// and hours are only set when given, so an explicit 0 fails validation.
func (o slotsOptions) searchOptions(cmd *cobra.Command) (scheduling.Options, error) {
	search := scheduling.Options{Step: o.step}
	if cmd.Flags().Changed("duration") {
		d := o.duration
		search.SlotDuration = &d
	}
	if cmd.Flags().Changed("horizon") {
		days := o.horizon
		search.HorizonDays = &days
	}
	if cmd.Flags().Changed("start-hour") {
		h := o.startHour
		search.BusinessStartHour = &h
	}
	if cmd.Flags().Changed("end-hour") {
		h := o.endHour
		search.BusinessEndHour = &h
	}
	if o.workingDays != "" {
		days, err := config.ParseWeekdays(parseCommaSeparatedList(o.workingDays))
		if err != nil {
			return scheduling.Options{}, err
		}
		search.WorkingDays = days
	}
	return search, nil
}

// reference returns the offline search's "now" in the reference zone:
// --time-zone, then the configured zone, then the zone of --now or Local.
func (o slotsOptions) reference(cfg *config.Config) (time.Time, error) {
	now := time.Now()
	loc := time.Local
	if o.now != "" {
		t, err := freeslots.ParseInstant(o.now)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid --now: %w", err)
		}
		now = t
		loc = t.Location()
	}

	if configured, err := cfg.Scheduling.Location(); err != nil {
		return time.Time{}, err
	} else if configured != nil {
		loc = configured
	}
	if o.timeZone != "" {
		l, err := time.LoadLocation(o.timeZone)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid --time-zone: %w", err)
		}
		loc = l
	}
	return now.In(loc), nil
}

// readBusy decodes a JSON array of {start, end} pairs.
func readBusy(r io.Reader) ([]freeslots.Interval, error) {
	var entries []busyJSON
	if err := json.NewDecoder(r).Decode(&entries); err != nil {
		return nil, fmt.Errorf("failed to decode busy intervals: %w", err)
	}
	busy := make([]freeslots.Interval, 0, len(entries))
	for i, e := range entries {
		iv, err := freeslots.ParseInterval(e.Start, e.End)
		if err != nil {
			return nil, fmt.Errorf("busy interval %d: %w", i, err)
		}
		busy = append(busy, iv)
	}
	return busy, nil
}

func runOfflineSlots(w io.Writer, in io.Reader, cfg *config.Config, now time.Time, search scheduling.Options, maxResults int) error {
	busy, err := readBusy(in)
	if err != nil {
		return err
	}
	req, err := scheduling.NewRequest(cfg.Scheduling, now, search)
	if err != nil {
		return err
	}
	slots, err := freeslots.Find(req, busy)
	if err != nil {
		return err
	}
	return writeSlots(w, slots, maxResults)
}

func runCalendarSlots(ctx context.Context, w io.Writer, cfg *config.Config, opts slotsOptions, search scheduling.Options) error {
	if ctx == nil {
		ctx = context.Background()
	}
	logger, err := logging.New(logging.Options{Level: opts.logLevel})
	if err != nil {
		return err
	}

	scOpts := []server.ContextOption{server.WithLogger(logger)}
	if opts.now != "" {
		fixed, err := freeslots.ParseInstant(opts.now)
		if err != nil {
			return fmt.Errorf("invalid --now: %w", err)
		}
		scOpts = append(scOpts, server.WithClock(func() time.Time { return fixed }))
	}

	sc, err := server.NewServerContext(ctx, cfg, scOpts...)
	if err != nil {
		return fmt.Errorf("failed to create server context: %w", err)
	}
	defer func() { _ = sc.Shutdown() }()

	planner, err := sc.PlannerForAccount(ctx, opts.account)
	if err != nil {
		if errors.Is(err, google.ErrNoToken) {
			return errors.New(google.GetAuthenticationErrorMessage(opts.account))
		}
		return err
	}

	var slots []freeslots.Slot
	if users := parseCommaSeparatedList(opts.users); len(users) > 0 {
		slots, err = planner.FindFreeSlotsForUsers(ctx, users, search)
	} else {
		slots, err = planner.FindFreeSlots(ctx, search)
	}
	if err != nil {
		return fmt.Errorf("failed to find free slots: %w", err)
	}
	return writeSlots(w, slots, opts.maxResults)
}

// writeSlots prints slots as an indented JSON array, at most maxResults
// entries when maxResults is positive.
func writeSlots(w io.Writer, slots []freeslots.Slot, maxResults int) error {
	if maxResults > 0 && len(slots) > maxResults {
		slots = slots[:maxResults]
	}
	out := make([]slotJSON, 0, len(slots))
	for _, s := range slots {
		out = append(out, slotJSON{
			Start: s.Start.Format(time.RFC3339),
			End:   s.End.Format(time.RFC3339),
		})
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
