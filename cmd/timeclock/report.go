package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/urfave/cli/v2"

	"github.com/jw6ventures/timeclock/internal/config"
	"github.com/jw6ventures/timeclock/internal/reporting"
	"github.com/jw6ventures/timeclock/internal/store"
)

var reportCommand = &cli.Command{
	Name:  "report",
	Usage: "print a user's month report",
	Flags: []cli.Flag{
		&cli.StringFlag{Name: "email", Required: true, Usage: "account email"},
		&cli.StringFlag{Name: "month", Required: true, Usage: "month as YYYY-MM"},
	},
	Action: func(c *cli.Context) error {
		period, err := reporting.ParseMonth(c.String("month"))
		if err != nil {
			return err
		}
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		pool, err := pgxpool.New(c.Context, cfg.DB.DSN)
		if err != nil {
			return fmt.Errorf("create db pool: %w", err)
		}
		defer pool.Close()
		st := store.New(pool)

		user, err := st.Users.GetByEmail(c.Context, c.String("email"))
		if err != nil {
			return fmt.Errorf("find user: %w", err)
		}
		loc, err := user.Location()
		if err != nil {
			return err
		}
		start, _ := period.Start.AddDays(-1).Bounds(loc)
		_, end := period.Bounds(loc)
		events, err := st.ClockEvents.ListRange(c.Context, user.ID, start, end)
		if err != nil {
			return err
		}

		report := reporting.BuildPeriodReport(reporting.PeriodInput{Period: period, Location: loc, Events: events, Now: time.Now()})
		buildReportTable(os.Stdout, report).Render()
		return nil
	},
}

func formatMinutes(m int) string {
	return fmt.Sprintf("%d:%02d", m/60, m%60)
}

// buildReportTable renders one row per day that has any time recorded.
func buildReportTable(w io.Writer, report reporting.PeriodReport) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"Date", "Worked", "Break", "Required", "Home", "Office", "Rest", "Flags"})

	for _, d := range report.Days {
		if d.WorkedMinutes == 0 && d.BreakMinutes == 0 {
			continue
		}
		rest := ""
		if d.RestPeriodMinutes != nil {
			rest = formatMinutes(*d.RestPeriodMinutes)
		}
		var flags []string
		if !d.BreakCompliantTotal || !d.BreakCompliantContinuous {
			flags = append(flags, "break")
		}
		if d.MaxDailyWorkExceeded {
			flags = append(flags, "max")
		}
		if d.RestPeriodViolation {
			flags = append(flags, "rest")
		}
		if d.HasOpenInterval {
			flags = append(flags, "open")
		}
		t.AppendRow(table.Row{
			d.Date.String(),
			formatMinutes(d.WorkedMinutes),
			formatMinutes(d.BreakMinutes),
			formatMinutes(d.RequiredBreakMinutes),
			formatMinutes(d.HomeMinutes),
			formatMinutes(d.OfficeMinutes),
			rest,
			strings.Join(flags, ","),
		})
	}
	t.AppendFooter(table.Row{
		"Total",
		formatMinutes(report.TotalWorkedMinutes),
		formatMinutes(report.TotalBreakMinutes),
		"",
		fmt.Sprintf("%d home days", report.HomeOfficeDays),
		fmt.Sprintf("%d worked days", report.WorkedDays),
		"",
		fmt.Sprintf("%.0f%% home", report.HomeOfficeRatio*100),
	})
	t.SetStyle(table.StyleRounded)
	return t
}
