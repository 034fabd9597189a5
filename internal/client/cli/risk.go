package cli

import (
	"fmt"
	"sort"

	"github.com/dmitrijs2005/facelock/internal/api"
	"github.com/spf13/cobra"
)

func (a *App) newRiskCmd() *cobra.Command {
	var (
		req                  api.AssessRiskRequest
		geo                  float64
		hour, daysSinceLogin int
	)

	cmd := &cobra.Command{
		Use:   "risk",
		Short: "Assess the risk of a session and list the required auth factors",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			flags := cmd.Flags()
			if flags.Changed("geo-delta-km") {
				req.GeoDeltaKm = &geo
			}
			if flags.Changed("local-hour") {
				req.LocalHour = &hour
			}
			if flags.Changed("days-since-login") {
				req.DaysSinceLastLogin = &daysSinceLogin
			}

			c, err := a.connect()
			if err != nil {
				return err
			}
			ctx, cancel := a.withTimeout(cmd.Context())
			defer cancel()

			res, err := c.AssessRisk(ctx, &req)
			if err != nil {
				return err
			}

			return a.output(cmd, res, func() {
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Risk: %s (score %.2f)\n", res.Level, res.Score)
				if res.Overridden {
					fmt.Fprintln(out, "  Level raised by override")
				}
				names := make([]string, 0, len(res.Factors))
				for name := range res.Factors {
					names = append(names, name)
				}
				sort.Strings(names)
				for _, name := range names {
					f := res.Factors[name]
					fmt.Fprintf(out, "  %-18s %.2f  %s\n", name, f.Score, f.Description)
				}
				fmt.Fprintf(out, "Required: %v\n", res.RequiredFactors)
			})
		},
	}

	f := cmd.Flags()
	f.StringVar(&req.DeviceFingerprint, "device-fingerprint", "", "device fingerprint")
	f.BoolVar(&req.KnownDevice, "known-device", false, "device was seen before")
	f.StringVar(&req.DeviceType, "device-type", "", "device type (mobile, desktop, ...)")
	f.Float64Var(&geo, "geo-delta-km", 0, "distance from the usual location in km")
	f.IntVar(&hour, "local-hour", 0, "local hour of the session (0-23)")
	f.IntVar(&req.LoginsLastHour, "logins-last-hour", 0, "logins in the last hour")
	f.IntVar(&req.RecentFailures, "recent-failures", 0, "recent failed verifications")
	f.IntVar(&daysSinceLogin, "days-since-login", 0, "days since the previous login")
	f.StringVar(&req.MinLevel, "min-level", "", "raise the result to at least this level (low, medium, high)")
	return cmd
}
