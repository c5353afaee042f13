package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"siteqr/internal/geofence"
	"siteqr/internal/validator"
)

func newValidateCmd(a *app) *cobra.Command {
	var lat, lng float64
	cmd := &cobra.Command{
		Use:   "validate TOKEN...",
		Short: "Validate scanned tokens",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := a.engine()
			if err != nil {
				return err
			}
			v := validator.New(engine, validator.WithLogger(a.logger.Slog()))
			results, err := v.ValidateAll(cmd.Context(), args, a.cfg.Workers)
			if err != nil {
				return err
			}

			checkProximity := cmd.Flags().Changed("lat") || cmd.Flags().Changed("lng")
			if checkProximity && !geofence.ValidCoordinates(lat, lng) {
				return geofence.ErrInvalidCoordinates
			}

			invalid := 0
			for i, res := range results {
				if i > 0 {
					a.ui.Separator()
				}
				if !res.OK {
					invalid++
					a.ui.Failure(res.Reason.Message())
					a.ui.KeyValue("state", res.State.String())
					if res.Payload != nil {
						a.ui.KeyValue("site", res.Payload.SiteID)
					}
					continue
				}
				a.printSite(res)
				if checkProximity {
					a.printProximity(res, lat, lng)
				}
			}
			if invalid > 0 {
				return errReported
			}
			return nil
		},
	}
	cmd.Flags().Float64Var(&lat, "lat", 0, "scanner latitude for the geofence check")
	cmd.Flags().Float64Var(&lng, "lng", 0, "scanner longitude for the geofence check")
	cmd.MarkFlagsRequiredTogether("lat", "lng")
	return cmd
}

func (a *app) printSite(res validator.Result) {
	site := validator.NewSiteResponse(*res.Payload, time.Now())
	a.ui.Success(res.Reason.Message())
	a.ui.KeyValue("site", fmt.Sprintf("%s (%s)", site.SiteInfo.ID, site.SiteInfo.Name))
	a.ui.KeyValue("location", site.SiteInfo.Location)
	a.ui.KeyValue("coordinates", fmt.Sprintf("%g, %g", site.SiteInfo.Coordinates.Lat, site.SiteInfo.Coordinates.Lng))
	a.ui.KeyValue("levels", fmt.Sprintf("safe %g / warning %g / danger %g", site.Levels.Safe, site.Levels.Warning, site.Levels.Danger))
	a.ui.KeyValue("qr code", site.Validation.QRCode)
	a.ui.KeyValue("expires", res.Payload.ExpiresAt)
}

func (a *app) printProximity(res validator.Result, lat, lng float64) {
	prox, err := geofence.Check(*res.Payload, lat, lng)
	if err != nil {
		a.ui.Warning(err.Error())
		return
	}
	msg := fmt.Sprintf("%.1f m from site, geofence radius %d m", prox.DistanceMeters, prox.RadiusMeters)
	if prox.Within {
		a.ui.Success("Within geofence: " + msg)
	} else {
		a.ui.Warning("Outside geofence: " + msg)
	}
}
