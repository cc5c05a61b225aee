// Package engine implements the per-invocation decision algorithm that
// turns two temperature samples plus persisted state into at most one
// alert.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/loewekordel/temperature-notifier/internal/config"
	"github.com/loewekordel/temperature-notifier/internal/notify"
	"github.com/loewekordel/temperature-notifier/internal/state"
)

const alertTitle = "Temperature Alert"

// TemperatureSource supplies the most recent sample for a measurement.
// found is false when the source holds no data, distinct from a query
// error.
type TemperatureSource interface {
	LastValue(ctx context.Context, m config.Measurement) (value float64, found bool, err error)
}

// Engine runs the decision sequence once per process invocation.
type Engine struct {
	cfg       *config.Config
	store     *state.Store
	source    TemperatureSource
	notifiers []notify.Notifier
	lg        *slog.Logger
	now       func() time.Time
}

// New wires the engine to its collaborators.
func New(cfg *config.Config, store *state.Store, source TemperatureSource, notifiers []notify.Notifier, lg *slog.Logger) *Engine {
	return &Engine{
		cfg:       cfg,
		store:     store,
		source:    source,
		notifiers: notifiers,
		lg:        lg,
		now:       time.Now,
	}
}

// Run executes one invocation: load state, update the rolling window,
// walk the gates in order, dispatch if they all pass, and persist after
// every meaningful mutation. Gates short-circuit with a nil error; only
// source and dispatch failures are returned.
func (e *Engine) Run(ctx context.Context) error {
	now := e.now()

	st, err := e.store.Load()
	if err != nil {
		return fmt.Errorf("load state: %w", err)
	}

	// New day: forget yesterday's notification and disarm.
	if st.IsNewDay(now) {
		e.lg.Info("new day detected, resetting state")
		st.LastNotificationTime = nil
		st.Armed = false
		e.store.Save(st)
	}

	indoor, indoorFound, err := e.source.LastValue(ctx, e.cfg.InfluxDB.Measurements.Indoor)
	if err != nil {
		return fmt.Errorf("indoor temperature: %w", err)
	}
	outdoor, outdoorFound, err := e.source.LastValue(ctx, e.cfg.InfluxDB.Measurements.Outdoor)
	if err != nil {
		return fmt.Errorf("outdoor temperature: %w", err)
	}
	if !indoorFound || !outdoorFound {
		e.lg.Warn("missing temperature data, skipping this run",
			"indoor_found", indoorFound, "outdoor_found", outdoorFound)
		return nil
	}
	e.lg.Info("temperatures fetched", "indoor_c", indoor, "outdoor_c", outdoor)

	st.Window.Append(now, outdoor)
	st.TempsSinceLastNotification = append(st.TempsSinceLastNotification, outdoor)
	e.store.Save(st)

	// Indoor at or below the threshold means the house is already cool
	// enough; outdoor conditions are irrelevant.
	if indoor <= e.cfg.Notification.MinIndoorTemperature {
		e.lg.Info("indoor temperature at or below threshold, no notification needed",
			"indoor_c", indoor, "threshold_c", e.cfg.Notification.MinIndoorTemperature)
		return nil
	}

	if e.shouldArm(st, indoor, outdoor, now) {
		st.Armed = true
		e.store.Save(st)
	}

	rapid := e.cfg.Notification.RapidChangeEvent
	if st.Window.HasSignificantRiseAndDrop(rapid.Rise, rapid.Drop) {
		if st.LastSignificantRiseTime != nil && st.Window.WithinSpan(*st.LastSignificantRiseTime) {
			e.lg.Info("rapid change event already handled within the current window, no notification sent")
			return nil
		}
		// A fresh rapid-change event reopens the cooldown and rise
		// gates by clearing the notification timestamp.
		e.lg.Info("rapid change event detected, resetting last notification time")
		riseTime := now
		st.LastSignificantRiseTime = &riseTime
		st.LastNotificationTime = nil
		e.store.Save(st)
	} else {
		e.lg.Debug("no rapid change event detected")
	}

	if st.LastNotificationTime != nil {
		reenable := e.cfg.Notification.Reenable
		elapsed := now.Sub(*st.LastNotificationTime)
		if elapsed < time.Duration(reenable.CooldownMinutes)*time.Minute {
			e.lg.Info("notification in cooldown period, no notification sent",
				"elapsed_minutes", int(elapsed.Minutes()), "cooldown_minutes", reenable.CooldownMinutes)
			return nil
		}
		if !hasMinRise(st.TempsSinceLastNotification, reenable.MinRiseBetweenNotifications) {
			e.lg.Info("no sufficient outdoor rise since last notification, no notification sent",
				"min_rise_c", reenable.MinRiseBetweenNotifications)
			return nil
		}
	} else {
		e.lg.Debug("no notification on record, skipping cooldown and rise checks")
	}

	if !st.Armed {
		e.lg.Info("notifier is not armed, no notification sent")
		return nil
	}

	if outdoor >= indoor {
		e.lg.Info("outdoor temperature not below indoor temperature, no notification sent",
			"outdoor_c", outdoor, "indoor_c", indoor)
		return nil
	}

	message := fmt.Sprintf("Outdoor temperature is lower than indoor temperature! %.1f°C < %.1f°C", outdoor, indoor)
	if err := e.dispatch(ctx, message); err != nil {
		return err
	}

	notified := now
	st.LastNotificationTime = &notified
	st.TempsSinceLastNotification = nil
	e.store.Save(st)
	return nil
}

// shouldArm evaluates the arming conditions. It reports true only when
// the latch is not yet set and at least one configured condition holds.
func (e *Engine) shouldArm(st *state.State, indoor, outdoor float64, now time.Time) bool {
	arming := e.cfg.Arming
	if arming.TemperatureDelta == nil && arming.Time == nil {
		e.lg.Warn("neither arming temperature delta nor arming time is configured")
		return false
	}

	armByTemp := arming.TemperatureDelta != nil && outdoor >= indoor+*arming.TemperatureDelta
	armByTime := arming.Time != nil && minuteOfDay(now) >= arming.Time.MinuteOfDay()

	if st.Armed {
		e.lg.Info("notifier is already armed")
		return false
	}
	if !armByTemp && !armByTime {
		e.lg.Info("notifier not armed", "arm_by_temp", armByTemp, "arm_by_time", armByTime)
		return false
	}

	if armByTemp {
		e.lg.Info("arming notifier by temperature delta",
			"outdoor_c", outdoor, "indoor_c", indoor, "delta_c", *arming.TemperatureDelta)
	}
	if armByTime {
		e.lg.Info("arming notifier by time of day",
			"now", now.Format("15:04"), "arming_time", arming.Time.String())
	}
	return true
}

// dispatch sends the alert through every configured channel. All
// channels are attempted; failures are logged per channel and joined.
func (e *Engine) dispatch(ctx context.Context, message string) error {
	var errs []error
	for _, n := range e.notifiers {
		if err := n.Send(ctx, alertTitle, message); err != nil {
			e.lg.Error("notification dispatch failed", "channel", n.Name(), "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", n.Name(), err))
			continue
		}
		e.lg.Info("notification sent", "channel", n.Name())
	}
	if len(errs) > 0 {
		return fmt.Errorf("send notification: %w", errors.Join(errs...))
	}
	return nil
}

// hasMinRise scans the temperatures recorded since the last
// notification and reports whether any value exceeds the running
// minimum before it by at least minRise. Fewer than two entries can
// never satisfy the requirement.
func hasMinRise(temps []float64, minRise float64) bool {
	if len(temps) < 2 {
		return false
	}
	min := temps[0]
	for _, t := range temps[1:] {
		if t-min >= minRise {
			return true
		}
		if t < min {
			min = t
		}
	}
	return false
}

func minuteOfDay(t time.Time) int { return t.Hour()*60 + t.Minute() }
