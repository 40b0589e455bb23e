// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/teambition/rrule-go"
)

// calEvent is a VEVENT reduced to what the event row needs, recurrence
// still unexpanded.
type calEvent struct {
	summary string
	start   time.Time
	end     time.Time
	allDay  bool
	rule    string
	exDates []time.Time
}

// occurrence is one concrete event instance within the horizon.
type occurrence struct {
	summary string
	start   time.Time
	allDay  bool
}

const fetchTimeout = 15 * time.Second

// Safety cap on expansions of a single rule within the horizon.
const maxOccurrences = 1000

// readCalendar loads and parses the ICS source, a file path or an
// http(s) URL. Events that fail to parse are logged and skipped.
func readCalendar(ctx context.Context, source string) ([]calEvent, error) {
	var cal *ical.Calendar
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
		if err != nil {
			return nil, err
		}
		client := &http.Client{Timeout: fetchTimeout}
		resp, err := client.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("fetch %s: %s", source, resp.Status)
		}
		if cal, err = ical.ParseCalendar(resp.Body); err != nil {
			return nil, err
		}
	} else {
		f, err := os.Open(source)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		if cal, err = ical.ParseCalendar(f); err != nil {
			return nil, err
		}
	}

	events := make([]calEvent, 0)
	for _, ve := range cal.Events() {
		ev, err := parseEvent(ve)
		if err != nil {
			logf.Warnw("skipping event", "err", err)
			continue
		}
		events = append(events, ev)
	}
	return events, nil
}

// parseEvent normalizes one VEVENT.
func parseEvent(ve *ical.VEvent) (calEvent, error) {
	var ev calEvent
	if p := ve.GetProperty(ical.ComponentPropertySummary); p != nil {
		ev.summary = p.Value
	}
	start, err := ve.GetStartAt()
	if err != nil {
		if start, err = ve.GetAllDayStartAt(); err != nil {
			return ev, fmt.Errorf("event %q has no usable DTSTART: %w", ev.summary, err)
		}
		ev.allDay = true
	}
	ev.start = start
	if end, err := ve.GetEndAt(); err == nil {
		ev.end = end
	} else if end, err := ve.GetAllDayEndAt(); err == nil {
		ev.end = end
	}
	if p := ve.GetProperty(ical.ComponentPropertyDtStart); p != nil {
		if vs, ok := p.ICalParameters["VALUE"]; ok && len(vs) > 0 && strings.EqualFold(vs[0], "DATE") {
			ev.allDay = true
		}
		if !strings.Contains(p.Value, "T") {
			ev.allDay = true
		}
	}
	if p := ve.GetProperty(ical.ComponentPropertyRrule); p != nil {
		ev.rule = p.Value
	}
	for _, p := range ve.GetProperties(ical.ComponentPropertyExdate) {
		for _, part := range strings.Split(p.Value, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			if t, err := parseICSTime(part); err == nil {
				ev.exDates = append(ev.exDates, t)
			}
		}
	}
	return ev, nil
}

// parseICSTime parses the basic ICS date and date-time forms used by
// EXDATE values.
func parseICSTime(v string) (time.Time, error) {
	if strings.HasSuffix(v, "Z") {
		return time.Parse("20060102T150405Z", v)
	}
	if strings.Contains(v, "T") {
		return time.ParseInLocation("20060102T150405", v, time.Local)
	}
	return time.ParseInLocation("20060102", v, time.Local)
}

// nextOccurrence expands recurrences and returns the occurrence with
// the earliest start that is still running or ahead of now, within
// horizonDays.
func nextOccurrence(events []calEvent, now time.Time, horizonDays int) (occurrence, bool) {
	horizon := now.AddDate(0, 0, horizonDays)
	var best occurrence
	found := false
	consider := func(ev calEvent, start, end time.Time) {
		if !end.After(now) || start.After(horizon) {
			return
		}
		if !found || start.Before(best.start) {
			best = occurrence{summary: ev.summary, start: start, allDay: ev.allDay}
			found = true
		}
	}
	for _, ev := range events {
		dur := ev.end.Sub(ev.start)
		if dur <= 0 {
			if ev.allDay {
				dur = 24 * time.Hour
			} else {
				dur = time.Hour
			}
		}
		if ev.rule == "" {
			consider(ev, ev.start, ev.start.Add(dur))
			continue
		}
		r, err := rrule.StrToRRule(ev.rule)
		if err != nil {
			logf.Warnw("bad RRULE", "summary", ev.summary, "rrule", ev.rule, "err", err)
			continue
		}
		r.DTStart(ev.start)
		var set rrule.Set
		set.RRule(r)
		loc := ev.start.Location()
		for _, ex := range ev.exDates {
			set.ExDate(ex.In(loc))
		}
		// Open the window one duration early so a running occurrence
		// still counts.
		starts := set.Between(now.Add(-dur).In(loc), horizon.In(loc), true)
		if len(starts) > maxOccurrences {
			starts = starts[:maxOccurrences]
		}
		for _, start := range starts {
			if ev.allDay {
				start = time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, start.Location())
			}
			consider(ev, start, start.Add(dur))
		}
	}
	return best, found
}
