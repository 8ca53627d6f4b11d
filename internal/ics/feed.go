package ics

import (
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/rs/zerolog"

	"eventease/internal/model"
)

const defaultDuration = time.Hour

// BuildFeed renders the event list as an iCalendar document so external
// calendar apps can subscribe to it. Events whose date or time cannot be
// parsed are skipped with a warning; one bad record must not break the feed.
func BuildFeed(events []model.Event, log *zerolog.Logger) string {
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId("-//eventease//calendar//EN")

	for _, e := range events {
		start, err := time.Parse("2006-01-02 15:04", e.Date+" "+e.Time)
		if err != nil {
			log.Warn().Err(err).Str("event_id", e.ID).Msg("skipping event with unparseable date in feed")
			continue
		}

		ve := cal.AddEvent(e.ID)
		ve.SetDtStampTime(time.Now().UTC())
		ve.SetStartAt(start)
		ve.SetEndAt(start.Add(defaultDuration))
		ve.SetSummary(e.Title)
		if e.Description != "" {
			ve.SetDescription(e.Description)
		}
		if e.Location != nil && e.Location.Name != "" {
			ve.SetLocation(e.Location.Name)
		}
		if created, cerr := time.Parse(time.RFC3339, e.CreatedAt); cerr == nil {
			ve.SetCreatedTime(created)
		}
	}

	return cal.Serialize()
}
