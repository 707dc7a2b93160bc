// Package google adapts the Google Calendar API to the narrow surface the
// sync pass needs: timed event inserts, partial rewrites and deletes on a
// single calendar.
package google

import (
	"net/http"
	"time"

	"github.com/pkg/errors"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
)

// CalendarClient drives one calendar of the authorized account.
type CalendarClient struct {
	srv        *calendar.Service
	calendarID string
	timeZone   string
	eventColor string
}

// NewCalendarClient wraps an already-built calendar service. timeZone may
// be empty to let the calendar's own zone apply.
func NewCalendarClient(srv *calendar.Service, calendarID, timeZone string) *CalendarClient {
	return &CalendarClient{srv: srv, calendarID: calendarID, timeZone: timeZone}
}

// SetEventColor picks the color id ("1" through "11") stamped on events
// written from now on. An empty id keeps the calendar's default.
func (c *CalendarClient) SetEventColor(colorID string) {
	c.eventColor = colorID
}

// CreateEvent inserts a timed event and returns the id the calendar
// assigned to it.
func (c *CalendarClient) CreateEvent(title string, start time.Time, durationMinutes int) (string, error) {
	event := &calendar.Event{
		Summary: title,
		Start:   c.eventTime(start),
		End:     c.eventTime(start.Add(time.Duration(durationMinutes) * time.Minute)),
		ColorId: c.eventColor,
	}
	created, err := c.srv.Events.Insert(c.calendarID, event).Do()
	if err != nil {
		return "", errors.Wrapf(err, "inserting event %q", title)
	}
	return created.Id, nil
}

// UpdateEvent rewrites an event's title and window through a partial patch,
// leaving everything else on the event untouched.
func (c *CalendarClient) UpdateEvent(eventID, title string, start time.Time, durationMinutes int) error {
	patch := &calendar.Event{
		Summary: title,
		Start:   c.eventTime(start),
		End:     c.eventTime(start.Add(time.Duration(durationMinutes) * time.Minute)),
		ColorId: c.eventColor,
	}
	_, err := c.srv.Events.Patch(c.calendarID, eventID, patch).Do()
	return errors.Wrapf(err, "patching event %s", eventID)
}

// PatchDescription replaces only the event's description.
func (c *CalendarClient) PatchDescription(eventID, description string) error {
	patch := &calendar.Event{Description: description}
	_, err := c.srv.Events.Patch(c.calendarID, eventID, patch).Do()
	return errors.Wrapf(err, "patching description of event %s", eventID)
}

// DeleteEvent removes an event. An event that is already gone counts as
// success, so a retried deletion converges instead of failing forever.
func (c *CalendarClient) DeleteEvent(eventID string) error {
	err := c.srv.Events.Delete(c.calendarID, eventID).Do()
	if err == nil {
		return nil
	}
	var gerr *googleapi.Error
	if errors.As(err, &gerr) && (gerr.Code == http.StatusNotFound || gerr.Code == http.StatusGone) {
		return nil
	}
	return errors.Wrapf(err, "deleting event %s", eventID)
}

// CalendarInfo describes one calendar visible to the account.
type CalendarInfo struct {
	ID      string
	Summary string
	Primary bool
}

// Calendars lists the calendars the authorized account can see, so users
// can pick a calendar id for the config.
func (c *CalendarClient) Calendars() ([]CalendarInfo, error) {
	list, err := c.srv.CalendarList.List().Do()
	if err != nil {
		return nil, errors.Wrap(err, "listing calendars")
	}
	infos := make([]CalendarInfo, 0, len(list.Items))
	for _, item := range list.Items {
		infos = append(infos, CalendarInfo{ID: item.Id, Summary: item.Summary, Primary: item.Primary})
	}
	return infos, nil
}

func (c *CalendarClient) eventTime(t time.Time) *calendar.EventDateTime {
	edt := &calendar.EventDateTime{DateTime: t.Format(time.RFC3339)}
	if c.timeZone != "" {
		edt.TimeZone = c.timeZone
	}
	return edt
}
