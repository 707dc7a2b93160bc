package google

import (
	"context"

	"github.com/harrisonrobin/planstack/pkg/auth"
)

// New returns a CalendarClient bound to calendarID, authenticating with the
// cached token. The id is used as given; "primary" addresses the account's
// main calendar. timeZone may be empty to let the calendar's zone apply.
func New(ctx context.Context, calendarID, timeZone string) (*CalendarClient, error) {
	srv, err := auth.Service(ctx)
	if err != nil {
		return nil, err
	}
	return NewCalendarClient(srv, calendarID, timeZone), nil
}
