package notify

import (
	"bytes"
	"fmt"
	"html/template"
	"time"

	"github.com/iliyamo/room-booking/internal/queue"
)

var decisionTmpl = template.Must(template.New("decision").Parse(`<h2>{{.Headline}}</h2>
<p>Hello {{.Name}},</p>
<p>Your booking <strong>{{.Title}}</strong> for <strong>{{.Room}}</strong>{{if .Building}} ({{.Building}}){{end}}
on {{.Date}}, {{.From}}&ndash;{{.To}} has been <strong>{{.Status}}</strong>.</p>
{{if .Reason}}<p>Reason: {{.Reason}}</p>{{end}}
<p>Reference: {{.Ref}}</p>
`))

// DecisionEmail renders the subject and HTML body sent to the booking
// owner.  Times are shown in loc.
func DecisionEmail(ev queue.BookingDecidedEvent, loc *time.Location) (string, string, error) {
	if loc == nil {
		loc = time.UTC
	}
	start, err := time.Parse(time.RFC3339, ev.StartsAt)
	if err != nil {
		return "", "", fmt.Errorf("starts_at: %w", err)
	}
	end, err := time.Parse(time.RFC3339, ev.EndsAt)
	if err != nil {
		return "", "", fmt.Errorf("ends_at: %w", err)
	}
	start, end = start.In(loc), end.In(loc)

	headline := "Booking approved"
	if ev.Status != "approved" {
		headline = "Booking rejected"
	}
	name := ev.UserName
	if name == "" {
		name = ev.UserEmail
	}

	var buf bytes.Buffer
	err = decisionTmpl.Execute(&buf, map[string]string{
		"Headline": headline,
		"Name":     name,
		"Title":    ev.Title,
		"Room":     ev.RoomName,
		"Building": ev.Building,
		"Date":     start.Format("Mon 2 Jan 2006"),
		"From":     start.Format("15:04"),
		"To":       end.Format("15:04"),
		"Status":   ev.Status,
		"Reason":   ev.Reason,
		"Ref":      ev.BookingNumber,
	})
	if err != nil {
		return "", "", err
	}
	return fmt.Sprintf("%s: %s", headline, ev.RoomName), buf.String(), nil
}
