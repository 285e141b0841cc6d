package template

import (
	"bytes"
	"fmt"
	htmltemplate "html/template"

	"dreamstate-ticketing/internal/models"
)

// TicketLine is one ticket as it appears in the confirmation email.
type TicketLine struct {
	TicketNumber int64
	Faction      models.FactionSummary
	VerifyURL    string
	ContentID    string
}

type ConfirmationData struct {
	EventName    string
	CustomerName string
	Status       models.OrderStatus
	Tickets      []TicketLine
}

func (d ConfirmationData) InPerson() bool {
	return d.Status == models.OrderStatusPaidInPerson
}

var confirmationTemplate = htmltemplate.Must(htmltemplate.New("confirmation").Funcs(htmltemplate.FuncMap{
	// cid: is not on html/template's safe scheme list
	"cid": func(id string) htmltemplate.URL { return htmltemplate.URL("cid:" + id) },
}).Parse(`<!DOCTYPE html>
<html>
<body style="font-family: sans-serif; background: #0b0b14; color: #f1f1f6; padding: 24px;">
  <h1>{{.EventName}}</h1>
  <p>{{if .CustomerName}}Hi {{.CustomerName}},{{else}}Hi,{{end}}</p>
  <p>{{if .InPerson}}Your door ticket is confirmed.{{else}}Your payment went through. Your tickets are below.{{end}}
     Show each QR code at the entrance.</p>
  {{range .Tickets}}
  <div style="border: 1px solid #444; border-radius: 8px; margin: 16px 0; padding: 16px;">
    <h2>Ticket #{{.TicketNumber}}</h2>
    <p>Faction: <strong class="{{.Faction.ColorToken}}">{{.Faction.DisplayName}}</strong></p>
    <img src="{{cid .ContentID}}" alt="QR code for ticket {{.TicketNumber}}" width="240" height="240">
    <p style="font-size: 12px;"><a href="{{.VerifyURL}}">{{.VerifyURL}}</a></p>
  </div>
  {{end}}
</body>
</html>`))

// Subject builds the email subject line.
func Subject(eventName string, count int) string {
	if count == 1 {
		return fmt.Sprintf("Your %s ticket", eventName)
	}
	return fmt.Sprintf("Your %d %s tickets", count, eventName)
}

func RenderConfirmation(data ConfirmationData) (string, error) {
	var buf bytes.Buffer
	if err := confirmationTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render confirmation email: %w", err)
	}
	return buf.String(), nil
}
