package notify

import (
	"context"
	"fmt"

	"dreamstate-ticketing/internal/models"
	qr "dreamstate-ticketing/internal/tickets/qr_generator"
	tmpl "dreamstate-ticketing/internal/tickets/template"
)

// Notifier turns a fulfilled order into a confirmation email with one QR per ticket.
type Notifier struct {
	Sender    Sender
	QR        *qr.Generator
	EventName string
}

func NewNotifier(sender Sender, qrGen *qr.Generator, eventName string) *Notifier {
	return &Notifier{Sender: sender, QR: qrGen, EventName: eventName}
}

// SendTicketConfirmation expects each ticket's Faction to be loaded.
func (n *Notifier) SendTicketConfirmation(ctx context.Context, order *models.Order, tickets []*models.Ticket) error {
	lines := make([]tmpl.TicketLine, 0, len(tickets))
	attachments := make([]Attachment, 0, len(tickets))

	for _, t := range tickets {
		png, err := n.QR.PNG(t.VerificationToken)
		if err != nil {
			return fmt.Errorf("qr for ticket %d: %w", t.TicketNumber, err)
		}
		cid := fmt.Sprintf("ticket-%d", t.TicketNumber)
		line := tmpl.TicketLine{
			TicketNumber: t.TicketNumber,
			VerifyURL:    n.QR.VerifyURL(t.VerificationToken),
			ContentID:    cid,
		}
		if t.Faction != nil {
			line.Faction = t.Faction.Summary()
		}
		lines = append(lines, line)
		attachments = append(attachments, Attachment{
			Filename:    cid + ".png",
			ContentID:   cid,
			ContentType: "image/png",
			Data:        png,
		})
	}

	html, err := tmpl.RenderConfirmation(tmpl.ConfirmationData{
		EventName:    n.EventName,
		CustomerName: order.Name(),
		Status:       order.Status,
		Tickets:      lines,
	})
	if err != nil {
		return err
	}

	return n.Sender.Send(ctx, Message{
		To:          order.CustomerEmail,
		ToName:      order.Name(),
		Subject:     tmpl.Subject(n.EventName, len(tickets)),
		HTML:        html,
		Attachments: attachments,
	})
}
