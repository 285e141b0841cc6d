package kafka

import "time"

type OrderFulfilledEvent struct {
	OrderID       int64     `json:"orderId"`
	SessionID     string    `json:"sessionId"`
	Status        string    `json:"status"`
	TicketTypeID  int64     `json:"ticketTypeId"`
	Quantity      int       `json:"quantity"`
	TicketNumbers []int64   `json:"ticketNumbers"`
	FulfilledAt   time.Time `json:"fulfilledAt"`
}

type TicketVerifiedEvent struct {
	TicketID     int64     `json:"ticketId"`
	TicketNumber int64     `json:"ticketNumber"`
	FactionID    int64     `json:"factionId"`
	VerifiedAt   time.Time `json:"verifiedAt"`
}

type FactionScoredEvent struct {
	Action      string    `json:"action"`
	EventID     int64     `json:"eventId"`
	FactionID   int64     `json:"factionId"`
	Points      int64     `json:"points"`
	Description string    `json:"description"`
	OccurredAt  time.Time `json:"occurredAt"`
}
