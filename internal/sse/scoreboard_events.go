package sse

import (
	"context"
	"sync"

	"dreamstate-ticketing/internal/models"
)

// ScoreboardEmitter fans scoreboard snapshots out to SSE clients.
type ScoreboardEmitter struct {
	clients     []chan []models.FactionScore
	clientMutex sync.RWMutex
}

func NewScoreboardEmitter() *ScoreboardEmitter {
	return &ScoreboardEmitter{}
}

// Subscribe registers a client until ctx is done, then closes its channel.
func (e *ScoreboardEmitter) Subscribe(ctx context.Context) <-chan []models.FactionScore {
	clientChan := make(chan []models.FactionScore, 10)

	e.clientMutex.Lock()
	e.clients = append(e.clients, clientChan)
	e.clientMutex.Unlock()

	go func() {
		<-ctx.Done()
		e.removeClient(clientChan)
	}()

	return clientChan
}

// Broadcast never blocks: a client whose buffer is full misses this snapshot.
func (e *ScoreboardEmitter) Broadcast(scores []models.FactionScore) {
	e.clientMutex.RLock()
	defer e.clientMutex.RUnlock()

	for _, clientChan := range e.clients {
		select {
		case clientChan <- scores:
		default:
		}
	}
}

func (e *ScoreboardEmitter) ClientCount() int {
	e.clientMutex.RLock()
	defer e.clientMutex.RUnlock()
	return len(e.clients)
}

func (e *ScoreboardEmitter) removeClient(clientChan chan []models.FactionScore) {
	e.clientMutex.Lock()
	defer e.clientMutex.Unlock()

	for i, ch := range e.clients {
		if ch == clientChan {
			e.clients = append(e.clients[:i], e.clients[i+1:]...)
			close(clientChan)
			break
		}
	}
}
