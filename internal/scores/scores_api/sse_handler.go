package scores_api

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// StreamScoreboard sends the current scoreboard, then a fresh snapshot after every ledger change.
func (h *Handler) StreamScoreboard(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	ctx := r.Context()
	// Subscribe before reading the board so no change between the two is lost.
	updates := h.Emitter.Subscribe(ctx)

	board, err := h.ScoreService.Scoreboard(ctx)
	if err != nil {
		h.fail(w, "StreamScoreboard", "Failed to load scores", err)
		return
	}

	setupSSEHeaders(w)
	fmt.Fprint(w, "event: connected\ndata: {\"status\":\"connected\"}\n\n")
	h.writeScores(w, board)
	flusher.Flush()

	h.Logger.Info("SSE", "Client connected to scoreboard stream")

	for {
		select {
		case board, ok := <-updates:
			if !ok {
				return
			}
			h.writeScores(w, board)
			flusher.Flush()
		case <-ctx.Done():
			h.Logger.Debug("SSE", "Client disconnected from scoreboard stream")
			return
		}
	}
}

func (h *Handler) writeScores(w http.ResponseWriter, board interface{}) {
	data, err := json.Marshal(board)
	if err != nil {
		h.Logger.Error("SSE", fmt.Sprintf("Failed to serialize scoreboard: %v", err))
		return
	}
	fmt.Fprintf(w, "event: scores\ndata: %s\n\n", data)
}

func setupSSEHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/event-stream;charset=UTF-8")
	w.Header().Set("Cache-Control", "no-cache, no-store, max-age=0, must-revalidate")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Pragma", "no-cache")
	w.Header().Set("Expires", "0")
	w.Header().Set("X-Accel-Buffering", "no")
}
