package api

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"

	"corridor/internal/input"
	"corridor/internal/metrics"
	"corridor/internal/render"
)

// MaxInputBody bounds POST /api/input payloads
const MaxInputBody = 16 << 10

// Handler methods for routerHandlers
// These are used by both the standalone router (for testing) and the full Server.

func (h *routerHandlers) handleGetState(w http.ResponseWriter, r *http.Request) {
	snap := h.engine.Snapshot()
	if snap == nil {
		writeError(w, "No state yet", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, snap)
}

func (h *routerHandlers) handleGetDebug(w http.ResponseWriter, r *http.Request) {
	if h.debug == nil {
		writeError(w, "Debug collector not configured", http.StatusNotFound)
		return
	}
	writeJSON(w, h.debug.Snapshot())
}

func (h *routerHandlers) handleGetFrame(w http.ResponseWriter, r *http.Request) {
	if h.frames == nil {
		writeError(w, "Frame capture not configured", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	if err := h.frames.WritePNG(w); err != nil {
		if errors.Is(err, render.ErrNoFrame) {
			w.Header().Del("Content-Type")
			writeError(w, "No frame rendered yet", http.StatusServiceUnavailable)
			return
		}
		log.Printf("❌ Frame encode failed: %v", err)
	}
}

func (h *routerHandlers) handleEngineStart(w http.ResponseWriter, r *http.Request) {
	log.Println("🎮 Engine start requested via API")
	h.engine.Start()
	h.writeEngineState(w)
}

func (h *routerHandlers) handleEngineStop(w http.ResponseWriter, r *http.Request) {
	log.Println("🛑 Engine stop requested via API")
	h.engine.Stop()
	h.writeEngineState(w)
}

func (h *routerHandlers) handleEngineRestart(w http.ResponseWriter, r *http.Request) {
	log.Println("🔄 Engine restart requested via API")
	h.engine.Restart()
	h.writeEngineState(w)
}

func (h *routerHandlers) writeEngineState(w http.ResponseWriter) {
	resp := map[string]interface{}{"success": true}
	if snap := h.engine.Snapshot(); snap != nil {
		resp["state"] = snap.State
		resp["running"] = snap.Running
		resp["faults"] = snap.Faults
	}
	writeJSON(w, resp)
}

// handleInput accepts one event object or an array of events
func (h *routerHandlers) handleInput(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, MaxInputBody+1))
	if err != nil {
		writeError(w, "Invalid request", http.StatusBadRequest)
		return
	}
	if len(body) > MaxInputBody {
		writeError(w, "Request too large", http.StatusRequestEntityTooLarge)
		return
	}

	events, err := input.DecodeEvents(body)
	if err != nil {
		writeError(w, "Invalid request", http.StatusBadRequest)
		return
	}

	applied, err := applyEvents(h.input, events)
	if err != nil {
		writeJSON(w, map[string]interface{}{
			"success": false,
			"applied": applied,
			"error":   err.Error(),
		})
		return
	}
	writeJSON(w, map[string]interface{}{"success": true, "applied": applied})
}

// applyEvents applies events in order and stops at the first rejected one
func applyEvents(sink InputSink, events []input.Event) (int, error) {
	for i, ev := range events {
		if err := sink.Apply(ev); err != nil {
			return i, err
		}
		metrics.RecordInputEvent(string(ev.Type))
	}
	return len(events), nil
}

// Helper functions (package-level for reuse)

func writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, message string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
