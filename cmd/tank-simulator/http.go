// v1
// cmd/tank-simulator/http.go

package main

import (
	"encoding/json"
	"net/http"
)

func (s *Simulator) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Simulator) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	do, ph, bod, flow := s.snapshot()
	blowers := map[string]map[string]any{}
	for id, b := range s.blowerSnapshot() {
		blowers[id] = map[string]any{"enabled": b.enabled, "speedPercent": b.speed}
	}
	resp := map[string]any{
		"tankId": s.cfg.TankID,
		"doMgL":  do, "ph": ph, "bodMgL": bod, "inflowM3h": flow,
		"blowers": blowers,
		"devices": map[string]string{
			"doProbe": s.doProbeID, "phProbe": s.phProbeID,
			"flowMeter": s.flowID, "dosePump": s.dosePumpID,
		},
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func (s *Simulator) handleCmdBlower(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var body struct {
		BlowerID     string  `json:"blowerId"`
		Enabled      bool    `json:"enabled"`
		SpeedPercent float64 `json:"speedPercent"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.BlowerID == "" {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	s.setBlower(body.BlowerID, body.Enabled, body.SpeedPercent)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Simulator) handleCmdDosing(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var body struct {
		Chemical string  `json:"chemical"`
		RateLPH  float64 `json:"rateLph"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	s.setDose(body.Chemical, body.RateLPH)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Simulator) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/status", s.handleStatus)
	mux.HandleFunc("/cmd/blower", s.handleCmdBlower)
	mux.HandleFunc("/cmd/dosing", s.handleCmdDosing)
	s.log.Info("http routes registered")
	return mux
}
