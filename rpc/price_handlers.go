package rpc

import (
	"net/http"

	"stakevault/core/types"
)

type setPriceRequest struct {
	Caller string `json:"caller"`
	Asset  string `json:"asset"`
	Price  uint64 `json:"price"`
}

func (s *Server) handleSetPrice(w http.ResponseWriter, r *http.Request) {
	var req setPriceRequest
	if err := decodeRequest(r, &req); err != nil {
		writeBadRequest(w, err)
		return
	}
	caller, err := parseCaller(req.Caller)
	if err != nil {
		writeBadRequest(w, err)
		return
	}

	s.mu.Lock()
	err = s.prices.SetPrice(caller, req.Asset, req.Price)
	s.mu.Unlock()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]uint64{req.Asset: req.Price})
}

func (s *Server) handleListPrices(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	prices, err := s.prices.Prices()
	s.mu.Unlock()
	if err != nil {
		writeError(w, err)
		return
	}
	if prices == nil {
		prices = map[string]uint64{}
	}
	writeJSON(w, http.StatusOK, prices)
}

func (s *Server) handleRecentEvents(w http.ResponseWriter, r *http.Request) {
	events := s.ring.Recent()
	if events == nil {
		events = []*types.Event{}
	}
	writeJSON(w, http.StatusOK, events)
}
