package rpc

import (
	"net/http"

	"stakevault/crypto"
	"stakevault/native/rebalance"
)

type authorizeRequest struct {
	Caller  string `json:"caller"`
	VaultID string `json:"vaultId"`
	Agent   string `json:"agent"`
}

type rebalanceRequest struct {
	Caller       string `json:"caller"`
	CapabilityID string `json:"capabilityId"`
	VaultID      string `json:"vaultId"`
	PoolAsset    string `json:"poolAsset,omitempty"`
}

type capabilityResponse struct {
	ID         string   `json:"id"`
	VaultID    string   `json:"vaultId"`
	Agent      string   `json:"agent"`
	AllowedOps []string `json:"allowedOps"`
}

type rebalanceResponse struct {
	CapabilityID string `json:"capabilityId"`
	VaultID      string `json:"vaultId"`
	Outcome      string `json:"outcome"`
	Claimed      uint64 `json:"claimed"`
	Moved        uint64 `json:"moved"`
	Shortfall    uint64 `json:"shortfall"`
	Debt         uint64 `json:"debt"`
}

func resultPayload(res *rebalance.Result) rebalanceResponse {
	return rebalanceResponse{
		CapabilityID: res.CapabilityID,
		VaultID:      res.VaultID,
		Outcome:      res.Outcome,
		Claimed:      res.Claimed,
		Moved:        res.Moved,
		Shortfall:    res.Shortfall,
		Debt:         res.Debt,
	}
}

func (s *Server) handleAIAuthorize(w http.ResponseWriter, r *http.Request) {
	var req authorizeRequest
	if err := decodeRequest(r, &req); err != nil {
		writeBadRequest(w, err)
		return
	}
	caller, err := parseCaller(req.Caller)
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	agent, err := parseCaller(req.Agent)
	if err != nil {
		writeBadRequest(w, err)
		return
	}

	s.mu.Lock()
	capability, err := s.rebalance.Authorize(caller, req.VaultID, agent)
	s.mu.Unlock()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, capabilityResponse{
		ID:         capability.ID,
		VaultID:    capability.VaultID,
		Agent:      crypto.MustNewAddress(crypto.AccountPrefix, capability.Agent).String(),
		AllowedOps: capability.AllowedOps,
	})
}

func (s *Server) handleAIRebalance(w http.ResponseWriter, r *http.Request) {
	var req rebalanceRequest
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
	result, err := s.rebalance.Rebalance(caller, req.CapabilityID, req.VaultID)
	s.mu.Unlock()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resultPayload(result))
}

func (s *Server) handleAIClaimRebalance(w http.ResponseWriter, r *http.Request) {
	var req rebalanceRequest
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
	result, err := s.rebalance.ClaimAndRebalance(caller, req.CapabilityID, req.PoolAsset, req.VaultID, s.now())
	s.mu.Unlock()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resultPayload(result))
}
