package rpc

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"stakevault/crypto"
	"stakevault/native/staking"
)

type stakeRequest struct {
	Caller string `json:"caller"`
	Asset  string `json:"asset"`
	Amount uint64 `json:"amount"`
}

type claimRequest struct {
	Caller string `json:"caller"`
	Asset  string `json:"asset"`
}

type autoRebalanceRequest struct {
	Caller  string `json:"caller"`
	Asset   string `json:"asset"`
	VaultID string `json:"vaultId"`
	Enabled bool   `json:"enabled"`
}

type positionResponse struct {
	Owner                string `json:"owner"`
	Asset                string `json:"asset"`
	Shares               uint64 `json:"shares"`
	PendingRewards       uint64 `json:"pendingRewards"`
	LastClaimTimeMs      uint64 `json:"lastClaimTimeMs"`
	LinkedVaultID        string `json:"linkedVaultId,omitempty"`
	AutoRebalanceEnabled bool   `json:"autoRebalanceEnabled"`
}

type poolResponse struct {
	Asset                 string `json:"asset"`
	TotalStaked           uint64 `json:"totalStaked"`
	TotalShares           uint64 `json:"totalShares"`
	TotalRewards          uint64 `json:"totalRewards"`
	RewardRatePerInterval uint64 `json:"rewardRatePerInterval"`
	RewardIntervalMs      uint64 `json:"rewardIntervalMs"`
	LastRewardTimeMs      uint64 `json:"lastRewardTimeMs"`
}

func positionPayload(p *staking.Position) positionResponse {
	return positionResponse{
		Owner:                crypto.MustNewAddress(crypto.AccountPrefix, p.Owner).String(),
		Asset:                p.Asset,
		Shares:               p.Shares,
		PendingRewards:       p.PendingRewards,
		LastClaimTimeMs:      p.LastClaimTimeMs,
		LinkedVaultID:        p.LinkedVaultID,
		AutoRebalanceEnabled: p.AutoRebalanceEnabled,
	}
}

func poolPayload(p *staking.Pool) poolResponse {
	return poolResponse{
		Asset:                 p.Asset,
		TotalStaked:           p.TotalStaked,
		TotalShares:           p.TotalShares,
		TotalRewards:          p.TotalRewards,
		RewardRatePerInterval: p.RewardRatePerInterval,
		RewardIntervalMs:      p.RewardIntervalMs,
		LastRewardTimeMs:      p.LastRewardTimeMs,
	}
}

func (s *Server) handleStake(w http.ResponseWriter, r *http.Request) {
	var req stakeRequest
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
	position, err := s.staking.Stake(caller, req.Asset, req.Amount, s.now())
	s.mu.Unlock()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, positionPayload(position))
}

func (s *Server) handleUnstake(w http.ResponseWriter, r *http.Request) {
	var req stakeRequest
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
	position, err := s.staking.Unstake(caller, req.Asset, req.Amount, s.now())
	s.mu.Unlock()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, positionPayload(position))
}

func (s *Server) handleClaimRewards(w http.ResponseWriter, r *http.Request) {
	var req claimRequest
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
	paid, err := s.staking.ClaimRewards(caller, req.Asset, s.now())
	s.mu.Unlock()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]uint64{"paid": paid})
}

func (s *Server) handleAutoRebalance(w http.ResponseWriter, r *http.Request) {
	var req autoRebalanceRequest
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
	if req.Enabled {
		err = s.staking.EnableAutoRebalance(caller, req.Asset, req.VaultID)
	} else {
		err = s.staking.DisableAutoRebalance(caller, req.Asset)
	}
	s.mu.Unlock()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"enabled": req.Enabled})
}

func (s *Server) handleGetPool(w http.ResponseWriter, r *http.Request) {
	asset := chi.URLParam(r, "asset")

	s.mu.Lock()
	pool, err := s.staking.Pool(asset)
	s.mu.Unlock()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, poolPayload(pool))
}

func (s *Server) handleGetPosition(w http.ResponseWriter, r *http.Request) {
	asset := chi.URLParam(r, "asset")
	owner, err := parseCaller(chi.URLParam(r, "owner"))
	if err != nil {
		writeBadRequest(w, err)
		return
	}

	s.mu.Lock()
	position, err := s.staking.Position(owner, asset)
	s.mu.Unlock()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, positionPayload(position))
}
