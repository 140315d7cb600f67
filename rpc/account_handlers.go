package rpc

import (
	"bytes"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"stakevault/core/types"
	"stakevault/native/fixedmath"
)

type fundRequest struct {
	Caller string `json:"caller"`
	Owner  string `json:"owner"`
	Amount uint64 `json:"amount"`
}

type accountResponse struct {
	Address      string `json:"address"`
	BalanceSTK   uint64 `json:"balanceStk"`
	BalanceLST   uint64 `json:"balanceLst"`
	BalanceSVUSD uint64 `json:"balanceSvusd"`
	Nonce        uint64 `json:"nonce"`
}

func accountPayload(address string, account *types.Account) accountResponse {
	return accountResponse{
		Address:      address,
		BalanceSTK:   account.BalanceSTK,
		BalanceLST:   account.BalanceLST,
		BalanceSVUSD: account.BalanceSVUSD,
		Nonce:        account.Nonce,
	}
}

func (s *Server) handleGetAccount(w http.ResponseWriter, r *http.Request) {
	owner, err := parseCaller(chi.URLParam(r, "owner"))
	if err != nil {
		writeBadRequest(w, err)
		return
	}

	s.mu.Lock()
	account, err := s.accounts.GetAccount(owner)
	s.mu.Unlock()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, accountPayload(owner.String(), account))
}

// handleFund credits staking tokens to an account. Token issuance lives
// outside the ledger proper; this endpoint is the boundary where the external
// issuer hands balances in, and only the configured administrator may call it.
func (s *Server) handleFund(w http.ResponseWriter, r *http.Request) {
	var req fundRequest
	if err := decodeRequest(r, &req); err != nil {
		writeBadRequest(w, err)
		return
	}
	caller, err := parseCaller(req.Caller)
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	owner, err := parseCaller(req.Owner)
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	// A zero admin means no administrator was configured; every fund call
	// is rejected rather than letting the zero address act as one.
	if zeroAddress(s.admin) || !bytes.Equal(caller.Bytes(), s.admin.Bytes()) {
		writeErrorStatus(w, http.StatusForbidden, errors.New("rpc: caller is not the ledger administrator"))
		return
	}
	if req.Amount == 0 {
		writeBadRequest(w, errors.New("rpc: amount must be positive"))
		return
	}

	s.mu.Lock()
	account, err := s.accounts.GetAccount(owner)
	if err == nil {
		account.BalanceSTK = fixedmath.SatAdd(account.BalanceSTK, req.Amount)
		err = s.accounts.PutAccount(owner, account)
	}
	payload := accountResponse{}
	if err == nil {
		payload = accountPayload(owner.String(), account)
	}
	s.mu.Unlock()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, payload)
}
