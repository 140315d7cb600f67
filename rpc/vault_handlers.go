package rpc

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"stakevault/crypto"
	"stakevault/native/vault"
)

type createVaultRequest struct {
	Caller string `json:"caller"`
}

type vaultAmountRequest struct {
	Caller string `json:"caller"`
	Amount uint64 `json:"amount"`
}

type liquidateRequest struct {
	Caller    string `json:"caller"`
	Repayment uint64 `json:"repayment"`
	ProofRef  string `json:"proofRef"`
}

type vaultResponse struct {
	ID            string `json:"id"`
	Owner         string `json:"owner"`
	Collateral    uint64 `json:"collateral"`
	Debt          uint64 `json:"debt"`
	RewardReserve uint64 `json:"rewardReserve"`
	HealthFactor  uint64 `json:"healthFactor"`
	Liquidatable  bool   `json:"liquidatable"`
}

type liquidationResponse struct {
	VaultID          string `json:"vaultId"`
	Liquidator       string `json:"liquidator"`
	DebtBefore       uint64 `json:"debtBefore"`
	Repaid           uint64 `json:"repaid"`
	CollateralSeized uint64 `json:"collateralSeized"`
	ProofRef         string `json:"proofRef,omitempty"`
}

func (s *Server) vaultPayload(v *vault.Vault) vaultResponse {
	price := s.vaults.CollateralPrice()
	return vaultResponse{
		ID:            v.ID(),
		Owner:         crypto.MustNewAddress(crypto.AccountPrefix, v.Owner).String(),
		Collateral:    v.Collateral,
		Debt:          v.Debt,
		RewardReserve: v.RewardReserve,
		HealthFactor:  vault.HealthFactor(v, price),
		Liquidatable:  vault.Liquidatable(v, price),
	}
}

func (s *Server) handleCreateVault(w http.ResponseWriter, r *http.Request) {
	var req createVaultRequest
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
	v, err := s.vaults.CreateVault(caller)
	payload := vaultResponse{}
	if err == nil {
		payload = s.vaultPayload(v)
	}
	s.mu.Unlock()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, payload)
}

func (s *Server) handleGetVault(w http.ResponseWriter, r *http.Request) {
	vaultID := chi.URLParam(r, "id")

	s.mu.Lock()
	v, err := s.vaults.Vault(vaultID)
	payload := vaultResponse{}
	if err == nil {
		payload = s.vaultPayload(v)
	}
	s.mu.Unlock()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, payload)
}

func (s *Server) handleDepositCollateral(w http.ResponseWriter, r *http.Request) {
	s.vaultMutation(w, r, s.vaults.DepositCollateral)
}

func (s *Server) handleDepositReserve(w http.ResponseWriter, r *http.Request) {
	s.vaultMutation(w, r, s.vaults.DepositToReserve)
}

func (s *Server) handleBorrow(w http.ResponseWriter, r *http.Request) {
	s.vaultMutation(w, r, s.vaults.Borrow)
}

func (s *Server) handleRepay(w http.ResponseWriter, r *http.Request) {
	s.vaultMutation(w, r, s.vaults.Repay)
}

func (s *Server) handleWithdraw(w http.ResponseWriter, r *http.Request) {
	s.vaultMutation(w, r, s.vaults.WithdrawCollateral)
}

func (s *Server) vaultMutation(w http.ResponseWriter, r *http.Request, op func(crypto.Address, string, uint64) error) {
	vaultID := chi.URLParam(r, "id")
	var req vaultAmountRequest
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
	err = op(caller, vaultID, req.Amount)
	var payload vaultResponse
	if err == nil {
		var v *vault.Vault
		if v, err = s.vaults.Vault(vaultID); err == nil {
			payload = s.vaultPayload(v)
		}
	}
	s.mu.Unlock()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, payload)
}

func (s *Server) handleLiquidate(w http.ResponseWriter, r *http.Request) {
	vaultID := chi.URLParam(r, "id")
	var req liquidateRequest
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
	receipt, err := s.vaults.Liquidate(caller, vaultID, req.Repayment, req.ProofRef)
	s.mu.Unlock()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, liquidationResponse{
		VaultID:          receipt.VaultID,
		Liquidator:       receipt.Liquidator.String(),
		DebtBefore:       receipt.DebtBefore,
		Repaid:           receipt.Repaid,
		CollateralSeized: receipt.CollateralSeized,
		ProofRef:         receipt.ProofRef,
	})
}
