package rpc

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"stakevault/crypto"
	nativecommon "stakevault/native/common"
	"stakevault/native/pricefeed"
	"stakevault/native/rebalance"
	"stakevault/native/staking"
	"stakevault/native/vault"
)

const requestIDHeader = "X-Request-Id"

func (s *Server) requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(requestIDHeader))
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.status = code
	sr.ResponseWriter.WriteHeader(code)
}

func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		duration := time.Since(start)
		s.metrics.Observe("rpc", r.Method+" "+r.URL.Path, rec.status, duration)
		s.log.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"durationMs", duration.Milliseconds(),
			"requestId", w.Header().Get(requestIDHeader),
		)
	})
}

func decodeRequest(r *http.Request, out interface{}) error {
	if r.Body == nil {
		return errors.New("missing request body")
	}
	defer r.Body.Close()
	data, err := io.ReadAll(io.LimitReader(r.Body, requestBodyLimit))
	if err != nil {
		return fmt.Errorf("read request body: %w", err)
	}
	if len(data) == 0 {
		return errors.New("request body is empty")
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode request: %w", err)
	}
	return nil
}

func parseCaller(field string) (crypto.Address, error) {
	addr, err := crypto.DecodeAddress(strings.TrimSpace(field))
	if err != nil {
		return crypto.Address{}, fmt.Errorf("caller address: %w", err)
	}
	return addr, nil
}

func zeroAddress(a crypto.Address) bool {
	for _, b := range a.Bytes() {
		if b != 0 {
			return false
		}
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeBadRequest(w http.ResponseWriter, err error) {
	writeErrorStatus(w, http.StatusBadRequest, err)
}

func writeError(w http.ResponseWriter, err error) {
	writeErrorStatus(w, statusOf(err), err)
}

func writeErrorStatus(w http.ResponseWriter, status int, err error) {
	message := strings.TrimSpace(err.Error())
	if message == "" {
		message = http.StatusText(status)
	}
	writeJSON(w, status, map[string]string{"error": message})
}

// statusOf maps engine sentinel errors onto HTTP status codes.
func statusOf(err error) int {
	switch {
	case errors.Is(err, staking.ErrPoolNotFound),
		errors.Is(err, staking.ErrPositionNotFound),
		errors.Is(err, vault.ErrVaultNotFound),
		errors.Is(err, rebalance.ErrCapabilityNotFound):
		return http.StatusNotFound
	case errors.Is(err, staking.ErrPoolExists),
		errors.Is(err, vault.ErrVaultExists):
		return http.StatusConflict
	case errors.Is(err, vault.ErrUnauthorized),
		errors.Is(err, pricefeed.ErrUnauthorized),
		errors.Is(err, rebalance.ErrUnauthorized),
		errors.Is(err, rebalance.ErrScopeMismatch),
		errors.Is(err, rebalance.ErrOperationNotAllowed):
		return http.StatusForbidden
	case errors.Is(err, staking.ErrInvalidAmount),
		errors.Is(err, staking.ErrInvalidInterval),
		errors.Is(err, staking.ErrVaultIDRequired),
		errors.Is(err, vault.ErrInvalidAmount),
		errors.Is(err, pricefeed.ErrAssetRequired):
		return http.StatusBadRequest
	case errors.Is(err, staking.ErrInsufficientShares),
		errors.Is(err, staking.ErrInsufficientBalance),
		errors.Is(err, vault.ErrInsufficientBalance),
		errors.Is(err, vault.ErrBorrowTooHigh),
		errors.Is(err, vault.ErrRepayExceedsDebt),
		errors.Is(err, vault.ErrInsufficientCollateral),
		errors.Is(err, vault.ErrNotLiquidatable),
		errors.Is(err, rebalance.ErrAutoRebalanceDisabled),
		errors.Is(err, rebalance.ErrPriceUnavailable):
		return http.StatusUnprocessableEntity
	case errors.Is(err, nativecommon.ErrModulePaused):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
