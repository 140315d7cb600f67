package rpc

import (
	"log/slog"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"stakevault/core/events"
	"stakevault/core/types"
	"stakevault/crypto"
	"stakevault/native/pricefeed"
	"stakevault/native/rebalance"
	"stakevault/native/staking"
	"stakevault/native/vault"
	"stakevault/observability"
)

const requestBodyLimit = 1 << 20 // 1 MiB

// Clock returns the current ledger time in milliseconds. Engines never read
// the wall clock themselves; the server supplies every timestamp.
type Clock func() uint64

// AccountStore is the slice of ledger state the server touches directly for
// the external issuance boundary and account reads.
type AccountStore interface {
	GetAccount(addr crypto.Address) (*types.Account, error)
	PutAccount(addr crypto.Address, account *types.Account) error
}

// Server exposes the ledger engines over JSON HTTP. All mutating operations
// are serialized behind a single mutex so engine state transitions stay
// atomic with respect to each other.
type Server struct {
	mu sync.Mutex

	staking   *staking.Engine
	vaults    *vault.Engine
	rebalance *rebalance.Engine
	prices    *pricefeed.Engine
	ring      *events.Ring
	accounts  AccountStore
	admin     crypto.Address

	now     Clock
	log     *slog.Logger
	metrics *observability.LedgerMetrics
}

type Config struct {
	Staking   *staking.Engine
	Vaults    *vault.Engine
	Rebalance *rebalance.Engine
	Prices    *pricefeed.Engine
	Ring      *events.Ring
	Accounts  AccountStore
	Admin     crypto.Address
	Now       Clock
	Logger    *slog.Logger
}

func NewServer(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		staking:   cfg.Staking,
		vaults:    cfg.Vaults,
		rebalance: cfg.Rebalance,
		prices:    cfg.Prices,
		ring:      cfg.Ring,
		accounts:  cfg.Accounts,
		admin:     cfg.Admin,
		now:       cfg.Now,
		log:       logger,
		metrics:   observability.Metrics(),
	}
}

// Router builds the HTTP routing table.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(s.requestID)
	r.Use(s.observe)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1", func(v1 chi.Router) {
		v1.Post("/price", s.handleSetPrice)
		v1.Get("/prices", s.handleListPrices)

		v1.Post("/stake", s.handleStake)
		v1.Post("/unstake", s.handleUnstake)
		v1.Post("/rewards/claim", s.handleClaimRewards)
		v1.Post("/positions/auto-rebalance", s.handleAutoRebalance)
		v1.Get("/pools/{asset}", s.handleGetPool)
		v1.Get("/positions/{asset}/{owner}", s.handleGetPosition)

		v1.Post("/vaults", s.handleCreateVault)
		v1.Get("/vaults/{id}", s.handleGetVault)
		v1.Post("/vaults/{id}/collateral", s.handleDepositCollateral)
		v1.Post("/vaults/{id}/reserve", s.handleDepositReserve)
		v1.Post("/vaults/{id}/borrow", s.handleBorrow)
		v1.Post("/vaults/{id}/repay", s.handleRepay)
		v1.Post("/vaults/{id}/withdraw", s.handleWithdraw)
		v1.Post("/vaults/{id}/liquidate", s.handleLiquidate)

		v1.Post("/ai/authorize", s.handleAIAuthorize)
		v1.Post("/ai/rebalance", s.handleAIRebalance)
		v1.Post("/ai/claim-rebalance", s.handleAIClaimRebalance)

		v1.Get("/events", s.handleRecentEvents)

		v1.Get("/accounts/{owner}", s.handleGetAccount)
		v1.Post("/admin/fund", s.handleFund)
	})

	return r
}
