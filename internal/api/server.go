// Package api provides the HTTP API server consumed by the bot front-end.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/dao-vault/internal/logging"
	"github.com/dao-vault/internal/models"
	"github.com/dao-vault/internal/service"
	"github.com/ethereum/go-ethereum/common"
	"github.com/gorilla/mux"
)

// HistoryReader serves the recent per-contract call history
type HistoryReader interface {
	History(ctx context.Context, contract common.Address, n int64) ([]models.HistoryEntry, error)
}

// EventReader serves mirrored events
type EventReader interface {
	ListEvents(ctx context.Context, contract string, limit int) ([]*models.EventRecord, error)
}

// Server represents the HTTP API server.
type Server struct {
	router     *mux.Router
	handler    http.Handler
	httpServer *http.Server
	svc        *service.Service
	history    HistoryReader
	events     EventReader
	logger     *logging.Logger
	config     *ServerConfig
}

// ServerConfig holds server configuration.
type ServerConfig struct {
	Host              string
	Port              string
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	ShutdownTimeout   time.Duration
	RequestsPerSecond float64 // per caller
	Burst             int
}

// ServerOption configures optional server collaborators
type ServerOption func(*Server)

// WithHistory enables the contract history endpoint
func WithHistory(h HistoryReader) ServerOption {
	return func(s *Server) { s.history = h }
}

// WithEventReader enables the mirrored events endpoint
func WithEventReader(e EventReader) ServerOption {
	return func(s *Server) { s.events = e }
}

// WithLogger sets the base request logger
func WithLogger(l *logging.Logger) ServerOption {
	return func(s *Server) { s.logger = l }
}

// NewServer creates a new API server instance.
func NewServer(config *ServerConfig, svc *service.Service, opts ...ServerOption) *Server {
	s := &Server{
		router: mux.NewRouter(),
		svc:    svc,
		logger: logging.GetGlobalLogger(),
		config: config,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.setupRouter()

	return s
}

// Handler returns the router wrapped in the middleware chain
func (s *Server) Handler() http.Handler {
	return s.handler
}

// setupRouter configures the router with middleware and routes
func (s *Server) setupRouter() {
	rateLimiter := NewRateLimiter(s.config.RequestsPerSecond, s.config.Burst)

	s.setupRoutes()

	// Set up middleware around the router (order matters!)
	middleware := []func(http.Handler) http.Handler{
		RequestIDMiddleware(s.logger),
		LoggingMiddleware,
		RecoveryMiddleware,
		CORSMiddleware,
		RateLimitMiddleware(rateLimiter),
		CallerMiddleware,
		CompressionMiddleware,
	}
	var handler http.Handler = s.router
	for i := len(middleware) - 1; i >= 0; i-- {
		handler = middleware[i](handler)
	}
	s.handler = handler

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%s", s.config.Host, s.config.Port),
		Handler:      s.handler,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
	}
}

// setupRoutes configures all API routes.
func (s *Server) setupRoutes() {
	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")

	api := s.router.PathPrefix("/api").Subrouter()

	// Registry endpoints
	api.HandleFunc("/factories", s.handleGetFactories).Methods("GET")
	api.HandleFunc("/factories/stats", s.handleGetFactoryStats).Methods("GET")
	api.HandleFunc("/factories/vault-defaults", s.handleGetVaultDefaults).Methods("GET")
	api.HandleFunc("/factories/vault-defaults", s.handleUpdateVaultDefaults).Methods("PUT")
	api.HandleFunc("/users/{address}/daos", s.handleGetUserDAOs).Methods("GET")

	// DAO endpoints
	api.HandleFunc("/daos", s.handleCreateDAO).Methods("POST")
	api.HandleFunc("/daos", s.handleListDAOs).Methods("GET")
	api.HandleFunc("/daos/{dao}", s.handleGetDAO).Methods("GET")
	api.HandleFunc("/daos/{dao}", s.handleEmergencyRemoveDAO).Methods("DELETE")
	api.HandleFunc("/daos/{dao}/members", s.handleGetMembers).Methods("GET")
	api.HandleFunc("/daos/{dao}/members", s.handleAddMember).Methods("POST")
	api.HandleFunc("/daos/{dao}/members/{member}", s.handleRemoveMember).Methods("DELETE")
	api.HandleFunc("/daos/{dao}/proposals", s.handleListProposals).Methods("GET")
	api.HandleFunc("/daos/{dao}/proposals", s.handlePropose).Methods("POST")
	api.HandleFunc("/daos/{dao}/proposals/{id}", s.handleGetProposal).Methods("GET")
	api.HandleFunc("/daos/{dao}/proposals/{id}/votes", s.handleVote).Methods("POST")
	api.HandleFunc("/daos/{dao}/proposals/{id}/votes/{voter}", s.handleHasVoted).Methods("GET")
	api.HandleFunc("/daos/{dao}/proposals/{id}/execute", s.handleExecuteProposal).Methods("POST")
	api.HandleFunc("/daos/{dao}/vault", s.handleAttachVault).Methods("PUT")
	api.HandleFunc("/daos/{dao}/vault", s.handleDetachVault).Methods("DELETE")
	api.HandleFunc("/daos/{dao}/quorum", s.handleSetQuorum).Methods("PUT")
	api.HandleFunc("/daos/{dao}/pause", s.handlePauseDAO).Methods("POST")
	api.HandleFunc("/daos/{dao}/unpause", s.handleUnpauseDAO).Methods("POST")
	api.HandleFunc("/daos/{dao}/ownership", s.handleTransferDAOOwnership).Methods("PUT")
	api.HandleFunc("/daos/{dao}/ownership", s.handleRenounceDAOOwnership).Methods("DELETE")
	api.HandleFunc("/daos/{dao}/registered-vault", s.handleGetRegisteredVault).Methods("GET")
	api.HandleFunc("/daos/{dao}/registered-vault", s.handleRegisterVault).Methods("PUT")
	api.HandleFunc("/daos/{dao}/registered-vault", s.handleUnregisterVault).Methods("DELETE")
	api.HandleFunc("/daos/{dao}/vaults", s.handleGetDAOVaults).Methods("GET")

	// Vault endpoints
	api.HandleFunc("/vaults", s.handleCreateVault).Methods("POST")
	api.HandleFunc("/vaults", s.handleListVaults).Methods("GET")
	api.HandleFunc("/vaults/{vault}", s.handleGetVault).Methods("GET")
	api.HandleFunc("/vaults/{vault}", s.handleEmergencyRemoveVault).Methods("DELETE")
	api.HandleFunc("/vaults/{vault}/registry", s.handleGetVaultRegistry).Methods("GET")
	api.HandleFunc("/vaults/{vault}/balances/{asset}", s.handleGetVaultBalance).Methods("GET")
	api.HandleFunc("/vaults/{vault}/deposits", s.handleDeposit).Methods("POST")
	api.HandleFunc("/vaults/{vault}/withdrawals", s.handleWithdraw).Methods("POST")
	api.HandleFunc("/vaults/{vault}/proposals", s.handleCreateSpendingProposal).Methods("POST")
	api.HandleFunc("/vaults/{vault}/proposals/{id}", s.handleGetSpendingProposal).Methods("GET")
	api.HandleFunc("/vaults/{vault}/proposals/{id}/approvals", s.handleApproveSpendingProposal).Methods("POST")
	api.HandleFunc("/vaults/{vault}/proposals/{id}/approvals/{signer}", s.handleHasApproved).Methods("GET")
	api.HandleFunc("/vaults/{vault}/proposals/{id}/execute", s.handleExecuteSpendingProposal).Methods("POST")
	api.HandleFunc("/vaults/{vault}/signers", s.handleGetSigners).Methods("GET")
	api.HandleFunc("/vaults/{vault}/signers", s.handleAddSigner).Methods("POST")
	api.HandleFunc("/vaults/{vault}/signers/{signer}", s.handleRemoveSigner).Methods("DELETE")
	api.HandleFunc("/vaults/{vault}/withdrawal-limit", s.handleUpdateWithdrawalLimit).Methods("PUT")
	api.HandleFunc("/vaults/{vault}/required-signatures", s.handleUpdateRequiredSignatures).Methods("PUT")
	api.HandleFunc("/vaults/{vault}/pause", s.handleEmergencyPause).Methods("POST")
	api.HandleFunc("/vaults/{vault}/unpause", s.handleUnpauseVault).Methods("POST")
	api.HandleFunc("/vaults/{vault}/ownership", s.handleTransferVaultOwnership).Methods("PUT")

	// Ledger endpoints
	api.HandleFunc("/ledger/faucet", s.handleFaucet).Methods("POST")
	api.HandleFunc("/ledger/approvals", s.handleLedgerApprove).Methods("POST")
	api.HandleFunc("/ledger/transfers", s.handleLedgerTransfer).Methods("POST")
	api.HandleFunc("/ledger/rejecting", s.handleSetRejecting).Methods("PUT")
	api.HandleFunc("/ledger/balances/{account}", s.handleLedgerBalance).Methods("GET")
	api.HandleFunc("/ledger/allowances/{owner}/{spender}", s.handleLedgerAllowance).Methods("GET")

	// Transaction log and mirror endpoints
	api.HandleFunc("/receipts", s.handleListReceipts).Methods("GET")
	api.HandleFunc("/receipts/{txId}", s.handleGetReceipt).Methods("GET")
	api.HandleFunc("/contracts/{address}/history", s.handleContractHistory).Methods("GET")
	api.HandleFunc("/contracts/{address}/events", s.handleContractEvents).Methods("GET")
}

// handleHealth handles health check requests.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "dao-vault",
	})
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.logger.Infof("Starting API server on %s", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down API server...")
	return s.httpServer.Shutdown(ctx)
}
