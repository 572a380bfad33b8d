package api

import (
	"net/http"

	"github.com/ethereum/go-ethereum/common"
)

type vaultDefaultsRequest struct {
	WithdrawalLimit    string `json:"withdrawalLimit"`
	RequiredSignatures uint64 `json:"requiredSignatures"`
}

// handleGetFactories handles GET /api/factories
func (s *Server) handleGetFactories(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"daoFactory":    s.svc.DAOFactoryAddress(),
		"vaultFactory":  s.svc.VaultFactoryAddress(),
		"admin":         s.svc.Admin(),
		"faucetEnabled": s.svc.FaucetEnabled(),
	})
}

func (s *Server) handleGetFactoryStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.svc.GetFactoryStats()
	if err != nil {
		respondServiceError(w, r, err, nil)
		return
	}
	respondJSON(w, http.StatusOK, stats)
}

func (s *Server) handleGetVaultDefaults(w http.ResponseWriter, r *http.Request) {
	params, err := s.svc.GetDefaultVaultParameters()
	if err != nil {
		respondServiceError(w, r, err, nil)
		return
	}
	respondJSON(w, http.StatusOK, params)
}

func (s *Server) handleUpdateVaultDefaults(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}
	var req vaultDefaultsRequest
	if !decodeBody(w, r, &req) {
		return
	}
	limit, ok := parseAmountField(w, "withdrawalLimit", req.WithdrawalLimit)
	if !ok {
		return
	}

	receipt, err := s.svc.UpdateDefaultVaultParameters(r.Context(), caller, limit, req.RequiredSignatures)
	respondTx(w, r, http.StatusOK, receipt, err, TxResponse{})
}

// handleGetUserDAOs handles GET /api/users/{address}/daos
func (s *Server) handleGetUserDAOs(w http.ResponseWriter, r *http.Request) {
	user, ok := pathAddress(w, r, "address")
	if !ok {
		return
	}
	daos, err := s.svc.GetUserDAOs(user)
	if err != nil {
		respondServiceError(w, r, err, nil)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"user":  user,
		"daos":  daos,
		"count": len(daos),
	})
}

func (s *Server) handleEmergencyRemoveDAO(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}
	dao, ok := pathAddress(w, r, "dao")
	if !ok {
		return
	}

	receipt, err := s.svc.EmergencyRemoveDAO(r.Context(), caller, dao)
	respondTx(w, r, http.StatusOK, receipt, err, TxResponse{})
}

func (s *Server) handleEmergencyRemoveVault(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}
	vault, ok := pathAddress(w, r, "vault")
	if !ok {
		return
	}

	receipt, err := s.svc.EmergencyRemoveVault(r.Context(), caller, vault)
	respondTx(w, r, http.StatusOK, receipt, err, TxResponse{})
}

func (s *Server) handleGetRegisteredVault(w http.ResponseWriter, r *http.Request) {
	dao, ok := pathAddress(w, r, "dao")
	if !ok {
		return
	}
	vault, err := s.svc.GetDAOVault(dao)
	if err != nil {
		respondServiceError(w, r, err, nil)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"dao":        dao,
		"vault":      vault,
		"registered": vault != (common.Address{}),
	})
}

func (s *Server) handleRegisterVault(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}
	dao, ok := pathAddress(w, r, "dao")
	if !ok {
		return
	}
	var req vaultRequest
	if !decodeBody(w, r, &req) {
		return
	}
	vault, ok := parseAddressField(w, "vault", req.Vault)
	if !ok {
		return
	}

	receipt, err := s.svc.RegisterVault(r.Context(), caller, dao, vault)
	respondTx(w, r, http.StatusOK, receipt, err, TxResponse{})
}

func (s *Server) handleUnregisterVault(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}
	dao, ok := pathAddress(w, r, "dao")
	if !ok {
		return
	}

	receipt, err := s.svc.UnregisterVault(r.Context(), caller, dao)
	respondTx(w, r, http.StatusOK, receipt, err, TxResponse{})
}

// handleGetDAOVaults lists the vaults the vault factory deployed for a DAO
func (s *Server) handleGetDAOVaults(w http.ResponseWriter, r *http.Request) {
	dao, ok := pathAddress(w, r, "dao")
	if !ok {
		return
	}
	vaults, err := s.svc.GetDAOVaults(dao)
	if err != nil {
		respondServiceError(w, r, err, nil)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"dao":    dao,
		"vaults": vaults,
		"count":  len(vaults),
	})
}

// handleGetVaultRegistry reports how both factories see a vault. The two
// registries are kept independently and may disagree.
func (s *Server) handleGetVaultRegistry(w http.ResponseWriter, r *http.Request) {
	vault, ok := pathAddress(w, r, "vault")
	if !ok {
		return
	}
	fromFactory, err := s.svc.IsVaultFromFactory(vault)
	if err != nil {
		respondServiceError(w, r, err, nil)
		return
	}
	deployedFor, err := s.svc.GetVaultFactoryDAO(vault)
	if err != nil {
		respondServiceError(w, r, err, nil)
		return
	}
	registeredTo, err := s.svc.GetVaultDAO(vault)
	if err != nil {
		respondServiceError(w, r, err, nil)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"vault":        vault,
		"fromFactory":  fromFactory,
		"deployedFor":  deployedFor,
		"registeredTo": registeredTo,
	})
}
