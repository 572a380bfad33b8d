package api

import (
	"net/http"
	"time"

	"github.com/dao-vault/internal/governance"
	"github.com/dao-vault/internal/service"
)

type createDAORequest struct {
	Name string `json:"name"`
}

type memberRequest struct {
	Member string `json:"member"`
}

type proposeRequest struct {
	Title           string `json:"title"`
	Description     string `json:"description"`
	DurationSeconds int64  `json:"durationSeconds"`
}

type voteRequest struct {
	Support bool `json:"support"`
}

type vaultRequest struct {
	Vault string `json:"vault"`
}

type quorumRequest struct {
	Percentage uint64 `json:"percentage"`
}

type ownershipRequest struct {
	NewOwner string `json:"newOwner"`
}

// handleCreateDAO handles POST /api/daos
func (s *Server) handleCreateDAO(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}
	var req createDAORequest
	if !decodeBody(w, r, &req) {
		return
	}

	addr, receipt, err := s.svc.CreateDAO(r.Context(), caller, req.Name)
	respondTx(w, r, http.StatusCreated, receipt, err, TxResponse{Address: &addr})
}

// handleListDAOs handles GET /api/daos
func (s *Server) handleListDAOs(w http.ResponseWriter, r *http.Request) {
	daos, err := s.svc.GetAllDAOs()
	if err != nil {
		respondServiceError(w, r, err, nil)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"daos":  daos,
		"count": len(daos),
	})
}

// handleGetDAO handles GET /api/daos/{dao}
func (s *Server) handleGetDAO(w http.ResponseWriter, r *http.Request) {
	dao, ok := pathAddress(w, r, "dao")
	if !ok {
		return
	}
	view, err := s.svc.GetDAO(dao)
	if err != nil {
		respondServiceError(w, r, err, nil)
		return
	}
	respondJSON(w, http.StatusOK, view)
}

func (s *Server) handleGetMembers(w http.ResponseWriter, r *http.Request) {
	dao, ok := pathAddress(w, r, "dao")
	if !ok {
		return
	}
	members, err := s.svc.GetMembers(dao)
	if err != nil {
		respondServiceError(w, r, err, nil)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"members": members,
		"count":   len(members),
	})
}

func (s *Server) handleAddMember(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}
	dao, ok := pathAddress(w, r, "dao")
	if !ok {
		return
	}
	var req memberRequest
	if !decodeBody(w, r, &req) {
		return
	}
	member, ok := parseAddressField(w, "member", req.Member)
	if !ok {
		return
	}

	receipt, err := s.svc.AddMember(r.Context(), caller, dao, member)
	respondTx(w, r, http.StatusOK, receipt, err, TxResponse{})
}

func (s *Server) handleRemoveMember(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}
	dao, ok := pathAddress(w, r, "dao")
	if !ok {
		return
	}
	member, ok := pathAddress(w, r, "member")
	if !ok {
		return
	}

	receipt, err := s.svc.RemoveMember(r.Context(), caller, dao, member)
	respondTx(w, r, http.StatusOK, receipt, err, TxResponse{})
}

func (s *Server) handleListProposals(w http.ResponseWriter, r *http.Request) {
	dao, ok := pathAddress(w, r, "dao")
	if !ok {
		return
	}
	proposals, err := s.svc.ListProposals(dao)
	if err != nil {
		respondServiceError(w, r, err, nil)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"proposals": proposals,
		"count":     len(proposals),
	})
}

// handlePropose handles POST /api/daos/{dao}/proposals
func (s *Server) handlePropose(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}
	dao, ok := pathAddress(w, r, "dao")
	if !ok {
		return
	}
	var req proposeRequest
	if !decodeBody(w, r, &req) {
		return
	}

	id, receipt, err := s.svc.Propose(r.Context(), caller, dao, service.ProposeInput{
		Title:       req.Title,
		Description: req.Description,
		Duration:    proposalDuration(req.DurationSeconds),
	})
	respondTx(w, r, http.StatusCreated, receipt, err, TxResponse{ProposalID: &id})
}

// proposalDuration converts seconds to a duration without overflowing.
// Values outside the voting window saturate just past its edges.
func proposalDuration(seconds int64) time.Duration {
	switch {
	case seconds <= 0:
		return 0
	case seconds > int64(governance.MaxProposalDuration/time.Second):
		return governance.MaxProposalDuration + time.Second
	}
	return time.Duration(seconds) * time.Second
}

func (s *Server) handleGetProposal(w http.ResponseWriter, r *http.Request) {
	dao, ok := pathAddress(w, r, "dao")
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	view, err := s.svc.GetProposal(dao, id)
	if err != nil {
		respondServiceError(w, r, err, nil)
		return
	}
	respondJSON(w, http.StatusOK, view)
}

func (s *Server) handleVote(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}
	dao, ok := pathAddress(w, r, "dao")
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req voteRequest
	if !decodeBody(w, r, &req) {
		return
	}

	receipt, err := s.svc.Vote(r.Context(), caller, dao, id, req.Support)
	respondTx(w, r, http.StatusOK, receipt, err, TxResponse{})
}

func (s *Server) handleHasVoted(w http.ResponseWriter, r *http.Request) {
	dao, ok := pathAddress(w, r, "dao")
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	voter, ok := pathAddress(w, r, "voter")
	if !ok {
		return
	}
	voted, err := s.svc.HasVoted(dao, id, voter)
	if err != nil {
		respondServiceError(w, r, err, nil)
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"hasVoted": voted})
}

func (s *Server) handleExecuteProposal(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}
	dao, ok := pathAddress(w, r, "dao")
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	receipt, err := s.svc.ExecuteProposal(r.Context(), caller, dao, id)
	respondTx(w, r, http.StatusOK, receipt, err, TxResponse{})
}

func (s *Server) handleAttachVault(w http.ResponseWriter, r *http.Request) {
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

	receipt, err := s.svc.AttachVault(r.Context(), caller, dao, vault)
	respondTx(w, r, http.StatusOK, receipt, err, TxResponse{})
}

func (s *Server) handleDetachVault(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}
	dao, ok := pathAddress(w, r, "dao")
	if !ok {
		return
	}

	receipt, err := s.svc.DetachVault(r.Context(), caller, dao)
	respondTx(w, r, http.StatusOK, receipt, err, TxResponse{})
}

func (s *Server) handleSetQuorum(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}
	dao, ok := pathAddress(w, r, "dao")
	if !ok {
		return
	}
	var req quorumRequest
	if !decodeBody(w, r, &req) {
		return
	}

	receipt, err := s.svc.SetQuorumPercentage(r.Context(), caller, dao, req.Percentage)
	respondTx(w, r, http.StatusOK, receipt, err, TxResponse{})
}

func (s *Server) handlePauseDAO(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}
	dao, ok := pathAddress(w, r, "dao")
	if !ok {
		return
	}

	receipt, err := s.svc.PauseDAO(r.Context(), caller, dao)
	respondTx(w, r, http.StatusOK, receipt, err, TxResponse{})
}

func (s *Server) handleUnpauseDAO(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}
	dao, ok := pathAddress(w, r, "dao")
	if !ok {
		return
	}

	receipt, err := s.svc.UnpauseDAO(r.Context(), caller, dao)
	respondTx(w, r, http.StatusOK, receipt, err, TxResponse{})
}

func (s *Server) handleTransferDAOOwnership(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}
	dao, ok := pathAddress(w, r, "dao")
	if !ok {
		return
	}
	var req ownershipRequest
	if !decodeBody(w, r, &req) {
		return
	}
	newOwner, ok := parseAddressField(w, "newOwner", req.NewOwner)
	if !ok {
		return
	}

	receipt, err := s.svc.TransferDAOOwnership(r.Context(), caller, dao, newOwner)
	respondTx(w, r, http.StatusOK, receipt, err, TxResponse{})
}

func (s *Server) handleRenounceDAOOwnership(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}
	dao, ok := pathAddress(w, r, "dao")
	if !ok {
		return
	}

	receipt, err := s.svc.RenounceDAOOwnership(r.Context(), caller, dao)
	respondTx(w, r, http.StatusOK, receipt, err, TxResponse{})
}
