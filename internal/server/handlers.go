package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"agentlaunch/internal/journal"
	"agentlaunch/internal/launch"
	"agentlaunch/internal/logging"
	"agentlaunch/internal/services"
	"agentlaunch/internal/services/fal"
	"agentlaunch/internal/services/moltbook"
)

const maxBodyBytes = 64 << 10

type createAgentRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type createAgentResponse struct {
	Success bool            `json:"success"`
	Agent   *moltbook.Agent `json:"agent,omitempty"`
}

type generateLogoRequest struct {
	Prompt string `json:"prompt"`
}

type generateLogoResponse struct {
	Success  bool   `json:"success"`
	ImageURL string `json:"image_url"`
}

type launchTokenRequest struct {
	APIKey      string `json:"api_key"`
	Name        string `json:"name"`
	Symbol      string `json:"symbol"`
	Description string `json:"description"`
	ImageURL    string `json:"image_url"`
	Wallet      string `json:"wallet"`
}

type launchTokenResponse struct {
	Success      bool   `json:"success"`
	ClankerURL   string `json:"clanker_url"`
	TokenAddress string `json:"token_address,omitempty"`
	PostID       string `json:"post_id"`
}

type randomizeRequest struct {
	Type string `json:"type"`
}

type randomizeResponse struct {
	Success bool   `json:"success"`
	Result  string `json:"result"`
}

type historyEntry struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	Symbol       string `json:"symbol"`
	Wallet       string `json:"wallet"`
	PostID       string `json:"post_id,omitempty"`
	ClankerURL   string `json:"clanker_url,omitempty"`
	TokenAddress string `json:"token_address,omitempty"`
	Status       string `json:"status"`
	Error        string `json:"error,omitempty"`
	CreatedAt    string `json:"created_at"`
}

type historyResponse struct {
	Launches []historyEntry `json:"launches"`
}

type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	PostID  string `json:"post_id,omitempty"`
}

func (s *Server) handleCreateAgent(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req createAgentRequest
	if !s.decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.Description) == "" {
		s.writeError(w, http.StatusBadRequest, "Name and description required")
		return
	}

	agent, err := s.deps.Registrar.RegisterAgent(r.Context(), req.Name, req.Description)
	if err != nil {
		if errors.Is(err, services.ErrUpstream) {
			s.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, createAgentResponse{Success: true, Agent: agent})
}

func (s *Server) handleGenerateLogo(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req generateLogoRequest
	if !s.decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Prompt) == "" {
		s.writeError(w, http.StatusBadRequest, "Prompt required")
		return
	}

	imageURL := s.deps.Logos.GenerateLogo(r.Context(), req.Prompt)
	s.writeJSON(w, http.StatusOK, generateLogoResponse{Success: true, ImageURL: imageURL})
}

func (s *Server) handleLaunchToken(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req launchTokenRequest
	if !s.decode(w, r, &req) {
		return
	}

	result, err := s.deps.Launcher.Launch(r.Context(), launch.Request{
		APIKey:      req.APIKey,
		Name:        req.Name,
		Symbol:      req.Symbol,
		Description: req.Description,
		ImageURL:    req.ImageURL,
		Wallet:      req.Wallet,
	})
	if err != nil {
		flowErr, ok := launch.AsFlowError(err)
		if !ok {
			s.writeError(w, http.StatusInternalServerError, "Server error")
			return
		}
		s.logger.Warn("launch failed",
			logging.Int("status", flowErr.Status),
			logging.String("post_id", flowErr.PostID),
			logging.Error(err))
		s.writeJSON(w, flowErr.Status, errorResponse{
			Error:  flowErr.Message,
			PostID: flowErr.PostID,
		})
		return
	}

	s.writeJSON(w, http.StatusOK, launchTokenResponse{
		Success:      true,
		ClankerURL:   result.ClankerURL,
		TokenAddress: result.TokenAddress,
		PostID:       result.PostID,
	})
}

func (s *Server) handleRandomize(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req randomizeRequest
	if !s.decode(w, r, &req) {
		return
	}

	var kind fal.Kind
	switch req.Type {
	case "name":
		kind = fal.KindName
	case "soul":
		kind = fal.KindSoul
	default:
		s.writeError(w, http.StatusBadRequest, "type must be name or soul")
		return
	}

	result, err := s.deps.Randomizer.Randomize(r.Context(), kind)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "Generation failed")
		return
	}
	s.writeJSON(w, http.StatusOK, randomizeResponse{Success: true, Result: result})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if s.deps.History == nil {
		s.writeJSON(w, http.StatusOK, historyResponse{Launches: []historyEntry{}})
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	entries, err := s.deps.History.List(r.Context(), limit)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	launches := make([]historyEntry, 0, len(entries))
	for _, entry := range entries {
		launches = append(launches, toHistoryEntry(entry))
	}
	s.writeJSON(w, http.StatusOK, historyResponse{Launches: launches})
}

func toHistoryEntry(entry journal.Entry) historyEntry {
	created := ""
	if !entry.CreatedAt.IsZero() {
		created = entry.CreatedAt.UTC().Format(time.RFC3339)
	}
	return historyEntry{
		ID:           entry.ID,
		Name:         entry.Name,
		Symbol:       entry.Symbol,
		Wallet:       entry.Wallet,
		PostID:       entry.PostID,
		ClankerURL:   entry.ClankerURL,
		TokenAddress: entry.TokenAddress,
		Status:       entry.Status,
		Error:        entry.Error,
		CreatedAt:    created,
	}
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(dst); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to encode response", logging.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, errorResponse{Error: message})
}
