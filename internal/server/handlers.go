package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/ChamsBouzaiene/skyfinder/internal/engine"
	"github.com/ChamsBouzaiene/skyfinder/internal/relay"
)

const maxChatBody = 64 << 10

type chatRequest struct {
	Message string `json:"message"`
	Target  string `json:"target,omitempty"`
}

type chatResponse struct {
	Reply string `json:"reply"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type targetView struct {
	ID    string  `json:"id"`
	Alpha float64 `json:"alpha"`
	Beta  float64 `json:"beta"`
	Live  bool    `json:"live"`
}

type targetsResponse struct {
	Targets []targetView `json:"targets"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	body := http.MaxBytesReader(w, r.Body, maxChatBody)
	if err := json.NewDecoder(body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid JSON body"})
		return
	}

	text := strings.TrimSpace(req.Message)
	if text == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Message is required"})
		return
	}

	target, err := s.resolveTarget(req.Target)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	s.broadcast(text, relay.ChatRoleUser)
	reply, err := s.chat.Run(r.Context(), engine.Turn{Text: text, Target: target})
	switch {
	case err == nil:
		s.broadcast(reply.Text, relay.ChatRoleBot)
		writeJSON(w, http.StatusOK, chatResponse{Reply: reply.Text})
	case engine.IsValidationError(err):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Message is required"})
	default:
		s.logger.Error("chat request failed", zap.Error(err))
		s.broadcast(engine.DegradedReply, relay.ChatRoleSystem)
		writeJSON(w, http.StatusInternalServerError, chatResponse{Reply: engine.DegradedReply})
	}
}

func (s *Server) resolveTarget(raw string) (engine.Target, error) {
	if strings.TrimSpace(raw) != "" {
		return engine.ParseTarget(raw)
	}
	if s.alignment != nil {
		return s.alignment.Alignment().ChatTarget(), nil
	}
	return engine.TargetISS, nil
}

func (s *Server) broadcast(text string, role relay.ChatRole) {
	if s.hub != nil {
		s.hub.BroadcastChat(text, role)
	}
}

func (s *Server) handleTargets(w http.ResponseWriter, _ *http.Request) {
	resp := targetsResponse{Targets: []targetView{}}
	if s.catalog != nil {
		for _, t := range s.catalog.Targets() {
			a := t.Angles()
			resp.Targets = append(resp.Targets, targetView{
				ID:    t.ID,
				Alpha: a.Alpha,
				Beta:  a.Beta,
				Live:  s.catalog.Live(t.ID),
			})
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSmart(w http.ResponseWriter, r *http.Request) {
	s.serveAsset(w, r, "smart.html", "Not found")
}

func (s *Server) handleGuidance(w http.ResponseWriter, r *http.Request) {
	s.serveAsset(w, r, "guidance.png", "Image not found")
}

func (s *Server) serveAsset(w http.ResponseWriter, r *http.Request, name, missing string) {
	path := filepath.Join(s.opts.PublicDir, name)
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, missing)
		return
	}
	http.ServeFile(w, r, path)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, "ok")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
