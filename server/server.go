package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/docsage/docsage/internal/models"
	"github.com/docsage/docsage/internal/types"
	"github.com/docsage/docsage/pkg/extract"
	"github.com/docsage/docsage/pkg/index"
	"github.com/docsage/docsage/pkg/llm"
	"github.com/docsage/docsage/pkg/rag"
	"github.com/docsage/docsage/pkg/session"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Be careful with this in production
	},
}

// Message is the websocket chat frame in both directions.
type Message struct {
	Type    string `json:"type"`
	Content string `json:"content"`
	Role    string `json:"role,omitempty"`
	Model   string `json:"model,omitempty"`
}

type Config struct {
	Addr    string
	Extract extract.Config
}

// Server exposes the pipeline over HTTP: multipart upload, question
// answering, per-file removal, reset, and a websocket chat channel.
type Server struct {
	config   Config
	index    *index.Manager
	answerer *rag.Answerer
	chat     types.ChatModel
	tracker  *session.Tracker
	log      *zap.SugaredLogger
}

func New(config Config, idx *index.Manager, answerer *rag.Answerer, chat types.ChatModel, log *zap.SugaredLogger) *Server {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Server{
		config:   config,
		index:    idx,
		answerer: answerer,
		chat:     chat,
		tracker:  session.NewTracker(),
		log:      log,
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /upload", s.handleUpload)
	mux.HandleFunc("POST /ask", s.handleAsk)
	mux.HandleFunc("GET /documents", s.handleListDocuments)
	mux.HandleFunc("DELETE /documents/{name}", s.handleRemoveDocument)
	mux.HandleFunc("POST /reset", s.handleReset)
	mux.HandleFunc("GET /models", s.handleModels)
	mux.HandleFunc("GET /roles", s.handleRoles)
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	mux.HandleFunc("/ws", s.handleWebSocket)
	return mux
}

func (s *Server) ListenAndServe() error {
	s.log.Infow("starting server", "addr", s.config.Addr)
	return http.ListenAndServe(s.config.Addr, s.Handler())
}

type uploadedFile struct {
	Name   string `json:"name"`
	Chunks int    `json:"chunks"`
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(64 << 20); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart request")
		return
	}

	var files []*uploadedFile
	for _, headers := range r.MultipartForm.File {
		for _, header := range headers {
			f, err := header.Open()
			if err != nil {
				writeError(w, http.StatusBadRequest, fmt.Sprintf("cannot read %s", header.Filename))
				return
			}

			ref := models.HandleRef(header.Filename, f)
			extractor, err := extract.New(ref, s.config.Extract)
			if err != nil {
				f.Close()
				writeError(w, http.StatusUnsupportedMediaType, err.Error())
				return
			}

			chunks, err := extractor.Extract(r.Context(), ref)
			f.Close()
			if err != nil {
				s.log.Warnw("extraction failed", "file", header.Filename, "error", err)
				writeError(w, http.StatusUnprocessableEntity, fmt.Sprintf("error processing %s", header.Filename))
				return
			}

			ids, err := s.index.Ingest(r.Context(), chunks, false)
			if err != nil {
				if errors.Is(err, index.ErrEmptyInput) {
					writeError(w, http.StatusUnprocessableEntity, fmt.Sprintf("no extractable content in %s", header.Filename))
					return
				}
				s.log.Errorw("ingestion failed", "file", header.Filename, "error", err)
				writeError(w, http.StatusInternalServerError, "failed to index document")
				return
			}

			s.tracker.Track(header.Filename, ids)
			files = append(files, &uploadedFile{Name: header.Filename, Chunks: len(ids)})
		}
	}

	if len(files) == 0 {
		writeError(w, http.StatusBadRequest, "no files provided")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"files": files})
}

type askRequest struct {
	Question string `json:"question"`
	Role     string `json:"role"`
	Model    string `json:"model,omitempty"`
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Role == "" {
		req.Role = rag.DefaultRole
	}

	answer, err := s.answerer.Answer(r.Context(), req.Question, req.Role, req.Model)
	if err != nil {
		status, msg := classifyAnswerError(err)
		if status == http.StatusInternalServerError {
			s.log.Errorw("answer failed", "error", err)
		}
		writeError(w, status, msg)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"answer": answer})
}

func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	docs := s.tracker.Files()
	if docs == nil {
		docs = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"documents": docs})
}

func (s *Server) handleRemoveDocument(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	ids := s.tracker.Release(name)
	if len(ids) == 0 {
		writeError(w, http.StatusNotFound, fmt.Sprintf("no document named %s", name))
		return
	}
	removed := s.index.Remove(r.Context(), ids)
	writeJSON(w, http.StatusOK, map[string]any{"removed": removed, "chunks": len(ids)})
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	if err := s.index.Reset(r.Context()); err != nil {
		s.log.Errorw("reset failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to reset index")
		return
	}
	s.tracker.Clear()
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

func (s *Server) handleModels(w http.ResponseWriter, r *http.Request) {
	names := s.chat.ListModels(r.Context())
	if names == nil {
		names = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"models": names})
}

func (s *Server) handleRoles(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"roles": rag.Roles()})
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warnw("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			break
		}

		var msg Message
		if err := json.Unmarshal(raw, &msg); err != nil {
			s.sendMessage(conn, Message{Type: "error", Content: "invalid message"})
			continue
		}

		go s.handleChatMessage(r.Context(), conn, msg)
	}
}

func (s *Server) handleChatMessage(ctx context.Context, conn *websocket.Conn, msg Message) {
	role := msg.Role
	if role == "" {
		role = rag.DefaultRole
	}

	answer, err := s.answerer.Answer(ctx, msg.Content, role, msg.Model)
	if err != nil {
		status, userMsg := classifyAnswerError(err)
		if status == http.StatusInternalServerError {
			s.log.Errorw("answer failed", "error", err)
		}
		s.sendMessage(conn, Message{Type: "error", Content: userMsg})
		return
	}

	s.sendMessage(conn, Message{Type: "response", Content: answer})
}

func (s *Server) sendMessage(conn *websocket.Conn, msg Message) {
	if err := conn.WriteJSON(msg); err != nil {
		s.log.Warnw("websocket write failed", "error", err)
	}
}

func classifyAnswerError(err error) (int, string) {
	var roleErr *rag.InvalidRoleError
	var unavailable *llm.UnavailableError
	switch {
	case errors.Is(err, rag.ErrEmptyQuestion):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, rag.ErrNoDocument):
		return http.StatusConflict, err.Error()
	case errors.As(err, &roleErr):
		return http.StatusBadRequest, err.Error()
	case errors.As(err, &unavailable):
		return http.StatusBadGateway, err.Error()
	default:
		return http.StatusInternalServerError, "internal error"
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
