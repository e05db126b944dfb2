package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/LikhithMar14/code-paglu/internal/domain"
	"github.com/LikhithMar14/code-paglu/internal/exec"
	"github.com/LikhithMar14/code-paglu/internal/protocol"
	"github.com/LikhithMar14/code-paglu/internal/service"
	"github.com/LikhithMar14/code-paglu/internal/token"
	"github.com/LikhithMar14/code-paglu/internal/transport/ws"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// serverIdentity — отправитель для сообщений, инжектированных через REST.
const serverIdentity = "server"

type Handler struct {
	signer    *token.Signer
	rosterSvc *service.RosterService
	wsServer  *ws.Server
	execSvc   *exec.Client
}

func NewHandler(signer *token.Signer, roster *service.RosterService, wsServer *ws.Server, execSvc *exec.Client) *Handler {
	return &Handler{
		signer:    signer,
		rosterSvc: roster,
		wsServer:  wsServer,
		execSvc:   execSvc,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// GET /api/token?room=&username=&identity=
func (h *Handler) GetToken(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	room := q.Get("room")
	username := q.Get("username")
	if room == "" || username == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "missing required query parameters: room, username"})
		return
	}
	identity := q.Get("identity")
	if identity == "" {
		identity = uuid.NewString()
	}

	tok, err := h.signer.Mint(identity, username, room)
	if err != nil {
		slog.Error("handler.GetToken:", slog.Any("err", err))
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "failed to generate token"})
		return
	}

	writeJSON(w, http.StatusOK, TokenResponse{Token: tok})
}

// GET /api/rooms
func (h *Handler) ListRooms(w http.ResponseWriter, r *http.Request) {
	rooms := h.rosterSvc.Rooms()
	resp := RoomsListResponse{Items: make([]RoomItem, 0, len(rooms))}
	for _, rm := range rooms {
		resp.Items = append(resp.Items, RoomItem{
			ID:              rm.ID,
			MaxParticipants: rm.MaxParticipants,
			CreatedAt:       rm.CreatedAt,
		})
	}

	writeJSON(w, http.StatusOK, resp)
}

// GET /api/rooms/{id}/participants
func (h *Handler) GetParticipants(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "id")

	items, err := h.rosterSvc.ListParticipants(r.Context(), roomID)
	if err != nil {
		if errors.Is(err, domain.ErrRoomNotFound) {
			writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "room not found"})
			return
		}
		slog.Error("handler.GetParticipants:", slog.Any("err", err))
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}

	resp := ParticipantsResponse{Items: make([]ParticipantItem, 0, len(items))}
	for _, it := range items {
		resp.Items = append(resp.Items, ParticipantItem{
			Identity:    it.Identity,
			DisplayName: it.DisplayName,
			JoinedAt:    it.JoinedAt,
			LastSeen:    it.LastSeen,
		})
	}

	writeJSON(w, http.StatusOK, resp)
}

// POST /api/rooms/{id}/messages — публикация chat-сообщения от имени
// сервера: объявления, боты, системные уведомления.
func (h *Handler) SendMessage(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "id")

	var req SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("handler.SendMessage.Decode:", slog.Any("err", err))
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid json"})
		return
	}
	if req.Content == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "content is required"})
		return
	}
	if _, err := h.rosterSvc.ListParticipants(r.Context(), roomID); err != nil {
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "room not found"})
		return
	}

	displayName := req.DisplayName
	if displayName == "" {
		displayName = "Server"
	}
	msg := protocol.Chat{
		Header: protocol.Header{
			Type:      protocol.KindChat,
			Sender:    serverIdentity,
			Timestamp: time.Now().UnixMilli(),
		},
		ID:          uuid.NewString(),
		Content:     req.Content,
		DisplayName: displayName,
	}
	data, err := protocol.Encode(msg)
	if err != nil {
		slog.Error("handler.SendMessage.Encode:", slog.Any("err", err))
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}
	h.wsServer.InjectData(roomID, data, true)

	writeJSON(w, http.StatusOK, SendMessageResponse{ID: msg.ID, Status: "sent"})
}

// POST /api/rooms/{id}/typing — серверный typing-индикатор (для ботов).
func (h *Handler) SendTyping(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "id")

	var req TypingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid json"})
		return
	}
	if _, err := h.rosterSvc.ListParticipants(r.Context(), roomID); err != nil {
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "room not found"})
		return
	}

	msg := protocol.Typing{
		Header: protocol.Header{
			Type:      protocol.KindTyping,
			Sender:    serverIdentity,
			Timestamp: time.Now().UnixMilli(),
		},
		IsTyping: req.IsTyping,
	}
	data, err := protocol.Encode(msg)
	if err != nil {
		slog.Error("handler.SendTyping.Encode:", slog.Any("err", err))
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}
	h.wsServer.InjectData(roomID, data, true)

	writeJSON(w, http.StatusOK, map[string]string{"status": "sent"})
}

// POST /api/execute — прокси к remote-execution API, чтобы не светить
// его URL и лимиты в браузере.
func (h *Handler) Execute(w http.ResponseWriter, r *http.Request) {
	var req ExecuteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid json"})
		return
	}
	if !req.Language.Supported() {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "unsupported language"})
		return
	}

	res, err := h.execSvc.Run(r.Context(), exec.RunRequest{
		Language: req.Language,
		Code:     req.Code,
		Stdin:    req.Stdin,
	})
	if err != nil {
		switch {
		case errors.Is(err, exec.ErrNotRunnable):
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "language is not runnable"})
		case errors.Is(err, exec.ErrNoMainFunc):
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "code must include a main function"})
		default:
			slog.Error("handler.Execute:", slog.Any("err", err))
			writeJSON(w, http.StatusBadGateway, ErrorResponse{Error: "execution service unavailable"})
		}
		return
	}

	writeJSON(w, http.StatusOK, ExecuteResponse{
		Output:     res.Output,
		Stderr:     res.Stderr,
		CompileErr: res.CompileErr,
		OK:         res.OK(),
	})
}
