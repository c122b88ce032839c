// Package event exposes the conversation core over HTTP and websocket for
// transports that are not Telegram.
package event

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/nekoverse/nekobot/internal/service/assistant"
)

// Handler adapts assistant events to HTTP.
type Handler struct {
	assistantSvc *assistant.Service
	upgrader     websocket.Upgrader
}

func New(assistantSvc *assistant.Service) *Handler {
	return &Handler{
		assistantSvc: assistantSvc,
		upgrader: websocket.Upgrader{
			CheckOrigin:     func(r *http.Request) bool { return true },
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// RegisterRoutes mounts the event API.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/events", h.handleEvent)
	r.Get("/folders", h.handleListFolders)
	r.Delete("/folders/{folderID}", h.handleDeleteFolder)
	r.Get("/chats", h.handleListChats)
	r.Post("/chats/move", h.handleMoveChat)
	r.Post("/chats/switch", h.handleSwitchChat)
	r.Get("/ws", h.handleWebSocket)
}

type eventPayload struct {
	UserID int64  `json:"userId"`
	Kind   string `json:"kind"`
	Text   string `json:"text"`
}

type eventResponse struct {
	Response string `json:"response"`
}

var knownKinds = map[assistant.EventKind]bool{
	assistant.EventStart:        true,
	assistant.EventNewChat:      true,
	assistant.EventClearChat:    true,
	assistant.EventListFolders:  true,
	assistant.EventListChats:    true,
	assistant.EventCreateFolder: true,
	assistant.EventText:         true,
}

func (h *Handler) handleEvent(w http.ResponseWriter, r *http.Request) {
	var payload eventPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if payload.UserID == 0 {
		respondError(w, http.StatusBadRequest, "userId is required")
		return
	}

	kind := assistant.EventKind(payload.Kind)
	if kind == "" {
		kind = assistant.EventText
	}
	if !knownKinds[kind] {
		respondError(w, http.StatusBadRequest, "unknown event kind")
		return
	}

	text := h.assistantSvc.HandleEvent(r.Context(), payload.UserID, kind, payload.Text)
	respondJSON(w, http.StatusOK, eventResponse{Response: text})
}

func (h *Handler) handleListFolders(w http.ResponseWriter, r *http.Request) {
	userID, ok := parseUserID(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, h.assistantSvc.Folders(r.Context(), userID))
}

func (h *Handler) handleDeleteFolder(w http.ResponseWriter, r *http.Request) {
	userID, ok := parseUserID(w, r)
	if !ok {
		return
	}

	folderID := chi.URLParam(r, "folderID")
	if !h.assistantSvc.DeleteFolder(r.Context(), userID, folderID) {
		respondError(w, http.StatusNotFound, "folder not found or not empty")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (h *Handler) handleListChats(w http.ResponseWriter, r *http.Request) {
	userID, ok := parseUserID(w, r)
	if !ok {
		return
	}
	folderID := r.URL.Query().Get("folderId")
	respondJSON(w, http.StatusOK, h.assistantSvc.Chats(r.Context(), userID, folderID))
}

func (h *Handler) handleMoveChat(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		ChatID   string `json:"chatId"`
		FolderID string `json:"folderId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if !h.assistantSvc.MoveChat(r.Context(), payload.ChatID, payload.FolderID) {
		respondError(w, http.StatusNotFound, "folder not found")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "moved"})
}

func (h *Handler) handleSwitchChat(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		UserID int64  `json:"userId"`
		ChatID string `json:"chatId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if !h.assistantSvc.SwitchChat(r.Context(), payload.UserID, payload.ChatID) {
		respondError(w, http.StatusNotFound, "chat not found")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "switched"})
}

// handleWebSocket speaks the same event envelope as POST /events over one
// long-lived connection.
func (h *Handler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	userID, ok := parseUserID(w, r)
	if !ok {
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[event] websocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	for {
		var payload eventPayload
		if err := conn.ReadJSON(&payload); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[event] websocket read failed for user %d: %v", userID, err)
			}
			return
		}

		kind := assistant.EventKind(payload.Kind)
		if kind == "" {
			kind = assistant.EventText
		}
		if !knownKinds[kind] {
			if err := conn.WriteJSON(map[string]string{"error": "unknown event kind"}); err != nil {
				return
			}
			continue
		}

		text := h.assistantSvc.HandleEvent(r.Context(), userID, kind, payload.Text)
		if err := conn.WriteJSON(eventResponse{Response: text}); err != nil {
			log.Printf("[event] websocket write failed for user %d: %v", userID, err)
			return
		}
	}
}

func parseUserID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := r.URL.Query().Get("userId")
	userID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || userID == 0 {
		respondError(w, http.StatusBadRequest, "userId query parameter is required")
		return 0, false
	}
	return userID, true
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("[event] failed to encode response: %v", err)
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
