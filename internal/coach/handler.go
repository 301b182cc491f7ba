package coach

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/2beens/formcheck/internal/engine"
	"github.com/2beens/formcheck/internal/pose"
	"github.com/2beens/formcheck/internal/telemetry/tracing"
	"github.com/2beens/formcheck/pkg"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
)

//go:generate mockgen -source=$GOFILE -destination=handler_mocks_test.go -package=coach_test

type coachService interface {
	CreateSession(ctx context.Context, cfg engine.SessionConfig) (*SessionInfo, error)
	ProcessFrame(ctx context.Context, sessionID string, f *pose.Frame) (engine.Output, error)
	Reset(ctx context.Context, sessionID string) error
	Summary(ctx context.Context, sessionID string) (*SummaryRecord, error)
	Finish(ctx context.Context, sessionID string) error
	Delete(ctx context.Context, sessionID string) error
	Exercises() []ExerciseInfo
}

type DeleteSessionResponse struct {
	DeletedID string `json:"deletedId"`
}

type Handler struct {
	service  coachService
	upgrader websocket.Upgrader
}

func NewHandler(service coachService) *Handler {
	return &Handler{
		service: service,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  8 * 1024,
			WriteBufferSize: 4 * 1024,
			// origins are checked by the cors middleware
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// SetupRoutes registers the session routes. newSessionMiddlewares wrap only
// session creation, e.g. a rate limiter.
func (handler *Handler) SetupRoutes(router *mux.Router, newSessionMiddlewares ...mux.MiddlewareFunc) {
	var newSession http.Handler = http.HandlerFunc(handler.HandleCreate)
	for i := len(newSessionMiddlewares) - 1; i >= 0; i-- {
		newSession = newSessionMiddlewares[i](newSession)
	}

	router.HandleFunc("/exercises", handler.HandleExercises).Methods("GET").Name("list-exercises")
	router.Handle("/sessions", newSession).Methods("POST", "OPTIONS").Name("new-session")
	router.HandleFunc("/sessions/{id}/frames", handler.HandleFrame).Methods("POST", "OPTIONS").Name("session-frame")
	router.HandleFunc("/sessions/{id}/stream", handler.HandleStream).Methods("GET").Name("session-stream")
	router.HandleFunc("/sessions/{id}/reset", handler.HandleReset).Methods("POST", "OPTIONS").Name("session-reset")
	router.HandleFunc("/sessions/{id}/summary", handler.HandleSummary).Methods("GET").Name("session-summary")
	router.HandleFunc("/sessions/{id}", handler.HandleDelete).Methods("DELETE", "OPTIONS").Name("delete-session")
}

func (handler *Handler) HandleExercises(w http.ResponseWriter, _ *http.Request) {
	pkg.WriteJSONResponseOK(w, handler.service.Exercises())
}

func (handler *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.coach.new")
	defer span.End()

	if r.Header.Get("Content-Type") != "application/json" {
		http.Error(w, "invalid content type", http.StatusBadRequest)
		return
	}

	var cfg engine.SessionConfig
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		log.Errorf("new session, unmarshal json params: %s", err)
		http.Error(w, "invalid session config", http.StatusBadRequest)
		return
	}

	info, err := handler.service.CreateSession(ctx, cfg)
	if err != nil {
		if errors.Is(err, ErrInvalidSessionConfig) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		log.Errorf("create session [%s]: %s", cfg.Exercise, err)
		http.Error(w, "failed to create session", http.StatusInternalServerError)
		return
	}

	pkg.WriteJSON(w, info, http.StatusCreated)
}

func (handler *Handler) HandleFrame(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	var frame pose.Frame
	if err := json.NewDecoder(r.Body).Decode(&frame); err != nil {
		log.Tracef("session [%s] frame, unmarshal: %s", sessionID, err)
		http.Error(w, "invalid frame", http.StatusBadRequest)
		return
	}

	out, err := handler.service.ProcessFrame(r.Context(), sessionID, &frame)
	if err != nil {
		writeSessionError(w, sessionID, "process frame", err)
		return
	}

	pkg.WriteJSONResponseOK(w, out)
}

// HandleStream upgrades to a websocket. Every text message is a frame and
// gets one output back. The session summary is stored when the stream ends.
func (handler *Handler) HandleStream(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]
	ctx := r.Context()

	// fail before upgrading if the session does not exist
	if _, err := handler.service.Summary(ctx, sessionID); err != nil {
		writeSessionError(w, sessionID, "stream", err)
		return
	}

	conn, err := handler.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// the upgrader already replied with an error
		log.Errorf("session [%s] stream, upgrade: %s", sessionID, err)
		return
	}
	defer func() {
		if err := conn.Close(); err != nil {
			log.Tracef("session [%s] stream, close conn: %s", sessionID, err)
		}
	}()

	log.Debugf("session [%s] stream opened from %s", sessionID, conn.RemoteAddr())
	frames := handler.streamFrames(ctx, conn, sessionID)
	log.Debugf("session [%s] stream closed after %d frames", sessionID, frames)

	// the request context may already be done
	if err := handler.service.Finish(context.WithoutCancel(ctx), sessionID); err != nil && !errors.Is(err, ErrSessionNotFound) {
		log.Errorf("session [%s] stream closed, save summary: %s", sessionID, err)
	}
}

func (handler *Handler) streamFrames(ctx context.Context, conn *websocket.Conn, sessionID string) int {
	frames := 0
	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Debugf("session [%s] stream read: %s", sessionID, err)
			}
			return frames
		}
		if msgType != websocket.TextMessage {
			continue
		}

		var frame pose.Frame
		if err := json.Unmarshal(data, &frame); err != nil {
			log.Tracef("session [%s] stream, unmarshal frame: %s", sessionID, err)
			continue
		}

		out, err := handler.service.ProcessFrame(ctx, sessionID, &frame)
		if err != nil {
			closeCode := websocket.CloseInternalServerErr
			if errors.Is(err, ErrSessionNotFound) {
				closeCode = websocket.ClosePolicyViolation
			}
			msg := websocket.FormatCloseMessage(closeCode, err.Error())
			_ = conn.WriteMessage(websocket.CloseMessage, msg)
			return frames
		}
		frames++

		if err := conn.WriteJSON(out); err != nil {
			log.Debugf("session [%s] stream write: %s", sessionID, err)
			return frames
		}
	}
}

func (handler *Handler) HandleReset(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]
	if err := handler.service.Reset(r.Context(), sessionID); err != nil {
		writeSessionError(w, sessionID, "reset", err)
		return
	}
	pkg.WriteTextResponseOK(w, "reset")
}

func (handler *Handler) HandleSummary(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]
	rec, err := handler.service.Summary(r.Context(), sessionID)
	if err != nil {
		writeSessionError(w, sessionID, "summary", err)
		return
	}
	pkg.WriteJSONResponseOK(w, rec)
}

func (handler *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]
	if err := handler.service.Delete(r.Context(), sessionID); err != nil {
		writeSessionError(w, sessionID, "delete", err)
		return
	}
	log.Debugf("session [%s] deleted", sessionID)
	pkg.WriteJSONResponseOK(w, DeleteSessionResponse{DeletedID: sessionID})
}

func writeSessionError(w http.ResponseWriter, sessionID, op string, err error) {
	if errors.Is(err, ErrSessionNotFound) {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}
	log.Errorf("session [%s] %s: %s", sessionID, op, err)
	http.Error(w, "internal server error", http.StatusInternalServerError)
}
