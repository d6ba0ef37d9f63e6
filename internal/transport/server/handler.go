package server

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/wrongjunior/eventboard/internal/command"
	"github.com/wrongjunior/eventboard/internal/discord"
)

// maxBodyBytes ограничивает размер тела вебхука.
const maxBodyBytes = 1 << 20

// Заголовки подписи Discord.
const (
	HeaderSignature = "X-Signature-Ed25519"
	HeaderTimestamp = "X-Signature-Timestamp"
)

// Verifier проверяет подпись запроса.
type Verifier interface {
	Verify(body []byte, signature, timestamp string) bool
}

// Dispatcher превращает взаимодействие в ответ.
type Dispatcher interface {
	Dispatch(ctx context.Context, in *discord.Interaction) command.Result
}

// Runner запускает отложенную работу в фоне.
type Runner interface {
	Go(name string, task func(ctx context.Context))
}

// Handler обслуживает вебхук взаимодействий Discord.
type Handler struct {
	Verifier   Verifier
	Dispatcher Dispatcher
	Runner     Runner
	Logger     *slog.Logger
}

// NewHandler создаёт новый обработчик.
func NewHandler(v Verifier, d Dispatcher, r Runner, logger *slog.Logger) *Handler {
	return &Handler{
		Verifier:   v,
		Dispatcher: d,
		Runner:     r,
		Logger:     logger,
	}
}

// ServeHTTP проверяет подпись, разбирает тело и отвечает. Отложенная работа
// запускается только после того, как подтверждение записано и отправлено.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		h.Logger.Warn("Failed to read request body", "error", err)
		writeText(w, http.StatusBadRequest, "Bad Request")
		return
	}

	if !h.Verifier.Verify(body, r.Header.Get(HeaderSignature), r.Header.Get(HeaderTimestamp)) {
		writeText(w, http.StatusUnauthorized, "Invalid signature")
		return
	}

	var in discord.Interaction
	if err := json.Unmarshal(body, &in); err != nil {
		h.Logger.Warn("Bad Request", "error", err)
		writeText(w, http.StatusBadRequest, "Bad Request")
		return
	}

	res := h.Dispatcher.Dispatch(r.Context(), &in)
	if res.Response == nil {
		writeText(w, http.StatusNotFound, "Not Found")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(res.Response); err != nil {
		h.Logger.Error("Failed to write response", "error", err)
		return
	}
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}

	if res.Deferred != nil {
		h.Runner.Go(res.Task, res.Deferred)
	}
}

func writeText(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, msg)
}
