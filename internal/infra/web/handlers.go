package web

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"

	"voice-chat/internal/domain"
	"voice-chat/internal/infra"
	"voice-chat/internal/infra/audio"
)

type ctxKey struct{}

func sessionFrom(ctx context.Context) *domain.Session {
	sess, _ := ctx.Value(ctxKey{}).(*domain.Session)
	return sess
}

// currentSession loads the caller's session, starting a fresh one when the
// cookie is missing, stale or unknown.
func (s *Server) currentSession(w http.ResponseWriter, r *http.Request) (*domain.Session, error) {
	if c, err := r.Cookie(cookieName); err == nil {
		sess, err := s.sessions.Load(r.Context(), c.Value)
		if err == nil {
			return sess, nil
		}
		if !errors.Is(err, domain.ErrSessionNotFound) {
			return nil, err
		}
	}

	sess, err := s.sessions.Start(r.Context())
	if err != nil {
		return nil, err
	}
	s.setCookie(w, sess)
	return sess, nil
}

func (s *Server) setCookie(w http.ResponseWriter, sess *domain.Session) {
	c := &http.Cookie{
		Name:     cookieName,
		Value:    sess.ID,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.opts.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	}
	if !sess.ExpiresAt.IsZero() {
		c.Expires = sess.ExpiresAt
	}
	http.SetCookie(w, c)
}

func (s *Server) clearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.opts.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *Server) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, err := r.Cookie(cookieName)
		if err != nil {
			writeJSON(w, http.StatusUnauthorized, errorBody{Error: "unauthorized"})
			return
		}

		sess, err := s.sessions.Load(r.Context(), c.Value)
		if err != nil {
			if !errors.Is(err, domain.ErrSessionNotFound) {
				s.logger.Error("loading session", "error", err)
			}
			writeJSON(w, http.StatusUnauthorized, errorBody{Error: "unauthorized"})
			return
		}

		if !s.gate.Authorized(sess) {
			writeJSON(w, http.StatusUnauthorized, errorBody{Error: "unauthorized"})
			return
		}

		next(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, sess)))
	}
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	sess, err := s.currentSession(w, r)
	if err != nil {
		s.logger.Error("starting session", "error", err)
		http.Error(w, "session unavailable", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	if err := renderPage(w, pageData{Authorized: sess.Authorized, Rejected: sess.Rejected}); err != nil {
		s.logger.Error("rendering page", "error", err)
	}
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	sess, err := s.currentSession(w, r)
	if err != nil {
		s.logger.Error("starting session", "error", err)
		http.Error(w, "session unavailable", http.StatusInternalServerError)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, 4096)
	_, ok, err := s.sessions.Login(r.Context(), sess.ID, s.gate, r.PostFormValue("password"))
	switch {
	case errors.Is(err, domain.ErrAuthMismatch):
		s.logger.Warn("password incorrect", "session", sess.ID, "ip", clientIP(r))
	case errors.Is(err, domain.ErrSessionNotFound):
		s.logger.Debug("session ended during login", "session", sess.ID)
	case err != nil:
		s.logger.Error("saving session", "error", err)
		http.Error(w, "session unavailable", http.StatusInternalServerError)
		return
	case ok:
		s.logger.Info("session authorized", "session", sess.ID)
	}

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(cookieName); err == nil {
		if err := s.sessions.End(r.Context(), c.Value); err != nil && !errors.Is(err, domain.ErrSessionNotFound) {
			s.logger.Warn("ending session", "error", err)
		}
	}

	s.clearCookie(w)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleTurn(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())

	capture, err := readCapture(w, r)
	if err != nil {
		s.logger.Warn("rejecting upload", "session", sess.ID, "error", err)
		status := http.StatusBadRequest
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			status = http.StatusRequestEntityTooLarge
		}
		writeJSON(w, status, errorBody{Error: err.Error()})
		return
	}

	unlock := s.sessions.Lock(sess.ID)
	defer unlock()

	turn, err := s.runner.Run(r.Context(), capture, s.sessions.OutputPath(sess.ID))
	if err != nil {
		s.logger.Error("turn failed", "session", sess.ID, "turn", turn.ID, "error", err, "transient", infra.IsTransient(err))
		writeJSON(w, http.StatusBadGateway, turn)
		return
	}

	if turn.Outcome == domain.OutcomeCompleted {
		turn.AudioURL = audioRoute + "?v=" + turn.ID
	}

	writeJSON(w, http.StatusOK, turn)
}

// readCapture returns the uploaded recording. A request without an audio
// part yields an empty capture; anything present must be a WAV file.
func readCapture(w http.ResponseWriter, r *http.Request) (*domain.Capture, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	file, _, err := r.FormFile("audio")
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading upload: %w", err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("reading upload: %w", err)
	}
	if len(data) == 0 {
		return nil, nil
	}

	if _, err := audio.Inspect(data); err != nil {
		return nil, fmt.Errorf("recording: %w", err)
	}

	return domain.NewCapture(data), nil
}

func (s *Server) handleAudio(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())
	path := s.sessions.OutputPath(sess.ID)

	f, err := os.Open(path)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", "audio/wav")
	w.Header().Set("Cache-Control", "no-store")
	http.ServeContent(w, r, info.Name(), info.ModTime(), f)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	running := s.running
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "running": running})
}
