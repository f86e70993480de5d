package server

import (
	"io"
	"net/http"

	"github.com/conduit-lang/vardump/internal/demo"
	"github.com/conduit-lang/vardump/internal/settings"
	"github.com/go-chi/chi/v5"
	"github.com/segmentio/encoding/json"
	"go.uber.org/zap"
)

// settingView is the JSON shape of one resolved setting.
type settingView struct {
	Key      string   `json:"key"`
	Value    any      `json:"value"`
	Source   string   `json:"source"`
	Editable bool     `json:"editable"`
	Section  string   `json:"section"`
	Choices  []string `json:"choices,omitempty"`
}

// Routes builds the chi router:
//
//	GET    /                 demo page
//	GET    /settings         resolved settings as JSON
//	POST   /settings         merge form values into the settings cookie
//	DELETE /settings         drop the settings cookie
//	POST   /settings/reset   same as DELETE for plain HTML forms
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(recovery(s.logger))
	r.Use(logging(s.logger))
	r.Use(withInspector(s.config.Inspector, s.logger))

	r.Get("/", s.handleIndex)
	r.Route("/settings", func(r chi.Router) {
		r.Get("/", s.handleSettings)
		r.Post("/", s.handleUpdateSettings)
		r.Delete("/", s.handleResetSettings)
		r.Post("/reset", s.handleResetSettings)
	})
	return r
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	vd := InspectorFrom(r.Context())
	value := s.config.Value()

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	io.WriteString(w, demo.Page("vardump demo", vd.Dump(value, "demo")))
}

func (s *Server) handleSettings(w http.ResponseWriter, r *http.Request) {
	vd := InspectorFrom(r.Context())

	all := vd.Settings()
	out := make([]settingView, 0, len(all))
	for _, res := range all {
		out = append(out, settingView{
			Key:      res.Key,
			Value:    res.Value,
			Source:   string(res.Source),
			Editable: res.Editable,
			Section:  res.Section,
			Choices:  res.Choices,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	values := map[string]any{}
	if c, err := r.Cookie(settings.CookieName); err == nil {
		// A broken cookie is replaced rather than merged.
		if existing, err := settings.ParseCookie(c.Value); err == nil {
			values = existing
		}
	}
	for key := range r.PostForm {
		values[key] = r.PostForm.Get(key)
	}

	encoded := settings.EncodeCookie(values)
	if _, err := settings.ParseCookie(encoded); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if _, err := settings.Defaults().With(values, settings.SourceCookie); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     settings.CookieName,
		Value:    encoded,
		Path:     "/",
		SameSite: http.SameSiteLaxMode,
	})
	s.logger.Debug("settings cookie updated",
		zap.String("request_id", requestIDFrom(r.Context())),
		zap.Int("values", len(values)),
	)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleResetSettings(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:   settings.CookieName,
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})
	if r.Method == http.MethodDelete {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(data)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
