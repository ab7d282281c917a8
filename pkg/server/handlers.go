package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/matzehuels/nunet/pkg/codegen"
	"github.com/matzehuels/nunet/pkg/design"
	"github.com/matzehuels/nunet/pkg/errors"
	"github.com/matzehuels/nunet/pkg/io"
	"github.com/matzehuels/nunet/pkg/pipeline"
	"github.com/matzehuels/nunet/pkg/script"
	"github.com/matzehuels/nunet/pkg/session"
	"github.com/matzehuels/nunet/pkg/storage"
)

// =============================================================================
// Request and response bodies
// =============================================================================

type createSessionRequest struct {
	Name string `json:"name" validate:"omitempty,max=128"`

	// Design loads a stored design by id or name instead of starting empty.
	Design string `json:"design" validate:"omitempty,max=128"`
}

type generateRequest struct {
	Name         string  `json:"name" validate:"omitempty,identifier"`
	LearningRate float64 `json:"learning_rate" validate:"omitempty,gt=0"`
	Format       string  `json:"format" validate:"omitempty,oneof=python json"`
}

type violationView struct {
	Position [2]int `json:"position"`
	Kind     string `json:"kind"`
	Reason   string `json:"reason"`
}

type notificationView struct {
	Code    errors.Code `json:"code"`
	Message string      `json:"message"`
}

type sessionSummary struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	DesignID  uuid.UUID `json:"design_id"`
	Neurons   int       `json:"neurons"`
	Synapses  int       `json:"synapses"`
	ExpiresAt time.Time `json:"expires_at"`
}

type sessionView struct {
	sessionSummary
	CanUndo       bool               `json:"can_undo"`
	Valid         bool               `json:"valid"`
	Violations    []violationView    `json:"violations"`
	Notifications []notificationView `json:"notifications"`
	Design        io.Snapshot        `json:"design"`
}

type applyResponse struct {
	script.Result
	Session sessionView `json:"session"`
}

type undoResponse struct {
	Undone  bool        `json:"undone"`
	Session sessionView `json:"session"`
}

type validateResponse struct {
	Valid      bool            `json:"valid"`
	Violations []violationView `json:"violations"`
}

type invalidResponse struct {
	errorResponse
	Violations []violationView `json:"violations"`
}

func summarize(sess *session.Session) sessionSummary {
	st := sess.Designer.Store()
	return sessionSummary{
		ID:        sess.ID,
		Name:      sess.Name,
		DesignID:  sess.DesignID,
		Neurons:   st.NeuronCount(),
		Synapses:  st.SynapseCount(),
		ExpiresAt: sess.ExpiresAt,
	}
}

// view captures a session. The caller holds s.mu.
func view(sess *session.Session) sessionView {
	violations := violationViews(design.Check(sess.Designer.Store()))
	notes := []notificationView{}
	for _, n := range sess.Designer.Notifications().Recent(0) {
		notes = append(notes, notificationView{Code: n.Code, Message: n.Message})
	}
	return sessionView{
		sessionSummary: summarize(sess),
		CanUndo:        sess.Designer.CanUndo(),
		Valid:          len(violations) == 0 && sess.Designer.Store().NeuronCount() > 0,
		Violations:     violations,
		Notifications:  notes,
		Design:         sess.Snapshot(),
	}
}

func violationViews(vs []design.Violation) []violationView {
	out := make([]violationView, 0, len(vs))
	for _, v := range vs {
		out = append(out, violationView{
			Position: [2]int{v.Position.Layer, v.Position.Offset},
			Kind:     v.Kind.String(),
			Reason:   v.Reason,
		})
	}
	return out
}

// =============================================================================
// Sessions
// =============================================================================

// lookup fetches the {id} session and extends its lifetime. On failure it
// writes the error response and returns nil. The caller holds s.mu.
func (s *Server) lookup(w http.ResponseWriter, r *http.Request) *session.Session {
	sess, err := s.cfg.Sessions.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return nil
	}
	sess.Touch(s.cfg.SessionTTL)
	return sess
}

// persist writes sess back after a change. The caller holds s.mu.
func (s *Server) persist(r *http.Request, sess *session.Session) error {
	return s.cfg.Sessions.Set(r.Context(), sess)
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	list, err := s.cfg.Sessions.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]sessionSummary, 0, len(list))
	for _, sess := range list {
		out = append(out, summarize(sess))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}

	var (
		sess *session.Session
		err  error
	)
	if req.Design != "" {
		if s.cfg.Storage == nil {
			writeError(w, errors.New(errors.ErrCodeNotFound, "no design storage configured"))
			return
		}
		var snap io.Snapshot
		snap, err = storage.Resolve(r.Context(), s.cfg.Storage, req.Design)
		if err != nil {
			writeError(w, err)
			return
		}
		if req.Name != "" {
			snap.Name = req.Name
		}
		sess, err = session.FromSnapshot(snap, s.cfg.SessionTTL, design.WithLogger(s.logger))
	} else {
		name := req.Name
		if name == "" {
			name = "untitled"
		}
		sess, err = session.New(name, s.cfg.SessionTTL, design.WithLogger(s.logger))
	}
	if err != nil {
		writeError(w, err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.persist(r, sess); err != nil {
		writeError(w, err)
		return
	}
	s.logger.Info("session opened", "session", sess.ID, "design", sess.DesignID, "name", sess.Name)
	writeJSON(w, http.StatusCreated, view(sess))
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.lookup(w, r)
	if sess == nil {
		return
	}
	writeJSON(w, http.StatusOK, view(sess))
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.cfg.Sessions.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// Mutations
// =============================================================================

// handleApply runs an edit script. With ?keep_going=true failed steps are
// recorded as notifications; otherwise the first failure stops the script
// and is returned, with earlier steps left applied.
func (s *Server) handleApply(w http.ResponseWriter, r *http.Request) {
	var sc script.Script
	if err := decode(r, &sc); err != nil {
		writeError(w, err)
		return
	}
	if err := sc.Check(); err != nil {
		writeError(w, err)
		return
	}
	keepGoing, _ := strconv.ParseBool(r.URL.Query().Get("keep_going"))

	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.lookup(w, r)
	if sess == nil {
		return
	}
	res, err := script.Apply(sess.Designer, &sc, script.Options{Defaults: s.cfg.Defaults, KeepGoing: keepGoing})
	if err != nil {
		sess.Designer.Report(err)
	}
	if perr := s.persist(r, sess); perr != nil {
		writeError(w, perr)
		return
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, applyResponse{Result: res, Session: view(sess)})
}

func (s *Server) handleUndo(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.lookup(w, r)
	if sess == nil {
		return
	}
	undone := sess.Designer.Undo()
	if err := s.persist(r, sess); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, undoResponse{Undone: undone, Session: view(sess)})
}

// =============================================================================
// Pipeline
// =============================================================================

func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.lookup(w, r)
	if sess == nil {
		return
	}
	violations, err := s.cfg.Runner.Validate(r.Context(), sess.Designer.Store())
	writeJSON(w, http.StatusOK, validateResponse{
		Valid:      err == nil && sess.Designer.Store().NeuronCount() > 0,
		Violations: violationViews(violations),
	})
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	opts := s.cfg.Generate
	opts.SkipGenerate = false
	opts.Diagrams = nil
	if req.Name != "" {
		opts.Name = req.Name
	}
	if req.LearningRate != 0 {
		opts.LearningRate = req.LearningRate
	}
	if req.Format != "" {
		opts.Format = codegen.Format(req.Format)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.lookup(w, r)
	if sess == nil {
		return
	}
	res, err := s.cfg.Runner.Execute(r.Context(), sess.Designer.Store(), opts)
	if err != nil {
		if res != nil && errors.Is(err, errors.ErrCodeDesignInvalid) {
			writeJSON(w, http.StatusUnprocessableEntity, invalidResponse{
				errorResponse: errorResponse{Code: errors.ErrCodeDesignInvalid, Message: errors.UserMessage(err)},
				Violations:    violationViews(res.Violations),
			})
			return
		}
		writeError(w, err)
		return
	}
	w.Header().Set("X-Cache", cacheHeader(res.CacheInfo.GenerateHit))
	writeBytes(w, contentType(string(opts.Format)), res.Code)
}

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	format := chi.URLParam(r, "format")
	if err := validate.Var(format, "oneof=dot svg png pdf"); err != nil {
		writeError(w, errors.Wrap(errors.ErrCodeInvalidInput, err, "unsupported diagram format %q", format))
		return
	}
	q := r.URL.Query()
	detailed, _ := strconv.ParseBool(q.Get("detailed"))
	highlight, _ := strconv.ParseBool(q.Get("highlight"))

	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.lookup(w, r)
	if sess == nil {
		return
	}
	res, err := s.cfg.Runner.Execute(r.Context(), sess.Designer.Store(), pipeline.Options{
		SkipGenerate: true,
		Diagrams:     []string{format},
		Detailed:     detailed,
		Highlight:    highlight,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("X-Cache", cacheHeader(res.CacheInfo.RenderHit))
	writeBytes(w, contentType(format), res.Diagrams[format])
}

// =============================================================================
// Storage
// =============================================================================

func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	if s.cfg.Storage == nil {
		writeError(w, errors.New(errors.ErrCodeNotFound, "no design storage configured"))
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.lookup(w, r)
	if sess == nil {
		return
	}
	snap := sess.Snapshot()
	if err := s.cfg.Storage.Put(r.Context(), snap); err != nil {
		writeError(w, errors.Wrap(errors.ErrCodePersistence, err, "unable to save design %s", snap.Name))
		return
	}
	s.logger.Info("design saved", "session", sess.ID, "design", snap.ID, "name", snap.Name)
	writeJSON(w, http.StatusOK, storage.Entry{
		ID:       snap.ID,
		Name:     snap.Name,
		Neurons:  len(snap.Neurons),
		Synapses: len(snap.Synapses),
	})
}

func (s *Server) handleListDesigns(w http.ResponseWriter, r *http.Request) {
	if s.cfg.Storage == nil {
		writeJSON(w, http.StatusOK, []storage.Entry{})
		return
	}
	entries, err := s.cfg.Storage.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if entries == nil {
		entries = []storage.Entry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) handleDeleteDesign(w http.ResponseWriter, r *http.Request) {
	if s.cfg.Storage == nil {
		writeError(w, errors.New(errors.ErrCodeNotFound, "no design storage configured"))
		return
	}
	snap, err := storage.Resolve(r.Context(), s.cfg.Storage, chi.URLParam(r, "ref"))
	if err != nil {
		writeError(w, err)
		return
	}
	if err := s.cfg.Storage.Delete(r.Context(), snap.ID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// Helpers
// =============================================================================

func writeBytes(w http.ResponseWriter, contentType string, data []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func contentType(format string) string {
	switch format {
	case "python":
		return "text/x-python; charset=utf-8"
	case "json":
		return "application/json"
	case "dot":
		return "text/vnd.graphviz; charset=utf-8"
	case "svg":
		return "image/svg+xml"
	case "png":
		return "image/png"
	case "pdf":
		return "application/pdf"
	default:
		return "application/octet-stream"
	}
}

func cacheHeader(hit bool) string {
	if hit {
		return "hit"
	}
	return "miss"
}
