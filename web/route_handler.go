package web

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strconv"
	"time"

	"github.com/RezaEskandarii/gohire/client"
	"github.com/RezaEskandarii/gohire/custom_errors"
	"github.com/RezaEskandarii/gohire/internal/clock"
	"github.com/RezaEskandarii/gohire/internal/logger"
	"github.com/RezaEskandarii/gohire/internal/scheduling"
	"github.com/RezaEskandarii/gohire/internal/state"
	"github.com/RezaEskandarii/gohire/internal/store"
	"github.com/RezaEskandarii/gohire/types"
	"github.com/sirupsen/logrus"
)

const (
	defaultSearchDays  = 30
	defaultStatsDays   = 30
	defaultSuggestions = 3
	shutdownTimeout    = 10 * time.Second
)

// Services are the components exposed over HTTP.
type Services struct {
	Operations   *client.OperationManager
	Runs         *scheduling.RunService
	Slots        *scheduling.SlotGenerator
	Detector     *scheduling.ConflictDetector
	Advisor      *scheduling.ResolutionAdvisor
	Employers    *scheduling.EmployerAccess
	Availability *scheduling.AvailabilityService
	Users        store.UserStore
	Clock        clock.Clock
}

type RouteHandler struct {
	services  Services
	log       logrus.FieldLogger
	SecretKey string
	UseAuth   bool
	Port      uint
}

func NewRouteHandler(services Services, secretKey string, useAuth bool, port uint, log logrus.FieldLogger) *RouteHandler {
	if services.Clock == nil {
		services.Clock = clock.Real()
	}
	return &RouteHandler{
		services:  services,
		log:       logger.OrDiscard(log),
		SecretKey: secretKey,
		UseAuth:   useAuth,
		Port:      port,
	}
}

// Handler returns the API routes.
func (handler *RouteHandler) Handler() http.Handler {
	mux := http.NewServeMux()
	auth := handler.authMiddleware

	mux.HandleFunc("GET /health", handler.handleHealth)
	mux.HandleFunc("POST /login", handler.handleLogin)
	mux.HandleFunc("POST /logout", handler.handleLogout)

	mux.HandleFunc("POST /operations", auth(handler.handleCreateOperation))
	mux.HandleFunc("GET /operations", auth(handler.handleListOperations))
	mux.HandleFunc("GET /operations/stats", auth(handler.handleOperationStats))
	mux.HandleFunc("GET /operations/{id}", auth(handler.handleOperationDetails))
	mux.HandleFunc("POST /operations/{id}/cancel", auth(handler.handleCancelOperation))

	mux.HandleFunc("POST /scheduling-runs", auth(handler.handleCreateSchedulingRun))
	mux.HandleFunc("GET /candidates/{id}/slots", auth(handler.handleAvailableSlots))
	mux.HandleFunc("GET /employers/{id}/conflicts", auth(handler.handleCheckConflicts))

	mux.HandleFunc("PUT /candidates/{id}/availability", auth(handler.handleSetAvailability))
	mux.HandleFunc("GET /candidates/{id}/availability", auth(handler.handleListAvailability))
	mux.HandleFunc("PATCH /availability/{id}", auth(handler.handleUpdateAvailability))
	mux.HandleFunc("DELETE /availability/{id}", auth(handler.handleDeleteAvailability))

	mux.HandleFunc("GET /conflicts", auth(handler.handleListConflicts))
	mux.HandleFunc("POST /conflicts", auth(handler.handleCreateConflict))
	mux.HandleFunc("POST /conflicts/{id}/resolutions", auth(handler.handleCreateResolution))
	mux.HandleFunc("GET /conflicts/{id}/resolutions", auth(handler.handleGetResolutions))
	mux.HandleFunc("POST /conflicts/{id}/suggestions", auth(handler.handleSuggestAlternatives))
	mux.HandleFunc("POST /conflicts/{id}/resolve", auth(handler.handleResolveConflict))
	mux.HandleFunc("POST /resolutions/{id}/apply", auth(handler.handleApplyResolution))

	return mux
}

// Serve listens on the configured port until ctx is done, then shuts down gracefully.
func (handler *RouteHandler) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", handler.Port),
		Handler:           handler.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		handler.log.WithField("addr", srv.Addr).Info("API server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

func (handler *RouteHandler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (handler *RouteHandler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, handler.log, err)
		return
	}

	user, err := handler.services.Users.Find(r.Context(), req.Username, req.Password)
	if err != nil || user == nil {
		if err != nil {
			handler.log.WithError(err).WithField("username", req.Username).Warn("login failed")
		}
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "invalid username or password"})
		return
	}

	token := generateAuthToken(user.Username, handler.SecretKey)
	http.SetCookie(w, &http.Cookie{
		Name:     authCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   3600,
		HttpOnly: true,
	})
	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

func (handler *RouteHandler) handleLogout(w http.ResponseWriter, _ *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:   authCookieName,
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})
	w.WriteHeader(http.StatusNoContent)
}

func (handler *RouteHandler) handleCreateOperation(w http.ResponseWriter, r *http.Request) {
	var req types.CreateOperationRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, handler.log, err)
		return
	}
	if req.OperationType == types.OperationScheduleInterview {
		// malformed params are reported by CreateOperation
		if params, err := types.DecodeOperationParams(req.OperationType, req.OperationParams); err == nil {
			if p, ok := params.(types.ScheduleInterviewParams); ok {
				if err := handler.authorizeEmployer(r, p.EmployerID); err != nil {
					writeError(w, handler.log, err)
					return
				}
			}
		}
	}
	res, err := handler.services.Operations.CreateOperation(r.Context(), ownerFrom(r.Context()), req)
	if err != nil {
		writeError(w, handler.log, err)
		return
	}
	writeJSON(w, http.StatusAccepted, res)
}

func (handler *RouteHandler) handleListOperations(w http.ResponseWriter, r *http.Request) {
	page, err := queryInt(r, "page", 1)
	if err != nil {
		writeError(w, handler.log, err)
		return
	}
	pageSize, err := queryInt(r, "page_size", 20)
	if err != nil {
		writeError(w, handler.log, err)
		return
	}
	status := state.OperationStatus(r.URL.Query().Get("status"))
	if status != "" && !slices.Contains(state.AllOperationStatuses, status) {
		writeError(w, handler.log, custom_errors.NewValidationError("unknown status %q", status))
		return
	}

	result, err := handler.services.Operations.ListOperations(r.Context(), ownerFrom(r.Context()), page, pageSize, status)
	if err != nil {
		writeError(w, handler.log, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (handler *RouteHandler) handleOperationStats(w http.ResponseWriter, r *http.Request) {
	to, err := queryTime(r, "to", handler.services.Clock.Now())
	if err != nil {
		writeError(w, handler.log, err)
		return
	}
	from, err := queryTime(r, "from", to.AddDate(0, 0, -defaultStatsDays))
	if err != nil {
		writeError(w, handler.log, err)
		return
	}

	stats, err := handler.services.Operations.GetOperationStats(r.Context(), ownerFrom(r.Context()), from, to)
	if err != nil {
		writeError(w, handler.log, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (handler *RouteHandler) handleOperationDetails(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, handler.log, err)
		return
	}
	details, err := handler.services.Operations.GetOperationDetails(r.Context(), ownerFrom(r.Context()), id)
	if err != nil {
		writeError(w, handler.log, err)
		return
	}
	writeJSON(w, http.StatusOK, details)
}

func (handler *RouteHandler) handleCancelOperation(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, handler.log, err)
		return
	}
	res, err := handler.services.Operations.CancelOperation(r.Context(), ownerFrom(r.Context()), id)
	if err != nil {
		writeError(w, handler.log, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (handler *RouteHandler) handleCreateSchedulingRun(w http.ResponseWriter, r *http.Request) {
	var req types.CreateSchedulingRunRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, handler.log, err)
		return
	}
	res, err := handler.services.Runs.CreateSchedulingRun(r.Context(), handler.employerScope(r), req)
	if err != nil {
		writeError(w, handler.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (handler *RouteHandler) handleAvailableSlots(w http.ResponseWriter, r *http.Request) {
	candidateID, err := pathID(r, "id")
	if err != nil {
		writeError(w, handler.log, err)
		return
	}
	employerID, err := queryInt64(r, "employer_id")
	if err != nil {
		writeError(w, handler.log, err)
		return
	}
	if err := handler.authorizeEmployer(r, employerID); err != nil {
		writeError(w, handler.log, err)
		return
	}
	duration, err := queryInt(r, "duration", types.DefaultInterviewDuration)
	if err != nil {
		writeError(w, handler.log, err)
		return
	}
	from, err := queryTime(r, "from", handler.services.Clock.Now())
	if err != nil {
		writeError(w, handler.log, err)
		return
	}
	to, err := queryTime(r, "to", from.AddDate(0, 0, defaultSearchDays))
	if err != nil {
		writeError(w, handler.log, err)
		return
	}

	slots, err := handler.services.Slots.FindAvailableTimeSlots(r.Context(), candidateID, employerID, duration, from, to)
	if err != nil {
		writeError(w, handler.log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"slots": slots})
}

func (handler *RouteHandler) handleCheckConflicts(w http.ResponseWriter, r *http.Request) {
	employerID, err := pathID(r, "id")
	if err != nil {
		writeError(w, handler.log, err)
		return
	}
	if err := handler.authorizeEmployer(r, employerID); err != nil {
		writeError(w, handler.log, err)
		return
	}
	if r.URL.Query().Get("scheduled_at") == "" {
		writeError(w, handler.log, custom_errors.NewValidationError("scheduled_at is required"))
		return
	}
	scheduledAt, err := queryTime(r, "scheduled_at", time.Time{})
	if err != nil {
		writeError(w, handler.log, err)
		return
	}
	duration, err := queryInt(r, "duration", types.DefaultInterviewDuration)
	if err != nil {
		writeError(w, handler.log, err)
		return
	}
	buffer, err := queryInt(r, "buffer", 0)
	if err != nil {
		writeError(w, handler.log, err)
		return
	}

	conflicts, err := handler.services.Detector.CheckWithBuffer(r.Context(), employerID, scheduledAt, duration, buffer)
	if err != nil {
		writeError(w, handler.log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"has_conflict": len(conflicts) > 0, "conflicts": conflicts})
}

func (handler *RouteHandler) handleSetAvailability(w http.ResponseWriter, r *http.Request) {
	candidateID, err := pathID(r, "id")
	if err != nil {
		writeError(w, handler.log, err)
		return
	}
	var window types.CandidateAvailability
	if err := decodeJSON(w, r, &window); err != nil {
		writeError(w, handler.log, err)
		return
	}
	window.CandidateID = candidateID

	created, err := handler.services.Availability.SetAvailability(r.Context(), window)
	if err != nil {
		writeError(w, handler.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (handler *RouteHandler) handleListAvailability(w http.ResponseWriter, r *http.Request) {
	candidateID, err := pathID(r, "id")
	if err != nil {
		writeError(w, handler.log, err)
		return
	}
	windows, err := handler.services.Availability.ListAvailability(r.Context(), candidateID)
	if err != nil {
		writeError(w, handler.log, err)
		return
	}
	writeJSON(w, http.StatusOK, windows)
}

func (handler *RouteHandler) handleUpdateAvailability(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, handler.log, err)
		return
	}
	var update types.AvailabilityUpdate
	if err := decodeJSON(w, r, &update); err != nil {
		writeError(w, handler.log, err)
		return
	}
	updated, err := handler.services.Availability.UpdateAvailability(r.Context(), id, update)
	if err != nil {
		writeError(w, handler.log, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (handler *RouteHandler) handleDeleteAvailability(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, handler.log, err)
		return
	}
	if err := handler.services.Availability.DeleteAvailability(r.Context(), id); err != nil {
		writeError(w, handler.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (handler *RouteHandler) handleListConflicts(w http.ResponseWriter, r *http.Request) {
	employerID, err := queryInt64(r, "employer_id")
	if err != nil {
		writeError(w, handler.log, err)
		return
	}
	if err := handler.authorizeEmployer(r, employerID); err != nil {
		writeError(w, handler.log, err)
		return
	}
	includeResolved, _ := strconv.ParseBool(r.URL.Query().Get("include_resolved"))

	conflicts, err := handler.services.Advisor.ListConflicts(r.Context(), employerID, includeResolved)
	if err != nil {
		writeError(w, handler.log, err)
		return
	}
	writeJSON(w, http.StatusOK, conflicts)
}

func (handler *RouteHandler) handleCreateConflict(w http.ResponseWriter, r *http.Request) {
	var c types.InterviewConflict
	if err := decodeJSON(w, r, &c); err != nil {
		writeError(w, handler.log, err)
		return
	}
	if c.EmployerID > 0 {
		if err := handler.authorizeEmployer(r, c.EmployerID); err != nil {
			writeError(w, handler.log, err)
			return
		}
	}
	created, err := handler.services.Advisor.CreateConflict(r.Context(), c)
	if err != nil {
		writeError(w, handler.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (handler *RouteHandler) handleCreateResolution(w http.ResponseWriter, r *http.Request) {
	conflictID, err := pathID(r, "id")
	if err != nil {
		writeError(w, handler.log, err)
		return
	}
	if _, err := handler.authorizeConflict(r, conflictID); err != nil {
		writeError(w, handler.log, err)
		return
	}
	var res types.ConflictResolution
	if err := decodeJSON(w, r, &res); err != nil {
		writeError(w, handler.log, err)
		return
	}
	res.ConflictID = conflictID

	created, err := handler.services.Advisor.CreateResolution(r.Context(), res)
	if err != nil {
		writeError(w, handler.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (handler *RouteHandler) handleGetResolutions(w http.ResponseWriter, r *http.Request) {
	conflictID, err := pathID(r, "id")
	if err != nil {
		writeError(w, handler.log, err)
		return
	}
	if _, err := handler.authorizeConflict(r, conflictID); err != nil {
		writeError(w, handler.log, err)
		return
	}
	resolutions, err := handler.services.Advisor.GetResolutions(r.Context(), conflictID)
	if err != nil {
		writeError(w, handler.log, err)
		return
	}
	writeJSON(w, http.StatusOK, resolutions)
}

type suggestRequest struct {
	CandidateID   int64     `json:"candidate_id"`
	EmployerID    int64     `json:"employer_id"`
	Duration      int       `json:"duration"`
	BufferMinutes int       `json:"buffer_minutes"`
	From          time.Time `json:"from"`
	To            time.Time `json:"to"`
	Limit         int       `json:"limit"`
}

func (handler *RouteHandler) handleSuggestAlternatives(w http.ResponseWriter, r *http.Request) {
	conflictID, err := pathID(r, "id")
	if err != nil {
		writeError(w, handler.log, err)
		return
	}
	conflict, err := handler.authorizeConflict(r, conflictID)
	if err != nil {
		writeError(w, handler.log, err)
		return
	}
	var req suggestRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, handler.log, err)
		return
	}
	if req.EmployerID == 0 {
		req.EmployerID = conflict.EmployerID
	} else if req.EmployerID != conflict.EmployerID {
		if err := handler.authorizeEmployer(r, req.EmployerID); err != nil {
			writeError(w, handler.log, err)
			return
		}
	}
	if req.Duration <= 0 {
		req.Duration = types.DefaultInterviewDuration
	}
	if req.Limit <= 0 {
		req.Limit = defaultSuggestions
	}
	if req.From.IsZero() {
		req.From = handler.services.Clock.Now()
	}
	if req.To.IsZero() {
		req.To = req.From.AddDate(0, 0, defaultSearchDays)
	}

	suggestions, err := handler.services.Advisor.SuggestAlternatives(r.Context(), conflictID, req.CandidateID, req.EmployerID,
		req.Duration, req.BufferMinutes, req.From, req.To, req.Limit)
	if err != nil {
		writeError(w, handler.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, suggestions)
}

func (handler *RouteHandler) handleResolveConflict(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, handler.log, err)
		return
	}
	if _, err := handler.authorizeConflict(r, id); err != nil {
		writeError(w, handler.log, err)
		return
	}
	resolved, err := handler.services.Advisor.ResolveConflict(r.Context(), id)
	if err != nil {
		writeError(w, handler.log, err)
		return
	}
	writeJSON(w, http.StatusOK, resolved)
}

func (handler *RouteHandler) handleApplyResolution(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, handler.log, err)
		return
	}
	resolution, err := handler.services.Advisor.FindResolution(r.Context(), id)
	if err != nil {
		writeError(w, handler.log, err)
		return
	}
	if _, err := handler.authorizeConflict(r, resolution.ConflictID); err != nil {
		writeError(w, handler.log, err)
		return
	}
	applied, err := handler.services.Advisor.ApplyResolution(r.Context(), id)
	if err != nil {
		writeError(w, handler.log, err)
		return
	}
	writeJSON(w, http.StatusOK, applied)
}

// employerScope is the owner employer lookups are checked against.
// Without authentication every existing employer is visible.
func (handler *RouteHandler) employerScope(r *http.Request) string {
	if !handler.UseAuth {
		return ""
	}
	return ownerFrom(r.Context())
}

func (handler *RouteHandler) authorizeEmployer(r *http.Request, employerID int64) error {
	_, err := handler.services.Employers.Authorize(r.Context(), handler.employerScope(r), employerID)
	return err
}

// authorizeConflict loads the conflict and checks the caller may act on its employer.
// Conflicts of other owners are reported as missing.
func (handler *RouteHandler) authorizeConflict(r *http.Request, conflictID int64) (*types.InterviewConflict, error) {
	c, err := handler.services.Advisor.FindConflict(r.Context(), conflictID)
	if err != nil {
		return nil, err
	}
	if err := handler.authorizeEmployer(r, c.EmployerID); err != nil {
		var nf *custom_errors.NotFoundError
		if errors.As(err, &nf) {
			return nil, custom_errors.NewNotFoundError("conflict", conflictID)
		}
		return nil, err
	}
	return c, nil
}
