package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"vitalis/internal/ics"
	appLog "vitalis/internal/log"
	"vitalis/internal/model"
	"vitalis/internal/schedule"
	"vitalis/internal/session"
	"vitalis/internal/state"
	"vitalis/internal/store"
)

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 1 << 20

// stateDTO is the JSON view of a session's state.
type stateDTO struct {
	Token         string           `json:"token"`
	Selections    model.Selections `json:"selections"`
	Filters       model.Filters    `json:"filters"`
	Day           *string          `json:"day"`
	View          state.View       `json:"view"`
	Query         string           `json:"query"`
	ActiveFilters int              `json:"active_filters"`
}

// slotSeminarDTO is a seminar annotated for one list row.
type slotSeminarDTO struct {
	model.Seminar
	Selected bool   `json:"selected"`
	Conflict string `json:"conflict"`
}

type slotDTO struct {
	Label        string           `json:"time_slot"`
	StartMinutes int              `json:"start_minutes"`
	Seminars     []slotSeminarDTO `json:"seminars"`
}

type slotsResponse struct {
	Day   string    `json:"day"`
	Count int       `json:"count"`
	Slots []slotDTO `json:"slots"`
}

type verdictDTO struct {
	Status string   `json:"status"`
	With   model.ID `json:"with,omitempty"`
	Slot   string   `json:"time_slot,omitempty"`
}

type conflictPairDTO struct {
	A     model.ID `json:"a"`
	B     model.ID `json:"b"`
	SlotA string   `json:"time_slot_a"`
	SlotB string   `json:"time_slot_b"`
}

type agendaResponse struct {
	Days      []schedule.AgendaDay `json:"days"`
	Conflicts []conflictPairDTO    `json:"conflicts"`
}

type toggleRequest struct {
	Token string   `json:"token"`
	Slot  string   `json:"slot"`
	ID    model.ID `json:"id"`
	Force bool     `json:"force"`
}

type toggleResponse struct {
	State   stateDTO   `json:"state"`
	Verdict verdictDTO `json:"verdict"`
}

type stateUpdateRequest struct {
	Token string  `json:"token"`
	Day   *string `json:"day"`
	View  *string `json:"view"`
	Query *string `json:"query"`
}

type filterToggleRequest struct {
	Token string `json:"token"`
	Facet string `json:"facet"`
	Value string `json:"value"`
}

func toVerdictDTO(v schedule.Verdict) verdictDTO {
	return verdictDTO{Status: v.Status.String(), With: v.With, Slot: v.Slot}
}

// restore builds the request's session: the token from the query (or the
// given override) wins, else the client's stored selections are used.
func (s *Server) restore(w http.ResponseWriter, r *http.Request, token string) *session.Session {
	return session.Restore(r.Context(), token, s.clientStore(w, r), s.catalogs.Get())
}

func (s *Server) stateOf(sess *session.Session) (stateDTO, error) {
	token, err := sess.Token()
	if err != nil {
		return stateDTO{}, err
	}
	st := sess.State()
	return stateDTO{
		Token:         token,
		Selections:    st.Selections,
		Filters:       st.Filters,
		Day:           st.Day,
		View:          st.View,
		Query:         st.Query,
		ActiveFilters: schedule.CountActiveFilters(st.Filters),
	}, nil
}

func (s *Server) handleSeminars(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}
	seminars := s.catalogs.Get().Seminars()
	if seminars == nil {
		seminars = []model.Seminar{}
	}
	writeJSON(w, http.StatusOK, seminars)
}

func (s *Server) handleDays(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}
	writeJSON(w, http.StatusOK, schedule.Days(s.catalogs.Get().Seminars()))
}

func (s *Server) handleFacets(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}
	writeJSON(w, http.StatusOK, s.facetOptions(s.catalogs.Get()))
}

// handleState resolves the startup state for the page (GET) or applies
// a day, view or query change to a token (POST).
//
// GET  /api/state?s=<token>
// POST /api/state {"token": "...", "day": "Tisdag 13", "view": "calendar", "query": "ai"}
func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet, http.MethodPost) {
		return
	}

	var sess *session.Session
	if r.Method == http.MethodPost {
		var req stateUpdateRequest
		if err := decodeBody(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		sess = s.restore(w, r, req.Token)
		if req.Day != nil {
			sess.SetDay(r.Context(), *req.Day)
		}
		if req.View != nil {
			if err := sess.SetView(r.Context(), state.View(*req.View)); err != nil {
				writeError(w, http.StatusBadRequest, "unknown view")
				return
			}
		}
		if req.Query != nil {
			sess.SetQuery(r.Context(), *req.Query)
		}
	} else {
		sess = s.restore(w, r, r.URL.Query().Get(state.QueryKey))
	}

	dto, err := s.stateOf(sess)
	if err != nil {
		appLog.Error("api state: encode failed", err)
		writeError(w, http.StatusInternalServerError, "failed to encode state")
		return
	}
	writeJSON(w, http.StatusOK, dto)
}

// handleSlots lists the active day's slots, each seminar annotated with
// its selection and conflict status.
//
// GET /api/slots?s=<token>&day=<prefix>
//   - day: overrides the token's active day
func (s *Server) handleSlots(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}
	q := r.URL.Query()
	sess := s.restore(w, r, q.Get(state.QueryKey))
	if day := q.Get("day"); day != "" {
		sess.SetDay(r.Context(), day)
	}
	st := sess.State()
	cat := sess.Catalog()

	slots := sess.Slots()
	resp := slotsResponse{
		Day:   st.ActiveDay(),
		Count: schedule.CountSeminars(slots),
		Slots: make([]slotDTO, 0, len(slots)),
	}
	for _, slot := range slots {
		row := slotDTO{Label: slot.Label, StartMinutes: slot.StartMinutes}
		for _, sem := range slot.Seminars {
			row.Seminars = append(row.Seminars, slotSeminarDTO{
				Seminar:  sem,
				Selected: st.Selections[slot.Label] == sem.ID,
				Conflict: schedule.Check(sem, st.Selections, cat).Status.String(),
			})
		}
		resp.Slots = append(resp.Slots, row)
	}
	writeJSON(w, http.StatusOK, resp)
}

// GET /api/calendar?s=<token>&day=<prefix>
func (s *Server) handleCalendar(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}
	q := r.URL.Query()
	sess := s.restore(w, r, q.Get(state.QueryKey))
	if day := q.Get("day"); day != "" {
		sess.SetDay(r.Context(), day)
	}
	st := sess.State()
	writeJSON(w, http.StatusOK, schedule.LayoutCalendar(sess.Catalog().Seminars(), st.ActiveDay(), st.Filters, st.Query))
}

// GET /api/agenda?s=<token>
func (s *Server) handleAgenda(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}
	sess := s.restore(w, r, r.URL.Query().Get(state.QueryKey))
	sel := sess.State().Selections
	cat := sess.Catalog()

	resp := agendaResponse{
		Days:      schedule.BuildAgenda(sel, cat),
		Conflicts: []conflictPairDTO{},
	}
	for _, p := range schedule.Conflicts(sel, cat) {
		resp.Conflicts = append(resp.Conflicts, conflictPairDTO{A: p.A, B: p.B, SlotA: p.SlotA, SlotB: p.SlotB})
	}
	writeJSON(w, http.StatusOK, resp)
}

// GET /api/conflict?s=<token>&id=<seminar id>
func (s *Server) handleConflict(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}
	q := r.URL.Query()
	id := model.ID(q.Get("id"))
	if id == "" {
		writeError(w, http.StatusBadRequest, "id is required")
		return
	}
	sess := s.restore(w, r, q.Get(state.QueryKey))
	v, ok := sess.Check(id)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown seminar")
		return
	}
	writeJSON(w, http.StatusOK, toVerdictDTO(v))
}

// handleToggle selects or deselects a seminar and returns the new state.
// Selecting a seminar that overlaps a choice in another slot, or that would
// replace a choice made on another day under the same label, answers 409
// with the verdict unless force is set.
//
// POST /api/toggle {"token": "...", "slot": "...", "id": 12, "force": false}
func (s *Server) handleToggle(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}
	var req toggleRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Slot == "" || req.ID == "" {
		writeError(w, http.StatusBadRequest, "slot and id are required")
		return
	}
	sess := s.restore(w, r, req.Token)
	if _, ok := sess.Catalog().Lookup(req.ID); !ok {
		writeError(w, http.StatusNotFound, "unknown seminar")
		return
	}

	verdict, toggleErr := sess.TryToggle(r.Context(), req.Slot, req.ID, req.Force)
	dto, err := s.stateOf(sess)
	if err != nil {
		appLog.Error("api toggle: encode failed", err)
		writeError(w, http.StatusInternalServerError, "failed to encode state")
		return
	}
	status := http.StatusOK
	if errors.Is(toggleErr, session.ErrConflict) || errors.Is(toggleErr, session.ErrDisplaced) {
		status = http.StatusConflict
	}
	writeJSON(w, status, toggleResponse{State: dto, Verdict: toVerdictDTO(verdict)})
}

// POST /api/filters/toggle {"token": "...", "facet": "språk", "value": "Svenska"}
//   - facet "" with value "" clears every filter
func (s *Server) handleFilterToggle(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}
	var req filterToggleRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	sess := s.restore(w, r, req.Token)
	switch {
	case req.Facet == "" && req.Value == "":
		sess.ClearFilters(r.Context())
	case !model.Facet(req.Facet).Valid():
		writeError(w, http.StatusBadRequest, "unknown facet")
		return
	default:
		sess.ToggleFilter(r.Context(), model.Facet(req.Facet), req.Value)
	}

	dto, err := s.stateOf(sess)
	if err != nil {
		appLog.Error("api filter toggle: encode failed", err)
		writeError(w, http.StatusInternalServerError, "failed to encode state")
		return
	}
	writeJSON(w, http.StatusOK, dto)
}

// handleSelections reads or replaces the client's stored selections, the
// fallback used when a page is opened without a token.
func (s *Server) handleSelections(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet, http.MethodPut) {
		return
	}
	kv := s.clientStore(w, r)
	if kv == nil {
		writeError(w, http.StatusServiceUnavailable, "no store configured")
		return
	}

	if r.Method == http.MethodPut {
		var sel model.Selections
		if err := decodeBody(w, r, &sel); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if err := store.SaveSelections(r.Context(), kv, sel); err != nil {
			appLog.Error("api selections: save failed", err)
			writeError(w, http.StatusInternalServerError, "failed to save selections")
			return
		}
	}

	sel, err := store.LoadSelections(r.Context(), kv)
	if err != nil {
		appLog.Error("api selections: load failed", err)
		writeError(w, http.StatusInternalServerError, "failed to load selections")
		return
	}
	writeJSON(w, http.StatusOK, sel)
}

// GET /api/schedule.ics?s=<token>
func (s *Server) handleScheduleICS(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}
	sess := s.restore(w, r, r.URL.Query().Get(state.QueryKey))
	token, err := sess.Token()
	if err != nil {
		appLog.Error("api ics: encode failed", err)
		writeError(w, http.StatusInternalServerError, "failed to encode state")
		return
	}

	body, err := ics.ExportSchedule(sess.State().Selections, sess.Catalog(), ics.ExportOptions{
		Name:     "Mitt schema",
		ShareURL: state.ShareURL(s.cfg.BaseURL, token),
	})
	if err != nil {
		appLog.Error("api ics: export failed", err)
		writeError(w, http.StatusInternalServerError, "failed to export schedule")
		return
	}
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="vitalis-schema.ics"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	if r.Body == nil {
		return errors.New("request body is empty")
	}
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		return errors.New("invalid JSON body: " + strings.TrimPrefix(err.Error(), "json: "))
	}
	return nil
}
