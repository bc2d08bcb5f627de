package web

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"vitalis/internal/catalog"
	"vitalis/internal/config"
	"vitalis/internal/model"
	"vitalis/internal/state"
	"vitalis/internal/store"
)

const slot1030 = "maj 2025 10:30 - 11:00"

func testServer(t *testing.T, cfg *config.Config) http.Handler {
	t.Helper()
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	cat := model.NewCatalog([]model.Seminar{
		{ID: "1", Title: "AI i vården", Location: "Sal A", DateTime: "Måndag 12 maj 2025 10:30 - 11:00",
			Metadata: model.Metadata{"Språk": {"Svenska"}, "Målgrupp": {"IT-chefer", "Vårdpersonal"}}},
		{ID: "2", Title: "Datadelning", Location: "Sal B", DateTime: "Måndag 12 maj 2025 10:30 - 11:00",
			Metadata: model.Metadata{"Språk": {"Engelska"}}},
		{ID: "3", Title: "Journalsystem", Location: "Sal C", DateTime: "Måndag 12 maj 2025 10:45 - 11:15"},
		{ID: "4", Title: "Tisdagsseminarium", Location: "Sal A", DateTime: "Tisdag 13 maj 2025 10:00 - 11:00"},
	})
	return NewServer(cfg, catalog.NewHolder(cat), store.NewMemory()).Handler()
}

// client replays the client id cookie across requests, as a browser does.
type client struct {
	t       *testing.T
	h       http.Handler
	cookies []*http.Cookie
}

func (c *client) do(method, target, body string) *httptest.ResponseRecorder {
	c.t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	for _, ck := range c.cookies {
		req.AddCookie(ck)
	}
	rec := httptest.NewRecorder()
	c.h.ServeHTTP(rec, req)
	if set := rec.Result().Cookies(); len(set) > 0 {
		c.cookies = set
	}
	return rec
}

func decodeJSON[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return v
}

type verdictBody struct {
	Status string   `json:"status"`
	With   model.ID `json:"with"`
	Slot   string   `json:"time_slot"`
}

type stateBody struct {
	Token         string           `json:"token"`
	Selections    model.Selections `json:"selections"`
	Filters       model.Filters    `json:"filters"`
	Day           *string          `json:"day"`
	View          string           `json:"view"`
	Query         string           `json:"query"`
	ActiveFilters int              `json:"active_filters"`
}

func TestHealth(t *testing.T) {
	c := &client{t: t, h: testServer(t, nil)}
	rec := c.do(http.MethodGet, "/health", "")
	if rec.Code != http.StatusOK || rec.Body.String() != "OK" {
		t.Errorf("health = %d %q", rec.Code, rec.Body.String())
	}
}

func TestBasicAuth(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.BasicAuth = &config.BasicAuthConfig{Username: "admin", Password: "secret"}
	h := testServer(t, cfg)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("/health should stay open, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/days", nil))
	if rec.Code != http.StatusUnauthorized || rec.Header().Get("WWW-Authenticate") == "" {
		t.Errorf("unauthenticated = %d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/days", nil)
	req.SetBasicAuth("admin", "wrong")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("wrong password = %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/days", nil)
	req.SetBasicAuth("admin", "secret")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("authenticated = %d", rec.Code)
	}
}

func TestDaysAndFacets(t *testing.T) {
	c := &client{t: t, h: testServer(t, nil)}

	days := decodeJSON[[]map[string]string](t, c.do(http.MethodGet, "/api/days", ""))
	if len(days) != 2 || days[0]["date"] != "Måndag 12" || days[1]["day_name"] != "Tisdag" {
		t.Errorf("days = %v", days)
	}

	facets := decodeJSON[map[string][]string](t, c.do(http.MethodGet, "/api/facets", ""))
	if got := facets["språk"]; len(got) != 2 || got[0] != "Svenska" || got[1] != "Engelska" {
		t.Errorf("språk = %v", got)
	}
	if got := facets["målgrupp"]; len(got) != 2 {
		t.Errorf("målgrupp = %v", got)
	}
	if got, ok := facets["ämne"]; !ok || len(got) != 0 {
		t.Errorf("ämne = %v, %v; want present and empty", got, ok)
	}

	seminars := decodeJSON[[]model.Seminar](t, c.do(http.MethodGet, "/api/seminars", ""))
	if len(seminars) != 4 {
		t.Errorf("seminars = %d", len(seminars))
	}
}

func TestStateDefaultsAndCookie(t *testing.T) {
	c := &client{t: t, h: testServer(t, nil)}
	rec := c.do(http.MethodGet, "/api/state", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("state = %d", rec.Code)
	}
	if len(c.cookies) != 1 || c.cookies[0].Name != clientCookie {
		t.Fatalf("client cookie not issued: %v", c.cookies)
	}
	st := decodeJSON[stateBody](t, rec)
	if st.Day == nil || *st.Day != "Måndag 12" || st.View != "list" {
		t.Errorf("default state = %+v", st)
	}
	decoded, ok := state.Decode(st.Token)
	if !ok || decoded.ActiveDay() != "Måndag 12" {
		t.Errorf("token %q does not decode to the state", st.Token)
	}
}

func TestStateUpdate(t *testing.T) {
	c := &client{t: t, h: testServer(t, nil)}
	st := decodeJSON[stateBody](t, c.do(http.MethodGet, "/api/state", ""))

	rec := c.do(http.MethodPost, "/api/state", `{"token":"`+st.Token+`","day":"Tisdag 13","view":"calendar","query":"ai"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("update = %d %s", rec.Code, rec.Body.String())
	}
	st = decodeJSON[stateBody](t, rec)
	if *st.Day != "Tisdag 13" || st.View != "calendar" || st.Query != "ai" {
		t.Errorf("updated state = %+v", st)
	}

	rec = c.do(http.MethodPost, "/api/state", `{"token":"`+st.Token+`","view":"grid"}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("unknown view = %d", rec.Code)
	}
}

func TestToggleFlowPersistsPerClient(t *testing.T) {
	h := testServer(t, nil)
	alice := &client{t: t, h: h}
	bob := &client{t: t, h: h}

	st := decodeJSON[stateBody](t, alice.do(http.MethodGet, "/api/state", ""))
	bob.do(http.MethodGet, "/api/state", "")

	rec := alice.do(http.MethodPost, "/api/toggle", `{"token":"`+st.Token+`","slot":"`+slot1030+`","id":1}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("toggle = %d %s", rec.Code, rec.Body.String())
	}
	resp := decodeJSON[struct {
		State   stateBody   `json:"state"`
		Verdict verdictBody `json:"verdict"`
	}](t, rec)
	if resp.State.Selections[slot1030] != "1" || resp.Verdict.Status != "none" {
		t.Errorf("toggle response = %+v", resp)
	}

	// Without a token the stored selections come back.
	st = decodeJSON[stateBody](t, alice.do(http.MethodGet, "/api/state", ""))
	if st.Selections[slot1030] != "1" {
		t.Errorf("alice restored = %v", st.Selections)
	}
	sel := decodeJSON[model.Selections](t, bob.do(http.MethodGet, "/api/selections", ""))
	if len(sel) != 0 {
		t.Errorf("bob sees alice's selections: %v", sel)
	}

	// Overlap with another slot is refused.
	rec = alice.do(http.MethodPost, "/api/toggle", `{"token":"`+st.Token+`","slot":"maj 2025 10:45 - 11:15","id":"3"}`)
	if rec.Code != http.StatusConflict {
		t.Fatalf("conflicting toggle = %d", rec.Code)
	}
	conflict := decodeJSON[struct {
		Verdict verdictBody `json:"verdict"`
	}](t, rec)
	if conflict.Verdict.Status != "conflict" || conflict.Verdict.Slot != slot1030 {
		t.Errorf("verdict = %v", conflict.Verdict)
	}

	rec = alice.do(http.MethodPost, "/api/toggle", `{"token":"`+st.Token+`","slot":"maj 2025 10:45 - 11:15","id":"3","force":true}`)
	if rec.Code != http.StatusOK {
		t.Errorf("forced toggle = %d", rec.Code)
	}
}

func TestToggleRefusesReplacingAnotherDay(t *testing.T) {
	cat := model.NewCatalog([]model.Seminar{
		{ID: "1", Title: "AI i vården", Location: "Sal A", DateTime: "Måndag 12 maj 2025 10:30 - 11:00"},
		{ID: "5", Title: "Tisdagsdata", Location: "Sal B", DateTime: "Tisdag 13 maj 2025 10:30 - 11:00"},
	})
	c := &client{t: t, h: NewServer(config.DefaultConfig(), catalog.NewHolder(cat), store.NewMemory()).Handler()}
	st := decodeJSON[stateBody](t, c.do(http.MethodGet, "/api/state", ""))

	rec := c.do(http.MethodPost, "/api/toggle", `{"token":"`+st.Token+`","slot":"`+slot1030+`","id":"1"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("first toggle = %d %s", rec.Code, rec.Body.String())
	}
	st = decodeJSON[struct {
		State stateBody `json:"state"`
	}](t, rec).State

	rec = c.do(http.MethodPost, "/api/toggle", `{"token":"`+st.Token+`","slot":"`+slot1030+`","id":"5"}`)
	if rec.Code != http.StatusConflict {
		t.Fatalf("cross-day toggle = %d, want 409", rec.Code)
	}
	resp := decodeJSON[struct {
		State   stateBody   `json:"state"`
		Verdict verdictBody `json:"verdict"`
	}](t, rec)
	if resp.Verdict.Status != "displaces" || resp.Verdict.With != "1" || resp.Verdict.Slot != slot1030 {
		t.Errorf("verdict = %+v", resp.Verdict)
	}
	if resp.State.Selections[slot1030] != "1" {
		t.Errorf("refused toggle changed selections: %v", resp.State.Selections)
	}

	rec = c.do(http.MethodPost, "/api/toggle", `{"token":"`+st.Token+`","slot":"`+slot1030+`","id":"5","force":true}`)
	forced := decodeJSON[struct {
		State stateBody `json:"state"`
	}](t, rec)
	if rec.Code != http.StatusOK || forced.State.Selections[slot1030] != "5" {
		t.Errorf("forced toggle = %d, selections %v", rec.Code, forced.State.Selections)
	}
}

func TestToggleValidation(t *testing.T) {
	c := &client{t: t, h: testServer(t, nil)}
	cases := map[string]struct {
		body string
		want int
	}{
		"bad json":     {`{`, http.StatusBadRequest},
		"missing slot": {`{"id":1}`, http.StatusBadRequest},
		"unknown id":   {`{"slot":"x","id":99}`, http.StatusNotFound},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			if rec := c.do(http.MethodPost, "/api/toggle", tc.body); rec.Code != tc.want {
				t.Errorf("code = %d, want %d", rec.Code, tc.want)
			}
		})
	}
	if rec := c.do(http.MethodGet, "/api/toggle", ""); rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET /api/toggle = %d", rec.Code)
	}
}

func TestSlotsAnnotated(t *testing.T) {
	c := &client{t: t, h: testServer(t, nil)}
	st := state.Default().WithDay("Måndag 12")
	st.Selections[slot1030] = "1"
	token, err := state.Encode(st)
	if err != nil {
		t.Fatal(err)
	}

	rec := c.do(http.MethodGet, "/api/slots?s="+token, "")
	resp := decodeJSON[struct {
		Day   string `json:"day"`
		Count int    `json:"count"`
		Slots []struct {
			Label    string `json:"time_slot"`
			Seminars []struct {
				ID       model.ID `json:"id"`
				Selected bool     `json:"selected"`
				Conflict string   `json:"conflict"`
			} `json:"seminars"`
		} `json:"slots"`
	}](t, rec)
	if resp.Day != "Måndag 12" || resp.Count != 3 || len(resp.Slots) != 2 {
		t.Fatalf("slots = %+v", resp)
	}
	first := resp.Slots[0]
	if first.Label != slot1030 || !first.Seminars[0].Selected || first.Seminars[1].Selected {
		t.Errorf("first slot = %+v", first)
	}
	// Seminar 2 shares the slot with the selection and overlaps it.
	if first.Seminars[1].Conflict != "conflict" || resp.Slots[1].Seminars[0].Conflict != "conflict" {
		t.Errorf("conflict annotations = %+v / %+v", first.Seminars, resp.Slots[1].Seminars)
	}

	rec = c.do(http.MethodGet, "/api/slots?s="+token+"&day="+"Tisdag%2013", "")
	tue := decodeJSON[struct {
		Count int `json:"count"`
	}](t, rec)
	if tue.Count != 1 {
		t.Errorf("tuesday count = %d", tue.Count)
	}
}

func TestFilterToggle(t *testing.T) {
	c := &client{t: t, h: testServer(t, nil)}
	st := decodeJSON[stateBody](t, c.do(http.MethodGet, "/api/state", ""))

	rec := c.do(http.MethodPost, "/api/filters/toggle", `{"token":"`+st.Token+`","facet":"språk","value":"Svenska"}`)
	st = decodeJSON[stateBody](t, rec)
	if st.ActiveFilters != 1 || st.Filters[model.FacetLanguage][0] != "Svenska" {
		t.Fatalf("filters = %+v", st.Filters)
	}

	slots := decodeJSON[struct {
		Count int `json:"count"`
	}](t, c.do(http.MethodGet, "/api/slots?s="+st.Token, ""))
	if slots.Count != 1 {
		t.Errorf("filtered count = %d, want 1", slots.Count)
	}

	st = decodeJSON[stateBody](t, c.do(http.MethodPost, "/api/filters/toggle", `{"token":"`+st.Token+`"}`))
	if st.ActiveFilters != 0 {
		t.Errorf("clear left %d filters", st.ActiveFilters)
	}

	if rec := c.do(http.MethodPost, "/api/filters/toggle", `{"facet":"färg","value":"blå"}`); rec.Code != http.StatusBadRequest {
		t.Errorf("unknown facet = %d", rec.Code)
	}
}

func TestConflictEndpoint(t *testing.T) {
	c := &client{t: t, h: testServer(t, nil)}
	st := state.Default()
	st.Selections[slot1030] = "1"
	token, _ := state.Encode(st)

	v := decodeJSON[verdictBody](t, c.do(http.MethodGet, "/api/conflict?id=3&s="+token, ""))
	if v.Status != "conflict" || v.With != "1" {
		t.Errorf("verdict = %+v", v)
	}
	v = decodeJSON[verdictBody](t, c.do(http.MethodGet, "/api/conflict?id=4&s="+token, ""))
	if v.Status != "none" {
		t.Errorf("other day verdict = %v", v)
	}
	if rec := c.do(http.MethodGet, "/api/conflict", ""); rec.Code != http.StatusBadRequest {
		t.Errorf("missing id = %d", rec.Code)
	}
	if rec := c.do(http.MethodGet, "/api/conflict?id=99", ""); rec.Code != http.StatusNotFound {
		t.Errorf("unknown id = %d", rec.Code)
	}
}

func TestAgendaAndICS(t *testing.T) {
	c := &client{t: t, h: testServer(t, nil)}
	st := state.Default()
	st.Selections[slot1030] = "1"
	st.Selections["maj 2025 10:45 - 11:15"] = "3"
	st.Selections["maj 2025 10:00 - 11:00"] = "4"
	token, _ := state.Encode(st)

	agenda := decodeJSON[struct {
		Days []struct {
			Date    string `json:"date"`
			Entries []struct {
				Conflict bool `json:"conflict"`
			} `json:"entries"`
		} `json:"days"`
		Conflicts []map[string]any `json:"conflicts"`
	}](t, c.do(http.MethodGet, "/api/agenda?s="+token, ""))
	if len(agenda.Days) != 2 || agenda.Days[0].Date != "Måndag 12 maj 2025" {
		t.Fatalf("agenda = %+v", agenda)
	}
	if len(agenda.Conflicts) != 1 || !agenda.Days[0].Entries[0].Conflict {
		t.Errorf("conflicts = %+v", agenda.Conflicts)
	}

	rec := c.do(http.MethodGet, "/api/schedule.ics?s="+token, "")
	if rec.Code != http.StatusOK || !strings.HasPrefix(rec.Header().Get("Content-Type"), "text/calendar") {
		t.Fatalf("ics = %d %s", rec.Code, rec.Header().Get("Content-Type"))
	}
	if n := strings.Count(rec.Body.String(), "BEGIN:VEVENT"); n != 3 {
		t.Errorf("events = %d, want 3", n)
	}
}

func TestCalendarEndpoint(t *testing.T) {
	c := &client{t: t, h: testServer(t, nil)}
	layout := decodeJSON[struct {
		DayStart int `json:"day_start"`
		Columns  []struct {
			Location string `json:"location"`
		} `json:"columns"`
	}](t, c.do(http.MethodGet, "/api/calendar?day=M%C3%A5ndag%2012", ""))
	if layout.DayStart != 480 || len(layout.Columns) != 3 || layout.Columns[0].Location != "Sal A" {
		t.Errorf("layout = %+v", layout)
	}
}

func TestSelectionsPut(t *testing.T) {
	c := &client{t: t, h: testServer(t, nil)}
	rec := c.do(http.MethodPut, "/api/selections", `{"`+slot1030+`":2}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("put = %d %s", rec.Code, rec.Body.String())
	}
	sel := decodeJSON[model.Selections](t, c.do(http.MethodGet, "/api/selections", ""))
	if sel[slot1030] != "2" {
		t.Errorf("selections = %v", sel)
	}
	if rec := c.do(http.MethodPut, "/api/selections", `[1,2]`); rec.Code != http.StatusBadRequest {
		t.Errorf("bad body = %d", rec.Code)
	}
}

func TestStaticAndUnknownAPI(t *testing.T) {
	c := &client{t: t, h: testServer(t, nil)}
	rec := c.do(http.MethodGet, "/", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `data-ready`) {
		t.Errorf("index = %d", rec.Code)
	}
	if rec := c.do(http.MethodGet, "/api/nope", ""); rec.Code != http.StatusNotFound {
		t.Errorf("/api/nope = %d", rec.Code)
	}
}
