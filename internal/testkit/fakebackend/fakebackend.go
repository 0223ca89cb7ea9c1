// Package fakebackend is an in-memory stand-in for the facility REST API,
// served over httptest for client and service tests.
package fakebackend

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/sfms-dev/facility_bot/internal/model"
)

const (
	csrfToken = "test-csrf-token"
	sessionID = "test-session"
)

// Failure is a canned response returned instead of the real handler.
type Failure struct {
	Status int
	Body   string
}

// Server holds the fake backend state. All methods are safe for concurrent use.
type Server struct {
	*httptest.Server

	mu        sync.Mutex
	items     map[int64]model.EquipmentItem
	nextID    int64
	pending   map[string]*model.PendingReturn
	checkins  map[string]bool
	feedback  []map[string]string
	faculties map[string]string
	records   []model.LedgerRow
	users     map[string]string
	calls     map[string]int
	failures  map[string][]Failure
	today     model.Day
	login     bool
}

// New starts a fake backend that is closed with the test.
func New(t testing.TB, today model.Day) *Server {
	t.Helper()
	s := &Server{
		items:     map[int64]model.EquipmentItem{},
		nextID:    1,
		pending:   map[string]*model.PendingReturn{},
		checkins:  map[string]bool{},
		faculties: map[string]string{},
		users:     map[string]string{},
		calls:     map[string]int{},
		failures:  map[string][]Failure{},
		today:     today,
	}
	s.Server = httptest.NewServer(s.routes())
	t.Cleanup(s.Close)
	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Use(s.count)
	r.Use(s.inject)

	r.Get("/auth/csrf/", s.handleCSRF)
	r.Get("/auth/me/", s.handleMe)

	r.Group(func(r chi.Router) {
		r.Use(s.csrf)
		r.Post("/auth/login/", s.handleLogin)
		r.Post("/logout/", s.handleLogout)
		r.Post("/api/checkin/event/", s.handleCheckin)
		r.Post("/api/checkin/feedback/", s.handleFeedback)
		r.Post("/api/equipment/borrow/", s.handleBorrow)
		r.Post("/api/equipment/return/", s.handleReturn)
	})

	r.Get("/api/equipment/stock/", s.handleStock)
	r.Get("/api/equipment/pending-returns/", s.handlePending)
	r.Get("/api/equipment/faculty-from-student/", s.handleFaculty)

	r.Route("/api/staff", func(r chi.Router) {
		r.Use(s.staff)
		r.Get("/equipments/", s.handleItems)
		r.Get("/borrow-records/", s.handleRecords)
		r.Group(func(r chi.Router) {
			r.Use(s.csrf)
			r.Post("/equipment/{id}/", s.handleCreateItem)
			r.Patch("/equipment/{id}/", s.handlePatchItem)
			r.Delete("/equipment/{id}/", s.handleDeleteItem)
		})
	})
	return r
}

// Seeding and inspection helpers.

func (s *Server) AddItem(name string, stock, total int) model.EquipmentItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	it := model.EquipmentItem{ID: s.nextID, Name: name, Stock: stock, Total: total}
	s.items[it.ID] = it
	s.nextID++
	return it
}

func (s *Server) Item(name string) (model.EquipmentItem, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	it, ok := s.findItem(name)
	return it, ok
}

// RequireLogin makes staff endpoints answer 401 without a session cookie.
func (s *Server) RequireLogin(on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.login = on
}

func (s *Server) SetFaculty(studentID, faculty string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faculties[studentID] = faculty
}

func (s *Server) AddUser(username, password string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[username] = password
}

func (s *Server) Pending() []model.PendingReturn {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.PendingReturn, 0, len(s.pending))
	for _, p := range s.pending {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool {
		return pendingKey(out[i].StudentID, out[i].EquipmentName, out[i].BorrowDate) < pendingKey(out[j].StudentID, out[j].EquipmentName, out[j].BorrowDate)
	})
	return out
}

func (s *Server) Feedback() []map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]map[string]string(nil), s.feedback...)
}

// Calls reports how many requests hit path, including rejected ones.
func (s *Server) Calls(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[path]
}

// FailNext queues a canned response for the next request to path.
func (s *Server) FailNext(path string, status int, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[path] = append(s.failures[path], Failure{Status: status, Body: body})
}

// Middleware.

func (s *Server) count(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.calls[r.URL.Path]++
		s.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

func (s *Server) inject(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		var f *Failure
		if q := s.failures[r.URL.Path]; len(q) > 0 {
			f = &q[0]
			s.failures[r.URL.Path] = q[1:]
		}
		s.mu.Unlock()
		if f != nil {
			w.WriteHeader(f.Status)
			_, _ = w.Write([]byte(f.Body))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) csrf(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ck, err := r.Cookie("csrftoken")
		if err != nil || ck.Value != csrfToken || r.Header.Get("X-CSRFToken") != csrfToken {
			writeJSON(w, http.StatusForbidden, map[string]any{"ok": false, "error": "CSRF verification failed"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) staff(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		required := s.login
		s.mu.Unlock()
		if required {
			if ck, err := r.Cookie("sessionid"); err != nil || ck.Value != sessionID {
				writeJSON(w, http.StatusUnauthorized, map[string]any{"detail": "Authentication credentials were not provided."})
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

// Handlers.

func (s *Server) handleCSRF(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{Name: "csrftoken", Value: csrfToken, Path: "/"})
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if !decode(w, r, &in) {
		return
	}
	s.mu.Lock()
	pw, ok := s.users[in.Username]
	s.mu.Unlock()
	if !ok || pw != in.Password {
		writeJSON(w, http.StatusOK, map[string]any{"ok": false, "error": "invalid credentials"})
		return
	}
	http.SetCookie(w, &http.Cookie{Name: "sessionid", Value: sessionID, Path: "/"})
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "username": in.Username})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	if ck, err := r.Cookie("sessionid"); err != nil || ck.Value != sessionID {
		writeJSON(w, http.StatusOK, map[string]any{"ok": false})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "username": "desk"})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{Name: "sessionid", Value: "", Path: "/", MaxAge: -1})
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *Server) handleCheckin(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Facility   string `json:"facility"`
		OutdoorSub string `json:"outdoor_sub"`
		Count      *int   `json:"count"`
	}
	if !decode(w, r, &in) {
		return
	}
	if in.Facility == "" || in.Count == nil || *in.Count < 0 {
		writeJSON(w, http.StatusBadRequest, map[string]any{"ok": false, "error": "facility and count are required"})
		return
	}
	key := model.CompoundKey(in.Facility, in.OutdoorSub)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.checkins[key] {
		writeJSON(w, http.StatusOK, map[string]any{"ok": false, "error": "already checked in today"})
		return
	}
	s.checkins[key] = true
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *Server) handleFeedback(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(1 << 20); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"ok": false, "error": "bad form"})
		return
	}
	got := map[string]string{}
	for k, v := range r.MultipartForm.Value {
		got[k] = strings.Join(v, ",")
	}
	if fh := r.MultipartForm.File["register_file"]; len(fh) > 0 {
		got["register_file"] = fh[0].Filename
	}
	s.mu.Lock()
	s.feedback = append(s.feedback, got)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *Server) handleStock(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows := make([]map[string]any, 0, len(s.items))
	for _, it := range s.sortedItems() {
		rows = append(rows, map[string]any{"name": it.Name, "stock": it.Stock})
	}
	writeJSON(w, http.StatusOK, map[string]any{"equipments": rows})
}

type borrowLine struct {
	Equipment string `json:"equipment"`
	Qty       int    `json:"qty"`
}

func (s *Server) handleBorrow(w http.ResponseWriter, r *http.Request) {
	var in struct {
		StudentID string       `json:"student_id"`
		Faculty   string       `json:"faculty"`
		Phone     string       `json:"phone"`
		Items     []borrowLine `json:"items"`
	}
	if !decode(w, r, &in) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(in.Items) == 0 {
		writeJSON(w, http.StatusOK, map[string]any{"ok": false, "error": "no items"})
		return
	}
	for _, l := range in.Items {
		it, ok := s.findItem(l.Equipment)
		if !ok || l.Qty < 1 || l.Qty > it.Stock {
			writeJSON(w, http.StatusOK, map[string]any{"ok": false, "error": "insufficient stock for " + l.Equipment})
			return
		}
	}
	for _, l := range in.Items {
		it, _ := s.findItem(l.Equipment)
		it.Stock -= l.Qty
		s.items[it.ID] = it
		k := pendingKey(in.StudentID, it.Name, s.today)
		p, ok := s.pending[k]
		if !ok {
			p = &model.PendingReturn{StudentID: in.StudentID, EquipmentName: it.Name, Faculty: in.Faculty, Phone: in.Phone, BorrowDate: s.today}
			s.pending[k] = p
		}
		p.BorrowedQty += l.Qty
		p.PendingQty += l.Qty
		s.record(in.StudentID, in.Faculty, it.Name, model.LedgerBorrow, l.Qty)
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *Server) handleReturn(w http.ResponseWriter, r *http.Request) {
	var in struct {
		StudentID  string `json:"student_id"`
		Faculty    string `json:"faculty"`
		Equipment  string `json:"equipment"`
		Qty        int    `json:"qty"`
		BorrowDate string `json:"borrow_date"`
	}
	if !decode(w, r, &in) {
		return
	}
	day := model.Day(in.BorrowDate)
	if day == "" {
		day = s.today
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	it, ok := s.findItem(in.Equipment)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]any{"ok": false, "error": "equipment not found"})
		return
	}
	k := pendingKey(in.StudentID, it.Name, day)
	p, ok := s.pending[k]
	if !ok || in.Qty < 1 || in.Qty > p.PendingQty {
		writeJSON(w, http.StatusOK, map[string]any{"ok": false, "error": "quantity exceeds pending"})
		return
	}
	p.PendingQty -= in.Qty
	if p.PendingQty == 0 {
		delete(s.pending, k)
	}
	it.Stock += in.Qty
	if it.Stock > it.Total {
		it.Stock = it.Total
	}
	s.items[it.ID] = it
	s.record(in.StudentID, in.Faculty, it.Name, model.LedgerReturn, in.Qty)
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *Server) handlePending(w http.ResponseWriter, r *http.Request) {
	sid := r.URL.Query().Get("student_id")
	date := r.URL.Query().Get("date")
	s.mu.Lock()
	defer s.mu.Unlock()
	rows := []map[string]any{}
	for _, p := range s.pending {
		if sid != "" && !strings.Contains(p.StudentID, sid) {
			continue
		}
		if date != "" && p.BorrowDate.String() != date {
			continue
		}
		rows = append(rows, map[string]any{
			"student_id":        p.StudentID,
			"faculty":           p.Faculty,
			"phone":             p.Phone,
			"equipment":         p.EquipmentName,
			"quantity_borrowed": p.BorrowedQty,
			"quantity_pending":  p.PendingQty,
			"borrow_date":       p.BorrowDate.String(),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"rows": rows})
}

func (s *Server) handleFaculty(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	fac := s.faculties[r.URL.Query().Get("student_id")]
	s.mu.Unlock()
	if fac == "" {
		writeJSON(w, http.StatusOK, map[string]any{})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"faculty": fac})
}

func (s *Server) handleItems(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"rows": s.sortedItems()})
}

type itemBody struct {
	Name  *string `json:"name"`
	Stock *int    `json:"stock"`
	Total *int    `json:"total"`
}

func (s *Server) handleCreateItem(w http.ResponseWriter, r *http.Request) {
	var in itemBody
	if !decode(w, r, &in) {
		return
	}
	if in.Name == nil || strings.TrimSpace(*in.Name) == "" || in.Stock == nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"ok": false, "error": "name and stock are required"})
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, dup := s.findItem(*in.Name); dup {
		writeJSON(w, http.StatusConflict, map[string]any{"ok": false, "error": "duplicate equipment name"})
		return
	}
	it := model.EquipmentItem{ID: s.nextID, Name: strings.TrimSpace(*in.Name), Stock: *in.Stock, Total: *in.Stock}
	if in.Total != nil && *in.Total > it.Total {
		it.Total = *in.Total
	}
	s.items[it.ID] = it
	s.nextID++
	writeJSON(w, http.StatusCreated, map[string]any{"ok": true, "row": it})
}

func (s *Server) handlePatchItem(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	var in itemBody
	if !decode(w, r, &in) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	it, ok := s.items[id]
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]any{"ok": false, "error": "equipment not found"})
		return
	}
	if in.Name != nil && strings.TrimSpace(*in.Name) != "" {
		it.Name = strings.TrimSpace(*in.Name)
	}
	if in.Stock != nil {
		it.Stock = *in.Stock
	}
	if in.Total != nil {
		it.Total = *in.Total
	}
	if it.Stock < 0 || it.Stock > it.Total {
		writeJSON(w, http.StatusBadRequest, map[string]any{"ok": false, "error": "stock must be between 0 and total"})
		return
	}
	s.items[id] = it
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "row": it})
}

func (s *Server) handleDeleteItem(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[id]; !ok {
		writeJSON(w, http.StatusNotFound, map[string]any{"ok": false, "error": "equipment not found"})
		return
	}
	delete(s.items, id)
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *Server) handleRecords(w http.ResponseWriter, r *http.Request) {
	sid := r.URL.Query().Get("student_id")
	date := r.URL.Query().Get("date")
	s.mu.Lock()
	defer s.mu.Unlock()
	var rows []model.LedgerRow
	for _, row := range s.records {
		if sid != "" && !strings.Contains(row.StudentID, sid) {
			continue
		}
		if date != "" && date != s.today.String() {
			continue
		}
		rows = append(rows, row)
	}
	days := []map[string]any{}
	if len(rows) > 0 {
		days = append(days, map[string]any{"date": s.today.String(), "total": len(rows), "rows": rows})
	}
	writeJSON(w, http.StatusOK, map[string]any{"days": days})
}

// Internal helpers; callers hold s.mu.

func (s *Server) findItem(name string) (model.EquipmentItem, bool) {
	for _, it := range s.items {
		if strings.EqualFold(strings.TrimSpace(it.Name), strings.TrimSpace(name)) {
			return it, true
		}
	}
	return model.EquipmentItem{}, false
}

func (s *Server) sortedItems() []model.EquipmentItem {
	out := make([]model.EquipmentItem, 0, len(s.items))
	for _, it := range s.items {
		out = append(out, it)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *Server) record(sid, faculty, name string, action model.LedgerAction, qty int) {
	s.records = append(s.records, model.LedgerRow{
		ID:            int64(len(s.records) + 1),
		Time:          "10:00",
		StudentID:     sid,
		Faculty:       faculty,
		EquipmentName: name,
		Action:        action,
		Qty:           qty,
	})
}

func pendingKey(sid, name string, day model.Day) string {
	return fmt.Sprintf("%s|%s|%s", sid, strings.ToLower(name), day)
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"ok": false, "error": "invalid JSON"})
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
