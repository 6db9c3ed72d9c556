// Package testserver provides a fake groupride signup service.
package testserver

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

// SignupPath is where the fake service accepts signup forms.
const SignupPath = "/api/groupride/signup"

// Messages sent by the real service.
const (
	msgAlreadySignedUp = "It looks like you are already signed up with your email address"
	msgRideNotFound    = "Groupride doesn't exist!"
	msgRideFull        = "Groupride is full!"
	msgMissingFields   = "Please fill out all required fields"
)

type ride struct {
	capacity  int
	waitlist  bool
	openAfter int // signup requests answered with "doesn't exist" first
	requests  int
	signups   []string
	waiting   []string
}

// Server is a fake signup service. Rides are keyed by slug.
type Server struct {
	mux   *http.ServeMux
	mu    sync.Mutex
	rides map[string]*ride
}

// NewServer creates a new fake service with no rides.
func NewServer() *Server {
	s := &Server{
		mux:   http.NewServeMux(),
		rides: make(map[string]*ride),
	}
	s.registerHandlers()
	return s
}

// Handler returns the http.Handler for the server.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// OpenRide makes slug available with the given capacity. With waitlist set,
// signups past capacity succeed as waitlisted instead of failing.
func (s *Server) OpenRide(slug string, capacity int, waitlist bool) {
	s.OpenRideAfter(slug, capacity, waitlist, 0)
}

// OpenRideAfter is OpenRide, except the first n signup requests for slug are
// answered as if the ride did not exist yet.
func (s *Server) OpenRideAfter(slug string, capacity int, waitlist bool, n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rides[slug] = &ride{capacity: capacity, waitlist: waitlist, openAfter: n}
}

// Register adds email to slug's signups directly.
func (s *Server) Register(slug, email string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok := s.rides[slug]; ok {
		r.signups = append(r.signups, email)
	}
}

// Signups returns the confirmed and waitlisted emails for slug.
func (s *Server) Signups(slug string) (confirmed, waiting []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rides[slug]
	if !ok {
		return nil, nil
	}
	return append([]string(nil), r.signups...), append([]string(nil), r.waiting...)
}

// registerHandlers sets up all the endpoints.
func (s *Server) registerHandlers() {
	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.HandleFunc(SignupPath, s.handleSignup)
	s.mux.HandleFunc("/admin/rides", s.handleAdminRides)
	s.mux.HandleFunc("/status/", s.handleStatus)
	s.mux.HandleFunc("/delay/", s.handleDelay)
}

// handleHealth returns a simple health check response.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, `{"status":"ok"}`)
}

type successData struct {
	Slug       string `json:"slug"`
	Email      string `json:"email"`
	IsWaitlist bool   `json:"isWaitlist"`
}

type reply struct {
	Error       *string      `json:"error"`
	SuccessData *successData `json:"successData,omitempty"`
}

func writeReply(w http.ResponseWriter, rep reply) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(rep)
}

func writeError(w http.ResponseWriter, msg string) {
	writeReply(w, reply{Error: &msg})
}

// handleSignup accepts a signup form and answers like the real service.
func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	slug := r.PostForm.Get("slug")
	email := r.PostForm.Get("email")
	if slug == "" || email == "" ||
		r.PostForm.Get("firstName") == "" ||
		r.PostForm.Get("lastName") == "" ||
		r.PostForm.Get("termsCheckbox") != "on" {
		writeError(w, msgMissingFields)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rd, ok := s.rides[slug]
	if ok {
		rd.requests++
	}
	if !ok || rd.requests <= rd.openAfter {
		writeError(w, msgRideNotFound)
		return
	}

	if contains(rd.signups, email) || contains(rd.waiting, email) {
		writeError(w, msgAlreadySignedUp)
		return
	}

	waitlisted := false
	if len(rd.signups) >= rd.capacity {
		if !rd.waitlist {
			writeError(w, msgRideFull)
			return
		}
		rd.waiting = append(rd.waiting, email)
		waitlisted = true
	} else {
		rd.signups = append(rd.signups, email)
	}

	writeReply(w, reply{SuccessData: &successData{Slug: slug, Email: email, IsWaitlist: waitlisted}})
}

// handleAdminRides opens a ride.
// Example: POST /admin/rides with slug=abc-2024-03-15&capacity=10&waitlist=true&openAfter=3
func (s *Server) handleAdminRides(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	slug := r.PostForm.Get("slug")
	capacity, err := strconv.Atoi(r.PostForm.Get("capacity"))
	if slug == "" || err != nil || capacity < 0 {
		http.Error(w, "slug and non-negative capacity required", http.StatusBadRequest)
		return
	}
	openAfter, _ := strconv.Atoi(r.PostForm.Get("openAfter"))
	waitlist, _ := strconv.ParseBool(r.PostForm.Get("waitlist"))

	s.OpenRideAfter(slug, capacity, waitlist, openAfter)
	w.WriteHeader(http.StatusCreated)
	fmt.Fprintf(w, "opened %s (capacity %d)", slug, capacity)
}

// handleStatus returns the specified HTTP status code.
// Example: POST /status/503 returns 503 Service Unavailable
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/status/")
	code, err := strconv.Atoi(path)
	if err != nil || code < 100 || code > 599 {
		http.Error(w, "invalid status code", http.StatusBadRequest)
		return
	}
	w.WriteHeader(code)
	fmt.Fprintf(w, "%d %s", code, http.StatusText(code))
}

// handleDelay waits for the specified duration before answering with a
// successful signup reply.
// Example: POST /delay/100 waits 100ms
func (s *Server) handleDelay(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/delay/")
	ms, err := strconv.Atoi(path)
	if err != nil || ms < 0 {
		http.Error(w, "invalid delay", http.StatusBadRequest)
		return
	}

	select {
	case <-time.After(time.Duration(ms) * time.Millisecond):
	case <-r.Context().Done():
		return
	}
	writeReply(w, reply{})
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
