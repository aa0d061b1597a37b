package http_test

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	api "github.com/learnhub/learnhub-backend/internal/api/http"
	"github.com/learnhub/learnhub-backend/internal/audit"
	auth "github.com/learnhub/learnhub-backend/internal/auth/middleware"
	"github.com/learnhub/learnhub-backend/internal/certificate"
	"github.com/learnhub/learnhub-backend/internal/db"
	"github.com/learnhub/learnhub-backend/internal/enrollment"
	"github.com/learnhub/learnhub-backend/internal/exam"
	"github.com/learnhub/learnhub-backend/internal/rbac"
	"github.com/learnhub/learnhub-backend/internal/storage"
)

// newTestServer wires the same route surface main() does, minus assets.
func newTestServer(t *testing.T, name string) (*httptest.Server, *sql.DB, *auth.AuthService) {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	h, err := db.Open(context.Background(), db.DriverSQLite, dsn)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	h.SetMaxOpenConns(1)
	t.Cleanup(func() { h.Close() })

	events := audit.NewEventRepo(h)
	enrollStore := enrollment.NewSQLStore(h, events)
	examStore := exam.NewSQLStore(h, events)
	certStore := certificate.NewStore(h)
	authSvc := auth.NewAuthService("test-secret")

	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) {
		r.Post("/users/register", api.RegisterHandler(h, authSvc))
		r.Post("/users/login", api.LoginHandler(h, authSvc))
		r.Get("/exams/{id}", api.GetExamHandler(examStore, authSvc))
		r.Get("/certificates/verify/{certificateUrl}", api.VerifyCertificateHandler(certStore))

		r.Group(func(pr chi.Router) {
			pr.Use(auth.JWTMiddleware(authSvc))
			pr.Post("/enrollment", api.EnrollHandler(enrollStore))
			pr.Get("/enrollment/status", api.EnrollmentStatusHandler(enrollStore))
			pr.Get("/enrollment/user", api.UserEnrollmentsHandler(enrollStore))
			pr.Put("/enrollment/{id}/progress", api.UpdateProgressHandler(enrollStore))
			pr.Put("/enrollment/{id}/drop", api.DropEnrollmentHandler(enrollStore))
			pr.Post("/exams/{id}/submit", api.SubmitExamHandler(examStore))
			pr.Get("/exams/{id}/results", api.ExamResultsHandler(examStore))
			pr.Get("/certificates/user", api.UserCertificatesHandler(certStore))

			pr.With(rbac.Require("course:manage")).Post("/courses", api.CreateCourseHandler(h))
			pr.With(rbac.Require("question:manage")).Post("/questions/bulk", api.BulkCreateQuestionsHandler(h))
			pr.With(rbac.Require("enrollment:stats")).Get("/enrollment/stats/{courseID}", api.EnrollmentStatsHandler(enrollStore))
		})
	})

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, h, authSvc
}

func seedContent(t *testing.T, h *sql.DB) {
	t.Helper()
	now := time.Now().Unix()
	stmts := []string{
		`INSERT INTO courses (id, title, created_at) VALUES ('c-1', 'Go Basics', ` + fmt.Sprint(now) + `)`,
		`INSERT INTO chapters (id, course_id, title, chapter_order) VALUES ('ch-1', 'c-1', 'Syntax', 1)`,
		`INSERT INTO questions (id, chapter_id, question_text, option_a, option_b, option_c, option_d, correct_answer)
		 VALUES ('q-1', 'ch-1', 'Declare?', 'var', 'let', 'def', 'dim', 'a')`,
		`INSERT INTO questions (id, chapter_id, question_text, option_a, option_b, option_c, option_d, correct_answer)
		 VALUES ('q-2', 'ch-1', 'Zero int?', '1', 'nil', '0', 'undefined', 'c')`,
		`INSERT INTO exams (id, course_id, chapter_id, title, time_limit, total_questions, created_at)
		 VALUES ('x-1', 'c-1', 'ch-1', 'Quiz', 30, 2, ` + fmt.Sprint(now) + `)`,
	}
	for _, s := range stmts {
		if _, err := h.Exec(s); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
}

func doJSON(t *testing.T, method, url, token string, body any) (*http.Response, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode: %v", err)
		}
	}
	req, err := http.NewRequest(method, url, &buf)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	defer resp.Body.Close()
	out := map[string]any{}
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp, out
}

func TestRegisterLoginEnrollComplete(t *testing.T) {
	srv, h, _ := newTestServer(t, "api_flow")
	seedContent(t, h)

	// Register.
	resp, body := doJSON(t, "POST", srv.URL+"/api/users/register", "", map[string]any{
		"full_name": "Ada Lovelace", "email": "ada@example.com", "password": "secret1",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("register status = %d, body %v", resp.StatusCode, body)
	}
	token, _ := body["token"].(string)
	if token == "" {
		t.Fatal("register returned no token")
	}

	// Duplicate email is rejected.
	resp, _ = doJSON(t, "POST", srv.URL+"/api/users/register", "", map[string]any{
		"full_name": "Ada Again", "email": "ada@example.com", "password": "secret1",
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("duplicate register status = %d, want 400", resp.StatusCode)
	}

	// Login works with the same credentials.
	resp, body = doJSON(t, "POST", srv.URL+"/api/users/login", "", map[string]any{
		"email": "ada@example.com", "password": "secret1",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login status = %d, body %v", resp.StatusCode, body)
	}
	token, _ = body["token"].(string)

	// Enroll.
	resp, body = doJSON(t, "POST", srv.URL+"/api/enrollment", token, map[string]any{"course_id": "c-1"})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("enroll status = %d, body %v", resp.StatusCode, body)
	}
	enrollmentID, _ := body["enrollment_id"].(string)
	if enrollmentID == "" {
		t.Fatal("enroll returned no enrollment_id")
	}

	// Double-enroll is a conflict.
	resp, _ = doJSON(t, "POST", srv.URL+"/api/enrollment", token, map[string]any{"course_id": "c-1"})
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("double enroll status = %d, want 409", resp.StatusCode)
	}

	// Status reflects the enrollment.
	resp, body = doJSON(t, "GET", srv.URL+"/api/enrollment/status?course_id=c-1", token, nil)
	if resp.StatusCode != http.StatusOK || body["is_enrolled"] != true {
		t.Fatalf("status = %d, body %v", resp.StatusCode, body)
	}

	// Progress to 45, then out-of-range, then 100.
	resp, _ = doJSON(t, "PUT", srv.URL+"/api/enrollment/"+enrollmentID+"/progress", token,
		map[string]any{"progress_percent": 45})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("progress 45 status = %d", resp.StatusCode)
	}
	resp, _ = doJSON(t, "PUT", srv.URL+"/api/enrollment/"+enrollmentID+"/progress", token,
		map[string]any{"progress_percent": 150})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("progress 150 status = %d, want 400", resp.StatusCode)
	}
	resp, _ = doJSON(t, "PUT", srv.URL+"/api/enrollment/"+enrollmentID+"/progress", token,
		map[string]any{"progress_percent": 100})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("progress 100 status = %d", resp.StatusCode)
	}

	// Completion minted one certificate; its URL verifies publicly.
	resp, body = doJSON(t, "GET", srv.URL+"/api/certificates/user", token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("certificates status = %d", resp.StatusCode)
	}
	certs, _ := body["certificates"].([]any)
	if len(certs) != 1 {
		t.Fatalf("certificates = %d, want 1", len(certs))
	}
	certURL, _ := certs[0].(map[string]any)["certificate_url"].(string)
	resp, body = doJSON(t, "GET", srv.URL+"/api/certificates/verify/"+certURL, "", nil)
	if resp.StatusCode != http.StatusOK || body["isValid"] != true {
		t.Fatalf("verify status = %d, body %v", resp.StatusCode, body)
	}

	// Verifying garbage is a 404.
	resp, _ = doJSON(t, "GET", srv.URL+"/api/certificates/verify/nope.pdf", "", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("verify bogus status = %d, want 404", resp.StatusCode)
	}
}

func TestExamTakeAndSubmit(t *testing.T) {
	srv, h, authSvc := newTestServer(t, "api_exam")
	seedContent(t, h)

	token, err := authSvc.IssueJWT("u-1", "u1@example.com", "user")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	// Taking view never carries answer keys.
	resp, body := doJSON(t, "GET", srv.URL+"/api/exams/x-1", token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get exam status = %d", resp.StatusCode)
	}
	ex, _ := body["exam"].(map[string]any)
	qs, _ := ex["questions"].([]any)
	if len(qs) != 2 {
		t.Fatalf("questions = %d, want 2", len(qs))
	}
	for _, q := range qs {
		if _, leaked := q.(map[string]any)["correct_answer"]; leaked {
			t.Fatal("taking view leaked correct_answer")
		}
	}

	// Results are null before any attempt.
	resp, body = doJSON(t, "GET", srv.URL+"/api/exams/x-1/results", token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("results status = %d", resp.StatusCode)
	}
	if body["results"] != nil {
		t.Fatalf("results = %v, want null", body["results"])
	}

	// Submit one right, one wrong.
	resp, body = doJSON(t, "POST", srv.URL+"/api/exams/x-1/submit", token, map[string]any{
		"answers": []map[string]string{
			{"question_id": "q-1", "answer": "a"},
			{"question_id": "q-2", "answer": "b"},
		},
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("submit status = %d, body %v", resp.StatusCode, body)
	}
	result, _ := body["result"].(map[string]any)
	if result["score"] != float64(50) {
		t.Fatalf("score = %v, want 50", result["score"])
	}
	if result["attempt"] != float64(1) {
		t.Fatalf("attempt = %v, want 1", result["attempt"])
	}

	// Invalid option letter is rejected before grading.
	resp, _ = doJSON(t, "POST", srv.URL+"/api/exams/x-1/submit", token, map[string]any{
		"answers": []map[string]string{{"question_id": "q-1", "answer": "z"}},
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("bad answer status = %d, want 400", resp.StatusCode)
	}
}

func TestAuthAndRoleGates(t *testing.T) {
	srv, h, authSvc := newTestServer(t, "api_gates")
	seedContent(t, h)

	// No token.
	resp, _ := doJSON(t, "POST", srv.URL+"/api/enrollment", "", map[string]any{"course_id": "c-1"})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("no token status = %d, want 401", resp.StatusCode)
	}

	userTok, _ := authSvc.IssueJWT("u-1", "u1@example.com", "user")
	adminTok, _ := authSvc.IssueJWT("u-admin", "admin@example.com", "admin")

	// Plain users cannot manage courses or read stats.
	resp, _ = doJSON(t, "POST", srv.URL+"/api/courses", userTok, map[string]any{"title": "Sneaky"})
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("user create course status = %d, want 403", resp.StatusCode)
	}
	resp, _ = doJSON(t, "GET", srv.URL+"/api/enrollment/stats/c-1", userTok, nil)
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("user stats status = %d, want 403", resp.StatusCode)
	}

	resp, body := doJSON(t, "POST", srv.URL+"/api/courses", adminTok, map[string]any{"title": "Advanced Go"})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("admin create course status = %d, body %v", resp.StatusCode, body)
	}
	resp, _ = doJSON(t, "GET", srv.URL+"/api/enrollment/stats/c-1", adminTok, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("admin stats status = %d, want 200", resp.StatusCode)
	}

	// admin=true on the exam view only honors an actual admin token.
	resp, body = doJSON(t, "GET", srv.URL+"/api/exams/x-1?admin=true", userTok, nil)
	ex, _ := body["exam"].(map[string]any)
	qs, _ := ex["questions"].([]any)
	for _, q := range qs {
		if _, leaked := q.(map[string]any)["correct_answer"]; leaked {
			t.Fatal("non-admin saw correct_answer")
		}
	}
	resp, body = doJSON(t, "GET", srv.URL+"/api/exams/x-1?admin=true", adminTok, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("admin exam view status = %d", resp.StatusCode)
	}
	ex, _ = body["exam"].(map[string]any)
	qs, _ = ex["questions"].([]any)
	for _, q := range qs {
		if q.(map[string]any)["correct_answer"] == "" {
			t.Fatal("admin view missing correct_answer")
		}
	}
}

func TestAssetServing(t *testing.T) {
	base := t.TempDir()
	bs, err := storage.NewFSStore(base)
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	if _, err := bs.Put("uploads/pic.png", strings.NewReader("png-bytes")); err != nil {
		t.Fatalf("put: %v", err)
	}

	// A file next to the store base stands in for anything sensitive on disk.
	outside := filepath.Join(filepath.Dir(base), "app-secret.txt")
	if err := os.WriteFile(outside, []byte("secret"), 0o644); err != nil {
		t.Fatalf("write outside file: %v", err)
	}

	r := chi.NewRouter()
	r.Get("/assets/*", api.GetAssetHandler(bs))

	// Stored asset is served with a real content type.
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest("GET", "/assets/uploads/pic.png", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("get asset status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "image/png" {
		t.Fatalf("content type = %q, want image/png", ct)
	}
	if rec.Body.String() != "png-bytes" {
		t.Fatalf("body = %q", rec.Body.String())
	}

	// Keys climbing out of the store base must never resolve.
	for _, target := range []string{
		"/assets/../app-secret.txt",
		"/assets/uploads/../../app-secret.txt",
		"/assets/..%2fapp-secret.txt",
	} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest("GET", target, nil))
		if rec.Code != http.StatusNotFound {
			t.Errorf("GET %s status = %d, want 404", target, rec.Code)
		}
		if strings.Contains(rec.Body.String(), "secret") {
			t.Errorf("GET %s leaked file contents", target)
		}
	}
}

func TestBulkQuestionCreate(t *testing.T) {
	srv, h, authSvc := newTestServer(t, "api_bulk_questions")
	seedContent(t, h)

	adminTok, _ := authSvc.IssueJWT("u-admin", "admin@example.com", "admin")
	userTok, _ := authSvc.IssueJWT("u-1", "u1@example.com", "user")

	q := func(text, answer string) map[string]string {
		return map[string]string{
			"chapter_id": "ch-1", "question_text": text,
			"option_a": "A", "option_b": "B", "option_c": "C", "option_d": "D",
			"correct_answer": answer,
		}
	}

	var before int
	if err := h.QueryRow(`SELECT COUNT(*) FROM questions`).Scan(&before); err != nil {
		t.Fatalf("count: %v", err)
	}

	// Plain users cannot import.
	resp, _ := doJSON(t, "POST", srv.URL+"/api/questions/bulk", userTok, map[string]any{
		"questions": []map[string]string{q("Q one?", "a")},
	})
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("user bulk status = %d, want 403", resp.StatusCode)
	}

	// Admin imports two questions at once.
	resp, body := doJSON(t, "POST", srv.URL+"/api/questions/bulk", adminTok, map[string]any{
		"questions": []map[string]string{q("Q one?", "a"), q("Q two?", "d")},
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("bulk status = %d, body %v", resp.StatusCode, body)
	}
	if body["created"] != float64(2) {
		t.Fatalf("created = %v, want 2", body["created"])
	}

	var after int
	if err := h.QueryRow(`SELECT COUNT(*) FROM questions`).Scan(&after); err != nil {
		t.Fatalf("count: %v", err)
	}
	if after != before+2 {
		t.Fatalf("questions = %d, want %d", after, before+2)
	}

	// One bad row rejects the whole batch; nothing is inserted.
	resp, _ = doJSON(t, "POST", srv.URL+"/api/questions/bulk", adminTok, map[string]any{
		"questions": []map[string]string{q("Q three?", "a"), q("Q four?", "z")},
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("invalid batch status = %d, want 400", resp.StatusCode)
	}
	var final int
	if err := h.QueryRow(`SELECT COUNT(*) FROM questions`).Scan(&final); err != nil {
		t.Fatalf("count: %v", err)
	}
	if final != after {
		t.Fatalf("questions = %d, want unchanged %d", final, after)
	}

	// An empty array is rejected too.
	resp, _ = doJSON(t, "POST", srv.URL+"/api/questions/bulk", adminTok, map[string]any{
		"questions": []map[string]string{},
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("empty batch status = %d, want 400", resp.StatusCode)
	}
}
