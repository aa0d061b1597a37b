package main

import (
	"context"
	"log"
	"net/http"
	"time"

	api "github.com/learnhub/learnhub-backend/internal/api/http"
	"github.com/learnhub/learnhub-backend/internal/audit"
	auth "github.com/learnhub/learnhub-backend/internal/auth/middleware"
	"github.com/learnhub/learnhub-backend/internal/certificate"
	"github.com/learnhub/learnhub-backend/internal/config"
	"github.com/learnhub/learnhub-backend/internal/db"
	"github.com/learnhub/learnhub-backend/internal/enrollment"
	"github.com/learnhub/learnhub-backend/internal/exam"
	"github.com/learnhub/learnhub-backend/internal/rbac"
	"github.com/learnhub/learnhub-backend/internal/storage"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

func main() {
	cfg := config.FromEnv()
	api.SetDevMode(!cfg.IsProduction())

	// --- DB ---
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	dbh, err := db.Open(ctx, db.Driver(cfg.DBDriver), cfg.DBDSN)
	if err != nil {
		log.Fatalf("db open failed: %v", err)
	}

	events := audit.NewEventRepo(dbh)
	enrollStore := enrollment.NewSQLStore(dbh, events)
	examStore := exam.NewSQLStore(dbh, events)
	certStore := certificate.NewStore(dbh)
	authSvc := auth.NewAuthService(cfg.JWTSecret)

	bs, err := storage.NewFSStore(cfg.BlobBasePath)
	if err != nil {
		log.Fatalf("blob store: %v", err)
	}

	// --- Router ---
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Route("/api", func(r chi.Router) {
		// Public surface
		r.Post("/users/register", api.RegisterHandler(dbh, authSvc))
		r.Post("/users/login", api.LoginHandler(dbh, authSvc))

		r.Get("/courses", api.ListCoursesHandler(dbh))
		r.Get("/courses/{id}", api.GetCourseHandler(dbh))
		r.Get("/chapters/course/{courseID}", api.ListChaptersHandler(dbh))
		r.Get("/chapters/{id}", api.GetChapterHandler(dbh))
		r.Get("/lessons/chapter/{chapterID}", api.ListLessonsHandler(dbh))
		r.Get("/lessons/{id}", api.GetLessonHandler(dbh))
		r.Get("/exams/chapter/{chapterID}", api.ListExamsHandler(examStore))
		r.Get("/exams/{id}", api.GetExamHandler(examStore, authSvc))
		r.Get("/certificates/verify/{certificateUrl}", api.VerifyCertificateHandler(certStore))

		r.Route("/assets", func(ar chi.Router) {
			ar.With(auth.JWTMiddleware(authSvc), rbac.Require("asset:manage")).
				Post("/", api.UploadAssetHandler(bs))
			ar.Get("/*", api.GetAssetHandler(bs))
		})

		// Authenticated surface (JWT → sub+role in context)
		r.Group(func(pr chi.Router) {
			pr.Use(auth.JWTMiddleware(authSvc))

			pr.Get("/users/me", api.MeHandler(dbh))
			pr.Put("/users/{id}", api.UpdateUserHandler(dbh))
			pr.Put("/users/change-password/{id}", api.ChangePasswordHandler(dbh))

			pr.Post("/enrollment", api.EnrollHandler(enrollStore))
			pr.Get("/enrollment/status", api.EnrollmentStatusHandler(enrollStore))
			pr.Get("/enrollment/user", api.UserEnrollmentsHandler(enrollStore))
			pr.Put("/enrollment/{id}/progress", api.UpdateProgressHandler(enrollStore))
			pr.Put("/enrollment/{id}/drop", api.DropEnrollmentHandler(enrollStore))

			pr.Post("/exams/{id}/submit", api.SubmitExamHandler(examStore))
			pr.Get("/exams/{id}/results", api.ExamResultsHandler(examStore))

			pr.Get("/certificates/user", api.UserCertificatesHandler(certStore))
			pr.Get("/certificates/{id}", api.GetCertificateHandler(certStore))

			// Admin surface
			pr.With(rbac.Require("user:manage")).Get("/users", api.ListUsersHandler(dbh))
			pr.With(rbac.Require("user:manage")).Put("/users/status/{id}", api.UpdateUserStatusHandler(dbh))
			pr.With(rbac.Require("user:manage")).Delete("/users/{id}", api.DeleteUserHandler(dbh))

			pr.With(rbac.Require("course:manage")).Post("/courses", api.CreateCourseHandler(dbh))
			pr.With(rbac.Require("course:manage")).Put("/courses/{id}", api.UpdateCourseHandler(dbh))
			pr.With(rbac.Require("course:manage")).Delete("/courses/{id}", api.DeleteCourseHandler(dbh))

			pr.With(rbac.Require("chapter:manage")).Post("/chapters", api.CreateChapterHandler(dbh))
			pr.With(rbac.Require("chapter:manage")).Put("/chapters/reorder/{courseID}", api.ReorderChaptersHandler(dbh))
			pr.With(rbac.Require("chapter:manage")).Put("/chapters/{id}", api.UpdateChapterHandler(dbh))
			pr.With(rbac.Require("chapter:manage")).Delete("/chapters/{id}", api.DeleteChapterHandler(dbh))

			pr.With(rbac.Require("lesson:manage")).Post("/lessons", api.CreateLessonHandler(dbh))
			pr.With(rbac.Require("lesson:manage")).Put("/lessons/reorder/{chapterID}", api.ReorderLessonsHandler(dbh))
			pr.With(rbac.Require("lesson:manage")).Post("/lessons/{lessonID}/pages", api.CreatePageHandler(dbh))
			pr.With(rbac.Require("lesson:manage")).Put("/lessons/pages/{pageID}", api.UpdatePageHandler(dbh))
			pr.With(rbac.Require("lesson:manage")).Delete("/lessons/pages/{pageID}", api.DeletePageHandler(dbh))
			pr.With(rbac.Require("lesson:manage")).Put("/lessons/{id}", api.UpdateLessonHandler(dbh))
			pr.With(rbac.Require("lesson:manage")).Delete("/lessons/{id}", api.DeleteLessonHandler(dbh))

			pr.With(rbac.Require("question:manage")).Get("/questions/chapter/{chapterID}", api.ListQuestionsHandler(dbh))
			pr.With(rbac.Require("question:manage")).Get("/questions/{id}", api.GetQuestionHandler(dbh))
			pr.With(rbac.Require("question:manage")).Post("/questions", api.CreateQuestionHandler(dbh))
			pr.With(rbac.Require("question:manage")).Post("/questions/bulk", api.BulkCreateQuestionsHandler(dbh))
			pr.With(rbac.Require("question:manage")).Put("/questions/{id}", api.UpdateQuestionHandler(dbh))
			pr.With(rbac.Require("question:manage")).Delete("/questions/{id}", api.DeleteQuestionHandler(dbh))

			pr.With(rbac.Require("exam:manage")).Post("/exams", api.CreateExamHandler(examStore))
			pr.With(rbac.Require("exam:manage")).Put("/exams/{id}", api.UpdateExamHandler(examStore))
			pr.With(rbac.Require("exam:manage")).Delete("/exams/{id}", api.DeleteExamHandler(examStore))

			pr.With(rbac.Require("enrollment:stats")).Get("/enrollment/stats/{courseID}", api.EnrollmentStatsHandler(enrollStore))
		})
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })

	log.Printf("listening on %s (env=%s, db=%s)", cfg.HTTPAddr, cfg.Env, cfg.DBDriver)
	log.Fatal(http.ListenAndServe(cfg.HTTPAddr, r))
}
