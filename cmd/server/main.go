package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	api "github.com/coursekit/coursekit-server/internal/api/http"
	"github.com/coursekit/coursekit-server/internal/auth"
	"github.com/coursekit/coursekit-server/internal/config"
	"github.com/coursekit/coursekit-server/internal/content"
	"github.com/coursekit/coursekit-server/internal/db"
	"github.com/coursekit/coursekit-server/internal/grading"
	"github.com/coursekit/coursekit-server/internal/logger"
	"github.com/coursekit/coursekit-server/internal/notify"
	"github.com/coursekit/coursekit-server/internal/quizgen"
	"github.com/coursekit/coursekit-server/internal/rbac"
	"github.com/coursekit/coursekit-server/internal/storage"
	"github.com/coursekit/coursekit-server/internal/syncx"
)

func main() {
	cfg := config.FromEnv()

	zl, err := logger.New(string(cfg.Mode))
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer zl.Sync()

	// --- DB ---
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	dbh, err := db.Open(ctx, db.Driver(cfg.DBDriver), cfg.DBDSN)
	if err != nil {
		zl.Fatal("db open failed", zap.Error(err))
	}

	// --- Redis (OTP codes) ---
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
	otp := auth.NewOTPStore(rdb, time.Duration(cfg.OTPTTLMin)*time.Minute)

	// --- Blob storage ---
	bs, err := storage.NewFSStore(cfg.BlobBasePath)
	if err != nil {
		zl.Fatal("blob store", zap.Error(err))
	}

	// --- Mail ---
	var mailer notify.Mailer
	if cfg.SendgridAPIKey != "" {
		mailer = notify.NewSendgridMailer(cfg.SendgridAPIKey, cfg.EmailFrom, cfg.EmailFromName)
	} else {
		mailer = notify.NewNoopMailer(zl)
	}

	// --- Domain engines and services ---
	store := content.NewSQLStore(dbh)
	events := syncx.NewEventRepo(dbh)
	ordering := content.NewOrdering(store, content.OwnerOrAdmin, zl)
	svc := content.NewService(store, ordering, events, zl)
	grader := grading.NewEngine()
	gen := quizgen.NewGenerator(cfg.GenAIBaseURL, cfg.GenAIAPIKey, cfg.GenAIModel, zl)
	tokens := auth.NewService(cfg.JWTSecret)

	// --- Router ---
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(requestLogger(zl))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Public auth surface
	authDeps := api.AuthDeps{DB: dbh, Tokens: tokens, OTP: otp, Mailer: mailer, Log: zl}
	r.Post("/auth/register", api.RegisterHandler(authDeps))
	r.Post("/auth/verify", api.VerifyEmailHandler(authDeps))
	r.Post("/auth/login", api.LoginHandler(authDeps))
	r.Post("/auth/password/forgot", api.ForgotPasswordHandler(authDeps))
	r.Post("/auth/password/reset", api.ResetPasswordHandler(authDeps))

	// Protected API (JWT → role in context → RBAC)
	r.Group(func(pr chi.Router) {
		pr.Use(auth.Middleware(tokens))

		pr.Get("/users/me", api.MeHandler(dbh))
		pr.With(rbac.Require("users:list")).Get("/users", api.ListUsersHandler(dbh))
		pr.With(rbac.Require("audit:view")).Get("/events", api.RecentEventsHandler(events))

		// Courses
		pr.With(rbac.Require("course:view")).Get("/courses", api.ListCoursesHandler(svc))
		pr.With(rbac.Require("course:view")).Get("/courses/{courseID}", api.GetCourseHandler(svc))
		pr.With(rbac.Require("course:create")).Post("/courses", api.CreateCourseHandler(svc))
		pr.With(rbac.Require("course:edit-own")).
			Patch("/courses/{courseID}", api.UpdateCourseHandler(svc))
		pr.With(rbac.Require("course:delete-own")).
			Delete("/courses/{courseID}", api.DeleteCourseHandler(svc))

		// Lessons
		pr.With(rbac.Require("lesson:create")).
			Post("/courses/{courseID}/lessons", api.CreateLessonHandler(svc))
		pr.With(rbac.Require("lesson:view")).Get("/lessons/{lessonID}", api.GetLessonHandler(svc))
		pr.With(rbac.Require("lesson:edit")).Put("/lessons/{lessonID}", api.UpdateLessonHandler(svc))
		pr.With(rbac.Require("lesson:delete")).Delete("/lessons/{lessonID}", api.DeleteLessonHandler(svc))

		// Quizzes
		pr.With(rbac.Require("quiz:create")).
			Post("/courses/{courseID}/quizzes", api.CreateQuizHandler(svc))
		pr.With(rbac.Require("quiz:view")).Get("/quizzes/{quizID}", api.GetQuizHandler(svc))
		pr.With(rbac.Require("quiz:edit")).Put("/quizzes/{quizID}", api.UpdateQuizHandler(svc))
		pr.With(rbac.Require("quiz:delete")).Delete("/quizzes/{quizID}", api.DeleteQuizHandler(svc))

		// Ordering
		pr.With(rbac.Require("content:reorder")).
			Put("/items/{itemID}/position", api.RepositionItemHandler(ordering))
		pr.With(rbac.Require("content:reorder")).
			Post("/items/orders", api.BulkOrdersHandler(ordering))
		pr.With(rbac.Require("content:reorder")).
			Post("/courses/{courseID}/rebuild-order", api.RebuildOrderHandler(svc, events, zl))

		// Enrollment and progress
		enrollDeps := api.EnrollmentDeps{Svc: svc, DB: dbh, Mailer: mailer, Log: zl}
		pr.With(rbac.Require("enrollment:create")).
			Post("/courses/{courseID}/enroll", api.EnrollHandler(enrollDeps))
		pr.With(rbac.Require("enrollment:create")).
			Delete("/courses/{courseID}/enroll", api.DropHandler(svc))
		pr.With(rbac.Require("enrollment:view-own")).
			Get("/enrollments", api.MyEnrollmentsHandler(svc))
		pr.With(rbac.Require("enrollment:view-course")).
			Get("/courses/{courseID}/enrollments", api.CourseEnrollmentsHandler(svc))
		pr.With(rbac.Require("progress:update-own")).
			Post("/courses/{courseID}/complete/{itemID}", api.CompleteItemHandler(svc))

		// Grading
		gradeDeps := api.GradingDeps{Svc: svc, Engine: grader, DB: dbh, Events: events, Mailer: mailer, Log: zl}
		pr.With(rbac.Require("quiz:submit")).
			Post("/quizzes/{quizID}/submit", api.SubmitQuizHandler(gradeDeps))
		pr.With(rbac.Require("enrollment:view-own")).
			Get("/results", api.MyResultsHandler(svc))

		// Quiz generation from uploaded PDFs
		genDeps := api.QuizgenDeps{Svc: svc, Gen: gen, Blobs: bs, Events: events, Log: zl}
		pr.With(rbac.Require("quizgen:run")).
			Post("/courses/{courseID}/quizzes/generate", api.GenerateQuizHandler(genDeps))

		// Assets
		pr.Route("/assets", func(ar chi.Router) {
			ar.Use(rbac.Require("asset:upload"))
			api.MountAssets(ar, bs)
		})
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if err := dbh.PingContext(r.Context()); err != nil {
			http.Error(w, "db not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(200)
	})

	zl.Info("listening",
		zap.String("addr", cfg.HTTPAddr),
		zap.String("mode", string(cfg.Mode)),
		zap.String("db", cfg.DBDriver))
	if err := http.ListenAndServe(cfg.HTTPAddr, r); err != nil {
		zl.Fatal("server exited", zap.Error(err))
	}
}

// requestLogger logs each request with latency and status.
func requestLogger(zl *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			zl.Debug("http",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("took", time.Since(start)))
		})
	}
}
