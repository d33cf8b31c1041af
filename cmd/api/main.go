package main

import (
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"

	"github.com/meridianhr/payroll-backend-go/internal/config"
	appHTTP "github.com/meridianhr/payroll-backend-go/internal/handler/http"
	"github.com/meridianhr/payroll-backend-go/internal/pkg/database"
	"github.com/meridianhr/payroll-backend-go/internal/pkg/jwt"
	"github.com/meridianhr/payroll-backend-go/internal/pkg/sse"
	"github.com/meridianhr/payroll-backend-go/internal/repository/postgresql"
	approvalService "github.com/meridianhr/payroll-backend-go/internal/service/approval"
	auditService "github.com/meridianhr/payroll-backend-go/internal/service/audit"
	directoryService "github.com/meridianhr/payroll-backend-go/internal/service/directory"
	notificationService "github.com/meridianhr/payroll-backend-go/internal/service/notification"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Println("Error loading config:", err)
		return
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	db, err := database.NewPostgreSQLDB(cfg.DatabaseURL())
	if err != nil {
		fmt.Println("Error connecting to database:", err)
		return
	}
	defer db.Close()

	payrollRepo := postgresql.NewPayrollRepository(db)
	userRepo := postgresql.NewUserRepository(db)
	departmentRepo := postgresql.NewDepartmentRepository(db)
	notificationRepo := postgresql.NewNotificationRepository(db)
	auditRepo := postgresql.NewAuditRepository(db)

	jwtService := jwt.NewJWTService(cfg.JWT.Secret)
	hub := sse.NewHub()

	notificationSvc := notificationService.NewNotificationService(notificationRepo, hub, cfg.Notification, logger)
	defer notificationSvc.Stop()

	directorySvc := directoryService.NewDirectoryService(userRepo, departmentRepo, logger)
	auditWriter := auditService.NewWriter(auditRepo)
	approvalSvc := approvalService.NewApprovalService(
		payrollRepo,
		userRepo,
		departmentRepo,
		directorySvc,
		notificationSvc,
		auditWriter,
		cfg.Kafka.TransitionTopic,
		logger,
	)

	payrollHandler := appHTTP.NewPayrollHandler(approvalSvc)
	notificationHandler := appHTTP.NewNotificationHandler(notificationSvc)
	auditHandler := appHTTP.NewAuditHandler(auditRepo)

	router := appHTTP.NewRouter(
		jwtService,
		payrollHandler,
		notificationHandler,
		auditHandler,
		appHTTP.RouterConfig{
			Env:               cfg.App.Env,
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			Burst:             cfg.RateLimit.Burst,
		},
	)

	port := fmt.Sprintf(":%d", cfg.App.Port)
	fmt.Printf("Server running at http://localhost%s\n", port)
	if err := http.ListenAndServe(port, router); err != nil {
		log.Fatal("Server error: ", err)
	}
}
