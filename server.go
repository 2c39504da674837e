package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/b2bbillings/b2bbillings-sub002/analytics"
	"github.com/b2bbillings/b2bbillings-sub002/config"
	"github.com/b2bbillings/b2bbillings-sub002/middlewares"
	"github.com/b2bbillings/b2bbillings-sub002/models"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
)

const defaultPort = "8080"

var tracer = otel.Tracer("b2bbillings-ledger")

// searchDebounceWindow collapses keystroke-driven search bursts into one
// query per business.
const searchDebounceWindow = 500 * time.Millisecond

func customNotFoundHandler(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{"error": "route not found"})
}

// customErrorLogger logs only requests that accumulated errors.
func customErrorLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) > 0 {
			logger.Error(c.Errors.String())
		}
	}
}

func splitAndTrim(csv string) []string {
	if strings.TrimSpace(csv) == "" {
		return nil
	}
	parts := strings.Split(csv, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func registerRoutes(r *gin.Engine) {
	api := r.Group("/api/v1")

	api.POST("/auth/login", loginHandler)
	api.POST("/auth/register", registerHandler)

	authed := api.Group("")
	authed.Use(middlewares.RequireAuth())
	{
		parties := authed.Group("/parties")
		parties.GET("", middlewares.RateLimiter(searchDebounceWindow, 1), listPartiesHandler)
		parties.POST("", createPartyHandler)
		parties.GET("/:id", getPartyHandler)
		parties.PUT("/:id", updatePartyHandler)
		parties.DELETE("/:id", deletePartyHandler)
		parties.GET("/:id/summary", partySummaryHandler)
		parties.GET("/:id/balance", partyBalanceHandler)

		transactions := authed.Group("/transactions")
		transactions.GET("", listTransactionsHandler)
		transactions.POST("", createTransactionHandler)
		transactions.GET("/:id", getTransactionHandler)

		payments := authed.Group("/payments")
		payments.GET("", listPaymentsHandler)
		payments.POST("", createPaymentHandler)
		payments.GET("/:id", getPaymentHandler)
		payments.PUT("/:id", updatePaymentHandler)
		payments.DELETE("/:id", deletePaymentHandler)

		bankAccounts := authed.Group("/bank-accounts")
		bankAccounts.GET("", listBankAccountsHandler)
		bankAccounts.POST("", createBankAccountHandler)
		bankAccounts.GET("/:id", getBankAccountHandler)
		bankAccounts.PUT("/:id", updateBankAccountHandler)

		daybook := authed.Group("/daybook")
		daybook.GET("", dayBookHandler)
		daybook.GET("/report", dayBookReportHandler)
		daybook.GET("/export", dayBookExportHandler)
	}
}

func main() {
	port := os.Getenv("API_PORT")
	if port == "" {
		port = os.Getenv("PORT")
	}
	if port == "" {
		port = defaultPort
	}

	logger := config.GetLogger()

	sigCtx, stopSignals := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stopSignals()

	// Start the HTTP server before connecting dependencies so deploy health
	// probes pass; app endpoints answer 503 until DB and Redis are ready.
	r := gin.New()
	r.Use(middlewares.CorrelationMiddleware())
	r.Use(func(c *gin.Context) {
		if c.Request.URL.Path == "/healthz" {
			c.Status(http.StatusNoContent)
			c.Abort()
			return
		}
		if config.GetDB() == nil || config.GetRedisDB() == nil {
			c.AbortWithStatus(http.StatusServiceUnavailable)
			return
		}
		c.Next()
	})

	r.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	corsConfig := cors.DefaultConfig()
	allowedOrigins := strings.TrimSpace(os.Getenv("CORS_ALLOWED_ORIGINS"))
	if strings.EqualFold(strings.TrimSpace(os.Getenv("GO_ENV")), "production") {
		if allowedOrigins == "" {
			corsConfig.AllowOrigins = []string{}
		} else {
			corsConfig.AllowOrigins = splitAndTrim(allowedOrigins)
		}
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AddAllowMethods("GET", "POST", "PUT", "DELETE", "OPTIONS")
	corsConfig.AddAllowHeaders("Origin", "Content-Type", "Authorization")
	corsConfig.AddExposeHeaders("Content-Length", "Content-Disposition")
	corsConfig.AllowCredentials = true

	r.Use(cors.New(corsConfig))
	r.Use(middlewares.AuthMiddleware())
	r.Use(customErrorLogger(logger))
	r.Use(gin.Recovery())

	registerRoutes(r)
	r.NoRoute(customNotFoundHandler)

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}
	serverErrCh := make(chan error, 1)
	go func() {
		serverErrCh <- srv.ListenAndServe()
	}()

	// Connect dependencies after the port is open.
	config.ConnectDatabaseWithRetry()
	config.ConnectRedisWithRetry()

	db := config.GetDB()
	sqlDB, _ := db.DB()
	defer func() {
		if sqlDB != nil {
			_ = sqlDB.Close()
		}
	}()
	// AutoMigrate can run DDL that blocks tables; allow running it as a
	// separate job instead.
	if !strings.EqualFold(strings.TrimSpace(os.Getenv("SKIP_MIGRATIONS")), "true") {
		models.MigrateTable()
	} else {
		logger.WithFields(logrus.Fields{"field": "migrations"}).Warn("SKIP_MIGRATIONS=true; skipping AutoMigrate on startup")
	}

	// Collection metrics stay optional; summaries fall back to ledger-only
	// figures when the analytics service is not configured.
	if provider := analytics.NewClientFromEnv(); provider != nil {
		models.SetMetricsProvider(provider)
	} else {
		logger.WithFields(logrus.Fields{"field": "analytics"}).Warn("analytics api not configured; party summaries run without collection metrics")
	}

	logger.WithFields(logrus.Fields{
		"info": "Connection Established",
	}).Info("listening on http://localhost:", port, "/api/v1")
	log.Println("Server started successfully")

	select {
	case <-sigCtx.Done():
		// graceful shutdown below
	case err := <-serverErrCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithFields(logrus.Fields{"field": "http"}).Error("server stopped unexpectedly: " + err.Error())
		}
	}

	shutdownTimeout := 30 * time.Second
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithFields(logrus.Fields{"field": "http"}).Error("graceful shutdown failed: " + err.Error())
	}

	if rdb := config.GetRedisDB(); rdb != nil {
		_ = rdb.Close()
	}
}
