package server

import (
	"context"
	"errors"
	"net/http"
	"os"
	"sync"

	"github.com/jurisai/jurisai/internal/adapter/utils"
	"github.com/jurisai/jurisai/internal/config"
	"github.com/jurisai/jurisai/internal/handlers"
	"github.com/jurisai/jurisai/internal/middleware"
	"github.com/jurisai/jurisai/pkg/logger_i"
)

var (
	server  *http.Server
	_logger *logger_i.Logger
)

// Handlers collects every handler group the router mounts.
type Handlers struct {
	Auth      *handlers.AuthHandler
	RBAC      *handlers.RBACHandler
	Documents *handlers.DocumentHandler
	Search    *handlers.SearchHandler
	Summarize *handlers.SummarizeHandler
	Agents    *handlers.AgentHandler
	Flags     *handlers.FlagHandler
	System    *handlers.SystemHandler
}

type ShutdownParams struct {
	GracefulShutdown chan os.Signal
	StopExecution    chan bool
	WorkerStop       chan bool
	Group            *sync.WaitGroup
	CloseServices    context.CancelFunc
}

// CreateServer mounts all routes behind the middleware chain and blocks on
// ListenAndServe until shutdown.
func CreateServer(listenAddr string, h Handlers) {
	_logger = logger_i.NewLogger("Server")

	r := utils.GetRouter()

	r.Router.Get("/health", middleware.Wrap(h.System.Health))
	r.Router.Get("/health/ready", middleware.Wrap(h.System.Ready))
	r.Router.Get("/system/features", middleware.Wrap(h.System.Features))

	r.Router.Post("/auth/register", middleware.Wrap(h.Auth.Register))
	r.Router.Post("/auth/login", middleware.Wrap(h.Auth.Login))
	r.Router.Get("/auth/me", middleware.Wrap(h.Auth.Me))
	r.Router.Put("/auth/me", middleware.Wrap(h.Auth.UpdateMe))
	r.Router.Post("/auth/change-password", middleware.Wrap(h.Auth.ChangePassword))
	r.Router.Get("/auth/users", middleware.Wrap(h.Auth.ListUsers))
	r.Router.Post("/admin/self/make-admin", middleware.Wrap(h.Auth.MakeAdmin))

	r.Router.Post("/auth/roles", middleware.Wrap(h.RBAC.CreateRole))
	r.Router.Get("/auth/roles", middleware.Wrap(h.RBAC.ListRoles))
	r.Router.Post("/auth/roles/assign", middleware.Wrap(h.RBAC.AssignRole))
	r.Router.Post("/auth/roles/revoke", middleware.Wrap(h.RBAC.RevokeRole))
	r.Router.Get("/auth/roles/{id}", middleware.Wrap(h.RBAC.GetRole))
	r.Router.Put("/auth/roles/{id}", middleware.Wrap(h.RBAC.UpdateRole))
	r.Router.Delete("/auth/roles/{id}", middleware.Wrap(h.RBAC.DeleteRole))
	r.Router.Post("/auth/permissions", middleware.Wrap(h.RBAC.CreatePermission))
	r.Router.Get("/auth/permissions", middleware.Wrap(h.RBAC.ListPermissions))
	r.Router.Delete("/auth/permissions/{id}", middleware.Wrap(h.RBAC.DeletePermission))

	r.Router.Post("/documents", middleware.Wrap(h.Documents.Upload))
	r.Router.Post("/documents/batch-upload", middleware.Wrap(h.Documents.BatchUpload))
	r.Router.Get("/documents", middleware.Wrap(h.Documents.List))
	r.Router.Get("/documents/{id}", middleware.Wrap(h.Documents.Get))
	r.Router.Put("/documents/{id}", middleware.Wrap(h.Documents.Update))
	r.Router.Delete("/documents/{id}", middleware.Wrap(h.Documents.Delete))
	r.Router.Get("/documents/{id}/entities", middleware.Wrap(h.Documents.Entities))
	r.Router.Get("/documents/{id}/key_terms", middleware.Wrap(h.Documents.KeyTerms))
	r.Router.Post("/documents/{id}/analyze", middleware.Wrap(h.Documents.Analyze))

	r.Router.Get("/search", middleware.Wrap(h.Search.Search))
	r.Router.Post("/search/ask", middleware.Wrap(h.Search.Ask))
	r.Router.Post("/summarization", middleware.Wrap(h.Summarize.Summarize))

	r.Router.Get("/agents/tasks", middleware.Wrap(h.Agents.List))
	r.Router.Get("/agents/tasks/{id}", middleware.Wrap(h.Agents.Status))
	r.Router.Delete("/agents/tasks/{id}", middleware.Wrap(h.Agents.Cancel))
	r.Router.Get("/agents/capabilities", middleware.Wrap(h.Agents.Capabilities))

	r.Router.Post("/features", middleware.Wrap(h.Flags.Create))
	r.Router.Get("/features", middleware.Wrap(h.Flags.List))
	r.Router.Get("/features/{key}", middleware.Wrap(h.Flags.Get))
	r.Router.Put("/features/{key}", middleware.Wrap(h.Flags.Update))
	r.Router.Delete("/features/{key}", middleware.Wrap(h.Flags.Delete))

	server = &http.Server{
		Addr:         listenAddr,
		Handler:      r.Router,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
		IdleTimeout:  config.IdleTimeout,
	}

	_logger.Info("Server is listening at", "address", listenAddr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		_logger.Error("Server crashed", "error :", err.Error(), "addr", listenAddr)
	}
}

func ShutDownHandler(shutdownParams ShutdownParams) {
	state := <-shutdownParams.GracefulShutdown
	_logger.Info("Server is shutting down", "signal", state.String())

	ctx, cancel := context.WithTimeout(context.Background(), config.ShutdownContextTimeout)
	defer cancel()

	done := make(chan struct{})

	go func() {
		server.SetKeepAlivesEnabled(false)

		if err := server.Shutdown(ctx); err != nil {
			_logger.Error("Could not shutdown gracefully: %s", err)
		}

		//close workers
		close(shutdownParams.WorkerStop)
		shutdownParams.Group.Wait()
		shutdownParams.CloseServices()
		close(shutdownParams.StopExecution)
		close(done)
	}()

	select {
	case <-done:
		_logger.Info("Gracefully shut down")
	case <-ctx.Done():
		_logger.Info("Force Shut down")
		os.Exit(1)
	}
}
