package routes

import (
	"net/http"

	"github.com/sirupsen/logrus"

	"microloan/auth"
	"microloan/handlers"
	"microloan/logging"
	"microloan/middleware"
)

// CORS middleware
func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		// Handle preflight request
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

type route struct {
	pattern string
	action  auth.Action
	handler http.HandlerFunc
}

func routeTable(app *handlers.App) []route {
	return []route{
		{"GET /{$}", auth.ActionHealth, app.Root},
		{"GET /healthz", auth.ActionHealth, app.Health},

		// Loans
		{"GET /loans", auth.ActionReadLoans, app.ListLoans},
		{"GET /loans/{id}", auth.ActionReadLoans, app.GetLoan},
		{"GET /top-loans", auth.ActionReadLoans, app.TopLoans},
		{"POST /loans", auth.ActionCreateLoan, app.CreateLoan},
		{"POST /loans/image", auth.ActionUploadLoanImage, app.UploadLoanImage},

		// Users
		{"POST /users", auth.ActionRegisterUser, app.RegisterUser},
		{"GET /users/role/{email}", auth.ActionLookupRole, app.LookupRole},
		{"GET /users", auth.ActionListUsers, app.ListUsers},
		{"PATCH /users/{id}", auth.ActionUpdateUserRole, app.UpdateUserRole},
		{"DELETE /users/{id}", auth.ActionDeleteUser, app.DeleteUser},
		{"POST /login", auth.ActionLogin, app.Login},

		// Applications
		{"POST /applied-loan", auth.ActionSubmitApplication, app.SubmitApplication},
		{"GET /applied-loans", auth.ActionListApplications, app.ListApplications},
		{"PATCH /applied-loan/{id}", auth.ActionUpdateApplicationStatus, app.UpdateApplicationStatus},
		{"DELETE /applied-loan/{id}", auth.ActionDeleteApplication, app.DeleteApplication},
	}
}

// NewRouter binds every route to its handler. Protected routes run
// Authenticate and Authorize first; all routes share CORS, request logging
// and panic recovery.
func NewRouter(app *handlers.App, logger *logrus.Entry) http.Handler {
	mux := http.NewServeMux()

	for _, rt := range routeTable(app) {
		var h http.Handler = rt.handler
		if !auth.IsPublic(rt.action) {
			h = middleware.Authenticate(app.Tokens, middleware.Authorize(rt.action, logger, h))
		}
		mux.Handle(rt.pattern, h)
	}

	return withCORS(logging.RequestLogger(logger, handlers.RecoverWrapper(logger, mux)))
}
