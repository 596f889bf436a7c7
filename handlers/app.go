package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"microloan/auth"
	"microloan/cache"
	"microloan/repository"
)

// ImageStore holds uploaded loan images. Upload returns the public URL;
// Delete removes the image behind such a URL and ignores URLs it does not
// serve.
type ImageStore interface {
	Upload(ctx context.Context, key, contentType string, body []byte) (string, error)
	Delete(ctx context.Context, fileURL string) error
}

// Pinger reports store reachability for the health endpoint.
type Pinger interface {
	Ping(ctx context.Context) error
}

// App holds everything a handler needs. One App is built at startup and
// shared by all requests.
type App struct {
	Users        repository.UserRepository
	Loans        repository.LoanRepository
	Applications repository.ApplicationRepository
	Tokens       *auth.TokenService
	Roles        cache.RoleCache
	Images       ImageStore
	Store        Pinger
	Logger       *logrus.Entry
	Now          func() time.Time
}

func (a *App) now() time.Time {
	if a.Now != nil {
		return a.Now()
	}
	return time.Now()
}

func (a *App) roles() cache.RoleCache {
	if a.Roles == nil {
		return cache.Noop{}
	}
	return a.Roles
}

func (a *App) log(r *http.Request) *logrus.Entry {
	entry := a.Logger
	if entry == nil {
		entry = logrus.NewEntry(logrus.StandardLogger())
	}
	entry = entry.WithFields(logrus.Fields{"method": r.Method, "path": r.URL.Path})
	if id := auth.IdentityFrom(r.Context()); id != nil {
		entry = entry.WithField("user_email", id.Email)
	}
	return entry
}
