package handlers

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"

	"microloan/auth"
	"microloan/models"
	"microloan/repository"
)

var fixedNow = time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)

// ids are hex strings so "zz" style values can stand in for malformed ids.
func fakeID(n int) string { return fmt.Sprintf("%024x", n) }

func checkID(id string) error {
	if len(id) != 24 || strings.Trim(id, "0123456789abcdef") != "" {
		return repository.ErrInvalidID
	}
	return nil
}

type fakeUsers struct {
	mu    sync.Mutex
	next  int
	users []*models.AppUser
	err   error
}

func (f *fakeUsers) CreateUser(_ context.Context, u *models.AppUser) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	for _, existing := range f.users {
		if existing.Email == u.Email {
			return repository.ErrDuplicate
		}
	}
	f.next++
	u.ID = fakeID(f.next)
	cp := *u
	f.users = append(f.users, &cp)
	return nil
}

func (f *fakeUsers) GetUserByEmail(_ context.Context, email string) (*models.AppUser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	for _, u := range f.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeUsers) GetUserByID(_ context.Context, id string) (*models.AppUser, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	for _, u := range f.users {
		if u.ID == id {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeUsers) ListUsers(context.Context) ([]*models.AppUser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	out := make([]*models.AppUser, 0, len(f.users))
	for _, u := range f.users {
		cp := *u
		out = append(out, &cp)
	}
	return out, nil
}

func (f *fakeUsers) UpdateUserRole(_ context.Context, id, role string) error {
	if err := checkID(id); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.ID == id {
			u.Role = role
			return nil
		}
	}
	return repository.ErrNotFound
}

func (f *fakeUsers) DeleteUser(_ context.Context, id string) error {
	if err := checkID(id); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, u := range f.users {
		if u.ID == id {
			f.users = append(f.users[:i], f.users[i+1:]...)
			return nil
		}
	}
	return repository.ErrNotFound
}

func (f *fakeUsers) add(email, role string) *models.AppUser {
	u := &models.AppUser{Email: email, Role: role, CreatedAt: fixedNow}
	if err := f.CreateUser(context.Background(), u); err != nil {
		panic(err)
	}
	return u
}

type fakeLoans struct {
	mu    sync.Mutex
	loans []*models.Loan
	err   error
}

func (f *fakeLoans) CreateLoan(_ context.Context, l *models.Loan) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	l.ID = fakeID(len(f.loans) + 1)
	cp := *l
	f.loans = append(f.loans, &cp)
	return nil
}

func (f *fakeLoans) ListLoans(context.Context) ([]*models.Loan, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return append([]*models.Loan(nil), f.loans...), nil
}

func (f *fakeLoans) ListLoansWindow(_ context.Context, skip, limit int64) ([]*models.Loan, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	if skip >= int64(len(f.loans)) {
		return nil, nil
	}
	end := skip + limit
	if end > int64(len(f.loans)) {
		end = int64(len(f.loans))
	}
	return append([]*models.Loan(nil), f.loans[skip:end]...), nil
}

func (f *fakeLoans) GetLoanByID(_ context.Context, id string) (*models.Loan, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, l := range f.loans {
		if l.ID == id {
			return l, nil
		}
	}
	return nil, nil
}

type fakeApplications struct {
	mu   sync.Mutex
	apps []*models.LoanApplication
	err  error
}

func (f *fakeApplications) CreateApplication(_ context.Context, a *models.LoanApplication) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	for _, existing := range f.apps {
		if existing.UserEmail == a.UserEmail && existing.LoanTitle == a.LoanTitle {
			return repository.ErrDuplicate
		}
	}
	a.ID = fakeID(len(f.apps) + 1)
	cp := *a
	f.apps = append(f.apps, &cp)
	return nil
}

func (f *fakeApplications) ListApplications(_ context.Context, email string) ([]*models.LoanApplication, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	var out []*models.LoanApplication
	for _, a := range f.apps {
		if email == "" || a.UserEmail == email {
			cp := *a
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeApplications) UpdateApplicationStatus(_ context.Context, id, status string) error {
	if err := checkID(id); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.apps {
		if a.ID == id {
			a.Status = status
			return nil
		}
	}
	return repository.ErrNotFound
}

func (f *fakeApplications) DeleteApplication(_ context.Context, id string) error {
	if err := checkID(id); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, a := range f.apps {
		if a.ID == id {
			f.apps = append(f.apps[:i], f.apps[i+1:]...)
			return nil
		}
	}
	return repository.ErrNotFound
}

type fakeRoleCache struct {
	roles       map[string]string
	invalidated []string
	setErr      error
}

func (c *fakeRoleCache) GetRole(_ context.Context, email string) (string, bool, error) {
	role, ok := c.roles[email]
	return role, ok, nil
}

func (c *fakeRoleCache) FillRole(_ context.Context, email, role string) error {
	if _, ok := c.roles[email]; ok {
		return nil
	}
	if c.roles == nil {
		c.roles = map[string]string{}
	}
	c.roles[email] = role
	return nil
}

func (c *fakeRoleCache) SetRole(_ context.Context, email, role string) error {
	if c.setErr != nil {
		return c.setErr
	}
	if c.roles == nil {
		c.roles = map[string]string{}
	}
	c.roles[email] = role
	return nil
}

func (c *fakeRoleCache) Invalidate(_ context.Context, email string) error {
	delete(c.roles, email)
	c.invalidated = append(c.invalidated, email)
	return nil
}

// hookedUsers runs afterRead once, after a user has been read by email and
// before the caller sees the result.
type hookedUsers struct {
	*fakeUsers
	afterRead func()
}

func (h *hookedUsers) GetUserByEmail(ctx context.Context, email string) (*models.AppUser, error) {
	u, err := h.fakeUsers.GetUserByEmail(ctx, email)
	if h.afterRead != nil {
		fn := h.afterRead
		h.afterRead = nil
		fn()
	}
	return u, err
}

type fakeImages struct {
	keys    []string
	deleted []string
	err     error
}

func (f *fakeImages) Delete(_ context.Context, fileURL string) error {
	f.deleted = append(f.deleted, fileURL)
	return nil
}

func (f *fakeImages) Upload(_ context.Context, key, contentType string, body []byte) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.keys = append(f.keys, key)
	return "https://cdn.example.com/" + key, nil
}

type fakePinger struct{ err error }

func (p fakePinger) Ping(context.Context) error { return p.err }

var errStoreDown = errors.New("connection refused")

type testApp struct {
	*App
	users *fakeUsers
	loans *fakeLoans
	apps  *fakeApplications
	hook  *logtest.Hook
}

func newTestApp() *testApp {
	logger, hook := logtest.NewNullLogger()
	tokens, err := auth.NewTokenService("handler-secret", 0)
	if err != nil {
		panic(err)
	}
	users := &fakeUsers{}
	loans := &fakeLoans{}
	apps := &fakeApplications{}
	return &testApp{
		App: &App{
			Users:        users,
			Loans:        loans,
			Applications: apps,
			Tokens:       tokens,
			Logger:       logrus.NewEntry(logger),
			Now:          func() time.Time { return fixedNow },
		},
		users: users,
		loans: loans,
		apps:  apps,
		hook:  hook,
	}
}
