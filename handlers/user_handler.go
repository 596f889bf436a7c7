package handlers

import (
	"errors"
	"net/http"
	"net/mail"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"microloan/auth"
	"microloan/models"
	"microloan/repository"
)

const minPasswordLength = 6

type registerRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	PhotoURL string `json:"photoURL"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string          `json:"token"`
	User  *models.AppUser `json:"user"`
}

type updateRoleRequest struct {
	Role string `json:"role"`
}

type roleResponse struct {
	Email string `json:"email"`
	Role  string `json:"role"`
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// validEmail accepts a bare addr-spec; display names and angle brackets
// are rejected.
func validEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Name == "" && addr.Address == email
}

// cacheRole overwrites the cached role for email. When the write fails the
// entry is dropped so lookups fall back to the store.
func (a *App) cacheRole(r *http.Request, email, role string) {
	ctx := r.Context()
	err := a.roles().SetRole(ctx, email, role)
	if err == nil {
		return
	}
	a.log(r).WithError(err).Warn("role cache write failed")
	if err := a.roles().Invalidate(ctx, email); err != nil {
		a.log(r).WithError(err).Warn("role cache invalidation failed")
	}
}

// RegisterUser creates a borrower account. A second registration with the
// same email is rejected without touching the stored user.
func (a *App) RegisterUser(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if apiErr := decodeJSON(w, r, &req); apiErr != nil {
		WriteError(w, apiErr)
		return
	}

	email := normalizeEmail(req.Email)
	if email == "" {
		WriteError(w, missingFields("email"))
		return
	}
	if !validEmail(email) {
		WriteError(w, InvalidInput("email is not valid"))
		return
	}

	user := &models.AppUser{
		Email:     email,
		Name:      strings.TrimSpace(req.Name),
		PhotoURL:  strings.TrimSpace(req.PhotoURL),
		Role:      models.RoleBorrower,
		CreatedAt: a.now().UTC(),
	}

	if req.Password != "" {
		if len(req.Password) < minPasswordLength {
			WriteError(w, InvalidInput("password must be at least 6 characters"))
			return
		}
		hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			WriteError(w, InvalidInput("password cannot be used"))
			return
		}
		user.PasswordHash = string(hashed)
	}

	if err := a.Users.CreateUser(r.Context(), user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			WriteError(w, Conflict("user already exists"))
			return
		}
		a.fail(w, r, "register user", err)
		return
	}

	writeJSON(w, http.StatusCreated, ApiResponse{
		Success: true,
		Message: "User registered successfully",
		ID:      user.ID,
	})
}

// LookupRole answers the stored role for an email, defaulting to borrower
// for unknown users.
func (a *App) LookupRole(w http.ResponseWriter, r *http.Request) {
	email := normalizeEmail(r.PathValue("email"))
	if email == "" {
		WriteError(w, missingFields("email"))
		return
	}

	ctx := r.Context()
	if role, ok, err := a.roles().GetRole(ctx, email); err != nil {
		a.log(r).WithError(err).Warn("role cache read failed")
	} else if ok {
		writeJSON(w, http.StatusOK, roleResponse{Email: email, Role: role})
		return
	}

	user, err := a.Users.GetUserByEmail(ctx, email)
	if err != nil {
		a.fail(w, r, "lookup role", err)
		return
	}

	role := models.RoleBorrower
	if user != nil {
		role = user.Role
		if err := a.roles().FillRole(ctx, email, role); err != nil {
			a.log(r).WithError(err).Warn("role cache write failed")
		}
	}

	writeJSON(w, http.StatusOK, roleResponse{Email: email, Role: role})
}

func (a *App) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := a.Users.ListUsers(r.Context())
	if err != nil {
		a.fail(w, r, "list users", err)
		return
	}
	if users == nil {
		users = []*models.AppUser{}
	}
	writeJSON(w, http.StatusOK, users)
}

// UpdateUserRole changes another user's role. The caller may never target
// themself, whichever role they request.
func (a *App) UpdateUserRole(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := r.PathValue("id")
	target, err := a.Users.GetUserByID(ctx, id)
	if err != nil {
		a.fail(w, r, "find user", err)
		return
	}
	if target == nil {
		WriteError(w, NotFound("user not found"))
		return
	}

	decision := auth.Decide(auth.IdentityFrom(ctx), auth.ActionUpdateUserRole, auth.Target{Email: target.Email})
	if !decision.Allowed() {
		a.log(r).WithField("reason", decision.Reason).Info("role update denied")
		WriteDecision(w, decision)
		return
	}

	var req updateRoleRequest
	if apiErr := decodeJSON(w, r, &req); apiErr != nil {
		WriteError(w, apiErr)
		return
	}
	role := strings.ToLower(strings.TrimSpace(req.Role))
	if role == "" {
		WriteError(w, missingFields("role"))
		return
	}
	if !models.ValidRole(role) {
		WriteError(w, InvalidInput("role must be borrower or manager"))
		return
	}

	if err := a.Users.UpdateUserRole(ctx, id, role); err != nil {
		a.fail(w, r, "update user role", err)
		return
	}
	a.cacheRole(r, target.Email, role)

	writeJSON(w, http.StatusOK, ApiResponse{
		Success: true,
		Message: "User role updated",
		ID:      id,
	})
}

func (a *App) DeleteUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := r.PathValue("id")

	target, err := a.Users.GetUserByID(ctx, id)
	if err != nil {
		a.fail(w, r, "find user", err)
		return
	}
	if target == nil {
		WriteError(w, NotFound("user not found"))
		return
	}

	if err := a.Users.DeleteUser(ctx, id); err != nil {
		a.fail(w, r, "delete user", err)
		return
	}
	// A deleted user looks up as borrower.
	a.cacheRole(r, target.Email, models.RoleBorrower)

	writeJSON(w, http.StatusOK, ApiResponse{
		Success: true,
		Message: "User deleted",
		ID:      id,
	})
}

// Login issues a session token for a registered email. Users registered
// with a password must supply it.
func (a *App) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if apiErr := decodeJSON(w, r, &req); apiErr != nil {
		WriteError(w, apiErr)
		return
	}
	email := normalizeEmail(req.Email)
	if email == "" {
		WriteError(w, missingFields("email"))
		return
	}

	user, err := a.Users.GetUserByEmail(r.Context(), email)
	if err != nil {
		a.fail(w, r, "login", err)
		return
	}
	if user == nil {
		WriteError(w, NotFound("user not found"))
		return
	}

	if user.PasswordHash != "" {
		if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
			WriteError(w, Unauthenticated("invalid email or password"))
			return
		}
	}

	token, err := a.Tokens.Issue(auth.Identity{Email: user.Email, Role: user.Role})
	if err != nil {
		a.log(r).WithError(err).Error("token issue failed")
		WriteError(w, &APIError{Kind: KindInternal, Message: "could not issue token"})
		return
	}

	writeJSON(w, http.StatusOK, loginResponse{Token: token, User: user})
}
