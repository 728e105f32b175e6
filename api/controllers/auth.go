package controllers

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/marketdesk/marketdesk/api/responses"
	"github.com/marketdesk/marketdesk/internal/auth"
	"github.com/marketdesk/marketdesk/internal/users"
	"github.com/marketdesk/marketdesk/pkg/auth/session"
	pkgerrors "github.com/marketdesk/marketdesk/pkg/errors"
	"github.com/marketdesk/marketdesk/pkg/logger"
)

const signupPath = "/auth/signup"

type signupService interface {
	Signup(ctx context.Context, input auth.SignupInput) (*users.UserDTO, error)
}

type loginService interface {
	Login(ctx context.Context, input auth.LoginInput) (*session.Data, error)
}

type sessionIssuer interface {
	Create(ctx context.Context, data session.Data) (string, error)
	Destroy(ctx context.Context, token string) error
	SetCookie(w http.ResponseWriter, token string)
	ClearCookie(w http.ResponseWriter)
	TokenFromRequest(r *http.Request) string
}

type signupForm struct {
	FullName string
	Email    string
	Phone    string
}

type loginForm struct {
	Next  string
	Email string
}

func SignupForm(pages *Pages) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		pages.Render(w, r, "signup.html", "Sign up", signupForm{})
	}
}

// Signup creates a customer account and sends the visitor to log in.
func Signup(pages *Pages, svc signupService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		input := auth.SignupInput{
			FullName: r.PostFormValue("full_name"),
			Email:    r.PostFormValue("email"),
			Password: r.PostFormValue("password"),
		}
		if phone := strings.TrimSpace(r.PostFormValue("phone")); phone != "" {
			input.Phone = &phone
		}

		user, err := svc.Signup(r.Context(), input)
		if err != nil {
			pages.Fail(w, r, err, signupPath)
			return
		}
		pages.Success(w, r, "User created successfully "+user.FullName, responses.LoginPath)
	}
}

func LoginForm(pages *Pages) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		pages.Render(w, r, "login.html", "Log in", loginForm{
			Next: responses.SafeNext(r.URL.Query().Get("next")),
		})
	}
}

// Login checks credentials, replaces any existing session and follows next
// when it points back into the site.
func Login(pages *Pages, svc loginService, sessions sessionIssuer, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		next := responses.SafeNext(r.PostFormValue("next"))

		data, err := svc.Login(ctx, auth.LoginInput{
			Email:    r.PostFormValue("email"),
			Password: r.PostFormValue("password"),
		})
		if err != nil {
			if pkgerrors.Is(err, pkgerrors.CodeUnauthorized) || pkgerrors.Is(err, pkgerrors.CodeValidation) {
				if logg != nil {
					logg.Warn(logg.WithField(ctx, "reason", err.Error()), "login.failed")
				}
				typed := pkgerrors.As(err)
				pages.flasher.Add(w, r, responses.FlashError, typed.Message())
				responses.Redirect(w, r, responses.LoginURL(next))
				return
			}
			pages.Fail(w, r, err, responses.LoginURL(next))
			return
		}

		if old := sessions.TokenFromRequest(r); old != "" {
			if err := sessions.Destroy(ctx, old); err != nil && logg != nil {
				logg.Error(ctx, "failed to destroy previous session", err)
			}
		}
		token, err := sessions.Create(ctx, *data)
		if err != nil {
			pages.Fail(w, r, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create session"), responses.LoginURL(next))
			return
		}
		sessions.SetCookie(w, token)

		target := next
		if target == "" {
			target = responses.HomePath
		}
		pages.Success(w, r, fmt.Sprintf("Logged in successfully: %s", data.DisplayName), target)
	}
}

// Logout destroys the server-side session and clears the cookie.
func Logout(pages *Pages, sessions sessionIssuer, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if token := sessions.TokenFromRequest(r); token != "" {
			if err := sessions.Destroy(r.Context(), token); err != nil && logg != nil {
				logg.Error(r.Context(), "failed to destroy session", err)
			}
		}
		sessions.ClearCookie(w)
		pages.Notice(w, r, "You have been logged out", responses.HomePath)
	}
}
