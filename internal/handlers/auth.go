// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"encoding/base64"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/pquerna/otp/totp"
	qrcode "github.com/skip2/go-qrcode"

	"starling/internal/middleware"
	"starling/internal/models"
	"starling/internal/render"
	"starling/internal/session"
	"starling/internal/store"
)

// Sign-in is two steps: a password creates a session with TwoFADone unset,
// and a valid TOTP code completes it. Users without an enabled secret are
// sent through enrollment first.
const (
	loginURL     = "/admin/login"
	setupURL     = "/admin/2fa/setup"
	verifyURL    = "/admin/2fa/verify"
	dashboardURL = "/admin/dashboard"

	// totpIssuer names the account in authenticator apps.
	totpIssuer = "Starling"

	errBadCode = "Invalid code. Please try again."
)

// Auth groups the sign-in handlers.
type Auth struct {
	renderer  *render.Renderer
	sessions  *session.Store
	userStore *store.UserStore
}

// NewAuth creates the sign-in handler group.
func NewAuth(renderer *render.Renderer, sessions *session.Store, userStore *store.UserStore) *Auth {
	return &Auth{renderer: renderer, sessions: sessions, userStore: userStore}
}

// LoginPage renders the sign-in form, or skips it for a complete session.
func (a *Auth) LoginPage(w http.ResponseWriter, r *http.Request) {
	if sess := middleware.SessionFromCtx(r.Context()); sess != nil && sess.TwoFADone {
		http.Redirect(w, r, dashboardURL, http.StatusSeeOther)
		return
	}
	a.renderLogin(w, r, "", "")
}

// LoginSubmit checks the password and starts a half-authenticated session.
func (a *Auth) LoginSubmit(w http.ResponseWriter, r *http.Request) {
	email := strings.TrimSpace(r.FormValue("email"))

	user, err := a.userStore.FindByEmail(r.Context(), email)
	if err != nil {
		slog.Error("login lookup failed", "error", err)
		a.renderLogin(w, r, email, "An unexpected error occurred.")
		return
	}
	if user == nil || !a.userStore.CheckPassword(user, r.FormValue("password")) {
		slog.Info("login rejected", "email", email)
		a.renderLogin(w, r, email, "Invalid email or password.")
		return
	}

	_, err = a.sessions.Create(r.Context(), w, &session.Data{
		UserID:      user.ID,
		Email:       user.Email,
		DisplayName: user.DisplayName,
		Role:        string(user.Role),
	})
	if err != nil {
		internalError(w, "create session", err)
		return
	}

	next := verifyURL
	if user.Needs2FASetup() {
		next = setupURL
	}
	http.Redirect(w, r, next, http.StatusSeeOther)
}

// TwoFASetupPage issues a fresh TOTP secret and shows it as a QR code. A
// user whose secret is already enabled cannot replace it from here.
func (a *Auth) TwoFASetupPage(w http.ResponseWriter, r *http.Request) {
	user, ok := a.sessionUser(w, r)
	if !ok {
		return
	}
	if user.TOTPEnabled {
		http.Redirect(w, r, dashboardURL, http.StatusSeeOther)
		return
	}

	key, err := totp.Generate(totp.GenerateOpts{Issuer: totpIssuer, AccountName: user.Email})
	if err != nil {
		internalError(w, "generate totp key", err)
		return
	}
	if err := a.userStore.SetTOTPSecret(r.Context(), user.ID, key.Secret()); err != nil {
		internalError(w, "save totp secret", err)
		return
	}
	a.renderSetup(w, r, user.Email, key.Secret(), "")
}

// TwoFAVerifyPage renders the code form for enrolled users.
func (a *Auth) TwoFAVerifyPage(w http.ResponseWriter, r *http.Request) {
	if middleware.SessionFromCtx(r.Context()) == nil {
		http.Redirect(w, r, loginURL, http.StatusSeeOther)
		return
	}
	a.renderer.Page(w, r, "2fa_verify", &render.PageData{Title: "Two-Factor Authentication"})
}

// TwoFAVerifySubmit checks the TOTP code. The first valid code enables the
// secret; every valid code completes the session under a new id.
func (a *Auth) TwoFAVerifySubmit(w http.ResponseWriter, r *http.Request) {
	user, ok := a.sessionUser(w, r)
	if !ok {
		return
	}
	if user.TOTPSecret == nil {
		http.Redirect(w, r, setupURL, http.StatusSeeOther)
		return
	}

	if !totp.Validate(strings.TrimSpace(r.FormValue("code")), *user.TOTPSecret) {
		if user.TOTPEnabled {
			a.renderer.Page(w, r, "2fa_verify", &render.PageData{
				Title: "Two-Factor Authentication",
				Data:  map[string]any{"Error": errBadCode},
			})
		} else {
			a.renderSetup(w, r, user.Email, *user.TOTPSecret, errBadCode)
		}
		return
	}

	if !user.TOTPEnabled {
		if err := a.userStore.EnableTOTP(r.Context(), user.ID); err != nil {
			internalError(w, "enable totp", err)
			return
		}
	}

	sess := middleware.SessionFromCtx(r.Context())
	sess.TwoFADone = true
	if err := a.sessions.Rotate(r.Context(), w, r, sess); err != nil {
		internalError(w, "rotate session", err)
		return
	}
	slog.Info("admin signed in", "user", user.Email)
	http.Redirect(w, r, dashboardURL, http.StatusSeeOther)
}

// Logout ends the session.
func (a *Auth) Logout(w http.ResponseWriter, r *http.Request) {
	if err := a.sessions.Destroy(r.Context(), w, r); err != nil {
		slog.Warn("session destroy failed", "error", err)
	}
	http.Redirect(w, r, loginURL, http.StatusSeeOther)
}

// sessionUser loads the user behind the request session. It writes the
// response and reports false when there is no session or no such user.
func (a *Auth) sessionUser(w http.ResponseWriter, r *http.Request) (*models.User, bool) {
	sess := middleware.SessionFromCtx(r.Context())
	if sess == nil {
		http.Redirect(w, r, loginURL, http.StatusSeeOther)
		return nil, false
	}
	user, err := a.userStore.FindByID(r.Context(), sess.UserID)
	if err != nil {
		internalError(w, "load session user", err)
		return nil, false
	}
	if user == nil {
		// Deleted while signed in.
		a.Logout(w, r)
		return nil, false
	}
	return user, true
}

func (a *Auth) renderLogin(w http.ResponseWriter, r *http.Request, email, msg string) {
	data := map[string]any{"Email": email}
	if msg != "" {
		data["Error"] = msg
	}
	a.renderer.Page(w, r, "login", &render.PageData{Title: "Sign In", Data: data})
}

func (a *Auth) renderSetup(w http.ResponseWriter, r *http.Request, email, secret, msg string) {
	qr, err := qrDataURI(otpauthURL(email, secret))
	if err != nil {
		slog.Error("qr code generation failed", "error", err)
	}
	data := map[string]any{"QRCode": qr, "Secret": secret}
	if msg != "" {
		data["Error"] = msg
	}
	a.renderer.Page(w, r, "2fa_setup", &render.PageData{
		Title: "Set Up Two-Factor Authentication",
		Data:  data,
	})
}

func internalError(w http.ResponseWriter, what string, err error) {
	slog.Error(what+" failed", "error", err)
	http.Error(w, "Internal Server Error", http.StatusInternalServerError)
}

// otpauthURL builds the provisioning URL authenticator apps scan.
func otpauthURL(email, secret string) string {
	u := url.URL{
		Scheme: "otpauth",
		Host:   "totp",
		Path:   "/" + totpIssuer + ":" + email,
	}
	u.RawQuery = url.Values{"secret": {secret}, "issuer": {totpIssuer}}.Encode()
	return u.String()
}

// qrDataURI encodes content as a base64 PNG QR code.
func qrDataURI(content string) (string, error) {
	png, err := qrcode.Encode(content, qrcode.Medium, 256)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(png), nil
}
