package handler

import (
	"encoding/json"
	"mime"
	"net/http"

	"github.com/go-magic-auth/internal/application/auth"
	"github.com/go-magic-auth/internal/pkg/validate"
	"github.com/go-magic-auth/internal/transport/http/middleware"
)

// Intent names accepted in the "intent" field.
const (
	IntentSendCode   = "send-code"
	IntentVerifyCode = "verify-code"
	IntentOnboard    = "onboard"
)

// AuthRequest is the combined body of POST /v1/auth, as JSON or form fields.
type AuthRequest struct {
	Intent string `json:"intent" validate:"required,oneof=send-code verify-code onboard"`
	Email  string `json:"email"`
	Name   string `json:"name"`
	Code   string `json:"code" validate:"required_if=Intent verify-code"`
	Target string `json:"target" validate:"required_if=Intent verify-code"`
	Type   string `json:"type" validate:"required_if=Intent verify-code"`
}

// AuthHandler drives the passwordless login flow over HTTP.
type AuthHandler struct {
	svc     auth.Service
	cookies *Cookies
}

func NewAuthHandler(svc auth.Service, cookies *Cookies) *AuthHandler {
	return &AuthHandler{svc: svc, cookies: cookies}
}

// Submit handles POST /v1/auth.
func (h *AuthHandler) Submit(w http.ResponseWriter, r *http.Request) {
	req, err := decodeAuthRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	var in auth.Intent
	switch req.Intent {
	case IntentSendCode:
		in = auth.SendCode{Email: req.Email}
	case IntentVerifyCode:
		in = auth.VerifyCode{Code: req.Code, Target: req.Target, Type: req.Type}
	case IntentOnboard:
		// Only an address that just passed code verification may be onboarded.
		email, ok := h.cookies.onboardingEmail(r)
		if !ok {
			writeError(w, http.StatusForbidden, "email not verified")
			return
		}
		in = auth.Onboard{Email: email, Name: req.Name}
	}
	h.handle(w, r, in)
}

// Verify handles the magic link GET /v1/verify?type=&target=&code=.
func (h *AuthHandler) Verify(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	h.handle(w, r, auth.VerifyCode{Code: q.Get("code"), Target: q.Get("target"), Type: q.Get("type")})
}

func (h *AuthHandler) handle(w http.ResponseWriter, r *http.Request, in auth.Intent) {
	out, err := h.svc.Handle(r.Context(), in)
	if err != nil {
		httpError(w, err)
		return
	}
	if !out.OK() {
		writeJSON(w, http.StatusUnprocessableEntity, FailureEnvelope{Success: false, Error: string(out.Failure.Code)})
		return
	}

	rd := out.Redirect
	switch {
	case rd.Session != nil:
		if err := h.cookies.setSession(w, rd.Session); err != nil {
			httpError(w, err)
			return
		}
		h.cookies.clear(w, middleware.OnboardingCookie)
	case rd.Path == auth.PathOnboarding:
		if err := h.cookies.setOnboarding(w, rd.Query.Get("email")); err != nil {
			httpError(w, err)
			return
		}
	}
	http.Redirect(w, r, rd.Location(), http.StatusSeeOther)
}

func decodeAuthRequest(r *http.Request) (AuthRequest, error) {
	var req AuthRequest
	mt, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mt == "application/json" {
		err := json.NewDecoder(r.Body).Decode(&req)
		return req, err
	}
	if err := r.ParseForm(); err != nil {
		return req, err
	}
	req = AuthRequest{
		Intent: r.PostForm.Get("intent"),
		Email:  r.PostForm.Get("email"),
		Name:   r.PostForm.Get("name"),
		Code:   r.PostForm.Get("code"),
		Target: r.PostForm.Get("target"),
		Type:   r.PostForm.Get("type"),
	}
	return req, nil
}
