package app

import (
	"errors"
	"net/http"
	"strings"

	"docboard/api/internal/authpw"
	"go.uber.org/zap"
)

// signUpErrors maps sign-up validation failures to responses. Anything not
// listed goes through writeMappedError.
var signUpErrors = []struct {
	err    error
	status int
	code   string
}{
	{authpw.ErrEmailTaken, http.StatusConflict, "EMAIL_EXISTS"},
	{authpw.ErrMissingFields, http.StatusBadRequest, "SIGNUP_FAILED"},
	{authpw.ErrInvalidEmail, http.StatusBadRequest, "SIGNUP_FAILED"},
	{authpw.ErrWeakPassword, http.StatusBadRequest, "SIGNUP_FAILED"},
}

func (s *HTTPServer) writeSignUpError(w http.ResponseWriter, r *http.Request, err error) {
	for _, known := range signUpErrors {
		if errors.Is(err, known.err) {
			writeError(w, known.status, known.code, known.err.Error(), nil)
			return
		}
	}
	s.writeMappedError(w, r, err)
}

// handleAuth serves POST /api/auth/{action}.
func (s *HTTPServer) handleAuth(w http.ResponseWriter, r *http.Request, action string) {
	authSvc := s.service.AuthPasswordService()
	if authSvc == nil {
		writeError(w, http.StatusServiceUnavailable, "AUTH_UNAVAILABLE", "Authentication service not configured", nil)
		return
	}

	var body struct {
		Email       string `json:"email"`
		Password    string `json:"password"`
		DisplayName string `json:"displayName"`
		AvatarURL   string `json:"avatarUrl"`
		Token       string `json:"token"`
		NewPassword string `json:"newPassword"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
		return
	}
	email := strings.ToLower(strings.TrimSpace(body.Email))
	ctx := r.Context()

	switch action {
	case "signup":
		resp, err := authSvc.SignUp(ctx, authpw.SignUpRequest{
			Email:       body.Email,
			Password:    body.Password,
			DisplayName: body.DisplayName,
			AvatarURL:   body.AvatarURL,
		})
		if err != nil {
			s.writeSignUpError(w, r, err)
			return
		}
		payload := map[string]any{"userId": resp.UserID}
		if s.service.SMTPConfigured() {
			s.service.SendVerificationEmail(email, strings.TrimSpace(body.DisplayName), resp.VerificationToken)
			payload["message"] = "Please check your email to verify your account"
		} else {
			// Without SMTP the token is returned to the caller.
			payload["message"] = "Account created. Verify your email to continue."
			payload["devVerificationToken"] = resp.VerificationToken
		}
		writeJSON(w, http.StatusCreated, payload)

	case "signin":
		resp, err := authSvc.SignIn(ctx, authpw.SignInRequest{Email: body.Email, Password: body.Password})
		if err != nil {
			writeError(w, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid email or password", nil)
			return
		}
		if resp.RequiresVerify {
			writeError(w, http.StatusForbidden, "EMAIL_NOT_VERIFIED", "Please verify your email before signing in", nil)
			return
		}
		session, err := s.service.CreateSession(ctx, resp.User.ID)
		if err != nil {
			s.logger.Error("create session", zap.String("user_id", resp.User.ID), zap.Error(err))
			writeError(w, http.StatusInternalServerError, "SESSION_FAILED", "Failed to create session", nil)
			return
		}
		writeJSON(w, http.StatusOK, sessionPayload(session))

	case "verify-email":
		if err := authSvc.VerifyEmail(ctx, body.Token); err != nil {
			writeError(w, http.StatusBadRequest, "VERIFICATION_FAILED", err.Error(), nil)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"message": "Email verified successfully"})

	case "reset-password/request":
		// Unknown emails get the same answer as known ones.
		token, err := authSvc.RequestPasswordReset(ctx, body.Email)
		if err != nil {
			s.logger.Warn("password reset request", zap.Error(err))
		}
		payload := map[string]any{"message": "If an account exists, a reset email has been sent"}
		if s.service.SMTPConfigured() {
			s.service.SendPasswordResetEmail(email, token)
		} else if token != "" {
			payload["devResetToken"] = token
		}
		writeJSON(w, http.StatusOK, payload)

	case "reset-password":
		err := authSvc.ResetPassword(ctx, authpw.ResetPasswordRequest{Token: body.Token, NewPassword: body.NewPassword})
		if err != nil {
			writeError(w, http.StatusBadRequest, "RESET_FAILED", err.Error(), nil)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"message": "Password reset successfully"})

	default:
		writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
	}
}
