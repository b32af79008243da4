package api

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/netdash/authcore/internal/session"
	"github.com/netdash/authcore/internal/store"
	"github.com/netdash/authcore/model"
)

// AuthHandler exposes the login state machine: first factor, TOTP challenge,
// logout and the session snapshot.
type AuthHandler struct {
	sessionManager *session.Manager
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Success           bool   `json:"success"`
	MfaRequired       bool   `json:"mfaRequired,omitempty"`
	ChallengeToken    string `json:"challengeToken,omitempty"`
	AttemptsRemaining int    `json:"attemptsRemaining"`
	Locked            bool   `json:"locked,omitempty"`
	RetryAfterSeconds int    `json:"retryAfterSeconds,omitempty"`
}

func (h *AuthHandler) PostLogin(ctx *fiber.Ctx) error {
	var req loginRequest
	if err := ctx.BodyParser(&req); err != nil || req.Username == "" || req.Password == "" {
		return ctx.Status(fiber.StatusBadRequest).JSON(
			NewErrorResponse(fiber.StatusBadRequest, "MISSING_CREDENTIALS", "Username and password are required."))
	}

	result, err := h.sessionManager.Login(ctx.Context(), req.Username, req.Password)
	if err != nil {
		// storage failure is fatal to this attempt; never a stack trace
		if errors.Is(err, store.ErrUnavailable) {
			return ctx.Status(fiber.StatusServiceUnavailable).JSON(
				NewErrorResponse(fiber.StatusServiceUnavailable, "TRY_AGAIN", "Sign-in is temporarily unavailable. Try again."))
		}
		slog.Error("Login failed", "error", err)
		return ctx.Status(fiber.StatusInternalServerError).JSON(
			NewErrorResponse(fiber.StatusInternalServerError, "INTERNAL", "Internal server error"))
	}

	return ctx.JSON(NewDataResponse(loginResponse{
		Success:           result.Success,
		MfaRequired:       result.MfaRequired,
		ChallengeToken:    result.ChallengeToken,
		AttemptsRemaining: result.AttemptsRemaining,
		Locked:            result.Locked,
		RetryAfterSeconds: result.RetryAfterSeconds,
	}))
}

type verifyChallengeRequest struct {
	ChallengeToken string `json:"challengeToken"`
	Code           string `json:"code"`
}

type verifyChallengeResponse struct {
	Verified bool   `json:"verified"`
	Reason   string `json:"reason,omitempty"`
}

func (h *AuthHandler) PostVerifyChallenge(ctx *fiber.Ctx) error {
	var req verifyChallengeRequest
	if err := ctx.BodyParser(&req); err != nil || req.Code == "" {
		return ctx.Status(fiber.StatusBadRequest).JSON(
			NewErrorResponse(fiber.StatusBadRequest, "MISSING_CODE", "Verification code is required."))
	}

	verified, err := h.sessionManager.VerifyChallenge(ctx.Context(), req.ChallengeToken, req.Code)
	if err != nil {
		switch {
		case errors.Is(err, session.ErrNoPendingChallenge):
			return ctx.Status(fiber.StatusConflict).JSON(
				NewErrorResponse(fiber.StatusConflict, "NO_CHALLENGE", "No verification is pending."))
		case errors.Is(err, session.ErrChallengeExpired):
			return ctx.JSON(NewDataResponse(verifyChallengeResponse{Reason: "challenge_expired"}))
		case errors.Is(err, session.ErrChallengeAttemptsExceeded):
			return ctx.JSON(NewDataResponse(verifyChallengeResponse{Reason: "too_many_attempts"}))
		default:
			slog.Error("Challenge verification failed", "error", err)
			return ctx.Status(fiber.StatusInternalServerError).JSON(
				NewErrorResponse(fiber.StatusInternalServerError, "INTERNAL", "Internal server error"))
		}
	}
	// a wrong code is just "invalid code"; expired vs wrong is never disclosed
	return ctx.JSON(NewDataResponse(verifyChallengeResponse{Verified: verified}))
}

func (h *AuthHandler) PostCancelChallenge(ctx *fiber.Ctx) error {
	h.sessionManager.CancelChallenge()
	return ctx.SendStatus(fiber.StatusNoContent)
}

func (h *AuthHandler) PostLogout(ctx *fiber.Ctx) error {
	h.sessionManager.Logout()
	return ctx.SendStatus(fiber.StatusNoContent)
}

type sessionResponse struct {
	Authenticated bool              `json:"authenticated"`
	MfaPending    bool              `json:"mfaPending,omitempty"`
	User          *UserInfoResponse `json:"user,omitempty"`
	Role          model.Role        `json:"role,omitempty"`
}

func (h *AuthHandler) GetSession(ctx *fiber.Ctx) error {
	snap := h.sessionManager.Session()
	resp := sessionResponse{
		Authenticated: snap.Authenticated,
		MfaPending:    snap.MfaPending,
		Role:          snap.Role,
	}
	if snap.User != nil {
		resp.User = &UserInfoResponse{
			ID:          snap.User.ID,
			Username:    snap.User.Username,
			Role:        string(snap.User.Role),
			Status:      string(snap.User.Status),
			LastLoginAt: snap.User.LastLoginAt,
		}
	}
	return ctx.JSON(NewDataResponse(resp))
}

func NewAuthHandler(sessionManager *session.Manager) *AuthHandler {
	return &AuthHandler{sessionManager: sessionManager}
}
