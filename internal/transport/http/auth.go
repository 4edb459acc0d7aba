// internal/transport/http/auth.go
package http

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"

	"backcheck-service/internal/guard"
	"backcheck-service/internal/identity"
	"backcheck-service/internal/middleware"
	"backcheck-service/internal/service"
	"backcheck-service/pkg/models"
)

var authErrorStatus = map[identity.Code]int{
	identity.CodeEmailInUse:      fiber.StatusConflict,
	identity.CodeWeakPassword:    fiber.StatusBadRequest,
	identity.CodeInvalidEmail:    fiber.StatusBadRequest,
	identity.CodeUserNotFound:    fiber.StatusUnauthorized,
	identity.CodeWrongPassword:   fiber.StatusUnauthorized,
	identity.CodeTooManyRequests: fiber.StatusTooManyRequests,
	identity.CodeUserDisabled:    fiber.StatusForbidden,
	identity.CodeInvalidToken:    fiber.StatusUnauthorized,
}

// authFailure renders a flow error as the form message. Unknown errors get
// fallback.
func authFailure(c *fiber.Ctx, err error, fallback string) error {
	if status, ok := authErrorStatus[identity.CodeOf(err)]; ok {
		return c.Status(status).JSON(fiber.Map{"error": identity.Message(err, fallback)})
	}
	if errors.Is(err, service.ErrProfileMissing) {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": service.MsgProfileMissing})
	}
	log.Printf("❌ [AUTH] %s %s failed: %v", c.Method(), c.Path(), err)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": fallback})
}

// alreadySignedIn bounces principals with a session off the sign-in and
// registration endpoints.
func alreadySignedIn(c *fiber.Ctx) (bool, error) {
	p := middleware.ProfileFromContext(c)
	if p == nil {
		return false, nil
	}
	return true, c.Status(fiber.StatusConflict).JSON(fiber.Map{
		"error":    "Already signed in",
		"redirect": guard.HomeRoute(p.Role()),
	})
}

func (h *Handler) RegisterTalent(c *fiber.Ctx) error {
	if done, err := alreadySignedIn(c); done {
		return err
	}
	var req models.RegisterTalentRequest
	if ok, err := h.parseBody(c, &req); !ok {
		return err
	}

	resp, err := h.accounts.RegisterTalent(c.UserContext(), req)
	if err != nil {
		return authFailure(c, err, service.MsgRegisterFailed)
	}
	return c.Status(fiber.StatusCreated).JSON(resp)
}

func (h *Handler) RegisterEmployer(c *fiber.Ctx) error {
	if done, err := alreadySignedIn(c); done {
		return err
	}
	var req models.RegisterEmployerRequest
	if ok, err := h.parseBody(c, &req); !ok {
		return err
	}

	resp, err := h.accounts.RegisterEmployer(c.UserContext(), req)
	if err != nil {
		return authFailure(c, err, service.MsgRegisterFailed)
	}
	return c.Status(fiber.StatusCreated).JSON(resp)
}

func (h *Handler) Login(c *fiber.Ctx) error {
	if done, err := alreadySignedIn(c); done {
		return err
	}
	var req models.LoginRequest
	if ok, err := h.parseBody(c, &req); !ok {
		return err
	}
	if req.Redirect == "" {
		req.Redirect = c.Query("redirect")
	}

	resp, err := h.accounts.SignIn(c.UserContext(), req.Email, req.Password, req.Redirect)
	if err != nil {
		return authFailure(c, err, service.MsgSignInFailed)
	}
	return c.JSON(resp)
}

func (h *Handler) Logout(c *fiber.Ctx) error {
	uid, _ := middleware.GetUserIDFromContext(c)
	route, err := h.accounts.SignOut(c.UserContext(), uid)
	if err != nil {
		log.Printf("❌ [AUTH] sign out failed for %s: %v", uid, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to sign out"})
	}
	return c.JSON(fiber.Map{"redirect": route})
}
