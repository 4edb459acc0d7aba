// internal/transport/http/handlers.go
package http

import (
	"context"
	"errors"
	"log"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"backcheck-service/internal/middleware"
	"backcheck-service/internal/profile"
	"backcheck-service/internal/service"
	"backcheck-service/internal/sse"
	"backcheck-service/internal/validator"
	"backcheck-service/pkg/models"
)

// AvatarUploader is satisfied by *utils.AvatarStore.
type AvatarUploader interface {
	UploadAvatar(ctx context.Context, uid, originalFileName string, content []byte) (string, error)
}

type Handler struct {
	accounts *service.AccountService
	search   *service.SearchService
	profiles *profile.Repository
	avatars  AvatarUploader
	broker   *sse.Broker
	validate *validator.Validator
	timeout  time.Duration
}

func NewHandler(
	accounts *service.AccountService,
	search *service.SearchService,
	profiles *profile.Repository,
	avatars AvatarUploader,
	broker *sse.Broker,
	timeout time.Duration,
) *Handler {
	return &Handler{
		accounts: accounts,
		search:   search,
		profiles: profiles,
		avatars:  avatars,
		broker:   broker,
		validate: validator.New(),
		timeout:  timeout,
	}
}

// Register mounts every /v1 route. auth must be middleware.Authenticate.
func (h *Handler) Register(app fiber.Router, auth fiber.Handler) {
	anyRole := middleware.RequireRole(models.RoleTalent, models.RoleEmployer, models.RoleAdmin)
	employerOnly := middleware.RequireRole(models.RoleEmployer)
	talentOnly := middleware.RequireRole(models.RoleTalent)

	v1 := app.Group("/v1", auth)

	v1.Post("/auth/register/talent", h.RegisterTalent)
	v1.Post("/auth/register/employer", h.RegisterEmployer)
	v1.Post("/auth/login", h.Login)
	v1.Post("/auth/logout", anyRole, h.Logout)
	log.Println("✅ [ROUTES] Registered auth routes: /v1/auth/*")

	v1.Get("/session", h.GetSession)
	v1.Get("/session/events", anyRole, h.SessionEvents)
	v1.Get("/navigate", h.Navigate)
	log.Println("✅ [ROUTES] Registered session routes: /v1/session, /v1/navigate")

	v1.Get("/talent/:publicId", employerOnly, h.GetTalent)
	v1.Get("/talent", employerOnly, h.SearchTalent)
	v1.Get("/history", employerOnly, h.GetHistory)
	log.Println("✅ [ROUTES] Registered employer routes: /v1/talent, /v1/history")

	v1.Get("/me", anyRole, h.GetMe)
	v1.Post("/me/photo", anyRole, h.UploadPhoto)
	v1.Post("/me/devices", talentOnly, h.RegisterDevice)
	v1.Delete("/me/devices", talentOnly, h.UnregisterDevice)
	log.Println("✅ [ROUTES] Registered profile routes: /v1/me*")

	v1.Get("/plans", h.GetPlans)
}

func (h *Handler) GetPlans(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"plans":                models.Plans,
		"freeSearchesPerMonth": models.FreeSearchesPerMonth,
	})
}

func (h *Handler) withTimeout(c *fiber.Ctx) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.UserContext(), h.timeout)
}

// parseBody decodes and validates the request body into dest. It writes the
// 400 response itself and returns false on failure.
func (h *Handler) parseBody(c *fiber.Ctx, dest interface{}) (bool, error) {
	if err := c.BodyParser(dest); err != nil {
		return false, c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON"})
	}
	if err := h.validate.Validate(dest); err != nil {
		var verr *validator.ValidationError
		if errors.As(err, &verr) {
			return false, c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error":  verr.Summary(),
				"fields": verr.Errors,
			})
		}
		return false, c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	return true, nil
}

func getQueryInt(c *fiber.Ctx, key string, def, min, max int) int {
	s := c.Query(key)
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil || v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
