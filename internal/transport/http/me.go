// internal/transport/http/me.go
package http

import (
	"errors"
	"io"
	"log"

	"github.com/gofiber/fiber/v2"

	"backcheck-service/internal/fcm"
	"backcheck-service/internal/guard"
	"backcheck-service/internal/middleware"
	"backcheck-service/pkg/models"
	"backcheck-service/utils"
)

func (h *Handler) GetMe(c *fiber.Ctx) error {
	p := middleware.ProfileFromContext(c)
	resp := fiber.Map{
		"profile": p,
		"home":    guard.HomeRoute(p.Role()),
	}
	if p.Employer != nil {
		for _, plan := range models.Plans {
			if plan.Plan == p.Employer.Subscription.Plan {
				resp["plan"] = plan
				break
			}
		}
	}
	return c.JSON(resp)
}

// UploadPhoto stores the multipart "photo" file and sets photoURL.
func (h *Handler) UploadPhoto(c *fiber.Ctx) error {
	if h.avatars == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "Photo uploads are not configured"})
	}
	uid, _ := middleware.GetUserIDFromContext(c)

	fileHeader, err := c.FormFile("photo")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "photo file is required"})
	}
	if fileHeader.Size > utils.MaxAvatarBytes {
		return c.Status(fiber.StatusRequestEntityTooLarge).JSON(fiber.Map{"error": "Photo must be 5 MB or smaller"})
	}

	file, err := fileHeader.Open()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "could not read photo"})
	}
	defer file.Close()
	content, err := io.ReadAll(io.LimitReader(file, utils.MaxAvatarBytes+1))
	if err != nil || len(content) > utils.MaxAvatarBytes {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "could not read photo"})
	}

	ctx, cancel := h.withTimeout(c)
	defer cancel()

	url, err := h.avatars.UploadAvatar(ctx, uid, fileHeader.Filename, content)
	if errors.Is(err, utils.ErrUnsupportedImage) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Photo must be a JPG, PNG, GIF or WebP image"})
	}
	if err != nil {
		log.Printf("❌ [UPLOAD] photo upload for %s failed: %v", uid, err)
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "Failed to upload photo"})
	}

	p, err := h.profiles.SetPhotoURL(ctx, uid, url)
	if err != nil {
		log.Printf("❌ [UPLOAD] photoURL update for %s failed: %v", uid, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to save photo"})
	}
	log.Printf("✅ [UPLOAD] %s photo stored at %s", uid, url)
	return c.JSON(fiber.Map{"profile": p, "photoURL": url})
}

func (h *Handler) RegisterDevice(c *fiber.Ctx) error {
	uid, _ := middleware.GetUserIDFromContext(c)
	var req models.DeviceTokenRequest
	if ok, err := h.parseBody(c, &req); !ok {
		return err
	}

	ctx, cancel := h.withTimeout(c)
	defer cancel()
	if err := h.profiles.AddDeviceToken(ctx, uid, req.Token); err != nil {
		log.Printf("❌ [FCM] register token %s for %s failed: %v", fcm.MaskToken(req.Token), uid, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to register device"})
	}
	log.Printf("✅ [FCM] registered token %s for %s", fcm.MaskToken(req.Token), uid)
	return c.JSON(fiber.Map{"status": "registered"})
}

func (h *Handler) UnregisterDevice(c *fiber.Ctx) error {
	uid, _ := middleware.GetUserIDFromContext(c)
	var req models.DeviceTokenRequest
	if ok, err := h.parseBody(c, &req); !ok {
		return err
	}

	ctx, cancel := h.withTimeout(c)
	defer cancel()
	if err := h.profiles.RemoveDeviceToken(ctx, uid, req.Token); err != nil {
		log.Printf("❌ [FCM] unregister token %s for %s failed: %v", fcm.MaskToken(req.Token), uid, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to unregister device"})
	}
	return c.JSON(fiber.Map{"status": "unregistered"})
}
