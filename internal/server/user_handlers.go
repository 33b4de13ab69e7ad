package server

import (
	"inkwell/internal/middleware"
	"inkwell/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetUserProfile handles GET /api/users/:id
// @Summary Public profile
// @Tags users
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {object} models.User
// @Failure 404 {object} models.ErrorResponse
// @Router /users/{id} [get]
func (s *Server) GetUserProfile(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	user, err := s.userService.GetProfile(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(user)
}

// GetMyProfile handles GET /api/users/me
// @Summary The caller's account
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.User
// @Router /users/me [get]
func (s *Server) GetMyProfile(c *fiber.Ctx) error {
	user, err := s.userService.GetAccount(c.UserContext(), currentUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(user)
}

// UpdateMyProfile handles PUT /api/users/me
// @Summary Update account fields
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body object{username=string,name=string,email=string,intro=string} true "Fields to change"
// @Success 200 {object} models.User
// @Failure 409 {object} models.ErrorResponse
// @Router /users/me [put]
func (s *Server) UpdateMyProfile(c *fiber.Ctx) error {
	var req struct {
		Username *string `json:"username"`
		Name     *string `json:"name"`
		Email    *string `json:"email"`
		Intro    *string `json:"intro"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	user, err := s.userService.UpdateProfile(c.UserContext(), service.UpdateProfileInput{
		UserID:   currentUserID(c),
		Username: req.Username,
		Name:     req.Name,
		Email:    req.Email,
		Intro:    req.Intro,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(user)
}

// ChangePassword handles PUT /api/users/me/password
// @Summary Change password
// @Tags users
// @Accept json
// @Security BearerAuth
// @Param request body object{current_password=string,new_password=string} true "Passwords"
// @Success 204
// @Failure 401 {object} models.ErrorResponse
// @Router /users/me/password [put]
func (s *Server) ChangePassword(c *fiber.Ctx) error {
	var req struct {
		CurrentPassword string `json:"current_password"`
		NewPassword     string `json:"new_password"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	err := s.userService.ChangePassword(c.UserContext(), service.ChangePasswordInput{
		UserID:          currentUserID(c),
		CurrentPassword: req.CurrentPassword,
		NewPassword:     req.NewPassword,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// UpdateAbout handles PUT /api/users/me/about
// @Summary Update the about text
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body object{about=string} true "About"
// @Success 200 {object} models.User
// @Router /users/me/about [put]
func (s *Server) UpdateAbout(c *fiber.Ctx) error {
	var req struct {
		About string `json:"about"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	user, err := s.userService.UpdateAbout(c.UserContext(), currentUserID(c), req.About)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(user)
}

// DeleteMyAccount handles DELETE /api/users/me. Posts, comments and
// reactions go with the account, and the current token is revoked.
// @Summary Delete the caller's account
// @Tags users
// @Security BearerAuth
// @Success 204
// @Router /users/me [delete]
func (s *Server) DeleteMyAccount(c *fiber.Ctx) error {
	ctx := c.UserContext()
	if err := s.userService.DeleteAccount(ctx, currentUserID(c)); err != nil {
		return respondError(c, err)
	}
	if claims, ok := middleware.CurrentClaims(c); ok {
		if err := s.tokens.Revoke(ctx, claims); err != nil {
			middleware.Logger.WarnContext(ctx, "revoke token after account deletion failed", "error", err)
		}
	}
	return c.SendStatus(fiber.StatusNoContent)
}
