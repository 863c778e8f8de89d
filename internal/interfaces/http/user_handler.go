package http

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/backoffice-api/internal/application/dto"
	"github.com/jhoicas/backoffice-api/internal/application/usecase"
)

// UserHandler maneja el perfil propio y el panel de administración de usuarios.
type UserHandler struct {
	uc       *usecase.UserUseCase
	uploader *Uploader
}

// NewUserHandler construye el handler inyectando el caso de uso.
func NewUserHandler(uc *usecase.UserUseCase, uploader *Uploader) *UserHandler {
	return &UserHandler{uc: uc, uploader: uploader}
}

// GetMe godoc
// @Summary      Perfil del usuario autenticado
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  dto.UserResponse
// @Router       /users/me [get]
func (h *UserHandler) GetMe(c *fiber.Ctx) error {
	out, err := h.uc.GetMe(c.UserContext(), GetActor(c))
	if err != nil {
		return err
	}
	return c.JSON(out)
}

// UpdateMe godoc
// @Summary      Actualizar perfil (username y/o avatar)
// @Tags         users
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        username  formData  string  false  "Nuevo username"
// @Param        avatar    formData  file    false  "image/jpeg o image/png"
// @Success      200  {object}  dto.UserResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /users/me [patch]
func (h *UserHandler) UpdateMe(c *fiber.Ctx) error {
	in, avatar, cleanup, err := h.parseUpdate(c)
	defer cleanup()
	if err != nil {
		return err
	}
	out, err := h.uc.UpdateProfile(c.UserContext(), GetActor(c), in, avatar)
	if err != nil {
		return err
	}
	return c.JSON(out)
}

// ChangeAvatar godoc
// @Summary      Subir o reemplazar el avatar
// @Tags         users
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        avatar  formData  file  true  "image/jpeg o image/png"
// @Success      200  {object}  dto.UserResponse
// @Failure      503  {object}  dto.ErrorResponse
// @Router       /users/me/avatar [put]
func (h *UserHandler) ChangeAvatar(c *fiber.Ctx) error {
	avatar, cleanup, err := h.uploader.Require(c, "avatar")
	defer cleanup()
	if err != nil {
		return err
	}
	out, err := h.uc.ChangeAvatar(c.UserContext(), GetActor(c), avatar)
	if err != nil {
		return err
	}
	return c.JSON(out)
}

// DeleteAvatar godoc
// @Summary      Borrar el avatar
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  dto.UserResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /users/me/avatar [delete]
func (h *UserHandler) DeleteAvatar(c *fiber.Ctx) error {
	out, err := h.uc.DeleteAvatar(c.UserContext(), GetActor(c))
	if err != nil {
		return err
	}
	return c.JSON(out)
}

// List godoc
// @Summary      Listar usuarios visibles para el actor
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        email      query  string  false  "Filtro parcial por email"
// @Param        username   query  string  false  "Filtro parcial por username"
// @Param        createdAt  query  string  false  "Día de alta (YYYY-MM-DD)"
// @Param        offset     query  int     false  "Offset"  default(0)
// @Param        limit      query  int     false  "Límite"  default(10)
// @Param        sort       query  string  false  "ASC|DESC por id"
// @Success      200  {object}  dto.ListResponse[dto.UserResponse]
// @Router       /users [get]
func (h *UserHandler) List(c *fiber.Ctx) error {
	var q dto.UserQuery
	if err := c.QueryParser(&q); err != nil {
		return badRequest("", "query", "query inválida")
	}
	out, err := h.uc.List(c.UserContext(), GetActor(c), q)
	if err != nil {
		return err
	}
	return c.JSON(out)
}

// Create godoc
// @Summary      Crear usuario (panel)
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body  dto.CreateUserRequest  true  "email, password, role"
// @Success      201  {object}  dto.UserResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /users/admin [post]
func (h *UserHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateUserRequest
	if err := parseBody(c, &in); err != nil {
		return err
	}
	out, err := h.uc.Create(c.UserContext(), GetActor(c), in)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// Update godoc
// @Summary      Actualizar usuario (panel)
// @Tags         users
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        id        path      int     true   "ID del usuario"
// @Param        username  formData  string  false  "Nuevo username"
// @Param        avatar    formData  file    false  "image/jpeg o image/png"
// @Success      200  {object}  dto.UserResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /users/admin/{id} [patch]
func (h *UserHandler) Update(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}
	in, avatar, cleanup, err := h.parseUpdate(c)
	defer cleanup()
	if err != nil {
		return err
	}
	out, err := h.uc.UpdateUser(c.UserContext(), GetActor(c), id, in, avatar)
	if err != nil {
		return err
	}
	return c.JSON(out)
}

// Delete godoc
// @Summary      Borrar usuario (lógico)
// @Tags         users
// @Security     BearerAuth
// @Param        id  path  int  true  "ID del usuario"
// @Success      204
// @Failure      403  {object}  dto.ErrorResponse
// @Router       /users/admin/{id} [delete]
func (h *UserHandler) Delete(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}
	if err := h.uc.Delete(c.UserContext(), GetActor(c), id); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Restore godoc
// @Summary      Restaurar usuario borrado
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        id  path  int  true  "ID del usuario"
// @Success      200  {object}  dto.UserResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /users/admin/{id}/restore [post]
func (h *UserHandler) Restore(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}
	out, err := h.uc.Restore(c.UserContext(), GetActor(c), id)
	if err != nil {
		return err
	}
	return c.JSON(out)
}

// parseUpdate acepta JSON o multipart (username + avatar opcional).
func (h *UserHandler) parseUpdate(c *fiber.Ctx) (dto.UpdateUserRequest, *dto.FileUpload, func(), error) {
	var in dto.UpdateUserRequest
	if !isMultipart(c) {
		return in, nil, func() {}, parseBody(c, &in)
	}
	in.Username = c.FormValue("username")
	avatar, cleanup, err := h.uploader.Receive(c, "avatar")
	return in, avatar, cleanup, err
}

func paramID(c *fiber.Ctx) (int64, error) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, badRequest("id", "int", "id must be a positive integer")
	}
	return id, nil
}

func isMultipart(c *fiber.Ctx) bool {
	return len(c.Request().Header.MultipartFormBoundary()) > 0
}
