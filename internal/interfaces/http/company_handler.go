package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/backoffice-api/internal/application/dto"
	"github.com/jhoicas/backoffice-api/internal/application/usecase"
)

// CompanyHandler maneja las peticiones HTTP para el recurso Company.
type CompanyHandler struct {
	uc       *usecase.CompanyUseCase
	uploader *Uploader
}

// NewCompanyHandler construye el handler inyectando el caso de uso.
func NewCompanyHandler(uc *usecase.CompanyUseCase, uploader *Uploader) *CompanyHandler {
	return &CompanyHandler{uc: uc, uploader: uploader}
}

// Create godoc
// @Summary      Crear empresa
// @Tags         companies
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body  dto.CreateCompanyRequest  true  "Datos de la empresa"
// @Success      201   {object}  dto.CompanyResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /companies [post]
func (h *CompanyHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateCompanyRequest
	if err := parseBody(c, &in); err != nil {
		return err
	}
	out, err := h.uc.Create(c.UserContext(), GetActor(c), in)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// GetByID godoc
// @Summary      Obtener empresa por ID
// @Tags         companies
// @Produce      json
// @Security     BearerAuth
// @Param        id   path  int  true  "ID de la empresa"
// @Success      200  {object}  dto.CompanyResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /companies/company/{id} [get]
func (h *CompanyHandler) GetByID(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}
	out, err := h.uc.Get(c.UserContext(), GetActor(c), id)
	if err != nil {
		return err
	}
	return c.JSON(out)
}

// Update godoc
// @Summary      Actualizar empresa (campos y/o logo)
// @Tags         companies
// @Accept       json,multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      int     true   "ID de la empresa"
// @Param        name     formData  string  false  "Nombre"
// @Param        service  formData  string  false  "Servicio"
// @Param        capital  formData  number  false  "Capital"
// @Param        price    formData  number  false  "Precio"
// @Param        logo     formData  file    false  "image/jpeg o image/png"
// @Success      200  {object}  dto.CompanyResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /companies/company/{id} [patch]
func (h *CompanyHandler) Update(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}
	in, logo, cleanup, err := h.parseUpdate(c)
	defer cleanup()
	if err != nil {
		return err
	}
	out, err := h.uc.Update(c.UserContext(), GetActor(c), id, in, logo)
	if err != nil {
		return err
	}
	return c.JSON(out)
}

// ChangeLogo godoc
// @Summary      Subir o reemplazar el logo
// @Tags         companies
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      int   true  "ID de la empresa"
// @Param        logo  formData  file  true  "image/jpeg o image/png"
// @Success      200  {object}  dto.CompanyResponse
// @Failure      503  {object}  dto.ErrorResponse
// @Router       /companies/company/{id}/logo [put]
func (h *CompanyHandler) ChangeLogo(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}
	logo, cleanup, err := h.uploader.Require(c, "logo")
	defer cleanup()
	if err != nil {
		return err
	}
	out, err := h.uc.ChangeLogo(c.UserContext(), GetActor(c), id, logo)
	if err != nil {
		return err
	}
	return c.JSON(out)
}

// DeleteLogo godoc
// @Summary      Borrar el logo
// @Tags         companies
// @Produce      json
// @Security     BearerAuth
// @Param        id  path  int  true  "ID de la empresa"
// @Success      200  {object}  dto.CompanyResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /companies/company/{id}/logo [delete]
func (h *CompanyHandler) DeleteLogo(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}
	out, err := h.uc.DeleteLogo(c.UserContext(), GetActor(c), id)
	if err != nil {
		return err
	}
	return c.JSON(out)
}

// Delete godoc
// @Summary      Borrar empresa
// @Tags         companies
// @Security     BearerAuth
// @Param        id  path  int  true  "ID de la empresa"
// @Success      204
// @Failure      403  {object}  dto.ErrorResponse
// @Router       /companies/company/{id} [delete]
func (h *CompanyHandler) Delete(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}
	if err := h.uc.Delete(c.UserContext(), GetActor(c), id); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// List godoc
// @Summary      Listar empresas
// @Tags         companies
// @Produce      json
// @Security     BearerAuth
// @Param        capital    query  number  false  "Capital exacto"
// @Param        createdAt  query  string  false  "Día de alta (YYYY-MM-DD)"
// @Param        name       query  string  false  "ASC|DESC"
// @Param        service    query  string  false  "ASC|DESC"
// @Param        offset     query  int     false  "Offset"  default(0)
// @Param        limit      query  int     false  "Límite"  default(10)
// @Success      200  {object}  dto.ListResponse[dto.CompanyResponse]
// @Router       /companies [get]
func (h *CompanyHandler) List(c *fiber.Ctx) error {
	var q dto.CompanyQuery
	if err := c.QueryParser(&q); err != nil {
		return badRequest("", "query", "query inválida")
	}
	out, err := h.uc.List(c.UserContext(), q)
	if err != nil {
		return err
	}
	return c.JSON(out)
}

// ListOwn godoc
// @Summary      Listar las empresas del usuario autenticado
// @Tags         companies
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  dto.ListResponse[dto.CompanyResponse]
// @Router       /companies/user [get]
func (h *CompanyHandler) ListOwn(c *fiber.Ctx) error {
	var q dto.CompanyQuery
	if err := c.QueryParser(&q); err != nil {
		return badRequest("", "query", "query inválida")
	}
	out, err := h.uc.ListOwn(c.UserContext(), GetActor(c), q)
	if err != nil {
		return err
	}
	return c.JSON(out)
}

// parseUpdate acepta JSON o multipart; en multipart solo se toman los campos presentes.
func (h *CompanyHandler) parseUpdate(c *fiber.Ctx) (dto.UpdateCompanyRequest, *dto.FileUpload, func(), error) {
	var in dto.UpdateCompanyRequest
	if !isMultipart(c) {
		return in, nil, func() {}, parseBody(c, &in)
	}
	form, err := c.MultipartForm()
	if err != nil {
		return in, nil, func() {}, badRequest("", "body", "cuerpo inválido")
	}
	if v, ok := formValue(form.Value, "name"); ok {
		in.Name = &v
	}
	if v, ok := formValue(form.Value, "service"); ok {
		in.Service = &v
	}
	for field, dst := range map[string]**decimal.Decimal{"capital": &in.Capital, "price": &in.Price} {
		v, ok := formValue(form.Value, field)
		if !ok {
			continue
		}
		d, err := decimal.NewFromString(v)
		if err != nil {
			return in, nil, func() {}, badRequest(field, "decimal", field+" must be a number")
		}
		*dst = &d
	}
	logo, cleanup, err := h.uploader.Receive(c, "logo")
	return in, logo, cleanup, err
}

func formValue(values map[string][]string, key string) (string, bool) {
	v := values[key]
	if len(v) == 0 {
		return "", false
	}
	return v[0], true
}
