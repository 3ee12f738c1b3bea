package httphandler

import (
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/gofiber/fiber/v2"
	"github.com/ramaorbit/orbit-engine/common/errs"
)

type registerUserRequest struct {
	Address string `json:"address"`
	Sponsor string `json:"sponsor"`
}

func (r *registerUserRequest) Validate() error {
	var errList []error
	r.Address = strings.TrimSpace(r.Address)
	r.Sponsor = strings.TrimSpace(r.Sponsor)
	if r.Address == "" {
		errList = append(errList, errors.New("'address' is required"))
	}
	return errs.WithPublicMessage(errors.Join(errList...), "validation error")
}

type registerUserResponse = HttpResponse[userResult]

func (h *HttpHandler) RegisterUser(ctx *fiber.Ctx) (err error) {
	var req registerUserRequest
	if err := ctx.BodyParser(&req); err != nil {
		return errs.WithPublicMessage(err, "invalid request body")
	}
	if err := req.Validate(); err != nil {
		return errors.WithStack(err)
	}

	user, err := h.usecase.RegisterUser(ctx.UserContext(), req.Address, req.Sponsor)
	if err != nil {
		if errors.IsAny(err, errs.InvalidArgument, errs.Duplicate) {
			return errs.WithPublicMessage(err, "")
		}
		return errors.Wrap(err, "error during RegisterUser")
	}

	result := mapUserToResult(user)
	resp := registerUserResponse{
		Result: &result,
	}
	return errors.WithStack(ctx.Status(fiber.StatusCreated).JSON(resp))
}
