package api

import (
	"github.com/ramaorbit/orbit-engine/modules/orbit/api/httphandler"
	"github.com/ramaorbit/orbit-engine/modules/orbit/usecase"
)

func NewHTTPHandler(usecase *usecase.Usecase) *httphandler.HttpHandler {
	return httphandler.New(usecase)
}
