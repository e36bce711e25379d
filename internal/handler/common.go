package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"erp-backend/pkg/response"
)

func respondErr(c *gin.Context, err error) {
	status, body := response.FromError(err)
	c.JSON(status, body)
}

func bindErr(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "invalid request payload: "+err.Error()))
}
