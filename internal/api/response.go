package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Response is the envelope every endpoint answers with.
type Response struct {
	Message string      `json:"message,omitempty"`
	Error   string      `json:"error,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

func success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, &Response{Data: data})
}

func created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, &Response{Message: "created", Data: data})
}

func message(c *gin.Context, msg string) {
	c.JSON(http.StatusOK, &Response{Message: msg})
}

func fail(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, &Response{Error: msg})
}
