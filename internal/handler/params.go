package handler

import (
	"strconv"

	"odenehouk/internal/middleware"
	"odenehouk/internal/repository"

	"github.com/gin-gonic/gin"
)

// pageFromQuery reads limit and offset, falling back to defaults on bad input.
func pageFromQuery(c *gin.Context) repository.Page {
	limit, _ := strconv.Atoi(c.Query("limit"))
	offset, _ := strconv.Atoi(c.Query("offset"))
	return repository.Page{Limit: limit, Offset: offset}.Normalize()
}

// scopeUserID is 0 for admins, who list across users, and the caller otherwise.
func scopeUserID(c *gin.Context) uint {
	if middleware.IsAdmin(c) {
		return 0
	}
	return middleware.GetUserID(c)
}

func parseID(s string) (uint, bool) {
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil || n == 0 {
		return 0, false
	}
	return uint(n), true
}
