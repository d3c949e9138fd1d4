package controllers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/qdelaplebe-lgtm/clean-mboka-backend/entity"
	"github.com/qdelaplebe-lgtm/clean-mboka-backend/services"
	"github.com/qdelaplebe-lgtm/clean-mboka-backend/utils"
)

// currentActor rebuilds the acting principal from the gin context set by the
// auth middleware. Anonymous requests yield a zero-ID actor.
func currentActor(c *gin.Context) services.Actor {
	return services.Actor{
		ID:      utils.CurrentUserID(c),
		Role:    entity.ParseRole(utils.CurrentRole(c)),
		Commune: utils.CurrentCommune(c),
	}
}

func paramID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

func queryInt(c *gin.Context, name string, def int) int {
	v, err := strconv.Atoi(c.Query(name))
	if err != nil {
		return def
	}
	return v
}

// pagination caps the page size the way the mobile clients expect.
func pagination(c *gin.Context) (limit, offset int) {
	limit = queryInt(c, "limit", 20)
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	offset = queryInt(c, "offset", 0)
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
