package controllers

import (
	"github.com/gin-gonic/gin"

	"github.com/qdelaplebe-lgtm/clean-mboka-backend/pkg/resp"
	"github.com/qdelaplebe-lgtm/clean-mboka-backend/services"
	"github.com/qdelaplebe-lgtm/clean-mboka-backend/utils"
)

type AuthController struct {
	Auth *services.AuthService
}

func NewAuthController(auth *services.AuthService) *AuthController {
	return &AuthController{Auth: auth}
}

func (ac *AuthController) Register(c *gin.Context) {
	var in services.RegisterIn
	if err := c.ShouldBindJSON(&in); err != nil {
		resp.BadRequest(c, err.Error())
		return
	}
	out, err := ac.Auth.Register(&in)
	if err != nil {
		resp.Domain(c, err)
		return
	}
	resp.Created(c, out)
}

func (ac *AuthController) Login(c *gin.Context) {
	var in services.LoginIn
	if err := c.ShouldBindJSON(&in); err != nil {
		resp.BadRequest(c, err.Error())
		return
	}
	out, err := ac.Auth.Login(&in)
	if err != nil {
		resp.Domain(c, err)
		return
	}
	resp.OK(c, out)
}

func (ac *AuthController) Me(c *gin.Context) {
	user, err := ac.Auth.Me(utils.CurrentUserID(c))
	if err != nil {
		resp.Domain(c, err)
		return
	}
	resp.OK(c, user)
}

func (ac *AuthController) UpdateMe(c *gin.Context) {
	var in services.UpdateMeIn
	if err := c.ShouldBindJSON(&in); err != nil {
		resp.BadRequest(c, err.Error())
		return
	}
	user, err := ac.Auth.UpdateMe(utils.CurrentUserID(c), &in)
	if err != nil {
		resp.Domain(c, err)
		return
	}
	resp.OK(c, user)
}
