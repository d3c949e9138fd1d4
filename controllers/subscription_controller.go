package controllers

import (
	"github.com/gin-gonic/gin"

	"github.com/qdelaplebe-lgtm/clean-mboka-backend/pkg/resp"
	"github.com/qdelaplebe-lgtm/clean-mboka-backend/services"
)

type SubscriptionController struct {
	Subs *services.SubscriptionService
}

func NewSubscriptionController(subs *services.SubscriptionService) *SubscriptionController {
	return &SubscriptionController{Subs: subs}
}

func (sc *SubscriptionController) Subscribe(c *gin.Context) {
	var in services.SubscribeIn
	if err := c.ShouldBindJSON(&in); err != nil {
		resp.BadRequest(c, err.Error())
		return
	}
	sub, err := sc.Subs.Subscribe(currentActor(c), &in)
	if err != nil {
		resp.Domain(c, err)
		return
	}
	resp.Created(c, sub)
}

func (sc *SubscriptionController) Mine(c *gin.Context) {
	subs, err := sc.Subs.ListMine(currentActor(c))
	if err != nil {
		resp.Domain(c, err)
		return
	}
	resp.OK(c, subs)
}
