package handlers

import (
	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/wishbot/internal/service"
	"github.com/Kerhoff/wishbot/internal/telegram"
)

// Register wires every command, button and input handler into router.
func Register(router *telegram.Router, svc *service.Service, logger *logrus.Logger) {
	router.RegisterCommand("start", NewStartHandler(svc, logger))
	router.RegisterCommand("help", NewHelpHandler(logger))
	router.RegisterCommand("create_household", NewCreateHouseholdHandler(svc, logger))
	router.RegisterCommand("join_household", NewJoinHouseholdHandler(svc, logger))
	router.RegisterCommand("categories", NewCategoriesHandler(svc, logger))
	router.RegisterCommand("budget", NewBudgetHandler(svc, logger))
	router.RegisterCommand("add", NewAddHandler(svc, logger))
	router.RegisterCommand("list", NewListHandler(svc, logger))
	router.RegisterCommand("setprice", NewSetPriceHandler(svc, logger))
	router.RegisterCommand("cancel", NewCancelHandler(svc, logger))

	wizard := NewWizardCallbacks(svc, logger)
	router.RegisterCallback(wizard, wizard.Kinds()...)
	items := NewItemCallbacks(svc, logger)
	router.RegisterCallback(items, items.Kinds()...)

	router.SetInputHandler(NewWizardInput(svc, logger))
}
