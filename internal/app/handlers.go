package app

import (
	"github.com/packlabs/packvault-backend/internal/handlers"
	"github.com/packlabs/packvault-backend/internal/logger"
)

type Handlers struct {
	Auth  *handlers.AuthHandler
	Pack  *handlers.PackHandler
	Vault *handlers.VaultHandler
	Admin *handlers.AdminHandler
}

func wireHandlers(log *logger.Logger, serviceset Services) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Auth:  handlers.NewAuthHandler(serviceset.Auth),
		Pack:  handlers.NewPackHandler(serviceset.Pack),
		Vault: handlers.NewVaultHandler(serviceset.Vault),
		Admin: handlers.NewAdminHandler(serviceset.Admin),
	}
}
