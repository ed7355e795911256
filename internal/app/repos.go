package app

import (
	"gorm.io/gorm"

	"github.com/packlabs/packvault-backend/internal/logger"
	"github.com/packlabs/packvault-backend/internal/repos"
)

type Repos struct {
	Pack       repos.PackRepo
	Share      repos.SharePositionRepo
	RateLimit  repos.RateLimitRepo
	Record     repos.RecordRepo
	VaultState repos.VaultStateRepo
	Orphan     repos.OrphanedBalanceRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		Pack:       repos.NewPackRepo(db, log),
		Share:      repos.NewSharePositionRepo(db, log),
		RateLimit:  repos.NewRateLimitRepo(db, log),
		Record:     repos.NewRecordRepo(db, log),
		VaultState: repos.NewVaultStateRepo(db, log),
		Orphan:     repos.NewOrphanedBalanceRepo(db, log),
	}
}
