package app

import (
	"context"
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/packlabs/packvault-backend/internal/authz"
	"github.com/packlabs/packvault-backend/internal/clients/oracle"
	"github.com/packlabs/packvault-backend/internal/logger"
	"github.com/packlabs/packvault-backend/internal/requestdata"
	"github.com/packlabs/packvault-backend/internal/services"
	"github.com/packlabs/packvault-backend/internal/vaulterr"
)

type seedFile struct {
	Prices map[string]string `yaml:"prices"`
	Packs  []struct {
		ID          string `yaml:"id"`
		Name        string `yaml:"name"`
		Allocations []struct {
			Asset     string `yaml:"asset"`
			WeightBps int64  `yaml:"weight_bps"`
		} `yaml:"allocations"`
	} `yaml:"packs"`
}

// applySeed loads dev prices and initial packs from a YAML file. Prices
// only take effect on the static oracle; packs that already exist are
// left alone so reseeding is safe.
func applySeed(log *logger.Logger, path string, clients Clients, packService services.PackService) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read seed file: %w", err)
	}
	var seed seedFile
	if err := yaml.Unmarshal(raw, &seed); err != nil {
		return fmt.Errorf("parse seed file: %w", err)
	}

	if static, ok := clients.Oracle.(*oracle.StaticOracle); ok {
		for asset, price := range seed.Prices {
			d, err := decimal.NewFromString(price)
			if err != nil {
				return fmt.Errorf("seed price for %s: %w", asset, err)
			}
			static.SetPrice(asset, d)
		}
	} else if len(seed.Prices) > 0 {
		log.Warn("Seed prices ignored, oracle is not static")
	}

	ctx := requestdata.WithRequestData(context.Background(), &requestdata.RequestData{
		Subject: "seed",
		Role:    authz.RoleAdmin,
	})
	for _, pack := range seed.Packs {
		specs := make([]services.AllocationSpec, 0, len(pack.Allocations))
		for _, alloc := range pack.Allocations {
			specs = append(specs, services.AllocationSpec{Asset: alloc.Asset, WeightBps: alloc.WeightBps})
		}
		if _, err := packService.CreatePack(ctx, pack.ID, pack.Name, specs); err != nil {
			if vaulterr.CodeOf(err) == "pack_exists" {
				log.Debug("Seed pack already exists", "pack_id", pack.ID)
				continue
			}
			return fmt.Errorf("seed pack %s: %w", pack.ID, err)
		}
		log.Info("Seeded pack", "pack_id", pack.ID)
	}
	return nil
}
