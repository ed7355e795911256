package services

import (
	"context"
	"fmt"

	"github.com/packlabs/packvault-backend/internal/requestdata"
	"github.com/packlabs/packvault-backend/internal/vaulterr"
)

func callerFromContext(ctx context.Context) (*requestdata.RequestData, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil || rd.Subject == "" {
		return nil, vaulterr.New(vaulterr.KindAuthorization, "unauthenticated", fmt.Errorf("no caller identity on context"))
	}
	return rd, nil
}
