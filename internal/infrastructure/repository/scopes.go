package repository

import (
	"context"

	domainRepo "github.com/sangkips/fixdesk-api/internal/domain/repository"
	"gorm.io/gorm"
)

// TenantScope returns a GORM scope that filters by tenant
// This should be applied to all queries for tenant-scoped entities
// If the context skips tenant scope (end-of-day sweep), returns all records
func TenantScope(ctx context.Context) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if domainRepo.SkipsTenantScope(ctx) {
			return db
		}

		tenantID, ok := domainRepo.GetTenantID(ctx)
		if !ok {
			// Fail-safe: return no results if tenant context missing
			return db.Where("1 = 0")
		}
		return db.Where("tenant_id = ?", tenantID)
	}
}
