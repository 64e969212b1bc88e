package repository

import (
	"context"

	"github.com/google/uuid"
)

type ctxKey string

const (
	// TenantIDKey is the context key for tenant ID
	TenantIDKey ctxKey = "tenant_id"
	// SkipTenantScopeKey is the context key for skipping tenant scope (maintenance sweeps)
	SkipTenantScopeKey ctxKey = "skip_tenant_scope"
)

// WithTenant adds tenant ID to context
func WithTenant(ctx context.Context, tenantID uuid.UUID) context.Context {
	return context.WithValue(ctx, TenantIDKey, tenantID)
}

// GetTenantID extracts tenant ID from context
func GetTenantID(ctx context.Context) (uuid.UUID, bool) {
	tenantID, ok := ctx.Value(TenantIDKey).(uuid.UUID)
	return tenantID, ok && tenantID != uuid.Nil
}

// WithSkipTenantScope marks the context as allowed to read across tenants.
// Only the end-of-day sweep uses it.
func WithSkipTenantScope(ctx context.Context, skip bool) context.Context {
	return context.WithValue(ctx, SkipTenantScopeKey, skip)
}

// SkipsTenantScope reports whether tenant filtering is disabled for ctx.
func SkipsTenantScope(ctx context.Context) bool {
	skip, ok := ctx.Value(SkipTenantScopeKey).(bool)
	return ok && skip
}
