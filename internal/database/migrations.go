package database

import (
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/yukikurage/field-service-api/internal/logger"
)

// AddIndexes adds the composite indexes used by the tenant-scoped queries.
func AddIndexes(db *gorm.DB) error {
	indexes := []struct {
		table   string
		name    string
		columns string
	}{
		// Job listing and worker views
		{"jobs", "idx_jobs_tenant_listing", "tenant_id, is_deleted, is_archived"},
		{"jobs", "idx_jobs_worker_listing", "assigned_worker_id, is_deleted, is_archived"},
		{"jobs", "idx_jobs_tenant_status", "tenant_id, status_id"},

		// Status ordering
		{"job_statuses", "idx_job_statuses_tenant_order", "tenant_id, order_index"},

		// Job children
		{"tasks", "idx_tasks_job_active", "job_id, is_deleted"},
		{"job_attachments", "idx_job_attachments_job_active", "job_id, is_deleted"},
		{"job_signatures", "idx_job_signatures_job_active", "job_id, is_deleted"},

		// Tenant directories
		{"users", "idx_users_tenant_role", "tenant_id, role"},
		{"customers", "idx_customers_tenant_name", "tenant_id, name"},
	}

	migrator := db.Migrator()
	for _, idx := range indexes {
		if migrator.HasIndex(idx.table, idx.name) {
			logger.GetLogger().Debug("Index already exists, skipping", zap.String("index", idx.name))
			continue
		}

		sql := fmt.Sprintf("CREATE INDEX %s ON %s (%s)", idx.name, idx.table, idx.columns)
		if err := db.Exec(sql).Error; err != nil {
			return fmt.Errorf("failed to create index %s: %w", idx.name, err)
		}

		logger.GetLogger().Info("Created index",
			zap.String("index", idx.name),
			zap.String("table", idx.table),
			zap.String("columns", idx.columns),
		)
	}

	return nil
}
