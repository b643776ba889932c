package models

import (
	"bitbucket.org/qsrfocus/audits_backend/config"
)

func MigrateTable() {
	db := config.GetDB()
	err := db.AutoMigrate(
		&ChecklistTemplate{},
		&ChecklistItem{},
		&ChecklistItemOption{},
		&Audit{},
		&AuditItem{},
		&ActionItem{},
		&ActionPlanEntry{},
		&Location{},
		&User{},
		&ScheduledAudit{},
		&AuditEventRecord{},
	)
	if err != nil {
		config.LogError(config.GetLogger(), "migration.go", "MigrateTable", "auto migrate", nil, err)
		panic(err)
	}
}
