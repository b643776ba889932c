package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"bitbucket.org/qsrfocus/audits_backend/config"
	"bitbucket.org/qsrfocus/audits_backend/models"
	"bitbucket.org/qsrfocus/audits_backend/utils"
	"bitbucket.org/qsrfocus/audits_backend/workflow"
	"gorm.io/gorm"
)

// audit-rescore recomputes the derived state of every audit of a business.
// Run after template weight/option corrections or a restored backup. The
// recompute pipeline is idempotent, so re-running is safe: already-completed
// audits keep their completed_at, generators skip existing rows.
func main() {
	businessID := flag.String("business-id", "", "Required: business id")
	auditID := flag.Int("audit-id", 0, "Optional: rescore only this audit")
	continueOnError := flag.Bool("continue-on-error", false, "Skip failing audits and continue")
	flag.Parse()

	if strings.TrimSpace(*businessID) == "" {
		fmt.Fprintln(os.Stderr, "--business-id is required")
		os.Exit(1)
	}

	config.ConnectDatabaseWithRetry()
	db := config.GetDB()
	if db == nil {
		fmt.Fprintln(os.Stderr, "database not initialized")
		os.Exit(1)
	}

	ctx := utils.SetBusinessIdInContext(context.Background(), *businessID)
	// admin context: rescoring must be allowed on completed audits
	ctx = utils.SetIsAdminInContext(ctx, true)

	var audits []*models.Audit
	q := db.WithContext(ctx).Where("business_id = ?", *businessID)
	if *auditID > 0 {
		q = q.Where("id = ?", *auditID)
	}
	if err := q.Order("id").Find(&audits).Error; err != nil {
		fmt.Fprintf(os.Stderr, "failed to list audits: %v\n", err)
		os.Exit(1)
	}

	var failed int
	for _, audit := range audits {
		err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			_, rerr := workflow.RecomputeAudit(ctx, tx, audit)
			return rerr
		})
		if err != nil {
			failed++
			fmt.Fprintf(os.Stderr, "audit %d: %v\n", audit.ID, err)
			if !*continueOnError {
				os.Exit(1)
			}
			continue
		}
		fmt.Printf("audit %d: status=%s score=%d weighted=%d completed=%d/%d\n",
			audit.ID, audit.Status, audit.Score, audit.WeightedScore, audit.CompletedItems, audit.TotalItems)
	}

	fmt.Printf("rescored %d audits (%d failed)\n", len(audits)-failed, failed)
	if failed > 0 {
		os.Exit(2)
	}
}
