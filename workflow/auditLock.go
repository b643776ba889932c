package workflow

import (
	"fmt"

	"gorm.io/gorm"
)

// AcquireAuditLock serializes recomputation per audit across instances using
// MySQL advisory locks.
// NOTE: GET_LOCK is connection-scoped, so this must be called on the same
// *gorm.DB that will run the recompute transaction.
func AcquireAuditLock(tx *gorm.DB, auditId int) error {
	lockName := fmt.Sprintf("audit:%d", auditId)
	var ok int
	if err := tx.Raw("SELECT GET_LOCK(?, 30)", lockName).Scan(&ok).Error; err != nil {
		return err
	}
	if ok != 1 {
		return fmt.Errorf("could not acquire recompute lock for audit_id=%d", auditId)
	}
	return nil
}

func ReleaseAuditLock(tx *gorm.DB, auditId int) {
	lockName := fmt.Sprintf("audit:%d", auditId)
	var _ok int
	_ = tx.Raw("SELECT RELEASE_LOCK(?)", lockName).Scan(&_ok).Error
}
