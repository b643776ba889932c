package models

import (
	"errors"
	"strings"
)

// InputType is the answer widget of a checklist item. Stored lowercase;
// legacy rows carry mixed casing, so always go through NormalizeInputType.
type InputType string

const (
	InputTypeOptionSelect         InputType = "option_select"
	InputTypeSelectFromDataSource InputType = "select_from_data_source"
	InputTypeDropdown             InputType = "dropdown"
	InputTypeImageUpload          InputType = "image_upload"
	InputTypeOpenEnded            InputType = "open_ended"
	InputTypeDescription          InputType = "description"
	InputTypeNumber               InputType = "number"
	InputTypeDate                 InputType = "date"
	InputTypeScanCode             InputType = "scan_code"
	InputTypeSignature            InputType = "signature"
	InputTypeShortAnswer          InputType = "short_answer"
	InputTypeLongAnswer           InputType = "long_answer"
	InputTypeTime                 InputType = "time"
	InputTypeTask                 InputType = "task"
	InputTypeMultiSelect          InputType = "multi_select"
	InputTypeCheckbox             InputType = "checkbox"
	InputTypeMultipleChoice       InputType = "multiple_choice"
)

func NormalizeInputType(s string) InputType {
	return InputType(strings.ToLower(strings.TrimSpace(s)))
}

// IsOptionBased reports whether completion is decided by a selected option.
func (t InputType) IsOptionBased() bool {
	switch t {
	case InputTypeOptionSelect, InputTypeSelectFromDataSource, InputTypeDropdown:
		return true
	}
	return false
}

func (t InputType) IsMultiSelect() bool {
	switch t {
	case InputTypeMultiSelect, InputTypeCheckbox, InputTypeMultipleChoice:
		return true
	}
	return false
}

func (t InputType) IsTextual() bool {
	switch t {
	case InputTypeOpenEnded, InputTypeDescription, InputTypeNumber, InputTypeDate,
		InputTypeScanCode, InputTypeSignature, InputTypeShortAnswer, InputTypeLongAnswer,
		InputTypeTime:
		return true
	}
	return false
}

type AuditStatus string

const (
	AuditStatusPending    AuditStatus = "pending"
	AuditStatusInProgress AuditStatus = "in_progress"
	AuditStatusCompleted  AuditStatus = "completed"
)

func ParseAuditStatus(s string) (AuditStatus, error) {
	switch AuditStatus(strings.ToLower(strings.TrimSpace(s))) {
	case AuditStatusPending:
		return AuditStatusPending, nil
	case AuditStatusInProgress:
		return AuditStatusInProgress, nil
	case AuditStatusCompleted:
		return AuditStatusCompleted, nil
	}
	return "", errors.New("invalid audit status")
}

type AuditItemStatus string

const (
	AuditItemStatusPending   AuditItemStatus = "pending"
	AuditItemStatusCompleted AuditItemStatus = "completed"
	AuditItemStatusFailed    AuditItemStatus = "failed"
)

func ParseAuditItemStatus(s string) (AuditItemStatus, error) {
	switch AuditItemStatus(strings.ToLower(strings.TrimSpace(s))) {
	case AuditItemStatusPending:
		return AuditItemStatusPending, nil
	case AuditItemStatusCompleted:
		return AuditItemStatusCompleted, nil
	case AuditItemStatusFailed:
		return AuditItemStatusFailed, nil
	}
	return "", errors.New("invalid audit item status")
}

type ActionItemPriority string

const (
	ActionItemPriorityHigh   ActionItemPriority = "high"
	ActionItemPriorityMedium ActionItemPriority = "medium"
)

type ActionItemStatus string

const (
	ActionItemStatusOpen       ActionItemStatus = "open"
	ActionItemStatusInProgress ActionItemStatus = "in_progress"
	ActionItemStatusDone       ActionItemStatus = "done"
)

// PlanSeverity tiers the action plan. Critical always outranks Major/Minor.
type PlanSeverity string

const (
	PlanSeverityCritical PlanSeverity = "Critical"
	PlanSeverityMajor    PlanSeverity = "Major"
	PlanSeverityMinor    PlanSeverity = "Minor"
)

type PlanEntryStatus string

const (
	PlanEntryStatusOpen   PlanEntryStatus = "OPEN"
	PlanEntryStatusClosed PlanEntryStatus = "CLOSED"
)

type ScheduledAuditStatus string

const (
	ScheduledAuditStatusPending   ScheduledAuditStatus = "pending"
	ScheduledAuditStatusCompleted ScheduledAuditStatus = "completed"
	ScheduledAuditStatusOverdue   ScheduledAuditStatus = "overdue"
)

type AuditEventType string

const (
	AuditEventTypeCompleted AuditEventType = "AuditCompleted"
)

type OutboxPublishStatus = string

const (
	OutboxPublishStatusPending    OutboxPublishStatus = "PENDING"
	OutboxPublishStatusProcessing OutboxPublishStatus = "PROCESSING"
	OutboxPublishStatusSent       OutboxPublishStatus = "SENT"
	OutboxPublishStatusFailed     OutboxPublishStatus = "FAILED"
	OutboxPublishStatusDead       OutboxPublishStatus = "DEAD"
)
