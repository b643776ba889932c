package workflow

import (
	"encoding/json"
	"strings"

	"bitbucket.org/qsrfocus/audits_backend/models"
)

// IsItemComplete decides whether a checklist item counts as answered for
// progress purposes. Pure and total: nil/absent inputs resolve to false,
// never to a panic. Called once per item per recomputation.
func IsItemComplete(item *models.ChecklistItem, resp *models.AuditItem) bool {
	if item == nil || resp == nil {
		return false
	}

	inputType := item.GetInputType()

	switch {
	case inputType.IsOptionBased():
		return hasSelectedOption(resp)

	case inputType == models.InputTypeImageUpload:
		return strings.TrimSpace(resp.PhotoUrl) != ""

	case inputType.IsTextual():
		return hasComment(resp) || hasUsableMark(resp)

	case inputType == models.InputTypeTask:
		return resp.Status != "" && resp.Status != models.AuditItemStatusPending

	case inputType.IsMultiSelect():
		return hasMultiSelection(resp) || hasSelectedOption(resp) || hasUsableMark(resp)

	default:
		// Unknown input type: permissive fallback, any recorded signal counts.
		return (resp.Status != "" && resp.Status != models.AuditItemStatusPending) ||
			hasSelectedOption(resp) ||
			hasComment(resp) ||
			strings.TrimSpace(resp.PhotoUrl) != "" ||
			hasUsableMark(resp)
	}
}

func hasSelectedOption(resp *models.AuditItem) bool {
	return resp.SelectedOptionId != nil && *resp.SelectedOptionId > 0
}

func hasComment(resp *models.AuditItem) bool {
	return strings.TrimSpace(resp.Comment) != ""
}

// a mark answers a question only when it is present and not the NA sentinel
func hasUsableMark(resp *models.AuditItem) bool {
	return resp.ParsedMark().IsNumeric()
}

// Multi-select clients persist their selections as a JSON array in the
// comment column. A non-array comment is a plain remark, not a selection.
func hasMultiSelection(resp *models.AuditItem) bool {
	comment := strings.TrimSpace(resp.Comment)
	if comment == "" || !strings.HasPrefix(comment, "[") {
		return false
	}
	var selections []json.RawMessage
	if err := json.Unmarshal([]byte(comment), &selections); err != nil {
		return false
	}
	return len(selections) > 0
}
