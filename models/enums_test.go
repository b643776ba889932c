package models

import "testing"

func TestNormalizeInputType(t *testing.T) {
	if got := NormalizeInputType(" OPTION_SELECT "); got != InputTypeOptionSelect {
		t.Errorf("got %q", got)
	}
	if got := NormalizeInputType("Dropdown"); got != InputTypeDropdown {
		t.Errorf("got %q", got)
	}
}

func TestInputTypeClassification(t *testing.T) {
	if !InputTypeOptionSelect.IsOptionBased() || !InputTypeDropdown.IsOptionBased() {
		t.Error("option types misclassified")
	}
	if InputTypeOpenEnded.IsOptionBased() {
		t.Error("open_ended is not option based")
	}
	if !InputTypeMultiSelect.IsMultiSelect() || !InputTypeCheckbox.IsMultiSelect() {
		t.Error("multi-select types misclassified")
	}
	if !InputTypeScanCode.IsTextual() || !InputTypeSignature.IsTextual() {
		t.Error("textual types misclassified")
	}
	if InputTypeTask.IsTextual() {
		t.Error("task is not textual")
	}
}

func TestParseAuditStatus(t *testing.T) {
	if got, err := ParseAuditStatus(" In_Progress "); err != nil || got != AuditStatusInProgress {
		t.Errorf("got (%q, %v)", got, err)
	}
	if _, err := ParseAuditStatus("archived"); err == nil {
		t.Error("want error for unknown status")
	}
}

func TestParseAuditItemStatus(t *testing.T) {
	if got, err := ParseAuditItemStatus("FAILED"); err != nil || got != AuditItemStatusFailed {
		t.Errorf("got (%q, %v)", got, err)
	}
	if _, err := ParseAuditItemStatus("skipped"); err == nil {
		t.Error("want error for unknown status")
	}
}
