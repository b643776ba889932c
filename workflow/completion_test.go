package workflow

import (
	"testing"

	"bitbucket.org/qsrfocus/audits_backend/models"
)

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }

func itemOfType(inputType string) *models.ChecklistItem {
	return &models.ChecklistItem{ID: 1, Title: "item", InputType: inputType}
}

func TestIsItemComplete_NilInputsAreFalse(t *testing.T) {
	if IsItemComplete(nil, nil) {
		t.Fatal("nil item/response must not be complete")
	}
	if IsItemComplete(itemOfType("open_ended"), nil) {
		t.Fatal("missing response must not be complete")
	}
}

func TestIsItemComplete_OptionBased(t *testing.T) {
	for _, inputType := range []string{"option_select", "select_from_data_source", "dropdown", "OPTION_SELECT", "Dropdown"} {
		item := itemOfType(inputType)

		if IsItemComplete(item, &models.AuditItem{Comment: "a comment"}) {
			t.Fatalf("%s: comment alone must not complete an option item", inputType)
		}
		if !IsItemComplete(item, &models.AuditItem{SelectedOptionId: intPtr(5)}) {
			t.Fatalf("%s: selected option must complete", inputType)
		}
	}
}

func TestIsItemComplete_ImageUpload(t *testing.T) {
	item := itemOfType("image_upload")

	// Scenario: a comment without a photo never completes an image item.
	if IsItemComplete(item, &models.AuditItem{Comment: "looks fine"}) {
		t.Fatal("comment must not complete an image_upload item")
	}
	if IsItemComplete(item, &models.AuditItem{PhotoUrl: "   "}) {
		t.Fatal("blank photo url must not complete")
	}
	if !IsItemComplete(item, &models.AuditItem{PhotoUrl: "https://cdn.example.com/p.jpg"}) {
		t.Fatal("photo url must complete")
	}
}

func TestIsItemComplete_Textual(t *testing.T) {
	textual := []string{"open_ended", "description", "number", "date", "scan_code", "signature", "short_answer", "long_answer", "time"}
	for _, inputType := range textual {
		item := itemOfType(inputType)

		if IsItemComplete(item, &models.AuditItem{}) {
			t.Fatalf("%s: empty response must not complete", inputType)
		}
		if !IsItemComplete(item, &models.AuditItem{Comment: "done"}) {
			t.Fatalf("%s: comment must complete", inputType)
		}
		if !IsItemComplete(item, &models.AuditItem{Mark: strPtr("4")}) {
			t.Fatalf("%s: numeric mark must complete", inputType)
		}
		if IsItemComplete(item, &models.AuditItem{Mark: strPtr("NA")}) {
			t.Fatalf("%s: NA mark alone must not complete", inputType)
		}
		if IsItemComplete(item, &models.AuditItem{Mark: strPtr("na")}) {
			t.Fatalf("%s: lowercase na must not complete", inputType)
		}
	}
}

func TestIsItemComplete_Task(t *testing.T) {
	item := itemOfType("task")

	if IsItemComplete(item, &models.AuditItem{Status: models.AuditItemStatusPending}) {
		t.Fatal("pending task must not be complete")
	}
	if !IsItemComplete(item, &models.AuditItem{Status: models.AuditItemStatusCompleted}) {
		t.Fatal("completed task must be complete")
	}
	if !IsItemComplete(item, &models.AuditItem{Status: models.AuditItemStatusFailed}) {
		t.Fatal("failed task is still answered")
	}
}

func TestIsItemComplete_MultiSelect(t *testing.T) {
	item := itemOfType("multi_select")

	if IsItemComplete(item, &models.AuditItem{Comment: "[]"}) {
		t.Fatal("empty selection array must not complete")
	}
	if !IsItemComplete(item, &models.AuditItem{Comment: `[{"option_id":3}]`}) {
		t.Fatal("selection payload must complete")
	}
	if !IsItemComplete(item, &models.AuditItem{SelectedOptionId: intPtr(3)}) {
		t.Fatal("selected option must complete")
	}
	if !IsItemComplete(item, &models.AuditItem{Mark: strPtr("2")}) {
		t.Fatal("mark must complete")
	}
	if IsItemComplete(item, &models.AuditItem{Comment: "freetext remark"}) {
		t.Fatal("plain comment is not a selection")
	}
}

func TestIsItemComplete_UnknownTypePermissiveFallback(t *testing.T) {
	item := itemOfType("hologram_scan")

	if IsItemComplete(item, &models.AuditItem{}) {
		t.Fatal("empty response must not complete an unknown type")
	}
	cases := []*models.AuditItem{
		{Status: models.AuditItemStatusCompleted},
		{SelectedOptionId: intPtr(1)},
		{Comment: "x"},
		{PhotoUrl: "u"},
		{Mark: strPtr("1")},
	}
	for i, resp := range cases {
		if !IsItemComplete(item, resp) {
			t.Fatalf("case %d: any recorded signal must complete an unknown type", i)
		}
	}
	if IsItemComplete(item, &models.AuditItem{Mark: strPtr("NA")}) {
		t.Fatal("NA mark is not a recorded answer, even for unknown types")
	}
}
