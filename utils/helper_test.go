package utils

import (
	"context"
	"reflect"
	"testing"
)

func TestDereferencePtr(t *testing.T) {
	v := 7
	if got := DereferencePtr(&v); got != 7 {
		t.Errorf("got %d", got)
	}
	if got := DereferencePtr[int](nil); got != 0 {
		t.Errorf("nil without default: got %d", got)
	}
	if got := DereferencePtr(nil, "fallback"); got != "fallback" {
		t.Errorf("nil with default: got %q", got)
	}
}

func TestUniqueSlice(t *testing.T) {
	got := UniqueSlice([]int{3, 1, 3, 2, 1})
	if !reflect.DeepEqual(got, []int{3, 1, 2}) {
		t.Errorf("got %v", got)
	}
	if got := UniqueSlice([]string{}); len(got) != 0 {
		t.Errorf("got %v", got)
	}
}

func TestContextRoundTrips(t *testing.T) {
	ctx := context.Background()

	if _, ok := GetBusinessIdFromContext(ctx); ok {
		t.Error("empty context must not carry a business id")
	}

	ctx = SetBusinessIdInContext(ctx, "biz-1")
	ctx = SetUserIdInContext(ctx, 42)
	ctx = SetUserNameInContext(ctx, "auditor")
	ctx = SetCorrelationIdInContext(ctx, "corr-1")
	ctx = SetIsAdminInContext(ctx, true)

	if got, ok := GetBusinessIdFromContext(ctx); !ok || got != "biz-1" {
		t.Errorf("business id = (%q, %v)", got, ok)
	}
	if got, ok := GetUserIdFromContext(ctx); !ok || got != 42 {
		t.Errorf("user id = (%d, %v)", got, ok)
	}
	if got, ok := GetUserNameFromContext(ctx); !ok || got != "auditor" {
		t.Errorf("user name = (%q, %v)", got, ok)
	}
	if got, ok := GetCorrelationIdFromContext(ctx); !ok || got != "corr-1" {
		t.Errorf("correlation id = (%q, %v)", got, ok)
	}
	if got, ok := GetIsAdminFromContext(ctx); !ok || !got {
		t.Errorf("is admin = (%v, %v)", got, ok)
	}
}
