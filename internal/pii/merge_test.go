package pii

import "testing"

func TestMerge(t *testing.T) {
	t.Run("DeduplicatesByTypeAndValue", func(t *testing.T) {
		result := Merge(
			[]Item{{Type: TypeEmail, Value: "a@b.com"}},
			[]Item{{Type: TypeEmail, Value: "a@b.com"}},
		)
		if len(result.Items) != 1 {
			t.Fatalf("Expected 1 item, got %d", len(result.Items))
		}
	})

	t.Run("DeduplicationIgnoresValueCase", func(t *testing.T) {
		result := Merge(
			[]Item{{Type: TypeEmail, Value: "John@Example.com"}},
			[]Item{{Type: TypeEmail, Value: "john@example.com"}},
		)
		if len(result.Items) != 1 {
			t.Fatalf("Expected 1 item, got %d", len(result.Items))
		}
	})

	t.Run("LastWriteWinsKeepsLaterCasing", func(t *testing.T) {
		result := Merge(
			[]Item{{Type: TypeName, Value: "john smith"}},
			[]Item{{Type: TypeName, Value: "John Smith"}},
		)
		if len(result.Items) != 1 {
			t.Fatalf("Expected 1 item, got %d", len(result.Items))
		}
		if result.Items[0].Value != "John Smith" {
			t.Errorf("Expected later value to win, got %q", result.Items[0].Value)
		}
	})

	t.Run("SameValueDifferentTypesBothKept", func(t *testing.T) {
		result := Merge([]Item{
			{Type: TypePhone, Value: "5551234567"},
			{Type: TypeCreditCard, Value: "5551234567"},
		})
		if len(result.Items) != 2 {
			t.Fatalf("Expected 2 items, got %d", len(result.Items))
		}
	})

	t.Run("DropsInvalidAndEmpty", func(t *testing.T) {
		result := Merge([]Item{
			{Type: Type("password"), Value: "hunter2"},
			{Type: TypeEmail, Value: ""},
			{Type: TypeEmail, Value: "a@b.com"},
		})
		if len(result.Items) != 1 {
			t.Fatalf("Expected 1 item, got %d: %v", len(result.Items), result.Items)
		}
	})

	t.Run("CountsByType", func(t *testing.T) {
		result := Merge([]Item{
			{Type: TypeEmail, Value: "a@b.com"},
			{Type: TypeEmail, Value: "c@d.com"},
			{Type: TypeSSN, Value: "123-45-6789"},
		})
		counts := result.CountsByType()
		if counts[TypeEmail] != 2 || counts[TypeSSN] != 1 {
			t.Errorf("Unexpected counts: %v", counts)
		}
	})

	t.Run("EmptyInput", func(t *testing.T) {
		result := Merge()
		if !result.Empty() {
			t.Error("Expected empty result")
		}
	})
}
