package pii

import "testing"

func TestDefaultNamePolicy(t *testing.T) {
	policy := DefaultNamePolicy()

	t.Run("AcceptsPersonNames", func(t *testing.T) {
		for _, name := range []string{"John Smith", "Maria Garcia Lopez", "Anil Kumar"} {
			if !policy.LikelyPerson(name) {
				t.Errorf("%q should be accepted as a person name", name)
			}
		}
	})

	t.Run("RejectsKnownNonNames", func(t *testing.T) {
		for _, name := range []string{"United States", "New York", "Thank You"} {
			if policy.LikelyPerson(name) {
				t.Errorf("%q should be rejected", name)
			}
		}
	})

	t.Run("RejectsTitlesAndCorporateSuffixes", func(t *testing.T) {
		for _, name := range []string{"Mr Smith", "Acme Inc", "Main Street"} {
			if policy.LikelyPerson(name) {
				t.Errorf("%q should be rejected", name)
			}
		}
	})

	t.Run("RejectsSingleWords", func(t *testing.T) {
		if policy.LikelyPerson("Madonna") {
			t.Error("Single word should be rejected")
		}
	})

	t.Run("RejectsTooManyWords", func(t *testing.T) {
		if policy.LikelyPerson("One Two Three Four Five") {
			t.Error("Five words should be rejected")
		}
	})
}
