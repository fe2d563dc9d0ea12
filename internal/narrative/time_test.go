package narrative

import (
	"testing"
	"time"
)

func TestTimeAdd(t *testing.T) {
	tests := []struct {
		name     string
		start    Time
		delta    TimeDelta
		expected Time
	}{
		{
			name:     "hours",
			start:    Time{Year: 2024, Month: 3, Day: 10, Hour: 10},
			delta:    TimeDelta{Hours: 2},
			expected: Time{Year: 2024, Month: 3, Day: 10, Hour: 12},
		},
		{
			name:     "seconds carry into minutes and hours",
			start:    Time{Year: 2024, Month: 3, Day: 10, Hour: 23, Minute: 59, Second: 30},
			delta:    TimeDelta{Seconds: 45},
			expected: Time{Year: 2024, Month: 3, Day: 11, Hour: 0, Minute: 0, Second: 15},
		},
		{
			name:     "leap day",
			start:    Time{Year: 2024, Month: 2, Day: 28, Hour: 20},
			delta:    TimeDelta{Hours: 6},
			expected: Time{Year: 2024, Month: 2, Day: 29, Hour: 2},
		},
		{
			name:     "non leap year",
			start:    Time{Year: 2023, Month: 2, Day: 28, Hour: 20},
			delta:    TimeDelta{Hours: 6},
			expected: Time{Year: 2023, Month: 3, Day: 1, Hour: 2},
		},
		{
			name:     "year rollover",
			start:    Time{Year: 1999, Month: 12, Day: 31, Hour: 23},
			delta:    TimeDelta{Days: 1, Hours: 1},
			expected: Time{Year: 2000, Month: 1, Day: 2, Hour: 0},
		},
		{
			name:     "missing month and day default to the first",
			start:    Time{Year: 1203, Hour: 10},
			delta:    TimeDelta{Hours: 1},
			expected: Time{Year: 1203, Month: 1, Day: 1, Hour: 11},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.start.Add(tt.delta)
			if got != tt.expected {
				t.Errorf("Add(%+v) = %+v, want %+v", tt.delta, got, tt.expected)
			}
		})
	}
}

func TestSinceWithMissingDate(t *testing.T) {
	earlier := Time{Year: 1203, Hour: 10}
	later := Time{Year: 1203, Month: 1, Day: 1, Hour: 13}
	if got := later.Since(earlier); got != 3*time.Hour {
		t.Fatalf("Since() = %v, want 3h", got)
	}
	if got := earlier.Normalized(); got != (Time{Year: 1203, Month: 1, Day: 1, Hour: 10}) {
		t.Fatalf("Normalized() = %+v", got)
	}
}

func TestPairSorted(t *testing.T) {
	pair := NewPair("Mira", "Aldo")
	if pair != (Pair{"Aldo", "Mira"}) {
		t.Fatalf("expected sorted pair, got %v", pair)
	}
	rel := NewRelationship("Mira", "Aldo")
	rel.Directed("Aldo").Feelings = append(rel.Directed("Aldo").Feelings, "trust")
	if len(rel.AToB.Feelings) != 1 || len(rel.BToA.Feelings) != 0 {
		t.Fatalf("expected aToB to hold Aldo's feelings, got %+v", rel)
	}
}

func TestOutfitSetSlot(t *testing.T) {
	var outfit Outfit
	hat := "straw hat"
	if !outfit.SetSlot(SlotHead, &hat) {
		t.Fatalf("expected head slot to be accepted")
	}
	if outfit.SetSlot("tail", &hat) {
		t.Fatalf("expected unknown slot to be rejected")
	}
	hat = "changed"
	if got := outfit.Slot(SlotHead); got == nil || *got != "straw hat" {
		t.Fatalf("expected slot to hold an independent copy, got %v", got)
	}
	clone := outfit.Clone()
	clone.SetSlot(SlotHead, nil)
	if outfit.Head == nil {
		t.Fatalf("clone must not alias the original")
	}
}
