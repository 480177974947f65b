package model

import "testing"

func TestCanTransitionTo(t *testing.T) {
	tests := []struct {
		name string
		from AppointmentStatus
		to   AppointmentStatus
		want bool
	}{
		{name: "pending to confirmed", from: StatusPending, to: StatusConfirmed, want: true},
		{name: "pending to cancelled", from: StatusPending, to: StatusCancelled, want: true},
		{name: "pending to completed", from: StatusPending, to: StatusCompleted, want: false},
		{name: "confirmed to completed", from: StatusConfirmed, to: StatusCompleted, want: true},
		{name: "confirmed to cancelled", from: StatusConfirmed, to: StatusCancelled, want: true},
		{name: "confirmed to pending", from: StatusConfirmed, to: StatusPending, want: false},
		{name: "cancelled is terminal", from: StatusCancelled, to: StatusCancelled, want: false},
		{name: "completed is terminal", from: StatusCompleted, to: StatusCompleted, want: false},
		{name: "completed to cancelled", from: StatusCompleted, to: StatusCancelled, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.from.CanTransitionTo(tt.to); got != tt.want {
				t.Errorf("CanTransitionTo(%s -> %s) = %v, want %v", tt.from, tt.to, got, tt.want)
			}
		})
	}
}

func TestCapacityStatuses(t *testing.T) {
	got := CapacityStatuses()
	want := []AppointmentStatus{StatusPending, StatusConfirmed}

	if len(got) != len(want) {
		t.Fatalf("CapacityStatuses() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("CapacityStatuses() = %v, want %v", got, want)
		}
	}

	// The list and the predicate must never disagree; the count query filters
	// with one and the model reasons with the other.
	for _, s := range []AppointmentStatus{StatusPending, StatusConfirmed, StatusCancelled, StatusCompleted} {
		inList := false
		for _, h := range got {
			if h == s {
				inList = true
			}
		}
		if inList != s.CountsAgainstCapacity() {
			t.Errorf("status %s: in CapacityStatuses = %v, CountsAgainstCapacity = %v", s, inList, s.CountsAgainstCapacity())
		}
	}
}
