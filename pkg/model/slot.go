package model

// Slot is a date-specific instantiation of a weekly window. Slots are derived
// on demand from the availability spec plus the live appointment set and are
// never persisted, so they cannot drift from ground truth.
type Slot struct {
	DoctorID    string `json:"doctor_id"`
	Date        string `json:"date"`
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time"`
	Capacity    int    `json:"capacity"`
	BookedCount int    `json:"booked_count"`
}

// Remaining returns the number of free seats in the slot.
func (s *Slot) Remaining() int {
	if r := s.Capacity - s.BookedCount; r > 0 {
		return r
	}
	return 0
}
