package models

// TimeSlot is a period of the school day. OrderIndex orders slots within the
// day; break slots never receive lessons.
type TimeSlot struct {
	ID         string `db:"id" json:"id"`
	Name       string `db:"name" json:"name"`
	OrderIndex int    `db:"order_index" json:"order_index"`
	StartTime  string `db:"start_time" json:"start_time"`
	EndTime    string `db:"end_time" json:"end_time"`
	IsBreak    bool   `db:"is_break" json:"is_break"`
}
