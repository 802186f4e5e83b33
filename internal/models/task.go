package models

import "time"

const (
	// TimestampLayout is the wire format of deadlines and publish times.
	TimestampLayout = "2006-01-02 15:04:05"
	// DayKeyLayout identifies a calendar day, e.g. "20240115".
	DayKeyLayout = "20060102"
)

type Task struct {
	ID       uint      `gorm:"primaryKey"`
	UserID   uint      `gorm:"not null;index"`
	Content  string    `gorm:"type:text;not null"`
	Deadline time.Time `gorm:"not null;index"`
	// Date is the creation time, published as "published" in the JSON view.
	Date time.Time `gorm:"not null"`
	Done bool      `gorm:"not null;default:false"`
}

// DayKey returns the deadline's calendar day as YYYYMMDD.
func (t Task) DayKey() string {
	return t.Deadline.Format(DayKeyLayout)
}

// TaskJSON is the representation served by the JSON API.
type TaskJSON struct {
	ID        uint   `json:"id"`
	Content   string `json:"content"`
	Deadline  string `json:"deadline"`
	Published string `json:"published"`
	Done      bool   `json:"done"`
}

func (t Task) JSON() TaskJSON {
	return TaskJSON{
		ID:        t.ID,
		Content:   t.Content,
		Deadline:  t.Deadline.Format(TimestampLayout),
		Published: t.Date.Format(TimestampLayout),
		Done:      t.Done,
	}
}

func TasksJSON(tasks []Task) []TaskJSON {
	out := make([]TaskJSON, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, t.JSON())
	}
	return out
}

// All lists the models managed by migrations.
func All() []interface{} {
	return []interface{}{&User{}, &Task{}}
}
