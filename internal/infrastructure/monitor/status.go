package monitor

import "time"

type Status struct {
	MongoDB     bool      `json:"mongodb"`
	Journal     bool      `json:"journal"`
	JournalSize int       `json:"journal_size"`
	LastCheck   time.Time `json:"last_check"`
}
