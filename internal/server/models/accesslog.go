package models

import "time"

const (
	AccessLogsCollection = "access_logs"

	AccessLogTime = "time"
)

type AccessLogEntry struct {
	ID     string    `bson:"_id,omitempty" json:"id,omitempty"`
	IP     string    `bson:"ip" json:"ip"`
	Method string    `bson:"method" json:"method"`
	URL    string    `bson:"url" json:"url"`
	Time   time.Time `bson:"time" json:"time"`
}
