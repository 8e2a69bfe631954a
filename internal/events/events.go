package events

import (
	"encoding/json"
	"time"
)

// Event types published on the hub.
const (
	TypePing           = "ping"
	TypeReportProgress = "report.progress"
	TypeReportDone     = "report.done"
	TypeReportFailed   = "report.failed"
	TypeCacheRefreshed = "cache.refreshed"
	TypeConfigChanged  = "config.changed"
)

type Event struct {
	Type      string          `json:"type"`
	Version   int             `json:"v"`
	At        time.Time       `json:"at"`
	RequestID string          `json:"request_id,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
}

// Progress is the payload of report.progress.
type Progress struct {
	ProspectID int64  `json:"prospect_id"`
	Step       string `json:"step"`
	Percent    int    `json:"percent"`
}

func MakeEvent(reqID, typ string, v int, data any) string {
	var raw json.RawMessage
	if data != nil {
		b, _ := json.Marshal(data)
		raw = b
	}
	e := Event{
		Type:      typ,
		Version:   v,
		At:        time.Now().UTC(),
		RequestID: reqID,
		Data:      raw,
	}
	b, _ := json.Marshal(e)
	return string(b)
}
