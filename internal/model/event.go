package model

import "time"

type EventType string

const (
	EventCreate EventType = "CREATE"
	EventWrite  EventType = "WRITE"
	EventRemove EventType = "REMOVE"
	EventRename EventType = "RENAME"
)

type FileEvent struct {
	Type      EventType
	Path      string
	Timestamp time.Time
}

type SyncOp string

const (
	OpUpload   SyncOp = "UPLOAD"
	OpDownload SyncOp = "DOWNLOAD"
)

type SyncResult struct {
	Op         SyncOp
	LocalPath  string
	RemotePath string
	Written    bool
	Err        error
}
