package event

import "strconv"

const (
	TypeUserDelete     = "UserDeleteEvent"
	TypeDocumentPurged = "DocumentPurgedEvent"
)

// UserDeleteEvent is emitted when a user account is removed. It carries no
// ordering key, deletions for different users may be handled in any order.
type UserDeleteEvent struct {
	UserId int64 `json:"userId"`
}

func (e UserDeleteEvent) EventType() string {
	return TypeUserDelete
}

func (e UserDeleteEvent) Key() string {
	return ""
}

// DocumentPurgedEvent is emitted after a document is permanently removed.
// Events for the same owner share a key so their relative order is preserved.
type DocumentPurgedEvent struct {
	DocumentId string `json:"documentId"`
	OwnerId    int64  `json:"ownerId"`
}

func (e DocumentPurgedEvent) EventType() string {
	return TypeDocumentPurged
}

func (e DocumentPurgedEvent) Key() string {
	return strconv.FormatInt(e.OwnerId, 10)
}
