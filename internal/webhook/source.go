package webhook

import "github.com/line/line-bot-sdk-go/v8/linebot/webhook"

// chatID returns the reply target of a source: the user for 1:1 chats,
// the group or room otherwise.
func chatID(source webhook.SourceInterface) string {
	switch s := source.(type) {
	case webhook.UserSource:
		return s.UserId
	case webhook.GroupSource:
		return s.GroupId
	case webhook.RoomSource:
		return s.RoomId
	}
	return ""
}

// userID returns the sender regardless of chat type. Empty when the user
// has not consented to share it in a group.
func userID(source webhook.SourceInterface) string {
	switch s := source.(type) {
	case webhook.UserSource:
		return s.UserId
	case webhook.GroupSource:
		return s.UserId
	case webhook.RoomSource:
		return s.UserId
	}
	return ""
}

// isPersonalChat reports whether the source is a 1:1 chat.
func isPersonalChat(source webhook.SourceInterface) bool {
	_, ok := source.(webhook.UserSource)
	return ok
}
