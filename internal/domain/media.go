package domain

// MediaKind is the type of payload relayed to the Telegram Bot API
type MediaKind string

const (
	MediaText  MediaKind = "text"
	MediaPhoto MediaKind = "photo"
	MediaAudio MediaKind = "audio"
	MediaVideo MediaKind = "video"
)

// Valid reports whether the kind is a supported one
func (k MediaKind) Valid() bool {
	switch k {
	case MediaText, MediaPhoto, MediaAudio, MediaVideo:
		return true
	}
	return false
}

// AcceptableMIMETypes lists the upload content types accepted per media kind.
// Text has no upload form.
var AcceptableMIMETypes = map[MediaKind][]string{
	MediaPhoto: {"image/jpeg", "image/png", "image/gif"},
	MediaAudio: {"audio/mpeg", "audio/ogg", "audio/wav"},
	MediaVideo: {"video/mp4", "video/ogg", "video/webm"},
}

// AcceptsMIME reports whether the content type is acceptable for the kind
func (k MediaKind) AcceptsMIME(contentType string) bool {
	for _, mt := range AcceptableMIMETypes[k] {
		if mt == contentType {
			return true
		}
	}
	return false
}

// SendMessageRequest is the body of POST /api/v1/messages. Media is a URL,
// Telegram file_id or plain text depending on MediaType; uploads arrive as
// multipart instead.
type SendMessageRequest struct {
	ChatID    string    `json:"chat_id"` // Numeric ID or the aliases mainGroup / mainChannel
	MediaType MediaKind `json:"media_type"`
	Media     string    `json:"media"`
	Caption   string    `json:"caption,omitempty"`
}

// ChangePhotoRequest is the body of POST /api/v1/group/photo
type ChangePhotoRequest struct {
	FileID string `json:"file_id"`
}
