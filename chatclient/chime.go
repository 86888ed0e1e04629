package chatclient

import (
	"encoding/base64"
	"io"
)

// Chime plays the short notification sound on message receipt. Playback
// failure (e.g. the sink requires a user gesture) is swallowed by the views
// and never surfaced as an error.
type Chime interface {
	Play() error
}

// notificationWAV is the embedded notification tone, a short 8-bit PCM beep.
const notificationWAV = "UklGRnoGAABXQVZFZm10IBAAAAABAAEAQB8AAEAfAAABAAgAZGF0YQoGAACBhYqFbF1fdJivrJBhNjVgodDbq2EcBj+a2/LDciUFLIHO8tiJNwgZaLvt559NEAxQp+PwtmMcBjiR1/LMeSwFJHfH8N2QQAoUXrTp66hVFApGn+DyvmwhBSuBzvLZiTYIG2m98OSfTQ8MUafj8LZjHAY4kdfyzHksBSR3x/DdkEAKFF606euoVRQKRp/g8r5sIQUrgc7y2Yk2CBtpvfDkn00PDFGn4/C2YxwGOJHX8sx5LAUkd8fw3ZBA"

// WriterChime delivers the tone bytes to an audio sink.
type WriterChime struct {
	sink io.Writer
}

// NewWriterChime creates a chime that writes the embedded tone to sink.
func NewWriterChime(sink io.Writer) *WriterChime {
	return &WriterChime{sink: sink}
}

// Play writes the decoded tone to the sink.
func (c *WriterChime) Play() error {
	data, err := base64.RawStdEncoding.DecodeString(notificationWAV)
	if err != nil {
		return err
	}
	_, err = c.sink.Write(data)
	return err
}

// SilentChime is a no-op chime for views without an audio sink.
type SilentChime struct{}

func (SilentChime) Play() error { return nil }
