package spaces

import (
	"regexp"
	"strings"
	"testing"
)

var keyPattern = regexp.MustCompile(`^[0-9a-f]{8}_\d+\.pdf$`)

func TestGenerateKeyFormat(t *testing.T) {
	key := GenerateKey("chat-files/session-1", "receipt.pdf")

	if !strings.HasPrefix(key, "chat-files/session-1/") {
		t.Fatalf("key missing folder prefix: %q", key)
	}
	base := strings.TrimPrefix(key, "chat-files/session-1/")
	if !keyPattern.MatchString(base) {
		t.Errorf("key basename has unexpected shape: %q", base)
	}
}

func TestGenerateKeyTrimsTrailingSlash(t *testing.T) {
	key := GenerateKey("appointment-photos/", "ring.jpg")

	if strings.Contains(key, "//") {
		t.Errorf("double slash in key: %q", key)
	}
	if !strings.HasSuffix(key, ".jpg") {
		t.Errorf("extension lost: %q", key)
	}
}

func TestGenerateKeyIsCollisionResistant(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		key := GenerateKey("chat-files/session-1", "invoice.pdf")
		if seen[key] {
			t.Fatalf("duplicate key generated: %q", key)
		}
		seen[key] = true
	}
}

func TestChatAttachmentKeyScopesToSession(t *testing.T) {
	key := ChatAttachmentKey("session-42", "photo.png")
	if !strings.HasPrefix(key, "chat-files/session-42/") {
		t.Errorf("key not scoped to session: %q", key)
	}
}

func TestAppointmentPhotoKeyFolder(t *testing.T) {
	key := AppointmentPhotoKey("necklace.jpeg")
	if !strings.HasPrefix(key, "appointment-photos/") {
		t.Errorf("unexpected folder: %q", key)
	}
}
