package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"strings"
	"time"

	"github.com/puretrustgold/puretrust-api/livefeed"
	"github.com/puretrustgold/puretrust-api/model"
	"github.com/puretrustgold/puretrust-api/services/spaces"
	"github.com/puretrustgold/puretrust-api/utils/pdfvalidation"
	"gorm.io/gorm"
)

var (
	// ErrStoreUnavailable wraps database failures surfaced to chat views
	ErrStoreUnavailable = errors.New("chat store unavailable")

	// ErrSendFailed is returned when a message insert does not go through
	ErrSendFailed = errors.New("message could not be sent")

	// ErrUploadFailed is returned when an attachment upload does not complete
	ErrUploadFailed = errors.New("attachment could not be uploaded")

	// ErrSessionNotFound is returned for operations on unknown sessions
	ErrSessionNotFound = errors.New("chat session not found")
)

// ChatService owns chat sessions, transcripts and attachments. Message
// inserts are announced on the live feed after they commit; feed delivery is
// best effort and a publish failure never fails the send.
type ChatService struct {
	db     *gorm.DB
	feed   livefeed.Publisher
	spaces *spaces.SpacesClient
}

// NewChatService creates a new chat service
func NewChatService(db *gorm.DB, feed livefeed.Publisher, spacesClient *spaces.SpacesClient) *ChatService {
	return &ChatService{
		db:     db,
		feed:   feed,
		spaces: spacesClient,
	}
}

// GetOrCreateSession returns the most recently created active session, or
// creates a fresh one carrying the visitor details. Two visitors racing this
// call can land in the same session; the widget tolerates that and operators
// close stray sessions from the console.
func (s *ChatService) GetOrCreateSession(ctx context.Context, visitorName, visitorEmail string) (*model.ChatSession, error) {
	var session model.ChatSession
	err := s.db.WithContext(ctx).
		Where("status = ?", model.SessionStatusActive).
		Order("created_at DESC").
		First(&session).Error

	if err == nil {
		return &session, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	session = model.ChatSession{
		VisitorName:   strings.TrimSpace(visitorName),
		VisitorEmail:  strings.TrimSpace(visitorEmail),
		Status:        model.SessionStatusActive,
		LastMessageAt: time.Now().UTC(),
	}
	if err := s.db.WithContext(ctx).Create(&session).Error; err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	return &session, nil
}

// GetSession loads one session by id
func (s *ChatService) GetSession(ctx context.Context, sessionID string) (*model.ChatSession, error) {
	var session model.ChatSession
	err := s.db.WithContext(ctx).First(&session, "id = ?", sessionID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return &session, nil
}

// ListOpenSessions returns active and waiting sessions, most recent activity
// first, for the operator console queue.
func (s *ChatService) ListOpenSessions(ctx context.Context) ([]model.ChatSession, error) {
	var sessions []model.ChatSession
	err := s.db.WithContext(ctx).
		Where("status IN ?", []model.SessionStatus{model.SessionStatusActive, model.SessionStatusWaiting}).
		Order("last_message_at DESC").
		Find(&sessions).Error
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return sessions, nil
}

// UpdateSessionStatus moves a session through its lifecycle
func (s *ChatService) UpdateSessionStatus(ctx context.Context, sessionID string, status model.SessionStatus) (*model.ChatSession, error) {
	session, err := s.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if err := s.db.WithContext(ctx).Model(session).Update("status", status).Error; err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	session.Status = status
	return session, nil
}

// SendMessage appends a message to the session transcript. Visitor messages
// start unread; operator messages are born read. An operator reply to a
// waiting session flips it back to active. The session's last activity
// timestamp and the live feed publish are both best effort.
func (s *ChatService) SendMessage(ctx context.Context, sessionID, body string, role model.SenderRole, senderName, senderEmail string, att *model.Attachment) (*model.ChatMessage, error) {
	session, err := s.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	msg := model.ChatMessage{
		SessionID:   session.ID,
		SenderRole:  role,
		SenderName:  strings.TrimSpace(senderName),
		SenderEmail: strings.TrimSpace(senderEmail),
		Body:        body,
		IsRead:      role == model.SenderRoleAdmin,
		CreatedAt:   time.Now().UTC(),
	}
	if att != nil {
		msg.FileURL = att.URL
		msg.FileName = att.Name
		msg.FileType = att.MimeType
	}

	if err := s.db.WithContext(ctx).Create(&msg).Error; err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSendFailed, err)
	}

	updates := map[string]interface{}{"last_message_at": msg.CreatedAt}
	if role == model.SenderRoleAdmin && session.Status == model.SessionStatusWaiting {
		updates["status"] = model.SessionStatusActive
	}
	if err := s.db.WithContext(ctx).Model(session).Updates(updates).Error; err != nil {
		log.Printf("Warning: failed to update session %s activity: %v", session.ID, err)
	}

	if s.feed != nil {
		if err := s.feed.Publish(ctx, msg); err != nil {
			log.Printf("Warning: live feed publish failed for session %s: %v", session.ID, err)
		}
	}

	return &msg, nil
}

// GetMessages returns the full transcript of a session, oldest first
func (s *ChatService) GetMessages(ctx context.Context, sessionID string) ([]model.ChatMessage, error) {
	var messages []model.ChatMessage
	err := s.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("created_at ASC").
		Find(&messages).Error
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return messages, nil
}

// MarkSessionRead flags every unread visitor message in the session as read
func (s *ChatService) MarkSessionRead(ctx context.Context, sessionID string) error {
	err := s.db.WithContext(ctx).
		Model(&model.ChatMessage{}).
		Where("session_id = ? AND sender_role = ? AND is_read = ?", sessionID, model.SenderRoleUser, false).
		Update("is_read", true).Error
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

// UnreadCount returns the number of unread visitor messages in a session
func (s *ChatService) UnreadCount(ctx context.Context, sessionID string) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&model.ChatMessage{}).
		Where("session_id = ? AND sender_role = ? AND is_read = ?", sessionID, model.SenderRoleUser, false).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return count, nil
}

// UnreadCountsBySession returns unread visitor message counts keyed by
// session id, for decorating the operator queue in one query.
func (s *ChatService) UnreadCountsBySession(ctx context.Context) (map[string]int64, error) {
	type row struct {
		SessionID string
		N         int64
	}
	var rows []row
	err := s.db.WithContext(ctx).
		Model(&model.ChatMessage{}).
		Select("session_id, count(*) as n").
		Where("sender_role = ? AND is_read = ?", model.SenderRoleUser, false).
		Group("session_id").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	counts := make(map[string]int64, len(rows))
	for _, r := range rows {
		counts[r.SessionID] = r.N
	}
	return counts, nil
}

// UploadAttachment stores a chat file on Spaces and returns its descriptor.
// PDFs are validated before upload; other types are stored as-is.
func (s *ChatService) UploadAttachment(ctx context.Context, sessionID, filename, mimeType string, r io.Reader) (*model.Attachment, error) {
	if s.spaces == nil {
		return nil, fmt.Errorf("%w: storage not configured", ErrUploadFailed)
	}

	if _, err := s.GetSession(ctx, sessionID); err != nil {
		return nil, err
	}

	if mimeType == "" {
		mimeType = "application/octet-stream"
	}

	body := r
	if strings.EqualFold(mimeType, "application/pdf") || strings.HasSuffix(strings.ToLower(filename), ".pdf") {
		result, data, err := pdfvalidation.ValidatePDFReader(filename, r, pdfvalidation.AttachmentLimits)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUploadFailed, err)
		}
		if !result.Valid {
			return nil, fmt.Errorf("%w: %s", ErrUploadFailed, result.Error)
		}
		body = bytes.NewReader(data)
	}

	key := spaces.ChatAttachmentKey(sessionID, filename)
	url, err := s.spaces.UploadFile(ctx, key, body, mimeType)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}

	return &model.Attachment{
		URL:      url,
		Name:     filename,
		MimeType: mimeType,
	}, nil
}

// UploadAttachmentFile is the multipart convenience wrapper used by handlers
func (s *ChatService) UploadAttachmentFile(ctx context.Context, sessionID string, file *multipart.FileHeader) (*model.Attachment, error) {
	src, err := file.Open()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}
	defer src.Close()

	return s.UploadAttachment(ctx, sessionID, file.Filename, file.Header.Get("Content-Type"), src)
}
