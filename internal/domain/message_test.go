package domain

import (
	"testing"

	"github.com/google/uuid"
)

func TestMessagePayload_Validate(t *testing.T) {
	attachment := &AttachmentRef{
		Key:         "conversations/abc/photo.jpg",
		Name:        "photo.jpg",
		Size:        2048,
		ContentType: "image/jpeg",
	}

	tests := []struct {
		name    string
		msgType MessageType
		payload MessagePayload
		wantErr bool
	}{
		{
			name:    "text with content",
			msgType: MessageText,
			payload: MessagePayload{Text: "hello"},
			wantErr: false,
		},
		{
			name:    "text empty",
			msgType: MessageText,
			payload: MessagePayload{Text: ""},
			wantErr: true,
		},
		{
			name:    "text whitespace only",
			msgType: MessageText,
			payload: MessagePayload{Text: "   "},
			wantErr: true,
		},
		{
			name:    "text with attachment rejected",
			msgType: MessageText,
			payload: MessagePayload{Text: "hello", Attachment: attachment},
			wantErr: true,
		},
		{
			name:    "emoji with content",
			msgType: MessageEmoji,
			payload: MessagePayload{Text: "\U0001F44D"},
			wantErr: false,
		},
		{
			name:    "system with content",
			msgType: MessageSystem,
			payload: MessagePayload{Text: "user joined"},
			wantErr: false,
		},
		{
			name:    "image with attachment",
			msgType: MessageImage,
			payload: MessagePayload{Attachment: attachment},
			wantErr: false,
		},
		{
			name:    "image without attachment",
			msgType: MessageImage,
			payload: MessagePayload{Text: "not really an image"},
			wantErr: true,
		},
		{
			name:    "file with empty key",
			msgType: MessageFile,
			payload: MessagePayload{Attachment: &AttachmentRef{Name: "doc.pdf"}},
			wantErr: true,
		},
		{
			name:    "audio with empty filename",
			msgType: MessageAudio,
			payload: MessagePayload{Attachment: &AttachmentRef{Key: "k"}},
			wantErr: true,
		},
		{
			name:    "unknown type",
			msgType: MessageType("video"),
			payload: MessagePayload{Text: "x"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.payload.Validate(tt.msgType)
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate(%s) error = %v, wantErr %v", tt.msgType, err, tt.wantErr)
			}
		})
	}
}

func TestMessagePayload_ValidateReplyTo(t *testing.T) {
	id := uuid.New()
	p := MessagePayload{Text: "replying", ReplyToID: &id}
	if err := p.Validate(MessageText); err != nil {
		t.Errorf("reply-to should be allowed on text messages, got %v", err)
	}
}

func TestDeliveryStatus_CanAdvance(t *testing.T) {
	tests := []struct {
		from DeliveryStatus
		to   DeliveryStatus
		want bool
	}{
		{StatusSent, StatusDelivered, true},
		{StatusSent, StatusRead, true},
		{StatusDelivered, StatusRead, true},
		{StatusDelivered, StatusSent, false},
		{StatusRead, StatusDelivered, false},
		{StatusRead, StatusSent, false},
		{StatusSent, StatusSent, false},
		{StatusDelivered, StatusDelivered, false},
		{StatusRead, StatusRead, false},
		{DeliveryStatus("bogus"), StatusRead, false},
		{StatusSent, DeliveryStatus("bogus"), false},
	}

	for _, tt := range tests {
		if got := tt.from.CanAdvance(tt.to); got != tt.want {
			t.Errorf("CanAdvance(%s -> %s) = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestMessageType_Valid(t *testing.T) {
	for _, mt := range []MessageType{MessageText, MessageImage, MessageFile, MessageEmoji, MessageAudio, MessageSystem} {
		if !mt.Valid() {
			t.Errorf("expected %s to be valid", mt)
		}
	}
	if MessageType("video").Valid() {
		t.Error("expected video to be invalid")
	}
}
