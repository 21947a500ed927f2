package protocol

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// ===== REGISTER (600) =====

// RegisterRequest is the decoded payload of a registration request
type RegisterRequest struct {
	Username  string
	PublicKey [PublicKeySize]byte
}

// DecodeRegisterRequest decodes and validates a registration payload.
// The username field is ASCII, null-padded to 255 bytes; trailing nulls are
// stripped and the remainder must be non-empty.
func DecodeRegisterRequest(payload []byte) (*RegisterRequest, error) {
	if len(payload) != RegisterPayloadSize {
		return nil, fmt.Errorf("%w: registration payload is %d bytes, want %d",
			ErrInvalidPayload, len(payload), RegisterPayloadSize)
	}

	username, err := decodeUsername(payload[:UsernameSize])
	if err != nil {
		return nil, err
	}

	req := &RegisterRequest{Username: username}
	copy(req.PublicKey[:], payload[UsernameSize:])

	return req, nil
}

func decodeUsername(field []byte) (string, error) {
	for _, b := range field {
		if b > 0x7F {
			return "", fmt.Errorf("%w: not ASCII", ErrInvalidUsername)
		}
	}

	name := string(bytes.TrimRight(field, "\x00"))
	if name == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidUsername)
	}

	return name, nil
}

// EncodeUsername pads a username to the fixed 255-byte wire field. An
// oversized value is truncated to 254 bytes plus a trailing null.
func EncodeUsername(name string) []byte {
	field := make([]byte, UsernameSize)

	if len(name) >= UsernameSize {
		copy(field, name[:UsernameSize-1])
	} else {
		copy(field, name)
	}

	return field
}

// ===== LIST CLIENTS (601) =====

// ClientRecord is one entry of the user-list response payload
type ClientRecord struct {
	ID       ClientID
	Username string
}

// Encode encodes the record as id (16) | username (255, null-padded)
func (r *ClientRecord) Encode() []byte {
	buf := make([]byte, 0, ClientIDSize+UsernameSize)
	buf = append(buf, r.ID[:]...)
	buf = append(buf, EncodeUsername(r.Username)...)
	return buf
}

// ===== FETCH PUBLIC KEY (602) =====

// DecodeFetchPublicKeyRequest decodes the 16-byte target id payload
func DecodeFetchPublicKeyRequest(payload []byte) (ClientID, error) {
	var id ClientID

	if len(payload) != ClientIDSize {
		return id, fmt.Errorf("%w: public key request payload is %d bytes, want %d",
			ErrInvalidPayload, len(payload), ClientIDSize)
	}

	copy(id[:], payload)
	return id, nil
}

// PublicKeyResponse is the success payload of a public key fetch
type PublicKeyResponse struct {
	ID        ClientID
	PublicKey [PublicKeySize]byte
}

// Encode encodes the response as id (16) | public key (160)
func (r *PublicKeyResponse) Encode() []byte {
	buf := make([]byte, 0, ClientIDSize+PublicKeySize)
	buf = append(buf, r.ID[:]...)
	buf = append(buf, r.PublicKey[:]...)
	return buf
}

// ===== SEND MESSAGE (603) =====

// SendMessageRequest is the decoded payload of a send-message request
type SendMessageRequest struct {
	Target  ClientID
	Type    MessageType
	Content []byte
}

// DecodeSendMessageRequest decodes and validates a send-message payload.
// Layout: target id (16) | type (1) | content length (4, LE) | content.
// The declared content length must make the payload size match exactly.
// A symmetric key request carries no content; the other types require at
// least one content byte.
func DecodeSendMessageRequest(payload []byte) (*SendMessageRequest, error) {
	if len(payload) < MessageHeaderSize {
		return nil, fmt.Errorf("%w: message payload is %d bytes, want at least %d",
			ErrInvalidPayload, len(payload), MessageHeaderSize)
	}

	req := &SendMessageRequest{}
	copy(req.Target[:], payload[:ClientIDSize])

	msgType, err := ParseMessageType(payload[ClientIDSize])
	if err != nil {
		return nil, err
	}
	req.Type = msgType

	contentSize := binary.LittleEndian.Uint32(payload[ClientIDSize+1 : MessageHeaderSize])
	if uint64(len(payload)) != MessageHeaderSize+uint64(contentSize) {
		return nil, fmt.Errorf("%w: declared content size %d does not match payload",
			ErrInvalidPayload, contentSize)
	}

	switch req.Type {
	case SymmetricKeyRequest:
		if contentSize != 0 {
			return nil, fmt.Errorf("%w: symmetric key request must have empty content",
				ErrInvalidPayload)
		}
	default:
		if contentSize == 0 {
			return nil, fmt.Errorf("%w: empty message content", ErrInvalidPayload)
		}
	}

	req.Content = payload[MessageHeaderSize:]
	return req, nil
}

// MessageSentResponse is the success payload of a send-message request
type MessageSentResponse struct {
	Target    ClientID
	MessageID uint32
}

// Encode encodes the response as target id (16) | message id (4, LE)
func (r *MessageSentResponse) Encode() []byte {
	buf := make([]byte, ClientIDSize+4)
	copy(buf, r.Target[:])
	binary.LittleEndian.PutUint32(buf[ClientIDSize:], r.MessageID)
	return buf
}

// ===== FETCH PENDING (604) =====

// PendingMessageRecord is one entry of the pending-messages response payload
type PendingMessageRecord struct {
	From      ClientID
	MessageID uint32
	Type      MessageType
	Content   []byte
}

// Encode encodes the record as
// sender id (16) | message id (4, LE) | type (1) | content length (4, LE) | content
func (r *PendingMessageRecord) Encode() []byte {
	buf := make([]byte, ClientIDSize+4+1+4, ClientIDSize+4+1+4+len(r.Content))

	copy(buf, r.From[:])
	binary.LittleEndian.PutUint32(buf[ClientIDSize:], r.MessageID)
	buf[ClientIDSize+4] = uint8(r.Type)
	binary.LittleEndian.PutUint32(buf[ClientIDSize+5:], uint32(len(r.Content)))

	return append(buf, r.Content...)
}
