package protocol

import (
	"encoding/hex"
	"fmt"
)

// Protocol constants
const (
	// Server version byte carried in every response header
	ServerVersion uint8 = 2

	// Fixed header sizes
	RequestHeaderSize  = 23
	ResponseHeaderSize = 7

	// Field sizes
	ClientIDSize  = 16
	UsernameSize  = 255
	PublicKeySize = 160

	// Message sub-header inside a SendMessage payload:
	// target id (16) + type (1) + content length (4)
	MessageHeaderSize = ClientIDSize + 1 + 4

	// Register request payload: username field + public key
	RegisterPayloadSize = UsernameSize + PublicKeySize
)

// Request codes
const (
	CodeRegister       uint16 = 600
	CodeListClients    uint16 = 601
	CodeFetchPublicKey uint16 = 602
	CodeSendMessage    uint16 = 603
	CodeFetchPending   uint16 = 604
)

// Response codes
const (
	RespRegistrationSuccess uint16 = 2100
	RespUserList            uint16 = 2101
	RespPublicKey           uint16 = 2102
	RespMessageSent         uint16 = 2103
	RespPendingMessages     uint16 = 2104
	RespError               uint16 = 9000
)

// ClientID is the 16-byte opaque client identifier assigned at registration
type ClientID [16]byte

// String returns the hex form, for log lines
func (id ClientID) String() string {
	return hex.EncodeToString(id[:])
}

// IsZero checks if the id is all zeros
func (id ClientID) IsZero() bool {
	return id == ClientID{}
}

// MessageType is the closed set of relayed message kinds
type MessageType uint8

const (
	SymmetricKeyRequest MessageType = 1
	SymmetricKeySend    MessageType = 2
	TextMessage         MessageType = 3
)

// ParseMessageType validates a raw wire byte against the known types
func ParseMessageType(b uint8) (MessageType, error) {
	switch t := MessageType(b); t {
	case SymmetricKeyRequest, SymmetricKeySend, TextMessage:
		return t, nil
	default:
		return 0, fmt.Errorf("%w: %d", ErrUnknownMessageType, b)
	}
}

func (t MessageType) String() string {
	switch t {
	case SymmetricKeyRequest:
		return "symmetric-key-request"
	case SymmetricKeySend:
		return "symmetric-key-send"
	case TextMessage:
		return "text-message"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(t))
	}
}
