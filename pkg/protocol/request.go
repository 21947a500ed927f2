package protocol

import (
	"encoding/binary"
	"errors"
	"io"
)

var (
	ErrInvalidHeader      = errors.New("invalid request header")
	ErrInvalidPayload     = errors.New("invalid payload")
	ErrInvalidUsername    = errors.New("invalid username")
	ErrUnknownMessageType = errors.New("unknown message type")
)

// RequestHeader is the fixed 23-byte header preceding every request payload.
//
// Layout: client_id (16) | version (1) | code (2, LE) | payload_size (4, LE)
type RequestHeader struct {
	ClientID    ClientID
	Version     uint8
	Code        uint16
	PayloadSize uint32
}

// Encode encodes the header to bytes
func (h *RequestHeader) Encode() []byte {
	buf := make([]byte, RequestHeaderSize)

	copy(buf[0:16], h.ClientID[:])
	buf[16] = h.Version
	binary.LittleEndian.PutUint16(buf[17:19], h.Code)
	binary.LittleEndian.PutUint32(buf[19:23], h.PayloadSize)

	return buf
}

// Decode decodes the header from bytes
func (h *RequestHeader) Decode(buf []byte) error {
	if len(buf) < RequestHeaderSize {
		return ErrInvalidHeader
	}

	copy(h.ClientID[:], buf[0:16])
	h.Version = buf[16]
	h.Code = binary.LittleEndian.Uint16(buf[17:19])
	h.PayloadSize = binary.LittleEndian.Uint32(buf[19:23])

	return nil
}

// ReadRequestHeader reads a full request header from r. A short read is a
// framing error for the caller; no partial header is ever returned.
func ReadRequestHeader(r io.Reader) (*RequestHeader, error) {
	buf := make([]byte, RequestHeaderSize)

	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}

	header := &RequestHeader{}
	if err := header.Decode(buf); err != nil {
		return nil, err
	}

	return header, nil
}
