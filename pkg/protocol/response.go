package protocol

import (
	"encoding/binary"
	"io"
)

// ResponseHeader is the fixed 7-byte header preceding every response payload.
//
// Layout: version (1) | code (2, LE) | payload_size (4, LE)
type ResponseHeader struct {
	Version     uint8
	Code        uint16
	PayloadSize uint32
}

// Encode encodes the header to bytes
func (h *ResponseHeader) Encode() []byte {
	buf := make([]byte, ResponseHeaderSize)

	buf[0] = h.Version
	binary.LittleEndian.PutUint16(buf[1:3], h.Code)
	binary.LittleEndian.PutUint32(buf[3:7], h.PayloadSize)

	return buf
}

// Decode decodes the header from bytes
func (h *ResponseHeader) Decode(buf []byte) error {
	if len(buf) < ResponseHeaderSize {
		return ErrInvalidHeader
	}

	h.Version = buf[0]
	h.Code = binary.LittleEndian.Uint16(buf[1:3])
	h.PayloadSize = binary.LittleEndian.Uint32(buf[3:7])

	return nil
}

// EncodeResponse builds a complete wire response. The error response never
// carries a payload regardless of what the caller passes in.
func EncodeResponse(code uint16, payload []byte) []byte {
	if code == RespError {
		payload = nil
	}

	header := &ResponseHeader{
		Version:     ServerVersion,
		Code:        code,
		PayloadSize: uint32(len(payload)),
	}

	return append(header.Encode(), payload...)
}

// WriteResponse writes a complete response to w
func WriteResponse(w io.Writer, code uint16, payload []byte) error {
	_, err := w.Write(EncodeResponse(code, payload))
	return err
}

// ReadResponse reads a full response header and payload from r. Used by
// client-side code and tests.
func ReadResponse(r io.Reader) (*ResponseHeader, []byte, error) {
	buf := make([]byte, ResponseHeaderSize)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, nil, err
	}

	header := &ResponseHeader{}
	if err := header.Decode(buf); err != nil {
		return nil, nil, err
	}

	if header.PayloadSize == 0 {
		return header, nil, nil
	}

	payload := make([]byte, header.PayloadSize)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, nil, err
	}

	return header, payload, nil
}
