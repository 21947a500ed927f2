package protocol

import (
	"bytes"
	"io"
	"testing"
)

func testClientID(fill byte) ClientID {
	var id ClientID
	for i := range id {
		id[i] = fill
	}
	return id
}

func TestRequestHeaderEncodeDecode(t *testing.T) {
	tests := []struct {
		name   string
		header *RequestHeader
	}{
		{
			name: "register request",
			header: &RequestHeader{
				ClientID:    ClientID{},
				Version:     2,
				Code:        CodeRegister,
				PayloadSize: RegisterPayloadSize,
			},
		},
		{
			name: "list clients request",
			header: &RequestHeader{
				ClientID:    testClientID(0xAB),
				Version:     2,
				Code:        CodeListClients,
				PayloadSize: 0,
			},
		},
		{
			name: "send message request",
			header: &RequestHeader{
				ClientID:    testClientID(0x01),
				Version:     2,
				Code:        CodeSendMessage,
				PayloadSize: MessageHeaderSize + 1024,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			encoded := tt.header.Encode()

			if len(encoded) != RequestHeaderSize {
				t.Errorf("Encode() length = %d, want %d", len(encoded), RequestHeaderSize)
			}

			decoded := &RequestHeader{}
			if err := decoded.Decode(encoded); err != nil {
				t.Fatalf("Decode() error = %v", err)
			}

			if decoded.ClientID != tt.header.ClientID {
				t.Errorf("ClientID = %v, want %v", decoded.ClientID, tt.header.ClientID)
			}
			if decoded.Version != tt.header.Version {
				t.Errorf("Version = %d, want %d", decoded.Version, tt.header.Version)
			}
			if decoded.Code != tt.header.Code {
				t.Errorf("Code = %d, want %d", decoded.Code, tt.header.Code)
			}
			if decoded.PayloadSize != tt.header.PayloadSize {
				t.Errorf("PayloadSize = %d, want %d", decoded.PayloadSize, tt.header.PayloadSize)
			}
		})
	}
}

func TestRequestHeaderLayout(t *testing.T) {
	// The header layout is a hard wire contract: byte offsets must not move.
	header := &RequestHeader{
		ClientID:    testClientID(0x11),
		Version:     2,
		Code:        CodeSendMessage, // 603 = 0x025B
		PayloadSize: 0x01020304,
	}

	encoded := header.Encode()

	for i := 0; i < 16; i++ {
		if encoded[i] != 0x11 {
			t.Fatalf("byte %d = %02x, want 11", i, encoded[i])
		}
	}
	if encoded[16] != 2 {
		t.Errorf("version byte = %02x, want 02", encoded[16])
	}
	if encoded[17] != 0x5B || encoded[18] != 0x02 {
		t.Errorf("code bytes = %02x %02x, want 5B 02 (little-endian)", encoded[17], encoded[18])
	}
	if encoded[19] != 0x04 || encoded[20] != 0x03 || encoded[21] != 0x02 || encoded[22] != 0x01 {
		t.Errorf("payload size bytes = %02x, want 04 03 02 01", encoded[19:23])
	}
}

func TestRequestHeaderDecodeTooShort(t *testing.T) {
	header := &RequestHeader{}
	if err := header.Decode(make([]byte, RequestHeaderSize-1)); err != ErrInvalidHeader {
		t.Errorf("Decode() error = %v, want %v", err, ErrInvalidHeader)
	}
}

func TestReadRequestHeader(t *testing.T) {
	original := &RequestHeader{
		ClientID:    testClientID(0x42),
		Version:     2,
		Code:        CodeFetchPending,
		PayloadSize: 0,
	}

	buf := bytes.NewBuffer(original.Encode())

	header, err := ReadRequestHeader(buf)
	if err != nil {
		t.Fatalf("ReadRequestHeader() error = %v", err)
	}

	if header.ClientID != original.ClientID {
		t.Error("ClientID mismatch")
	}
	if header.Code != original.Code {
		t.Errorf("Code = %d, want %d", header.Code, original.Code)
	}
}

func TestReadRequestHeaderShortStream(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{name: "empty stream", data: nil},
		{name: "partial header", data: make([]byte, RequestHeaderSize-5)},
		{name: "single byte", data: []byte{0x01}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadRequestHeader(bytes.NewReader(tt.data))
			if err == nil {
				t.Fatal("ReadRequestHeader() error = nil, want error")
			}
			if len(tt.data) > 0 && err != io.ErrUnexpectedEOF {
				t.Errorf("ReadRequestHeader() error = %v, want %v", err, io.ErrUnexpectedEOF)
			}
		})
	}
}

func TestResponseHeaderEncodeDecode(t *testing.T) {
	tests := []struct {
		name   string
		header *ResponseHeader
	}{
		{
			name:   "registration success",
			header: &ResponseHeader{Version: ServerVersion, Code: RespRegistrationSuccess, PayloadSize: ClientIDSize},
		},
		{
			name:   "empty user list",
			header: &ResponseHeader{Version: ServerVersion, Code: RespUserList, PayloadSize: 0},
		},
		{
			name:   "error",
			header: &ResponseHeader{Version: ServerVersion, Code: RespError, PayloadSize: 0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			encoded := tt.header.Encode()

			if len(encoded) != ResponseHeaderSize {
				t.Errorf("Encode() length = %d, want %d", len(encoded), ResponseHeaderSize)
			}

			decoded := &ResponseHeader{}
			if err := decoded.Decode(encoded); err != nil {
				t.Fatalf("Decode() error = %v", err)
			}

			if *decoded != *tt.header {
				t.Errorf("decoded = %+v, want %+v", decoded, tt.header)
			}
		})
	}
}

func TestEncodeResponseErrorDropsPayload(t *testing.T) {
	encoded := EncodeResponse(RespError, []byte("must not leak"))

	if len(encoded) != ResponseHeaderSize {
		t.Fatalf("error response length = %d, want bare header %d", len(encoded), ResponseHeaderSize)
	}

	header := &ResponseHeader{}
	if err := header.Decode(encoded); err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if header.PayloadSize != 0 {
		t.Errorf("PayloadSize = %d, want 0", header.PayloadSize)
	}
	if header.Code != RespError {
		t.Errorf("Code = %d, want %d", header.Code, RespError)
	}
}

func TestWriteReadResponse(t *testing.T) {
	payload := []byte{0xDE, 0xAD, 0xBE, 0xEF}

	buf := &bytes.Buffer{}
	if err := WriteResponse(buf, RespPublicKey, payload); err != nil {
		t.Fatalf("WriteResponse() error = %v", err)
	}

	header, got, err := ReadResponse(buf)
	if err != nil {
		t.Fatalf("ReadResponse() error = %v", err)
	}

	if header.Version != ServerVersion {
		t.Errorf("Version = %d, want %d", header.Version, ServerVersion)
	}
	if header.Code != RespPublicKey {
		t.Errorf("Code = %d, want %d", header.Code, RespPublicKey)
	}
	if !bytes.Equal(got, payload) {
		t.Errorf("payload = %x, want %x", got, payload)
	}
}
