// Package protocol implements the CipherPost relay wire protocol.
//
// The protocol is a binary request/response protocol over a persistent TCP
// connection. The server stores and forwards opaque encrypted payloads; it
// never inspects or decrypts content.
//
// # Request Format
//
// Every request starts with a fixed 23-byte header:
//   - ClientID (16 bytes): requester's identifier (zero before registration)
//   - Version (1 byte): client protocol version
//   - Code (2 bytes, little-endian): request code
//   - PayloadSize (4 bytes, little-endian): payload length
//
// The header is followed by exactly PayloadSize bytes of payload.
//
// # Response Format
//
// Every response starts with a fixed 7-byte header:
//   - Version (1 byte): server version
//   - Code (2 bytes, little-endian): response code
//   - PayloadSize (4 bytes, little-endian): payload length
//
// The generic error response (code 9000) always carries an empty payload;
// no failure detail is leaked onto the wire.
//
// # Request Codes
//
//   - 600 Register: 255-byte null-padded username + 160-byte public key
//   - 601 ListClients: empty payload, returns every client but the requester
//   - 602 FetchPublicKey: 16-byte target id
//   - 603 SendMessage: target id, message type, length-prefixed content
//   - 604 FetchPending: empty payload, atomically drains the requester's queue
//
// # Message Types
//
// Relayed messages carry a closed one-byte type: symmetric key request (1,
// empty content), symmetric key send (2) and text message (3). Unknown type
// bytes are rejected at decode time.
package protocol
