package network

import (
	"errors"
	"log"

	"github.com/google/uuid"

	"github.com/cipherpost/relay-node/pkg/protocol"
	"github.com/cipherpost/relay-node/pkg/store"
)

// errorResponse logs the failure server-side and produces the generic error
// response. No detail reaches the wire.
func errorResponse(format string, args ...interface{}) (uint16, []byte) {
	log.Printf(format, args...)
	return protocol.RespError, nil
}

// registrationHandler handles registration requests (code 600)
type registrationHandler struct {
	store *store.Store
}

func (h *registrationHandler) Handle(req *Request) (uint16, []byte) {
	reg, err := protocol.DecodeRegisterRequest(req.Payload)
	if err != nil {
		return errorResponse("Registration rejected: %v", err)
	}

	if _, err := h.store.GetClientByUsername(reg.Username); err == nil {
		return errorResponse("Registration rejected: username %q already exists", reg.Username)
	} else if !errors.Is(err, store.ErrNotFound) {
		return errorResponse("Registration lookup failed: %v", err)
	}

	newID := protocol.ClientID(uuid.New())

	client := &store.Client{
		ID:        newID,
		Username:  reg.Username,
		PublicKey: reg.PublicKey[:],
		LastSeen:  store.LastSeenUnknown,
	}
	if err := h.store.AddClient(client); err != nil {
		return errorResponse("Failed to add client %q: %v", reg.Username, err)
	}

	log.Printf("Registered new client %q with id %s", reg.Username, newID)
	return protocol.RespRegistrationSuccess, newID[:]
}

// listClientsHandler handles user-list requests (code 601)
type listClientsHandler struct {
	store *store.Store
}

func (h *listClientsHandler) Handle(req *Request) (uint16, []byte) {
	if len(req.Payload) != 0 {
		return errorResponse("List clients rejected: unexpected payload of %d bytes", len(req.Payload))
	}

	clients, err := h.store.ListClients()
	if err != nil {
		return errorResponse("Failed to list clients: %v", err)
	}

	payload := make([]byte, 0, len(clients)*(protocol.ClientIDSize+protocol.UsernameSize))
	for _, client := range clients {
		if client.ID == req.Header.ClientID {
			continue
		}

		record := &protocol.ClientRecord{ID: client.ID, Username: client.Username}
		payload = append(payload, record.Encode()...)
	}

	return protocol.RespUserList, payload
}

// fetchPublicKeyHandler handles public key requests (code 602)
type fetchPublicKeyHandler struct {
	store *store.Store
}

func (h *fetchPublicKeyHandler) Handle(req *Request) (uint16, []byte) {
	target, err := protocol.DecodeFetchPublicKeyRequest(req.Payload)
	if err != nil {
		return errorResponse("Public key request rejected: %v", err)
	}

	client, err := h.store.GetClientByID(target)
	if err != nil {
		return errorResponse("Public key request for unknown client %s: %v", target, err)
	}

	if len(client.PublicKey) != protocol.PublicKeySize {
		return errorResponse("Stored public key for %s has bad length %d", target, len(client.PublicKey))
	}

	resp := &protocol.PublicKeyResponse{ID: client.ID}
	copy(resp.PublicKey[:], client.PublicKey)

	return protocol.RespPublicKey, resp.Encode()
}

// sendMessageHandler handles store-and-forward message requests (code 603)
type sendMessageHandler struct {
	store *store.Store
}

func (h *sendMessageHandler) Handle(req *Request) (uint16, []byte) {
	msg, err := protocol.DecodeSendMessageRequest(req.Payload)
	if err != nil {
		return errorResponse("Send message rejected: %v", err)
	}

	messageID, err := h.store.AddMessage(&store.Message{
		To:      msg.Target,
		From:    req.Header.ClientID,
		Type:    msg.Type,
		Content: msg.Content,
	})
	if err != nil {
		return errorResponse("Failed to store message for %s: %v", msg.Target, err)
	}

	log.Printf("Stored %s message %d from %s to %s (%d bytes)",
		msg.Type, messageID, req.Header.ClientID, msg.Target, len(msg.Content))

	resp := &protocol.MessageSentResponse{Target: msg.Target, MessageID: uint32(messageID)}
	return protocol.RespMessageSent, resp.Encode()
}

// fetchPendingHandler handles pending-message fetches (code 604)
type fetchPendingHandler struct {
	store *store.Store
}

func (h *fetchPendingHandler) Handle(req *Request) (uint16, []byte) {
	if len(req.Payload) != 0 {
		return errorResponse("Fetch pending rejected: unexpected payload of %d bytes", len(req.Payload))
	}

	messages, err := h.store.FetchAndRemovePending(req.Header.ClientID)
	if err != nil {
		return errorResponse("Failed to fetch pending messages for %s: %v", req.Header.ClientID, err)
	}

	var payload []byte
	for _, msg := range messages {
		record := &protocol.PendingMessageRecord{
			From:      msg.From,
			MessageID: uint32(msg.ID),
			Type:      msg.Type,
			Content:   msg.Content,
		}
		payload = append(payload, record.Encode()...)
	}

	if len(messages) > 0 {
		log.Printf("Delivered %d pending messages to %s", len(messages), req.Header.ClientID)
	}

	return protocol.RespPendingMessages, payload
}
