package server

import (
	"encoding/json"

	"gochat/pkg/presence"
	"gochat/pkg/protocol"
)

// routeInbound handles one frame from a bound connection: validate,
// store any attachment, persist, then fan out to the recipient's live
// connections. Persistence failure aborts the relay so history never
// lags behind what recipients saw.
func (s *Server) routeInbound(client *presence.Client, raw []byte) {
	sender := client.Identity()

	inbound, err := protocol.ParseInbound(raw)
	if err != nil {
		s.log.DebugWith("dropping malformed frame", "connID", client.ID(), "error", err)
		return
	}
	if err := inbound.Validate(); err != nil {
		s.log.DebugWith("dropping invalid message",
			"connID", client.ID(),
			"userID", sender.UserID,
			"error", err)
		return
	}

	var storedFile string
	if inbound.File != nil {
		name, err := s.uploads.Save(inbound.File.Name, inbound.File.Data)
		if err != nil {
			// Degrade to text-only rather than losing the whole message.
			s.log.WarnWith("attachment write failed, relaying without it",
				"userID", sender.UserID,
				"file", inbound.File.Name,
				"error", err)
		} else {
			storedFile = name
			s.log.DebugWith("attachment stored", "userID", sender.UserID, "file", name)
		}
	}

	if inbound.Text == "" && storedFile == "" {
		s.log.WarnWith("dropping message left empty by attachment failure", "userID", sender.UserID)
		return
	}

	msg := protocol.NewMessage(sender.UserID, inbound.Recipient, inbound.Text, storedFile)

	if err := s.store.AppendMessage(msg); err != nil {
		s.log.ErrorWithErr("failed to persist message, relay aborted", err,
			"sender", sender.UserID,
			"recipient", inbound.Recipient)
		return
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		s.log.ErrorWithErr("failed to encode message", err, "messageID", msg.ID)
		return
	}

	delivered := 0
	for _, peer := range s.registry.ConnectionsForUser(inbound.Recipient) {
		if err := peer.Push(payload); err != nil {
			s.log.WarnWith("delivery push failed",
				"connID", peer.ID(),
				"recipient", inbound.Recipient,
				"error", err)
			continue
		}
		delivered++
	}

	s.log.DebugWith("message routed",
		"messageID", msg.ID,
		"sender", sender.UserID,
		"recipient", inbound.Recipient,
		"deliveries", delivered)
}
