package outbox

import (
	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
)

func newRawMessage(payload []byte) *message.Message {
	return message.NewMessage(watermill.NewUUID(), payload)
}
