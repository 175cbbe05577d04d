package ports

// EventBus distributes engine events (session.generated, and friends) to
// in-process subscribers. Slow subscribers may miss events.
type EventBus interface {
	Publish(topic string, payload []byte)
	Subscribe() (ch <-chan Event, cancel func())
}

type Event struct {
	Topic   string
	Payload []byte
}
