package events

import "context"

// StreamBoard carries every board-wide event.
const StreamBoard = "events:board"

// Event types
const (
	EventProposalCreated = "proposal_created"
	EventVoteCast        = "vote_cast"
	EventTaskCompleted   = "task_completed"
)

type Event struct {
	Type    string         `json:"type"`
	Payload map[string]any `json:"payload"`
}

// Wallet returns the walletAddress payload field, if any. Events carrying
// one are delivered only to that wallet's sockets.
func (e Event) Wallet() string {
	w, _ := e.Payload["walletAddress"].(string)
	return w
}

type Publisher interface {
	Publish(ctx context.Context, stream string, event Event) error
}

type Subscriber interface {
	Subscribe(ctx context.Context, stream string, handler func(Event)) error
}
