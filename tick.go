package vault

import (
	"github.com/rs/zerolog/log"
)

// CommandTick is a tick that carries a player command.
type CommandTick struct {
	ID       uint32 `json:"id"`
	TickType uint32 `json:"tickType"`
}

// MessageTick is a tick that carries a batch of chat messages, possibly empty.
type MessageTick struct {
	TickType uint32    `json:"tickType"`
	Messages []Message `json:"messages"`

	// Position is the number of command ticks that precede this tick in the
	// stream, which is the game tick the messages were sent at.
	Position int `json:"position"`
}

// Message is a single chat line of a MessageTick.
type Message struct {
	Name    string `json:"name"`
	Message string `json:"message"`
}

// Ticks is the tick stream of a replay split by kind.
// Each slice keeps the stream order of its own kind.
type Ticks struct {
	Commands []CommandTick `json:"commands"`
	Messages []MessageTick `json:"messages"`
}

// Size of the command body fields: u8, u32 id, u32.
const commandBodySize = 1 + 4 + 4

// messageHeaderFields is the number of u32 fields before the messages of a content block.
const messageHeaderFields = 5

// parseTicks reads ticks until the end of r.
func parseTicks(r *reader) (Ticks, error) {
	t := Ticks{
		Commands: []CommandTick{},
		Messages: []MessageTick{},
	}

	for !r.atEnd() {
		if c, ok := tryCommandTick(r); ok {
			t.Commands = append(t.Commands, c)
			continue
		}

		start := r.offset()
		m, err := parseMessageTick(r)
		if err != nil {
			return t, wrap("tick", start, err)
		}
		m.Position = len(t.Commands)
		t.Messages = append(t.Messages, m)
	}

	log.Debug().
		Int("commands", len(t.Commands)).
		Int("messages", len(t.Messages)).
		Msg("ticks")

	return t, nil
}

// tryCommandTick reads a command tick. If the input at the cursor is not a
// command tick, the cursor is restored and ok is false.
func tryCommandTick(r *reader) (c CommandTick, ok bool) {
	start := r.pos
	defer func() {
		if !ok {
			r.pos = start
		}
	}()

	var err error
	if c.TickType, err = r.verifyU32(0); err != nil {
		return c, false
	}
	body, err := r.prefixedSub()
	if err != nil || body.remaining() < commandBodySize {
		return c, false
	}

	if err = body.skip(1); err != nil {
		return c, false
	}
	if c.ID, err = body.u32(); err != nil {
		return c, false
	}

	return c, true
}

// parseMessageTick reads a message tick. The count peeked at the start of the
// block selects the empty or the content layout; either is final once chosen.
func parseMessageTick(r *reader) (MessageTick, error) {
	m := MessageTick{Messages: []Message{}}

	var err error
	if m.TickType, err = r.u32(); err != nil {
		return m, err
	}
	block, err := r.prefixedSub()
	if err != nil {
		return m, err
	}

	count, err := block.peekU32()
	if err != nil {
		return m, err
	}

	if count == 0 {
		// Empty marker: zero count and a length prefixed filler.
		if err = block.skip(4); err != nil {
			return m, err
		}
		if _, err = block.prefixedSub(); err != nil {
			return m, wrap("empty message block", block.offset(), err)
		}
		return m, nil
	}

	if err = block.skip(messageHeaderFields * 4); err != nil {
		return m, wrap("message block", block.offset(), err)
	}
	for i := 0; i < int(count); i++ {
		if i > 0 && block.atEnd() {
			break
		}
		msg, err := parseMessage(block)
		if err != nil {
			return m, wrap("message", block.offset(), err)
		}
		m.Messages = append(m.Messages, msg)
	}

	return m, nil
}

func parseMessage(r *reader) (Message, error) {
	msg := Message{}

	var err error
	if _, msg.Name, err = r.utf16Prefixed(); err != nil {
		return msg, err
	}
	if _, msg.Message, err = r.utf16Prefixed(); err != nil {
		return msg, err
	}

	return msg, nil
}
