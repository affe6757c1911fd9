package rabbitmq

import "sync"

// replyTable maps correlation tokens of in-flight status requests to the
// slot their caller waits on. A reply is handed to exactly the caller that
// registered its token.
type replyTable struct {
	mu    sync.Mutex
	slots map[string]chan []byte
}

func newReplyTable() *replyTable {
	return &replyTable{slots: make(map[string]chan []byte)}
}

// register reserves a slot for token. The slot is buffered so that resolve
// never blocks on a caller that has stopped waiting.
func (t *replyTable) register(token string) <-chan []byte {
	slot := make(chan []byte, 1)

	t.mu.Lock()
	t.slots[token] = slot
	t.mu.Unlock()

	return slot
}

// resolve delivers body to the slot of token and removes it. It reports
// false for unknown tokens, such as replies that arrive after a timeout.
func (t *replyTable) resolve(token string, body []byte) bool {
	t.mu.Lock()
	slot, ok := t.slots[token]
	delete(t.slots, token)
	t.mu.Unlock()

	if !ok {
		return false
	}
	slot <- body
	return true
}

// forget drops the slot of token, if still present.
func (t *replyTable) forget(token string) {
	t.mu.Lock()
	delete(t.slots, token)
	t.mu.Unlock()
}

func (t *replyTable) len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.slots)
}
