package clip

import "sync"

// Memory is an in-process clipboard. It backs headless environments where no
// display server is available, and doubles as the fake in tests: Set
// simulates a copy made by another application.
type Memory struct {
	mu      sync.Mutex
	rev     uint64
	content Content
	readErr error
	writes  []Content
}

// NewMemory returns an empty in-memory backend.
func NewMemory() *Memory { return &Memory{} }

func (m *Memory) Name() string { return "memory" }

func (m *Memory) Revision() (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rev, nil
}

func (m *Memory) Read() (Content, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.readErr != nil {
		return Content{}, m.readErr
	}
	return m.content, nil
}

func (m *Memory) WriteText(text string) error {
	m.set(Content{Text: text}, true)
	return nil
}

func (m *Memory) WriteImage(png []byte) error {
	m.set(Content{Image: append([]byte(nil), png...)}, true)
	return nil
}

func (m *Memory) Close() {}

// Set replaces the content as if another application copied it.
func (m *Memory) Set(c Content) { m.set(c, false) }

// Bump advances the revision without changing content (a re-copy of the
// same value).
func (m *Memory) Bump() {
	m.mu.Lock()
	m.rev++
	m.mu.Unlock()
}

// FailReads makes subsequent Read calls return err; nil clears it.
func (m *Memory) FailReads(err error) {
	m.mu.Lock()
	m.readErr = err
	m.mu.Unlock()
}

// Writes returns every value written through the Writer methods.
func (m *Memory) Writes() []Content {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Content(nil), m.writes...)
}

func (m *Memory) set(c Content, own bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.content = c
	m.rev++
	if own {
		m.writes = append(m.writes, c)
	}
}
