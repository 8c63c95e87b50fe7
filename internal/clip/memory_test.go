package clip

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryRevisionAdvancesOnEveryChange(t *testing.T) {
	m := NewMemory()
	r0, _ := m.Revision()

	m.Set(Content{Text: "a"})
	r1, _ := m.Revision()
	assert.Greater(t, r1, r0)

	m.Bump()
	r2, _ := m.Revision()
	assert.Greater(t, r2, r1, "re-copying identical content still advances")

	require.NoError(t, m.WriteText("b"))
	r3, _ := m.Revision()
	assert.Greater(t, r3, r2, "own writes advance too")

	c, err := m.Read()
	require.NoError(t, err)
	assert.Equal(t, "b", c.Text)
	assert.Equal(t, []Content{{Text: "b"}}, m.Writes())
}

func TestMemoryFailReads(t *testing.T) {
	m := NewMemory()
	m.FailReads(errors.New("locked"))
	_, err := m.Read()
	require.Error(t, err)
	m.FailReads(nil)
	_, err = m.Read()
	require.NoError(t, err)
}

func TestContentEmpty(t *testing.T) {
	assert.True(t, Content{}.Empty())
	assert.False(t, Content{Files: []string{"/x"}}.Empty())
}
