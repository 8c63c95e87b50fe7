package platform

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppName(t *testing.T) {
	assert.Equal(t, "code.exe", App{Exe: "code.exe", Title: "main.go"}.Name())
	assert.Equal(t, "main.go", App{Title: "main.go"}.Name())
	assert.Empty(t, App{}.Name())
}

func TestAppMatches(t *testing.T) {
	deny := []string{"1Password", "KeePass", " ", ""}

	assert.True(t, App{Exe: "1password.exe"}.Matches(deny))
	assert.True(t, App{Exe: "firefox", Title: "KeePassXC - vault"}.Matches(deny))
	assert.False(t, App{Exe: "firefox", Title: "news"}.Matches(deny))
	assert.False(t, App{}.Matches(deny), "blank patterns never match")
}

func TestKeyString(t *testing.T) {
	assert.Equal(t, "enter", KeyEnter.String())
	assert.Equal(t, "tab", KeyTab.String())
	assert.Equal(t, "unknown", Key(0).String())
}
