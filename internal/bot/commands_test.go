package bot

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCommand(t *testing.T) {
	t.Parallel()
	tests := []struct {
		input  string
		name   string
		wantOK bool
	}{
		{"/start", "start", true},
		{"  /Help  ", "help", true},
		{"/scholarships@codered_bot", "scholarships", true},
		{"/reset please", "reset", true},
		{"/reset\nnow", "reset", true},
		{"/", "", false},
		{"/@bot", "", false},
		{"start", "", false},
		{"I failed /start", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()
			name, ok := ParseCommand(tt.input)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.name, name)
		})
	}
}

func TestRegistry(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	r.Register(Command{Name: "Start", Handle: staticReply("one")})
	r.Register(Command{Name: "help", Handle: staticReply("help")})
	r.Register(Command{Name: "start", Handle: staticReply("two")})

	cmds := r.Commands()
	require.Len(t, cmds, 2)
	assert.Equal(t, "start", cmds[0].Name)
	assert.Equal(t, "help", cmds[1].Name)

	cmd, ok := r.Lookup("/START@codered_bot")
	require.True(t, ok)
	reply := cmd.Handle(context.Background(), "u1")
	assert.Equal(t, "two", reply.Text)
	assert.True(t, reply.Markdown)

	_, ok = r.Lookup("/unknown")
	assert.False(t, ok)
	_, ok = r.Lookup("hello")
	assert.False(t, ok)

	// Commands returns a copy
	cmds[0].Name = "mutated"
	assert.Equal(t, "start", r.Commands()[0].Name)
}
