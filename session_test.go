package chatter_test

import (
	"testing"

	"github.com/fwojciec/chatter"
	"github.com/stretchr/testify/assert"
)

func TestRole_Valid(t *testing.T) {
	t.Parallel()
	assert.True(t, chatter.RoleUser.Valid())
	assert.True(t, chatter.RoleResponder.Valid())
	assert.False(t, chatter.Role("assistant").Valid())
	assert.False(t, chatter.Role("").Valid())
}

func TestPlainText_Render(t *testing.T) {
	t.Parallel()
	var r chatter.Renderer = chatter.PlainText{}
	assert.Equal(t, "**not bold**", r.Render("**not bold**"))
}

func TestTurnState_String(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "sending", chatter.TurnSending.String())
	assert.Equal(t, "delivered", chatter.TurnDelivered.String())
	assert.Equal(t, "failed", chatter.TurnFailed.String())
	assert.Equal(t, "discarded", chatter.TurnDiscarded.String())
	assert.Equal(t, "TurnState(42)", chatter.TurnState(42).String())
}
