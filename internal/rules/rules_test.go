package rules

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chatrelay/apiserver/types"
)

func activeUser() *types.User {
	return &types.User{ID: 1, Login: "alice", FirstName: "Alice"}
}

func deletedUser() *types.User {
	now := time.Now()
	user := activeUser()
	user.DeletedAt = &now
	return user
}

func TestSuperuserElevation(t *testing.T) {
	super := activeUser()
	super.IsSuperuser = true

	rule := SuperuserElevation{}
	assert.True(t, rule.Allow(nil, Context{}))
	assert.True(t, rule.Allow(activeUser(), Context{}))
	assert.True(t, rule.Allow(super, Context{WantsSuperuser: true}))
	assert.False(t, rule.Allow(nil, Context{WantsSuperuser: true}))
	assert.False(t, rule.Allow(activeUser(), Context{WantsSuperuser: true}))
}

func TestActiveAccount(t *testing.T) {
	rule := ActiveAccount{}
	assert.True(t, rule.Allow(activeUser(), Context{}))
	assert.False(t, rule.Allow(nil, Context{}))
	assert.False(t, rule.Allow(deletedUser(), Context{}))
}

func TestLinkedChat(t *testing.T) {
	linked := activeUser()
	chatID := int64(12345)
	linked.TelegramID = &chatID

	rule := LinkedChat{}
	assert.True(t, rule.Allow(linked, Context{}))
	assert.False(t, rule.Allow(nil, Context{}))
	assert.False(t, rule.Allow(activeUser(), Context{}))
}

func TestEvaluateAllPass(t *testing.T) {
	linked := activeUser()
	chatID := int64(12345)
	linked.TelegramID = &chatID

	err := Evaluate(linked, Context{}, ActiveAccount{}, LinkedChat{})
	assert.NoError(t, err)
}

func TestEvaluateShortCircuitsOnFirstFailure(t *testing.T) {
	// Both rules fail for an anonymous requester; the first rule's
	// message must be the one surfaced.
	err := Evaluate(nil, Context{}, ActiveAccount{}, LinkedChat{})
	require.Error(t, err)

	var denied *Denied
	require.ErrorAs(t, err, &denied)
	assert.Equal(t, ActiveAccount{}.Message(), denied.Reason)
}

func TestEvaluateNoRules(t *testing.T) {
	assert.NoError(t, Evaluate(nil, Context{}))
}
