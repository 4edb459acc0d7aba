package fcm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildMessagesOnePerToken(t *testing.T) {
	msgs := BuildMessages([]string{"a", "b"}, Notification{
		Title: "Profile viewed",
		Body:  "Acme viewed your profile",
		Data:  map[string]string{"event": "profile.viewed"},
	})
	require.Len(t, msgs, 2)
	assert.Equal(t, "a", msgs[0].Token)
	assert.Equal(t, "b", msgs[1].Token)
	assert.Equal(t, "Profile viewed", msgs[1].Notification.Title)
	assert.Equal(t, "profile.viewed", msgs[0].Data["event"])
	assert.Equal(t, 1, *msgs[0].APNS.Payload.Aps.Badge)
	assert.Equal(t, "high", msgs[0].Android.Priority)
}

func TestMaskToken(t *testing.T) {
	assert.Equal(t, "abc", MaskToken("abc"))
	assert.Equal(t, "...456789", MaskToken("0123456789"))
}
