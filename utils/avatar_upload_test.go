package utils

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAvatarKey(t *testing.T) {
	now := time.Unix(1700000000, 0)
	key, ct, err := AvatarKey("u1", "Me.JPG", now)
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", ct)
	assert.True(t, strings.HasPrefix(key, "avatars/u1/1700000000_"), key)
	assert.True(t, strings.HasSuffix(key, ".jpg"), key)
}

func TestAvatarKeyRejectsNonImages(t *testing.T) {
	_, _, err := AvatarKey("u1", "cv.pdf", time.Now())
	assert.ErrorIs(t, err, ErrUnsupportedImage)

	_, _, err = AvatarKey("", "me.png", time.Now())
	assert.Error(t, err)
}
