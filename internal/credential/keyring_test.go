package credential

import (
	"testing"

	"github.com/99designs/keyring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreRoundTrip(t *testing.T) {
	s := NewStore(keyring.NewArrayKeyring(nil))

	_, err := s.Get(MailPasswordKey("me@example.com"))
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Set(MailPasswordKey("me@example.com"), "hunter2"))

	password, err := s.MailPassword("me@example.com")()
	require.NoError(t, err)
	assert.Equal(t, "hunter2", password)

	require.NoError(t, s.Delete(MailPasswordKey("me@example.com")))
	_, err = s.Get(MailPasswordKey("me@example.com"))
	assert.ErrorIs(t, err, ErrNotFound)
}
