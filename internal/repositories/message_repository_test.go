package repositories

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCreateMessageRejectsEmptyContent(t *testing.T) {
	repo := NewMessageRepo(nil)

	for _, content := range []string{"", "   ", "\n\t "} {
		_, err := repo.CreateMessage(context.Background(), 1, 1, content)
		require.ErrorIs(t, err, ErrEmptyMessage)
	}
}
