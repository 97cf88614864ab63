package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAuthorize(t *testing.T) {
	tests := []struct {
		name      string
		owner     string
		requester string
		want      Decision
	}{
		{"owner", "user-1", "user-1", Allowed},
		{"other user", "user-1", "user-2", Denied},
		{"anonymous", "user-1", "", Denied},
		{"both empty", "", "", Denied},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Authorize(tt.owner, tt.requester))
		})
	}
}
