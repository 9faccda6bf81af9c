package client

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveSession(t *testing.T) {
	stored := &UserRecord{ID: "u-1", Name: "A"}
	known := &User{ID: "u-1", Name: "A", Phone: "98950"}

	tests := []struct {
		name          string
		local         LocalSession
		user          *User
		userErr       error
		remote        *TableSession
		wantName      string
		wantView      View
		wantClear     bool
		wantRecovered bool
	}{
		{
			name:     "freshDevice",
			local:    LocalSession{TableID: 4},
			wantView: ViewLanding,
		},
		{
			name:     "restoredUserLandsOnMenu",
			local:    LocalSession{User: stored, TableID: 4},
			user:     known,
			wantName: "A",
			wantView: ViewMenu,
		},
		{
			name:      "invalidStoredUser",
			local:     LocalSession{User: stored, TableID: 4},
			userErr:   errors.New("user not found"),
			wantView:  ViewLanding,
			wantClear: true,
		},
		{
			name:          "backendSessionWins",
			local:         LocalSession{User: stored, TableID: 4},
			user:          known,
			remote:        &TableSession{Active: true, GuestName: "B", TableID: 4},
			wantName:      "B",
			wantView:      ViewTracker,
			wantRecovered: true,
		},
		{
			name:          "backendSessionOnNewDevice",
			local:         LocalSession{TableID: 4},
			remote:        &TableSession{Active: true, GuestName: "B", TableID: 4},
			wantName:      "B",
			wantView:      ViewTracker,
			wantRecovered: true,
		},
		{
			name:     "inactiveBackendSessionIgnored",
			local:    LocalSession{User: stored, TableID: 4},
			user:     known,
			remote:   &TableSession{Active: false},
			wantName: "A",
			wantView: ViewMenu,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := ResolveSession(tt.local, tt.user, tt.userErr, tt.remote)

			assert.Equal(t, tt.wantView, s.View)
			assert.Equal(t, tt.wantClear, s.ClearStoredUser)
			assert.Equal(t, tt.wantRecovered, s.Recovered)
			if tt.wantName == "" {
				assert.Nil(t, s.User)
				return
			}
			require.NotNil(t, s.User)
			assert.Equal(t, tt.wantName, s.User.Name)
		})
	}
}
