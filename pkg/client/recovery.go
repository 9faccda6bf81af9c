package client

// LocalSession is what the device remembers between runs.
type LocalSession struct {
	User    *UserRecord
	TableID int
}

// Session is the outcome of recovery.
type Session struct {
	User            *UserRecord
	TableID         int
	View            View
	Recovered       bool
	ClearStoredUser bool
}

// ResolveSession merges the device's memory with what the backend knows.
//
// A stored user that the guest service still knows is restored and always
// lands on the menu, whatever screen it was on before. A stored user the
// guest service rejects is forgotten. An active session at the table
// always wins: it names whoever is physically sitting there and sends the
// device to the order tracker.
func ResolveSession(local LocalSession, user *User, userErr error, remote *TableSession) Session {
	s := Session{TableID: local.TableID, View: ViewLanding}

	if local.User != nil {
		switch {
		case local.User.ID == "":
			s.User = local.User
			s.View = ViewMenu
		case userErr == nil && user != nil:
			s.User = &UserRecord{ID: user.ID, Name: user.Name, Phone: user.Phone}
			s.View = ViewMenu
		default:
			s.ClearStoredUser = true
		}
	}

	if remote != nil && remote.Active {
		if s.User == nil || s.User.Name != remote.GuestName {
			s.User = &UserRecord{Name: remote.GuestName}
		}
		if remote.TableID != 0 {
			s.TableID = remote.TableID
		}
		s.View = ViewTracker
		s.Recovered = true
	}

	return s
}
