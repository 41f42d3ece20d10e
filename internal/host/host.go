// Package host abstracts the embedding mini-app shell: it supplies the user
// identity and the signed session payload required to authorise purchases.
package host

import (
	"strconv"
)

// Environment is the capability surface the shell exposes to the engine.
// Outside the real shell the engine runs with a test environment; the purchase
// flow refuses to proceed without a session token either way.
type Environment interface {
	// UserID returns the authenticated user identifier, zero when unknown.
	UserID() int64
	// UserName returns the display name supplied by the shell.
	UserName() string
	// SessionToken returns the signed init-data payload forwarded to the
	// backend, empty when the app runs outside the shell.
	SessionToken() string
	// TestMode reports whether the app runs without real shell identity.
	TestMode() bool
}

// ShellEnvironment is an Environment populated from values handed over by the
// embedding shell at startup.
type ShellEnvironment struct {
	ID    int64
	Name  string
	Token string
}

func (e ShellEnvironment) UserID() int64        { return e.ID }
func (e ShellEnvironment) UserName() string     { return e.Name }
func (e ShellEnvironment) SessionToken() string { return e.Token }
func (e ShellEnvironment) TestMode() bool       { return e.Token == "" }

// testUserID mirrors the placeholder identity used during local development.
const testUserID int64 = 123456789

// TestEnvironment is used when the app runs outside the shell: a fixed
// development identity and no session token, so purchase submission is
// blocked with a distinct authentication error.
type TestEnvironment struct{}

func (TestEnvironment) UserID() int64        { return testUserID }
func (TestEnvironment) UserName() string     { return "Тестовый пользователь" }
func (TestEnvironment) SessionToken() string { return "" }
func (TestEnvironment) TestMode() bool       { return true }

// UserRef formats the user identifier the way the profile page displays it.
func UserRef(id int64) string {
	return "#" + strconv.FormatInt(id, 10)
}
