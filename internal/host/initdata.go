package host

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"
)

// Init data older than this is rejected to limit replay.
const maxInitDataAge = 24 * time.Hour

var (
	// ErrInitDataInvalid indicates the payload is malformed or its signature
	// does not verify.
	ErrInitDataInvalid = errors.New("host: invalid init data")
	// ErrInitDataExpired indicates the payload's auth_date is too old.
	ErrInitDataExpired = errors.New("host: init data expired")
)

// InitDataUser is the user identity embedded in a verified init-data payload.
type InitDataUser struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name"`
	Username  string `json:"username"`
}

// VerifyInitData validates the signed query-string payload the shell hands to
// the mini app. The signature is an HMAC-SHA256 over the sorted key=value
// lines, keyed by HMAC-SHA256("WebAppData", botToken).
func VerifyInitData(initData, botToken string, now time.Time) (InitDataUser, error) {
	values, err := url.ParseQuery(initData)
	if err != nil {
		return InitDataUser{}, fmt.Errorf("%w: %v", ErrInitDataInvalid, err)
	}
	gotHash := values.Get("hash")
	if gotHash == "" {
		return InitDataUser{}, fmt.Errorf("%w: missing hash", ErrInitDataInvalid)
	}
	values.Del("hash")

	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	lines := make([]string, 0, len(keys))
	for _, k := range keys {
		lines = append(lines, k+"="+values.Get(k))
	}
	checkString := strings.Join(lines, "\n")

	secret := hmac.New(sha256.New, []byte("WebAppData"))
	secret.Write([]byte(botToken))
	mac := hmac.New(sha256.New, secret.Sum(nil))
	mac.Write([]byte(checkString))
	want := hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(want), []byte(gotHash)) {
		return InitDataUser{}, fmt.Errorf("%w: signature mismatch", ErrInitDataInvalid)
	}

	if raw := values.Get("auth_date"); raw != "" {
		var authDate int64
		if _, err := fmt.Sscanf(raw, "%d", &authDate); err == nil {
			if now.Sub(time.Unix(authDate, 0)) > maxInitDataAge {
				return InitDataUser{}, ErrInitDataExpired
			}
		}
	}

	var user InitDataUser
	if rawUser := values.Get("user"); rawUser != "" {
		if err := json.Unmarshal([]byte(rawUser), &user); err != nil {
			return InitDataUser{}, fmt.Errorf("%w: bad user payload", ErrInitDataInvalid)
		}
	}
	return user, nil
}

// SignInitData produces a payload VerifyInitData accepts. Used by tests and
// the local development server, which has no real shell to mint one.
func SignInitData(user InitDataUser, botToken string, authDate time.Time) string {
	rawUser, _ := json.Marshal(user)
	values := url.Values{}
	values.Set("user", string(rawUser))
	values.Set("auth_date", fmt.Sprintf("%d", authDate.Unix()))

	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	lines := make([]string, 0, len(keys))
	for _, k := range keys {
		lines = append(lines, k+"="+values.Get(k))
	}

	secret := hmac.New(sha256.New, []byte("WebAppData"))
	secret.Write([]byte(botToken))
	mac := hmac.New(sha256.New, secret.Sum(nil))
	mac.Write([]byte(strings.Join(lines, "\n")))
	values.Set("hash", hex.EncodeToString(mac.Sum(nil)))

	return values.Encode()
}
