package auth

import (
	"crypto/sha256"
	"encoding/hex"
	"net/http"

	"github.com/overboard-game/server/internal/domain"
)

// TokenCookie is the cookie clients store their secret token in.
const TokenCookie = "player_token"

// Identity derives stable player ids from client-held secret tokens. The
// id is a salted digest of the token, so the same token always maps to
// the same player without the server storing credentials.
type Identity struct {
	salt string
}

func NewIdentity(salt string) *Identity {
	return &Identity{salt: salt}
}

// PlayerID returns the player id for the given token.
func (i *Identity) PlayerID(token string) string {
	sum := sha256.Sum256([]byte(token + i.salt))
	return hex.EncodeToString(sum[:])
}

// FromRequest resolves the request's player id from the token cookie,
// falling back to the token query parameter for websocket clients that
// cannot set cookies.
func (i *Identity) FromRequest(r *http.Request) (string, error) {
	token := ""
	if cookie, err := r.Cookie(TokenCookie); err == nil {
		token = cookie.Value
	}
	if token == "" {
		token = r.URL.Query().Get("token")
	}
	if token == "" {
		return "", domain.ErrAuthorization("missing player token")
	}
	return i.PlayerID(token), nil
}
