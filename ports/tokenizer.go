package ports

import "github.com/layer-3/karat/core"

// Tokenizer converts between sessions and self-contained signed tokens.
// Sessions live entirely inside the tokens: the server keeps no session
// records beyond the revocation list.
type Tokenizer interface {
	SessionToAccessToken(session *core.Session) (string, error)
	AccessTokenToSession(token string) (*core.Session, error)
	SessionToRefreshToken(session *core.Session) (string, error)
	RefreshTokenToSession(token string) (*core.Session, error)
}
