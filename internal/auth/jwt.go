package auth

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken はトークンが検証できない場合のエラー
var ErrInvalidToken = errors.New("invalid token")

// tokenClaims は ID トークンのクレーム
type tokenClaims struct {
	Name    string `json:"name,omitempty"`
	Picture string `json:"picture,omitempty"`
	UserID  string `json:"user_id,omitempty"`
	jwt.RegisteredClaims
}

// JWTVerifier は共有シークレットで署名された HS256 トークンを検証する
type JWTVerifier struct {
	secret []byte
	parser *jwt.Parser
}

// NewJWTVerifier は新しいJWTVerifierを作成する。issuer / audience が空なら検査しない
func NewJWTVerifier(secret []byte, issuer, audience string) *JWTVerifier {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if issuer != "" {
		opts = append(opts, jwt.WithIssuer(issuer))
	}
	if audience != "" {
		opts = append(opts, jwt.WithAudience(audience))
	}
	return &JWTVerifier{secret: secret, parser: jwt.NewParser(opts...)}
}

// Verify はトークンを検証してクレームを返す
func (v *JWTVerifier) Verify(ctx context.Context, token string) (Claims, error) {
	claims := &tokenClaims{}
	parsed, err := v.parser.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return v.secret, nil
	})
	if err != nil {
		return Claims{}, err
	}
	if !parsed.Valid {
		return Claims{}, ErrInvalidToken
	}

	subject := claims.Subject
	if subject == "" {
		subject = claims.UserID
	}
	if subject == "" {
		return Claims{}, ErrInvalidToken
	}
	return Claims{Subject: subject, Name: claims.Name, Picture: claims.Picture}, nil
}

// IssueToken は Verify が受け付けるトークンを発行する。ツールとテスト用
func IssueToken(secret []byte, c Claims, issuer, audience string, validity time.Duration) (string, error) {
	now := time.Now()
	registered := jwt.RegisteredClaims{
		Subject:   c.Subject,
		Issuer:    issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(validity)),
	}
	if audience != "" {
		registered.Audience = jwt.ClaimStrings{audience}
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, tokenClaims{
		Name:             c.Name,
		Picture:          c.Picture,
		UserID:           c.Subject,
		RegisteredClaims: registered,
	})
	return token.SignedString(secret)
}
