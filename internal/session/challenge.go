package session

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// challengeClaims binds an MFA challenge token to the identity that passed
// the password check. The token proves the first factor succeeded; it grants
// nothing until the TOTP code is verified.
type challengeClaims struct {
	jwt.RegisteredClaims
	Username    string `json:"username"`
	ChallengeID string `json:"cid"`
}

func (m *Manager) issueChallengeToken(username string, challengeID string, now time.Time) (string, error) {
	claims := challengeClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.challengeMaxAge)),
		},
		Username:    username,
		ChallengeID: challengeID,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.masterKey)
}

func (m *Manager) parseChallengeToken(tokenString string, now time.Time) (*challengeClaims, error) {
	var claims challengeClaims
	_, err := jwt.ParseWithClaims(tokenString, &claims,
		func(t *jwt.Token) (interface{}, error) { return m.masterKey, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(func() time.Time { return now }),
	)
	if err != nil {
		return nil, err
	}
	return &claims, nil
}
