package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"sos-backend/internal/config"
	"sos-backend/internal/models"
)

const issuer = "sos-backend"

var ErrInvalidToken = errors.New("invalid token")

type JWTUtil struct {
	secretKey []byte
	expiry    time.Duration
	now       func() time.Time
}

// Claims carries the caller identity: the subject id in "sub" and its role.
type Claims struct {
	Role models.Role `json:"role"`
	jwt.RegisteredClaims
}

func NewJWTUtil(cfg config.JWTConfig) *JWTUtil {
	expiry := cfg.Expiry
	if expiry <= 0 {
		expiry = 24 * time.Hour
	}
	return &JWTUtil{
		secretKey: []byte(cfg.Secret),
		expiry:    expiry,
		now:       time.Now,
	}
}

func (j *JWTUtil) GenerateToken(id models.Identity) (string, error) {
	if err := id.Validate(); err != nil {
		return "", err
	}

	now := j.now()
	claims := &Claims{
		Role: id.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(j.expiry)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    issuer,
			Subject:   id.SubjectID,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(j.secretKey)
}

func (j *JWTUtil) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return j.secretKey, nil
	}, jwt.WithIssuer(issuer), jwt.WithTimeFunc(j.now))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}

	return nil, ErrInvalidToken
}

// Identity validates the token and returns the typed caller it names.
func (j *JWTUtil) Identity(tokenString string) (models.Identity, error) {
	claims, err := j.ValidateToken(tokenString)
	if err != nil {
		return models.Identity{}, err
	}
	id := models.Identity{SubjectID: claims.Subject, Role: claims.Role}
	if err := id.Validate(); err != nil {
		return models.Identity{}, err
	}
	return id, nil
}

func (j *JWTUtil) RefreshToken(tokenString string) (string, error) {
	claims, err := j.ValidateToken(tokenString)
	if err != nil {
		return "", err
	}

	// still valid for more than an hour
	if claims.ExpiresAt.Time.Sub(j.now()) > time.Hour {
		return tokenString, nil
	}

	return j.GenerateToken(models.Identity{SubjectID: claims.Subject, Role: claims.Role})
}
