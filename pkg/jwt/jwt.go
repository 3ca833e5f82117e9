// Package jwt valida los tokens que emite el servicio de autenticación del restaurante.
// Generate solo existe para herramientas locales y tests.
package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrMissingClaims el token es válido pero no identifica usuario u organización.
var ErrMissingClaims = errors.New("jwt: faltan user_id u organization_id")

// Identity quién llama: usuario, organización dueña del inventario y rol.
type Identity struct {
	UserID         string
	OrganizationID string
	Role           string // "admin" | "bodeguero" | "encargado"
}

// Claims payload del token. company_id se acepta como alias de organization_id.
type Claims struct {
	jwt.RegisteredClaims
	UserID         string `json:"user_id"`
	OrganizationID string `json:"organization_id,omitempty"`
	CompanyID      string `json:"company_id,omitempty"`
	Role           string `json:"role"`
}

// Identity normaliza los claims.
func (c *Claims) Identity() Identity {
	org := c.OrganizationID
	if org == "" {
		org = c.CompanyID
	}
	return Identity{UserID: c.UserID, OrganizationID: org, Role: c.Role}
}

// Generate firma un token HS256 para id con vigencia ttl.
func Generate(secret string, id Identity, issuer string, ttl time.Duration) (string, error) {
	if secret == "" {
		return "", fmt.Errorf("jwt: secret vacío")
	}
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   id.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		UserID:         id.UserID,
		OrganizationID: id.OrganizationID,
		Role:           id.Role,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// Parser valida firma HMAC, expiración y, si se configuró, el emisor.
type Parser struct {
	secret []byte
	opts   []jwt.ParserOption
}

// NewParser issuer vacío = no se valida el emisor.
func NewParser(secret, issuer string) *Parser {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg(), jwt.SigningMethodHS384.Alg(), jwt.SigningMethodHS512.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if issuer != "" {
		opts = append(opts, jwt.WithIssuer(issuer))
	}
	return &Parser{secret: []byte(secret), opts: opts}
}

// Parse devuelve la identidad del token.
func (p *Parser) Parse(tokenString string) (Identity, error) {
	if len(p.secret) == 0 {
		return Identity{}, fmt.Errorf("jwt: secret vacío")
	}
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return p.secret, nil
	}, p.opts...)
	if err != nil {
		return Identity{}, err
	}
	id := claims.Identity()
	if id.UserID == "" || id.OrganizationID == "" {
		return Identity{}, ErrMissingClaims
	}
	return id, nil
}
