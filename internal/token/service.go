// Package token emite y verifica los access tokens firmados del sistema.
// Los tokens llevan identidad, rol y el binding de tenant; el mismatch de
// tenant se rechaza siempre, aunque el token sea criptográficamente
// válido.
package token

import (
	"errors"
	"fmt"
	"strings"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"

	"github.com/dropDatabas3/workplane/internal/metrics"
)

// Claims es la vista ya validada de un token.
type Claims struct {
	UserID     string
	Email      string
	Role       string
	TenantID   string
	TenantName string
	IssuedAt   time.Time
	ExpiresAt  time.Time
}

type wireClaims struct {
	Email      string `json:"email"`
	Role       string `json:"role"`
	TenantID   string `json:"tid"`
	TenantName string `json:"tname"`
	jwtv5.RegisteredClaims
}

// Config del Service.
type Config struct {
	// Secret firma HS256. Mínimo 32 bytes; la firma es del servidor, los
	// clientes nunca la ven.
	Secret []byte
	Issuer string
	TTL    time.Duration
	// Leeway tolera pequeños desfasajes de reloj en exp/nbf.
	Leeway time.Duration
}

// Service emite y verifica tokens.
type Service struct {
	secret []byte
	issuer string
	ttl    time.Duration
	leeway time.Duration

	// now se inyecta en tests.
	now func() time.Time
}

// New crea el Service.
func New(cfg Config) (*Service, error) {
	if len(cfg.Secret) < 32 {
		return nil, errors.New("token: secret must be at least 32 bytes")
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 24 * time.Hour
	}
	if cfg.Leeway <= 0 {
		cfg.Leeway = 30 * time.Second
	}
	return &Service{
		secret: cfg.Secret,
		issuer: cfg.Issuer,
		ttl:    cfg.TTL,
		leeway: cfg.Leeway,
		now:    time.Now,
	}, nil
}

// IssueInput datos de emisión.
type IssueInput struct {
	UserID     string
	Email      string
	Role       string
	TenantID   string
	TenantName string
}

// Issue firma un token HS256 para el usuario dentro de su tenant.
// Devuelve el token serializado y su expiración.
func (s *Service) Issue(in IssueInput) (string, time.Time, error) {
	if in.UserID == "" || in.TenantID == "" {
		return "", time.Time{}, errors.New("token: user and tenant are required")
	}
	now := s.now().UTC()
	exp := now.Add(s.ttl)

	claims := wireClaims{
		Email:      in.Email,
		Role:       in.Role,
		TenantID:   in.TenantID,
		TenantName: in.TenantName,
		RegisteredClaims: jwtv5.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   in.UserID,
			Audience:  jwtv5.ClaimStrings{in.TenantName},
			IssuedAt:  jwtv5.NewNumericDate(now),
			NotBefore: jwtv5.NewNumericDate(now),
			ExpiresAt: jwtv5.NewNumericDate(exp),
		},
	}

	tok := jwtv5.NewWithClaims(jwtv5.SigningMethodHS256, claims)
	signed, err := tok.SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("token: sign: %w", err)
	}
	return signed, exp, nil
}

// Verify valida firma, iss, exp y nbf (con leeway) y devuelve las claims.
// Toda falla vuelve como *TokenError con su Kind; la expiración y el
// not-yet-valid se distinguen del resto.
func (s *Service) Verify(raw string) (*Claims, error) {
	if strings.TrimSpace(raw) == "" {
		metrics.TokenVerification("missing")
		return nil, newErr(KindMissing, nil)
	}

	var wc wireClaims
	parser := []jwtv5.ParserOption{
		jwtv5.WithValidMethods([]string{"HS256"}),
		jwtv5.WithLeeway(s.leeway),
		jwtv5.WithTimeFunc(s.now),
	}
	if s.issuer != "" {
		parser = append(parser, jwtv5.WithIssuer(s.issuer))
	}

	tok, err := jwtv5.ParseWithClaims(raw, &wc, func(t *jwtv5.Token) (any, error) {
		return s.secret, nil
	}, parser...)
	if err != nil {
		switch {
		case errors.Is(err, jwtv5.ErrTokenExpired):
			metrics.TokenVerification("expired")
			return nil, newErr(KindExpired, err)
		case errors.Is(err, jwtv5.ErrTokenNotValidYet):
			metrics.TokenVerification("not_yet_valid")
			return nil, newErr(KindNotYetValid, err)
		default:
			metrics.TokenVerification("invalid")
			return nil, newErr(KindInvalid, err)
		}
	}
	if !tok.Valid {
		metrics.TokenVerification("invalid")
		return nil, newErr(KindInvalid, errors.New("token not valid"))
	}
	if wc.Subject == "" || wc.TenantID == "" {
		metrics.TokenVerification("invalid")
		return nil, newErr(KindInvalid, errors.New("missing sub or tid claim"))
	}

	out := &Claims{
		UserID:     wc.Subject,
		Email:      wc.Email,
		Role:       wc.Role,
		TenantID:   wc.TenantID,
		TenantName: wc.TenantName,
	}
	if wc.IssuedAt != nil {
		out.IssuedAt = wc.IssuedAt.Time
	}
	if wc.ExpiresAt != nil {
		out.ExpiresAt = wc.ExpiresAt.Time
	}
	metrics.TokenVerification("ok")
	return out, nil
}

// CheckTenant rechaza el uso cross-tenant: el tenant del token tiene que
// coincidir con el tenant resuelto del request, sin excepción.
func (s *Service) CheckTenant(c *Claims, tenantID string) error {
	if c == nil || c.TenantID != tenantID {
		metrics.TokenVerification("tenant_mismatch")
		return newErr(KindTenantMismatch, fmt.Errorf("token tenant does not match request tenant"))
	}
	return nil
}

// ExtractFromHeader saca el token del header Authorization. Acepta
// "Bearer <tok>" o el token pelado. Devuelve KindMissing si no hay nada.
func ExtractFromHeader(authorization string) (string, error) {
	v := strings.TrimSpace(authorization)
	if v == "" {
		return "", newErr(KindMissing, nil)
	}
	if strings.EqualFold(v, "bearer") {
		// Scheme sin credencial.
		return "", newErr(KindMissing, nil)
	}
	if len(v) > 7 && strings.EqualFold(v[:7], "bearer ") {
		v = strings.TrimSpace(v[7:])
	}
	if v == "" {
		return "", newErr(KindMissing, nil)
	}
	return v, nil
}

// KindOf devuelve el Kind de un *TokenError, o "" si err no lo es.
func KindOf(err error) Kind {
	var te *TokenError
	if errors.As(err, &te) {
		return te.Kind
	}
	return ""
}
