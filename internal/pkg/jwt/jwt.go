package jwt

import (
	"context"
	"time"

	"github.com/cmlabs-hris/payroll-engine/internal/domain/user"
	"github.com/go-chi/jwtauth/v5"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

// Service verifies access tokens issued by the identity provider. Token
// issuance here exists for the SSE handshake and for tooling.
type Service interface {
	GenerateAccessToken(actor user.Actor) (token string, expiresAt int64, err error)
	GenerateSSEToken(actor user.Actor) (token string, expiresIn int, err error)
	ValidateSSEToken(tokenString string) (user.Actor, error)
	JWTAuth() *jwtauth.JWTAuth
}

type JWTService struct {
	accessTokenExpiration time.Duration
	tokenAuth             *jwtauth.JWTAuth
}

func (j *JWTService) JWTAuth() *jwtauth.JWTAuth {
	return j.tokenAuth
}

func NewJWTService(secretKey string, accessTokenExpiration time.Duration) Service {
	if accessTokenExpiration <= 0 {
		accessTokenExpiration = time.Hour
	}
	return &JWTService{
		accessTokenExpiration: accessTokenExpiration,
		tokenAuth:             jwtauth.New("HS256", []byte(secretKey), nil, jwt.WithAcceptableSkew(30*time.Second)),
	}
}

func actorClaims(actor user.Actor, tokenType string, expiresAt int64) map[string]interface{} {
	return map[string]interface{}{
		"user_id":     actor.UserID,
		"employee_id": actor.EmployeeID,
		"company_id":  actor.CompanyID,
		"role":        string(actor.Role),
		"type":        tokenType,
		"exp":         expiresAt,
	}
}

func (j *JWTService) GenerateAccessToken(actor user.Actor) (token string, expiresAt int64, err error) {
	expiresAt = time.Now().Add(j.accessTokenExpiration).Unix()
	_, tokenString, err := j.tokenAuth.Encode(actorClaims(actor, "access", expiresAt))
	return tokenString, expiresAt, err
}

// GenerateSSEToken generates a short-lived token for SSE connections
func (j *JWTService) GenerateSSEToken(actor user.Actor) (token string, expiresIn int, err error) {
	// SSE tokens are short-lived (5 minutes)
	expiresIn = 300
	expiresAt := time.Now().Add(5 * time.Minute).Unix()

	_, tokenString, err := j.tokenAuth.Encode(actorClaims(actor, "sse", expiresAt))
	if err != nil {
		return "", 0, err
	}
	return tokenString, expiresIn, nil
}

// ValidateSSEToken validates an SSE token and returns the actor it was issued to
func (j *JWTService) ValidateSSEToken(tokenString string) (user.Actor, error) {
	token, err := j.tokenAuth.Decode(tokenString)
	if err != nil {
		return user.Actor{}, err
	}

	tokenType, ok := token.Get("type")
	if !ok || tokenType != "sse" {
		return user.Actor{}, user.ErrInvalidToken
	}

	claims, err := token.AsMap(context.Background())
	if err != nil {
		return user.Actor{}, user.ErrInvalidToken
	}
	actor, ok := ActorFromClaims(claims)
	if !ok {
		return user.Actor{}, user.ErrInvalidToken
	}
	return actor, nil
}

// ActorFromClaims builds the request identity out of verified token claims.
func ActorFromClaims(claims map[string]interface{}) (user.Actor, bool) {
	userID, _ := claims["user_id"].(string)
	companyID, _ := claims["company_id"].(string)
	employeeID, _ := claims["employee_id"].(string)
	role, _ := claims["role"].(string)

	actor := user.Actor{
		UserID:     userID,
		EmployeeID: employeeID,
		CompanyID:  companyID,
		Role:       user.Role(role),
	}
	if actor.UserID == "" || actor.CompanyID == "" || !actor.Role.Valid() {
		return user.Actor{}, false
	}
	return actor, true
}
