package middleware

import (
	"errors"
	"net/http"

	"github.com/golang-jwt/jwt/v5"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"charitychain/internal/auth"
	apperrors "charitychain/internal/errors"
	"charitychain/internal/model"
	"charitychain/internal/repository"
)

// Context keys set by Authenticate.
const (
	TokenContextKey  = "jwt"
	ClaimsContextKey = "claims"
	UserContextKey   = "user"
)

// Authenticate returns the middleware chain protecting a route group: bearer
// token verification followed by user loading. Every failure is a 401.
func Authenticate(jwtService *auth.JWTService, tokens auth.TokenStoreInterface, users repository.UserRepository) []echo.MiddlewareFunc {
	verify := echojwt.WithConfig(echojwt.Config{
		SigningKey: jwtService.Secret(),
		ContextKey: TokenContextKey,
		NewClaimsFunc: func(c echo.Context) jwt.Claims {
			return new(auth.Claims)
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return apperrors.ErrInvalidToken
		},
	})
	return []echo.MiddlewareFunc{verify, loadUser(tokens, users)}
}

func loadUser(tokens auth.TokenStoreInterface, users repository.UserRepository) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token, ok := c.Get(TokenContextKey).(*jwt.Token)
			if !ok {
				return apperrors.ErrInvalidToken
			}
			claims, ok := token.Claims.(*auth.Claims)
			if !ok || !claims.IsAccess() || claims.UserID == 0 {
				return apperrors.ErrInvalidToken
			}

			ctx := c.Request().Context()
			if claims.ID != "" {
				if revoked, _ := tokens.IsAccessTokenRevoked(ctx, claims.ID); revoked {
					return apperrors.ErrInvalidToken
				}
			}

			user, err := users.FindByID(ctx, claims.UserID)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return apperrors.NewHTTPError(http.StatusUnauthorized, "user no longer exists", "INVALID_TOKEN")
				}
				return err
			}

			c.Set(ClaimsContextKey, claims)
			c.Set(UserContextKey, user)
			return next(c)
		}
	}
}

// CurrentUser returns the user loaded by Authenticate, or nil.
func CurrentUser(c echo.Context) *model.User {
	user, _ := c.Get(UserContextKey).(*model.User)
	return user
}

// CurrentClaims returns the access token claims of the request, or nil.
func CurrentClaims(c echo.Context) *auth.Claims {
	claims, _ := c.Get(ClaimsContextKey).(*auth.Claims)
	return claims
}

// RequireRole allows the request only when the authenticated user holds one
// of roles. It must run after Authenticate.
func RequireRole(roles ...model.Role) echo.MiddlewareFunc {
	allowed := make(map[model.Role]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			user := CurrentUser(c)
			if user == nil {
				return apperrors.ErrInvalidToken
			}
			if !allowed[user.Role] {
				return apperrors.ErrForbidden
			}
			return next(c)
		}
	}
}
