package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/taskforge/task-service/internal/domain"
	"github.com/taskforge/task-service/internal/repository"
	apperrors "github.com/taskforge/task-service/pkg/util"
)

const principalKey = "auth_principal"

const bearerPrefix = "Bearer "

// Principal represents the authenticated caller for the current request.
type Principal struct {
	User *domain.User
	Role domain.UserRole
}

// AuthMiddleware validates bearer tokens and attaches principals. Requests
// without credentials pass through unauthenticated; route guards decide
// whether that is acceptable.
type AuthMiddleware struct {
	codec *TokenCodec
	users repository.UserRepository
}

// NewAuthMiddleware constructs middleware.
func NewAuthMiddleware(codec *TokenCodec, users repository.UserRepository) *AuthMiddleware {
	return &AuthMiddleware{codec: codec, users: users}
}

// Handle runs once per request, before route guards.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	header := c.Get(fiber.HeaderAuthorization)
	if header == "" || !strings.HasPrefix(header, bearerPrefix) {
		return c.Next()
	}
	raw := strings.TrimPrefix(header, bearerPrefix)

	expired, err := m.codec.IsExpired(raw)
	if err != nil {
		return apperrors.NewUnauthorized("invalid token")
	}
	if expired {
		return apperrors.NewUnauthorized("session expired, please authenticate again")
	}

	if _, ok := PrincipalFromContext(c); !ok {
		subject, err := m.codec.VerifyAndExtractSubject(raw)
		if err != nil || subject == "" {
			return apperrors.NewUnauthorized("invalid token")
		}

		user, err := m.users.GetByEmail(c.Context(), subject)
		if err != nil {
			// Lookup failures and unknown subjects collapse to the same
			// client-facing message to avoid account enumeration.
			return apperrors.NewUnauthorized("invalid token")
		}
		if user.Email == subject {
			c.Locals(principalKey, &Principal{User: user, Role: user.Role})
		}
	}

	return c.Next()
}

// PrincipalFromContext retrieves the authenticated entity, if any.
func PrincipalFromContext(c *fiber.Ctx) (*Principal, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	principal, ok := val.(*Principal)
	return principal, ok
}
