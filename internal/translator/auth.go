package translator

import (
	"errors"

	"github.com/yourorg/playground/pkg/types"
)

// ErrMissingCredential is returned when a live request needs a credential
// and none is stored.
var ErrMissingCredential = errors.New("API key is required")

// AuthHeader returns the Authorization value for the declared scheme.
// The declared location is not consulted; the credential always travels
// in the Authorization header. Unknown schemes inject nothing.
func AuthHeader(auth *types.Authentication, credential string) (string, bool) {
	if auth == nil || credential == "" {
		return "", false
	}
	switch auth.Type {
	case types.AuthAPIKey:
		return "ApiKey " + credential, true
	case types.AuthBearer:
		return "Bearer " + credential, true
	}
	return "", false
}
