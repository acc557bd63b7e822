package services

import (
	"crypto/subtle"

	"github.com/atelierhaus/portfolio-backend/internal/models"
)

// AccessDecision is the outcome of the policy check for one asset read.
type AccessDecision struct {
	// Metadata grants the metadata row.
	Metadata bool
	// Content grants the stored binary. Content access is checked in full
	// wherever bytes are served and is never inferred from a metadata-only
	// authorization.
	Content bool
	// IncludeToken includes the access_token field in metadata responses.
	IncludeToken bool
}

// AccessPolicy decides, per read request, whether an asset's metadata and
// binary content are visible. It is pure: the admin flag and the presented
// token arrive as explicit parameters, never inferred from request internals.
type AccessPolicy struct{}

func NewAccessPolicy() *AccessPolicy {
	return &AccessPolicy{}
}

// Authorize runs the decision table for a single asset.
func (p *AccessPolicy) Authorize(asset *models.Asset, admin bool, presented string) (AccessDecision, error) {
	switch asset.AccessState() {
	case models.AccessPublic:
		return AccessDecision{Metadata: true, Content: true, IncludeToken: admin}, nil

	case models.AccessSecret:
		if admin {
			return AccessDecision{Metadata: true, Content: true, IncludeToken: true}, nil
		}
		if presented != "" && tokensEqual(presented, asset.Token()) {
			// Token holders see metadata and content; the token itself is
			// stripped from the response.
			return AccessDecision{Metadata: true, Content: true}, nil
		}
		return AccessDecision{}, newError(KindAccessDenied,
			"access denied: this is a secret image that requires a valid access token")

	default: // models.AccessRevoked
		if admin {
			// Sealed assets stay listed for admins, but their content is
			// unreachable until a rotate issues a new token.
			return AccessDecision{Metadata: true, IncludeToken: true}, nil
		}
		return AccessDecision{}, newError(KindAccessDenied,
			"this secret image has no access token configured")
	}
}

func tokensEqual(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
