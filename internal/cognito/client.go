// Package cognito reads booking profiles from a Cognito user pool. Community
// membership and group delegation are stored as custom user attributes.
package cognito

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider/types"
	"github.com/rs/zerolog/log"

	"github.com/codr1/Courtside/internal/booking"
)

const (
	AttrEmail        = "email"
	AttrCommunityID  = "custom:community_id"
	AttrGroupOwnerID = "custom:group_owner_id"
)

// ErrCognitoThrottled marks errors returned when Cognito throttles requests.
var ErrCognitoThrottled = errors.New("cognito throttling")

// ErrCognitoNotAuthorized marks errors returned when Cognito rejects credentials.
var ErrCognitoNotAuthorized = errors.New("cognito not authorized")

type adminAPI interface {
	AdminGetUser(ctx context.Context, params *cognitoidentityprovider.AdminGetUserInput, optFns ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.AdminGetUserOutput, error)
}

// Profiles is a booking.ProfileProvider backed by a user pool. User IDs are
// Cognito usernames.
type Profiles struct {
	client adminAPI
	poolID string
}

var _ booking.ProfileProvider = (*Profiles)(nil)

// NewProfiles creates a provider for poolID. The region is taken from the
// pool ID (format: "region_poolid").
func NewProfiles(ctx context.Context, poolID string) (*Profiles, error) {
	region, err := regionFromPoolID(poolID)
	if err != nil {
		return nil, err
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	return &Profiles{
		client: cognitoidentityprovider.NewFromConfig(awsCfg),
		poolID: poolID,
	}, nil
}

func (p *Profiles) GetProfile(ctx context.Context, userID string) (booking.Profile, error) {
	out, err := p.client.AdminGetUser(ctx, &cognitoidentityprovider.AdminGetUserInput{
		UserPoolId: aws.String(p.poolID),
		Username:   aws.String(userID),
	})
	if err != nil {
		var notFound *types.UserNotFoundException
		if errors.As(err, &notFound) {
			return booking.Profile{}, booking.ErrProfileNotFound
		}
		return booking.Profile{}, fmt.Errorf("get cognito user %q: %w", userID, mapCognitoError(err))
	}
	if !out.Enabled {
		return booking.Profile{}, booking.ErrProfileNotFound
	}

	attrs := make(map[string]string, len(out.UserAttributes))
	for _, attr := range out.UserAttributes {
		attrs[aws.ToString(attr.Name)] = strings.TrimSpace(aws.ToString(attr.Value))
	}

	profile := booking.Profile{UserID: userID, Email: attrs[AttrEmail]}
	if raw := attrs[AttrCommunityID]; raw != "" {
		communityID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || communityID <= 0 {
			log.Ctx(ctx).Warn().Str("user_id", userID).Str("value", raw).Msg("Ignoring malformed community_id attribute")
		} else {
			profile.CommunityID = &communityID
		}
	}
	if owner := attrs[AttrGroupOwnerID]; owner != "" {
		profile.GroupOwnerID = &owner
	}
	return profile, nil
}

func mapCognitoError(err error) error {
	var throttled *types.TooManyRequestsException
	if errors.As(err, &throttled) {
		return fmt.Errorf("%w: %v", ErrCognitoThrottled, err)
	}
	var notAuthorized *types.NotAuthorizedException
	if errors.As(err, &notAuthorized) {
		return fmt.Errorf("%w: %v", ErrCognitoNotAuthorized, err)
	}
	return err
}

func regionFromPoolID(poolID string) (string, error) {
	parts := strings.SplitN(poolID, "_", 2)
	if len(parts) < 2 || parts[0] == "" {
		return "", fmt.Errorf("invalid cognito pool id: %q", poolID)
	}
	return parts[0], nil
}
