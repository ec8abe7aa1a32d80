package google

import (
	"context"
	"fmt"

	"golang.org/x/oauth2"
	oauth2api "google.golang.org/api/oauth2/v2"
	"google.golang.org/api/option"
)

// UserInfo is the subset of the Google profile julian uses
type UserInfo struct {
	Email         string
	Name          string
	Picture       string
	VerifiedEmail bool
}

// GetUserInfo fetches the profile of the user owning the token source.
// Extra client options (e.g. endpoint overrides) are appended.
func GetUserInfo(ctx context.Context, ts oauth2.TokenSource, opts ...option.ClientOption) (*UserInfo, error) {
	if ts != nil {
		opts = append([]option.ClientOption{option.WithTokenSource(ts)}, opts...)
	}
	svc, err := oauth2api.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create userinfo service: %w", err)
	}

	info, err := svc.Userinfo.Get().Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to get user info: %w", err)
	}

	verified := false
	if info.VerifiedEmail != nil {
		verified = *info.VerifiedEmail
	}
	return &UserInfo{
		Email:         info.Email,
		Name:          info.Name,
		Picture:       info.Picture,
		VerifiedEmail: verified,
	}, nil
}
