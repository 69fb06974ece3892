package market

import (
	"context"
	"fmt"

	"github.com/ariefcatur/go-threshing-market/internal/kv"
	"github.com/ariefcatur/go-threshing-market/internal/validate"
)

// KeyUser holds the session's current identity.
const KeyUser = "user"

// CurrentUser returns the stored identity, or nil when nobody is logged in.
func CurrentUser(ctx context.Context, s kv.Store) (*User, error) {
	var u User
	ok, err := kv.GetJSON(ctx, s, KeyUser, &u)
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if !ok || u.Name == "" {
		return nil, nil
	}
	return &u, nil
}

func SaveUser(ctx context.Context, s kv.Store, u User) error {
	if err := validate.Required(
		validate.Field{Name: "name", Value: u.Name},
		validate.Field{Name: "role", Value: string(u.Role)},
	); err != nil {
		return err
	}
	if u.Role != RoleFarmer && u.Role != RoleRetailer {
		return &validate.Error{Field: "role", Reason: "must be Farmer or Retailer"}
	}
	return kv.SetJSON(ctx, s, KeyUser, u)
}
