package common

import "context"

type ctxKey string

const adminEmailKey ctxKey = "auth/admin-email"

// WithAdminEmail stores the authenticated admin identity on the context.
func WithAdminEmail(ctx context.Context, email string) context.Context {
	return context.WithValue(ctx, adminEmailKey, email)
}

// AdminEmail extracts the authenticated admin identity from the context
// if present.
func AdminEmail(ctx context.Context) (string, bool) {
	v := ctx.Value(adminEmailKey)
	if v == nil {
		return "", false
	}
	email, ok := v.(string)
	return email, ok
}
