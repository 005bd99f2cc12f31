package tools

import (
	"context"
	"time"

	"nmc-mcp/internal/api"
	"nmc-mcp/internal/auth"
	"nmc-mcp/internal/nmc"
)

// tokenView is the host-facing token status. The token itself is never
// included, only a masked preview.
type tokenView struct {
	State              string `json:"state"`
	HasToken           bool   `json:"has_token"`
	TokenPreview       string `json:"token_preview,omitempty"`
	ExpiresAt          string `json:"expires_at,omitempty"`
	TTLSeconds         int64  `json:"ttl_seconds"`
	RefreshRecommended bool   `json:"refresh_recommended"`
	Logins             int    `json:"logins"`
	LastLogin          string `json:"last_login,omitempty"`
	LastError          string `json:"last_error,omitempty"`
	Action             string `json:"action,omitempty"`
}

func newTokenView(st auth.Status, action string) tokenView {
	v := tokenView{
		State:              string(st.State),
		HasToken:           st.HasToken,
		TokenPreview:       st.TokenPreview,
		TTLSeconds:         int64(st.TTL / time.Second),
		RefreshRecommended: st.RefreshRecommended,
		Logins:             st.Logins,
		LastError:          st.LastError,
		Action:             action,
	}
	if !st.ExpiresAt.IsZero() {
		v.ExpiresAt = nmc.FormatTime(st.ExpiresAt)
	}
	if !st.LastLogin.IsZero() {
		v.LastLogin = nmc.FormatTime(st.LastLogin)
	}
	return v
}

func authTools(deps Deps) []api.ToolDescriptor {
	tokens := deps.Tokens
	return []api.ToolDescriptor{
		tool("refresh_auth_token",
			"Refresh the NMC API token. Without force, a token that is still comfortably valid is kept",
			func(ctx context.Context, args api.Args) (interface{}, error) {
				force := args.Bool("force")
				before := tokens.Status().Logins
				if _, err := tokens.Refresh(ctx, force); err != nil {
					return nil, err
				}
				st := tokens.Status()
				action := "kept current token"
				if st.Logins > before {
					action = "obtained new token"
				}
				return newTokenView(st, action), nil
			},
			api.ParameterMetadata{
				Name:        "force",
				Type:        api.TypeBoolean,
				Description: "Log in again even if the current token is still valid",
				Default:     false,
			}),

		tool("check_auth_token_status",
			"Report the state of the NMC API token without contacting the server",
			func(ctx context.Context, args api.Args) (interface{}, error) {
				return newTokenView(tokens.Status(), ""), nil
			}),

		tool("ensure_valid_auth_token",
			"Make sure a usable NMC API token is held, logging in if it is missing or about to expire",
			func(ctx context.Context, args api.Args) (interface{}, error) {
				before := tokens.Status().Logins
				if _, err := tokens.EnsureValid(ctx); err != nil {
					return nil, err
				}
				st := tokens.Status()
				action := "token already valid"
				if st.Logins > before {
					action = "logged in"
				}
				return newTokenView(st, action), nil
			}),
	}
}
