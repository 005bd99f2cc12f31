package app

import (
	"context"
	"fmt"
	"time"

	"nmc-mcp/internal/formatting"
	"nmc-mcp/internal/nmc"
	"nmc-mcp/pkg/logging"
	pkgstrings "nmc-mcp/pkg/strings"
)

// Check verifies connectivity: a forced login, then a one-item filer list.
// The steps run in order and stop at the first failure. The returned error
// is the first failure, if any.
func (a *Application) Check(ctx context.Context) ([]formatting.CheckStep, error) {
	return runCheck(ctx, a.services)
}

func runCheck(ctx context.Context, services *Services) ([]formatting.CheckStep, error) {
	steps := []formatting.CheckStep{{
		Name:   "config",
		OK:     true,
		Detail: fmt.Sprintf("%s as %s", services.Settings.BaseURL, services.Settings.Username),
	}}

	start := time.Now()
	tok, err := services.Tokens.Refresh(ctx, true)
	login := formatting.CheckStep{Name: "login", OK: err == nil, Duration: time.Since(start)}
	if err != nil {
		login.Detail = err.Error()
		logging.Error("App", err, "Connectivity check failed at login")
		return append(steps, login), err
	}
	login.Detail = fmt.Sprintf("token %s valid until %s", pkgstrings.MaskSecret(tok.Value), nmc.FormatTime(tok.ExpiresAt))
	steps = append(steps, login)

	start = time.Now()
	page, err := services.NMC.Filers.Probe(ctx)
	list := formatting.CheckStep{Name: "list filers", OK: err == nil, Duration: time.Since(start)}
	if err != nil {
		list.Detail = err.Error()
		logging.Error("App", err, "Connectivity check failed listing filers")
		return append(steps, list), err
	}
	list.Detail = fmt.Sprintf("GET %s?limit=1 returned %d item(s)", nmc.FilersPath, len(page.Items))
	if page.Total > 0 {
		list.Detail += fmt.Sprintf(" of %d", page.Total)
	}
	return append(steps, list), nil
}
