package components

import (
	"fmt"

	"github.com/rakunlabs/flow"
	"github.com/rakunlabs/flow/variant"
	"golang.org/x/oauth2/clientcredentials"
)

// OAuth2Token is an entry component: it fetches a single client-credentials
// token during cycle 1 and emits it, generalizing the teacher's Google ADC
// token-source usage (internal/service/llm/vertex) to a plain OAuth2
// client-credentials flow against any token endpoint.
type OAuth2Token struct {
	Out flow.PortID

	ClientID     string
	ClientSecret string
	TokenURL     string
	Scopes       []string
}

func (c *OAuth2Token) Kind() flow.ComponentKind { return flow.Lazy }
func (c *OAuth2Token) Inputs() *flow.Ports      { return flow.NewPorts(nil) }
func (c *OAuth2Token) Outputs() *flow.Ports     { return flow.NewPorts([]flow.Port{{ID: c.Out}}) }

func (c *OAuth2Token) Run(ctx *flow.Context) (flow.Signal, error) {
	cfg := &clientcredentials.Config{
		ClientID:     c.ClientID,
		ClientSecret: c.ClientSecret,
		TokenURL:     c.TokenURL,
		Scopes:       c.Scopes,
	}

	token, err := cfg.Token(ctx.StdContext())
	if err != nil {
		return flow.Continue, fmt.Errorf("components: oauth2_token: %w", err)
	}

	out, err := variant.FromAny(map[string]any{
		"access_token": token.AccessToken,
		"token_type":   token.TokenType,
		"expiry":       token.Expiry.Unix(),
	})
	if err != nil {
		return flow.Continue, fmt.Errorf("components: oauth2_token: encode: %w", err)
	}

	ctx.Send(c.Out, out)
	return flow.Continue, nil
}
