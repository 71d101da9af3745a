// Package mock provides test doubles for chatter interfaces using function fields.
package mock

import (
	"context"

	"github.com/fwojciec/chatter"
)

// Interface compliance checks.
var (
	_ chatter.Gateway     = (*Gateway)(nil)
	_ chatter.Persister   = (*Persister)(nil)
	_ chatter.Renderer    = (*Renderer)(nil)
	_ chatter.SoundPlayer = (*SoundPlayer)(nil)
)

// Gateway is a test double for chatter.Gateway.
// Set SendFn before calling Send.
type Gateway struct {
	SendFn func(ctx context.Context, req chatter.Request) (string, error)
}

// Send delegates to SendFn.
func (g *Gateway) Send(ctx context.Context, req chatter.Request) (string, error) {
	return g.SendFn(ctx, req)
}

// Persister is a test double for chatter.Persister.
// LoadFn returns chatter.ErrNoSnapshot when nil. SaveFn is a no-op when nil
// because most tests only care about what the store restores.
type Persister struct {
	LoadFn func() (chatter.Snapshot, error)
	SaveFn func(chatter.Snapshot) error
}

// Load delegates to LoadFn.
func (p *Persister) Load() (chatter.Snapshot, error) {
	if p.LoadFn == nil {
		return chatter.Snapshot{}, chatter.ErrNoSnapshot
	}
	return p.LoadFn()
}

// Save delegates to SaveFn.
func (p *Persister) Save(s chatter.Snapshot) error {
	if p.SaveFn == nil {
		return nil
	}
	return p.SaveFn(s)
}

// Renderer is a test double for chatter.Renderer.
type Renderer struct {
	RenderFn func(content string) string
}

// Render delegates to RenderFn.
func (r *Renderer) Render(content string) string {
	return r.RenderFn(content)
}

// SoundPlayer is a test double for chatter.SoundPlayer.
// PlayFn is a no-op when nil.
type SoundPlayer struct {
	PlayFn func()
}

// Play delegates to PlayFn.
func (p *SoundPlayer) Play() {
	if p.PlayFn != nil {
		p.PlayFn()
	}
}
