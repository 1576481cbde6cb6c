// Package denormalize builds the request-ready view of a user.
//
// Denormalize sanitizes the record and then runs five enrichment stages in
// order: viewer relationship, follow counts, account state, domain features
// and preferences. Only sanitization can fail the call. An enrichment stage
// whose backing store fails falls back to its default and the pipeline
// carries on.
package denormalize

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/jmerrifield20/profiles/internal/features"
	"github.com/jmerrifield20/profiles/internal/follow"
	"github.com/jmerrifield20/profiles/internal/userconfig"
	"github.com/jmerrifield20/profiles/internal/users"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Stage names, as reported to the degraded hook.
const (
	StageIsFollowing = "is_following"
	StageFollowStats = "follow_stats"
	StageFeatures    = "features"
	StagePreferences = "preferences"
)

// followStore is the follow-relationship lookup consumed by Denormalizer.
type followStore interface {
	GetStats(ctx context.Context, u *users.User) (follow.Stats, error)
	IsFollowedBy(ctx context.Context, subject, viewer *users.User) (bool, error)
}

// featureStore is the domain feature lookup consumed by Denormalizer.
type featureStore interface {
	FindFeaturesForDomain(ctx context.Context, domainID uuid.UUID) (*features.Features, error)
}

// configStore is the per-user configuration lookup consumed by Denormalizer.
type configStore interface {
	Get(name string) *userconfig.Query
}

// preference is a configuration value copied into Profile.Preferences.
type preference struct {
	key    string
	module string
	name   string
}

var knownPreferences = []preference{
	{key: "homePage", module: userconfig.DefaultModule, name: "homePage"},
}

// Options carries the request-scoped inputs of a Denormalize call.
type Options struct {
	// DoNotKeepPrivateData strips private fields regardless of Viewer.
	DoNotKeepPrivateData bool
	// Viewer is the user issuing the request, if any.
	Viewer *users.User
}

// DegradedFunc is an optional callback invoked when a stage falls back.
type DegradedFunc func(stage string)

// Denormalizer assembles profiles from a user record and its backing stores.
type Denormalizer struct {
	follows    followStore
	features   featureStore
	config     configStore
	onDegraded DegradedFunc
	logger     *zap.Logger
}

// New creates a Denormalizer.
func New(follows followStore, feats featureStore, config configStore, logger *zap.Logger) *Denormalizer {
	return &Denormalizer{follows: follows, features: feats, config: config, logger: logger}
}

// SetDegradedHook configures the callback invoked for each degraded stage.
func (d *Denormalizer) SetDegradedHook(fn DegradedFunc) {
	d.onDegraded = fn
}

// Denormalize returns the sanitized, enriched profile of u. The only error
// it returns wraps ErrInvalidUser. u is never modified.
func (d *Denormalizer) Denormalize(ctx context.Context, u *users.User, opts Options) (*Profile, error) {
	p, err := Sanitize(u, opts.DoNotKeepPrivateData)
	if err != nil {
		return nil, err
	}

	d.setIsFollowing(ctx, u, p, opts.Viewer)
	d.setFollowStats(ctx, u, p)
	setState(u, p)
	d.loadFeatures(ctx, u, p)
	d.loadPreferences(ctx, u, p)
	return p, nil
}

func (d *Denormalizer) setIsFollowing(ctx context.Context, u *users.User, p *Profile, viewer *users.User) {
	if viewer == nil || viewer.ID == u.ID {
		return
	}

	res := attempt(d.follows.IsFollowedBy(ctx, u, viewer))
	if res.degraded() {
		d.degrade(StageIsFollowing, u, res.err)
		return
	}
	following := res.value
	p.Following = &following
}

func (d *Denormalizer) setFollowStats(ctx context.Context, u *users.User, p *Profile) {
	res := attempt(d.follows.GetStats(ctx, u))
	if res.degraded() {
		d.degrade(StageFollowStats, u, res.err)
	}
	stats := res.or(follow.Stats{})
	p.Followers = stats.Followers
	p.Followings = stats.Followings
}

func setState(u *users.User, p *Profile) {
	p.Disabled = u.Login.Disabled
}

func (d *Denormalizer) loadFeatures(ctx context.Context, u *users.User, p *Profile) {
	res := attempt(d.features.FindFeaturesForDomain(ctx, u.PreferredDomainID))
	if res.degraded() {
		d.degrade(StageFeatures, u, res.err)
		return
	}
	p.Features = res.value
}

// loadPreferences resolves every known preference concurrently and waits for
// all of them to settle. Failed or unset preferences are left out.
func (d *Denormalizer) loadPreferences(ctx context.Context, u *users.User, p *Profile) {
	p.Preferences = make(map[string]json.RawMessage, len(knownPreferences))

	var (
		mu sync.Mutex
		g  errgroup.Group
	)
	for _, pref := range knownPreferences {
		pref := pref
		g.Go(func() error {
			res := attempt(d.config.Get(pref.name).InModule(pref.module).ForUser(u).Get(ctx))
			if res.degraded() {
				if !errors.Is(res.err, userconfig.ErrNotConfigured) {
					d.degrade(StagePreferences, u, res.err, zap.String("preference", pref.key))
				}
				return nil
			}
			mu.Lock()
			p.Preferences[pref.key] = res.value
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
}

func (d *Denormalizer) degrade(stage string, u *users.User, err error, fields ...zap.Field) {
	fields = append(fields,
		zap.String("stage", stage),
		zap.String("user_id", u.ID.String()),
		zap.Error(err),
	)
	d.logger.Warn("denormalize: enrichment degraded", fields...)
	if d.onDegraded != nil {
		d.onDegraded(stage)
	}
}
