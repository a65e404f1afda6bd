package resolve

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aicodeswitch/aicodeswitch/internal/config"
	"github.com/aicodeswitch/aicodeswitch/internal/proxyerr"
)

func snapshotFixture() *config.Snapshot {
	return &config.Snapshot{
		ActiveRoutes: map[config.TargetType]config.Route{
			config.TargetClaudeCode: {ID: "route-cc", TargetType: config.TargetClaudeCode, IsActive: true},
		},
		RulesByRouteID: map[string][]config.Rule{
			"route-cc": {
				{ID: "rule-default", RouteID: "route-cc", ContentType: config.ContentDefault, TargetServiceID: "svc-1"},
				{ID: "rule-thinking", RouteID: "route-cc", ContentType: config.ContentThinking, TargetServiceID: "svc-2"},
			},
		},
		ServicesByID: map[string]config.APIService{
			"svc-1": {ID: "svc-1", SourceType: config.SourceClaudeChat},
			"svc-2": {ID: "svc-2", SourceType: config.SourceOpenAIChat},
		},
	}
}

func TestResolve_ExactMatch(t *testing.T) {
	res, err := Resolve(snapshotFixture(), config.TargetClaudeCode, config.ContentThinking)
	require.NoError(t, err)
	assert.Equal(t, "svc-2", res.Service.ID)
}

func TestResolve_FallsBackToDefault(t *testing.T) {
	res, err := Resolve(snapshotFixture(), config.TargetClaudeCode, config.ContentImageUnderstanding)
	require.NoError(t, err)
	assert.Equal(t, "svc-1", res.Service.ID)
}

func TestResolve_NoMatchingRoute(t *testing.T) {
	_, err := Resolve(snapshotFixture(), config.TargetCodex, config.ContentDefault)
	assert.True(t, errors.Is(err, proxyerr.ErrNoMatchingRoute))
}

func TestResolve_NoMatchingRule(t *testing.T) {
	snap := snapshotFixture()
	snap.RulesByRouteID["route-cc"] = nil

	_, err := Resolve(snap, config.TargetClaudeCode, config.ContentThinking)
	assert.True(t, errors.Is(err, proxyerr.ErrNoMatchingRule))
}

func TestResolve_TargetServiceMissing(t *testing.T) {
	snap := snapshotFixture()
	delete(snap.ServicesByID, "svc-1")

	_, err := Resolve(snap, config.TargetClaudeCode, config.ContentDefault)
	assert.True(t, errors.Is(err, proxyerr.ErrTargetServiceMissing))
}
