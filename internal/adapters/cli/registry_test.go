package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hugo-lorenzo-mato/cli-worker/internal/core"
	"github.com/hugo-lorenzo-mato/cli-worker/internal/logging"
	"github.com/hugo-lorenzo-mato/cli-worker/internal/testutil"
)

func TestRegistry_Builtins(t *testing.T) {
	r := NewRegistry(nil)

	assert.Equal(t, []core.ProviderID{core.ProviderKimi, core.ProviderClaude, core.ProviderOpenCode}, r.IDs())
	for _, id := range core.ProviderIDs() {
		p, err := r.Get(id)
		require.NoError(t, err)
		assert.Equal(t, id, p.ID())
	}
}

func TestRegistry_GetCaches(t *testing.T) {
	r := NewRegistry(nil)
	a, err := r.Get(core.ProviderClaude)
	require.NoError(t, err)
	b, err := r.Get(core.ProviderClaude)
	require.NoError(t, err)
	assert.Same(t, a, b)
}

func TestRegistry_GetUnknown(t *testing.T) {
	_, err := NewRegistry(nil).Get("gemini")
	require.Error(t, err)
	assert.True(t, core.IsCategory(err, core.ErrCatNotFound))
}

func TestRegistry_LookupSuggests(t *testing.T) {
	_, err := NewRegistry(nil).Lookup("claud")
	require.Error(t, err)

	var de *core.DomainError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, core.CodeUnknownProvider, de.Code)
	assert.Equal(t, "kimi, claude, opencode", de.Detail("valid"))
	assert.Equal(t, "claude", de.Detail("suggestion"))
}

func TestRegistry_LookupTrims(t *testing.T) {
	p, err := NewRegistry(nil).Lookup(" opencode ")
	require.NoError(t, err)
	assert.Equal(t, core.ProviderOpenCode, p.ID())
}

func TestRegistry_RegisterOverrides(t *testing.T) {
	r := NewRegistry(nil)
	mock := testutil.NewMockProvider(core.ProviderKimi)
	r.Register(mock)

	p, err := r.Get(core.ProviderKimi)
	require.NoError(t, err)
	assert.Same(t, core.Provider(mock), p)
}

func TestRegistry_RegisterFactoryResetsCache(t *testing.T) {
	r := NewRegistry(nil)
	_, err := r.Get(core.ProviderKimi)
	require.NoError(t, err)

	mock := testutil.NewMockProvider(core.ProviderKimi)
	r.RegisterFactory(core.ProviderKimi, func(*Runner, *logging.Logger) core.Provider { return mock })

	p, err := r.Get(core.ProviderKimi)
	require.NoError(t, err)
	assert.Same(t, core.Provider(mock), p)
}

func TestRegistry_Suggest(t *testing.T) {
	r := NewRegistry(nil)
	assert.Equal(t, []string{"kimi", "claude", "opencode"}, r.Suggest(""))
	assert.Equal(t, []string{"opencode"}, r.Suggest("opn"))
	assert.Empty(t, r.Suggest("zzz"))
}
