package denormalize_test

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/jmerrifield20/profiles/internal/denormalize"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitize_publicKeysAlwaysPresent(t *testing.T) {
	u := newUser("bar")
	u.JobTitle = "Engineer"
	u.Service = "IT"
	u.BuildingLocation = "Tunis"
	u.OfficeLocation = "France"
	u.MainPhone = "123456789"
	u.Description = "This is my description"
	avatar := uuid.New()
	u.CurrentAvatar = &avatar

	for _, strip := range []bool{true, false} {
		p, err := denormalize.Sanitize(u, strip)
		require.NoError(t, err)

		raw, err := json.Marshal(p)
		require.NoError(t, err)
		var m map[string]any
		require.NoError(t, json.Unmarshal(raw, &m))

		for _, key := range denormalize.PublicKeys {
			assert.Contains(t, m, key, "strip=%v", strip)
		}
	}
}

func TestSanitize_copiesAvatar(t *testing.T) {
	u := newUser("bar")
	avatar := uuid.New()
	u.CurrentAvatar = &avatar

	p, err := denormalize.Sanitize(u, true)
	require.NoError(t, err)

	require.NotNil(t, p.CurrentAvatar)
	assert.Equal(t, avatar, *p.CurrentAvatar)
	assert.NotSame(t, u.CurrentAvatar, p.CurrentAvatar)
}

func TestSanitize_enrichmentFieldsStartEmpty(t *testing.T) {
	p, err := denormalize.Sanitize(newUser("bar"), false)
	require.NoError(t, err)

	assert.Zero(t, p.Followers)
	assert.Nil(t, p.Following)
	assert.Nil(t, p.Features)
	assert.Nil(t, p.Preferences)
}
