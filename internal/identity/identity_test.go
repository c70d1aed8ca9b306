package identity

import (
	"testing"

	"github.com/apache/trusted-releases/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCommittee() *model.Committee {
	return &model.Committee{
		Name:        "foo",
		DisplayName: "Apache Foo",
		Members:     model.NewRoleSet("m1"),
		Committers:  model.NewRoleSet("m1", "c1"),
		Participant: model.NewRoleSet("m1", "c1", "p1"),
	}
}

func TestResolve(t *testing.T) {
	snapshot := map[string]string{"m2@example.com": "m2"}
	committee := testCommittee()

	t.Run("apache.org domain is its own uid", func(t *testing.T) {
		res := Resolve("m1 <m1@apache.org>", snapshot, committee)
		require.True(t, res.Valid)
		assert.Equal(t, "m1", res.UID)
		assert.Equal(t, model.StatusBinding, res.Status)
	})

	t.Run("snapshot lookup resolves uid", func(t *testing.T) {
		res := Resolve("Someone <m2@example.com>", snapshot, committee)
		require.True(t, res.Valid)
		assert.Equal(t, "m2", res.UID)
		assert.Equal(t, model.StatusContributor, res.Status)
	})

	t.Run("invalid suffix stripped", func(t *testing.T) {
		res := Resolve("m1 <m1@apache.org.invalid>", snapshot, committee)
		require.True(t, res.Valid)
		assert.Equal(t, "m1@apache.org", res.Email)
		assert.Equal(t, "m1", res.UID)
	})

	t.Run("unresolvable address still tabulates under email", func(t *testing.T) {
		res := Resolve("Nobody <nobody@example.com>", snapshot, committee)
		require.True(t, res.Valid)
		assert.False(t, res.HasUID)
		assert.Equal(t, model.StatusUnknown, res.Status)
		assert.Equal(t, "nobody@example.com", res.Key())
	})

	t.Run("committer status", func(t *testing.T) {
		res := Resolve("c1 <c1@apache.org>", snapshot, committee)
		assert.Equal(t, model.StatusCommitter, res.Status)
	})

	t.Run("contributor status", func(t *testing.T) {
		res := Resolve("p1 <p1@apache.org>", snapshot, committee)
		assert.Equal(t, model.StatusContributor, res.Status)
	})

	t.Run("invalid header", func(t *testing.T) {
		res := Resolve("not an address", snapshot, committee)
		assert.False(t, res.Valid)
	})

	t.Run("nil committee yields unknown", func(t *testing.T) {
		res := Resolve("m1 <m1@apache.org>", snapshot, nil)
		assert.Equal(t, model.StatusUnknown, res.Status)
	})
}
