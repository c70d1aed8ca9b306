package tabulate

import (
	"context"
	"testing"
	"time"

	"github.com/apache/trusted-releases/internal/archive"
	"github.com/apache/trusted-releases/internal/directory"
	"github.com/apache/trusted-releases/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func committee() *model.Committee {
	return &model.Committee{
		Name:    "foo",
		Members: model.NewRoleSet("m1", "m2", "m3", "m4"),
	}
}

func TestVotesS1ChangeOfMind(t *testing.T) {
	reader := archive.NewFake()
	dir := directory.NewFake()

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	msgs := []struct {
		uid  string
		body string
	}{
		{"m1", "+1"},
		{"m2", "+1"},
		{"m3", "-1"},
		{"m4", "+1"},
		{"m3", "+1"},
	}
	for i, m := range msgs {
		reader.Add("T", archive.Message{
			ID:        "mid" + string(rune('0'+i)),
			From:      m.uid + " <" + m.uid + "@apache.org>",
			Subject:   "[VOTE] Release foo 1.0.0",
			Body:      m.body,
			Timestamp: base.Add(time.Duration(i) * time.Hour),
		})
	}

	result, err := Votes(context.Background(), reader, dir, "T", committee(), Options{})
	require.NoError(t, err)
	assert.Len(t, result.Votes, 4)
	assert.Equal(t, model.VoteYes, result.Votes["m3"].Vote)
	assert.True(t, result.Votes["m3"].Updated)
	assert.False(t, result.Votes["m1"].Updated)
}

func TestVotesRESULTCutoff(t *testing.T) {
	reader := archive.NewFake()
	dir := directory.NewFake()

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	reader.Add("T", archive.Message{ID: "1", From: "m1 <m1@apache.org>", Subject: "[VOTE]", Body: "+1", Timestamp: base})
	reader.Add("T", archive.Message{ID: "2", From: "m2 <m2@apache.org>", Subject: "[VOTE][RESULT]", Body: "+1", Timestamp: base.Add(time.Hour)})
	reader.Add("T", archive.Message{ID: "3", From: "m3 <m3@apache.org>", Subject: "[VOTE]", Body: "+1", Timestamp: base.Add(2 * time.Hour)})

	result, err := Votes(context.Background(), reader, dir, "T", committee(), Options{})
	require.NoError(t, err)
	assert.Len(t, result.Votes, 1)
	_, hasM3 := result.Votes["m3"]
	assert.False(t, hasM3)
}

func TestVotesQuoteIsolation(t *testing.T) {
	reader := archive.NewFake()
	dir := directory.NewFake()

	reader.Add("T", archive.Message{
		ID:        "1",
		From:      "m1 <m1@apache.org>",
		Subject:   "[VOTE]",
		Body:      "> -1 someone else's quoted vote\n+1 my real vote",
		Timestamp: time.Now(),
	})

	result, err := Votes(context.Background(), reader, dir, "T", committee(), Options{})
	require.NoError(t, err)
	require.Contains(t, result.Votes, "m1")
	assert.Equal(t, model.VoteYes, result.Votes["m1"].Vote)
}
