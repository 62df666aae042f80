package collateral

import (
	"testing"

	"github.com/codeready-toolchain/cleo/ent"
	"github.com/codeready-toolchain/cleo/ent/thread"
	testdb "github.com/codeready-toolchain/cleo/test/database"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testUser(t *testing.T, client *ent.Client) *ent.User {
	t.Helper()
	u, err := client.User.Create().
		SetID(uuid.New().String()).
		SetExternalID(uuid.New().String()).
		SetUsername("test-user").
		SetAPIToken(uuid.New().String()).
		Save(t.Context())
	require.NoError(t, err)
	return u
}

func TestPersist_EmptyAccumulatorIsNoOp(t *testing.T) {
	client := testdb.NewTestClient(t)
	u := testUser(t, client.Client)

	result, err := persist(t.Context(), client.Client, u.ID, &accumulator{})
	require.NoError(t, err)
	assert.Equal(t, 0, result.TweetsGenerated)
	assert.Empty(t, result.ThreadIDsByTempID)
}

func TestPersist_StandaloneTweetsAndThreadsCommitTogether(t *testing.T) {
	client := testdb.NewTestClient(t)
	u := testUser(t, client.Client)

	acc := &accumulator{}
	acc.addTweet(draftTweet{Text: "a standalone moment"})
	acc.addThread(draftThread{
		TempID: "tmp-1",
		Title:  "a sequence",
		Tweets: []draftTweet{
			{Text: "first"},
			{Text: "second"},
		},
	})

	result, err := persist(t.Context(), client.Client, u.ID, acc)
	require.NoError(t, err)
	assert.Equal(t, 3, result.TweetsGenerated)
	require.Contains(t, result.ThreadIDsByTempID, "tmp-1")

	dbThreadID := result.ThreadIDsByTempID["tmp-1"]
	th, err := client.Thread.Query().
		Where(thread.IDEQ(dbThreadID)).
		WithTweets().
		Only(t.Context())
	require.NoError(t, err)
	require.Len(t, th.Edges.Tweets, 2)

	tweets, err := client.Tweet.Query().Where().All(t.Context())
	require.NoError(t, err)
	assert.Len(t, tweets, 3)
}

func TestPersist_RollsBackOnError(t *testing.T) {
	client := testdb.NewTestClient(t)

	acc := &accumulator{}
	acc.addTweet(draftTweet{Text: "fine"})
	acc.addThread(draftThread{
		TempID: "tmp-bad",
		Tweets: []draftTweet{
			{Text: "ok"},
		},
	})

	// No such user exists, so the first thread insert violates the
	// required user_id foreign key; the whole batch — including the
	// standalone tweet — must roll back rather than leave a partial draft.
	_, err := persist(t.Context(), client.Client, "no-such-user", acc)
	require.Error(t, err)

	count, err := client.Tweet.Query().Count(t.Context())
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	threadCount, err := client.Thread.Query().Count(t.Context())
	require.NoError(t, err)
	assert.Equal(t, 0, threadCount)
}
