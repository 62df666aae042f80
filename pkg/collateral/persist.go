package collateral

import (
	"context"
	"fmt"

	"github.com/codeready-toolchain/cleo/ent"
	"github.com/google/uuid"
)

// draftTweet is one tweet accumulated during the loop, either standalone or
// a member of a draftThread.
type draftTweet struct {
	Text                 string
	CopyOptions          []string
	ImageCaptureIDs      []string
	VideoSourceCaptureID string
	VideoStartTimestamp  *float64
	VideoDurationSecs    *float64
	Rationale            string
}

// draftThread is one thread accumulated during the loop. TempID is the
// agent-local identifier used only to report back which thread a tool
// result refers to; it is never written to storage.
type draftThread struct {
	TempID      string
	Title       string
	CopyOptions []string
	Tweets      []draftTweet
}

// accumulator collects drafts across the loop's tool calls. Nothing here
// touches the database until persist runs once at the end.
type accumulator struct {
	standaloneTweets []draftTweet
	threads          []draftThread
}

func (a *accumulator) addTweet(t draftTweet) {
	a.standaloneTweets = append(a.standaloneTweets, t)
}

func (a *accumulator) addThread(t draftThread) {
	a.threads = append(a.threads, t)
}

func (a *accumulator) count() int {
	n := len(a.standaloneTweets)
	for _, th := range a.threads {
		n += len(th.Tweets)
	}
	return n
}

// persistResult reports what was written, for the run-lifecycle "Finish"
// step's tweets_generated counter.
type persistResult struct {
	ThreadIDsByTempID map[string]string
	TweetsGenerated   int
}

// persist writes every accumulated thread and standalone tweet for one run
// in a single transaction: all drafts commit together or none do. Thread
// rows are inserted first so their real IDs are known before the member
// tweet rows are inserted with thread_position set from draft order.
func persist(ctx context.Context, client *ent.Client, userID string, acc *accumulator) (*persistResult, error) {
	if acc.count() == 0 {
		return &persistResult{ThreadIDsByTempID: map[string]string{}}, nil
	}

	tx, err := client.Tx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to start persistence transaction: %w", err)
	}
	defer tx.Rollback()

	result := &persistResult{ThreadIDsByTempID: make(map[string]string, len(acc.threads))}

	for _, th := range acc.threads {
		threadRow, err := tx.Thread.Create().
			SetID(uuid.New().String()).
			SetUserID(userID).
			SetNillableTitle(nonEmpty(th.Title)).
			SetCopyOptions(th.CopyOptions).
			Save(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to create thread: %w", err)
		}
		result.ThreadIDsByTempID[th.TempID] = threadRow.ID

		for position, dt := range th.Tweets {
			if _, err := createTweet(ctx, tx, userID, dt, &threadRow.ID, &position); err != nil {
				return nil, fmt.Errorf("failed to create thread tweet: %w", err)
			}
			result.TweetsGenerated++
		}
	}

	for _, dt := range acc.standaloneTweets {
		if _, err := createTweet(ctx, tx, userID, dt, nil, nil); err != nil {
			return nil, fmt.Errorf("failed to create standalone tweet: %w", err)
		}
		result.TweetsGenerated++
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit drafts: %w", err)
	}

	return result, nil
}

func createTweet(ctx context.Context, tx *ent.Tx, userID string, dt draftTweet, threadID *string, position *int) (*ent.Tweet, error) {
	builder := tx.Tweet.Create().
		SetID(uuid.New().String()).
		SetUserID(userID).
		SetText(dt.Text).
		SetCopyOptions(dt.CopyOptions).
		SetImageCaptureIds(dt.ImageCaptureIDs).
		SetNillableRationale(nonEmpty(dt.Rationale))

	if dt.VideoSourceCaptureID != "" {
		builder = builder.SetVideoSourceCaptureID(dt.VideoSourceCaptureID)
	}
	if dt.VideoStartTimestamp != nil {
		builder = builder.SetVideoStartTimestamp(*dt.VideoStartTimestamp)
	}
	if dt.VideoDurationSecs != nil {
		builder = builder.SetVideoDurationSecs(*dt.VideoDurationSecs)
	}
	if threadID != nil {
		builder = builder.SetThreadID(*threadID).SetThreadPosition(*position)
	}

	return builder.Save(ctx)
}

func nonEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
