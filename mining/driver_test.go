package mining_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"forge/chain"
	"forge/mining"
)

func TestDriver_Mine_FindsSatisfyingNonce(t *testing.T) {
	codec := chain.NewDefaultCodec()
	d := mining.NewDriver(codec, 2, nil)

	content := chain.BlockContent{Metadata: chain.BlockMetadata{Index: 0, Difficulty: 1}}
	pre, err := d.Mine(context.Background(), content)
	require.NoError(t, err)
	require.NotNil(t, pre)
	assert.True(t, chain.MeetsDifficulty(pre.PreEvaluationHash, 1))
	assert.Equal(t, codec.PreEvaluationHash(content, pre.Nonce), pre.PreEvaluationHash)
}

func TestDriver_Mine_CallerCancelReportsCallerReason(t *testing.T) {
	codec := chain.NewDefaultCodec()
	d := mining.NewDriver(codec, 1, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// Difficulty far out of reach so workers never find a winner before
	// observing cancellation.
	content := chain.BlockContent{Metadata: chain.BlockMetadata{Index: 0, Difficulty: 256}}
	_, err := d.Mine(ctx, content)
	require.Error(t, err)

	var cancelled *mining.Cancelled
	require.ErrorAs(t, err, &cancelled)
	assert.Equal(t, mining.ReasonCaller, cancelled.Reason)
}

func TestDriver_Mine_TaggedCauseReportsThatReason(t *testing.T) {
	codec := chain.NewDefaultCodec()
	d := mining.NewDriver(codec, 1, nil)

	ctx, cancel := context.WithCancelCause(context.Background())
	cancel(&mining.Cancelled{Reason: mining.ReasonTipChanged})

	content := chain.BlockContent{Metadata: chain.BlockMetadata{Index: 0, Difficulty: 256}}
	_, err := d.Mine(ctx, content)
	require.Error(t, err)

	var cancelled *mining.Cancelled
	require.ErrorAs(t, err, &cancelled)
	assert.Equal(t, mining.ReasonTipChanged, cancelled.Reason)
}

func TestDriver_Mine_CancellationLatencyIsBounded(t *testing.T) {
	codec := chain.NewDefaultCodec()
	d := mining.NewDriver(codec, 4, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	content := chain.BlockContent{Metadata: chain.BlockMetadata{Index: 0, Difficulty: 256}}
	start := time.Now()
	_, err := d.Mine(ctx, content)
	elapsed := time.Since(start)

	require.Error(t, err)
	assert.Less(t, elapsed, 2*time.Second)
}
