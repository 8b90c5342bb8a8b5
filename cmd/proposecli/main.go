// Command proposecli demonstrates one end-to-end propose() call against
// the in-memory reference collaborators: a chain of funded accounts each
// stages one transfer to the next, alongside a coinbase credit to the
// miner, and the CLI runs them through gather, mine, evaluate, and
// append.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"forge/chain"
	"forge/evaluate"
	"forge/events"
	"forge/fixtures"
	"forge/gather"
	"forge/metadata"
	"forge/mining"
	"forge/policy"
	"forge/propose"
	"forge/sizeest"
	"forge/stage"
	"forge/store"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var workers int
	var txCount int

	cmd := &cobra.Command{
		Use:   "proposecli",
		Short: "Propose a single block against an in-memory chain",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPropose(cmd.Context(), workers, txCount)
		},
	}
	cmd.Flags().IntVar(&workers, "workers", 0, "mining worker count (0 = runtime.NumCPU)")
	cmd.Flags().IntVar(&txCount, "tx-count", 3, "number of transfer transactions to stage")
	return cmd
}

func runPropose(ctx context.Context, workers, txCount int) error {
	log := logrus.NewEntry(logrus.StandardLogger())

	codec := chain.NewDefaultCodec()
	st := store.NewMemory("demo")
	pol := policy.NewDefault(policy.DefaultConfig(), st)
	sp := stage.NewMemory("demo")
	pub := events.NewPublisher()
	ev := evaluate.NewDefault(st, codec)

	miner := fixtures.FirstUser()
	minerAddr := miner.Address()
	st.SetAccount(minerAddr, policy.AccountState{Balance: 0, Nonce: 0})

	accounts := fixtures.Accounts(txCount + 1)
	for i, acct := range accounts {
		st.SetAccount(acct.Address(), policy.AccountState{Balance: uint64(1000 * (i + 1)), Nonce: 0})
	}

	now := time.Now().UTC()
	sp.Add(fixtures.Coinbase(minerAddr, 5000, 0, now))
	for i := 0; i < txCount; i++ {
		from := accounts[i]
		to := accounts[i+1].Address()
		sp.Add(fixtures.Transfer(from, to, 10, 0, now))
	}

	proposer := propose.NewProposer(
		st,
		metadata.NewBuilder(pol, st),
		gather.NewGatherer(sp, st, pol, sizeest.NewEstimator(codec), log),
		mining.NewDriver(codec, workers, log),
		ev,
		st,
		pol,
		pub,
		st,
		log,
	)

	block, err := proposer.Propose(ctx, minerAddr, propose.Options{})
	if err != nil {
		return err
	}

	fmt.Printf("proposed block index=%d nonce=%d txs=%d hash=%x\n",
		block.Metadata().Index, block.PreEvaluation.Nonce, len(block.Transactions()), block.Hash)
	return nil
}
