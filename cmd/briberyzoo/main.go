package main

import (
	"flag"
	"fmt"
	"log/slog"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/0xsooki/bribery-zoo/analyzer"
	"github.com/0xsooki/bribery-zoo/cache"
	"github.com/0xsooki/bribery-zoo/game"
	"github.com/0xsooki/bribery-zoo/log"
	"github.com/0xsooki/bribery-zoo/strategy"
)

var version = "v0.1.0"

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("briberyzoo", flag.ContinueOnError)

	chainString := fs.String("chain", "", "Chain string: one character per slot after base-slot, e.g. \"HAAH\"")
	baseSlot := fs.Int("base-slot", 0, "Slot number the chain string's window starts after")
	honest := fs.String("honest", "H", "Honest entity tag")
	adversary := fs.String("adversary", "A", "Adversary entity tag")
	bribees := fs.String("bribees", "", "Comma-separated list of recruitable bribee entity tags")
	powers := powerFlag{}
	fs.Var(&powers, "power", "entity=voting_power, repeatable")

	blockReward := fs.Int64("block-reward", 1, "Reward weight for the blocks channel")
	successReward := fs.Int64("success-reward", 1, "Reward weight for the success channel")
	baseRewardUnit := fs.Int64("base-reward-unit", 0, "Reward weight for the base_reward channel")
	deadlineRewardUnit := fs.Int64("deadline-reward-unit", 0, "Reward weight for the deadline_reward channel")
	deadlinePaybackUnit := fs.Int64("deadline-payback-unit", 0, "Reward weight for the deadline_payback channel")
	maxRatio := fs.Float64("max-ratio", 0, "Maximum deviation damage/cost ratio a surviving equilibrium may exhibit (0 disables the cap)")

	cacheDir := fs.String("cache-dir", "", "Directory for the persistent result cache (disabled if empty)")
	verbosity := fs.Int("verbosity", 3, "Log level 0-5 (0-1=error, 2=warn, 3=info, 4-5=debug)")
	logFormat := fs.String("log-format", "json", "Log line format: json, text, or color")
	showVersion := fs.Bool("version", false, "Print version and exit")

	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 2
	}

	if *showVersion {
		fmt.Printf("briberyzoo %s\n", version)
		return 0
	}

	if err := setupLogging(*verbosity, *logFormat); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 2
	}

	if *chainString == "" {
		fmt.Fprintln(os.Stderr, "Error: -chain is required")
		return 2
	}

	g := game.Game{
		BaseSlot:            *baseSlot,
		ChainString:         *chainString,
		HonestEntity:        *honest,
		AdversaryEntity:     *adversary,
		BribeeEntities:      splitNonEmpty(*bribees),
		EntityToVotingPower: powers.m,
		Units:               strategy.BribeUnits{},
	}

	weights := analyzer.Weights{
		BlockReward:         *blockReward,
		SuccessReward:       *successReward,
		BaseRewardUnit:      *baseRewardUnit,
		DeadlineRewardUnit:  *deadlineRewardUnit,
		DeadlinePaybackUnit: *deadlinePaybackUnit,
	}

	var store *cache.Store
	if *cacheDir != "" {
		s, err := cache.Open(*cacheDir)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: opening cache: %v\n", err)
			return 1
		}
		defer s.Close()
		store = s
	}

	pre, err := precompileFor(g, store)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	effectiveMaxRatio := *maxRatio
	if effectiveMaxRatio <= 0 {
		effectiveMaxRatio = math.Inf(1)
	}

	reward := analyzer.ApplyWeights(pre.Pre, weights)
	survivors := analyzer.BestEquilibrium(reward, effectiveMaxRatio)

	printEquilibria(pre.Players, reward, survivors)

	if store != nil {
		wt := cache.WeightTable{Weights: weights, MaxRatio: effectiveMaxRatio}
		for _, profile := range survivors {
			rewards := make([]int64, len(pre.Players))
			for p := range pre.Players {
				rewards[p] = reward.At(append([]int{p}, profile...)...)
			}
			wt.Equilibria = append(wt.Equilibria, cache.EquilibriumEntry{Profile: profile, Rewards: rewards})
		}
		if err := store.PutWeightTable(g.ChainString, g.EntityToVotingPower, wt); err != nil {
			log.Default().Warn("failed to cache weight table", "err", err)
		}
	}

	return 0
}

// precompileFor returns the precompiled channel tensor for g, consulting
// store first if one was supplied and recompiling (then populating it) on
// a miss. The cache key covers only (chain string, voting powers): every
// weight sweep over the same scenario reuses the same precompiled bundle.
func precompileFor(g game.Game, store *cache.Store) (cache.Bundle, error) {
	if store != nil {
		b, ok, err := store.GetBundle(g.ChainString, g.EntityToVotingPower)
		if err != nil {
			return cache.Bundle{}, err
		}
		if ok {
			log.Default().Info("precompile cache hit", "chain", g.ChainString)
			return b, nil
		}
	}

	rt, err := game.CompileRunTable(g)
	if err != nil {
		return cache.Bundle{}, err
	}
	b := cache.Bundle{Pre: analyzer.Precompile(rt), Players: rt.Players()}

	if store != nil {
		if err := store.PutBundle(g.ChainString, g.EntityToVotingPower, b); err != nil {
			log.Default().Warn("failed to cache precompiled bundle", "err", err)
		}
	}
	return b, nil
}

func printEquilibria(players []string, reward *analyzer.Tensor, survivors [][]int) {
	if len(survivors) == 0 {
		fmt.Println("no surviving equilibrium under the given deviation-ratio cap")
		return
	}
	for _, profile := range survivors {
		fmt.Printf("profile %v:\n", profile)
		for p, player := range players {
			v := reward.At(append([]int{p}, profile...)...)
			fmt.Printf("  %s: %d\n", player, v)
		}
	}
}

func splitNonEmpty(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// powerFlag implements flag.Value, accumulating repeated -power
// entity=voting_power occurrences into a map.
type powerFlag struct {
	m map[string]int
}

func (p *powerFlag) String() string {
	if p.m == nil {
		return ""
	}
	var parts []string
	for k, v := range p.m {
		parts = append(parts, fmt.Sprintf("%s=%d", k, v))
	}
	return strings.Join(parts, ",")
}

func (p *powerFlag) Set(s string) error {
	entity, raw, ok := strings.Cut(s, "=")
	if !ok {
		return fmt.Errorf("expected entity=voting_power, got %q", s)
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fmt.Errorf("invalid voting power in %q: %w", s, err)
	}
	if p.m == nil {
		p.m = map[string]int{}
	}
	p.m[entity] = n
	return nil
}

func setupLogging(verbosity int, format string) error {
	var lvl slog.Level
	switch {
	case verbosity <= 1:
		lvl = slog.LevelError
	case verbosity == 2:
		lvl = slog.LevelWarn
	case verbosity == 3:
		lvl = slog.LevelInfo
	default:
		lvl = slog.LevelDebug
	}

	var formatter log.LogFormatter
	switch format {
	case "json":
		formatter = &log.JSONFormatter{}
	case "text":
		formatter = &log.TextFormatter{}
	case "color":
		formatter = &log.ColorFormatter{}
	default:
		return fmt.Errorf("unknown -log-format %q (want json, text, or color)", format)
	}

	log.SetDefault(log.NewWithHandler(log.NewFormatterHandler(os.Stderr, formatter, lvl)))
	return nil
}
