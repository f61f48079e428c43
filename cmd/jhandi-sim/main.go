// Command jhandi-sim rolls the dice offline. It either reports the symbol
// distribution over many rolls or verifies one provably-fair nonce.
package main

import (
	"flag"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/MJE43/jhandi-burja-go/internal/engine"
	"github.com/MJE43/jhandi-burja-go/internal/jhandi"
)

func main() {
	rolls := flag.Int("rolls", 10000, "number of rolls to simulate")
	seed := flag.Uint64("seed", 0, "PCG seed for a reproducible run (0 = random)")
	serverSeed := flag.String("server-seed", "", "verify mode: revealed server seed")
	clientSeed := flag.String("client-seed", "", "verify mode: client seed")
	nonce := flag.Uint64("nonce", 1, "verify mode: nonce to recompute")
	flag.Parse()

	var err error
	if *serverSeed != "" {
		err = verify(os.Stdout, engine.Seeds{Server: *serverSeed, Client: *clientSeed}, *nonce)
	} else {
		src := engine.NewSource()
		if *seed != 0 {
			src = engine.NewSeededSource(*seed, *seed^0x9e3779b97f4a7c15)
		}
		err = report(os.Stdout, simulate(jhandi.New(src), *rolls))
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "jhandi-sim: %v\n", err)
		os.Exit(1)
	}
}

// Distribution counts faces and repeat patterns over a batch of rolls.
type Distribution struct {
	Rolls int
	Faces map[jhandi.Key]int
	// Matches[k] counts (roll, symbol) pairs where the symbol showed exactly k times.
	// A roll with two symbols doubled adds 2 to Matches[2].
	Matches [jhandi.DiceCount + 1]int
}

func simulate(e *jhandi.Engine, rolls int) Distribution {
	d := Distribution{Rolls: rolls, Faces: make(map[jhandi.Key]int)}
	for i := 0; i < rolls; i++ {
		_, tally := e.Roll()
		for k, c := range tally {
			d.Faces[k] += c
			d.Matches[c]++
		}
	}
	return d
}

func report(w io.Writer, d Distribution) error {
	if d.Rolls <= 0 {
		return fmt.Errorf("rolls must be positive, got %d", d.Rolls)
	}
	total := d.Rolls * jhandi.DiceCount
	expected := float64(total) / float64(len(jhandi.Catalog()))

	fmt.Fprintf(w, "rolls=%d faces=%d\n", d.Rolls, total)
	for _, s := range jhandi.Catalog() {
		n := d.Faces[s.Key]
		dev := (float64(n) - expected) / expected * 100
		fmt.Fprintf(w, "%-7s %s %8d  %6.3f%%  dev=%+.2f%%\n",
			s.Key, s.Glyph, n, float64(n)/float64(total)*100, dev)
	}
	fmt.Fprintf(w, "chi2=%.3f (5 dof)\n", chiSquare(d, expected))
	for k := 2; k <= jhandi.DiceCount; k++ {
		fmt.Fprintf(w, "symbol x%d: %d\n", k, d.Matches[k])
	}
	return nil
}

func chiSquare(d Distribution, expected float64) float64 {
	var chi float64
	for _, k := range jhandi.Keys() {
		diff := float64(d.Faces[k]) - expected
		chi += diff * diff / expected
	}
	if math.IsNaN(chi) {
		return 0
	}
	return chi
}

func verify(w io.Writer, seeds engine.Seeds, nonce uint64) error {
	if seeds.Client == "" {
		return fmt.Errorf("client-seed is required with server-seed")
	}
	out, err := jhandi.Verify(seeds, nonce)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "server_hash=%s nonce=%d\n", out.ServerHash, out.Nonce)
	for i, f := range out.Faces {
		fmt.Fprintf(w, "die %d: %s %s\n", i+1, f.Glyph, f.Key)
	}
	fmt.Fprintln(w, out.Tally.String())
	return nil
}
