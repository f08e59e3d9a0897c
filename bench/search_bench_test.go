package bench

import (
	"context"
	"testing"

	"github.com/dylhunn/dragontoothmg"

	"chess-arcade/engine"
	"chess-arcade/position"
)

func benchSearch(b *testing.B, fen string, depth int, options ...engine.Option) {
	p := mustFEN(b, fen)
	s := engine.NewSearcher[position.Move](options...)
	var nodes uint64
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		res, err := s.Search(context.Background(), p, depth)
		if err != nil {
			b.Fatalf("search: %v", err)
		}
		nodes += res.Stats.Nodes
	}
	b.ReportMetric(float64(nodes)/float64(b.N), "nodes/op")
}

func BenchmarkSearch_Initial_D3(b *testing.B) {
	benchSearch(b, dragontoothmg.Startpos, 3)
}

func BenchmarkSearch_Initial_D4(b *testing.B) {
	benchSearch(b, dragontoothmg.Startpos, 4)
}

func BenchmarkSearch_Kiwipete_D3(b *testing.B) {
	benchSearch(b, kiwipete, 3)
}

func BenchmarkSearch_Legacy_Initial_D3(b *testing.B) {
	benchSearch(b, dragontoothmg.Startpos, 3, engine.WithLeafMode(engine.LeafLegacy))
}
