package position

// Perft counts the leaf nodes of the legal move tree to the given depth.
func (p *Position) Perft(depth int) uint64 {
	if depth <= 0 {
		return 1
	}
	moves := p.board.GenerateLegalMoves()
	if depth == 1 {
		return uint64(len(moves))
	}
	var nodes uint64
	for _, m := range moves {
		p.Apply(m)
		nodes += p.Perft(depth - 1)
		p.Undo()
	}
	return nodes
}

// Divide returns the perft count below each root move.
func (p *Position) Divide(depth int) map[Move]uint64 {
	out := make(map[Move]uint64)
	if depth <= 0 {
		return out
	}
	for _, m := range p.board.GenerateLegalMoves() {
		p.Apply(m)
		out[m] = p.Perft(depth - 1)
		p.Undo()
	}
	return out
}
