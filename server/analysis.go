package server

import (
	"errors"
	"net/http"

	"github.com/gorilla/websocket"

	"chess-arcade/engine"
	"chess-arcade/position"
)

type analysisRequest struct {
	FEN   string `json:"fen"`
	Depth int    `json:"depth"`
}

type analysisReply struct {
	FEN       string  `json:"fen"`
	BestMove  string  `json:"bestmove,omitempty"`
	Score     int     `json:"score"`
	Depth     int     `json:"depth"`
	Nodes     uint64  `json:"nodes"`
	Cutoffs   uint64  `json:"cutoffs"`
	ElapsedMs float64 `json:"elapsed_ms"`
	Partial   bool    `json:"partial,omitempty"`
	Error     string  `json:"error,omitempty"`
}

// serveAnalysis answers {fen, depth} requests with a search of the position,
// one reply per request, until the client goes away.
func (s *Server) serveAnalysis(w http.ResponseWriter, r *http.Request) {
	upgrader := websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	for {
		var req analysisRequest
		if err := conn.ReadJSON(&req); err != nil {
			var closeErr *websocket.CloseError
			if !errors.As(err, &closeErr) {
				s.logger.Debug().Err(err).Msg("analysis connection closed")
			}
			return
		}
		reply := s.analyse(r, req)
		if err := conn.WriteJSON(reply); err != nil {
			return
		}
	}
}

func (s *Server) analyse(r *http.Request, req analysisRequest) analysisReply {
	reply := analysisReply{FEN: req.FEN}
	pos, err := position.FromFEN(req.FEN)
	if err != nil {
		reply.Error = err.Error()
		return reply
	}
	maxDepth := s.config.Get().AnalysisMaxDepth
	reply.Depth = min(max(req.Depth, 1), maxDepth)

	ctx, cancel := s.moveContext(r.Context())
	defer cancel()
	res, err := engine.NewSearcher[position.Move](s.searchOptions()...).Search(ctx, pos, reply.Depth)
	reply.Nodes = res.Stats.Nodes
	reply.Cutoffs = res.Stats.Cutoffs
	reply.ElapsedMs = float64(res.Stats.Elapsed.Microseconds()) / 1000
	if err != nil {
		reply.Error = err.Error()
		reply.Partial = true
	}
	if res.Found {
		reply.BestMove = res.Move.String()
		reply.Score = int(res.Score)
	}
	return reply
}
