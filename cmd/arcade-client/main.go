package main

import (
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/arcade-universe/server/client"
	"github.com/arcade-universe/server/games"
	"github.com/arcade-universe/server/protocol"
)

// A headless arcade client: joins the matchmaking queue for one game type,
// logs every session event, and when the game is tic-tac-toe plays it by
// taking the first free cell on its turn. Useful for exercising a running
// server from two terminals.
func main() {
	serverURL := flag.String("server", "ws://localhost:3006/ws", "websocket URL of the arcade server")
	gameType := flag.String("game", "tictactoe", "game type to queue for")
	flag.Parse()

	proxy := client.New(*serverURL)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := proxy.Connect(ctx); err != nil {
		slog.Error("Failed to connect", "server", *serverURL, "error", err)
		os.Exit(1)
	}
	defer proxy.Close()

	done := make(chan struct{})

	var game *games.TicTacToe

	proxy.OnWaiting(func(w protocol.WaitingForOpponent) {
		slog.Info("Waiting for an opponent...", "gameType", w.GameType)
	})
	proxy.OnReady(func(ready protocol.GameReady) {
		slog.Info("Match ready", "roomID", ready.RoomID, "playerNumber", ready.PlayerNumber,
			"opponentID", ready.OpponentID, "latency", proxy.Latency())
		if *gameType != "tictactoe" {
			return
		}
		game = games.NewTicTacToe(proxy, true, ready.PlayerNumber)
		// One callback slot per event: re-register with a wrapper that
		// chains to the game's own handler, then answers the move.
		proxy.OnOpponentAction(func(action protocol.OpponentAction) {
			slog.Info("Opponent action", "action", action.Action, "data", string(action.ActionData))
			game.HandleOpponentAction(action)
			if over, winner := game.Result(); over {
				slog.Info("Game finished locally", "winner", winner)
				return
			}
			playNext(game)
		})
		if ready.PlayerNumber == 1 {
			playNext(game)
		}
	})
	proxy.OnOpponentMove(func(move protocol.OpponentMove) {
		slog.Info("Opponent moved", "position", string(move.Position), "timestamp", move.Timestamp)
	})
	proxy.OnOpponentAction(func(action protocol.OpponentAction) {
		slog.Info("Opponent action", "action", action.Action, "data", string(action.ActionData))
	})
	proxy.OnSyncState(func(state json.RawMessage) {
		slog.Info("State sync", "state", string(state))
	})
	proxy.OnMatchEnded(func(ended protocol.MatchEnded) {
		slog.Info("Match ended", "winnerID", ended.WinnerID, "score", string(ended.Score))
		close(done)
	})
	proxy.OnOpponentDisconnected(func() {
		slog.Info("Opponent disconnected, match abandoned")
		close(done)
	})

	if err := proxy.JoinMultiplayer(*gameType); err != nil {
		slog.Error("Failed to join multiplayer", "error", err)
		os.Exit(1)
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-done:
	case <-quit:
		proxy.CancelWaiting()
	}
	slog.Info("Session over", "latency", proxy.Latency())
}

// playNext takes the first free cell. The games package gates the move if it
// is not actually our turn, so a stale callback can never double-play.
func playNext(game *games.TicTacToe) {
	for row := 0; row < 3; row++ {
		for col := 0; col < 3; col++ {
			if game.Cell(row, col) == 0 {
				if err := game.Play(row, col); err == nil {
					return
				}
			}
		}
	}
}
