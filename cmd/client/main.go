package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/gridrelay/tictactoe/internal/bot"
	"github.com/gridrelay/tictactoe/internal/client"
	"github.com/gridrelay/tictactoe/internal/game"
)

func main() {
	mode := flag.String("mode", "ai", "game mode: ai, local or online")
	serverURL := flag.String("server", "ws://localhost:8080/ws", "relay websocket url (online mode)")
	roomCode := flag.String("room", "", "room code to join; a new one is generated when empty (online mode)")
	difficulty := flag.String("difficulty", bot.Hard, "bot difficulty: easy, medium or hard (ai mode)")
	flag.Parse()

	switch *mode {
	case "ai":
		playVersusBot(*difficulty)
	case "local":
		playLocal()
	case "online":
		playOnline(*serverURL, *roomCode)
	default:
		log.Fatalf("unknown mode %q", *mode)
	}
}

func render(b game.Board) {
	cell := func(i int) string {
		if b[i] == game.None {
			return strconv.Itoa(i)
		}
		return string(b[i])
	}
	for row := 0; row < 3; row++ {
		i := row * 3
		fmt.Printf(" %s | %s | %s\n", cell(i), cell(i+1), cell(i+2))
		if row < 2 {
			fmt.Println("---+---+---")
		}
	}
	fmt.Println()
}

// readCell prompts until the player names an empty cell.
func readCell(in *bufio.Scanner, b game.Board, mark game.Mark) int {
	for {
		fmt.Printf("%s to move [0-8]: ", mark)
		if !in.Scan() {
			fmt.Println()
			os.Exit(0)
		}
		index, err := strconv.Atoi(strings.TrimSpace(in.Text()))
		if err != nil || index < 0 || index >= game.Cells {
			fmt.Println("pick a cell between 0 and 8")
			continue
		}
		if b[index] != game.None {
			fmt.Println("that cell is taken")
			continue
		}
		return index
	}
}

func announce(result game.Result) {
	if result.Draw {
		fmt.Println("it's a draw")
		return
	}
	fmt.Printf("%s wins\n", result.Winner)
}

func playVersusBot(difficulty string) {
	in := bufio.NewScanner(os.Stdin)
	var board game.Board
	turn := game.X

	fmt.Printf("you are X, the bot is O (%s)\n\n", difficulty)
	render(board)

	for {
		if turn == game.X {
			board[readCell(in, board, game.X)] = game.X
		} else {
			move := bot.BestMove(board, game.O, difficulty)
			fmt.Printf("bot plays %d\n", move)
			board[move] = game.O
		}
		render(board)

		if result := game.Evaluate(board); result.Over() {
			announce(result)
			return
		}
		turn = game.Opponent(turn)
	}
}

func playLocal() {
	in := bufio.NewScanner(os.Stdin)
	var board game.Board
	turn := game.X

	render(board)
	for {
		board[readCell(in, board, turn)] = turn
		render(board)

		if result := game.Evaluate(board); result.Over() {
			announce(result)
			return
		}
		turn = game.Opponent(turn)
	}
}

func playOnline(serverURL, roomCode string) {
	sess, err := client.Dial(context.Background(), serverURL)
	if err != nil {
		log.Fatalf("failed to connect to %s: %v", serverURL, err)
	}
	defer sess.Close()

	if roomCode == "" {
		code, err := sess.CreateRoom()
		if err != nil {
			log.Fatalf("failed to create room: %v", err)
		}
		fmt.Printf("created room %s, share this code with your opponent\n", code)
	} else {
		if err := sess.Join(roomCode); err != nil {
			log.Fatalf("failed to join room: %v", err)
		}
		fmt.Printf("joining room %s\n", strings.ToUpper(strings.TrimSpace(roomCode)))
	}

	in := bufio.NewScanner(os.Stdin)

	for event := range sess.Events() {
		switch event.Type {
		case client.EventAssigned:
			fmt.Printf("you play %s, waiting for an opponent\n", event.Symbol)

		case client.EventReady, client.EventReset:
			fmt.Println("game on")
			render(event.Board)
			promptIfMyTurn(in, sess)

		case client.EventMove:
			render(event.Board)
			if event.Result.Over() {
				announce(event.Result)
				fmt.Println("press enter to play again, ctrl-c to quit")
				if !in.Scan() {
					return
				}
				if err := sess.Reset(); err != nil {
					log.Fatalf("failed to reset: %v", err)
				}
				continue
			}
			promptIfMyTurn(in, sess)

		case client.EventError:
			fmt.Printf("server: %s\n", event.Message)
			return

		case client.EventClosed:
			fmt.Println("connection closed")
			return
		}
	}
}

func promptIfMyTurn(in *bufio.Scanner, sess *client.Session) {
	if sess.Turn() != sess.Symbol() {
		fmt.Println("waiting for opponent...")
		return
	}
	index := readCell(in, sess.Board(), sess.Symbol())
	if err := sess.Move(index); err != nil {
		fmt.Printf("move rejected: %v\n", err)
	}
}
