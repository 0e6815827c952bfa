package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"
)

type options struct {
	addr    string
	id      string
	balance int64
	stake   int64
	bet     string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:          "coinflip-client",
		Short:        "Test client for the coin flip server",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&opts.addr, "addr", "localhost:10000", "server host:port")

	play := &cobra.Command{
		Use:   "play",
		Short: "Connect, authenticate and play from stdin",
		Long: `play connects to /ws and authenticates as --id.

With --stake and --bet set it searches and bets automatically. Otherwise
type commands: find <amount>, bet <heads|tails>, cancel, ping, quit.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return play(opts)
		},
	}
	play.Flags().StringVar(&opts.id, "id", fmt.Sprintf("player_%d", time.Now().UnixNano()%100000), "player id")
	play.Flags().Int64Var(&opts.balance, "balance", 1000, "declared balance")
	play.Flags().Int64Var(&opts.stake, "stake", 0, "search automatically at this stake")
	play.Flags().StringVar(&opts.bet, "bet", "", "bet automatically once matched (heads or tails)")

	health := &cobra.Command{
		Use:   "health",
		Short: "Print the server's /health view",
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := http.Get("http://" + opts.addr + "/health")
			if err != nil {
				return err
			}
			defer resp.Body.Close()
			_, err = io.Copy(cmd.OutOrStdout(), resp.Body)
			return err
		},
	}

	root.AddCommand(play, health)
	return root
}

// gorilla allows one concurrent writer
var writeMutex sync.Mutex

func send(c *websocket.Conn, msg map[string]any) error {
	writeMutex.Lock()
	defer writeMutex.Unlock()
	return c.WriteJSON(msg)
}

func play(opts *options) error {
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)

	u := url.URL{Scheme: "ws", Host: opts.addr, Path: "/ws"}
	log.Printf("Connecting to %s", u.String())

	c, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer c.Close()

	done := make(chan struct{})

	// Read loop
	go func() {
		defer close(done)
		for {
			_, message, err := c.ReadMessage()
			if err != nil {
				log.Println("Read error:", err)
				return
			}
			log.Printf("<- %s", message)

			var env struct {
				Type string `json:"type"`
			}
			if json.Unmarshal(message, &env) != nil {
				continue
			}
			switch env.Type {
			case "auth_success":
				if opts.stake > 0 {
					_ = send(c, map[string]any{"type": "find_opponent", "betAmount": opts.stake})
				}
			case "opponent_found":
				if opts.bet != "" {
					_ = send(c, map[string]any{"type": "make_bet", "bet": opts.bet})
				}
			}
		}
	}()

	if err := send(c, map[string]any{"type": "auth", "playerId": opts.id, "balance": opts.balance}); err != nil {
		return err
	}

	lines := make(chan string)
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- strings.TrimSpace(scanner.Text())
		}
	}()

	for {
		select {
		case <-done:
			return nil
		case <-interrupt:
			log.Println("Interrupt received, closing connection.")
			writeMutex.Lock()
			err := c.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			writeMutex.Unlock()
			if err != nil {
				log.Println("Write close error:", err)
			}
			select {
			case <-done:
			case <-time.After(time.Second):
			}
			return nil
		case line := <-lines:
			msg, quit := parseCommand(line)
			if quit {
				return nil
			}
			if msg == nil {
				continue
			}
			if err := send(c, msg); err != nil {
				return err
			}
			log.Printf("-> %v", msg)
		}
	}
}

func parseCommand(line string) (map[string]any, bool) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil, false
	}

	switch fields[0] {
	case "quit", "exit":
		return nil, true
	case "find":
		if len(fields) < 2 {
			log.Println("usage: find <amount>")
			return nil, false
		}
		amount, err := strconv.ParseInt(fields[1], 10, 64)
		if err != nil {
			log.Println("amount must be a number")
			return nil, false
		}
		return map[string]any{"type": "find_opponent", "betAmount": amount}, false
	case "bet":
		if len(fields) < 2 {
			log.Println("usage: bet <heads|tails>")
			return nil, false
		}
		return map[string]any{"type": "make_bet", "bet": fields[1]}, false
	case "cancel":
		return map[string]any{"type": "cancel_search"}, false
	case "ping":
		return map[string]any{"type": "ping"}, false
	default:
		log.Printf("unknown command %q", fields[0])
		return nil, false
	}
}
