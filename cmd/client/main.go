package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/Netflix/go-env"
	"github.com/gookit/color"
	"github.com/gorilla/websocket"
	"github.com/joho/godotenv"
	"github.com/olekukonko/tablewriter"

	"chat-relay/domain"
	"chat-relay/domain/event"
	"chat-relay/infrastructure/httpapi"
	"chat-relay/infrastructure/ws"
)

// Exit codes for the client application.
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

// Config defines the client-side environment variables.
type Config struct {
	ServerAddress string `env:"CHAT_SERVER_ADDR,default=localhost:8080"`
	UserID        string `env:"CHAT_USER_ID"`
}

func main() {
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Client error: %v\n", err)
	}
	os.Exit(code)
}

func run() (int, error) {
	_ = godotenv.Load()
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}

	userID := strings.TrimSpace(config.UserID)
	if userID == "" {
		fmt.Print("Enter your UserID: ")
		line, _ := bufio.NewReader(os.Stdin).ReadString('\n')
		userID = strings.TrimSpace(line)
		if userID == "" {
			userID = "Guest"
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	wsURL := url.URL{
		Scheme:   "ws",
		Host:     config.ServerAddress,
		Path:     "/ws",
		RawQuery: "user_id=" + url.QueryEscape(userID),
	}
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL.String(), nil)
	if err != nil {
		return exitRuntime, fmt.Errorf("could not connect to %s: %w", wsURL.String(), err)
	}
	defer conn.Close()

	color.Green.Println("Connected to the chat server.")

	go receive(conn, userID)

	printHelp()
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}

		switch {
		case strings.EqualFold(input, "/exit"):
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(time.Second))
			color.Gray.Println("Disconnected from chat server.")
			return exitOK, nil

		case strings.EqualFold(input, "/history"):
			if err := send(conn, ws.TypeHistory, struct{}{}); err != nil {
				return exitRuntime, err
			}

		case strings.HasPrefix(strings.ToLower(input), "/history "):
			peer := strings.TrimSpace(input[len("/history "):])
			fetchPairHistory(config.ServerAddress, userID, peer)

		case strings.HasPrefix(strings.ToLower(input), "/msg "):
			parts := strings.SplitN(input, " ", 3)
			if len(parts) < 3 {
				color.Red.Println("Invalid format. Use: /msg <UserId> <Message>")
				continue
			}
			cmd := domain.SendCommand{ReceiverID: parts[1], Content: parts[2]}
			if err := send(conn, ws.TypeSend, cmd); err != nil {
				return exitRuntime, err
			}

		case strings.HasPrefix(strings.ToLower(input), "/broadcast "):
			cmd := domain.BroadcastCommand{Content: input[len("/broadcast "):]}
			if err := send(conn, ws.TypeBroadcast, cmd); err != nil {
				return exitRuntime, err
			}

		default:
			color.Red.Println("Invalid command. Try again.")
			printHelp()
		}
	}
	return exitOK, scanner.Err()
}

func printHelp() {
	fmt.Println("\nCommands:")
	fmt.Println("  /msg <UserId> <Message>   send a private message")
	fmt.Println("  /broadcast <Message>      message everyone")
	fmt.Println("  /history [UserId]         your history, or with one peer")
	fmt.Println("  /exit                     quit")
}

func send(conn *websocket.Conn, typ string, payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return conn.WriteJSON(ws.Envelope{Type: typ, Payload: raw})
}

// receive prints pushed events until the connection dies.
func receive(conn *websocket.Conn, userID string) {
	for {
		var env ws.Envelope
		if err := conn.ReadJSON(&env); err != nil {
			return
		}

		switch env.Type {
		case string(event.KindMessageReceived):
			var e event.MessageReceived
			if json.Unmarshal(env.Payload, &e) != nil {
				continue
			}
			if e.IsBroadcast {
				color.Magenta.Printf("%s (Broadcast): %s\n", e.SenderID, e.Content)
			} else {
				color.Cyan.Printf("%s: %s\n", e.SenderID, e.Content)
			}

		case string(event.KindMessageSaved):
			var e event.MessageSaved
			if json.Unmarshal(env.Payload, &e) != nil {
				continue
			}
			color.Gray.Printf("✓ delivered to %s\n", e.ReceiverID)

		case string(event.KindSystemNotice):
			var n struct {
				Text  string `json:"text"`
				Error string `json:"error"`
			}
			if json.Unmarshal(env.Payload, &n) != nil {
				continue
			}
			if n.Error != "" {
				color.Red.Println(n.Error)
			} else {
				color.Yellow.Println(n.Text)
			}

		case string(event.KindUserDisconnected):
			var e event.UserDisconnected
			if json.Unmarshal(env.Payload, &e) != nil {
				continue
			}
			color.Gray.Printf("User %s has disconnected.\n", e.UserID)

		case ws.TypeHistory:
			var h ws.HistoryResponse
			if json.Unmarshal(env.Payload, &h) != nil {
				continue
			}
			renderHistory(fmt.Sprintf("Chat history for %s", userID), h.Entries)
		}
	}
}

// fetchPairHistory uses the independent query channel: history works
// even for messages exchanged while this client was offline.
func fetchPairHistory(serverAddr, userID, peer string) {
	historyURL := url.URL{
		Scheme: "http",
		Host:   serverAddr,
		Path:   "/history",
		RawQuery: url.Values{
			"user_id":      {userID},
			"recipient_id": {peer},
		}.Encode(),
	}

	resp, err := http.Get(historyURL.String())
	if err != nil {
		color.Red.Printf("Error fetching chat history: %v\n", err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		color.Red.Printf("Error fetching chat history: HTTP %d\n", resp.StatusCode)
		return
	}

	var payload httpapi.HistoryPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		color.Red.Printf("Error decoding chat history: %v\n", err)
		return
	}
	renderHistory(fmt.Sprintf("Chat history with %s", peer), payload.Entries)
}

func renderHistory(title string, entries []string) {
	color.Green.Println(title)
	if len(entries) == 0 {
		color.Gray.Println("(empty)")
		return
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"#", "Entry"})
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")

	for i, entry := range entries {
		table.Append([]string{strconv.Itoa(i + 1), entry})
	}
	table.Render()
}
