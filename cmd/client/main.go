// cmd/client/main.go
package main

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"net"
	"os"
	"strconv"
	"time"

	"chatroom/internal/client/models"
	"chatroom/internal/client/network"
	"chatroom/internal/client/tui"
	"chatroom/pkg/protocol"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
)

const handshakeTimeout = 10 * time.Second

func main() {
	if len(os.Args) < 4 {
		fmt.Println("Usage: <server_ip> <server_port> <username>")
		return
	}
	serverIP, serverPort, username := os.Args[1], os.Args[2], os.Args[3]
	if _, err := strconv.Atoi(serverPort); err != nil {
		fmt.Println("Error: Invalid port number.")
		return
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintln(os.Stderr, "Error loading .env file:", err)
		os.Exit(1)
	}

	// log file
	logPath := os.Getenv("CLIENT_LOG")
	if logPath == "" {
		logPath = "client.log"
	}
	logFile, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		log.Fatal("Error opening log file:", err)
	}
	defer logFile.Close()
	log.SetOutput(logFile)

	conn, err := network.NewConnection(net.JoinHostPort(serverIP, serverPort))
	if err != nil {
		fmt.Fprintln(os.Stderr, "Failed to connect to the server:", err)
		os.Exit(1)
	}

	handler := network.NewConnectionHandler(conn.GetUnderlyingConn())
	greeting, err := handler.Connect(username, handshakeTimeout)
	if err != nil {
		log.Printf("Handshake failed: %v", err)
		if errors.Is(err, network.ErrRejected) {
			fmt.Println(greeting)
		} else {
			fmt.Fprintln(os.Stderr, "Failed to connect to the server:", err)
		}
		handler.Close()
		os.Exit(1)
	}

	model := tui.NewModel(username, conn.RemoteAddr().String(), greeting, handler)
	p := tea.NewProgram(model, tea.WithAltScreen())

	handler.SetMessageHandler(func(msg protocol.Message) {
		p.Send(models.MessageReceived{Message: msg})
	})
	handler.SetDisconnectHandler(func(unexpected bool) {
		log.Printf("Disconnected (unexpected: %v)", unexpected)
		p.Send(models.Disconnected{Unexpected: unexpected})
	})
	handler.Start()

	final, err := p.Run()
	handler.Close()
	if err != nil {
		log.Fatal("Error running program:", err)
	}
	if m, ok := final.(tui.Model); ok {
		fmt.Print(m.Farewell())
	}
}
